// Package simulation plays full games with the solved table as policy and
// random dice, as a statistical cross-check of the solver: over many games
// the average score must approach the solved starting-state value.
package simulation

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/dicetools/optzee/dice"
	"github.com/dicetools/optzee/scoring"
	"github.com/dicetools/optzee/solver"
	"github.com/dicetools/optzee/state"
	"github.com/dicetools/optzee/stats"
	"github.com/dicetools/optzee/valuetable"
)

// TurnLog records one turn of a logged game.
type TurnLog struct {
	Roll     string `yaml:"roll"`
	Category string `yaml:"category"`
	Points   int    `yaml:"points"`
}

// GameLog is the serialized form of a single game, for debug log streams.
type GameLog struct {
	Game   int       `yaml:"game"`
	Thread int       `yaml:"thread"`
	Turns  []TurnLog `yaml:"turns"`
	Score  int       `yaml:"score"`
	Bonus  bool      `yaml:"bonus"`
}

// Summary aggregates the scores of a simulation run.
type Summary struct {
	Games     int
	Mean      float64
	Stdev     float64
	CI95      float64
	Min       float64
	Max       float64
	Median    float64
	BonusRate float64
}

func (s *Summary) String() string {
	return fmt.Sprintf("games %d, mean %.3f ± %.3f (95%% CI), stdev %.2f, min %.0f, median %.0f, max %.0f, bonus %.1f%%",
		s.Games, s.Mean, s.CI95, s.Stdev, s.Min, s.Median, s.Max, s.BonusRate*100)
}

// Simulator plays optimal-policy games against a solved table.
type Simulator struct {
	table   *valuetable.Table
	threads int

	logStream io.Writer

	mu         sync.Mutex
	scoreStats stats.Running
	scores     []float64
	bonuses    int
}

// New returns a simulator over a fully solved table.
func New(table *valuetable.Table) *Simulator {
	return &Simulator{
		table:   table,
		threads: int(math.Max(1, float64(runtime.NumCPU()-1))),
	}
}

// SetThreads overrides the worker count.
func (s *Simulator) SetThreads(n int) {
	if n > 0 {
		s.threads = n
	}
}

// SetLogStream enables per-game YAML logs on w.
func (s *Simulator) SetLogStream(w io.Writer) {
	s.logStream = w
}

// Run plays the given number of games and returns the score summary.
func (s *Simulator) Run(ctx context.Context, games int) (*Summary, error) {
	if games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", games)
	}
	s.scoreStats = stats.Running{}
	s.scores = make([]float64, 0, games)
	s.bonuses = 0

	g, ctx := errgroup.WithContext(ctx)
	jobChan := make(chan int, s.threads*2)
	for t := 0; t < s.threads; t++ {
		thread := t
		g.Go(func() error {
			rng := frand.New()
			for game := range jobChan {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := s.playGame(rng, game, thread); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobChan)
		for i := 0; i < games; i++ {
			select {
			case jobChan <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Float64s(s.scores)
	summary := &Summary{
		Games:     s.scoreStats.Count(),
		Mean:      s.scoreStats.Mean(),
		Stdev:     s.scoreStats.Stdev(),
		CI95:      s.scoreStats.CI(95),
		Min:       s.scoreStats.Min(),
		Max:       s.scoreStats.Max(),
		Median:    stat.Quantile(0.5, stat.Empirical, s.scores, nil),
		BonusRate: float64(s.bonuses) / float64(games),
	}
	log.Info().Int("games", games).Float64("mean", summary.Mean).Msg("simulation-done")
	return summary, nil
}

func (s *Simulator) playGame(rng *frand.RNG, game, thread int) error {
	g := state.GameState{Open: state.AllCategories, Upper: 0}
	total := 0
	turns := make([]TurnLog, 0, state.NumCategories)

	for !g.Terminal() {
		hand := rollDice(rng, dice.HandSize)
		for rollsLeft := 2; rollsLeft >= 1; rollsLeft-- {
			keep, _, err := solver.BestKeep(s.table, g.Open, g.Upper, hand, rollsLeft)
			if err != nil {
				return err
			}
			hand = keep.Merge(rollDice(rng, dice.HandSize-keep.Size()))
		}
		c, err := solver.BestCategory(s.table, g.Open, g.Upper, hand)
		if err != nil {
			return err
		}
		next, points, err := scoring.Apply(g, c, hand)
		if err != nil {
			return err
		}
		turns = append(turns, TurnLog{Roll: hand.String(), Category: c.String(), Points: points})
		total += points
		g = next
	}
	bonus := g.Upper == state.UpperBonusThreshold
	if bonus {
		total += state.UpperBonus
	}

	s.mu.Lock()
	s.scoreStats.Push(float64(total))
	s.scores = append(s.scores, float64(total))
	if bonus {
		s.bonuses++
	}
	s.mu.Unlock()

	if s.logStream != nil {
		s.writeLog(GameLog{Game: game, Thread: thread, Turns: turns, Score: total, Bonus: bonus})
	}
	return nil
}

func (s *Simulator) writeLog(gl GameLog) {
	out, err := yaml.Marshal(gl)
	if err != nil {
		log.Err(err).Msg("marshaling-game-log")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.logStream, "---")
	s.logStream.Write(out)
}

func rollDice(rng *frand.RNG, n int) dice.Roll {
	faces := make([]int, n)
	for i := range faces {
		faces[i] = rng.Intn(dice.NumFaces) + 1
	}
	r, err := dice.RollOf(faces...)
	if err != nil {
		panic(err)
	}
	return r
}
