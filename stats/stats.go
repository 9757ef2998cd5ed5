// Package stats provides the running statistics used to summarize
// simulation results.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const (
	Epsilon = 1e-6
)

func FuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Running accumulates mean and variance of a stream of observations using
// Welford's algorithm, so long simulations stay numerically stable.
type Running struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
}

func (r *Running) Push(val float64) {
	r.n++
	if r.n == 1 {
		r.mean = val
		r.min = val
		r.max = val
		return
	}
	delta := val - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (val - r.mean)
	if val < r.min {
		r.min = val
	}
	if val > r.max {
		r.max = val
	}
}

func (r *Running) Count() int {
	return r.n
}

func (r *Running) Mean() float64 {
	if r.n == 0 {
		return 0
	}
	return r.mean
}

func (r *Running) Variance() float64 {
	if r.n <= 1 {
		return 0
	}
	return r.m2 / float64(r.n-1)
}

func (r *Running) Stdev() float64 {
	return math.Sqrt(r.Variance())
}

func (r *Running) StandardError() float64 {
	if r.n == 0 {
		return 0
	}
	return r.Stdev() / math.Sqrt(float64(r.n))
}

func (r *Running) Min() float64 {
	return r.min
}

func (r *Running) Max() float64 {
	return r.max
}

// CI returns the half-width of the confidence interval around the mean for
// the given confidence level in percent (e.g. 95).
func (r *Running) CI(confidence float64) float64 {
	return ZVal(confidence) * r.StandardError()
}

// ZVal returns the two-tailed z-value for a confidence level given in
// percent.
func ZVal(confidence float64) float64 {
	dist := distuv.Normal{Mu: 0, Sigma: 1}
	area := (1 + confidence/100) / 2
	return dist.Quantile(area)
}
