package stream

import "math"

// RunningMoments maintains mean, variance, skewness and kurtosis of a sample
// in one pass without storing it, using the Welford-style central-moment
// updates. Each statistic returns 0 below its minimum sample size (1, 2, 3
// and 4 observations respectively); callers needing to distinguish "truly
// zero" inspect Count.
type RunningMoments struct {
	n    uint64
	mean float64
	m2   float64
	m3   float64
	m4   float64
}

func NewRunningMoments() *RunningMoments {
	return &RunningMoments{}
}

func (r *RunningMoments) Update(x float64) {
	n1 := float64(r.n)
	r.n++
	n := float64(r.n)
	delta := x - r.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * n1

	r.mean += deltaN
	r.m4 += term1*deltaN2*(n*n-3*n+3) + 6*deltaN2*r.m2 - 4*deltaN*r.m3
	r.m3 += term1*deltaN*(n-2) - 3*deltaN*r.m2
	r.m2 += term1
}

func (r *RunningMoments) Count() uint64 {
	return r.n
}

func (r *RunningMoments) Mean() float64 {
	if r.n == 0 {
		return 0
	}
	return r.mean
}

// Variance returns the unbiased sample variance.
func (r *RunningMoments) Variance() float64 {
	if r.n < 2 {
		return 0
	}
	return r.m2 / float64(r.n-1)
}

// Skewness returns 0 for constant samples, where the central second moment
// vanishes.
func (r *RunningMoments) Skewness() float64 {
	if r.n < 3 || r.m2 == 0 {
		return 0
	}
	return math.Sqrt(float64(r.n)) * r.m3 / math.Pow(r.m2, 1.5)
}

// Kurtosis returns excess kurtosis, 0 for constant samples.
func (r *RunningMoments) Kurtosis() float64 {
	if r.n < 4 || r.m2 == 0 {
		return 0
	}
	return float64(r.n)*r.m4/(r.m2*r.m2) - 3
}
