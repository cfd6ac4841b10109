package markov

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrUnknownState is returned by prediction queries for a state label outside
// the configured state set.
var ErrUnknownState = errors.New("athlestat: unknown state")

// supportPowerBound caps the reachability powers inspected by IsAperiodic.
// Whether 10 is enough for large state sets is an open question inherited
// from the system this model tracks; do not raise it silently.
const supportPowerBound = 10

const positiveEps = 1e-12

// OnlineMarkovModel learns a discrete-state transition model incrementally.
// The state set is fixed at construction; observations outside it are
// dropped. The derived row-stochastic matrix is additively smoothed, so every
// state keeps a well-defined outgoing distribution even with no
// observations, and is cached until the next observation invalidates it.
//
// Observations come from a single writer; derived queries may run
// concurrently. The matrix cache is the one piece of state a query can
// write, so it sits behind the model's own lock.
type OnlineMarkovModel struct {
	mu        sync.Mutex
	states    []string
	idx       map[string]int
	counts    [][]float64
	smoothing float64
	cached    [][]float64
}

func NewOnlineMarkovModel(states []string, smoothing float64) (*OnlineMarkovModel, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("athlestat: at least 1 state is required")
	}
	if smoothing <= 0 {
		return nil, fmt.Errorf("athlestat: smoothing should be greater than 0, got %v", smoothing)
	}
	idx := make(map[string]int, len(states))
	for i, s := range states {
		if _, ok := idx[s]; ok {
			return nil, fmt.Errorf("athlestat: duplicate state %q", s)
		}
		idx[s] = i
	}
	counts := make([][]float64, len(states))
	for i := range counts {
		counts[i] = make([]float64, len(states))
	}
	model := &OnlineMarkovModel{
		states:    append([]string(nil), states...),
		idx:       idx,
		counts:    counts,
		smoothing: smoothing,
	}
	return model, nil
}

func (m *OnlineMarkovModel) States() []string {
	return append([]string(nil), m.states...)
}

func (m *OnlineMarkovModel) NumStates() int {
	return len(m.states)
}

// ObserveTransition records one transition from one state label to another.
// Labels outside the state set are silently dropped.
func (m *OnlineMarkovModel) ObserveTransition(from, to string) {
	m.ObserveTransitionWeighted(from, to, 1)
}

func (m *OnlineMarkovModel) ObserveTransitionWeighted(from, to string, weight float64) {
	i, ok := m.idx[from]
	if !ok {
		return
	}
	j, ok := m.idx[to]
	if !ok {
		return
	}
	m.mu.Lock()
	m.counts[i][j] += weight
	m.cached = nil
	m.mu.Unlock()
}

// matrix returns the smoothed row-stochastic matrix, building and caching it
// if needed. The returned matrix is never mutated in place afterwards, so
// callers may read it without holding the lock.
func (m *OnlineMarkovModel) matrix() [][]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil {
		return m.cached
	}
	n := len(m.states)
	p := make([][]float64, n)
	for i := 0; i < n; i++ {
		p[i] = make([]float64, n)
		rowSum := 0.0
		for j := 0; j < n; j++ {
			p[i][j] = m.counts[i][j] + m.smoothing
			rowSum += p[i][j]
		}
		for j := 0; j < n; j++ {
			p[i][j] /= rowSum
		}
	}
	m.cached = p
	return p
}

// TransitionMatrix returns a copy of the current row-stochastic transition
// matrix, rows indexed like States. Every row sums to 1.
func (m *OnlineMarkovModel) TransitionMatrix() [][]float64 {
	p := m.matrix()
	out := make([][]float64, len(p))
	for i := range p {
		out[i] = append([]float64(nil), p[i]...)
	}
	return out
}

// TransitionMatrixByLabel returns the transition matrix keyed by state
// labels, for consumers that report rather than iterate.
func (m *OnlineMarkovModel) TransitionMatrixByLabel() map[string]map[string]float64 {
	p := m.matrix()
	out := make(map[string]map[string]float64, len(p))
	for i, from := range m.states {
		row := make(map[string]float64, len(p))
		for j, to := range m.states {
			row[to] = p[i][j]
		}
		out[from] = row
	}
	return out
}

// TransitionProb returns the smoothed probability of moving from one state
// to another in a single step.
func (m *OnlineMarkovModel) TransitionProb(from, to string) (float64, error) {
	i, ok := m.idx[from]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownState, from)
	}
	j, ok := m.idx[to]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownState, to)
	}
	return m.matrix()[i][j], nil
}

func stepVector(v []float64, p [][]float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if v[i] == 0 {
			continue
		}
		for j := 0; j < n; j++ {
			out[j] += v[i] * p[i][j]
		}
	}
	return out
}

func (m *OnlineMarkovModel) toDistribution(v []float64) map[string]float64 {
	dist := make(map[string]float64, len(v))
	for i := range v {
		dist[m.states[i]] = v[i]
	}
	return dist
}

// PredictDistribution returns the distribution over states after the given
// number of steps starting from a known state.
func (m *OnlineMarkovModel) PredictDistribution(state string, steps int) (map[string]float64, error) {
	i, ok := m.idx[state]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownState, state)
	}
	p := m.matrix()
	v := make([]float64, len(m.states))
	v[i] = 1
	for s := 0; s < steps; s++ {
		v = stepVector(v, p)
	}
	return m.toDistribution(v), nil
}

// StationaryDistribution runs power iteration from a uniform start vector
// until the L1 distance between successive iterates drops below tol, or
// maxIter iterations pass. The second return reports convergence; the last
// iterate is returned either way.
func (m *OnlineMarkovModel) StationaryDistribution(tol float64, maxIter int) (map[string]float64, bool) {
	v, converged := m.stationaryVector(tol, maxIter)
	return m.toDistribution(v), converged
}

func (m *OnlineMarkovModel) stationaryVector(tol float64, maxIter int) ([]float64, bool) {
	p := m.matrix()
	n := len(m.states)
	v := make([]float64, n)
	for i := range v {
		v[i] = 1 / float64(n)
	}
	for it := 0; it < maxIter; it++ {
		next := stepVector(v, p)
		dist := 0.0
		for i := range next {
			dist += math.Abs(next[i] - v[i])
		}
		v = next
		if dist < tol {
			return v, true
		}
	}
	return v, false
}

// IsAperiodic reports whether the chain looks aperiodic: true immediately if
// any state has a positive self-loop, otherwise approximated by checking
// whether every state regains a positive return probability within
// supportPowerBound boolean powers of the support matrix. This is a
// heuristic, not an exact period computation; a chain whose period only
// reveals itself past the bound is reported periodic.
func (m *OnlineMarkovModel) IsAperiodic() bool {
	p := m.matrix()
	n := len(m.states)
	for i := 0; i < n; i++ {
		if p[i][i] > positiveEps {
			return true
		}
	}
	support := make([][]bool, n)
	for i := range support {
		support[i] = make([]bool, n)
		for j := range support[i] {
			support[i][j] = p[i][j] > positiveEps
		}
	}
	reach := support
	for power := 1; power <= supportPowerBound; power++ {
		allDiag := true
		for i := 0; i < n; i++ {
			if !reach[i][i] {
				allDiag = false
				break
			}
		}
		if allDiag {
			return true
		}
		next := make([][]bool, n)
		for i := range next {
			next[i] = make([]bool, n)
			for k := 0; k < n; k++ {
				if !reach[i][k] {
					continue
				}
				for j := 0; j < n; j++ {
					if support[k][j] {
						next[i][j] = true
					}
				}
			}
		}
		reach = next
	}
	return false
}

// IsIrreducible reports whether every state is reachable from the first
// state through observed transitions (raw counts, not the smoothed matrix).
// This is single-source reachability, not a full strong-connectivity check:
// it assumes reachability from the first state implies mutual reachability,
// which only holds when the graph is in fact strongly connected.
func (m *OnlineMarkovModel) IsIrreducible() bool {
	m.mu.Lock()
	n := len(m.states)
	adjacency := make([][]bool, n)
	for i := range adjacency {
		adjacency[i] = make([]bool, n)
		for j := range adjacency[i] {
			adjacency[i][j] = m.counts[i][j] > 0
		}
	}
	m.mu.Unlock()

	visited := make([]bool, n)
	stack := []int{0}
	visited[0] = true
	reached := 0
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		for v := 0; v < n; v++ {
			if adjacency[u][v] && !visited[v] {
				visited[v] = true
				stack = append(stack, v)
			}
		}
	}
	return reached == n
}

// MixingTimeApprox estimates the worst-case number of steps for the chain to
// come within tol total-variation distance of its stationary distribution,
// trying every one-hot start. Starts that never mix within maxSteps count as
// maxSteps.
func (m *OnlineMarkovModel) MixingTimeApprox(tol float64, maxSteps int) int {
	pi, _ := m.stationaryVector(1e-9, 10000)
	p := m.matrix()
	n := len(m.states)
	worst := 0
	for s := 0; s < n; s++ {
		v := make([]float64, n)
		v[s] = 1
		mixed := false
		for t := 1; t <= maxSteps; t++ {
			v = stepVector(v, p)
			tvd := 0.0
			for i := range v {
				tvd += math.Abs(v[i] - pi[i])
			}
			tvd /= 2
			if tvd < tol {
				if t > worst {
					worst = t
				}
				mixed = true
				break
			}
		}
		if !mixed {
			worst = maxSteps
		}
	}
	return worst
}
