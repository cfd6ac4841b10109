package markov

import (
	"errors"
	"math"
	"testing"
)

var performanceStates = []string{"peak", "good", "average", "declining", "injured"}

func TestMarkovConfigErrors(t *testing.T) {
	if _, err := NewOnlineMarkovModel(nil, 1e-3); err == nil {
		t.Error("should error out on empty state list")
	}
	if _, err := NewOnlineMarkovModel([]string{"a", "b"}, 0); err == nil {
		t.Error("should error out on non-positive smoothing")
	}
	if _, err := NewOnlineMarkovModel([]string{"a", "a"}, 1e-3); err == nil {
		t.Error("should error out on duplicate states")
	}
}

func TestMarkovObservedTransitionDominates(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	for i := 0; i < 10; i++ {
		m.ObserveTransition("a", "b")
	}
	prob, err := m.TransitionProb("a", "b")
	if err != nil {
		t.Fatalf("TransitionProb failed, error: %v", err)
	}
	if math.Abs(prob-0.9998) > 1e-3 {
		t.Errorf("P(a->b) should be about 0.9998, found %f", prob)
	}
}

func TestMarkovRowsSumToOne(t *testing.T) {
	m, _ := NewOnlineMarkovModel(performanceStates, 1e-3)
	m.ObserveTransition("peak", "good")
	m.ObserveTransition("good", "average")
	p := m.TransitionMatrix()
	for i, row := range p {
		sum := 0.0
		for _, v := range row {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d should sum to 1 even with no observations, found %f", i, sum)
		}
	}
}

func TestMarkovUnknownLabelIsDropped(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	m.ObserveTransition("a", "nope")
	m.ObserveTransition("nope", "b")
	// matrix stays at the uniform smoothing fallback
	prob, _ := m.TransitionProb("a", "b")
	if math.Abs(prob-0.5) > 1e-9 {
		t.Errorf("dropped observations should leave P(a->b) at 0.5, found %f", prob)
	}
}

func TestMarkovPredictDistribution(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	for i := 0; i < 10; i++ {
		m.ObserveTransition("a", "b")
		m.ObserveTransition("b", "a")
	}
	dist, err := m.PredictDistribution("a", 1)
	if err != nil {
		t.Fatalf("PredictDistribution failed, error: %v", err)
	}
	if dist["b"] < 0.99 {
		t.Errorf("one step from a should land on b, found P(b) = %f", dist["b"])
	}
	dist, _ = m.PredictDistribution("a", 2)
	if dist["a"] < 0.99 {
		t.Errorf("two steps from a should land back on a, found P(a) = %f", dist["a"])
	}
}

func TestMarkovPredictUnknownState(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	_, err := m.PredictDistribution("nope", 1)
	if err == nil {
		t.Fatal("should error out on unknown state")
	}
	if !errors.Is(err, ErrUnknownState) {
		t.Errorf("error should wrap ErrUnknownState, found %v", err)
	}
}

func TestMarkovStationaryDistribution(t *testing.T) {
	m, _ := NewOnlineMarkovModel(performanceStates, 1e-3)
	m.ObserveTransition("peak", "good")
	m.ObserveTransition("good", "average")
	m.ObserveTransition("average", "peak")
	m.ObserveTransition("average", "declining")
	m.ObserveTransition("declining", "injured")
	m.ObserveTransition("injured", "average")
	dist, converged := m.StationaryDistribution(1e-9, 10000)
	if !converged {
		t.Error("power iteration should converge on a 5-state chain")
	}
	sum := 0.0
	for _, v := range dist {
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("stationary distribution should sum to 1, found %f", sum)
	}
}

func TestMarkovStationaryBestEffort(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	m.ObserveTransition("a", "b")
	m.ObserveTransition("b", "a")
	dist, converged := m.StationaryDistribution(0, 3)
	if converged {
		t.Error("zero tolerance can never be met, converged should be false")
	}
	if len(dist) != 2 {
		t.Errorf("best-effort distribution should still cover all states, found %v", dist)
	}
}

func TestMarkovAperiodicSelfLoop(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	m.ObserveTransition("a", "a")
	if !m.IsAperiodic() {
		t.Error("a chain with a self-loop should be aperiodic")
	}
}

func TestMarkovIrreducible(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b", "c"}, 1e-3)
	m.ObserveTransition("a", "b")
	m.ObserveTransition("b", "c")
	m.ObserveTransition("c", "a")
	if !m.IsIrreducible() {
		t.Error("a 3-cycle should be irreducible")
	}
	m2, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	m2.ObserveTransition("b", "a")
	if m2.IsIrreducible() {
		t.Error("b is unreachable from a, chain should not be irreducible")
	}
}

func TestMarkovMixingTime(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	for i := 0; i < 5; i++ {
		m.ObserveTransition("a", "a")
		m.ObserveTransition("a", "b")
		m.ObserveTransition("b", "a")
		m.ObserveTransition("b", "b")
	}
	steps := m.MixingTimeApprox(1e-3, 1000)
	if steps <= 0 || steps >= 1000 {
		t.Errorf("a lazy 2-state chain should mix quickly, found %d steps", steps)
	}
}

func TestMarkovCacheInvalidation(t *testing.T) {
	m, _ := NewOnlineMarkovModel([]string{"a", "b"}, 1e-3)
	before, _ := m.TransitionProb("a", "b")
	for i := 0; i < 10; i++ {
		m.ObserveTransition("a", "b")
	}
	after, _ := m.TransitionProb("a", "b")
	if !(after > before) {
		t.Errorf("observations should refresh the cached matrix, found %f then %f", before, after)
	}
}
