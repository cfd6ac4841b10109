package predict

import (
	"fmt"
	"math/rand"
)

const (
	speedWeight    = 0.4
	accuracyWeight = 0.4
	staminaWeight  = 0.2

	// speed normalizes against a 30 m/s ceiling; accuracy and stamina are
	// percentages
	speedScale   = 30.0
	percentScale = 100.0
	noiseStdDev  = 0.1
)

// MonteCarlo estimates the probability of a successful outcome from an
// athlete's continuous inputs by repeated noisy trials. Each instance owns
// its random source, so two simulators never perturb each other; the same
// seed replays the same trial sequence.
type MonteCarlo struct {
	trials int
	rng    *rand.Rand
}

func NewMonteCarlo(trials int, seed int64) (*MonteCarlo, error) {
	if trials <= 0 {
		return nil, fmt.Errorf("athlestat: trials should be greater than 0")
	}
	return &MonteCarlo{trials, rand.New(rand.NewSource(seed))}, nil
}

func (mc *MonteCarlo) Trials() int {
	return mc.trials
}

// BaseProbability returns the deterministic weighted combination of the
// normalized inputs, before noise.
func BaseProbability(speed, accuracy, stamina float64) float64 {
	return speed/speedScale*speedWeight + accuracy/percentScale*accuracyWeight + stamina/percentScale*staminaWeight
}

// Simulate runs the configured number of independent trials, each adding
// Gaussian noise to the base probability, clamping to [0, 1] and drawing a
// success, and returns the observed success fraction. The result is noisy
// call to call but monotonic in expectation in each input.
func (mc *MonteCarlo) Simulate(speed, accuracy, stamina float64) float64 {
	base := BaseProbability(speed, accuracy, stamina)
	wins := 0
	for i := 0; i < mc.trials; i++ {
		prob := base + mc.rng.NormFloat64()*noiseStdDev
		if prob < 0 {
			prob = 0
		}
		if prob > 1 {
			prob = 1
		}
		if mc.rng.Float64() < prob {
			wins++
		}
	}
	return float64(wins) / float64(mc.trials)
}
