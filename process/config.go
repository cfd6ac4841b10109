package process

import (
	"fmt"
	"time"
)

// DefaultStates is the performance-state set the transition model tracks
// unless configured otherwise.
var DefaultStates = []string{"peak", "good", "average", "declining", "injured"}

// Config carries the construction parameters of every component the
// processor owns. All components live for the processor's lifetime; none of
// these can change after New.
type Config struct {
	// membership filter over sport:playType categories
	FilterCapacity  uint
	FilterErrorRate float64

	// frequency sketch over athlete keys
	SketchRows    uint
	SketchColumns uint

	// min-wise sample of peak-performance events
	SampleSize uint

	// trailing window for the peak bit counter
	Window time.Duration

	// accumulators in the frequency-moment sketch
	MomentAccumulators uint

	// transition model
	States    []string
	Smoothing float64

	// outcome simulator
	Trials int

	// Seed feeds every component's private randomness; a fixed seed makes
	// hash placement and simulation replayable.
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		FilterCapacity:     10000,
		FilterErrorRate:    0.001,
		SketchRows:         5,
		SketchColumns:      2000,
		SampleSize:         200,
		Window:             300 * time.Second,
		MomentAccumulators: 10,
		States:             DefaultStates,
		Smoothing:          1e-3,
		Trials:             1000,
		Seed:               time.Now().UnixNano(),
	}
}

// Validate fails fast on parameters the components would reject, so a
// misconfigured processor never starts consuming events.
func (c *Config) Validate() error {
	if c.FilterCapacity <= 0 {
		return fmt.Errorf("athlestat: filter capacity should be greater than 0")
	}
	if c.FilterErrorRate <= 0 || c.FilterErrorRate >= 1 {
		return fmt.Errorf("athlestat: filter error rate should be in (0, 1), got %v", c.FilterErrorRate)
	}
	if c.SketchRows <= 0 || c.SketchColumns <= 0 {
		return fmt.Errorf("athlestat: sketch rows and columns should be greater than 0")
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("athlestat: sample size should be greater than 0")
	}
	if c.Window <= 0 {
		return fmt.Errorf("athlestat: window should be greater than 0")
	}
	if c.MomentAccumulators <= 0 {
		return fmt.Errorf("athlestat: moment accumulators should be greater than 0")
	}
	if len(c.States) == 0 {
		return fmt.Errorf("athlestat: at least 1 state is required")
	}
	if c.Smoothing <= 0 {
		return fmt.Errorf("athlestat: smoothing should be greater than 0, got %v", c.Smoothing)
	}
	if c.Trials <= 0 {
		return fmt.Errorf("athlestat: trials should be greater than 0")
	}
	return nil
}
