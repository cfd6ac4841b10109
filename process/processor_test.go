package process

import (
	"math"
	"strconv"
	"sync"
	"testing"
	"time"
)

func testConfig() Config {
	config := DefaultConfig()
	config.Seed = 42
	return config
}

func makeEvent(i int, base time.Time) Event {
	states := DefaultStates
	return Event{
		ID:              "athlete-" + strconv.Itoa(i%10),
		Player:          "Player " + strconv.Itoa(i%10),
		Sport:           "tennis",
		PlayType:        "offensive",
		Speed:           10 + float64(i%2)*10, // 10 for even i, 20 for odd
		Accuracy:        75,
		Stamina:         80,
		PerformancePeak: i%5 == 0,
		PreviousState:   states[i%len(states)],
		State:           states[(i+1)%len(states)],
		Timestamp:       base.Add(time.Duration(i) * time.Second),
	}
}

func TestConfigValidate(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.FilterCapacity = 0 },
		func(c *Config) { c.FilterErrorRate = 1.5 },
		func(c *Config) { c.SketchRows = 0 },
		func(c *Config) { c.SketchColumns = 0 },
		func(c *Config) { c.SampleSize = 0 },
		func(c *Config) { c.Window = 0 },
		func(c *Config) { c.MomentAccumulators = 0 },
		func(c *Config) { c.States = nil },
		func(c *Config) { c.Smoothing = 0 },
		func(c *Config) { c.Trials = 0 },
	}
	for i, mutate := range bad {
		config := DefaultConfig()
		mutate(&config)
		if err := config.Validate(); err == nil {
			t.Errorf("case %d: config should fail validation", i)
		}
	}
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate, error: %v", err)
	}
}

func TestProcessorConstructionFailsFast(t *testing.T) {
	config := testConfig()
	config.Trials = 0
	if _, err := New(config); err == nil {
		t.Error("New should reject an invalid config")
	}
}

func TestProcessorFirstPlayAnalysis(t *testing.T) {
	p, _ := New(testConfig())
	base := time.Unix(1000, 0)
	r1 := p.Process(makeEvent(0, base))
	r2 := p.Process(makeEvent(1, base))
	if !r1.FirstPlayAnalysis {
		t.Error("first event of a play type should be flagged as first analysis")
	}
	if r2.FirstPlayAnalysis {
		t.Error("repeat play type should not be flagged as first analysis")
	}
}

func TestProcessorFrequency(t *testing.T) {
	p, _ := New(testConfig())
	base := time.Unix(1000, 0)
	var last Result
	for i := 0; i < 3; i++ {
		last = p.Process(makeEvent(0, base.Add(time.Duration(i)*time.Second)))
	}
	if last.Frequency < 3 {
		t.Errorf("frequency of the athlete should be at least 3, found %d", last.Frequency)
	}
}

func TestProcessorSamplesOnlyPeaks(t *testing.T) {
	p, _ := New(testConfig())
	base := time.Unix(1000, 0)
	event := makeEvent(1, base)
	event.PerformancePeak = false
	r := p.Process(event)
	if r.SampleSize != 0 {
		t.Errorf("non-peak events should not be sampled, sample size %d", r.SampleSize)
	}
	event = makeEvent(2, base)
	event.PerformancePeak = true
	r = p.Process(event)
	if r.SampleSize != 1 {
		t.Errorf("peak event should enter the sample, sample size %d", r.SampleSize)
	}
}

func TestProcessorPlayerStats(t *testing.T) {
	p, _ := New(testConfig())
	base := time.Unix(1000, 0)
	event := makeEvent(0, base)
	event.Speed = 12
	p.Process(event)
	event.Timestamp = base.Add(time.Second)
	p.Process(event)

	stats, ok := p.PlayerStats(event.Key())
	if !ok {
		t.Fatal("stats for a processed athlete should exist")
	}
	if stats.Samples != 2 {
		t.Errorf("athlete should have 2 samples, found %d", stats.Samples)
	}
	if stats.SpeedMean != 12 {
		t.Errorf("speed mean should be 12, found %f", stats.SpeedMean)
	}
	if stats.SpeedVariance != 0 {
		t.Errorf("constant speed should have 0 variance, found %f", stats.SpeedVariance)
	}
	if _, ok := p.PlayerStats("player:unseen"); ok {
		t.Error("stats for an unseen athlete should not exist")
	}
}

func TestProcessorAnalytics(t *testing.T) {
	p, _ := New(testConfig())
	base := time.Unix(1000, 0)
	for i := 0; i < 50; i++ {
		p.Process(makeEvent(i, base))
	}
	analytics := p.Analytics()
	if !analytics.StationaryOK {
		t.Error("stationary power iteration should converge")
	}
	sum := 0.0
	for _, v := range analytics.Stationary {
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("stationary distribution should sum to 1, found %f", sum)
	}
	for from, row := range analytics.TransitionMatrix {
		rowSum := 0.0
		for _, v := range row {
			rowSum += v
		}
		if math.Abs(rowSum-1) > 1e-9 {
			t.Errorf("row %q should sum to 1, found %f", from, rowSum)
		}
	}
	if analytics.MixingTime <= 0 {
		t.Errorf("mixing time should be positive, found %d", analytics.MixingTime)
	}
}

func TestProcessorSnapshot(t *testing.T) {
	p, _ := New(testConfig())
	base := time.Unix(1000, 0)
	for i := 0; i < 20; i++ {
		p.Process(makeEvent(i, base))
	}
	snap := p.Snapshot(base.Add(20 * time.Second))
	if snap.Processed != 20 {
		t.Errorf("processed count should be 20, found %d", snap.Processed)
	}
	if snap.DistinctAthletes != 10 {
		t.Errorf("distinct athletes should be 10, found %d", snap.DistinctAthletes)
	}
	if snap.SampleSize != 4 {
		t.Errorf("4 of 20 events are peaks, sample size should be 4, found %d", snap.SampleSize)
	}
}

// Concurrent readers must neither corrupt nor be corrupted by the single
// event writer: after the stream ends, each component's estimate matches
// what the same events would produce in isolation.
func TestProcessorConcurrentQueriesIsolation(t *testing.T) {
	config := testConfig()
	config.MomentAccumulators = 100
	p, _ := New(config)
	base := time.Unix(1000, 0)

	done := make(chan struct{})
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				p.Snapshot(base.Add(time.Hour))
				p.Analytics()
				p.PlayerStats("player:athlete-0")
			}
		}()
	}

	for i := 0; i < 1000; i++ {
		p.Process(makeEvent(i, base))
	}
	close(done)
	wg.Wait()

	// even athletes always run at speed 10, odd athletes at 20
	stats, ok := p.PlayerStats("player:athlete-0")
	if !ok {
		t.Fatal("athlete-0 should have stats")
	}
	if stats.Samples != 100 {
		t.Errorf("athlete-0 should have 100 samples, found %d", stats.Samples)
	}
	if math.Abs(stats.SpeedMean-10) > 1e-9 {
		t.Errorf("speed mean should be 10, found %f", stats.SpeedMean)
	}
	if stats.SpeedVariance != 0 {
		t.Errorf("constant speed should have 0 variance, found %f", stats.SpeedVariance)
	}
	snap := p.Snapshot(base.Add(time.Hour))
	if snap.Processed != 1000 {
		t.Errorf("processed count should be 1000, found %d", snap.Processed)
	}
	// two speed bins of 500 net updates each: true F2 is 500000
	if snap.F2Estimate < 250000 || snap.F2Estimate > 750000 {
		t.Errorf("F2 estimate %f not consistent with true value 500000", snap.F2Estimate)
	}
}
