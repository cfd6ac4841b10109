package process

import (
	"math/rand"
	"sync"
	"time"

	"github.com/athlestat/athlestat/count"
	"github.com/athlestat/athlestat/filters"
	"github.com/athlestat/athlestat/markov"
	"github.com/athlestat/athlestat/predict"
	"github.com/athlestat/athlestat/stream"
)

// Processor routes each incoming event through every sketch and model and
// serves their current estimates. It is the serialization point the sketches
// rely on: Process runs under a writer lock, one event at a time, while
// Snapshot, Analytics and PlayerStats may be called concurrently from any
// number of readers.
type Processor struct {
	mu     sync.RWMutex
	config Config

	playFilter *filters.BloomFilter
	frequency  *count.CountMinSketch
	sampler    *stream.MinWiseSampler
	peaks      *stream.DGIM
	speedF2    *stream.F2Sketch
	model      *markov.OnlineMarkovModel
	simulator  *predict.MonteCarlo

	playerMoments map[string]*playerMoments
	processed     uint64
}

// playerMoments tracks per-athlete running statistics for the two signals
// the dashboard cares about.
type playerMoments struct {
	speed    *stream.RunningMoments
	accuracy *stream.RunningMoments
}

// Result is what one Process call learned about the event it consumed.
type Result struct {
	EventID            string
	Player             string
	FirstPlayAnalysis  bool
	Frequency          uint64
	SampleSize         int
	SpeedMean          float64
	SpeedVariance      float64
	AccuracyMean       float64
	AccuracyVariance   float64
	F2Estimate         float64
	PeakCountInWindow  uint64
	NextState          map[string]float64
	SuccessProbability float64
}

// Snapshot is the cheap pull-based view of the stream so far.
type Snapshot struct {
	Processed         uint64
	DistinctAthletes  int
	SampleSize        int
	F2Estimate        float64
	PeakCountInWindow uint64
	FilterFillRate    float64
}

// MarkovAnalysis bundles the derived statistics of the transition model.
// Computing it is O(states²) to O(states³); callers polling repeatedly
// should cache it.
type MarkovAnalysis struct {
	TransitionMatrix map[string]map[string]float64
	Stationary       map[string]float64
	StationaryOK     bool
	Aperiodic        bool
	Irreducible      bool
	MixingTime       int
}

// PlayerStats is the per-athlete running-moments view.
type PlayerStats struct {
	Samples          uint64
	SpeedMean        float64
	SpeedVariance    float64
	SpeedSkewness    float64
	SpeedKurtosis    float64
	AccuracyMean     float64
	AccuracyVariance float64
}

// New builds a processor and every component it owns. Component seeds are
// all derived from config.Seed, so separately-constructed processors never
// share randomness.
func New(config Config) (*Processor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(config.Seed))

	playFilter, err := filters.NewMemBloomFilter(config.FilterCapacity, config.FilterErrorRate, rng.Uint64())
	if err != nil {
		return nil, err
	}
	frequency, err := count.NewCountMinSketch(config.SketchRows, config.SketchColumns, rng.Uint64())
	if err != nil {
		return nil, err
	}
	sampler, err := stream.NewMinWiseSampler(config.SampleSize)
	if err != nil {
		return nil, err
	}
	peaks, err := stream.NewDGIM(config.Window)
	if err != nil {
		return nil, err
	}
	speedF2, err := stream.NewF2Sketch(config.MomentAccumulators, rng.Uint64())
	if err != nil {
		return nil, err
	}
	model, err := markov.NewOnlineMarkovModel(config.States, config.Smoothing)
	if err != nil {
		return nil, err
	}
	simulator, err := predict.NewMonteCarlo(config.Trials, rng.Int63())
	if err != nil {
		return nil, err
	}

	return &Processor{
		config:        config,
		playFilter:    playFilter,
		frequency:     frequency,
		sampler:       sampler,
		peaks:         peaks,
		speedF2:       speedF2,
		model:         model,
		simulator:     simulator,
		playerMoments: make(map[string]*playerMoments),
	}, nil
}

// Process consumes one event and returns the per-event estimates. Events
// with a zero timestamp are stamped with the current time.
func (p *Processor) Process(event Event) Result {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	result := Result{EventID: event.ID, Player: event.Player}

	seen, _ := p.playFilter.ContainsString(event.PlayKey())
	if !seen {
		p.playFilter.InsertString(event.PlayKey())
	}
	result.FirstPlayAnalysis = !seen

	p.frequency.UpdateString(event.Key(), 1)
	result.Frequency = p.frequency.CountString(event.Key())

	if event.PerformancePeak {
		p.sampler.Consider(event.Serialize())
	}
	result.SampleSize = p.sampler.Size()

	moments := p.playerMoments[event.Key()]
	if moments == nil {
		moments = &playerMoments{stream.NewRunningMoments(), stream.NewRunningMoments()}
		p.playerMoments[event.Key()] = moments
	}
	moments.speed.Update(event.Speed)
	moments.accuracy.Update(event.Accuracy)
	result.SpeedMean = moments.speed.Mean()
	result.SpeedVariance = moments.speed.Variance()
	result.AccuracyMean = moments.accuracy.Mean()
	result.AccuracyVariance = moments.accuracy.Variance()

	p.speedF2.UpdateOnce(event.SpeedBin())
	result.F2Estimate = p.speedF2.Estimate()

	p.peaks.AddBit(event.PerformancePeak, event.Timestamp)
	result.PeakCountInWindow = p.peaks.Query(event.Timestamp)

	if event.PreviousState != "" && event.State != "" {
		p.model.ObserveTransition(event.PreviousState, event.State)
	}
	if event.State != "" {
		// unknown states are expected from upstream and skipped
		if dist, err := p.model.PredictDistribution(event.State, 1); err == nil {
			result.NextState = dist
		}
	}

	result.SuccessProbability = p.simulator.Simulate(event.Speed, event.Accuracy, event.Stamina)

	p.processed++
	return result
}

// Snapshot returns the current streaming summary as of now. It takes the
// writer lock because the windowed counter evicts on query.
func (p *Processor) Snapshot(now time.Time) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Processed:         p.processed,
		DistinctAthletes:  len(p.playerMoments),
		SampleSize:        p.sampler.Size(),
		F2Estimate:        p.speedF2.Estimate(),
		PeakCountInWindow: p.peaks.Query(now),
		FilterFillRate:    p.playFilter.FalsePositiveRate(),
	}
}

// Analytics derives the full transition-model report. The model is
// internally synchronized, so this does not hold up event processing beyond
// the matrix cache fill.
func (p *Processor) Analytics() MarkovAnalysis {
	stationary, ok := p.model.StationaryDistribution(1e-9, 10000)
	return MarkovAnalysis{
		TransitionMatrix: p.model.TransitionMatrixByLabel(),
		Stationary:       stationary,
		StationaryOK:     ok,
		Aperiodic:        p.model.IsAperiodic(),
		Irreducible:      p.model.IsIrreducible(),
		MixingTime:       p.model.MixingTimeApprox(1e-3, 1000),
	}
}

// PlayerStats returns the running moments for one athlete key, false if the
// athlete has not been seen.
func (p *Processor) PlayerStats(key string) (PlayerStats, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	moments, ok := p.playerMoments[key]
	if !ok {
		return PlayerStats{}, false
	}
	return PlayerStats{
		Samples:          moments.speed.Count(),
		SpeedMean:        moments.speed.Mean(),
		SpeedVariance:    moments.speed.Variance(),
		SpeedSkewness:    moments.speed.Skewness(),
		SpeedKurtosis:    moments.speed.Kurtosis(),
		AccuracyMean:     moments.accuracy.Mean(),
		AccuracyVariance: moments.accuracy.Variance(),
	}, true
}

// Model exposes the transition model for ad-hoc queries; it is safe to use
// concurrently with Process.
func (p *Processor) Model() *markov.OnlineMarkovModel {
	return p.model
}

// Simulate runs the outcome simulator outside the event path.
func (p *Processor) Simulate(speed, accuracy, stamina float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.simulator.Simulate(speed, accuracy, stamina)
}

func (p *Processor) Config() Config {
	return p.config
}
