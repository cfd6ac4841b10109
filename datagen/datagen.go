package datagen

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"

	"github.com/athlestat/athlestat/process"
)

var (
	sports    = []string{"football", "basketball", "soccer", "tennis", "hockey"}
	playTypes = []string{"offensive", "defensive", "transition", "set-piece"}
)

// RawRecord is the external wire shape of a performance record: measurements
// carry their unit suffixes and the timestamp is a string, exactly as
// upstream feeds emit them. Normalize strips all of that before the record
// reaches the processor.
type RawRecord struct {
	ID              string          `json:"_id"`
	Player          string          `json:"player"`
	Sport           string          `json:"sport"`
	PlayType        string          `json:"playType"`
	PerformanceData PerformanceData `json:"performanceData"`
	PerformancePeak bool            `json:"performancePeak"`
	PreviousState   string          `json:"previousPerformanceState,omitempty"`
	State           string          `json:"performanceState,omitempty"`
	Timestamp       string          `json:"timestamp"`
}

type PerformanceData struct {
	Speed    string `json:"speed"`    // e.g. "12.50 m/s"
	Accuracy string `json:"accuracy"` // e.g. "78%"
	Stamina  string `json:"stamina"`  // e.g. "80%"
}

// Generator produces synthetic performance records from an owned random
// source; the same seed replays the same stream.
type Generator struct {
	rng    *rand.Rand
	states []string
	// last generated state per player name, to chain plausible transitions
	lastState map[string]string
}

func New(seed int64) *Generator {
	return &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		states:    process.DefaultStates,
		lastState: make(map[string]string),
	}
}

// Record generates one raw record with faker identities and unit-suffixed
// measurements.
func (g *Generator) Record() RawRecord {
	player := faker.FirstName() + " " + faker.LastName()
	state := g.states[g.rng.Intn(len(g.states))]
	prev := g.lastState[player]
	if prev == "" {
		prev = g.states[g.rng.Intn(len(g.states))]
	}
	g.lastState[player] = state
	return RawRecord{
		ID:       uuid.NewString(),
		Player:   player,
		Sport:    sports[g.rng.Intn(len(sports))],
		PlayType: playTypes[g.rng.Intn(len(playTypes))],
		PerformanceData: PerformanceData{
			Speed:    fmt.Sprintf("%.2f m/s", 5+g.rng.Float64()*25),
			Accuracy: fmt.Sprintf("%d%%", 50+g.rng.Intn(51)),
			Stamina:  fmt.Sprintf("%d%%", g.rng.Intn(101)),
		},
		PerformancePeak: g.rng.Float64() < 0.2,
		PreviousState:   prev,
		State:           state,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}

// Records generates a batch.
func (g *Generator) Records(n int) []RawRecord {
	records := make([]RawRecord, n)
	for i := range records {
		records[i] = g.Record()
	}
	return records
}

// Event generates one already-normalized event.
func (g *Generator) Event() process.Event {
	event, _ := Normalize(g.Record())
	return event
}

// Normalize strips units from a raw record and produces the processor's
// event shape. It errors on malformed measurements rather than guessing.
func Normalize(rec RawRecord) (process.Event, error) {
	speed, err := parseUnit(rec.PerformanceData.Speed, " m/s")
	if err != nil {
		return process.Event{}, fmt.Errorf("athlestat: bad speed %q: %v", rec.PerformanceData.Speed, err)
	}
	accuracy, err := parseUnit(rec.PerformanceData.Accuracy, "%")
	if err != nil {
		return process.Event{}, fmt.Errorf("athlestat: bad accuracy %q: %v", rec.PerformanceData.Accuracy, err)
	}
	stamina, err := parseUnit(rec.PerformanceData.Stamina, "%")
	if err != nil {
		return process.Event{}, fmt.Errorf("athlestat: bad stamina %q: %v", rec.PerformanceData.Stamina, err)
	}
	ts, err := time.Parse(time.RFC3339, rec.Timestamp)
	if err != nil {
		return process.Event{}, fmt.Errorf("athlestat: bad timestamp %q: %v", rec.Timestamp, err)
	}
	return process.Event{
		ID:              rec.ID,
		Player:          rec.Player,
		Sport:           rec.Sport,
		PlayType:        rec.PlayType,
		Speed:           speed,
		Accuracy:        accuracy,
		Stamina:         stamina,
		PerformancePeak: rec.PerformancePeak,
		PreviousState:   rec.PreviousState,
		State:           rec.State,
		Timestamp:       ts,
	}, nil
}

func parseUnit(value, suffix string) (float64, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(value), suffix)
	return strconv.ParseFloat(strings.TrimSpace(trimmed), 64)
}
