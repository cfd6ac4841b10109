package process

import (
	"encoding/json"
	"time"
)

// Event is one normalized performance record handed to the processor. The
// collaborator producing events is responsible for parsing raw external
// formats (unit suffixes, percent signs) before constructing one; the
// processor never parses free text. Events are immutable once created and
// the processor copies out only the scalar values it needs.
type Event struct {
	ID              string    `json:"id"`
	Player          string    `json:"player"`
	Sport           string    `json:"sport"`
	PlayType        string    `json:"playType"`
	Speed           float64   `json:"speed"`    // m/s
	Accuracy        float64   `json:"accuracy"` // percent
	Stamina         float64   `json:"stamina"`  // percent
	PerformancePeak bool      `json:"performancePeak"`
	PreviousState   string    `json:"previousState,omitempty"`
	State           string    `json:"state,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// Key identifies the athlete for frequency counting.
func (e *Event) Key() string {
	return "player:" + e.ID
}

// PlayKey identifies the sport/play-type category for first-seen detection.
func (e *Event) PlayKey() string {
	return e.Sport + ":" + e.PlayType
}

// SpeedBin discretizes speed to whole m/s for the frequency-moment sketch.
func (e *Event) SpeedBin() int64 {
	return int64(e.Speed)
}

// Serialize renders the event for hashing into the sample.
func (e *Event) Serialize() string {
	data, _ := json.Marshal(e)
	return string(data)
}
