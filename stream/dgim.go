package stream

import (
	"fmt"
	"time"
)

// dgimBucket covers a run of 1-bits. The timestamp marks the newest bit in
// the run; size is always a power of two.
type dgimBucket struct {
	timestamp time.Time
	size      uint64
}

// DGIM approximates the number of 1-bits seen within a trailing time window
// using exponentially-sized buckets, O(log window) of them. The answer can
// deviate from the true count by at most 50%, coming from the oldest bucket
// which may straddle the window boundary.
//
// Both AddBit and Query evict expired buckets and therefore mutate the
// counter; callers serialize all access.
type DGIM struct {
	window  time.Duration
	buckets []dgimBucket // newest first
}

func NewDGIM(window time.Duration) (*DGIM, error) {
	if window <= 0 {
		return nil, fmt.Errorf("athlestat: window should be greater than 0")
	}
	return &DGIM{window: window}, nil
}

// AddBit records one bit observed at ts. Zero bits only advance the window.
func (d *DGIM) AddBit(bit bool, ts time.Time) {
	if bit {
		d.buckets = append([]dgimBucket{{ts, 1}}, d.buckets...)
		d.merge()
	}
	d.evict(ts)
}

// merge collapses the two oldest buckets of any same-size triple into one of
// double size, keeping the newer of the two timestamps. Repeats until at most
// two buckets of each size remain.
func (d *DGIM) merge() {
	for i := 0; i+2 < len(d.buckets); {
		if d.buckets[i].size == d.buckets[i+1].size && d.buckets[i].size == d.buckets[i+2].size {
			d.buckets[i+1].size *= 2
			d.buckets = append(d.buckets[:i+2], d.buckets[i+3:]...)
			continue
		}
		i++
	}
}

func (d *DGIM) evict(now time.Time) {
	cutoff := now.Add(-d.window)
	n := len(d.buckets)
	for n > 0 && d.buckets[n-1].timestamp.Before(cutoff) {
		n--
	}
	d.buckets = d.buckets[:n]
}

// Query estimates the number of 1-bits in the window ending at ts. The
// oldest surviving bucket may extend past the window boundary, so only half
// its size is counted.
func (d *DGIM) Query(ts time.Time) uint64 {
	d.evict(ts)
	if len(d.buckets) == 0 {
		return 0
	}
	var total uint64
	for i := 0; i < len(d.buckets)-1; i++ {
		total += d.buckets[i].size
	}
	return total + d.buckets[len(d.buckets)-1].size/2
}

// BucketCount returns the number of live buckets.
func (d *DGIM) BucketCount() int {
	return len(d.buckets)
}

func (d *DGIM) Window() time.Duration {
	return d.window
}
