package stream

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"github.com/dgryski/go-metro"
)

// F2Sketch estimates the second frequency moment (sum of squared per-value
// net weights) of a discretized signal with k signed accumulators, the
// Alon-Matias-Szegedy construction. The estimate is unbiased; its variance
// shrinks as k grows.
//
// The sign hashes are seeded from the constructor seed and owned by the
// instance. Updates assume a single writer.
type F2Sketch struct {
	seeds []uint64
	z     []int64
}

func NewF2Sketch(k uint, seed uint64) (*F2Sketch, error) {
	if k <= 0 {
		return nil, fmt.Errorf("athlestat: number of accumulators should be greater than 0")
	}
	rng := rand.New(rand.NewSource(int64(seed)))
	seeds := make([]uint64, k)
	for i := range seeds {
		seeds[i] = rng.Uint64()
	}
	return &F2Sketch{seeds, make([]int64, k)}, nil
}

func (f *F2Sketch) K() uint {
	return uint(len(f.z))
}

// sign maps value to ±1 under the i-th seed, a four-wise-independent-enough
// hash parity.
func (f *F2Sketch) sign(value int64, i int) int64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(value))
	if metro.Hash64(buf[:], f.seeds[i])&1 == 0 {
		return 1
	}
	return -1
}

// Update adds weight to the tally of the discretized value.
func (f *F2Sketch) Update(value int64, weight int64) {
	for i := range f.z {
		f.z[i] += f.sign(value, i) * weight
	}
}

func (f *F2Sketch) UpdateOnce(value int64) {
	f.Update(value, 1)
}

// Estimate returns the mean of the squared accumulators.
func (f *F2Sketch) Estimate() float64 {
	var sum float64
	for i := range f.z {
		sum += float64(f.z[i]) * float64(f.z[i])
	}
	return sum / float64(len(f.z))
}

// Merge folds another sketch into this one. Both must have been constructed
// with the same k and seed, otherwise their accumulators are not aligned.
func (f *F2Sketch) Merge(g *F2Sketch) error {
	if len(f.z) != len(g.z) {
		return fmt.Errorf("athlestat: can't merge sketches with unequal accumulator counts, %d and %d", len(f.z), len(g.z))
	}
	for i := range f.seeds {
		if f.seeds[i] != g.seeds[i] {
			return fmt.Errorf("athlestat: can't merge sketches with different seeds")
		}
	}
	for i := range f.z {
		f.z[i] += g.z[i]
	}
	return nil
}
