package count

import (
	"github.com/dgryski/go-metro"
)

// BaseCountMinSketch is the contract of the frequency sketch: sub-linear
// memory per-key counting whose estimates never undercount.
type BaseCountMinSketch interface {
	GetRows() uint
	GetColumns() uint
	Update(data []byte, count uint64)
	UpdateString(data string, count uint64)
	Count(data []byte) uint64
	CountString(data string) uint64
	UpdateOnce(data []byte)
}

type AbstractCountMinSketch struct {
	BaseCountMinSketch
	rows    uint
	columns uint
	seed    uint64
	allSum  uint64
}

func MakeAbstractCountMinSketch(rows, columns uint, seed, allSum uint64) *AbstractCountMinSketch {
	cms := &AbstractCountMinSketch{}
	cms.rows = rows
	cms.columns = columns
	cms.seed = seed
	cms.allSum = allSum
	return cms
}

func (cms *AbstractCountMinSketch) GetRows() uint {
	return cms.rows
}

func (cms *AbstractCountMinSketch) GetColumns() uint {
	return cms.columns
}

// TotalCount returns the sum of all counts ever added.
func (cms *AbstractCountMinSketch) TotalCount() uint64 {
	return cms.allSum
}

// getPositions derives one column per row through double hashing of the
// instance-owned seed, so separately-seeded sketches place keys
// independently.
func (cms *AbstractCountMinSketch) getPositions(data []byte) []uint {
	positions := make([]uint, cms.rows)
	hash1, hash2 := metro.Hash128(data, cms.seed)
	for c := range positions {
		positions[c] = uint((hash1 + uint64(c)*hash2) % uint64(cms.columns))
	}
	return positions
}
