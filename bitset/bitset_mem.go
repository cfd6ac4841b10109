package bitset

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// BitSetMem keeps its bits in process memory on top of a
// bits-and-blooms bitset. All operations are infallible; the error returns
// exist to satisfy IBitSet alongside the redis implementation.
type BitSetMem struct {
	set  *bitset.BitSet
	size uint
}

func NewBitSetMem(size uint) *BitSetMem {
	return &BitSetMem{bitset.New(size), size}
}

func FromDataMem(data []uint64) *BitSetMem {
	return &BitSetMem{bitset.From(data), uint(len(data) * 64)}
}

func (bitSet *BitSetMem) Size() uint {
	return bitSet.size
}

func (bitSet *BitSetMem) Has(index uint) (bool, error) {
	return bitSet.set.Test(index), nil
}

func (bitSet *BitSetMem) HasMulti(indexes []uint) ([]bool, error) {
	if len(indexes) == 0 {
		return nil, fmt.Errorf("athlestat: at least 1 index is required")
	}
	result := make([]bool, len(indexes))
	for i := range indexes {
		result[i] = bitSet.set.Test(indexes[i])
	}
	return result, nil
}

func (bitSet *BitSetMem) Insert(index uint) (bool, error) {
	bitSet.set.Set(index)
	return true, nil
}

func (bitSet *BitSetMem) InsertMulti(indexes []uint) (bool, error) {
	if len(indexes) == 0 {
		return false, fmt.Errorf("athlestat: at least 1 index is required")
	}
	for i := range indexes {
		bitSet.set.Set(indexes[i])
	}
	return true, nil
}

func (bitSet *BitSetMem) BitCount() (uint, error) {
	return bitSet.set.Count(), nil
}

func (firstBitSet *BitSetMem) Equals(otherBitSet IBitSet) (bool, error) {
	secondBitSet, ok := otherBitSet.(*BitSetMem)
	if !ok {
		return false, fmt.Errorf("athlestat: invalid bitset type, should be BitSetMem")
	}
	return firstBitSet.set.Equal(secondBitSet.set), nil
}

func (bitSet *BitSetMem) Export() (uint, []byte, error) {
	data, err := bitSet.set.MarshalJSON()
	if err != nil {
		return 0, nil, err
	}
	return bitSet.size, data, nil
}

func (bitSet *BitSetMem) Import(size uint, data []byte) (bool, error) {
	err := bitSet.set.UnmarshalJSON(data)
	if err != nil {
		return false, err
	}
	bitSet.size = size
	return true, nil
}
