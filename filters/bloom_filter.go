package filters

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/athlestat/athlestat"
	"github.com/athlestat/athlestat/bitset"
	"github.com/athlestat/athlestat/hash"
)

// BloomFilter is the membership filter used to answer "has this category
// been seen before". Inserted keys are always reported present; keys never
// inserted are reported present with probability bounded by the error rate
// the filter was sized for. There is no removal.
//
// The hash seed is owned by the instance, so two filters never share
// randomness. Updates assume a single writer; lookups may run concurrently
// with each other.
type BloomFilter struct {
	size      uint
	numHashes uint
	seed      uint64
	filter    bitset.IBitSet
}

// NewBloomFilterWithBitSet builds a filter over an existing bit array. The
// bit array size must match size.
func NewBloomFilterWithBitSet(size, numHashes uint, seed uint64, filter bitset.IBitSet) (*BloomFilter, error) {
	if size <= 0 || numHashes <= 0 {
		return nil, fmt.Errorf("athlestat: size and numHashes should be greater than 0")
	}
	if filter.Size() != size {
		return nil, fmt.Errorf("athlestat: error initializing filter as size of bitset %v doesn't match with size %v passed", filter.Size(), size)
	}
	return &BloomFilter{size, numHashes, seed, filter}, nil
}

// NewMemBloomFilter sizes an in-memory filter for the given capacity and
// target false-positive rate.
func NewMemBloomFilter(capacity uint, errorRate float64, seed uint64) (*BloomFilter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("athlestat: filter capacity should be greater than 0")
	}
	if errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("athlestat: error rate should be in (0, 1), got %v", errorRate)
	}
	size := athlestat.CalculateFilterSize(capacity, errorRate)
	numHashes := athlestat.CalculateNumHashes(size, capacity)
	return NewBloomFilterWithBitSet(athlestat.Max(size, 1), athlestat.Max(numHashes, 1), seed, bitset.NewBitSetMem(athlestat.Max(size, 1)))
}

// NewRedisBloomFilter sizes a filter holding its bits in redis. The shared
// redis client must have been initialized with athlestat.MakeRedisClient.
func NewRedisBloomFilter(capacity uint, errorRate float64, seed uint64) (*BloomFilter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("athlestat: filter capacity should be greater than 0")
	}
	if errorRate <= 0 || errorRate >= 1 {
		return nil, fmt.Errorf("athlestat: error rate should be in (0, 1), got %v", errorRate)
	}
	size := athlestat.CalculateFilterSize(capacity, errorRate)
	numHashes := athlestat.CalculateNumHashes(size, capacity)
	return NewBloomFilterWithBitSet(athlestat.Max(size, 1), athlestat.Max(numHashes, 1), seed, bitset.NewBitSetRedis(athlestat.Max(size, 1)))
}

func (bloomFilter *BloomFilter) getHashes(data []byte) [2]uint64 {
	hash1, hash2 := hash.Sum128WithSeed(data, bloomFilter.seed)
	return [2]uint64{hash1, hash2}
}

func (bloomFilter *BloomFilter) getIndexes(hashes [2]uint64) []uint {
	indexes := make([]uint, bloomFilter.numHashes)
	for i := range indexes {
		j := uint64(i)
		indexes[i] = uint((hashes[0] + j*hashes[1]) % uint64(bloomFilter.size))
	}
	return indexes
}

// Insert sets the bit positions of data in the underlying bit array. The
// error is always nil for in-memory filters.
func (bloomFilter *BloomFilter) Insert(data []byte) (bool, error) {
	return bloomFilter.filter.InsertMulti(bloomFilter.getIndexes(bloomFilter.getHashes(data)))
}

// Contains reports whether every bit position of data is set. A previously
// inserted key always returns true.
func (bloomFilter *BloomFilter) Contains(data []byte) (bool, error) {
	has, err := bloomFilter.filter.HasMulti(bloomFilter.getIndexes(bloomFilter.getHashes(data)))
	if err != nil {
		return false, err
	}
	for i := range has {
		if !has[i] {
			return false, nil
		}
	}
	return true, nil
}

func (bloomFilter *BloomFilter) InsertString(data string) (bool, error) {
	return bloomFilter.Insert([]byte(data))
}

func (bloomFilter *BloomFilter) ContainsString(data string) (bool, error) {
	return bloomFilter.Contains([]byte(data))
}

func (bloomFilter *BloomFilter) GetCap() uint {
	return bloomFilter.size
}

func (bloomFilter *BloomFilter) GetNumHashes() uint {
	return bloomFilter.numHashes
}

func (bloomFilter *BloomFilter) GetBitSet() *bitset.IBitSet {
	return &bloomFilter.filter
}

// FalsePositiveRate estimates the current false-positive probability from
// the fill factor of the bit array.
func (bloomFilter *BloomFilter) FalsePositiveRate() float64 {
	length, _ := bloomFilter.filter.BitCount()
	return math.Pow(1-math.Exp(-float64(length)/float64(bloomFilter.size)), float64(bloomFilter.numHashes))
}

func (aFilter *BloomFilter) Equals(bFilter *BloomFilter) (bool, error) {
	if aFilter.size != bFilter.size || aFilter.numHashes != bFilter.numHashes || aFilter.seed != bFilter.seed {
		return false, nil
	}
	return aFilter.filter.Equals(bFilter.filter)
}

type bloomFilterJSON struct {
	M uint   `json:"m"`
	K uint   `json:"k"`
	S uint64 `json:"s"`
	B []byte `json:"b"`
}

func (bloomFilter *BloomFilter) Export() ([]byte, error) {
	_, bits, err := bloomFilter.filter.Export()
	if err != nil {
		return nil, err
	}
	return json.Marshal(bloomFilterJSON{bloomFilter.size, bloomFilter.numHashes, bloomFilter.seed, bits})
}

func (bloomFilter *BloomFilter) Import(data []byte) error {
	var f bloomFilterJSON
	err := json.Unmarshal(data, &f)
	if err != nil {
		return err
	}
	bloomFilter.size = f.M
	bloomFilter.numHashes = f.K
	bloomFilter.seed = f.S
	_, err = bloomFilter.filter.Import(f.M, f.B)
	return err
}
