package bitset

// IBitSet is the bit-array seam under the membership filter. Implementations
// hold their bits in process memory or in redis; the filter does not care
// which.
type IBitSet interface {
	Size() uint
	Has(index uint) (bool, error)
	HasMulti(indexes []uint) ([]bool, error)
	Insert(index uint) (bool, error)
	InsertMulti(indexes []uint) (bool, error)
	BitCount() (uint, error)
	Equals(otherBitSet IBitSet) (bool, error)
	Export() (uint, []byte, error)
	Import(size uint, data []byte) (bool, error)
}
