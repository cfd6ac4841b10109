package stream

import (
	"container/heap"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

type sampleEntry struct {
	hash uint64
	item string
}

// sampleHeap is a max-heap on hash value, so the root is the candidate to
// evict when a smaller hash arrives.
type sampleHeap []sampleEntry

func (h sampleHeap) Len() int {
	return len(h)
}

func (h sampleHeap) Less(i, j int) bool {
	return h[i].hash > h[j].hash
}

func (h sampleHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *sampleHeap) Push(x any) {
	*h = append(*h, x.(sampleEntry))
}

func (h *sampleHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

func (h sampleHeap) IndexOf(item string) int {
	for i := range h {
		if h[i].item == item {
			return i
		}
	}
	return -1
}

// MinWiseSampler retains the k items with the smallest hash values among all
// distinct items ever considered, which is an approximately uniform sample of
// the distinct stream in O(k) memory regardless of stream length.
type MinWiseSampler struct {
	k    uint
	heap sampleHeap
}

func NewMinWiseSampler(k uint) (*MinWiseSampler, error) {
	if k <= 0 {
		return nil, fmt.Errorf("athlestat: sample size should be greater than 0")
	}
	return &MinWiseSampler{k: k}, nil
}

// Consider offers an item to the sample. The item is kept only while its
// hash stays among the k smallest seen. Replacement happens on strictly
// smaller hashes; an item hashing equal to the current maximum leaves the
// incumbent in place. Re-considering a held item is a no-op.
func (s *MinWiseSampler) Consider(item string) {
	if s.heap.IndexOf(item) > -1 {
		return
	}
	hval := xxhash.Sum64String(item)
	if uint(len(s.heap)) < s.k {
		heap.Push(&s.heap, sampleEntry{hval, item})
		return
	}
	if hval < s.heap[0].hash {
		s.heap[0] = sampleEntry{hval, item}
		heap.Fix(&s.heap, 0)
	}
}

// Sample returns the retained items in no significant order.
func (s *MinWiseSampler) Sample() []string {
	items := make([]string, len(s.heap))
	for i := range s.heap {
		items[i] = s.heap[i].item
	}
	return items
}

func (s *MinWiseSampler) Size() int {
	return len(s.heap)
}

func (s *MinWiseSampler) K() uint {
	return s.k
}
