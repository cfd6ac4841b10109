package athlestat

import (
	"math"
	"math/rand"
	"time"
	"unsafe"
)

var src = rand.NewSource(time.Now().UnixNano())

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const (
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

// CalculateFilterSize returns the number of bits a membership filter needs to
// hold length elements at the given false-positive rate.
func CalculateFilterSize(length uint, errorRate float64) uint {
	return uint(math.Ceil(-((float64(length) * math.Log(errorRate)) / math.Pow(math.Log(2), 2))))
}

// CalculateNumHashes returns the optimal number of hash functions for a
// filter of size bits holding length elements.
func CalculateNumHashes(size, length uint) uint {
	return uint(math.Ceil(float64(size/length) * math.Log(2)))
}

func Max(a, b uint) uint {
	if a > b {
		return a
	}
	return b
}

func Min(a, b uint) uint {
	if a < b {
		return a
	}
	return b
}

// GenerateRandomString produces a random alphabetic string of length n, used
// to key per-instance state stored in redis.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	// A src.Int63() generates 63 random bits, enough for letterIdxMax characters!
	for i, cache, remain := n-1, src.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = src.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return *(*string)(unsafe.Pointer(&b))
}

type BitSetType int

const (
	RedisBitSet BitSetType = iota
	InMemoryBitSet
)
