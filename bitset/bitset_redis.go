package bitset

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/athlestat/athlestat"
	"github.com/redis/go-redis/v9"
)

// BitSetRedis keeps its bits in a redis string value addressed per bit with
// SETBIT/GETBIT. Instances created with NewBitSetRedis own a random key;
// FromRedisKey attaches to state written by another process.
type BitSetRedis struct {
	size uint
	key  string
}

func NewBitSetRedis(size uint) *BitSetRedis {
	zeroes := make([]byte, (size+7)/8)
	key := athlestat.GenerateRandomString(16)
	_ = athlestat.GetRedisClient().Set(context.Background(), key, string(zeroes), 0).Err()
	return &BitSetRedis{size, key}
}

func FromRedisKey(key string) (*BitSetRedis, error) {
	val, err := athlestat.GetRedisClient().Get(context.Background(), key).Result()
	if err != nil {
		return nil, err
	}
	return &BitSetRedis{uint(len(val) * 8), key}, nil
}

func (bitSet *BitSetRedis) Size() uint {
	return bitSet.size
}

func (bitSet *BitSetRedis) Key() string {
	return bitSet.key
}

func (bitSet *BitSetRedis) Has(index uint) (bool, error) {
	val, err := athlestat.GetRedisClient().GetBit(context.Background(), bitSet.key, int64(index)).Result()
	if err != nil {
		return false, err
	}
	return val != 0, nil
}

func (bitSet *BitSetRedis) HasMulti(indexes []uint) ([]bool, error) {
	if len(indexes) == 0 {
		return nil, fmt.Errorf("athlestat: at least 1 index is required")
	}
	ctx := context.Background()
	pipe := athlestat.GetRedisClient().Pipeline()
	values := make([]*redis.IntCmd, len(indexes))
	for i := range indexes {
		values[i] = pipe.GetBit(ctx, bitSet.key, int64(indexes[i]))
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]bool, len(values))
	for i := range values {
		result[i] = values[i].Val() != 0
	}
	return result, nil
}

func (bitSet *BitSetRedis) Insert(index uint) (bool, error) {
	err := athlestat.GetRedisClient().SetBit(context.Background(), bitSet.key, int64(index), 1).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bitSet *BitSetRedis) InsertMulti(indexes []uint) (bool, error) {
	if len(indexes) == 0 {
		return false, fmt.Errorf("athlestat: at least 1 index is required")
	}
	ctx := context.Background()
	pipe := athlestat.GetRedisClient().Pipeline()
	for i := range indexes {
		pipe.SetBit(ctx, bitSet.key, int64(indexes[i]), 1)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bitSet *BitSetRedis) BitCount() (uint, error) {
	bitRange := &redis.BitCount{Start: 0, End: -1}
	val, err := athlestat.GetRedisClient().BitCount(context.Background(), bitSet.key, bitRange).Result()
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

func (aSet *BitSetRedis) Equals(otherBitSet IBitSet) (bool, error) {
	bSet, ok := otherBitSet.(*BitSetRedis)
	if !ok {
		return false, fmt.Errorf("athlestat: invalid bitset type, should be BitSetRedis")
	}
	aSetVal, err := athlestat.GetRedisClient().Get(context.Background(), aSet.key).Result()
	if err != nil {
		return false, err
	}
	bSetVal, err := athlestat.GetRedisClient().Get(context.Background(), bSet.key).Result()
	if err != nil {
		return false, err
	}
	return aSetVal == bSetVal, nil
}

type bitSetRedisJSON struct {
	Size uint   `json:"s"`
	Bits string `json:"b"`
}

func (bitSet *BitSetRedis) Export() (uint, []byte, error) {
	val, err := athlestat.GetRedisClient().Get(context.Background(), bitSet.key).Result()
	if err != nil {
		return 0, nil, err
	}
	data, err := json.Marshal(bitSetRedisJSON{bitSet.size, base64.URLEncoding.EncodeToString([]byte(val))})
	if err != nil {
		return 0, nil, err
	}
	return bitSet.size, data, nil
}

func (bitSet *BitSetRedis) Import(size uint, data []byte) (bool, error) {
	var s bitSetRedisJSON
	err := json.Unmarshal(data, &s)
	if err != nil {
		return false, err
	}
	bytes, err := base64.URLEncoding.DecodeString(s.Bits)
	if err != nil {
		return false, err
	}
	bitSet.size = size
	err = athlestat.GetRedisClient().Set(context.Background(), bitSet.key, string(bytes), 0).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}
