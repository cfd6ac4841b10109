package count

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/athlestat/athlestat"
	"github.com/redis/go-redis/v9"
)

// CountMinSketchRedis keeps its counter matrix in a redis hash keyed by a
// random per-instance key, one field per (row, column) cell. Cells are
// created lazily by HINCRBY; a missing field reads as zero.
type CountMinSketchRedis struct {
	AbstractCountMinSketch
	key string
}

func NewCountMinSketchRedis(rows, columns uint, seed uint64) (*CountMinSketchRedis, error) {
	if rows <= 0 || columns <= 0 {
		return nil, fmt.Errorf("athlestat: rows and columns size should be greater than 0")
	}
	abstractSketch := MakeAbstractCountMinSketch(rows, columns, seed, 0)
	key := athlestat.GenerateRandomString(16)
	return &CountMinSketchRedis{*abstractSketch, key}, nil
}

func NewCountMinSketchRedisFromEstimates(errorRate, delta float64, seed uint64) (*CountMinSketchRedis, error) {
	columns := uint(math.Ceil(math.E / errorRate))
	rows := uint(math.Ceil(math.Log(1 / delta)))
	return NewCountMinSketchRedis(rows, columns, seed)
}

func (cms *CountMinSketchRedis) Key() string {
	return cms.key
}

func cellField(row, column uint) string {
	return strconv.FormatUint(uint64(row), 10) + ":" + strconv.FormatUint(uint64(column), 10)
}

func (cms *CountMinSketchRedis) UpdateOnce(data []byte) error {
	return cms.Update(data, 1)
}

func (cms *CountMinSketchRedis) Update(data []byte, count uint64) error {
	ctx := context.Background()
	pipe := athlestat.GetRedisClient().Pipeline()
	for r, c := range cms.getPositions(data) {
		pipe.HIncrBy(ctx, cms.key, cellField(uint(r), c), int64(count))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("athlestat: error while updating data %v in redis, error: %v", data, err)
	}
	cms.allSum += count
	return nil
}

func (cms *CountMinSketchRedis) UpdateString(data string, count uint64) error {
	return cms.Update([]byte(data), count)
}

func (cms *CountMinSketchRedis) Count(data []byte) (uint64, error) {
	ctx := context.Background()
	pipe := athlestat.GetRedisClient().Pipeline()
	cells := make([]*redis.StringCmd, 0, cms.rows)
	for r, c := range cms.getPositions(data) {
		cells = append(cells, pipe.HGet(ctx, cms.key, cellField(uint(r), c)))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, fmt.Errorf("athlestat: error while counting data %v in redis, error: %v", data, err)
	}
	var min uint64
	for i := range cells {
		var val uint64
		if cells[i].Err() == nil {
			parsed, err := strconv.ParseUint(cells[i].Val(), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("athlestat: corrupt sketch cell %q in redis", cells[i].Val())
			}
			val = parsed
		}
		if i == 0 || val < min {
			min = val
		}
	}
	return min, nil
}

func (cms *CountMinSketchRedis) CountString(data string) (uint64, error) {
	return cms.Count([]byte(data))
}

// Merge folds the cells of cms1 into cms. Both sketches must share rows,
// columns and seed.
func (cms *CountMinSketchRedis) Merge(cms1 *CountMinSketchRedis) error {
	if cms.rows != cms1.rows {
		return fmt.Errorf("athlestat: can't merge sketches with unequal row counts, %d and %d", cms.rows, cms1.rows)
	}
	if cms.columns != cms1.columns {
		return fmt.Errorf("athlestat: can't merge sketches with unequal column counts, %d and %d", cms.columns, cms1.columns)
	}
	if cms.seed != cms1.seed {
		return fmt.Errorf("athlestat: can't merge sketches with different seeds")
	}
	ctx := context.Background()
	cells, err := athlestat.GetRedisClient().HGetAll(ctx, cms1.key).Result()
	if err != nil {
		return fmt.Errorf("athlestat: error while reading sketch %s from redis, error: %v", cms1.key, err)
	}
	pipe := athlestat.GetRedisClient().Pipeline()
	for field, val := range cells {
		count, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("athlestat: corrupt sketch cell %q in redis", val)
		}
		pipe.HIncrBy(ctx, cms.key, field, count)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("athlestat: error while merging sketches in redis, error: %v", err)
	}
	cms.allSum += cms1.allSum
	return nil
}

func (cms *CountMinSketchRedis) Equals(cms1 *CountMinSketchRedis) (bool, error) {
	if cms.rows != cms1.rows || cms.columns != cms1.columns || cms.seed != cms1.seed {
		return false, nil
	}
	ctx := context.Background()
	aCells, err := athlestat.GetRedisClient().HGetAll(ctx, cms.key).Result()
	if err != nil {
		return false, err
	}
	bCells, err := athlestat.GetRedisClient().HGetAll(ctx, cms1.key).Result()
	if err != nil {
		return false, err
	}
	if len(aCells) != len(bCells) {
		return false, nil
	}
	for field, val := range aCells {
		if bCells[field] != val {
			return false, nil
		}
	}
	return true, nil
}
