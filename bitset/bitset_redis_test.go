package bitset

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/athlestat/athlestat"
)

func TestBitSetRedisHas(t *testing.T) {
	initMockRedis()
	bitSet := NewBitSetRedis(4)
	bitSet.Insert(1)
	bitSet.Insert(3)
	ok, _ := bitSet.Has(2)
	if ok {
		t.Error("bit 2 should not be set")
	}
	ok, _ = bitSet.Has(3)
	if !ok {
		t.Error("bit 3 should be set")
	}
}

func TestBitSetRedisInsertMulti(t *testing.T) {
	initMockRedis()
	bitSet := NewBitSetRedis(8)
	bitSet.InsertMulti([]uint{1, 3, 7})
	has, err := bitSet.HasMulti([]uint{1, 2, 3, 7})
	if err != nil {
		t.Fatalf("HasMulti failed, error: %v", err)
	}
	expected := []bool{true, false, true, true}
	for i := range has {
		if has[i] != expected[i] {
			t.Errorf("HasMulti[%d] should be %v, found %v", i, expected[i], has[i])
		}
	}
}

func TestBitSetRedisBitCount(t *testing.T) {
	initMockRedis()
	bitSet := NewBitSetRedis(16)
	bitSet.Insert(0)
	bitSet.Insert(5)
	bitSet.Insert(5)
	count, _ := bitSet.BitCount()
	if count != 2 {
		t.Errorf("count should be 2, found %d", count)
	}
}

func TestBitSetRedisEquals(t *testing.T) {
	initMockRedis()
	aSet := NewBitSetRedis(8)
	aSet.InsertMulti([]uint{1, 2, 5})
	bSet := NewBitSetRedis(8)
	bSet.InsertMulti([]uint{1, 2, 5})
	ok, err := aSet.Equals(bSet)
	if err != nil {
		t.Fatalf("Equals failed, error: %v", err)
	}
	if !ok {
		t.Error("aSet and bSet should be equal")
	}
}

func TestBitSetRedisFromKey(t *testing.T) {
	initMockRedis()
	aSet := NewBitSetRedis(8)
	aSet.Insert(6)
	bSet, err := FromRedisKey(aSet.Key())
	if err != nil {
		t.Fatalf("FromRedisKey failed, error: %v", err)
	}
	ok, _ := bSet.Has(6)
	if !ok {
		t.Error("bit 6 should be set in attached bitset")
	}
}

func initMockRedis() {
	mr, _ := miniredis.Run()
	redisUri := "redis://" + mr.Addr()
	connOptions, _ := athlestat.ParseRedisURI(redisUri)
	athlestat.MakeRedisClient(*connOptions)
}
