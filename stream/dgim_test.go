package stream

import (
	"testing"
	"time"
)

func TestDGIMConfigError(t *testing.T) {
	if _, err := NewDGIM(0); err == nil {
		t.Error("should error out on non-positive window")
	}
}

func TestDGIMAllOnesWithinBound(t *testing.T) {
	d, _ := NewDGIM(300 * time.Second)
	base := time.Unix(1000, 0)
	for i := 0; i < 100; i++ {
		d.AddBit(true, base.Add(time.Duration(i)*time.Second))
	}
	got := d.Query(base.Add(99 * time.Second))
	if got > 100 {
		t.Errorf("estimate %d overcounts the 100 true bits", got)
	}
	if got < 50 {
		t.Errorf("estimate %d outside the 50%% error bound of 100", got)
	}
}

func TestDGIMBucketsStayLogarithmic(t *testing.T) {
	d, _ := NewDGIM(time.Hour)
	base := time.Unix(1000, 0)
	for i := 0; i < 1000; i++ {
		d.AddBit(true, base.Add(time.Duration(i)*time.Millisecond))
	}
	// merging bounds buckets to at most two per power-of-two size
	if d.BucketCount() > 22 {
		t.Errorf("bucket count %d not logarithmic in stream length", d.BucketCount())
	}
}

func TestDGIMZeroBitsDoNotCount(t *testing.T) {
	d, _ := NewDGIM(300 * time.Second)
	base := time.Unix(1000, 0)
	for i := 0; i < 50; i++ {
		d.AddBit(false, base.Add(time.Duration(i)*time.Second))
	}
	if got := d.Query(base.Add(49 * time.Second)); got != 0 {
		t.Errorf("estimate should be 0 for an all-zero stream, found %d", got)
	}
}

func TestDGIMExpiry(t *testing.T) {
	d, _ := NewDGIM(300 * time.Second)
	base := time.Unix(1000, 0)
	for i := 0; i < 20; i++ {
		d.AddBit(true, base.Add(time.Duration(i)*time.Second))
	}
	past := base.Add(19*time.Second + 301*time.Second)
	if got := d.Query(past); got != 0 {
		t.Errorf("all bits are outside the window, estimate should be 0, found %d", got)
	}
	if d.BucketCount() != 0 {
		t.Errorf("expired buckets should be evicted, found %d", d.BucketCount())
	}
}

func TestDGIMEvictsOnAdd(t *testing.T) {
	d, _ := NewDGIM(10 * time.Second)
	base := time.Unix(1000, 0)
	d.AddBit(true, base)
	d.AddBit(false, base.Add(11*time.Second))
	if d.BucketCount() != 0 {
		t.Errorf("insert should evict expired buckets, found %d", d.BucketCount())
	}
}
