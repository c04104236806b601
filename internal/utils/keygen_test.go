package utils

import (
	"sync"
	"testing"
	"time"
)

func TestKeyGenerator_SameMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1737455445123)
	g := NewKeyGenerator(func() time.Time { return fixed })

	first := g.Next("apks/", "app.apk")
	second := g.Next("apks/", "app.apk")

	if first != "apks/1737455445123-app.apk" {
		t.Errorf("first key = %v, want apks/1737455445123-app.apk", first)
	}
	if second != "apks/1737455445124-app.apk" {
		t.Errorf("second key = %v, want apks/1737455445124-app.apk", second)
	}
}

func TestKeyGenerator_ClockStepsBackwards(t *testing.T) {
	times := []time.Time{time.UnixMilli(2000), time.UnixMilli(1000), time.UnixMilli(3000)}
	i := 0
	g := NewKeyGenerator(func() time.Time {
		t := times[i]
		i++
		return t
	})

	want := []string{"apks/2000-a.apk", "apks/2001-a.apk", "apks/3000-a.apk"}
	for _, w := range want {
		if got := g.Next("apks/", "a.apk"); got != w {
			t.Errorf("Next() = %v, want %v", got, w)
		}
	}
}

func TestKeyGenerator_ConcurrentUnique(t *testing.T) {
	fixed := time.UnixMilli(1737455445123)
	g := NewKeyGenerator(func() time.Time { return fixed })

	const n = 100
	keys := make(chan string, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys <- g.Next("apks/", "app.apk")
		}()
	}
	wg.Wait()
	close(keys)

	seen := make(map[string]bool)
	for k := range keys {
		if seen[k] {
			t.Fatalf("duplicate key %v", k)
		}
		seen[k] = true
	}
}

func TestNewKeyGenerator_DefaultClock(t *testing.T) {
	g := NewKeyGenerator(nil)
	before := time.Now().UnixMilli()
	key := g.Next("apks/", "a.apk")

	ts, _, err := ParsePackageKey("apks/", key)
	if err != nil {
		t.Fatalf("ParsePackageKey() unexpected error: %v", err)
	}
	if ts.UnixMilli() < before {
		t.Errorf("key stamp %d precedes %d", ts.UnixMilli(), before)
	}
}
