package atgclock

import (
	"context"
	"sync"
	"time"
)

// FakeClock is a manually-advanced Clock for deterministic ATG tests.
// Sleep never blocks: it advances the fake's time by the requested
// duration itself and returns, or returns ctx's error if ctx is already
// done.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake builds a FakeClock starting at t.
func NewFake(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the fake clock forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Sleep advances the fake clock by d and returns immediately, unless ctx is
// already done.
func (f *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Advance(d)
	return nil
}

// FakeRandom is a scripted Random for deterministic ATG tests: each method
// pulls its next value off a queue, repeating the last value once exhausted.
type FakeRandom struct {
	mu     sync.Mutex
	floats []float64
	durs   []time.Duration
	picks  []int
}

// NewFakeRandom builds a FakeRandom. Any of the slices may be nil; the
// corresponding method then returns 0, except UniformDuration, which
// returns minSeconds as a time.Duration.
func NewFakeRandom(floats []float64, durs []time.Duration, picks []int) *FakeRandom {
	return &FakeRandom{floats: floats, durs: durs, picks: picks}
}

func (f *FakeRandom) UniformFloat() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.floats) == 0 {
		return 0
	}
	v := f.floats[0]
	if len(f.floats) > 1 {
		f.floats = f.floats[1:]
	}
	return v
}

func (f *FakeRandom) UniformDuration(minSeconds, maxSeconds float64) time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.durs) == 0 {
		return time.Duration(minSeconds * float64(time.Second))
	}
	v := f.durs[0]
	if len(f.durs) > 1 {
		f.durs = f.durs[1:]
	}
	return v
}

func (f *FakeRandom) Pick(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.picks) == 0 || n <= 0 {
		return 0
	}
	v := f.picks[0]
	if len(f.picks) > 1 {
		f.picks = f.picks[1:]
	}
	if v >= n {
		v = n - 1
	}
	return v
}
