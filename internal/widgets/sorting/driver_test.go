package sorting

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects published frames; the driver may publish from another
// goroutine.
type recorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recorder) show(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) all() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.frames)
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func newTestDriver(t *testing.T, sleep Sleeper) (*Driver, *recorder) {
	t.Helper()
	rec := &recorder{}
	return NewDriver(rec.show, sleep, rand.New(rand.NewPCG(7, 11))), rec
}

func assertFreshArray(t *testing.T, arr []int) {
	t.Helper()
	require.Len(t, arr, ArraySize)
	for _, v := range arr {
		assert.GreaterOrEqual(t, v, MinValue)
		assert.Less(t, v, MaxValue)
	}
}

func TestNewDriverStartsIdle(t *testing.T) {
	d, rec := newTestDriver(t, noSleep)

	f := d.Snapshot()
	assert.Equal(t, Idle, f.State)
	assert.Nil(t, f.Comparing)
	assertFreshArray(t, f.Arr)
	assert.Empty(t, rec.all(), "construction publishes nothing")
}

func TestStartReplaysEveryStep(t *testing.T) {
	var sleeps []time.Duration
	var mu sync.Mutex
	sleep := func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		sleeps = append(sleeps, d)
		mu.Unlock()
		return nil
	}
	d, rec := newTestDriver(t, sleep)
	initial := d.Snapshot().Arr

	require.True(t, d.Start(context.Background()))

	var want []Step
	for st := range BubbleSteps(initial) {
		want = append(want, st)
	}
	frames := rec.all()
	require.Len(t, frames, len(want), "one frame per step, none skipped")

	for i, st := range want[:len(want)-1] {
		assert.Equal(t, st.Arr, frames[i].Arr, "frame %d", i)
		assert.Equal(t, st.Compare, frames[i].Comparing, "frame %d", i)
		assert.Equal(t, Running, frames[i].State, "frame %d", i)
	}

	last := frames[len(frames)-1]
	assert.Equal(t, Finished, last.State)
	assert.Nil(t, last.Comparing)
	assert.True(t, slices.IsSorted(last.Arr))

	assert.Len(t, sleeps, len(want)-1, "one pause between consecutive steps")
	for _, s := range sleeps {
		assert.Equal(t, StepDelay, s)
	}

	f := d.Snapshot()
	assert.Equal(t, Finished, f.State)
	assert.Equal(t, last.Arr, f.Arr)
}

func TestStartIsNoOpWhenFinished(t *testing.T) {
	d, rec := newTestDriver(t, noSleep)
	require.True(t, d.Start(context.Background()))
	n := len(rec.all())

	assert.False(t, d.Start(context.Background()))
	assert.Equal(t, Finished, d.State())
	assert.Len(t, rec.all(), n, "no further frames")
}

func TestStartAndResetAreNoOpsWhileRunning(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	sleep := func(ctx context.Context, dur time.Duration) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
		return nil
	}
	d, rec := newTestDriver(t, sleep)
	initial := d.Snapshot().Arr

	done := make(chan bool)
	go func() { done <- d.Start(context.Background()) }()

	<-entered
	assert.Equal(t, Running, d.State())
	during := d.Snapshot()

	assert.False(t, d.Start(context.Background()), "second start is ignored")
	assert.False(t, d.Reset(), "reset is ignored while running")
	assert.Equal(t, during, d.Snapshot(), "ignored calls change nothing")

	close(release)
	require.True(t, <-done)

	var want int
	for range BubbleSteps(initial) {
		want++
	}
	assert.Len(t, rec.all(), want, "generator consumed exactly once")
	assert.Equal(t, Finished, d.State())
}

func TestResetFromIdleAndFinished(t *testing.T) {
	d, rec := newTestDriver(t, noSleep)

	before := d.Snapshot().Arr
	require.True(t, d.Reset())
	f := d.Snapshot()
	assert.Equal(t, Idle, f.State)
	assertFreshArray(t, f.Arr)
	assert.NotEqual(t, before, f.Arr, "seeded generator yields a different array")

	require.True(t, d.Start(context.Background()))
	require.Equal(t, Finished, d.State())

	require.True(t, d.Reset())
	f = d.Snapshot()
	assert.Equal(t, Idle, f.State)
	assert.Nil(t, f.Comparing)
	assertFreshArray(t, f.Arr)

	frames := rec.all()
	assert.Equal(t, f, frames[len(frames)-1], "reset publishes the new frame")

	assert.True(t, d.Start(context.Background()), "start is allowed again after reset")
}

func TestResetManyTimesStaysInRange(t *testing.T) {
	d, _ := newTestDriver(t, noSleep)
	for range 100 {
		require.True(t, d.Reset())
		assertFreshArray(t, d.Snapshot().Arr)
	}
}

func TestStartCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	sleep := func(ctx context.Context, dur time.Duration) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return ctx.Err()
	}
	d, rec := newTestDriver(t, sleep)

	require.True(t, d.Start(ctx))

	f := d.Snapshot()
	assert.Equal(t, Idle, f.State)
	assert.Nil(t, f.Comparing)

	frames := rec.all()
	require.Len(t, frames, 4, "three steps then the cancellation frame")
	assert.Equal(t, frames[2].Arr, f.Arr, "keeps the last array shown")
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "finished", Finished.String())
	assert.Equal(t, "unknown", State(9).String())
}
