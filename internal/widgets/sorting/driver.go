package sorting

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"
	"time"
)

// Replay parameters.
const (
	// StepDelay is the pause between two published steps.
	StepDelay = 50 * time.Millisecond

	// ArraySize is the length of every freshly generated array.
	ArraySize = 20
	// MinValue and MaxValue bound generated values: MinValue <= v < MaxValue.
	MinValue = 5
	MaxValue = 55
)

// State is the replay driver's lifecycle state.
type State int

// Driver states. Start moves Idle to Running; consuming the terminal step
// moves Running to Finished; Reset moves Idle or Finished back to Idle.
const (
	Idle State = iota
	Running
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Frame is what the display layer shows: the current array, the indices
// being compared (nil when none), and the driver state.
type Frame struct {
	Arr       []int
	Comparing []int
	State     State
}

// Display receives every frame the driver publishes. It is called without
// the driver's lock held, so it may call back into the driver.
type Display func(Frame)

// Sleeper suspends the replay between steps. It returns early with the
// context's error when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Driver replays a bubble sort of its current array one step at a time.
// A Driver runs at most one replay at a time.
type Driver struct {
	mu        sync.Mutex
	state     State
	arr       []int
	comparing []int
	rng       *rand.Rand

	display Display
	sleep   Sleeper
}

// NewDriver returns an idle driver holding a freshly generated array.
// A nil display discards frames, a nil sleeper waits on a real timer, and a
// nil rng is seeded randomly.
func NewDriver(display Display, sleep Sleeper, rng *rand.Rand) *Driver {
	if display == nil {
		display = func(Frame) {}
	}
	if sleep == nil {
		sleep = SleepContext
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	d := &Driver{display: display, sleep: sleep, rng: rng}
	d.arr = RandomArray(d.rng)
	return d
}

// Snapshot returns the frame currently on display.
func (d *Driver) Snapshot() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameLocked()
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start replays the sort of the current array and blocks until the
// terminal step has been shown. It returns false without doing anything
// unless the driver is Idle.
//
// Cancelling ctx stops the replay at the next pause; the driver goes back
// to Idle showing the last published array.
func (d *Driver) Start(ctx context.Context) bool {
	d.mu.Lock()
	if d.state != Idle {
		d.mu.Unlock()
		return false
	}
	d.state = Running
	steps := NewSteps(d.arr)
	d.mu.Unlock()

	for st := range steps.All() {
		if st.Finished {
			d.publish(func() {
				d.arr = st.Arr
				d.comparing = nil
				d.state = Finished
			})
			break
		}

		d.publish(func() {
			d.arr = st.Arr
			d.comparing = st.Compare
		})

		if err := d.sleep(ctx, StepDelay); err != nil {
			d.publish(func() {
				d.comparing = nil
				d.state = Idle
			})
			break
		}
	}
	return true
}

// Reset clears the comparison, generates a new array and returns to Idle.
// It returns false without doing anything while a replay is running.
func (d *Driver) Reset() bool {
	d.mu.Lock()
	if d.state == Running {
		d.mu.Unlock()
		return false
	}
	d.arr = RandomArray(d.rng)
	d.comparing = nil
	d.state = Idle
	f := d.frameLocked()
	d.mu.Unlock()

	d.display(f)
	return true
}

// publish applies mutate under the lock and hands the resulting frame to
// the display.
func (d *Driver) publish(mutate func()) {
	d.mu.Lock()
	mutate()
	f := d.frameLocked()
	d.mu.Unlock()
	d.display(f)
}

func (d *Driver) frameLocked() Frame {
	return Frame{
		Arr:       slices.Clone(d.arr),
		Comparing: slices.Clone(d.comparing),
		State:     d.state,
	}
}

// RandomArray returns ArraySize values drawn uniformly from
// [MinValue, MaxValue).
func RandomArray(rng *rand.Rand) []int {
	arr := make([]int, ArraySize)
	for i := range arr {
		arr[i] = MinValue + rng.IntN(MaxValue-MinValue)
	}
	return arr
}

// SleepContext waits for d or until ctx is done, whichever comes first.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
