// Package sorting produces the step-by-step trace of a bubble sort and
// replays it on a fixed cadence for the sorting visualizer widget.
package sorting

import (
	"iter"
	"slices"
)

// Step is one immutable snapshot of a sort in progress.
type Step struct {
	// Arr is the full array after this step. Each Step owns its copy.
	Arr []int
	// Compare holds the pair of indices under comparison, or nil on the
	// terminal step.
	Compare []int
	// Swap reports whether this step exchanged the compared pair.
	Swap bool
	// Finished marks the terminal step.
	Finished bool
}

// Steps is a cursor over the bubble sort of one input. It is single-pass:
// restart by calling NewSteps again.
type Steps struct {
	arr []int
	n   int
	i   int
	j   int

	// swapPending is set after a compare step whose pair must be swapped;
	// the next call emits the swap step.
	swapPending bool
	done        bool
}

// NewSteps returns a cursor over the bubble sort of input. The input is
// copied; the caller's slice is never modified.
func NewSteps(input []int) *Steps {
	return &Steps{arr: slices.Clone(input), n: len(input)}
}

// Next returns the next step, or false once the terminal step has been
// returned.
func (s *Steps) Next() (Step, bool) {
	if s.done {
		return Step{}, false
	}

	if s.swapPending {
		s.swapPending = false
		j := s.j
		s.arr[j], s.arr[j+1] = s.arr[j+1], s.arr[j]
		s.advance()
		return s.snapshot([]int{j, j + 1}, true), true
	}

	if s.i < s.n-1 {
		j := s.j
		st := s.snapshot([]int{j, j + 1}, false)
		if s.arr[j] > s.arr[j+1] {
			s.swapPending = true
		} else {
			s.advance()
		}
		return st, true
	}

	s.done = true
	st := s.snapshot(nil, false)
	st.Finished = true
	return st, true
}

// advance moves (i, j) to the next comparison.
func (s *Steps) advance() {
	s.j++
	if s.j >= s.n-1-s.i {
		s.i++
		s.j = 0
	}
}

func (s *Steps) snapshot(compare []int, swap bool) Step {
	return Step{Arr: slices.Clone(s.arr), Compare: compare, Swap: swap}
}

// All adapts the cursor to a range-over-func sequence. Like the cursor,
// the sequence can be consumed once.
func (s *Steps) All() iter.Seq[Step] {
	return func(yield func(Step) bool) {
		for {
			st, ok := s.Next()
			if !ok || !yield(st) {
				return
			}
		}
	}
}

// BubbleSteps returns the full step sequence for input as a range-over-func
// iterator.
func BubbleSteps(input []int) iter.Seq[Step] {
	return NewSteps(input).All()
}
