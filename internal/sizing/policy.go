// Package sizing defines the ordinal T-shirt-size scale for breakdown-candidate
// tasks and the story-point ceiling each size implies.
//
// A task's size establishes the maximum story points any of its descendants
// may carry. The ceilings are configurable, but the ordering contract is
// load-bearing: a larger size must never imply a smaller ceiling. NewPolicy
// rejects override tables that break it.
package sizing

import (
	"fmt"
	"sort"
)

// --- Size enum ---

// Size is an ordinal T-shirt size assigned to tasks intended to be broken down.
// Subtasks carry no size.
type Size string

const (
	SizeXS Size = "xs"
	SizeS  Size = "s"
	SizeM  Size = "m"
	SizeL  Size = "l"
	SizeXL Size = "xl"
)

// sizeOrder lists the sizes from smallest to largest. The index is the
// size's ordinal rank.
var sizeOrder = []Size{SizeXS, SizeS, SizeM, SizeL, SizeXL}

// defaultCeilings maps each size to its default story-point ceiling.
var defaultCeilings = map[Size]int{
	SizeXS: 2,
	SizeS:  3,
	SizeM:  5,
	SizeL:  8,
	SizeXL: 13,
}

// fibonacciPoints is the canonical set of legal story-point values.
var fibonacciPoints = []int{1, 2, 3, 5, 8, 13, 21, 34, 55, 89}

// InvalidSizeError reports a size value outside the known scale.
type InvalidSizeError struct {
	Size string
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("sizing: unknown task size %q: must be one of: xs, s, m, l, xl", e.Size)
}

// ValidSize reports whether s is a known size.
func ValidSize(s Size) bool {
	_, ok := defaultCeilings[s]
	return ok
}

// Rank returns the ordinal rank of a size (xs=0 … xl=4), or -1 if unknown.
func Rank(s Size) int {
	for i, v := range sizeOrder {
		if v == s {
			return i
		}
	}
	return -1
}

// IsFibonacci reports whether points is a member of the canonical
// Fibonacci story-point set.
func IsFibonacci(points int) bool {
	for _, f := range fibonacciPoints {
		if f == points {
			return true
		}
	}
	return false
}

// FibonacciPoints returns a copy of the canonical story-point sequence.
func FibonacciPoints() []int {
	out := make([]int, len(fibonacciPoints))
	copy(out, fibonacciPoints)
	return out
}

// --- Policy ---

// Policy is the size-to-ceiling lookup table. The zero value is unusable;
// construct one with DefaultPolicy or NewPolicy.
type Policy struct {
	ceilings map[Size]int
}

// DefaultPolicy returns the policy with the default ceiling table.
func DefaultPolicy() Policy {
	m := make(map[Size]int, len(defaultCeilings))
	for k, v := range defaultCeilings {
		m[k] = v
	}
	return Policy{ceilings: m}
}

// NewPolicy builds a policy from the defaults with the given per-size
// overrides applied. It fails if an override names an unknown size, sets a
// non-positive ceiling, or breaks the monotonic ordering contract
// (larger size ⇒ larger-or-equal ceiling).
func NewPolicy(overrides map[string]int) (Policy, error) {
	p := DefaultPolicy()

	// Apply overrides in a stable order so error messages are deterministic.
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		size := Size(k)
		if !ValidSize(size) {
			return Policy{}, &InvalidSizeError{Size: k}
		}
		v := overrides[k]
		if v < 1 {
			return Policy{}, fmt.Errorf("sizing: ceiling for size %q must be positive, got %d", k, v)
		}
		p.ceilings[size] = v
	}

	for i := 1; i < len(sizeOrder); i++ {
		smaller, larger := sizeOrder[i-1], sizeOrder[i]
		if p.ceilings[larger] < p.ceilings[smaller] {
			return Policy{}, fmt.Errorf(
				"sizing: ceiling for %q (%d) is below ceiling for %q (%d): ceilings must not decrease with size",
				larger, p.ceilings[larger], smaller, p.ceilings[smaller],
			)
		}
	}

	return p, nil
}

// MaxPoints returns the story-point ceiling for a size.
func (p Policy) MaxPoints(size Size) (int, error) {
	max, ok := p.ceilings[size]
	if !ok {
		return 0, &InvalidSizeError{Size: string(size)}
	}
	return max, nil
}
