package sizing_test

import (
	"errors"
	"testing"

	"github.com/taskdeck/taskdeck/internal/sizing"
)

// ─── Size enum ──────────────────────────────────────────────────────────────

func TestValidSize(t *testing.T) {
	for _, s := range []sizing.Size{sizing.SizeXS, sizing.SizeS, sizing.SizeM, sizing.SizeL, sizing.SizeXL} {
		if !sizing.ValidSize(s) {
			t.Errorf("ValidSize(%q) = false, want true", s)
		}
	}
	for _, s := range []sizing.Size{"", "xxl", "medium", "M"} {
		if sizing.ValidSize(s) {
			t.Errorf("ValidSize(%q) = true, want false", s)
		}
	}
}

func TestRank_Ordering(t *testing.T) {
	order := []sizing.Size{sizing.SizeXS, sizing.SizeS, sizing.SizeM, sizing.SizeL, sizing.SizeXL}
	for i, s := range order {
		if got := sizing.Rank(s); got != i {
			t.Errorf("Rank(%q) = %d, want %d", s, got, i)
		}
	}
	if got := sizing.Rank("huge"); got != -1 {
		t.Errorf("Rank of unknown size = %d, want -1", got)
	}
}

// ─── Fibonacci set ──────────────────────────────────────────────────────────

func TestIsFibonacci(t *testing.T) {
	for _, p := range sizing.FibonacciPoints() {
		if !sizing.IsFibonacci(p) {
			t.Errorf("IsFibonacci(%d) = false, want true", p)
		}
	}
	for _, p := range []int{0, 4, 6, 7, 9, 10, 12, 14, 100, -3} {
		if sizing.IsFibonacci(p) {
			t.Errorf("IsFibonacci(%d) = true, want false", p)
		}
	}
}

// ─── Policy ─────────────────────────────────────────────────────────────────

func TestDefaultPolicy_Ceilings(t *testing.T) {
	p := sizing.DefaultPolicy()
	want := map[sizing.Size]int{
		sizing.SizeXS: 2,
		sizing.SizeS:  3,
		sizing.SizeM:  5,
		sizing.SizeL:  8,
		sizing.SizeXL: 13,
	}
	for size, max := range want {
		got, err := p.MaxPoints(size)
		if err != nil {
			t.Fatalf("MaxPoints(%q) error: %v", size, err)
		}
		if got != max {
			t.Errorf("MaxPoints(%q) = %d, want %d", size, got, max)
		}
	}
}

func TestMaxPoints_UnknownSize(t *testing.T) {
	p := sizing.DefaultPolicy()
	_, err := p.MaxPoints("xxl")
	var invalid *sizing.InvalidSizeError
	if !errors.As(err, &invalid) {
		t.Fatalf("MaxPoints of unknown size: got %v, want InvalidSizeError", err)
	}
}

func TestNewPolicy_Overrides(t *testing.T) {
	p, err := sizing.NewPolicy(map[string]int{"s": 5, "m": 5})
	if err != nil {
		t.Fatalf("NewPolicy error: %v", err)
	}
	if got, _ := p.MaxPoints(sizing.SizeS); got != 5 {
		t.Errorf("overridden MaxPoints(s) = %d, want 5", got)
	}
	// Unoverridden sizes keep their defaults.
	if got, _ := p.MaxPoints(sizing.SizeXL); got != 13 {
		t.Errorf("MaxPoints(xl) = %d, want 13", got)
	}
}

func TestNewPolicy_RejectsUnknownSize(t *testing.T) {
	_, err := sizing.NewPolicy(map[string]int{"huge": 20})
	var invalid *sizing.InvalidSizeError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidSizeError", err)
	}
}

func TestNewPolicy_RejectsNonPositiveCeiling(t *testing.T) {
	if _, err := sizing.NewPolicy(map[string]int{"m": 0}); err == nil {
		t.Fatal("expected error for zero ceiling")
	}
}

func TestNewPolicy_RejectsNonMonotonicCeilings(t *testing.T) {
	// s raised above m's default breaks larger-size ⇒ larger-or-equal-ceiling.
	if _, err := sizing.NewPolicy(map[string]int{"s": 8}); err == nil {
		t.Fatal("expected error for non-monotonic ceilings")
	}
	// Raising the whole tail keeps the ordering and must pass.
	if _, err := sizing.NewPolicy(map[string]int{"s": 8, "m": 8, "l": 13, "xl": 21}); err != nil {
		t.Fatalf("monotonic override rejected: %v", err)
	}
}
