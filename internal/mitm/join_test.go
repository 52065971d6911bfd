package mitm

import (
	"testing"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

func entries(pairs ...[2]uint32) []uint64 {
	out := make([]uint64, len(pairs))
	for i, p := range pairs {
		out[i] = pack(present24.Block(p[0]), present24.Key(p[1]))
	}
	return out
}

func TestJoinCrossProduct(t *testing.T) {
	fwd := entries([2]uint32{1, 10}, [2]uint32{3, 11}, [2]uint32{3, 12}, [2]uint32{5, 13}, [2]uint32{7, 14})
	bwd := entries([2]uint32{3, 20}, [2]uint32{3, 21}, [2]uint32{3, 22}, [2]uint32{5, 23}, [2]uint32{6, 24})

	var got []Candidate
	n, done := join(fwd, bwd, func(k1, k2 present24.Key) bool {
		got = append(got, Candidate{Key1: k1, Key2: k2})
		return true
	})
	if !done {
		t.Fatal("join did not complete")
	}

	want := []Candidate{
		{11, 20}, {11, 21}, {11, 22},
		{12, 20}, {12, 21}, {12, 22},
		{13, 23},
	}
	if n != len(want) || len(got) != len(want) {
		t.Fatalf("join matched %d pairs (%v), want %d", n, got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("match %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestJoinNoOverlap(t *testing.T) {
	fwd := entries([2]uint32{1, 1}, [2]uint32{2, 2})
	bwd := entries([2]uint32{3, 3}, [2]uint32{4, 4})
	n, done := join(fwd, bwd, func(k1, k2 present24.Key) bool {
		t.Errorf("unexpected match (%v, %v)", k1, k2)
		return true
	})
	if n != 0 || !done {
		t.Errorf("join = (%d, %t), want (0, true)", n, done)
	}
	if n, _ := join(nil, bwd, nil); n != 0 {
		t.Errorf("join with empty table matched %d", n)
	}
}

func TestJoinStopsEarly(t *testing.T) {
	fwd := entries([2]uint32{9, 1}, [2]uint32{9, 2})
	bwd := entries([2]uint32{9, 3}, [2]uint32{9, 4})
	calls := 0
	_, done := join(fwd, bwd, func(k1, k2 present24.Key) bool {
		calls++
		return calls < 2
	})
	if done || calls != 2 {
		t.Errorf("join done=%t after %d calls, want stop after 2", done, calls)
	}
}

func TestValueRange(t *testing.T) {
	es := entries([2]uint32{0, 5}, [2]uint32{4, 1}, [2]uint32{4, 2}, [2]uint32{8, 0}, [2]uint32{present24.Mask, 7})
	tests := []struct {
		lo, hi uint64
		want   int
	}{
		{0, 4, 1},
		{4, 5, 2},
		{0, 1 << 24, 5},
		{5, 8, 0},
		{8, 1 << 24, 2},
	}
	for _, tt := range tests {
		if got := valueRange(es, tt.lo, tt.hi); len(got) != tt.want {
			t.Errorf("valueRange(%d, %d) has %d entries, want %d", tt.lo, tt.hi, len(got), tt.want)
		}
	}
}
