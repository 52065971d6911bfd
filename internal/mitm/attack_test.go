package mitm

import (
	"context"
	"errors"
	"testing"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

// Keys below 2^12 so the attack can run on a 12-bit key space.
const (
	smallKey1 present24.Key = 0x0a5
	smallKey2 present24.Key = 0xf3c
)

var smallPairs = []Pair{
	{Plain: 0x123456, Cipher: 0xab3d84},
	{Plain: 0xabcdef, Cipher: 0xe1fdc4},
}

func newAttacker(t *testing.T, opts Options) *Attacker {
	t.Helper()
	a, err := New(opts)
	if err != nil {
		t.Fatalf("New(%+v): %v", opts, err)
	}
	return a
}

func TestSmallPairsAreConsistent(t *testing.T) {
	for _, p := range smallPairs {
		if got := present24.DoubleEncrypt(smallKey1, smallKey2, p.Plain); got != p.Cipher {
			t.Fatalf("DoubleEncrypt(%v) = %v, want %v", p.Plain, got, p.Cipher)
		}
	}
	if !Verify(Candidate{smallKey1, smallKey2}, smallPairs...) {
		t.Fatal("Verify rejected the true keys")
	}
	if Verify(Candidate{smallKey2, smallKey1}, smallPairs...) {
		t.Fatal("Verify accepted swapped keys")
	}
}

func TestAttackRecoversKeys(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		a := newAttacker(t, Options{Workers: workers, KeyBits: 12})
		res, err := a.Attack(context.Background(), smallPairs...)
		if err != nil {
			t.Fatalf("workers=%d: Attack: %v", workers, err)
		}
		want := Candidate{Key1: smallKey1, Key2: smallKey2}
		if len(res.Candidates) != 1 || res.Candidates[0] != want {
			t.Errorf("workers=%d: candidates = %v, want [%v]", workers, res.Candidates, want)
		}
		if res.Collisions != 2 {
			t.Errorf("workers=%d: collisions = %d, want 2", workers, res.Collisions)
		}
	}
}

func TestAttackNoCandidates(t *testing.T) {
	unrelated := Pair{Plain: 0xabcdef, Cipher: present24.DoubleEncrypt(0x111, 0x222, 0xabcdef)}
	a := newAttacker(t, Options{Workers: 4, KeyBits: 12})
	res, err := a.Attack(context.Background(), smallPairs[0], unrelated)
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if res.Candidates == nil || len(res.Candidates) != 0 {
		t.Errorf("candidates = %#v, want empty non-nil list", res.Candidates)
	}
	if res.Collisions != 2 {
		t.Errorf("collisions = %d, want 2", res.Collisions)
	}
}

func TestAttackExtraPairs(t *testing.T) {
	third := Pair{Plain: 0x000001, Cipher: 0xbfd980}
	a := newAttacker(t, Options{Workers: 2, KeyBits: 12})
	res, err := a.Attack(context.Background(), smallPairs[0], smallPairs[1], third)
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0] != (Candidate{smallKey1, smallKey2}) {
		t.Errorf("candidates = %v", res.Candidates)
	}

	third.Cipher ^= 1
	res, err = a.Attack(context.Background(), smallPairs[0], smallPairs[1], third)
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("candidates = %v, want none with a corrupted third pair", res.Candidates)
	}
}

func TestAttackErrors(t *testing.T) {
	a := newAttacker(t, Options{KeyBits: 8})
	ctx := context.Background()

	if _, err := a.Attack(ctx, smallPairs[0]); !errors.Is(err, ErrTooFewPairs) {
		t.Errorf("one pair: err = %v, want ErrTooFewPairs", err)
	}
	bad := Pair{Plain: 1 << 24, Cipher: 0}
	if _, err := a.Attack(ctx, smallPairs[0], bad); !errors.Is(err, present24.ErrOutOfRange) {
		t.Errorf("wide plaintext: err = %v, want ErrOutOfRange", err)
	}
	if _, _, err := a.Tables(ctx, Pair{Plain: 0, Cipher: 1 << 30}); !errors.Is(err, present24.ErrOutOfRange) {
		t.Errorf("Tables with wide ciphertext: err = %v, want ErrOutOfRange", err)
	}
	for _, bits := range []int{-1, 25} {
		if _, err := New(Options{KeyBits: bits}); !errors.Is(err, ErrKeyBits) {
			t.Errorf("New(KeyBits=%d): err = %v, want ErrKeyBits", bits, err)
		}
	}
}

func TestAttackCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := newAttacker(t, Options{Workers: 4, KeyBits: 16})
	if _, err := a.Attack(ctx, smallPairs...); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestAttackCancelledBetweenPhases(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var phases []Phase
	a := newAttacker(t, Options{Workers: 2, KeyBits: 12}).WithProgress(func(ev Event) {
		phases = append(phases, ev.Phase)
		cancel()
	})
	if _, err := a.Attack(ctx, smallPairs...); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(phases) != 1 || phases[0] != PhaseGenerate {
		t.Errorf("phases = %v, want [generate]", phases)
	}
}

func TestAttackProgress(t *testing.T) {
	var events []Event
	a := newAttacker(t, Options{Workers: 2, KeyBits: 12, Progress: func(ev Event) {
		events = append(events, ev)
	}})
	if _, err := a.Attack(context.Background(), smallPairs...); err != nil {
		t.Fatalf("Attack: %v", err)
	}
	want := []Phase{PhaseGenerate, PhaseSort, PhaseSearch}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, ev := range events {
		if ev.Phase != want[i] {
			t.Errorf("event %d phase = %v, want %v", i, ev.Phase, want[i])
		}
		if ev.Entries != 1<<12 {
			t.Errorf("event %d entries = %d, want %d", i, ev.Entries, 1<<12)
		}
	}
	if last := events[2]; last.Collisions != 2 || last.Candidates != 1 {
		t.Errorf("search event = %+v", last)
	}
}

func TestTables(t *testing.T) {
	p := smallPairs[0]
	a := newAttacker(t, Options{Workers: 3, KeyBits: 10})
	fwd, bwd, err := a.Tables(context.Background(), p)
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if fwd.Len() != 1<<10 || bwd.Len() != 1<<10 {
		t.Fatalf("table sizes = %d, %d, want %d", fwd.Len(), bwd.Len(), 1<<10)
	}
	for i := 0; i < fwd.Len(); i++ {
		k := present24.Key(i)
		if v, key := fwd.At(i); key != k || v != present24.EncryptKey(k, p.Plain) {
			t.Fatalf("fwd[%d] = (%v, %v)", i, v, key)
		}
		if v, key := bwd.At(i); key != k || v != present24.DecryptKey(k, p.Cipher) {
			t.Fatalf("bwd[%d] = (%v, %v)", i, v, key)
		}
	}

	fwd.Sort()
	if !fwd.Sorted() {
		t.Fatal("fwd not sorted after Sort")
	}
	for i := 1; i < fwd.Len(); i++ {
		prev, _ := fwd.At(i - 1)
		cur, _ := fwd.At(i)
		if prev > cur {
			t.Fatalf("fwd values out of order at %d: %v > %v", i, prev, cur)
		}
	}
}

func TestTablesFullKeySpace(t *testing.T) {
	if testing.Short() {
		t.Skip("builds two 2^24-entry tables")
	}
	a := newAttacker(t, Options{})
	fwd, bwd, err := a.Tables(context.Background(), Pair{Plain: 0xd41330, Cipher: 0x2f4a58})
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if fwd.Len() != 1<<24 || bwd.Len() != 1<<24 {
		t.Errorf("table sizes = %d, %d, want %d", fwd.Len(), bwd.Len(), 1<<24)
	}
}

func TestAttackFullKeySpace(t *testing.T) {
	if testing.Short() {
		t.Skip("full 2^24 meet-in-the-middle attack")
	}
	candidates, err := Attack(context.Background(), 0xd41330, 0x2f4a58, 0x9d0af2, 0x57c9d6)
	if err != nil {
		t.Fatalf("Attack: %v", err)
	}
	want := Candidate{Key1: 0x3d93b5, Key2: 0x3aa01a}
	found := false
	for _, c := range candidates {
		if c == want {
			found = true
		}
		if !Verify(c, Pair{0xd41330, 0x2f4a58}, Pair{0x9d0af2, 0x57c9d6}) {
			t.Errorf("candidate %v does not verify", c)
		}
	}
	if !found {
		t.Errorf("candidates %v do not include %v", candidates, want)
	}
}
