// Package mitm recovers the two keys of double PRESENT24 encryption with a
// meet-in-the-middle attack.
//
// For every key k the attack encrypts a known plaintext and decrypts its known
// ciphertext, giving two tables of 2^24 intermediate values. The true
// (key1, key2) must produce the same intermediate value in both tables, so the
// tables are sorted and merge-joined, and every match is checked against the
// remaining known pairs. This costs about 2^25 encryptions instead of the 2^48
// needed to try every key pair.
package mitm

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/logger"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

var (
	// ErrTooFewPairs is returned when an attack gets fewer than two pairs.
	ErrTooFewPairs = errors.New("mitm: at least two plaintext/ciphertext pairs are required")
	// ErrKeyBits is returned by New for a KeyBits outside [1, 24].
	ErrKeyBits = errors.New("mitm: key space must be between 1 and 24 bits")
)

// Pair is a known plaintext and its double-encrypted ciphertext.
type Pair struct {
	Plain  present24.Block
	Cipher present24.Block
}

func (p Pair) check() error {
	if err := p.Plain.Check(); err != nil {
		return fmt.Errorf("plaintext: %w", err)
	}
	if err := p.Cipher.Check(); err != nil {
		return fmt.Errorf("ciphertext: %w", err)
	}
	return nil
}

// Candidate is a (key1, key2) guess consistent with every known pair.
type Candidate struct {
	Key1 present24.Key
	Key2 present24.Key
}

func (c Candidate) String() string {
	return fmt.Sprintf("(%v, %v)", c.Key1, c.Key2)
}

// Phase identifies one stage of the attack. Stages run strictly one after
// the other.
type Phase int

const (
	PhaseGenerate Phase = iota
	PhaseSort
	PhaseSearch
)

func (p Phase) String() string {
	switch p {
	case PhaseGenerate:
		return "generate"
	case PhaseSort:
		return "sort"
	case PhaseSearch:
		return "search"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Event is reported when a phase completes.
type Event struct {
	Phase   Phase
	Elapsed time.Duration
	Entries int

	// Set for PhaseSearch only.
	Collisions int
	Candidates int
}

// Options configures an Attacker.
type Options struct {
	// Workers is the number of goroutines per phase. Zero means runtime.NumCPU().
	Workers int

	// KeyBits limits the key space searched to [0, 2^KeyBits). Zero means 24.
	KeyBits int

	// Progress, if set, is called from the goroutine running Attack after each phase.
	Progress func(Event)

	// Logger receives phase timings. Nil disables logging.
	Logger *logger.Logger
}

// Result holds the outcome of an attack. An empty Candidates list is a
// normal outcome and more than one candidate means the known pairs did not
// pin down a single key pair.
type Result struct {
	Candidates []Candidate
	// Collisions is the number of intermediate matches before verification.
	Collisions int
	Elapsed    time.Duration
}

// Attacker runs meet-in-the-middle attacks with a fixed set of options. It is
// safe for concurrent use.
type Attacker struct {
	opts Options
}

// New returns an Attacker, filling in defaults for zero options.
func New(opts Options) (*Attacker, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.KeyBits == 0 {
		opts.KeyBits = present24.BlockBits
	}
	if opts.KeyBits < 1 || opts.KeyBits > present24.BlockBits {
		return nil, fmt.Errorf("%w: got %d", ErrKeyBits, opts.KeyBits)
	}
	return &Attacker{opts: opts}, nil
}

// KeySpace returns the number of keys tried per table.
func (a *Attacker) KeySpace() int { return 1 << a.opts.KeyBits }

// WithProgress returns a copy of a reporting to fn.
func (a *Attacker) WithProgress(fn func(Event)) *Attacker {
	c := *a
	c.opts.Progress = fn
	return &c
}

// Tables builds the unsorted forward and backward tables for p.
func (a *Attacker) Tables(ctx context.Context, p Pair) (fwd, bwd *Table, err error) {
	if err := p.check(); err != nil {
		return nil, nil, err
	}
	return buildTables(ctx, p, a.KeySpace(), a.opts.Workers)
}

// Attack searches for every key pair consistent with all of pairs. The first
// pair builds the tables and the rest filter the matches, so at least two
// pairs are needed. A cancelled ctx stops the attack at the next check and
// its error is returned.
func (a *Attacker) Attack(ctx context.Context, pairs ...Pair) (*Result, error) {
	if len(pairs) < 2 {
		return nil, ErrTooFewPairs
	}
	for i, p := range pairs {
		if err := p.check(); err != nil {
			return nil, fmt.Errorf("mitm: pair %d %w", i+1, err)
		}
	}

	start := time.Now()
	size := a.KeySpace()

	phase := time.Now()
	fwd, bwd, err := buildTables(ctx, pairs[0], size, a.opts.Workers)
	if err != nil {
		return nil, err
	}
	a.report(Event{Phase: PhaseGenerate, Elapsed: time.Since(phase), Entries: size})

	phase = time.Now()
	if err := sortTables(ctx, fwd, bwd); err != nil {
		return nil, err
	}
	a.report(Event{Phase: PhaseSort, Elapsed: time.Since(phase), Entries: size})

	phase = time.Now()
	candidates, collisions, err := a.search(ctx, fwd, bwd, pairs[1:])
	if err != nil {
		return nil, err
	}
	a.report(Event{
		Phase:      PhaseSearch,
		Elapsed:    time.Since(phase),
		Entries:    size,
		Collisions: collisions,
		Candidates: len(candidates),
	})

	return &Result{
		Candidates: candidates,
		Collisions: collisions,
		Elapsed:    time.Since(start),
	}, nil
}

func (a *Attacker) report(ev Event) {
	a.opts.Logger.Info(fmt.Sprintf("%s done in %v", ev.Phase, ev.Elapsed.Round(time.Millisecond)),
		"entries", ev.Entries, "collisions", ev.Collisions, "candidates", ev.Candidates)
	if a.opts.Progress != nil {
		a.opts.Progress(ev)
	}
}

// search splits the 24-bit value space into one slice per worker and joins
// each slice independently. Results come back in ascending intermediate
// value order.
func (a *Attacker) search(ctx context.Context, fwd, bwd *Table, checks []Pair) ([]Candidate, int, error) {
	parts := a.opts.Workers
	found := make([][]Candidate, parts)
	counts := make([]int, parts)
	span := (uint64(1)<<present24.BlockBits + uint64(parts) - 1) / uint64(parts)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < parts; w++ {
		lo := uint64(w) * span
		hi := min(lo+span, uint64(1)<<present24.BlockBits)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			v := verifier{pairs: checks}
			seen := 0
			f, b := valueRange(fwd.entries, lo, hi), valueRange(bwd.entries, lo, hi)
			a.opts.Logger.Debug("joining value range", fmt.Sprintf("[%#x,%#x)", lo, hi), len(f), len(b))
			n, done := join(f, b, func(k1, k2 present24.Key) bool {
				seen++
				if seen%cancelStride == 0 && ctx.Err() != nil {
					return false
				}
				if v.check(k1, k2) {
					found[w] = append(found[w], Candidate{Key1: k1, Key2: k2})
				}
				return true
			})
			if !done {
				return ctx.Err()
			}
			counts[w] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	candidates := []Candidate{}
	collisions := 0
	for w := range found {
		candidates = append(candidates, found[w]...)
		collisions += counts[w]
	}
	return candidates, collisions, nil
}

// verifier checks candidates against the extra known pairs, reusing the
// round keys of key1 across a run of matches that share it.
type verifier struct {
	pairs  []Pair
	k1     present24.Key
	rk1    present24.RoundKeys
	primed bool
}

func (v *verifier) check(k1, k2 present24.Key) bool {
	if !v.primed || k1 != v.k1 {
		v.k1, v.rk1, v.primed = k1, present24.Schedule(k1), true
	}
	rk2 := present24.Schedule(k2)
	for _, p := range v.pairs {
		if present24.Encrypt(&rk2, present24.Encrypt(&v.rk1, p.Plain)) != p.Cipher {
			return false
		}
	}
	return true
}

// Verify reports whether c double-encrypts every pair's plaintext to its ciphertext.
func Verify(c Candidate, pairs ...Pair) bool {
	for _, p := range pairs {
		if present24.DoubleEncrypt(c.Key1, c.Key2, p.Plain) != p.Cipher {
			return false
		}
	}
	return true
}

// Attack runs the full 2^24 meet-in-the-middle search on all CPUs for the key
// pairs that double-encrypt plain1 to cipher1 and plain2 to cipher2.
func Attack(ctx context.Context, plain1, cipher1, plain2, cipher2 present24.Block) ([]Candidate, error) {
	a, err := New(Options{})
	if err != nil {
		return nil, err
	}
	res, err := a.Attack(ctx, Pair{Plain: plain1, Cipher: cipher1}, Pair{Plain: plain2, Cipher: cipher2})
	if err != nil {
		return nil, err
	}
	return res.Candidates, nil
}
