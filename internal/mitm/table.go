package mitm

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

const (
	keyMask = present24.Mask

	// Workers look at ctx every cancelStride keys.
	cancelStride = 1 << 14
)

// Table is a dense list of (intermediate value, key) entries. Each entry is
// packed into one word as value<<24 | key, so sorting the words orders the
// table by intermediate value.
type Table struct {
	entries []uint64
}

func newTable(n int) *Table {
	return &Table{entries: make([]uint64, n)}
}

func pack(v present24.Block, k present24.Key) uint64 {
	return uint64(v)<<present24.BlockBits | uint64(k)
}

func entryValue(e uint64) present24.Block { return present24.Block(e >> present24.BlockBits) }

func entryKey(e uint64) present24.Key { return present24.Key(e & keyMask) }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// At returns the intermediate value and key of entry i.
func (t *Table) At(i int) (present24.Block, present24.Key) {
	e := t.entries[i]
	return entryValue(e), entryKey(e)
}

// Sort orders the table by intermediate value, then key.
func (t *Table) Sort() { slices.Sort(t.entries) }

// Sorted reports whether the table is in Sort order.
func (t *Table) Sorted() bool { return slices.IsSorted(t.entries) }

// buildTables encrypts p.Plain and decrypts p.Cipher under every key in
// [0, size). Entry k of each table belongs to key k, so workers own disjoint
// ranges of both tables and never share a slot.
func buildTables(ctx context.Context, p Pair, size, workers int) (fwd, bwd *Table, err error) {
	fwd, bwd = newTable(size), newTable(size)

	g, ctx := errgroup.WithContext(ctx)
	chunk := (size + workers - 1) / workers
	for lo := 0; lo < size; lo += chunk {
		hi := min(lo+chunk, size)
		g.Go(func() error {
			for k := lo; k < hi; k++ {
				if (k-lo)%cancelStride == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				key := present24.Key(k)
				rk := present24.Schedule(key)
				fwd.entries[k] = pack(present24.Encrypt(&rk, p.Plain), key)
				bwd.entries[k] = pack(present24.Decrypt(&rk, p.Cipher), key)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return fwd, bwd, nil
}

// sortTables sorts both tables concurrently.
func sortTables(ctx context.Context, tables ...*Table) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t.Sort()
			return nil
		})
	}
	return g.Wait()
}
