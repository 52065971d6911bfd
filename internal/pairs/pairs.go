// Package pairs reads, writes and generates known plaintext/ciphertext pairs.
//
// Each line holds two hex-encoded three-byte sequences: the plaintext and its
// double-encrypted ciphertext, e.g.
//
//	d41330 2f4a58
//
// Blank lines are skipped.
package pairs

import (
	"bufio"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	mtwist "blitter.com/go/mtwist"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/mitm"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

// ErrSyntax is returned by Parse for a line that is not a pair.
var ErrSyntax = errors.New("pairs: invalid syntax: expected lines of the form <plaintext> <ciphertext>")

// Parse reads pairs from r.
func Parse(r io.Reader) ([]mitm.Pair, error) {
	var pairs []mitm.Pair
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		parts := strings.Fields(s.Text())
		if len(parts) == 0 {
			// skip empty lines
			continue
		}
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: %w", line, ErrSyntax)
		}
		plain, err := decodeBlock(parts[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: could not parse plaintext: %w", line, err)
		}
		cipher, err := decodeBlock(parts[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: could not parse ciphertext: %w", line, err)
		}
		pairs = append(pairs, mitm.Pair{Plain: plain, Cipher: cipher})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("pairs: could not read input: %w", err)
	}
	return pairs, nil
}

func decodeBlock(s string) (present24.Block, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return 0, err
	}
	if len(b) != present24.BlockSize {
		return 0, fmt.Errorf("%q must be %d bytes", s, present24.BlockSize)
	}
	return present24.Block(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])), nil
}

// Write writes pairs to w in the format read by Parse.
func Write(w io.Writer, pairs []mitm.Pair) error {
	bw := bufio.NewWriter(w)
	for _, p := range pairs {
		if _, err := fmt.Fprintf(bw, "%s %s\n", p.Plain.Hex(), p.Cipher.Hex()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Generator produces random plaintexts double-encrypted under a fixed key pair.
type Generator struct {
	stage1, stage2 cipher.Block
	buf            [present24.BlockSize]byte
	src            *mtwist.MT19937_64
}

// NewGenerator returns a Generator for (k1, k2) whose plaintexts come from a
// Mersenne Twister seeded with seed, so the same seed gives the same pairs.
func NewGenerator(k1, k2 present24.Key, seed int64) *Generator {
	g := &Generator{
		stage1: mustCipher(k1),
		stage2: mustCipher(k2),
		src:    mtwist.New(),
	}
	g.src.Seed(seed)
	return g
}

func mustCipher(k present24.Key) cipher.Block {
	b, err := present24.NewCipher([]byte{byte(k >> 16), byte(k >> 8), byte(k)})
	if err != nil {
		panic(err)
	}
	return b
}

// Next returns one new pair.
func (g *Generator) Next() mitm.Pair {
	m := present24.Block(uint64(g.src.Int63()) & present24.Mask)
	g.buf = [present24.BlockSize]byte{byte(m >> 16), byte(m >> 8), byte(m)}
	g.stage1.Encrypt(g.buf[:], g.buf[:])
	g.stage2.Encrypt(g.buf[:], g.buf[:])
	c := present24.Block(uint32(g.buf[0])<<16 | uint32(g.buf[1])<<8 | uint32(g.buf[2]))
	return mitm.Pair{Plain: m, Cipher: c}
}

// Generate returns n pairs with distinct plaintexts. n must not exceed 2^24.
func (g *Generator) Generate(n int) []mitm.Pair {
	out := make([]mitm.Pair, 0, n)
	seen := make(map[present24.Block]bool, n)
	for len(out) < n {
		p := g.Next()
		if seen[p.Plain] {
			continue
		}
		seen[p.Plain] = true
		out = append(out, p)
	}
	return out
}
