// Package present24 implements PRESENT24, a 24-bit toy reduction of the
// PRESENT block cipher, along with its two-key (double) composition.
//
// Blocks and keys are 24-bit values carried in a uint32. Values coming from
// outside the program should go through NewBlock, NewKey, ParseBlock or
// ParseKey, which reject anything wider than 24 bits. The cipher primitives
// themselves assume their inputs are in range and never mask.
package present24

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// BlockBits is the width of a block and of a master key.
	BlockBits = 24

	// Mask keeps the low 24 bits of a value.
	Mask = 1<<BlockBits - 1

	// BlockSize is the block size in bytes.
	BlockSize = 3

	// KeySize is the master key size in bytes.
	KeySize = 3
)

// ErrOutOfRange is returned when a value does not fit in 24 bits.
var ErrOutOfRange = errors.New("present24: value out of 24-bit range")

// Block is a 24-bit plaintext, ciphertext or intermediate state.
type Block uint32

// Key is a 24-bit master key.
type Key uint32

// NewBlock returns v as a Block, or an error wrapping ErrOutOfRange.
func NewBlock(v uint64) (Block, error) {
	if v > Mask {
		return 0, fmt.Errorf("%w: block %#x", ErrOutOfRange, v)
	}
	return Block(v), nil
}

// NewKey returns v as a Key, or an error wrapping ErrOutOfRange.
func NewKey(v uint64) (Key, error) {
	if v > Mask {
		return 0, fmt.Errorf("%w: key %#x", ErrOutOfRange, v)
	}
	return Key(v), nil
}

// ParseBlock parses a hex string, with or without a 0x prefix.
func ParseBlock(s string) (Block, error) {
	v, err := parseHex(s)
	if err != nil {
		return 0, err
	}
	return NewBlock(v)
}

// ParseKey parses a hex string, with or without a 0x prefix.
func ParseKey(s string) (Key, error) {
	v, err := parseHex(s)
	if err != nil {
		return 0, err
	}
	return NewKey(v)
}

func parseHex(s string) (uint64, error) {
	t := strings.TrimSpace(s)
	t = strings.TrimPrefix(strings.TrimPrefix(t, "0x"), "0X")
	if t == "" {
		return 0, fmt.Errorf("present24: empty hex value %q", s)
	}
	v, err := strconv.ParseUint(t, 16, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("%w: %q", ErrOutOfRange, s)
		}
		return 0, fmt.Errorf("present24: could not parse %q as hex: %w", s, err)
	}
	return v, nil
}

// Check reports an error if b has bits set above bit 23.
func (b Block) Check() error {
	if b > Mask {
		return fmt.Errorf("%w: block %#x", ErrOutOfRange, uint32(b))
	}
	return nil
}

// Check reports an error if k has bits set above bit 23.
func (k Key) Check() error {
	if k > Mask {
		return fmt.Errorf("%w: key %#x", ErrOutOfRange, uint32(k))
	}
	return nil
}

func (b Block) String() string { return fmt.Sprintf("0x%06x", uint32(b)) }

func (k Key) String() string { return fmt.Sprintf("0x%06x", uint32(k)) }

// Hex returns the block as six lowercase hex digits without a prefix.
func (b Block) Hex() string { return fmt.Sprintf("%06x", uint32(b)) }

// Hex returns the key as six lowercase hex digits without a prefix.
func (k Key) Hex() string { return fmt.Sprintf("%06x", uint32(k)) }
