// Usage example:
// 		go run ./cmd/generator 999 013456 7890AB
//
// This will generate 999 hex-encoded plaintext/ciphertext pairs in the form of:
//		<hex encoded plaintext> <hex encoded ciphertext>
//
// where each ciphertext is the plaintext double-encrypted with PRESENT24 under
// k1 then k2. An optional fourth argument seeds the plaintext generator;
// otherwise PRESENT24_SEED is used.

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/config"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/pairs"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %v <num> <k1> <k2> [seed]\n", os.Args[0])
	os.Exit(1)
}

func main() {
	if len(os.Args) != 4 && len(os.Args) != 5 {
		usage()
	}
	cfg := config.Load()

	n, err := strconv.Atoi(os.Args[1])
	if err != nil || n < 0 || n > 1<<present24.BlockBits {
		fmt.Fprintf(os.Stderr, "could not parse n: must be between 0 and 2^24\n")
		os.Exit(1)
	}

	k1, err := parseKey(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not parse k1: %v\n", err)
		os.Exit(1)
	}
	k2, err := parseKey(os.Args[3])
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not parse k2: %v\n", err)
		os.Exit(1)
	}

	seed := cfg.Generator.Seed
	if len(os.Args) == 5 {
		seed, err = strconv.ParseInt(os.Args[4], 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not parse seed: %v\n", err)
			os.Exit(1)
		}
	}

	gen := pairs.NewGenerator(k1, k2, seed)
	if err := pairs.Write(os.Stdout, gen.Generate(n)); err != nil {
		fmt.Fprintf(os.Stderr, "could not write pairs: %v\n", err)
		os.Exit(1)
	}
}

// parseKey decodes a 24-bit key given as exactly three hex-encoded bytes.
func parseKey(s string) (present24.Key, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not hex: %w", s, err)
	}
	if len(b) != present24.KeySize {
		return 0, fmt.Errorf("key must be 24 bits (3 bytes)")
	}
	return present24.Key(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])), nil
}
