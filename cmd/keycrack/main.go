// Usage example:
// 		go run ./cmd/generator 999 013456 7890AB | go run ./cmd/keycrack
//
// This will pipe the generated pairs to the keycracker, which will then output
// every key pair consistent with all of them:
//		{
//		    "candidates": [
//		        {
//		            "key_1": "013456",
//		            "key_2": "7890ab"
//		        }
//		    ]
//		}
//
// The first pair drives the meet-in-the-middle search and the others weed out
// false matches. An empty list means no key pair fits the input.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/config"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/logger"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/mitm"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/pairs"
)

// One recovered key pair, hex-encoded.
type answer struct {
	Key1 string `json:"key_1"`
	Key2 string `json:"key_2"`
}

type answers struct {
	Candidates []answer `json:"candidates"`
}

func main() {
	cfg := config.Load()
	log := logger.New("keycrack")
	log.SetDebug(cfg.Debug)

	// Parse the ciphertext/plaintext pairs from stdin.
	texts, err := pairs.Parse(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(texts) < 2 {
		fmt.Fprintf(os.Stderr, "need at least two plaintext/ciphertext pairs\n")
		os.Exit(1)
	}

	attacker, err := mitm.New(mitm.Options{
		Workers: cfg.Attack.Workers,
		KeyBits: cfg.Attack.KeyBits,
		Logger:  log,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := attacker.Attack(ctx, texts...)
	if err != nil {
		log.Error("attack failed", err)
		os.Exit(1)
	}

	candidates := verified(res.Candidates, texts)
	if len(candidates) == 0 {
		log.Warn("no candidate keys found", "collisions", res.Collisions)
	}

	if err := printAnswer(os.Stdout, candidates); err != nil {
		fmt.Fprintf(os.Stderr, "could not write answer: %v\n", err)
		os.Exit(1)
	}
}

// verified re-checks every candidate against all of the input pairs with a
// plain double encryption.
func verified(candidates []mitm.Candidate, texts []mitm.Pair) []mitm.Candidate {
	out := make([]mitm.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if mitm.Verify(c, texts...) {
			out = append(out, c)
		}
	}
	return out
}

func printAnswer(w io.Writer, candidates []mitm.Candidate) error {
	out := answers{Candidates: make([]answer, len(candidates))}
	for i, c := range candidates {
		out.Candidates[i] = answer{Key1: c.Key1.Hex(), Key2: c.Key2.Hex()}
	}

	answerString, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(answerString))
	return err
}
