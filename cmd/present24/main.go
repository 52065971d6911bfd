// Command present24 encrypts and decrypts with PRESENT24 and runs the
// meet-in-the-middle attack on double PRESENT24.
//
//	present24 encrypt -p f955b9 -k d1bd2d
//	present24 decrypt -c 47a929 -k d1bd2d
//	present24 double  -p d41330 -k1 3d93b5 -k2 3aa01a
//	present24 attack  -p1 d41330 -c1 2f4a58 -p2 9d0af2 -c2 57c9d6 [-workers n]
//
// Every value is hex. Omitted values fall back to the reference vectors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sebastienfdz/PRESENT24-MitM/internal/config"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/logger"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/mitm"
	"github.com/sebastienfdz/PRESENT24-MitM/internal/present24"
)

// Reference pairs for the attack, produced by keys (0x3d93b5, 0x3aa01a).
const (
	defaultPlain1  = 0xd41330
	defaultCipher1 = 0x2f4a58
	defaultPlain2  = 0x9d0af2
	defaultCipher2 = 0x57c9d6

	defaultPlain  = 0xf955b9
	defaultKey    = 0xd1bd2d
	defaultCipher = 0x47a929
)

// hexValue is a flag.Value holding a 24-bit hex number.
type hexValue uint32

func (h *hexValue) String() string { return fmt.Sprintf("%06x", uint32(*h)) }

func (h *hexValue) Set(s string) error {
	b, err := present24.ParseBlock(s)
	if err != nil {
		return err
	}
	*h = hexValue(b)
	return nil
}

func hexFlag(fs *flag.FlagSet, name string, value uint32, usage string) *hexValue {
	h := hexValue(value)
	fs.Var(&h, name, usage)
	return &h
}

// keyValue is a flag.Value holding a 24-bit hex key.
type keyValue present24.Key

func (k *keyValue) String() string { return present24.Key(*k).Hex() }

func (k *keyValue) Set(s string) error {
	key, err := present24.ParseKey(s)
	if err != nil {
		return err
	}
	*k = keyValue(key)
	return nil
}

func keyFlag(fs *flag.FlagSet, name string, value present24.Key, usage string) *keyValue {
	k := keyValue(value)
	fs.Var(&k, name, usage)
	return &k
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %v <encrypt|decrypt|double|attack> [flags]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Run '%v <command> -h' for the flags of a command.\n", os.Args[0])
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cfg := config.Load()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "encrypt", "e":
		err = runEncrypt(args)
	case "decrypt", "d":
		err = runDecrypt(args)
	case "double":
		err = runDouble(args)
	case "attack", "a":
		err = runAttack(cfg, args)
	default:
		usage()
	}
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runEncrypt(args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ContinueOnError)
	plain := hexFlag(fs, "p", defaultPlain, "plaintext to encrypt (hex)")
	key := keyFlag(fs, "k", defaultKey, "key (hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := present24.EncryptKey(present24.Key(*key), present24.Block(*plain))
	fmt.Printf("The plaintext %v has been encrypted with the key %v into: %v.\n",
		present24.Block(*plain), present24.Key(*key), c)
	return nil
}

func runDecrypt(args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ContinueOnError)
	cipher := hexFlag(fs, "c", defaultCipher, "ciphertext to decrypt (hex)")
	key := keyFlag(fs, "k", defaultKey, "key (hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	m := present24.DecryptKey(present24.Key(*key), present24.Block(*cipher))
	fmt.Printf("The ciphertext %v has been decrypted with the key %v into: %v.\n",
		present24.Block(*cipher), present24.Key(*key), m)
	return nil
}

func runDouble(args []string) error {
	fs := flag.NewFlagSet("double", flag.ContinueOnError)
	plain := hexFlag(fs, "p", defaultPlain1, "plaintext to encrypt (hex)")
	k1 := keyFlag(fs, "k1", 0x3d93b5, "first-stage key (hex)")
	k2 := keyFlag(fs, "k2", 0x3aa01a, "second-stage key (hex)")
	decrypt := fs.Bool("d", false, "decrypt -p instead of encrypting it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key1, key2, b := present24.Key(*k1), present24.Key(*k2), present24.Block(*plain)
	if *decrypt {
		fmt.Printf("%v decrypted with (%v, %v): %v\n", b, key1, key2, present24.DoubleDecrypt(key1, key2, b))
		return nil
	}
	fmt.Printf("%v encrypted with (%v, %v): %v\n", b, key1, key2, present24.DoubleEncrypt(key1, key2, b))
	return nil
}

func runAttack(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("attack", flag.ContinueOnError)
	p1 := hexFlag(fs, "p1", defaultPlain1, "first plaintext (hex)")
	c1 := hexFlag(fs, "c1", defaultCipher1, "first ciphertext (hex)")
	p2 := hexFlag(fs, "p2", defaultPlain2, "second plaintext (hex)")
	c2 := hexFlag(fs, "c2", defaultCipher2, "second ciphertext (hex)")
	workers := fs.Int("workers", cfg.Attack.Workers, "goroutines per phase, 1 runs single-threaded")
	verbose := fs.Bool("v", cfg.Debug, "log every phase")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := mitm.Options{Workers: *workers, KeyBits: cfg.Attack.KeyBits}
	if *verbose {
		opts.Logger = logger.New("attack")
		opts.Logger.SetDebug(true)
	}
	attacker, err := mitm.New(opts)
	if err != nil {
		return err
	}

	pair1 := mitm.Pair{Plain: present24.Block(*p1), Cipher: present24.Block(*c1)}
	pair2 := mitm.Pair{Plain: present24.Block(*p2), Cipher: present24.Block(*c2)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Starting MitM attack.")
	start := time.Now()
	res, err := attacker.Attack(ctx, pair1, pair2)
	if err != nil {
		return err
	}

	fmt.Printf("Plain-cipher pairs used for the MitM: (%v, %v) and (%v, %v)\n",
		pair1.Plain, pair1.Cipher, pair2.Plain, pair2.Cipher)
	if len(res.Candidates) == 0 {
		fmt.Println("No candidate keys found.")
	} else {
		fmt.Println("Candidate keys found:")
		for _, c := range res.Candidates {
			fmt.Printf("- %v\n", c)
		}
	}
	fmt.Printf("\nTotal Meet-in-the-Middle attack time: %.1fs (%d raw collisions)\n",
		time.Since(start).Seconds(), res.Collisions)
	return nil
}
