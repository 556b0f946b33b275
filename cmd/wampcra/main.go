// wampcra provisions WAMP-CRA credentials offline.
//
// Usage:
//
//	wampcra secret [-length 14]
//	wampcra derive -secret S -salt X [-iterations 1000] [-keylen 32]
//	wampcra sign -key K -challenge C
//
// secret prints a new random secret. derive prints the salted key a router
// stores in place of the secret. sign prints the signature of a challenge
// under a secret or derived key.
//
// Example:
//
//	wampcra derive -secret "$(wampcra secret)" -salt salt123 -iterations 100 -keylen 16
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/backkem/wamp/pkg/auth"
)

var errUsage = errors.New("usage: wampcra <secret|derive|sign> [options]")

func main() {
	log.SetFlags(0)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("wampcra: %v", err)
	}
}

// run executes one subcommand and writes its result to out.
func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "secret":
		return runSecret(args[1:], out)
	case "derive":
		return runDerive(args[1:], out)
	case "sign":
		return runSign(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
}

func runSecret(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("secret", flag.ContinueOnError)
	length := fs.Int("length", auth.DefaultSecretLength, "Number of characters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	secret, err := auth.GenerateSecret(*length)
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	_, err = fmt.Fprintln(out, secret)
	return err
}

func runDerive(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("derive", flag.ContinueOnError)
	secret := fs.String("secret", "", "Shared secret (required)")
	salt := fs.String("salt", "", "Salt (required)")
	iterations := fs.Int("iterations", auth.DefaultIterations, "PBKDF2 iterations")
	keyLen := fs.Int("keylen", auth.DefaultKeyLength, "Derived key length in bytes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *secret == "" || *salt == "" {
		return errors.New("derive: -secret and -salt are required")
	}

	key, err := auth.DeriveKeyString(*secret, *salt, *iterations, *keyLen)
	if err != nil {
		return fmt.Errorf("derive key: %w", err)
	}
	_, err = fmt.Fprintln(out, key)
	return err
}

func runSign(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	key := fs.String("key", "", "Secret or derived key (required)")
	challenge := fs.String("challenge", "", "Challenge string (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *key == "" || *challenge == "" {
		return errors.New("sign: -key and -challenge are required")
	}

	_, err := fmt.Fprintln(out, auth.ComputeDigestString(*key, *challenge))
	return err
}
