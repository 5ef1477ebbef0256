package main

import (
	"crypto/rand"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

type keygenCmd struct {
	Output string `arg:"" type:"path" help:"The path of the new key file."`

	Bits int `default:"256" help:"The AES key size in bits (128 or 256)."`
}

func (cmd *keygenCmd) Run() error {
	var n int

	switch cmd.Bits {
	case 128:
		n = 32
	case 256:
		n = 64
	default:
		return fmt.Errorf("invalid key size: %d bits", cmd.Bits)
	}

	// Generate K1 and K2 in a single buffer.
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return err
	}

	passphrase, err := askPassphrase(os.Stderr, int(os.Stdin.Fd()), "Enter passphrase: ")
	if err != nil {
		return err
	}

	confirm, err := askPassphrase(os.Stderr, int(os.Stdin.Fd()), "Confirm passphrase: ")
	if err != nil {
		return err
	}

	if string(passphrase) != string(confirm) {
		return fmt.Errorf("passphrases do not match")
	}

	if err := writeKeyFile(cmd.Output, key, passphrase); err != nil {
		return err
	}

	log.Info().Str("path", cmd.Output).Int("bits", cmd.Bits).Msg("generated key")

	return nil
}
