package main

import (
	"github.com/codahale/strata"
	"github.com/rs/zerolog/log"
)

type decryptCmd struct {
	Key        string `arg:"" type:"existingfile" help:"The path of the key file."`
	Ciphertext string `arg:"" help:"The path of the ciphertext file, or - for stdin."`
	Plaintext  string `arg:"" type:"path" help:"The path of the plaintext file, or - for stdout."`

	SectorSize  int    `default:"4096" help:"The data unit size in bytes."`
	SectorIndex uint64 `default:"0" help:"The index of the first data unit."`
}

func (cmd *decryptCmd) Run() error {
	key, err := readKeyFile(cmd.Key)
	if err != nil {
		return err
	}

	var c strata.Cipher
	defer c.Wipe()

	if err := c.Init(false, &strata.Params{
		Mode:        strata.Continuous,
		Key:         key[:len(key)/2],
		TweakKey:    key[len(key)/2:],
		SectorSize:  cmd.SectorSize,
		SectorIndex: strata.SectorIndex{Lo: cmd.SectorIndex},
	}); err != nil {
		return err
	}

	src, err := openInput(cmd.Ciphertext)
	if err != nil {
		return err
	}

	defer func() { _ = src.Close() }()

	dst, err := openOutput(cmd.Plaintext)
	if err != nil {
		return err
	}

	defer func() { _ = dst.Close() }()

	n, err := pump(dst, src, &c)
	if err != nil {
		return err
	}

	log.Info().Int64("bytes", n).Str("plaintext", cmd.Plaintext).Msg("decrypted")

	return dst.Close()
}
