package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

type cli struct {
	Keygen  keygenCmd  `cmd:"" help:"Generate a new XTS key file."`
	Encrypt encryptCmd `cmd:"" help:"Encrypt a file sector by sector."`
	Decrypt decryptCmd `cmd:"" help:"Decrypt a file sector by sector."`

	Verbose bool `short:"v" help:"Enable debug logging."`
}

func main() {
	var cli cli

	ctx := kong.Parse(&cli)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if cli.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// askPassphrase prompts on w and reads a passphrase, without echo, from the
// terminal at fd.
func askPassphrase(w io.Writer, fd int, prompt string) ([]byte, error) {
	_, _ = fmt.Fprint(w, prompt)

	passphrase, err := term.ReadPassword(fd)

	_, _ = fmt.Fprintln(w)

	return passphrase, err
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return os.Stdin, nil
	}

	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return os.Stdout, nil
	}

	return os.Create(path)
}
