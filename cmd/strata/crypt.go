package main

import (
	"errors"
	"io"

	"github.com/codahale/strata"
	"github.com/rs/zerolog/log"
)

const chunkSize = 64 * 1024

// pump drives src through the cipher into dst in chunks, finalizing the
// stream at EOF. It returns the total number of bytes written to dst.
func pump(dst io.Writer, src io.Reader, c *strata.Cipher) (int64, error) {
	// The extra 32 bytes cover the carry the cipher may flush along with a
	// chunk, and the suffix emitted at Finalize.
	in := make([]byte, chunkSize)
	out := make([]byte, chunkSize+32)

	var written int64

	for {
		n, err := src.Read(in)
		if n > 0 {
			m, perr := c.Process(out, in[:n])
			if perr != nil {
				return written, perr
			}

			if _, werr := dst.Write(out[:m]); werr != nil {
				return written, werr
			}

			written += int64(m)

			log.Debug().Int("read", n).Int("emitted", m).Msg("processed chunk")
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return written, err
		}
	}

	m, err := c.Finalize(out)
	if err != nil {
		return written, err
	}

	if _, err := dst.Write(out[:m]); err != nil {
		return written, err
	}

	return written + int64(m), nil
}
