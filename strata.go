// Package strata implements the XTS-AES cipher mode (IEEE P1619, NIST SP
// 800-38E) as a buffered streaming engine for length-preserving encryption of
// block-oriented storage.
//
// Unlike whole-sector XTS implementations, a Cipher accepts arbitrarily
// chunked input. It tracks its position within the current data unit, holds
// back the minimum suffix needed to decide whether ciphertext stealing
// applies, and advances the tweak in GF(2^128) exactly once per 16-byte block
// consumed. Chunk boundaries may land anywhere, including mid-way through the
// penultimate block or the partial tail of a data unit, without changing the
// output.
//
// XTS provides confidentiality only; it does not authenticate data. Data
// units are whole bytes: the bit-level data units permitted by IEEE P1619 are
// not representable in this API.
package strata

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// Mode controls how a Cipher treats data unit boundaries.
type Mode int

const (
	// Continuous advances to the next sector automatically whenever the
	// current one completes, allowing a single stream to span many sectors.
	Continuous Mode = iota

	// Independent requires each Init/Finalize cycle to cover exactly one
	// sector. Input that would cross a sector boundary is rejected.
	Independent
)

// SectorIndex is a 128-bit data unit number.
type SectorIndex struct {
	Lo, Hi uint64
}

// next returns the index of the following sector, wrapping at 2^128.
func (i SectorIndex) next() SectorIndex {
	i.Lo++
	if i.Lo == 0 {
		i.Hi++
	}

	return i
}

// A Creator constructs the block cipher underlying the XTS mode. The returned
// cipher must have a 16-byte block size.
type Creator func(key []byte) (cipher.Block, error)

// Params configures a Cipher. Key and TweakKey must be independently chosen
// keys of equal length, either 16 or 32 bytes each. The parameters are copied
// at Init; callers may zero their own copies afterwards.
type Params struct {
	// Mode selects Continuous or Independent sector handling.
	Mode Mode

	// Key is K1, the data-encryption key.
	Key []byte

	// TweakKey is K2, the tweak-encryption key.
	TweakKey []byte

	// SectorSize is the data unit length in bytes, at least 16.
	SectorSize int

	// SectorIndex is the index of the first data unit.
	SectorIndex SectorIndex

	// Block constructs the underlying 128-bit block cipher. If nil,
	// crypto/aes is used.
	Block Creator
}

func (p *Params) validate() error {
	switch {
	case p == nil:
		return fmt.Errorf("%w: missing parameters", ErrConfiguration)
	case len(p.Key) != 16 && len(p.Key) != 32:
		return fmt.Errorf("%w: key must be 16 or 32 bytes, got %d", ErrConfiguration, len(p.Key))
	case len(p.TweakKey) != len(p.Key):
		return fmt.Errorf("%w: tweak key must be %d bytes, got %d", ErrConfiguration, len(p.Key), len(p.TweakKey))
	case p.SectorSize < blockSize:
		return fmt.Errorf("%w: sector size must be at least %d bytes, got %d", ErrConfiguration, blockSize, p.SectorSize)
	case p.Mode != Continuous && p.Mode != Independent:
		return fmt.Errorf("%w: unknown mode %d", ErrConfiguration, p.Mode)
	}

	return nil
}

func (p *Params) creator() Creator {
	if p.Block != nil {
		return p.Block
	}

	return aes.NewCipher
}

// Encrypt encrypts src as a sequence of data units starting at
// params.SectorIndex, writing the ciphertext to dst and returning the number
// of bytes written. dst must hold at least len(src) bytes.
func Encrypt(dst, src []byte, params *Params) (int, error) {
	return oneShot(true, dst, src, params)
}

// Decrypt decrypts src as a sequence of data units starting at
// params.SectorIndex, writing the plaintext to dst and returning the number
// of bytes written. dst must hold at least len(src) bytes.
func Decrypt(dst, src []byte, params *Params) (int, error) {
	return oneShot(false, dst, src, params)
}

func oneShot(forEncryption bool, dst, src []byte, params *Params) (int, error) {
	var c Cipher
	defer c.Wipe()

	if err := c.Init(forEncryption, params); err != nil {
		return 0, err
	}

	n, err := c.Process(dst, src)
	if err != nil {
		return n, err
	}

	m, err := c.Finalize(dst[n:])

	return n + m, err
}
