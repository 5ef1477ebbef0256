package strata

import (
	"crypto/cipher"
	"fmt"

	"github.com/codahale/strata/internal/gf128"
)

type cipherState int

const (
	stateUninitialized cipherState = iota
	stateReady
	stateProcessing
	stateFinalized
)

// Cipher is a buffered, resumable XTS cipher over a stream of data units.
//
// A Cipher consumes input in chunks of any size via Process, emitting output
// as soon as it is safe to do so, and applies ciphertext stealing at Finalize
// if the final data unit is not a multiple of the block size. The engine
// withholds at most one completed block per data unit in flight, so output
// always trails input by fewer than 32 bytes.
//
// The zero value is uninitialized; call Init before use. A Cipher is not safe
// for concurrent use, but independent instances may run in parallel.
type Cipher struct {
	mode          Mode
	forEncryption bool
	sectorSize    int

	kernel   xex          // keyed with K1
	tweakEnc cipher.Block // keyed with K2; the tweak is always encrypted

	sector SectorIndex
	tweak  [gf128.Size]byte // tweak for the block currently being read
	offset int              // bytes of the current sector consumed

	// The withholding buffer: the most recently completed but unemitted
	// block, the tweak at its position, and the partial block behind it.
	held      [blockSize]byte
	heldTweak [gf128.Size]byte
	heldValid bool
	part      [blockSize]byte
	partLen   int

	state cipherState
}

// Init configures the cipher for encryption or decryption under the given
// parameters, deriving the initial tweak and resetting all position state.
// Init may be called at any time to reuse an instance.
func (c *Cipher) Init(forEncryption bool, params *Params) error {
	if err := params.validate(); err != nil {
		return err
	}

	create := params.creator()

	data, err := create(params.Key)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	tweakEnc, err := create(params.TweakKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	if data.BlockSize() != blockSize || tweakEnc.BlockSize() != blockSize {
		return fmt.Errorf("%w: block cipher must have a %d-byte block", ErrConfiguration, blockSize)
	}

	c.mode = params.Mode
	c.forEncryption = forEncryption
	c.sectorSize = params.SectorSize
	c.kernel = xex{block: data}
	c.tweakEnc = tweakEnc
	c.beginSector(params.SectorIndex)
	c.state = stateReady

	return nil
}

// Process consumes src, appends its transformation to dst, and returns the
// number of bytes written. dst must hold at least OutputSize(len(src)) bytes.
// Output is emitted in strict input order; the suffix needed to decide
// whether ciphertext stealing applies stays buffered until more input or a
// Finalize call resolves it.
func (c *Cipher) Process(dst, src []byte) (int, error) {
	switch c.state {
	case stateReady, stateProcessing:
	default:
		return 0, fmt.Errorf("%w: process requires an initialized cipher", ErrLifecycle)
	}

	if want := c.OutputSize(len(src)); len(dst) < want {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrOutputTooSmall, want, len(dst))
	}

	if c.mode == Independent && c.offset+len(src) > c.sectorSize {
		return 0, fmt.Errorf("%w: %d bytes would cross the %d-byte sector boundary",
			ErrSizeMismatch, c.offset+len(src), c.sectorSize)
	}

	c.state = stateProcessing
	n := 0

	for len(src) > 0 {
		// A finished sector is flushed lazily, once input for the next one
		// arrives. Unreachable in Independent mode.
		if c.offset == c.sectorSize {
			n += c.completeSector(dst[n:])
		}

		// Bulk regime: a block followed by at least a block's worth of
		// sector data cannot end the data unit, so it is emitted as soon as
		// it is read.
		for c.partLen == 0 {
			m := c.sectorSize - c.offset
			if m > len(src) {
				m = len(src)
			}

			if m < 2*blockSize {
				break
			}

			if c.heldValid {
				c.transform(dst[n:], c.held[:], &c.heldTweak)
				c.heldValid = false
				n += blockSize
			}

			c.transform(dst[n:], src[:blockSize], &c.tweak)
			gf128.Double(&c.tweak)
			n += blockSize
			c.offset += blockSize
			src = src[blockSize:]
		}

		if len(src) == 0 {
			break
		}

		// Tail regime: buffer bytes toward the next block.
		take := blockSize - c.partLen
		if take > len(src) {
			take = len(src)
		}

		if rem := c.sectorSize - c.offset; take > rem {
			take = rem
		}

		copy(c.part[c.partLen:], src[:take])
		c.partLen += take
		c.offset += take
		src = src[take:]

		if c.partLen == blockSize {
			// The completed block displaces the previously withheld one,
			// which can no longer be the last block of the data unit.
			if c.heldValid {
				c.transform(dst[n:], c.held[:], &c.heldTweak)
				n += blockSize
			}

			c.held = c.part
			c.heldTweak = c.tweak
			c.heldValid = true
			gf128.Double(&c.tweak)
			c.partLen = 0
		}
	}

	return n, nil
}

// ProcessByte feeds a single byte to the cipher, appending any resulting
// output to dst and returning the number of bytes written. It is a
// convenience for callers without contiguous input; Process is faster.
func (c *Cipher) ProcessByte(dst []byte, b byte) (int, error) {
	in := [1]byte{b}

	return c.Process(dst, in[:])
}

// Finalize completes the stream: it emits the withheld suffix of the active
// data unit, applying ciphertext stealing if the unit's length is not a
// multiple of the block size, and returns the number of bytes written. dst
// must hold at least OutputSize(0) bytes; 32 always suffices.
//
// In Independent mode, the total input consumed since Init must equal the
// sector size. In Continuous mode, a stream may end mid-sector, in which
// case the consumed prefix forms a final, shorter data unit; like any data
// unit, it must be at least 16 bytes.
//
// After Finalize the cipher accepts no further input until re-initialized.
func (c *Cipher) Finalize(dst []byte) (int, error) {
	switch c.state {
	case stateReady, stateProcessing:
	default:
		return 0, fmt.Errorf("%w: finalize requires an initialized cipher", ErrLifecycle)
	}

	if want := c.buffered(); len(dst) < want {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrOutputTooSmall, want, len(dst))
	}

	if c.offset > 0 && c.offset < blockSize {
		return 0, fmt.Errorf("%w: data unit holds %d bytes", ErrInsufficientData, c.offset)
	}

	if c.mode == Independent && c.offset != c.sectorSize {
		return 0, fmt.Errorf("%w: consumed %d of %d bytes", ErrSizeMismatch, c.offset, c.sectorSize)
	}

	n := c.flushTail(dst)
	c.state = stateFinalized

	return n, nil
}

// OutputSize returns an upper bound on the number of bytes emitted by a
// Process call consuming n input bytes, or by Finalize when n is zero.
func (c *Cipher) OutputSize(n int) int {
	return n + c.buffered()
}

// Wipe zeroes the cipher's tweak state and buffered data and returns it to
// the uninitialized state. The expanded key schedules held by the underlying
// block ciphers are released but not overwritten; clearing those is up to
// the block cipher implementation.
func (c *Cipher) Wipe() {
	c.tweak = [gf128.Size]byte{}
	c.heldTweak = [gf128.Size]byte{}
	c.held = [blockSize]byte{}
	c.part = [blockSize]byte{}
	c.heldValid = false
	c.partLen = 0
	c.offset = 0
	c.kernel = xex{}
	c.tweakEnc = nil
	c.state = stateUninitialized
}

// buffered returns the number of consumed but unemitted bytes.
func (c *Cipher) buffered() int {
	n := c.partLen
	if c.heldValid {
		n += blockSize
	}

	return n
}

// beginSector derives the initial tweak E_K2(i) for sector i and resets the
// intra-sector position.
func (c *Cipher) beginSector(i SectorIndex) {
	c.sector = i
	gf128.PutSector(&c.tweak, i.Lo, i.Hi)
	c.tweakEnc.Encrypt(c.tweak[:], c.tweak[:])
	c.offset = 0
	c.heldValid = false
	c.partLen = 0
}

// completeSector flushes the withheld suffix of a finished sector and begins
// the following one.
func (c *Cipher) completeSector(dst []byte) int {
	n := c.flushTail(dst)
	c.beginSector(c.sector.next())

	return n
}

// flushTail emits the withheld block of the active data unit. If the unit
// ends with a partial block, the last two blocks are transformed with
// ciphertext stealing instead: the penultimate block is processed under the
// later tweak, per IEEE P1619.
func (c *Cipher) flushTail(dst []byte) int {
	if c.partLen == 0 {
		if !c.heldValid {
			return 0
		}

		c.transform(dst, c.held[:], &c.heldTweak)
		c.heldValid = false
		c.held = [blockSize]byte{}

		return blockSize
	}

	r := c.partLen

	var cc, pp [blockSize]byte

	if c.forEncryption {
		// CC is the would-be ciphertext of the penultimate block; its first
		// r bytes become the final partial ciphertext, and its stolen tail
		// pads the partial plaintext.
		c.kernel.encrypt(cc[:], c.held[:], &c.heldTweak)
		copy(pp[:], c.part[:r])
		copy(pp[r:], cc[r:])
		c.kernel.encrypt(dst[:blockSize], pp[:], &c.tweak)
		copy(dst[blockSize:blockSize+r], cc[:r])
	} else {
		// The withheld full block decrypts under the later tweak to the
		// padded partial plaintext; its stolen tail reconstructs the
		// penultimate ciphertext block.
		c.kernel.decrypt(pp[:], c.held[:], &c.tweak)
		copy(cc[:], c.part[:r])
		copy(cc[r:], pp[r:])
		c.kernel.decrypt(dst[:blockSize], cc[:], &c.heldTweak)
		copy(dst[blockSize:blockSize+r], pp[:r])
	}

	c.heldValid = false
	c.partLen = 0
	c.held = [blockSize]byte{}
	c.part = [blockSize]byte{}

	return blockSize + r
}

func (c *Cipher) transform(dst, src []byte, tweak *[gf128.Size]byte) {
	if c.forEncryption {
		c.kernel.encrypt(dst, src, tweak)
	} else {
		c.kernel.decrypt(dst, src, tweak)
	}
}
