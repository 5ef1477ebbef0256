package strata

import (
	"crypto/cipher"
	"crypto/subtle"

	"github.com/codahale/strata/internal/gf128"
)

// blockSize is the block size the underlying cipher must have.
const blockSize = 16

// xex is the stateless XTS block kernel: a single-block XEX transform under a
// caller-supplied tweak. It is a total function over 16-byte inputs and never
// allocates.
type xex struct {
	block cipher.Block
}

// encrypt computes dst = E_K1(src ⊕ tweak) ⊕ tweak. dst and src must each be
// at least 16 bytes and must either coincide or not overlap.
func (x *xex) encrypt(dst, src []byte, tweak *[gf128.Size]byte) {
	subtle.XORBytes(dst[:blockSize], src[:blockSize], tweak[:])
	x.block.Encrypt(dst[:blockSize], dst[:blockSize])
	subtle.XORBytes(dst[:blockSize], dst[:blockSize], tweak[:])
}

// decrypt computes dst = D_K1(src ⊕ tweak) ⊕ tweak, the inverse of encrypt.
func (x *xex) decrypt(dst, src []byte, tweak *[gf128.Size]byte) {
	subtle.XORBytes(dst[:blockSize], src[:blockSize], tweak[:])
	x.block.Decrypt(dst[:blockSize], dst[:blockSize])
	subtle.XORBytes(dst[:blockSize], dst[:blockSize], tweak[:])
}
