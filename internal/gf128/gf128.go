// Package gf128 implements the GF(2^128) arithmetic used to derive XTS tweak
// values, with the IEEE P1619 reduction polynomial x^128 + x^7 + x^2 + x + 1.
//
// Elements are 16-byte blocks interpreted as little-endian polynomials: byte 0
// carries the least-significant coefficients. This is the byte order the XTS
// standard assigns to tweaks, and the one that matches the published test
// vectors.
package gf128

import "encoding/binary"

// Size is the width of a field element in bytes.
const Size = 16

// feedback is the low byte of the reduction polynomial, folded in whenever
// doubling overflows x^128.
const feedback = 0x87

// Double multiplies the element in place by α, the primitive element x.
func Double(e *[Size]byte) {
	var carry byte

	for i := range e {
		next := e[i] >> 7
		e[i] = e[i]<<1 | carry
		carry = next
	}

	if carry != 0 {
		e[0] ^= feedback
	}
}

// PutSector encodes the 128-bit sector index lo‖hi as a little-endian field
// element.
func PutSector(e *[Size]byte, lo, hi uint64) {
	binary.LittleEndian.PutUint64(e[:8], lo)
	binary.LittleEndian.PutUint64(e[8:], hi)
}
