package strata

import (
	"bytes"
	"crypto/cipher"
	"crypto/des"
	"encoding/hex"
	"testing"

	"github.com/codahale/gubbins/assert"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// The AES-128 cases are vectors 1 and 2 from IEEE Std 1619-2007, Annex B; the
// AES-256 case uses all-zero keys and plaintext.
func TestEncryptVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        string
		tweakKey   string
		sector     uint64
		plaintext  string
		ciphertext string
	}{
		{
			name:       "AES-128 zero",
			key:        "00000000000000000000000000000000",
			tweakKey:   "00000000000000000000000000000000",
			sector:     0,
			plaintext:  "0000000000000000000000000000000000000000000000000000000000000000",
			ciphertext: "917cf69ebd68b2ec9b9fe9a3eadda692cd43d2f59598ed858c02c2652fbf922e",
		},
		{
			name:       "AES-128 nonzero",
			key:        "11111111111111111111111111111111",
			tweakKey:   "22222222222222222222222222222222",
			sector:     0x3333333333,
			plaintext:  "4444444444444444444444444444444444444444444444444444444444444444",
			ciphertext: "c454185e6a16936e39334038acef838bfb186fff7480adc4289382ecd6d394f0",
		},
		{
			name:       "AES-256 zero",
			key:        "0000000000000000000000000000000000000000000000000000000000000000",
			tweakKey:   "0000000000000000000000000000000000000000000000000000000000000000",
			sector:     0,
			plaintext:  "0000000000000000000000000000000000000000000000000000000000000000",
			ciphertext: "1c3b3a102f770386e4836c99e370cf9bea00803f5e482357a4ae12d414a3e63b",
		},
	}

	for _, test := range tests {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			plaintext := mustHex(t, test.plaintext)
			params := &Params{
				Mode:        Independent,
				Key:         mustHex(t, test.key),
				TweakKey:    mustHex(t, test.tweakKey),
				SectorSize:  len(plaintext),
				SectorIndex: SectorIndex{Lo: test.sector},
			}

			ciphertext := make([]byte, len(plaintext))

			n, err := Encrypt(ciphertext, plaintext, params)
			if err != nil {
				t.Fatal(err)
			}

			assert.Equal(t, "ciphertext length", len(plaintext), n)
			assert.Equal(t, "ciphertext", test.ciphertext, hex.EncodeToString(ciphertext))

			decrypted := make([]byte, len(ciphertext))

			n, err = Decrypt(decrypted, ciphertext, params)
			if err != nil {
				t.Fatal(err)
			}

			assert.Equal(t, "plaintext length", len(plaintext), n)
			assert.Equal(t, "decrypted plaintext", plaintext, decrypted)
		})
	}
}

func TestEncryptMultipleSectors(t *testing.T) {
	t.Parallel()

	plaintext := bytes.Repeat([]byte{0xaa}, 64)
	ciphertext := make([]byte, len(plaintext))

	n, err := Encrypt(ciphertext, plaintext, &Params{
		Mode:        Continuous,
		Key:         make([]byte, 16),
		TweakKey:    make([]byte, 16),
		SectorSize:  32,
		SectorIndex: SectorIndex{Lo: 5},
	})
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "ciphertext length", 64, n)

	// Each sector must match its own single-sector encryption.
	for i, lo := range []uint64{5, 6} {
		want := make([]byte, 32)

		if _, err := Encrypt(want, plaintext[i*32:(i+1)*32], &Params{
			Mode:        Independent,
			Key:         make([]byte, 16),
			TweakKey:    make([]byte, 16),
			SectorSize:  32,
			SectorIndex: SectorIndex{Lo: lo},
		}); err != nil {
			t.Fatal(err)
		}

		assert.Equal(t, "sector ciphertext", want, ciphertext[i*32:(i+1)*32])
	}

	// Flipping a byte in the second sector must not disturb the first.
	modified := bytes.Repeat([]byte{0xaa}, 64)
	modified[33] ^= 0x01
	ciphertext2 := make([]byte, len(modified))

	if _, err := Encrypt(ciphertext2, modified, &Params{
		Mode:        Continuous,
		Key:         make([]byte, 16),
		TweakKey:    make([]byte, 16),
		SectorSize:  32,
		SectorIndex: SectorIndex{Lo: 5},
	}); err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, "unmodified sector", ciphertext[:32], ciphertext2[:32])

	if bytes.Equal(ciphertext[32:], ciphertext2[32:]) {
		t.Error("modified sector produced identical ciphertext")
	}
}

func TestParamsValidation(t *testing.T) {
	t.Parallel()

	valid := func() *Params {
		return &Params{
			Mode:       Continuous,
			Key:        make([]byte, 16),
			TweakKey:   make([]byte, 16),
			SectorSize: 32,
		}
	}

	tests := []struct {
		name   string
		params *Params
	}{
		{name: "nil params", params: nil},
		{name: "bad key size", params: func() *Params { p := valid(); p.Key = make([]byte, 24); p.TweakKey = make([]byte, 24); return p }()},
		{name: "mismatched keys", params: func() *Params { p := valid(); p.TweakKey = make([]byte, 32); return p }()},
		{name: "tiny sector", params: func() *Params { p := valid(); p.SectorSize = 8; return p }()},
		{name: "unknown mode", params: func() *Params { p := valid(); p.Mode = Mode(17); return p }()},
		{name: "failing creator", params: func() *Params { p := valid(); p.Block = des.NewCipher; return p }()},
		{
			name: "wrong block size",
			params: func() *Params {
				p := valid()
				p.Block = func(key []byte) (cipher.Block, error) { return des.NewCipher(key[:8]) }
				return p
			}(),
		},
	}

	for _, test := range tests {
		test := test

		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			var c Cipher

			err := c.Init(true, test.params)
			assert.Equal(t, "error", ErrConfiguration, err, cmpopts.EquateErrors())
		})
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatal(err)
	}

	return b
}
