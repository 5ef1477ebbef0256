package main

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// A key file is a base58 blob with a plaintext header (format version, the
// Argon2id cost parameters, a random salt) followed by the XTS keying material
// (K1 ‖ K2) sealed with ChaCha20-Poly1305 under a passphrase-derived key. The
// header is bound to the seal as associated data, so a tampered version byte,
// cost, or salt fails authentication instead of decrypting to garbage.

const (
	keyFileVersion = 1

	saltSize   = 16
	headerSize = 1 + 4 + 4 + 1 + saltSize
)

// Argon2id costs per RFC 9106's second recommended option, sized for
// memory-constrained hosts.
const (
	defaultPasses = 3
	defaultMemory = 64 * 1024 // KiB
	defaultLanes  = 4
)

// writeKeyFile seals the key under the passphrase at the default costs and
// writes it, base58 armored, to path.
func writeKeyFile(path string, key, passphrase []byte) error {
	blob, err := sealKey(key, passphrase, defaultPasses, defaultMemory, defaultLanes)
	if err != nil {
		return err
	}

	return os.WriteFile(path, []byte(base58.Encode(blob)+"\n"), 0o600)
}

// readKeyFile reads the key file at path, prompts for its passphrase, and
// returns the keying material.
func readKeyFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	blob, err := base58.Decode(strings.TrimSpace(string(b)))
	if err != nil {
		return nil, fmt.Errorf("invalid key file: %w", err)
	}

	passphrase, err := askPassphrase(os.Stderr, int(os.Stdin.Fd()), "Enter passphrase: ")
	if err != nil {
		return nil, err
	}

	key, err := openKey(blob, passphrase)
	if err != nil {
		return nil, err
	}

	if len(key) != 32 && len(key) != 64 {
		return nil, fmt.Errorf("invalid key file: %d-byte key", len(key))
	}

	return key, nil
}

// sealKey encrypts the key under the passphrase at the given Argon2id costs,
// returning header ‖ ciphertext.
func sealKey(key, passphrase []byte, passes, memory uint32, lanes uint8) ([]byte, error) {
	header := make([]byte, headerSize)
	header[0] = keyFileVersion
	binary.BigEndian.PutUint32(header[1:], passes)
	binary.BigEndian.PutUint32(header[5:], memory)
	header[9] = lanes

	if _, err := rand.Read(header[10:]); err != nil {
		return nil, err
	}

	k, nonce := keyFileKDF(passphrase, header[10:], passes, memory, lanes)

	aead, err := chacha20poly1305.New(k)
	if err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, nonce, key, header)

	return append(header, sealed...), nil
}

// openKey decrypts a sealed key blob with the given passphrase.
func openKey(blob, passphrase []byte) ([]byte, error) {
	if len(blob) < headerSize+chacha20poly1305.Overhead {
		return nil, errors.New("invalid key file: truncated")
	}

	if blob[0] != keyFileVersion {
		return nil, fmt.Errorf("invalid key file: unknown version %d", blob[0])
	}

	header, sealed := blob[:headerSize], blob[headerSize:]
	passes := binary.BigEndian.Uint32(header[1:])
	memory := binary.BigEndian.Uint32(header[5:])
	lanes := header[9]

	k, nonce := keyFileKDF(passphrase, header[10:], passes, memory, lanes)

	aead, err := chacha20poly1305.New(k)
	if err != nil {
		return nil, err
	}

	key, err := aead.Open(nil, nonce, sealed, header)
	if err != nil {
		return nil, errors.New("invalid key file or passphrase")
	}

	return key, nil
}

// keyFileKDF stretches the passphrase into a ChaCha20-Poly1305 key and nonce.
func keyFileKDF(passphrase, salt []byte, passes, memory uint32, lanes uint8) ([]byte, []byte) {
	kn := argon2.IDKey(passphrase, salt, passes, memory, lanes,
		chacha20poly1305.KeySize+chacha20poly1305.NonceSize)

	return kn[:chacha20poly1305.KeySize], kn[chacha20poly1305.KeySize:]
}
