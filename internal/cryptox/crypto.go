// Package cryptox holds the server's cryptographic primitives: argon2id
// password hashing in an encoded "$argon2id$v=..$m=..,t=..,p=..$salt$hash"
// form, and HMAC-SHA256 signing for derived tokens.
package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Params are the argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

var (
	// DefaultParams is used by the server.
	DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 2, KeyLen: 32, SaltLen: 16}

	// FastParams is a cheap setting for tests and local tooling.
	FastParams = Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
)

const unusablePrefix = "!"

var errInvalidHash = errors.New("invalid password hash")

// Hasher hashes and verifies passwords with fixed argon2id parameters.
type Hasher struct {
	params Params

	dummyOnce sync.Once
	dummy     string
}

func NewHasher(p Params) *Hasher {
	return &Hasher{params: p}
}

// Hash returns the encoded argon2id hash of password with a fresh salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify reports whether password matches encoded. Malformed and unusable
// hashes never match.
func (h *Hasher) Verify(password, encoded string) bool {
	ok, err := verify(password, encoded)
	return err == nil && ok
}

// VerifyDummy burns the same work as a real Verify against a fixed hash.
// Callers use it when the account does not exist so both paths cost the same.
func (h *Hasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = h.Hash("dummy-password-for-timing")
	})
	_, _ = verify(password, h.dummy)
}

// Unusable returns a marker that no password verifies against.
func Unusable() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return unusablePrefix + base64.RawURLEncoding.EncodeToString(b)
}

// IsUsable reports whether encoded is a real password hash.
func IsUsable(encoded string) bool {
	return encoded != "" && !strings.HasPrefix(encoded, unusablePrefix)
}

func verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, errInvalidHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || version != argon2.Version {
		return false, errInvalidHash
	}

	var mem, timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &timeCost, &threads); err != nil {
		return false, errInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, errInvalidHash
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, errInvalidHash
	}

	actual := argon2.IDKey([]byte(password), salt, timeCost, mem, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}

// Sign returns HMAC-SHA256 over the length-prefixed parts, so ("ab","c")
// and ("a","bc") never collide.
func Sign(secret []byte, parts ...string) []byte {
	mac := hmac.New(sha256.New, secret)
	var n [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		mac.Write(n[:])
		mac.Write([]byte(p))
	}
	return mac.Sum(nil)
}

// Equal compares two MACs in constant time.
func Equal(a, b []byte) bool {
	return hmac.Equal(a, b)
}
