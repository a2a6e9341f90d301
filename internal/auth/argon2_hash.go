package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// The argon2id parameters are fixed and documented here. They follow the
// OWASP minimum recommendation: 46 MiB of memory, 1 iteration, 1 lane.
// If these ever change, existing hashes keep working because the parameters
// are part of the encoded hash.
const (
	argon2Memory      = 47104
	argon2Iterations  = 1
	argon2Parallelism = 1

	saltLen = 16
	keyLen  = 32
)

// ErrInvalidArgon2Hash indicates a string is not a valid argon2id hash.
var ErrInvalidArgon2Hash = errors.New("invalid argon2 hash")

// Argon2Hash is an argon2id hash with the parameters that were used to
// create it. Its string form is the common PHC representation:
//
//	$argon2id$v=19$m=<memory>,t=<iterations>,p=<parallelism>$<salt>$<hash>
type Argon2Hash struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	Salt        []byte
	Hash        []byte
}

// ParseArgon2Hash parses a hash in PHC string form.
func ParseArgon2Hash(raw string) (Argon2Hash, error) {
	parts := strings.Split(raw, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2Hash{}, ErrInvalidArgon2Hash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Argon2Hash{}, ErrInvalidArgon2Hash
	}

	var h Argon2Hash
	n, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &h.Memory, &h.Iterations, &h.Parallelism)
	if err != nil || n != 3 {
		return Argon2Hash{}, ErrInvalidArgon2Hash
	}

	h.Salt, err = base64.RawStdEncoding.Strict().DecodeString(parts[4])
	if err != nil {
		return Argon2Hash{}, ErrInvalidArgon2Hash
	}

	h.Hash, err = base64.RawStdEncoding.Strict().DecodeString(parts[5])
	if err != nil {
		return Argon2Hash{}, ErrInvalidArgon2Hash
	}

	return h, nil
}

// String returns the hash in PHC string form.
func (h Argon2Hash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Iterations, h.Parallelism,
		base64.RawStdEncoding.EncodeToString(h.Salt),
		base64.RawStdEncoding.EncodeToString(h.Hash),
	)
}

func (h Argon2Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Argon2Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseArgon2Hash(string(text))
	if err != nil {
		return err
	}

	*h = parsed

	return nil
}

// Scan implements the sql.Scanner interface so hashes can be read
// directly from database rows.
func (h *Argon2Hash) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return h.UnmarshalText([]byte(v))
	case []byte:
		return h.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T: %w", src, ErrInvalidArgon2Hash)
	}
}

// hashBytes hashes the provided bytes using argon2id with the package
// parameters and a fresh random salt. It never returns an empty hash:
// any failure is reported as an error.
func hashBytes(data []byte) (Argon2Hash, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return Argon2Hash{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey(data, salt, argon2Iterations, argon2Memory, argon2Parallelism, keyLen)
	if len(key) == 0 {
		return Argon2Hash{}, errors.New("argon2 returned an empty key")
	}

	return Argon2Hash{
		Memory:      argon2Memory,
		Iterations:  argon2Iterations,
		Parallelism: argon2Parallelism,
		Salt:        salt,
		Hash:        key,
	}, nil
}

// matchHash re-derives the key using the parameters stored in the hash and
// compares in constant time, so nothing about the stored hash leaks through
// timing differences.
func matchHash(h Argon2Hash, data []byte) bool {
	key := argon2.IDKey(data, h.Salt, h.Iterations, h.Memory, h.Parallelism, uint32(len(h.Hash)))
	return subtle.ConstantTimeCompare(h.Hash, key) == 1
}
