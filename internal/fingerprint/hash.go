package fingerprint

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// HashBits is the width of every hash family.
const HashBits = 64

// Hash is a 64-bit perceptual hash.
type Hash uint64

// String renders the hash as 16 lower-case hex characters.
func (h Hash) String() string {
	return fmt.Sprintf("%016x", uint64(h))
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// ParseHash parses a 16 character hex hash.
func ParseHash(value string) (Hash, error) {
	value = strings.TrimSpace(value)
	if len(value) != 16 {
		return 0, fmt.Errorf("parse hash %q: want 16 hex characters", value)
	}
	parsed, err := strconv.ParseUint(value, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parse hash %q: %w", value, err)
	}
	return Hash(parsed), nil
}

// Distance returns the Hamming distance between two same-family hashes.
func Distance(a, b Hash) int {
	return bits.OnesCount64(uint64(a ^ b))
}

// Fingerprint is the aHash/dHash/pHash triple of one pixel region.
type Fingerprint struct {
	AHash Hash `json:"ahash"`
	DHash Hash `json:"dhash"`
	PHash Hash `json:"phash"`
}

// String renders the triple as "a:d:p" hex hashes.
func (f Fingerprint) String() string {
	return f.AHash.String() + ":" + f.DHash.String() + ":" + f.PHash.String()
}

// ParseFingerprint parses the String form of a Fingerprint.
func ParseFingerprint(value string) (Fingerprint, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return Fingerprint{}, fmt.Errorf("parse fingerprint %q: want three hashes", value)
	}
	var (
		fp  Fingerprint
		err error
	)
	if fp.AHash, err = ParseHash(parts[0]); err != nil {
		return Fingerprint{}, err
	}
	if fp.DHash, err = ParseHash(parts[1]); err != nil {
		return Fingerprint{}, err
	}
	if fp.PHash, err = ParseHash(parts[2]); err != nil {
		return Fingerprint{}, err
	}
	return fp, nil
}

// Distances holds the per-family Hamming distances of a fingerprint pair.
type Distances struct {
	AHash int `json:"ahash"`
	DHash int `json:"dhash"`
	PHash int `json:"phash"`
}

// Compare returns the per-family distances between a and b.
func Compare(a, b Fingerprint) Distances {
	return Distances{
		AHash: Distance(a.AHash, b.AHash),
		DHash: Distance(a.DHash, b.DHash),
		PHash: Distance(a.PHash, b.PHash),
	}
}
