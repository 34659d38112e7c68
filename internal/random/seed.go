// Package random draws non-reproducible base seeds from crypto/rand.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
)

// NewSeed returns a base seed read from crypto/rand.
func NewSeed() (uint64, error) {
	return SeedFrom(crand.Reader)
}

// SeedFrom reads a little-endian base seed from r.
func SeedFrom(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
