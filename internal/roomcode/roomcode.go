// Package roomcode generates the short join codes that identify rooms.
package roomcode

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Alphabet excludes visually ambiguous characters (0/O, 1/I) so codes
// survive being read out loud or retyped from a screenshot.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length is the fixed room code length.
const Length = 6

// RandSource allows deterministic code generation in tests.
type RandSource interface {
	IntN(n int) int
}

// Generator produces room codes with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil randSource falls back to
// crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate returns a fresh room code using the package defaults.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate returns a 6-character code drawn uniformly from Alphabet.
// Collision handling is the caller's job.
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(Length)

	if g.randSource != nil {
		for i := 0; i < Length; i++ {
			b.WriteByte(Alphabet[g.randSource.IntN(len(Alphabet))])
		}
		return b.String()
	}

	// Alphabet has exactly 32 characters, so masking to 5 bits keeps the
	// draw uniform.
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		panic("roomcode: failed to read random bytes: " + err.Error())
	}
	for _, by := range buf {
		b.WriteByte(Alphabet[by&0x1f])
	}
	return b.String()
}

// Validate checks that a code is exactly 6 characters from the alphabet.
func Validate(code string) error {
	if len(code) != Length {
		return fmt.Errorf("room code must be exactly %d characters, got %d", Length, len(code))
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(Alphabet, rune(code[i])) {
			return fmt.Errorf("invalid character %c at position %d", code[i], i)
		}
	}
	return nil
}
