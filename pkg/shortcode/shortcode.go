// Package shortcode generates random short codes over a fixed lowercase alphanumeric alphabet.
package shortcode

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Alphabet is the set of symbols a generated code is drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generator produces uniformly random codes. The zero value is ready to use.
type Generator struct{}

func New() Generator {
	return Generator{}
}

// Generate returns a code of exactly length symbols.
func (Generator) Generate(length int) (string, error) {
	const op = "shortcode.Generator.Generate"

	if length < 1 {
		return "", fmt.Errorf("%s: length must be positive, got %d", op, length)
	}

	code, err := gonanoid.Generate(Alphabet, length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate code: %w", op, err)
	}

	return code, nil
}
