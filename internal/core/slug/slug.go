// Package slug generates the short public identifiers embedded in payment link URLs.
package slug

import "math/rand/v2"

const (
	Length   = 8
	Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Generate draws Length symbols uniformly, with replacement, from Alphabet.
// Uniqueness is left to the storage layer's unique constraint.
func Generate() string {
	return generate(rand.IntN)
}

func generate(intn func(int) int) string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[intn(len(Alphabet))]
	}
	return string(b)
}

// Valid reports whether s has the shape of a generated slug.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
