// Package utils holds the small generic helpers shared across the service:
// slice combinators used by the handlers, and the random-string generator
// backing invitation tokens.
package utils

import (
	"crypto/rand"
	"strings"
)

type mapFunc[E any, R any] func(E) R

// Map applies f to every element of s and returns the results.
func Map[S ~[]E, E any, R any](s S, f mapFunc[E, R]) []R {
	result := make([]R, len(s))
	for i, e := range s {
		result[i] = f(e)
	}

	return result
}

type keepFunc[E any] func(E) bool

// Filter returns the elements of s for which f holds.
func Filter[S ~[]E, E any](s S, f keepFunc[E]) S {
	result := S{}
	for _, v := range s {
		if f(v) {
			result = append(result, v)
		}
	}

	return result
}

// Contains reports whether val is present in slice.
func Contains(slice []string, val string) bool {
	for _, v := range slice {
		if v == val {
			return true
		}
	}

	return false
}

// TrimmedOrDefault returns the trimmed input, or fallback when it trims to
// nothing.
func TrimmedOrDefault(s, fallback string) string {
	if t := strings.TrimSpace(s); t != "" {
		return t
	}

	return fallback
}

// GenerateRandomString returns a random alphanumeric string of the given
// length, suitable for unguessable tokens.
func GenerateRandomString(length int) (string, error) {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	random := make([]byte, length)
	if _, err := rand.Read(random); err != nil {
		return "", err
	}

	bytes := make([]byte, length)
	for i := range bytes {
		bytes[i] = chars[int(random[i])%len(chars)]
	}

	return string(bytes), nil
}
