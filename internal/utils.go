// Package internal holds small helpers shared by the checkout packages.
package internal

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// RandomBytes helper function allows to generate a random byte slice of n bytes.
func RandomBytes(n int) []byte {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

// RandomHex helper function allows to generate a random hex string of n bytes.
func RandomHex(n int) string {
	return fmt.Sprintf("%x", RandomBytes(n))
}

// RandomReference helper function allows to generate an uppercase random
// reference of n bytes, formatted like the PSP references of the providers.
func RandomReference(n int) string {
	return strings.ToUpper(RandomHex(n))
}
