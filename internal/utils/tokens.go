package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strings"
)

// NewToken returns nBytes of randomness hex-encoded (32 bytes when nBytes <= 0).
func NewToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewNumericCode returns a random decimal code of exactly length digits,
// leading zeros included.
func NewNumericCode(length int) (string, error) {
	if length <= 0 {
		length = 4
	}
	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}
