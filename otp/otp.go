// Package otp generates one-time passcodes and normalizes the phone
// numbers they are issued to.
package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"
	"unicode"
)

// CodeLength is the number of digits in a generated passcode.
const CodeLength = 6

// TTL is how long an issued passcode stays valid.
const TTL = 10 * time.Minute

// ErrInvalidPhone is returned when a phone number cannot be normalized.
var ErrInvalidPhone = errors.New("invalid phone number format")

// GenerateCode returns a random 6-digit numeric code as a zero-padded
// string. Leading zeros are permitted.
func GenerateCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

// NormalizePhone strips every non-digit character from raw, requires the
// result to contain 10 to 15 digits, and returns it prefixed with '+'.
func NormalizePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	cleaned := digits.String()
	if len(cleaned) < 10 || len(cleaned) > 15 {
		return "", ErrInvalidPhone
	}

	return "+" + cleaned, nil
}
