package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 of value, or "" for an empty value.
func Fingerprint(value string) string {
	if value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

// FingerprintShort returns the first 8 hex characters of Fingerprint.
// Used for logging and display.
func FingerprintShort(value string) string {
	full := Fingerprint(value)
	if len(full) >= 8 {
		return full[:8]
	}
	return full
}
