package services

import "crypto/subtle"

// Authenticate reports whether the presented token matches the configured
// secret byte for byte. An absent header arrives as "" and an empty secret
// never authenticates.
func Authenticate(presented, expected string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
}
