// Package address canonicalizes owner identities. The protocol keys every
// owner-scoped record by a 28-byte payment credential; callers may supply it
// as raw hex, as a bech32 payment address or as a hex-encoded address, and
// all three must normalize to the same canonical value before any record
// filter runs.
package address

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// CredentialLen is the payment credential size in bytes (a blake2b-224 hash).
const CredentialLen = 28

// InvalidError reports a selector that failed canonicalization. It is raised
// before any network call is made.
type InvalidError struct {
	Input  string
	Reason string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("invalid owner selector %q: %s", e.Input, e.Reason)
}

// Canonical normalizes an owner selector to the lowercase 56-hex payment
// credential. Accepted forms:
//
//   - raw credential: 56 hex characters
//   - bech32 payment address: addr1... / addr_test1...
//   - hex address: header byte + payment credential (+ optional stake part)
func Canonical(owner string) (string, error) {
	s := strings.TrimSpace(owner)
	if s == "" {
		return "", &InvalidError{Input: owner, Reason: "empty"}
	}

	if strings.HasPrefix(s, "addr1") || strings.HasPrefix(s, "addr_test1") {
		raw, err := decodeBech32Address(s)
		if err != nil {
			return "", &InvalidError{Input: owner, Reason: err.Error()}
		}
		return credentialFromAddressBytes(owner, raw)
	}

	if !isHex(s) {
		return "", &InvalidError{Input: owner, Reason: "no recognized prefix and not hex"}
	}

	// Raw credential form.
	if len(s) == CredentialLen*2 {
		return strings.ToLower(s), nil
	}

	// Hex address form: one header byte then the payment credential.
	raw, err := hex.DecodeString(s)
	if err != nil {
		return "", &InvalidError{Input: owner, Reason: "malformed hex"}
	}
	return credentialFromAddressBytes(owner, raw)
}

// credentialFromAddressBytes extracts the payment credential from a decoded
// address. Byte 0 is the header (address type in the high nibble, network in
// the low nibble); bytes 1..29 are the payment credential.
func credentialFromAddressBytes(input string, raw []byte) (string, error) {
	if len(raw) < 1+CredentialLen {
		return "", &InvalidError{Input: input, Reason: fmt.Sprintf("address too short: %d bytes", len(raw))}
	}
	header := raw[0]
	// Address types 0-7 carry a payment credential first. Reward (stake)
	// addresses and byron addresses are not valid owner selectors here.
	if header>>4 > 7 {
		return "", &InvalidError{Input: input, Reason: "not a payment address"}
	}
	return hex.EncodeToString(raw[1 : 1+CredentialLen]), nil
}

// IsCanonical reports whether s is already a canonical credential.
func IsCanonical(s string) bool {
	return len(s) == CredentialLen*2 && isHex(s) && s == strings.ToLower(s)
}

func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
