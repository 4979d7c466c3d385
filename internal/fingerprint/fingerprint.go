// Package fingerprint derives the dedup key for a conversation transcript.
// The key is computed from the conversation text itself, never from the
// session id: duplicate session ids with different transcripts are allowed
// and produce distinct leads.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes conversation text so that trivially different
// encodings of the same conversation map to the same fingerprint: NFKC
// form, lowercased, runs of whitespace collapsed to single spaces.
func Normalize(text string) string {
	s := norm.NFKC.String(text)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// Fingerprint returns the SHA-256 hex digest of the normalized text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(Normalize(text)))
	return hex.EncodeToString(sum[:])
}
