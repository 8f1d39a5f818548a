package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// NormalizeDescription canonicalizes an element description for identity and
// cross-page similarity: lowercase, punctuation stripped, whitespace collapsed.
func NormalizeDescription(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// punctuation dropped
		}
	}

	return strings.TrimSpace(b.String())
}

// FindingID computes the stable finding identifier from normalized fields.
// Deterministic by construction: the same observation on the same page always
// hashes to the same ID.
func FindingID(ruleset Ruleset, ruleCode, description string, pageIndex int) string {
	h := sha256.New()
	h.Write([]byte(string(ruleset)))
	h.Write([]byte{'|'})
	h.Write([]byte(ruleCode))
	h.Write([]byte{'|'})
	h.Write([]byte(NormalizeDescription(description)))
	h.Write([]byte{'|'})
	h.Write([]byte{byte(pageIndex >> 24), byte(pageIndex >> 16), byte(pageIndex >> 8), byte(pageIndex)})
	return hex.EncodeToString(h.Sum(nil))[:16]
}
