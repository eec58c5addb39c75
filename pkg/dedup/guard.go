// Package dedup provides an injectable duplicate-send guard. The guard is a
// policy layer above the streaming core — swap in NopGuard to disable it
// (tests do).
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DuplicateGuard decides whether a message fingerprint should be accepted.
type DuplicateGuard interface {
	// ShouldAccept returns false when the fingerprint was already seen
	// within the guard's window. Accepting records the fingerprint.
	ShouldAccept(fingerprint string) bool
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fingerprint derives a content fingerprint for a message: whitespace and
// case differences do not defeat duplicate detection.
func Fingerprint(message string) string {
	sum := sha256.Sum256([]byte(normalizeText(message)))
	return hex.EncodeToString(sum[:])
}

// guardCacheSize bounds the fingerprint cache; old entries also expire by TTL.
const guardCacheSize = 1024

// WindowGuard rejects fingerprints seen within a time window.
type WindowGuard struct {
	seen *expirable.LRU[string, time.Time]
}

// NewWindowGuard creates a guard with the given rejection window.
func NewWindowGuard(window time.Duration) *WindowGuard {
	return &WindowGuard{
		seen: expirable.NewLRU[string, time.Time](guardCacheSize, nil, window),
	}
}

// ShouldAccept implements DuplicateGuard.
func (g *WindowGuard) ShouldAccept(fingerprint string) bool {
	if g.seen.Contains(fingerprint) {
		return false
	}
	g.seen.Add(fingerprint, time.Now())
	return true
}

// NopGuard accepts everything.
type NopGuard struct{}

// ShouldAccept implements DuplicateGuard.
func (NopGuard) ShouldAccept(string) bool { return true }
