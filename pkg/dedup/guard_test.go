package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_NormalizesWhitespaceAndCase(t *testing.T) {
	a := Fingerprint("Deploy   a Web\nApp")
	b := Fingerprint("deploy a web app")
	c := Fingerprint("deploy a web application")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestWindowGuard_RejectsWithinWindow(t *testing.T) {
	g := NewWindowGuard(time.Minute)
	fp := Fingerprint("same message")

	assert.True(t, g.ShouldAccept(fp))
	assert.False(t, g.ShouldAccept(fp))
	assert.True(t, g.ShouldAccept(Fingerprint("different message")))
}

func TestWindowGuard_AcceptsAfterExpiry(t *testing.T) {
	g := NewWindowGuard(20 * time.Millisecond)
	fp := Fingerprint("same message")

	assert.True(t, g.ShouldAccept(fp))
	time.Sleep(60 * time.Millisecond)
	assert.True(t, g.ShouldAccept(fp))
}

func TestNopGuard(t *testing.T) {
	var g DuplicateGuard = NopGuard{}
	fp := Fingerprint("anything")

	assert.True(t, g.ShouldAccept(fp))
	assert.True(t, g.ShouldAccept(fp))
}
