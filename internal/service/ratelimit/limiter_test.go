package ratelimit

import "testing"

func TestAllowConsumesTokens(t *testing.T) {
	l := New()
	// Capacity 2 with no meaningful refill inside the test window.
	if !l.Allow("k", 2, 0.001) {
		t.Fatal("first request denied")
	}
	if !l.Allow("k", 2, 0.001) {
		t.Fatal("second request denied")
	}
	if l.Allow("k", 2, 0.001) {
		t.Fatal("third request allowed past capacity")
	}
}

func TestAllowIsolatesKeys(t *testing.T) {
	l := New()
	if !l.Allow("a", 1, 0.001) {
		t.Fatal("key a denied")
	}
	if l.Allow("a", 1, 0.001) {
		t.Fatal("key a over capacity")
	}
	if !l.Allow("b", 1, 0.001) {
		t.Fatal("key b starved by key a")
	}
}
