package ids

import (
	"strings"
	"testing"
)

func TestNewUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if len(id) != 32 {
			t.Fatalf("expected 32-char id, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("trip")
	if !strings.HasPrefix(id, "trip_") {
		t.Fatalf("expected trip_ prefix, got %q", id)
	}
	if len(id) != len("trip_")+32 {
		t.Fatalf("unexpected id length: %q", id)
	}
}
