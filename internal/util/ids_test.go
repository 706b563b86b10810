package util

import (
	"strings"
	"testing"
)

func TestNewRunID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := NewRunID()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(id, "run_") {
			t.Fatalf("expected run_ prefix, got %q", id)
		}
		if len(id) != len("run_")+12 {
			t.Fatalf("unexpected id length: %q", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNewCorrelationID(t *testing.T) {
	id, err := NewCorrelationID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(id) != 16 {
		t.Fatalf("expected 16 characters, got %q", id)
	}
	for _, r := range id {
		if !strings.ContainsRune(idAlphabet, r) {
			t.Fatalf("id %q contains rune outside alphabet", id)
		}
	}
}
