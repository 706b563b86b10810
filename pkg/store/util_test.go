package store

import (
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	var got [][2]int
	err := ChunkRange(10, 4, func(start, end int) error {
		got = append(got, [2]int{start, end})
		return nil
	})
	if err != nil {
		t.Fatalf("ChunkRange failed: %v", err)
	}
	want := [][2]int{{0, 4}, {4, 8}, {8, 10}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chunks = %v, want %v", got, want)
	}
}

func TestChunkRangeEmpty(t *testing.T) {
	called := false
	if err := ChunkRange(0, 4, func(int, int) error { called = true; return nil }); err != nil {
		t.Fatalf("ChunkRange failed: %v", err)
	}
	if called {
		t.Fatal("fn called for empty range")
	}
}

func TestDedupeStrings(t *testing.T) {
	got := DedupeStrings([]string{"lehman", "", "bear stearns", "lehman", "aig"})
	want := []string{"lehman", "bear stearns", "aig"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("DedupeStrings = %v, want %v", got, want)
	}
}
