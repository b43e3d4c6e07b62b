package diag

import "testing"

func TestRingLastEmpty(t *testing.T) {
	r := NewRing()
	if r.Last() != "" {
		t.Fatalf("expected empty ring to report \"\", got %q", r.Last())
	}
}

func TestRingLastReturnsMostRecent(t *testing.T) {
	r := NewRing()
	r.Push("a")
	r.Push("b")
	if got := r.Last(); got != "b" {
		t.Fatalf("expected \"b\", got %q", got)
	}
}

func TestRingWrapsAfterCapacity(t *testing.T) {
	r := NewRing()
	for i := 0; i < ringCapacity+5; i++ {
		r.Push(string(rune('a' + i%26)))
	}
	all := r.All()
	if len(all) != ringCapacity {
		t.Fatalf("expected ring capped at %d entries, got %d", ringCapacity, len(all))
	}
}
