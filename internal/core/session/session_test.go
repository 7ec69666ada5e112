package session

import (
	"math"
	"testing"
)

func TestGeneratorMonotonic(t *testing.T) {
	g := NewGenerator()
	prev := g.Next()
	if prev != 1 {
		t.Fatalf("first uuid = %d, want 1", prev)
	}
	for i := 0; i < 100; i++ {
		u := g.Next()
		if u <= prev {
			t.Fatalf("uuid %d not greater than %d", u, prev)
		}
		prev = u
	}
}

func TestGeneratorWrapSkipsZero(t *testing.T) {
	g := &Generator{last: math.MaxUint32}
	if u := g.Next(); u != 1 {
		t.Errorf("after wrap got %d, want 1", u)
	}
}

func TestGeneratorReset(t *testing.T) {
	g := NewGenerator()
	g.Next()
	g.Next()
	g.Reset()
	if g.Last() != 0 || !g.Last().IsZero() {
		t.Errorf("Last after reset = %d", g.Last())
	}
	if u := g.Next(); u != 1 {
		t.Errorf("first uuid after reset = %d", u)
	}
}
