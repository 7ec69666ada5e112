// Package session allocates per-session datablock identifiers.
package session

// UUID identifies a datablock within one editing session. Zero means unset.
type UUID uint32

func (u UUID) IsZero() bool { return u == 0 }

// Generator hands out increasing UUIDs. It is not safe for concurrent use;
// callers hold the registry lock while allocating.
type Generator struct {
	last UUID
}

func NewGenerator() *Generator {
	return &Generator{}
}

// Next returns the next UUID, skipping zero when the counter wraps.
func (g *Generator) Next() UUID {
	g.last++
	if g.last == 0 {
		g.last++
	}
	return g.last
}

// Reset starts a new session. UUIDs already handed out may be reissued.
func (g *Generator) Reset() {
	g.last = 0
}

// Last returns the most recently issued UUID, or zero.
func (g *Generator) Last() UUID {
	return g.last
}
