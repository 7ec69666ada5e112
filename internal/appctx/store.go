package appctx

// StoreEntry binds a member name to a value.
type StoreEntry struct {
	Name string
	Ptr  any
}

// Store holds member overrides consulted before any UI handler. Later
// entries shadow earlier ones with the same name.
type Store struct {
	Entries []StoreEntry
	used    bool
}

// Lookup returns the most recent entry for name.
func (s *Store) Lookup(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	for i := len(s.Entries) - 1; i >= 0; i-- {
		if s.Entries[i].Name == name {
			return s.Entries[i].Ptr, true
		}
	}
	return nil, false
}

// MarkUsed freezes s: the next addition to its stack copies it first.
func (s *Store) MarkUsed() { s.used = true }

func (s *Store) Used() bool { return s.used }

// Copy returns an unused copy of s.
func (s *Store) Copy() *Store {
	return &Store{Entries: append([]StoreEntry(nil), s.Entries...)}
}

// Stores is a stack of stores built up while laying out nested UI.
type Stores []*Store

// last returns a store that may be written, appending a copy of the top
// store when it has been used.
func (st *Stores) last() *Store {
	var top *Store
	if n := len(*st); n > 0 {
		top = (*st)[n-1]
	}
	if top != nil && !top.used {
		return top
	}
	if top != nil {
		top = top.Copy()
	} else {
		top = &Store{}
	}
	*st = append(*st, top)
	return top
}

// Add records name in the top store and returns it.
func (st *Stores) Add(name string, ptr any) *Store {
	s := st.last()
	s.Entries = append(s.Entries, StoreEntry{Name: name, Ptr: ptr})
	return s
}

// AddAll appends every entry of src to the top store and returns it.
func (st *Stores) AddAll(src *Store) *Store {
	s := st.last()
	s.Entries = append(s.Entries, src.Entries...)
	return s
}

// Free drops every store.
func (st *Stores) Free() { *st = nil }
