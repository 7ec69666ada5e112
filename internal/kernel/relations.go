package kernel

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/traykit/tray/internal/core/session"
)

type RelationsFlag uint8

const (
	// RelationsIncludeUI also records references held by interface data.
	RelationsIncludeUI RelationsFlag = 1 << iota
)

// RelationsTag marks entries during graph algorithms run over the index.
type RelationsTag uint8

const (
	RelationsProcessed RelationsTag = 1 << iota
	RelationsInProgress
)

// RelationItem is one edge. For "to" edges ID is the referenced Id; for
// "from" edges it is the referencing Id. SessionUUID is ID's uuid when the
// index was built.
type RelationItem struct {
	ID          Datablock
	Slot        *Datablock
	SessionUUID session.UUID
	Usage       Usage
}

// Stale reports whether the Id at the other end was renewed, replaced or
// freed since the index was built.
func (it *RelationItem) Stale() bool {
	return it.ID.Header().sessionUUID != it.SessionUUID
}

// RelationsEntry holds the edges of one Id in walk order.
type RelationsEntry struct {
	ID          Datablock
	SessionUUID session.UUID
	To          []*RelationItem
	From        []*RelationItem
	Tags        RelationsTag
}

// Relations is a snapshot of the reference graph of Main. It is not kept
// up to date; rebuild it after changing Main.
type Relations struct {
	entries *orderedmap.OrderedMap[session.UUID, *RelationsEntry]
	flag    RelationsFlag
}

// BuildRelations discards any existing index and records every reference
// slot of every Id in Main, in both directions. References to Ids outside
// Main are kept as "to" edges only.
func (m *Main) BuildRelations(flag RelationsFlag) *Relations {
	m.FreeRelations()
	r := &Relations{
		entries: orderedmap.New[session.UUID, *RelationsEntry](),
		flag:    flag,
	}
	walk := WalkReadOnly
	if flag&RelationsIncludeUI != 0 {
		walk |= WalkIncludeUI
	}
	m.EachID(func(db Datablock) bool {
		self := r.ensure(db)
		m.walker.ForeachID(db, walk, func(ld *LinkData) {
			target := *ld.Slot
			if target == nil {
				return
			}
			tid := target.Header()
			self.To = append(self.To, &RelationItem{
				ID:          target,
				Slot:        ld.Slot,
				SessionUUID: tid.sessionUUID,
				Usage:       ld.Usage,
			})
			if !tid.InMain() {
				return
			}
			te := r.ensure(target)
			te.From = append(te.From, &RelationItem{
				ID:          db,
				Slot:        ld.Slot,
				SessionUUID: self.SessionUUID,
				Usage:       ld.Usage,
			})
		})
		return true
	})
	m.relations = r
	return r
}

func (r *Relations) ensure(db Datablock) *RelationsEntry {
	id := db.Header()
	if e, ok := r.entries.Get(id.sessionUUID); ok {
		return e
	}
	e := &RelationsEntry{ID: db, SessionUUID: id.sessionUUID}
	r.entries.Set(id.sessionUUID, e)
	return e
}

// Relations returns the current index, or nil.
func (m *Main) Relations() *Relations { return m.relations }

// FreeRelations drops the index. Entries obtained from it must not be used
// afterwards.
func (m *Main) FreeRelations() {
	m.relations = nil
}

// RelationsTagSet sets or clears tag on every entry. No-op without an index.
func (m *Main) RelationsTagSet(tag RelationsTag, set bool) {
	if m.relations == nil {
		return
	}
	for p := m.relations.entries.Oldest(); p != nil; p = p.Next() {
		if set {
			p.Value.Tags |= tag
		} else {
			p.Value.Tags &^= tag
		}
	}
}

func (r *Relations) Flag() RelationsFlag { return r.flag }
func (r *Relations) Len() int            { return r.entries.Len() }

// Entry returns the entry of db, if db was indexed under its current uuid.
func (r *Relations) Entry(db Datablock) (*RelationsEntry, bool) {
	e, ok := r.entries.Get(db.Header().sessionUUID)
	if !ok || e.ID != db {
		return nil, false
	}
	return e, true
}

func (r *Relations) EntryByUUID(u session.UUID) (*RelationsEntry, bool) {
	return r.entries.Get(u)
}

// Each visits entries in build order until fn returns false.
func (r *Relations) Each(fn func(*RelationsEntry) bool) {
	for p := r.entries.Oldest(); p != nil; p = p.Next() {
		if !fn(p.Value) {
			return
		}
	}
}
