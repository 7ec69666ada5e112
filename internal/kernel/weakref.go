package kernel

import (
	"fmt"

	"github.com/traykit/tray/internal/idtype"
)

type weakKey struct {
	path string
	name string
}

// WeakRefDirectory maps (library filepath, prefixed Id name) to the local
// Id currently standing for that library datablock. It assumes exclusive
// access. Precondition failures are programming errors and panic.
type WeakRefDirectory struct {
	entries map[weakKey]Datablock
	types   *idtype.Table
}

// WeakRefDirectoryCreate indexes every Id of a reusable linkable type that
// carries a weak reference.
func (m *Main) WeakRefDirectoryCreate() *WeakRefDirectory {
	d := &WeakRefDirectory{entries: make(map[weakKey]Datablock), types: m.types}
	for _, c := range m.collections {
		if !m.types.Info(c.code).ReusableLink() {
			continue
		}
		c.Each(func(db Datablock) bool {
			wr := db.Header().weakRef
			if wr == nil {
				return true
			}
			k := weakKey{wr.LibraryFilepath, wr.LibraryIDName}
			if _, dup := d.entries[k]; dup {
				panic(fmt.Sprintf("kernel: two Ids share weak reference %s in %s", k.name, k.path))
			}
			d.entries[k] = db
			return true
		})
	}
	m.weakRefs = d
	return d
}

// WeakRefDirectory returns the directory built by WeakRefDirectoryCreate,
// or nil.
func (m *Main) WeakRefDirectory() *WeakRefDirectory { return m.weakRefs }

func (m *Main) WeakRefDirectoryDestroy() { m.weakRefs = nil }

func (d *WeakRefDirectory) Len() int { return len(d.entries) }

// Lookup returns the Id standing for name in the library at path, or nil.
func (d *WeakRefDirectory) Lookup(path, name string) Datablock {
	return d.entries[weakKey{path, name}]
}

// Add records that db stands for name in the library at path. db's type
// must be one WeakRefDirectoryCreate indexes.
func (d *WeakRefDirectory) Add(path, name string, db Datablock) {
	id := db.Header()
	k := weakKey{path, name}
	switch {
	case idtype.PrefixOf(name) != id.code:
		panic(fmt.Sprintf("kernel: weak reference %s does not match %s", name, id.PrefixedName()))
	case !d.types.Info(id.code).ReusableLink():
		panic(fmt.Sprintf("kernel: %s cannot carry a weak reference", id.PrefixedName()))
	case id.weakRef != nil:
		panic(fmt.Sprintf("kernel: %s already has a weak reference", id.PrefixedName()))
	case d.entries[k] != nil:
		panic(fmt.Sprintf("kernel: weak reference %s in %s already taken", name, path))
	}
	id.weakRef = &WeakRef{LibraryFilepath: path, LibraryIDName: name}
	d.entries[k] = db
}

// Update moves the weak reference from oldDB to newDB.
func (d *WeakRefDirectory) Update(path, name string, oldDB, newDB Datablock) {
	oid, nid := oldDB.Header(), newDB.Header()
	k := weakKey{path, name}
	switch {
	case d.entries[k] != oldDB:
		panic(fmt.Sprintf("kernel: weak reference %s in %s is not held by %s", name, path, oid.PrefixedName()))
	case oid.weakRef == nil || oid.weakRef.LibraryFilepath != path || oid.weakRef.LibraryIDName != name:
		panic(fmt.Sprintf("kernel: %s does not carry weak reference %s", oid.PrefixedName(), name))
	case nid.weakRef != nil:
		panic(fmt.Sprintf("kernel: %s already has a weak reference", nid.PrefixedName()))
	case nid.code != oid.code:
		panic(fmt.Sprintf("kernel: cannot move weak reference from %s to %s", oid.PrefixedName(), nid.PrefixedName()))
	}
	nid.weakRef, oid.weakRef = oid.weakRef, nil
	d.entries[k] = newDB
}

// Remove drops the weak reference held by oldDB.
func (d *WeakRefDirectory) Remove(path, name string, oldDB Datablock) {
	k := weakKey{path, name}
	if d.entries[k] != oldDB {
		panic(fmt.Sprintf("kernel: weak reference %s in %s is not held by %s", name, path, oldDB.Header().PrefixedName()))
	}
	delete(d.entries, k)
	oldDB.Header().weakRef = nil
}
