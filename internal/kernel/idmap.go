package kernel

import (
	"github.com/traykit/tray/internal/core/session"
	"github.com/traykit/tray/internal/idtype"
)

type nameKey struct {
	code idtype.Code
	name string
	lib  *Library
}

// IDMap indexes Main by name and by session uuid. Main keeps it current
// while it exists.
type IDMap struct {
	byName map[nameKey]Datablock
	byUUID map[session.UUID]Datablock
}

// IDMapCreate builds the map from the current contents of Main.
func (m *Main) IDMapCreate() *IDMap {
	im := &IDMap{
		byName: make(map[nameKey]Datablock, 256),
		byUUID: make(map[session.UUID]Datablock, 256),
	}
	m.EachID(func(db Datablock) bool {
		im.add(db)
		return true
	})
	m.idMap = im
	return im
}

func (m *Main) IDMap() *IDMap { return m.idMap }

func (m *Main) IDMapDestroy() { m.idMap = nil }

func (im *IDMap) add(db Datablock) {
	id := db.Header()
	im.byName[nameKey{id.code, id.name, id.Lib}] = db
	im.byUUID[id.sessionUUID] = db
}

func (im *IDMap) remove(db Datablock) {
	id := db.Header()
	k := nameKey{id.code, id.name, id.Lib}
	if im.byName[k] == db {
		delete(im.byName, k)
	}
	if im.byUUID[id.sessionUUID] == db {
		delete(im.byUUID, id.sessionUUID)
	}
}

// LookupName finds an Id by type, name and library (nil for local data).
func (im *IDMap) LookupName(code idtype.Code, name string, lib *Library) Datablock {
	return im.byName[nameKey{code, name, lib}]
}

func (im *IDMap) LookupUUID(u session.UUID) Datablock {
	return im.byUUID[u]
}

func (im *IDMap) Len() int { return len(im.byUUID) }
