package kernel

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/traykit/tray/internal/core/event"
	"github.com/traykit/tray/internal/idtype"
)

type CreateFlag uint8

const (
	// CreateNoMain keeps the new Id out of Main.
	CreateNoMain CreateFlag = 1 << iota
	// CreateNoUserRefcount leaves the new Id with zero users.
	CreateNoUserRefcount
)

type CopyFlag uint8

const (
	CopyNoMain CopyFlag = 1 << iota
	// CopyNoUserRefcount doesn't add users to the Ids the copy references.
	CopyNoUserRefcount
)

type FreeFlag uint8

const (
	// FreeNoMain leaves removal from Main to the caller.
	FreeNoMain FreeFlag = 1 << iota
	// FreeNoUserRefcount doesn't release users held on referenced Ids.
	FreeNoUserRefcount
	FreeNoDepsgraphTag
	// FreeNoUINotify suppresses the IDFreed event.
	FreeNoUINotify
)

// AllocID allocates a zeroed datablock of type code. Unless CreateNoMain is
// set it is added to Main under a unique version of name; an empty name
// takes the type's default name.
func (m *Main) AllocID(code idtype.Code, name string, flag CreateFlag) Datablock {
	m.checkLive()
	if name == "" {
		name = m.types.Info(code).DefaultName
	}
	db := opsFor(code).New()
	id := db.Header()
	id.code = code
	id.name = truncateName(name, MaxNameLen)
	if flag&CreateNoUserRefcount == 0 {
		id.users = 1
	}
	if flag&CreateNoMain == 0 {
		m.AddToMain(db)
	}
	return db
}

// NewID allocates a datablock in Main and runs its type initialisation.
func (m *Main) NewID(code idtype.Code, name string) Datablock {
	db := m.AllocID(code, name, 0)
	if ops := opsFor(code); ops.Init != nil {
		ops.Init(db)
	}
	return db
}

// AddToMain stores a datablock allocated with CreateNoMain, renaming it if
// its name is taken, and gives it a session uuid.
func (m *Main) AddToMain(db Datablock) {
	m.checkLive()
	id := db.Header()
	if id.elem != nil {
		panic(fmt.Sprintf("kernel: %s is already in Main", id.PrefixedName()))
	}
	if id.Flag&FlagEmbedded != 0 {
		panic(fmt.Sprintf("kernel: embedded %s cannot be stored in Main", id.PrefixedName()))
	}
	c := m.Collection(id.code)
	id.name = c.uniqueName(id.name, db, id.Lib)
	id.sessionUUID = m.uuids.Next()
	c.insertSorted(db)
	if m.idMap != nil {
		m.idMap.add(db)
	}
	event.Emit(m.bus, event.IDAdded{Code: id.code, Name: id.name, SessionUUID: id.sessionUUID})
}

// RenewSessionUUID gives db a fresh session uuid. Relation items recorded
// before the renewal become stale.
func (m *Main) RenewSessionUUID(db Datablock) {
	id := db.Header()
	if m.idMap != nil {
		m.idMap.remove(db)
	}
	id.sessionUUID = m.uuids.Next()
	if m.idMap != nil && id.elem != nil {
		m.idMap.add(db)
	}
}

// CopyID makes a shallow copy of src: the copy shares src's references
// and, unless CopyNoUserRefcount is set, adds a user to each of them.
// Types flagged no_copy return nil.
func (m *Main) CopyID(src Datablock, flag CopyFlag) Datablock {
	sid := src.Header()
	if m.types.Info(sid.code).Flags&idtype.FlagNoCopy != 0 {
		return nil
	}
	var cf CreateFlag
	if flag&CopyNoMain != 0 {
		cf |= CreateNoMain
	}
	// Copies are local; the type data is filled in before the copy joins Main.
	dst := m.AllocID(sid.code, sid.name, cf|CreateNoMain)
	did := dst.Header()
	did.Flag = sid.Flag & FlagEmbedded
	if ops := opsFor(sid.code); ops.Copy != nil {
		ops.Copy(m, dst, src, flag)
	}
	if flag&CopyNoUserRefcount == 0 {
		m.walker.ForeachID(dst, WalkReadOnly, func(ld *LinkData) {
			if *ld.Slot != nil && ld.Usage&UsageUser != 0 {
				m.UsPlus(*ld.Slot)
			}
		})
	}
	if cf&CreateNoMain == 0 {
		m.AddToMain(dst)
	}
	did.Tag |= TagNew
	return dst
}

// Duplicate copies src into Main. In deep mode every Id reachable through
// user references is copied as well and the copies reference each other;
// Ids whose type can't be copied stay shared.
func (m *Main) Duplicate(src Datablock, deep bool) Datablock {
	dst, _ := m.duplicate(src, deep, make(map[Datablock]Datablock))
	return dst
}

func (m *Main) duplicate(src Datablock, deep bool, remap map[Datablock]Datablock) (Datablock, bool) {
	if d, ok := remap[src]; ok {
		return d, false
	}
	dst := m.CopyID(src, 0)
	if dst == nil {
		remap[src] = src
		return src, false
	}
	remap[src] = dst
	if !deep {
		return dst, true
	}
	m.walker.ForeachID(dst, 0, func(ld *LinkData) {
		target := *ld.Slot
		if target == nil || ld.Usage&UsageUser == 0 || ld.Usage&UsageLoopback != 0 {
			return
		}
		nt, created := m.duplicate(target, deep, remap)
		if nt == target {
			return
		}
		m.UsMin(target)
		*ld.Slot = nt
		// A fresh copy's creation user becomes this reference.
		if !created {
			m.UsPlus(nt)
		}
	})
	return dst, true
}

// FreeID removes db from Main and frees it, releasing users it holds on
// the Ids it references.
func (m *Main) FreeID(db Datablock) {
	m.FreeIDEx(db, 0)
}

func (m *Main) FreeIDEx(db Datablock, flag FreeFlag) {
	id := db.Header()
	if flag&FreeNoUserRefcount == 0 {
		m.walker.ForeachID(db, WalkReadOnly, func(ld *LinkData) {
			if *ld.Slot != nil && ld.Usage&UsageUser != 0 {
				m.UsMin(*ld.Slot)
			}
		})
	}
	if ops := opsFor(id.code); ops.Free != nil {
		ops.Free(db)
	}
	if flag&FreeNoMain == 0 && id.elem != nil {
		if m.idMap != nil {
			m.idMap.remove(db)
		}
		m.Collection(id.code).remove(db)
	}
	if flag&FreeNoUINotify == 0 {
		event.Emit(m.bus, event.IDFreed{Code: id.code, Name: id.name, SessionUUID: id.sessionUUID})
	}
	id.weakRef = nil
	id.users = 0
	// A freed Id no longer answers to its session uuid; relation edges
	// recorded against it report stale.
	id.sessionUUID = 0
}

// UsPlus adds a user to db.
func (m *Main) UsPlus(db Datablock) {
	db.Header().users++
}

// UsMin removes a user from db. A fake user is never removed this way;
// decrementing below that floor is logged and clamped.
func (m *Main) UsMin(db Datablock) {
	id := db.Header()
	limit := 0
	if id.HasFakeUser() {
		limit = 1
	}
	if id.users <= limit {
		m.log.Warn("id user decrement error",
			zap.String("id", id.PrefixedName()),
			zap.Int("users", id.users),
			zap.Int("limit", limit))
		id.users = limit
		return
	}
	id.users--
}

// FakeUserSet protects db from being dropped at save time by adding a
// permanent user.
func (m *Main) FakeUserSet(db Datablock) {
	id := db.Header()
	if id.Flag&FlagFakeUser == 0 {
		id.Flag |= FlagFakeUser
		m.UsPlus(db)
	}
}

func (m *Main) FakeUserClear(db Datablock) {
	id := db.Header()
	if id.Flag&FlagFakeUser != 0 {
		id.Flag &^= FlagFakeUser
		m.UsMin(db)
	}
}

// Rename gives db a unique version of name and returns it.
func (m *Main) Rename(db Datablock, name string) string {
	id := db.Header()
	if name == "" {
		name = m.types.Info(id.code).DefaultName
	}
	old := id.name
	if id.elem == nil {
		id.name = truncateName(name, MaxNameLen)
		return id.name
	}
	c := m.Collection(id.code)
	name = c.uniqueName(name, db, id.Lib)
	if name == old {
		return old
	}
	if m.idMap != nil {
		m.idMap.remove(db)
	}
	id.name = name
	c.resort(db)
	if m.idMap != nil {
		m.idMap.add(db)
	}
	event.Emit(m.bus, event.IDRenamed{Code: id.code, OldName: old, NewName: name, SessionUUID: id.sessionUUID})
	return name
}

// FindName returns the local Id of type code named name, or nil.
func (m *Main) FindName(code idtype.Code, name string) Datablock {
	if m.idMap != nil {
		return m.idMap.LookupName(code, name, nil)
	}
	return m.Collection(code).Find(name, nil)
}

// AddRef appends a reference slot to b, adding a user to target for
// UsageUser references.
func (m *Main) AddRef(b *Block, target Datablock, usage Usage) {
	b.Refs = append(b.Refs, Ref{Target: target, Usage: usage})
	if target != nil && usage&UsageUser != 0 {
		m.UsPlus(target)
	}
}

// TagForDelete queues db for the next DeleteTagged.
func (m *Main) TagForDelete(db Datablock) {
	id := db.Header()
	if id.Tag&TagDoit != 0 {
		return
	}
	id.Tag |= TagDoit
	m.deleteQueue = append(m.deleteQueue, db)
}

// DeleteTagged frees every queued Id in one pass. References from
// surviving Ids to deleted ones are cleared. It returns the number freed.
func (m *Main) DeleteTagged() int {
	if len(m.deleteQueue) == 0 {
		return 0
	}
	doomed := func(db Datablock) bool { return db != nil && db.Header().Tag&TagDoit != 0 }

	m.EachID(func(db Datablock) bool {
		if doomed(db) {
			return true
		}
		m.walker.ForeachID(db, WalkIncludeUI, func(ld *LinkData) {
			if doomed(*ld.Slot) {
				*ld.Slot = nil
			}
		})
		return true
	})

	n := 0
	for i := len(m.collections) - 1; i >= 0; i-- {
		m.collections[i].Each(func(db Datablock) bool {
			if !doomed(db) {
				return true
			}
			m.walker.ForeachID(db, WalkReadOnly, func(ld *LinkData) {
				if t := *ld.Slot; t != nil && !doomed(t) && ld.Usage&UsageUser != 0 {
					m.UsMin(t)
				}
			})
			m.FreeIDEx(db, FreeNoUserRefcount)
			db.Header().Tag &^= TagDoit
			n++
			return true
		})
	}
	// Queued Ids that were not in Main are dropped without freeing.
	for _, db := range m.deleteQueue {
		db.Header().Tag &^= TagDoit
	}
	m.deleteQueue = m.deleteQueue[:0]
	return n
}
