// Package kernel implements Main, the in-memory registry of datablocks, and
// the derived indexes built over it.
package kernel

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/traykit/tray/internal/core/event"
	"github.com/traykit/tray/internal/core/session"
	"github.com/traykit/tray/internal/idtype"
)

// Main owns every datablock of one file, one collection per type.
//
// The mutex is advisory: callers hold it across structural changes. No
// method takes it on its own.
type Main struct {
	mu          sync.Mutex
	collections [idtype.IndexMax]*Collection

	types  *idtype.Table
	uuids  *session.Generator
	walker Walker
	bus    *event.Bus
	log    *zap.Logger

	relations *Relations
	idMap     *IDMap
	weakRefs  *WeakRefDirectory
	thumb     *Thumbnail
	filepath  string

	deleteQueue []Datablock
	freed       bool
}

type Option func(*Main)

func WithLogger(log *zap.Logger) Option {
	return func(m *Main) {
		if log != nil {
			m.log = log
		}
	}
}

// WithTypes replaces the embedded type metadata table.
func WithTypes(t *idtype.Table) Option {
	return func(m *Main) { m.types = t }
}

// WithBus sends IDAdded, IDFreed and IDRenamed events to b.
func WithBus(b *event.Bus) Option {
	return func(m *Main) { m.bus = b }
}

// WithWalker replaces the reference walker used by relations, user
// counting and duplication.
func WithWalker(w Walker) Option {
	return func(m *Main) { m.walker = w }
}

// New returns an empty registry.
func New(opts ...Option) *Main {
	m := &Main{
		types:  idtype.Default(),
		uuids:  session.NewGenerator(),
		walker: DefaultWalker,
		log:    zap.NewNop(),
	}
	for i := range m.collections {
		m.collections[i] = newCollection(idtype.At(idtype.Index(i)))
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Free releases every datablock, then the derived indexes. Per-Id user
// counting and notifications are skipped. Types are freed in reverse
// iteration order so dependents go before what they use.
func (m *Main) Free() {
	if m.freed {
		panic("kernel: Main freed twice")
	}
	const bulk = FreeNoMain | FreeNoUserRefcount | FreeNoDepsgraphTag | FreeNoUINotify
	n := 0
	for i := len(m.collections) - 1; i >= 0; i-- {
		c := m.collections[i]
		for e := c.ids.Front(); e != nil; e = e.Next() {
			m.FreeIDEx(e.Value, bulk)
			e.Value.Header().elem = nil
			n++
		}
		c.ids.Init()
	}
	m.FreeRelations()
	m.IDMapDestroy()
	m.weakRefs = nil
	m.thumb = nil
	m.deleteQueue = nil
	m.freed = true
	m.log.Debug("main freed", zap.Int("ids", n))
}

// IsEmpty reports whether no collection holds an Id.
func (m *Main) IsEmpty() bool {
	for _, c := range m.collections {
		if c.ids.Len() > 0 {
			return false
		}
	}
	return true
}

func (m *Main) Lock()         { m.mu.Lock() }
func (m *Main) Unlock()       { m.mu.Unlock() }
func (m *Main) TryLock() bool { return m.mu.TryLock() }

func (m *Main) Types() *idtype.Table { return m.types }
func (m *Main) Log() *zap.Logger     { return m.log }

func (m *Main) Filepath() string        { return m.filepath }
func (m *Main) SetFilepath(path string) { m.filepath = path }

// Collection returns the collection holding Ids of type code. Every code
// maps to its own collection; unknown codes panic.
func (m *Main) Collection(code idtype.Code) *Collection {
	return m.collections[code.Index()]
}

// Collections returns all collections in iteration order.
func (m *Main) Collections() [idtype.IndexMax]*Collection {
	return m.collections
}

// EachID calls fn for every Id, collection by collection in iteration
// order, until fn returns false.
func (m *Main) EachID(fn func(Datablock) bool) {
	for _, c := range m.collections {
		if !c.Each(fn) {
			return
		}
	}
}

// Count returns the number of Ids over all collections.
func (m *Main) Count() int {
	n := 0
	for _, c := range m.collections {
		n += c.ids.Len()
	}
	return n
}

func (m *Main) Libraries() *Collection      { return m.Collection(idtype.Library) }
func (m *Main) Scenes() *Collection         { return m.Collection(idtype.Scene) }
func (m *Main) Objects() *Collection        { return m.Collection(idtype.Object) }
func (m *Main) Texts() *Collection          { return m.Collection(idtype.Text) }
func (m *Main) Screens() *Collection        { return m.Collection(idtype.Screen) }
func (m *Main) WorkSpaces() *Collection     { return m.Collection(idtype.WorkSpace) }
func (m *Main) WindowManagers() *Collection { return m.Collection(idtype.WindowManager) }

// ResetSession restarts session uuid allocation. Only meaningful on an
// empty registry, e.g. before reading a file.
func (m *Main) ResetSession() {
	m.uuids.Reset()
}

// PathBase returns the file relative ("//") paths of db resolve against:
// its library file when linked, otherwise the registry file.
func (m *Main) PathBase(db Datablock) string {
	if lib := db.Header().Lib; lib != nil {
		return lib.Filepath
	}
	return m.filepath
}

// ThumbSize is the edge length of a file thumbnail.
const ThumbSize = 128

// Thumbnail is a small RGBA preview of the file.
type Thumbnail struct {
	Width, Height int
	RGBA          []byte
}

// ThumbnailCreate installs a blank ThumbSize x ThumbSize thumbnail.
func (m *Main) ThumbnailCreate() *Thumbnail {
	m.thumb = &Thumbnail{
		Width:  ThumbSize,
		Height: ThumbSize,
		RGBA:   make([]byte, ThumbSize*ThumbSize*4),
	}
	return m.thumb
}

// SetThumbnail copies an RGBA image into the registry thumbnail.
func (m *Main) SetThumbnail(w, h int, rgba []byte) error {
	if w <= 0 || h <= 0 || len(rgba) != w*h*4 {
		return fmt.Errorf("kernel: thumbnail %dx%d needs %d bytes, got %d", w, h, w*h*4, len(rgba))
	}
	m.thumb = &Thumbnail{Width: w, Height: h, RGBA: append([]byte(nil), rgba...)}
	return nil
}

func (m *Main) Thumbnail() *Thumbnail { return m.thumb }

func (m *Main) checkLive() {
	if m.freed {
		panic("kernel: use of freed Main")
	}
}
