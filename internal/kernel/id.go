package kernel

import (
	list "github.com/bahlo/generic-list-go"

	"github.com/traykit/tray/internal/core/session"
	"github.com/traykit/tray/internal/idtype"
)

// MaxNameLen is the longest Id name in bytes, excluding the type prefix.
const MaxNameLen = 63

type IDFlag uint16

const (
	FlagFakeUser IDFlag = 1 << iota
	// FlagEmbedded marks data owned by another Id and never stored in Main.
	FlagEmbedded
)

// Tag holds runtime-only marks, cleared freely by algorithms.
type Tag uint32

const (
	TagDoit Tag = 1 << iota
	TagNew
	TagMissing
)

// WeakRef names the library datablock an Id was appended from.
type WeakRef struct {
	LibraryFilepath string
	LibraryIDName   string // prefixed with the two-letter type code
}

// ID is the header shared by every datablock. Datablock types embed it.
type ID struct {
	code        idtype.Code
	name        string
	sessionUUID session.UUID
	users       int
	Flag        IDFlag
	Tag         Tag
	// Lib is set when the Id is linked from an external library file.
	Lib     *Library
	weakRef *WeakRef

	elem *list.Element[Datablock]
}

// Datablock is implemented by every type stored in Main. Embedding ID
// provides it.
type Datablock interface {
	Header() *ID
}

func (id *ID) Header() *ID { return id }

func (id *ID) Code() idtype.Code { return id.code }
func (id *ID) Name() string      { return id.name }

// PrefixedName returns the name preceded by the type code, e.g. "TXscript.py".
func (id *ID) PrefixedName() string { return id.code.String() + id.name }

func (id *ID) SessionUUID() session.UUID { return id.sessionUUID }
func (id *ID) Users() int                { return id.users }
func (id *ID) HasFakeUser() bool         { return id.Flag&FlagFakeUser != 0 }
func (id *ID) IsLinked() bool            { return id.Lib != nil }

// InMain reports whether the Id is currently stored in a collection.
func (id *ID) InMain() bool { return id.elem != nil }

// WeakRef returns the Id's weak reference descriptor, or nil.
func (id *ID) WeakRef() *WeakRef { return id.weakRef }

// Library is a linked external file. Ids with Lib set come from it.
type Library struct {
	ID
	Filepath string
}

// Usage describes how a reference slot uses its target.
type Usage uint16

const (
	// UsageUser references hold a user on their target.
	UsageUser Usage = 1 << iota
	UsageReadOnly
	// UsageUI references come from interface data and are skipped unless
	// a walk asks for them.
	UsageUI
	UsageEmbedded
	// UsageLoopback points back at an owner, e.g. a shape key to its mesh.
	UsageLoopback

	UsageNop Usage = 0
)

// Ref is one reference slot of a Block.
type Ref struct {
	Target Datablock
	Usage  Usage
}

// Block is the datablock used by types without their own Go struct. Its
// references are plain slots.
type Block struct {
	ID
	Refs []Ref
}
