package kernel

import (
	"fmt"

	"github.com/traykit/tray/internal/idtype"
)

// SlotVisitor receives one reference slot of a datablock.
type SlotVisitor func(slot *Datablock, usage Usage)

// TypeOps are the behaviour hooks of one datablock type. Nil hooks are
// skipped.
type TypeOps struct {
	// New allocates a zero datablock of the type.
	New func() Datablock
	// Init fills in type defaults after allocation.
	Init func(db Datablock)
	// Copy copies type data from src into the freshly allocated dst.
	Copy func(m *Main, dst, src Datablock, flag CopyFlag)
	// Free releases type data. The header stays valid.
	Free func(db Datablock)
	// ForeachID visits every reference slot the datablock owns.
	ForeachID func(db Datablock, visit SlotVisitor)
}

var typeOps [idtype.IndexMax]*TypeOps

// RegisterType installs the hooks for code. Intended for package init.
func RegisterType(code idtype.Code, ops TypeOps) {
	if ops.New == nil {
		panic(fmt.Sprintf("kernel: RegisterType(%s): New hook is required", code))
	}
	typeOps[code.Index()] = &ops
}

var blockOps = &TypeOps{
	New: func() Datablock { return &Block{} },
	Copy: func(_ *Main, dst, src Datablock, _ CopyFlag) {
		d, s := dst.(*Block), src.(*Block)
		d.Refs = append([]Ref(nil), s.Refs...)
	},
	Free: func(db Datablock) {
		db.(*Block).Refs = nil
	},
	ForeachID: func(db Datablock, visit SlotVisitor) {
		b := db.(*Block)
		for i := range b.Refs {
			visit(&b.Refs[i].Target, b.Refs[i].Usage)
		}
	},
}

var libraryOps = &TypeOps{
	New: func() Datablock { return &Library{} },
}

func opsFor(code idtype.Code) *TypeOps {
	if ops := typeOps[code.Index()]; ops != nil {
		return ops
	}
	if code == idtype.Library {
		return libraryOps
	}
	return blockOps
}
