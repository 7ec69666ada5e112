package appctx

import (
	"fmt"

	"github.com/traykit/tray/internal/idtype"
	"github.com/traykit/tray/internal/kernel"
)

// DefaultViewLayer names the view layer every new scene starts with.
const DefaultViewLayer = "ViewLayer"

// ViewLayer is a named view of a scene with its own active object.
type ViewLayer struct {
	Name   string
	Active kernel.Datablock
}

// Scene is the scene datablock. Refs hold the scene's user references.
type Scene struct {
	kernel.Block
	ViewLayers []*ViewLayer
}

func init() {
	kernel.RegisterType(idtype.Scene, kernel.TypeOps{
		New: func() kernel.Datablock { return &Scene{} },
		Init: func(db kernel.Datablock) {
			s := db.(*Scene)
			s.ViewLayers = []*ViewLayer{{Name: DefaultViewLayer}}
		},
		Copy: func(_ *kernel.Main, dst, src kernel.Datablock, _ kernel.CopyFlag) {
			d, s := dst.(*Scene), src.(*Scene)
			d.Refs = append([]kernel.Ref(nil), s.Refs...)
			d.ViewLayers = make([]*ViewLayer, len(s.ViewLayers))
			for i, vl := range s.ViewLayers {
				cp := *vl
				d.ViewLayers[i] = &cp
			}
		},
		Free: func(db kernel.Datablock) {
			s := db.(*Scene)
			s.Refs = nil
			s.ViewLayers = nil
		},
		ForeachID: func(db kernel.Datablock, visit kernel.SlotVisitor) {
			s := db.(*Scene)
			for i := range s.Refs {
				visit(&s.Refs[i].Target, s.Refs[i].Usage)
			}
			for _, vl := range s.ViewLayers {
				visit(&vl.Active, kernel.UsageNop)
			}
		},
	})
}

// AddScene creates a scene with the default view layer.
func AddScene(m *kernel.Main, name string) *Scene {
	return m.NewID(idtype.Scene, name).(*Scene)
}

// ViewLayer returns the named view layer, or nil.
func (s *Scene) ViewLayer(name string) *ViewLayer {
	for _, vl := range s.ViewLayers {
		if vl.Name == name {
			return vl
		}
	}
	return nil
}

// DefaultLayer returns the first view layer.
func (s *Scene) DefaultLayer() *ViewLayer {
	if len(s.ViewLayers) == 0 {
		return nil
	}
	return s.ViewLayers[0]
}

// AddViewLayer appends a view layer, making its name unique within s.
func (s *Scene) AddViewLayer(name string) *ViewLayer {
	base, n := name, 1
	for s.ViewLayer(name) != nil {
		name = fmt.Sprintf("%s.%03d", base, n)
		n++
	}
	vl := &ViewLayer{Name: name}
	s.ViewLayers = append(s.ViewLayers, vl)
	return vl
}
