package kernel

import (
	"testing"

	"github.com/traykit/tray/internal/idtype"
)

// graph builds a scene using an object using a mesh using a material, plus
// a screen that references the scene through interface data only.
func graph(t *testing.T) (m *Main, sce, ob, me, mat, scr *Block) {
	t.Helper()
	m = New()
	mat = newBlock(t, m, idtype.Material, "Mat")
	me = newBlock(t, m, idtype.Mesh, "Mesh")
	m.AddRef(me, mat, UsageUser)
	ob = newBlock(t, m, idtype.Object, "Cube")
	m.AddRef(ob, me, UsageUser)
	m.AddRef(ob, mat, UsageReadOnly)
	sce = newBlock(t, m, idtype.Scene, "Scene")
	m.AddRef(sce, ob, UsageUser)
	m.AddRef(sce, nil, UsageUser)
	scr = newBlock(t, m, idtype.Screen, "Layout")
	m.AddRef(scr, sce, UsageUI)
	return
}

func checkSymmetry(t *testing.T, m *Main, r *Relations) {
	t.Helper()
	r.Each(func(e *RelationsEntry) bool {
		for _, to := range e.To {
			if to.SessionUUID != to.ID.Header().SessionUUID() {
				t.Errorf("to-edge uuid snapshot mismatch")
			}
			te, ok := r.Entry(to.ID)
			if !ok {
				t.Errorf("%s has no entry", to.ID.Header().PrefixedName())
				continue
			}
			found := false
			for _, from := range te.From {
				if from.ID == e.ID && from.Usage == to.Usage && from.SessionUUID == e.ID.Header().SessionUUID() {
					found = true
				}
			}
			if !found {
				t.Errorf("edge %s -> %s has no mirror", e.ID.Header().PrefixedName(), to.ID.Header().PrefixedName())
			}
		}
		return true
	})
}

func TestBuildRelations(t *testing.T) {
	m, sce, ob, me, mat, scr := graph(t)
	r := m.BuildRelations(0)

	if r.Len() != m.Count() {
		t.Fatalf("entries = %d, Ids = %d", r.Len(), m.Count())
	}
	checkSymmetry(t, m, r)

	e, ok := r.Entry(ob)
	if !ok {
		t.Fatal("object has no entry")
	}
	if len(e.To) != 2 || e.To[0].ID != Datablock(me) || e.To[1].Usage != UsageReadOnly {
		t.Errorf("object to-edges = %+v", e.To)
	}
	if e, _ := r.Entry(mat); len(e.From) != 2 || len(e.To) != 0 {
		t.Errorf("material edges to=%d from=%d", len(e.To), len(e.From))
	}
	if e, _ := r.Entry(sce); len(e.To) != 1 {
		t.Errorf("nil slot recorded: %d to-edges", len(e.To))
	}
	if e, _ := r.Entry(scr); len(e.To) != 0 {
		t.Error("UI reference included without RelationsIncludeUI")
	}
	if e, _ := r.Entry(sce); len(e.From) != 0 {
		t.Error("scene has a from-edge from UI data")
	}

	ui := m.BuildRelations(RelationsIncludeUI)
	if m.Relations() != ui {
		t.Fatal("rebuild did not replace the index")
	}
	if e, _ := ui.Entry(scr); len(e.To) != 1 || e.To[0].Usage != UsageUI {
		t.Error("UI reference missing with RelationsIncludeUI")
	}
	checkSymmetry(t, m, ui)
}

func TestRelationsEntryForIsolatedId(t *testing.T) {
	m := New()
	cam := m.NewID(idtype.Camera, "Cam")
	r := m.BuildRelations(0)
	e, ok := r.Entry(cam)
	if !ok {
		t.Fatal("isolated Id has no entry")
	}
	if len(e.To)+len(e.From) != 0 {
		t.Error("isolated Id has edges")
	}
	if _, ok := r.EntryByUUID(cam.Header().SessionUUID()); !ok {
		t.Error("EntryByUUID failed")
	}
}

func TestRelationsTagAndFree(t *testing.T) {
	m, _, _, _, _, _ := graph(t)
	m.RelationsTagSet(RelationsProcessed, true) // no index: no-op
	r := m.BuildRelations(0)
	m.RelationsTagSet(RelationsProcessed, true)
	r.Each(func(e *RelationsEntry) bool {
		if e.Tags&RelationsProcessed == 0 {
			t.Error("entry not tagged")
		}
		return true
	})
	m.RelationsTagSet(RelationsProcessed, false)
	r.Each(func(e *RelationsEntry) bool {
		if e.Tags != 0 {
			t.Error("tag not cleared")
		}
		return true
	})
	m.FreeRelations()
	m.FreeRelations()
	if m.Relations() != nil {
		t.Error("index survived FreeRelations")
	}
}

func TestRelationsStaleness(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Main, me *Block)
	}{
		{"renew", func(m *Main, me *Block) { m.RenewSessionUUID(me) }},
		{"free", func(m *Main, me *Block) { m.FreeID(me) }},
		{"delete tagged", func(m *Main, me *Block) {
			m.TagForDelete(me)
			m.DeleteTagged()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, ob, me, _, _ := graph(t)
			r := m.BuildRelations(0)
			e, _ := r.Entry(ob)
			if e.To[0].ID != me || e.To[0].Stale() {
				t.Fatal("fresh edge to mesh reported stale")
			}
			if e.To[1].Stale() {
				t.Fatal("fresh edge to material reported stale")
			}
			tt.mutate(m, me)
			if !e.To[0].Stale() {
				t.Errorf("edge to mesh not stale, uuid %d", me.SessionUUID())
			}
			if e.To[1].Stale() {
				t.Error("edge to untouched material reported stale")
			}
			if _, ok := r.Entry(me); ok {
				t.Error("mesh still resolves to its old entry")
			}
		})
	}
}

func TestRelationsCustomWalker(t *testing.T) {
	var calls int
	var target Datablock
	w := WalkerFunc(func(db Datablock, flag WalkFlag, fn func(*LinkData)) {
		calls++
		if db.Header().Code() == idtype.Object && target != nil {
			fn(&LinkData{Self: db, Slot: &target, Usage: UsageUser})
		}
	})
	m := New(WithWalker(w))
	target = m.NewID(idtype.Camera, "Cam")
	ob := m.NewID(idtype.Object, "Rig")

	r := m.BuildRelations(0)
	if calls != 2 {
		t.Errorf("walker called %d times, want 2", calls)
	}
	e, _ := r.Entry(ob)
	if len(e.To) != 1 || e.To[0].ID != target {
		t.Errorf("custom walker edges = %+v", e.To)
	}
	checkSymmetry(t, m, r)
}
