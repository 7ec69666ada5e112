package kernel

import (
	"strings"
	"testing"

	"github.com/traykit/tray/internal/core/event"
	"github.com/traykit/tray/internal/idtype"
)

func newBlock(t *testing.T, m *Main, code idtype.Code, name string) *Block {
	t.Helper()
	b, ok := m.NewID(code, name).(*Block)
	if !ok {
		t.Fatalf("NewID(%s) did not return a *Block", code)
	}
	return b
}

func expectPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", what)
		}
	}()
	fn()
}

func TestCollectionPerType(t *testing.T) {
	m := New()
	seen := make(map[*Collection]idtype.Code)
	for _, code := range idtype.Codes() {
		c := m.Collection(code)
		if c == nil {
			t.Fatalf("no collection for %s", code)
		}
		if prev, dup := seen[c]; dup {
			t.Fatalf("%s and %s share a collection", prev, code)
		}
		seen[c] = code
		if c.Code() != code {
			t.Errorf("collection for %s reports %s", code, c.Code())
		}
	}
	all := m.Collections()
	for i, c := range all {
		if c.Code() != idtype.At(idtype.Index(i)) {
			t.Errorf("Collections()[%d] = %s", i, c.Code())
		}
	}
	expectPanic(t, "unknown code", func() { m.Collection(idtype.Code(0x7a7a)) })
}

func TestIsEmpty(t *testing.T) {
	m := New()
	if !m.IsEmpty() {
		t.Fatal("new Main not empty")
	}
	cam := newBlock(t, m, idtype.Camera, "Cam")
	if m.IsEmpty() {
		t.Fatal("Main with a camera reported empty")
	}
	m.FreeID(cam)
	if !m.IsEmpty() {
		t.Fatal("Main not empty after freeing its only Id")
	}
}

func TestFreeTeardown(t *testing.T) {
	bus := event.NewBus()
	var freed int
	event.Subscribe(bus, func(event.IDFreed) { freed++ })
	m := New(WithBus(bus))

	mat := newBlock(t, m, idtype.Material, "Mat")
	me := newBlock(t, m, idtype.Mesh, "Mesh")
	m.AddRef(me, mat, UsageUser)
	ob := newBlock(t, m, idtype.Object, "Cube")
	m.AddRef(ob, me, UsageUser)
	sce := newBlock(t, m, idtype.Scene, "Scene")
	m.AddRef(sce, ob, UsageUser)
	txt := m.NewID(idtype.Text, "notes")

	m.BuildRelations(0)
	m.IDMapCreate()
	d := m.WeakRefDirectoryCreate()
	d.Add("//lib.blend", "TXnotes", txt)
	m.ThumbnailCreate()

	ids := []Datablock{mat, me, ob, sce, txt}
	m.Free()

	if !m.IsEmpty() {
		t.Fatal("Main not empty after Free")
	}
	for _, c := range m.Collections() {
		if c.Len() != 0 {
			t.Errorf("%s collection holds %d Ids", c.Code(), c.Len())
		}
	}
	for _, db := range ids {
		if db.Header().InMain() {
			t.Errorf("%s still linked into Main", db.Header().PrefixedName())
		}
	}
	if m.Relations() != nil || m.IDMap() != nil || m.WeakRefDirectory() != nil || m.Thumbnail() != nil {
		t.Error("derived indexes survived Free")
	}
	bus.Flush()
	if freed != 0 {
		t.Errorf("bulk teardown emitted %d IDFreed events", freed)
	}
	expectPanic(t, "double free", m.Free)
	expectPanic(t, "alloc after free", func() { m.NewID(idtype.Object, "x") })
}

func TestUniqueNames(t *testing.T) {
	m := New()
	names := []string{}
	for i := 0; i < 3; i++ {
		names = append(names, m.NewID(idtype.Object, "Cube").Header().Name())
	}
	want := []string{"Cube", "Cube.001", "Cube.002"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name %d = %q, want %q", i, names[i], want[i])
		}
	}

	m.FreeID(m.FindName(idtype.Object, "Cube.001"))
	if got := m.NewID(idtype.Object, "Cube").Header().Name(); got != "Cube.001" {
		t.Errorf("reused name = %q, want Cube.001", got)
	}
	if got := m.NewID(idtype.Object, "Cube.002").Header().Name(); got != "Cube.003" {
		t.Errorf("numbered clash = %q, want Cube.003", got)
	}
	if got := m.NewID(idtype.Mesh, "Cube").Header().Name(); got != "Cube" {
		t.Errorf("names are per type, got %q", got)
	}
	if got := m.NewID(idtype.Object, "").Header().Name(); got != "Object" {
		t.Errorf("default name = %q", got)
	}

	long := strings.Repeat("n", 80)
	if got := m.NewID(idtype.Object, long).Header().Name(); len(got) != MaxNameLen {
		t.Errorf("long name kept %d bytes", len(got))
	}
	if got := m.NewID(idtype.Object, long).Header().Name(); len(got) > MaxNameLen || !strings.HasSuffix(got, ".001") {
		t.Errorf("long clash = %q", got)
	}
}

func TestCollectionSortedByName(t *testing.T) {
	m := New()
	for _, n := range []string{"c", "a", "b"} {
		m.NewID(idtype.Object, n)
	}
	lib := m.AllocID(idtype.Library, "lib", 0).(*Library)
	lib.Filepath = "//lib.blend"
	linked := m.AllocID(idtype.Object, "0linked", CreateNoMain)
	linked.Header().Lib = lib
	m.AddToMain(linked)

	var got []string
	for _, db := range m.Objects().Items() {
		got = append(got, db.Header().Name())
	}
	want := "a b c 0linked"
	if strings.Join(got, " ") != want {
		t.Errorf("order = %v, want %s", got, want)
	}

	m.Rename(m.FindName(idtype.Object, "a"), "z")
	got = got[:0]
	for _, db := range m.Objects().Items() {
		got = append(got, db.Header().Name())
	}
	if strings.Join(got, " ") != "b c z 0linked" {
		t.Errorf("after rename order = %v", got)
	}
	if m.PathBase(linked) != "//lib.blend" {
		t.Errorf("PathBase(linked) = %q", m.PathBase(linked))
	}
}

func TestUserCounts(t *testing.T) {
	m := New()
	me := newBlock(t, m, idtype.Mesh, "Mesh")
	if me.Users() != 1 {
		t.Fatalf("new Id users = %d", me.Users())
	}
	ob := newBlock(t, m, idtype.Object, "Cube")
	m.AddRef(ob, me, UsageUser)
	m.AddRef(ob, me, UsageReadOnly)
	if me.Users() != 2 {
		t.Fatalf("users after user ref = %d, want 2", me.Users())
	}
	m.FreeID(ob)
	if me.Users() != 1 {
		t.Fatalf("users after freeing referrer = %d, want 1", me.Users())
	}

	m.UsMin(me)
	m.UsMin(me)
	if me.Users() != 0 {
		t.Errorf("users clamped to %d, want 0", me.Users())
	}

	m.FakeUserSet(me)
	m.FakeUserSet(me)
	if me.Users() != 1 || !me.HasFakeUser() {
		t.Errorf("fake user: users=%d flag=%v", me.Users(), me.HasFakeUser())
	}
	m.UsMin(me)
	if me.Users() != 1 {
		t.Errorf("UsMin went below fake user floor: %d", me.Users())
	}
	m.FakeUserClear(me)
	if me.Users() != 0 || me.HasFakeUser() {
		t.Errorf("after clear users=%d", me.Users())
	}

	noUser := m.AllocID(idtype.Mesh, "bare", CreateNoUserRefcount)
	if noUser.Header().Users() != 0 {
		t.Errorf("CreateNoUserRefcount users = %d", noUser.Header().Users())
	}
}

func TestCopyID(t *testing.T) {
	m := New()
	me := newBlock(t, m, idtype.Mesh, "Mesh")
	ob := newBlock(t, m, idtype.Object, "Cube")
	m.AddRef(ob, me, UsageUser)
	m.FakeUserSet(ob)

	cp := m.CopyID(ob, 0).(*Block)
	if cp.Name() != "Cube.001" {
		t.Errorf("copy name = %q", cp.Name())
	}
	if cp.HasFakeUser() {
		t.Error("fake user flag copied")
	}
	if cp.Tag&TagNew == 0 {
		t.Error("copy not tagged new")
	}
	if len(cp.Refs) != 1 || cp.Refs[0].Target != Datablock(me) {
		t.Fatalf("copy refs = %+v", cp.Refs)
	}
	if me.Users() != 3 {
		t.Errorf("mesh users = %d, want 3", me.Users())
	}
	cp.Refs[0].Target = nil
	if ob.Refs[0].Target == nil {
		t.Error("copy shares the reference slice with its source")
	}

	out := m.CopyID(ob, CopyNoMain|CopyNoUserRefcount)
	if out.Header().InMain() || out.Header().SessionUUID() != 0 {
		t.Error("CopyNoMain copy was stored in Main")
	}
	if me.Users() != 3 {
		t.Errorf("CopyNoUserRefcount changed mesh users to %d", me.Users())
	}

	scr := m.NewID(idtype.Screen, "Layout")
	if m.CopyID(scr, 0) != nil {
		t.Error("screens must not be copyable")
	}
}

func TestDuplicateDeep(t *testing.T) {
	m := New()
	mat := newBlock(t, m, idtype.Material, "Mat")
	me := newBlock(t, m, idtype.Mesh, "Mesh")
	m.AddRef(me, mat, UsageUser)
	ob := newBlock(t, m, idtype.Object, "Cube")
	m.AddRef(ob, me, UsageUser)
	meUsers, matUsers := me.Users(), mat.Users()

	dup := m.Duplicate(ob, true).(*Block)
	newMe, ok := dup.Refs[0].Target.(*Block)
	if !ok || newMe == me {
		t.Fatal("deep duplicate kept the original mesh")
	}
	newMat := newMe.Refs[0].Target.(*Block)
	if newMat == mat {
		t.Fatal("deep duplicate kept the original material")
	}
	if me.Users() != meUsers || mat.Users() != matUsers {
		t.Errorf("original users changed: mesh %d->%d mat %d->%d", meUsers, me.Users(), matUsers, mat.Users())
	}
	if newMe.Users() != 1 || newMat.Users() != 1 {
		t.Errorf("copy users mesh=%d mat=%d, want 1", newMe.Users(), newMat.Users())
	}

	shallow := m.Duplicate(ob, false).(*Block)
	if shallow.Refs[0].Target != Datablock(me) {
		t.Error("shallow duplicate replaced the mesh")
	}
}

func TestDuplicateCycle(t *testing.T) {
	m := New()
	a := newBlock(t, m, idtype.Object, "A")
	b := newBlock(t, m, idtype.Object, "B")
	m.AddRef(a, b, UsageUser)
	m.AddRef(b, a, UsageUser)

	a2 := m.Duplicate(a, true).(*Block)
	b2 := a2.Refs[0].Target.(*Block)
	if b2 == b {
		t.Fatal("cycle member not copied")
	}
	if b2.Refs[0].Target != Datablock(a2) {
		t.Error("copied cycle does not close on the copy")
	}
	if m.Objects().Len() != 4 {
		t.Errorf("objects = %d, want 4", m.Objects().Len())
	}
}

func TestDeleteTagged(t *testing.T) {
	m := New()
	mat := newBlock(t, m, idtype.Material, "Mat")
	me := newBlock(t, m, idtype.Mesh, "Mesh")
	m.AddRef(me, mat, UsageUser)
	ob := newBlock(t, m, idtype.Object, "Cube")
	m.AddRef(ob, me, UsageUser)

	if m.DeleteTagged() != 0 {
		t.Fatal("nothing tagged yet")
	}
	m.TagForDelete(me)
	m.TagForDelete(me)
	if n := m.DeleteTagged(); n != 1 {
		t.Fatalf("DeleteTagged = %d, want 1", n)
	}
	if me.InMain() {
		t.Error("mesh still in Main")
	}
	if ob.Refs[0].Target != nil {
		t.Error("reference to deleted mesh not cleared")
	}
	if mat.Users() != 1 {
		t.Errorf("material users = %d, want 1", mat.Users())
	}
	if me.Tag&TagDoit != 0 {
		t.Error("tag left on deleted Id")
	}
}

func TestIDMap(t *testing.T) {
	m := New()
	ob := newBlock(t, m, idtype.Object, "Cube")
	im := m.IDMapCreate()
	if im.LookupName(idtype.Object, "Cube", nil) != Datablock(ob) {
		t.Fatal("lookup by name failed")
	}
	if im.LookupUUID(ob.SessionUUID()) != Datablock(ob) {
		t.Fatal("lookup by uuid failed")
	}

	m.Rename(ob, "Sphere")
	if im.LookupName(idtype.Object, "Cube", nil) != nil {
		t.Error("old name still mapped")
	}
	if m.FindName(idtype.Object, "Sphere") != Datablock(ob) {
		t.Error("renamed Id not found")
	}
	cam := m.NewID(idtype.Camera, "Cam")
	if im.LookupUUID(cam.Header().SessionUUID()) != cam {
		t.Error("new Id not mapped")
	}
	m.FreeID(ob)
	if im.Len() != 1 {
		t.Errorf("map holds %d Ids, want 1", im.Len())
	}
}

func TestEvents(t *testing.T) {
	bus := event.NewBus()
	var added, freed, renamed []string
	event.Subscribe(bus, func(e event.IDAdded) { added = append(added, e.Name) })
	event.Subscribe(bus, func(e event.IDFreed) { freed = append(freed, e.Name) })
	event.Subscribe(bus, func(e event.IDRenamed) { renamed = append(renamed, e.OldName+">"+e.NewName) })
	m := New(WithBus(bus))

	ob := m.NewID(idtype.Object, "Cube")
	m.Rename(ob, "Ball")
	m.FreeID(ob)
	quiet := m.NewID(idtype.Object, "Quiet")
	m.FreeIDEx(quiet, FreeNoUINotify)
	bus.Flush()

	if len(added) != 2 || len(freed) != 1 || len(renamed) != 1 {
		t.Fatalf("added=%v freed=%v renamed=%v", added, freed, renamed)
	}
	if renamed[0] != "Cube>Ball" {
		t.Errorf("renamed = %v", renamed)
	}
}

func TestThumbnail(t *testing.T) {
	m := New()
	th := m.ThumbnailCreate()
	if th.Width != ThumbSize || len(th.RGBA) != ThumbSize*ThumbSize*4 {
		t.Fatalf("thumbnail %dx%d with %d bytes", th.Width, th.Height, len(th.RGBA))
	}
	if err := m.SetThumbnail(2, 2, make([]byte, 15)); err == nil {
		t.Error("short thumbnail accepted")
	}
	if err := m.SetThumbnail(2, 1, make([]byte, 8)); err != nil {
		t.Errorf("SetThumbnail: %v", err)
	}
	if m.Thumbnail().Width != 2 {
		t.Error("thumbnail not replaced")
	}
}
