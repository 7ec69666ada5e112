// Package appctx resolves the active registry, scene and editor data for an
// operation from a snapshot of window state.
//
// Members are looked up in order: the override store, the region handler,
// the area handler, then the screen handler. There is no process-wide
// current registry; callers thread a *Context through.
package appctx

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/traykit/tray/internal/kernel"
	"github.com/traykit/tray/internal/text"
)

// Status is the outcome of a member lookup. Found outranks NoData, which
// outranks Missing.
type Status int

const (
	// NoData means the member is known but currently has no value.
	NoData Status = -1
	// Missing means no level knows the member.
	Missing Status = 0
	Found   Status = 1
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case NoData:
		return "no data"
	}
	return "missing"
}

type DataType int

const (
	TypePointer DataType = iota
	TypeCollection
)

// Result is filled by handlers. An empty member asks the handler for the
// names it knows, in Dir.
type Result struct {
	Ptr  any
	List []any
	Dir  []string
	Type DataType
}

// SetPointer stores a single value.
func (r *Result) SetPointer(p any) {
	r.Ptr = p
	r.Type = TypePointer
}

// Append adds a value to a collection result.
func (r *Result) Append(p any) {
	r.List = append(r.List, p)
	r.Type = TypeCollection
}

// Handler answers member lookups for one UI level.
type Handler func(c *Context, member string, r *Result) Status

type SpaceType int

const (
	SpaceEmpty SpaceType = iota
	SpaceView3D
	SpaceText
	SpaceOutliner
	SpaceProperties
)

type Region struct {
	Name    string
	Context Handler
}

type Area struct {
	Type SpaceType
	// Space is the editor state for Type, e.g. *TextSpace.
	Space   any
	Context Handler
	Regions []*Region
}

type Screen struct {
	Name    string
	Context Handler
	Areas   []*Area
}

// Window is the top-level UI state a context is built from.
type Window struct {
	Scene         *Scene
	ViewLayerName string
	WorkSpace     kernel.Datablock
	Screen        *Screen
}

// PollMsgFunc builds a poll failure message on demand.
type PollMsgFunc func(c *Context) string

type Context struct {
	wm struct {
		window    *Window
		workspace kernel.Datablock
		screen    *Screen
		area      *Area
		region    *Region
		menu      *Region
		store     *Store

		pollMsg    string
		pollMsgDyn PollMsgFunc
	}
	data struct {
		main      *kernel.Main
		scene     *Scene
		recursion int
	}
	log *zap.Logger
}

func New(log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{log: log}
}

// Copy returns a shallow copy without the dynamic poll message.
func (c *Context) Copy() *Context {
	cp := *c
	cp.wm.pollMsgDyn = nil
	return &cp
}

// Free clears the poll message.
func (c *Context) Free() {
	c.PollMsgClear()
}

func (c *Context) Store() *Store         { return c.wm.store }
func (c *Context) StoreSet(store *Store) { c.wm.store = store }

// DataGet resolves member through the lookup chain. The recursion guard
// stops a handler from re-entering its own level or a level before it.
func (c *Context) DataGet(member string) (Result, Status) {
	var r Result
	done := Missing
	recursion := c.data.recursion

	merge := func(ret Status) {
		switch {
		case ret == Found:
			done = Found
		case ret == NoData && done == Missing:
			done = NoData
		}
	}

	if recursion < 1 && c.wm.store != nil {
		c.data.recursion = 1
		if p, ok := c.wm.store.Lookup(member); ok {
			r.SetPointer(p)
			done = Found
		}
	}
	if done != Found && recursion < 2 {
		if region := c.Region(); region != nil && region.Context != nil {
			c.data.recursion = 2
			merge(region.Context(c, member, &r))
		}
	}
	if done != Found && recursion < 3 {
		if area := c.Area(); area != nil && area.Context != nil {
			c.data.recursion = 3
			merge(area.Context(c, member, &r))
		}
	}
	if done != Found && recursion < 4 {
		if screen := c.Screen(); screen != nil && screen.Context != nil {
			c.data.recursion = 4
			merge(screen.Context(c, member, &r))
		}
	}

	c.data.recursion = recursion
	if done != Found {
		r = Result{}
	}
	return r, done
}

// DataPointer returns the value of a pointer member, or nil.
func (c *Context) DataPointer(member string) any {
	r, st := c.DataGet(member)
	if st != Found || r.Type != TypePointer {
		return nil
	}
	return r.Ptr
}

// DataCollection returns the values of a collection member.
func (c *Context) DataCollection(member string) ([]any, bool) {
	r, st := c.DataGet(member)
	if st != Found || r.Type != TypeCollection {
		return nil, false
	}
	return r.List, true
}

// pointerVerify resolves member as a T. ok is false when no level answered;
// a value of the wrong type is logged and reported as a nil T.
func pointerVerify[T any](c *Context, member string) (v T, ok bool) {
	r, st := c.DataGet(member)
	if st != Found {
		return v, false
	}
	if r.Ptr == nil {
		return v, true
	}
	v, typed := r.Ptr.(T)
	if !typed {
		c.log.Warn("context member has unexpected type",
			zap.String("member", member),
			zap.String("type", fmt.Sprintf("%T", r.Ptr)),
			zap.String("want", fmt.Sprintf("%T", v)))
	}
	return v, true
}

// DataPointerAs returns member as a T, or the zero T when it is missing or
// has another type.
func DataPointerAs[T any](c *Context, member string) T {
	v, _ := pointerVerify[T](c, member)
	return v
}

// DataDir lists the member names every level knows. "scene" is left out
// unless all is set. Store entries are included when useStore is set.
func (c *Context) DataDir(useStore, all bool) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !all && name == "scene" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	if useStore && c.wm.store != nil {
		for _, e := range c.wm.store.Entries {
			add(e.Name)
		}
	}
	ask := func(h Handler) {
		var r Result
		h(c, "", &r)
		for _, name := range r.Dir {
			add(name)
		}
	}
	if region := c.Region(); region != nil && region.Context != nil {
		ask(region.Context)
	}
	if area := c.Area(); area != nil && area.Context != nil {
		ask(area.Context)
	}
	if screen := c.Screen(); screen != nil && screen.Context != nil {
		ask(screen.Context)
	}
	return out
}

// Window state.

func (c *Context) Window() *Window { return c.wm.window }

func (c *Context) WorkSpace() kernel.Datablock { return c.wm.workspace }
func (c *Context) Screen() *Screen             { return c.wm.screen }
func (c *Context) Area() *Area                 { return c.wm.area }
func (c *Context) Region() *Region             { return c.wm.region }
func (c *Context) Menu() *Region               { return c.wm.menu }

// WindowSet makes win current, taking its scene, workspace and screen and
// clearing the area and region.
func (c *Context) WindowSet(win *Window) {
	c.wm.window = win
	c.wm.workspace = nil
	c.wm.screen = nil
	if win != nil {
		c.data.scene = win.Scene
		c.wm.workspace = win.WorkSpace
		c.wm.screen = win.Screen
	}
	c.wm.area = nil
	c.wm.region = nil
}

func (c *Context) ScreenSet(screen *Screen) {
	c.wm.screen = screen
	c.wm.area = nil
	c.wm.region = nil
}

func (c *Context) AreaSet(area *Area) {
	c.wm.area = area
	c.wm.region = nil
}

func (c *Context) RegionSet(region *Region) { c.wm.region = region }
func (c *Context) MenuSet(menu *Region)     { c.wm.menu = menu }

// TextSpace returns the current area's text editor state, or nil.
func (c *Context) TextSpace() *TextSpace {
	if a := c.wm.area; a != nil && a.Type == SpaceText {
		st, _ := a.Space.(*TextSpace)
		return st
	}
	return nil
}

// PollMsgSet records why an operation can't run.
func (c *Context) PollMsgSet(msg string) {
	c.PollMsgClear()
	c.wm.pollMsg = msg
}

// PollMsgSetDynamic defers building the message until it is asked for.
func (c *Context) PollMsgSetDynamic(fn PollMsgFunc) {
	c.PollMsgClear()
	c.wm.pollMsgDyn = fn
}

func (c *Context) PollMsg() string {
	if c.wm.pollMsgDyn != nil {
		return c.wm.pollMsgDyn(c)
	}
	return c.wm.pollMsg
}

func (c *Context) PollMsgClear() {
	c.wm.pollMsg = ""
	c.wm.pollMsgDyn = nil
}

// Data state.

// Main returns the registry: a "tray_data" override if any, else the one
// set with MainSet.
func (c *Context) Main() *kernel.Main {
	if m, ok := pointerVerify[*kernel.Main](c, "tray_data"); ok {
		return m
	}
	return c.data.main
}

func (c *Context) MainSet(m *kernel.Main) { c.data.main = m }

func (c *Context) Scene() *Scene {
	if s, ok := pointerVerify[*Scene](c, "scene"); ok {
		return s
	}
	return c.data.scene
}

func (c *Context) SceneSet(s *Scene) { c.data.scene = s }

// ViewLayer returns a "view_layer" override, else the window's view layer
// on the current scene, else the scene's first view layer.
func (c *Context) ViewLayer() *ViewLayer {
	if vl, ok := pointerVerify[*ViewLayer](c, "view_layer"); ok {
		return vl
	}
	scene := c.Scene()
	if scene == nil {
		return nil
	}
	if win := c.wm.window; win != nil {
		if vl := scene.ViewLayer(win.ViewLayerName); vl != nil {
			return vl
		}
	}
	return scene.DefaultLayer()
}

// EditText returns the text being edited.
func (c *Context) EditText() *text.Text {
	return DataPointerAs[*text.Text](c, "edit_text")
}

func (c *Context) ActiveObject() kernel.Datablock {
	return DataPointerAs[kernel.Datablock](c, "active_object")
}

func (c *Context) SelectedIDs() ([]any, bool) {
	return c.DataCollection("selected_ids")
}
