package kernel

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	list "github.com/bahlo/generic-list-go"

	"github.com/traykit/tray/internal/idtype"
)

// Collection is the ordered list of every Id of one type. Local Ids come
// first sorted by name, then linked Ids grouped by library.
type Collection struct {
	code idtype.Code
	ids  *list.List[Datablock]
}

func newCollection(code idtype.Code) *Collection {
	return &Collection{code: code, ids: list.New[Datablock]()}
}

func (c *Collection) Code() idtype.Code { return c.code }
func (c *Collection) Len() int          { return c.ids.Len() }

// First returns the first Id, or nil.
func (c *Collection) First() Datablock {
	if e := c.ids.Front(); e != nil {
		return e.Value
	}
	return nil
}

// Each calls fn for every Id in order until fn returns false. It reports
// whether the iteration ran to completion. fn may free the current Id.
func (c *Collection) Each(fn func(Datablock) bool) bool {
	for e := c.ids.Front(); e != nil; {
		next := e.Next()
		if !fn(e.Value) {
			return false
		}
		e = next
	}
	return true
}

// Items returns a snapshot of the collection.
func (c *Collection) Items() []Datablock {
	out := make([]Datablock, 0, c.ids.Len())
	for e := c.ids.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value)
	}
	return out
}

// Find returns the Id named name from lib (nil for local data).
func (c *Collection) Find(name string, lib *Library) Datablock {
	for e := c.ids.Front(); e != nil; e = e.Next() {
		id := e.Value.Header()
		if id.Lib == lib && id.name == name {
			return e.Value
		}
	}
	return nil
}

func idLess(a, b *ID) bool {
	switch {
	case a.Lib == nil && b.Lib != nil:
		return true
	case a.Lib != nil && b.Lib == nil:
		return false
	case a.Lib != b.Lib:
		return a.Lib.Filepath < b.Lib.Filepath
	}
	return a.name < b.name
}

func (c *Collection) insertSorted(db Datablock) {
	id := db.Header()
	for e := c.ids.Front(); e != nil; e = e.Next() {
		if idLess(id, e.Value.Header()) {
			id.elem = c.ids.InsertBefore(db, e)
			return
		}
	}
	id.elem = c.ids.PushBack(db)
}

func (c *Collection) remove(db Datablock) {
	id := db.Header()
	if id.elem == nil {
		return
	}
	c.ids.Remove(id.elem)
	id.elem = nil
}

// resort moves db to its sorted position after a rename.
func (c *Collection) resort(db Datablock) {
	c.remove(db)
	c.insertSorted(db)
}

// uniqueName returns name, or name with a ".NNN" suffix, so that no other Id
// of the same library in c carries it.
func (c *Collection) uniqueName(name string, self Datablock, lib *Library) string {
	name = truncateName(name, MaxNameLen)
	clash := func(n string) bool {
		other := c.Find(n, lib)
		return other != nil && other != self
	}
	if !clash(name) {
		return name
	}
	base, _ := splitNumber(name)
	used := make(map[int]bool)
	for e := c.ids.Front(); e != nil; e = e.Next() {
		id := e.Value.Header()
		if id.Lib != lib || e.Value == self {
			continue
		}
		if b, n := splitNumber(id.name); b == base {
			used[n] = true
		}
	}
	for n := 1; ; n++ {
		if used[n] {
			continue
		}
		suffix := fmt.Sprintf(".%03d", n)
		cand := truncateName(base, MaxNameLen-len(suffix)) + suffix
		if !clash(cand) {
			return cand
		}
	}
}

// splitNumber splits "name.012" into ("name", 12). Names without a numeric
// suffix return number 0.
func splitNumber(name string) (string, int) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return name, 0
	}
	digits := name[dot+1:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return name, 0
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return name, 0
	}
	return name[:dot], n
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for len(s) > 0 {
		if r, size := utf8.DecodeLastRuneInString(s); r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}
