// Package text implements the Text datablock: a list of lines with a
// cursor and selection, and the editing operations over it.
//
// A Text is not safe for concurrent use. Every operation is a no-op on a
// Text whose lines were freed.
package text

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	list "github.com/bahlo/generic-list-go"
	"go.uber.org/zap"

	"github.com/traykit/tray/internal/idtype"
	"github.com/traykit/tray/internal/kernel"
)

// TabSize is the width of a tab stop, and the number of spaces inserted
// for a tab when FlagTabsToSpaces is set.
const TabSize = 4

const tabToSpaces = "    "

type Flag uint16

const (
	FlagDirty Flag = 1 << iota
	// FlagMem marks texts with no file on disk.
	FlagMem
	FlagTabsToSpaces
	// FlagExt marks texts whose lines are read from their file rather than
	// stored with the registry.
	FlagExt
)

var (
	ErrNoFilepath = errors.New("text: no file path")
	ErrNotFile    = errors.New("text: not a regular file")
)

// Line is one line of a Text, without its line feed.
type Line struct {
	buf []byte
}

func (l *Line) Len() int       { return len(l.buf) }
func (l *Line) String() string { return string(l.buf) }

// Bytes returns the line contents. The slice must not be modified.
func (l *Line) Bytes() []byte { return l.buf }

type Text struct {
	kernel.ID

	lines *list.List[*Line]
	// curl/curc is where a selection started; sell/selc is the end that
	// moves while extending it.
	curl, sell *list.Element[*Line]
	curc, selc int

	Flags    Flag
	Filepath string
	// MTime is the file modification time, in Unix seconds, when it was
	// last read.
	MTime int64
}

func init() {
	kernel.RegisterType(idtype.Text, kernel.TypeOps{
		New: func() kernel.Datablock { return &Text{} },
		Init: func(db kernel.Datablock) {
			db.(*Text).initData()
		},
		Copy: func(_ *kernel.Main, dst, src kernel.Datablock, _ kernel.CopyFlag) {
			dst.(*Text).copyData(src.(*Text))
		},
		Free: func(db kernel.Datablock) {
			t := db.(*Text)
			t.FreeLines()
			t.Filepath = ""
		},
	})
}

func (t *Text) initData() {
	t.Filepath = ""
	t.Flags = FlagDirty | FlagMem | FlagTabsToSpaces
	t.lines = list.New[*Line]()
	t.curl = t.lines.PushBack(&Line{})
	t.sell = t.curl
	t.curc, t.selc = 0, 0
}

func (t *Text) copyData(src *Text) {
	t.Filepath = src.Filepath
	t.Flags = src.Flags | FlagDirty
	t.MTime = src.MTime
	t.lines = list.New[*Line]()
	if src.lines != nil {
		for e := src.lines.Front(); e != nil; e = e.Next() {
			t.lines.PushBack(&Line{buf: clone(e.Value.buf)})
		}
	}
	t.curl = t.lines.Front()
	t.sell = t.curl
	t.curc, t.selc = 0, 0
}

// Add creates an empty text in m. Texts start with no real user and a fake
// user so they survive cleanup.
func Add(m *kernel.Main, name string) *Text {
	t := m.NewID(idtype.Text, name).(*Text)
	m.UsMin(t)
	m.FakeUserSet(t)
	return t
}

type LoadOptions struct {
	// Internal keeps only the contents; the text is not tied to the file.
	Internal     bool
	TabsToSpaces bool
	Log          *zap.Logger
}

// AbsPath resolves a "//"-prefixed path against the directory of base.
// Other paths are returned unchanged.
func AbsPath(path, base string) string {
	if !strings.HasPrefix(path, "//") {
		return path
	}
	return filepath.Join(filepath.Dir(base), path[2:])
}

// Load reads the file at path, resolved against base, into a new text.
func Load(m *kernel.Main, path, base string, opts LoadOptions) (*Text, error) {
	abs := AbsPath(path, base)
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("text: load %s: %w", path, err)
	}
	var mtime int64
	if st, err := os.Stat(abs); err == nil {
		mtime = st.ModTime().Unix()
	}
	return LoadBuffer(m, path, data, mtime, opts), nil
}

// LoadBuffer creates a text named after path from contents already read.
func LoadBuffer(m *kernel.Main, path string, data []byte, mtime int64, opts LoadOptions) *Text {
	t := m.AllocID(idtype.Text, filepath.Base(path), 0).(*Text)
	m.UsMin(t)
	m.FakeUserSet(t)

	t.lines = list.New[*Line]()
	if opts.TabsToSpaces {
		t.Flags = FlagTabsToSpaces
	}
	if opts.Internal {
		t.Flags |= FlagMem | FlagDirty
	} else {
		t.Filepath = path
	}
	t.MTime = mtime

	if added := t.fromBuf(data); added > 0 && opts.Log != nil {
		opts.Log.Warn("text: re-encoded invalid utf-8",
			zap.String("text", t.Name()),
			zap.Int("bytes_added", added))
	}
	return t
}

// Reload replaces the contents with the file on disk. Relative paths
// resolve against m.PathBase.
func (t *Text) Reload(m *kernel.Main) error {
	if t.Filepath == "" {
		return ErrNoFilepath
	}
	abs := AbsPath(t.Filepath, m.PathBase(t))
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("text: reload %s: %w", t.Filepath, err)
	}
	t.FreeLines()
	t.makeDirty()
	t.MTime = 0
	if st, err := os.Stat(abs); err == nil {
		t.MTime = st.ModTime().Unix()
	}
	t.lines = list.New[*Line]()
	t.fromBuf(data)
	return nil
}

// ModState is the result of FileModifiedCheck.
type ModState int

const (
	ModError     ModState = -1
	ModUnchanged ModState = 0
	ModModified  ModState = 1
	ModDeleted   ModState = 2
)

func (s ModState) String() string {
	switch s {
	case ModUnchanged:
		return "unchanged"
	case ModModified:
		return "modified"
	case ModDeleted:
		return "deleted"
	}
	return "error"
}

// FileModifiedCheck compares the file on disk with the time it was read.
// Memory texts report ModUnchanged.
func (t *Text) FileModifiedCheck(m *kernel.Main) ModState {
	if t.Filepath == "" {
		return ModUnchanged
	}
	st, err := os.Stat(AbsPath(t.Filepath, m.PathBase(t)))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ModDeleted
	case err != nil, !st.Mode().IsRegular():
		return ModError
	case st.ModTime().Unix() > t.MTime:
		return ModModified
	}
	return ModUnchanged
}

// FileModifiedIgnore records the current file time so FileModifiedCheck
// stops reporting the change.
func (t *Text) FileModifiedIgnore(m *kernel.Main) {
	if t.Filepath == "" {
		return
	}
	st, err := os.Stat(AbsPath(t.Filepath, m.PathBase(t)))
	if err != nil || !st.Mode().IsRegular() {
		return
	}
	t.MTime = st.ModTime().Unix()
}

// FreeLines drops every line. The text is unusable for editing until new
// lines are installed.
func (t *Text) FreeLines() {
	t.lines = nil
	t.curl, t.sell = nil, nil
}

// Clear deletes all contents.
func (t *Text) Clear() {
	if t.curl == nil {
		return
	}
	t.SelectAll()
	t.deleteSel()
	t.makeDirty()
}

// Write inserts s at the cursor and moves to the end of the text.
func (t *Text) Write(s string) {
	t.InsertBuf(s)
	t.MoveEOF(false)
	t.makeDirty()
}

// Clean restores the structural invariants: at least one line, and both
// cursor ends on a line.
func (t *Text) Clean() {
	if t.lines == nil {
		t.lines = list.New[*Line]()
	}
	if t.lines.Len() == 0 {
		t.lines.PushBack(&Line{})
	}
	if t.curl == nil {
		if t.sell != nil {
			t.curl = t.sell
		} else {
			t.curl = t.lines.Front()
		}
		t.curc = 0
	}
	if t.sell == nil {
		t.sell = t.curl
		t.selc = 0
	}
}

func (t *Text) makeDirty() { t.Flags |= FlagDirty }

// LineCount returns the number of lines, 0 after FreeLines.
func (t *Text) LineCount() int {
	if t.lines == nil {
		return 0
	}
	return t.lines.Len()
}

// Line returns line i, or nil when out of range.
func (t *Text) Line(i int) *Line {
	if t.lines == nil || i < 0 {
		return nil
	}
	for e := t.lines.Front(); e != nil; e = e.Next() {
		if i == 0 {
			return e.Value
		}
		i--
	}
	return nil
}

// Lines returns the lines in order.
func (t *Text) Lines() []*Line {
	if t.lines == nil {
		return nil
	}
	out := make([]*Line, 0, t.lines.Len())
	for e := t.lines.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value)
	}
	return out
}

// Cursor returns the line index and byte offset where the selection starts.
func (t *Text) Cursor() (line, col int) {
	return t.lineIndex(t.curl), t.curc
}

// Anchor returns the line index and byte offset of the moving selection end.
func (t *Text) Anchor() (line, col int) {
	return t.lineIndex(t.sell), t.selc
}

func (t *Text) lineIndex(e *list.Element[*Line]) int {
	if e == nil || t.lines == nil {
		return -1
	}
	return span(t.lines.Front(), e)
}

// String returns the text joined with line feeds.
func (t *Text) String() string {
	if t.lines == nil {
		return ""
	}
	var sb strings.Builder
	for e := t.lines.Front(); e != nil; e = e.Next() {
		if e != t.lines.Front() {
			sb.WriteByte('\n')
		}
		sb.Write(e.Value.buf)
	}
	return sb.String()
}

// span returns how many lines to is after from, negative when it precedes
// from, and 0 when they are equal or unrelated.
func span(from, to *list.Element[*Line]) int {
	if from == nil || to == nil || from == to {
		return 0
	}
	n := 0
	for e := from; e != nil; e = e.Next() {
		if e == to {
			return n
		}
		n++
	}
	n = 0
	for e := from; e != nil; e = e.Prev() {
		if e == to {
			return n
		}
		n--
	}
	return 0
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// SetLines replaces the contents with lines, stored as given. Both cursor
// ends move to the start.
func (t *Text) SetLines(lines [][]byte) {
	t.lines = list.New[*Line]()
	for _, l := range lines {
		t.lines.PushBack(&Line{buf: clone(l)})
	}
	t.curl, t.sell = nil, nil
	t.Clean()
}

// SetCursor places the cursor and the moving end. Positions are clamped to
// the text.
func (t *Text) SetCursor(curLine, curc, selLine, selc int) {
	if t.curl == nil {
		return
	}
	t.MoveTo(curLine, curc, false)
	t.MoveTo(selLine, selc, true)
}
