package text

import (
	"bytes"
	"unicode/utf8"

	list "github.com/bahlo/generic-list-go"
)

// Directions for MoveLines.
const (
	MoveLineUp   = -1
	MoveLineDown = 1
)

// deleteSel removes the selected range and collapses the cursor onto its
// start.
func (t *Text) deleteSel() {
	if t.curl == nil || t.sell == nil || !t.HasSel() {
		return
	}
	t.OrderCursors(false)

	head := t.curl.Value.buf[:t.curc]
	tail := t.sell.Value.buf[t.selc:]
	t.curl.Value.buf = concat(head, tail)

	for e := t.sell; e != t.curl; {
		prev := e.Prev()
		if prev == nil {
			break
		}
		t.deleteLine(prev.Next())
		e = prev
	}
	t.sell = t.curl
	t.selc = t.curc
}

func (t *Text) deleteLine(e *list.Element[*Line]) {
	if t.curl == nil {
		return
	}
	t.lines.Remove(e)
	t.makeDirty()
	t.Clean()
}

// combineLines appends b to a and drops b.
func (t *Text) combineLines(a, b *list.Element[*Line]) {
	if a == nil || b == nil {
		return
	}
	a.Value.buf = concat(a.Value.buf, b.Value.buf)
	t.deleteLine(b)
	t.makeDirty()
	t.Clean()
}

// DeleteSelected removes the selection, if any.
func (t *Text) DeleteSelected() {
	t.deleteSel()
	t.makeDirty()
}

// SplitCurLine breaks the cursor line at the cursor. The cursor ends up at
// the start of the second half.
func (t *Text) SplitCurLine() {
	if t.curl == nil {
		return
	}
	t.deleteSel()

	l := t.curl.Value
	left := clone(l.buf[:t.curc])
	l.buf = clone(l.buf[t.curc:])
	t.lines.InsertBefore(&Line{buf: left}, t.curl)
	t.curc = 0

	t.makeDirty()
	t.Clean()
	t.PopSel()
}

// DuplicateLine inserts a copy of the cursor line after it. It does nothing
// while a multi-line selection is active.
func (t *Text) DuplicateLine() {
	if t.curl == nil || t.curl != t.sell {
		return
	}
	t.lines.InsertAfter(&Line{buf: clone(t.curl.Value.buf)}, t.curl)
	t.makeDirty()
	t.Clean()
}

// DeleteChar deletes the selection, or the character after the cursor,
// joining with the next line at the end of a line.
func (t *Text) DeleteChar() {
	if t.curl == nil {
		return
	}
	if t.HasSel() {
		t.deleteSel()
		t.makeDirty()
		return
	}
	l := t.curl.Value
	if t.curc == l.Len() {
		next := t.curl.Next()
		if next == nil {
			return
		}
		t.combineLines(t.curl, next)
		t.PopSel()
	} else {
		size := charSize(l.buf, t.curc)
		l.buf = concat(l.buf[:t.curc], l.buf[t.curc+size:])
		t.PopSel()
	}
	t.makeDirty()
	t.Clean()
}

func (t *Text) DeleteWord() {
	t.JumpRight(true, true)
	t.deleteSel()
	t.makeDirty()
}

// BackspaceChar deletes the selection, or the character before the cursor,
// joining with the previous line at column 0.
func (t *Text) BackspaceChar() {
	if t.curl == nil {
		return
	}
	if t.HasSel() {
		t.deleteSel()
		t.makeDirty()
		return
	}
	if t.curc == 0 {
		prev := t.curl.Prev()
		if prev == nil {
			return
		}
		t.curl = prev
		t.curc = prev.Value.Len()
		t.combineLines(t.curl, t.curl.Next())
		t.PopSel()
	} else {
		l := t.curl.Value
		start := prevCharOffset(l.buf, t.curc)
		l.buf = concat(l.buf[:start], l.buf[t.curc:])
		t.curc = start
		t.PopSel()
	}
	t.makeDirty()
	t.Clean()
}

func (t *Text) BackspaceWord() {
	t.JumpLeft(true, true)
	t.deleteSel()
	t.makeDirty()
}

// AddChar inserts r at the cursor, replacing the selection. A line feed
// splits the line; a tab becomes spaces to the next tab stop when
// FlagTabsToSpaces is set.
func (t *Text) AddChar(r rune) bool {
	return t.addChar(r, t.Flags&FlagTabsToSpaces != 0)
}

// AddRawChar is AddChar without tab replacement.
func (t *Text) AddRawChar(r rune) bool {
	return t.addChar(r, false)
}

func (t *Text) addChar(r rune, replaceTabs bool) bool {
	if t.curl == nil || r == 0 || !utf8.ValidRune(r) {
		return false
	}
	if r == '\n' {
		t.SplitCurLine()
		return true
	}
	if r == '\t' && replaceTabs {
		t.InsertBuf(tabToSpaces[t.curc%TabSize:])
		return true
	}
	t.deleteSel()

	l := t.curl.Value
	ch := utf8.AppendRune(nil, r)
	l.buf = concat(l.buf[:t.curc], ch, l.buf[t.curc:])
	t.curc += len(ch)

	t.PopSel()
	t.makeDirty()
	t.Clean()
	return true
}

// ReplaceChar overwrites the character after the cursor with r. At the end
// of a line, with a selection, or for a line feed it inserts instead.
func (t *Text) ReplaceChar(r rune) bool {
	if t.curl == nil || r == 0 || !utf8.ValidRune(r) {
		return false
	}
	l := t.curl.Value
	if t.curc == l.Len() || t.HasSel() || r == '\n' {
		return t.AddChar(r)
	}
	del := charSize(l.buf, t.curc)
	ch := utf8.AppendRune(nil, r)
	l.buf = concat(l.buf[:t.curc], ch, l.buf[t.curc+del:])
	t.curc += len(ch)

	t.PopSel()
	t.makeDirty()
	t.Clean()
	return true
}

// addPrefix prepends prefix to every selected line.
func (t *Text) addPrefix(prefix string, skipBlank bool) {
	if t.curl == nil || t.sell == nil {
		return
	}
	t.OrderCursors(false)
	curcOld, selcOld := t.curc, t.selc
	n := len(prefix)

	num := 0
	for {
		l := t.curl.Value
		if l.Len() != 0 || !skipBlank {
			l.buf = concat([]byte(prefix), l.buf)
			t.curc = n
			t.makeDirty()
			t.Clean()
		}
		if t.curl == t.sell {
			if l.Len() != 0 {
				t.selc += n
			}
			break
		}
		next := t.curl.Next()
		if next == nil {
			break
		}
		t.curl = next
		num++
	}
	for ; num > 0; num-- {
		t.curl = t.curl.Prev()
	}

	// Keep the cursor left aligned when a selection starts at column 0.
	if curcOld == 0 && !(t.curl == t.sell && curcOld == selcOld) {
		if t.curl == t.sell && t.curc == t.selc {
			t.selc = 0
		}
		t.curc = 0
	} else if t.curl.Value.Len() != 0 {
		t.curc = curcOld + n
	}
}

// removePrefix strips prefix from every selected line that has it. With
// requireAll nothing changes unless every selected line is blank or
// prefixed.
func (t *Text) removePrefix(prefix string, requireAll bool) bool {
	if t.curl == nil || t.sell == nil {
		return false
	}
	t.OrderCursors(false)
	p := []byte(prefix)
	n := len(p)

	if requireAll {
		for e := t.curl; e != nil; e = e.Next() {
			if !bytes.HasPrefix(e.Value.buf, p) &&
				len(bytes.Trim(e.Value.buf, " \t")) != 0 {
				return false
			}
			if e == t.sell {
				break
			}
		}
	}

	num := 0
	unprefixedFirst, changedAny := false, false
	for {
		changed := false
		l := t.curl.Value
		if bytes.HasPrefix(l.buf, p) {
			if num == 0 {
				unprefixedFirst = true
			}
			l.buf = clone(l.buf[n:])
			changed, changedAny = true, true
		}
		t.makeDirty()
		t.Clean()

		if t.curl == t.sell {
			if changed {
				t.selc = max(t.selc-n, 0)
			}
			break
		}
		next := t.curl.Next()
		if next == nil {
			break
		}
		t.curl = next
		num++
	}
	if unprefixedFirst {
		t.curc = max(t.curc-n, 0)
	}
	for ; num > 0; num-- {
		t.curl = t.curl.Prev()
	}
	return changedAny
}

func (t *Text) indentPrefix() string {
	if t.Flags&FlagTabsToSpaces != 0 {
		return tabToSpaces
	}
	return "\t"
}

// Comment prefixes the selected lines with "#". Blank lines are skipped
// only when there is a selection.
func (t *Text) Comment() {
	if t.curl == nil || t.sell == nil {
		return
	}
	t.addPrefix("#", t.HasSel())
}

// Uncomment removes "#" from the selected lines, only if every non-blank
// line has one.
func (t *Text) Uncomment() bool {
	return t.removePrefix("#", true)
}

func (t *Text) Indent() {
	if t.curl == nil || t.sell == nil {
		return
	}
	t.addPrefix(t.indentPrefix(), true)
}

func (t *Text) Unindent() bool {
	return t.removePrefix(t.indentPrefix(), false)
}

// MoveLines moves the selected lines one line up or down.
func (t *Text) MoveLines(direction int) {
	if direction != MoveLineUp && direction != MoveLineDown {
		panic("text: invalid line move direction")
	}
	if t.curl == nil || t.sell == nil {
		return
	}
	t.OrderCursors(false)

	if direction == MoveLineDown {
		other := t.sell.Next()
		if other == nil {
			return
		}
		t.lines.MoveBefore(other, t.curl)
	} else {
		other := t.curl.Prev()
		if other == nil {
			return
		}
		t.lines.MoveAfter(other, t.sell)
	}
	t.makeDirty()
	t.Clean()
}

var blockEnders = [][]byte{
	[]byte("return"), []byte("break"), []byte("continue"), []byte("pass"), []byte("yield"),
}

// SetCurrTabSpaces returns the indentation for a line inserted after the
// cursor line: its leading indent, plus space after a trailing ":", minus
// space after a block-ending keyword.
func (t *Text) SetCurrTabSpaces(space int) int {
	if t.curl == nil {
		return 0
	}
	line := t.curl.Value.buf
	indent := byte('\t')
	if t.Flags&FlagTabsToSpaces != 0 {
		indent = ' '
	}

	i := 0
	for i < len(line) && line[i] == indent {
		// Only count indentation before the cursor.
		if i == t.curc {
			return i
		}
		i++
	}

	if bytes.IndexByte(line, ':') >= 0 {
		isIndent := false
		for a := 0; a < t.curc && a < len(line); a++ {
			ch := line[a]
			if ch == '#' {
				break
			}
			if ch == ':' {
				isIndent = true
			} else if ch != ' ' && ch != '\t' {
				isIndent = false
			}
		}
		if isIndent {
			i += space
		}
	}

	comment := bytes.IndexByte(line, '#')
	if comment < 0 {
		comment = len(line)
	}
	for _, word := range blockEnders {
		if i > 0 && bytes.Contains(line, word) {
			// Position of the first byte of line that is any of the word's
			// letters, compared with the comment start.
			first := bytes.IndexAny(line, string(word))
			if first < 0 {
				first = len(line)
			}
			if first < comment {
				i -= space
			}
		}
	}
	return i
}
