package text

import (
	"unicode/utf8"

	list "github.com/bahlo/generic-list-go"
)

// cursor returns the end a motion applies to: the moving end when
// extending a selection, the cursor otherwise.
func (t *Text) cursor(sel bool) (**list.Element[*Line], *int) {
	if sel {
		return &t.sell, &t.selc
	}
	return &t.curl, &t.curc
}

// CursorIsLineStart reports whether the moving end is at column 0.
func (t *Text) CursorIsLineStart() bool { return t.selc == 0 }

// CursorIsLineEnd reports whether the moving end is at the end of its line.
func (t *Text) CursorIsLineEnd() bool {
	return t.sell != nil && t.selc == t.sell.Value.Len()
}

func (t *Text) MoveUp(sel bool) {
	if !sel {
		t.popFirst()
	}
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	if prev := (*linep).Prev(); prev != nil {
		col := offsetToColumn((*linep).Value.buf, *charp)
		*linep = prev
		*charp = offsetFromColumn(prev.Value.buf, col)
	} else {
		t.MoveBOL(sel)
	}
	if !sel {
		t.PopSel()
	}
}

func (t *Text) MoveDown(sel bool) {
	if !sel {
		t.popLast()
	}
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	if next := (*linep).Next(); next != nil {
		col := offsetToColumn((*linep).Value.buf, *charp)
		*linep = next
		*charp = offsetFromColumn(next.Value.buf, col)
	} else {
		t.MoveEOL(sel)
	}
	if !sel {
		t.PopSel()
	}
}

// calcTabLeft returns how far a left motion from ch jumps when the line
// holds only spaces before ch, or 0.
func calcTabLeft(l *Line, ch int) int {
	tabsize := min(ch, TabSize)
	for i := 0; i < ch; i++ {
		if l.buf[i] != ' ' {
			tabsize = 0
			break
		}
	}
	if tabsize != 0 && ch%TabSize != 0 {
		tabsize = ch % TabSize
	}
	return tabsize
}

// calcTabRight returns how far a right motion from ch jumps over leading
// spaces, or 0.
func calcTabRight(l *Line, ch int) int {
	if ch >= len(l.buf) || l.buf[ch] != ' ' {
		return 0
	}
	for i := 0; i < ch; i++ {
		if l.buf[i] != ' ' {
			return 0
		}
	}
	tabsize := ch%TabSize + 1
	i := ch + 1
	for ; i < len(l.buf) && l.buf[i] == ' ' && tabsize < TabSize; i++ {
		tabsize++
	}
	return i - ch
}

func (t *Text) MoveLeft(sel bool) {
	if !sel {
		t.popFirst()
	}
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	if *charp == 0 {
		if (*linep).Prev() != nil {
			t.MoveUp(sel)
			*charp = (*linep).Value.Len()
		}
	} else {
		tabsize := 0
		if t.Flags&FlagTabsToSpaces != 0 {
			tabsize = calcTabLeft((*linep).Value, *charp)
		}
		if tabsize != 0 {
			*charp -= tabsize
		} else {
			*charp = prevCharOffset((*linep).Value.buf, *charp)
		}
	}
	if !sel {
		t.PopSel()
	}
}

func (t *Text) MoveRight(sel bool) {
	if !sel {
		t.popLast()
	}
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	if *charp == (*linep).Value.Len() {
		if (*linep).Next() != nil {
			t.MoveDown(sel)
			*charp = 0
		}
	} else {
		tabsize := 0
		if t.Flags&FlagTabsToSpaces != 0 {
			tabsize = calcTabRight((*linep).Value, *charp)
		}
		if tabsize != 0 {
			*charp += tabsize
		} else {
			*charp += charSize((*linep).Value.buf, *charp)
		}
	}
	if !sel {
		t.PopSel()
	}
}

// JumpLeft moves to the start of the previous word on the same line.
// With initStep the character before the cursor is skipped before the
// word class is sampled.
func (t *Text) JumpLeft(sel, initStep bool) {
	if !sel {
		t.popFirst()
	}
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	*charp = stepWordPrev((*linep).Value.buf, *charp, initStep)
	if !sel {
		t.PopSel()
	}
}

// JumpRight moves past the next word on the same line.
func (t *Text) JumpRight(sel, initStep bool) {
	if !sel {
		t.popLast()
	}
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	*charp = stepWordNext((*linep).Value.buf, *charp, initStep)
	if !sel {
		t.PopSel()
	}
}

func (t *Text) MoveBOL(sel bool) {
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	*charp = 0
	if !sel {
		t.PopSel()
	}
}

func (t *Text) MoveEOL(sel bool) {
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	*charp = (*linep).Value.Len()
	if !sel {
		t.PopSel()
	}
}

func (t *Text) MoveBOF(sel bool) {
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	*linep = t.lines.Front()
	*charp = 0
	if !sel {
		t.PopSel()
	}
}

func (t *Text) MoveEOF(sel bool) {
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	*linep = t.lines.Back()
	*charp = (*linep).Value.Len()
	if !sel {
		t.PopSel()
	}
}

func (t *Text) MoveToLine(line int, sel bool) { t.MoveTo(line, 0, sel) }

// MoveTo places the cursor on line at byte offset ch. Both are clamped
// to the text.
func (t *Text) MoveTo(line, ch int, sel bool) {
	linep, charp := t.cursor(sel)
	if *linep == nil {
		return
	}
	*linep = t.lines.Front()
	for i := 0; i < line; i++ {
		next := (*linep).Next()
		if next == nil {
			break
		}
		*linep = next
	}
	*charp = max(0, min(ch, (*linep).Value.Len()))
	if !sel {
		t.PopSel()
	}
}

func (t *Text) swapCursors() {
	t.curl, t.sell = t.sell, t.curl
	t.curc, t.selc = t.selc, t.curc
}

// selBefore reports whether the moving end precedes the cursor.
func (t *Text) selBefore() bool {
	return span(t.curl, t.sell) < 0 || (t.curl == t.sell && t.curc > t.selc)
}

func (t *Text) selAfter() bool {
	return span(t.curl, t.sell) > 0 || (t.curl == t.sell && t.curc < t.selc)
}

func (t *Text) popFirst() {
	if t.selBefore() {
		t.swapCursors()
	}
	t.PopSel()
}

func (t *Text) popLast() {
	if t.selAfter() {
		t.swapCursors()
	}
	t.PopSel()
}

// PopSel collapses the selection onto the cursor.
func (t *Text) PopSel() {
	t.sell = t.curl
	t.selc = t.curc
}

// OrderCursors puts the cursor before the moving end, or after it when
// reverse is set.
func (t *Text) OrderCursors(reverse bool) {
	if t.curl == nil || t.sell == nil {
		return
	}
	if !reverse && t.selBefore() || reverse && t.selAfter() {
		t.swapCursors()
	}
}

func (t *Text) HasSel() bool {
	return t.curl != t.sell || t.curc != t.selc
}

func (t *Text) SelectAll() {
	if t.lines == nil {
		return
	}
	t.curl = t.lines.Front()
	t.curc = 0
	t.sell = t.lines.Back()
	t.selc = t.sell.Value.Len()
}

// SelectClear collapses the selection onto the moving end.
func (t *Text) SelectClear() {
	if t.sell != nil {
		t.curl = t.sell
		t.curc = t.selc
	}
}

// SelectLine selects the whole cursor line.
func (t *Text) SelectLine() {
	if t.curl == nil {
		return
	}
	t.curc = 0
	t.sell = t.curl
	t.selc = t.sell.Value.Len()
}

// SelectSet selects from (startl, startc) to (endl, endc). Columns are
// character indices. Negative values count from the last line or from the
// end of the line, -1 being the end.
func (t *Text) SelectSet(startl, startc, endl, endc int) {
	if t.lines == nil {
		return
	}
	if startl < 0 || endl < 0 {
		end := t.lines.Len() - 1
		if startl < 0 {
			startl = end + startl + 1
		}
		if endl < 0 {
			endl = end + endl + 1
		}
	}
	startl = max(startl, 0)
	endl = max(endl, 0)

	froml := t.findLine(startl)
	tol := froml
	if startl != endl {
		tol = t.findLine(endl)
	}

	fromlen := utf8.RuneCount(froml.Value.buf)
	tolen := utf8.RuneCount(tol.Value.buf)
	if startc < 0 {
		startc = fromlen + startc + 1
	}
	if endc < 0 {
		endc = tolen + endc + 1
	}
	startc = max(0, min(startc, fromlen))
	endc = max(0, min(endc, tolen))

	t.curl = froml
	t.curc = offsetFromIndex(froml.Value.buf, startc)
	t.sell = tol
	t.selc = offsetFromIndex(tol.Value.buf, endc)
}

// findLine returns line i, or the last line when i is out of range.
func (t *Text) findLine(i int) *list.Element[*Line] {
	e := t.lines.Front()
	for ; i > 0 && e != nil; i-- {
		e = e.Next()
	}
	if e == nil {
		return t.lines.Back()
	}
	return e
}
