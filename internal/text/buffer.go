package text

import (
	"bytes"
	"strings"
	"unicode/utf8"

	list "github.com/bahlo/generic-list-go"
)

// fromBuf fills an empty text from file contents. Every line feed ends a
// line, so a trailing line feed yields a final empty line. Control
// characters other than tab are dropped. It returns the number of bytes
// added while repairing invalid UTF-8.
func (t *Text) fromBuf(data []byte) int {
	added := 0
	for _, part := range bytes.Split(data, []byte{'\n'}) {
		buf, n := ExtendedASCIIAsUTF8(stripControl(part))
		added += n
		t.lines.PushBack(&Line{buf: buf})
	}
	t.curl = t.lines.Front()
	t.sell = t.curl
	t.curc, t.selc = 0, 0
	return added
}

func stripControl(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c < ' ' && c != '\t' {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ToBufForUndo returns the contents with a line feed after every line,
// the last one included. FromBufForUndo reverses it.
func (t *Text) ToBufForUndo() []byte {
	if t.lines == nil {
		return nil
	}
	n := 0
	for e := t.lines.Front(); e != nil; e = e.Next() {
		n += e.Value.Len() + 1
	}
	buf := make([]byte, 0, n)
	for e := t.lines.Front(); e != nil; e = e.Next() {
		buf = append(buf, e.Value.buf...)
		buf = append(buf, '\n')
	}
	return buf
}

// FromBufForUndo restores contents saved by ToBufForUndo, reusing the
// existing lines where it can. The cursor moves to the start.
func (t *Text) FromBufForUndo(buf []byte) {
	parts := bytes.Split(buf, []byte{'\n'})
	if len(parts) > 0 && len(parts[len(parts)-1]) == 0 {
		parts = parts[:len(parts)-1]
	}
	if t.lines == nil {
		t.lines = list.New[*Line]()
	}

	e := t.lines.Front()
	i := 0
	for ; i < len(parts) && e != nil; i++ {
		l := e.Value
		if len(l.buf) == len(parts[i]) {
			copy(l.buf, parts[i])
		} else {
			l.buf = clone(parts[i])
		}
		e = e.Next()
	}
	for e != nil {
		next := e.Next()
		t.lines.Remove(e)
		e = next
	}
	for ; i < len(parts); i++ {
		t.lines.PushBack(&Line{buf: clone(parts[i])})
	}

	t.curl, t.sell = nil, nil
	if t.lines.Len() == 0 {
		t.Clean()
	}
	t.curl = t.lines.Front()
	t.sell = t.curl
	t.curc, t.selc = 0, 0
	t.makeDirty()
}

// ToBuf returns the contents with a line feed after every line.
func (t *Text) ToBuf() string {
	return string(t.ToBufForUndo())
}

// SelToBuf returns the selected text, lines joined by line feeds.
func (t *Text) SelToBuf() string {
	if t.curl == nil || t.sell == nil {
		return ""
	}
	linef, linel := t.curl, t.sell
	charf, charl := t.curc, t.selc
	switch {
	case t.curl == t.sell:
		charf, charl = min(t.curc, t.selc), max(t.curc, t.selc)
	case span(t.curl, t.sell) < 0:
		linef, linel = t.sell, t.curl
		charf, charl = t.selc, t.curc
	}

	if linef == linel {
		return string(linef.Value.buf[charf:charl])
	}
	var sb strings.Builder
	sb.Write(linef.Value.buf[charf:])
	sb.WriteByte('\n')
	for e := linef.Next(); e != nil && e != linel; e = e.Next() {
		sb.Write(e.Value.buf)
		sb.WriteByte('\n')
	}
	sb.Write(linel.Value.buf[:charl])
	return sb.String()
}

// InsertBuf inserts s at the cursor, replacing the selection. Input stops
// at the first NUL byte.
func (t *Text) InsertBuf(s string) {
	if t.curl == nil {
		return
	}
	t.deleteSel()

	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	buf, _ := ExtendedASCIIAsUTF8([]byte(s))

	first, rest, split := bytes.Cut(buf, []byte{'\n'})
	t.insertRaw(first)
	if !split {
		return
	}
	t.SplitCurLine()
	for {
		line, more, found := bytes.Cut(rest, []byte{'\n'})
		if !found {
			t.insertRaw(line)
			return
		}
		t.lines.InsertBefore(&Line{buf: clone(line)}, t.curl)
		rest = more
	}
}

// insertRaw splices b, which holds no line feed, in at the cursor.
func (t *Text) insertRaw(b []byte) {
	if len(b) == 0 {
		return
	}
	l := t.curl.Value
	l.buf = concat(l.buf[:t.curc], b, l.buf[t.curc:])
	t.curc += len(b)
	t.PopSel()
	t.makeDirty()
}

// indexFold returns the byte span of the first literal match of p in b
// under simple Unicode case folding. The span is measured in b, whose
// encoding of a folded rune may differ in length from p's.
func indexFold(b, p []byte) (int, int) {
	for i := 0; i < len(b); {
		j, k := i, 0
		for k < len(p) && j < len(b) {
			_, pn := utf8.DecodeRune(p[k:])
			_, bn := utf8.DecodeRune(b[j:])
			if !bytes.EqualFold(b[j:j+bn], p[k:k+pn]) {
				break
			}
			j += bn
			k += pn
		}
		if k == len(p) {
			return i, j
		}
		_, n := utf8.DecodeRune(b[i:])
		i += n
	}
	return -1, -1
}

// FindString searches for pattern from the end of the selection and
// selects the first match. With wrap the search continues from the top
// and may end on the starting line.
func (t *Text) FindString(pattern string, wrap, matchCase bool) bool {
	if t.curl == nil || t.sell == nil || pattern == "" {
		return false
	}
	t.OrderCursors(false)

	find := func(b []byte) (int, int) {
		if !matchCase {
			return indexFold(b, []byte(pattern))
		}
		i := bytes.Index(b, []byte(pattern))
		if i < 0 {
			return -1, -1
		}
		return i, i + len(pattern)
	}

	startl := t.sell
	tl := startl
	offset := t.selc
	start, end := find(tl.Value.buf[offset:])
	for start < 0 {
		tl = tl.Next()
		if tl == nil {
			if !wrap {
				break
			}
			tl = t.lines.Front()
		}
		offset = 0
		start, end = find(tl.Value.buf)
		if tl == startl {
			break
		}
	}
	if start < 0 {
		return false
	}
	line := span(t.lines.Front(), tl)
	t.MoveTo(line, offset+start, false)
	t.MoveTo(line, offset+end, true)
	return true
}
