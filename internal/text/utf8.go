package text

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/encoding/charmap"
)

// ExtendedASCIIAsUTF8 re-encodes every byte that isn't part of a valid
// UTF-8 sequence as the Latin-1 character it stands for. It returns the
// repaired buffer and the number of bytes added.
func ExtendedASCIIAsUTF8(b []byte) ([]byte, int) {
	if utf8.Valid(b) {
		return b, 0
	}
	out := make([]byte, 0, len(b)+8)
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			out = utf8.AppendRune(out, charmap.ISO8859_1.DecodeByte(b[i]))
			i++
			continue
		}
		out = append(out, b[i:i+size]...)
		i += size
	}
	return out, len(out) - len(b)
}

// charWidth returns the display width of the character starting at s[0]
// and its byte size. Tabs are handled by the callers.
func charWidth(s []byte) (width, size int) {
	r, size := utf8.DecodeRune(s)
	if r == utf8.RuneError && size <= 1 {
		return 1, size
	}
	return runewidth.RuneWidth(r), size
}

// offsetToColumn converts a byte offset into a display column, expanding
// tabs to the next tab stop.
func offsetToColumn(s []byte, offset int) int {
	if offset > len(s) {
		offset = len(s)
	}
	col := 0
	for pos := 0; pos < offset; {
		if s[pos] == '\t' {
			col += TabSize - col%TabSize
			pos++
			continue
		}
		w, size := charWidth(s[pos:])
		col += w
		pos += size
	}
	return col
}

// offsetFromColumn returns the byte offset of the last character boundary
// at or before display column col.
func offsetFromColumn(s []byte, col int) int {
	offset, pos := 0, 0
	for offset < len(s) && pos < col {
		var w, size int
		if s[offset] == '\t' {
			w, size = TabSize-pos%TabSize, 1
		} else {
			w, size = charWidth(s[offset:])
		}
		if pos+w > col {
			break
		}
		offset += size
		pos += w
	}
	return offset
}

// prevCharOffset returns the start of the character before offset.
func prevCharOffset(s []byte, offset int) int {
	if offset <= 0 {
		return 0
	}
	_, size := utf8.DecodeLastRune(s[:offset])
	return offset - size
}

// charSize returns the byte size of the character at offset.
func charSize(s []byte, offset int) int {
	if offset >= len(s) {
		return 0
	}
	_, size := utf8.DecodeRune(s[offset:])
	return size
}

// offsetFromIndex converts a character index into a byte offset.
func offsetFromIndex(s []byte, index int) int {
	offset := 0
	for ; index > 0 && offset < len(s); index-- {
		_, size := utf8.DecodeRune(s[offset:])
		offset += size
	}
	return offset
}

type delimType int

const (
	delimNone delimType = iota
	delimAlphaNum
	delimPunct
	delimBrace
	delimOperator
	delimQuote
	delimWhitespace
	delimOther
)

func runeDelimType(r rune) delimType {
	switch r {
	case ',', '.':
		return delimPunct
	case '{', '}', '[', ']', '(', ')':
		return delimBrace
	case '+', '-', '=', '~', '%', '/', '<', '>', '^', '*', '&', '|':
		return delimOperator
	case '\'', '"':
		return delimQuote
	case ' ', '\t', '\n':
		return delimWhitespace
	case '\\', '@', '#', '$', ':', ';', '?', '!', 0xA3, 0x20AC:
		return delimOther
	}
	return delimAlphaNum
}

func delimAt(s []byte, offset int) delimType {
	if offset >= len(s) {
		return delimNone
	}
	r, _ := utf8.DecodeRune(s[offset:])
	return runeDelimType(r)
}

func delimBefore(s []byte, offset int) delimType {
	if offset <= 0 {
		return delimNone
	}
	r, _ := utf8.DecodeLastRune(s[:offset])
	return runeDelimType(r)
}

// stepWordNext moves offset forward past a run of characters of the same
// delimiter class. With initStep the first character is skipped before the
// class is sampled.
func stepWordNext(s []byte, offset int, initStep bool) int {
	if initStep && offset < len(s) {
		offset += charSize(s, offset)
	}
	class := delimAt(s, offset)
	for offset < len(s) {
		offset += charSize(s, offset)
		if delimAt(s, offset) != class {
			break
		}
	}
	return offset
}

// stepWordPrev is the backward counterpart of stepWordNext.
func stepWordPrev(s []byte, offset int, initStep bool) int {
	if initStep && offset > 0 {
		offset = prevCharOffset(s, offset)
	}
	class := delimBefore(s, offset)
	for offset > 0 && delimBefore(s, offset) == class {
		offset = prevCharOffset(s, offset)
	}
	return offset
}
