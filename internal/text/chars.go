package text

import "strings"

// CheckBracket returns 1..3 for an opening (, [ or {, the negated value for
// the matching closer, and 0 otherwise.
func CheckBracket(ch byte) int {
	const opens, closes = "([{", ")]}"
	if i := strings.IndexByte(opens, ch); i >= 0 {
		return i + 1
	}
	if i := strings.IndexByte(closes, ch); i >= 0 {
		return -(i + 1)
	}
	return 0
}

const delims = "():\"' ~!%^&*-+=[]{};/<>|.#\t,@"

func CheckDelim(ch byte) bool {
	return ch != 0 && strings.IndexByte(delims, ch) >= 0
}

func CheckDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

// CheckIdent reports whether ch can appear in an identifier.
func CheckIdent(ch byte) bool {
	return CheckDigit(ch) || CheckIdentNoDigit(ch)
}

// CheckIdentNoDigit reports whether ch can start an identifier.
func CheckIdentNoDigit(ch byte) bool {
	return ch >= 'A' && ch <= 'Z' || ch == '_' || ch >= 'a' && ch <= 'z'
}

func CheckIdentUnicode(r rune) bool {
	return r >= 0 && r < 255 && CheckIdent(byte(r))
}

func CheckIdentNoDigitUnicode(r rune) bool {
	return r >= 0 && r < 255 && CheckIdentNoDigit(byte(r))
}

func CheckWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n'
}

// FindIdentStart returns where the identifier ending just before s[i]
// begins.
func FindIdentStart(s string, i int) int {
	if i <= 0 {
		return 0
	}
	i = min(i, len(s))
	for i > 0 && CheckIdent(s[i-1]) {
		i--
	}
	return i
}
