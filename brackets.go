package molparse

// Bracket pairs accepted in formulas.
var bracketPairs = map[byte]byte{
	'(': ')',
	'[': ']',
	'{': '}',
}

// IsOpeningBracket reports whether b is '(', '[' or '{'.
func IsOpeningBracket(b byte) bool {
	return b == '(' || b == '[' || b == '{'
}

// IsClosingBracket reports whether b is ')', ']' or '}'.
func IsClosingBracket(b byte) bool {
	return b == ')' || b == ']' || b == '}'
}

// IsBracket reports whether b is any of the six bracket characters.
func IsBracket(b byte) bool {
	return IsOpeningBracket(b) || IsClosingBracket(b)
}

// ClosesBracket reports whether closing is the partner of opening.
func ClosesBracket(opening, closing byte) bool {
	c, ok := bracketPairs[opening]
	return ok && c == closing
}

// IsUpper, IsLower, IsDigit and IsAlnum classify ASCII bytes. Formulas are
// ASCII only; any byte >= 0x80 is rejected by validation.

// IsUpper reports whether b is 'A'..'Z'.
func IsUpper(b byte) bool { return 'A' <= b && b <= 'Z' }

// IsLower reports whether b is 'a'..'z'.
func IsLower(b byte) bool { return 'a' <= b && b <= 'z' }

// IsDigit reports whether b is '0'..'9'.
func IsDigit(b byte) bool { return '0' <= b && b <= '9' }

// IsLetter reports whether b is an ASCII letter.
func IsLetter(b byte) bool { return IsUpper(b) || IsLower(b) }

// IsAlnum reports whether b is an ASCII letter or digit.
func IsAlnum(b byte) bool { return IsLetter(b) || IsDigit(b) }
