package analyzer

// MatchBrace returns the byte offset just past the brace that closes the
// block opened at openIdx, which must point at a '{'. Braces inside string
// literals and comments are ignored. Character literals containing braces
// are a known, accepted miss. Returns -1 when the block never closes.
func MatchBrace(src string, openIdx int) int {
	if openIdx < 0 || openIdx >= len(src) || src[openIdx] != '{' {
		return -1
	}

	depth := 0
	inString := false
	inLineComment := false
	inBlockComment := false

	for i := openIdx; i < len(src); i++ {
		c := src[i]

		switch {
		case inLineComment:
			if c == '\n' {
				inLineComment = false
			}
		case inBlockComment:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				inBlockComment = false
				i++
			}
		case inString:
			if c == '\\' {
				i++ // skip escaped char
			} else if c == '"' {
				inString = false
			}
		default:
			switch c {
			case '"':
				inString = true
			case '/':
				if i+1 < len(src) {
					switch src[i+1] {
					case '/':
						inLineComment = true
						i++
					case '*':
						inBlockComment = true
						i++
					}
				}
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	return -1
}

// MethodSpan returns the [start, end) byte span of a method including its
// brace-balanced body. When the body cannot be matched, end falls back to
// nextStart (the start of the following method, or the unit end), so the
// caller always gets recoverable text.
func MethodSpan(src string, m MethodFact, nextStart int) (int, int) {
	end := MatchBrace(src, m.BodyStart)
	if end < 0 {
		if nextStart > m.Start && nextStart <= len(src) {
			return m.Start, nextStart
		}
		return m.Start, len(src)
	}
	return m.Start, end
}
