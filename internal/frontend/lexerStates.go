package frontend

// lexGlobal is the default lexer state: it dispatches to the more
// specialised scanning states based on the next rune, exactly as the
// teacher's lexGlobal does, widened to the JS-subset punctuator set.
func lexGlobal(l *lexer) stateFunc {
	for {
		r := l.next()
		switch {
		case r == eof:
			l.emit(EOF)
			return nil
		case r == '\n':
			l.ignore()
			l.line++
			l.startOnLine = 1
		case isSpace(r):
			l.ignore()
		case isIdentStart(r):
			return lexWord
		case isDigit(r):
			return lexNumber
		case r == '.' && isDigit(l.peek()):
			return lexNumber
		case r == '"', r == '\'', r == '`':
			l.backup()
			return lexString
		case r == '/' && l.peek() == '/':
			l.next()
			for c := l.next(); c != '\n' && c != eof; c = l.next() {
			}
			l.backup()
			l.ignore()
		case r == '/' && l.peek() == '*':
			l.next()
			return lexBlockComment
		case r == '#':
			// Private identifier: #name.
			return lexPrivate
		default:
			l.backup()
			return lexPunctuator
		}
	}
}

func lexBlockComment(l *lexer) stateFunc {
	for {
		r := l.next()
		switch r {
		case eof:
			return l.errorf("unterminated block comment")
		case '\n':
			l.line++
			l.startOnLine = 1
		case '*':
			if l.peek() == '/' {
				l.next()
				l.ignore()
				return lexGlobal
			}
		}
	}
}

// lexWord scans identifiers and keywords.
func lexWord(l *lexer) stateFunc {
	for {
		r := l.next()
		if !isIdentPart(r) {
			l.backup()
			text := l.input[l.start:l.pos]
			if isKeyword(text) {
				l.emit(Keyword)
			} else {
				l.emit(Identifier)
			}
			return lexGlobal
		}
	}
}

// lexPrivate scans a `#name` private identifier.
func lexPrivate(l *lexer) stateFunc {
	if !isIdentStart(l.next()) {
		return l.errorf("expected identifier after '#'")
	}
	for isIdentPart(l.peek()) {
		l.next()
	}
	l.emit(Identifier)
	return lexGlobal
}

// lexNumber scans decimal, hex/octal/binary-prefixed, and legacy-octal
// numeric literals, accepting '_' as a digit separator everywhere except as
// a leading or trailing character of a digit run.
func lexNumber(l *lexer) stateFunc {
	l.backup() // Re-examine the first digit (or '.') uniformly below.
	r := l.next()

	if r == '0' {
		switch l.peek() {
		case 'x', 'X':
			l.next()
			if !scanDigitRun(l, isHexDigit) {
				return l.errorf("malformed hexadecimal literal")
			}
			l.emit(NumericLiteral)
			return lexGlobal
		case 'o', 'O':
			l.next()
			if !scanDigitRun(l, isOctalDigit) {
				return l.errorf("malformed octal literal")
			}
			l.emit(NumericLiteral)
			return lexGlobal
		case 'b', 'B':
			l.next()
			if !scanDigitRun(l, isBinaryDigit) {
				return l.errorf("malformed binary literal")
			}
			l.emit(NumericLiteral)
			return lexGlobal
		}
		// Legacy leading zero: consume further digits as a single literal,
		// e.g. 0755. Falls through to decimal scanning below.
	}

	for isDigit(l.peek()) || l.peek() == '_' {
		l.next()
	}
	if l.peek() == '.' {
		l.next()
		for isDigit(l.peek()) || l.peek() == '_' {
			l.next()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		l.next()
		if l.peek() == '+' || l.peek() == '-' {
			l.next()
		}
		if !isDigit(l.peek()) {
			return l.errorf("malformed exponent in numeric literal")
		}
		for isDigit(l.peek()) {
			l.next()
		}
	}
	text := l.input[l.start:l.pos]
	for i := 0; i < len(text); i++ {
		if text[i] == '_' && (i == 0 || i == len(text)-1 || !isDigit(rune(text[i-1])) || !isDigit(rune(text[i+1]))) {
			return l.errorf("'_' cannot be the first or last character of a digit run")
		}
	}
	if l.peek() == 'n' {
		// BigInt suffix: kept in the token so parseNumericLiteral rejects it.
		l.next()
	}
	l.emit(NumericLiteral)
	return lexGlobal
}

// scanDigitRun consumes a run of digits satisfying pred, after a 0x/0o/0b
// prefix, rejecting a leading or trailing '_'.
func scanDigitRun(l *lexer, pred func(rune) bool) bool {
	start := l.pos
	for pred(l.peek()) || l.peek() == '_' {
		l.next()
	}
	run := l.input[start:l.pos]
	if len(run) == 0 || run[0] == '_' || run[len(run)-1] == '_' {
		return false
	}
	return true
}

// lexString scans a string literal delimited by ', ", or `, honouring a
// fixed escape sequence set. The token text excludes the delimiters, except
// that a template literal keeps its opening '`' so the parser can tell it
// apart and reject it.
func lexString(l *lexer) stateFunc {
	delim := l.next()
	if delim != '`' {
		l.ignore()
	}
	for {
		r := l.next()
		switch r {
		case eof:
			return l.errorf("unterminated string literal")
		case '\n':
			return l.errorf("raw newline in string literal")
		case '\\':
			if !isValidEscape(l.next()) {
				return l.errorf("invalid escape sequence in string literal")
			}
		default:
			if r == delim {
				l.backup()
				l.emit(StringLiteral)
				l.next()
				l.ignore()
				return lexGlobal
			}
		}
	}
}

func isValidEscape(r rune) bool {
	switch r {
	case 'b', 'f', 'n', 'r', 't', 'v', '0', '\'', '"', '\\', '`', '\n':
		return true
	default:
		return false
	}
}

// punctuators is tried longest-first so that greedy longest-match is a
// simple linear scan: a three-rune operator like ">>>" is attempted before
// its two- and one-rune prefixes.
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.",
	"++", "--", "**", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"(", ")", "{", "}", "[", "]", ".", ";", ",", ":", "~",
	"=", "+", "-", "*", "/", "%", "<", ">", "!", "&", "|", "^", "?",
}

func lexPunctuator(l *lexer) stateFunc {
	rest := l.input[l.pos:]
	for _, p := range punctuators {
		if len(rest) >= len(p) && rest[:len(p)] == p {
			l.pos += len(p)
			l.emit(Punctuator)
			return lexGlobal
		}
	}
	return l.errorf("unrecognised character %q", l.peek())
}

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isOctalDigit(r rune) bool { return r >= '0' && r <= '7' }

func isBinaryDigit(r rune) bool { return r == '0' || r == '1' }

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\f' || r == '\r'
}
