// This lexer is based on Rob Pike's talk on Go scanners ("Lexical Scanning
// in Go"): a stack of state functions (stateFunc) that consume runes from
// the input and emit tokens. Unlike a channel-fed scanner built for a
// single-pass parser that never looks backward, this lexer runs to
// completion and returns a token slice, because the recursive-descent
// parser in parser.go needs to save and restore its cursor to resolve the
// comma/arrow-parameter-list cover grammar.
package frontend

import (
	"fmt"
	"unicode/utf8"
)

// stateFunc defines the state of the lexer. A nil return stops scanning.
type stateFunc func(*lexer) stateFunc

// diagnostic is a recoverable lexer issue reported alongside a token of
// Kind Invalid.
type diagnostic struct {
	Line, Column int
	Message      string
}

// lexer traverses a source stream rune by rune and accumulates tokens.
type lexer struct {
	input       string
	start       int // Byte offset of the token currently being scanned.
	pos         int // Current scan position.
	width       int // Width in bytes of the last rune returned by next.
	line        int
	startOnLine int // Column of start on the current line.

	tokens []Token
	diags  []diagnostic
}

const eof = 0

// Tokenize scans src in its entirety and returns every non-comment,
// non-whitespace token, terminated by a Token of Kind EOF. Diagnostics for
// recoverable lexical errors (bad escapes, unterminated strings, malformed
// numeric literals) are returned alongside a best-effort token stream; a
// fatal Invalid token ends scanning early.
func Tokenize(src string) ([]Token, []string) {
	l := &lexer{input: src, line: 1, startOnLine: 1}
	for state := stateFunc(lexGlobal); state != nil; {
		state = state(l)
	}
	msgs := make([]string, len(l.diags))
	for i, d := range l.diags {
		msgs[i] = fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
	}
	return l.tokens, msgs
}

// emit appends a token of kind typ spanning [l.start, l.pos) to the token
// list and advances the token start.
func (l *lexer) emit(typ Kind) {
	l.tokens = append(l.tokens, Token{
		Line:   l.line,
		Column: l.startOnLine,
		Offset: l.start,
		Text:   l.input[l.start:l.pos],
		Kind:   typ,
	})
	l.startOnLine += l.pos - l.start
	l.start = l.pos
}

// next returns the next rune in the input, advancing the scan position.
// UTF-8 decoding gives the lexer native Unicode identifier support.
func (l *lexer) next() (r rune) {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, l.width = utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += l.width
	return r
}

// ignore discards the pending input before the current scan position.
func (l *lexer) ignore() {
	l.startOnLine += l.pos - l.start
	l.start = l.pos
}

// backup steps back one rune. Must only be called once per call to next.
func (l *lexer) backup() {
	if l.pos > l.start {
		l.pos -= l.width
	}
}

// peek returns, without consuming, the next rune in the input.
func (l *lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

// peek2 looks two runes ahead without consuming either.
func (l *lexer) peek2() rune {
	r1 := l.next()
	r2 := l.next()
	l.backup()
	l.backup()
	_ = r1
	return r2
}

// accept consumes the next rune if it is byte-equal to r.
func (l *lexer) accept(r rune) bool {
	if l.peek() == r {
		l.next()
		return true
	}
	return false
}

// errorf records a diagnostic and terminates the scan with an Invalid token.
func (l *lexer) errorf(format string, args ...interface{}) stateFunc {
	msg := fmt.Sprintf(format, args...)
	l.diags = append(l.diags, diagnostic{Line: l.line, Column: l.startOnLine, Message: msg})
	l.tokens = append(l.tokens, Token{Line: l.line, Column: l.startOnLine, Text: msg, Kind: Invalid})
	return nil
}
