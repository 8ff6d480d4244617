package frontend

import (
	"strconv"
	"strings"
)

// decodeNumber turns a NumericLiteral token's exact source text into either
// an int32 or a float64, matching the lexer's recognised numeral forms
// (lexerStates.go: hex/octal/binary prefixes, legacy leading-zero, decimal
// with '_' separators, fractional part, exponent). Values outside int32
// range are reported as float, since arithmetic on out-of-range integer
// literals widens to F64.
func decodeNumber(text string) (i int32, f float64, isFloat bool, ok bool) {
	clean := strings.ReplaceAll(text, "_", "")

	if len(clean) > 1 && clean[0] == '0' {
		switch clean[1] {
		case 'x', 'X':
			if v, err := strconv.ParseInt(clean[2:], 16, 64); err == nil {
				return clampInt32(v)
			}
			return 0, 0, false, false
		case 'o', 'O':
			if v, err := strconv.ParseInt(clean[2:], 8, 64); err == nil {
				return clampInt32(v)
			}
			return 0, 0, false, false
		case 'b', 'B':
			if v, err := strconv.ParseInt(clean[2:], 2, 64); err == nil {
				return clampInt32(v)
			}
			return 0, 0, false, false
		default:
			if isAllOctalDigits(clean[1:]) {
				if v, err := strconv.ParseInt(clean[1:], 8, 64); err == nil {
					return clampInt32(v)
				}
			}
		}
	}

	if strings.ContainsAny(clean, ".eE") {
		v, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return 0, 0, false, false
		}
		return 0, v, true, true
	}
	v, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		f, err2 := strconv.ParseFloat(clean, 64)
		if err2 != nil {
			return 0, 0, false, false
		}
		return 0, f, true, true
	}
	return clampInt32(v)
}

func clampInt32(v int64) (int32, float64, bool, bool) {
	if v >= -(1<<31) && v <= (1<<31)-1 {
		return int32(v), 0, false, true
	}
	return 0, float64(v), true, true
}

func isAllOctalDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '7' {
			return false
		}
	}
	return len(s) > 0
}

var stringEscapes = map[byte]byte{
	'b': '\b', 'f': '\f', 'n': '\n', 'r': '\r', 't': '\t', 'v': '\v',
	'0': 0, '\'': '\'', '"': '"', '\\': '\\', '`': '`',
}

// unescapeString decodes the fixed escape sequence set lexString validated
// (lexerStates.go), producing the runtime string value. text is the token's
// exact delimiter-stripped source slice.
func unescapeString(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) {
			i++
			next := text[i]
			if next == '\n' {
				continue
			}
			if r, ok := stringEscapes[next]; ok {
				b.WriteByte(r)
				continue
			}
			b.WriteByte(next)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
