package frontend

// keywords is the fixed reserved-word set of the source language subset,
// plus the contextually-reserved words the lexer still tags as keywords;
// the parser decides per-production whether a contextual keyword is being
// used as an identifier. A flat map lookup keeps keyword recognition to a
// handful of comparisons instead of a full tokenizer state.
var keywords = map[string]bool{
	"await": true, "break": true, "case": true, "catch": true, "class": true,
	"const": true, "continue": true, "debugger": true, "default": true,
	"delete": true, "do": true, "else": true, "enum": true, "export": true,
	"extends": true, "false": true, "finally": true, "for": true,
	"function": true, "if": true, "import": true, "in": true,
	"instanceof": true, "new": true, "null": true, "return": true,
	"super": true, "switch": true, "this": true, "throw": true, "true": true,
	"try": true, "typeof": true, "var": true, "void": true, "while": true,
	"with": true, "yield": true, "let": true, "static": true,

	// Contextually reserved.
	"as": true, "async": true, "from": true, "get": true, "meta": true,
	"of": true, "set": true, "target": true,
}

// isKeyword reports whether s is a reserved word of the source language
// subset.
func isKeyword(s string) bool {
	return keywords[s]
}

// recognisedTypeNames is the fixed set of type annotation identifiers the
// parser accepts on parameters and return types.
var recognisedTypeNames = map[string]bool{
	"int32": true, "float64": true, "boolean": true, "object": true, "void": true, "any": true,
}
