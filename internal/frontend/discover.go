// discover.go walks a parsed program for compile candidates: top-level
// function declarations whose parameters and return value are all
// annotated with a recognised type. Candidates are located by token-offset
// slicing at per-function granularity: each candidate is compiled
// independently, and a candidate that fails later in the pipeline is
// skipped without affecting its siblings.
package frontend

import "fmt"

// Candidate is a single discovered function and the exact source slice of
// its declaration, used by the host glue (internal/host) to splice in a
// replacement once the function has been compiled.
type Candidate struct {
	Name       string
	Node       *Node
	ParamTypes []string
	ReturnType string
	SourceFrom int
	SourceTo   int
}

// Discover walks root (the result of Parser.ParseProgram) and returns every
// top-level NodeFunctionDecl whose signature is fully annotated. Functions
// with a missing or unrecognised annotation are left out: they remain
// source text for the interpreter to run.
func Discover(root *Node) ([]Candidate, []string) {
	var out []Candidate
	var skipped []string
	for _, child := range root.Children {
		if child.Kind != NodeFunctionDecl {
			continue
		}
		cand, ok := candidateFromDecl(child)
		if !ok {
			skipped = append(skipped, fmt.Sprintf("%s: missing or unrecognised type annotation", child.Name))
			continue
		}
		out = append(out, cand)
	}
	return out, skipped
}

func candidateFromDecl(fn *Node) (Candidate, bool) {
	if fn.ReturnAnn == "" {
		return Candidate{}, false
	}
	n := len(fn.Children)
	if n == 0 {
		return Candidate{}, false
	}
	params := fn.Children[:n-1]
	paramTypes := make([]string, len(params))
	for i, p := range params {
		if p.Kind != NodeParam || p.TypeAnn == "" {
			return Candidate{}, false
		}
		paramTypes[i] = p.TypeAnn
	}
	return Candidate{
		Name:       fn.Name,
		Node:       fn,
		ParamTypes: paramTypes,
		ReturnType: fn.ReturnAnn,
		SourceFrom: fn.Offset,
		SourceTo:   fn.EndOffset,
	}, true
}
