// Package host wires together every compiler stage into the single entry
// point an embedder calls: parse, discover compile candidates, lower each
// to a CFG, simplify, lower to native code, install the result as callable
// host functions, splice the compiled functions' source out, and hand the
// rewritten source to the interpreter for everything else. The pipeline
// shape follows the familiar parse -> generate -> emit batch-compiler
// structure, widened with per-function partial-failure and whole-job
// fallback semantics a single-pass batch compiler with no interpreter
// escape hatch would never need.
package host

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"jsaot/internal/cfg"
	"jsaot/internal/frontend"
	"jsaot/internal/native"
	"jsaot/internal/types"
	"jsaot/internal/util"
)

// Result is what Compile returns: the rewritten source ready to hand to an
// interpreter or script loader, the object code to load as compiled stubs,
// and per-function diagnostics explaining any candidate that did not make
// it through the pipeline.
type Result struct {
	Source   string
	Object   []byte
	Compiled []string
	Skipped  []SkipReason
}

// SkipReason records why a function discovered as a compile candidate was
// not ultimately compiled, so -vb output and callers can explain partial
// results instead of silently downgrading to the interpreter.
type SkipReason struct {
	Function string
	Reason   string
}

// Compile runs the full pipeline over src. On any stage failure that is not
// scoped to a single function (a lex/parse failure, or every candidate
// failing), Compile returns the original, unmodified src as Result.Source
// and a nil Object — a whole-job fallback — rather than an error, since
// "compilation did not help" is not itself a failure the embedder needs to
// treat specially; it runs src under the interpreter either way. The one
// exception is opt.NoFallback: a candidate that fails CFG emission, native
// lowering or wrapper generation, or a native object emission failure, is
// then returned as an error. With opt.DumpCFG set, the simplified CFG of every
// function reaching native lowering is printed to stderr.
func Compile(opt util.Options, src string) (Result, error) {
	p, lexDiags := frontend.NewParser(src)
	root := p.ParseProgram()
	if perr := p.Err(); perr != nil && len(root.Children) == 0 {
		return Result{Source: src}, nil
	}
	_ = lexDiags

	candidates, skipped := frontend.Discover(root)
	result := Result{Source: src}
	for _, s := range skipped {
		result.Skipped = append(result.Skipped, SkipReason{Reason: s})
	}
	if len(candidates) == 0 {
		return result, nil
	}

	type lowered struct {
		cand frontend.Candidate
		fn   *cfg.Function
		err  error
	}

	loweredFns := make([]lowered, len(candidates))
	if opt.Threads > 1 {
		g := new(errgroup.Group)
		for i, c := range candidates {
			i, c := i, c
			g.Go(func() error {
				fn, err := lowerCandidate(c)
				loweredFns[i] = lowered{cand: c, fn: fn, err: err}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, c := range candidates {
			fn, err := lowerCandidate(c)
			loweredFns[i] = lowered{cand: c, fn: fn, err: err}
		}
	}

	mod := native.NewModule("jsaot")
	defer mod.Dispose()

	var compiled []lowered
	for _, lf := range loweredFns {
		if lf.err != nil {
			if opt.NoFallback {
				return Result{}, fmt.Errorf("host: compiling %s: %w", lf.cand.Name, lf.err)
			}
			result.Skipped = append(result.Skipped, SkipReason{Function: lf.cand.Name, Reason: lf.err.Error()})
			continue
		}
		compiled = append(compiled, lf)
	}
	if len(compiled) == 0 {
		return result, nil
	}

	var rewrites []rewriteSpan
	for _, lf := range compiled {
		if opt.DumpCFG {
			fmt.Fprint(os.Stderr, lf.fn.String())
		}
		body, err := mod.LowerFunction(lf.fn)
		if err != nil {
			if opt.NoFallback {
				return Result{}, fmt.Errorf("host: lowering %s: %w", lf.cand.Name, err)
			}
			result.Skipped = append(result.Skipped, SkipReason{Function: lf.cand.Name, Reason: err.Error()})
			continue
		}
		if _, err := mod.GenerateWrapper(lf.fn, body); err != nil {
			if opt.NoFallback {
				return Result{}, fmt.Errorf("host: wrapping %s: %w", lf.cand.Name, err)
			}
			result.Skipped = append(result.Skipped, SkipReason{Function: lf.cand.Name, Reason: err.Error()})
			continue
		}
		result.Compiled = append(result.Compiled, lf.cand.Name)
		rewrites = append(rewrites, rewriteSpan{from: lf.cand.SourceFrom, to: lf.cand.SourceTo, name: lf.cand.Name})
	}
	if len(rewrites) == 0 {
		return result, nil
	}

	obj, err := mod.EmitObject()
	if err != nil {
		if opt.NoFallback {
			return Result{}, fmt.Errorf("host: emitting native object: %w", err)
		}
		return Result{Source: src, Skipped: append(result.Skipped, SkipReason{Reason: "native object emission failed: " + err.Error()})}, nil
	}
	result.Object = obj
	result.Source = Rewrite(src, rewrites)
	return result, nil
}

// lowerCandidate resolves a frontend.Candidate's string type annotations to
// internal/types.ValueType and emits+simplifies its CFG. A candidate whose
// annotation is not in types.TypeName is itself a per-function skip, never
// a whole-job error — the annotation grammar intentionally leaves room for
// type names the resolver does not support yet.
func lowerCandidate(c frontend.Candidate) (*cfg.Function, error) {
	paramTypes := make([]types.ValueType, len(c.ParamTypes))
	for i, name := range c.ParamTypes {
		t, ok := types.TypeName[name]
		if !ok {
			return nil, fmt.Errorf("unresolvable parameter type %q", name)
		}
		paramTypes[i] = t
	}
	returnType, ok := types.TypeName[c.ReturnType]
	if !ok {
		return nil, fmt.Errorf("unresolvable return type %q", c.ReturnType)
	}
	fn, err := cfg.Emit(c.Node, paramTypes, returnType)
	if err != nil {
		return nil, err
	}
	cfg.Simplify(fn)
	return fn, nil
}
