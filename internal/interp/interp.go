// Package interp is the fallback tree-walking evaluator: it runs the parsed
// AST directly for any function the native pipeline could not or should not
// compile (an untyped signature, an unsupported construct the parser
// rejected, or a whole-source fallback after a native lowering failure).
// Compiled stubs installed by internal/host are ordinary host function
// values here: evalCall reaches them through the Context's HostBinding,
// while functions declared in the interpreted source run directly through
// callInterpreted.
package interp

import (
	"fmt"

	"jsaot/internal/frontend"
	"jsaot/internal/hostvalue"
	"jsaot/internal/runtime"
)

// Interp walks one program's top-level statements against a shared
// runtime.Context and a lexical environment of declared bindings.
type Interp struct {
	ctx *runtime.Context
	env *environment
}

// New creates an interpreter bound to ctx, with an empty global scope.
func New(ctx *runtime.Context) *Interp {
	return &Interp{ctx: ctx, env: newEnvironment(nil)}
}

// Run evaluates every top-level statement of root in order: a
// NodeFunctionDecl at the top level binds the function's name to a
// callable value without invoking it; every other statement executes
// immediately.
func (ip *Interp) Run(root *frontend.Node) error {
	for _, stmt := range root.Children {
		if _, err := ip.execStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// controlKind distinguishes the three ways executing a statement can
// unwind a function body early, since Go has no first-class non-local exit
// besides panic/recover or explicit sentinel values threaded through
// returns — threading sentinels keeps the interpreter's call stack
// ordinary Go stack frames, which matters for readable stack traces during
// development.
type controlKind int

const (
	controlNone controlKind = iota
	controlBreak
	controlContinue
	controlReturn
)

type control struct {
	kind controlKind
	val  hostvalue.Value
}

func (ip *Interp) execStatement(n *frontend.Node) (control, error) {
	switch n.Kind {
	case frontend.NodeFunctionDecl:
		ip.env.define(n.Name, hostvalue.Value{Tag: hostvalue.Function, Obj: uintptr(len(ip.env.funcs))}, false)
		ip.env.funcs = append(ip.env.funcs, n)
		return control{}, nil
	case frontend.NodeBlock:
		child := newEnvironment(ip.env)
		ip.env, child = child, ip.env
		defer func() { ip.env = child }()
		for _, stmt := range n.Children {
			if c, err := ip.execStatement(stmt); err != nil || c.kind != controlNone {
				return c, err
			}
		}
		return control{}, nil
	case frontend.NodeEmpty:
		return control{}, nil
	case frontend.NodeExprStmt:
		_, err := ip.eval(n.Children[0])
		return control{}, err
	case frontend.NodeLexicalDecl:
		return control{}, ip.execLexicalDecl(n)
	case frontend.NodeIf:
		return ip.execIf(n)
	case frontend.NodeWhile:
		return ip.execWhile(n)
	case frontend.NodeDoWhile:
		return ip.execDoWhile(n)
	case frontend.NodeFor:
		return ip.execFor(n)
	case frontend.NodeBreak:
		return control{kind: controlBreak}, nil
	case frontend.NodeContinue:
		return control{kind: controlContinue}, nil
	case frontend.NodeReturn:
		if len(n.Children) == 0 {
			return control{kind: controlReturn, val: hostvalue.Undef()}, nil
		}
		v, err := ip.eval(n.Children[0])
		return control{kind: controlReturn, val: v}, err
	case frontend.NodeThrow:
		v, err := ip.eval(n.Children[0])
		if err != nil {
			return control{}, err
		}
		return control{}, runtime.NewError(runtime.InternalError, "uncaught exception: %s", v.String())
	default:
		return control{}, fmt.Errorf("interp: unsupported statement kind %v", n.Kind)
	}
}

func (ip *Interp) execLexicalDecl(n *frontend.Node) error {
	isConst := n.Op == "const"
	for _, decl := range n.Children {
		val := hostvalue.Undef()
		if len(decl.Children) > 0 {
			v, err := ip.eval(decl.Children[0])
			if err != nil {
				return err
			}
			val = v
		}
		ip.env.define(decl.Name, val, isConst)
	}
	return nil
}

func (ip *Interp) execIf(n *frontend.Node) (control, error) {
	test, err := ip.eval(n.Children[0])
	if err != nil {
		return control{}, err
	}
	if test.Truthy() {
		return ip.execStatement(n.Children[1])
	}
	if len(n.Children) > 2 {
		return ip.execStatement(n.Children[2])
	}
	return control{}, nil
}

func (ip *Interp) execWhile(n *frontend.Node) (control, error) {
	for {
		test, err := ip.eval(n.Children[0])
		if err != nil {
			return control{}, err
		}
		if !test.Truthy() {
			return control{}, nil
		}
		c, err := ip.execStatement(n.Children[1])
		if err != nil {
			return control{}, err
		}
		if c.kind == controlBreak {
			return control{}, nil
		}
		if c.kind == controlReturn {
			return c, nil
		}
	}
}

func (ip *Interp) execDoWhile(n *frontend.Node) (control, error) {
	for {
		c, err := ip.execStatement(n.Children[0])
		if err != nil {
			return control{}, err
		}
		if c.kind == controlBreak {
			return control{}, nil
		}
		if c.kind == controlReturn {
			return c, nil
		}
		test, err := ip.eval(n.Children[1])
		if err != nil {
			return control{}, err
		}
		if !test.Truthy() {
			return control{}, nil
		}
	}
}

func (ip *Interp) execFor(n *frontend.Node) (control, error) {
	child := newEnvironment(ip.env)
	ip.env, child = child, ip.env
	defer func() { ip.env = child }()

	if n.Children[0] != nil {
		if n.Children[0].Kind == frontend.NodeLexicalDecl {
			if err := ip.execLexicalDecl(n.Children[0]); err != nil {
				return control{}, err
			}
		} else if _, err := ip.eval(n.Children[0]); err != nil {
			return control{}, err
		}
	}
	for {
		if n.Children[1] != nil {
			test, err := ip.eval(n.Children[1])
			if err != nil {
				return control{}, err
			}
			if !test.Truthy() {
				return control{}, nil
			}
		}
		c, err := ip.execStatement(n.Children[3])
		if err != nil {
			return control{}, err
		}
		if c.kind == controlBreak {
			return control{}, nil
		}
		if c.kind == controlReturn {
			return c, nil
		}
		if n.Children[2] != nil {
			if _, err := ip.eval(n.Children[2]); err != nil {
				return control{}, err
			}
		}
	}
}
