package interp

import (
	"jsaot/internal/frontend"
	"jsaot/internal/hostvalue"
)

// binding is one name's current value and whether it was declared const,
// checked on assignment the same way internal/cfg's emitter checks
// LVRef.Const at compile time — the interpreter has no compile step, so
// the check happens here instead.
type binding struct {
	value hostvalue.Value
	isConst bool
}

// environment is one lexical scope, chained to its parent, mirroring
// internal/cfg's scope type but holding live values instead of Temps.
type environment struct {
	parent *environment
	vars   map[string]*binding
	funcs  []*frontend.Node // function declarations bound in this scope, indexed by hostvalue.Value.Obj.
}

func newEnvironment(parent *environment) *environment {
	return &environment{parent: parent, vars: map[string]*binding{}}
}

func (e *environment) define(name string, v hostvalue.Value, isConst bool) {
	e.vars[name] = &binding{value: v, isConst: isConst}
}

func (e *environment) lookup(name string) (*binding, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if b, ok := cur.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// funcNode resolves a Function-tagged hostvalue.Value back to the AST node
// it was declared from, searching outward from env since funcs is only
// populated on the environment that owns the NodeFunctionDecl.
func (e *environment) funcNode(v hostvalue.Value) (*frontend.Node, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if int(v.Obj) < len(cur.funcs) {
			return cur.funcs[v.Obj], true
		}
	}
	return nil, false
}
