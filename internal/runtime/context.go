// Package runtime implements the fixed extern helper ABI that native
// lowering (internal/native) calls into: arithmetic/comparison/member
// helpers on boxed Any values, the per-context exception flag fallible
// helpers set instead of returning a Go error (since native code cannot
// propagate a Go error value), and the free-stack-frame bookkeeping the
// CFG's Dup/PushFree discipline (internal/cfg) drives.
package runtime

import (
	"sync"

	"jsaot/internal/hostvalue"
	"jsaot/internal/util"
)

// Context is one execution context: the exception flag every fallible
// helper checks after calling another helper (mirroring, at the Go level,
// the "test the exception flag after every fallible call" convention the
// native ABI imposes on compiled code itself), the live free-stack frame,
// and the interned string-constant arena.
type Context struct {
	mu        sync.Mutex
	exc       *Error
	frames    *util.Stack // stack of *util.Stack, one free-list per active compiled-function activation
	strConsts map[string]hostvalue.Value

	// Host is the embedding runtime's object model, consulted for member
	// access, calls, and global lookups that boxed Any values alone cannot
	// resolve. It is an interface rather than a concrete type so the same
	// Context works whether the embedder is internal/interp's tree-walker
	// or a real external JS engine.
	Host HostBinding
}

// HostBinding is the seam between the compiled/interpreted code and the
// surrounding JS engine: object property access, calls, and global
// resolution all go through it. internal/interp provides the reference
// implementation used when this module runs standalone; an embedder
// wiring in a real engine supplies its own.
type HostBinding interface {
	GetMember(obj hostvalue.Value, key string) (hostvalue.Value, error)
	SetMember(obj hostvalue.Value, key string, val hostvalue.Value) error
	Call(callee hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error)
	CallCtor(callee hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error)
	GetGlobal(name string) (hostvalue.Value, error)
	InstanceOf(v, ctor hostvalue.Value) (bool, error)
}

// NewContext creates a Context bound to host.
func NewContext(host HostBinding) *Context {
	return &Context{
		frames:    &util.Stack{},
		strConsts: map[string]hostvalue.Value{},
		Host:      host,
	}
}

// Raise records err as the pending exception. Every subsequent fallible
// helper call on this Context must check HasException and bail out
// immediately instead of running, matching the native ABI's "test the
// exception flag" convention.
func (c *Context) Raise(err *Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exc == nil {
		c.exc = err
	}
}

// HasException reports whether a helper has raised an unconsumed error.
func (c *Context) HasException() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exc != nil
}

// TakeException clears and returns the pending exception. No code in this
// module calls it outside tests: compiled code only tests the flag
// (__hasException), and the interpreter has no try/catch.
func (c *Context) TakeException() *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.exc
	c.exc = nil
	return err
}

// EnterStackFrame pushes a new, empty free-list frame, mirroring compiled
// code's own prologue call to the extern of the same name. Every PushFree
// until the matching ExitStackFrame is recorded against this frame, not
// any frame belonging to a caller further down the stack.
func (c *Context) EnterStackFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames.Push(&util.Stack{})
}

// ExitStackFrame releases every value enqueued in the current frame, in
// LIFO order, then pops the frame itself. Mirrors compiled code's call to
// the same-named extern on every Return, ReturnValue, and exception-exit
// path. A Context with no active frame (called outside EnterStackFrame/
// ExitStackFrame bracketing, e.g. directly from Go-side tests) is a no-op.
func (c *Context) ExitStackFrame(release func(hostvalue.Value)) {
	c.mu.Lock()
	top, _ := c.frames.Pop().(*util.Stack)
	c.mu.Unlock()
	if top == nil {
		return
	}
	for top.Size() > 0 {
		v, ok := top.Pop().(hostvalue.Value)
		if !ok {
			break
		}
		release(v)
	}
}

// PushFree records v as owed a release against the current stack frame.
// Called with no active frame (no preceding EnterStackFrame) is a no-op:
// there is nothing to release it against.
func (c *Context) PushFree(v hostvalue.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	top, ok := c.frames.Peek().(*util.Stack)
	if !ok {
		return
	}
	top.Push(v)
}

// DrainFrees releases every value pushed to the current frame since it was
// entered, without popping the frame itself. Exposed for callers (tests,
// the interpreter) that want to flush a frame's pending releases without
// exiting it.
func (c *Context) DrainFrees(release func(hostvalue.Value)) {
	c.mu.Lock()
	top, ok := c.frames.Peek().(*util.Stack)
	c.mu.Unlock()
	if !ok {
		return
	}
	for top.Size() > 0 {
		v, ok := top.Pop().(hostvalue.Value)
		if !ok {
			break
		}
		release(v)
	}
}

// ResetException clears any pending exception without returning it,
// matching step (1) of the wrapper ABI: every call through a compiled
// function's `__caller` entry point starts with a clean flag.
func (c *Context) ResetException() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exc = nil
}

// HasExceptionFlag is HasException expressed as the 0/1 integer the
// native __hasException extern returns to compiled code, which has no
// access to a Go bool.
func (c *Context) HasExceptionFlag() int32 {
	if c.HasException() {
		return 1
	}
	return 0
}

// InternString returns the arena-unique Value for a StringConst literal,
// so the same literal occurring twice in one function is boxed once.
func (c *Context) InternString(s string) hostvalue.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.strConsts[s]; ok {
		return v
	}
	v := hostvalue.FromString(s)
	c.strConsts[s] = v
	return v
}
