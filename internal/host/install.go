// install.go binds a Result's compiled stubs into a runtime.Context's host
// object model under the alias names rewrite.go spliced into the source,
// so the interpreter's ordinary NodeIdentRef/NodeCall evaluation picks them
// up with no special-casing: compiled stubs are installed as ordinary host
// function values.
package host

import (
	"fmt"

	"jsaot/internal/hostvalue"
	"jsaot/internal/runtime"
)

// NativeFunc is the Go-callable shape a loaded compiled stub exposes once
// the embedder has dlopen'd/linked Result.Object and resolved each
// "<name>__caller" symbol — the signature matches native.GenerateWrapper's
// emitted wrapper: (argc, argv of boxed Any, result out-param) -> status.
type NativeFunc func(args []hostvalue.Value) (hostvalue.Value, error)

// Install registers one compiled function's Go-callable trampoline into
// host under its alias name. The embedder is responsible for resolving
// res.Object's "<name>__caller" symbols into a NativeFunc (that link step
// is platform/loader-specific and out of this module's scope) and calling
// Install once per resolved symbol before running res.Source.
func Install(host HostRegistry, name string, fn NativeFunc) error {
	if fn == nil {
		return fmt.Errorf("host: install %q: nil function", name)
	}
	return host.Register(aliasName(name), fn)
}

// HostRegistry is the subset of the embedding runtime's global object the
// installer needs: a way to bind a name to a callable. A real embedder's
// HostBinding (runtime.Context.Host) typically satisfies this directly
// alongside its GetMember/Call/etc. methods.
type HostRegistry interface {
	Register(name string, fn NativeFunc) error
}

// WrapContext adapts a HostRegistry-providing runtime.Context so that
// Install's registered NativeFuncs can themselves raise exceptions through
// the same Context.Raise convention every runtime helper uses, keeping a
// compiled stub's failure path indistinguishable from an interpreted
// function's.
func WrapContext(ctx *runtime.Context, fn NativeFunc) func([]hostvalue.Value) hostvalue.Value {
	return func(args []hostvalue.Value) hostvalue.Value {
		v, err := fn(args)
		if err != nil {
			ctx.Raise(runtime.NewError(runtime.InternalError, "%s", err.Error()))
			return hostvalue.Undef()
		}
		return v
	}
}
