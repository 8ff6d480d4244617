package interp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"jsaot/internal/frontend"
	"jsaot/internal/hostvalue"
	"jsaot/internal/interp"
	"jsaot/internal/runtime"
)

// fakeHost is a minimal runtime.HostBinding keyed by property name only
// (object identity is ignored), enough to observe interpreter side effects
// without pulling in a real embedding engine.
type fakeHost struct {
	props   map[string]hostvalue.Value
	globals map[string]hostvalue.Value
}

func newFakeHost() *fakeHost {
	h := &fakeHost{props: map[string]hostvalue.Value{}, globals: map[string]hostvalue.Value{}}
	h.globals["obj"] = hostvalue.FromObject(1)
	return h
}

func (h *fakeHost) GetMember(obj hostvalue.Value, key string) (hostvalue.Value, error) {
	v, ok := h.props[key]
	if !ok {
		return hostvalue.Undef(), nil
	}
	return v, nil
}

func (h *fakeHost) SetMember(obj hostvalue.Value, key string, val hostvalue.Value) error {
	h.props[key] = val
	return nil
}

func (h *fakeHost) Call(callee hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error) {
	return hostvalue.Value{}, errors.New("no host function for this callee")
}

func (h *fakeHost) CallCtor(callee hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error) {
	return hostvalue.Value{}, errors.New("no host constructor for this callee")
}

func (h *fakeHost) GetGlobal(name string) (hostvalue.Value, error) {
	v, ok := h.globals[name]
	if !ok {
		return hostvalue.Value{}, errors.New("no such global: " + name)
	}
	return v, nil
}

func (h *fakeHost) InstanceOf(v, ctor hostvalue.Value) (bool, error) { return false, nil }

func parseProgram(t *testing.T, src string) *frontend.Node {
	t.Helper()
	p, diags := frontend.NewParser(src)
	require.Empty(t, diags)
	root := p.ParseProgram()
	require.NoError(t, p.Err())
	return root
}

func TestRunCallsInterpretedFunction(t *testing.T) {
	host := newFakeHost()
	ctx := runtime.NewContext(host)
	ip := interp.New(ctx)

	root := parseProgram(t, `
		function add(a, b) { return a + b; }
		obj.result = add(2, 3);
	`)
	require.NoError(t, ip.Run(root))
	require.Equal(t, hostvalue.FromNumber(5), host.props["result"])
}

func TestRunWhileLoopAccumulates(t *testing.T) {
	host := newFakeHost()
	ctx := runtime.NewContext(host)
	ip := interp.New(ctx)

	root := parseProgram(t, `
		let total = 0;
		let i = 0;
		while (i < 5) {
			total += i;
			i += 1;
		}
		obj.result = total;
	`)
	require.NoError(t, ip.Run(root))
	require.Equal(t, hostvalue.FromNumber(10), host.props["result"])
}

func TestRunIfElseBranches(t *testing.T) {
	host := newFakeHost()
	ctx := runtime.NewContext(host)
	ip := interp.New(ctx)

	root := parseProgram(t, `
		let x = 10;
		if (x > 5) {
			obj.branch = "big";
		} else {
			obj.branch = "small";
		}
	`)
	require.NoError(t, ip.Run(root))
	require.Equal(t, hostvalue.FromString("big"), host.props["branch"])
}

func TestRunThrowPropagatesAsError(t *testing.T) {
	host := newFakeHost()
	ctx := runtime.NewContext(host)
	ip := interp.New(ctx)

	root := parseProgram(t, `throw "boom";`)
	err := ip.Run(root)
	require.Error(t, err)
}

func TestRunBreakExitsLoop(t *testing.T) {
	host := newFakeHost()
	ctx := runtime.NewContext(host)
	ip := interp.New(ctx)

	root := parseProgram(t, `
		let i = 0;
		while (true) {
			if (i == 3) {
				break;
			}
			i += 1;
		}
		obj.result = i;
	`)
	require.NoError(t, ip.Run(root))
	require.Equal(t, hostvalue.FromNumber(3), host.props["result"])
}
