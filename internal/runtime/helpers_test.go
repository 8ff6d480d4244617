package runtime_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"jsaot/internal/hostvalue"
	"jsaot/internal/runtime"
)

// fakeHost is a minimal runtime.HostBinding backed by a flat property map,
// enough to exercise Context's delegation without needing internal/interp
// or a real embedding engine.
type fakeHost struct {
	props   map[string]hostvalue.Value
	globals map[string]hostvalue.Value
	callErr error
}

func newFakeHost() *fakeHost {
	return &fakeHost{props: map[string]hostvalue.Value{}, globals: map[string]hostvalue.Value{}}
}

func (h *fakeHost) GetMember(obj hostvalue.Value, key string) (hostvalue.Value, error) {
	v, ok := h.props[key]
	if !ok {
		return hostvalue.Value{}, errors.New("no such property: " + key)
	}
	return v, nil
}

func (h *fakeHost) SetMember(obj hostvalue.Value, key string, val hostvalue.Value) error {
	h.props[key] = val
	return nil
}

func (h *fakeHost) Call(callee hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error) {
	if h.callErr != nil {
		return hostvalue.Value{}, h.callErr
	}
	return hostvalue.FromNumber(float64(len(args))), nil
}

func (h *fakeHost) CallCtor(callee hostvalue.Value, args []hostvalue.Value) (hostvalue.Value, error) {
	return hostvalue.FromObject(1), nil
}

func (h *fakeHost) GetGlobal(name string) (hostvalue.Value, error) {
	v, ok := h.globals[name]
	if !ok {
		return hostvalue.Value{}, errors.New("no such global: " + name)
	}
	return v, nil
}

func (h *fakeHost) InstanceOf(v, ctor hostvalue.Value) (bool, error) {
	return v.Tag == hostvalue.Object, nil
}

func TestArithmeticHelpers(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	require.Equal(t, hostvalue.FromNumber(5), ctx.Add(hostvalue.FromNumber(2), hostvalue.FromNumber(3)))
	require.Equal(t, hostvalue.FromString("ab"), ctx.Add(hostvalue.FromString("a"), hostvalue.FromString("b")))
	require.Equal(t, hostvalue.FromNumber(6), ctx.Mul(hostvalue.FromNumber(2), hostvalue.FromNumber(3)))
	require.Equal(t, hostvalue.FromNumber(1), ctx.Rem(hostvalue.FromNumber(7), hostvalue.FromNumber(3)))
}

func TestBitwiseHelpers(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	require.Equal(t, hostvalue.FromNumber(4), ctx.LShift(hostvalue.FromNumber(1), hostvalue.FromNumber(2)))
	require.Equal(t, hostvalue.FromNumber(3), ctx.BitAnd(hostvalue.FromNumber(7), hostvalue.FromNumber(3)))
}

func TestEquality(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	require.True(t, ctx.Eq(hostvalue.FromNumber(1), hostvalue.FromNumber(1)).Truthy())
	require.True(t, ctx.Eq(hostvalue.Undef(), hostvalue.NullValue()).Truthy())
	require.False(t, ctx.Eq(hostvalue.FromString("a"), hostvalue.FromNumber(1)).Truthy())
}

func TestGetMemberRaisesOnHostError(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	v := ctx.GetMember(hostvalue.Undef(), "missing")
	require.Equal(t, hostvalue.Undef(), v)
	require.True(t, ctx.HasException())
	err := ctx.TakeException()
	require.NotNil(t, err)
	require.False(t, ctx.HasException())
}

func TestSetMemberThenGetMemberRoundTrips(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	ctx.SetMember(hostvalue.Undef(), "x", hostvalue.FromNumber(7))
	require.False(t, ctx.HasException())
	require.Equal(t, hostvalue.FromNumber(7), ctx.GetMember(hostvalue.Undef(), "x"))
}

func TestInOperator(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	ctx.SetMember(hostvalue.Undef(), "present", hostvalue.FromBool(true))
	require.True(t, ctx.In(hostvalue.FromString("present"), hostvalue.Undef()).Truthy())
	require.False(t, ctx.In(hostvalue.FromString("absent"), hostvalue.Undef()).Truthy())
}

func TestInstanceOf(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	require.True(t, ctx.InstanceOf(hostvalue.FromObject(1), hostvalue.Undef()).Truthy())
	require.False(t, ctx.InstanceOf(hostvalue.FromNumber(1), hostvalue.Undef()).Truthy())
}

func TestDrainFreesReleasesInOrder(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	ctx.EnterStackFrame()
	ctx.PushFree(hostvalue.FromNumber(1))
	ctx.PushFree(hostvalue.FromNumber(2))
	ctx.PushFree(hostvalue.FromNumber(3))

	var released []float64
	ctx.DrainFrees(func(v hostvalue.Value) { released = append(released, v.Num) })
	require.Equal(t, []float64{3, 2, 1}, released)
}

func TestPushFreeWithoutFrameIsNoop(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	ctx.PushFree(hostvalue.FromNumber(1))

	var released []float64
	ctx.DrainFrees(func(v hostvalue.Value) { released = append(released, v.Num) })
	require.Empty(t, released)
}

func TestExitStackFrameReleasesAndIsolatesNesting(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())

	ctx.EnterStackFrame()
	ctx.PushFree(hostvalue.FromNumber(1))

	ctx.EnterStackFrame()
	ctx.PushFree(hostvalue.FromNumber(2))
	var inner []float64
	ctx.ExitStackFrame(func(v hostvalue.Value) { inner = append(inner, v.Num) })
	require.Equal(t, []float64{2}, inner, "exiting the inner frame must not touch the outer frame's entries")

	var outer []float64
	ctx.ExitStackFrame(func(v hostvalue.Value) { outer = append(outer, v.Num) })
	require.Equal(t, []float64{1}, outer)
}

func TestResetExceptionClearsPendingError(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	ctx.ThrowValue(hostvalue.FromString("boom"))
	require.EqualValues(t, 1, ctx.HasExceptionFlag())
	ctx.ResetException()
	require.EqualValues(t, 0, ctx.HasExceptionFlag())
}

func TestThrowErrorUsesNativeErrTypeNumbering(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	ctx.ThrowError("Invalid arguments", 1) // 1 == TypeError in the closed ABI's own numbering.
	err := ctx.TakeException()
	require.NotNil(t, err)
	require.Equal(t, runtime.TypeError, err.Type)
}

func TestThrowValueRaisesException(t *testing.T) {
	ctx := runtime.NewContext(newFakeHost())
	require.False(t, ctx.HasException())
	ctx.ThrowValue(hostvalue.FromString("boom"))
	require.True(t, ctx.HasException())
}
