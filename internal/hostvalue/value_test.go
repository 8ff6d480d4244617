package hostvalue_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jsaot/internal/hostvalue"
)

func TestIsNullish(t *testing.T) {
	require.True(t, hostvalue.Undef().IsNullish())
	require.True(t, hostvalue.NullValue().IsNullish())
	require.False(t, hostvalue.FromNumber(0).IsNullish())
	require.False(t, hostvalue.FromString("").IsNullish())
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    hostvalue.Value
		want bool
	}{
		{"undefined", hostvalue.Undef(), false},
		{"null", hostvalue.NullValue(), false},
		{"zero", hostvalue.FromNumber(0), false},
		{"nonzero", hostvalue.FromNumber(1), true},
		{"empty string", hostvalue.FromString(""), false},
		{"nonempty string", hostvalue.FromString("x"), true},
		{"false", hostvalue.FromBool(false), false},
		{"true", hostvalue.FromBool(true), true},
		{"object", hostvalue.FromObject(0x1), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.v.Truthy())
		})
	}
}

func TestRefCounting(t *testing.T) {
	v := hostvalue.FromObject(42)
	v.AddRef()
	v.AddRef()
	v.Release()
	// refs is unexported; this only exercises that AddRef/Release don't
	// panic and the tag/payload are left untouched by ref-count changes.
	require.Equal(t, hostvalue.Object, v.Tag)
	require.EqualValues(t, 42, v.Obj)
}

func TestString(t *testing.T) {
	require.Equal(t, "undefined", hostvalue.Undef().String())
	require.Equal(t, "null", hostvalue.NullValue().String())
	require.Equal(t, "true", hostvalue.FromBool(true).String())
	require.Equal(t, "false", hostvalue.FromBool(false).String())
	require.Equal(t, "42", hostvalue.FromNumber(42).String())
	require.Equal(t, "hi", hostvalue.FromString("hi").String())
}
