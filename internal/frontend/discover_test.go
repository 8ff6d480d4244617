package frontend_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"jsaot/internal/frontend"
)

func TestDiscoverFindsOnlyFullyTypedFunctions(t *testing.T) {
	p, diags := frontend.NewParser(`
		function typed(a: int32, b: int32): int32 {
			return a + b;
		}
		function untyped(a, b) {
			return a + b;
		}
		function partial(a: int32, b): int32 {
			return a + b;
		}
		let notAFunction = 1;
	`)
	require.Empty(t, diags)
	root := p.ParseProgram()
	require.NoError(t, p.Err())

	cands, skipped := frontend.Discover(root)
	require.Len(t, cands, 1)
	require.Equal(t, "typed", cands[0].Name)
	require.Equal(t, []string{"int32", "int32"}, cands[0].ParamTypes)
	require.Equal(t, "int32", cands[0].ReturnType)
	require.Len(t, skipped, 2)
}

func TestDiscoverCapturesSourceSpan(t *testing.T) {
	src := `function f(): void {
  doNothing();
}
`
	p, _ := frontend.NewParser(src)
	root := p.ParseProgram()
	require.NoError(t, p.Err())

	cands, _ := frontend.Discover(root)
	require.Len(t, cands, 1)
	c := cands[0]
	require.Equal(t, strings.TrimRight(src, "\n"), src[c.SourceFrom:c.SourceTo])
}
