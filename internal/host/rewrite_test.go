package host

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRewriteSplicesSingleSpan(t *testing.T) {
	src := `function add(a: int32, b: int32): int32 {
  return a + b;
}
let x = 1;
`
	from := 0
	to := len(`function add(a: int32, b: int32): int32 {
  return a + b;
}`)

	out := Rewrite(src, []rewriteSpan{{from: from, to: to, name: "add"}})
	require.Contains(t, out, "var add = __jac_aot_func_add; /* compiled from native stub */")
	require.Contains(t, out, "let x = 1;")
	require.NotContains(t, out, "return a + b;")
}

func TestRewriteAppliesMultipleSpansBackToFront(t *testing.T) {
	src := "AAAA BBBB CCCC"
	spans := []rewriteSpan{
		{from: 0, to: 4, name: "a"},
		{from: 5, to: 9, name: "b"},
	}
	out := Rewrite(src, spans)
	require.Contains(t, out, "__jac_aot_func_a")
	require.Contains(t, out, "__jac_aot_func_b")
	require.Contains(t, out, "CCCC")
}

func TestAliasNameReplacesDollarSign(t *testing.T) {
	require.Equal(t, "__jac_aot_func_foo_bar", aliasName("foo$bar"))
}
