package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jsaot/internal/cfg"
	"jsaot/internal/types"
)

func TestSimplifyRemovesUnreachableMergeBlock(t *testing.T) {
	cand := parseCandidate(t, `function max(a: int32, b: int32): int32 {
		if (a > b) {
			return a;
		} else {
			return b;
		}
	}`)

	fn, err := cfg.Emit(cand.Node, []types.ValueType{types.I32, types.I32}, types.I32)
	require.NoError(t, err)
	require.Len(t, fn.Blocks, 4, "entry + then + else + unreachable merge block")

	cfg.Simplify(fn)
	require.Len(t, fn.Blocks, 3, "the merge block has no predecessor once both arms return")
	for _, b := range fn.Blocks {
		require.NotNil(t, b.Term)
	}
}

func TestSimplifyCollapsesEmptyThenBranch(t *testing.T) {
	cand := parseCandidate(t, `function identity(a: int32): int32 {
		if (a > 0) {
		}
		return a;
	}`)

	fn, err := cfg.Emit(cand.Node, []types.ValueType{types.I32}, types.I32)
	require.NoError(t, err)
	require.Len(t, fn.Blocks, 3, "entry + empty then block + post block")

	cfg.Simplify(fn)
	require.Len(t, fn.Blocks, 2, "the empty then block collapses into the post block")

	_, ok := fn.Entry.Term.(cfg.Branch)
	require.True(t, ok)
}
