package cfg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jsaot/internal/cfg"
	"jsaot/internal/frontend"
	"jsaot/internal/types"
)

func parseCandidate(t *testing.T, src string) frontend.Candidate {
	t.Helper()
	p, diags := frontend.NewParser(src)
	require.Empty(t, diags)
	root := p.ParseProgram()
	require.NoError(t, p.Err())
	cands, skipped := frontend.Discover(root)
	require.Empty(t, skipped)
	require.Len(t, cands, 1)
	return cands[0]
}

func TestEmitStraightLineArithmetic(t *testing.T) {
	cand := parseCandidate(t, `function add(a: int32, b: int32): int32 {
		return a + b;
	}`)

	fn, err := cfg.Emit(cand.Node, []types.ValueType{types.I32, types.I32}, types.I32)
	require.NoError(t, err)
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Params, 2)
	require.Equal(t, types.I32, fn.ReturnType)

	// A straight-line body has a single block terminated by ReturnValue.
	require.Len(t, fn.Blocks, 1)
	_, ok := fn.Entry.Term.(cfg.ReturnValue)
	require.True(t, ok, "entry block should terminate with a return")
}

func TestEmitIfElseBranches(t *testing.T) {
	cand := parseCandidate(t, `function max(a: int32, b: int32): int32 {
		if (a > b) {
			return a;
		} else {
			return b;
		}
	}`)

	fn, err := cfg.Emit(cand.Node, []types.ValueType{types.I32, types.I32}, types.I32)
	require.NoError(t, err)

	cfg.Simplify(fn)

	// Every block returns a value directly; the simplifier should have
	// pruned the empty post-if join block since both arms return.
	for _, b := range fn.Blocks {
		require.NotNil(t, b.Term, "block %s left unterminated", b.Name())
	}
}

func TestEmitWhileLoopStructure(t *testing.T) {
	cand := parseCandidate(t, `function sum(n: int32): int32 {
		let total = 0;
		while (n > 0) {
			total += n;
			n -= 1;
		}
		return total;
	}`)

	fn, err := cfg.Emit(cand.Node, []types.ValueType{types.I32}, types.I32)
	require.NoError(t, err)
	cfg.Simplify(fn)

	// Expect at least a head/body/post shape to survive simplification.
	require.GreaterOrEqual(t, len(fn.Blocks), 3)
}

func TestEmitLogicalShortCircuitProducesDiamond(t *testing.T) {
	cand := parseCandidate(t, `function pick(a: any, b: any): any {
		return a ?? b;
	}`)

	fn, err := cfg.Emit(cand.Node, []types.ValueType{types.Any, types.Any}, types.Any)
	require.NoError(t, err)

	// emitShortCircuit always allocates rhs/skip/post blocks in addition to
	// the entry block.
	require.Len(t, fn.Blocks, 4)
}

func TestEmitRejectsAssignToConstBinding(t *testing.T) {
	cand := parseCandidate(t, `function bad(): int32 {
		const x = 1;
		x = 2;
		return x;
	}`)

	_, err := cfg.Emit(cand.Node, nil, types.I32)
	require.Error(t, err)
}
