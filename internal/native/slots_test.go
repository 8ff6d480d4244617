package native_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jsaot/internal/cfg"
	"jsaot/internal/frontend"
	"jsaot/internal/native"
	"jsaot/internal/types"
)

func emitAny(t *testing.T, src string, paramTypes []types.ValueType, ret types.ValueType) *cfg.Function {
	t.Helper()
	p, diags := frontend.NewParser(src)
	require.Empty(t, diags)
	root := p.ParseProgram()
	require.NoError(t, p.Err())
	cands, skipped := frontend.Discover(root)
	require.Empty(t, skipped)
	require.Len(t, cands, 1)

	fn, err := cfg.Emit(cands[0].Node, paramTypes, ret)
	require.NoError(t, err)
	cfg.Simplify(fn)
	return fn
}

func TestAllocateStackSlotsOnlyAny(t *testing.T) {
	fn := emitAny(t, `function f(a: int32, b: int32): int32 {
		return a + b;
	}`, []types.ValueType{types.I32, types.I32}, types.I32)

	slots := native.AllocateStackSlots(fn)
	require.Empty(t, slots, "a purely scalar function needs no Any stack slots")
}

func TestAllocateStackSlotsDistinctAndContiguous(t *testing.T) {
	fn := emitAny(t, `function pick(a: any, b: any, c: any): any {
		return a ?? (b ?? c);
	}`, []types.ValueType{types.Any, types.Any, types.Any}, types.Any)

	slots := native.AllocateStackSlots(fn)
	require.NotEmpty(t, slots)

	seen := map[int]bool{}
	for _, offset := range slots {
		require.False(t, seen[offset], "slot offsets must be distinct")
		seen[offset] = true
	}
	require.Equal(t, native.SlotCount(slots), len(seen))
	for i := 0; i < len(seen); i++ {
		require.True(t, seen[i], "slot offsets must be a contiguous 0..n-1 range")
	}
}
