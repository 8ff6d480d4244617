// slots.go implements a single-pass stack-slot allocator: one walk over
// every statement in block order, handing out the next integer slot the
// first time an Any-typed temp appears as a statement result. The
// allocation only needs to cover Any-typed temps because those are the
// only values the native wrapper must expose to the host's conservative GC
// root scan — scalar temps live in ordinary SSA registers the code
// generator is free to place anywhere.
package native

import "jsaot/internal/cfg"

// AllocateStackSlots assigns each Any-typed Temp produced in f a distinct
// integer slot, in the order those temps are first defined across f's
// blocks (the Function.Blocks order, which Simplify leaves as emission
// order since it only removes/collapses blocks, never reorders survivors).
func AllocateStackSlots(f *cfg.Function) map[int64]int {
	slots := map[int64]int{}
	offset := 0
	for _, block := range f.Blocks {
		for _, stmt := range block.Statements {
			res, ok := resultOf(stmt)
			if !ok {
				continue
			}
			if res.Type != anyType {
				continue
			}
			if _, seen := slots[res.ID]; seen {
				continue
			}
			slots[res.ID] = offset
			offset++
		}
	}
	return slots
}

// SlotCount reports how many Any-typed stack slots f's body needs;
// lower.go allocates exactly this many Any structs as the compiled
// function's stack frame.
func SlotCount(slots map[int64]int) int { return len(slots) }
