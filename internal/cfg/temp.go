// Package cfg builds the typed control-flow graph that sits between the
// parsed AST (internal/frontend) and native lowering (internal/native). Its
// builder-method shape — a Block growing its own instruction list via
// Create* calls — follows a lean block-IR idiom, widened from a small
// integer/float instruction set to the full ValueType/Opcode lattice of
// internal/types.
package cfg

import (
	"sync/atomic"

	"jsaot/internal/types"
)

// tempCounter hands out process-wide unique Temp ids, mirroring the
// teacher's Function.getId() block/instruction numbering but scoped across
// the whole process rather than per-function, since Temps may be referenced
// by stack-slot allocation (internal/native) after their owning function's
// numbering has otherwise been forgotten.
var tempCounter int64

// Temp is a single SSA-ish named value: a typed register produced by
// exactly one Statement or bound as a function parameter.
type Temp struct {
	ID   int64
	Type types.ValueType
}

// NewTemp allocates a fresh Temp of the given type.
func NewTemp(t types.ValueType) Temp {
	return Temp{ID: atomic.AddInt64(&tempCounter, 1), Type: t}
}
