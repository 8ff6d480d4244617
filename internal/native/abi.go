// abi.go fixes the calling convention compiled code and internal/runtime's
// helper table agree on: Any values are passed and returned by pointer (a
// stack-slot address, see slots.go), scalar values are passed by register,
// and every fallible helper call is followed by a context exception-flag
// check before the next statement runs (lower.go's checkException). It also
// declares the extern helper table lower.go/wrapper.go link against, and the
// small reflection-free glue resultOf uses to walk cfg.Statement without
// adding an exported "Result()" accessor to every Statement variant in
// internal/cfg.
package native

import (
	"jsaot/internal/cfg"
	"jsaot/internal/types"
)

const anyType = types.Any

// Tag values mirror internal/hostvalue.Tag's iota order (Undefined, Null,
// Bool, Number, String, Object, Function). Native lowering does not import
// internal/hostvalue — the boxed struct it builds (anyStructType) is a
// parallel, LLVM-visible encoding of that Go-side layout, not a shared Go
// type, since the actual symbol-resolution/linking step that would let
// compiled code and Go code share memory is out of this module's scope
// (internal/host/install.go) — so the mapping is kept here as a documented
// constant set instead of a dependency.
const (
	tagUndefined = 0
	tagNull      = 1
	tagBool      = 2
	tagNumber    = 3
	tagString    = 4
	tagObject    = 5
	tagFunction  = 6
)

// nativeTypeError is the errtype code compiled code passes to __throwError,
// in the closed ABI's own numbering (0 SyntaxError, 1 TypeError,
// 2 ReferenceError, 3 RangeError, 4 InternalError) — deliberately not
// internal/runtime.ErrType's Go-side iota order (InternalError first).
// The two enums sit on either side of the unlinked ABI boundary and have no
// reason to coincide; runtime.ThrowError re-maps this numbering itself.
const nativeTypeError = 1

// resultOf returns the result Temp of a Statement and whether it has one.
func resultOf(s cfg.Statement) (cfg.Temp, bool) {
	switch st := s.(type) {
	case cfg.Operation:
		if !st.Op.HasResult() {
			return cfg.Temp{}, false
		}
		return st.Result, true
	case cfg.ConstInit:
		return st.Result, true
	case cfg.Call:
		if !st.HasResult {
			return cfg.Temp{}, false
		}
		return st.Result, true
	default:
		return cfg.Temp{}, false
	}
}

// helperShape classifies the LLVM signature module.go's declareHelpers
// gives an extern name. The closed ABI table (the runtime-helper contract
// this package and internal/runtime both implement) is not uniform — stack-
// frame bookkeeping takes no Any operand, the conversion helpers return raw
// scalars rather than boxed Any, __throwError takes a C string and an
// errtype code — so a single shared signature cannot describe it.
type helperShape int

const (
	shapeBinaryAny      helperShape = iota // (ctx, any, any) -> any
	shapeUnaryAny                          // (ctx, any) -> any
	shapeNullaryCtx                        // (ctx) -> void
	shapeQueryException                    // (ctx) -> i32
	shapeConvertI32                        // (ctx, any) -> i32
	shapeConvertF64                        // (ctx, any) -> f64
	shapeNumericF64                        // (ctx, f64, f64) -> f64
	shapeThrowValue                        // (ctx, any) -> void
	shapeThrowError                        // (ctx, cstr, i32) -> void
	shapeNewString                         // (ctx, cstr) -> any
)

// helperShapes is the fixed extern function table every compiled module
// declares and links against. Every name in the closed ABI is declared here
// for table completeness, including the six-way GetMember/SetMember/Call
// type-combinator families and the ref-count hint helpers — genOperation
// and genCall only ever emit calls to a subset of these (the CFG's
// Operation/Call statements don't carry enough static type information at
// those sites to choose among the six combinators; see DESIGN.md), but an
// embedder linking against this module sees the whole table either way.
var helperShapes = map[string]helperShape{
	"__add": shapeBinaryAny, "__sub": shapeBinaryAny, "__mul": shapeBinaryAny,
	"__div": shapeBinaryAny, "__rem": shapeBinaryAny, "__pow": shapeBinaryAny,
	"__lshift": shapeBinaryAny, "__rshift": shapeBinaryAny, "__urshift": shapeBinaryAny,
	"__bitand": shapeBinaryAny, "__bitor": shapeBinaryAny, "__bitxor": shapeBinaryAny,
	"__lt": shapeBinaryAny, "__lte": shapeBinaryAny, "__gt": shapeBinaryAny, "__gte": shapeBinaryAny,
	"__eq": shapeBinaryAny, "__neq": shapeBinaryAny,
	"__in": shapeBinaryAny, "__instanceof": shapeBinaryAny,
	"__getMemberAny": shapeBinaryAny, "__setMemberAny": shapeBinaryAny,
	"__callAnyAny": shapeBinaryAny, "__callCtorAny": shapeBinaryAny,

	// The closed six-way combinator families (spec's member/call forms),
	// declared for a complete table even though current lowering never
	// picks among them (see DESIGN.md's narrower-dispatch note).
	"__getMemberObjCStr": shapeBinaryAny, "__getMemberObjI32": shapeBinaryAny, "__getMemberObjAny": shapeBinaryAny,
	"__getMemberAnyCStr": shapeBinaryAny, "__getMemberAnyI32": shapeBinaryAny,
	"__setMemberObjCStr": shapeBinaryAny, "__setMemberObjI32": shapeBinaryAny, "__setMemberObjAny": shapeBinaryAny,
	"__setMemberAnyCStr": shapeBinaryAny, "__setMemberAnyI32": shapeBinaryAny,
	"__callAnyObj": shapeBinaryAny, "__callAnyUndefined": shapeBinaryAny,
	"__callObjAny": shapeBinaryAny, "__callObjObj": shapeBinaryAny, "__callObjUndefined": shapeBinaryAny,
	"__callCtorObjAny": shapeBinaryAny,

	"__lessAny": shapeBinaryAny, "__lessEqAny": shapeBinaryAny,
	"__greaterAny": shapeBinaryAny, "__greaterEqAny": shapeBinaryAny,
	"__eqAny": shapeBinaryAny, "__neqAny": shapeBinaryAny,

	"__bitnot": shapeUnaryAny, "__boolnot": shapeUnaryAny, "__typeof": shapeUnaryAny, "__void": shapeUnaryAny,
	"__getGlobal": shapeUnaryAny, "__toPropertyKey": shapeUnaryAny, "__isNullish": shapeUnaryAny,
	"__null": shapeUnaryAny, "__this": shapeUnaryAny, "__undefined": shapeUnaryAny,
	"__dupVal": shapeUnaryAny, "__pushFreeVal": shapeUnaryAny,
	"__dupObj": shapeUnaryAny, "__pushFreeObj": shapeUnaryAny,

	"__enterStackFrame": shapeNullaryCtx, "__exitStackFrame": shapeNullaryCtx,
	"__resetException": shapeNullaryCtx,
	"__hasException":   shapeQueryException,

	"__convertI32": shapeConvertI32, "__boolConv": shapeConvertI32,
	"__convertF64": shapeConvertF64,
	"__powF64":     shapeNumericF64, "__remF64": shapeNumericF64,

	"__throwValue": shapeThrowValue,
	"__throwError": shapeThrowError,
	"__newString":  shapeNewString,
}
