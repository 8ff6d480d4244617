// Package types defines the compiler's canonical value types, the opcode
// taxonomy, and the type lattice rules that the CFG emitter and the native
// lowerer both consult to agree on result types without re-deriving them.
package types

import "fmt"

// ValueType is the set of static types the compiler reasons about. Any
// denotes the host's boxed tagged value; every other member is an unboxed
// native representation.
type ValueType int

const (
	Void ValueType = iota
	I32
	F64
	Bool
	Object
	String
	StringConst
	Buffer
	Any
)

var valueTypeNames = [...]string{
	"void", "int32", "float64", "boolean", "object", "string", "string_const", "buffer", "any",
}

func (t ValueType) String() string {
	if int(t) < 0 || int(t) >= len(valueTypeNames) {
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
	return valueTypeNames[t]
}

// IsIntegral reports whether t is represented as a 32-bit integer register.
func (t ValueType) IsIntegral() bool { return t == I32 || t == Bool }

// IsFloating reports whether t is represented as a double-precision register.
func (t ValueType) IsFloating() bool { return t == F64 }

// IsNumeric reports whether t has a scalar arithmetic representation.
func (t ValueType) IsNumeric() bool { return t.IsIntegral() || t.IsFloating() }

// TypeName maps the recognised source-level type annotations to ValueType.
// Annotations outside this set cause compilation to fall back to the
// interpreter instead of being rejected outright.
var TypeName = map[string]ValueType{
	"int32":   I32,
	"float64": F64,
	"boolean": Bool,
	"object":  Object,
	"void":    Void,
	"any":     Any,
}

// CommonUpcast computes the least upper bound of a and b under the type
// lattice: Void is absorbing; Any/Object widen to Any; floating widens to
// F64; otherwise I32.
func CommonUpcast(a, b ValueType) ValueType {
	if a == Void || b == Void {
		return Void
	}
	if a == Any || b == Any || a == Object || b == Object {
		return Any
	}
	if a.IsFloating() || b.IsFloating() {
		return F64
	}
	return I32
}

// Opcode is the set of three-address operations the CFG emitter can place
// into a Statement.
type Opcode int

const (
	// Binary opcodes.
	Add Opcode = iota + 1
	Sub
	Mul
	Div
	Rem
	Pow
	LShift
	RShift
	URShift
	BitAnd
	BitOr
	BitXor
	Eq
	Neq
	Gt
	Gte
	Lt
	Lte
	In
	InstanceOf
	GetMember
	SetMember

	minUnary
	// Unary opcodes.
	Set
	BoolNot
	BitNot
	UnPlus
	UnMinus
	Dup
	PushFree
	Void_ // discards operand, always yields undefined (Any)
	TypeOf
)

var opcodeNames = map[Opcode]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div", Rem: "rem", Pow: "pow",
	LShift: "lshift", RShift: "rshift", URShift: "urshift",
	BitAnd: "bitand", BitOr: "bitor", BitXor: "bitxor",
	Eq: "eq", Neq: "neq", Gt: "gt", Gte: "gte", Lt: "lt", Lte: "lte",
	In: "in", InstanceOf: "instanceof",
	GetMember: "getmember", SetMember: "setmember",
	Set: "set", BoolNot: "boolnot", BitNot: "bitnot",
	UnPlus: "unplus", UnMinus: "unminus", Dup: "dup", PushFree: "pushfree",
	Void_: "void", TypeOf: "typeof",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// IsBinary reports whether op takes two operands.
func (op Opcode) IsBinary() bool { return op < minUnary }

// HasResult reports whether op writes a result temp. PushFree is a
// free-list scheduling hint and carries no result.
func (op Opcode) HasResult() bool { return op != PushFree }

// ResultType computes the static result type of applying op to operands of
// type a and b (b is ignored for unary opcodes).
func ResultType(op Opcode, a, b ValueType) ValueType {
	switch op {
	case Add, Sub, Mul, UnPlus, UnMinus:
		return additiveRes(a, b)
	case Div, Pow:
		return divRes(a, b)
	case Rem:
		return divRes(a, b)
	case LShift, RShift, URShift, BitAnd, BitOr, BitXor, BitNot:
		return bitwiseRes(a, b)
	case Eq, Neq, Gt, Gte, Lt, Lte, In, InstanceOf, BoolNot:
		return Bool
	case Set:
		if a == Void {
			panic("Set: void source type")
		}
		return a
	case GetMember:
		return Any
	case SetMember:
		return a
	case Dup:
		return a
	case PushFree:
		return Void
	case Void_:
		return Any
	case TypeOf:
		return StringConst
	default:
		panic(fmt.Sprintf("ResultType: unhandled opcode %s", op))
	}
}

func additiveRes(a, b ValueType) ValueType {
	if a == Void || b == Void {
		panic("additive op on void operand")
	}
	return CommonUpcast(a, b)
}

func divRes(a, b ValueType) ValueType {
	if a == Void || b == Void {
		panic("div/pow op on void operand")
	}
	return F64
}

func bitwiseRes(a, b ValueType) ValueType {
	if a == Void || b == Void {
		panic("bitwise op on void operand")
	}
	return I32
}
