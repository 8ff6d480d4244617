// Package hostvalue defines the boxed Any representation compiled code
// exchanges with the surrounding host runtime. It is deliberately thin: the
// compiler and the runtime helpers (internal/runtime) only need a tagged
// union and the coercions the opcode/runtime-helper ABI requires, not a
// full object model — ordinary JS object/array/function semantics remain
// the host's responsibility.
package hostvalue

import "fmt"

// Tag discriminates the variant stored in a Value.
type Tag int

const (
	Undefined Tag = iota
	Null
	Bool
	Number
	String
	Object
	Function
)

var tagNames = [...]string{"undefined", "null", "boolean", "number", "string", "object", "function"}

func (t Tag) String() string {
	if int(t) < 0 || int(t) >= len(tagNames) {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return tagNames[t]
}

// Value is the boxed Any representation: a tag plus the payload relevant to
// that tag. Obj carries an opaque host-side handle (an object identity the
// embedding runtime resolves) rather than a Go-native map, since property
// storage, prototypes, and exotic objects belong to the host, not to the
// AOT compiler.
type Value struct {
	Tag    Tag
	Num    float64
	Str    string
	Obj    uintptr
	refs   int32
}

// Undef, NullValue, and helpers below are the constructors the runtime
// helpers (internal/runtime) and native wrapper glue (internal/native) use
// to build boxed results.
func Undef() Value     { return Value{Tag: Undefined} }
func NullValue() Value { return Value{Tag: Null} }

func FromBool(b bool) Value {
	if b {
		return Value{Tag: Bool, Num: 1}
	}
	return Value{Tag: Bool, Num: 0}
}

func FromNumber(n float64) Value      { return Value{Tag: Number, Num: n} }
func FromString(s string) Value       { return Value{Tag: String, Str: s} }
func FromObject(handle uintptr) Value { return Value{Tag: Object, Obj: handle} }

// IsNullish reports whether v is null or undefined, the predicate the `??`
// and `??=` operators test.
func (v Value) IsNullish() bool { return v.Tag == Undefined || v.Tag == Null }

// Truthy implements the ToBoolean abstract coercion used by `if`, `while`,
// `&&`, `||`, and `!`.
func (v Value) Truthy() bool {
	switch v.Tag {
	case Undefined, Null:
		return false
	case Bool, Number:
		return v.Num != 0
	case String:
		return v.Str != ""
	default:
		return true
	}
}

// AddRef/Release implement the reference-count bookkeeping the CFG's
// Dup/PushFree opcodes drive (internal/cfg's materialisation discipline):
// every Any value handed out by Dup or a runtime helper call increments
// refs, and PushFree decrements it, with the host's garbage collector
// reclaiming the underlying object once refs reaches zero and no stack
// frame still references it.
func (v *Value) AddRef()  { v.refs++ }
func (v *Value) Release() { v.refs-- }

func (v Value) String() string {
	switch v.Tag {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		if v.Num != 0 {
			return "true"
		}
		return "false"
	case Number:
		return fmt.Sprintf("%g", v.Num)
	case String:
		return v.Str
	default:
		return fmt.Sprintf("[%s %#x]", v.Tag, v.Obj)
	}
}
