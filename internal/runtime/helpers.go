// helpers.go implements the fixed extern function table native lowering
// (internal/native) links compiled code against: __add/__sub/..., the
// comparison family, member access/assignment, calls, and the string/type
// coercions. The name and argument order of each helper matches the ABI
// internal/native's wrapper.go generates call sites for — this file is the
// Go-side counterpart of the C++ runtime Jaculus-machine's original
// implementation (original_source/, opcode.h) links the same compiled
// stubs against, re-expressed with Go error returns translated into the
// Context exception-flag convention the compiled code's ABI expects.
package runtime

import (
	"math"

	"jsaot/internal/hostvalue"
)

// Arithmetic.

func (c *Context) Add(a, b hostvalue.Value) hostvalue.Value {
	if a.Tag == hostvalue.String || b.Tag == hostvalue.String {
		return hostvalue.FromString(a.String() + b.String())
	}
	return hostvalue.FromNumber(a.Num + b.Num)
}

func (c *Context) Sub(a, b hostvalue.Value) hostvalue.Value { return hostvalue.FromNumber(a.Num - b.Num) }
func (c *Context) Mul(a, b hostvalue.Value) hostvalue.Value { return hostvalue.FromNumber(a.Num * b.Num) }
func (c *Context) Div(a, b hostvalue.Value) hostvalue.Value { return hostvalue.FromNumber(a.Num / b.Num) }
func (c *Context) Rem(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(math.Mod(a.Num, b.Num))
}
func (c *Context) Pow(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(math.Pow(a.Num, b.Num))
}

func (c *Context) UnPlus(a hostvalue.Value) hostvalue.Value  { return hostvalue.FromNumber(+a.Num) }
func (c *Context) UnMinus(a hostvalue.Value) hostvalue.Value { return hostvalue.FromNumber(-a.Num) }

// Bitwise/shift operate on the ToInt32 coercion of their operands.

func (c *Context) LShift(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(float64(toInt32(a) << (toUint32(b) & 31)))
}
func (c *Context) RShift(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(float64(toInt32(a) >> (toUint32(b) & 31)))
}
func (c *Context) URShift(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(float64(toUint32(a) >> (toUint32(b) & 31)))
}
func (c *Context) BitAnd(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(float64(toInt32(a) & toInt32(b)))
}
func (c *Context) BitOr(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(float64(toInt32(a) | toInt32(b)))
}
func (c *Context) BitXor(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(float64(toInt32(a) ^ toInt32(b)))
}
func (c *Context) BitNot(a hostvalue.Value) hostvalue.Value {
	return hostvalue.FromNumber(float64(^toInt32(a)))
}

func toInt32(v hostvalue.Value) int32   { return int32(int64(v.Num)) }
func toUint32(v hostvalue.Value) uint32 { return uint32(int64(v.Num)) }

// Relational/equality.

func (c *Context) Lt(a, b hostvalue.Value) hostvalue.Value  { return hostvalue.FromBool(a.Num < b.Num) }
func (c *Context) Lte(a, b hostvalue.Value) hostvalue.Value { return hostvalue.FromBool(a.Num <= b.Num) }
func (c *Context) Gt(a, b hostvalue.Value) hostvalue.Value  { return hostvalue.FromBool(a.Num > b.Num) }
func (c *Context) Gte(a, b hostvalue.Value) hostvalue.Value { return hostvalue.FromBool(a.Num >= b.Num) }

func (c *Context) Eq(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromBool(looseEquals(a, b))
}
func (c *Context) Neq(a, b hostvalue.Value) hostvalue.Value {
	return hostvalue.FromBool(!looseEquals(a, b))
}

func looseEquals(a, b hostvalue.Value) bool {
	if a.Tag == b.Tag {
		switch a.Tag {
		case hostvalue.Undefined, hostvalue.Null:
			return true
		case hostvalue.Bool, hostvalue.Number:
			return a.Num == b.Num
		case hostvalue.String:
			return a.Str == b.Str
		default:
			return a.Obj == b.Obj
		}
	}
	if a.IsNullish() && b.IsNullish() {
		return true
	}
	return false
}

func (c *Context) BoolNot(a hostvalue.Value) hostvalue.Value { return hostvalue.FromBool(!a.Truthy()) }

// TypeOf implements the `typeof` unary operator.
func (c *Context) TypeOf(a hostvalue.Value) hostvalue.Value {
	switch a.Tag {
	case hostvalue.Undefined:
		return hostvalue.FromString("undefined")
	case hostvalue.Bool:
		return hostvalue.FromString("boolean")
	case hostvalue.Number:
		return hostvalue.FromString("number")
	case hostvalue.String:
		return hostvalue.FromString("string")
	case hostvalue.Function:
		return hostvalue.FromString("function")
	default:
		return hostvalue.FromString("object")
	}
}

// Void discards its operand and always yields undefined.
func (c *Context) Void(hostvalue.Value) hostvalue.Value { return hostvalue.Undef() }

// Member access/assignment, calls, and the `in`/`instanceof` family defer
// to the HostBinding, since object property storage and prototype chains
// are the embedding runtime's responsibility.

func (c *Context) GetMember(obj hostvalue.Value, key string) hostvalue.Value {
	v, err := c.Host.GetMember(obj, key)
	if err != nil {
		c.Raise(asRuntimeError(err))
		return hostvalue.Undef()
	}
	return v
}

func (c *Context) SetMember(obj hostvalue.Value, key string, val hostvalue.Value) {
	if err := c.Host.SetMember(obj, key, val); err != nil {
		c.Raise(asRuntimeError(err))
	}
}

func (c *Context) CallAnyAny(callee hostvalue.Value, args []hostvalue.Value) hostvalue.Value {
	v, err := c.Host.Call(callee, args)
	if err != nil {
		c.Raise(asRuntimeError(err))
		return hostvalue.Undef()
	}
	return v
}

func (c *Context) CallCtorAny(callee hostvalue.Value, args []hostvalue.Value) hostvalue.Value {
	v, err := c.Host.CallCtor(callee, args)
	if err != nil {
		c.Raise(asRuntimeError(err))
		return hostvalue.Undef()
	}
	return v
}

func (c *Context) GetGlobal(name string) hostvalue.Value {
	v, err := c.Host.GetGlobal(name)
	if err != nil {
		c.Raise(asRuntimeError(err))
		return hostvalue.Undef()
	}
	return v
}

// In implements the `in` operator: key in obj.
func (c *Context) In(key, obj hostvalue.Value) hostvalue.Value {
	_, err := c.Host.GetMember(obj, key.String())
	return hostvalue.FromBool(err == nil)
}

// InstanceOf implements the `instanceof` operator.
func (c *Context) InstanceOf(v, ctor hostvalue.Value) hostvalue.Value {
	ok, err := c.Host.InstanceOf(v, ctor)
	if err != nil {
		c.Raise(asRuntimeError(err))
		return hostvalue.FromBool(false)
	}
	return hostvalue.FromBool(ok)
}

// ConvertI32, ConvertF64 and BoolConv are the slow-path Any-to-scalar
// conversions compiled code falls back to once its inline tag check
// misses: a fast Number-tagged payload reads out as a register move, but
// a Bool/String/Object value being narrowed to a number, or any value
// being narrowed to a bool, needs the real ToNumber/ToBoolean coercion
// rules. Each raises a TypeError instead of returning on a value that
// can't convert.

func (c *Context) ConvertI32(a hostvalue.Value) int32 {
	n, err := toNumberCoerced(a)
	if err != nil {
		c.Raise(asRuntimeError(err))
		return 0
	}
	return int32(int64(n))
}

func (c *Context) ConvertF64(a hostvalue.Value) float64 {
	n, err := toNumberCoerced(a)
	if err != nil {
		c.Raise(asRuntimeError(err))
		return 0
	}
	return n
}

func (c *Context) BoolConv(a hostvalue.Value) bool {
	return a.Truthy()
}

func toNumberCoerced(v hostvalue.Value) (float64, error) {
	switch v.Tag {
	case hostvalue.Number, hostvalue.Bool:
		return v.Num, nil
	case hostvalue.Undefined:
		return math.NaN(), nil
	case hostvalue.Null:
		return 0, nil
	case hostvalue.String:
		// A typed compile target narrows Any to a number only where the
		// source is known numeric; a non-numeric string has no sane
		// coercion here, so it is an error rather than NaN.
		return 0, NewError(TypeError, "cannot convert string %q to a number", v.Str)
	default:
		return 0, NewError(TypeError, "cannot convert %s to a number", v.String())
	}
}

// PowF64 and RemF64 back the F64-specific exponentiation/remainder
// helpers, used when both operands are already known-F64 registers (the
// dynamic Any path instead goes through Pow/Rem above).
func (c *Context) PowF64(a, b float64) float64 { return math.Pow(a, b) }
func (c *Context) RemF64(a, b float64) float64 { return math.Mod(a, b) }

func asRuntimeError(err error) *Error {
	if re, ok := err.(*Error); ok {
		return re
	}
	return NewError(InternalError, "%s", err.Error())
}

// ThrowValue raises v as the pending exception, wrapped in an InternalError
// whose message is "uncaught: " followed by v's string form. It backs
// compiled code's `throw` terminator (__throwValue), so every Throw routes
// through the exception flag and the native wrapper has one place to test.
func (c *Context) ThrowValue(v hostvalue.Value) {
	c.Raise(NewError(InternalError, "uncaught: %s", v.String()))
}

// nativeErrTypes maps the closed ABI's own errtype encoding (0 SyntaxError,
// 1 TypeError, 2 ReferenceError, 3 RangeError, 4 InternalError) to this
// package's ErrType. The two enums are numbered independently — there is
// no linker step tying a compiled object's integer constants to this
// package's iota values, so ThrowError must not assume they match
// ErrType's own ordering.
var nativeErrTypes = [...]ErrType{SyntaxError, TypeError, ReferenceError, RangeError, InternalError}

// ThrowError raises a typed error given a message and an errtype code in
// the native ABI's own numbering, backing the invalid-argument and
// invalid-conversion exits compiled code emits.
func (c *Context) ThrowError(msg string, nativeErrType int32) {
	t := InternalError
	if nativeErrType >= 0 && int(nativeErrType) < len(nativeErrTypes) {
		t = nativeErrTypes[nativeErrType]
	}
	c.Raise(NewError(t, "%s", msg))
}
