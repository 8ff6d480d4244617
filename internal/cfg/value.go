package cfg

import "jsaot/internal/types"

// Value is anything a Statement or Terminator can read: either a materialised
// RValue (a Temp already holding a usable value) or an LVRef naming a
// location that must first be loaded. Keeping the two distinct — rather
// than collapsing every operand into a Temp up front — is what lets the
// emitter tell apart "read this local" from "read this local's member",
// which matters for Dup/GetMember materialisation (see emit.go).
type Value interface {
	isValue()
	Type() types.ValueType
}

// RValue wraps a Temp that already holds a usable value.
type RValue struct {
	Temp Temp
}

func (RValue) isValue()              {}
func (r RValue) Type() types.ValueType { return r.Temp.Type }

// LVRef is a location: either a direct local (Temp) or a member access on
// an object (Base.Member, or Base[Key] when Key is set). Const marks a
// binding from a `const` declaration, checked by the emitter to reject
// reassignment.
type LVRef struct {
	Local  *Temp  // non-nil for a direct local binding.
	Base   *Temp  // non-nil together with Member or Key for a member access.
	Member string // static property name, set for `.name` access.
	Key    Value  // computed property key, set for `[expr]` access.
	Const  bool
	typ    types.ValueType
}

func (LVRef) isValue() {}
func (l LVRef) Type() types.ValueType {
	return l.typ
}

// NewLocalRef returns an LVRef naming a direct local binding.
func NewLocalRef(t *Temp, isConst bool) LVRef {
	return LVRef{Local: t, Const: isConst, typ: t.Type}
}

// NewMemberRef returns an LVRef naming a static `.name` member access on
// base. Members are always dynamically typed: the static type of a
// GetMember result is Any.
func NewMemberRef(base *Temp, member string) LVRef {
	return LVRef{Base: base, Member: member, typ: types.Any}
}

// NewComputedMemberRef returns an LVRef naming a `base[key]` access.
func NewComputedMemberRef(base *Temp, key Value) LVRef {
	return LVRef{Base: base, Key: key, typ: types.Any}
}

// IsMember reports whether the reference names a member access rather than
// a direct local.
func (l LVRef) IsMember() bool { return l.Base != nil }
