package cfg

import (
	"fmt"
	"strings"

	"jsaot/internal/types"
)

// Statement is one three-address operation inside a BasicBlock.
type Statement interface {
	isStatement()
	String() string
}

// Operation is the general binary/unary opcode statement: Result = Op(A, B).
// B is the zero Value for unary opcodes.
type Operation struct {
	Result Temp
	Op     types.Opcode
	A, B   Value
}

func (Operation) isStatement() {}
func (o Operation) String() string {
	if o.Op.IsBinary() {
		return fmt.Sprintf("t%d = %s %v, %v", o.Result.ID, o.Op, o.A, o.B)
	}
	return fmt.Sprintf("t%d = %s %v", o.Result.ID, o.Op, o.A)
}

// ConstInit materialises a literal into a fresh Temp.
type ConstInit struct {
	Result Temp
	Kind   types.ValueType
	I32    int32
	F64    float64
	Bool   bool
	Str    string
}

func (ConstInit) isStatement() {}
func (c ConstInit) String() string {
	switch c.Kind {
	case types.I32:
		return fmt.Sprintf("t%d = const.i32 %d", c.Result.ID, c.I32)
	case types.F64:
		return fmt.Sprintf("t%d = const.f64 %g", c.Result.ID, c.F64)
	case types.Bool:
		return fmt.Sprintf("t%d = const.bool %v", c.Result.ID, c.Bool)
	default:
		return fmt.Sprintf("t%d = const.%s %q", c.Result.ID, c.Kind, c.Str)
	}
}

// Call is a runtime-helper or host-function call statement. Callee names a
// fixed ABI entry (e.g. "__add", "__callAnyAny") resolved by internal/native;
// Result is the zero Temp when the callee has no return value slot to bind
// (helpers like __setMemberAny).
type Call struct {
	Result  Temp
	HasResult bool
	Callee  string
	Args    []Value
}

func (Call) isStatement() {}
func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	if c.HasResult {
		return fmt.Sprintf("t%d = call %s(%s)", c.Result.ID, c.Callee, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("call %s(%s)", c.Callee, strings.Join(parts, ", "))
}

// Terminator is the single branch/return/throw instruction that ends every
// BasicBlock: Jump and Branch for control flow, Return/ReturnValue/Throw
// for the three ways a function body can end.
type Terminator interface {
	isTerminator()
	String() string
}

type Jump struct{ Target *BasicBlock }

func (Jump) isTerminator()    {}
func (j Jump) String() string { return fmt.Sprintf("jump %s", j.Target.Name()) }

type Branch struct {
	Cond       Value
	Then, Else *BasicBlock
}

func (Branch) isTerminator() {}
func (b Branch) String() string {
	return fmt.Sprintf("branch %v, %s, %s", b.Cond, b.Then.Name(), b.Else.Name())
}

type Return struct{}

func (Return) isTerminator()    {}
func (Return) String() string { return "return" }

type ReturnValue struct{ Value Value }

func (ReturnValue) isTerminator()    {}
func (r ReturnValue) String() string { return fmt.Sprintf("return %v", r.Value) }

type Throw struct{ Value Value }

func (Throw) isTerminator()    {}
func (t Throw) String() string { return fmt.Sprintf("throw %v", t.Value) }

// BasicBlock is an ordered Statement list terminated by exactly one
// Terminator. It stores typed Statement/Terminator values instead of a
// flat Value slice, since this compiler's opcode set needs the richer
// Operation/Call/ConstInit split to carry ABI callee names through to
// native lowering.
type BasicBlock struct {
	fn         *Function
	id         int
	Statements []Statement
	Term       Terminator

	// preds/succs are populated by Function.Finalize via a CFG walk and
	// consumed by the simplifier (simplify.go) and the native lowerer.
	preds []*BasicBlock
	succs []*BasicBlock
}

func (b *BasicBlock) Name() string { return fmt.Sprintf("bb%d", b.id) }
func (b *BasicBlock) ID() int      { return b.id }

func (b *BasicBlock) String() string {
	sb := strings.Builder{}
	sb.WriteString(b.Name())
	sb.WriteString(":\n")
	for _, s := range b.Statements {
		sb.WriteString("\t")
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	if b.Term == nil {
		sb.WriteString("\t// unterminated\n")
	} else {
		sb.WriteString("\t")
		sb.WriteString(b.Term.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// CreateOperation appends a binary/unary Operation and returns its result
// Temp wrapped as an RValue, ready for further chaining without the caller
// needing to re-derive the result type.
func (b *BasicBlock) CreateOperation(op types.Opcode, a, b2 Value) RValue {
	var at, bt types.ValueType
	at = a.Type()
	if b2 != nil {
		bt = b2.Type()
	}
	result := NewTemp(types.ResultType(op, at, bt))
	b.Statements = append(b.Statements, Operation{Result: result, Op: op, A: a, B: b2})
	return RValue{Temp: result}
}

// CreateConstI32 (and the F64/Bool/String variants below) appends a
// ConstInit statement.
func (b *BasicBlock) CreateConstI32(v int32) RValue {
	t := NewTemp(types.I32)
	b.Statements = append(b.Statements, ConstInit{Result: t, Kind: types.I32, I32: v})
	return RValue{Temp: t}
}

func (b *BasicBlock) CreateConstF64(v float64) RValue {
	t := NewTemp(types.F64)
	b.Statements = append(b.Statements, ConstInit{Result: t, Kind: types.F64, F64: v})
	return RValue{Temp: t}
}

func (b *BasicBlock) CreateConstBool(v bool) RValue {
	t := NewTemp(types.Bool)
	b.Statements = append(b.Statements, ConstInit{Result: t, Kind: types.Bool, Bool: v})
	return RValue{Temp: t}
}

func (b *BasicBlock) CreateConstString(v string) RValue {
	t := NewTemp(types.StringConst)
	b.Statements = append(b.Statements, ConstInit{Result: t, Kind: types.StringConst, Str: v})
	return RValue{Temp: t}
}

// CreateCall appends a runtime-helper or host call with a result binding.
func (b *BasicBlock) CreateCall(resultType types.ValueType, callee string, args ...Value) RValue {
	t := NewTemp(resultType)
	b.Statements = append(b.Statements, Call{Result: t, HasResult: true, Callee: callee, Args: args})
	return RValue{Temp: t}
}

// CreateVoidCall appends a call with no result binding (e.g. __setMember).
func (b *BasicBlock) CreateVoidCall(callee string, args ...Value) {
	b.Statements = append(b.Statements, Call{Callee: callee, Args: args})
}

// CreateJump terminates b with an unconditional jump.
func (b *BasicBlock) CreateJump(target *BasicBlock) {
	b.Term = Jump{Target: target}
}

// CreateBranch terminates b with a conditional branch.
func (b *BasicBlock) CreateBranch(cond Value, thn, els *BasicBlock) {
	b.Term = Branch{Cond: cond, Then: thn, Else: els}
}

// CreateReturn terminates b with a value-less return (Void-typed functions).
func (b *BasicBlock) CreateReturn() {
	b.Term = Return{}
}

// CreateReturnValue terminates b with a return carrying val.
func (b *BasicBlock) CreateReturnValue(val Value) {
	b.Term = ReturnValue{Value: val}
}

// CreateThrow terminates b by throwing val.
func (b *BasicBlock) CreateThrow(val Value) {
	b.Term = Throw{Value: val}
}
