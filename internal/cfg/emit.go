package cfg

import (
	"fmt"

	"jsaot/internal/frontend"
	"jsaot/internal/types"
)

// scope is one lexical block's name bindings, chained to its parent,
// modeling JS block scoping where `let`/`const` bindings are only visible
// from their declaring block onward (unlike a single flat function/global
// namespace).
type scope struct {
	parent *scope
	names  map[string]LVRef
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: map[string]LVRef{}}
}

func (s *scope) lookup(name string) (LVRef, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if ref, ok := cur.names[name]; ok {
			return ref, true
		}
	}
	return LVRef{}, false
}

// loopTargets is the break/continue jump target pair for the innermost
// enclosing loop.
type loopTargets struct {
	breakTo, continueTo *BasicBlock
}

// emitter lowers one function body to a CFG. A fresh emitter is created per
// function by Emit.
type emitter struct {
	fn    *Function
	block *BasicBlock
	sc    *scope
	loops []loopTargets

	// anyFrees accumulates the Any-typed Temps materialised in the current
	// function that must be released (PushFree) on every exit path, LIFO.
	// Populated by materialize and by NodeCall/NodeNew results that are
	// Any-typed.
	anyFrees []Temp

	err error
}

// Emit lowers a single discovered function candidate (internal/frontend's
// Discover output) into a Function. paramTypes/returnType are the resolved
// internal/types.ValueType for each annotated parameter and the return
// annotation; the caller (internal/host) is responsible for resolving the
// string annotations via types.TypeName before calling Emit.
func Emit(fnNode *frontend.Node, paramTypes []types.ValueType, returnType types.ValueType) (*Function, error) {
	f := NewFunction(fnNode.Name, returnType)
	e := &emitter{fn: f, block: f.Entry, sc: newScope(nil)}

	params := fnNode.Children[:len(fnNode.Children)-1]
	body := fnNode.Children[len(fnNode.Children)-1]
	for i, p := range params {
		param := f.AddParam(p.Name, paramTypes[i])
		e.sc.names[p.Name] = NewLocalRef(&param.Temp, false)
	}

	e.emitBlock(body)
	if e.err != nil {
		return nil, e.err
	}
	e.terminateFallthrough(returnType)
	f.Finalize()
	return f, nil
}

// terminateFallthrough closes off a function body that reached its closing
// brace without an explicit return: Void functions return implicitly,
// every other return type returns the zero value of that type (the parser
// does no return-type checking, so this terminator also guarantees every
// block in the CFG exactly one Terminator).
func (e *emitter) terminateFallthrough(returnType types.ValueType) {
	if e.block.Term != nil {
		return
	}
	e.releaseFrees(e.block)
	if returnType == types.Void {
		e.block.CreateReturn()
		return
	}
	e.block.CreateReturnValue(e.zeroValue(returnType))
}

func (e *emitter) zeroValue(t types.ValueType) Value {
	switch t {
	case types.I32, types.Bool:
		return e.block.CreateConstI32(0)
	case types.F64:
		return e.block.CreateConstF64(0)
	default:
		return e.block.CreateCall(types.Any, "__undefined")
	}
}

func (e *emitter) fail(format string, args ...interface{}) {
	if e.err == nil {
		e.err = fmt.Errorf(format, args...)
	}
}

// releaseFrees emits a PushFree for every Any-typed Temp materialised since
// function entry, in LIFO order, on block b (used right before every exit
// terminator: return, throw, or fallthrough).
func (e *emitter) releaseFrees(b *BasicBlock) {
	for i := len(e.anyFrees) - 1; i >= 0; i-- {
		t := e.anyFrees[i]
		b.Statements = append(b.Statements, Operation{Result: NewTemp(types.Void), Op: types.PushFree, A: RValue{Temp: t}})
	}
}

func (e *emitter) trackFree(v RValue) RValue {
	if v.Temp.Type == types.Any {
		e.anyFrees = append(e.anyFrees, v.Temp)
	}
	return v
}

// ---- statements ----

func (e *emitter) emitBlock(n *frontend.Node) {
	outer := e.sc
	e.sc = newScope(outer)
	for _, stmt := range n.Children {
		if e.block.Term != nil {
			break // unreachable code after a return is not emitted.
		}
		e.emitStatement(stmt)
	}
	e.sc = outer
}

func (e *emitter) emitStatement(n *frontend.Node) {
	switch n.Kind {
	case frontend.NodeBlock:
		e.emitBlock(n)
	case frontend.NodeEmpty:
	case frontend.NodeExprStmt:
		v := e.emitExpr(n.Children[0])
		e.materialize(v)
	case frontend.NodeLexicalDecl:
		e.emitLexicalDecl(n)
	case frontend.NodeIf:
		e.emitIf(n)
	case frontend.NodeWhile:
		e.emitWhile(n)
	case frontend.NodeDoWhile:
		e.emitDoWhile(n)
	case frontend.NodeFor:
		e.emitFor(n)
	case frontend.NodeBreak:
		e.emitBreak()
	case frontend.NodeContinue:
		e.emitContinue()
	case frontend.NodeReturn:
		e.emitReturn(n)
	case frontend.NodeThrow:
		e.emitThrow(n)
	default:
		e.fail("cfg: unsupported statement kind %v", n.Kind)
	}
}

func (e *emitter) emitLexicalDecl(n *frontend.Node) {
	isConst := n.Op == "const"
	for _, decl := range n.Children {
		var val RValue
		if len(decl.Children) > 0 {
			val = e.materialize(e.emitExpr(decl.Children[0]))
		} else {
			val = e.zeroValue(types.Any).(RValue)
		}
		local := val.Temp
		e.sc.names[decl.Name] = NewLocalRef(&local, isConst)
	}
}

func (e *emitter) emitIf(n *frontend.Node) {
	test := e.materialize(e.emitExpr(n.Children[0]))
	thenBlock := e.fn.NewBlock()
	postBlock := e.fn.NewBlock()
	elseBlock := postBlock
	hasElse := len(n.Children) > 2
	if hasElse {
		elseBlock = e.fn.NewBlock()
	}
	e.block.CreateBranch(test, thenBlock, elseBlock)

	e.block = thenBlock
	e.emitStatement(n.Children[1])
	if e.block.Term == nil {
		e.block.CreateJump(postBlock)
	}

	if hasElse {
		e.block = elseBlock
		e.emitStatement(n.Children[2])
		if e.block.Term == nil {
			e.block.CreateJump(postBlock)
		}
	}
	e.block = postBlock
}

func (e *emitter) emitWhile(n *frontend.Node) {
	head := e.fn.NewBlock()
	body := e.fn.NewBlock()
	post := e.fn.NewBlock()
	e.block.CreateJump(head)

	e.block = head
	test := e.materialize(e.emitExpr(n.Children[0]))
	e.block.CreateBranch(test, body, post)

	e.block = body
	e.loops = append(e.loops, loopTargets{breakTo: post, continueTo: head})
	e.emitStatement(n.Children[1])
	e.loops = e.loops[:len(e.loops)-1]
	if e.block.Term == nil {
		e.block.CreateJump(head)
	}

	e.block = post
}

func (e *emitter) emitDoWhile(n *frontend.Node) {
	body := e.fn.NewBlock()
	testBlock := e.fn.NewBlock()
	post := e.fn.NewBlock()
	e.block.CreateJump(body)

	e.block = body
	e.loops = append(e.loops, loopTargets{breakTo: post, continueTo: testBlock})
	e.emitStatement(n.Children[0])
	e.loops = e.loops[:len(e.loops)-1]
	if e.block.Term == nil {
		e.block.CreateJump(testBlock)
	}

	e.block = testBlock
	test := e.materialize(e.emitExpr(n.Children[1]))
	e.block.CreateBranch(test, body, post)

	e.block = post
}

func (e *emitter) emitFor(n *frontend.Node) {
	outer := e.sc
	e.sc = newScope(outer)
	defer func() { e.sc = outer }()

	if n.Children[0] != nil {
		if n.Children[0].Kind == frontend.NodeLexicalDecl {
			e.emitLexicalDecl(n.Children[0])
		} else {
			e.materialize(e.emitExpr(n.Children[0]))
		}
	}

	head := e.fn.NewBlock()
	body := e.fn.NewBlock()
	updateBlock := e.fn.NewBlock()
	post := e.fn.NewBlock()
	e.block.CreateJump(head)

	e.block = head
	if n.Children[1] != nil {
		test := e.materialize(e.emitExpr(n.Children[1]))
		e.block.CreateBranch(test, body, post)
	} else {
		e.block.CreateJump(body)
	}

	e.block = body
	e.loops = append(e.loops, loopTargets{breakTo: post, continueTo: updateBlock})
	e.emitStatement(n.Children[3])
	e.loops = e.loops[:len(e.loops)-1]
	if e.block.Term == nil {
		e.block.CreateJump(updateBlock)
	}

	e.block = updateBlock
	if n.Children[2] != nil {
		e.materialize(e.emitExpr(n.Children[2]))
	}
	e.block.CreateJump(head)

	e.block = post
}

func (e *emitter) emitBreak() {
	if len(e.loops) == 0 {
		e.fail("cfg: break outside loop")
		return
	}
	e.block.CreateJump(e.loops[len(e.loops)-1].breakTo)
	e.block = e.fn.NewBlock() // unreachable continuation
}

func (e *emitter) emitContinue() {
	if len(e.loops) == 0 {
		e.fail("cfg: continue outside loop")
		return
	}
	e.block.CreateJump(e.loops[len(e.loops)-1].continueTo)
	e.block = e.fn.NewBlock()
}

func (e *emitter) emitReturn(n *frontend.Node) {
	e.releaseFrees(e.block)
	if len(n.Children) == 0 {
		e.block.CreateReturn()
	} else {
		v := e.materialize(e.emitExpr(n.Children[0]))
		e.block.CreateReturnValue(v)
	}
}

func (e *emitter) emitThrow(n *frontend.Node) {
	v := e.materialize(e.emitExpr(n.Children[0]))
	e.releaseFrees(e.block)
	e.block.CreateThrow(v)
	e.block = e.fn.NewBlock()
}

// ---- expressions ----

// emitExpr lowers n and returns a Value: an LVRef when n denotes an
// assignable location (identifier or member access) so the caller can
// choose whether to materialize it, and an RValue otherwise.
func (e *emitter) emitExpr(n *frontend.Node) Value {
	switch n.Kind {
	case frontend.NodeInt:
		return e.block.CreateConstI32(n.IntVal)
	case frontend.NodeFloat:
		return e.block.CreateConstF64(n.FloatVal)
	case frontend.NodeBool:
		return e.block.CreateConstBool(n.BoolVal)
	case frontend.NodeString:
		return e.block.CreateConstString(n.StringVal)
	case frontend.NodeNull:
		return e.block.CreateCall(types.Any, "__null")
	case frontend.NodeThis:
		return e.block.CreateCall(types.Any, "__this")
	case frontend.NodeIdentRef:
		ref, ok := e.sc.lookup(n.Name)
		if !ok {
			return e.block.CreateCall(types.Any, "__getGlobal", e.block.CreateConstString(n.Name))
		}
		return ref
	case frontend.NodeMember:
		return e.emitMember(n)
	case frontend.NodeSequence:
		var last Value
		for _, c := range n.Children {
			last = e.emitExpr(c)
			if c != n.Children[len(n.Children)-1] {
				e.materialize(last)
			}
		}
		return last
	case frontend.NodeUnary:
		return e.emitUnary(n)
	case frontend.NodeUpdate:
		return e.emitUpdate(n)
	case frontend.NodeBinary:
		return e.emitBinary(n)
	case frontend.NodeLogical:
		return e.emitLogical(n)
	case frontend.NodeConditional:
		return e.emitConditional(n)
	case frontend.NodeAssign:
		return e.emitAssign(n)
	case frontend.NodeCall:
		return e.emitCall(n)
	case frontend.NodeNew:
		return e.emitNew(n)
	default:
		e.fail("cfg: unsupported expression kind %v", n.Kind)
		return e.block.CreateConstI32(0)
	}
}

// materialize converts a Value into a usable RValue: an LVRef to a local is
// read via Dup, an LVRef to a member is read via GetMember, and an RValue
// passes through unchanged. This is the single seam every expression result
// funnels through before being used as an operand.
func (e *emitter) materialize(v Value) RValue {
	switch ref := v.(type) {
	case RValue:
		return e.trackFree(ref)
	case LVRef:
		if ref.IsMember() {
			key := ref.memberKey(e)
			r := e.block.CreateCall(types.Any, "__getMemberAny", RValue{Temp: *ref.Base}, key)
			return e.trackFree(r)
		}
		r := e.block.CreateOperation(types.Dup, RValue{Temp: *ref.Local}, nil)
		return r
	default:
		e.fail("cfg: materialize: unknown value kind")
		return RValue{}
	}
}

func (e *emitter) emitMember(n *frontend.Node) Value {
	baseV := e.materialize(e.emitExpr(n.Children[0]))
	base := baseV.Temp
	if n.Op == "." {
		return NewMemberRef(&base, n.Name)
	}
	keyV := e.materialize(e.emitExpr(n.Children[1]))
	return NewComputedMemberRef(&base, keyV)
}

// memberKey returns the property-key Value to pass to the runtime's
// member-access helpers: a string constant for a static `.name` access, or
// the already-evaluated computed key for a `[expr]` access, coerced to a
// property key via the runtime helper.
func (ref LVRef) memberKey(e *emitter) Value {
	if ref.Key != nil {
		return e.block.CreateCall(types.StringConst, "__toPropertyKey", ref.Key)
	}
	return e.block.CreateConstString(ref.Member)
}

func (e *emitter) emitUnary(n *frontend.Node) Value {
	operand := e.materialize(e.emitExpr(n.Children[0]))
	switch n.Op {
	case "+":
		return e.block.CreateOperation(types.UnPlus, operand, nil)
	case "-":
		return e.block.CreateOperation(types.UnMinus, operand, nil)
	case "!":
		return e.block.CreateOperation(types.BoolNot, operand, nil)
	case "~":
		return e.block.CreateOperation(types.BitNot, operand, nil)
	case "void":
		return e.block.CreateOperation(types.Void_, operand, nil)
	case "typeof":
		return e.block.CreateOperation(types.TypeOf, operand, nil)
	default:
		e.fail("cfg: unsupported unary operator %q", n.Op)
		return operand
	}
}

func (e *emitter) emitUpdate(n *frontend.Node) Value {
	ref := e.emitExpr(n.Children[0])
	lv, ok := ref.(LVRef)
	if !ok {
		e.fail("cfg: update target is not assignable")
		return e.materialize(ref)
	}
	old := e.materialize(ref)
	one := e.block.CreateConstI32(1)
	op := types.Add
	if n.Op == "--" {
		op = types.Sub
	}
	updated := e.block.CreateOperation(op, old, one)
	e.store(lv, updated)
	if n.BoolVal { // prefix: yields the updated value
		return updated
	}
	return old // postfix: yields the pre-update value
}

func (e *emitter) emitBinary(n *frontend.Node) Value {
	a := e.materialize(e.emitExpr(n.Children[0]))
	b := e.materialize(e.emitExpr(n.Children[1]))
	op, ok := binaryOpcodes[n.Op]
	if !ok {
		e.fail("cfg: unsupported binary operator %q", n.Op)
		return a
	}
	return e.block.CreateOperation(op, a, b)
}

var binaryOpcodes = map[string]types.Opcode{
	"+": types.Add, "-": types.Sub, "*": types.Mul, "/": types.Div,
	"%": types.Rem, "**": types.Pow,
	"<<": types.LShift, ">>": types.RShift, ">>>": types.URShift,
	"&": types.BitAnd, "|": types.BitOr, "^": types.BitXor,
	"==": types.Eq, "!=": types.Neq, "===": types.Eq, "!==": types.Neq,
	"<": types.Lt, ">": types.Gt, "<=": types.Lte, ">=": types.Gte,
	"in": types.In, "instanceof": types.InstanceOf,
}

// emitShortCircuit builds the diamond CFG shared by &&, ||, ??, and their
// compound-assignment forms, parameterised by a predicate over the
// materialised LHS deciding whether the RHS runs at all. This generalises
// an if/while-style branch pattern into a reusable shape, since JS's
// short-circuit operators are themselves expressions rather than
// statements.
func (e *emitter) emitShortCircuit(lhs RValue, takeRHSWhen func(rhsBlock, skipBlock *BasicBlock), evalRHS func() RValue) RValue {
	rhsBlock := e.fn.NewBlock()
	skipBlock := e.fn.NewBlock()
	postBlock := e.fn.NewBlock()
	resultSlot := NewTemp(types.Any)

	takeRHSWhen(rhsBlock, skipBlock)

	e.block = rhsBlock
	rhs := evalRHS()
	e.block.Statements = append(e.block.Statements, Operation{Result: resultSlot, Op: types.Set, A: rhs})
	e.block.CreateJump(postBlock)

	e.block = skipBlock
	e.block.Statements = append(e.block.Statements, Operation{Result: resultSlot, Op: types.Set, A: lhs})
	e.block.CreateJump(postBlock)

	e.block = postBlock
	return RValue{Temp: resultSlot}
}

func (e *emitter) emitLogical(n *frontend.Node) Value {
	lhs := e.materialize(e.emitExpr(n.Children[0]))
	switch n.Op {
	case "&&":
		return e.emitShortCircuit(lhs, func(rhs, skip *BasicBlock) {
			e.block.CreateBranch(lhs, rhs, skip)
		}, func() RValue { return e.materialize(e.emitExpr(n.Children[1])) })
	case "||":
		return e.emitShortCircuit(lhs, func(rhs, skip *BasicBlock) {
			e.block.CreateBranch(lhs, skip, rhs)
		}, func() RValue { return e.materialize(e.emitExpr(n.Children[1])) })
	case "??":
		isNullish := e.block.CreateCall(types.Bool, "__isNullish", lhs)
		return e.emitShortCircuit(lhs, func(rhs, skip *BasicBlock) {
			e.block.CreateBranch(isNullish, rhs, skip)
		}, func() RValue { return e.materialize(e.emitExpr(n.Children[1])) })
	default:
		e.fail("cfg: unsupported logical operator %q", n.Op)
		return lhs
	}
}

func (e *emitter) emitConditional(n *frontend.Node) Value {
	test := e.materialize(e.emitExpr(n.Children[0]))
	consBlock := e.fn.NewBlock()
	altBlock := e.fn.NewBlock()
	postBlock := e.fn.NewBlock()
	resultSlot := NewTemp(types.Any)
	e.block.CreateBranch(test, consBlock, altBlock)

	e.block = consBlock
	cons := e.materialize(e.emitExpr(n.Children[1]))
	e.block.Statements = append(e.block.Statements, Operation{Result: resultSlot, Op: types.Set, A: cons})
	e.block.CreateJump(postBlock)

	e.block = altBlock
	alt := e.materialize(e.emitExpr(n.Children[2]))
	e.block.Statements = append(e.block.Statements, Operation{Result: resultSlot, Op: types.Set, A: alt})
	e.block.CreateJump(postBlock)

	e.block = postBlock
	return RValue{Temp: resultSlot}
}

func (e *emitter) store(lv LVRef, v RValue) {
	if lv.IsMember() {
		e.block.CreateVoidCall("__setMemberAny", RValue{Temp: *lv.Base}, lv.memberKey(e), v)
		return
	}
	e.block.Statements = append(e.block.Statements, Operation{Result: *lv.Local, Op: types.Set, A: v})
}

func (e *emitter) emitAssign(n *frontend.Node) Value {
	targetExpr := e.emitExpr(n.Children[0])
	lv, ok := targetExpr.(LVRef)
	if !ok {
		e.fail("cfg: assignment target is not assignable")
		return e.materialize(targetExpr)
	}
	if lv.Const {
		e.fail("cfg: assignment to const binding")
	}

	if n.Op == "=" {
		v := e.materialize(e.emitExpr(n.Children[1]))
		e.store(lv, v)
		return v
	}

	cur := e.materialize(lv)
	switch n.Op {
	case "&&=", "||=", "??=":
		v := e.materialize(e.emitCompoundLogical(n.Op, cur, n.Children[1]))
		e.store(lv, v)
		return v
	default:
		op, ok := binaryOpcodes[n.Op[:len(n.Op)-1]]
		if !ok {
			e.fail("cfg: unsupported compound assignment operator %q", n.Op)
			return cur
		}
		rhs := e.materialize(e.emitExpr(n.Children[1]))
		result := e.block.CreateOperation(op, cur, rhs)
		e.store(lv, result)
		return result
	}
}

// emitCompoundLogical builds the short-circuit diamond for &&=, ||=, and
// ??= directly against an already-materialised LHS value, unlike
// emitLogical which re-derives its LHS from an AST node — the compound
// assignment forms only ever see the LHS once, as a read already performed
// by emitAssign.
func (e *emitter) emitCompoundLogical(op string, lhs RValue, rhsNode *frontend.Node) Value {
	switch op {
	case "&&=":
		return e.emitShortCircuit(lhs, func(rhs, skip *BasicBlock) {
			e.block.CreateBranch(lhs, rhs, skip)
		}, func() RValue { return e.materialize(e.emitExpr(rhsNode)) })
	case "||=":
		return e.emitShortCircuit(lhs, func(rhs, skip *BasicBlock) {
			e.block.CreateBranch(lhs, skip, rhs)
		}, func() RValue { return e.materialize(e.emitExpr(rhsNode)) })
	default: // "??="
		isNullish := e.block.CreateCall(types.Bool, "__isNullish", lhs)
		return e.emitShortCircuit(lhs, func(rhs, skip *BasicBlock) {
			e.block.CreateBranch(isNullish, rhs, skip)
		}, func() RValue { return e.materialize(e.emitExpr(rhsNode)) })
	}
}

func (e *emitter) emitCall(n *frontend.Node) Value {
	callee := e.materialize(e.emitExpr(n.Children[0]))
	args := make([]Value, 0, len(n.Children))
	args = append(args, callee)
	for _, a := range n.Children[1:] {
		args = append(args, e.materialize(e.emitExpr(a)))
	}
	return e.block.CreateCall(types.Any, "__callAnyAny", args...)
}

func (e *emitter) emitNew(n *frontend.Node) Value {
	callee := e.materialize(e.emitExpr(n.Children[0]))
	args := make([]Value, 0, len(n.Children))
	args = append(args, callee)
	for _, a := range n.Children[1:] {
		args = append(args, e.materialize(e.emitExpr(a)))
	}
	return e.block.CreateCall(types.Any, "__callCtorAny", args...)
}
