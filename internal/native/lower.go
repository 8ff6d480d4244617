// lower.go walks a simplified cfg.Function block by block and emits LLVM
// IR: one pass creates every llvm.BasicBlock up front (so forward jumps
// have a destination to branch to), a second pass fills each block's
// instructions in order, and opcodes fan out to either a native LLVM
// instruction (scalar I32/F64 operands) or a call into the extern helper
// table (abi.go) when any operand is the boxed Any type. Every body starts
// with a prologue call to __enterStackFrame in its entry block and gets
// three trailer blocks — a common exit that calls __exitStackFrame before
// returning, an exception exit reached by every fallible call site, and an
// invalid-conversion exit that throws TypeError and joins the exception
// exit — so Return/ReturnValue/Throw and a raised exception all release the same
// per-activation free-list frame.
package native

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"jsaot/internal/cfg"
	"jsaot/internal/types"
)

type lowering struct {
	mod    *Module
	fn     *cfg.Function
	slots  map[int64]int
	blocks map[int]llvm.BasicBlock
	temps  map[int64]llvm.Value
	llfn   llvm.Value
	frame  llvm.Value // alloca'd array of Any stack slots for this activation.

	anyOutParam   llvm.Value // trailing out-pointer param, only set when fn.ReturnType == types.Any.
	hasAnyOut     bool
	exitBlock     llvm.BasicBlock
	exceptionExit llvm.BasicBlock
	invalidExit   llvm.BasicBlock

	exitValues []llvm.Value
	exitBlocks []llvm.BasicBlock
}

func (lw *lowering) run() (llvm.Value, error) {
	sig, err := lw.signature()
	if err != nil {
		return llvm.Value{}, err
	}
	lw.llfn = llvm.AddFunction(lw.mod.mod, lw.fn.Name, sig)
	if lw.fn.ReturnType == types.Any {
		lw.hasAnyOut = true
		lw.anyOutParam = lw.llfn.Param(len(lw.fn.Params))
		lw.anyOutParam.SetName("out")
	}

	for _, b := range lw.fn.Blocks {
		lw.blocks[b.ID()] = llvm.AddBasicBlock(lw.llfn, b.Name())
	}
	lw.exitBlock = llvm.AddBasicBlock(lw.llfn, "exit")
	lw.exceptionExit = llvm.AddBasicBlock(lw.llfn, "exception_exit")
	lw.invalidExit = llvm.AddBasicBlock(lw.llfn, "invalid_conversion_exit")

	entry := lw.blocks[lw.fn.Entry.ID()]
	lw.mod.builder.SetInsertPointAtEnd(entry)
	if n := SlotCount(lw.slots); n > 0 {
		frameType := llvm.ArrayType(lw.mod.anyStructType(), n)
		lw.frame = lw.mod.builder.CreateAlloca(frameType, "anyframe")
	}
	lw.mod.builder.CreateCall(lw.mod.helpers["__enterStackFrame"], []llvm.Value{lw.ctxArg()}, "")

	for i, p := range lw.fn.Params {
		lw.temps[p.Temp.ID] = lw.llfn.Param(i)
	}

	for _, b := range lw.fn.Blocks {
		lw.mod.builder.SetInsertPointAtEnd(lw.blocks[b.ID()])
		for _, stmt := range b.Statements {
			if err := lw.genStatement(stmt); err != nil {
				return llvm.Value{}, fmt.Errorf("function %s, block %s: %w", lw.fn.Name, b.Name(), err)
			}
		}
		if err := lw.genTerminator(b.Term); err != nil {
			return llvm.Value{}, fmt.Errorf("function %s, block %s: %w", lw.fn.Name, b.Name(), err)
		}
	}

	if err := lw.genExitBlocks(); err != nil {
		return llvm.Value{}, err
	}
	return lw.llfn, nil
}

// genExitBlocks fills in the three per-function trailer blocks every
// Return/ReturnValue/Throw path and every checkException call ultimately
// reaches. exitBlock is the one true "normal return" path: every
// ReturnValue terminator records its value/block pair here instead of
// emitting its own ret, so __exitStackFrame always runs exactly once on
// the way out.
func (lw *lowering) genExitBlocks() error {
	b := lw.mod.builder

	b.SetInsertPointAtEnd(lw.exitBlock)
	b.CreateCall(lw.mod.helpers["__exitStackFrame"], []llvm.Value{lw.ctxArg()}, "")
	switch {
	case lw.fn.ReturnType == types.Void, lw.fn.ReturnType == types.Any:
		b.CreateRetVoid()
	default:
		retTy, err := lw.llvmType(lw.fn.ReturnType)
		if err != nil {
			return err
		}
		switch len(lw.exitValues) {
		case 0:
			// Every path through this function throws; still needs a
			// conventionally-typed value to keep the IR well-formed.
			b.CreateRet(llvm.ConstNull(retTy))
		case 1:
			b.CreateRet(lw.exitValues[0])
		default:
			phi := b.CreatePHI(retTy, "")
			phi.AddIncoming(lw.exitValues, lw.exitBlocks)
			b.CreateRet(phi)
		}
	}

	b.SetInsertPointAtEnd(lw.exceptionExit)
	b.CreateCall(lw.mod.helpers["__exitStackFrame"], []llvm.Value{lw.ctxArg()}, "")
	switch {
	case lw.fn.ReturnType == types.Void:
		b.CreateRetVoid()
	case lw.fn.ReturnType == types.Any:
		b.CreateStore(llvm.ConstNull(lw.mod.anyStructType()), lw.anyOutParam)
		b.CreateRetVoid()
	default:
		retTy, err := lw.llvmType(lw.fn.ReturnType)
		if err != nil {
			return err
		}
		b.CreateRet(llvm.ConstNull(retTy))
	}

	b.SetInsertPointAtEnd(lw.invalidExit)
	msg := lw.mod.internString("Invalid conversion")
	msgPtr := b.CreateBitCast(msg, llvm.PointerType(lw.mod.ctx.Int8Type(), 0), "")
	b.CreateCall(lw.mod.helpers["__throwError"], []llvm.Value{lw.ctxArg(), msgPtr, llvm.ConstInt(lw.mod.ctx.Int32Type(), nativeTypeError, false)}, "")
	b.CreateBr(lw.exceptionExit)
	return nil
}

// signature builds the LLVM function type for fn's body: its declared
// parameters, followed by an Any-typed out-pointer when fn.ReturnType is
// Any (the caller-owned slot the return value is written into instead of
// being returned by value), followed by one implicit trailing Context
// pointer — the same hidden argument the runtime-helper ABI threads
// through every fallible call (internal/runtime.Context). ctxArg relies on
// this always being the last parameter.
func (lw *lowering) signature() (llvm.Type, error) {
	extra := 1
	if lw.fn.ReturnType == types.Any {
		extra = 2
	}
	params := make([]llvm.Type, len(lw.fn.Params)+extra)
	for i, p := range lw.fn.Params {
		t, err := lw.llvmType(p.Temp.Type)
		if err != nil {
			return llvm.Type{}, err
		}
		params[i] = t
	}
	if lw.fn.ReturnType == types.Any {
		params[len(lw.fn.Params)] = llvm.PointerType(lw.mod.anyStructType(), 0)
	}
	params[len(params)-1] = llvm.PointerType(lw.mod.ctx.Int8Type(), 0)

	retType := lw.fn.ReturnType
	if retType == types.Any {
		retType = types.Void // the Any result is written through the out-pointer instead.
	}
	ret, err := lw.llvmType(retType)
	if err != nil {
		return llvm.Type{}, err
	}
	return llvm.FunctionType(ret, params, false), nil
}

// llvmType maps a static ValueType to its native LLVM representation. Any
// is always a pointer to anyStructType, addressed either into this
// activation's own stack slot (slotAddr) or a caller-provided location for
// parameters/the function's own Any return; Object/String/StringConst/
// Buffer stay opaque i8* handles.
func (lw *lowering) llvmType(t types.ValueType) (llvm.Type, error) {
	switch t {
	case types.Void:
		return lw.mod.ctx.VoidType(), nil
	case types.I32, types.Bool:
		return lw.mod.ctx.Int32Type(), nil
	case types.F64:
		return lw.mod.ctx.DoubleType(), nil
	case types.Any:
		return llvm.PointerType(lw.mod.anyStructType(), 0), nil
	case types.Object, types.String, types.StringConst, types.Buffer:
		return llvm.PointerType(lw.mod.ctx.Int8Type(), 0), nil
	default:
		return llvm.Type{}, fmt.Errorf("native: unhandled value type %s", t)
	}
}

func (lw *lowering) genStatement(s cfg.Statement) error {
	switch st := s.(type) {
	case cfg.ConstInit:
		return lw.genConst(st)
	case cfg.Operation:
		return lw.genOperation(st)
	case cfg.Call:
		return lw.genCall(st)
	default:
		return fmt.Errorf("native: unhandled statement %T", s)
	}
}

func (lw *lowering) genConst(c cfg.ConstInit) error {
	switch c.Kind {
	case types.I32:
		lw.temps[c.Result.ID] = llvm.ConstInt(lw.mod.ctx.Int32Type(), uint64(c.I32), true)
	case types.F64:
		lw.temps[c.Result.ID] = llvm.ConstFloat(lw.mod.ctx.DoubleType(), c.F64)
	case types.Bool:
		v := uint64(0)
		if c.Bool {
			v = 1
		}
		lw.temps[c.Result.ID] = llvm.ConstInt(lw.mod.ctx.Int32Type(), v, false)
	default:
		g := lw.mod.internString(c.Str)
		lw.temps[c.Result.ID] = lw.mod.builder.CreateBitCast(g, llvm.PointerType(lw.mod.ctx.Int8Type(), 0), "")
	}
	return nil
}

func (lw *lowering) operand(v cfg.Value) (llvm.Value, error) {
	rv, ok := v.(cfg.RValue)
	if !ok {
		return llvm.Value{}, fmt.Errorf("native: operand %v was not materialised before lowering", v)
	}
	llv, ok := lw.temps[rv.Temp.ID]
	if !ok {
		return llvm.Value{}, fmt.Errorf("native: temp t%d used before defined", rv.Temp.ID)
	}
	return llv, nil
}

// slotAddr returns the address of id's stack slot in the per-activation
// Any frame — base + slot x sizeof(host-value), the addressing scheme
// every Any-typed temp's result is written through instead of flowing
// through a bare SSA register, so the frame stays the one place a
// conservative root scan needs to look.
func (lw *lowering) slotAddr(id int64) (llvm.Value, error) {
	slot, ok := lw.slots[id]
	if !ok {
		return llvm.Value{}, fmt.Errorf("native: temp t%d has no stack slot", id)
	}
	zero := llvm.ConstInt(lw.mod.ctx.Int32Type(), 0, false)
	idx := llvm.ConstInt(lw.mod.ctx.Int32Type(), uint64(slot), false)
	return lw.mod.builder.CreateGEP(lw.frame, []llvm.Value{zero, idx}, ""), nil
}

// checkException tests the context's exception flag and branches to
// exceptionExit when set, otherwise falling into a fresh continuation
// block that becomes the new insert point. Every fallible helper call
// (genOperation's boxed dispatch, genCall) is followed by exactly one of
// these before the next statement runs.
func (lw *lowering) checkException() {
	b := lw.mod.builder
	flag := b.CreateCall(lw.mod.helpers["__hasException"], []llvm.Value{lw.ctxArg()}, "")
	cont := llvm.AddBasicBlock(lw.llfn, "cont")
	cmp := b.CreateICmp(llvm.IntNE, flag, llvm.ConstInt(lw.mod.ctx.Int32Type(), 0, false), "")
	b.CreateCondBr(cmp, lw.exceptionExit, cont)
	b.SetInsertPointAtEnd(cont)
}

// genOperation dispatches a binary/unary opcode to either a direct LLVM
// instruction (both operands are scalar I32/F64) or a call into the extern
// helper table when either operand is boxed (Any/Object/String). The
// lowerer picks the concrete runtime call based on operand static types;
// internal/cfg's emitter leaves that choice implicit in the opcode stream.
func (lw *lowering) genOperation(op cfg.Operation) error {
	a, err := lw.operand(op.A)
	if err != nil {
		return err
	}
	var b llvm.Value
	if op.B != nil {
		b, err = lw.operand(op.B)
		if err != nil {
			return err
		}
	}

	switch op.Op {
	case types.Dup, types.Set:
		return lw.genMove(op, a)
	case types.PushFree:
		// Enqueue the Any operand on the current free-stack frame;
		// __exitStackFrame releases it on every exit path.
		lw.mod.builder.CreateCall(lw.mod.helpers["__pushFreeVal"], []llvm.Value{lw.ctxArg(), a}, "")
		return nil
	}

	scalarA := op.A.Type().IsNumeric()
	scalarB := op.B == nil || op.B.Type().IsNumeric()
	if scalarA && scalarB {
		v, err := lw.genScalarOperation(op, a, b)
		if err == nil {
			lw.temps[op.Result.ID] = v
			return nil
		}
		// Fall through to the boxed helper path for opcodes with no direct
		// scalar LLVM instruction (e.g. Pow, which libm provides instead).
	}

	callee, ok := scalarHelperFallback[op.Op]
	if !ok {
		return fmt.Errorf("native: opcode %s has no boxed-operand lowering", op.Op)
	}
	args := []llvm.Value{lw.ctxArg(), lw.boxIfNeeded(a, op.A.Type())}
	if op.Op.IsBinary() {
		args = append(args, lw.boxIfNeeded(b, zeroType(op.B)))
	}
	result := lw.mod.builder.CreateCall(lw.mod.helpers[callee], args, "")
	lw.checkException()
	return lw.storeAnyResult(op.Result, result)
}

// genMove implements Dup and Set: a plain register copy when neither side
// is Any, a slot-to-slot struct copy when both are, an inline box when
// only the result is Any, and an inline-or-helper unbox when only the
// source is. internal/cfg's emitConditional/emitShortCircuit always target
// an Any-typed result slot regardless of its operands' static types, and
// store() writes into a destination local whose declared type can differ
// from the assigned expression's type, so every one of these four
// combinations occurs in practice, not just the identity case.
func (lw *lowering) genMove(op cfg.Operation, a llvm.Value) error {
	fromAny := op.A.Type() == types.Any
	toAny := op.Result.Type == types.Any

	switch {
	case !fromAny && !toAny:
		lw.temps[op.Result.ID] = a
		return nil
	case fromAny && toAny:
		dst, err := lw.slotAddr(op.Result.ID)
		if err != nil {
			return err
		}
		lw.mod.builder.CreateStore(lw.mod.builder.CreateLoad(a, ""), dst)
		lw.temps[op.Result.ID] = dst
		return nil
	case !fromAny && toAny:
		dst, err := lw.slotAddr(op.Result.ID)
		if err != nil {
			return err
		}
		boxScalar(lw.mod, a, op.A.Type(), dst)
		lw.temps[op.Result.ID] = dst
		return nil
	default: // fromAny && !toAny
		v, err := lw.loadAnyAsScalar(a, op.Result.Type)
		if err != nil {
			return err
		}
		lw.temps[op.Result.ID] = v
		return nil
	}
}

// loadAnyAsScalar unboxes the Any value at addr to want's native
// representation. Object/String/StringConst/Buffer targets fall through to
// the static invalid-conversion exit on a non-pointer tag, matching the
// compile-time nature of that failure; the numeric/boolean targets fall
// through to the generic exception exit, since their failure comes from a
// runtime coercion (the convert helpers) rather than a static mismatch.
func (lw *lowering) loadAnyAsScalar(addr llvm.Value, want types.ValueType) (llvm.Value, error) {
	onFail := lw.exceptionExit
	if want == types.Object || want == types.String || want == types.StringConst || want == types.Buffer {
		onFail = lw.invalidExit
	}
	c := anyConv{mod: lw.mod, llfn: lw.llfn, ctxArg: lw.ctxArg(), onFail: onFail}
	return c.scalarFromAny(addr, want)
}

// boxIfNeeded boxes a scalar operand into a fresh one-off Any slot before
// it crosses the extern helper ABI boundary (e.g. one operand of a
// dynamic-dispatch opcode is Any and the other a plain i32/double); an
// already-Any operand passes through unchanged.
func (lw *lowering) boxIfNeeded(v llvm.Value, t types.ValueType) llvm.Value {
	if t == types.Any {
		return v
	}
	tmp := lw.mod.builder.CreateAlloca(lw.mod.anyStructType(), "boxtmp")
	boxScalar(lw.mod, v, t, tmp)
	return tmp
}

// storeAnyResult binds a dynamic-dispatch helper's returned Any pointer to
// dst: copied into dst's own stack slot when dst's static type is itself
// Any, or unboxed to dst's narrower scalar type otherwise — BoolNot and
// TypeOf, for instance, have a static Bool/StringConst result even when
// the operand was Any and the actual computation ran through a helper.
func (lw *lowering) storeAnyResult(dst cfg.Temp, anyPtr llvm.Value) error {
	if dst.Type == types.Any {
		addr, err := lw.slotAddr(dst.ID)
		if err != nil {
			return err
		}
		lw.mod.builder.CreateStore(lw.mod.builder.CreateLoad(anyPtr, ""), addr)
		lw.temps[dst.ID] = addr
		return nil
	}
	v, err := lw.loadAnyAsScalar(anyPtr, dst.Type)
	if err != nil {
		return err
	}
	lw.temps[dst.ID] = v
	return nil
}

// storeCallResult binds a Call statement's result directly: the extern
// table (abi.go) already returns the representation its Callee promises
// for the statically-known Result.Type, so unlike storeAnyResult's dynamic
// dispatch there is no further unboxing to do. An Any result still needs
// copying into its own stack slot so the frame stays the single source of
// truth for every live Any value.
func (lw *lowering) storeCallResult(dst cfg.Temp, result llvm.Value) error {
	if dst.Type != types.Any {
		lw.temps[dst.ID] = result
		return nil
	}
	addr, err := lw.slotAddr(dst.ID)
	if err != nil {
		return err
	}
	lw.mod.builder.CreateStore(lw.mod.builder.CreateLoad(result, ""), addr)
	lw.temps[dst.ID] = addr
	return nil
}

// ctxArg returns the lowering's implicit Context pointer, which signature()
// always places as the function's last LLVM parameter; wrapper.go passes
// it last as well.
func (lw *lowering) ctxArg() llvm.Value {
	n := lw.llfn.ParamsCount()
	return lw.llfn.Param(n - 1)
}

func zeroType(v cfg.Value) types.ValueType {
	if v == nil {
		return types.Void
	}
	return v.Type()
}

var scalarHelperFallback = map[types.Opcode]string{
	types.Add: "__add", types.Sub: "__sub", types.Mul: "__mul", types.Div: "__div",
	types.Rem: "__rem", types.Pow: "__pow",
	types.LShift: "__lshift", types.RShift: "__rshift", types.URShift: "__urshift",
	types.BitAnd: "__bitand", types.BitOr: "__bitor", types.BitXor: "__bitxor", types.BitNot: "__bitnot",
	types.Eq: "__eq", types.Neq: "__neq", types.Gt: "__gt", types.Gte: "__gte", types.Lt: "__lt", types.Lte: "__lte",
	types.BoolNot: "__boolnot", types.TypeOf: "__typeof", types.Void_: "__void",
	types.In: "__in", types.InstanceOf: "__instanceof",
	types.UnPlus: "__add", types.UnMinus: "__sub",
}

func (lw *lowering) genScalarOperation(op cfg.Operation, a, b llvm.Value) (llvm.Value, error) {
	builder := lw.mod.builder
	isFloat := op.A.Type().IsFloating() || (op.B != nil && op.B.Type().IsFloating())
	switch op.Op {
	case types.Add:
		if isFloat {
			return builder.CreateFAdd(a, b, ""), nil
		}
		return builder.CreateAdd(a, b, ""), nil
	case types.Sub:
		if isFloat {
			return builder.CreateFSub(a, b, ""), nil
		}
		return builder.CreateSub(a, b, ""), nil
	case types.Mul:
		if isFloat {
			return builder.CreateFMul(a, b, ""), nil
		}
		return builder.CreateMul(a, b, ""), nil
	case types.UnMinus:
		if isFloat {
			return builder.CreateFNeg(a, ""), nil
		}
		return builder.CreateNeg(a, ""), nil
	case types.UnPlus:
		return a, nil
	case types.LShift:
		return builder.CreateShl(a, b, ""), nil
	case types.RShift:
		return builder.CreateAShr(a, b, ""), nil
	case types.URShift:
		return builder.CreateLShr(a, b, ""), nil
	case types.BitAnd:
		return builder.CreateAnd(a, b, ""), nil
	case types.BitOr:
		return builder.CreateOr(a, b, ""), nil
	case types.BitXor:
		return builder.CreateXor(a, b, ""), nil
	case types.BitNot:
		return builder.CreateNot(a, ""), nil
	case types.Eq, types.Neq, types.Lt, types.Lte, types.Gt, types.Gte:
		return lw.genComparison(op.Op, isFloat, a, b), nil
	default:
		return llvm.Value{}, fmt.Errorf("no direct scalar lowering for %s", op.Op)
	}
}

func (lw *lowering) genComparison(op types.Opcode, isFloat bool, a, b llvm.Value) llvm.Value {
	builder := lw.mod.builder
	if isFloat {
		pred := map[types.Opcode]llvm.FloatPredicate{
			types.Eq: llvm.FloatOEQ, types.Neq: llvm.FloatONE,
			types.Lt: llvm.FloatOLT, types.Lte: llvm.FloatOLE,
			types.Gt: llvm.FloatOGT, types.Gte: llvm.FloatOGE,
		}[op]
		return builder.CreateFCmp(pred, a, b, "")
	}
	pred := map[types.Opcode]llvm.IntPredicate{
		types.Eq: llvm.IntEQ, types.Neq: llvm.IntNE,
		types.Lt: llvm.IntSLT, types.Lte: llvm.IntSLE,
		types.Gt: llvm.IntSGT, types.Gte: llvm.IntSGE,
	}[op]
	return builder.CreateICmp(pred, a, b, "")
}

// genCall lowers a runtime-helper/host Call statement into a direct call
// through the module's declared extern table, followed by the mandatory
// post-call exception-flag check.
func (lw *lowering) genCall(c cfg.Call) error {
	fn, ok := lw.mod.helpers[c.Callee]
	if !ok {
		return fmt.Errorf("native: unknown extern helper %q", c.Callee)
	}
	args := make([]llvm.Value, 0, len(c.Args)+1)
	args = append(args, lw.ctxArg())
	for _, a := range c.Args {
		v, err := lw.operand(a)
		if err != nil {
			return err
		}
		args = append(args, v)
	}
	result := lw.mod.builder.CreateCall(fn, args, "")
	lw.checkException()
	if c.HasResult {
		return lw.storeCallResult(c.Result, result)
	}
	return nil
}

func (lw *lowering) genTerminator(term cfg.Terminator) error {
	builder := lw.mod.builder
	switch t := term.(type) {
	case cfg.Jump:
		builder.CreateBr(lw.blocks[t.Target.ID()])
		return nil
	case cfg.Branch:
		cond, err := lw.operand(t.Cond)
		if err != nil {
			return err
		}
		builder.CreateCondBr(cond, lw.blocks[t.Then.ID()], lw.blocks[t.Else.ID()])
		return nil
	case cfg.Return:
		builder.CreateBr(lw.exitBlock)
		return nil
	case cfg.ReturnValue:
		v, err := lw.operand(t.Value)
		if err != nil {
			return err
		}
		if lw.hasAnyOut {
			builder.CreateStore(builder.CreateLoad(v, ""), lw.anyOutParam)
			builder.CreateBr(lw.exitBlock)
			return nil
		}
		lw.exitValues = append(lw.exitValues, v)
		lw.exitBlocks = append(lw.exitBlocks, builder.GetInsertBlock())
		builder.CreateBr(lw.exitBlock)
		return nil
	case cfg.Throw:
		v, err := lw.operand(t.Value)
		if err != nil {
			return err
		}
		builder.CreateCall(lw.mod.helpers["__throwValue"], []llvm.Value{lw.ctxArg(), v}, "")
		builder.CreateBr(lw.exceptionExit)
		return nil
	default:
		return fmt.Errorf("native: unhandled terminator %T", term)
	}
}
