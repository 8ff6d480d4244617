// convert.go holds the Any<->scalar conversion logic shared by a compiled
// function's body (lower.go) and its ABI wrapper (wrapper.go): boxing a
// scalar into the two-word Any struct, and unboxing an Any back down to a
// scalar via an inline fast path with a closed-ABI helper call as the slow
// path. The two call sites differ only in where a failed conversion should
// jump to — a function body branches to its own exception or
// invalid-conversion exit, the wrapper to its argument-error label — so that target is
// the one thing callers supply.
package native

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"jsaot/internal/types"
)

// boxScalar writes v (of static type t) into dst, a pointer to an Any
// struct, using the inline payload-low/tag-high encoding: the payload is
// the scalar's bit pattern widened to 64 bits, the tag identifies how to
// read it back.
func boxScalar(mod *Module, v llvm.Value, t types.ValueType, dst llvm.Value) {
	b := mod.builder
	i64 := mod.ctx.Int64Type()
	payloadPtr := b.CreateStructGEP(dst, 0, "")
	tagPtr := b.CreateStructGEP(dst, 1, "")

	var payload llvm.Value
	var tag int64
	switch t {
	case types.F64:
		payload = b.CreateBitCast(v, i64, "")
		tag = tagNumber
	case types.Bool:
		payload = b.CreateZExt(v, i64, "")
		tag = tagBool
	case types.String, types.StringConst:
		payload = b.CreatePtrToInt(v, i64, "")
		tag = tagString
	case types.Object, types.Buffer:
		payload = b.CreatePtrToInt(v, i64, "")
		tag = tagObject
	default: // I32 and any other integral scalar.
		payload = b.CreateSExt(v, i64, "")
		tag = tagNumber
	}
	b.CreateStore(payload, payloadPtr)
	b.CreateStore(llvm.ConstInt(mod.ctx.Int32Type(), uint64(tag), false), tagPtr)
}

// anyConv bundles the handful of values every Any<->scalar conversion site
// needs: the enclosing LLVM function (to add basic blocks into), the live
// Context argument, and the block to jump to when a conversion can't be
// completed — a compiled body's own exception/invalid-conversion exit, or
// the wrapper's argument-error label.
type anyConv struct {
	mod    *Module
	llfn   llvm.Value
	ctxArg llvm.Value
	onFail llvm.BasicBlock
}

// scalarFromAny converts the boxed value at addr to want's native
// representation, taking the inline fast path when addr's tag already
// matches and falling back to the closed ABI's convert helpers otherwise.
// A conversion that cannot produce a value — a helper call that raised, or
// a non-pointer tag where a pointer handle was wanted — branches to
// onFail instead of returning.
func (c anyConv) scalarFromAny(addr llvm.Value, want types.ValueType) (llvm.Value, error) {
	switch want {
	case types.Bool:
		return c.convertTagged(addr, tagBool, "__boolConv", c.mod.ctx.Int32Type())
	case types.I32:
		return c.convertTagged(addr, tagNumber, "__convertI32", c.mod.ctx.Int32Type())
	case types.F64:
		return c.convertFloat(addr)
	case types.Object, types.String, types.StringConst, types.Buffer:
		return c.convertPointer(addr)
	default:
		return llvm.Value{}, fmt.Errorf("native: no Any conversion to %s", want)
	}
}

// branchOnException tests ctx's exception flag and jumps to c.onFail when
// set; otherwise execution falls into a fresh continuation block, returned
// as the new insert point.
func (c anyConv) branchOnException() llvm.BasicBlock {
	b := c.mod.builder
	flag := b.CreateCall(c.mod.helpers["__hasException"], []llvm.Value{c.ctxArg}, "")
	cont := llvm.AddBasicBlock(c.llfn, "exc.ok")
	cmp := b.CreateICmp(llvm.IntNE, flag, llvm.ConstInt(c.mod.ctx.Int32Type(), 0, false), "")
	b.CreateCondBr(cmp, c.onFail, cont)
	b.SetInsertPointAtEnd(cont)
	return cont
}

func (c anyConv) convertTagged(addr llvm.Value, wantTag int64, helper string, scalarTy llvm.Type) (llvm.Value, error) {
	b := c.mod.builder
	tagPtr := b.CreateStructGEP(addr, 1, "")
	tag := b.CreateLoad(tagPtr, "")
	match := b.CreateICmp(llvm.IntEQ, tag, llvm.ConstInt(c.mod.ctx.Int32Type(), uint64(wantTag), false), "")

	fast := llvm.AddBasicBlock(c.llfn, "conv.fast")
	slow := llvm.AddBasicBlock(c.llfn, "conv.slow")
	merge := llvm.AddBasicBlock(c.llfn, "conv.merge")
	b.CreateCondBr(match, fast, slow)

	b.SetInsertPointAtEnd(fast)
	payloadPtr := b.CreateStructGEP(addr, 0, "")
	fastVal := b.CreateTrunc(b.CreateLoad(payloadPtr, ""), scalarTy, "")
	fastBlock := fast
	b.CreateBr(merge)

	b.SetInsertPointAtEnd(slow)
	slowVal := b.CreateCall(c.mod.helpers[helper], []llvm.Value{c.ctxArg, addr}, "")
	slowBlock := c.branchOnException()
	b.CreateBr(merge)

	b.SetInsertPointAtEnd(merge)
	phi := b.CreatePHI(scalarTy, "")
	phi.AddIncoming([]llvm.Value{fastVal, slowVal}, []llvm.BasicBlock{fastBlock, slowBlock})
	return phi, nil
}

func (c anyConv) convertFloat(addr llvm.Value) (llvm.Value, error) {
	b := c.mod.builder
	tagPtr := b.CreateStructGEP(addr, 1, "")
	tag := b.CreateLoad(tagPtr, "")
	match := b.CreateICmp(llvm.IntEQ, tag, llvm.ConstInt(c.mod.ctx.Int32Type(), tagNumber, false), "")

	fast := llvm.AddBasicBlock(c.llfn, "conv.fast")
	slow := llvm.AddBasicBlock(c.llfn, "conv.slow")
	merge := llvm.AddBasicBlock(c.llfn, "conv.merge")
	b.CreateCondBr(match, fast, slow)

	b.SetInsertPointAtEnd(fast)
	payloadPtr := b.CreateStructGEP(addr, 0, "")
	fastVal := b.CreateBitCast(b.CreateLoad(payloadPtr, ""), c.mod.ctx.DoubleType(), "")
	fastBlock := fast
	b.CreateBr(merge)

	b.SetInsertPointAtEnd(slow)
	slowVal := b.CreateCall(c.mod.helpers["__convertF64"], []llvm.Value{c.ctxArg, addr}, "")
	slowBlock := c.branchOnException()
	b.CreateBr(merge)

	b.SetInsertPointAtEnd(merge)
	phi := b.CreatePHI(c.mod.ctx.DoubleType(), "")
	phi.AddIncoming([]llvm.Value{fastVal, slowVal}, []llvm.BasicBlock{fastBlock, slowBlock})
	return phi, nil
}

// convertPointer reads addr's payload as an opaque pointer when its tag is
// one of the pointer-bearing kinds (String, Object, Function — the three
// highest tag values), and otherwise branches to onFail: there is no
// runtime coercion from e.g. a number to an object handle.
func (c anyConv) convertPointer(addr llvm.Value) (llvm.Value, error) {
	b := c.mod.builder
	tagPtr := b.CreateStructGEP(addr, 1, "")
	tag := b.CreateLoad(tagPtr, "")
	isPtr := b.CreateICmp(llvm.IntSGE, tag, llvm.ConstInt(c.mod.ctx.Int32Type(), tagString, false), "")

	ok := llvm.AddBasicBlock(c.llfn, "conv.ptr.ok")
	b.CreateCondBr(isPtr, ok, c.onFail)

	b.SetInsertPointAtEnd(ok)
	payloadPtr := b.CreateStructGEP(addr, 0, "")
	payload := b.CreateLoad(payloadPtr, "")
	return b.CreateIntToPtr(payload, llvm.PointerType(c.mod.ctx.Int8Type(), 0), ""), nil
}
