// wrapper.go generates the ABI translation function the host glue
// (internal/host) actually calls: exception-flag reset, argc validation,
// an argv-of-boxed-Any-pointers unpacking loop, and a result written back
// through a trailing Any* out-argument so the caller doesn't need to know
// the compiled function's concrete scalar ABI. Every conversion it does —
// boxing the result, unboxing a scalar parameter — goes through the same
// closed-ABI conversion helpers (convert.go) the compiled body itself uses,
// not a parallel helper family.
package native

import (
	"tinygo.org/x/go-llvm"

	"jsaot/internal/cfg"
	"jsaot/internal/types"
)

// GenerateWrapper emits `<fn.Name>__caller`, a function of fixed signature
// (ctx *i8, argc i32, argv **AnyStruct, result *AnyStruct) -> i32, the i32
// being the "did it throw" status the host checks before reading *result.
// Steps follow the wrapper ABI: (1) reset the exception flag, (2) validate
// argc or throw TypeError("Invalid arguments"), (3) convert each argv[i] to
// fn's declared parameter representation, (4) call the compiled body,
// (5) box a non-Any result into *result, (6) if the exception flag ended
// up set, overwrite *result with the zero value instead.
func (mod *Module) GenerateWrapper(fn *cfg.Function, compiled llvm.Value) (llvm.Value, error) {
	anyStructPtr := llvm.PointerType(mod.anyStructType(), 0)
	ctxPtr := llvm.PointerType(mod.ctx.Int8Type(), 0)
	i32 := mod.ctx.Int32Type()

	sig := llvm.FunctionType(i32, []llvm.Type{
		ctxPtr,
		i32,
		llvm.PointerType(anyStructPtr, 0),
		anyStructPtr,
	}, false)
	wrapper := llvm.AddFunction(mod.mod, fn.Name+"__caller", sig)
	wrapper.Param(0).SetName("ctx")
	wrapper.Param(1).SetName("argc")
	wrapper.Param(2).SetName("argv")
	wrapper.Param(3).SetName("result")
	ctxArg := wrapper.Param(0)
	resultPtr := wrapper.Param(3)

	entry := llvm.AddBasicBlock(wrapper, "entry")
	argError := llvm.AddBasicBlock(wrapper, "arg_error")
	argcGood := llvm.AddBasicBlock(wrapper, "argc_ok")
	b := mod.builder

	// (1) Reset the exception flag.
	b.SetInsertPointAtEnd(entry)
	b.CreateCall(mod.helpers["__resetException"], []llvm.Value{ctxArg}, "")

	// (2) argc must match the declared arity exactly.
	cmp := b.CreateICmp(llvm.IntEQ, wrapper.Param(1), llvm.ConstInt(i32, uint64(len(fn.Params)), false), "")
	b.CreateCondBr(cmp, argcGood, argError)

	b.SetInsertPointAtEnd(argError)
	msg := mod.internString("Invalid arguments")
	msgPtr := b.CreateBitCast(msg, llvm.PointerType(mod.ctx.Int8Type(), 0), "")
	b.CreateCall(mod.helpers["__throwError"], []llvm.Value{ctxArg, msgPtr, llvm.ConstInt(i32, nativeTypeError, false)}, "")
	b.CreateStore(llvm.ConstNull(mod.anyStructType()), resultPtr)
	b.CreateRet(llvm.ConstInt(i32, 1, false))

	// (3) Convert each argv[i] to the declared parameter's representation,
	// jumping to argError (Invalid arguments, or the exception a failed
	// conversion already raised — Raise keeps the first one) on failure.
	b.SetInsertPointAtEnd(argcGood)
	callArgs := make([]llvm.Value, 0, len(fn.Params)+2)
	for i, p := range fn.Params {
		idx := llvm.ConstInt(i32, uint64(i), false)
		slot := b.CreateGEP(wrapper.Param(2), []llvm.Value{idx}, "")
		argPtr := b.CreateLoad(slot, "")
		if p.Temp.Type == types.Any {
			callArgs = append(callArgs, argPtr)
			continue
		}
		conv := anyConv{mod: mod, llfn: wrapper, ctxArg: ctxArg, onFail: argError}
		v, err := conv.scalarFromAny(argPtr, p.Temp.Type)
		if err != nil {
			return llvm.Value{}, err
		}
		callArgs = append(callArgs, v)
	}
	if fn.ReturnType == types.Any {
		callArgs = append(callArgs, resultPtr)
	}
	callArgs = append(callArgs, ctxArg)

	// (4) Call the compiled body.
	ret := b.CreateCall(compiled, callArgs, "")

	excFlag := b.CreateCall(mod.helpers["__hasException"], []llvm.Value{ctxArg}, "")
	excBad := llvm.AddBasicBlock(wrapper, "exc_bad")
	excGood := llvm.AddBasicBlock(wrapper, "exc_good")
	cmpExc := b.CreateICmp(llvm.IntNE, excFlag, llvm.ConstInt(i32, 0, false), "")
	b.CreateCondBr(cmpExc, excBad, excGood)

	// (6) The exception flag was set on return: write the zero value and
	// report the throw status instead of trusting a possibly-garbage ret.
	b.SetInsertPointAtEnd(excBad)
	b.CreateStore(llvm.ConstNull(mod.anyStructType()), resultPtr)
	b.CreateRet(llvm.ConstInt(i32, 1, false))

	// (5) Box a non-Any result back into *result. Void writes undefined,
	// which is the struct's zero value (tag 0); an Any return was already
	// written directly into *result by the compiled body's own out-pointer
	// argument, so there is nothing left to do for that case.
	b.SetInsertPointAtEnd(excGood)
	switch fn.ReturnType {
	case types.Any:
	case types.Void:
		b.CreateStore(llvm.ConstNull(mod.anyStructType()), resultPtr)
	default:
		tmp := b.CreateAlloca(mod.anyStructType(), "")
		boxScalar(mod, ret, fn.ReturnType, tmp)
		b.CreateStore(b.CreateLoad(tmp, ""), resultPtr)
	}
	b.CreateRet(llvm.ConstInt(i32, 0, false))

	return wrapper, nil
}
