// module.go owns the LLVM context/module/target-machine lifecycle: the
// NewContext/NewBuilder/NewModule sequence, and the
// InitializeAllTarget*/CreateTargetMachine/EmitToMemoryBuffer pipeline.
// Rather than building a target triple from explicit arch/vendor/OS CLI
// flags, this compiler always targets the host's DefaultTargetTriple — the
// embedding runtime loads the compiled stub back into the same process
// that compiled it, so cross-compilation has no buyer (documented as a
// dropped surface in DESIGN.md).
package native

import (
	"errors"
	"fmt"

	"tinygo.org/x/go-llvm"

	"jsaot/internal/cfg"
)

// Module owns one LLVM compilation unit: every Function lowered into it
// shares the declared extern helper table (abi.go's helperShapes) and the
// module-level string constant pool.
type Module struct {
	ctx     llvm.Context
	builder llvm.Builder
	mod     llvm.Module
	helpers map[string]llvm.Value
	strPool map[string]llvm.Value
}

// NewModule allocates a fresh LLVM context/builder/module triple named
// name. Call Dispose when done.
func NewModule(name string) *Module {
	ctx := llvm.NewContext()
	b := ctx.NewBuilder()
	m := ctx.NewModule(name)
	mod := &Module{ctx: ctx, builder: b, mod: m, helpers: map[string]llvm.Value{}, strPool: map[string]llvm.Value{}}
	mod.declareHelpers()
	return mod
}

// Dispose releases the underlying LLVM context, builder, and module.
func (mod *Module) Dispose() {
	mod.builder.Dispose()
	mod.mod.Dispose()
	mod.ctx.Dispose()
}

// anyStructType is the two-word boxed representation every lowered
// function and extern helper uses for the Any type: a 64-bit payload (low
// word) then a 32-bit tag (high word) — the "payload low, tag high"
// convention the inline scalar<->Any conversions (lower.go, convert.go)
// read and write directly. internal/hostvalue.Value is the Go-side tagged
// union this mirrors; the two are never unified into one Go type since the
// actual linking step that would let native code and Go code share memory
// layout is out of this module's scope (internal/host/install.go).
func (mod *Module) anyStructType() llvm.Type {
	return mod.ctx.StructType([]llvm.Type{mod.ctx.Int64Type(), mod.ctx.Int32Type()}, false)
}

// internString returns (creating once) a module-level global holding s's
// bytes as a pointer-typed constant, pooled by content so repeated string
// constants (and repeated calls to emit the same error message) share one
// global.
func (mod *Module) internString(s string) llvm.Value {
	if v, ok := mod.strPool[s]; ok {
		return v
	}
	data := mod.ctx.ConstString(s, true)
	g := llvm.AddGlobal(mod.mod, data.Type(), fmt.Sprintf("L_STR%d", len(mod.strPool)))
	g.SetInitializer(data)
	g.SetGlobalConstant(true)
	mod.strPool[s] = g
	return g
}

// declareHelpers emits an extern declaration for every entry in
// helperShapes, giving each the LLVM signature its shape calls for —
// internal/runtime's Go implementations are the ones the host process
// actually calls through at install time (internal/host/install.go), so
// the LLVM-side declaration only needs to describe calling-convention
// shape, not a linkable C ABI.
func (mod *Module) declareHelpers() {
	cstrPtr := llvm.PointerType(mod.ctx.Int8Type(), 0)
	ctxPtr := cstrPtr
	anyPtr := llvm.PointerType(mod.anyStructType(), 0)
	i32 := mod.ctx.Int32Type()
	f64 := mod.ctx.DoubleType()
	voidTy := mod.ctx.VoidType()

	for name, shape := range helperShapes {
		var sig llvm.Type
		switch shape {
		case shapeBinaryAny:
			sig = llvm.FunctionType(anyPtr, []llvm.Type{ctxPtr, anyPtr, anyPtr}, false)
		case shapeUnaryAny:
			sig = llvm.FunctionType(anyPtr, []llvm.Type{ctxPtr, anyPtr}, false)
		case shapeNullaryCtx:
			sig = llvm.FunctionType(voidTy, []llvm.Type{ctxPtr}, false)
		case shapeQueryException:
			sig = llvm.FunctionType(i32, []llvm.Type{ctxPtr}, false)
		case shapeConvertI32:
			sig = llvm.FunctionType(i32, []llvm.Type{ctxPtr, anyPtr}, false)
		case shapeConvertF64:
			sig = llvm.FunctionType(f64, []llvm.Type{ctxPtr, anyPtr}, false)
		case shapeNumericF64:
			sig = llvm.FunctionType(f64, []llvm.Type{ctxPtr, f64, f64}, false)
		case shapeThrowValue:
			sig = llvm.FunctionType(voidTy, []llvm.Type{ctxPtr, anyPtr}, false)
		case shapeThrowError:
			sig = llvm.FunctionType(voidTy, []llvm.Type{ctxPtr, cstrPtr, i32}, false)
		case shapeNewString:
			sig = llvm.FunctionType(anyPtr, []llvm.Type{ctxPtr, cstrPtr}, false)
		}
		mod.helpers[name] = llvm.AddFunction(mod.mod, name, sig)
	}
}

// EmitObject runs the target-machine pipeline over the accumulated module
// and returns a relocatable object file's bytes, ready for the host glue
// (internal/host) to load as a shared stub.
func (mod *Module) EmitObject() ([]byte, error) {
	llvm.InitializeAllTargetInfos()
	llvm.InitializeAllTargetMCs()
	llvm.InitializeAllAsmParsers()
	llvm.InitializeAllAsmPrinters()
	llvm.InitializeAllTargets()

	triple := llvm.DefaultTargetTriple()
	target, err := llvm.GetTargetFromTriple(triple)
	if err != nil {
		return nil, fmt.Errorf("native: resolving target triple %q: %w", triple, err)
	}

	tm := target.CreateTargetMachine(triple, "generic", "",
		llvm.CodeGenLevelDefault, llvm.RelocDefault, llvm.CodeModelDefault)
	defer tm.Dispose()

	td := tm.CreateTargetData()
	defer td.Dispose()
	mod.mod.SetDataLayout(td.String())
	mod.mod.SetTarget(tm.Triple())

	if err := llvm.VerifyModule(mod.mod, llvm.ReturnStatusAction); err != nil {
		return nil, fmt.Errorf("native: module verification failed: %w", err)
	}

	buf, err := tm.EmitToMemoryBuffer(mod.mod, llvm.ObjectFile)
	if err != nil {
		return nil, err
	}
	if buf.IsNil() {
		return nil, errors.New("native: target machine produced no object code")
	}
	defer buf.Dispose()
	bytes := buf.Bytes()
	out := make([]byte, len(bytes))
	copy(out, bytes)
	return out, nil
}

// LowerFunction lowers a single simplified cfg.Function into mod, returning
// the LLVM function value for the compiled body (not the ABI wrapper —
// see wrapper.go for the argc/argv translation layer the host calls into).
func (mod *Module) LowerFunction(f *cfg.Function) (llvm.Value, error) {
	slots := AllocateStackSlots(f)
	lw := &lowering{mod: mod, fn: f, slots: slots, blocks: map[int]llvm.BasicBlock{}, temps: map[int64]llvm.Value{}}
	return lw.run()
}
