package cfg

import "jsaot/internal/types"

// Param is a single compiled function parameter: name kept for diagnostics
// and debug symbol names, Temp is the binding the function body reads from.
type Param struct {
	Name string
	Temp Temp
}

// Function is a fully lowered compile candidate: parameters, an entry
// block, and every block reachable from it. Carries a ReturnType field
// since this compiler's functions can return Any or Void as well as
// scalar types.
type Function struct {
	Name       string
	Params     []Param
	ReturnType types.ValueType
	Entry      *BasicBlock
	Blocks     []*BasicBlock

	nextBlockID int
}

// NewFunction allocates a Function with a fresh entry block.
func NewFunction(name string, returnType types.ValueType) *Function {
	f := &Function{Name: name, ReturnType: returnType}
	f.Entry = f.NewBlock()
	return f
}

// NewBlock allocates and registers a new, unterminated BasicBlock owned by f.
func (f *Function) NewBlock() *BasicBlock {
	b := &BasicBlock{fn: f, id: f.nextBlockID}
	f.nextBlockID++
	f.Blocks = append(f.Blocks, b)
	return b
}

// AddParam binds a new parameter of type t and appends it to f.Params.
func (f *Function) AddParam(name string, t types.ValueType) Param {
	p := Param{Name: name, Temp: NewTemp(t)}
	f.Params = append(f.Params, p)
	return p
}

// Finalize computes predecessor/successor edges for every block in f,
// needed by the simplifier (simplify.go) and by the native lowerer's PHI-free
// block ordering. Call once after the function body has been fully emitted.
func (f *Function) Finalize() {
	for _, b := range f.Blocks {
		b.succs = nil
	}
	for _, b := range f.Blocks {
		b.preds = nil
	}
	for _, b := range f.Blocks {
		for _, s := range successorsOf(b.Term) {
			b.succs = append(b.succs, s)
			s.preds = append(s.preds, b)
		}
	}
}

func successorsOf(term Terminator) []*BasicBlock {
	switch t := term.(type) {
	case Jump:
		return []*BasicBlock{t.Target}
	case Branch:
		return []*BasicBlock{t.Then, t.Else}
	default:
		return nil
	}
}

// String renders every block of f in declaration order, for -cfg dumps.
func (f *Function) String() string {
	out := f.Name + ":\n"
	for _, b := range f.Blocks {
		out += b.String()
	}
	return out
}
