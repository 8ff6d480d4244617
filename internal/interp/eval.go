package interp

import (
	"fmt"

	"jsaot/internal/frontend"
	"jsaot/internal/hostvalue"
	"jsaot/internal/runtime"
)

func (ip *Interp) eval(n *frontend.Node) (hostvalue.Value, error) {
	switch n.Kind {
	case frontend.NodeInt:
		return hostvalue.FromNumber(float64(n.IntVal)), nil
	case frontend.NodeFloat:
		return hostvalue.FromNumber(n.FloatVal), nil
	case frontend.NodeBool:
		return hostvalue.FromBool(n.BoolVal), nil
	case frontend.NodeString:
		return hostvalue.FromString(n.StringVal), nil
	case frontend.NodeNull:
		return hostvalue.NullValue(), nil
	case frontend.NodeThis:
		if b, ok := ip.env.lookup("this"); ok {
			return b.value, nil
		}
		return hostvalue.Undef(), nil
	case frontend.NodeIdentRef:
		if b, ok := ip.env.lookup(n.Name); ok {
			return b.value, nil
		}
		return ip.ctx.Host.GetGlobal(n.Name)
	case frontend.NodeSequence:
		var last hostvalue.Value
		for _, c := range n.Children {
			v, err := ip.eval(c)
			if err != nil {
				return hostvalue.Value{}, err
			}
			last = v
		}
		return last, nil
	case frontend.NodeMember:
		return ip.evalMemberRead(n)
	case frontend.NodeUnary:
		return ip.evalUnary(n)
	case frontend.NodeUpdate:
		return ip.evalUpdate(n)
	case frontend.NodeBinary:
		return ip.evalBinary(n)
	case frontend.NodeLogical:
		return ip.evalLogical(n)
	case frontend.NodeConditional:
		return ip.evalConditional(n)
	case frontend.NodeAssign:
		return ip.evalAssign(n)
	case frontend.NodeCall:
		return ip.evalCall(n)
	case frontend.NodeNew:
		return ip.evalNew(n)
	default:
		return hostvalue.Value{}, fmt.Errorf("interp: unsupported expression kind %v", n.Kind)
	}
}

func (ip *Interp) evalMemberRead(n *frontend.Node) (hostvalue.Value, error) {
	base, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	key := n.Name
	if n.Op == "[]" {
		keyVal, err := ip.eval(n.Children[1])
		if err != nil {
			return hostvalue.Value{}, err
		}
		key = keyVal.String()
	}
	return ip.ctx.Host.GetMember(base, key)
}

func (ip *Interp) evalUnary(n *frontend.Node) (hostvalue.Value, error) {
	v, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	switch n.Op {
	case "+":
		return hostvalue.FromNumber(v.Num), nil
	case "-":
		return hostvalue.FromNumber(-v.Num), nil
	case "!":
		return hostvalue.FromBool(!v.Truthy()), nil
	case "~":
		return hostvalue.FromNumber(float64(^int32(v.Num))), nil
	case "void":
		return hostvalue.Undef(), nil
	case "typeof":
		return ip.ctx.TypeOf(v), nil
	default:
		return hostvalue.Value{}, fmt.Errorf("interp: unsupported unary operator %q", n.Op)
	}
}

func (ip *Interp) evalUpdate(n *frontend.Node) (hostvalue.Value, error) {
	old, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	delta := 1.0
	if n.Op == "--" {
		delta = -1.0
	}
	updated := hostvalue.FromNumber(old.Num + delta)
	if err := ip.assignTo(n.Children[0], updated); err != nil {
		return hostvalue.Value{}, err
	}
	if n.BoolVal {
		return updated, nil
	}
	return old, nil
}

func (ip *Interp) evalBinary(n *frontend.Node) (hostvalue.Value, error) {
	a, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	b, err := ip.eval(n.Children[1])
	if err != nil {
		return hostvalue.Value{}, err
	}
	return ip.applyBinary(n.Op, a, b)
}

func (ip *Interp) applyBinary(op string, a, b hostvalue.Value) (hostvalue.Value, error) {
	switch op {
	case "+":
		return ip.ctx.Add(a, b), nil
	case "-":
		return ip.ctx.Sub(a, b), nil
	case "*":
		return ip.ctx.Mul(a, b), nil
	case "/":
		return ip.ctx.Div(a, b), nil
	case "%":
		return ip.ctx.Rem(a, b), nil
	case "**":
		return ip.ctx.Pow(a, b), nil
	case "<<":
		return ip.ctx.LShift(a, b), nil
	case ">>":
		return ip.ctx.RShift(a, b), nil
	case ">>>":
		return ip.ctx.URShift(a, b), nil
	case "&":
		return ip.ctx.BitAnd(a, b), nil
	case "|":
		return ip.ctx.BitOr(a, b), nil
	case "^":
		return ip.ctx.BitXor(a, b), nil
	case "==", "===":
		return ip.ctx.Eq(a, b), nil
	case "!=", "!==":
		return ip.ctx.Neq(a, b), nil
	case "<":
		return ip.ctx.Lt(a, b), nil
	case "<=":
		return ip.ctx.Lte(a, b), nil
	case ">":
		return ip.ctx.Gt(a, b), nil
	case ">=":
		return ip.ctx.Gte(a, b), nil
	case "in":
		return ip.ctx.In(a, b), nil
	case "instanceof":
		return ip.ctx.InstanceOf(a, b), nil
	default:
		return hostvalue.Value{}, fmt.Errorf("interp: unsupported binary operator %q", op)
	}
}

func (ip *Interp) evalLogical(n *frontend.Node) (hostvalue.Value, error) {
	a, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	switch n.Op {
	case "&&":
		if !a.Truthy() {
			return a, nil
		}
	case "||":
		if a.Truthy() {
			return a, nil
		}
	case "??":
		if !a.IsNullish() {
			return a, nil
		}
	default:
		return hostvalue.Value{}, fmt.Errorf("interp: unsupported logical operator %q", n.Op)
	}
	return ip.eval(n.Children[1])
}

func (ip *Interp) evalConditional(n *frontend.Node) (hostvalue.Value, error) {
	test, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	if test.Truthy() {
		return ip.eval(n.Children[1])
	}
	return ip.eval(n.Children[2])
}

func (ip *Interp) assignTo(target *frontend.Node, v hostvalue.Value) error {
	switch target.Kind {
	case frontend.NodeIdentRef:
		if b, ok := ip.env.lookup(target.Name); ok {
			if b.isConst {
				return runtime.NewError(runtime.TypeError, "assignment to constant variable %q", target.Name)
			}
			b.value = v
			return nil
		}
		ip.env.define(target.Name, v, false)
		return nil
	case frontend.NodeMember:
		base, err := ip.eval(target.Children[0])
		if err != nil {
			return err
		}
		key := target.Name
		if target.Op == "[]" {
			keyVal, err := ip.eval(target.Children[1])
			if err != nil {
				return err
			}
			key = keyVal.String()
		}
		return ip.ctx.Host.SetMember(base, key, v)
	default:
		return fmt.Errorf("interp: invalid assignment target kind %v", target.Kind)
	}
}

func (ip *Interp) evalAssign(n *frontend.Node) (hostvalue.Value, error) {
	if n.Op == "=" {
		v, err := ip.eval(n.Children[1])
		if err != nil {
			return hostvalue.Value{}, err
		}
		return v, ip.assignTo(n.Children[0], v)
	}
	cur, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	switch n.Op {
	case "&&=":
		if !cur.Truthy() {
			return cur, nil
		}
	case "||=":
		if cur.Truthy() {
			return cur, nil
		}
	case "??=":
		if !cur.IsNullish() {
			return cur, nil
		}
	default:
		rhs, err := ip.eval(n.Children[1])
		if err != nil {
			return hostvalue.Value{}, err
		}
		result, err := ip.applyBinary(n.Op[:len(n.Op)-1], cur, rhs)
		if err != nil {
			return hostvalue.Value{}, err
		}
		return result, ip.assignTo(n.Children[0], result)
	}
	rhs, err := ip.eval(n.Children[1])
	if err != nil {
		return hostvalue.Value{}, err
	}
	return rhs, ip.assignTo(n.Children[0], rhs)
}

func (ip *Interp) evalCall(n *frontend.Node) (hostvalue.Value, error) {
	callee, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	args, err := ip.evalArgs(n.Children[1:])
	if err != nil {
		return hostvalue.Value{}, err
	}
	if fnNode, ok := ip.env.funcNode(callee); ok && callee.Tag == hostvalue.Function {
		return ip.callInterpreted(fnNode, args)
	}
	return ip.ctx.Host.Call(callee, args)
}

func (ip *Interp) evalNew(n *frontend.Node) (hostvalue.Value, error) {
	callee, err := ip.eval(n.Children[0])
	if err != nil {
		return hostvalue.Value{}, err
	}
	args, err := ip.evalArgs(n.Children[1:])
	if err != nil {
		return hostvalue.Value{}, err
	}
	return ip.ctx.Host.CallCtor(callee, args)
}

func (ip *Interp) evalArgs(nodes []*frontend.Node) ([]hostvalue.Value, error) {
	args := make([]hostvalue.Value, len(nodes))
	for i, a := range nodes {
		v, err := ip.eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// callInterpreted invokes a function declared in source and still running
// under the interpreter (as opposed to one internal/host installed as a
// compiled stub, which the HostBinding dispatches to instead).
func (ip *Interp) callInterpreted(fn *frontend.Node, args []hostvalue.Value) (hostvalue.Value, error) {
	call := newEnvironment(ip.env)
	params := fn.Children[:len(fn.Children)-1]
	body := fn.Children[len(fn.Children)-1]
	for i, p := range params {
		var v hostvalue.Value
		if i < len(args) {
			v = args[i]
		} else {
			v = hostvalue.Undef()
		}
		call.define(p.Name, v, false)
	}

	outer := ip.env
	ip.env = call
	defer func() { ip.env = outer }()

	for _, stmt := range body.Children {
		c, err := ip.execStatement(stmt)
		if err != nil {
			return hostvalue.Value{}, err
		}
		if c.kind == controlReturn {
			return c.val, nil
		}
	}
	return hostvalue.Undef(), nil
}
