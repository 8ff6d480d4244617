// simplify.go prunes the CFG emit.go produces: unreachable blocks (created
// as placeholder continuations after break/continue/return/throw) and
// trivial jump-only blocks that just forward to another block. The same
// shape of dead-code elimination a tree-IR optimiser performs, retargeted
// at the block-graph level this compiler's IR uses instead.
package cfg

// Simplify removes blocks unreachable from f.Entry and collapses any
// remaining block whose only content is an unconditional jump into its
// target, repeating until a fixed point. Call after Emit and before handing
// the Function to internal/native.
func Simplify(f *Function) {
	removeUnreachable(f)
	for collapseTrivialJumps(f) {
		removeUnreachable(f)
	}
	f.Finalize()
}

func removeUnreachable(f *Function) {
	reachable := map[*BasicBlock]bool{f.Entry: true}
	queue := []*BasicBlock{f.Entry}
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		for _, s := range successorsOf(b.Term) {
			if !reachable[s] {
				reachable[s] = true
				queue = append(queue, s)
			}
		}
	}
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		}
	}
	f.Blocks = kept
}

// collapseTrivialJumps finds a block B that contains no Statements and
// whose Terminator is an unconditional Jump to C, then retargets every
// predecessor of B directly to C, eliminating the need to ever visit B.
// Returns true if it performed a collapse, so the caller can repeat until
// no more trivial blocks remain (a chain of several empty blocks in a row
// needs one pass per link).
func collapseTrivialJumps(f *Function) bool {
	f.Finalize()
	for _, b := range f.Blocks {
		if b == f.Entry || len(b.Statements) != 0 {
			continue
		}
		jump, ok := b.Term.(Jump)
		if !ok || jump.Target == b {
			continue
		}
		for _, pred := range b.preds {
			pred.Term = retarget(pred.Term, b, jump.Target)
		}
		return true
	}
	return false
}

// retarget returns term with every edge pointing at from rewritten to
// point at to. Jump/Branch are plain structs stored by value inside the
// Terminator interface, so the rewritten copy must be returned and
// reassigned by the caller rather than mutated in place.
func retarget(term Terminator, from, to *BasicBlock) Terminator {
	switch t := term.(type) {
	case Jump:
		if t.Target == from {
			t.Target = to
		}
		return t
	case Branch:
		if t.Then == from {
			t.Then = to
		}
		if t.Else == from {
			t.Else = to
		}
		return t
	default:
		return term
	}
}
