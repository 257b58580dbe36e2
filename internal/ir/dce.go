package ir

// EliminateDeadCode performs one intra-block mark-and-sweep pass over the
// block, per spec.md §4.2. It returns true if it removed anything.
//
// Grounded on original_source/brilro/src/cfg/dce.rs's
// BasicBlock::eliminate_dead_code.
func (b *BasicBlock) EliminateDeadCode() bool {
	dead := make(map[int]bool)
	maybeDead := make(map[string]int) // dest -> index of its most recent def

	for i, instr := range b.Instrs {
		for _, arg := range instr.Args {
			delete(maybeDead, arg)
		}
		if instr.HasDest() {
			if prev, ok := maybeDead[instr.Dest]; ok {
				dead[prev] = true
			}
			maybeDead[instr.Dest] = i
		}
	}

	if len(dead) == 0 {
		return false
	}

	kept := make([]Instruction, 0, len(b.Instrs)-len(dead))
	for i, instr := range b.Instrs {
		if dead[i] {
			continue
		}
		kept = append(kept, instr)
	}
	b.Instrs = kept
	return true
}

// DCEBlock iterates EliminateDeadCode to a fixpoint.
func (b *BasicBlock) DCEBlock() {
	for b.EliminateDeadCode() {
	}
}

// DCE runs global dead-code elimination to a fixpoint: drop any producer
// whose destination is never used, and any `set` effect whose phi-target
// (args[0]) is unused, then run intra-block DCE to a fixpoint; repeat while
// progress is made. Per spec.md §4.3.
//
// Grounded on original_source/brilro/src/cfg/dce.rs's Cfg::dce.
func (g *ControlFlowGraph) DCE() {
	for {
		assigned := make(map[string]bool)
		for _, b := range g.Blocks {
			for _, instr := range b.Instrs {
				if instr.HasDest() {
					assigned[instr.Dest] = true
				}
			}
		}

		used := make(map[string]bool)
		for _, b := range g.Blocks {
			for _, instr := range b.Instrs {
				switch instr.Form() {
				case FormValue:
					for _, a := range instr.Args {
						used[a] = true
					}
				case FormEffect:
					args := instr.Args
					if instr.Op == OpSet && len(args) > 0 {
						args = args[1:]
					}
					for _, a := range args {
						used[a] = true
					}
				}
			}
		}

		removedInsn := false
		for _, b := range g.Blocks {
			kept := b.Instrs[:0:0]
			for _, instr := range b.Instrs {
				if instr.HasDest() && !used[instr.Dest] {
					removedInsn = true
					continue
				}
				if instr.Op == OpSet && len(instr.Args) > 0 && !used[instr.Args[0]] {
					removedInsn = true
					continue
				}
				kept = append(kept, instr)
			}
			b.Instrs = kept
		}

		blockRemoved := true
		for blockRemoved {
			blockRemoved = false
			for _, b := range g.Blocks {
				if b.EliminateDeadCode() {
					blockRemoved = true
					removedInsn = true
				}
			}
		}

		if !removedInsn {
			return
		}
	}
}
