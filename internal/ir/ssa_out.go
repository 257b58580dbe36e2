package ir

// FromSSA reverses ToSSA: every `get` is dropped, and every `set` effect
// becomes an `id` value instruction copying its second argument into its
// first, per spec.md §4.7 "Out". The type recorded for the `set`'s
// destination during to-ssa is recovered by scanning the function for the
// instruction that originally produced it (the phi's `get`, if not yet
// dropped in this same pass, or any other def of that name).
//
// Grounded on spec.md §4.7 "Out" directly; the original
// (original_source/brilro/src/cfg/ssa.rs's from_ssa) is a no-op
// placeholder, so this is a full, spec-supplemented implementation.
func FromSSA(fn Function) Function {
	types := make(map[string]Type)
	for _, instr := range fn.Instrs {
		if instr.HasDest() {
			types[instr.Dest] = instr.Type
		}
	}

	out := make([]Instruction, 0, len(fn.Instrs))
	for _, instr := range fn.Instrs {
		switch {
		case instr.Op == OpGet:
			continue
		case instr.Op == OpSet:
			dest := instr.Args[0]
			src := instr.Args[1]
			ty := types[dest]
			out = append(out, ValueInstr(OpID, dest, ty, []string{src}, nil, nil, instr.Span))
		default:
			out = append(out, instr)
		}
	}
	fn.Instrs = out
	return fn
}
