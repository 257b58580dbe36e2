package ir

import "sort"

// phiRecord is the "Phi record (SSA)" of spec.md §3: per (block, original
// variable name), the destination name the phi will be renamed to, and the
// mapping from predecessor block start to the incoming value's name.
type phiRecord struct {
	dest string
	args map[int]string
}

// ssaBuilder carries the state needed across phi placement, renaming, and
// set-materialization, per spec.md §4.7 "In".
//
// Grounded on original_source/brilro/src/cfg/ssa.rs's Ssaifier.
type ssaBuilder struct {
	cfg  *ControlFlowGraph
	doms *DominatorTree
	defs map[string]map[int]Type // var -> block start -> declared type
	phis map[int]map[string]*phiRecord

	// ssaTypes records the declared type of every post-renaming SSA name,
	// so insert-undef (which runs after renaming) can still recover types.
	ssaTypes map[string]Type
}

// ToSSA converts fn into block-argument-style SSA form, per spec.md §4.7
// "In". Phi nodes are materialized as `get` instructions at dominance-
// frontier join points, and incoming values are wired with `set` effects
// in each predecessor.
func ToSSA(fn Function) Function {
	g := BuildCFG(fn)
	doms := BuildDominatorTree(g)

	b := &ssaBuilder{
		cfg:      g,
		doms:     doms,
		defs:     make(map[string]map[int]Type),
		phis:     make(map[int]map[string]*phiRecord),
		ssaTypes: make(map[string]Type),
	}
	b.collectDefs(fn)
	b.placePhis()
	b.rename(fn)
	b.materializeSets()
	b.insertUndef()

	return g.Function()
}

// collectDefs records, per variable, the set of block starts at which it
// is defined, per spec.md §4.7 step 1. Function arguments count as defined
// in the entry block.
func (b *ssaBuilder) collectDefs(fn Function) {
	for _, arg := range fn.Args {
		if b.defs[arg.Name] == nil {
			b.defs[arg.Name] = make(map[int]Type)
		}
		b.defs[arg.Name][0] = arg.Type
	}
	for _, block := range b.cfg.Blocks {
		for _, instr := range block.Instrs {
			if !instr.HasDest() {
				continue
			}
			if b.defs[instr.Dest] == nil {
				b.defs[instr.Dest] = make(map[int]Type)
			}
			b.defs[instr.Dest][block.Start] = instr.Type
		}
	}
}

// placePhis inserts a `get` instruction for every variable at every block
// in its dominance frontier closure, per spec.md §4.7 step 2.
func (b *ssaBuilder) placePhis() {
	vars := make([]string, 0, len(b.defs))
	for v := range b.defs {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	for _, v := range vars {
		worklist := make([]int, 0, len(b.defs[v]))
		for start := range b.defs[v] {
			worklist = append(worklist, start)
		}
		for len(worklist) > 0 {
			defStart := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			ty := b.defs[v][defStart]

			frontierStarts := make([]int, 0, len(b.doms.Frontier[defStart]))
			for f := range b.doms.Frontier[defStart] {
				frontierStarts = append(frontierStarts, f)
			}
			sort.Ints(frontierStarts)

			for _, f := range frontierStarts {
				if b.phis[f] != nil && b.phis[f][v] != nil {
					continue
				}
				if b.phis[f] == nil {
					b.phis[f] = make(map[string]*phiRecord)
				}
				b.phis[f][v] = &phiRecord{args: make(map[int]string)}

				block := b.cfg.Block(f)
				idx := 0
				if len(block.Instrs) > 0 && block.Instrs[0].IsLabel() {
					idx = 1
				}
				get := ValueInstr(OpGet, v, ty, nil, nil, nil, nil)
				block.Instrs = insertAt(block.Instrs, idx, get)

				if b.defs[v] == nil {
					b.defs[v] = make(map[int]Type)
				}
				if _, already := b.defs[v][f]; !already {
					b.defs[v][f] = ty
					worklist = append(worklist, f)
				}
			}
		}
	}
}

func insertAt(instrs []Instruction, idx int, instr Instruction) []Instruction {
	out := make([]Instruction, 0, len(instrs)+1)
	out = append(out, instrs[:idx]...)
	out = append(out, instr)
	out = append(out, instrs[idx:]...)
	return out
}

// nameStacks is the per-variable scoped stack of fresh names used during
// renaming, per spec.md §9's "scoped name stacks" note: a push-count log
// per block is kept instead of snapshotting the whole map.
type nameStacks struct {
	stacks  map[string][]string
	counter map[string]int
}

func newNameStacks() *nameStacks {
	return &nameStacks{stacks: make(map[string][]string), counter: make(map[string]int)}
}

func (n *nameStacks) push(orig string) string {
	fresh := orig
	if c, ok := n.counter[orig]; ok {
		fresh = freshVarName(orig, c)
	}
	n.counter[orig]++
	n.stacks[orig] = append(n.stacks[orig], fresh)
	return fresh
}

func freshVarName(orig string, c int) string {
	if c == 0 {
		return orig
	}
	return orig + "." + itoa(c)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func (n *nameStacks) top(orig string) (string, bool) {
	s := n.stacks[orig]
	if len(s) == 0 {
		return "", false
	}
	return s[len(s)-1], true
}

// rename walks the dominator tree (then any remaining flows_to successors)
// renaming every definition to a fresh SSA name and every use to the
// current top-of-stack for its variable, per spec.md §4.7 step 3.
func (b *ssaBuilder) rename(fn Function) {
	names := newNameStacks()

	entry := b.cfg.Entry()
	argFresh := make(map[string]string, len(fn.Args))
	for _, arg := range fn.Args {
		fresh := names.push(arg.Name)
		argFresh[arg.Name] = fresh
		b.ssaTypes[fresh] = arg.Type
	}

	visited := make(map[int]bool)
	b.renameBlock(entry.Start, names, visited)

	// §4.7 step 4: entry-block phi args, bound from the (renamed) matching
	// function argument, or a fresh undef-bound name otherwise.
	entryPhis := b.phis[0]
	if len(entryPhis) > 0 {
		vars := make([]string, 0, len(entryPhis))
		for v := range entryPhis {
			vars = append(vars, v)
		}
		sort.Strings(vars)

		var prepend []Instruction
		for _, v := range vars {
			phi := entryPhis[v]
			var incoming string
			if fresh, ok := argFresh[v]; ok {
				incoming = fresh
			} else {
				incoming = names.push(v)
				b.ssaTypes[incoming] = b.origType(v)
			}
			prepend = append(prepend, EffectInstr(OpSet, []string{phi.dest, incoming}, nil, nil, nil))
			phi.args[0] = incoming
		}
		entry.Instrs = append(append([]Instruction(nil), prepend...), entry.Instrs...)
	}
}

// renameBlock renames one block's instructions, wires phi args for every
// successor, then recurses into dominator-tree children before any
// remaining flows_to successors the tree walk would otherwise miss, per
// spec.md §4.7 step 3's generalization of the original's narrower walk.
func (b *ssaBuilder) renameBlock(start int, names *nameStacks, visited map[int]bool) {
	if visited[start] {
		return
	}
	visited[start] = true

	block := b.cfg.Block(start)
	pushed := make(map[string]int)

	for i := range block.Instrs {
		instr := &block.Instrs[i]
		if instr.Op == OpSet {
			// args[0] is the phi-target slot, rewritten only at
			// materializeSets time; args[1:] are uses.
			for j := 1; j < len(instr.Args); j++ {
				if top, ok := names.top(instr.Args[j]); ok {
					instr.Args[j] = top
				}
			}
			continue
		}
		for j, a := range instr.Args {
			if top, ok := names.top(a); ok {
				instr.Args[j] = top
			}
		}
		if instr.HasDest() {
			fresh := names.push(instr.Dest)
			pushed[instr.Dest]++
			origDest := instr.Dest
			instr.Dest = fresh
			b.ssaTypes[fresh] = instr.Type
			if instr.Op == OpGet {
				if phi, ok := b.phis[start][origDest]; ok {
					phi.dest = fresh
				}
			}
		}
	}

	for _, succ := range block.FlowsTo {
		for v, phi := range b.phis[succ] {
			if top, ok := names.top(v); ok {
				phi.args[start] = top
			}
		}
	}

	for _, c := range sortedInts(b.doms.ImDom[start]) {
		if c != start {
			b.renameBlock(c, names, visited)
		}
	}
	for _, s := range block.FlowsTo {
		b.renameBlock(s, names, visited)
	}

	for v, n := range pushed {
		s := names.stacks[v]
		names.stacks[v] = s[:len(s)-n]
	}
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// materializeSets inserts, for every phi, a `set` effect in each
// predecessor binding the phi's destination to the incoming value, just
// before the predecessor's terminator (or at its end), per spec.md §4.7
// step 5.
func (b *ssaBuilder) materializeSets() {
	starts := make([]int, 0, len(b.phis))
	for start := range b.phis {
		starts = append(starts, start)
	}
	sort.Ints(starts)

	for _, blockStart := range starts {
		vars := make([]string, 0, len(b.phis[blockStart]))
		for v := range b.phis[blockStart] {
			vars = append(vars, v)
		}
		sort.Strings(vars)

		for _, v := range vars {
			phi := b.phis[blockStart][v]
			preds := make([]int, 0, len(phi.args))
			for p := range phi.args {
				preds = append(preds, p)
			}
			sort.Ints(preds)
			for _, p := range preds {
				if p == 0 && blockStart == 0 {
					// already prepended by rename's entry handling
					continue
				}
				block := b.cfg.Block(p)
				set := EffectInstr(OpSet, []string{phi.dest, phi.args[p]}, nil, nil, nil)
				idx := len(block.Instrs)
				if idx > 0 && block.Instrs[idx-1].IsTerminator() {
					idx--
				}
				block.Instrs = insertAt(block.Instrs, idx, set)
			}
		}
	}
}

// insertUndef materializes an `undef` stub for every variable that is
// live at a use without a dominating definition, per spec.md §4.7 step 6.
// Depth-first from the entry with a set of currently-defined names.
func (b *ssaBuilder) insertUndef() {
	seeded := make(map[string]bool)
	for _, arg := range b.cfg.original.Args {
		seeded[arg.Name] = true
	}
	visited := make(map[int]bool)
	b.insertUndefBlock(b.cfg.Entry().Start, seeded, visited)
}

func (b *ssaBuilder) insertUndefBlock(start int, defined map[string]bool, visited map[int]bool) {
	if visited[start] {
		return
	}
	visited[start] = true

	block := b.cfg.Block(start)
	defined = cloneStringSet(defined)

	var out []Instruction
	for _, instr := range block.Instrs {
		args := instr.Args
		startArg := 0
		if instr.Op == OpSet {
			startArg = 1 // phi-target slot, not a use
		}
		for j := startArg; j < len(args); j++ {
			name := args[j]
			if !defined[name] {
				out = append(out, ValueInstr(OpUndef, name, b.typeOf(name), nil, nil, nil, nil))
				defined[name] = true
			}
		}
		out = append(out, instr)
		if instr.HasDest() {
			defined[instr.Dest] = true
		}
	}
	block.Instrs = out

	for _, s := range block.FlowsTo {
		b.insertUndefBlock(s, defined, visited)
	}
}

// typeOf recovers the declared type recorded for a post-renaming SSA name
// during renameBlock/entry-phi-seeding; used by insert-undef, which runs
// after renaming has already replaced every original name.
func (b *ssaBuilder) typeOf(name string) Type {
	if ty, ok := b.ssaTypes[name]; ok {
		return ty
	}
	return TypeInt
}

// origType recovers the declared type recorded for a pre-renaming
// variable name from the definitions collected in step 1.
func (b *ssaBuilder) origType(v string) Type {
	for _, ty := range b.defs[v] {
		return ty
	}
	return TypeInt
}

func cloneStringSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}
