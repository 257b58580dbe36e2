package ir

// Lattice is a dataflow-analysis instance: a lattice value type S plus the
// operations a generic worklist solver needs, per spec.md §4.5.
//
// Grounded on original_source/brilro/src/cfg/data_flow.rs's Flow trait.
type Lattice[S any] interface {
	// Initial returns the bottom value (used for entry's IN and every
	// block's initial OUT).
	Initial() S
	// Merge joins two lattice values (predecessors' OUT sets).
	Merge(a, b S) S
	// Equal reports whether two lattice values are the same.
	Equal(a, b S) bool
	// Transfer computes a block's OUT set from its IN set and contents.
	Transfer(block *BasicBlock, in S) S
}

// FlowResult holds the solved IN/OUT sets per block start.
type FlowResult[S any] struct {
	In  map[int]S
	Out map[int]S
}

// Solve runs the generic worklist dataflow solver: seed the worklist with
// every block (descending order, stack behavior), merge predecessors' OUT
// into IN, transfer, and push successors when OUT changes.
func Solve[S any](g *ControlFlowGraph, lat Lattice[S]) FlowResult[S] {
	in := make(map[int]S)
	out := make(map[int]S)
	for _, b := range g.Blocks {
		in[b.Start] = lat.Initial()
		out[b.Start] = lat.Initial()
	}

	var worklist []int
	for _, b := range g.Blocks {
		worklist = append(worklist, b.Start)
	}

	for len(worklist) > 0 {
		start := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		b := g.Block(start)

		merged := lat.Initial()
		first := true
		for _, predStart := range b.Pred {
			if first {
				merged = out[predStart]
				first = false
			} else {
				merged = lat.Merge(merged, out[predStart])
			}
		}
		in[start] = merged

		prevOut := out[start]
		newOut := lat.Transfer(b, in[start])
		out[start] = newOut

		if !lat.Equal(prevOut, newOut) {
			worklist = append(worklist, b.FlowsTo...)
		}
	}

	return FlowResult[S]{In: in, Out: out}
}

// ReachingDef is a (defining-block-start, destination-name) pair.
type ReachingDef struct {
	Block int
	Name  string
}

// ReachingDefSet is the lattice value for reaching-definitions: a set of
// ReachingDef pairs.
type ReachingDefSet map[ReachingDef]struct{}

// ReachingDefinitions is the Lattice instance for spec.md §4.5's reaching-
// definitions analysis.
type ReachingDefinitions struct{}

func (ReachingDefinitions) Initial() ReachingDefSet { return ReachingDefSet{} }

func (ReachingDefinitions) Merge(a, b ReachingDefSet) ReachingDefSet {
	merged := make(ReachingDefSet, len(a)+len(b))
	for k := range a {
		merged[k] = struct{}{}
	}
	for k := range b {
		merged[k] = struct{}{}
	}
	return merged
}

func (ReachingDefinitions) Equal(a, b ReachingDefSet) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func (ReachingDefinitions) Transfer(block *BasicBlock, in ReachingDefSet) ReachingDefSet {
	out := make(ReachingDefSet, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	for _, instr := range block.Instrs {
		if !instr.HasDest() {
			continue
		}
		for k := range out {
			if k.Name == instr.Dest {
				delete(out, k)
			}
		}
		out[ReachingDef{Block: block.Start, Name: instr.Dest}] = struct{}{}
	}
	return out
}
