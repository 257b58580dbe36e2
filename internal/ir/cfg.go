package ir

import "sort"

// BasicBlock is a maximal run of instructions entered only at its first
// instruction and exited only at its last, keyed by the index (`start`) of
// its first instruction in the function's original instruction list.
type BasicBlock struct {
	Start    int
	Label    string // leading label name, if any
	Instrs   []Instruction
	FlowsTo  []int // successor starts, in order
	Pred     []int // predecessor starts, derived
}

// ControlFlowGraph is a function partitioned into basic blocks, plus the
// original function so the graph can be flattened back into a Function.
type ControlFlowGraph struct {
	Blocks   []*BasicBlock
	original Function
}

// BuildCFG partitions fn's instruction list into basic blocks and wires up
// successor/predecessor edges. Grounded on original_source/brilro/src/cfg/
// analysis.rs Cfg::from_function.
func BuildCFG(fn Function) *ControlFlowGraph {
	// First pass: record each label's instruction index.
	lineOf := make(map[string]int)
	for i, instr := range fn.Instrs {
		if instr.IsLabel() {
			lineOf[instr.Label] = i
		}
	}

	var blocks []*BasicBlock
	var cur []Instruction
	var label string
	start := 0

	flush := func(flowsTo []int) {
		blocks = append(blocks, &BasicBlock{
			Start:   start,
			Label:   label,
			Instrs:  append([]Instruction(nil), cur...),
			FlowsTo: flowsTo,
		})
		cur = nil
		label = ""
	}

	for i, instr := range fn.Instrs {
		switch {
		case instr.IsLabel():
			if len(cur) == 0 {
				label = instr.Label
				start = i
				cur = append(cur, instr)
				continue
			}
			// The label cuts off the current block; it falls through to
			// the new block that starts at this label.
			flush([]int{i})
			label = instr.Label
			start = i
			cur = append(cur, instr)
		case instr.IsTerminator():
			cur = append(cur, instr)
			switch instr.Op {
			case OpJmp:
				flush([]int{lineOf[instr.Labels[0]]})
			case OpBr:
				flush([]int{lineOf[instr.Labels[0]], lineOf[instr.Labels[1]]})
			case OpRet:
				flush(nil)
			}
			start = i + 1
		default:
			cur = append(cur, instr)
		}
	}
	if len(cur) > 0 {
		flush(nil)
	}

	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })

	for _, b := range blocks {
		for _, other := range blocks {
			for _, s := range other.FlowsTo {
				if s == b.Start {
					b.Pred = append(b.Pred, other.Start)
				}
			}
		}
	}

	return &ControlFlowGraph{Blocks: blocks, original: fn}
}

// Block returns the block starting at the given index, or nil.
func (g *ControlFlowGraph) Block(start int) *BasicBlock {
	for _, b := range g.Blocks {
		if b.Start == start {
			return b
		}
	}
	return nil
}

// Entry returns the block with Start == 0.
func (g *ControlFlowGraph) Entry() *BasicBlock {
	return g.Block(0)
}

// ApplyToBlocks runs f over every block in order.
func (g *ControlFlowGraph) ApplyToBlocks(f func(*BasicBlock)) {
	for _, b := range g.Blocks {
		f(b)
	}
}

// Function flattens the CFG's blocks, in block order, back into a Function
// with the original's name/args/return type/span preserved.
func (g *ControlFlowGraph) Function() Function {
	fn := g.original
	var instrs []Instruction
	for _, b := range g.Blocks {
		instrs = append(instrs, b.Instrs...)
	}
	fn.Instrs = instrs
	return fn
}
