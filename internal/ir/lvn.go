package ir

import (
	"fmt"
	"sort"
)

type valueNum int

// abstractValue is the canonicalized shape of a value-producing
// instruction, per spec.md §3's "Abstract value (LVN)".
type abstractValue struct {
	kind   abstractKind
	op     Op
	ty     Type
	value  Literal    // kind == abstractConstant
	args   []valueNum // kind == abstractValue
	funcs  []string
	labels []string
	opaque string // kind == abstractOpaque
}

type abstractKind int

const (
	abstractConstant abstractKind = iota
	abstractValueKind
	abstractOpaque
)

func (a abstractValue) equal(b abstractValue) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case abstractConstant:
		return a.op == b.op && a.ty == b.ty && a.value.Equal(b.value)
	case abstractOpaque:
		return a.opaque == b.opaque
	default:
		if a.op != b.op || a.ty != b.ty {
			return false
		}
		if len(a.args) != len(b.args) || len(a.funcs) != len(b.funcs) || len(a.labels) != len(b.labels) {
			return false
		}
		for i := range a.args {
			if a.args[i] != b.args[i] {
				return false
			}
		}
		for i := range a.funcs {
			if a.funcs[i] != b.funcs[i] {
				return false
			}
		}
		for i := range a.labels {
			if a.labels[i] != b.labels[i] {
				return false
			}
		}
		return true
	}
}

// valueInfo records the canonical source name that first defined a value
// number in the current block.
type valueInfo struct {
	src   string
	value abstractValue
}

type freshenedDest struct {
	fresh string
	ty    Type
}

// lvnState is the per-block value-numbering table, per spec.md §4.4.
type lvnState struct {
	lvn       map[string]valueNum
	info      map[valueNum]valueInfo
	lastDest  map[string]freshenedDest
	nextNum   valueNum
	freshIdx  int
}

func newLVNState() *lvnState {
	return &lvnState{
		lvn:      make(map[string]valueNum),
		info:     make(map[valueNum]valueInfo),
		lastDest: make(map[string]freshenedDest),
	}
}

// canonicalOf returns the canonical source name for a (possibly
// freshened) variable reference, introducing an Opaque value number for
// names not yet seen in this block (function arguments, cross-block
// definitions).
func (s *lvnState) canonicalOf(name string) string {
	real := name
	if fd, ok := s.lastDest[name]; ok {
		real = fd.fresh
	}
	if _, ok := s.lvn[real]; !ok {
		s.lvn[real] = s.nextNum
		s.info[s.nextNum] = valueInfo{src: real, value: abstractValue{kind: abstractOpaque, opaque: real}}
		s.nextNum++
	}
	return s.info[s.lvn[real]].src
}

// LVN performs local value numbering on the block, per spec.md §4.4.
//
// Grounded on original_source/brilro/src/cfg/lvn.rs's
// BasicBlock::canonicalize_values.
func (b *BasicBlock) LVN() {
	s := newLVNState()
	var out []Instruction

	for _, instr := range b.Instrs {
		rewritten := instr.Clone()

		// Step 1: argument rewrite.
		for i, a := range rewritten.Args {
			rewritten.Args[i] = s.canonicalOf(a)
		}

		if !rewritten.HasDest() {
			out = append(out, rewritten)
			continue
		}

		// Step 2: destination handling (freshen on reassignment).
		origDest := rewritten.Dest
		dest := origDest
		if existing, ok := findNonOpaqueSrc(s.info, origDest); ok {
			_ = existing
			fresh := fmt.Sprintf("__fresh%d", s.freshIdx)
			s.freshIdx++
			s.lastDest[origDest] = freshenedDest{fresh: fresh, ty: rewritten.Type}
			rewritten.Dest = fresh
			dest = fresh
		}

		// Step 3: build the abstract value and search for an equal one.
		abstr := s.abstractValueOf(rewritten)
		if num, ok := findEqual(s.info, abstr); ok {
			s.lvn[dest] = num
		} else {
			s.lvn[dest] = s.nextNum
			s.info[s.nextNum] = valueInfo{src: dest, value: abstr}
			s.nextNum++
		}

		out = append(out, rewritten)
	}

	// Reconciliation tail.
	var term *Instruction
	if n := len(out); n > 0 && out[n-1].IsTerminator() {
		term = &out[n-1]
		out = out[:n-1]
	}

	var origs []string
	for orig := range s.lastDest {
		origs = append(origs, orig)
	}
	sort.Strings(origs)
	for _, orig := range origs {
		fd := s.lastDest[orig]
		out = append(out, ValueInstr(OpID, orig, fd.ty, []string{fd.fresh}, nil, nil, nil))
	}
	if term != nil {
		out = append(out, *term)
	}

	b.Instrs = out
}

func findNonOpaqueSrc(info map[valueNum]valueInfo, dest string) (valueInfo, bool) {
	for _, vi := range info {
		if vi.src == dest && vi.value.kind != abstractOpaque {
			return vi, true
		}
	}
	return valueInfo{}, false
}

func findEqual(info map[valueNum]valueInfo, abstr abstractValue) (valueNum, bool) {
	for num, vi := range info {
		if vi.value.equal(abstr) {
			return num, true
		}
	}
	return 0, false
}

func (s *lvnState) abstractValueOf(instr Instruction) abstractValue {
	if instr.Op == OpConst {
		return abstractValue{kind: abstractConstant, op: instr.Op, ty: instr.Type, value: instr.Value}
	}
	nums := make([]valueNum, len(instr.Args))
	for i, a := range instr.Args {
		nums[i] = s.lvn[a]
	}
	return abstractValue{
		kind:   abstractValueKind,
		op:     instr.Op,
		ty:     instr.Type,
		args:   nums,
		funcs:  instr.Funcs,
		labels: instr.Labels,
	}
}
