package ir

import "fmt"

// pendingInsert is one stored (position, payload) insertion, to be placed
// at its original index after earlier insertions have shifted the list,
// per spec.md §4.8's "shift-aware splice".
type pendingInsert struct {
	pos     int
	payload []Instruction
}

// Speculate rewrites every function matching a trace to insert a
// speculate/guard/commit region over that trace, per spec.md §4.8.
//
// Grounded on original_source/brilro/src/spec.rs's speculate_from_traces/
// spec_fun, extended per spec.md §4.8 for the taken-bool guard-negation
// and terminal-jmp/br end-label adoption the original doesn't do.
func Speculate(prog Program, traces []Trace) Program {
	for fi := range prog.Functions {
		prog.Functions[fi] = speculateFunction(prog.Functions[fi], traces)
	}
	return prog
}

func speculateFunction(fn Function, traces []Trace) Function {
	var inserts []pendingInsert

	for tid, trace := range traces {
		if trace.Func != fn.Name || len(trace.Entries) == 0 {
			continue
		}
		inserts = append(inserts, buildTraceRegion(fn, tid, trace)...)
	}

	if len(inserts) == 0 {
		return fn
	}

	// Shift-aware splice: instead of repeatedly re-indexing the slice as
	// earlier insertions shift later positions (the prefix-sum approach
	// spec.md §4.8 describes), insertions are bucketed by their original
	// index and spliced in a single left-to-right pass, which yields the
	// same placement without mutating positions as it goes.
	out := make([]Instruction, 0, len(fn.Instrs)+countPayload(inserts))
	insertsAt := make(map[int][]pendingInsert)
	for _, ins := range inserts {
		insertsAt[ins.pos] = append(insertsAt[ins.pos], ins)
	}

	for i, instr := range fn.Instrs {
		for _, ins := range insertsAt[i] {
			out = append(out, ins.payload...)
		}
		out = append(out, instr)
	}
	for _, ins := range insertsAt[len(fn.Instrs)] {
		out = append(out, ins.payload...)
	}

	fn.Instrs = out
	return fn
}

func countPayload(inserts []pendingInsert) int {
	n := 0
	for _, ins := range inserts {
		n += len(ins.payload)
	}
	return n
}

// buildTraceRegion builds the speculate/guard/commit region for one trace
// and returns it as a single insertion at the trace's start position, plus
// an optional separate end-label insertion, per spec.md §4.8.
func buildTraceRegion(fn Function, tid int, trace Trace) []pendingInsert {
	abortLabel := fmt.Sprintf("__trace_abort_%d", tid)
	endLabel := fmt.Sprintf("__trace_end_%d", tid)

	region := []Instruction{EffectInstr(OpSpeculate, nil, nil, nil, nil)}

	var adoptedEndLabel string

	for i, entry := range trace.Entries {
		isLast := i == len(trace.Entries)-1
		instr := fn.Instrs[entry.Index]

		switch {
		case instr.IsLabel():
			continue
		case instr.Op == OpJmp:
			if isLast {
				adoptedEndLabel = instr.Labels[0]
			}
			continue
		case instr.Op == OpBr:
			cond := instr.Args[0]
			if !entry.Taken {
				notDest := fmt.Sprintf("__trace_cond_%d_%d", tid, i+1)
				region = append(region, ValueInstr(OpNot, notDest, TypeBool, []string{cond}, nil, nil, nil))
				cond = notDest
			}
			region = append(region, EffectInstr(OpGuard, []string{cond}, nil, []string{abortLabel}, nil))
			if isLast {
				if entry.Taken {
					adoptedEndLabel = instr.Labels[0]
				} else {
					adoptedEndLabel = instr.Labels[1]
				}
			}
		default:
			region = append(region, instr.Clone())
		}
	}

	region = append(region,
		EffectInstr(OpCommit, nil, nil, nil, nil),
		EffectInstr(OpJmp, nil, nil, []string{pickEndLabel(adoptedEndLabel, endLabel)}, nil),
		LabelInstr(abortLabel, nil),
	)

	start := trace.Entries[0].Index
	inserts := []pendingInsert{{pos: start, payload: region}}

	if adoptedEndLabel == "" {
		end := trace.Entries[len(trace.Entries)-1].Index
		inserts = append(inserts, pendingInsert{pos: end + 1, payload: []Instruction{LabelInstr(endLabel, nil)}})
	}

	return inserts
}

func pickEndLabel(adopted, fallback string) string {
	if adopted != "" {
		return adopted
	}
	return fallback
}
