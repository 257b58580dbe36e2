// Package rotate implements the trace-rotation gadget named as an
// external collaborator by spec.md §1: it repeatedly rotates every
// function's instruction list and re-validates the program against an
// external `brili` interpreter subprocess, per spec.md §4's component list
// and §5's concurrency model (the only blocking operation in the system).
package rotate

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"brilgo/internal/ir"
)

// attemptTimeout is the wall-clock budget per brili invocation, per
// spec.md §5.
const attemptTimeout = 100 * time.Millisecond

// Rotate repeatedly rotates every function's instruction list (moving the
// last instruction to the front) until an external `brili` interpreter
// accepts the program within the timeout budget. The retry loop has no
// attempt limit: if brili never accepts the program (for instance because
// it is not installed), Rotate does not return.
//
// Grounded on original_source/brilro/src/main.rs's run_rotate/
// rotate_functions/brili_says_it_runs.
func Rotate(prog ir.Program) ir.Program {
	rotateOnce(&prog)
	for !briliAccepts(prog) {
		rotateOnce(&prog)
	}
	return prog
}

func rotateOnce(prog *ir.Program) {
	for i := range prog.Functions {
		prog.Functions[i].Instrs = rotateRight(prog.Functions[i].Instrs)
	}
}

// rotateRight moves the last element of instrs to the front, the Go
// equivalent of Rust's Vec::rotate_right(1).
func rotateRight(instrs []ir.Instruction) []ir.Instruction {
	if len(instrs) < 2 {
		return instrs
	}
	out := make([]ir.Instruction, len(instrs))
	out[0] = instrs[len(instrs)-1]
	copy(out[1:], instrs[:len(instrs)-1])
	return out
}

// briliAccepts serializes the program, runs it under `brili` with a
// 100ms budget, and reports whether it exited successfully in that
// window. The subprocess is killed if it doesn't finish in time.
func briliAccepts(prog ir.Program) bool {
	raw, err := json.Marshal(prog)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "brili")
	cmd.Stdin = bytes.NewReader(raw)

	err = cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return false
	}
	return err == nil
}
