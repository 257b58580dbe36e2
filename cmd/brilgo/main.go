// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"

	"brilgo/internal/ir"
	"brilgo/internal/rotate"
)

func main() {
	os.Exit(run())
}

func run() int {
	mode := flag.String("m", "", "pass to run: cfg, rotate, dce, lvn, lvn-dce, reaching-defs, dom, to-ssa, from-ssa")
	cfgFun := flag.String("cfg-fun", "main", "function to target for single-function analyses")
	traceSpec := flag.String("trace", "", "semicolon-separated trace specs for the rotate/speculate gadget (func:idx:taken,...)")
	flag.Parse()

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		ir.Report(ir.NewOptimizerError(ir.ErrIRParse, "reading stdin: %v", err))
		return 1
	}

	prog, err := ir.ParseProgram(input)
	if err != nil {
		ir.Report(ir.NewOptimizerError(ir.ErrIRParse, "%v", err))
		return 1
	}

	switch *mode {
	case "cfg":
		return runCFG(prog, *cfgFun)
	case "rotate":
		return runRotate(prog, *traceSpec)
	case "dce":
		return runDCE(prog)
	case "lvn":
		return runLVN(prog, false)
	case "lvn-dce":
		return runLVN(prog, true)
	case "reaching-defs":
		return runReachingDefs(prog, *cfgFun)
	case "dom":
		return runDom(prog, *cfgFun)
	case "to-ssa":
		return runSSA(prog, ir.ToSSA)
	case "from-ssa":
		return runSSA(prog, ir.FromSSA)
	default:
		ir.Report(ir.NewOptimizerError(ir.ErrIRParse, "unrecognized mode %q", *mode))
		return 1
	}
}

func getCFG(prog *ir.Program, name string) (*ir.ControlFlowGraph, error) {
	fn, err := prog.FunctionByName(name)
	if err != nil {
		return nil, ir.NewOptimizerError(ir.ErrUnknownFunction, "%v", err)
	}
	return ir.BuildCFG(*fn), nil
}

func runCFG(prog *ir.Program, cfgFun string) int {
	g, err := getCFG(prog, cfgFun)
	if err != nil {
		ir.Report(err)
		return 1
	}
	fmt.Println(g.DOT())
	return 0
}

func runRotate(prog *ir.Program, traceSpec string) int {
	if traceSpec != "" {
		traces, err := ir.ParseTraces(traceSpec)
		if err != nil {
			ir.Report(ir.NewOptimizerError(ir.ErrTraceParse, "%v", err))
			return 1
		}
		*prog = ir.Speculate(*prog, traces)
	}
	rotated := rotate.Rotate(*prog)
	return printProgram(&rotated)
}

func runDCE(prog *ir.Program) int {
	for i := range prog.Functions {
		g := ir.BuildCFG(prog.Functions[i])
		g.DCE()
		prog.Functions[i] = g.Function()
	}
	return printProgram(prog)
}

func runLVN(prog *ir.Program, thenDCE bool) int {
	for i := range prog.Functions {
		g := ir.BuildCFG(prog.Functions[i])
		g.ApplyToBlocks((*ir.BasicBlock).LVN)
		if thenDCE {
			g.DCE()
		}
		prog.Functions[i] = g.Function()
	}
	return printProgram(prog)
}

func runSSA(prog *ir.Program, transform func(ir.Function) ir.Function) int {
	for i := range prog.Functions {
		prog.Functions[i] = transform(prog.Functions[i])
	}
	return printProgram(prog)
}

func runDom(prog *ir.Program, cfgFun string) int {
	g, err := getCFG(prog, cfgFun)
	if err != nil {
		ir.Report(err)
		return 1
	}
	doms := ir.BuildDominatorTree(g)
	if !doms.DominatorsCorrect() {
		ir.Report(ir.NewOptimizerError(ir.ErrDominatorCheck, "dominators incorrect for function %q", cfgFun))
		return 1
	}
	color.Green("dominators correct")
	return 0
}

func runReachingDefs(prog *ir.Program, cfgFun string) int {
	g, err := getCFG(prog, cfgFun)
	if err != nil {
		ir.Report(err)
		return 1
	}
	result := ir.Solve[ir.ReachingDefSet](g, ir.ReachingDefinitions{})

	starts := make([]int, 0, len(result.Out))
	for start := range result.Out {
		starts = append(starts, start)
	}
	sort.Ints(starts)

	for _, start := range starts {
		fmt.Printf("block%d:\n", start)
		defs := make([]ir.ReachingDef, 0, len(result.Out[start]))
		for d := range result.Out[start] {
			defs = append(defs, d)
		}
		sort.Slice(defs, func(i, j int) bool {
			if defs[i].Block != defs[j].Block {
				return defs[i].Block < defs[j].Block
			}
			return defs[i].Name < defs[j].Name
		})
		for _, d := range defs {
			fmt.Printf("  (block%d, %s)\n", d.Block, d.Name)
		}
	}
	return 0
}

func printProgram(prog *ir.Program) int {
	out, err := ir.PrettyJSON(prog)
	if err != nil {
		ir.Report(ir.NewOptimizerError(ir.ErrIRParse, "encoding output: %v", err))
		return 1
	}
	fmt.Println(string(out))
	return 0
}
