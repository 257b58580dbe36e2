package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamondCFG builds entry -> {left, right} -> join, all terminated with
// ret, for use across dominator/SSA tests.
func diamondCFG() Function {
	return Function{
		Name: "main",
		Instrs: []Instruction{
			ConstInstr("cond", TypeBool, BoolLiteral(true), nil),
			EffectInstr(OpBr, []string{"cond"}, nil, []string{"left", "right"}, nil),
			LabelInstr("left", nil),
			ConstInstr("v", TypeInt, IntLiteral(1), nil),
			EffectInstr(OpJmp, nil, nil, []string{"join"}, nil),
			LabelInstr("right", nil),
			ConstInstr("v", TypeInt, IntLiteral(2), nil),
			EffectInstr(OpJmp, nil, nil, []string{"join"}, nil),
			LabelInstr("join", nil),
			EffectInstr(OpPrint, []string{"v"}, nil, nil, nil),
			EffectInstr(OpRet, nil, nil, nil, nil),
		},
	}
}

func TestDominatorSelfConsistency(t *testing.T) {
	g := BuildCFG(diamondCFG())
	doms := BuildDominatorTree(g)

	for _, b := range g.Blocks {
		assert.True(t, doms.Dominates[b.Start][b.Start], "every block dominates itself")
	}

	entry := g.Entry().Start
	for _, b := range g.Blocks {
		assert.True(t, doms.Dominates[entry][b.Start], "entry dominates every reachable block")
	}
}

func TestDominatorGroundTruth(t *testing.T) {
	g := BuildCFG(diamondCFG())
	doms := BuildDominatorTree(g)
	assert.True(t, doms.DominatorsCorrect())
}

func TestDominanceFrontier(t *testing.T) {
	g := BuildCFG(diamondCFG())
	doms := BuildDominatorTree(g)

	left := g.Block(2).Start
	right := g.Block(5).Start
	join := g.Block(8).Start

	assert.True(t, doms.Frontier[left][join], "left's frontier includes the join block")
	assert.True(t, doms.Frontier[right][join], "right's frontier includes the join block")

	entry := g.Entry().Start
	assert.False(t, doms.Frontier[entry][join], "entry strictly dominates join, so join is not in entry's frontier")
}

func TestDominatorUnreachableBlock(t *testing.T) {
	fn := Function{
		Name: "main",
		Instrs: []Instruction{
			EffectInstr(OpRet, nil, nil, nil, nil),
			LabelInstr("dead", nil),
			EffectInstr(OpPrint, []string{"x"}, nil, nil, nil),
			EffectInstr(OpRet, nil, nil, nil, nil),
		},
	}
	g := BuildCFG(fn)
	require.Len(t, g.Blocks, 2)

	dead := g.Block(1)
	require.NotNil(t, dead)
	assert.Empty(t, dead.Pred, "the dead block has no predecessors and is not the entry")

	doms := BuildDominatorTree(g)
	// Per spec.md §9, unreachable blocks are seeded at "all blocks" and
	// never updated since they have no predecessors to intersect over;
	// inverting that leaves the entry (and everything else) marked as
	// dominating the unreachable block, documented as the expected
	// behavior for blocks with no path from entry.
	assert.True(t, doms.Dominates[0][dead.Start])
	assert.False(t, doms.Dominates[dead.Start][0], "the unreachable block does not dominate the entry")
}
