package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestReachingDefinitionsScenario is spec.md §8 end-to-end scenario 5:
// B0: x=1; br cond B1 B2 / B1: x=2; print x / B2: print x, with B0->B1,
// B0->B2.
// outset[B0] = {(B0,x)}, outset[B1] = {(B1,x)}, outset[B2] = {(B0,x)}.
func TestReachingDefinitionsScenario(t *testing.T) {
	fn := Function{
		Name: "main",
		Instrs: []Instruction{
			ConstInstr("x", TypeInt, IntLiteral(1), nil),
			EffectInstr(OpBr, []string{"cond"}, nil, []string{"b1", "b2"}, nil),
			LabelInstr("b1", nil),
			ConstInstr("x", TypeInt, IntLiteral(2), nil),
			EffectInstr(OpPrint, []string{"x"}, nil, nil, nil),
			EffectInstr(OpRet, nil, nil, nil, nil),
			LabelInstr("b2", nil),
			EffectInstr(OpPrint, []string{"x"}, nil, nil, nil),
			EffectInstr(OpRet, nil, nil, nil, nil),
		},
	}

	g := BuildCFG(fn)
	result := Solve[ReachingDefSet](g, ReachingDefinitions{})

	b0 := g.Entry().Start
	b1 := g.Block(2).Start
	b2 := g.Block(6).Start

	assert.Equal(t, ReachingDefSet{{Block: b0, Name: "x"}: {}}, result.Out[b0])
	assert.Equal(t, ReachingDefSet{{Block: b1, Name: "x"}: {}}, result.Out[b1])
	assert.Equal(t, ReachingDefSet{{Block: b0, Name: "x"}: {}}, result.Out[b2])
}

func TestReachingDefinitionsSoundness(t *testing.T) {
	fn := Function{
		Name: "main",
		Instrs: []Instruction{
			ConstInstr("x", TypeInt, IntLiteral(1), nil),
			EffectInstr(OpPrint, []string{"x"}, nil, nil, nil),
			EffectInstr(OpRet, nil, nil, nil, nil),
		},
	}
	g := BuildCFG(fn)
	result := Solve[ReachingDefSet](g, ReachingDefinitions{})

	entry := g.Entry().Start
	_, ok := result.Out[entry][ReachingDef{Block: entry, Name: "x"}]
	assert.True(t, ok, "the block's own definition of x must reach its own outset")
}
