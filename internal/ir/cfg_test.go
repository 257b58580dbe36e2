package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCFGRoundTrip(t *testing.T) {
	fn := Function{
		Name: "main",
		Instrs: []Instruction{
			ConstInstr("a", TypeInt, IntLiteral(1), nil),
			EffectInstr(OpBr, []string{"a"}, nil, []string{"then", "else"}, nil),
			LabelInstr("then", nil),
			ConstInstr("b", TypeInt, IntLiteral(2), nil),
			EffectInstr(OpJmp, nil, nil, []string{"end"}, nil),
			LabelInstr("else", nil),
			ConstInstr("c", TypeInt, IntLiteral(3), nil),
			LabelInstr("end", nil),
			EffectInstr(OpPrint, []string{"b"}, nil, nil, nil),
			EffectInstr(OpRet, nil, nil, nil, nil),
		},
	}

	g := BuildCFG(fn)
	flattened := g.Function()
	assert.Equal(t, fn.Instrs, flattened.Instrs)
}

func TestBuildCFGBlockSplitsAndEdges(t *testing.T) {
	fn := Function{
		Name: "main",
		Instrs: []Instruction{
			ConstInstr("a", TypeInt, IntLiteral(1), nil),          // 0
			EffectInstr(OpBr, []string{"a"}, nil, []string{"then", "else"}, nil), // 1
			LabelInstr("then", nil),                               // 2
			EffectInstr(OpJmp, nil, nil, []string{"end"}, nil),    // 3
			LabelInstr("else", nil),                               // 4
			LabelInstr("end", nil),                                // 5
		},
	}

	g := BuildCFG(fn)
	require.Len(t, g.Blocks, 4)

	entry := g.Entry()
	require.NotNil(t, entry)
	assert.Equal(t, 0, entry.Start)
	assert.Equal(t, []int{2, 4}, entry.FlowsTo)

	thenBlock := g.Block(2)
	require.NotNil(t, thenBlock)
	assert.Equal(t, []int{5}, thenBlock.FlowsTo)

	elseBlock := g.Block(4)
	require.NotNil(t, elseBlock)
	assert.Equal(t, []int{5}, elseBlock.FlowsTo)

	endBlock := g.Block(5)
	require.NotNil(t, endBlock)
	assert.ElementsMatch(t, []int{2, 4}, endBlock.Pred)
}

func TestBuildCFGNoTrailingTerminator(t *testing.T) {
	fn := Function{
		Name: "main",
		Instrs: []Instruction{
			ConstInstr("a", TypeInt, IntLiteral(1), nil),
			EffectInstr(OpPrint, []string{"a"}, nil, nil, nil),
		},
	}
	g := BuildCFG(fn)
	require.Len(t, g.Blocks, 1)
	assert.Empty(t, g.Blocks[0].FlowsTo)
}
