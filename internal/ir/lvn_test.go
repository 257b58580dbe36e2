package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLVNSameValueNumber is spec.md §8 end-to-end scenario 2: `x = const
// 5; y = const 5; z = add x y; print z` rewrites `z = add x x` (y keeps
// its own name but shares x's value number) with an empty reconciliation
// tail (no destination collision).
func TestLVNSameValueNumber(t *testing.T) {
	block := &BasicBlock{
		Start: 0,
		Instrs: []Instruction{
			ConstInstr("x", TypeInt, IntLiteral(5), nil),
			ConstInstr("y", TypeInt, IntLiteral(5), nil),
			ValueInstr(OpAdd, "z", TypeInt, []string{"x", "y"}, nil, nil, nil),
			EffectInstr(OpPrint, []string{"z"}, nil, nil, nil),
		},
	}

	block.LVN()

	require.Len(t, block.Instrs, 4)
	assert.Equal(t, "x", block.Instrs[0].Dest)
	assert.Equal(t, "y", block.Instrs[1].Dest)
	add := block.Instrs[2]
	assert.Equal(t, OpAdd, add.Op)
	assert.Equal(t, []string{"x", "x"}, add.Args)
	assert.Equal(t, OpPrint, block.Instrs[3].Op)
}

// TestLVNFreshensReassignment is spec.md §8 end-to-end scenario 3: `a =
// const 1; a = const 2; b = id a` freshens the second `a` to `__fresh0`
// and appends an `a = id __fresh0` reconciliation tail since the block has
// no terminator.
func TestLVNFreshensReassignment(t *testing.T) {
	block := &BasicBlock{
		Start: 0,
		Instrs: []Instruction{
			ConstInstr("a", TypeInt, IntLiteral(1), nil),
			ConstInstr("a", TypeInt, IntLiteral(2), nil),
			ValueInstr(OpID, "b", TypeInt, []string{"a"}, nil, nil, nil),
		},
	}

	block.LVN()

	require.Len(t, block.Instrs, 4)
	assert.Equal(t, "a", block.Instrs[0].Dest)
	assert.Equal(t, "__fresh0", block.Instrs[1].Dest)
	assert.Equal(t, []string{"__fresh0"}, block.Instrs[2].Args)
	assert.Equal(t, "b", block.Instrs[2].Dest)

	tail := block.Instrs[3]
	assert.Equal(t, OpID, tail.Op)
	assert.Equal(t, "a", tail.Dest)
	assert.Equal(t, []string{"__fresh0"}, tail.Args)
}

func TestLVNCanonicalizesCrossBlockArgument(t *testing.T) {
	block := &BasicBlock{
		Start: 0,
		Instrs: []Instruction{
			ValueInstr(OpAdd, "s1", TypeInt, []string{"arg", "arg"}, nil, nil, nil),
			ValueInstr(OpAdd, "s2", TypeInt, []string{"arg", "arg"}, nil, nil, nil),
		},
	}

	block.LVN()

	require.Len(t, block.Instrs, 2)
	assert.Equal(t, []string{"arg", "arg"}, block.Instrs[0].Args)
	// Both defs are structurally identical once args are canonicalized, so
	// s2 should not be simplified away (LVN never rewrites the
	// instruction list beyond argument canonicalization), but both
	// resolve to the same value number internally.
	assert.Equal(t, []string{"arg", "arg"}, block.Instrs[1].Args)
}
