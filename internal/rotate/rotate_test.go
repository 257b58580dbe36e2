package rotate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"brilgo/internal/ir"
)

func TestRotateRightMovesLastToFront(t *testing.T) {
	instrs := []ir.Instruction{
		ir.ConstInstr("a", ir.TypeInt, ir.IntLiteral(1), nil),
		ir.ConstInstr("b", ir.TypeInt, ir.IntLiteral(2), nil),
		ir.ConstInstr("c", ir.TypeInt, ir.IntLiteral(3), nil),
	}

	out := rotateRight(instrs)

	assert.Equal(t, "c", out[0].Dest)
	assert.Equal(t, "a", out[1].Dest)
	assert.Equal(t, "b", out[2].Dest)
}

func TestRotateRightIsIdempotentOnShortLists(t *testing.T) {
	assert.Empty(t, rotateRight(nil))

	single := []ir.Instruction{ir.ConstInstr("a", ir.TypeInt, ir.IntLiteral(1), nil)}
	out := rotateRight(single)
	assert.Equal(t, single, out)
}

func TestRotateOnceRotatesEveryFunction(t *testing.T) {
	prog := ir.Program{
		Functions: []ir.Function{
			{
				Name: "main",
				Instrs: []ir.Instruction{
					ir.ConstInstr("a", ir.TypeInt, ir.IntLiteral(1), nil),
					ir.ConstInstr("b", ir.TypeInt, ir.IntLiteral(2), nil),
				},
			},
		},
	}

	rotateOnce(&prog)

	assert.Equal(t, "b", prog.Functions[0].Instrs[0].Dest)
	assert.Equal(t, "a", prog.Functions[0].Instrs[1].Dest)
}

// TestBriliAcceptsFailsClosedWithoutBinary documents that briliAccepts
// returns false when the brili binary cannot be found or started at all
// (exec.CommandContext's Run returns a non-nil, non-deadline error in that
// case), rather than the timeout branch. This environment has no brili
// binary installed, so this also exercises the real failure path used by
// Rotate's retry loop.
func TestBriliAcceptsFailsClosedWithoutBinary(t *testing.T) {
	prog := ir.Program{
		Functions: []ir.Function{
			{Name: "main", Instrs: []ir.Instruction{ir.EffectInstr(ir.OpRet, nil, nil, nil, nil)}},
		},
	}
	assert.False(t, briliAccepts(prog))
}
