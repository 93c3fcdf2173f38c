package code

// Instruction is one 32-bit bytecode word. Bit layout (low to high):
//
//	ABC / ABCk:  op(7) A(8) k(1) B(8) C(8)
//	ABx:         op(7) A(8) Bx(17)
//	AsBx:        op(7) A(8) sBx(17, signed, offset by sBxOffset)
//	Ax:          op(7) Ax(25)
//	sJ:          op(7) sJ(25, signed, offset by sJOffset)
type Instruction uint32

const (
	posOP = 0
	posA  = 7
	posK  = 15
	posB  = 16
	posC  = 24

	sizeOP = 7
	sizeA  = 8
	sizeK  = 1
	sizeB  = 8
	sizeC  = 8

	posBx = posK
	sizeBx = sizeK + sizeB + sizeC // 17

	posAx = posA
	sizeAx = sizeA + sizeBx // 25

	posSJ  = posA
	sizeSJ = sizeAx
)

// MaxArgBx is the largest unsigned value an 17-bit Bx field can hold.
const MaxArgBx = 1<<sizeBx - 1

// sBxOffset biases AsBx so it can represent negative values in an unsigned
// field: the stored value is sbx+sBxOffset.
const sBxOffset = MaxArgBx >> 1

// MaxArgAx is the largest value a 25-bit Ax field can hold.
const MaxArgAx = 1<<sizeAx - 1

// sJOffset biases sJ the same way sBxOffset biases AsBx.
const sJOffset = MaxArgAx >> 1

func mask(size uint) uint32 { return 1<<size - 1 }

func (i Instruction) Opcode() Op { return Op(uint32(i) >> posOP & mask(sizeOP)) }

func (i Instruction) A() int { return int(uint32(i) >> posA & mask(sizeA)) }
func (i Instruction) K() bool { return i>>posK&1 != 0 }
func (i Instruction) B() int  { return int(uint32(i) >> posB & mask(sizeB)) }
func (i Instruction) C() int  { return int(uint32(i) >> posC & mask(sizeC)) }

func (i Instruction) Bx() int { return int(uint32(i) >> posBx & mask(sizeBx)) }
func (i Instruction) SBx() int { return i.Bx() - sBxOffset }

func (i Instruction) Ax() int { return int(uint32(i) >> posAx & mask(sizeAx)) }

func (i Instruction) SJ() int { return int(uint32(i)>>posSJ&mask(sizeSJ)) - sJOffset }

// OpName/OpMode/BMode/CMode mirror the teacher's Instruction helpers,
// looking the active opcode up in the global table for disassembly and
// codegen argument-mode checks.
func (i Instruction) OpName() string { return opcodes[i.Opcode()].name }
func (i Instruction) OpMode() OpMode { return opcodes[i.Opcode()].mode }
func (i Instruction) BMode() ArgMode { return opcodes[i.Opcode()].argBMode }
func (i Instruction) CMode() ArgMode { return opcodes[i.Opcode()].argCMode }
func (i Instruction) IsTest() bool   { return opcodes[i.Opcode()].isTest }
func (i Instruction) SetsA() bool    { return opcodes[i.Opcode()].setsA }

// MakeABC encodes an ABC/ABCk-format instruction.
func MakeABC(op Op, a, b, c int, k bool) Instruction {
	var kb uint32
	if k {
		kb = 1
	}
	return Instruction(uint32(op)<<posOP |
		uint32(a)<<posA |
		kb<<posK |
		uint32(b)<<posB |
		uint32(c)<<posC)
}

// MakeABx encodes an ABx-format instruction; bx must already be biased
// (non-negative) the way LOADK/CLOSURE/etc. use it directly.
func MakeABx(op Op, a, bx int) Instruction {
	return Instruction(uint32(op)<<posOP | uint32(a)<<posA | uint32(bx)<<posBx)
}

// MakeAsBx encodes an AsBx-format instruction; sbx is the signed offset,
// biased internally.
func MakeAsBx(op Op, a, sbx int) Instruction {
	return MakeABx(op, a, sbx+sBxOffset)
}

// MakeAx encodes an Ax-format instruction (EXTRAARG).
func MakeAx(op Op, ax int) Instruction {
	return Instruction(uint32(op)<<posOP | uint32(ax)<<posAx)
}

// MakeSJ encodes a sJ-format jump instruction (JMP).
func MakeSJ(op Op, sj int) Instruction {
	return Instruction(uint32(op)<<posOP | uint32(sj+sJOffset)<<posSJ)
}
