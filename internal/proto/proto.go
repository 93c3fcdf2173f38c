package proto

import (
	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// Attribute marks a local's <const>/<close> annotation (spec §4.6
// "to-be-closed variables").
type Attribute byte

const (
	AttribNone Attribute = iota
	AttribConst
	AttribClose
)

// Upvalue describes where an enclosing function finds the value an
// upvalue captures: either an open local register in the parent's own
// frame (InStack) or one of the parent's own upvalues by index.
type Upvalue struct {
	Name    string
	InStack bool
	Index   byte
}

// LocVar is debug info for one local variable's live range, keyed to
// program-counter offsets within the owning Prototype's Code.
type LocVar struct {
	Name      string
	StartPC   int
	EndPC     int
	Attribute Attribute
	Slot      int // register index while live
}

// Prototype is a compiled function body: spec §3's "Prototype" object,
// shared immutably by every closure built over it (only the closure's
// upvalues differ between instances).
type Prototype struct {
	Source          string
	LineDefined     int
	LastLineDefined int
	NumParams       byte
	IsVararg        bool
	MaxStackSize    byte

	Code      []code.Instruction
	Constants []value.Value
	Upvalues  []Upvalue
	Protos    []*Prototype

	// debug info, all optional (stripped by the "strip debug info" load
	// option spec §6 describes for the embedding API)
	LineInfo    []int32 // one entry per Code slot; negative means "same as previous"
	AbsLineInfo []AbsLineEntry
	LocVars     []LocVar
}

// AbsLineEntry records the absolute line of instruction PC, giving Line a
// starting point part-way through Code.
type AbsLineEntry struct {
	PC   int
	Line int
}

// Line resolves the source line for instruction pc, falling back to
// LineDefined when no debug info survived stripping. It walks forward from
// the nearest preceding AbsLineInfo anchor (or from the start of Code),
// taking each non-negative LineInfo entry as an absolute line and keeping
// the previous line for negative ones.
func (p *Prototype) Line(pc int) int {
	if len(p.LineInfo) == 0 || pc < 0 || pc >= len(p.LineInfo) {
		return p.LineDefined
	}
	line, start := p.LineDefined, 0
	for _, e := range p.AbsLineInfo {
		if e.PC > pc {
			break
		}
		line, start = e.Line, e.PC
	}
	for i := start; i <= pc; i++ {
		if p.LineInfo[i] >= 0 {
			line = int(p.LineInfo[i])
		}
	}
	return line
}

// NumConstants/NumUpvalues/NumProtos are convenience length accessors.
func (p *Prototype) NumConstants() int { return len(p.Constants) }
func (p *Prototype) NumUpvalues() int  { return len(p.Upvalues) }
func (p *Prototype) NumProtos() int    { return len(p.Protos) }
