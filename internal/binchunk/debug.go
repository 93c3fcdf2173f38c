package binchunk

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

var debugJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// debugProto is the JSON-friendly shadow of proto.Prototype: the real
// type's Code field is a []code.Instruction (an unexported-shape uint32
// wrapper) and its Constants are value.Value, neither of which jsoniter
// can walk directly, so DumpDebug flattens both into plain Go types
// first. Grounded on the teacher's binary_chunk.go, whose Prototype type
// this mirrors field-for-field -- there the whole on-disk format was
// JSON, here it is only the `-l`-style introspection dump SPEC_FULL.md
// §2 describes.
type debugProto struct {
	Source          string        `json:"source"`
	LineDefined     int           `json:"lineDefined"`
	LastLineDefined int           `json:"lastLineDefined"`
	NumParams       byte          `json:"numParams"`
	IsVararg        bool          `json:"isVararg"`
	MaxStackSize    byte          `json:"maxStackSize"`
	Code            []string      `json:"code"`
	Constants       []interface{} `json:"constants"`
	Upvalues        []proto.Upvalue `json:"upvalues"`
	Protos          []*debugProto `json:"protos"`
}

// DumpDebug renders p (and its nested prototypes) as indented JSON,
// disassembling each instruction to its mnemonic+operands text rather
// than leaving it as an opaque uint32.
func DumpDebug(p *proto.Prototype) ([]byte, error) {
	return debugJSON.MarshalIndent(toDebugProto(p), "", "  ")
}

func toDebugProto(p *proto.Prototype) *debugProto {
	dp := &debugProto{
		Source:          p.Source,
		LineDefined:     p.LineDefined,
		LastLineDefined: p.LastLineDefined,
		NumParams:       p.NumParams,
		IsVararg:        p.IsVararg,
		MaxStackSize:    p.MaxStackSize,
		Upvalues:        p.Upvalues,
	}
	dp.Code = make([]string, len(p.Code))
	for i, ins := range p.Code {
		dp.Code[i] = disassemble(ins)
	}
	dp.Constants = make([]interface{}, len(p.Constants))
	for i, k := range p.Constants {
		dp.Constants[i] = debugConstant(k)
	}
	dp.Protos = make([]*debugProto, len(p.Protos))
	for i, child := range p.Protos {
		dp.Protos[i] = toDebugProto(child)
	}
	return dp
}

func debugConstant(v value.Value) interface{} {
	switch {
	case v.IsNil():
		return nil
	case v.IsBoolean():
		return v.AsBool()
	case v.IsInteger():
		return v.AsInt()
	case v.IsFloat():
		return v.AsFloat()
	case v.IsString():
		return v.AsString()
	default:
		return value.TypeName(v)
	}
}

// disassemble renders one instruction roughly the way `luac -l` does:
// mnemonic followed by whichever operand fields its OpMode actually uses.
func disassemble(i code.Instruction) string {
	name := i.OpName()
	switch i.OpMode() {
	case code.ModeABx:
		return fmt.Sprintf("%s %d %d", name, i.A(), i.Bx())
	case code.ModeAsBx:
		return fmt.Sprintf("%s %d %d", name, i.A(), i.SBx())
	case code.ModeAx:
		return fmt.Sprintf("%s %d", name, i.Ax())
	case code.ModeSJ:
		return fmt.Sprintf("%s %d", name, i.SJ())
	default:
		return fmt.Sprintf("%s %d %d %d", name, i.A(), i.B(), i.C())
	}
}
