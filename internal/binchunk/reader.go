package binchunk

import (
	"encoding/binary"
	"fmt"
	"math"

	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// reader walks a byte slice left to right, the way the teacher's loader
// sketch (never completed in the captured snapshot) would have paired
// with writer.go.
type reader struct {
	data []byte
	pos  int
}

// Load decodes a chunk produced by Dump, rejecting it outright if the
// header's canary values don't match this build's own word size/integer/
// float representation (spec §6: "a loader must refuse a chunk it cannot
// faithfully execute instead of silently reinterpreting its bytes").
func Load(data []byte, in *value.Intern) (*proto.Prototype, error) {
	r := &reader{data: data}
	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r.readProto(in)
}

func (r *reader) readHeader() error {
	if !r.hasBytes(len(signature)) || string(r.take(len(signature))) != signature {
		return fmt.Errorf("binchunk: not a lk5 precompiled chunk")
	}
	if r.byte() != formatVersion {
		return fmt.Errorf("binchunk: version mismatch")
	}
	if r.byte() != formatKind {
		return fmt.Errorf("binchunk: format mismatch")
	}
	if string(r.take(len(luacData))) != string(luacData) {
		return fmt.Errorf("binchunk: corrupted chunk data canary")
	}
	sizes := []byte{r.byte(), r.byte(), r.byte(), r.byte(), r.byte()}
	want := []byte{cintSize, csizetSize, instructionSize, luaIntegerSize, luaNumberSize}
	for i := range sizes {
		if sizes[i] != want[i] {
			return fmt.Errorf("binchunk: incompatible word size in header")
		}
	}
	if r.int64() != luacInt {
		return fmt.Errorf("binchunk: integer format mismatch")
	}
	if r.uint64() != float64Bits(luacNum) {
		return fmt.Errorf("binchunk: float format mismatch")
	}
	return nil
}

func (r *reader) readProto(in *value.Intern) (*proto.Prototype, error) {
	p := &proto.Prototype{}
	p.Source = r.string()
	p.LineDefined = int(r.uint32())
	p.LastLineDefined = int(r.uint32())
	p.NumParams = r.byte()
	p.IsVararg = r.bool()
	p.MaxStackSize = r.byte()

	n := int(r.uint32())
	p.Code = make([]code.Instruction, n)
	for i := range p.Code {
		p.Code[i] = code.Instruction(r.uint32())
	}

	n = int(r.uint32())
	p.Constants = make([]value.Value, n)
	for i := range p.Constants {
		c, err := r.constant(in)
		if err != nil {
			return nil, err
		}
		p.Constants[i] = c
	}

	n = int(r.uint32())
	p.Upvalues = make([]proto.Upvalue, n)
	for i := range p.Upvalues {
		p.Upvalues[i] = proto.Upvalue{InStack: r.bool(), Index: r.byte(), Name: r.string()}
	}

	n = int(r.uint32())
	p.Protos = make([]*proto.Prototype, n)
	for i := range p.Protos {
		child, err := r.readProto(in)
		if err != nil {
			return nil, err
		}
		p.Protos[i] = child
	}

	n = int(r.uint32())
	p.LineInfo = make([]int32, n)
	for i := range p.LineInfo {
		p.LineInfo[i] = r.int32()
	}
	n = int(r.uint32())
	p.AbsLineInfo = make([]proto.AbsLineEntry, n)
	for i := range p.AbsLineInfo {
		p.AbsLineInfo[i] = proto.AbsLineEntry{PC: int(r.uint32()), Line: int(r.uint32())}
	}
	n = int(r.uint32())
	p.LocVars = make([]proto.LocVar, n)
	for i := range p.LocVars {
		p.LocVars[i] = proto.LocVar{
			Name:      r.string(),
			StartPC:   int(r.uint32()),
			EndPC:     int(r.uint32()),
			Attribute: proto.Attribute(r.byte()),
			Slot:      int(r.uint32()),
		}
	}
	return p, nil
}

func (r *reader) constant(in *value.Intern) (value.Value, error) {
	switch tag := r.byte(); tag {
	case tagNil:
		return value.Nil, nil
	case tagBoolean:
		return value.Bool(r.bool()), nil
	case tagInteger:
		return value.Int(r.int64()), nil
	case tagNumber:
		return value.Float(r.float64()), nil
	case tagShortStr, tagLongStr:
		return value.String(in, r.string()), nil
	default:
		return value.Nil, fmt.Errorf("binchunk: unknown constant tag %#x", tag)
	}
}

func (r *reader) hasBytes(n int) bool { return r.pos+n <= len(r.data) }

func (r *reader) take(n int) []byte {
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) byte() byte { return r.take(1)[0] }
func (r *reader) bool() bool { return r.byte() != 0 }

func (r *reader) uint32() uint32 { return binary.LittleEndian.Uint32(r.take(4)) }
func (r *reader) int32() int32   { return int32(r.uint32()) }

func (r *reader) uint64() uint64 { return binary.LittleEndian.Uint64(r.take(8)) }
func (r *reader) int64() int64   { return int64(r.uint64()) }
func (r *reader) float64() float64 { return math.Float64frombits(r.uint64()) }

func (r *reader) string() string {
	n := int(r.uint32())
	return string(r.take(n))
}
