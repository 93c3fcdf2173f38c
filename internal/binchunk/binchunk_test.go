package binchunk

import (
	"testing"

	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

func sampleProto(in *value.Intern) *proto.Prototype {
	child := &proto.Prototype{
		Source:       "=child",
		NumParams:    1,
		MaxStackSize: 2,
		Code:         []code.Instruction{code.MakeABC(code.OpReturn, 0, 1, 0, false)},
		Constants:    []value.Value{value.Int(7)},
	}
	return &proto.Prototype{
		Source:          "=sample",
		LineDefined:     1,
		LastLineDefined: 10,
		NumParams:       0,
		IsVararg:        true,
		MaxStackSize:    4,
		Code: []code.Instruction{
			code.MakeABC(code.OpAdd, 0, 1, 2, false),
			code.MakeAsBx(code.OpJmp, 0, -1),
		},
		Constants: []value.Value{
			value.Int(42),
			value.Float(3.5),
			value.StringFromLString(value.NewString(in, "hi")),
		},
		Upvalues: []proto.Upvalue{{Name: "_ENV", InStack: false, Index: 0}},
		Protos:   []*proto.Prototype{child},
		LineInfo: []int32{1, -1},
		AbsLineInfo: []proto.AbsLineEntry{
			{PC: 0, Line: 1},
		},
		LocVars: []proto.LocVar{
			{Name: "x", StartPC: 0, EndPC: 1, Attribute: proto.AttribConst, Slot: 0},
		},
	}
}

func TestDumpLoadRoundTrip(t *testing.T) {
	in := value.NewIntern()
	want := sampleProto(in)

	data := Dump(want)
	got, err := Load(data, in)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.Source != want.Source || got.LineDefined != want.LineDefined ||
		got.LastLineDefined != want.LastLineDefined || got.IsVararg != want.IsVararg ||
		got.MaxStackSize != want.MaxStackSize {
		t.Fatalf("header fields mismatch: got %+v, want %+v", got, want)
	}
	if len(got.Code) != len(want.Code) {
		t.Fatalf("code length = %d, want %d", len(got.Code), len(want.Code))
	}
	for i := range want.Code {
		if got.Code[i] != want.Code[i] {
			t.Fatalf("code[%d] = %x, want %x", i, got.Code[i], want.Code[i])
		}
	}
	if len(got.Constants) != len(want.Constants) {
		t.Fatalf("constants length = %d, want %d", len(got.Constants), len(want.Constants))
	}
	if len(got.Protos) != 1 || got.Protos[0].NumParams != 1 {
		t.Fatalf("nested proto lost: %+v", got.Protos)
	}
	if len(got.LocVars) != 1 || got.LocVars[0].Name != "x" || got.LocVars[0].Attribute != proto.AttribConst {
		t.Fatalf("locvars lost: %+v", got.LocVars)
	}
	if len(got.Upvalues) != 1 || got.Upvalues[0].Name != "_ENV" {
		t.Fatalf("upvalues lost: %+v", got.Upvalues)
	}
}

func TestLoadRejectsForeignData(t *testing.T) {
	if _, err := Load([]byte("not a chunk at all"), value.NewIntern()); err == nil {
		t.Fatalf("Load of garbage data should fail")
	}
}
