package parser

import (
	"testing"

	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

func parse(t *testing.T, src string) *proto.Prototype {
	t.Helper()
	return Parse(src, "test", value.NewIntern())
}

func TestParseLocalAssign(t *testing.T) {
	pt := parse(t, "local x = 1 + 2")
	found := false
	for _, i := range pt.Code {
		if i.Opcode() == code.OpAdd {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an ADD instruction, got %v", pt.Code)
	}
	if len(pt.LocVars) != 1 || pt.LocVars[0].Name != "x" {
		t.Fatalf("expected local 'x', got %+v", pt.LocVars)
	}
}

func TestParseGlobalAccessUsesEnv(t *testing.T) {
	pt := parse(t, "print('hi')")
	if len(pt.Upvalues) == 0 || pt.Upvalues[0].Name != "_ENV" {
		t.Fatalf("expected an _ENV upvalue, got %+v", pt.Upvalues)
	}
	foundTabUp := false
	for _, i := range pt.Code {
		if i.Opcode() == code.OpGetTabUp {
			foundTabUp = true
		}
	}
	if !foundTabUp {
		t.Fatalf("expected GETTABUP for global 'print', got %v", pt.Code)
	}
}

func TestParseIfElse(t *testing.T) {
	pt := parse(t, `
		if x then
			y = 1
		else
			y = 2
		end
	`)
	var jmps, tests int
	for _, i := range pt.Code {
		switch i.Opcode() {
		case code.OpJmp:
			jmps++
		case code.OpTest:
			tests++
		}
	}
	if tests == 0 || jmps == 0 {
		t.Fatalf("expected TEST/JMP pairs for if/else, got %v", pt.Code)
	}
}

func TestParseWhileBreak(t *testing.T) {
	pt := parse(t, `
		while x do
			break
		end
	`)
	var jmps int
	for _, i := range pt.Code {
		if i.Opcode() == code.OpJmp {
			jmps++
		}
	}
	if jmps < 2 {
		t.Fatalf("expected at least 2 JMPs (exit + break), got %v", pt.Code)
	}
}

func TestParseNumericFor(t *testing.T) {
	pt := parse(t, `
		for i = 1, 10 do
			x = i
		end
	`)
	var prep, loop bool
	for _, i := range pt.Code {
		switch i.Opcode() {
		case code.OpForPrep:
			prep = true
		case code.OpForLoop:
			loop = true
		}
	}
	if !prep || !loop {
		t.Fatalf("expected FORPREP/FORLOOP, got %v", pt.Code)
	}
}

func TestParseGenericFor(t *testing.T) {
	pt := parse(t, `
		for k, v in pairs(t) do
			x = k
		end
	`)
	var prep, call, loop bool
	for _, i := range pt.Code {
		switch i.Opcode() {
		case code.OpTForPrep:
			prep = true
		case code.OpTForCall:
			call = true
		case code.OpTForLoop:
			loop = true
		}
	}
	if !prep || !call || !loop {
		t.Fatalf("expected TFORPREP/TFORCALL/TFORLOOP, got %v", pt.Code)
	}
}

func TestParseLocalFunctionRecursion(t *testing.T) {
	pt := parse(t, `
		local function f(n)
			if n == 0 then return 0 end
			return f(n - 1)
		end
	`)
	if len(pt.Protos) != 1 {
		t.Fatalf("expected one nested prototype, got %d", len(pt.Protos))
	}
}

func TestParseConstAttribute(t *testing.T) {
	pt := parse(t, "local x <const> = 1")
	if len(pt.LocVars) != 1 {
		t.Fatalf("expected one local, got %+v", pt.LocVars)
	}
}

func TestParseToBeClosedEmitsTBC(t *testing.T) {
	pt := parse(t, "local x <close> = f()")
	found := false
	for _, i := range pt.Code {
		if i.Opcode() == code.OpTBC {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a TBC instruction, got %v", pt.Code)
	}
}

func TestParseGotoLabel(t *testing.T) {
	pt := parse(t, `
		goto done
		x = 1
		::done::
	`)
	found := false
	for _, i := range pt.Code {
		if i.Opcode() == code.OpJmp {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a JMP for goto, got %v", pt.Code)
	}
}

func TestParseConcatChain(t *testing.T) {
	pt := parse(t, `x = a .. b .. c`)
	found := false
	for _, i := range pt.Code {
		if i.Opcode() == code.OpConcat {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a single CONCAT spanning the chain, got %v", pt.Code)
	}
}

func TestParseRepeatUntil(t *testing.T) {
	pt := parse(t, `
		repeat
			x = x + 1
		until x > 10
	`)
	var jmps int
	for _, i := range pt.Code {
		if i.Opcode() == code.OpJmp {
			jmps++
		}
	}
	if jmps == 0 {
		t.Fatalf("expected a back-edge JMP, got %v", pt.Code)
	}
}
