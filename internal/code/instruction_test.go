package code

import "testing"

func TestABCRoundTrip(t *testing.T) {
	i := MakeABC(OpAdd, 3, 200, 55, true)
	if got := i.Opcode(); got != OpAdd {
		t.Fatalf("opcode = %v, want OpAdd", got)
	}
	if a := i.A(); a != 3 {
		t.Fatalf("A = %d, want 3", a)
	}
	if b := i.B(); b != 200 {
		t.Fatalf("B = %d, want 200", b)
	}
	if c := i.C(); c != 55 {
		t.Fatalf("C = %d, want 55", c)
	}
	if !i.K() {
		t.Fatalf("K = false, want true")
	}
}

func TestAsBxRoundTripNegative(t *testing.T) {
	i := MakeAsBx(OpJmp, 0, -12345)
	if sbx := i.SBx(); sbx != -12345 {
		t.Fatalf("SBx = %d, want -12345", sbx)
	}
}

func TestSJRoundTrip(t *testing.T) {
	for _, want := range []int{0, 1, -1, 1000, -1000, MaxArgAx/2 - 1, -(MaxArgAx/2 - 1)} {
		i := MakeSJ(OpJmp, want)
		if got := i.SJ(); got != want {
			t.Fatalf("SJ round trip: got %d, want %d", got, want)
		}
	}
}

func TestAxRoundTrip(t *testing.T) {
	i := MakeAx(OpExtraArg, 12345678)
	if got := i.Ax(); got != 12345678 {
		t.Fatalf("Ax = %d, want 12345678", got)
	}
}

func TestOpNameAndModes(t *testing.T) {
	i := MakeABC(OpGetTabUp, 0, 0, 0, false)
	if name := i.OpName(); name != "GETTABUP" {
		t.Fatalf("OpName = %q", name)
	}
	if i.BMode() != ArgU {
		t.Fatalf("BMode = %v, want ArgU", i.BMode())
	}
	if i.CMode() != ArgK {
		t.Fatalf("CMode = %v, want ArgK", i.CMode())
	}
}
