package vm

import (
	"fmt"
	"math"

	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// arithEvent names each arithmetic/bitwise op for metamethod lookup and
// error messages, mirroring spec §4.4's metamethod-name table.
type arithEvent int

const (
	evAdd arithEvent = iota
	evSub
	evMul
	evMod
	evPow
	evDiv
	evIDiv
	evBAnd
	evBOr
	evBXor
	evShl
	evShr
	evUnm
	evBNot
)

var arithNames = map[arithEvent]string{
	evAdd: "__add", evSub: "__sub", evMul: "__mul", evMod: "__mod",
	evPow: "__pow", evDiv: "__div", evIDiv: "__idiv", evBAnd: "__band",
	evBOr: "__bor", evBXor: "__bxor", evShl: "__shl", evShr: "__shr",
	evUnm: "__unm", evBNot: "__bnot",
}

var bitwiseOps = map[arithEvent]bool{evBAnd: true, evBOr: true, evBXor: true, evShl: true, evShr: true}

// arith implements the binary arithmetic/bitwise opcodes: numeric fast
// path first, metamethod fallback second, matching spec §4.2's "Abstract
// groups" / §4.4 coercion rules.
func (th *Thread) arith(ev arithEvent, a, b value.Value) (value.Value, error) {
	if bitwiseOps[ev] {
		ai, aok := value.ToInteger(a)
		bi, bok := value.ToInteger(b)
		if aok && bok {
			return value.Int(bitwiseCompute(ev, ai, bi)), nil
		}
	} else if a.IsNumber() && b.IsNumber() {
		if a.IsInteger() && b.IsInteger() && ev != evDiv && ev != evPow {
			if v, ok := intArith(ev, a.AsInt(), b.AsInt()); ok {
				return v, nil
			}
		}
		af, _ := value.ToNumber(a)
		bf, _ := value.ToNumber(b)
		return value.Float(floatArith(ev, asFloat(af), asFloat(bf))), nil
	} else if na, aok := value.ToNumber(a); aok {
		if nb, bok := value.ToNumber(b); bok {
			return th.arith(ev, na, nb)
		}
	}

	name := arithNames[ev]
	if mm := th.state.getMetamethod(a, name); !mm.IsNil() {
		res, err := th.Call(mm, []value.Value{a, b}, 1)
		return first(res), err
	}
	if mm := th.state.getMetamethod(b, name); !mm.IsNil() {
		res, err := th.Call(mm, []value.Value{a, b}, 1)
		return first(res), err
	}
	bad := a
	if a.IsNumber() || (bitwiseOps[ev] && a.IsString()) {
		bad = b
	}
	return value.Nil, fmt.Errorf("attempt to perform arithmetic on a %s value", value.TypeName(bad))
}

func asFloat(v value.Value) float64 {
	if v.IsInteger() {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

func intArith(ev arithEvent, a, b int64) (value.Value, bool) {
	switch ev {
	case evAdd:
		return value.Int(a + b), true
	case evSub:
		return value.Int(a - b), true
	case evMul:
		return value.Int(a * b), true
	case evMod:
		if b == 0 {
			return value.Nil, false
		}
		return value.Int(value.IMod(a, b)), true
	case evIDiv:
		if b == 0 {
			return value.Nil, false
		}
		return value.Int(value.IFloorDiv(a, b)), true
	}
	return value.Nil, false
}

func floatArith(ev arithEvent, a, b float64) float64 {
	switch ev {
	case evAdd:
		return a + b
	case evSub:
		return a - b
	case evMul:
		return a * b
	case evMod:
		return value.FMod(a, b)
	case evPow:
		return math.Pow(a, b)
	case evDiv:
		return a / b
	case evIDiv:
		return math.Floor(a / b)
	}
	return 0
}

func bitwiseCompute(ev arithEvent, a, b int64) int64 {
	switch ev {
	case evBAnd:
		return a & b
	case evBOr:
		return a | b
	case evBXor:
		return a ^ b
	case evShl:
		return shiftLeft(a, b)
	case evShr:
		return shiftLeft(a, -b)
	}
	return 0
}

// shiftLeft implements Lua's shift semantics: shifts by >=64 in either
// direction produce 0, and a negative shift count shifts the other way.
func shiftLeft(a, n int64) int64 {
	if n <= -64 || n >= 64 {
		return 0
	}
	if n >= 0 {
		return int64(uint64(a) << uint(n))
	}
	return int64(uint64(a) >> uint(-n))
}

func (th *Thread) unary(ev arithEvent, a value.Value) (value.Value, error) {
	switch ev {
	case evUnm:
		if a.IsInteger() {
			return value.Int(-a.AsInt()), nil
		}
		if a.IsFloat() {
			return value.Float(-a.AsFloat()), nil
		}
		if n, ok := value.ToNumber(a); ok {
			return th.unary(ev, n)
		}
	case evBNot:
		if i, ok := value.ToInteger(a); ok {
			return value.Int(^i), nil
		}
	}
	name := arithNames[ev]
	if mm := th.state.getMetamethod(a, name); !mm.IsNil() {
		res, err := th.Call(mm, []value.Value{a, a}, 1)
		return first(res), err
	}
	return value.Nil, fmt.Errorf("attempt to perform arithmetic on a %s value", value.TypeName(a))
}

// compareEq implements spec §4.4's `==`: raw equality first, __eq only
// when both operands are tables or both are userdata and raw compared
// unequal.
func (th *Thread) compareEq(a, b value.Value) (bool, error) {
	if value.RawEqual(a, b) {
		return true, nil
	}
	if (a.IsTable() && b.IsTable()) || (a.IsUserdata() && b.IsUserdata()) {
		mm := th.state.getMetamethod(a, "__eq")
		if mm.IsNil() {
			mm = th.state.getMetamethod(b, "__eq")
		}
		if !mm.IsNil() {
			res, err := th.Call(mm, []value.Value{a, b}, 1)
			if err != nil {
				return false, err
			}
			return first(res).Truthy(), nil
		}
	}
	return false, nil
}

// Less is compareLt's exported form, for host/stdlib code (table.sort's
// default comparator) that needs spec §4.4's `<` semantics without
// reaching into unexported Thread internals.
func (th *Thread) Less(a, b value.Value) (bool, error) { return th.compareLt(a, b) }

func (th *Thread) compareLt(a, b value.Value) (bool, error) {
	if a.IsNumber() && b.IsNumber() {
		return numLess(a, b), nil
	}
	if a.IsString() && b.IsString() {
		return a.AsString() < b.AsString(), nil
	}
	return th.compareMeta("__lt", a, b)
}

func (th *Thread) compareLe(a, b value.Value) (bool, error) {
	if a.IsNumber() && b.IsNumber() {
		return !numLess(b, a), nil
	}
	if a.IsString() && b.IsString() {
		return a.AsString() <= b.AsString(), nil
	}
	return th.compareMeta("__le", a, b)
}

func (th *Thread) compareMeta(name string, a, b value.Value) (bool, error) {
	mm := th.state.getMetamethod(a, name)
	if mm.IsNil() {
		mm = th.state.getMetamethod(b, name)
	}
	if mm.IsNil() {
		return false, fmt.Errorf("attempt to compare two %s values", value.TypeName(a))
	}
	res, err := th.Call(mm, []value.Value{a, b}, 1)
	if err != nil {
		return false, err
	}
	return first(res).Truthy(), nil
}

func numLess(a, b value.Value) bool {
	if a.IsInteger() && b.IsInteger() {
		return a.AsInt() < b.AsInt()
	}
	return asFloat(a) < asFloat(b)
}

func first(vs []value.Value) value.Value {
	if len(vs) == 0 {
		return value.Nil
	}
	return vs[0]
}

// length implements spec §4.4's `#`: strings by byte count, tables by
// border unless __len overrides it, everything else requires __len.
func (th *Thread) length(a value.Value) (value.Value, error) {
	if a.IsString() {
		return value.Int(int64(len(a.AsString()))), nil
	}
	if mm := th.state.getMetamethod(a, "__len"); !mm.IsNil() {
		res, err := th.Call(mm, []value.Value{a}, 1)
		return first(res), err
	}
	if a.IsTable() {
		return value.Int(tableLen(a.AsTable())), nil
	}
	return value.Nil, fmt.Errorf("attempt to get length of a %s value", value.TypeName(a))
}

// concat implements spec §4.4's `..`: numbers coerce to their default
// string form, anything else requires __concat.
func (th *Thread) concat(a, b value.Value) (value.Value, error) {
	if (a.IsString() || a.IsNumber()) && (b.IsString() || b.IsNumber()) {
		return value.String(th.state.Intern, concatString(a)+concatString(b)), nil
	}
	mm := th.state.getMetamethod(a, "__concat")
	if mm.IsNil() {
		mm = th.state.getMetamethod(b, "__concat")
	}
	if !mm.IsNil() {
		res, err := th.Call(mm, []value.Value{a, b}, 1)
		return first(res), err
	}
	bad := a
	if a.IsString() || a.IsNumber() {
		bad = b
	}
	return value.Nil, fmt.Errorf("attempt to concatenate a %s value", value.TypeName(bad))
}

func concatString(v value.Value) string {
	if v.IsString() {
		return v.AsString()
	}
	return ToDisplayString(v)
}
