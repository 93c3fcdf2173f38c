package stdlib

import (
	"math"
	"math/rand"

	"git.lolli.tech/lollipopkit/lk5/internal/table"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenMath installs the `math` library (spec.md §5), grounded on the
// teacher's stdlib/lib_math.go + lib_num.go (split across two files
// there; one library here, matching reference Lua).
func OpenMath(st *vm.State) {
	t := newLib(st, "math", 24)
	table.Set(t, value.String(st.Intern, "pi"), value.Float(math.Pi))
	table.Set(t, value.String(st.Intern, "huge"), value.Float(math.Inf(1)))
	table.Set(t, value.String(st.Intern, "maxinteger"), value.Int(value.MaxInteger))
	table.Set(t, value.String(st.Intern, "mininteger"), value.Int(value.MinInteger))

	reg(st, t, "abs", mathAbs)
	reg(st, t, "ceil", mathToIntFn(math.Ceil))
	reg(st, t, "floor", mathToIntFn(math.Floor))
	reg(st, t, "sqrt", mathFloat1(math.Sqrt))
	reg(st, t, "sin", mathFloat1(math.Sin))
	reg(st, t, "cos", mathFloat1(math.Cos))
	reg(st, t, "tan", mathFloat1(math.Tan))
	reg(st, t, "asin", mathFloat1(math.Asin))
	reg(st, t, "acos", mathFloat1(math.Acos))
	reg(st, t, "atan", mathFloat1(math.Atan))
	reg(st, t, "exp", mathFloat1(math.Exp))
	reg(st, t, "log", mathLog)
	reg(st, t, "max", mathMax)
	reg(st, t, "min", mathMin)
	reg(st, t, "fmod", mathFmod)
	reg(st, t, "modf", mathModf)
	reg(st, t, "tointeger", mathToInteger)
	reg(st, t, "type", mathType)
	reg(st, t, "random", mathRandom)
	reg(st, t, "randomseed", mathRandomSeed)
}

func numArg(args []value.Value, i int) float64 {
	n, _ := value.ToNumber(arg(args, i))
	return numToFloat(n)
}

func mathAbs(_ *vm.State, args []value.Value) ([]value.Value, error) {
	v := arg(args, 0)
	if v.IsInteger() {
		n := v.AsInt()
		if n < 0 {
			n = -n
		}
		return one(value.Int(n)), nil
	}
	return one(value.Float(math.Abs(numArg(args, 0)))), nil
}

func mathFloat1(f func(float64) float64) vm.GoFunc {
	return func(_ *vm.State, args []value.Value) ([]value.Value, error) {
		return one(value.Float(f(numArg(args, 0)))), nil
	}
}

// mathToIntFn backs ceil/floor: like Lua, it returns an integer when the
// result fits in int64 and a float otherwise (for example for 1e300, or
// for inf and NaN).
func mathToIntFn(f func(float64) float64) vm.GoFunc {
	return func(_ *vm.State, args []value.Value) ([]value.Value, error) {
		v := arg(args, 0)
		if v.IsInteger() {
			return one(v), nil
		}
		r := f(numArg(args, 0))
		if n, ok := value.FloatToInteger(r, value.FloatExact); ok {
			return one(value.Int(n)), nil
		}
		return one(value.Float(r)), nil
	}
}

func mathLog(_ *vm.State, args []value.Value) ([]value.Value, error) {
	x := numArg(args, 0)
	if len(args) >= 2 {
		base := numArg(args, 1)
		return one(value.Float(math.Log(x) / math.Log(base))), nil
	}
	return one(value.Float(math.Log(x))), nil
}

func mathMax(_ *vm.State, args []value.Value) ([]value.Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	best := args[0]
	for _, v := range args[1:] {
		if numToFloat(mustNum(v)) > numToFloat(mustNum(best)) {
			best = v
		}
	}
	return one(best), nil
}

func mathMin(_ *vm.State, args []value.Value) ([]value.Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	best := args[0]
	for _, v := range args[1:] {
		if numToFloat(mustNum(v)) < numToFloat(mustNum(best)) {
			best = v
		}
	}
	return one(best), nil
}

func mustNum(v value.Value) value.Value {
	n, ok := value.ToNumber(v)
	if !ok {
		return value.Float(0)
	}
	return n
}

func mathFmod(_ *vm.State, args []value.Value) ([]value.Value, error) {
	a, b := arg(args, 0), arg(args, 1)
	if a.IsInteger() && b.IsInteger() && b.AsInt() != 0 {
		return one(value.Int(a.AsInt() % b.AsInt())), nil
	}
	return one(value.Float(math.Mod(numArg(args, 0), numArg(args, 1)))), nil
}

func mathModf(_ *vm.State, args []value.Value) ([]value.Value, error) {
	ip, fp := math.Modf(numArg(args, 0))
	return []value.Value{value.Float(ip), value.Float(fp)}, nil
}

func mathToInteger(_ *vm.State, args []value.Value) ([]value.Value, error) {
	v := arg(args, 0)
	if v.IsInteger() {
		return one(v), nil
	}
	if v.IsFloat() {
		if n, ok := value.FloatToInteger(v.AsFloat(), value.FloatExact); ok {
			return one(value.Int(n)), nil
		}
	}
	return one(value.Nil), nil
}

func mathType(st *vm.State, args []value.Value) ([]value.Value, error) {
	v := arg(args, 0)
	switch {
	case v.IsInteger():
		return one(value.String(st.Intern, "integer")), nil
	case v.IsFloat():
		return one(value.String(st.Intern, "float")), nil
	default:
		return one(value.Nil), nil
	}
}

func mathRandom(_ *vm.State, args []value.Value) ([]value.Value, error) {
	switch len(args) {
	case 0:
		return one(value.Float(rand.Float64())), nil
	case 1:
		m, _ := value.ToInteger(args[0])
		return one(value.Int(1 + rand.Int63n(m))), nil
	default:
		lo, _ := value.ToInteger(args[0])
		hi, _ := value.ToInteger(args[1])
		return one(value.Int(lo + rand.Int63n(hi-lo+1))), nil
	}
}

func mathRandomSeed(_ *vm.State, args []value.Value) ([]value.Value, error) {
	seed, _ := value.ToInteger(arg(args, 0))
	rand.Seed(seed)
	return nil, nil
}
