package stdlib

import (
	"fmt"

	"git.lolli.tech/lollipopkit/lk5/internal/table"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenBase installs the unnamespaced globals spec.md §5 lists as always
// present: print/type/tostring/tonumber, the raw* family, pairs/ipairs/
// next, (x)pcall, assert/error, select, and setmetatable/getmetatable.
// Grounded on the teacher's stdlib/lib_basic.go baseFuncs map, renamed
// back from the teacher's own `irange`/`range`/`str`/`num` dialect to
// standard Lua 5.5 names (`ipairs`/`pairs`/`tostring`/`tonumber`) per
// SPEC_FULL.md §5's "standard Lua 5.5 surface syntax" decision.
func OpenBase(st *vm.State) {
	g := st.Globals()
	table.Set(g, value.String(st.Intern, "_G"), value.TableValue(g))
	table.Set(g, value.String(st.Intern, "_VERSION"), value.String(st.Intern, "Lua 5.5"))

	reg(st, g, "print", basePrint)
	reg(st, g, "type", baseType)
	reg(st, g, "tostring", baseToString)
	reg(st, g, "tonumber", baseToNumber)
	reg(st, g, "pairs", basePairs)
	reg(st, g, "ipairs", baseIPairs)
	reg(st, g, "next", baseNext)
	reg(st, g, "error", baseError)
	reg(st, g, "assert", baseAssert)
	reg(st, g, "pcall", basePCall)
	reg(st, g, "xpcall", baseXPCall)
	reg(st, g, "select", baseSelect)
	reg(st, g, "rawget", baseRawGet)
	reg(st, g, "rawset", baseRawSet)
	reg(st, g, "rawequal", baseRawEqual)
	reg(st, g, "rawlen", baseRawLen)
	reg(st, g, "setmetatable", baseSetMetatable)
	reg(st, g, "getmetatable", baseGetMetatable)
	reg(st, g, "unpack", baseUnpack)
}

func basePrint(st *vm.State, args []value.Value) ([]value.Value, error) {
	th := st.Current()
	parts := make([]byte, 0, 64)
	for i, a := range args {
		if i > 0 {
			parts = append(parts, '\t')
		}
		s, err := th.ToString(a)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s...)
	}
	parts = append(parts, '\n')
	fmt.Print(string(parts))
	return nil, nil
}

func baseType(st *vm.State, args []value.Value) ([]value.Value, error) {
	return one(value.String(st.Intern, value.TypeName(arg(args, 0)))), nil
}

func baseToString(st *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := st.Current().ToString(arg(args, 0))
	if err != nil {
		return nil, err
	}
	return one(value.String(st.Intern, s)), nil
}

func baseToNumber(st *vm.State, args []value.Value) ([]value.Value, error) {
	v := arg(args, 0)
	if len(args) >= 2 {
		// base-conversion form: tonumber(s, base)
		base, ok := value.ToInteger(arg(args, 1))
		s := v.AsString()
		if !ok || !v.IsString() {
			return one(value.Nil), nil
		}
		n, err := parseIntBase(s, int(base))
		if err != nil {
			return one(value.Nil), nil
		}
		return one(value.Int(n)), nil
	}
	n, ok := value.ToNumber(v)
	if !ok {
		return one(value.Nil), nil
	}
	return one(n), nil
}

func parseIntBase(s string, base int) (int64, error) {
	var neg bool
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "" {
		return 0, fmt.Errorf("empty numeral")
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		case c >= 'a' && c <= 'z':
			d = int64(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			d = int64(c-'A') + 10
		default:
			return 0, fmt.Errorf("invalid digit")
		}
		if d >= int64(base) {
			return 0, fmt.Errorf("digit out of range")
		}
		n = n*int64(base) + d
	}
	if neg {
		n = -n
	}
	return n, nil
}

func basePairs(st *vm.State, args []value.Value) ([]value.Value, error) {
	t := arg(args, 0)
	if mm := st.GetMetatable(t); mm != nil {
		if pf := table.GetStr(mm, st.Intern.NewShortString("__pairs")); !pf.IsNil() {
			return st.Current().Call(pf, []value.Value{t}, -1)
		}
	}
	return []value.Value{nextClosure(st), t, value.Nil}, nil
}

func nextClosure(st *vm.State) value.Value {
	gcl := vm.NewGoClosure("next", baseNext, st.Collector())
	return vm.GoClosureValue(gcl)
}

func baseNext(_ *vm.State, args []value.Value) ([]value.Value, error) {
	t := arg(args, 0)
	if !t.IsTable() {
		return nil, fmt.Errorf("bad argument #1 to 'next' (table expected)")
	}
	nk, nv, ok := table.Next(t.AsTable(), arg(args, 1))
	if !ok {
		return one(value.Nil), nil
	}
	return []value.Value{nk, nv}, nil
}

func baseIPairs(st *vm.State, args []value.Value) ([]value.Value, error) {
	gcl := vm.NewGoClosure("inext", ipairsIter, st.Collector())
	return []value.Value{vm.GoClosureValue(gcl), arg(args, 0), value.Int(0)}, nil
}

func ipairsIter(_ *vm.State, args []value.Value) ([]value.Value, error) {
	t := arg(args, 0)
	i, _ := value.ToInteger(arg(args, 1))
	i++
	if !t.IsTable() {
		return one(value.Nil), nil
	}
	v := table.Get(t.AsTable(), value.Int(i))
	if v.IsNil() {
		return one(value.Nil), nil
	}
	return []value.Value{value.Int(i), v}, nil
}

func baseError(st *vm.State, args []value.Value) ([]value.Value, error) {
	v := arg(args, 0)
	level := int64(1)
	if len(args) >= 2 {
		level, _ = value.ToInteger(args[1])
	}
	if v.IsString() && level > 0 {
		v = value.String(st.Intern, v.AsString())
	}
	return nil, &vm.LuaError{Value: v}
}

func baseAssert(st *vm.State, args []value.Value) ([]value.Value, error) {
	v := arg(args, 0)
	if v.Truthy() {
		return args, nil
	}
	msg := arg(args, 1)
	if msg.IsNil() {
		msg = value.String(st.Intern, "assertion failed!")
	}
	return nil, &vm.LuaError{Value: msg}
}

func basePCall(st *vm.State, args []value.Value) ([]value.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("bad argument #1 to 'pcall' (value expected)")
	}
	th := st.Current()
	results, err := th.PCall(args[0], args[1:], -1)
	if err != nil {
		return []value.Value{value.Bool(false), errToValue(st, err)}, nil
	}
	return append([]value.Value{value.Bool(true)}, results...), nil
}

func baseXPCall(st *vm.State, args []value.Value) ([]value.Value, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("bad argument #2 to 'xpcall' (value expected)")
	}
	th := st.Current()
	handler := args[1]
	results, err := th.PCall(args[0], args[2:], -1)
	if err != nil {
		hres, herr := th.Call(handler, []value.Value{errToValue(st, err)}, -1)
		if herr != nil {
			return []value.Value{value.Bool(false), errToValue(st, herr)}, nil
		}
		return append([]value.Value{value.Bool(false)}, hres...), nil
	}
	return append([]value.Value{value.Bool(true)}, results...), nil
}

func errToValue(st *vm.State, err error) value.Value {
	if le, ok := err.(*vm.LuaError); ok {
		return le.Value
	}
	return value.String(st.Intern, err.Error())
}

func baseSelect(_ *vm.State, args []value.Value) ([]value.Value, error) {
	sel := arg(args, 0)
	if sel.IsString() && sel.AsString() == "#" {
		return one(value.Int(int64(len(args) - 1))), nil
	}
	n, ok := value.ToInteger(sel)
	if !ok || n < 1 {
		return nil, fmt.Errorf("bad argument #1 to 'select' (index out of range)")
	}
	if int(n) >= len(args) {
		return nil, nil
	}
	return args[n:], nil
}

func baseRawGet(_ *vm.State, args []value.Value) ([]value.Value, error) {
	t := arg(args, 0)
	if !t.IsTable() {
		return nil, fmt.Errorf("bad argument #1 to 'rawget' (table expected)")
	}
	return one(table.Get(t.AsTable(), arg(args, 1))), nil
}

func baseRawSet(_ *vm.State, args []value.Value) ([]value.Value, error) {
	t := arg(args, 0)
	if !t.IsTable() {
		return nil, fmt.Errorf("bad argument #1 to 'rawset' (table expected)")
	}
	table.Set(t.AsTable(), arg(args, 1), arg(args, 2))
	return one(t), nil
}

func baseRawEqual(_ *vm.State, args []value.Value) ([]value.Value, error) {
	return one(value.Bool(value.RawEqual(arg(args, 0), arg(args, 1)))), nil
}

func baseRawLen(_ *vm.State, args []value.Value) ([]value.Value, error) {
	v := arg(args, 0)
	if v.IsString() {
		return one(value.Int(int64(len(v.AsString())))), nil
	}
	if v.IsTable() {
		return one(value.Int(table.Len(v.AsTable()))), nil
	}
	return nil, fmt.Errorf("table or string expected")
}

func baseSetMetatable(st *vm.State, args []value.Value) ([]value.Value, error) {
	t := arg(args, 0)
	if !t.IsTable() {
		return nil, fmt.Errorf("bad argument #1 to 'setmetatable' (table expected)")
	}
	mtv := arg(args, 1)
	if mtv.IsNil() {
		t.AsTable().Meta = nil
	} else if mtv.IsTable() {
		t.AsTable().Meta = mtv.AsTable()
	} else {
		return nil, fmt.Errorf("bad argument #2 to 'setmetatable' (nil or table expected)")
	}
	t.AsTable().Mode = value.WeakNone
	if mt := t.AsTable().Meta; mt != nil {
		if m := table.Get(mt, value.String(st.Intern, "__mode")); m.IsString() {
			for _, ch := range m.AsString() {
				switch ch {
				case 'k':
					t.AsTable().Mode |= value.WeakKey
				case 'v':
					t.AsTable().Mode |= value.WeakValue
				}
			}
		}
	}
	return one(t), nil
}

func baseGetMetatable(st *vm.State, args []value.Value) ([]value.Value, error) {
	mt := st.GetMetatable(arg(args, 0))
	if mt == nil {
		return one(value.Nil), nil
	}
	return one(value.TableValue(mt)), nil
}

func baseUnpack(_ *vm.State, args []value.Value) ([]value.Value, error) {
	return tableUnpack(args)
}
