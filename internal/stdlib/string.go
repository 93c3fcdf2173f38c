package stdlib

import (
	"fmt"
	"strings"

	"git.lolli.tech/lollipopkit/lk5/internal/table"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenString installs the `string` library (spec.md §5). Grounded on the
// teacher's stdlib/lib_string.go strLib map, renamed from the teacher's
// dialect (`repeat`/`split`/`join`/`contains`) back to standard Lua 5.5
// names (`rep`/`find`/`gsub`/`format` are new here; `split`/`join` have
// no Lua 5.5 counterpart and are dropped per SPEC_FULL.md §5's "standard
// surface syntax" decision -- `contains` survives as `find`'s simplest
// use).
func OpenString(st *vm.State) {
	t := newLib(st, "string", 16)

	reg(st, t, "len", strLen)
	reg(st, t, "sub", strSub)
	reg(st, t, "upper", strUpper)
	reg(st, t, "lower", strLower)
	reg(st, t, "rep", strRep)
	reg(st, t, "reverse", strReverse)
	reg(st, t, "byte", strByte)
	reg(st, t, "char", strChar)
	reg(st, t, "format", strFormat)
	reg(st, t, "find", strFind)
	reg(st, t, "gsub", strGsub)

	// every string shares this one metatable so `("x"):upper()` method
	// syntax works, per spec.md §4.4's note on strings' common metatable.
	mt := table.New(0, 1)
	st.Collector().LinkObject(mt)
	table.Set(mt, value.String(st.Intern, "__index"), value.TableValue(t))
	st.SetStringMetatable(mt)
}

func strArgString(args []value.Value, i int) (string, error) {
	v := arg(args, i)
	if v.IsString() {
		return v.AsString(), nil
	}
	if v.IsNumber() {
		return vm.ToDisplayString(v), nil
	}
	return "", fmt.Errorf("bad argument #%d (string expected, got %s)", i+1, value.TypeName(v))
}

func strLen(_ *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	return one(value.Int(int64(len(s)))), nil
}

// strIndex implements Lua's 1-based, negative-counts-from-end string
// index normalization shared by sub/byte.
func strIndex(i, length int64) int64 {
	if i >= 0 {
		return i
	}
	if -i > length {
		return 0
	}
	return length + i + 1
}

func strSub(_ *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	length := int64(len(s))
	i := int64(1)
	if len(args) >= 2 {
		i, _ = value.ToInteger(args[1])
	}
	j := int64(-1)
	if len(args) >= 3 {
		j, _ = value.ToInteger(args[2])
	}
	i, j = strIndex(i, length), strIndex(j, length)
	if i < 1 {
		i = 1
	}
	if j > length {
		j = length
	}
	if i > j {
		return one(value.StringFromLString(value.NewLongString(""))), nil
	}
	return one(value.StringFromLString(value.NewLongString(s[i-1 : j]))), nil
}

func strUpper(st *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	return one(value.String(st.Intern, strings.ToUpper(s))), nil
}

func strLower(st *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	return one(value.String(st.Intern, strings.ToLower(s))), nil
}

func strRep(st *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	n, _ := value.ToInteger(arg(args, 1))
	sep := ""
	if len(args) >= 3 {
		sep, _ = strArgString(args, 2)
	}
	if n <= 0 {
		return one(value.String(st.Intern, "")), nil
	}
	parts := make([]string, n)
	for i := range parts {
		parts[i] = s
	}
	return one(value.String(st.Intern, strings.Join(parts, sep))), nil
}

func strReverse(st *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return one(value.String(st.Intern, string(b))), nil
}

func strByte(_ *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	length := int64(len(s))
	i := int64(1)
	if len(args) >= 2 {
		i, _ = value.ToInteger(args[1])
	}
	j := i
	if len(args) >= 3 {
		j, _ = value.ToInteger(args[2])
	}
	i, j = strIndex(i, length), strIndex(j, length)
	if i < 1 {
		i = 1
	}
	if j > length {
		j = length
	}
	if i > j {
		return nil, nil
	}
	out := make([]value.Value, 0, j-i+1)
	for k := i; k <= j; k++ {
		out = append(out, value.Int(int64(s[k-1])))
	}
	return out, nil
}

func strChar(st *vm.State, args []value.Value) ([]value.Value, error) {
	b := make([]byte, len(args))
	for i, a := range args {
		n, ok := value.ToInteger(a)
		if !ok {
			return nil, fmt.Errorf("bad argument #%d to 'char' (number expected)", i+1)
		}
		b[i] = byte(n)
	}
	return one(value.String(st.Intern, string(b))), nil
}

// strFormat implements a practical subset of Lua's string.format: %d %i %u
// %s %q %f %g %x %X %o %c %%, delegating width/precision/flag parsing to
// fmt.Sprintf (Go's verbs are a strict superset of C's printf family for
// these conversions).
func strFormat(st *vm.State, args []value.Value) ([]value.Value, error) {
	f, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	var out strings.Builder
	argi := 1
	for i := 0; i < len(f); i++ {
		c := f[i]
		if c != '%' {
			out.WriteByte(c)
			continue
		}
		start := i
		i++
		for i < len(f) && strings.ContainsRune("-+ #0123456789.", rune(f[i])) {
			i++
		}
		if i >= len(f) {
			return nil, fmt.Errorf("invalid format string to 'format'")
		}
		verb := f[i]
		spec := f[start : i+1]
		if verb == '%' {
			out.WriteByte('%')
			continue
		}
		v := arg(args, argi)
		argi++
		switch verb {
		case 'd', 'i', 'u':
			n, _ := value.ToInteger(v)
			fmt.Fprintf(&out, spec[:len(spec)-1]+"d", n)
		case 'x', 'X', 'o':
			n, _ := value.ToInteger(v)
			fmt.Fprintf(&out, spec, n)
		case 'c':
			n, _ := value.ToInteger(v)
			out.WriteByte(byte(n))
		case 'f', 'F', 'g', 'G', 'e', 'E':
			n, _ := value.ToNumber(v)
			fmt.Fprintf(&out, spec, numToFloat(n))
		case 's':
			s, serr := st.Current().ToString(v)
			if serr != nil {
				return nil, serr
			}
			fmt.Fprintf(&out, spec, s)
		case 'q':
			fmt.Fprintf(&out, "%q", vm.ToDisplayString(v))
		default:
			return nil, fmt.Errorf("invalid conversion '%%%c' to 'format'", verb)
		}
	}
	return one(value.String(st.Intern, out.String())), nil
}

func numToFloat(v value.Value) float64 {
	if v.IsInteger() {
		return float64(v.AsInt())
	}
	return v.AsFloat()
}

// strFind and strGsub support only a plain-text (non-pattern) needle, a
// deliberate scope cut from Lua's full pattern-matching language (noted
// in DESIGN.md): most scripts' `find`/`gsub` calls use literal substrings,
// and a Lua pattern engine is a large, separable piece of work.
func strFind(st *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	pat, err := strArgString(args, 1)
	if err != nil {
		return nil, err
	}
	init := 0
	if len(args) >= 3 {
		n, _ := value.ToInteger(args[2])
		init = int(strIndex(n, int64(len(s)))) - 1
		if init < 0 {
			init = 0
		}
	}
	if init > len(s) {
		return one(value.Nil), nil
	}
	idx := strings.Index(s[init:], pat)
	if idx < 0 {
		return one(value.Nil), nil
	}
	start := init + idx + 1
	end := start + len(pat) - 1
	return []value.Value{value.Int(int64(start)), value.Int(int64(end))}, nil
}

func strGsub(st *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	pat, err := strArgString(args, 1)
	if err != nil {
		return nil, err
	}
	repl, err := strArgString(args, 2)
	if err != nil {
		return nil, err
	}
	n := -1
	if len(args) >= 4 {
		nn, _ := value.ToInteger(args[3])
		n = int(nn)
	}
	count := strings.Count(s, pat)
	if n >= 0 && count > n {
		count = n
		out := s
		for i := 0; i < n; i++ {
			idx := strings.Index(out, pat)
			out = out[:idx] + repl + out[idx+len(pat):]
		}
		return []value.Value{value.String(st.Intern, out), value.Int(int64(n))}, nil
	}
	return []value.Value{value.String(st.Intern, strings.ReplaceAll(s, pat, repl)), value.Int(int64(count))}, nil
}
