package vm

import (
	"fmt"

	"git.lolli.tech/lollipopkit/lk5/internal/table"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// rawGetMeta looks up a metamethod name on a metatable. It goes through
// st.Intern so the lookup uses the same interned short string every other
// field access on that table would, rather than allocating a throwaway
// *LString per call.
func (st *State) rawGetMeta(mt *value.Table, name string) value.Value {
	if mt == nil {
		return value.Nil
	}
	return table.GetStr(mt, st.Intern.NewShortString(name))
}

// getMetamethod resolves name on v's metatable, nil if v (or its type) has
// none or the field is absent.
func (st *State) getMetamethod(v value.Value, name string) value.Value {
	mt := st.GetMetatable(v)
	if mt == nil {
		return value.Nil
	}
	return st.rawGetMeta(mt, name)
}

// errString renders a recovered panic value the way the teacher's PCall
// handler does, accepting either a Go error, a Lua error Value, or a bare
// string/other panic payload.
func errString(r any) string {
	switch e := r.(type) {
	case *LuaError:
		return ToDisplayString(e.Value)
	case error:
		return e.Error()
	case string:
		return e
	default:
		return fmt.Sprintf("%v", e)
	}
}

// LuaError wraps a Lua-level error value (spec §4.7's "error object" is
// any Value, not just a string) so panic/recover can carry it through
// Go's call stack without losing its type.
type LuaError struct {
	Value     value.Value
	Traceback string
}

func (e *LuaError) Error() string { return ToDisplayString(e.Value) }

// ToDisplayString renders v the way `tostring`/error messages do: the
// __tostring metamethod if present, else a type-appropriate literal.
func ToDisplayString(v value.Value) string {
	switch {
	case v.IsNil():
		return "nil"
	case v.IsBoolean():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsString():
		return v.AsString()
	case v.IsInteger():
		return fmt.Sprintf("%d", v.AsInt())
	case v.IsFloat():
		return formatFloat(v.AsFloat())
	case v.IsTable():
		return fmt.Sprintf("table: %p", v.Object())
	case v.IsFunction():
		return fmt.Sprintf("function: %p", v.Object())
	case v.IsThread():
		return fmt.Sprintf("thread: %p", v.Object())
	default:
		return fmt.Sprintf("userdata: %p", v.Object())
	}
}

// ToString is the metamethod-aware counterpart of ToDisplayString: spec
// §4.4's `tostring`, which defers to a value's `__tostring` metamethod
// before falling back to the literal rendering.
func (th *Thread) ToString(v value.Value) (string, error) {
	if mm := th.state.getMetamethod(v, "__tostring"); !mm.IsNil() {
		res, err := th.Call(mm, []value.Value{v}, 1)
		if err != nil {
			return "", err
		}
		return ToDisplayString(first(res)), nil
	}
	return ToDisplayString(v), nil
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%.14g", f)
	// integral-valued floats still print with a trailing ".0" so
	// `print(1.0)` reads "1.0", not "1" (spec §4.1's float/integer
	// subtype distinction must survive tostring).
	hasDot := false
	for i := 0; i < len(s); i++ {
		if s[i] == '.' || s[i] == 'e' || s[i] == 'n' || s[i] == 'i' {
			hasDot = true
			break
		}
	}
	if !hasDot {
		s += ".0"
	}
	return s
}
