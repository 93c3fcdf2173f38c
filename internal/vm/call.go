package vm

import (
	"fmt"

	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// Call invokes fn on the state's main thread with args, propagating any
// error as a Go error (spec §4.6's unprotected call: the caller is
// expected to already be inside a protected boundary, or to want the
// panic to propagate). nResults is the number of return values wanted, or
// -1 for all of them.
func (st *State) Call(fn value.Value, args []value.Value, nResults int) ([]value.Value, error) {
	return st.main.Call(fn, args, nResults)
}

// PCall is spec §4.6's protected call: Call, but panics raised anywhere
// in the callee (including metamethods and nested Go closures) are
// recovered and returned as an error rather than propagating further.
func (st *State) PCall(fn value.Value, args []value.Value, nResults int) (results []value.Value, err error) {
	return st.main.PCall(fn, args, nResults)
}

// Call runs fn on this thread. A Lua function is dispatched through the
// bytecode loop; a Go function is invoked directly. Grounded on the
// teacher's api_call.go Call/callLuaClosure/callGoClosure split.
func (th *Thread) Call(fn value.Value, args []value.Value, nResults int) ([]value.Value, error) {
	lc, gcl, ok := AsCallable(fn)
	if !ok {
		if mm := th.state.getMetamethod(fn, "__call"); !mm.IsNil() {
			return th.Call(mm, append([]value.Value{fn}, args...), nResults)
		}
		return nil, fmt.Errorf("attempt to call a %s value", typeName(fn))
	}
	if gcl != nil {
		return th.callGo(gcl, args, nResults)
	}
	return th.callLua(lc, args, nResults)
}

// PCall is Call wrapped in recover, matching the teacher's api_call.go
// PCall's defer/recover boundary but returning the error instead of
// printing it (the CLI/REPL decide how to surface it).
func (th *Thread) PCall(fn value.Value, args []value.Value, nResults int) (results []value.Value, err error) {
	savedCI := th.ci
	defer func() {
		if r := recover(); r != nil {
			th.ci = savedCI
			switch e := r.(type) {
			case *LuaError:
				err = e
			case error:
				err = e
			default:
				err = fmt.Errorf("%v", e)
			}
		}
	}()
	results, err = th.Call(fn, args, nResults)
	return
}

func (th *Thread) callGo(gcl *GoClosure, args []value.Value, nResults int) ([]value.Value, error) {
	parent := th.ci
	base := len(th.stack)
	th.ci = &CallInfo{prev: parent, closure: GoClosureValue(gcl), base: base, nResults: nResults}
	defer func() { th.ci = parent }()

	results, err := gcl.Fn(th.state, args)
	if err != nil {
		return nil, err
	}
	return adjustResults(results, nResults), nil
}

func (th *Thread) callLua(lc *LClosure, args []value.Value, nResults int) ([]value.Value, error) {
	p := lc.Proto
	nParams := int(p.NumParams)
	nRegs := int(p.MaxStackSize)
	if nRegs < nParams {
		nRegs = nParams
	}

	base := len(th.stack)
	th.ensureStack(base + nRegs + 1)

	for i := 0; i < nRegs; i++ {
		if i < len(args) && i < nParams {
			th.stack[base+i] = args[i]
		} else {
			th.stack[base+i] = value.Nil
		}
	}

	var varargs []value.Value
	if p.IsVararg && len(args) > nParams {
		varargs = append(varargs, args[nParams:]...)
	}

	parent := th.ci
	ci := &CallInfo{
		prev:     parent,
		closure:  LuaClosureValue(lc),
		base:     base,
		top:      base + nRegs,
		pc:       0,
		varargs:  varargs,
		nResults: nResults,
	}
	th.ci = ci
	defer func() {
		th.closeUpvalsFrom(ci, 0)
		th.ci = parent
		th.stack = th.stack[:base]
	}()

	results, err := th.execute(ci)
	if err != nil {
		return nil, err
	}
	return adjustResults(results, nResults), nil
}

// adjustResults pads or truncates results to exactly n, unless n is -1
// ("multret"), matching spec §4.6's call-result adjustment rule.
func adjustResults(results []value.Value, n int) []value.Value {
	if n < 0 {
		return results
	}
	if len(results) >= n {
		return results[:n]
	}
	out := make([]value.Value, n)
	copy(out, results)
	return out
}

func typeName(v value.Value) string { return value.TypeName(v) }
