package stdlib

import (
	"fmt"

	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenCoroutine installs the `coroutine` library (spec.md §4.7/§5) over
// vm.Thread's Resume/Yield/Status, grounded on the teacher's
// stdlib/lib_coroutine.go registration surface (create/resume/yield/
// status/wrap/isyieldable/running) though the teacher's own
// api_coroutine.go those functions called into is a thin unimplemented
// stub -- the implementation backing these names here is vm/coroutine.go.
func OpenCoroutine(st *vm.State) {
	t := newLib(st, "coroutine", 8)
	reg(st, t, "create", coCreate)
	reg(st, t, "resume", coResume)
	reg(st, t, "yield", coYield)
	reg(st, t, "status", coStatus)
	reg(st, t, "wrap", coWrap)
	reg(st, t, "isyieldable", coIsYieldable)
	reg(st, t, "running", coRunning)
}

func coCreate(st *vm.State, args []value.Value) ([]value.Value, error) {
	fn := arg(args, 0)
	if !fn.IsFunction() {
		return nil, fmt.Errorf("bad argument #1 to 'create' (function expected)")
	}
	th := vm.NewCoroutine(st, fn)
	return one(value.ThreadValue(th)), nil
}

func asThread(v value.Value) (*vm.Thread, bool) {
	if !v.IsThread() {
		return nil, false
	}
	th, ok := v.Object().(*vm.Thread)
	return th, ok
}

func coResume(_ *vm.State, args []value.Value) ([]value.Value, error) {
	th, ok := asThread(arg(args, 0))
	if !ok {
		return nil, fmt.Errorf("bad argument #1 to 'resume' (coroutine expected)")
	}
	results, err := th.Resume(args[1:])
	if err != nil {
		return []value.Value{value.Bool(false), errorValue(err)}, nil
	}
	return append([]value.Value{value.Bool(true)}, results...), nil
}

func errorValue(err error) value.Value {
	if le, ok := err.(*vm.LuaError); ok {
		return le.Value
	}
	return value.StringFromLString(value.NewLongString(err.Error()))
}

func coYield(st *vm.State, args []value.Value) ([]value.Value, error) {
	th := st.Current()
	return th.Yield(args)
}

func coStatus(st *vm.State, args []value.Value) ([]value.Value, error) {
	th, ok := asThread(arg(args, 0))
	if !ok {
		return nil, fmt.Errorf("bad argument #1 to 'status' (coroutine expected)")
	}
	var s string
	switch th.Status() {
	case vm.ThreadRunning:
		s = "running"
	case vm.ThreadSuspended:
		s = "suspended"
	case vm.ThreadNormal:
		s = "normal"
	default:
		s = "dead"
	}
	return one(value.String(st.Intern, s)), nil
}

// coWrap returns a plain function that resumes the underlying coroutine
// and re-raises any error instead of returning the ok/err pair `resume`
// does, matching spec.md §4.7's coroutine.wrap.
func coWrap(st *vm.State, args []value.Value) ([]value.Value, error) {
	fn := arg(args, 0)
	if !fn.IsFunction() {
		return nil, fmt.Errorf("bad argument #1 to 'wrap' (function expected)")
	}
	th := vm.NewCoroutine(st, fn)
	wrapper := func(_ *vm.State, wargs []value.Value) ([]value.Value, error) {
		return th.Resume(wargs)
	}
	gcl := vm.NewGoClosure("wrapped coroutine", wrapper, st.Collector())
	return one(vm.GoClosureValue(gcl)), nil
}

func coIsYieldable(st *vm.State, _ []value.Value) ([]value.Value, error) {
	return one(value.Bool(st.Current() != st.MainThread())), nil
}

func coRunning(st *vm.State, _ []value.Value) ([]value.Value, error) {
	cur := st.Current()
	return []value.Value{value.ThreadValue(cur), value.Bool(cur == st.MainThread())}, nil
}
