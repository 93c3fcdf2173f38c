package vm

import (
	"git.lolli.tech/lollipopkit/lk5/internal/gc"
	"git.lolli.tech/lollipopkit/lk5/internal/table"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// State is the top-level embedding handle: spec §5's "State" object. It
// owns the string intern table, the registry, the collector, and the main
// thread; every coroutine spawned from it shares the same collector and
// intern table, matching spec §4.7's "coroutines share their creator's
// garbage collector and global state".
//
// Grounded on the teacher's lkState (registry + main lkStack) generalized
// to the register-windowed, multi-thread model spec §4.6/§4.7 need.
type State struct {
	Intern    *value.Intern
	collector *gc.Collector

	registry *value.Table
	globals  *value.Table

	main    *Thread
	current *Thread // the thread actually executing right now (main, or a resumed coroutine)

	typeMetas [9]*value.Table // per-base-type shared metatable, indexed by value.Tag base

	warn func(string)
}

// NewState builds a fresh runtime: an empty globals table, a registry, the
// main thread, and a collector wired to both (SetFinalizerFunc lets the
// collector call back into __gc/__close through Call).
func NewState() *State {
	st := &State{
		Intern: value.NewIntern(),
	}
	warn := func(msg string) {
		if st.warn != nil {
			st.warn(msg)
		}
	}
	st.collector = gc.New(st, st.Intern, warn, gc.DefaultParams())
	st.collector.SetFinalizerFunc(st.runFinalizer)

	st.registry = table.New(0, 4)
	st.collector.LinkObject(st.registry)
	st.collector.Fix(st.registry)

	st.globals = table.New(0, 32)
	st.collector.LinkObject(st.globals)

	st.main = newThread(st)
	st.collector.Fix(st.main)
	st.main.status = ThreadRunning
	st.current = st.main

	return st
}

// SetWarnFunc installs the callback finalizer errors and `warn()` output
// are reported through (spec §4.5 "Finalizers", §7 "Errors inside
// finalizers").
func (st *State) SetWarnFunc(f func(string)) { st.warn = f }

func (st *State) Globals() *value.Table   { return st.globals }
func (st *State) Registry() *value.Table  { return st.registry }
func (st *State) Collector() *gc.Collector { return st.collector }
func (st *State) MainThread() *Thread      { return st.main }

// Current is the thread actually running right now: the main thread, or
// whichever coroutine is deepest in a Resume chain. coroutine.yield has no
// other way to find "which Thread is my caller" since GoFunc is not
// handed one (see closure.go) -- it asks the state instead.
func (st *State) Current() *Thread { return st.current }

// GCRoots implements gc.RootProvider: the registry, the globals table, and
// every live thread's stack and call chain (Thread.Trace covers the
// latter once the thread itself is marked as a root).
func (st *State) GCRoots(mark func(value.Value)) {
	mark(value.TableValue(st.registry))
	mark(value.TableValue(st.globals))
	mark(value.ThreadValue(st.main))
	for base := range st.typeMetas {
		if st.typeMetas[base] != nil {
			mark(value.TableValue(st.typeMetas[base]))
		}
	}
}

// GetMetatable resolves v's metatable: its own for tables/userdata, the
// shared per-type table otherwise (spec §4.4 "Metatables").
func (st *State) GetMetatable(v value.Value) *value.Table {
	switch {
	case v.IsTable():
		return v.AsTable().Meta
	case v.IsUserdata():
		if u := v.AsUserdata(); u != nil {
			return u.Meta
		}
		return nil
	default:
		return st.typeMetas[v.Tag().Base()]
	}
}

// SetStringMetatable installs the metatable every string value shares
// (spec §4.4's note that strings have one common metatable, set once by
// the string library to make `("x"):upper()` method syntax work).
func (st *State) SetStringMetatable(mt *value.Table) {
	st.typeMetas[value.BaseString] = mt
}

// runFinalizer invokes a __gc metamethod for a table/userdata the
// collector decided to finalize. Errors are reported through the warn
// callback and otherwise swallowed, per spec §4.5/§7.
func (st *State) runFinalizer(o value.GCObject) {
	var mt *value.Table
	var self value.Value
	switch t := o.(type) {
	case *value.Table:
		mt, self = t.Meta, value.TableValue(t)
	case *value.Userdata:
		mt, self = t.Meta, value.UserdataValue(t)
	default:
		return
	}
	if mt == nil {
		return
	}
	gcField := st.rawGetMeta(mt, "__gc")
	if gcField.IsNil() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if st.warn != nil {
				st.warn(errString(r))
			}
		}
	}()
	st.Call(gcField, []value.Value{self}, 0)
}
