// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package stdlib implements the base/string/table/math/os/coroutine/json
// libraries spec.md §5 describes as built into every State, registered
// the way the teacher's stdlib package does: one `map[string]GoFunction`
// per library plus an `Open*Lib` installer, adapted here to lk5's
// GoFunc/GoClosure types (vm.GoFunc takes no LkState receiver to push
// arguments/results onto -- it gets its args slice directly and returns
// its results directly, so the registration helper is a plain table
// insert rather than the teacher's `ls.SetFuncs`).
package stdlib

import (
	"git.lolli.tech/lollipopkit/lk5/internal/table"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenAll installs every standard library into st, matching the set of
// `Open*Lib` calls the teacher's run.go makes before executing a script.
func OpenAll(st *vm.State) {
	OpenBase(st)
	OpenString(st)
	OpenTable(st)
	OpenMath(st)
	OpenOS(st)
	OpenIO(st)
	OpenCoroutine(st)
	OpenJSON(st)
}

// newLib allocates a fresh library table, links it with the collector
// (every GCObject reachable from a root must be, per gc's contract), and
// assigns it into globals under name.
func newLib(st *vm.State, name string, nrec int) *value.Table {
	t := table.New(0, nrec)
	st.Collector().LinkObject(t)
	table.Set(st.Globals(), value.String(st.Intern, name), value.TableValue(t))
	return t
}

// reg installs fn under name in t, wrapping it in a GoClosure the
// collector tracks like any other function object.
func reg(st *vm.State, t *value.Table, name string, fn vm.GoFunc) {
	gcl := vm.NewGoClosure(name, fn, st.Collector())
	table.Set(t, value.String(st.Intern, name), vm.GoClosureValue(gcl))
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Nil
}

func one(v value.Value) []value.Value { return []value.Value{v} }
