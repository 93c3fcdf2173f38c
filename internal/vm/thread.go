package vm

import "git.lolli.tech/lollipopkit/lk5/internal/value"

// ThreadStatus mirrors spec §4.7's coroutine states.
type ThreadStatus uint8

const (
	ThreadRunning ThreadStatus = iota
	ThreadSuspended
	ThreadNormal // resumed another coroutine, itself not running
	ThreadDead
)

// coMessage is what Resume hands a suspended coroutine to wake it, and
// what Yield/the coroutine's completion hands back to the resumer.
type coMessage struct {
	values []value.Value
	err    error
	done   bool // true once the coroutine body has returned or errored
}

// Thread is a coroutine: spec §4.7's independent register stack and call
// chain, resumed and suspended cooperatively. Grounded on the teacher's
// api_coroutine.go goroutine+channel pattern (`coStatus`/`coCaller`/
// `coChan`), generalized from a single-slot "did it finish" signal to a
// message carrying yielded/returned values and errors both ways.
type Thread struct {
	value.GCHeader

	state *State

	stack []value.Value
	ci    *CallInfo

	status  ThreadStatus
	caller  *Thread     // who resumed us, nil for the main thread and unresumed coroutines
	entryFn value.Value // the function this coroutine's goroutine runs, set by NewCoroutine

	resumeCh chan coMessage // resumer -> coroutine goroutine
	yieldCh  chan coMessage // coroutine goroutine -> resumer
	started  bool
}

func newThread(st *State) *Thread {
	th := &Thread{
		state:  st,
		stack:  make([]value.Value, initialStackSize),
		status: ThreadSuspended,
	}
	st.collector.LinkObject(th)
	return th
}

const initialStackSize = 64

// ensureStack grows the register file so index n is valid, matching the
// teacher's lkStack.check: Go slices move on growth, so every live
// reference into the stack is an index, never a pointer, per DESIGN.md.
func (th *Thread) ensureStack(n int) {
	if n < len(th.stack) {
		return
	}
	grown := make([]value.Value, n*2+16)
	copy(grown, th.stack)
	th.stack = grown
}

func (th *Thread) Trace(mark func(value.GCObject)) {
	for i := range th.stack {
		if o := th.stack[i].Object(); o != nil {
			mark(o)
		}
	}
	for ci := th.ci; ci != nil; ci = ci.prev {
		if o := ci.closure.Object(); o != nil {
			mark(o)
		}
		for _, uv := range ci.openUpvals {
			mark(uv)
		}
	}
}

// GetReg/SetReg address a register relative to the currently executing
// frame. SetReg does not take a write barrier itself -- the stack slice is
// owned by the thread, not by any single GCObject field, so the thread as
// a whole is re-marked by the collector's normal root/trace pass rather
// than needing a per-store barrier.
func (th *Thread) GetReg(ci *CallInfo, r int) value.Value { return th.stack[ci.base+r] }
func (th *Thread) SetReg(ci *CallInfo, r int, v value.Value) {
	th.ensureStack(ci.base + r + 1)
	th.stack[ci.base+r] = v
}

// findOrOpenUpvalue returns the open upvalue already aliasing register r
// of ci, creating one if this is the first closure to capture it (spec
// §4.6's "at most one open upvalue per live register").
func (th *Thread) findOrOpenUpvalue(ci *CallInfo, r int) *Upvalue {
	idx := ci.base + r
	if ci.openUpvals == nil {
		ci.openUpvals = make(map[int]*Upvalue)
	}
	if uv, ok := ci.openUpvals[idx]; ok {
		return uv
	}
	uv := newOpenUpvalue(th, idx)
	ci.openUpvals[idx] = uv
	return uv
}

// closeUpvalsFrom closes every open upvalue of ci at or above register
// from, copying the aliased stack value out before the frame it lives in
// goes away (spec §4.6 CLOSE / function return).
func (th *Thread) closeUpvalsFrom(ci *CallInfo, from int) {
	if len(ci.openUpvals) == 0 {
		return
	}
	threshold := ci.base + from
	for idx, uv := range ci.openUpvals {
		if idx >= threshold {
			uv.close()
			delete(ci.openUpvals, idx)
		}
	}
}
