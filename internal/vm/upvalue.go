package vm

import "git.lolli.tech/lollipopkit/lk5/internal/value"

// Upvalue is either open (still aliasing a live register on some thread's
// stack, addressed by index rather than by Go pointer so a stack-growing
// append never invalidates it -- the strict offset-relative discipline
// DESIGN.md's "Stack reallocation" decision calls for) or closed (the
// register went out of scope and the value was copied out, the way
// CLOSE/function-return close every upvalue still pointing into the
// closing range).
type Upvalue struct {
	value.GCHeader

	thread *Thread // nil once closed
	index  int     // register index into thread.stack while open

	closed value.Value // valid once thread == nil
}

func newOpenUpvalue(th *Thread, index int) *Upvalue {
	uv := &Upvalue{thread: th, index: index}
	th.state.collector.LinkObject(uv)
	return uv
}

// NewClosedUpvalue builds an already-closed upvalue around v directly,
// with no aliased stack slot to later close -- used to bind the root
// chunk's `_ENV` upvalue to the globals table, the one upvalue in the
// whole runtime that is never opened over a register.
func NewClosedUpvalue(st *State, v value.Value) *Upvalue {
	uv := &Upvalue{closed: v}
	st.collector.LinkObject(uv)
	return uv
}

func (uv *Upvalue) isOpen() bool { return uv.thread != nil }

// Get reads the upvalue's current value, whichever form it's in.
func (uv *Upvalue) Get() value.Value {
	if uv.thread != nil {
		return uv.thread.stack[uv.index]
	}
	return uv.closed
}

// Set writes through an open upvalue into the aliased stack slot, or
// replaces the closed copy directly. Callers that can reach a Collector
// (SETUPVAL's dispatch handler) are responsible for the write barrier,
// matching how Thread.SetReg leaves table/field barriers to its callers.
func (uv *Upvalue) Set(v value.Value) {
	if uv.thread != nil {
		uv.thread.stack[uv.index] = v
	} else {
		uv.closed = v
	}
}

// close copies the aliased stack value out and detaches from the thread,
// called when the register it pointed at is about to go out of scope
// (function return, or an explicit CLOSE below it).
func (uv *Upvalue) close() {
	if uv.thread == nil {
		return
	}
	uv.closed = uv.thread.stack[uv.index]
	uv.thread = nil
}

func (uv *Upvalue) Trace(mark func(value.GCObject)) {
	if uv.thread == nil {
		if o := uv.closed.Object(); o != nil {
			mark(o)
		}
	}
	// while open, the value lives in the thread's own stack slice and is
	// marked when the thread itself is traced; marking it again here
	// would be harmless but redundant.
}
