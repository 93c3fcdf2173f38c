package vm

import "git.lolli.tech/lollipopkit/lk5/internal/value"

// CallInfo is one frame of the call chain (spec §4.6): the running
// closure, this frame's register window into the owning Thread's stack
// (by index, never by pointer -- see DESIGN.md's stack-reallocation
// decision), its program counter, and the bookkeeping CALL/RETURN and
// to-be-closed locals need at frame exit. Grounded on the teacher's
// lkStack, generalized from "one Go-allocated stack per call" to "one
// frame struct sharing the thread's single growable register file".
type CallInfo struct {
	prev *CallInfo

	closure value.Value // Nil for the bottom frame of a coroutine's entry point
	base    int         // index into thread.stack of register 0
	top     int         // one past the highest register this frame has used

	pc int // next instruction index into closure's Proto.Code (Lua frames only)

	varargs []value.Value

	nResults int // results the caller asked for; -1 means "all of them"
	isTail   bool

	openUpvals map[int]*Upvalue // absolute stack index -> open upvalue, this frame's locals only
	tbc        []int            // absolute stack indices of live <close> locals, in declaration order
}

func (ci *CallInfo) numRegs() int { return ci.top - ci.base }
