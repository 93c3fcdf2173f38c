package vm

import (
	"fmt"

	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// NewCoroutine creates a suspended coroutine that will run fn when first
// resumed. Grounded on the teacher's api_coroutine.go lua_newthread, minus
// the separate lkStack allocation this runtime doesn't need (Thread
// already carries its own register stack).
func NewCoroutine(st *State, fn value.Value) *Thread {
	th := newThread(st)
	th.entryFn = fn
	th.status = ThreadSuspended
	return th
}

// Status reports spec §4.7's coroutine state, read by coroutine.status.
func (th *Thread) Status() ThreadStatus { return th.status }

// Resume runs th from where it last yielded (or from the start, on its
// first call), handing args in as either the initial call's arguments or
// coroutine.yield's return values, and blocks until th next yields,
// returns, or errors. Grounded on the teacher's api_coroutine.go
// lua_resume, generalized from its single OS-thread-per-coroutine model
// (which used a condition variable per lkState) to one goroutine per
// coroutine synchronized by a pair of unbuffered-handoff channels.
func (th *Thread) Resume(args []value.Value) (results []value.Value, err error) {
	switch th.status {
	case ThreadDead:
		return nil, fmt.Errorf("cannot resume dead coroutine")
	case ThreadRunning, ThreadNormal:
		return nil, fmt.Errorf("cannot resume non-suspended coroutine")
	}

	st := th.state
	caller := st.current
	if caller != nil {
		caller.status = ThreadNormal
	}
	th.caller = caller
	th.status = ThreadRunning
	st.current = th

	if !th.started {
		th.started = true
		th.resumeCh = make(chan coMessage)
		th.yieldCh = make(chan coMessage)
		go th.runBody(args)
	} else {
		th.resumeCh <- coMessage{values: args}
	}

	msg := <-th.yieldCh

	st.current = caller
	if caller != nil {
		caller.status = ThreadRunning
	}
	if msg.done {
		th.status = ThreadDead
	} else {
		th.status = ThreadSuspended
	}
	return msg.values, msg.err
}

// runBody is the coroutine's goroutine entry point: it runs entryFn to
// completion (or error) on this thread's own stack/call chain, then
// reports back on yieldCh exactly once, the way the final "return" from a
// Lua coroutine's body reports through lua_resume in the teacher.
func (th *Thread) runBody(args []value.Value) {
	results, err := th.Call(th.entryFn, args, -1)
	th.yieldCh <- coMessage{values: results, err: err, done: true}
}

// Yield suspends th (which must be the currently running coroutine, never
// the main thread) and hands values back to whoever resumed it, blocking
// until the next Resume call hands fresh arguments back in. Grounded on
// the teacher's api_coroutine.go lua_yield.
func (th *Thread) Yield(args []value.Value) ([]value.Value, error) {
	if th.caller == nil {
		return nil, fmt.Errorf("attempt to yield from outside a coroutine")
	}
	th.yieldCh <- coMessage{values: args}
	msg := <-th.resumeCh
	return msg.values, msg.err
}
