package gc

import (
	"git.lolli.tech/lollipopkit/lk5/internal/rtlog"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// RootProvider supplies the collector's root set (spec §4.5 "Roots"): the
// registry, every live thread's stack and CallInfo chain, open upvalues,
// and anything else the embedder holds directly. It is implemented by
// vm.State, which the gc package cannot import without a cycle.
type RootProvider interface {
	GCRoots(mark func(value.Value))
}

// WarnFunc receives text the collector has no other way to surface, chiefly
// errors raised inside a finalizer (spec §4.5 "Finalizers": "errors inside
// finalizers are reported to the host warning function and swallowed").
type WarnFunc func(msg string)

// Collector is the tri-color incremental generational mark-and-sweep
// collector. One Collector belongs to exactly one vm.State's family of
// threads; coroutines share their parent's Collector.
type Collector struct {
	params Params
	mode   Mode
	phase  Phase

	currentWhite value.Color

	gray      []value.GCObject // work yet to be scanned
	grayAgain []value.GCObject // re-scan list filled by the backward barrier, drained at Atomic

	weak []*value.Table // weak-mode tables discovered while marking; resolved at Atomic

	allGC       value.GCObject  // head of the singly linked list of every tracked object
	sweepCursor *value.GCObject // address of the link slot sweepStep resumes from
	fixed       []value.GCObject

	finalizable   []value.GCObject // objects with a __gc hook, watched across cycles
	toBeFinalized []value.GCObject // unreachable finalizable objects kept alive for one more cycle

	intern        *value.Intern
	finalizerFunc func(value.GCObject) // invokes __gc/__close through the VM; set by vm.State

	roots RootProvider
	warn  WarnFunc

	totalBytes int64
	debt       int64
	estimate   int64 // live bytes at the end of the last full cycle; drives the next Pause threshold

	// generational bookkeeping (spec §4.5 "Generational mode")
	allocatedSinceMajor int64
	promotedLastCycle   int64
	survivedLastCycle   int64
	minor               bool                // true while the in-progress cycle is a minor (young-only) collection
	remembered          map[value.GCObject]struct{} // Old objects the backward barrier caught pointing at young objects
}

// New creates a Collector in incremental mode, paused and ready to begin
// its first cycle on the next Step/Alloc call. intern lets sweep forget
// dead short strings (spec invariant I4); warn receives finalizer errors.
func New(roots RootProvider, intern *value.Intern, warn WarnFunc, params Params) *Collector {
	if warn == nil {
		warn = func(string) {}
	}
	return &Collector{
		params:       params,
		mode:         ModeIncremental,
		phase:        PhasePause,
		currentWhite: value.White0,
		intern:       intern,
		roots:        roots,
		warn:         warn,
		remembered:   make(map[value.GCObject]struct{}),
	}
}

// SetFinalizerFunc installs the callback used to actually invoke a __gc or
// __close metamethod through the VM (the gc package has no notion of
// calling a Lua function). vm.State sets this once at construction.
func (c *Collector) SetFinalizerFunc(f func(value.GCObject)) { c.finalizerFunc = f }

func (c *Collector) SetMode(m Mode) { c.mode = m }
func (c *Collector) Mode() Mode     { return c.mode }
func (c *Collector) Phase() Phase   { return c.phase }

func (c *Collector) otherWhite() value.Color {
	if c.currentWhite == value.White0 {
		return value.White1
	}
	return value.White0
}

func (c *Collector) isDead(o value.GCObject) bool {
	if o == nil {
		return false
	}
	return o.Header().Color() == c.otherWhite()
}

// isUnmarked reports whether o was never reached by this cycle's mark
// phase. Unlike isDead, this is valid *before* the end-of-Atomic white
// flip: an object nothing has grayed yet still carries the color it was
// linked with, which is currentWhite right up until the flip retires that
// meaning. resolveWeakTables runs in that window, so it needs this instead
// of isDead.
func (c *Collector) isUnmarked(o value.GCObject) bool {
	if o == nil {
		return false
	}
	return o.Header().Color() == c.currentWhite
}

// LinkObject registers a freshly allocated object with the collector. Every
// constructor in the vm package that creates a table, closure, userdata,
// thread, or long string must call this exactly once. Outside an active
// cycle the object starts currentWhite, same as everything else waiting to
// be discovered by the next restart. While a cycle is in progress it is
// allocated straight to black instead: its fields are being filled in by
// the mutator right now from values already reachable some other way, so
// there is nothing for the collector to gain by queuing it, and allocating
// it white would let an unlucky sweep free it before the mutator finishes
// building it.
func (c *Collector) LinkObject(o value.GCObject) {
	h := o.Header()
	if c.phase == PhasePause {
		h.SetColor(c.currentWhite)
	} else {
		h.SetColor(value.Black)
	}
	h.AllGCNext = c.allGC
	c.allGC = o
	c.totalBytes += sizeOf(o)
	c.ChargeDebt(sizeOf(o))
}

// Fix pins an object so it is never swept (spec's "fixed" root list): the
// registry table and the main thread's own GCObject, chiefly.
func (c *Collector) Fix(o value.GCObject) {
	o.Header().SetFlag(value.FlagFixed)
	c.fixed = append(c.fixed, o)
}

// RegisterFinalizable watches o for collection; called whenever a table or
// userdata acquires a __gc metamethod (spec's "separate this object for
// finalization" operation, normally triggered by setmetatable).
func (c *Collector) RegisterFinalizable(o value.GCObject) {
	if o.Header().HasFlag(value.FlagSeparated) {
		return
	}
	o.Header().SetFlag(value.FlagSeparated)
	c.finalizable = append(c.finalizable, o)
}

// ChargeDebt accumulates allocation pressure and, once past threshold,
// performs incremental work synchronously on the allocation path (spec
// §4.5 "Allocation & pressure").
func (c *Collector) ChargeDebt(bytes int64) {
	c.debt += bytes
	c.allocatedSinceMajor += bytes
	threshold := c.params.stepUnit() * int64(c.params.StepMul) / 100
	if threshold <= 0 {
		threshold = 1
	}
	for c.debt >= threshold {
		c.debt -= threshold
		c.Step()
	}
}

// Step advances the state machine by one bounded quantum of work.
func (c *Collector) Step() {
	switch c.phase {
	case PhasePause:
		c.restart()
	case PhasePropagate:
		c.propagateStep()
	case PhaseAtomic:
		c.atomic()
	case PhaseSweepAllGC:
		c.sweepStep()
	case PhaseSweepFinalizers:
		c.sweepFinalizersStep()
	case PhaseSweepToBeFinalized:
		c.sweepToBeFinalizedStep()
	case PhaseCallFinalizers:
		c.callFinalizersStep()
	}
}

// FullGC drives the collector through one entire cycle synchronously,
// without interleaving user code: used by collectgarbage("collect") and by
// the emergency path on allocation failure.
func (c *Collector) FullGC() {
	if c.phase == PhasePause {
		c.restart()
	}
	for c.phase != PhasePause {
		c.Step()
	}
	rtlog.I("gc: full cycle complete, estimate=%d live bytes", c.estimate)
}

func (c *Collector) restart() {
	rtlog.I("gc: restart cycle (mode=%v, total=%d, estimate=%d)", c.mode, c.totalBytes, c.estimate)
	c.gray = c.gray[:0]
	c.grayAgain = c.grayAgain[:0]
	c.weak = c.weak[:0]
	c.promotedLastCycle = 0
	c.survivedLastCycle = 0
	c.phase = PhasePropagate
	c.minor = c.mode == ModeGenerational

	for _, o := range c.fixed {
		c.markObject(o)
	}
	if c.roots != nil {
		c.roots.GCRoots(c.markValue)
	}
	if c.minor {
		// the remembered set stands in for "rescan the whole heap": these
		// are the only Old objects that might point at something young.
		for o := range c.remembered {
			c.markObject(o)
		}
	}
}

// markValue is the root-marking entry point handed to RootProvider.
func (c *Collector) markValue(v value.Value) {
	o := v.Object()
	if o == nil {
		return
	}
	c.markObject(o)
}

func sizeOf(o value.GCObject) int64 {
	switch t := o.(type) {
	case *value.LString:
		return int64(40 + t.Len())
	case *value.Table:
		return int64(56 + len(t.Arr)*24 + len(t.Hash)*48)
	case *value.Userdata:
		return int64(40 + len(t.UserValues)*24)
	default:
		return 64
	}
}
