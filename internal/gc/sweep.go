package gc

import (
	"git.lolli.tech/lollipopkit/lk5/internal/rtlog"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// atomic finishes marking without interruption: drains grayAgain (objects
// re-grayed by the backward barrier mid-cycle), resolves weak tables and
// ephemerons to a fixpoint, then moves on to sweeping. Spec invariant I1
// ("every reachable object is non-white at phase end") must hold when this
// returns.
func (c *Collector) atomic() {
	for len(c.grayAgain) > 0 {
		o := c.grayAgain[len(c.grayAgain)-1]
		c.grayAgain = c.grayAgain[:len(c.grayAgain)-1]
		c.propagateOne(o)
	}
	for len(c.gray) > 0 {
		c.propagateStep()
	}
	c.resolveWeakTables()

	if !c.minor {
		// a major cycle rescans everything, so the remembered set has
		// done its job for this round; drop entries that didn't survive
		// marking rather than pinning them in Go memory forever.
		for o := range c.remembered {
			if o.Header().Color() != value.Gray && o.Header().Color() != value.Black {
				delete(c.remembered, o)
			}
		}
	}

	// flip whites here, not at cycle end: everything colored white up to
	// this point used currentWhite as "alive but unmarked this cycle", so
	// flipping now makes that same value mean "stale, from last cycle" for
	// the sweep that's about to run, while new allocations from here on
	// pick up the new currentWhite and correctly read as live.
	if c.currentWhite == value.White0 {
		c.currentWhite = value.White1
	} else {
		c.currentWhite = value.White0
	}

	c.sweepCursor = &c.allGC
	c.phase = PhaseSweepAllGC
	rtlog.I("gc: atomic done, entering sweep")
}

// sweepStep walks the allgc list from c.sweepCursor, freeing dead
// (otherWhite) objects and recoloring survivors to currentWhite so they're
// ready to be this cycle's "old" objects next time around.
// Finalizable-but-dead objects are diverted to toBeFinalized instead of
// being unlinked. The cursor is the address of the link slot to resume
// from (either &c.allGC or some surviving object's &AllGCNext), never the
// list head itself, so already-swept survivors stay reachable.
func (c *Collector) sweepStep() {
	const quantum = 64
	cursor := c.sweepCursor
	n := 0
	for *cursor != nil && n < quantum {
		o := *cursor
		h := o.Header()
		n++

		if h.HasFlag(value.FlagFixed) {
			h.SetColor(c.currentWhite) // lets the next restart mark it again
			cursor = &h.AllGCNext
			continue
		}

		if c.minor && h.Age() >= value.AgeOld0 {
			// a minor collection never visits the old generation: it was
			// not a root and nothing in the remembered set pointed at it,
			// so it is presumed still live until the next major cycle.
			cursor = &h.AllGCNext
			continue
		}

		if !c.isDead(o) {
			c.promote(h)
			h.SetColor(c.currentWhite)
			cursor = &h.AllGCNext
			continue
		}

		// dead: either finalize-and-keep, or unlink entirely.
		if h.HasFlag(value.FlagSeparated) && !h.HasFlag(value.FlagFinalized) {
			*cursor = h.AllGCNext
			h.AllGCNext = nil
			h.SetColor(value.Black) // kept alive until its finalizer runs
			c.toBeFinalized = append(c.toBeFinalized, o)
			continue
		}

		if ls, ok := o.(*value.LString); ok && c.intern != nil {
			c.intern.Forget(ls)
		}
		*cursor = h.AllGCNext
		h.AllGCNext = nil
		c.totalBytes -= sizeOf(o)
	}
	c.sweepCursor = cursor
	if *cursor == nil {
		c.phase = PhaseSweepFinalizers
	}
}

func (c *Collector) promote(h *value.GCHeader) {
	switch h.Age() {
	case value.AgeNew:
		h.SetAge(value.AgeSurvival)
		c.survivedLastCycle++
	case value.AgeSurvival:
		h.SetAge(value.AgeOld0)
		c.promotedLastCycle++
	case value.AgeOld0:
		h.SetAge(value.AgeOld)
	case value.AgeOld:
		h.SetAge(value.AgeOldStable)
	}
}

// sweepFinalizersStep drops finalizable objects that turned out to be dead
// from the watch list (they've already been moved to toBeFinalized by
// sweepStep) and keeps the rest.
func (c *Collector) sweepFinalizersStep() {
	pending := make(map[value.GCObject]bool, len(c.toBeFinalized))
	for _, o := range c.toBeFinalized {
		pending[o] = true
	}
	live := c.finalizable[:0]
	for _, o := range c.finalizable {
		if pending[o] || c.isDead(o) {
			continue
		}
		live = append(live, o)
	}
	c.finalizable = live
	c.phase = PhaseSweepToBeFinalized
}

func (c *Collector) sweepToBeFinalizedStep() {
	c.phase = PhaseCallFinalizers
}

// callFinalizersStep runs __gc/__close for every object moved to
// toBeFinalized, reporting panics through warn instead of propagating them
// (spec §4.5 "errors inside finalizers are reported to the host warning
// function and swallowed").
func (c *Collector) callFinalizersStep() {
	pending := c.toBeFinalized
	c.toBeFinalized = nil
	for _, o := range pending {
		c.runFinalizer(o)
	}
	c.finishCycle()
}

func (c *Collector) runFinalizer(o value.GCObject) {
	defer func() {
		if r := recover(); r != nil {
			c.warn(finalizerPanicMessage(r))
		}
	}()
	h := o.Header()
	h.SetFlag(value.FlagFinalized)
	if c.finalizerFunc != nil {
		c.finalizerFunc(o)
	}
}

func finalizerPanicMessage(r any) string {
	if err, ok := r.(error); ok {
		return "error in finalizer: " + err.Error()
	}
	return "error in finalizer"
}

func (c *Collector) finishCycle() {
	c.estimate = c.totalBytes
	c.allocatedSinceMajor = 0
	c.phase = PhasePause
	c.decideMode()
	rtlog.I("gc: cycle finished, live=%d promoted=%d survived=%d", c.estimate, c.promotedLastCycle, c.survivedLastCycle)
}

// decideMode implements spec §4.5's adaptive choice between generational
// and full mark-and-sweep: a high promotion rate means objects are aging
// past what minor collections reclaim, so a major (incremental) cycle
// pays for itself; otherwise generational mode's cheaper young-only passes
// win.
func (c *Collector) decideMode() {
	total := c.promotedLastCycle + c.survivedLastCycle
	if total == 0 {
		return
	}
	rate := int(c.promotedLastCycle * 100 / total)
	if rate > c.params.MinorMul {
		c.mode = ModeIncremental
	} else {
		c.mode = ModeGenerational
	}
}
