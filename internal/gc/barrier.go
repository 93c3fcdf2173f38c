package gc

import "git.lolli.tech/lollipopkit/lk5/internal/value"

// WriteBarrier must be called whenever a mutator stores child into a slot
// owned by parent (spec §4.5 "Write barrier"): table field assignment,
// upvalue close, userdata user-value assignment, closure upvalue binding.
// It is a no-op outside Propagate/Atomic, since nothing is gray or black
// yet in Pause and the question is moot once sweeping has started.
func (c *Collector) WriteBarrier(parent value.GCObject, child value.Value) {
	if c.phase != PhasePropagate && c.phase != PhaseAtomic {
		return
	}
	co := child.Object()
	if co == nil {
		return
	}
	ph, ch := parent.Header(), co.Header()
	if ph.Color() != value.Black {
		return
	}
	if ch.Color() != value.White0 && ch.Color() != value.White1 {
		return // child already gray or black, nothing to preserve
	}

	switch parent.(type) {
	case *value.Table:
		// tables are mutated repeatedly (field assignment in a loop is
		// the common case), so re-graying the whole table to be
		// rescanned later is cheaper than chasing every individual
		// store: backward barrier.
		c.barrierBack(parent)
	default:
		// everything else (closures binding upvalues, userdata taking a
		// user value) mutates rarely enough that marking the child
		// immediately is cheaper than re-scanning the parent: forward
		// barrier.
		c.markObject(co)
	}
}

func (c *Collector) barrierBack(parent value.GCObject) {
	h := parent.Header()
	if h.Color() != value.Black {
		return
	}
	h.SetColor(value.Gray)
	c.grayAgain = append(c.grayAgain, parent)
	if h.Age() >= value.AgeOld0 {
		// an old object just started pointing at something young: a
		// future minor collection needs to rescan it even though it
		// won't otherwise be a root.
		c.remembered[parent] = struct{}{}
	}
}
