package gc

import "git.lolli.tech/lollipopkit/lk5/internal/value"

// resolveWeakTables runs spec §4.5's weak-table/ephemeron pass once
// Propagate has emptied its worklist: weak-value tables lose unreachable
// values outright, weak-key tables iterate to a fixpoint (mark a value iff
// its key is already marked) since marking a value can itself make other
// ephemerons' keys reachable.
func (c *Collector) resolveWeakTables() {
	for _, t := range c.weak {
		if t.Mode&value.WeakKey != 0 {
			continue // handled by the fixpoint loop below
		}
		c.clearDeadValues(t)
	}

	for {
		progressed := false
		for _, t := range c.weak {
			if t.Mode&value.WeakKey == 0 {
				continue
			}
			if c.ephemeronPass(t) {
				progressed = true
			}
		}
		if !progressed {
			break
		}
		for len(c.gray) > 0 {
			c.propagateStep()
		}
	}

	for _, t := range c.weak {
		if t.Mode&value.WeakKey != 0 {
			c.clearDeadKeyedEntries(t)
		}
	}
}

// clearDeadValues drops entries of a weak-value table whose value is
// unreachable. Keys are never collectable in the array part (integers
// only) and are otherwise ordinary strong keys here, since WeakKey is not
// set.
func (c *Collector) clearDeadValues(t *value.Table) {
	for i := range t.Arr {
		if o := t.Arr[i].Object(); o != nil && c.isUnmarked(o) {
			t.Arr[i] = value.Nil
		}
	}
	for i := range t.Hash {
		if !t.Hash[i].Used {
			continue
		}
		if o := t.Hash[i].Val.Object(); o != nil && c.isUnmarked(o) {
			t.Hash[i].Val = value.Nil
			t.MarkIterDirty()
		}
	}
}

// ephemeronPass marks a weak-keyed table's value wherever its key is
// already marked, reporting whether it made any new marks so the caller
// can keep iterating to a fixpoint.
func (c *Collector) ephemeronPass(t *value.Table) bool {
	progressed := false
	markVal := t.Mode&value.WeakValue == 0
	for i := range t.Hash {
		n := &t.Hash[i]
		if !n.Used {
			continue
		}
		ko := n.Key.Object()
		if ko != nil && c.isUnmarked(ko) {
			continue // key not yet (and maybe never) reachable
		}
		if markVal {
			if vo := n.Val.Object(); vo != nil && c.isUnmarked(vo) {
				c.markObject(vo)
				progressed = true
			}
		}
	}
	return progressed
}

// clearDeadKeyedEntries clears the value of every weak-key entry whose key
// never became reachable; the node stays Used and keeps its key in the
// slot, so only the value is dropped here.
func (c *Collector) clearDeadKeyedEntries(t *value.Table) {
	for i := range t.Hash {
		n := &t.Hash[i]
		if !n.Used {
			continue
		}
		if ko := n.Key.Object(); ko != nil && c.isUnmarked(ko) {
			n.Val = value.Nil
			t.MarkIterDirty()
		}
	}
}
