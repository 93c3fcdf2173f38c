package gc

import "git.lolli.tech/lollipopkit/lk5/internal/value"

// markObject transitions a white object to gray (or straight to black for
// leaf objects with no children, spec §4.5 "White → Gray"). It is a no-op
// for anything already non-white, fixed objects excepted -- fixed objects
// are marked once per cycle by restart and never revisited.
func (c *Collector) markObject(o value.GCObject) {
	if o == nil {
		return
	}
	h := o.Header()
	if h.Color() == value.Gray || h.Color() == value.Black {
		return // already on the worklist or scanned this cycle
	}
	switch o.(type) {
	case *value.LString:
		// strings have no children: gray and black are the same state
		// for them, so skip the worklist entirely.
		h.SetColor(value.Black)
	default:
		h.SetColor(value.Gray)
		c.gray = append(c.gray, o)
	}
}

func (c *Collector) markChild(v value.Value) {
	if o := v.Object(); o != nil {
		c.markObject(o)
	}
}

// propagateStep scans a bounded number of gray objects, turning them black
// and marking whatever they reference. When the worklist empties, the
// cycle advances to Atomic.
func (c *Collector) propagateStep() {
	budget := c.params.StepMul/10 + 1
	for i := 0; i < budget; i++ {
		if len(c.gray) == 0 {
			c.phase = PhaseAtomic
			return
		}
		o := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		c.propagateOne(o)
	}
}

// propagateOne blackens a single gray object by tracing its children. Table
// and Userdata are known to this package directly; anything else (vm's
// closures, threads, open upvalues) must implement value.Traceable, since
// gc cannot import vm.
func (c *Collector) propagateOne(o value.GCObject) {
	h := o.Header()
	switch t := o.(type) {
	case *value.Table:
		c.traverseTable(t)
	case *value.Userdata:
		c.traverseUserdata(t)
	default:
		if tr, ok := o.(value.Traceable); ok {
			tr.Trace(c.markObject)
		}
	}
	h.SetColor(value.Black)
}

// traverseTable marks a table's metatable and, for the non-weak sides of
// its key/value pairs, its contents. A table with any weak mode is also
// queued for the ephemeron fixpoint at Atomic (spec §4.5 "Weak tables &
// ephemerons"); its weak-marked side is left for that pass instead of
// being marked here.
func (c *Collector) traverseTable(t *value.Table) {
	if t.Meta != nil {
		c.markObject(t.Meta)
	}
	if t.Mode == value.WeakNone {
		for i := range t.Arr {
			c.markChild(t.Arr[i])
		}
		for i := range t.Hash {
			if t.Hash[i].Used {
				c.markChild(t.Hash[i].Key)
				c.markChild(t.Hash[i].Val)
			}
		}
		return
	}

	c.weak = append(c.weak, t)
	markKeys := t.Mode&value.WeakKey == 0
	markVals := t.Mode&value.WeakValue == 0
	for i := range t.Arr {
		// the array part only ever holds integer keys, which are never
		// collectable, so weak-key mode cannot apply to it; only the
		// weak-value side is relevant here.
		if markVals {
			c.markChild(t.Arr[i])
		}
	}
	for i := range t.Hash {
		if !t.Hash[i].Used {
			continue
		}
		if markKeys {
			c.markChild(t.Hash[i].Key)
		}
		if markVals {
			c.markChild(t.Hash[i].Val)
		}
	}
}

func (c *Collector) traverseUserdata(u *value.Userdata) {
	if u.Meta != nil {
		c.markObject(u.Meta)
	}
	for i := range u.UserValues {
		c.markChild(u.UserValues[i])
	}
}
