package vm

import (
	"git.lolli.tech/lollipopkit/lk5/internal/gc"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// LClosure is a Lua closure: an immutable, possibly-shared Prototype paired
// with the upvalues this particular instance captured. Grounded on the
// teacher's state/closure.go, collapsed with its near-duplicate
// state/lk_closure.go into the one type DESIGN.md's dropped-code section
// records.
type LClosure struct {
	value.GCHeader
	Proto   *proto.Prototype
	Upvals  []*Upvalue
}

func NewLuaClosure(p *proto.Prototype, c *gc.Collector) *LClosure {
	lc := &LClosure{Proto: p, Upvals: make([]*Upvalue, len(p.Upvalues))}
	c.LinkObject(lc)
	return lc
}

func (lc *LClosure) Trace(mark func(value.GCObject)) {
	for _, uv := range lc.Upvals {
		if uv != nil {
			mark(uv)
		}
	}
	markProtoConstants(lc.Proto, mark)
}

// markProtoConstants walks a Prototype's own constants and every nested
// Prototype's constants, since only the top closure built over the root
// Prototype is a GC root -- nested prototypes are plain Go values kept
// alive by the Go heap, but the GC-managed strings inside their constant
// pools still need marking every cycle the enclosing closure survives.
func markProtoConstants(p *proto.Prototype, mark func(value.GCObject)) {
	for _, k := range p.Constants {
		if o := k.Object(); o != nil {
			mark(o)
		}
	}
	for _, child := range p.Protos {
		markProtoConstants(child, mark)
	}
}

// GoFunc is a native function's body: given the arguments, it returns the
// results or an error (raised as a Lua error by the caller). Simpler than
// the teacher's `func(LkState) int` convention (which reads/writes
// arguments and results through the stack directly) since Go closures in
// this runtime never need to reach into the caller's register window.
type GoFunc func(s *State, args []value.Value) ([]value.Value, error)

// GoClosure wraps a GoFunc as a GCObject so it can be stored in a Value
// and, like an LClosure, optionally close over upvalues.
type GoClosure struct {
	value.GCHeader
	Name   string
	Fn     GoFunc
	Upvals []*Upvalue
}

func NewGoClosure(name string, fn GoFunc, c *gc.Collector) *GoClosure {
	gcl := &GoClosure{Name: name, Fn: fn}
	c.LinkObject(gcl)
	return gcl
}

func (gc *GoClosure) Trace(mark func(value.GCObject)) {
	for _, uv := range gc.Upvals {
		if uv != nil {
			mark(uv)
		}
	}
}

func closureValue(variant uint8, obj value.GCObject) value.Value {
	return value.FunctionValue(variant, obj)
}

func LuaClosureValue(lc *LClosure) value.Value {
	return closureValue(value.VariantFunctionLua, lc)
}

func GoClosureValue(gc *GoClosure) value.Value {
	return closureValue(value.VariantFunctionGo, gc)
}

// AsCallable recovers the callable GCObject behind a function Value,
// whichever of the two concrete kinds it is.
func AsCallable(v value.Value) (lc *LClosure, gc *GoClosure, ok bool) {
	if !v.IsFunction() {
		return nil, nil, false
	}
	o := v.Object()
	if l, ok := o.(*LClosure); ok {
		return l, nil, true
	}
	if g, ok := o.(*GoClosure); ok {
		return nil, g, true
	}
	return nil, nil, false
}
