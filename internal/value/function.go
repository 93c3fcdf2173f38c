package value

// FunctionValue boxes a GC-managed callable (package vm's LClosure or
// GoClosure) as a tagged Value. The concrete type lives in package vm,
// which this package cannot import without a cycle, so callers recover it
// with Object().(*vm.WhateverType) themselves.
func FunctionValue(variant uint8, obj GCObject) Value {
	return fromObject(BaseFunction, variant, obj)
}

// ThreadValue boxes a GC-managed coroutine (package vm's Thread).
func ThreadValue(obj GCObject) Value {
	return fromObject(BaseThread, 0, obj)
}
