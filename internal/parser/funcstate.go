package parser

import (
	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// upvalInfo records where a function's upvalue N comes from: either a
// local register in the immediately enclosing function (locVarSlot >= 0)
// or one of the enclosing function's own upvalues (upvalIndex >= 0).
type upvalInfo struct {
	locVarSlot int
	upvalIndex int
	index      int
}

// locVarInfo is one declared local, chained through prev so a name
// shadowed by an inner scope can be restored once that scope exits.
type locVarInfo struct {
	prev      *locVarInfo
	name      string
	scopeLv   int
	slot      int
	startPC   int
	endPC     int
	captured  bool
	attribute proto.Attribute
}

// pendingGoto is an unresolved `goto` waiting for its label to appear
// later in the same function (forward gotos are legal in Lua; backward
// ones resolve immediately against labels already seen).
type pendingGoto struct {
	name    string
	pc      int
	line    int
	scopeLv int
}

// funcState is the per-function register allocator and instruction
// emitter, grounded on the teacher's compiler/codegen/func_info.go
// funcInfo — same scope/locVar/upvalue bookkeeping and emit* helper
// shape, retargeted from Lua-5.1-style uint32 packing to
// internal/code.Instruction and internal/proto.Prototype.
type funcState struct {
	parent   *funcState
	subFuncs []*funcState

	usedRegs int
	maxRegs  int
	scopeLv  int

	locVars  []*locVarInfo
	locNames map[string]*locVarInfo
	upvalues map[string]upvalInfo

	constants map[value.Value]int

	breaks [][]int
	gotos  []pendingGoto
	labels map[string]int // name -> pc, within the current function

	code  []code.Instruction
	lines []int32

	line      int
	lastLine  int
	numParams int
	isVararg  bool

	source   string
	children []*proto.Prototype
}

func newFuncState(parent *funcState, source string, line int, numParams int, isVararg bool) *funcState {
	return &funcState{
		parent:    parent,
		locVars:   make([]*locVarInfo, 0, 8),
		locNames:  map[string]*locVarInfo{},
		upvalues:  map[string]upvalInfo{},
		constants: map[value.Value]int{},
		breaks:    make([][]int, 1),
		labels:    map[string]int{},
		code:      make([]code.Instruction, 0, 8),
		lines:     make([]int32, 0, 8),
		line:      line,
		numParams: numParams,
		isVararg:  isVararg,
		source:    source,
	}
}

/* constants */

func (fs *funcState) indexOfConstant(k value.Value) int {
	if idx, ok := fs.constants[k]; ok {
		return idx
	}
	idx := len(fs.constants)
	fs.constants[k] = idx
	return idx
}

/* registers */

func (fs *funcState) allocReg() int {
	fs.usedRegs++
	if fs.usedRegs > 250 {
		panic("function or expression needs too many registers")
	}
	if fs.usedRegs > fs.maxRegs {
		fs.maxRegs = fs.usedRegs
	}
	return fs.usedRegs - 1
}

func (fs *funcState) freeReg() {
	if fs.usedRegs <= 0 {
		panic("funcState: freeReg with usedRegs <= 0")
	}
	fs.usedRegs--
}

func (fs *funcState) allocRegs(n int) int {
	if n <= 0 {
		panic("funcState: allocRegs with n <= 0")
	}
	for i := 0; i < n; i++ {
		fs.allocReg()
	}
	return fs.usedRegs - n
}

func (fs *funcState) freeRegs(n int) {
	for i := 0; i < n; i++ {
		fs.freeReg()
	}
}

/* lexical scope */

func (fs *funcState) enterScope(breakable bool) {
	fs.scopeLv++
	if breakable {
		fs.breaks = append(fs.breaks, []int{})
	} else {
		fs.breaks = append(fs.breaks, nil)
	}
}

func (fs *funcState) exitScope(endPC int) {
	pending := fs.breaks[len(fs.breaks)-1]
	fs.breaks = fs.breaks[:len(fs.breaks)-1]
	for _, pc := range pending {
		fs.patchJmpToHere(pc)
	}

	fs.scopeLv--
	for name, lv := range fs.locNames {
		if lv.scopeLv > fs.scopeLv {
			lv.endPC = endPC
			fs.removeLocVar(lv)
			_ = name
		}
	}
}

func (fs *funcState) removeLocVar(lv *locVarInfo) {
	fs.freeReg()
	if lv.prev == nil {
		delete(fs.locNames, lv.name)
	} else if lv.prev.scopeLv == lv.scopeLv {
		fs.removeLocVar(lv.prev)
	} else {
		fs.locNames[lv.name] = lv.prev
	}
}

func (fs *funcState) addLocVar(name string, attrib proto.Attribute, startPC int) int {
	nv := &locVarInfo{
		name:      name,
		prev:      fs.locNames[name],
		scopeLv:   fs.scopeLv,
		slot:      fs.allocReg(),
		startPC:   startPC,
		attribute: attrib,
	}
	fs.locVars = append(fs.locVars, nv)
	fs.locNames[name] = nv
	return nv.slot
}

// addLocVarAtSlot registers a local bound to an already-allocated slot,
// for locals (the numeric/generic for loop control variable) whose
// register was reserved as part of a larger contiguous block rather
// than through the usual one-at-a-time addLocVar allocation.
func (fs *funcState) addLocVarAtSlot(name string, attrib proto.Attribute, slot, startPC int) {
	nv := &locVarInfo{
		name:      name,
		prev:      fs.locNames[name],
		scopeLv:   fs.scopeLv,
		slot:      slot,
		startPC:   startPC,
		attribute: attrib,
	}
	fs.locVars = append(fs.locVars, nv)
	fs.locNames[name] = nv
}

func (fs *funcState) slotOfLocVar(name string) int {
	if lv, ok := fs.locNames[name]; ok {
		return lv.slot
	}
	return -1
}

func (fs *funcState) addBreakJmp(pc int) {
	for i := fs.scopeLv; i >= 0; i-- {
		if fs.breaks[i] != nil {
			fs.breaks[i] = append(fs.breaks[i], pc)
			return
		}
	}
	panic("break outside a loop")
}

/* upvalues */

func (fs *funcState) indexOfUpval(name string) int {
	if uv, ok := fs.upvalues[name]; ok {
		return uv.index
	}
	if fs.parent == nil {
		return -1
	}
	if lv, ok := fs.parent.locNames[name]; ok {
		idx := len(fs.upvalues)
		fs.upvalues[name] = upvalInfo{locVarSlot: lv.slot, upvalIndex: -1, index: idx}
		lv.captured = true
		return idx
	}
	if pidx := fs.parent.indexOfUpval(name); pidx >= 0 {
		idx := len(fs.upvalues)
		fs.upvalues[name] = upvalInfo{locVarSlot: -1, upvalIndex: pidx, index: idx}
		return idx
	}
	return -1
}

/* code emission */

func (fs *funcState) pc() int { return len(fs.code) - 1 }

func (fs *funcState) emit(line int, i code.Instruction) int {
	fs.code = append(fs.code, i)
	fs.lines = append(fs.lines, int32(line))
	return len(fs.code) - 1
}

func (fs *funcState) emitABC(line int, op code.Op, a, b, c int) int {
	return fs.emit(line, code.MakeABC(op, a, b, c, false))
}

func (fs *funcState) emitABx(line int, op code.Op, a, bx int) int {
	return fs.emit(line, code.MakeABx(op, a, bx))
}

func (fs *funcState) emitAsBx(line int, op code.Op, a, sbx int) int {
	return fs.emit(line, code.MakeAsBx(op, a, sbx))
}

func (fs *funcState) emitAx(line int, op code.Op, ax int) int {
	return fs.emit(line, code.MakeAx(op, ax))
}

// emitJmp emits an unconditional jump with a placeholder offset of 0,
// returning its pc so the caller can patch it once the target is known.
func (fs *funcState) emitJmp(line int) int {
	return fs.emit(line, code.MakeSJ(code.OpJmp, 0))
}

func (fs *funcState) patchJmp(pc, target int) {
	fs.code[pc] = code.MakeSJ(code.OpJmp, target-pc)
}

func (fs *funcState) patchJmpToHere(pc int) { fs.patchJmp(pc, fs.pc()+1) }

// patchAsBx rewrites an AsBx-encoded instruction's signed offset in
// place, used for FORPREP/FORLOOP/TFORLOOP whose jump target is only
// known once the loop body has been emitted.
func (fs *funcState) patchAsBx(pc, sbx int) {
	i := fs.code[pc]
	fs.code[pc] = code.MakeAsBx(i.Opcode(), i.A(), sbx)
}

func (fs *funcState) emitMove(line, a, b int) int {
	return fs.emitABC(line, code.OpMove, a, b, 0)
}

func (fs *funcState) emitLoadNil(line, a, n int) int {
	return fs.emitABC(line, code.OpLoadNil, a, n-1, 0)
}

func (fs *funcState) emitLoadBool(line, a int, b bool) int {
	if b {
		return fs.emitABC(line, code.OpLoadTrue, a, 0, 0)
	}
	return fs.emitABC(line, code.OpLoadFalse, a, 0, 0)
}

// emitLoadK loads constant k into register a, using the compact LOADI
// immediate for integers that fit sBx and the constant table for
// everything else (floats included).
func (fs *funcState) emitLoadK(line, a int, k value.Value) int {
	if k.IsInteger() {
		i := k.AsInt()
		if off := int64(code.MaxArgBx >> 1); i >= -off && i <= off+1 {
			return fs.emitAsBx(line, code.OpLoadI, a, int(i))
		}
	}
	idx := fs.indexOfConstant(k)
	return fs.emitABx(line, code.OpLoadK, a, idx)
}

func (fs *funcState) emitVararg(line, a, n int) int {
	return fs.emitABC(line, code.OpVararg, a, n+1, 0)
}

func (fs *funcState) emitClosure(line, a, bx int) int {
	return fs.emitABx(line, code.OpClosure, a, bx)
}

func (fs *funcState) emitNewTable(line, a, narr, nrec int) int {
	return fs.emitABC(line, code.OpNewTable, a, narr, nrec)
}

func (fs *funcState) emitSetList(line, a, b, c int) int {
	return fs.emitABC(line, code.OpSetList, a, b, c)
}

func (fs *funcState) emitGetTable(line, a, b, c int) int {
	return fs.emitABC(line, code.OpGetTable, a, b, c)
}

func (fs *funcState) emitSetTable(line, a, b, c int) int {
	return fs.emitABC(line, code.OpSetTable, a, b, c)
}

func (fs *funcState) emitGetField(line, a, b, c int) int {
	return fs.emitABC(line, code.OpGetField, a, b, c)
}

func (fs *funcState) emitSetField(line, a, b, c int) int {
	return fs.emitABC(line, code.OpSetField, a, b, c)
}

func (fs *funcState) emitGetUpval(line, a, b int) int {
	return fs.emitABC(line, code.OpGetUpval, a, b, 0)
}

func (fs *funcState) emitSetUpval(line, a, b int) int {
	return fs.emitABC(line, code.OpSetUpval, a, b, 0)
}

func (fs *funcState) emitGetTabUp(line, a, b, c int) int {
	return fs.emitABC(line, code.OpGetTabUp, a, b, c)
}

func (fs *funcState) emitSetTabUp(line, a, b, c int) int {
	return fs.emitABC(line, code.OpSetTabUp, a, b, c)
}

func (fs *funcState) emitCall(line, a, nArgs, nRet int) int {
	return fs.emitABC(line, code.OpCall, a, nArgs+1, nRet+1)
}

func (fs *funcState) emitReturn(line, a, n int) int {
	return fs.emitABC(line, code.OpReturn, a, n+1, 0)
}

func (fs *funcState) emitSelf(line, a, b, c int) int {
	return fs.emitABC(line, code.OpSelf, a, b, c)
}

func (fs *funcState) emitTest(line, a int, k bool) int {
	c := 0
	if k {
		c = 1
	}
	return fs.emitABC(line, code.OpTest, a, 0, c)
}

func (fs *funcState) emitTestSet(line, a, b int, k bool) int {
	c := 0
	if k {
		c = 1
	}
	return fs.emitABC(line, code.OpTestSet, a, b, c)
}

func (fs *funcState) emitForPrep(line, a int) int {
	return fs.emitAsBx(line, code.OpForPrep, a, 0)
}

func (fs *funcState) emitForLoop(line, a int) int {
	return fs.emitAsBx(line, code.OpForLoop, a, 0)
}

func (fs *funcState) emitTForPrep(line, a int) int {
	return fs.emitAsBx(line, code.OpTForPrep, a, 0)
}

func (fs *funcState) emitTForCall(line, a, c int) int {
	return fs.emitABC(line, code.OpTForCall, a, 0, c)
}

func (fs *funcState) emitTForLoop(line, a int) int {
	return fs.emitAsBx(line, code.OpTForLoop, a, 0)
}

func (fs *funcState) emitClose(line, a int) int {
	return fs.emitABC(line, code.OpClose, a, 0, 0)
}

func (fs *funcState) emitConcat(line, a, n int) int {
	return fs.emitABC(line, code.OpConcat, a, n, 0)
}
