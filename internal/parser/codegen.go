package parser

import (
	"strconv"

	"git.lolli.tech/lollipopkit/lk5/internal/ast"
	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// genStat walks one ast.Stat and emits the bytecode it corresponds to,
// the statement-level counterpart to expr.go's expression codegen.
func (p *parser) genStat(fs *funcState, s ast.Stat) {
	switch st := s.(type) {
	case *ast.EmptyStat:
		// nothing to emit
	case *ast.BreakStat:
		fs.addBreakJmp(fs.emitJmp(st.Line))
	case *ast.GotoStat:
		p.genGotoStat(fs, st)
	case *ast.LabelStat:
		p.genLabelStat(fs, st)
	case *ast.WhileStat:
		p.genWhileStat(fs, st)
	case *ast.RepeatStat:
		p.genRepeatStat(fs, st)
	case *ast.IfStat:
		p.genIfStat(fs, st)
	case *ast.ForNumStat:
		p.genForNumStat(fs, st)
	case *ast.ForInStat:
		p.genForInStat(fs, st)
	case *ast.LocalVarDeclStat:
		p.genLocalVarDeclStat(fs, st)
	case *ast.LocalFuncDefStat:
		p.genLocalFuncDefStat(fs, st)
	case *ast.AssignStat:
		p.genAssignStat(fs, st)
	case *ast.FuncCallStat:
		p.callExpr(fs, st.Call, fs.usedRegs, 0)
	default:
		panic("parser: unhandled statement type")
	}
}

// genBlock emits a nested block's statements in place, without the
// unconditional trailing RETURN that closeBlock adds for whole function
// bodies — a return only gets emitted here if the block actually had an
// explicit retstat (b.RetExps is nil, not merely empty, when it didn't).
func (p *parser) genBlock(fs *funcState, b *ast.Block) {
	for _, s := range b.Stats {
		p.genStat(fs, s)
	}
	if b.RetExps != nil {
		p.genReturn(fs, b.RetExps, b.LastLine)
	}
}

func (p *parser) genGotoStat(fs *funcState, s *ast.GotoStat) {
	pc := fs.emitJmp(s.Line)
	if target, ok := fs.labels[s.Name]; ok {
		fs.patchJmp(pc, target)
		return
	}
	fs.gotos = append(fs.gotos, pendingGoto{name: s.Name, pc: pc, line: s.Line, scopeLv: fs.scopeLv})
}

func (p *parser) genLabelStat(fs *funcState, s *ast.LabelStat) {
	if _, dup := fs.labels[s.Name]; dup {
		panic(s.Name + ": label already defined in this function")
	}
	target := fs.pc() + 1
	fs.labels[s.Name] = target
	remaining := fs.gotos[:0]
	for _, g := range fs.gotos {
		if g.name == s.Name {
			fs.patchJmp(g.pc, target)
		} else {
			remaining = append(remaining, g)
		}
	}
	fs.gotos = remaining
}

// checkPendingGotos is called once a function body is fully generated;
// any goto left unresolved here never found a matching label.
func checkPendingGotos(fs *funcState) {
	for _, g := range fs.gotos {
		panic("no visible label '" + g.name + "' for goto at line " + strconv.Itoa(g.line))
	}
}

func (p *parser) genWhileStat(fs *funcState, s *ast.WhileStat) {
	start := fs.pc() + 1
	line := p.lineOf(s.Exp)
	base := fs.usedRegs
	condReg := p.exprToReg(fs, s.Exp)
	fs.emitTest(line, condReg, true)
	exitJmp := fs.emitJmp(line)
	fs.usedRegs = base

	fs.enterScope(true)
	p.genBlock(fs, s.Block)
	back := fs.emitJmp(s.Block.LastLine)
	fs.patchJmp(back, start)
	// breaks land after the back-edge, as in genRepeatStat.
	fs.exitScope(fs.pc() + 1)

	fs.patchJmpToHere(exitJmp)
}

func (p *parser) genRepeatStat(fs *funcState, s *ast.RepeatStat) {
	start := fs.pc() + 1
	fs.enterScope(true)
	// repeat's until-condition can see locals declared in the body, so
	// the body's scope stays open while the condition is evaluated.
	p.genBlock(fs, s.Block)
	line := p.lineOf(s.Exp)
	base := fs.usedRegs
	condReg := p.exprToReg(fs, s.Exp)
	// TEST skips the back-jump (exiting the loop) once the condition is
	// true; the back-jump itself fires only while it's still false.
	fs.emitTest(line, condReg, true)
	back := fs.emitJmp(line)
	fs.usedRegs = base
	fs.patchJmp(back, start)
	fs.exitScope(fs.pc() + 1)
}

func (p *parser) genIfStat(fs *funcState, s *ast.IfStat) {
	var endJmps []int
	n := len(s.Exps)
	for i := 0; i < n; i++ {
		exp := s.Exps[i]
		block := s.Blocks[i]
		_, always := exp.(*ast.TrueExp)

		var elseJmp int
		if !always {
			base := fs.usedRegs
			line := p.lineOf(exp)
			condReg := p.exprToReg(fs, exp)
			fs.emitTest(line, condReg, true)
			elseJmp = fs.emitJmp(line)
			fs.usedRegs = base
		}

		fs.enterScope(false)
		p.genBlock(fs, block)
		fs.exitScope(fs.pc() + 1)

		if i != n-1 {
			endJmps = append(endJmps, fs.emitJmp(block.LastLine))
		}
		if !always {
			fs.patchJmpToHere(elseJmp)
		}
	}
	for _, j := range endJmps {
		fs.patchJmpToHere(j)
	}
}

// genForNumStat lays out the loop's three control values and the
// user-visible loop variable in four consecutive registers, grounded on
// the reference compiler's forbody/fixforjump technique but using a
// single "target = jump_pc + offset" convention throughout (see
// funcState.patchAsBx) instead of the reference's separate forward/back
// sign handling.
func (p *parser) genForNumStat(fs *funcState, s *ast.ForNumStat) {
	fs.enterScope(true)
	base := fs.allocRegs(3)
	p.exprToExistingReg(fs, s.InitExp, base)
	p.exprToExistingReg(fs, s.LimitExp, base+1)
	p.exprToExistingReg(fs, s.StepExp, base+2)
	varSlot := fs.allocReg()

	prepPC := fs.emitForPrep(s.LineOfFor, base)

	fs.enterScope(false)
	fs.addLocVarAtSlot(s.VarName, proto.AttribNone, varSlot, fs.pc()+1)
	p.genBlock(fs, s.Block)
	fs.exitScope(fs.pc() + 1)

	loopTarget := fs.pc() + 1
	fs.patchAsBx(prepPC, loopTarget-prepPC)
	loopPC := fs.emitForLoop(s.Block.LastLine, base)
	fs.patchAsBx(loopPC, (prepPC+1)-loopPC)

	// the loop variable's register was already released when its scope
	// exited above; only the three control registers remain.
	fs.freeRegs(3)
	fs.exitScope(fs.pc() + 1)
}

// genForInStat mirrors genForNumStat for the generic for, with three
// control registers (iterator function, state, control value) feeding
// TFORPREP/TFORCALL/TFORLOOP ahead of the caller's NameList registers.
func (p *parser) genForInStat(fs *funcState, s *ast.ForInStat) {
	fs.enterScope(true)
	base := p.evalExpListToNewRegs(fs, s.ExpList, 3)

	prepPC := fs.emitTForPrep(s.LineOfDo, base)

	fs.enterScope(false)
	varBase := fs.allocRegs(len(s.NameList))
	for i, name := range s.NameList {
		fs.addLocVarAtSlot(name, proto.AttribNone, varBase+i, fs.pc()+1)
	}
	p.genBlock(fs, s.Block)
	fs.exitScope(fs.pc() + 1)

	loopTarget := fs.pc() + 1
	fs.patchAsBx(prepPC, loopTarget-prepPC)
	fs.emitTForCall(s.Block.LastLine, base, len(s.NameList))
	loopPC := fs.emitTForLoop(s.Block.LastLine, base+2)
	fs.patchAsBx(loopPC, (prepPC+1)-loopPC)

	// the NameList registers were already released when their scope
	// exited above; only the three control registers remain.
	fs.freeRegs(3)
	fs.exitScope(fs.pc() + 1)
}

// evalExpListToNewRegs evaluates exps into nTargets freshly allocated
// registers, expanding a trailing call/vararg expression to fill
// whatever targets remain (Lua's rule for the last expression in a
// list assigned to more names than there are expressions).
func (p *parser) evalExpListToNewRegs(fs *funcState, exps []ast.Exp, nTargets int) int {
	base := fs.usedRegs
	m := len(exps)
	filled := 0
	for i, e := range exps {
		isLast := i == m-1
		remaining := nTargets - i
		if isLast && remaining >= 1 {
			if p.tryExpandLast(fs, e, remaining) {
				filled = nTargets
				continue
			}
		}
		if i < nTargets {
			p.exprToReg(fs, e)
			filled++
		} else {
			p.exprToReg(fs, e)
			fs.freeReg()
		}
	}
	for i := filled; i < nTargets; i++ {
		fs.emitLoadNil(fs.line, fs.allocReg(), 1)
	}
	return base
}

func (p *parser) tryExpandLast(fs *funcState, e ast.Exp, want int) bool {
	switch ex := e.(type) {
	case *ast.FuncCallExp:
		r := fs.allocReg()
		p.callExpr(fs, ex, r, want)
		if want > 1 {
			fs.allocRegs(want - 1)
		}
		return true
	case *ast.VarargExp:
		r := fs.allocReg()
		fs.emitVararg(ex.Line, r, want)
		if want > 1 {
			fs.allocRegs(want - 1)
		}
		return true
	}
	return false
}

func (p *parser) genLocalVarDeclStat(fs *funcState, s *ast.LocalVarDeclStat) {
	nNames := len(s.NameList)
	base := p.evalExpListToNewRegs(fs, s.ExpList, nNames)
	for i, name := range s.NameList {
		fs.addLocVarAtSlot(name, s.Attributes[i], base+i, fs.pc()+1)
		if s.Attributes[i] == proto.AttribClose {
			fs.emitABC(s.LastLine, code.OpTBC, base+i, 0, 0)
		}
	}
}

func (p *parser) genLocalFuncDefStat(fs *funcState, s *ast.LocalFuncDefStat) {
	// the local is declared before the body is compiled so the function
	// can refer to itself recursively as an upvalue/local.
	slot := fs.addLocVar(s.Name, proto.AttribNone, fs.pc()+1)
	p.funcDefToReg(fs, s.Exp, slot)
}

func (p *parser) genAssignStat(fs *funcState, s *ast.AssignStat) {
	nTargets := len(s.VarList)
	base := p.evalExpListToNewRegs(fs, s.ExpList, nTargets)
	for i, v := range s.VarList {
		p.assignTo(fs, v, base+i)
	}
	fs.usedRegs = base
}

func (p *parser) assignTo(fs *funcState, target ast.Exp, fromReg int) {
	switch v := target.(type) {
	case *ast.NameExp:
		p.assignToName(fs, v, fromReg)
	case *ast.TableAccessExp:
		p.assignToTableAccess(fs, v, fromReg)
	default:
		panic("parser: invalid assignment target")
	}
}

func (p *parser) assignToTableAccess(fs *funcState, ex *ast.TableAccessExp, fromReg int) {
	base := fs.usedRegs
	pr := p.exprToReg(fs, ex.PrefixExp)
	if key, ok := ex.KeyExp.(*ast.StringExp); ok {
		k := fs.indexOfConstant(value.String(p.intern, key.Str))
		fs.emitSetField(ex.LastLine, pr, k, fromReg)
	} else {
		kr := p.exprToReg(fs, ex.KeyExp)
		fs.emitSetTable(ex.LastLine, pr, kr, fromReg)
	}
	fs.usedRegs = base
}
