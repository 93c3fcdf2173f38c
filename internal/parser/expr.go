package parser

import (
	"git.lolli.tech/lollipopkit/lk5/internal/ast"
	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/lex"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// exprToReg evaluates exp, leaving its single result in a freshly
// allocated register, and returns that register. This is a simplified,
// eager alternative to the reference compiler's lazy "expdesc" +
// deferred-jump-list scheme (see DESIGN.md): every subexpression is fully
// materialized into a register rather than folded into the consumer's
// own instruction, which costs a few extra MOVE/TEST instructions but
// keeps the single-pass codegen straightforward to read and extend.
func (p *parser) exprToReg(fs *funcState, e ast.Exp) int {
	r := fs.allocReg()
	p.exprToExistingReg(fs, e, r)
	return r
}

func (p *parser) exprToExistingReg(fs *funcState, e ast.Exp, r int) {
	line := p.lineOf(e)
	switch ex := e.(type) {
	case *ast.NilExp:
		fs.emitLoadNil(line, r, 1)
	case *ast.TrueExp:
		fs.emitLoadBool(line, r, true)
	case *ast.FalseExp:
		fs.emitLoadBool(line, r, false)
	case *ast.IntegerExp:
		fs.emitLoadK(line, r, value.Int(ex.Int))
	case *ast.FloatExp:
		fs.emitLoadK(line, r, value.Float(ex.Float))
	case *ast.StringExp:
		fs.emitLoadK(line, r, value.String(p.intern, ex.Str))
	case *ast.VarargExp:
		fs.emitVararg(line, r, 1)
	case *ast.ParensExp:
		p.exprToExistingReg(fs, ex.Exp, r)
	case *ast.NameExp:
		p.nameToReg(fs, ex, r)
	case *ast.FuncDefExp:
		p.funcDefToReg(fs, ex, r)
	case *ast.TableConstructorExp:
		p.tableConstructorToReg(fs, ex, r)
	case *ast.TableAccessExp:
		p.tableAccessToReg(fs, ex, r)
	case *ast.FuncCallExp:
		p.callExpr(fs, ex, r, 1)
	case *ast.UnopExp:
		p.unopToReg(fs, ex, r)
	case *ast.BinopExp:
		p.binopToReg(fs, ex, r)
	default:
		panic("parser: unhandled expression type")
	}
}

func (p *parser) lineOf(e ast.Exp) int {
	switch ex := e.(type) {
	case *ast.NilExp:
		return ex.Line
	case *ast.TrueExp:
		return ex.Line
	case *ast.FalseExp:
		return ex.Line
	case *ast.VarargExp:
		return ex.Line
	case *ast.IntegerExp:
		return ex.Line
	case *ast.FloatExp:
		return ex.Line
	case *ast.StringExp:
		return ex.Line
	case *ast.NameExp:
		return ex.Line
	case *ast.UnopExp:
		return ex.Line
	case *ast.BinopExp:
		return ex.Line
	case *ast.FuncDefExp:
		return ex.Line
	case *ast.TableConstructorExp:
		return ex.Line
	case *ast.FuncCallExp:
		return ex.Line
	case *ast.ParensExp:
		return p.lineOf(ex.Exp)
	case *ast.TableAccessExp:
		return ex.LastLine
	default:
		return p.lex.Line()
	}
}

// nameToReg resolves a bare name against locals, then upvalues, then
// falls back to indexing _ENV (Lua 5.2+'s globals-as-upvalue model).
func (p *parser) nameToReg(fs *funcState, ex *ast.NameExp, r int) {
	if slot := fs.slotOfLocVar(ex.Name); slot >= 0 {
		fs.emitMove(ex.Line, r, slot)
		return
	}
	if idx := fs.indexOfUpval(ex.Name); idx >= 0 {
		fs.emitGetUpval(ex.Line, r, idx)
		return
	}
	envIdx := p.envUpvalIndex(fs)
	k := fs.indexOfConstant(value.String(p.intern, ex.Name))
	fs.emitGetTabUp(ex.Line, r, envIdx, k)
}

// envUpvalIndex returns the index of the implicit _ENV upvalue, creating
// it (chained up through every enclosing funcState, like any other
// upvalue capture) the first time a function references a global.
func (p *parser) envUpvalIndex(fs *funcState) int {
	if idx := fs.indexOfUpval("_ENV"); idx >= 0 {
		return idx
	}
	if fs.parent == nil {
		idx := len(fs.upvalues)
		fs.upvalues["_ENV"] = upvalInfo{locVarSlot: -1, upvalIndex: -1, index: idx}
		return idx
	}
	return fs.indexOfUpval("_ENV")
}

func (p *parser) assignToName(fs *funcState, ex *ast.NameExp, fromReg int) {
	if slot := fs.slotOfLocVar(ex.Name); slot >= 0 {
		fs.emitMove(ex.Line, slot, fromReg)
		return
	}
	if idx := fs.indexOfUpval(ex.Name); idx >= 0 {
		fs.emitSetUpval(ex.Line, fromReg, idx)
		return
	}
	envIdx := p.envUpvalIndex(fs)
	k := fs.indexOfConstant(value.String(p.intern, ex.Name))
	fs.emitSetTabUp(ex.Line, envIdx, k, fromReg)
}

func (p *parser) tableAccessToReg(fs *funcState, ex *ast.TableAccessExp, r int) {
	base := fs.usedRegs
	pr := p.exprToReg(fs, ex.PrefixExp)
	if key, ok := ex.KeyExp.(*ast.StringExp); ok {
		k := fs.indexOfConstant(value.String(p.intern, key.Str))
		fs.emitGetField(ex.LastLine, r, pr, k)
	} else {
		kr := p.exprToReg(fs, ex.KeyExp)
		fs.emitGetTable(ex.LastLine, r, pr, kr)
	}
	fs.usedRegs = base
}

func (p *parser) tableConstructorToReg(fs *funcState, ex *ast.TableConstructorExp, r int) {
	narr, nrec := 0, 0
	for _, k := range ex.KeyExps {
		if k == nil {
			narr++
		} else {
			nrec++
		}
	}
	fs.emitNewTable(ex.Line, r, narr, nrec)

	arrIdx := 0
	pending := 0
	for i, k := range ex.KeyExps {
		v := ex.ValExps[i]
		if k == nil {
			arrIdx++
			vr := p.exprToReg(fs, v)
			if vr != r+1+pending {
				fs.emitMove(ex.LastLine, r+1+pending, vr)
				fs.freeReg()
			}
			pending++
			if pending >= 50 {
				fs.emitSetList(ex.LastLine, r, pending, 1)
				fs.freeRegs(pending)
				pending = 0
			}
			continue
		}
		base := fs.usedRegs
		if ks, ok := k.(*ast.StringExp); ok {
			kc := fs.indexOfConstant(value.String(p.intern, ks.Str))
			vr := p.exprToReg(fs, v)
			fs.emitSetField(ex.LastLine, r, kc, vr)
		} else {
			kr := p.exprToReg(fs, k)
			vr := p.exprToReg(fs, v)
			fs.emitSetTable(ex.LastLine, r, kr, vr)
		}
		fs.usedRegs = base
	}
	if pending > 0 {
		fs.emitSetList(ex.LastLine, r, pending, 1)
		fs.freeRegs(pending)
	}
}

func (p *parser) unopToReg(fs *funcState, ex *ast.UnopExp, r int) {
	if ex.Op == lex.KwAnd || ex.Op == lex.KwOr {
		panic("parser: and/or are not unary operators")
	}
	base := fs.usedRegs
	br := p.exprToReg(fs, ex.Exp)
	switch ex.Op {
	case lex.KwNot:
		fs.emitABC(ex.Line, code.OpNot, r, br, 0)
	case lex.OpBXor: // unary '~' (bitwise not), same lexeme as binary xor
		fs.emitABC(ex.Line, code.OpBNot, r, br, 0)
	case lex.OpLen:
		fs.emitABC(ex.Line, code.OpLen, r, br, 0)
	case lex.OpMinus:
		fs.emitABC(ex.Line, code.OpUnm, r, br, 0)
	default:
		panic("parser: unknown unary operator")
	}
	fs.usedRegs = base
	if r >= fs.usedRegs {
		fs.usedRegs = r + 1
	}
}

func (p *parser) binopToReg(fs *funcState, ex *ast.BinopExp, r int) {
	switch ex.Op {
	case lex.KwAnd:
		p.andToReg(fs, ex, r)
		return
	case lex.KwOr:
		p.orToReg(fs, ex, r)
		return
	case lex.Concat:
		p.concatToReg(fs, ex, r)
		return
	}

	base := fs.usedRegs
	lr := p.exprToReg(fs, ex.Left)
	rr := p.exprToReg(fs, ex.Right)

	if op, ok := arithBitwiseOps[ex.Op]; ok {
		fs.emitABC(ex.Line, op, r, lr, rr)
		fs.usedRegs = base
		if r >= fs.usedRegs {
			fs.usedRegs = r + 1
		}
		return
	}

	var relOp code.Op
	k := true
	swap := false
	switch ex.Op {
	case lex.OpEq:
		relOp = code.OpEq
	case lex.OpNe:
		relOp, k = code.OpEq, false
	case lex.OpLt:
		relOp = code.OpLt
	case lex.OpGt:
		relOp, swap = code.OpLt, true
	case lex.OpLe:
		relOp = code.OpLe
	case lex.OpGe:
		relOp, swap = code.OpLe, true
	default:
		panic("parser: unknown binary operator")
	}
	if swap {
		lr, rr = rr, lr
	}
	p.emitRelOp(fs, ex.Line, relOp, k, lr, rr, r)
	fs.usedRegs = base
	if r >= fs.usedRegs {
		fs.usedRegs = r + 1
	}
}

// emitRelOp materializes a relational comparison's boolean result into
// register r using the classic compare+jump+load-bool-pair sequence: the
// comparison opcode conditionally skips a jump, so exactly one of the two
// LOADFALSE/LOADTRUE that follow ever executes.
func (p *parser) emitRelOp(fs *funcState, line int, op code.Op, k bool, b, c, r int) {
	kArg := 0
	if k {
		kArg = 1
	}
	fs.emitABC(line, op, kArg, b, c)
	jTrue := fs.emitJmp(line)
	fs.emitLoadBool(line, r, false)
	jEnd := fs.emitJmp(line)
	fs.patchJmpToHere(jTrue)
	fs.emitLoadBool(line, r, true)
	fs.patchJmpToHere(jEnd)
}

// andToReg: when Left is truthy, TEST skips the JMP and falls through to
// evaluate Right (the result of "and" when its first operand is truthy);
// when Left is falsy, the JMP fires and short-circuits past Right,
// leaving Left's falsy value in r.
func (p *parser) andToReg(fs *funcState, ex *ast.BinopExp, r int) {
	p.exprToExistingReg(fs, ex.Left, r)
	fs.emitTest(ex.Line, r, true)
	jmp := fs.emitJmp(ex.Line)
	p.exprToExistingReg(fs, ex.Right, r)
	fs.patchJmpToHere(jmp)
}

// orToReg: when Left is falsy, TEST skips the JMP and falls through to
// evaluate Right; when Left is truthy, the JMP fires and short-circuits
// past Right, leaving Left's truthy value in r.
func (p *parser) orToReg(fs *funcState, ex *ast.BinopExp, r int) {
	p.exprToExistingReg(fs, ex.Left, r)
	fs.emitTest(ex.Line, r, false)
	jmp := fs.emitJmp(ex.Line)
	p.exprToExistingReg(fs, ex.Right, r)
	fs.patchJmpToHere(jmp)
}

// concatToReg flattens a right-associative chain of '..' into one
// CONCAT over consecutive registers, matching the reference compiler's
// rule that CONCAT takes a contiguous register range rather than nesting
// one CONCAT per operator.
func (p *parser) concatToReg(fs *funcState, ex *ast.BinopExp, r int) {
	base := fs.usedRegs
	var operands []ast.Exp
	flattenConcat(ex, &operands)
	first := fs.allocRegs(len(operands))
	for i, o := range operands {
		p.exprToExistingReg(fs, o, first+i)
	}
	fs.emitConcat(ex.Line, first, len(operands))
	fs.usedRegs = base
	if first != r {
		fs.emitMove(ex.Line, r, first)
	}
	if r >= fs.usedRegs {
		fs.usedRegs = r + 1
	}
}

func flattenConcat(e ast.Exp, out *[]ast.Exp) {
	if b, ok := e.(*ast.BinopExp); ok && b.Op == lex.Concat {
		flattenConcat(b.Left, out)
		flattenConcat(b.Right, out)
		return
	}
	*out = append(*out, e)
}

func (p *parser) funcDefToReg(fs *funcState, ex *ast.FuncDefExp, r int) {
	child := p.compileFuncBody(fs, ex)
	idx := len(fs.children)
	fs.children = append(fs.children, child)
	fs.emitClosure(ex.Line, r, idx)
}

// callExpr evaluates a function (or method) call, placing nRet results
// (or all results, when nRet < 0) starting at r.
func (p *parser) callExpr(fs *funcState, ex *ast.FuncCallExp, r, nRet int) {
	base := fs.usedRegs
	fr := fs.allocReg()
	if ex.NameExp != nil {
		pr := p.exprToReg(fs, ex.PrefixExp)
		k := fs.indexOfConstant(value.String(p.intern, ex.NameExp.Str))
		fs.emitSelf(ex.Line, fr, pr, k)
		fs.allocReg() // emitSelf's implicit self register
	} else {
		p.exprToExistingReg(fs, ex.PrefixExp, fr)
	}

	nArgs := p.argsToRegs(fs, ex.Args)
	if ex.NameExp != nil {
		nArgs++
	}
	retN := nRet
	if retN < 0 {
		retN = -1
	}
	fs.emitCall(ex.Line, fr, nArgs, retN)
	if nRet != 0 && fr != r {
		fs.emitMove(ex.LastLine, r, fr)
	}
	fs.usedRegs = base
	if r >= fs.usedRegs {
		fs.usedRegs = r + 1
	}
}

// argsToRegs evaluates a call's argument list into consecutive registers
// right after the callee, expanding a final multi-result expression
// (call or vararg) to all its results, matching Lua's "last argument in
// a list" rule.
func (p *parser) argsToRegs(fs *funcState, args []ast.Exp) int {
	n := len(args)
	for i, a := range args {
		last := i == n-1
		if last {
			if call, ok := a.(*ast.FuncCallExp); ok {
				r := fs.allocReg()
				fs.usedRegs--
				p.callExpr(fs, call, r, -1)
				fs.usedRegs = r + 1
				return -1 // signals "all results" to the caller via emitCall's b=0 convention
			}
			if _, ok := a.(*ast.VarargExp); ok {
				r := fs.allocReg()
				fs.emitVararg(p.lineOf(a), r, 0)
				return -1
			}
		}
		p.exprToReg(fs, a)
	}
	return n
}
