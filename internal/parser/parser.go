package parser

import (
	"fmt"

	"git.lolli.tech/lollipopkit/lk5/internal/ast"
	"git.lolli.tech/lollipopkit/lk5/internal/lex"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// parser drives both token consumption (producing an internal/ast tree)
// and that tree's code generation — fusing the teacher's separate
// compiler/parser and compiler/codegen packages into one. Parse first
// parses the whole chunk into a *ast.Block and then walks it; a nested
// function literal's body is walked into its own Prototype
// (compileFuncBody) when code generation reaches it.
//
// Syntax errors are reported the same way the lexer does: syntaxError
// panics with a "chunkName:line: message" string. Parse does not recover; the
// embedding loader is expected to run Parse under its own protected call,
// matching spec §4.6's general "errors propagate via panic/recover"
// convention.
type parser struct {
	lex       *lex.Lexer
	intern    *value.Intern
	chunkName string
}

// Parse compiles chunk (source text named chunkName) into a top-level
// Prototype: a vararg function of no parameters, the way the reference
// implementation treats a whole source file as the implicit body of
// `function(...) ... end`.
func Parse(chunk, chunkName string, intern *value.Intern) *proto.Prototype {
	p := &parser{lex: lex.NewLexer(chunk, chunkName), intern: intern, chunkName: chunkName}
	fs := newFuncState(nil, chunkName, 0, 0, true)
	fs.upvalues["_ENV"] = upvalInfo{locVarSlot: -1, upvalIndex: -1, index: 0}
	block := p.parseBlock()
	fs.lastLine = p.lex.Line()
	p.closeBlock(fs, block, fs.lastLine)
	if p.lex.LookAhead() != lex.EOF {
		p.syntaxError("'<eof>' expected")
	}
	return p.finishProto(fs)
}

func (p *parser) syntaxError(msg string) {
	panic(fmt.Sprintf("%s:%d: %s near %s", p.chunkName, p.lex.Line(), msg, p.lex.LookAhead()))
}

func (p *parser) check(k lex.Kind) lex.Token {
	return p.lex.NextTokenOfKind(k)
}

func (p *parser) accept(k lex.Kind) bool {
	if p.lex.LookAhead() == k {
		p.lex.NextToken()
		return true
	}
	return false
}

// compileFuncBody compiles a nested function literal's body into its own
// funcState, chained to parent for upvalue resolution, and returns its
// finished Prototype.
func (p *parser) compileFuncBody(parent *funcState, fd *ast.FuncDefExp) *proto.Prototype {
	fs := newFuncState(parent, parent.source, fd.Line, len(fd.ParList), fd.IsVararg)
	fs.lastLine = fd.LastLine
	fs.enterScope(false)
	for _, name := range fd.ParList {
		fs.addLocVar(name, proto.AttribNone, 0)
	}
	p.closeBlock(fs, fd.Block, fd.LastLine)
	return p.finishProto(fs)
}

// closeBlock emits the block's statements and a final return, then
// reports any goto whose label was never seen; it does not exit a scope.
func (p *parser) closeBlock(fs *funcState, b *ast.Block, endLine int) {
	for _, s := range b.Stats {
		p.genStat(fs, s)
	}
	p.genReturn(fs, b.RetExps, endLine)
	checkPendingGotos(fs)
}

func (p *parser) genReturn(fs *funcState, exps []ast.Exp, line int) {
	if len(exps) == 0 {
		fs.emitReturn(line, 0, 0)
		return
	}
	base := fs.usedRegs
	n := p.argsToRegs(fs, exps)
	if n < 0 {
		fs.emitReturn(line, base, -1)
	} else {
		fs.emitReturn(line, base, n)
	}
	fs.usedRegs = base
}

func (p *parser) finishProto(fs *funcState) *proto.Prototype {
	pt := &proto.Prototype{
		Source:          fs.source,
		LineDefined:     fs.line,
		LastLineDefined: fs.lastLine,
		NumParams:       byte(fs.numParams),
		IsVararg:        fs.isVararg,
		MaxStackSize:    byte(max(fs.maxRegs, 2)),
		Code:            fs.code,
		Protos:          fs.children,
	}
	pt.Constants = make([]value.Value, len(fs.constants))
	for k, idx := range fs.constants {
		pt.Constants[idx] = k
	}
	pt.Upvalues = make([]proto.Upvalue, len(fs.upvalues))
	for name, uv := range fs.upvalues {
		pt.Upvalues[uv.index] = proto.Upvalue{
			Name:    name,
			InStack: uv.locVarSlot >= 0,
			Index:   byte(max(uv.locVarSlot, uv.upvalIndex)),
		}
	}
	pt.LineInfo = make([]int32, len(fs.lines))
	copy(pt.LineInfo, fs.lines)
	for _, lv := range fs.locVars {
		pt.LocVars = append(pt.LocVars, proto.LocVar{
			Name: lv.name, StartPC: lv.startPC, EndPC: lv.endPC,
			Attribute: lv.attribute, Slot: lv.slot,
		})
	}
	return pt
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
