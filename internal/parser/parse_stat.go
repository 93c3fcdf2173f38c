package parser

import (
	"git.lolli.tech/lollipopkit/lk5/internal/ast"
	"git.lolli.tech/lollipopkit/lk5/internal/lex"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
)

var emptyStat = &ast.EmptyStat{}

// stat ::=  ';'
//         | break | goto Name | '::' Name '::'
//         | do block end
//         | while exp do block end
//         | repeat block until exp
//         | if exp then block {elseif exp then block} [else block] end
//         | for Name '=' exp ',' exp [',' exp] do block end
//         | for namelist in explist do block end
//         | function funcname funcbody
//         | local function Name funcbody
//         | local namelist ['<' attrib '>'] ['=' explist]
//         | varlist '=' explist
//         | functioncall
func (p *parser) parseStat() ast.Stat {
	switch p.lex.LookAhead() {
	case lex.SepSemi:
		p.lex.NextToken()
		return emptyStat
	case lex.KwBreak:
		line := p.lex.NextToken().Line
		return &ast.BreakStat{Line: line}
	case lex.KwGoto:
		p.lex.NextToken()
		name := p.check(lex.Identifier)
		return &ast.GotoStat{Line: name.Line, Name: name.Text}
	case lex.SepDColon:
		return p.parseLabelStat()
	case lex.KwDo:
		p.lex.NextToken()
		block := p.parseBlock()
		p.check(lex.KwEnd)
		return doBlockToStat(block)
	case lex.KwWhile:
		return p.parseWhileStat()
	case lex.KwRepeat:
		return p.parseRepeatStat()
	case lex.KwIf:
		return p.parseIfStat()
	case lex.KwFor:
		return p.parseForStat()
	case lex.KwFunction:
		return p.parseFuncDefStat()
	case lex.KwLocal:
		return p.parseLocalStat()
	default:
		return p.parseAssignOrCallStat()
	}
}

// doBlockToStat wraps a bare `do ... end` block as a statement by
// modeling it as `if true then ... end` instead of a dedicated DoStat
// node: genIfStat emits no test for a constant-true condition and gives
// the block its own non-breakable scope, so a `break` or `return` inside
// it still acts on the enclosing loop or function.
func doBlockToStat(b *ast.Block) ast.Stat {
	return &ast.IfStat{
		Exps:   []ast.Exp{&ast.TrueExp{Line: b.LastLine}},
		Blocks: []*ast.Block{b},
	}
}

func (p *parser) parseLabelStat() ast.Stat {
	line := p.check(lex.SepDColon).Line
	name := p.check(lex.Identifier)
	p.check(lex.SepDColon)
	return &ast.LabelStat{Line: line, Name: name.Text}
}

func (p *parser) parseWhileStat() *ast.WhileStat {
	p.check(lex.KwWhile)
	exp := p.parseExp()
	p.check(lex.KwDo)
	block := p.parseBlock()
	p.check(lex.KwEnd)
	return &ast.WhileStat{Exp: exp, Block: block}
}

func (p *parser) parseRepeatStat() *ast.RepeatStat {
	p.check(lex.KwRepeat)
	block := p.parseBlock()
	p.check(lex.KwUntil)
	exp := p.parseExp()
	return &ast.RepeatStat{Block: block, Exp: exp}
}

func (p *parser) parseIfStat() *ast.IfStat {
	var exps []ast.Exp
	var blocks []*ast.Block

	p.check(lex.KwIf)
	exps = append(exps, p.parseExp())
	p.check(lex.KwThen)
	blocks = append(blocks, p.parseBlock())

	for p.lex.LookAhead() == lex.KwElseif {
		p.lex.NextToken()
		exps = append(exps, p.parseExp())
		p.check(lex.KwThen)
		blocks = append(blocks, p.parseBlock())
	}

	if p.lex.LookAhead() == lex.KwElse {
		line := p.lex.NextToken().Line
		exps = append(exps, &ast.TrueExp{Line: line})
		blocks = append(blocks, p.parseBlock())
	}

	p.check(lex.KwEnd)
	return &ast.IfStat{Exps: exps, Blocks: blocks}
}

func (p *parser) parseForStat() ast.Stat {
	lineOfFor := p.check(lex.KwFor).Line
	name0 := p.check(lex.Identifier).Text
	if p.lex.LookAhead() == lex.OpAssign {
		return p.finishForNumStat(lineOfFor, name0)
	}
	return p.finishForInStat(name0)
}

func (p *parser) finishForNumStat(lineOfFor int, varName string) *ast.ForNumStat {
	p.check(lex.OpAssign)
	initExp := p.parseExp()
	p.check(lex.SepComma)
	limitExp := p.parseExp()

	var stepExp ast.Exp
	if p.accept(lex.SepComma) {
		stepExp = p.parseExp()
	} else {
		stepExp = &ast.IntegerExp{Line: p.lex.Line(), Int: 1}
	}

	lineOfDo := p.check(lex.KwDo).Line
	block := p.parseBlock()
	p.check(lex.KwEnd)
	return &ast.ForNumStat{
		LineOfFor: lineOfFor, LineOfDo: lineOfDo, VarName: varName,
		InitExp: initExp, LimitExp: limitExp, StepExp: stepExp, Block: block,
	}
}

func (p *parser) finishForInStat(name0 string) *ast.ForInStat {
	nameList := p.finishNameList(name0)
	p.check(lex.KwIn)
	expList := p.parseExpList()
	lineOfDo := p.check(lex.KwDo).Line
	block := p.parseBlock()
	p.check(lex.KwEnd)
	return &ast.ForInStat{LineOfDo: lineOfDo, NameList: nameList, ExpList: expList, Block: block}
}

func (p *parser) finishNameList(name0 string) []string {
	names := []string{name0}
	for p.accept(lex.SepComma) {
		names = append(names, p.check(lex.Identifier).Text)
	}
	return names
}

// function funcname funcbody
// funcname ::= Name {'.' Name} [':' Name]
func (p *parser) parseFuncDefStat() *ast.AssignStat {
	p.check(lex.KwFunction)
	target, hasColon := p.parseFuncName()
	fd := p.parseFuncDefExp()
	if hasColon {
		fd.ParList = append([]string{"self"}, fd.ParList...)
	}
	return &ast.AssignStat{LastLine: fd.Line, VarList: []ast.Exp{target}, ExpList: []ast.Exp{fd}}
}

func (p *parser) parseFuncName() (target ast.Exp, hasColon bool) {
	name := p.check(lex.Identifier)
	target = &ast.NameExp{Line: name.Line, Name: name.Text}
	for p.lex.LookAhead() == lex.SepDot {
		p.lex.NextToken()
		field := p.check(lex.Identifier)
		target = &ast.TableAccessExp{LastLine: field.Line, PrefixExp: target, KeyExp: &ast.StringExp{Line: field.Line, Str: field.Text}}
	}
	if p.lex.LookAhead() == lex.SepColon {
		p.lex.NextToken()
		hasColon = true
		field := p.check(lex.Identifier)
		target = &ast.TableAccessExp{LastLine: field.Line, PrefixExp: target, KeyExp: &ast.StringExp{Line: field.Line, Str: field.Text}}
	}
	return target, hasColon
}

// local function Name funcbody | local namelist ['<' attrib '>'] ['=' explist]
func (p *parser) parseLocalStat() ast.Stat {
	p.check(lex.KwLocal)
	if p.lex.LookAhead() == lex.KwFunction {
		p.lex.NextToken()
		name := p.check(lex.Identifier).Text
		fd := p.parseFuncDefExp()
		return &ast.LocalFuncDefStat{Name: name, Exp: fd}
	}
	return p.finishLocalVarDeclStat()
}

func (p *parser) finishLocalVarDeclStat() *ast.LocalVarDeclStat {
	var names []string
	var attribs []proto.Attribute
	for {
		names = append(names, p.check(lex.Identifier).Text)
		attribs = append(attribs, p.parseAttrib())
		if !p.accept(lex.SepComma) {
			break
		}
	}
	var exps []ast.Exp
	if p.accept(lex.OpAssign) {
		exps = p.parseExpList()
	}
	return &ast.LocalVarDeclStat{LastLine: p.lex.Line(), NameList: names, Attributes: attribs, ExpList: exps}
}

// attrib ::= ['<' ('const' | 'close') '>']
func (p *parser) parseAttrib() proto.Attribute {
	if p.lex.LookAhead() != lex.OpLt {
		return proto.AttribNone
	}
	p.lex.NextToken()
	name := p.check(lex.Identifier)
	p.check(lex.OpGt)
	switch name.Text {
	case "const":
		return proto.AttribConst
	case "close":
		return proto.AttribClose
	}
	p.syntaxError("unknown attribute '" + name.Text + "'")
	return proto.AttribNone
}

// varlist '=' explist | functioncall
func (p *parser) parseAssignOrCallStat() ast.Stat {
	prefix := p.parsePrefixExp()
	if fc, ok := prefix.(*ast.FuncCallExp); ok && p.lex.LookAhead() != lex.OpAssign && p.lex.LookAhead() != lex.SepComma {
		return &ast.FuncCallStat{Call: fc}
	}
	return p.parseAssignStat(prefix)
}

func (p *parser) parseAssignStat(var0 ast.Exp) ast.Stat {
	varList := p.finishVarList(var0)
	p.check(lex.OpAssign)
	expList := p.parseExpList()
	return &ast.AssignStat{LastLine: p.lex.Line(), VarList: varList, ExpList: expList}
}

func (p *parser) finishVarList(var0 ast.Exp) []ast.Exp {
	vars := []ast.Exp{p.checkVar(var0)}
	for p.accept(lex.SepComma) {
		vars = append(vars, p.checkVar(p.parsePrefixExp()))
	}
	return vars
}

func (p *parser) checkVar(exp ast.Exp) ast.Exp {
	switch exp.(type) {
	case *ast.NameExp, *ast.TableAccessExp:
		return exp
	}
	p.syntaxError("syntax error: not assignable")
	return nil
}
