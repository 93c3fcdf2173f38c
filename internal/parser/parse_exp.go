package parser

import (
	"git.lolli.tech/lollipopkit/lk5/internal/ast"
	"git.lolli.tech/lollipopkit/lk5/internal/lex"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// parseExpList parses `exp {',' exp}`.
func (p *parser) parseExpList() []ast.Exp {
	exps := []ast.Exp{p.parseExp()}
	for p.accept(lex.SepComma) {
		exps = append(exps, p.parseExp())
	}
	return exps
}

// parseExp parses a full expression by precedence climbing over the
// priorities table (ops.go), replacing the teacher's ladder of one
// parseExpN function per precedence level with a single recursive
// function parameterized on the minimum binding power to accept.
func (p *parser) parseExp() ast.Exp {
	return p.parseSubExp(0)
}

func (p *parser) parseSubExp(limit int) ast.Exp {
	var left ast.Exp
	if k := p.lex.LookAhead(); k == lex.KwNot || k == lex.OpMinus || k == lex.OpLen || k == lex.OpBXor {
		tok := p.lex.NextToken()
		operand := p.parseSubExp(unaryPriority)
		left = &ast.UnopExp{Line: tok.Line, Op: tok.Kind, Exp: operand}
	} else {
		left = p.parseSimpleExp()
	}

	for {
		op := p.lex.LookAhead()
		pri, ok := priorities[op]
		if !ok || pri.left <= limit {
			break
		}
		tok := p.lex.NextToken()
		right := p.parseSubExp(pri.right)
		left = &ast.BinopExp{Line: tok.Line, Op: op, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseSimpleExp() ast.Exp {
	switch p.lex.LookAhead() {
	case lex.Vararg:
		tok := p.lex.NextToken()
		return &ast.VarargExp{Line: tok.Line}
	case lex.KwNil:
		tok := p.lex.NextToken()
		return &ast.NilExp{Line: tok.Line}
	case lex.KwTrue:
		tok := p.lex.NextToken()
		return &ast.TrueExp{Line: tok.Line}
	case lex.KwFalse:
		tok := p.lex.NextToken()
		return &ast.FalseExp{Line: tok.Line}
	case lex.String:
		tok := p.lex.NextToken()
		return &ast.StringExp{Line: tok.Line, Str: tok.Text}
	case lex.Number:
		return p.parseNumberExp()
	case lex.SepLCurly:
		return p.parseTableConstructorExp()
	case lex.KwFunction:
		p.lex.NextToken()
		return p.parseFuncDefExp()
	default:
		return p.parsePrefixExp()
	}
}

func (p *parser) parseNumberExp() ast.Exp {
	tok := p.lex.NextToken()
	if i, ok := value.ParseInteger(tok.Text); ok {
		return &ast.IntegerExp{Line: tok.Line, Int: i}
	}
	if f, ok := value.ParseFloat(tok.Text); ok {
		return &ast.FloatExp{Line: tok.Line, Float: f}
	}
	p.syntaxError("malformed number near '" + tok.Text + "'")
	return nil
}

// tableconstructor ::= '{' [fieldlist] '}'
// fieldlist ::= field {fieldsep field} [fieldsep]
// field ::= '[' exp ']' '=' exp | Name '=' exp | exp
// fieldsep ::= ',' | ';'
func (p *parser) parseTableConstructorExp() ast.Exp {
	line := p.check(lex.SepLCurly).Line
	var keys, vals []ast.Exp
	for p.lex.LookAhead() != lex.SepRCurly {
		switch p.lex.LookAhead() {
		case lex.SepLBrack:
			p.lex.NextToken()
			k := p.parseExp()
			p.check(lex.SepRBrack)
			p.check(lex.OpAssign)
			v := p.parseExp()
			keys = append(keys, k)
			vals = append(vals, v)
		case lex.Identifier:
			save := *p.lex
			name := p.lex.NextToken()
			if p.lex.LookAhead() == lex.OpAssign {
				p.lex.NextToken()
				v := p.parseExp()
				keys = append(keys, &ast.StringExp{Line: name.Line, Str: name.Text})
				vals = append(vals, v)
				continue
			}
			*p.lex = save
			v := p.parseExp()
			keys = append(keys, nil)
			vals = append(vals, v)
		default:
			v := p.parseExp()
			keys = append(keys, nil)
			vals = append(vals, v)
		}
		if p.lex.LookAhead() == lex.SepComma || p.lex.LookAhead() == lex.SepSemi {
			p.lex.NextToken()
		} else {
			break
		}
	}
	lastLine := p.check(lex.SepRCurly).Line
	return &ast.TableConstructorExp{Line: line, LastLine: lastLine, KeyExps: keys, ValExps: vals}
}

// funcbody ::= '(' [parlist] ')' block end
func (p *parser) parseFuncDefExp() *ast.FuncDefExp {
	line := p.lex.Line()
	p.check(lex.SepLParen)
	parList, isVararg := p.parseParList()
	p.check(lex.SepRParen)
	block := p.parseBlock()
	lastLine := p.check(lex.KwEnd).Line
	return &ast.FuncDefExp{Line: line, LastLine: lastLine, ParList: parList, IsVararg: isVararg, Block: block}
}

func (p *parser) parseParList() (names []string, isVararg bool) {
	if p.lex.LookAhead() == lex.SepRParen {
		return nil, false
	}
	for {
		if p.lex.LookAhead() == lex.Vararg {
			p.lex.NextToken()
			isVararg = true
			break
		}
		names = append(names, p.check(lex.Identifier).Text)
		if !p.accept(lex.SepComma) {
			break
		}
	}
	return names, isVararg
}
