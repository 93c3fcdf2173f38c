package parser

import (
	"git.lolli.tech/lollipopkit/lk5/internal/ast"
	"git.lolli.tech/lollipopkit/lk5/internal/lex"
)

// prefixexp ::= Name | '(' exp ')' | prefixexp '[' exp ']'
//             | prefixexp '.' Name | prefixexp [':' Name] args
func (p *parser) parsePrefixExp() ast.Exp {
	var exp ast.Exp
	if p.lex.LookAhead() == lex.Identifier {
		tok := p.lex.NextIdentifier()
		exp = &ast.NameExp{Line: tok.Line, Name: tok.Text}
	} else {
		exp = p.parseParensExp()
	}
	return p.finishPrefixExp(exp)
}

func (p *parser) parseParensExp() ast.Exp {
	p.check(lex.SepLParen)
	exp := p.parseExp()
	p.check(lex.SepRParen)

	switch exp.(type) {
	case *ast.VarargExp, *ast.FuncCallExp, *ast.NameExp, *ast.TableAccessExp:
		return &ast.ParensExp{Exp: exp}
	}
	return exp
}

func (p *parser) finishPrefixExp(exp ast.Exp) ast.Exp {
	for {
		switch p.lex.LookAhead() {
		case lex.SepLBrack:
			p.lex.NextToken()
			key := p.parseExp()
			line := p.check(lex.SepRBrack).Line
			exp = &ast.TableAccessExp{LastLine: line, PrefixExp: exp, KeyExp: key}
		case lex.SepDot:
			p.lex.NextToken()
			name := p.check(lex.Identifier)
			key := &ast.StringExp{Line: name.Line, Str: name.Text}
			exp = &ast.TableAccessExp{LastLine: name.Line, PrefixExp: exp, KeyExp: key}
		case lex.SepLParen, lex.String, lex.SepLCurly, lex.SepColon:
			exp = p.finishFuncCallExp(exp)
		default:
			return exp
		}
	}
}

// functioncall ::= prefixexp args | prefixexp ':' Name args
func (p *parser) finishFuncCallExp(prefix ast.Exp) *ast.FuncCallExp {
	nameExp := p.parseMethodName()
	line := p.lex.Line()
	args := p.parseArgs()
	lastLine := p.lex.Line()
	return &ast.FuncCallExp{Line: line, LastLine: lastLine, PrefixExp: prefix, NameExp: nameExp, Args: args}
}

func (p *parser) parseMethodName() *ast.StringExp {
	if p.lex.LookAhead() != lex.SepColon {
		return nil
	}
	p.lex.NextToken()
	name := p.check(lex.Identifier)
	return &ast.StringExp{Line: name.Line, Str: name.Text}
}

// args ::= '(' [explist] ')' | tableconstructor | LiteralString
func (p *parser) parseArgs() []ast.Exp {
	switch p.lex.LookAhead() {
	case lex.SepLParen:
		p.lex.NextToken()
		var args []ast.Exp
		if p.lex.LookAhead() != lex.SepRParen {
			args = p.parseExpList()
		}
		p.check(lex.SepRParen)
		return args
	case lex.SepLCurly:
		return []ast.Exp{p.parseTableConstructorExp()}
	default:
		str := p.check(lex.String)
		return []ast.Exp{&ast.StringExp{Line: str.Line, Str: str.Text}}
	}
}
