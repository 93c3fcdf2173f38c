package parser

import (
	"git.lolli.tech/lollipopkit/lk5/internal/ast"
	"git.lolli.tech/lollipopkit/lk5/internal/lex"
)

// block ::= {stat} [retstat]
func (p *parser) parseBlock() *ast.Block {
	return &ast.Block{
		Stats:    p.parseStats(),
		RetExps:  p.parseRetExps(),
		LastLine: p.lex.Line(),
	}
}

func (p *parser) parseStats() []ast.Stat {
	var stats []ast.Stat
	for !isBlockFollow(p.lex.LookAhead()) {
		if p.lex.LookAhead() == lex.KwReturn {
			break
		}
		stat := p.parseStat()
		if _, ok := stat.(*ast.EmptyStat); !ok {
			stats = append(stats, stat)
		}
	}
	return stats
}

func isBlockFollow(k lex.Kind) bool {
	switch k {
	case lex.EOF, lex.KwEnd, lex.KwElse, lex.KwElseif, lex.KwUntil:
		return true
	}
	return false
}

// retstat ::= return [explist] [';']
func (p *parser) parseRetExps() []ast.Exp {
	if p.lex.LookAhead() != lex.KwReturn {
		return nil
	}
	p.lex.NextToken()
	if isBlockFollow(p.lex.LookAhead()) || p.lex.LookAhead() == lex.SepSemi {
		p.accept(lex.SepSemi)
		return []ast.Exp{}
	}
	exps := p.parseExpList()
	p.accept(lex.SepSemi)
	return exps
}
