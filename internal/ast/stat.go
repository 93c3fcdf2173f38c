package ast

import "git.lolli.tech/lollipopkit/lk5/internal/proto"

// block ::= {stat} [retstat]
type Block struct {
	Stats    []Stat
	RetExps  []Exp
	LastLine int
}

// Stat is any statement node.
type Stat interface{}

type EmptyStat struct{}

type BreakStat struct{ Line int }

// goto Name
type GotoStat struct {
	Line int
	Name string
}

// '::' Name '::'
type LabelStat struct {
	Line int
	Name string
}

// while exp do block end
type WhileStat struct {
	Exp   Exp
	Block *Block
}

// repeat block until exp
type RepeatStat struct {
	Block *Block
	Exp   Exp
}

// if exp then block {elseif exp then block} [else block] end
// the trailing 'else' is folded in as one more (TrueExp, block) pair,
// matching the teacher's parse_stat.go technique.
type IfStat struct {
	Exps   []Exp
	Blocks []*Block
}

// for Name '=' exp ',' exp [',' exp] do block end
type ForNumStat struct {
	LineOfFor int
	LineOfDo  int
	VarName   string
	InitExp   Exp
	LimitExp  Exp
	StepExp   Exp
	Block     *Block
}

// for namelist in explist do block end
type ForInStat struct {
	LineOfDo int
	NameList []string
	ExpList  []Exp
	Block    *Block
}

// local namelist ['<' attrib '>'] ['=' explist]
type LocalVarDeclStat struct {
	LastLine   int
	NameList   []string
	Attributes []proto.Attribute // parallel to NameList; AttribNone when absent
	ExpList    []Exp
}

// local function Name funcbody
type LocalFuncDefStat struct {
	Name string
	Exp  *FuncDefExp
}

// varlist '=' explist
type AssignStat struct {
	LastLine int
	VarList  []Exp
	ExpList  []Exp
}

// functioncall used as a statement
type FuncCallStat struct {
	Call *FuncCallExp
}

// function funcname funcbody, funcname ::= Name {'.' Name} [':' Name]
// desugared by the parser into an AssignStat over a (possibly dotted)
// target, matching the teacher's parse_stat.go _finishFuncDefStat.
