package ast

import "git.lolli.tech/lollipopkit/lk5/internal/lex"

// Exp is any expression node. The concrete types below mirror the
// teacher's compiler/ast/exp.go shapes; TernaryExp (not part of Lua) is
// dropped and Op fields now carry lex.Kind instead of a bare int.
type Exp interface{}

type NilExp struct{ Line int }
type TrueExp struct{ Line int }
type FalseExp struct{ Line int }
type VarargExp struct{ Line int }

type IntegerExp struct {
	Line int
	Int  int64
}
type FloatExp struct {
	Line  int
	Float float64
}
type StringExp struct {
	Line int
	Str  string
}

type UnopExp struct {
	Line int
	Op   lex.Kind
	Exp  Exp
}

type BinopExp struct {
	Line  int
	Op    lex.Kind
	Left  Exp
	Right Exp
}

// tableconstructor ::= '{' [fieldlist] '}'
// field ::= '[' exp ']' '=' exp | Name '=' exp | exp
type TableConstructorExp struct {
	Line     int
	LastLine int
	KeyExps  []Exp // nil entry means a positional (array-part) field
	ValExps  []Exp
}

// funcbody ::= '(' [parlist] ')' block end
type FuncDefExp struct {
	Line     int
	LastLine int
	ParList  []string
	IsVararg bool
	Block    *Block
}

type NameExp struct {
	Line int
	Name string
}

type ParensExp struct {
	Exp Exp
}

// prefixexp '[' exp ']' | prefixexp '.' Name
type TableAccessExp struct {
	LastLine  int
	PrefixExp Exp
	KeyExp    Exp
}

// prefixexp args | prefixexp ':' Name args
type FuncCallExp struct {
	Line      int
	LastLine  int
	PrefixExp Exp
	NameExp   *StringExp // non-nil for method calls (':' Name)
	Args      []Exp
}
