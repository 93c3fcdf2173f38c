package parser

import (
	"git.lolli.tech/lollipopkit/lk5/internal/code"
	"git.lolli.tech/lollipopkit/lk5/internal/lex"
)

// arithBitwiseOps maps a binary operator token straight to the register-
// form opcode, mirroring the teacher's arithAndBitwiseBinops table.
var arithBitwiseOps = map[lex.Kind]code.Op{
	lex.OpAdd:  code.OpAdd,
	lex.OpMinus: code.OpSub,
	lex.OpMul:  code.OpMul,
	lex.OpMod:  code.OpMod,
	lex.OpPow:  code.OpPow,
	lex.OpDiv:  code.OpDiv,
	lex.OpIDiv: code.OpIDiv,
	lex.OpBAnd: code.OpBAnd,
	lex.OpBOr:  code.OpBOr,
	lex.OpBXor: code.OpBXor,
	lex.OpShl:  code.OpShl,
	lex.OpShr:  code.OpShr,
}

type binPriority struct{ left, right int }

// priorities follows the reference grammar's operator precedence table;
// right < left for right-associative `..`/`^`.
var priorities = map[lex.Kind]binPriority{
	lex.KwOr:    {1, 1},
	lex.KwAnd:   {2, 2},
	lex.OpLt:    {3, 3}, lex.OpGt: {3, 3}, lex.OpLe: {3, 3},
	lex.OpGe:    {3, 3}, lex.OpNe: {3, 3}, lex.OpEq: {3, 3},
	lex.OpBOr:   {4, 4},
	lex.OpBXor:  {5, 5},
	lex.OpBAnd:  {6, 6},
	lex.OpShl:   {7, 7}, lex.OpShr: {7, 7},
	lex.Concat:  {9, 8}, // right associative
	lex.OpAdd:   {10, 10}, lex.OpMinus: {10, 10},
	lex.OpMul:   {11, 11}, lex.OpDiv: {11, 11}, lex.OpIDiv: {11, 11}, lex.OpMod: {11, 11},
	lex.OpPow:   {14, 13}, // right associative, binds tighter than unary
}

const unaryPriority = 12

func isBinOp(k lex.Kind) bool {
	_, ok := priorities[k]
	return ok
}
