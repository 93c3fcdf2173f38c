package lex

// Kind identifies a token. The numbering mirrors the teacher's
// compiler/lexer/token.go layout (separators, operators, keywords,
// identifier/number/string, EOF) generalized from the teacher's bespoke
// `lk` surface syntax to standard Lua 5.5 tokens.
type Kind int

const (
	EOF Kind = iota
	Vararg // ...
	Concat // ..

	SepSemi   // ;
	SepComma  // ,
	SepDot    // .
	SepColon  // :
	SepDColon // ::
	SepLParen
	SepRParen
	SepLBrack
	SepRBrack
	SepLCurly
	SepRCurly

	OpAssign // =
	OpMinus
	OpAdd
	OpMul
	OpDiv
	OpIDiv // //
	OpPow
	OpMod
	OpBAnd
	OpBOr
	OpBXor // ~ (binary)
	OpBNot // unused: the lexer returns OpBXor for every `~`, and the parser treats a prefix OpBXor as unary bitwise not
	OpShl
	OpShr
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpNe
	OpLen // #

	KwAnd
	KwBreak
	KwDo
	KwElse
	KwElseif
	KwEnd
	KwFalse
	KwFor
	KwFunction
	KwGoto
	KwIf
	KwIn
	KwLocal
	KwNil
	KwNot
	KwOr
	KwRepeat
	KwReturn
	KwThen
	KwTrue
	KwUntil
	KwWhile

	Identifier
	Number
	String

	numKinds
)

var kindNames = [numKinds]string{
	EOF: "<eof>", Vararg: "...", Concat: "..",
	SepSemi: ";", SepComma: ",", SepDot: ".", SepColon: ":", SepDColon: "::",
	SepLParen: "(", SepRParen: ")", SepLBrack: "[", SepRBrack: "]",
	SepLCurly: "{", SepRCurly: "}",
	OpAssign: "=", OpMinus: "-", OpAdd: "+", OpMul: "*", OpDiv: "/",
	OpIDiv: "//", OpPow: "^", OpMod: "%", OpBAnd: "&", OpBOr: "|",
	OpBXor: "~", OpShl: "<<", OpShr: ">>", OpLt: "<", OpLe: "<=",
	OpGt: ">", OpGe: ">=", OpEq: "==", OpNe: "~=", OpLen: "#",
	KwAnd: "and", KwBreak: "break", KwDo: "do", KwElse: "else",
	KwElseif: "elseif", KwEnd: "end", KwFalse: "false", KwFor: "for",
	KwFunction: "function", KwGoto: "goto", KwIf: "if", KwIn: "in",
	KwLocal: "local", KwNil: "nil", KwNot: "not", KwOr: "or",
	KwRepeat: "repeat", KwReturn: "return", KwThen: "then", KwTrue: "true",
	KwUntil: "until", KwWhile: "while",
	Identifier: "<name>", Number: "<number>", String: "<string>",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "<unknown>"
}

var keywords = map[string]Kind{
	"and": KwAnd, "break": KwBreak, "do": KwDo, "else": KwElse,
	"elseif": KwElseif, "end": KwEnd, "false": KwFalse, "for": KwFor,
	"function": KwFunction, "goto": KwGoto, "if": KwIf, "in": KwIn,
	"local": KwLocal, "nil": KwNil, "not": KwNot, "or": KwOr,
	"repeat": KwRepeat, "return": KwReturn, "then": KwThen, "true": KwTrue,
	"until": KwUntil, "while": KwWhile,
}

// Token is one lexical unit: its kind, source line, and (for identifiers,
// numbers, and strings) its literal text.
type Token struct {
	Kind Kind
	Line int
	Text string
}
