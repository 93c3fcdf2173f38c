// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package parser is a recursive-descent parser and code generator fused
// into one package: parsing builds an internal/ast tree one function
// body at a time (parse_block.go/parse_stat.go/parse_exp.go), and
// codegen.go/expr.go immediately walk each finished body into an
// internal/proto.Prototype — there is no separate optimization pass over
// the tree, and nothing downstream of the lexer re-reads source text.
// Grounded on the teacher's compiler/parser (ParseBlock/ParseStat/
// ParseExp grammar shape) and compiler/codegen/func_info.go's funcInfo
// register allocator and emit* helpers, fused into one package and
// adapted from the teacher's brace-delimited `lk` grammar and
// Lua-5.1-shaped bytecode to Lua 5.5's then/do/end grammar and the
// internal/code 5.4/5.5-shaped instruction set.
package parser
