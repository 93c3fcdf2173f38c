// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package ast defines the syntax tree the parser builds and the codegen
// package consumes: expressions (exp.go) and statements/blocks (stat.go).
// Grounded on the teacher's compiler/ast package for the expression node
// shapes (NilExp/StringExp/BinopExp/TableConstructorExp/FuncDefExp/...);
// the teacher's captured snapshot has no stat.go, so Block/Stat and their
// concrete statement types are modeled directly off how
// compiler/parser/parse_stat.go and parse_block.go construct and consume
// them, adapted from the teacher's brace-delimited `lk` grammar
// (`while exp { block }`) to Lua 5.5's `then/do/end`/`repeat/until` forms
// and extended with goto/labels and `<const>`/`<close>` local attributes.
package ast
