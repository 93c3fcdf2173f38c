// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package lex scans Lua 5.5 source text into a Token stream: one token of
// lookahead, regex-assisted identifier/number scanning, and panic-based
// error reporting with a chunk-name:line prefix. Grounded on the teacher's
// compiler/lexer package (NewLexer/NextToken/LookAhead/error structure), with
// the token set and surface grammar changed from the teacher's bespoke `lk`
// dialect to standard Lua 5.5: real keywords, `~=`/`//`/`::label::`,
// `<const>`/`<close>` attributes, and long bracket strings/comments
// (`[[ ]]`, `[=[ ]=]`) in place of the teacher's backtick raw strings and
// `/* */` block comments.
package lex
