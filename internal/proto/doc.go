// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package proto defines Prototype, the compiled shape of a function body
// (spec §3 "Prototype"): its instructions, constants, nested prototypes,
// upvalue descriptors, and debug info. Grounded on the teacher's
// binchunk.Prototype field layout, generalized from the teacher's
// interface{}-typed constant slot to value.Value and carrying the fuller
// Lua 5.5 debug/attribute fields (to-be-closed locals, absolute line
// info) spec.md's expansion calls for.
package proto
