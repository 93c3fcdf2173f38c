// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package vm implements the running state of the language: the register
// stack and call chain, Lua and Go closures, coroutines, protected calls,
// and the bytecode dispatch loop itself. It is grounded on the teacher's
// state package (lk_state.go/lk_stack.go/api_call.go/api_coroutine.go) and
// vm package (instruction.go/inst_*.go), generalized from the teacher's
// per-call allocated-stack model to a single growable register file per
// thread (spec §4.6's call chain) and from the teacher's two-opcode 5.3
// instruction set to the full register-based 5.5 set internal/code
// defines. State implements gc.RootProvider so the collector can find
// every live value without importing this package.
package vm
