// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package code defines the 32-bit instruction encoding and opcode table
// spec §4.2 describes, adapted from the teacher's vm/instruction.go and
// vm/opcodes.go bit-packing and jump-table style. The teacher's own layout
// (6-bit op, 9-bit B/C, 8-bit A, no k bit) is Lua 5.3-shaped; this package
// re-encodes to the reference 5.4/5.5 layout (7-bit op, 8-bit A, 8-bit B,
// 8-bit C, 1 k bit) so Bx/Ax/sJ fields line up to exactly 32 bits -- see
// DESIGN.md for why the field widths deviate from spec §4.2's prose in the
// one place prose and bit-count disagree.
package code
