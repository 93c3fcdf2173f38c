// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package binchunk is spec §6's binary bytecode format: a header carrying
// enough canary values for a loader to refuse a chunk built for a
// different word size/float representation, followed by a recursive
// dump of one Prototype tree. Grounded on the teacher's binchunk package,
// whose writer.go sketches this exact byte-level header technique (the
// teacher's own binary_chunk.go never finished it, dumping JSON via
// jsoniter instead -- that JSON path survives here as the debug dump in
// debug.go, per SPEC_FULL.md §2).
package binchunk

import "math"

const (
	signature = "\x1bLk5"

	formatVersion = 1
	formatKind    = 0 // 0 = official format, matching reference luac's convention

	cintSize        = 4
	csizetSize      = 8
	instructionSize = 4
	luaIntegerSize  = 8
	luaNumberSize   = 8

	// canary values the header carries so Load can detect a chunk built
	// under a different integer/float representation before trusting any
	// of its contents.
	luacInt int64   = 0x5678
	luacNum float64 = 370.5
)

var luacData = []byte{0x19, 0x93, '\r', '\n', 0x1a, '\n'}

const (
	tagNil       = 0x00
	tagBoolean   = 0x01
	tagNumber    = 0x03
	tagInteger   = 0x13
	tagShortStr  = 0x04
	tagLongStr   = 0x14
)

// the short/long string split mirrors spec §4.1's string subtype: the
// cutoff itself lives in internal/value (DESIGN.md's "short-string length
// bound" decision), binchunk just needs to know which tag byte to use.
const shortStrBound = 40

func float64Bits(f float64) uint64 { return math.Float64bits(f) }
