// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package table implements the operations over value.Table: get/set/len/
// next, the open-addressing insertion and "last-come-moves" collision
// rule, and the array/hash rehash heuristic, per spec §4.3. The struct
// itself lives in package value; this package is "how a table behaves"
// layered over "what a table is", grounded on the teacher's
// state/lk_table.go array+map split, generalized from a bare Go map to
// the hybrid open-addressed hash part spec §4.3 requires.
package table
