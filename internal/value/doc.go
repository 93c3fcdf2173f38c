// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package value implements the tagged-value representation that is the
// foundation of the runtime's data model: the Value union itself, the GC
// object header every heap type embeds, string interning, and the raw
// field layout of tables and userdata (the algorithms that operate on
// those fields live in package table and package vm, to keep "what a
// table is" separate from "how a table behaves").
package value
