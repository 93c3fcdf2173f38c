// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package gc implements the incremental, generational, tri-color
// mark-and-sweep collector described in spec §4.5. No example in the
// retrieval pack implements a from-scratch collector (the teacher relies
// entirely on Go's own GC over its `any`-boxed values), so this package is
// written directly against the state machine, root set, barrier, weak
// table/ephemeron, and finalizer rules spec §4.5 spells out, following the
// teacher's plain exported-struct-plus-methods style and its
// internal/rtlog logging conventions for phase transitions.
package gc
