package table

import (
	"math"

	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// New creates an empty table presized per the CodeGen's NEWTABLE hint.
func New(narr, nrec int) *value.Table { return value.NewTable(narr, nrec) }

// normalizeKey converts an exact-integer float key to its integer form,
// matching spec §4.3: "1" and "1.0" address the same slot.
func normalizeKey(k value.Value) value.Value {
	if k.IsFloat() {
		if i, ok := value.FloatToInteger(k.AsFloat(), value.FloatExact); ok {
			return value.Int(i)
		}
	}
	return k
}

// Get implements spec §4.3 get(t,k): raw lookup only, no __index. Nil
// means absent.
func Get(t *value.Table, k value.Value) value.Value {
	k = normalizeKey(k)
	if k.IsInteger() {
		i := k.AsInt()
		if i >= 1 && int(i) <= len(t.Arr) {
			return t.Arr[i-1]
		}
	}
	if len(t.Hash) == 0 {
		return value.Nil
	}
	pos := mainPosition(t, k)
	for pos >= 0 {
		n := &t.Hash[pos]
		if n.Used && value.RawEqual(n.Key, k) {
			return n.Val
		}
		if n.Next == 0 {
			return value.Nil
		}
		pos = n.Next - 1
	}
	return value.Nil
}

// GetStr is the GETFIELD/SETFIELD fast path: a short-string key looked up
// without re-interning it.
func GetStr(t *value.Table, s *value.LString) value.Value {
	return Get(t, value.StringFromLString(s))
}

// Set implements spec §4.3 set(t,k,v): raw store; v == Nil deletes.
func Set(t *value.Table, k, v value.Value) {
	k = normalizeKey(k)
	t.MarkIterDirty()

	if k.IsInteger() {
		i := k.AsInt()
		if i >= 1 && int(i) <= len(t.Arr) {
			t.Arr[i-1] = v
			if v.IsNil() && int(i) == len(t.Arr) {
				shrinkArray(t)
			}
			return
		}
		if int(i) == len(t.Arr)+1 && !v.IsNil() {
			t.Arr = append(t.Arr, v)
			expandArray(t)
			return
		}
	}

	if v.IsNil() {
		deleteHash(t, k)
		return
	}
	insertHash(t, k, v)
}

func shrinkArray(t *value.Table) {
	n := len(t.Arr)
	for n > 0 && t.Arr[n-1].IsNil() {
		n--
	}
	t.Arr = t.Arr[:n]
}

func expandArray(t *value.Table) {
	for {
		k := value.Int(int64(len(t.Arr) + 1))
		v := Get(t, k)
		if v.IsNil() {
			return
		}
		deleteHash(t, k)
		t.Arr = append(t.Arr, v)
	}
}

// Len implements spec §4.3's len(t): a border, computed from the array
// part's high-water mark and, if the slot right after it is occupied in
// the hash part, a binary search extending into the hash part.
func Len(t *value.Table) int64 {
	n := len(t.Arr)
	for n > 0 && t.Arr[n-1].IsNil() {
		n--
	}
	if n == len(t.Arr) && !Get(t, value.Int(int64(n+1))).IsNil() {
		// border extends into the hash part; binary search for it.
		i, j := int64(n), int64(n)+1
		for !Get(t, value.Int(j)).IsNil() {
			i = j
			if j > math.MaxInt64/2 {
				// degenerate: walk linearly rather than overflow.
				for !Get(t, value.Int(i+1)).IsNil() {
					i++
				}
				return i
			}
			j *= 2
		}
		for j-i > 1 {
			m := (i + j) / 2
			if Get(t, value.Int(m)).IsNil() {
				j = m
			} else {
				i = m
			}
		}
		return i
	}
	return int64(n)
}

// Next implements spec §4.3 next(t,k): traversal order is {array part,
// then hash part in slot order}, stable across deletion of the current
// key.
func Next(t *value.Table, k value.Value) (nk, nv value.Value, ok bool) {
	order := iterationOrder(t)
	if k.IsNil() {
		if len(order) == 0 {
			return value.Nil, value.Nil, true
		}
		return firstLive(t, order, 0)
	}
	k = normalizeKey(k)
	for idx, ok2 := range order {
		if value.RawEqual(ok2, k) {
			return firstLive(t, order, idx+1)
		}
	}
	return value.Nil, value.Nil, false
}

func firstLive(t *value.Table, order []value.Value, from int) (value.Value, value.Value, bool) {
	for i := from; i < len(order); i++ {
		v := Get(t, order[i])
		if !v.IsNil() {
			return order[i], v, true
		}
	}
	return value.Nil, value.Nil, true
}

func iterationOrder(t *value.Table) []value.Value {
	order := make([]value.Value, 0, len(t.Arr)+len(t.Hash))
	for i := range t.Arr {
		if !t.Arr[i].IsNil() {
			order = append(order, value.Int(int64(i+1)))
		}
	}
	for i := range t.Hash {
		if t.Hash[i].Used {
			order = append(order, t.Hash[i].Key)
		}
	}
	return order
}

func mainPosition(t *value.Table, k value.Value) int {
	if len(t.Hash) == 0 {
		return -1
	}
	return int(value.HashValue(k) & uint64(len(t.Hash)-1))
}

func getFreePos(t *value.Table) int {
	for t.LastFree > 0 {
		t.LastFree--
		if !t.Hash[t.LastFree].Used {
			return t.LastFree
		}
	}
	return -1
}

func insertHash(t *value.Table, k, v value.Value) {
	if len(t.Hash) == 0 {
		rehash(t, 1)
	}
	mp := mainPosition(t, k)
	for {
		n := &t.Hash[mp]
		if !n.Used {
			n.Used, n.Key, n.Val, n.Next = true, k, v, 0
			return
		}
		if value.RawEqual(n.Key, k) {
			n.Val = v
			return
		}

		free := getFreePos(t)
		if free < 0 {
			rehash(t, 1)
			insertHash(t, k, v)
			return
		}

		otherMP := mainPosition(t, n.Key)
		if otherMP != mp {
			// n is not in its own main position: it was chained here
			// from otherMP. Unlink it from that chain, move it to the
			// free slot, and take over mp for the new key.
			prev := otherMP
			for t.Hash[prev].Next-1 != mp {
				prev = t.Hash[prev].Next - 1
			}
			t.Hash[prev].Next = free + 1
			t.Hash[free] = *n
			n.Used, n.Key, n.Val, n.Next = true, k, v, 0
			return
		}

		// n is in its main position: chain the new key from it.
		t.Hash[free] = value.HashNode{Used: true, Key: k, Val: v, Next: n.Next}
		n.Next = free + 1
		return
	}
}

func deleteHash(t *value.Table, k value.Value) {
	if len(t.Hash) == 0 {
		return
	}
	pos := mainPosition(t, k)
	prev := -1
	for pos >= 0 {
		n := &t.Hash[pos]
		if n.Used && value.RawEqual(n.Key, k) {
			// Leave the node present-but-absent (Used stays true with a
			// Nil value temporarily would break chain traversal of the
			// *next* pointer it may carry, so instead splice it out of
			// the chain and clear it -- a traversal holding this exact
			// key as its cursor still resolves via Next() comparing
			// keys against the pre-snapshotted iteration order, not
			// against the now-dead slot itself.
			if prev < 0 {
				if n.Next != 0 {
					nxt := n.Next - 1
					*n = t.Hash[nxt]
					t.Hash[nxt] = value.HashNode{}
				} else {
					*n = value.HashNode{}
				}
			} else {
				t.Hash[prev].Next = n.Next
				*n = value.HashNode{}
			}
			return
		}
		prev = pos
		if n.Next == 0 {
			return
		}
		pos = n.Next - 1
	}
}

// rehash grows the table for at least one more hash insertion, following
// spec §4.3's heuristic: pick the largest array size with >50% occupancy
// among small-integer keys, and a hash part sized to the next power of
// two covering the rest.
func rehash(t *value.Table, extra int) {
	var sizes [64]int
	na := 0
	for i := range t.Arr {
		if !t.Arr[i].IsNil() {
			countInt(sizes[:], int64(i+1))
			na++
		}
	}
	nh := 0
	for i := range t.Hash {
		if t.Hash[i].Used {
			if ik, ok := asCountableInt(t.Hash[i].Key); ok {
				countInt(sizes[:], ik)
			}
			nh++
		}
	}
	_ = nh
	newArrSize := computeArraySize(sizes[:], na)

	entries := collectEntries(t)
	newArr := make([]value.Value, newArrSize)
	var rest []pendingEntry
	for _, e := range entries {
		if e.key.IsInteger() {
			i := e.key.AsInt()
			if i >= 1 && int(i) <= newArrSize {
				newArr[i-1] = e.val
				continue
			}
		}
		rest = append(rest, e)
	}
	hashSize := nextPow2(len(rest) + extra)
	if hashSize == 0 {
		hashSize = 1
	}

	t.Arr = newArr
	t.Hash = make([]value.HashNode, hashSize)
	t.LastFree = hashSize
	for _, e := range rest {
		insertHash(t, e.key, e.val)
	}
}

type pendingEntry struct {
	key, val value.Value
}

func collectEntries(t *value.Table) []pendingEntry {
	out := make([]pendingEntry, 0, len(t.Arr)+len(t.Hash))
	for i := range t.Arr {
		if !t.Arr[i].IsNil() {
			out = append(out, pendingEntry{value.Int(int64(i + 1)), t.Arr[i]})
		}
	}
	for i := range t.Hash {
		if t.Hash[i].Used {
			out = append(out, pendingEntry{t.Hash[i].Key, t.Hash[i].Val})
		}
	}
	return out
}

func asCountableInt(k value.Value) (int64, bool) {
	if k.IsInteger() {
		return k.AsInt(), true
	}
	return 0, false
}

func countInt(sizes []int, i int64) {
	if i < 1 {
		return
	}
	for b := 0; b < len(sizes); b++ {
		if i <= int64(1)<<uint(b) {
			sizes[b]++
			return
		}
	}
}

func computeArraySize(sizes []int, na int) int {
	total := 0
	best := 0
	bestSize := 0
	for b := 0; b < len(sizes); b++ {
		if sizes[b] == 0 {
			continue
		}
		total += sizes[b]
		size := 1 << uint(b)
		if total > size/2 {
			best = total
			bestSize = size
		}
	}
	_ = best
	return bestSize
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Combine merges src's non-nil entries into dst, overwriting keys that
// dst already holds.
func Combine(dst, src *value.Table) {
	if src == nil {
		return
	}
	for i := range src.Arr {
		if !src.Arr[i].IsNil() {
			Set(dst, value.Int(int64(i+1)), src.Arr[i])
		}
	}
	for i := range src.Hash {
		if src.Hash[i].Used {
			Set(dst, src.Hash[i].Key, src.Hash[i].Val)
		}
	}
}
