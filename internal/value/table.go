package value

// Table is the hybrid array+hash structure spec §3/§4.3 describes. The
// fields are exported because the traversal/insertion/rehash *algorithms*
// live in package table (which imports value) rather than here -- this
// file only fixes the shape every table has; how that shape is grown,
// searched and rehashed is a separate, larger concern.
type Table struct {
	GCHeader

	Arr []Value // dense array part, Arr[i] holds key i+1

	// Hash is an open-addressing table of power-of-two size. A node's
	// "main position" is HashValue(key) & (len(Hash)-1); collisions chain
	// through Next indices, per spec §4.3's "last-come-moves" rule.
	Hash     []HashNode
	LastFree int // descending free-slot scan cursor into Hash

	Meta  *Table // metatable, nil if none
	Flags uint8  // bit i set => metamethod i is cached-absent
	Mode  WeakMode

	// keys/iterOrder support a stable next() traversal order across
	// deletions of the *current* key (spec §4.3 "next(t,k)").
	iterOrder []Value
	iterDirty bool
}

// HashNode is one slot of the hash part.
type HashNode struct {
	Key  Value
	Val  Value
	Next int // index+1 of the next node in this key's chain, 0 = end
	Used bool
}

// WeakMode mirrors a table's __mode metafield.
type WeakMode uint8

const (
	WeakNone WeakMode = 0
	WeakKey  WeakMode = 1 << iota
	WeakValue
)

func NewTable(narr, nrec int) *Table {
	t := &Table{}
	t.TypeTag = makeTag(BaseTable, 0, true)
	if narr > 0 {
		t.Arr = make([]Value, 0, narr)
	}
	if nrec > 0 {
		t.Hash = make([]HashNode, nextPow2(nrec))
		t.LastFree = len(t.Hash)
	}
	return t
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	if p == 0 {
		p = 1
	}
	return p
}

func TableValue(t *Table) Value {
	return fromObject(BaseTable, 0, t)
}

func (v Value) AsTable() *Table {
	t, _ := v.obj.(*Table)
	return t
}

// MarkIterDirty invalidates the cached traversal order; called by Set on
// every store and by the collector when it clears weak entries.
func (t *Table) MarkIterDirty() { t.iterDirty = true }
