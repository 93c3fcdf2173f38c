package value

// LString is the heap representation shared by both string variants.
// Short strings are deduplicated through an Intern table so that two
// short strings with identical bytes are the *same* object (spec §3,
// invariant P2); long strings are allocated fresh every time and compare
// by content, with their hash computed lazily on first use.
type LString struct {
	GCHeader
	s        string
	hash     uint64
	hashed   bool
	isShort  bool
}

func (s *LString) String() string { return s.s }
func (s *LString) Len() int        { return len(s.s) }

func (s *LString) Hash() uint64 {
	if !s.hashed {
		s.hash = fnv1a(s.s)
		s.hashed = true
	}
	return s.hash
}

func fnv1a(s string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	return h
}

// Intern is the per-state short-string table (spec §3 "String"). It is
// not process-wide: each State owns one, matching spec §5's "no
// process-wide statics" ownership rule.
type Intern struct {
	table map[string]*LString
}

func NewIntern() *Intern {
	return &Intern{table: make(map[string]*LString, 256)}
}

// NewShortString returns the interned LString for s, allocating it on
// first sight. Strings longer than MaxShortStringLen must go through
// NewLongString instead; callers pick based on len(s).
func (in *Intern) NewShortString(s string) *LString {
	if ls, ok := in.table[s]; ok {
		return ls
	}
	ls := &LString{s: s, isShort: true}
	ls.TypeTag = makeTag(BaseString, VariantStringShort, true)
	ls.hash = fnv1a(s)
	ls.hashed = true
	in.table[s] = ls
	return ls
}

// Forget removes a short string from the intern table. Called by the
// collector's sweep when the only remaining reference was the intern
// table itself (spec invariant I4: the table never returns a collected
// string).
func (in *Intern) Forget(s *LString) {
	delete(in.table, s.s)
}

func NewLongString(s string) *LString {
	ls := &LString{s: s}
	ls.TypeTag = makeTag(BaseString, VariantStringLong, true)
	return ls
}

// NewString builds the right kind of LString for s's length, interning
// short strings through in.
func NewString(in *Intern, s string) *LString {
	if len(s) <= MaxShortStringLen {
		return in.NewShortString(s)
	}
	return NewLongString(s)
}

func String(in *Intern, s string) Value {
	ls := NewString(in, s)
	variant := uint8(VariantStringLong)
	if ls.isShort {
		variant = VariantStringShort
	}
	return fromObject(BaseString, variant, ls)
}

// StringFromLString boxes an already-allocated LString as a Value,
// letting callers that hold a *LString directly (e.g. a GETFIELD fast
// path with a pre-resolved constant) skip Intern's map lookup.
func StringFromLString(s *LString) Value {
	variant := uint8(VariantStringLong)
	if s.isShort {
		variant = VariantStringShort
	}
	return fromObject(BaseString, variant, s)
}

func (v Value) AsLString() *LString {
	ls, _ := v.obj.(*LString)
	return ls
}

func (v Value) AsString() string {
	if ls := v.AsLString(); ls != nil {
		return ls.s
	}
	return ""
}

func stringEqual(a, b Value) bool {
	as, bs := a.AsLString(), b.AsLString()
	if as == nil || bs == nil {
		return as == bs
	}
	if as.isShort && bs.isShort {
		return as == bs // identity, per spec P2
	}
	return as.s == bs.s
}
