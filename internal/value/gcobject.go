package value

// Color is the tri-color mark used by the incremental collector (gc
// package). It lives next to GCHeader rather than in package gc because
// every heap type embeds a GCHeader and needs to initialize it to White
// at construction time, without importing the collector.
type Color uint8

const (
	White0 Color = iota // two white shades let the collector flip "current white" each cycle
	White1
	Gray
	Black
)

// Age tracks the generational-mode promotion ladder (spec §4.5).
type Age uint8

const (
	AgeNew Age = iota
	AgeSurvival
	AgeOld0
	AgeOld
	AgeOldStable // fully promoted; only rescanned via the remembered set
)

// Flag bits packed alongside color/age in GCHeader.bits.
const (
	FlagFinalized Flags = 1 << iota // __gc/__close already invoked
	FlagFixed                      // pinned by the host, never swept
	FlagSeparated                  // moved to the finalizer-pending list
)

type Flags uint8

// GCHeader is the per-object header spec §3 describes: a link to the next
// object on the owning allgc list, the object's own type tag (for sweep-
// time bookkeeping without a type switch), and the packed mark word.
type GCHeader struct {
	AllGCNext GCObject
	TypeTag   Tag
	color     Color
	age       Age
	flags     Flags
	id        uint64 // stable identity hash source; assigned by the first ID() call
}

var nextObjectID uint64

func allocID() uint64 {
	nextObjectID++
	return nextObjectID
}

// ID is a stable per-object identifier used as the hash source for
// identity-keyed table entries (tables, functions, userdata, threads as
// keys). It has no Lua-visible meaning beyond "distinct objects hash
// differently".
func (h *GCHeader) ID() uint64 {
	if h.id == 0 {
		h.id = allocID()
	}
	return h.id
}

// GCObject is implemented by every heap-allocated type: interned/long
// strings, tables, closures, userdata, threads, and closed upvalues.
type GCObject interface {
	Header() *GCHeader
}

// Traceable is implemented by GCObjects that hold references to other
// GCObjects (everything except strings, which are leaves).
type Traceable interface {
	GCObject
	Trace(mark func(GCObject))
}

func (h *GCHeader) Header() *GCHeader { return h }

func (h *GCHeader) Color() Color     { return h.color }
func (h *GCHeader) SetColor(c Color) { h.color = c }
func (h *GCHeader) Age() Age         { return h.age }
func (h *GCHeader) SetAge(a Age)     { h.age = a }
func (h *GCHeader) HasFlag(f Flags) bool { return h.flags&f != 0 }
func (h *GCHeader) SetFlag(f Flags)      { h.flags |= f }
func (h *GCHeader) ClearFlag(f Flags)    { h.flags &^= f }
