package value

// Userdata is a full userdata: a GC-managed box around a host Go value,
// optionally carrying a metatable and extra "user values" (additional
// Lua values attached alongside the boxed Go value, as the reference
// implementation allows since 5.4).
type Userdata struct {
	GCHeader
	Data       any
	Meta       *Table
	UserValues []Value
}

func NewUserdata(data any, nUserValues int) *Userdata {
	u := &Userdata{Data: data}
	u.TypeTag = makeTag(BaseUserdata, VariantUserdataFull, true)
	if nUserValues > 0 {
		u.UserValues = make([]Value, nUserValues)
	}
	return u
}

func UserdataValue(u *Userdata) Value {
	return fromObject(BaseUserdata, VariantUserdataFull, u)
}

func (v Value) AsUserdata() *Userdata {
	u, _ := v.obj.(*Userdata)
	return u
}

// LightUserdata is a bare, non-GC-managed pointer-equivalent: just a Go
// value compared by identity, never tracked by the collector.
func LightUserdataValue(p any) Value {
	return Value{tag: makeTag(BaseLightUserdata, VariantUserdataLight, false), bits: 0, obj: lightBox{p}}
}

// lightBox lets a light userdata's payload ride in the obj field without
// being collectable: it never gets linked onto an allgc list, so the
// collector never sweeps it, and its header is permanently Black, so
// marking it is a no-op. All light userdata share that one header (and
// hence one hash identity).
type lightBox struct{ p any }

var lightHeader = GCHeader{color: Black}

func (lightBox) Header() *GCHeader { return &lightHeader }

func (v Value) AsLightUserdata() any {
	if b, ok := v.obj.(lightBox); ok {
		return b.p
	}
	return nil
}
