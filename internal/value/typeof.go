package value

// TypeName returns the Lua-visible type name for v, collapsing the
// internal variants (short/long string, integer/float, light/full
// userdata) the way `type()` does.
func TypeName(v Value) string {
	switch v.tag.Base() {
	case BaseNil:
		return "nil"
	case BaseBoolean:
		return "boolean"
	case BaseNumber:
		return "number"
	case BaseString:
		return "string"
	case BaseTable:
		return "table"
	case BaseFunction:
		return "function"
	case BaseUserdata, BaseLightUserdata:
		return "userdata"
	case BaseThread:
		return "thread"
	default:
		return "no value"
	}
}
