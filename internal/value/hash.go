package value

// HashValue produces a hash for v suitable for locating its main position
// in a table's hash part (spec §4.3). Numbers hash by bit pattern (after
// normalizing integral floats to their integer form, since 1 and 1.0 must
// land on the same key), strings by their (possibly cached) content hash,
// and every other collectable type by a stable per-object identity id
// assigned the first time it is asked for.
func HashValue(v Value) uint64 {
	switch v.tag.Base() {
	case BaseNil:
		return 0
	case BaseBoolean:
		return v.bits + 1
	case BaseNumber:
		if v.tag.Variant() == VariantNumberFloat {
			if i, ok := FloatToInteger(v.AsFloat(), FloatExact); ok {
				return uint64(i) * 2654435761
			}
		}
		return v.bits * 2654435761
	case BaseString:
		return v.AsLString().Hash()
	default:
		if v.obj == nil {
			return 0
		}
		return v.obj.Header().ID() * 11400714819323198485
	}
}
