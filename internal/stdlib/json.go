package stdlib

import (
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"git.lolli.tech/lollipopkit/lk5/internal/table"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenJSON installs `json.encode`/`json.decode`, the stdlib-JSON
// component SPEC_FULL.md's domain-stack table assigns to gjson (decode,
// since gjson is a query-oriented reader rather than a full unmarshaler)
// and jsoniter (encode). Neither the teacher nor reference Lua ships a
// `json` library by default, but SPEC_FULL.md §2 calls for one so the
// mod-index/gjson and Prototype-dump/jsoniter dependencies have a second,
// script-facing home beyond their original single use sites.
func OpenJSON(st *vm.State) {
	t := newLib(st, "json", 2)
	reg(st, t, "encode", jsonEncode)
	reg(st, t, "decode", jsonDecode)
}

func jsonEncode(_ *vm.State, args []value.Value) ([]value.Value, error) {
	v := arg(args, 0)
	out, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(toGo(v))
	if err != nil {
		return nil, err
	}
	return one(value.StringFromLString(value.NewLongString(string(out)))), nil
}

// toGo unwraps a Value into plain interface{} data jsoniter can marshal,
// rendering a table as a JSON array when table.Len is positive and every
// index 1..Len holds a non-nil value (any other keys are then left out),
// and as an object otherwise.
func toGo(v value.Value) interface{} {
	switch {
	case v.IsNil():
		return nil
	case v.IsBoolean():
		return v.AsBool()
	case v.IsInteger():
		return v.AsInt()
	case v.IsFloat():
		return v.AsFloat()
	case v.IsString():
		return v.AsString()
	case v.IsTable():
		return tableToGo(v.AsTable())
	default:
		return vm.ToDisplayString(v)
	}
}

func tableToGo(t *value.Table) interface{} {
	n := table.Len(t)
	isArray := n > 0
	if isArray {
		for i := int64(1); i <= n; i++ {
			if table.Get(t, value.Int(i)).IsNil() {
				isArray = false
				break
			}
		}
	}
	if isArray {
		arr := make([]interface{}, n)
		for i := int64(1); i <= n; i++ {
			arr[i-1] = toGo(table.Get(t, value.Int(i)))
		}
		return arr
	}
	obj := make(map[string]interface{})
	k := value.Nil
	for {
		nk, nv, ok := table.Next(t, k)
		if !ok {
			break
		}
		obj[vm.ToDisplayString(nk)] = toGo(nv)
		k = nk
	}
	return obj
}

func jsonDecode(st *vm.State, args []value.Value) ([]value.Value, error) {
	s, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	if !gjson.Valid(s) {
		return nil, fmt.Errorf("invalid json string")
	}
	return one(fromGJSON(st, gjson.Parse(s))), nil
}

// fromGJSON walks a parsed gjson.Result into the runtime's Value tree,
// mirroring spec.md §4.3's table as the universal aggregate: JSON arrays
// become 1-based array-part tables, JSON objects become hash-part tables.
func fromGJSON(st *vm.State, r gjson.Result) value.Value {
	switch r.Type {
	case gjson.Null:
		return value.Nil
	case gjson.True, gjson.False:
		return value.Bool(r.Bool())
	case gjson.Number:
		if f := r.Float(); f == float64(int64(f)) {
			if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return value.Int(i)
			}
		}
		return value.Float(r.Float())
	case gjson.String:
		return value.String(st.Intern, r.String())
	case gjson.JSON:
		if r.IsArray() {
			elems := r.Array()
			t := table.New(len(elems), 0)
			st.Collector().LinkObject(t)
			for i, e := range elems {
				table.Set(t, value.Int(int64(i+1)), fromGJSON(st, e))
			}
			return value.TableValue(t)
		}
		t := table.New(0, 8)
		st.Collector().LinkObject(t)
		r.ForEach(func(key, v gjson.Result) bool {
			table.Set(t, value.String(st.Intern, key.String()), fromGJSON(st, v))
			return true
		})
		return value.TableValue(t)
	default:
		return value.Nil
	}
}
