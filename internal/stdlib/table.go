package stdlib

import (
	"fmt"
	"sort"
	"strings"

	"git.lolli.tech/lollipopkit/lk5/internal/table"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenTable installs the `table` library (spec.md §5), grounded on the
// teacher's stdlib/lib_table.go/lib_list.go (which operate on a Go
// []interface{} "list" type distinct from its table type) generalized
// back onto spec.md §4.3's single hybrid table, since this runtime never
// splits "list" and "table" into two surface types.
func OpenTable(st *vm.State) {
	t := newLib(st, "table", 8)
	reg(st, t, "insert", tblInsert)
	reg(st, t, "remove", tblRemove)
	reg(st, t, "concat", tblConcat)
	reg(st, t, "sort", tblSort)
	reg(st, t, "unpack", func(_ *vm.State, args []value.Value) ([]value.Value, error) { return tableUnpack(args) })
	reg(st, t, "pack", tblPack)
}

func checkTable(args []value.Value, i int) (*value.Table, error) {
	v := arg(args, i)
	if !v.IsTable() {
		return nil, fmt.Errorf("bad argument #%d (table expected, got %s)", i+1, value.TypeName(v))
	}
	return v.AsTable(), nil
}

func tblInsert(st *vm.State, args []value.Value) ([]value.Value, error) {
	t, err := checkTable(args, 0)
	if err != nil {
		return nil, err
	}
	n := table.Len(t)
	switch len(args) {
	case 2:
		table.Set(t, value.Int(n+1), args[1])
	case 3:
		pos, _ := value.ToInteger(args[1])
		for i := n + 1; i > pos; i-- {
			table.Set(t, value.Int(i), table.Get(t, value.Int(i-1)))
		}
		table.Set(t, value.Int(pos), args[2])
	default:
		return nil, fmt.Errorf("wrong number of arguments to 'insert'")
	}
	v := arg(args, len(args)-1)
	if v.Object() != nil {
		st.Collector().WriteBarrier(t, v)
	}
	return nil, nil
}

func tblRemove(_ *vm.State, args []value.Value) ([]value.Value, error) {
	t, err := checkTable(args, 0)
	if err != nil {
		return nil, err
	}
	n := table.Len(t)
	pos := n
	if len(args) >= 2 {
		pos, _ = value.ToInteger(args[1])
	}
	if n == 0 {
		return one(value.Nil), nil
	}
	removed := table.Get(t, value.Int(pos))
	for i := pos; i < n; i++ {
		table.Set(t, value.Int(i), table.Get(t, value.Int(i+1)))
	}
	table.Set(t, value.Int(n), value.Nil)
	return one(removed), nil
}

func tblConcat(st *vm.State, args []value.Value) ([]value.Value, error) {
	t, err := checkTable(args, 0)
	if err != nil {
		return nil, err
	}
	sep := ""
	if len(args) >= 2 {
		sep, _ = strArgString(args, 1)
	}
	i := int64(1)
	if len(args) >= 3 {
		i, _ = value.ToInteger(args[2])
	}
	j := table.Len(t)
	if len(args) >= 4 {
		j, _ = value.ToInteger(args[3])
	}
	var b strings.Builder
	for k := i; k <= j; k++ {
		if k > i {
			b.WriteString(sep)
		}
		v := table.Get(t, value.Int(k))
		if !v.IsString() && !v.IsNumber() {
			return nil, fmt.Errorf("invalid value (%s) at index %d in table for 'concat'", value.TypeName(v), k)
		}
		b.WriteString(vm.ToDisplayString(v))
	}
	return one(value.String(st.Intern, b.String())), nil
}

func tblSort(st *vm.State, args []value.Value) ([]value.Value, error) {
	t, err := checkTable(args, 0)
	if err != nil {
		return nil, err
	}
	n := int(table.Len(t))
	elems := make([]value.Value, n)
	for i := 0; i < n; i++ {
		elems[i] = table.Get(t, value.Int(int64(i+1)))
	}
	var sortErr error
	less := func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		if len(args) >= 2 && !args[1].IsNil() {
			res, err := st.Current().Call(args[1], []value.Value{elems[i], elems[j]}, 1)
			if err != nil {
				sortErr = err
				return false
			}
			return arg(res, 0).Truthy()
		}
		lt, err := st.Current().Less(elems[i], elems[j])
		if err != nil {
			sortErr = err
			return false
		}
		return lt
	}
	sort.SliceStable(elems, less)
	if sortErr != nil {
		return nil, sortErr
	}
	for i, v := range elems {
		table.Set(t, value.Int(int64(i+1)), v)
	}
	return nil, nil
}

func tblPack(st *vm.State, args []value.Value) ([]value.Value, error) {
	t := table.New(len(args), 1)
	st.Collector().LinkObject(t)
	for i, v := range args {
		table.Set(t, value.Int(int64(i+1)), v)
	}
	table.Set(t, value.String(st.Intern, "n"), value.Int(int64(len(args))))
	return one(value.TableValue(t)), nil
}

// tableUnpack backs both table.unpack and the base library's deprecated
// global alias.
func tableUnpack(args []value.Value) ([]value.Value, error) {
	t, err := checkTable(args, 0)
	if err != nil {
		return nil, err
	}
	i := int64(1)
	if len(args) >= 2 {
		i, _ = value.ToInteger(args[1])
	}
	j := table.Len(t)
	if len(args) >= 3 {
		j, _ = value.ToInteger(args[2])
	}
	if i > j {
		return nil, nil
	}
	out := make([]value.Value, 0, j-i+1)
	for k := i; k <= j; k++ {
		out = append(out, table.Get(t, value.Int(k)))
	}
	return out, nil
}
