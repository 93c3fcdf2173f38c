package stdlib

import (
	"os"
	"time"

	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenOS installs the `os` library (spec.md §5), grounded on the
// teacher's stdlib/lib_os.go sysLib map -- minus its cgo time.h include
// (this package has no need to call into libc: Go's own time package
// already gives wall-clock and monotonic readings) and minus `exec`.
// Its file mutators are kept under the standard Lua names `remove` and
// `rename`.
func OpenOS(st *vm.State) {
	t := newLib(st, "os", 8)
	start := time.Now()
	reg(st, t, "time", osTime)
	reg(st, t, "clock", func(_ *vm.State, _ []value.Value) ([]value.Value, error) {
		return one(value.Float(time.Since(start).Seconds())), nil
	})
	reg(st, t, "date", osDate)
	reg(st, t, "getenv", osGetenv)
	reg(st, t, "exit", osExit)
	reg(st, t, "tmpname", osTmpname)
	reg(st, t, "remove", osRemove)
	reg(st, t, "rename", osRename)
}

func osTime(_ *vm.State, _ []value.Value) ([]value.Value, error) {
	return one(value.Int(time.Now().Unix())), nil
}

func osDate(st *vm.State, args []value.Value) ([]value.Value, error) {
	format := "%c"
	if len(args) >= 1 && args[0].IsString() {
		format = args[0].AsString()
	}
	when := time.Now()
	if len(args) >= 2 {
		sec, _ := value.ToInteger(args[1])
		when = time.Unix(sec, 0)
	}
	utc := false
	if len(format) > 0 && format[0] == '!' {
		utc = true
		format = format[1:]
	}
	if utc {
		when = when.UTC()
	}
	return one(value.String(st.Intern, strftime(format, when))), nil
}

// strftime covers the handful of conversions scripts actually use
// (`%Y %m %d %H %M %S %c %x %X`); anything else passes through literally.
func strftime(format string, t time.Time) string {
	var out []byte
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			out = append(out, format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			out = append(out, t.Format("2006")...)
		case 'm':
			out = append(out, t.Format("01")...)
		case 'd':
			out = append(out, t.Format("02")...)
		case 'H':
			out = append(out, t.Format("15")...)
		case 'M':
			out = append(out, t.Format("04")...)
		case 'S':
			out = append(out, t.Format("05")...)
		case 'c':
			out = append(out, t.Format("Mon Jan  2 15:04:05 2006")...)
		case 'x':
			out = append(out, t.Format("01/02/06")...)
		case 'X':
			out = append(out, t.Format("15:04:05")...)
		case '%':
			out = append(out, '%')
		default:
			out = append(out, '%', format[i])
		}
	}
	return string(out)
}

func osGetenv(st *vm.State, args []value.Value) ([]value.Value, error) {
	name, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	v, ok := os.LookupEnv(name)
	if !ok {
		return one(value.Nil), nil
	}
	return one(value.String(st.Intern, v)), nil
}

func osExit(_ *vm.State, args []value.Value) ([]value.Value, error) {
	code := 0
	if len(args) >= 1 {
		if args[0].IsBoolean() {
			if !args[0].AsBool() {
				code = 1
			}
		} else if n, ok := value.ToInteger(args[0]); ok {
			code = int(n)
		}
	}
	os.Exit(code)
	return nil, nil
}

func osTmpname(st *vm.State, _ []value.Value) ([]value.Value, error) {
	f, err := os.CreateTemp("", "lk5")
	if err != nil {
		return nil, err
	}
	name := f.Name()
	f.Close()
	return one(value.String(st.Intern, name)), nil
}

func osRemove(st *vm.State, args []value.Value) ([]value.Value, error) {
	name, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(name); err != nil {
		return []value.Value{value.Nil, value.String(st.Intern, err.Error())}, nil
	}
	return one(value.Bool(true)), nil
}

func osRename(st *vm.State, args []value.Value) ([]value.Value, error) {
	from, err := strArgString(args, 0)
	if err != nil {
		return nil, err
	}
	to, err := strArgString(args, 1)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(from, to); err != nil {
		return []value.Value{value.Nil, value.String(st.Intern, err.Error())}, nil
	}
	return one(value.Bool(true)), nil
}
