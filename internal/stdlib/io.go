package stdlib

import (
	"bufio"
	"io"
	"os"

	"git.lolli.tech/lollipopkit/lk5/internal/value"
	"git.lolli.tech/lollipopkit/lk5/internal/vm"
)

// OpenIO installs a minimal `io` library: write to stdout and
// line-read from stdin, the subset of spec.md §5's `io` mention that a
// script-embedding host actually needs (no file-handle objects, matching
// the teacher's stdlib/lib_os.go osRead/osWrite functions, which operate
// on whole files by path rather than open handles).
func OpenIO(st *vm.State) {
	t := newLib(st, "io", 4)
	reg(st, t, "write", ioWrite)

	stdinReader := bufio.NewReader(os.Stdin)
	reg(st, t, "read", func(st *vm.State, args []value.Value) ([]value.Value, error) {
		return ioReadStdin(st, stdinReader, args)
	})
}

func ioWrite(_ *vm.State, args []value.Value) ([]value.Value, error) {
	for _, a := range args {
		io.WriteString(os.Stdout, vm.ToDisplayString(a))
	}
	return nil, nil
}

func ioReadStdin(st *vm.State, r *bufio.Reader, args []value.Value) ([]value.Value, error) {
	mode := "l"
	if len(args) >= 1 && args[0].IsString() {
		mode = args[0].AsString()
	}
	switch mode {
	case "l", "*l", "L", "*L":
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return one(value.Nil), nil
		}
		if mode == "l" || mode == "*l" {
			if n := len(line); n > 0 && line[n-1] == '\n' {
				line = line[:n-1]
			}
		}
		return one(value.String(st.Intern, line)), nil
	case "a", "*a":
		data, _ := io.ReadAll(r)
		return one(value.String(st.Intern, string(data))), nil
	case "n", "*n":
		line, err := r.ReadString('\n')
		if err != nil && line == "" {
			return one(value.Nil), nil
		}
		n, ok := value.StringToNumber(line)
		if !ok {
			return one(value.Nil), nil
		}
		return one(n), nil
	default:
		return one(value.Nil), nil
	}
}
