package modcache

import (
	"testing"

	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

func TestCompileCachesByHash(t *testing.T) {
	c := New()
	in := value.NewIntern()

	p1, err := c.Compile([]byte("return 1 + 2"), "=test", in)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	p2, err := c.Compile([]byte("return 1 + 2"), "=test", in)
	if err != nil {
		t.Fatalf("Compile (cached): %v", err)
	}
	if p1 != p2 {
		t.Fatalf("identical source should return the same cached *Prototype")
	}
}

func TestCompileRecoversSyntaxErrorPanic(t *testing.T) {
	c := New()
	in := value.NewIntern()

	if _, err := c.Compile([]byte("return return return"), "=broken", in); err == nil {
		t.Fatalf("Compile of malformed source should return an error, not panic")
	}
}

func TestHashIsDeterministic(t *testing.T) {
	a := Hash([]byte("x = 1"))
	b := Hash([]byte("x = 1"))
	if a != b {
		t.Fatalf("Hash should be deterministic: %s != %s", a, b)
	}
	if c := Hash([]byte("x = 2")); c == a {
		t.Fatalf("different source should hash differently")
	}
}
