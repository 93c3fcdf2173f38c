package modindex

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIndex(t *testing.T, dir string) {
	t.Helper()
	data := `{
		"vm": "5.5.0",
		"modules": {
			"json5": {"path": "json5.lua", "version": 1},
			"uuid": {"path": "vendor/uuid.lua", "version": 2}
		}
	}`
	if err := os.WriteFile(filepath.Join(dir, "index.json"), []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestLoadAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir)

	idx, err := Load(filepath.Join(dir, "index.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx.Engine != "5.5.0" {
		t.Fatalf("Engine = %q, want 5.5.0", idx.Engine)
	}

	path, ok := idx.Resolve("json5")
	if !ok || path != "json5.lua" {
		t.Fatalf("Resolve(json5) = (%q, %v), want (json5.lua, true)", path, ok)
	}

	if _, ok := idx.Resolve("missing"); ok {
		t.Fatalf("Resolve(missing) should report false")
	}
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.json"), []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Load(filepath.Join(dir, "index.json")); err == nil {
		t.Fatalf("Load of invalid JSON should fail")
	}
}

func TestLoadFromEnvRequiresEnvVar(t *testing.T) {
	t.Setenv(EnvVar, "")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("LoadFromEnv without %s set should fail", EnvVar)
	}
}

func TestLoadFromEnvReadsConfiguredDir(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir)
	t.Setenv(EnvVar, dir)

	idx, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if _, ok := idx.Resolve("uuid"); !ok {
		t.Fatalf("expected uuid entry from %s/index.json", dir)
	}
}
