// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package modindex reads the JSON module index that spec.md §5's `package`
// library consults to resolve a `require`-style module name to a source
// file on disk, grounded on the teacher's mods/mod.go (which reads an
// embedded index.json describing which built-in modules ship with a given
// VM version) via gjson rather than encoding/json, the way the teacher
// does throughout mods/mod.go.
package modindex

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// EnvVar is the search-path override, the lk5 analogue of the teacher's
// LK_PATH (consts.LkPath): LoadFromEnv reads "<LK5_PATH>/index.json";
// Load itself ignores it and reads only the path it is given.
const EnvVar = "LK5_PATH"

// Entry is one module index record: a script name mapped to the file that
// implements it and the VM version it was indexed against.
type Entry struct {
	Name    string
	Path    string
	Version int64
}

// Index is the parsed module index: name -> Entry, plus the engine
// version string the index was built for (so a stale index built by an
// older lk5 can be told apart from a current one, matching mod.go's
// `index["vm"].String() == consts.VERSION` check).
type Index struct {
	Engine  string
	Entries map[string]Entry
}

// Load reads and parses path (an index.json file), matching mod.go's
// gjson.ParseBytes(...).Map() approach field-for-field.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("modindex: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("modindex: %s is not valid JSON", path)
	}

	root := gjson.ParseBytes(data)
	idx := &Index{
		Engine:  root.Get("vm").String(),
		Entries: make(map[string]Entry),
	}
	for name, mod := range root.Get("modules").Map() {
		idx.Entries[name] = Entry{
			Name:    name,
			Path:    mod.Get("path").String(),
			Version: mod.Get("version").Int(),
		}
	}
	return idx, nil
}

// LoadFromEnv is the default lookup: "$LK5_PATH/index.json", or an error
// if LK5_PATH isn't set (mirroring mod.go's init() warning that built-in
// modules are unavailable without LK_PATH).
func LoadFromEnv() (*Index, error) {
	dir := os.Getenv(EnvVar)
	if dir == "" {
		return nil, fmt.Errorf("modindex: %s not set, module index unavailable", EnvVar)
	}
	return Load(filepath.Join(dir, "index.json"))
}

// Resolve looks up name and returns the path to its source file exactly
// as the index records it; a relative path is not resolved against the
// index's own directory.
func (idx *Index) Resolve(name string) (string, bool) {
	e, ok := idx.Entries[name]
	if !ok {
		return "", false
	}
	return e.Path, true
}
