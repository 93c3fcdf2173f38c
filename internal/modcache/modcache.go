// Copyright 2024 The lk5 Authors
// SPDX-License-Identifier: MIT

// Package modcache is spec §6's compiled-chunk cache: cmd/lk5 hashes a
// script's source and skips re-parsing it when a cached Prototype for
// that hash is already in memory, grounded on the teacher's run.go/
// main.go sha256-keyed ".lkc" on-disk cache, adapted to an in-process
// bounded cache (git.lolli.tech/lollipopkit/go_lru_cacher, the same
// cacher the teacher's stdlib/lib_re.go and lib_json.go use to memoize
// compiled regexps and parsed JSON) backed by internal/binchunk for
// the on-disk half of the same idea.
package modcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	glc "git.lolli.tech/lollipopkit/go_lru_cacher"

	"git.lolli.tech/lollipopkit/lk5/internal/binchunk"
	"git.lolli.tech/lollipopkit/lk5/internal/parser"
	"git.lolli.tech/lollipopkit/lk5/internal/proto"
	"git.lolli.tech/lollipopkit/lk5/internal/value"
)

// defaultCapacity mirrors the teacher's glc.NewCacher(10) call sites; a
// script-embedding host rarely has more than a handful of distinct
// entrypoints hot at once.
const defaultCapacity = 10

// Cache memoizes compiled Prototypes by source hash, both in memory and
// as ".lk5c" files under os.TempDir() the way the teacher's run.go does
// for its single entrypoint.
type Cache struct {
	mem *glc.Cacher
	dir string
}

func New() *Cache {
	return &Cache{mem: glc.NewCacher(defaultCapacity), dir: os.TempDir()}
}

// Hash is the cache key: sha256 of the source text, matching the
// teacher's getSHA256HashCode.
func Hash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Compile parses source under chunkName unless a cached Prototype for
// its hash already exists (in memory, then on disk), returning the
// Prototype either way and populating both cache tiers on a miss.
func (c *Cache) Compile(source []byte, chunkName string, intern *value.Intern) (p *proto.Prototype, err error) {
	key := Hash(source)

	if cached, ok := c.mem.Get(key); ok {
		if p, ok := cached.(*proto.Prototype); ok {
			return p, nil
		}
	}

	if diskPath := c.diskPath(key); diskPath != "" {
		if data, err := os.ReadFile(diskPath); err == nil {
			if p, err := binchunk.Load(data, intern); err == nil {
				c.mem.Set(key, p)
				return p, nil
			}
		}
	}

	// parser.Parse panics (not errors) on a syntax error, matching the
	// lexer's own convention; Compile is the protected boundary that
	// turns it back into a normal error return.
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%v", r)
		}
	}()
	p = parser.Parse(string(source), chunkName, intern)
	c.mem.Set(key, p)
	if diskPath := c.diskPath(key); diskPath != "" {
		_ = os.WriteFile(diskPath, binchunk.Dump(p), 0o644)
	}
	return p, nil
}

func (c *Cache) diskPath(key string) string {
	if c.dir == "" {
		return ""
	}
	return filepath.Join(c.dir, key+".lk5c")
}
