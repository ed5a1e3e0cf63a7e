// Package cache persists compiled grammars next to their source so that an
// unchanged grammar is not recompiled.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/arr-ai/gramophone/grammar"
	"github.com/cespare/xxhash/v2"
	"github.com/google/renameio/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Suffix is appended to a grammar's path to name its cache file.
const Suffix = ".gfc"

var (
	ErrCacheCorrupt = errors.New("cache corrupt")

	errStale = errors.New("cache stale")
)

// Hash returns the content hash used to validate cache files.
func Hash(src []byte) uint64 {
	return xxhash.Sum64(src)
}

// RuleSource produces the raw rules of a grammar. It is only called when the
// cache cannot be used.
type RuleSource func() ([]grammar.RawRule, error)

// LoadOrCompile returns the grammar cached for path if it was compiled from
// src, and otherwise compiles rules and refreshes the cache. The bool result
// reports a cache hit.
func LoadOrCompile(path string, src []byte, rules RuleSource, ceiling int) (*grammar.Grammar, bool, error) {
	hash := Hash(src)
	cachePath := path + Suffix
	log := logrus.WithField("cache", cachePath)

	g, err := load(cachePath, hash)
	switch {
	case err == nil:
		log.Debug("cache hit")
		return g, true, nil
	case errors.Is(err, ErrCacheCorrupt):
		log.WithError(err).Warn("ignoring unreadable cache")
	default:
		log.WithError(err).Debug("cache miss")
	}

	raw, err := rules()
	if err != nil {
		return nil, false, err
	}
	g, err = grammar.Compile(raw, ceiling)
	if err != nil {
		return nil, false, err
	}
	g.Hash = hash
	if err := save(cachePath, g); err != nil {
		return nil, false, err
	}
	log.WithField("hash", formatHash(hash)).Debug("cache written")
	return g, false, nil
}

func load(path string, hash uint64) (*grammar.Grammar, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	defer f.Close()

	var c file
	if err := yaml.NewDecoder(f).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	stored, err := parseHash(c.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	if stored != hash {
		return nil, errStale
	}
	return c.grammar()
}

func save(path string, g *grammar.Grammar) error {
	var buf bytes.Buffer
	if err := Encode(g, &buf); err != nil {
		return err
	}
	return renameio.WriteFile(path, buf.Bytes(), 0o644)
}

// Encode writes g, including g.Hash, in the cache file format.
func Encode(g *grammar.Grammar, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newFile(g)); err != nil {
		return err
	}
	return enc.Close()
}

// Decode reads a grammar written by Encode. Any failure is ErrCacheCorrupt.
func Decode(r io.Reader) (*grammar.Grammar, error) {
	var c file
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return c.grammar()
}

func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

func parseHash(s string) (uint64, error) {
	return strconv.ParseUint(s, 16, 64)
}
