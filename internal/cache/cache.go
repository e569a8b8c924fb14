// Package cache stores traced modules on disk, keyed by the class
// signature they were traced from.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"irjax/internal/ir"
)

// schemaVersion is bumped whenever Entry changes shape.
const schemaVersion uint16 = 1

// Key addresses one cached module.
type Key [32]byte

// KeyFor hashes a class signature together with salt, typically the tool
// version, since the signature does not cover the Go bodies.
func KeyFor(signature, salt string) Key {
	h := sha256.New()
	h.Write([]byte(salt))
	h.Write([]byte{0})
	h.Write([]byte(signature))
	var k Key
	copy(k[:], h.Sum(nil))
	return k
}

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// Entry is a cached traced module.
type Entry struct {
	Schema      uint16
	Program     string
	ExportName  string
	Fingerprint ir.Digest
	Text        string
	Funcs       []string
	Created     int64 // unix seconds
}

// NewEntry captures the printed form of m.
func NewEntry(program string, m *ir.Module) (*Entry, error) {
	fp, err := ir.Fingerprint(m)
	if err != nil {
		return nil, err
	}
	funcs := make([]string, len(m.Funcs))
	for i, f := range m.Funcs {
		funcs[i] = f.Name
	}
	return &Entry{
		Schema:      schemaVersion,
		Program:     program,
		ExportName:  m.Name,
		Fingerprint: fp,
		Text:        m.String(),
		Funcs:       funcs,
		Created:     time.Now().Unix(),
	}, nil
}

// Disk is a directory of msgpack-encoded entries. It is safe for
// concurrent use.
type Disk struct {
	mu  sync.RWMutex
	dir string
}

// Open returns the cache of app under XDG_CACHE_HOME, or ~/.cache.
func Open(app string) (*Disk, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDir(filepath.Join(base, app))
}

// OpenDir returns a cache rooted at dir, creating it if needed.
func OpenDir(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Disk{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Disk) Dir() string { return c.dir }

func (c *Disk) pathFor(key Key) string {
	return filepath.Join(c.dir, "modules", key.String()+".mp")
}

// Put writes e under key. The file is replaced atomically.
func (c *Disk) Put(key Key, e *Entry) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp) //nolint:errcheck // gone after a successful rename

	e.Schema = schemaVersion
	if err := msgpack.NewEncoder(f).Encode(e); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

// Get reads the entry under key into out. Missing entries, entries of
// another schema version and files that do not decode report false; the
// next Put replaces them.
func (c *Disk) Get(key Key, out *Entry) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close() //nolint:errcheck

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		*out = Entry{}
		return false, nil
	}
	if out.Schema != schemaVersion {
		return false, nil
	}
	return true, nil
}

// DropAll removes every entry.
func (c *Disk) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}
