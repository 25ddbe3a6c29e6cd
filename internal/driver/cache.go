package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"cxxtweak/internal/fix"
	"cxxtweak/internal/source"
	"cxxtweak/internal/tweak"
)

// Current schema version - increment when CachePayload format changes
const cacheSchemaVersion uint16 = 1

// Digest keys cache entries.
type Digest [32]byte

// EffectCache хранит найденные сайты твиков по хешу содержимого файла.
// Thread-safe for concurrent access.
type EffectCache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is what a scan found in one file.
type CachePayload struct {
	Schema uint16
	Path   string
	Sites  []CachedSite
}

// CachedSite is a Site without its FileSet bindings.
type CachedSite struct {
	TweakID string
	Title   string
	Offset  uint32
	Line    uint32
	Col     uint32
	Edits   []CachedEdit
}

// CachedEdit mirrors fix.Replacement.
type CachedEdit struct {
	Offset uint32
	Length uint32
	Text   string
	Expect string
}

// OpenEffectCache opens the cache in dir, or in the user cache directory
// under app when dir is empty.
func OpenEffectCache(dir, app string) (*EffectCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &EffectCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *EffectCache) Dir() string { return c.dir }

func (c *EffectCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	// подкаталог по первым двум символам, чтобы не раздувать один каталог
	return filepath.Join(c.dir, "sites", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload.
func (c *EffectCache) Put(key Digest, payload *CachePayload) error {
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
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Атомарная замена
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// Get reads a payload. A missing entry or one written by another schema
// version is a miss, not an error.
func (c *EffectCache) Get(key Digest, out *CachePayload) (bool, error) {
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
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == cacheSchemaVersion, nil
}

// DropAll removes every entry.
func (c *EffectCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "sites"))
}

// cacheKey covers everything that can change the sites found in file:
// its content, the macros predefined for it, the tweak options and the
// set of tweaks that may run.
func cacheKey(file *source.File, opts ScanOptions) Digest {
	h := sha256.New()
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], cacheSchemaVersion)
	h.Write(buf[:])
	h.Write(file.Hash[:])
	h.Write([]byte{byte(opts.Tweak.Anchor)})

	ids := tweak.Default.IDs()
	disabled := append([]string(nil), opts.Disabled...)
	sort.Strings(disabled)
	for _, group := range [][]string{ids, disabled} {
		for _, s := range group {
			h.Write([]byte(s))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}

	names := make([]string, 0, len(opts.Analyze.Defines))
	for name := range opts.Analyze.Defines {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte(name + "=" + opts.Analyze.Defines[name]))
		h.Write([]byte{0})
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func sitesToPayload(path string, sites []Site) *CachePayload {
	payload := &CachePayload{Schema: cacheSchemaVersion, Path: path, Sites: make([]CachedSite, len(sites))}
	for i, s := range sites {
		cs := CachedSite{TweakID: s.TweakID, Title: s.Title, Offset: s.Offset, Line: s.Pos.Line, Col: s.Pos.Col}
		for _, r := range s.Edits.Items() {
			cs.Edits = append(cs.Edits, CachedEdit{Offset: r.Offset, Length: r.Length, Text: r.Text, Expect: r.Expect})
		}
		payload.Sites[i] = cs
	}
	return payload
}

// payloadToSites rebinds cached sites to file. It fails when the cached
// edits no longer fit together, which means the entry is corrupt.
func payloadToSites(file *source.File, payload *CachePayload) ([]Site, error) {
	sites := make([]Site, len(payload.Sites))
	for i, cs := range payload.Sites {
		s := Site{
			Path:    file.Path,
			File:    file.ID,
			TweakID: cs.TweakID,
			Title:   cs.Title,
			Offset:  cs.Offset,
			Pos:     source.LineCol{Line: cs.Line, Col: cs.Col},
		}
		for _, e := range cs.Edits {
			r := fix.Replacement{File: file.ID, Offset: e.Offset, Length: e.Length, Text: e.Text, Expect: e.Expect}
			if err := s.Edits.Add(r); err != nil {
				return nil, err
			}
		}
		sites[i] = s
	}
	return sites, nil
}
