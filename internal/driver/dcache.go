package driver

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"noisec/internal/project"
	"noisec/internal/version"
)

// Current schema version - increment when CachePayload format changes
const artifactCacheSchema uint16 = 1

// ArtifactCache хранит сгенерированные артефакты по хешу входа и опций.
// Thread-safe for concurrent access.
type ArtifactCache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is what one cache entry holds.
type CachePayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16

	Pattern   string
	Protocol  string
	Artifacts []Artifact
}

// OpenArtifactCache opens the cache under $XDG_CACHE_HOME/<app>, falling
// back to ~/.cache/<app>.
func OpenArtifactCache(app string) (*ArtifactCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewArtifactCache(filepath.Join(base, app))
}

// NewArtifactCache opens a cache rooted at dir.
func NewArtifactCache(dir string) (*ArtifactCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ArtifactCache{dir: dir}, nil
}

// Dir is the cache root.
func (c *ArtifactCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *ArtifactCache) pathFor(key project.Digest) string {
	// всё лежит в подкаталоге "artifacts"
	return filepath.Join(c.dir, "artifacts", key.String()+".mp")
}

// Put serializes and writes a payload to the cache.
func (c *ArtifactCache) Put(key project.Digest, payload *CachePayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry or one written with another schema
// is a miss, not an error.
func (c *ArtifactCache) Get(key project.Digest, out *CachePayload) (bool, error) {
	if c == nil || key.IsZero() {
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
	if out.Schema != artifactCacheSchema {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the whole cache.
func (c *ArtifactCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименовываем и удаляем, чтобы параллельный Get не увидел полудохлый каталог
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

// cacheKey covers the pattern text and every option that changes output.
func cacheKey(text []byte, opts Options) project.Digest {
	var schema [2]byte
	binary.LittleEndian.PutUint16(schema[:], artifactCacheSchema)
	parts := [][]byte{[]byte(version.Version), schema[:]}
	for _, k := range opts.Backends {
		parts = append(parts, []byte("backend:"+k.String()))
	}
	for _, a := range opts.Attackers {
		parts = append(parts, []byte("attacker:"+string(a)))
	}
	if opts.needsVector() {
		fx := opts.fixture()
		parts = append(parts, []byte("tests"), fx.Prologue, fx.PSK[:])
	}
	return project.Combine(project.Hash(text), project.Hash(parts...))
}
