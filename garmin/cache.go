package garmin

import (
	"encoding/json"
	"os"
	"os/user"
	"path/filepath"
	"time"
)

type fileCache struct {
	dir string
}

type cacheEntry struct {
	ETag      string    `json:"etag"`
	FetchedAt time.Time `json:"fetched_at"`
	Body      []byte    `json:"body"`
}

// NewFileCache stores responses under dir, or ~/.garmin_cache when dir is
// empty.
func NewFileCache(dir string) (Cache, error) {
	if dir == "" {
		usr, err := user.Current()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(usr.HomeDir, ".garmin_cache")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &fileCache{dir: dir}, nil
}

func (fc *fileCache) path(key string) string {
	// key is a URL; make it file-safe
	return filepath.Join(fc.dir, sanitize(key)+".json")
}

func sanitize(s string) string {
	repl := map[rune]rune{'/': '_', '?': '_', '&': '_', '=': '_', ':': '_', '#': '_'}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if v, ok := repl[r]; ok {
			out = append(out, v)
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}

func (fc *fileCache) Read(key string, ttl time.Duration) ([]byte, string, bool) {
	b, err := os.ReadFile(fc.path(key))
	if err != nil {
		return nil, "", false
	}
	var ce cacheEntry
	if err := json.Unmarshal(b, &ce); err != nil {
		return nil, "", false
	}
	if ttl > 0 && time.Since(ce.FetchedAt) > ttl {
		return nil, "", false
	}
	return ce.Body, ce.ETag, true
}

func (fc *fileCache) Write(key string, body []byte, etag string) {
	ce := cacheEntry{ETag: etag, FetchedAt: time.Now(), Body: body}
	b, _ := json.MarshalIndent(&ce, "", "  ")
	_ = os.WriteFile(fc.path(key), b, 0o600)
}

func (fc *fileCache) ETag(key string) string {
	_, etag, ok := fc.Read(key, 0)
	if !ok {
		return ""
	}
	return etag
}
