package youtube

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/mo"
	"github.com/spf13/afero"
)

// DefaultCacheLifetime stays well below the expiry yt-dlp stream URLs carry.
const DefaultCacheLifetime = time.Hour

type cacheData struct {
	URLs map[string]string `json:"urls"`
}

// streamCache remembers resolved stream URLs per page URL on disk.
type streamCache struct {
	internal *gache.Cache[*cacheData]
	mu       sync.Mutex
}

func newStreamCache(fs afero.Fs, path string, lifetime time.Duration) *streamCache {
	if lifetime <= 0 {
		lifetime = DefaultCacheLifetime
	}
	return &streamCache{
		internal: gache.New[*cacheData](&gache.Options{
			Path:       path,
			Lifetime:   lifetime,
			FileSystem: gacheFs{fs: fs},
		}),
	}
}

func (c *streamCache) get(page string) mo.Option[string] {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[string]()
	}
	if url, ok := data.URLs[page]; ok {
		return mo.Some(url)
	}
	return mo.None[string]()
}

func (c *streamCache) set(page, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}
	if expired || data == nil || data.URLs == nil {
		data = &cacheData{URLs: make(map[string]string)}
	}
	data.URLs[page] = url
	return c.internal.Set(data)
}

// gacheFs lets gache persist through an afero filesystem.
type gacheFs struct {
	fs afero.Fs
}

func (g gacheFs) OpenFile(name string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	return g.fs.OpenFile(name, flag, perm)
}

func (g gacheFs) MkdirAll(path string, perm os.FileMode) error {
	return g.fs.MkdirAll(path, perm)
}
