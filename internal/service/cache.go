package service

import (
	"fmt"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"comicshelf/internal/archive"
)

// DefaultCacheSize is the bounded capacity of each provider cache.
const DefaultCacheSize = 50

// ScanFunc computes fresh metadata for one archive version. The service
// injects a closure over its handler dispatch.
type ScanFunc func(path string, lastModifiedNS int64) (*archive.Metadata, error)

// DetailsFunc computes fresh page details for one archive version.
type DetailsFunc func(path string, meta *archive.Metadata, withDimensions bool) (map[string]archive.PageDetails, error)

// metadataKey identifies one version of an archive file. Because the
// modification time is part of the key, a rewrite of the file makes the
// old entry unreachable; no explicit invalidation is needed, stale entries
// just age out of the LRU.
type metadataKey struct {
	path       string
	modifiedNS int64
}

type detailsKey struct {
	path           string
	modifiedNS     int64
	withDimensions bool
}

// statKey resolves path and stats it. A stat failure (missing file,
// permission denied) is a read error, reported before any handler runs.
func statKey(path string) (metadataKey, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return metadataKey{}, fmt.Errorf("%w: %s: %v", archive.ErrArchiveRead, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return metadataKey{}, fmt.Errorf("%w: %s: %v", archive.ErrArchiveRead, path, err)
	}
	return metadataKey{path: abs, modifiedNS: info.ModTime().UnixNano()}, nil
}

// MetadataProvider caches scan results so repeated page requests against
// an unmodified archive never re-list its directory structure.
type MetadataProvider struct {
	cache *lru.Cache[metadataKey, *archive.Metadata]
	scan  ScanFunc
}

// NewMetadataProvider builds a provider with the given cache capacity
// (DefaultCacheSize when <= 0) and scan function.
func NewMetadataProvider(capacity int, scan ScanFunc) *MetadataProvider {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache, err := lru.New[metadataKey, *archive.Metadata](capacity)
	if err != nil {
		// lru.New only fails on a non-positive size, which is ruled
		// out above.
		panic(err)
	}
	return &MetadataProvider{cache: cache, scan: scan}
}

// Get returns metadata for the current version of the archive at path,
// scanning only on a cache miss.
func (p *MetadataProvider) Get(path string) (*archive.Metadata, error) {
	key, err := statKey(path)
	if err != nil {
		return nil, err
	}
	if meta, ok := p.cache.Get(key); ok {
		return meta, nil
	}
	meta, err := p.scan(key.path, key.modifiedNS)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, meta)
	return meta, nil
}

// Clear drops every cached entry. Intended for tests and administrative
// resets; normal invalidation happens through the mtime key.
func (p *MetadataProvider) Clear() {
	p.cache.Purge()
}

// PageDetailsProvider caches per-page size/dimension mappings. The
// withDimensions flag is part of the key: the light and heavy computations
// must not be served for each other.
type PageDetailsProvider struct {
	cache    *lru.Cache[detailsKey, map[string]archive.PageDetails]
	metadata *MetadataProvider
	compute  DetailsFunc
}

// NewPageDetailsProvider builds a provider layered over the metadata
// provider.
func NewPageDetailsProvider(capacity int, metadata *MetadataProvider, compute DetailsFunc) *PageDetailsProvider {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	cache, err := lru.New[detailsKey, map[string]archive.PageDetails](capacity)
	if err != nil {
		panic(err)
	}
	return &PageDetailsProvider{cache: cache, metadata: metadata, compute: compute}
}

// Get returns the details mapping for the current version of the archive
// at path, computing on a cache miss.
func (p *PageDetailsProvider) Get(path string, withDimensions bool) (map[string]archive.PageDetails, error) {
	base, err := statKey(path)
	if err != nil {
		return nil, err
	}
	key := detailsKey{path: base.path, modifiedNS: base.modifiedNS, withDimensions: withDimensions}
	if details, ok := p.cache.Get(key); ok {
		return details, nil
	}
	meta, err := p.metadata.Get(base.path)
	if err != nil {
		return nil, err
	}
	details, err := p.compute(base.path, meta, withDimensions)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, details)
	return details, nil
}

// Clear drops every cached entry.
func (p *PageDetailsProvider) Clear() {
	p.cache.Purge()
}
