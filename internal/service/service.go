// Package service composes the format handlers, the encoding probe and
// the two mtime-keyed caches into the comic archive facade.
package service

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"comicshelf/internal/archive"
	"comicshelf/internal/config"
	"comicshelf/internal/format"
	"comicshelf/internal/imageproc"
	"comicshelf/internal/zipenc"
)

// PageInfo is one row of a page listing. Width and Height are 0 unless
// the listing was requested with dimensions.
type PageInfo struct {
	PageNumber int
	Filename   string
	Width      int
	Height     int
	FileSize   int64
}

// Page is a single extracted page with dimensions computed fresh at
// extraction time.
type Page struct {
	PageNumber int
	Filename   string
	Data       []byte
	Width      int
	Height     int
}

// Service is the comic archive facade. It dispatches to a handler by file
// extension and serves listings from the two caches. The handler registry
// is mutable through RegisterHandler; everything else is set at
// construction.
type Service struct {
	mu       sync.RWMutex
	handlers map[string]archive.Handler

	metadata *MetadataProvider
	details  *PageDetailsProvider
	sizer    archive.ImageSizer
	log      *slog.Logger
}

// New builds a service from settings, registering the four built-in
// handlers. CB7 is registered disabled when 7z support is switched off so
// callers get the distinct unavailable error instead of an unknown
// extension.
func New(cfg config.Settings, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	probe := zipenc.NewProbe(cfg.Encodings)
	cb7 := format.NewCB7()
	if !cfg.SevenZip {
		cb7 = format.NewCB7Disabled()
	}

	s := &Service{
		handlers: map[string]archive.Handler{
			".cbz": format.NewCBZ(probe, cfg.PreferredEncoding),
			".cbr": format.NewCBR(cfg.BsdtarPath, time.Duration(cfg.BsdtarTimeoutSeconds)*time.Second),
			".cb7": cb7,
			".cbc": format.NewCBC(probe, cfg.PreferredEncoding),
		},
		sizer: imageproc.New(),
		log:   log,
	}
	s.metadata = NewMetadataProvider(cfg.MetadataCacheSize, func(path string, lastModifiedNS int64) (*archive.Metadata, error) {
		h, err := s.handlerFor(path)
		if err != nil {
			return nil, err
		}
		s.log.Debug("scanning archive", "path", path, "mtime_ns", lastModifiedNS)
		return h.Scan(path, lastModifiedNS)
	})
	s.details = NewPageDetailsProvider(cfg.DetailsCacheSize, s.metadata, func(path string, meta *archive.Metadata, withDimensions bool) (map[string]archive.PageDetails, error) {
		h, err := s.handlerFor(path)
		if err != nil {
			return nil, err
		}
		s.log.Debug("computing page details", "path", path, "dimensions", withDimensions)
		return h.PageDetails(path, meta, withDimensions, s.sizer)
	})
	return s
}

// RegisterHandler adds or replaces the handler for a file extension. The
// extension is lowercased and must include the leading dot.
func (s *Service) RegisterHandler(ext string, h archive.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToLower(ext)] = h
}

func (s *Service) handlerFor(path string) (archive.Handler, error) {
	ext := strings.ToLower(filepath.Ext(path))
	s.mu.RLock()
	h, ok := s.handlers[ext]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s: no handler for extension %q", archive.ErrUnsupportedFormat, path, ext)
	}
	return h, nil
}

// ListPages returns the archive's pages in natural sort order, 1-based. A
// page missing from the details mapping gets a synthetic zero-size row
// rather than failing the listing.
func (s *Service) ListPages(path string, withDimensions bool) ([]PageInfo, error) {
	meta, err := s.metadata.Get(path)
	if err != nil {
		return nil, err
	}
	details, err := s.details.Get(path, withDimensions)
	if err != nil {
		return nil, err
	}

	infos := make([]PageInfo, 0, len(meta.PageFilenames))
	for i, name := range meta.PageFilenames {
		d := details[name] // zero value stands in for a missing entry
		infos = append(infos, PageInfo{
			PageNumber: i + 1,
			Filename:   name,
			Width:      d.Width,
			Height:     d.Height,
			FileSize:   d.FileSize,
		})
	}
	return infos, nil
}

// GetPage extracts one page by 1-based number. Dimensions are decoded
// fresh from the extracted bytes; callers of GetPage may never have
// listed pages, so nothing is reused from the details cache.
func (s *Service) GetPage(path string, pageNumber int) (*Page, error) {
	meta, err := s.metadata.Get(path)
	if err != nil {
		return nil, err
	}
	if pageNumber < 1 || pageNumber > meta.PageCount() {
		return nil, fmt.Errorf("%w: %s: page %d of %d", archive.ErrPageNotFound, path, pageNumber, meta.PageCount())
	}
	h, err := s.handlerFor(path)
	if err != nil {
		return nil, err
	}

	filename := meta.PageFilenames[pageNumber-1]
	data, err := h.ExtractPage(path, filename, meta)
	if err != nil {
		return nil, err
	}
	width, height, err := s.sizer.Dimensions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: entry %q: %w", path, filename, err)
	}
	return &Page{
		PageNumber: pageNumber,
		Filename:   filename,
		Data:       data,
		Width:      width,
		Height:     height,
	}, nil
}

// ClearCaches purges both provider caches.
func (s *Service) ClearCaches() {
	s.metadata.Clear()
	s.details.Clear()
}
