package format

import (
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"

	"comicshelf/internal/archive"
)

// CB7 handles 7-Zip comic archives. 7z support is an optional capability
// decided at construction; a disabled handler fails every operation with
// ErrSevenZipUnavailable so callers can tell "enable the optional
// dependency" apart from "this archive is broken".
type CB7 struct {
	available bool
}

// NewCB7 returns an enabled CB7 handler.
func NewCB7() *CB7 {
	return &CB7{available: true}
}

// NewCB7Disabled returns a handler whose operations all report that 7z
// support is not available.
func NewCB7Disabled() *CB7 {
	return &CB7{}
}

func (h *CB7) unavailable(path string) error {
	return fmt.Errorf("%w: %s: %w", archive.ErrArchiveRead, path, archive.ErrSevenZipUnavailable)
}

func (h *CB7) Scan(path string, lastModifiedNS int64) (*archive.Metadata, error) {
	if !h.available {
		return nil, h.unavailable(path)
	}
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, translateOpen(path, err)
	}
	defer r.Close()

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		names = append(names, f.Name)
	}
	pages, err := collectPages(path, names)
	if err != nil {
		return nil, err
	}
	return &archive.Metadata{PageFilenames: pages, LastModifiedNS: lastModifiedNS}, nil
}

func (h *CB7) ExtractPage(path, filename string, meta *archive.Metadata) ([]byte, error) {
	if !h.available {
		return nil, h.unavailable(path)
	}
	if err := archive.ValidateEntryName(filename); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, translateOpen(path, err)
	}
	defer r.Close()

	f := find7zEntry(r, filename)
	if f == nil {
		return nil, fmt.Errorf("%w: %s: entry %q not found, archive may have changed since scan", archive.ErrArchiveRead, path, filename)
	}
	return read7zEntry(path, f)
}

func (h *CB7) PageDetails(path string, meta *archive.Metadata, withDimensions bool, sizer archive.ImageSizer) (map[string]archive.PageDetails, error) {
	if !h.available {
		return nil, h.unavailable(path)
	}
	r, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, translateOpen(path, err)
	}
	defer r.Close()

	byName := make(map[string]*sevenzip.File, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		byName[f.Name] = f
	}

	details := make(map[string]archive.PageDetails, len(meta.PageFilenames))
	for _, name := range meta.PageFilenames {
		if err := archive.ValidateEntryName(name); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		f, ok := byName[name]
		if !ok {
			continue
		}
		d := archive.PageDetails{FileSize: int64(f.UncompressedSize)}
		if withDimensions {
			data, err := read7zEntry(path, f)
			if err != nil {
				return nil, err
			}
			w, ht, err := sizer.Dimensions(data)
			if err != nil {
				return nil, fmt.Errorf("%s: entry %q: %w", path, name, err)
			}
			d.Width, d.Height = w, ht
		}
		details[name] = d
	}
	return details, nil
}

func find7zEntry(r *sevenzip.ReadCloser, filename string) *sevenzip.File {
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.Name == filename {
			return f
		}
	}
	return nil
}

func read7zEntry(label string, f *sevenzip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: open entry %q: %v", archive.ErrArchiveRead, label, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read entry %q: %v", archive.ErrArchiveRead, label, f.Name, err)
	}
	return data, nil
}
