// Package format implements the per-container handlers for CBZ, CBR, CB7
// and CBC archives. Each handler exposes the same three operations (scan,
// extract, page details) behind archive.Handler; the service layer owns
// the extension dispatch.
package format

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"comicshelf/internal/archive"
	"comicshelf/internal/zipenc"
)

// collectPages filters entry names down to validated image entries in
// natural sort order. An unsafe name aborts the whole scan.
func collectPages(path string, names []string) ([]string, error) {
	pages := make([]string, 0, len(names))
	for _, name := range names {
		if !archive.IsImageEntry(name) {
			continue
		}
		if err := archive.ValidateEntryName(name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		pages = append(pages, name)
	}
	sort.Slice(pages, func(i, j int) bool {
		return archive.NaturalLess(pages[i], pages[j])
	})
	return pages, nil
}

// openZip opens a ZIP on disk, translating failures into the taxonomy.
func openZip(path string) (*zip.ReadCloser, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, fmt.Errorf("%w: %s: %v", archive.ErrArchiveCorrupted, path, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", archive.ErrArchiveRead, path, err)
	}
	return r, nil
}

// translateOpen maps an archive-library open failure: OS-level problems
// (missing file, permissions) are read errors, everything else means the
// container did not parse.
func translateOpen(path string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %s: %v", archive.ErrArchiveRead, path, err)
	}
	return fmt.Errorf("%w: %s: %v", archive.ErrArchiveCorrupted, path, err)
}

// findZipEntry locates the non-directory entry whose decoded name matches
// filename under the recorded encoding. Returns nil when absent.
func findZipEntry(r *zip.Reader, enc, filename string) *zip.File {
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if zipenc.EntryName(enc, f) == filename {
			return f
		}
	}
	return nil
}

// readZipEntry reads one entry fully. label names the archive in errors.
func readZipEntry(label string, f *zip.File) ([]byte, error) {
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

// zipPageDetails builds the details mapping for a ZIP-backed archive. An
// entry missing from the ZIP (rewritten since scan) is omitted rather than
// failing; the facade fills a synthetic row.
func zipPageDetails(r *zip.Reader, label string, meta *archive.Metadata, withDimensions bool, sizer archive.ImageSizer) (map[string]archive.PageDetails, error) {
	byName := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		byName[zipenc.EntryName(meta.Encoding, f)] = f
	}

	details := make(map[string]archive.PageDetails, len(meta.PageFilenames))
	for _, name := range meta.PageFilenames {
		if err := archive.ValidateEntryName(name); err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		f, ok := byName[name]
		if !ok {
			continue
		}
		d := archive.PageDetails{FileSize: int64(f.UncompressedSize64)}
		if withDimensions {
			data, err := readZipEntry(label, f)
			if err != nil {
				return nil, err
			}
			w, h, err := sizer.Dimensions(data)
			if err != nil {
				return nil, fmt.Errorf("%s: entry %q: %w", label, name, err)
			}
			d.Width, d.Height = w, h
		}
		details[name] = d
	}
	return details, nil
}
