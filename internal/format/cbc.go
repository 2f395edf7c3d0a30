package format

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"

	"comicshelf/internal/archive"
	"comicshelf/internal/zipenc"
)

// CBC handles the "collection" format: a ZIP whose first .cbz member (by
// sorted name) is the actual book. Other members are ignored. A CBC with
// no inner CBZ is valid and simply has no pages.
type CBC struct {
	probe     *zipenc.Probe
	preferred string
}

// NewCBC returns a CBC handler using the given encoding probe for the
// inner CBZ's filename table.
func NewCBC(probe *zipenc.Probe, preferred string) *CBC {
	return &CBC{probe: probe, preferred: preferred}
}

func (h *CBC) Scan(path string, lastModifiedNS int64) (*archive.Metadata, error) {
	r, err := openZip(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	inner := firstCBZEntry(&r.Reader)
	if inner == nil {
		return &archive.Metadata{LastModifiedNS: lastModifiedNS}, nil
	}
	if err := archive.ValidateEntryName(inner.Name); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	data, err := readZipEntry(path, inner)
	if err != nil {
		return nil, err
	}
	res, err := h.probe.DetectBytes(data, path+"!"+inner.Name, h.preferred)
	if err != nil {
		return nil, err
	}
	pages, err := collectPages(path+"!"+inner.Name, res.Filenames)
	if err != nil {
		return nil, err
	}
	return &archive.Metadata{
		PageFilenames:  pages,
		LastModifiedNS: lastModifiedNS,
		Encoding:       res.Encoding,
		InnerCBZ:       inner.Name,
	}, nil
}

func (h *CBC) ExtractPage(path, filename string, meta *archive.Metadata) ([]byte, error) {
	if err := archive.ValidateEntryName(filename); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ir, err := h.openInner(path, meta)
	if err != nil {
		return nil, err
	}
	label := path + "!" + meta.InnerCBZ
	f := findZipEntry(ir, meta.Encoding, filename)
	if f == nil {
		return nil, fmt.Errorf("%w: %s: entry %q not found, archive may have changed since scan", archive.ErrArchiveRead, label, filename)
	}
	return readZipEntry(label, f)
}

func (h *CBC) PageDetails(path string, meta *archive.Metadata, withDimensions bool, sizer archive.ImageSizer) (map[string]archive.PageDetails, error) {
	if meta.InnerCBZ == "" {
		return map[string]archive.PageDetails{}, nil
	}
	ir, err := h.openInner(path, meta)
	if err != nil {
		return nil, err
	}
	return zipPageDetails(ir, path+"!"+meta.InnerCBZ, meta, withDimensions, sizer)
}

// openInner re-reads the outer ZIP, re-extracts the inner CBZ recorded at
// scan time, and opens it in memory.
func (h *CBC) openInner(path string, meta *archive.Metadata) (*zip.Reader, error) {
	if meta.InnerCBZ == "" {
		return nil, fmt.Errorf("%w: %s: no inner cbz entry", archive.ErrArchiveRead, path)
	}
	if err := archive.ValidateEntryName(meta.InnerCBZ); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r, err := openZip(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var inner *zip.File
	for _, f := range r.File {
		if f.Name == meta.InnerCBZ && !f.FileInfo().IsDir() {
			inner = f
			break
		}
	}
	if inner == nil {
		return nil, fmt.Errorf("%w: %s: inner entry %q not found, archive may have changed since scan", archive.ErrArchiveRead, path, meta.InnerCBZ)
	}
	data, err := readZipEntry(path, inner)
	if err != nil {
		return nil, err
	}
	ir, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s!%s: %v", archive.ErrArchiveCorrupted, path, meta.InnerCBZ, err)
	}
	return ir, nil
}

// firstCBZEntry returns the first non-directory .cbz member by sorted
// name, or nil. Additional inner CBZs are ignored.
func firstCBZEntry(r *zip.Reader) *zip.File {
	var candidates []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(f.Name), ".cbz") {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})
	return candidates[0]
}
