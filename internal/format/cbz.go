package format

import (
	"fmt"

	"comicshelf/internal/archive"
	"comicshelf/internal/zipenc"
)

// CBZ handles standard ZIP comic archives. Scan probes the filename
// encoding once; the recorded encoding is reused by every later open of
// the same file version, because the encoding choice decides which names
// are even addressable.
type CBZ struct {
	probe     *zipenc.Probe
	preferred string
}

// NewCBZ returns a CBZ handler using the given encoding probe. preferred,
// when non-empty, is tried before the probe's configured candidates.
func NewCBZ(probe *zipenc.Probe, preferred string) *CBZ {
	return &CBZ{probe: probe, preferred: preferred}
}

func (h *CBZ) Scan(path string, lastModifiedNS int64) (*archive.Metadata, error) {
	res, err := h.probe.DetectFile(path, h.preferred)
	if err != nil {
		return nil, err
	}
	pages, err := collectPages(path, res.Filenames)
	if err != nil {
		return nil, err
	}
	return &archive.Metadata{
		PageFilenames:  pages,
		LastModifiedNS: lastModifiedNS,
		Encoding:       res.Encoding,
	}, nil
}

func (h *CBZ) ExtractPage(path, filename string, meta *archive.Metadata) ([]byte, error) {
	if err := archive.ValidateEntryName(filename); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r, err := openZip(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	f := findZipEntry(&r.Reader, meta.Encoding, filename)
	if f == nil {
		return nil, fmt.Errorf("%w: %s: entry %q not found, archive may have changed since scan", archive.ErrArchiveRead, path, filename)
	}
	return readZipEntry(path, f)
}

func (h *CBZ) PageDetails(path string, meta *archive.Metadata, withDimensions bool, sizer archive.ImageSizer) (map[string]archive.PageDetails, error) {
	r, err := openZip(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return zipPageDetails(&r.Reader, path, meta, withDimensions, sizer)
}
