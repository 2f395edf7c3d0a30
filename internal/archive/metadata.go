package archive

// Metadata is the scan result for one version of an archive file. The
// version is identified by LastModifiedNS, which the caching layer carries
// through as its validity token; Metadata itself never re-stats the file.
//
// Encoding and InnerCBZ are only populated by the handlers that need them
// (ZIP-backed formats and CBC respectively); for the other formats they
// stay zero.
type Metadata struct {
	// PageFilenames holds the image entries in natural sort order. Every
	// name has passed ValidateEntryName and IsImageEntry. Treated as
	// immutable once returned from a scan.
	PageFilenames []string

	// LastModifiedNS is the archive file's modification time in
	// nanoseconds at scan time. Cache-validity token only.
	LastModifiedNS int64

	// Encoding is the filename encoding that decoded this ZIP's name
	// table. Empty means no override was recorded: entry names are used
	// exactly as the ZIP reader produced them.
	Encoding string

	// InnerCBZ is the name of the first .cbz member of a CBC archive.
	// Empty for every other format, and for a CBC with no inner CBZ
	// (which is valid and simply has no pages).
	InnerCBZ string
}

// PageCount returns the number of pages in the archive.
func (m *Metadata) PageCount() int {
	return len(m.PageFilenames)
}

// PageDetails carries per-entry size and, when requested, pixel
// dimensions. Width and Height are 0 when dimensions were not computed.
type PageDetails struct {
	FileSize int64
	Width    int
	Height   int
}

// ImageSizer reports pixel dimensions for raw image bytes. Implemented by
// imageproc.Processor; handlers only need this one method.
type ImageSizer interface {
	Dimensions(data []byte) (width, height int, err error)
}

// Handler is the per-format contract. One implementation exists per
// container type (CBZ, CBR, CB7, CBC); the service dispatches on file
// extension.
type Handler interface {
	// Scan lists the archive's image entries in natural sort order,
	// validating every name, and returns metadata carrying
	// lastModifiedNS through unchanged.
	Scan(path string, lastModifiedNS int64) (*Metadata, error)

	// ExtractPage returns the raw bytes of one entry. A member that
	// disappeared since scan (archive rewritten on disk) surfaces as
	// ErrArchiveRead, not corruption.
	ExtractPage(path, filename string, meta *Metadata) ([]byte, error)

	// PageDetails builds a name→details mapping for every page in meta.
	// Dimensions require a full read and decode of each entry, so they
	// are only computed when withDimensions is set.
	PageDetails(path string, meta *Metadata, withDimensions bool, sizer ImageSizer) (map[string]PageDetails, error)
}
