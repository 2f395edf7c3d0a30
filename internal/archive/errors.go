package archive

import "errors"

// Sentinel errors returned by the archive packages. Concrete failures wrap
// one of these with fmt.Errorf and %w, carrying the archive path (and the
// entry name where relevant) in the message, so callers match with
// errors.Is and still get a renderable description.
var (
	// ErrUnsupportedFormat indicates the file extension has no
	// registered handler.
	ErrUnsupportedFormat = errors.New("comic: unsupported archive format")

	// ErrInvalidEntryName indicates an archive entry name failed the
	// path-traversal safety check. Never suppressed.
	ErrInvalidEntryName = errors.New("comic: invalid entry name")

	// ErrArchiveCorrupted indicates the container itself does not parse
	// as the expected format (bad signature, truncated directory).
	ErrArchiveCorrupted = errors.New("comic: archive corrupted")

	// ErrArchiveRead indicates a non-corruption read failure: missing
	// file, permission error, a member that vanished between scan and
	// extract, or a failed external fallback.
	ErrArchiveRead = errors.New("comic: archive read failed")

	// ErrPageNotFound indicates a page number outside [1, page count].
	ErrPageNotFound = errors.New("comic: page not found")

	// ErrImageProcessing indicates image bytes could not be decoded to
	// obtain dimensions.
	ErrImageProcessing = errors.New("comic: image processing failed")

	// ErrSevenZipUnavailable indicates CB7 support was disabled at
	// construction. Always wrapped under ErrArchiveRead so generic
	// handling still works, but distinct so callers can tell "install
	// the optional dependency" from "this archive is broken".
	ErrSevenZipUnavailable = errors.New("comic: 7z support not available")
)
