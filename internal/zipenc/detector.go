// Package zipenc recovers the filename encoding of ZIP archives whose name
// tables predate the UTF-8 flag (historically common for Japanese-titled
// scans). It probes a ranked list of candidate encodings and reports the
// first one that decodes every entry name cleanly.
package zipenc

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"

	"comicshelf/internal/archive"
)

// DefaultCandidates is the probe order used when no candidate list is
// configured. ms932 (Windows-31J) shares the Shift-JIS decoder.
var DefaultCandidates = []string{"utf-8", "shift_jis", "iso-8859-1", "cp437", "ms932"}

var decoders = map[string]encoding.Encoding{
	"shift_jis":  japanese.ShiftJIS,
	"ms932":      japanese.ShiftJIS,
	"iso-8859-1": charmap.ISO8859_1,
	"cp437":      charmap.CodePage437,
}

// Result is the outcome of one probe: the winning encoding and the decoded
// entry names in archive order. Encoding is empty when every candidate
// failed and the reader's implicit names were kept.
type Result struct {
	Encoding  string
	Filenames []string
}

// Probe tries candidate encodings against a ZIP's filename table.
type Probe struct {
	candidates []string
}

// NewProbe builds a probe over the given candidate encodings, falling back
// to DefaultCandidates when the list is empty.
func NewProbe(candidates []string) *Probe {
	if len(candidates) == 0 {
		candidates = DefaultCandidates
	}
	return &Probe{candidates: append([]string(nil), candidates...)}
}

// DetectFile probes the ZIP at path. preferred, when non-empty, is tried
// before the configured candidates. Structural ZIP failures surface as
// ErrArchiveCorrupted and I/O failures as ErrArchiveRead; per-candidate
// decode failures never propagate, they just advance the probe.
func (p *Probe) DetectFile(path, preferred string) (*Result, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, translateOpen(path, err)
	}
	defer r.Close()
	return p.detect(&r.Reader, preferred), nil
}

// DetectBytes probes an in-memory ZIP. label identifies the buffer in
// error messages (CBC uses "outer!inner").
func (p *Probe) DetectBytes(data []byte, label, preferred string) (*Result, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, translateOpen(label, err)
	}
	return p.detect(r, preferred), nil
}

func (p *Probe) detect(r *zip.Reader, preferred string) *Result {
	for _, enc := range p.order(preferred) {
		if names, ok := decodeAll(enc, r.File); ok {
			return &Result{Encoding: enc, Filenames: names}
		}
	}
	// No candidate decoded cleanly: keep the reader's implicit names and
	// record no encoding.
	names := make([]string, len(r.File))
	for i, f := range r.File {
		names[i] = f.Name
	}
	return &Result{Filenames: names}
}

func (p *Probe) order(preferred string) []string {
	if preferred == "" {
		return p.candidates
	}
	out := make([]string, 0, len(p.candidates)+1)
	out = append(out, preferred)
	for _, c := range p.candidates {
		if c != preferred {
			out = append(out, c)
		}
	}
	return out
}

// decodeAll decodes every entry name with enc. The whole attempt fails if
// any single name fails, mirroring a per-archive encoding choice.
func decodeAll(enc string, files []*zip.File) ([]string, bool) {
	names := make([]string, len(files))
	for i, f := range files {
		name, ok := decodeOne(enc, f)
		if !ok {
			return nil, false
		}
		names[i] = name
	}
	return names, true
}

// decodeOne decodes one entry name. Names the ZIP reader already resolved
// as UTF-8 pass through untouched; only raw (NonUTF8) names are re-decoded.
func decodeOne(enc string, f *zip.File) (string, bool) {
	if !f.NonUTF8 {
		return f.Name, true
	}
	return decodeString(enc, f.Name)
}

func decodeString(enc, raw string) (string, bool) {
	if enc == "utf-8" {
		return raw, utf8.ValidString(raw)
	}
	e, ok := decoders[enc]
	if !ok {
		return "", false
	}
	decoded, err := e.NewDecoder().String(raw)
	if err != nil {
		return "", false
	}
	// x/text decoders substitute U+FFFD for bytes the charset cannot
	// represent instead of returning an error; treat that as a miss.
	if strings.ContainsRune(decoded, utf8.RuneError) {
		return "", false
	}
	return decoded, true
}

// EntryName returns the display name for one ZIP entry under the recorded
// encoding. An empty encoding means "no override": the reader's implicit
// name is used as-is. Handlers use this to re-address entries found during
// scan when extracting or sizing pages.
func EntryName(enc string, f *zip.File) string {
	if enc == "" || enc == "utf-8" || !f.NonUTF8 {
		return f.Name
	}
	if decoded, ok := decodeString(enc, f.Name); ok {
		return decoded
	}
	return f.Name
}

func translateOpen(label string, err error) error {
	if errors.Is(err, zip.ErrFormat) {
		return fmt.Errorf("%w: %s: %v", archive.ErrArchiveCorrupted, label, err)
	}
	return fmt.Errorf("%w: %s: %v", archive.ErrArchiveRead, label, err)
}
