package format

import (
	"archive/zip"
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// entry is one archive member for the fixture builders.
type entry struct {
	name string
	data []byte
}

func zipBytes(t *testing.T, entries []entry) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		fw, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("zipBytes: create %q: %v", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			t.Fatalf("zipBytes: write %q: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zipBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// writeArchive writes raw archive bytes to a temp file with the given
// base name and returns the path.
func writeArchive(t *testing.T, base string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), base)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writeArchive: %v", err)
	}
	return path
}

func cbzFile(t *testing.T, entries []entry) string {
	t.Helper()
	return writeArchive(t, "book.cbz", zipBytes(t, entries))
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("pngImage: %v", err)
	}
	return buf.Bytes()
}

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("jpegImage: %v", err)
	}
	return buf.Bytes()
}
