package service

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"comicshelf/internal/archive"
	"comicshelf/internal/config"
)

func writeCBZ(t *testing.T, name string, entries map[string][]byte) string {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for entry, data := range entries {
		fw, err := zw.Create(entry)
		if err != nil {
			t.Fatalf("writeCBZ: create %q: %v", entry, err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatalf("writeCBZ: write %q: %v", entry, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("writeCBZ: close: %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("writeCBZ: %v", err)
	}
	return path
}

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("jpegImage: %v", err)
	}
	return buf.Bytes()
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("pngImage: %v", err)
	}
	return buf.Bytes()
}

func TestServiceEndToEnd(t *testing.T) {
	cover := jpegImage(t, 100, 80)
	page2 := pngImage(t, 50, 40)
	path := writeCBZ(t, "book.cbz", map[string][]byte{
		"cover.jpg":     cover,
		"page02.png":    page2,
		"ComicInfo.xml": []byte("<ComicInfo/>"),
	})
	svc := New(config.Default(), nil)

	pages, err := svc.ListPages(path, false)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %v, want 2 rows", pages)
	}
	if pages[0].PageNumber != 1 || pages[0].Filename != "cover.jpg" || pages[0].FileSize != int64(len(cover)) {
		t.Errorf("row 1 = %+v, want cover.jpg with %d bytes", pages[0], len(cover))
	}
	if pages[1].PageNumber != 2 || pages[1].Filename != "page02.png" || pages[1].FileSize != int64(len(page2)) {
		t.Errorf("row 2 = %+v, want page02.png with %d bytes", pages[1], len(page2))
	}
	if pages[0].Width != 0 {
		t.Errorf("listing without dimensions carries width %d", pages[0].Width)
	}

	withDims, err := svc.ListPages(path, true)
	if err != nil {
		t.Fatalf("ListPages(dimensions): %v", err)
	}
	if withDims[0].Width != 100 || withDims[0].Height != 80 {
		t.Errorf("cover dimensions = %dx%d, want 100x80", withDims[0].Width, withDims[0].Height)
	}
	if withDims[1].Width != 50 || withDims[1].Height != 40 {
		t.Errorf("page02 dimensions = %dx%d, want 50x40", withDims[1].Width, withDims[1].Height)
	}

	page, err := svc.GetPage(path, 1)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if !bytes.Equal(page.Data, cover) {
		t.Error("GetPage bytes differ from the original cover payload")
	}
	if page.Width != 100 || page.Height != 80 {
		t.Errorf("GetPage dimensions = %dx%d, want 100x80", page.Width, page.Height)
	}
	if page.Filename != "cover.jpg" || page.PageNumber != 1 {
		t.Errorf("page identity = %q #%d, want cover.jpg #1", page.Filename, page.PageNumber)
	}
}

func TestServicePageOutOfRange(t *testing.T) {
	path := writeCBZ(t, "book.cbz", map[string][]byte{
		"page1.png": pngImage(t, 5, 5),
	})
	svc := New(config.Default(), nil)

	for _, n := range []int{0, -1, 2, 99} {
		if _, err := svc.GetPage(path, n); !errors.Is(err, archive.ErrPageNotFound) {
			t.Errorf("GetPage(%d) = %v, want ErrPageNotFound", n, err)
		}
	}
}

func TestServiceUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := New(config.Default(), nil)

	if _, err := svc.ListPages(path, false); !errors.Is(err, archive.ErrUnsupportedFormat) {
		t.Errorf("ListPages(.pdf) = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := svc.GetPage(path, 1); !errors.Is(err, archive.ErrUnsupportedFormat) {
		t.Errorf("GetPage(.pdf) = %v, want ErrUnsupportedFormat", err)
	}
}

// stubHandler lets the facade be driven without real archive I/O.
type stubHandler struct {
	pages   []string
	details map[string]archive.PageDetails
	data    map[string][]byte
	scans   int
}

func (h *stubHandler) Scan(path string, lastModifiedNS int64) (*archive.Metadata, error) {
	h.scans++
	return &archive.Metadata{PageFilenames: h.pages, LastModifiedNS: lastModifiedNS}, nil
}

func (h *stubHandler) ExtractPage(path, filename string, meta *archive.Metadata) ([]byte, error) {
	data, ok := h.data[filename]
	if !ok {
		return nil, fmt.Errorf("%w: %s: entry %q not found", archive.ErrArchiveRead, path, filename)
	}
	return data, nil
}

func (h *stubHandler) PageDetails(path string, meta *archive.Metadata, withDimensions bool, sizer archive.ImageSizer) (map[string]archive.PageDetails, error) {
	return h.details, nil
}

func TestServiceSyntheticDetailsRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.stub")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	stub := &stubHandler{
		pages: []string{"page1.jpg", "page2.jpg"},
		details: map[string]archive.PageDetails{
			"page1.jpg": {FileSize: 11, Width: 2, Height: 3},
			// page2.jpg deliberately missing
		},
	}
	svc := New(config.Default(), nil)
	svc.RegisterHandler(".stub", stub)

	pages, err := svc.ListPages(path, true)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %v, want 2 rows", pages)
	}
	if pages[0].FileSize != 11 {
		t.Errorf("row 1 size = %d, want 11", pages[0].FileSize)
	}
	missing := pages[1]
	if missing.FileSize != 0 || missing.Width != 0 || missing.Height != 0 {
		t.Errorf("row 2 = %+v, want synthetic zero row", missing)
	}
	if missing.PageNumber != 2 || missing.Filename != "page2.jpg" {
		t.Errorf("row 2 identity = %+v, want page2.jpg #2", missing)
	}
}

func TestServiceScanCachedAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.stub")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stub := &stubHandler{
		pages:   []string{"page1.jpg"},
		details: map[string]archive.PageDetails{"page1.jpg": {FileSize: 1}},
		data:    map[string][]byte{"page1.jpg": pngImage(t, 4, 4)},
	}
	svc := New(config.Default(), nil)
	svc.RegisterHandler(".stub", stub)

	if _, err := svc.ListPages(path, false); err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	if _, err := svc.ListPages(path, false); err != nil {
		t.Fatalf("ListPages again: %v", err)
	}
	if _, err := svc.GetPage(path, 1); err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if stub.scans != 1 {
		t.Errorf("handler scanned %d times across calls, want 1", stub.scans)
	}

	svc.ClearCaches()
	if _, err := svc.ListPages(path, false); err != nil {
		t.Fatalf("ListPages after clear: %v", err)
	}
	if stub.scans != 2 {
		t.Errorf("handler scanned %d times after ClearCaches, want 2", stub.scans)
	}
}
