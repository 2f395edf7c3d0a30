package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	s := Default()
	if s.MetadataCacheSize != 50 || s.DetailsCacheSize != 50 {
		t.Errorf("cache sizes = %d/%d, want 50/50", s.MetadataCacheSize, s.DetailsCacheSize)
	}
	if s.BsdtarPath != "bsdtar" || s.BsdtarTimeoutSeconds != 30 {
		t.Errorf("bsdtar = %q/%ds, want bsdtar/30s", s.BsdtarPath, s.BsdtarTimeoutSeconds)
	}
	if !s.SevenZip {
		t.Error("SevenZip disabled by default")
	}
	if s.Workers < 1 {
		t.Errorf("Workers = %d, want >= 1", s.Workers)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comicshelf.yaml")
	body := `
metadata_cache_size: 10
preferred_encoding: shift_jis
seven_zip: false
encodings: [utf-8, shift_jis]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MetadataCacheSize != 10 {
		t.Errorf("MetadataCacheSize = %d, want 10", s.MetadataCacheSize)
	}
	if s.PreferredEncoding != "shift_jis" {
		t.Errorf("PreferredEncoding = %q, want shift_jis", s.PreferredEncoding)
	}
	if s.SevenZip {
		t.Error("SevenZip = true, want false")
	}
	// Unset keys keep their defaults.
	if s.DetailsCacheSize != 50 || s.BsdtarPath != "bsdtar" {
		t.Errorf("defaults not preserved: %+v", s)
	}
	if len(s.Encodings) != 2 {
		t.Errorf("Encodings = %v, want 2 entries", s.Encodings)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load(missing) = nil, want error")
	}
}
