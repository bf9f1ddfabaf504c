package ocr

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSuffix(t *testing.T) {
	tests := map[string]string{
		"scan.png":        ".png",
		"photo.JPEG":      ".JPEG",
		"archive.tar.gz":  ".gz",
		"":                ".jpg",
		"noext":           ".jpg",
		"trailing.":       ".jpg",
		".hidden":         ".jpg",
		"../../etc/x.tif": ".tif",
	}
	for in, want := range tests {
		if got := Suffix(in); got != want {
			t.Errorf("Suffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSpool(t *testing.T) {
	dir := t.TempDir()
	sp, cleanup, err := Spool(dir, "page.png", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Spool: %v", err)
	}
	if filepath.Dir(sp.Path) != dir || filepath.Ext(sp.Path) != ".png" {
		t.Errorf("path = %q", sp.Path)
	}
	data, err := os.ReadFile(sp.Path)
	if err != nil || string(data) != "image-bytes" {
		t.Fatalf("content = %q, %v", data, err)
	}
	if sp.Size != int64(len("image-bytes")) || len(sp.SHA256) != 64 {
		t.Errorf("spooled = %+v", sp)
	}

	cleanup()
	cleanup()
	if _, err := os.Stat(sp.Path); !os.IsNotExist(err) {
		t.Errorf("file still present after cleanup: %v", err)
	}
}

func TestSpoolUniquePaths(t *testing.T) {
	dir := t.TempDir()
	a, ca, err := Spool(dir, "", bytes.NewReader([]byte{1}))
	if err != nil {
		t.Fatal(err)
	}
	defer ca()
	b, cb, err := Spool(dir, "", bytes.NewReader([]byte{1}))
	if err != nil {
		t.Fatal(err)
	}
	defer cb()
	if a.Path == b.Path {
		t.Errorf("paths collide: %q", a.Path)
	}
	if filepath.Ext(a.Path) != ".jpg" {
		t.Errorf("default suffix missing: %q", a.Path)
	}
}

func TestSpoolEmpty(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Spool(dir, "x.png", strings.NewReader(""))
	if !errors.Is(err, ErrEmptyUpload) {
		t.Fatalf("err = %v, want ErrEmptyUpload", err)
	}
	assertDirEmpty(t, dir)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestSpoolWriteFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	_, cleanup, err := Spool(dir, "x.png", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	var uerr *UploadError
	if !errors.As(err, &uerr) || uerr.Op != "write" {
		t.Fatalf("err = %v, want write UploadError", err)
	}
	cleanup()
	assertDirEmpty(t, dir)
}

func TestSpoolCreateFailure(t *testing.T) {
	_, _, err := Spool(filepath.Join(t.TempDir(), "missing"), "x.png", strings.NewReader("x"))
	var uerr *UploadError
	if !errors.As(err, &uerr) || uerr.Op != "create" {
		t.Fatalf("err = %v, want create UploadError", err)
	}
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir not empty: %v", entries)
	}
}
