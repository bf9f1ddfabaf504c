package ocr

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultSuffix = ".jpg"

// Spooled describes an upload written to its own temporary file.
type Spooled struct {
	Path   string
	Size   int64
	SHA256 string
}

// Suffix derives the temp-file suffix from the upload's filename, falling back
// to ".jpg" when there is no usable extension.
func Suffix(filename string) string {
	base := strings.TrimLeft(filepath.Base(filename), ".")
	ext := filepath.Ext(base)
	if ext == "" || ext == "." {
		return defaultSuffix
	}
	return ext
}

// Spool copies r into a uniquely named file in dir (os.TempDir when empty).
// On success the caller owns the returned cleanup, which removes the file and
// may be called more than once. On failure nothing is left on disk.
func Spool(dir, filename string, r io.Reader) (Spooled, func(), error) {
	f, err := os.CreateTemp(dir, "ocr-*"+Suffix(filename))
	if err != nil {
		return Spooled{}, func() {}, &UploadError{Op: "create", Err: err}
	}
	path := f.Name()
	var once sync.Once
	cleanup := func() {
		once.Do(func() { _ = os.Remove(path) })
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err != nil {
		_ = f.Close()
		cleanup()
		return Spooled{}, func() {}, &UploadError{Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		cleanup()
		return Spooled{}, func() {}, &UploadError{Op: "close", Err: err}
	}
	if n == 0 {
		cleanup()
		return Spooled{}, func() {}, ErrEmptyUpload
	}

	return Spooled{
		Path:   path,
		Size:   n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, cleanup, nil
}
