// Package storage keeps product images. Products only hold the returned
// reference; bytes live here.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	// ErrNotImage is returned when uploaded bytes are not a recognised image.
	ErrNotImage = errors.New("file is not an image")
	// ErrTooLarge is returned when an upload exceeds the configured limit.
	ErrTooLarge = errors.New("file too large")
	// ErrInvalidRef is returned for references that do not name a stored object.
	ErrInvalidRef = errors.New("invalid file reference")
)

// Disk stores objects as flat files under dir and serves them from baseURL.
type Disk struct {
	dir      string
	baseURL  string
	maxBytes int64
	logger   *log.Logger
}

// NewDisk creates dir when missing. baseURL is the public prefix files are
// served under, e.g. "https://shop.example/files".
func NewDisk(dir, baseURL string, maxBytes int64, logger *log.Logger) (*Disk, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Disk{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes, logger: logger}, nil
}

// Upload stores r and returns a new reference. Only images are accepted.
func (d *Disk) Upload(_ context.Context, r io.Reader) (string, error) {
	limit := d.maxBytes
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}

	ref := uuid.NewString() + mt.Extension()
	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, ref)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}
	d.logger.Printf("storage: stored ref=%s type=%s bytes=%d", ref, mt.String(), len(data))
	return ref, nil
}

// Delete removes the object behind ref.
func (d *Disk) Delete(_ context.Context, ref string) error {
	path, err := d.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	d.logger.Printf("storage: deleted ref=%s", ref)
	return nil
}

// PublicURL is the URL the storefront renders for ref; empty ref yields "".
func (d *Disk) PublicURL(ref string) string {
	if ref == "" {
		return ""
	}
	return d.baseURL + "/" + ref
}

// Open returns the object for serving.
func (d *Disk) Open(ref string) (*os.File, error) {
	path, err := d.path(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (d *Disk) path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", ErrInvalidRef
	}
	return filepath.Join(d.dir, ref), nil
}
