package upload

import (
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Storage saves payment proofs into a single directory.
type Storage struct {
	dir string
	now func() time.Time
}

func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Storage{dir: dir, now: time.Now}, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// FileName builds "<unixMillis>-<random>-<original base name>".
func (s *Storage) FileName(original string) string {
	base := filepath.Base(original)
	if base == "." || base == string(filepath.Separator) {
		base = "file"
	}
	return strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + strconv.Itoa(rand.IntN(1e9)) + "-" + base
}

// Save writes the uploaded file and returns the generated name.
func (s *Storage) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := s.FileName(fh.Filename)
	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write upload %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("failed to close upload %s: %w", name, err)
	}
	return name, nil
}

// Remove deletes a stored upload by its generated name.
func (s *Storage) Remove(name string) error {
	return os.Remove(filepath.Join(s.dir, filepath.Base(name)))
}
