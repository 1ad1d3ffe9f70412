// Package storage keeps uploaded review images on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnsupportedType is returned for files that are not jpeg, png, gif or webp.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrTooLarge is returned when the upload exceeds the configured limit.
	ErrTooLarge = errors.New("image too large")
)

var allowedExt = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Upload is one incoming file.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// LocalImageStore writes images under Dir with random names and serves
// them from BaseURL.
type LocalImageStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

func NewLocalImageStore(dir, baseURL string, maxBytes int64) *LocalImageStore {
	return &LocalImageStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), MaxBytes: maxBytes}
}

// Validate checks the declared name, type and size of an upload.
func (s *LocalImageStore) Validate(up Upload) error {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	want, ok := allowedExt[ext]
	if !ok {
		return ErrUnsupportedType
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(up.ContentType, ";", 2)[0]))
	if ct != "" && ct != want && !(want == "image/jpeg" && ct == "image/jpg") {
		return ErrUnsupportedType
	}
	if s.MaxBytes > 0 && up.Size > s.MaxBytes {
		return ErrTooLarge
	}
	return nil
}

// Save validates and stores the upload, returning its public URL.  Bodies
// longer than MaxBytes are rejected even when Size under-reports them.
func (s *LocalImageStore) Save(up Upload) (string, error) {
	if err := s.Validate(up); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir upload dir: %w", err)
	}
	name := "review-" + uuid.NewString() + strings.ToLower(filepath.Ext(up.Filename))
	full := filepath.Join(s.Dir, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	body := up.Body
	if s.MaxBytes > 0 {
		body = io.LimitReader(up.Body, s.MaxBytes+1)
	}
	n, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(full)
		return "", fmt.Errorf("write upload: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(full)
		return "", fmt.Errorf("close upload: %w", closeErr)
	case s.MaxBytes > 0 && n > s.MaxBytes:
		_ = os.Remove(full)
		return "", ErrTooLarge
	}
	return s.BaseURL + "/" + name, nil
}

// Delete removes a file previously returned by Save.  URLs outside
// BaseURL are ignored.
func (s *LocalImageStore) Delete(url string) error {
	prefix := s.BaseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	name := path.Base(strings.TrimPrefix(url, prefix))
	if name == "." || name == "/" || name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
