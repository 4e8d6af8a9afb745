package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"excelytics/internal/errors"
	"excelytics/internal/logging"

	"github.com/google/uuid"
)

// Stager writes upload bytes to a scratch directory. Staged files live
// only until the caller removes them.
type Stager struct {
	dir      string
	maxBytes int64
}

// NewStager creates a stager rooted at dir (os.TempDir when blank).
func NewStager(dir string, maxBytes int64) *Stager {
	if dir == "" {
		dir = os.TempDir()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Stager{dir: dir, maxBytes: maxBytes}
}

// Staged is one upload on disk.
type Staged struct {
	Path string
	Size int64
}

// Stage copies r to a uniquely named file. Reading more than the ceiling
// fails regardless of what the client declared.
func (s *Stager) Stage(ctx context.Context, r io.Reader, filename string) (*Staged, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	path := filepath.Join(s.dir, "upload_"+uuid.NewString()+ext)
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}

	n, err := io.Copy(dst, io.LimitReader(r, s.maxBytes+1))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.remove(path)
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	if n > s.maxBytes {
		s.remove(path)
		return nil, errors.ValidationError(fmt.Sprintf("file too large: exceeds the %s limit", humanSize(s.maxBytes)))
	}
	return &Staged{Path: path, Size: n}, nil
}

// Read returns the staged bytes.
func (s *Stager) Read(st *Staged) ([]byte, error) {
	data, err := os.ReadFile(st.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read staged file: %w", err)
	}
	return data, nil
}

// Remove deletes a staged file; a missing file is not an error.
func (s *Stager) Remove(st *Staged) {
	if st != nil {
		s.remove(st.Path)
	}
}

func (s *Stager) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		l := logging.Component("upload")
		l.Warn().Err(err).Str("path", path).Msg("failed to remove staged file")
	}
}
