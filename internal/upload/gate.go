// Package upload checks declared upload metadata and stages upload bytes
// on local disk for the lifetime of one request.
package upload

import (
	"fmt"
	"mime"
	"strings"

	"excelytics/internal/errors"
)

// DefaultMaxBytes is the upload ceiling when none is configured.
const DefaultMaxBytes int64 = 10 << 20

// Accepted MIME types.
const (
	MimeXLS    = "application/vnd.ms-excel"
	MimeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeCSV    = "text/csv"
	MimeAppCSV = "application/csv"
)

var allowedMimeTypes = map[string]struct{}{
	MimeXLS:    {},
	MimeXLSX:   {},
	MimeCSV:    {},
	MimeAppCSV: {},
}

// FileHeader is what the client declared about an upload.
type FileHeader struct {
	Name     string
	Size     int64
	MimeType string
}

// Gate accepts or rejects uploads from their declared metadata alone.
type Gate struct {
	maxBytes int64
}

// NewGate returns a gate with the given ceiling; non-positive means
// DefaultMaxBytes.
func NewGate(maxBytes int64) *Gate {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Gate{maxBytes: maxBytes}
}

// MaxBytes returns the configured ceiling.
func (g *Gate) MaxBytes() int64 { return g.maxBytes }

// Validate returns a ValidationError describing the first rule the header
// breaks, or nil.
func (g *Gate) Validate(h FileHeader) error {
	if h.Size > g.maxBytes {
		return errors.ValidationError(fmt.Sprintf("file too large: %s exceeds the %s limit",
			humanSize(h.Size), humanSize(g.maxBytes)))
	}
	if h.Size <= 0 {
		return errors.ValidationError("file is empty")
	}
	if !AllowedMimeType(h.MimeType) {
		declared := h.MimeType
		if strings.TrimSpace(declared) == "" {
			declared = "unknown"
		}
		return errors.ValidationError(fmt.Sprintf("unsupported file type %q: upload an .xls, .xlsx or .csv file", declared))
	}
	return nil
}

// AllowedMimeType reports whether the media type, ignoring parameters and
// case, is one of the accepted spreadsheet types.
func AllowedMimeType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	_, ok := allowedMimeTypes[mediaType]
	return ok
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
