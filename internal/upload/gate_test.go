package upload

import (
	"testing"

	"excelytics/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateAcceptsSpreadsheetTypes(t *testing.T) {
	g := NewGate(0)
	for _, mt := range []string{MimeXLS, MimeXLSX, MimeCSV, MimeAppCSV, "text/csv; charset=utf-8", "TEXT/CSV"} {
		assert.NoError(t, g.Validate(FileHeader{Name: "f", Size: 1024, MimeType: mt}), mt)
	}
}

func TestGateRejectsOversizeForEveryType(t *testing.T) {
	g := NewGate(0)
	require.Equal(t, int64(10<<20), g.MaxBytes())

	for _, mt := range []string{MimeXLS, MimeXLSX, MimeCSV, MimeAppCSV, "image/png"} {
		err := g.Validate(FileHeader{Name: "big", Size: g.MaxBytes() + 1, MimeType: mt})
		require.Error(t, err, mt)
		assert.True(t, errors.IsValidation(err))
		assert.Contains(t, err.Error(), "too large")
	}
	assert.NoError(t, g.Validate(FileHeader{Name: "edge", Size: g.MaxBytes(), MimeType: MimeCSV}))
}

func TestGateRejectsOtherTypesAtAnySize(t *testing.T) {
	g := NewGate(0)
	for _, mt := range []string{"application/pdf", "text/plain", "application/json", "", "not a type"} {
		for _, size := range []int64{1, 512, g.MaxBytes()} {
			err := g.Validate(FileHeader{Name: "f", Size: size, MimeType: mt})
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		}
	}
}

func TestGateRejectsEmptyFile(t *testing.T) {
	err := NewGate(0).Validate(FileHeader{Name: "f.csv", Size: 0, MimeType: MimeCSV})
	require.Error(t, err)
	assert.Equal(t, "file is empty", err.Error())
}

func TestGateCustomLimit(t *testing.T) {
	g := NewGate(100)
	assert.Error(t, g.Validate(FileHeader{Size: 101, MimeType: MimeCSV}))
	assert.NoError(t, g.Validate(FileHeader{Size: 100, MimeType: MimeCSV}))
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "10.0 MiB", humanSize(10<<20))
	assert.Equal(t, "1.5 KiB", humanSize(1536))
}
