package upload

import (
	"context"
	"os"
	"strings"
	"testing"

	"excelytics/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageReadRemove(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, 1024)

	st, err := s.Stage(context.Background(), strings.NewReader("a,b\n1,2\n"), "../../report.CSV")
	require.NoError(t, err)
	assert.Equal(t, int64(8), st.Size)
	assert.True(t, strings.HasPrefix(st.Path, dir))
	assert.True(t, strings.HasSuffix(st.Path, ".csv"))

	data, err := s.Read(st)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))

	s.Remove(st)
	_, err = os.Stat(st.Path)
	assert.True(t, os.IsNotExist(err))
	s.Remove(st)
}

func TestStageEnforcesActualSize(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, 4)

	_, err := s.Stage(context.Background(), strings.NewReader("12345"), "x.csv")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStager(t.TempDir(), 0).Stage(ctx, strings.NewReader("x"), "x.csv")
	assert.ErrorIs(t, err, context.Canceled)
}
