package upload

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorage_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads", "proofs")

	s, err := NewStorage(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewStorage_EmptyDir(t *testing.T) {
	_, err := NewStorage("")
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000123) }

	pattern := regexp.MustCompile(`^1700000000123-\d{1,9}-comprobante\.png$`)

	assert.Regexp(t, pattern, s.FileName("comprobante.png"))
	assert.Regexp(t, pattern, s.FileName("../../comprobante.png"), "directory parts are dropped")
}

func TestSaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir)
	require.NoError(t, err)

	fh := multipartFile(t, "proof.pdf", []byte("%PDF-1.4 payment"))

	name, err := s.Save(fh)
	require.NoError(t, err)
	assert.Regexp(t, `^\d+-\d+-proof\.pdf$`, name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 payment", string(data))

	require.NoError(t, s.Remove(name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))
}

func multipartFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("paymentProof", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["paymentProof"][0]
}
