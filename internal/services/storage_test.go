package services

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestStorageService_SaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	storage := NewStorageService(dir, 1024)
	require.NoError(t, storage.EnsureUploadDir())

	stored, err := storage.SaveFile(multipartFile(t, "Brief.TXT", []byte("Tealwave brief")))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Filename, "creative_"))
	assert.True(t, strings.HasSuffix(stored.Filename, ".txt"))
	assert.Equal(t, "Brief.TXT", stored.OriginalName)
	assert.Equal(t, int64(14), stored.Size)
	assert.Contains(t, stored.ContentType, "text/plain")
	assert.Equal(t, storage.GetFilePath(stored.Filename), stored.Path)

	onDisk, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, "Tealwave brief", string(onDisk))

	require.NoError(t, storage.DeleteFile(stored.Filename))
	_, err = os.Stat(stored.Path)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, storage.DeleteFile(stored.Filename))
}

func TestStorageService_Rejections(t *testing.T) {
	storage := NewStorageService(t.TempDir(), 8)

	_, err := storage.SaveFile(multipartFile(t, "payload.exe", []byte("MZ")))
	assert.ErrorContains(t, err, "invalid file extension")

	_, err = storage.SaveFile(multipartFile(t, "brief.txt", []byte("far more than eight bytes")))
	assert.ErrorContains(t, err, "exceeds maximum size")
}

func TestStorageService_GetFilePathStaysInUploadDir(t *testing.T) {
	storage := NewStorageService("/srv/uploads", 0)

	assert.Equal(t, "/srv/uploads/passwd", storage.GetFilePath("../../etc/passwd"))
}

func TestAllowedUpload(t *testing.T) {
	for _, name := range []string{"deck.pdf", "brief.DOCX", "notes.md", "data.csv"} {
		assert.True(t, AllowedUpload(name), name)
	}
	for _, name := range []string{"run.exe", "archive.zip", "noext"} {
		assert.False(t, AllowedUpload(name), name)
	}
}
