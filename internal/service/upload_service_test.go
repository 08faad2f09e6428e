package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/tuition-center-api/pkg/errors"
	"github.com/noah-isme/tuition-center-api/pkg/storage"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func newUploadServiceForTest(t *testing.T, maxBytes int64) (*UploadService, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return NewUploadService(store, nil, UploadConfig{PublicPath: "/uploads/", MaxBytes: maxBytes}), dir
}

func TestUploadServiceStoresSniffedImage(t *testing.T) {
	svc, dir := newUploadServiceForTest(t, 1024)
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 64)...)

	res, err := svc.SaveAvatar(context.Background(), bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, "image/png", res.ContentType)
	assert.True(t, strings.HasPrefix(res.URL, "/uploads/avatars/"))
	assert.True(t, strings.HasSuffix(res.URL, ".png"))
	assert.Equal(t, int64(len(payload)), res.Size)

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(res.URL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, payload, stored)
}

func TestUploadServiceRejectsNonImage(t *testing.T) {
	svc, _ := newUploadServiceForTest(t, 1024)

	_, err := svc.SaveAvatar(context.Background(), strings.NewReader("just some text"), 14)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.SaveAvatar(context.Background(), bytes.NewReader(nil), 0)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUploadServiceEnforcesSize(t *testing.T) {
	svc, dir := newUploadServiceForTest(t, 32)
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 64)...)

	_, err := svc.SaveAvatar(context.Background(), bytes.NewReader(payload), int64(len(payload)))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.SaveAvatar(context.Background(), bytes.NewReader(payload), 0)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	entries, err := os.ReadDir(filepath.Join(dir, "avatars"))
	if err == nil {
		assert.Empty(t, entries)
	}
}
