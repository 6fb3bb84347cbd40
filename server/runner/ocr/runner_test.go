package ocr

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ghiseu/internal/profile"
	"github.com/hrygo/ghiseu/store"
	"github.com/hrygo/ghiseu/store/db/sqlite"
)

type fakeExtractor struct {
	contentType string
	text        string
	err         error
	calls       int
}

func (f *fakeExtractor) ExtractText(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

func (f *fakeExtractor) IsSupported(contentType string) bool {
	return contentType == f.contentType
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "ocr_test.db")}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createUpload(t *testing.T, st *store.Store, contentType, text string) *store.Upload {
	t.Helper()
	u, err := st.CreateUpload(context.Background(), &store.Upload{
		SessionID:     "s1",
		Filename:      "scan",
		ContentType:   contentType,
		KindHint:      "auto",
		Blob:          []byte("bytes"),
		ExtractedText: text,
	})
	require.NoError(t, err)
	return u
}

func getUpload(t *testing.T, st *store.Store, id int64) *store.Upload {
	t.Helper()
	u, err := st.GetUpload(context.Background(), &store.FindUpload{ID: &id})
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func TestRunner_Process(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	img := &fakeExtractor{contentType: "image/jpeg", text: "  CARTE DE IDENTITATE  "}
	pdf := &fakeExtractor{contentType: "application/pdf", err: errors.New("tika down")}
	r := NewRunnerWithExtractors(st, img, pdf)

	photo := createUpload(t, st, "image/jpeg", "")
	require.NoError(t, r.Process(ctx, photo.ID))
	got := getUpload(t, st, photo.ID)
	assert.Equal(t, store.UploadStatusOK, got.Status)
	assert.Equal(t, "CARTE DE IDENTITATE", got.ExtractedText)

	doc := createUpload(t, st, "application/pdf", "")
	require.NoError(t, r.Process(ctx, doc.ID))
	assert.Equal(t, store.UploadStatusFailed, getUpload(t, st, doc.ID).Status)

	unknown := createUpload(t, st, "application/zip", "")
	require.NoError(t, r.Process(ctx, unknown.ID))
	assert.Equal(t, store.UploadStatusNeedsReview, getUpload(t, st, unknown.ID).Status)

	typed := createUpload(t, st, "image/jpeg", "certificat de nastere")
	require.NoError(t, r.Process(ctx, typed.ID))
	assert.Equal(t, store.UploadStatusOK, getUpload(t, st, typed.ID).Status)
	assert.Equal(t, 1, img.calls, "uploads with text skip extraction")

	require.NoError(t, r.Process(ctx, photo.ID))
	assert.Equal(t, 1, img.calls, "settled uploads are left alone")

	assert.Error(t, r.Process(ctx, 9999))
}

func TestRunner_RunOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	img := &fakeExtractor{contentType: "image/png", text: "CNP 1850101123456"}
	r := NewRunnerWithExtractors(st, img)
	assert.True(t, r.Enabled())

	var ids []int64
	for i := 0; i < 7; i++ {
		ids = append(ids, createUpload(t, st, "image/png", "").ID)
	}
	r.RunOnce(ctx)

	for _, id := range ids {
		assert.Equal(t, store.UploadStatusOK, getUpload(t, st, id).Status)
	}
	assert.Equal(t, 7, img.calls)
}

func TestNewRunner_Disabled(t *testing.T) {
	r := NewRunner(nil, &profile.Profile{})
	assert.False(t, r.Enabled())
	r.Run(context.Background())
	r.ProcessAsync(1)
}
