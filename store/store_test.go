package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ghiseu/internal/profile"
	"github.com/hrygo/ghiseu/store"
	"github.com/hrygo/ghiseu/store/db/sqlite"
)

func newTestingStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "ghiseu_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMigrate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t)

	target, err := s.GetCurrentSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.1.1", target)

	require.NoError(t, s.Migrate(ctx))
	version, err := s.GetDriver().GetSystemSetting(ctx, store.SchemaVersionSetting)
	require.NoError(t, err)
	assert.Equal(t, target, version)
}

func TestUploadStore(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t)

	latest, err := s.LatestUploadID(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, latest)

	first, err := s.CreateUpload(ctx, &store.Upload{SessionID: "s1", Filename: "ci.jpg", KindHint: "auto", Blob: []byte{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, store.UploadStatusPending, first.Status)
	second, err := s.CreateUpload(ctx, &store.Upload{SessionID: "s1", Filename: "cn.pdf", KindHint: "birth_certificate"})
	require.NoError(t, err)
	_, err = s.CreateUpload(ctx, &store.Upload{SessionID: "other", Filename: "x.png", KindHint: "auto"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	sessionID := "s1"
	list, err := s.ListUploads(ctx, &store.FindUpload{SessionID: &sessionID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Nil(t, list[0].Blob)

	latest, err = s.LatestUploadID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest)

	text, status := "NUME POPESCU", store.UploadStatusOK
	require.NoError(t, s.UpdateUpload(ctx, &store.UpdateUpload{ID: first.ID, ExtractedText: &text, Status: &status, ClearBlob: true}))
	got, err := s.GetUpload(ctx, &store.FindUpload{ID: &first.ID, GetBlob: true})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, text, got.ExtractedText)
	assert.Equal(t, store.UploadStatusOK, got.Status)
	assert.Empty(t, got.Blob)

	require.NoError(t, s.DeleteUpload(ctx, &store.DeleteUpload{SessionID: &sessionID}))
	list, err = s.ListUploads(ctx, &store.FindUpload{SessionID: &sessionID})
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.Error(t, s.DeleteUpload(ctx, &store.DeleteUpload{}))
}

func TestCaseStore(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t)

	c, err := s.CreateCase(ctx, &store.Case{UID: "CASE-abc", SessionID: "s1", Program: "CI", Type: "CEI"})
	require.NoError(t, err)
	assert.Equal(t, store.CaseStatusNew, c.Status)
	assert.NotZero(t, c.ID)

	_, err = s.CreateCase(ctx, &store.Case{UID: "CASE-abc", Program: "CI"})
	assert.Error(t, err, "uid must be unique")

	_, err = s.CreateCase(ctx, &store.Case{UID: "CASE-def", SessionID: "s1", Program: "AS", Person: `{"cnp":"1900101400011"}`})
	require.NoError(t, err)

	sessionID := "s1"
	list, err := s.ListCases(ctx, &store.FindCase{SessionID: &sessionID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CASE-def", list[0].UID)

	slot, status := "slot-7", store.CaseStatusInProgress
	require.NoError(t, s.UpdateCase(ctx, &store.UpdateCase{ID: c.ID, SlotID: &slot, Status: &status}))
	uid := "CASE-abc"
	got, err := s.GetCase(ctx, &store.FindCase{UID: &uid})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "slot-7", got.SlotID)
	assert.Equal(t, store.CaseStatusInProgress, got.Status)
	assert.Equal(t, "{}", got.Person)
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	s := newTestingStore(t)

	require.NoError(t, s.UpsertSession(ctx, &store.SessionRecord{ID: "a", Data: []byte(`{"v":1}`), CreatedTs: 100, UpdatedTs: 100}))
	require.NoError(t, s.UpsertSession(ctx, &store.SessionRecord{ID: "a", Data: []byte(`{"v":2}`), CreatedTs: 500, UpdatedTs: 500}))
	require.NoError(t, s.UpsertSession(ctx, &store.SessionRecord{ID: "b", Data: []byte(`{}`), CreatedTs: 200, UpdatedTs: 200}))

	got, err := s.GetSession(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"v":2}`, string(got.Data))
	assert.Equal(t, int64(100), got.CreatedTs)
	assert.Equal(t, int64(500), got.UpdatedTs)

	missing, err := s.GetSession(ctx, "zzz")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cutoff := int64(300)
	n, err := s.DeleteSessions(ctx, &store.DeleteSession{UpdatedBefore: &cutoff})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := s.ListSessions(ctx, &store.FindSession{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].ID)
}

func TestNewDB_RequiresDSN(t *testing.T) {
	_, err := sqlite.NewDB(&profile.Profile{Driver: "sqlite"})
	assert.Error(t, err)
}
