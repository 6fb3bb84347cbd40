package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Upload model related methods.
	CreateUpload(ctx context.Context, create *Upload) (*Upload, error)
	ListUploads(ctx context.Context, find *FindUpload) ([]*Upload, error)
	LatestUploadID(ctx context.Context, sessionID string) (int64, error)
	UpdateUpload(ctx context.Context, update *UpdateUpload) error
	DeleteUpload(ctx context.Context, delete *DeleteUpload) error

	// Case model related methods.
	CreateCase(ctx context.Context, create *Case) (*Case, error)
	ListCases(ctx context.Context, find *FindCase) ([]*Case, error)
	UpdateCase(ctx context.Context, update *UpdateCase) error

	// Session model related methods.
	UpsertSession(ctx context.Context, upsert *SessionRecord) error
	ListSessions(ctx context.Context, find *FindSession) ([]*SessionRecord, error)
	DeleteSessions(ctx context.Context, delete *DeleteSession) (int64, error)

	// SystemSetting stores the schema version.
	GetSystemSetting(ctx context.Context, name string) (string, error)
	UpsertSystemSetting(ctx context.Context, name, value string) error
}
