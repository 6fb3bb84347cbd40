package store

import (
	"context"
)

// UploadStatus tracks what the OCR runner did with an upload.
type UploadStatus string

const (
	UploadStatusPending     UploadStatus = "PENDING"
	UploadStatusOK          UploadStatus = "OK"
	UploadStatusNeedsReview UploadStatus = "NEEDS_REVIEW"
	UploadStatusFailed      UploadStatus = "FAILED"
)

type Upload struct {
	// ID is the system generated, monotonically increasing identifier.
	ID int64

	// Standard fields
	SessionID string
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	Filename    string
	ContentType string
	Size        int64
	// KindHint is the raw document kind chosen in the UI ("auto" when unset).
	KindHint string
	// Blob holds the file bytes until text has been extracted.
	Blob []byte

	// Text extracted by tesseract (images) or Tika (PDF)
	ExtractedText string
	Status        UploadStatus
}

type FindUpload struct {
	ID        *int64
	SessionID *string
	Status    *UploadStatus
	GetBlob   bool
	Limit     *int
}

type UpdateUpload struct {
	ID            int64
	UpdatedTs     *int64
	ExtractedText *string
	Status        *UploadStatus
	// ClearBlob drops the file bytes once they are no longer needed.
	ClearBlob bool
}

type DeleteUpload struct {
	ID        *int64
	SessionID *string
}

func (s *Store) CreateUpload(ctx context.Context, create *Upload) (*Upload, error) {
	if create.Status == "" {
		create.Status = UploadStatusPending
	}
	return s.driver.CreateUpload(ctx, create)
}

// ListUploads returns uploads ordered by id ascending.
func (s *Store) ListUploads(ctx context.Context, find *FindUpload) ([]*Upload, error) {
	return s.driver.ListUploads(ctx, find)
}

func (s *Store) GetUpload(ctx context.Context, find *FindUpload) (*Upload, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.ListUploads(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// LatestUploadID returns the highest upload id of a session, or 0 when it has none.
func (s *Store) LatestUploadID(ctx context.Context, sessionID string) (int64, error) {
	return s.driver.LatestUploadID(ctx, sessionID)
}

func (s *Store) UpdateUpload(ctx context.Context, update *UpdateUpload) error {
	return s.driver.UpdateUpload(ctx, update)
}

func (s *Store) DeleteUpload(ctx context.Context, delete *DeleteUpload) error {
	return s.driver.DeleteUpload(ctx, delete)
}
