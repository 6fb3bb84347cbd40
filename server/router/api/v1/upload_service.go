package v1

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/ghiseu/server/internal/errors"
	"github.com/hrygo/ghiseu/store"
)

const (
	// MaxUploadSizeBytes bounds one uploaded file.
	MaxUploadSizeBytes = 10 << 20
	// uploadProcessTimeout bounds the inline OCR pass after an upload.
	uploadProcessTimeout = 30 * time.Second
)

// CreateUploadRequest is the JSON upload body. Content is base64 in JSON.
type CreateUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	KindHint    string `json:"kind_hint"`
	// Text is already-extracted text; uploads carrying it skip OCR.
	Text    string `json:"text"`
	Content []byte `json:"content"`
}

// UploadResponse identifies a stored upload.
type UploadResponse struct {
	UploadID int64              `json:"upload_id"`
	Filename string             `json:"filename"`
	Status   store.UploadStatus `json:"status"`
}

// CreateUpload stores a document for the session, as multipart (file,
// kind_hint) or JSON. The client follows up with the upload marker turn.
// POST /api/v1/sessions/:id/uploads
func (s *APIV1Service) CreateUpload(c echo.Context) error {
	sessionID := strings.TrimSpace(c.Param("id"))
	if sessionID == "" {
		return writeError(c, errors.InvalidArgument("session id is required"))
	}

	req, err := readUpload(c)
	if err != nil {
		return writeError(c, err)
	}
	if req.Filename == "" || filepath.Base(req.Filename) != req.Filename {
		return writeError(c, errors.InvalidArgument("filename is invalid"))
	}
	if len(req.Content) > MaxUploadSizeBytes {
		return writeError(c, errors.InvalidArgument("file is too large"))
	}
	if req.ContentType == "" {
		req.ContentType = detectContentType(req.Filename, req.Content)
	}
	if req.KindHint == "" {
		req.KindHint = "auto"
	}

	status := store.UploadStatusPending
	if strings.TrimSpace(req.Text) != "" {
		status = store.UploadStatusOK
	} else if len(req.Content) == 0 || s.OCR == nil || !s.OCR.Enabled() {
		status = store.UploadStatusNeedsReview
	}

	ctx := c.Request().Context()
	created, err := s.Store.CreateUpload(ctx, &store.Upload{
		SessionID:     sessionID,
		Filename:      req.Filename,
		ContentType:   req.ContentType,
		Size:          int64(len(req.Content)),
		KindHint:      req.KindHint,
		Blob:          req.Content,
		ExtractedText: strings.TrimSpace(req.Text),
		Status:        status,
	})
	if err != nil {
		return writeError(c, err)
	}

	if status == store.UploadStatusPending {
		pctx, cancel := context.WithTimeout(ctx, uploadProcessTimeout)
		defer cancel()
		if err := s.OCR.Process(pctx, created.ID); err != nil {
			// The background runner retries pending uploads.
			s.OCR.ProcessAsync(created.ID)
		} else if settled, err := s.Store.GetUpload(ctx, &store.FindUpload{ID: &created.ID}); err == nil && settled != nil {
			created = settled
		}
	}

	return c.JSON(http.StatusCreated, &UploadResponse{
		UploadID: created.ID,
		Filename: created.Filename,
		Status:   created.Status,
	})
}

func readUpload(c echo.Context) (*CreateUploadRequest, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		var req CreateUploadRequest
		if err := c.Bind(&req); err != nil {
			return nil, errors.InvalidArgument("invalid request body")
		}
		return &req, nil
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return nil, errors.InvalidArgument("file is required")
	}
	if fh.Size > MaxUploadSizeBytes {
		return nil, errors.InvalidArgument("file is too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to open upload")
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, MaxUploadSizeBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read upload")
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if contentType == echo.MIMEOctetStream {
		contentType = ""
	}
	return &CreateUploadRequest{
		Filename:    filepath.Base(fh.Filename),
		ContentType: contentType,
		KindHint:    c.FormValue("kind_hint"),
		Text:        c.FormValue("text"),
		Content:     content,
	}, nil
}

func detectContentType(filename string, content []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(filename)); t != "" {
		if mediaType, _, err := mime.ParseMediaType(t); err == nil {
			return mediaType
		}
	}
	if len(content) > 0 {
		if mediaType, _, err := mime.ParseMediaType(http.DetectContentType(content)); err == nil {
			return mediaType
		}
	}
	return "application/octet-stream"
}
