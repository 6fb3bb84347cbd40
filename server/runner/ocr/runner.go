// Package ocr provides a background runner that extracts text from uploaded documents.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/ghiseu/internal/profile"
	"github.com/hrygo/ghiseu/plugin/ocr"
	"github.com/hrygo/ghiseu/plugin/textextract"
	"github.com/hrygo/ghiseu/store"
)

// Extractor turns file bytes into text.
type Extractor interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
	IsSupported(contentType string) bool
}

// Runner fills extracted_text for pending uploads: tesseract for images, Tika for documents.
type Runner struct {
	store      *store.Store
	extractors []Extractor
	interval   time.Duration
	batchSize  int
	semaphore  chan struct{} // Limits concurrent async processing
}

// NewRunner creates a runner with the extractors enabled in profile.
func NewRunner(st *store.Store, p *profile.Profile) *Runner {
	var extractors []Extractor
	if p != nil && p.OCREnabled {
		extractors = append(extractors, ocr.NewClient(&ocr.Config{
			TesseractPath: p.TesseractPath,
			DataPath:      p.TessdataPath,
			Languages:     p.OCRLanguages,
			Preprocess:    true,
		}))
	}
	if p != nil && p.TextExtractEnabled {
		cfg := textextract.DefaultConfig()
		cfg.TikaServerURL = p.TikaServerURL
		extractors = append(extractors, textextract.NewClient(cfg))
	}
	return NewRunnerWithExtractors(st, extractors...)
}

// NewRunnerWithExtractors creates a runner using the given extractors in order.
func NewRunnerWithExtractors(st *store.Store, extractors ...Extractor) *Runner {
	return &Runner{
		store:      st,
		extractors: extractors,
		interval:   time.Minute,
		batchSize:  5,
		semaphore:  make(chan struct{}, 10), // Max 10 concurrent async processing
	}
}

// Enabled reports whether any extractor is configured.
func (r *Runner) Enabled() bool {
	return len(r.extractors) > 0
}

// Run processes pending uploads until ctx is done.
func (r *Runner) Run(ctx context.Context) {
	if !r.Enabled() {
		slog.Info("OCR runner disabled (both OCR and text extraction are disabled)")
		return
	}
	slog.Info("OCR runner started", "extractors", len(r.extractors))

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.RunOnce(ctx)
		case <-ctx.Done():
			slog.Info("OCR runner stopped")
			return
		}
	}
}

// RunOnce processes the pending uploads once.
func (r *Runner) RunOnce(ctx context.Context) {
	pending := store.UploadStatusPending
	limit := r.batchSize * 10
	uploads, err := r.store.ListUploads(ctx, &store.FindUpload{Status: &pending, Limit: &limit})
	if err != nil {
		slog.Error("failed to find pending uploads", "error", err)
		return
	}
	if len(uploads) == 0 {
		return
	}

	slog.Info("processing uploads for OCR/text extraction", "count", len(uploads))
	for i := 0; i < len(uploads); i += r.batchSize {
		select {
		case <-ctx.Done():
			slog.Info("OCR processing cancelled", "processed", i, "total", len(uploads))
			return
		default:
		}
		end := min(i+r.batchSize, len(uploads))
		for _, u := range uploads[i:end] {
			if err := r.Process(ctx, u.ID); err != nil {
				slog.Warn("failed to process upload", "id", u.ID, "filename", u.Filename, "error", err)
			}
		}
		slog.Info("batch processed", "count", end-i, "progress", fmt.Sprintf("%d/%d", end, len(uploads)))
	}
}

// Process extracts the text of one pending upload and settles its status:
// OK with text, NEEDS_REVIEW when nothing readable came out, FAILED when every
// extractor errored. Uploads that are not pending are left alone.
func (r *Runner) Process(ctx context.Context, id int64) error {
	u, err := r.store.GetUpload(ctx, &store.FindUpload{ID: &id, GetBlob: true})
	if err != nil {
		return err
	}
	if u == nil {
		return errors.Errorf("upload %d not found", id)
	}
	if u.Status != store.UploadStatusPending {
		return nil
	}

	text := strings.TrimSpace(u.ExtractedText)
	status := store.UploadStatusOK
	if text == "" {
		text, status = r.extract(ctx, u)
	}

	now := time.Now().Unix()
	update := &store.UpdateUpload{
		ID:        u.ID,
		UpdatedTs: &now,
		Status:    &status,
		ClearBlob: status == store.UploadStatusOK,
	}
	if text != "" {
		update.ExtractedText = &text
	}
	if err := r.store.UpdateUpload(ctx, update); err != nil {
		return errors.Wrap(err, "failed to update upload")
	}
	slog.Info("upload processed", "id", u.ID, "status", status, "text_length", len(text))
	return nil
}

func (r *Runner) extract(ctx context.Context, u *store.Upload) (string, store.UploadStatus) {
	tried, failed := 0, 0
	for _, ex := range r.extractors {
		if !ex.IsSupported(u.ContentType) {
			continue
		}
		tried++
		text, err := ex.ExtractText(ctx, u.Blob, u.ContentType)
		if err != nil {
			failed++
			slog.Warn("text extraction failed", "id", u.ID, "content_type", u.ContentType, "error", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			return text, store.UploadStatusOK
		}
	}
	if tried > 0 && failed == tried {
		return "", store.UploadStatusFailed
	}
	return "", store.UploadStatusNeedsReview
}

// ProcessAsync processes one upload in the background.
// It is skipped when the concurrency limit is reached; Run picks it up later.
func (r *Runner) ProcessAsync(id int64) {
	if !r.Enabled() {
		return
	}
	select {
	case r.semaphore <- struct{}{}:
	default:
		slog.Warn("async upload processing skipped (concurrency limit reached)", "upload_id", id)
		return
	}

	go func() {
		defer func() { <-r.semaphore }()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := r.Process(ctx, id); err != nil {
			slog.Error("async upload processing failed", "id", id, "error", err)
		}
	}()
}
