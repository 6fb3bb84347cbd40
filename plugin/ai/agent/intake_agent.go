package agent

import (
	"context"
	"log/slog"

	"github.com/hrygo/ghiseu/plugin/ai/docs"
	"github.com/hrygo/ghiseu/plugin/ai/timeout"
	"github.com/hrygo/ghiseu/store"
)

// IntakeAgent recognises the kinds of the session's uploads and records them
// in the Doc set. It always hands over to the OCR agent.
type IntakeAgent struct {
	uploads    UploadSource
	normalizer *docs.Normalizer
}

// NewIntakeAgent creates the intake agent. A nil normalizer uses the rule pass only.
func NewIntakeAgent(uploads UploadSource, normalizer *docs.Normalizer) *IntakeAgent {
	if normalizer == nil {
		normalizer = docs.NewNormalizer(nil)
	}
	return &IntakeAgent{uploads: uploads, normalizer: normalizer}
}

func (a *IntakeAgent) ID() AgentID { return AgentDocIntake }

func (a *IntakeAgent) Handle(ctx context.Context, st *State) error {
	app := st.App
	uploads := listUploads(ctx, a.uploads, st.SessionID)

	seen := max(app.UploadsSeenLastID, st.UploadsObserved)
	var recognized []docs.Kind
	for _, u := range uploads {
		seen = max(seen, u.ID)

		nctx, cancel := context.WithTimeout(ctx, timeout.NormalizerTimeout)
		res := a.normalizer.Normalize(nctx, docs.Input{
			RawKind:  u.KindHint,
			Filename: u.Filename,
			Text:     u.ExtractedText,
		})
		cancel()
		if !res.Recognized() {
			slog.Debug("upload not recognised",
				"session_id", st.SessionID,
				"upload_id", u.ID,
				"filename", u.Filename)
			continue
		}

		status := DocStatusOK
		if u.Status == store.UploadStatusNeedsReview || u.Status == store.UploadStatusFailed {
			status = DocStatusNeedsReview
		}
		app.UpsertDoc(Doc{Kind: res.Kind, Status: status, UploadID: u.ID})
		if !containsKind(recognized, res.Kind) {
			recognized = append(recognized, res.Kind)
		}
	}
	app.UploadsSeenLastID = seen

	switch {
	case len(recognized) > 0:
		st.AddStep(ToastStep(ToastInfo, st.T(MsgTitleUpload), st.T(MsgUploadRecognized, kindLabels(recognized, st.Lang))))
	case len(uploads) > 0:
		st.AddStep(ToastStep(ToastWarn, st.T(MsgTitleUpload), st.T(MsgUploadUnrecognized)))
	}
	st.NextAgent = AgentDocOCR
	return nil
}

// listUploads reads the session's uploads; a failed read yields none.
func listUploads(ctx context.Context, src UploadSource, sessionID string) []*store.Upload {
	if src == nil {
		return nil
	}
	cctx, cancel := context.WithTimeout(ctx, timeout.UploadsTimeout)
	defer cancel()
	uploads, err := src.ListUploads(cctx, sessionID)
	if err != nil {
		slog.Warn("uploads read failed, treating as none",
			"session_id", sessionID,
			"error", err)
		return nil
	}
	return uploads
}

func containsKind(kinds []docs.Kind, k docs.Kind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}
