package agent

import (
	"context"
	"log/slog"
	"sort"

	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ocr"
)

// OCRAgent turns extracted upload text into an autofill offer.
// When it makes an offer it ends the turn; the router's confirmation gate
// resumes the continuation on the user's next reply.
type OCRAgent struct {
	uploads    UploadSource
	checklists *checklist.Set
	metrics    *Metrics
}

// NewOCRAgent creates the OCR agent. metrics may be nil.
func NewOCRAgent(uploads UploadSource, checklists *checklist.Set, metrics *Metrics) *OCRAgent {
	return &OCRAgent{uploads: uploads, checklists: checklists, metrics: metrics}
}

func (a *OCRAgent) ID() AgentID { return AgentDocOCR }

func (a *OCRAgent) Handle(ctx context.Context, st *State) error {
	uploads := listUploads(ctx, a.uploads, st.SessionID)
	sort.SliceStable(uploads, func(i, j int) bool { return uploads[i].ID < uploads[j].ID })

	fields := ocr.Fields{}
	for _, u := range uploads {
		for k, v := range ocr.Extract(u.ExtractedText) {
			if v != "" {
				fields[k] = v
			}
		}
	}

	returnTo := st.ReturnTo
	if !returnTo.Valid() || returnTo == AgentRouter || returnTo == AgentDocIntake || returnTo == AgentDocOCR {
		returnTo = DomainFor(a.checklists, st.App.UIContext)
	}
	st.ReturnTo = ""

	if len(fields) > 0 {
		warnings := fields.Warnings()
		if len(warnings) > 0 {
			slog.Debug("ocr extraction incomplete",
				"session_id", st.SessionID,
				"fields", len(fields),
				"warnings", warnings)
		}
		st.App.PendingAutofill = &PendingAutofillOffer{Fields: fields, Offer: true, Warnings: warnings}
		st.App.Continuation = returnTo
		st.AddStep(ToastStep(ToastInfo, st.T(MsgTitleOCR), st.T(MsgOCRToastUpdated)))
		st.Say(st.T(MsgOCRFoundFields, PreviewFields(fields)))
		if a.metrics != nil {
			a.metrics.RecordAutofillOffer()
		}
		return nil
	}

	if len(uploads) > 0 {
		st.Say(st.T(MsgOCRNoFields))
	}
	st.NextAgent = returnTo
	return nil
}
