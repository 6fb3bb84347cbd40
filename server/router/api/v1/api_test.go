package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/ghiseu/internal/profile"
	"github.com/hrygo/ghiseu/plugin/ai/agent"
	"github.com/hrygo/ghiseu/plugin/ai/checklist"
	"github.com/hrygo/ghiseu/plugin/ai/router"
	"github.com/hrygo/ghiseu/plugin/ai/session"
	"github.com/hrygo/ghiseu/server/middleware"
	"github.com/hrygo/ghiseu/server/service/cases"
	"github.com/hrygo/ghiseu/store"
	"github.com/hrygo/ghiseu/store/db/sqlite"
)

const idCardText = `ROMANIA
CARTE DE IDENTITATE
CNP 1850101123456
Nume/Nom/Last name
POPESCU
Prenume/Prenom/First name
ION`

type testAPI struct {
	e     *echo.Echo
	svc   *APIV1Service
	store *store.Store
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	p := &profile.Profile{Mode: "dev", Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "api_test.db")}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	set, err := checklist.LoadDefaults()
	require.NoError(t, err)
	caseSvc := cases.NewService(st)
	metrics := agent.NewMetrics()
	reg, err := agent.NewDefaultRegistry(agent.Deps{
		Checklists: set,
		Resolver:   router.NewService(router.Config{}),
		Uploads:    &agent.StoreUploads{Store: st},
		Cases:      caseSvc,
		CaseLister: caseSvc,
		Metrics:    metrics,
		PublicURL:  "https://ghiseu.test",
	})
	require.NoError(t, err)

	sessions := session.NewMemoryStore(100, time.Hour)
	t.Cleanup(sessions.Close)

	svc := NewAPIV1Service(Config{
		Profile:         p,
		Store:           st,
		Sessions:        session.NewService(session.ServiceConfig{Store: sessions, Dispatcher: agent.NewDispatcher(reg, 0, metrics)}),
		Checklists:      set,
		Cases:           caseSvc,
		DispatchMetrics: metrics,
		Limiter:         middleware.NewRateLimiter(1000, 1000),
	})
	e := echo.New()
	svc.RegisterRoutes(e)
	return &testAPI{e: e, svc: svc, store: st}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = httptest.NewRequest(method, path, bytes.NewReader(data))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, r)
	return rec
}

func (a *testAPI) chat(t *testing.T, req session.TurnRequest) *TurnResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/chat", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out TurnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return &out
}

func TestAPI_UploadOfferAndAccept(t *testing.T) {
	a := newTestAPI(t)

	res := a.chat(t, session.TurnRequest{SessionID: "ci-1", Message: "ro", Form: &agent.FormInput{UIContext: "ci"}})
	assert.Equal(t, agent.LangRO, res.Lang)
	assert.Contains(t, res.ReplyHTML, "<p>")

	rec := a.do(t, http.MethodPost, "/api/v1/sessions/ci-1/uploads", CreateUploadRequest{
		Filename: "buletin.jpg",
		KindHint: "auto",
		Text:     idCardText,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var up UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &up))
	assert.Equal(t, store.UploadStatusOK, up.Status)

	res = a.chat(t, session.TurnRequest{SessionID: "ci-1", Message: "am incarcat buletinul"})
	assert.Equal(t, []agent.AgentID{agent.AgentRouter, agent.AgentCI, agent.AgentDocIntake, agent.AgentDocOCR}, res.Trace)
	require.True(t, res.App.HasPendingOffer())
	assert.Contains(t, res.Reply, "1850101123456")

	res = a.chat(t, session.TurnRequest{SessionID: "ci-1", Message: "da"})
	assert.False(t, res.App.HasPendingOffer())
	assert.Equal(t, "1850101123456", res.Person["cnp"])
	var applied bool
	for _, s := range res.Steps {
		applied = applied || s.Type == agent.StepAutofillApply
	}
	assert.True(t, applied)

	rec = a.do(t, http.MethodGet, "/api/v1/sessions/ci-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "1850101123456", snap.Person["cnp"])
	assert.Equal(t, 6, snap.Turns)
}

func TestAPI_MultipartUploadWithoutExtractor(t *testing.T) {
	a := newTestAPI(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", "certificat_nastere.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("kind_hint", "cert_nastere"))
	require.NoError(t, w.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/s1/uploads", &body)
	r.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, r)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	uploads, err := a.store.ListUploads(context.Background(), &store.FindUpload{SessionID: ptr("s1")})
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.Equal(t, "cert_nastere", uploads[0].KindHint)
	assert.Equal(t, "application/pdf", uploads[0].ContentType)
	assert.Equal(t, store.UploadStatusNeedsReview, uploads[0].Status)

	rec = a.do(t, http.MethodPost, "/api/v1/sessions/s1/uploads", CreateUploadRequest{Filename: "../etc/passwd"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_HistoryAndReset(t *testing.T) {
	a := newTestAPI(t)
	a.chat(t, session.TurnRequest{SessionID: "s1", Message: "__start__"})
	a.chat(t, session.TurnRequest{SessionID: "s1", Message: "en"})

	rec := a.do(t, http.MethodGet, "/api/v1/sessions/s1/history?filtered=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Turns []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist.Turns, 3)
	assert.Equal(t, "en", hist.Turns[1].Text)

	rec = a.do(t, http.MethodGet, "/api/v1/sessions/s1/history", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	assert.Len(t, hist.Turns, 4)

	rec = a.do(t, http.MethodGet, "/api/v1/sessions", nil)
	assert.Contains(t, rec.Body.String(), `"id":"s1"`)

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, "/api/v1/sessions/s1", nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, "/api/v1/sessions/s1", nil).Code)
}

func TestAPI_Errors(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/v1/chat", session.TurnRequest{Message: "salut"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")

	r := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader("{"))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	a.e.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Catalogue(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/v1/checklists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, program := range []string{`"program":"CI"`, `"agent":"social"`, `"agent":"taxe"`} {
		assert.Contains(t, rec.Body.String(), program)
	}

	rec = a.do(t, http.MethodGet, "/api/v1/cases", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cases":[]}`, rec.Body.String())

	a.chat(t, session.TurnRequest{SessionID: "m1", Message: "ro"})
	rec = a.do(t, http.MethodGet, "/api/v1/system/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var m MetricsOverviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.GreaterOrEqual(t, m.TotalRequests, int64(3))
	assert.Equal(t, int64(1), m.Dispatch.TotalTurns)
}

func TestAPI_WebSocket(t *testing.T) {
	a := newTestAPI(t)
	srv := httptest.NewServer(a.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?session_id=ws-1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsMessage{Message: "__start__", Form: &agent.FormInput{UIContext: "taxe"}}))
	var out TurnResponse
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, "ws-1", out.SessionID)
	assert.Contains(t, out.Reply, "RO")

	require.NoError(t, conn.WriteJSON(wsMessage{Message: "ro"}))
	out = TurnResponse{}
	require.NoError(t, conn.ReadJSON(&out))
	assert.Equal(t, agent.LangRO, out.Lang)
	assert.Equal(t, "taxe", out.App.UIContext)
}

func ptr[T any](v T) *T { return &v }
