package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclerk/contractsense/internal/profile"
	"github.com/openclerk/contractsense/store"
	"github.com/openclerk/contractsense/store/db/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	p := &profile.Profile{
		Mode:   "dev",
		Data:   dir,
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "test.db"),
	}
	require.NoError(t, p.Validate())

	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)

	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))

	s, err := NewServer(context.Background(), p, st)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return s
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echoContentType, "application/json")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

const echoContentType = "Content-Type"

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAskRequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ask", `{"question":"hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskAnswersWithoutDocument(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ask",
		`{"question":"What is an MTA?","session_uid":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Content)
	assert.NotEmpty(t, payload.Tier)
	assert.NotEmpty(t, payload.Suggestions)
}

func TestUploadThenAskUsesDocument(t *testing.T) {
	s := newTestServer(t)

	upload := doJSON(t, s, http.MethodPost, "/api/v1/sessions/s1/documents",
		`{"title":"Material Transfer Agreement","content":"1. PARTIES\nThis agreement is between the Provider and the Recipient.\n2. PAYMENT\nPayment of fees is due within thirty days."}`)
	require.Equal(t, http.StatusCreated, upload.Code)
	assert.Contains(t, upload.Body.String(), "PARTIES")

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ask",
		`{"question":"Who are the parties in this agreement?","session_uid":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "document", payload.Pattern)
	assert.Equal(t, "full", payload.Tier)
}

func TestAskRendersHTML(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/ask",
		`{"question":"What is an MTA?","session_uid":"s1","render":"html"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload.HTML, "<h3>")
}

func TestClassifyEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/v1/classify",
		`{"question":"What about it and that thing we discussed?","session_uid":"s1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload classifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Category)
	assert.Contains(t, payload.Flags, "pronoun_reference")
}

func TestTurnsEndpoints(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/v1/ask",
		`{"question":"What are the payment terms?","session_uid":"s2"}`)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/sessions/s2/turns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "What are the payment terms?")

	del := doJSON(t, s, http.MethodDelete, "/api/v1/sessions/s2/turns", "")
	require.Equal(t, http.StatusNoContent, del.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/v1/sessions/s2/turns", "")
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/api/v1/ask",
		`{"question":"What are the payment terms?","session_uid":"s1"}`)

	rec := doJSON(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "contractsense_pipeline_responses_total")
}
