package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAnswerer struct {
	answer string
	err    error
}

func (s *stubAnswerer) Answer(ctx context.Context, query string) (string, error) {
	return s.answer, s.err
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChat_Success(t *testing.T) {
	handler := New(&stubAnswerer{answer: "integrals accumulate change"}, nil, nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/chat", `{"query":"what is an integral?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "integrals accumulate change", resp.Response)
}

func TestChat_EmptyQuery(t *testing.T) {
	handler := New(&stubAnswerer{answer: "unused"}, nil, nil)

	for _, body := range []string{`{"query":""}`, `{"query":"   "}`, `{}`} {
		rec := doRequest(t, handler, http.MethodPost, "/api/chat", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestChat_MalformedBody(t *testing.T) {
	handler := New(&stubAnswerer{}, nil, nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/chat", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChat_ServiceErrorIsOpaque(t *testing.T) {
	handler := New(&stubAnswerer{err: fmt.Errorf("qdrant: connection refused at 10.0.0.3")}, nil, nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/chat", `{"query":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// Internal detail must not leak into the response body.
	assert.NotContains(t, rec.Body.String(), "qdrant")
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestHealth(t *testing.T) {
	handler := New(&stubAnswerer{}, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRoot(t *testing.T) {
	handler := New(&stubAnswerer{}, nil, nil)

	rec := doRequest(t, handler, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_AllowedOrigin(t *testing.T) {
	handler := New(&stubAnswerer{answer: "hi"}, []string{"https://brofessor-three.vercel.app"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Origin", "https://brofessor-three.vercel.app")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://brofessor-three.vercel.app", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	handler := New(&stubAnswerer{answer: "hi"}, []string{"https://brofessor-three.vercel.app"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"query":"q"}`))
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	handler := New(&stubAnswerer{}, []string{"https://brofessor-three.vercel.app"}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "https://brofessor-three.vercel.app")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
}
