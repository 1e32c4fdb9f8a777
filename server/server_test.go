package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/syntaxis/syntaxis/am"
	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/grammar"
	qtest "github.com/syntaxis/syntaxis/internal/testing"
	"github.com/syntaxis/syntaxis/lexicon"
	"github.com/syntaxis/syntaxis/library"
)

func testConfig() *am.Config {
	return &am.Config{
		Generation: am.GenerationConfig{MaxAttempts: 10, Seed: 1},
		Server:     am.ServerConfig{Port: am.DefaultServerPort, AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestServer(t *testing.T, cfg *am.Config) *Server {
	t.Helper()
	db := qtest.CreateTestDB(t)
	log := zaptest.NewLogger(t).Sugar()

	store := lexicon.NewStore(db, log)
	_, err := store.ImportBuiltin(context.Background())
	require.NoError(t, err)

	return New(store, library.New(db, log), cfg, log)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()
	rec := do(t, h, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 10, body["max_attempts"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestParse(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := do(t, h, http.MethodPost, "/api/parse", templateRequest{Template: "[noun:nom:masc:sg] [verb:present:active:ter:sg]"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "verbose", body["notation"])
	assert.Equal(t, "(noun)@{nom:masc:sg} (verb)@{present:active:ter:sg}", body["canonical"])
	assert.Len(t, body["ast"].(map[string]any)["groups"], 2)
	assert.Nil(t, body["tokens"])

	rec = do(t, h, http.MethodPost, "/api/parse", templateRequest{Template: "(article noun)@{nom:masc:sg} (adj)@$1", Resolve: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tokens := decode(t, rec)["tokens"].([]any)
	require.Len(t, tokens, 3)
	assert.Equal(t, "adjective", tokens[2].(map[string]any)["pos"])
}

func TestParseErrors(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantKind string
	}{
		{"unknown feature", templateRequest{Template: "(noun)@{nomm:masc:sg}"}, http.StatusBadRequest, "unknown_feature"},
		{"dangling reference", templateRequest{Template: "(noun)@$3"}, http.StatusBadRequest, "dangling_reference"},
		{"invalid format", templateRequest{Template: "noun"}, http.StatusBadRequest, "invalid_format"},
		{"unknown field", map[string]string{"tmpl": "x"}, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/parse", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.NotEmpty(t, body["error"])
			assert.NotEmpty(t, body["request_id"])
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, body["kind"])
			}
		})
	}

	rec := do(t, h, http.MethodPost, "/api/parse", templateRequest{Template: "(noun)@{nomm:masc:sg}"})
	body := decode(t, rec)
	assert.EqualValues(t, 8, body["offset"])
	assert.EqualValues(t, 1, body["group"])
	assert.Contains(t, body["suggestions"], "nom")
}

func TestGenerate(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := do(t, h, http.MethodPost, "/api/generate", templateRequest{
		Template: "(article noun)@{nom:gender:sg} (verb)@{present:active:ter:sg}",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		RequestID string                   `json:"request_id"`
		Sentence  string                   `json:"sentence"`
		ID        string                   `json:"id"`
		Words     []generate.GeneratedWord `json:"words"`
		Attempts  int                      `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, rec.Header().Get(requestIDHeader), resp.RequestID)
	assert.NotEmpty(t, resp.ID)
	require.Len(t, resp.Words, 3)
	assert.Equal(t, resp.Words[0].Features[grammar.Gender], resp.Words[1].Features[grammar.Gender])
	assert.Equal(t, 3, len(strings.Fields(resp.Sentence)))
	assert.GreaterOrEqual(t, resp.Attempts, 1)
}

func TestGenerateErrors(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := do(t, h, http.MethodPost, "/api/generate", templateRequest{Template: "(noun)@{nom:sg}"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "incomplete features")

	// articles have no vocative
	rec = do(t, h, http.MethodPost, "/api/generate", templateRequest{Template: "(article)@{voc:masc:sg}"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "no article matches")

	rec = do(t, h, http.MethodGet, "/api/generate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTemplatesCRUD(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	rec := do(t, h, http.MethodPost, "/api/templates", templateRequest{
		Template: "(article{definite} noun)@{acc:fem:sg}", Description: "object",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry library.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entry))
	assert.Equal(t, "object", entry.Description)

	rec = do(t, h, http.MethodPost, "/api/templates", templateRequest{Template: "(article{definite} noun)@{acc:fem:sg}"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/templates", templateRequest{Template: "(noun"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	path := "/api/templates/" + strconv.FormatInt(entry.ID, 10)
	rec = do(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, path+"/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	words := decode(t, rec)["words"].([]any)
	assert.Equal(t, "την", words[0].(map[string]any)["form"])

	rec = do(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodPost, path+"/generate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/templates/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplatesWithoutLibrary(t *testing.T) {
	lex := generate.LexiconFunc(func(context.Context, string, map[grammar.Category]string) (*generate.Word, error) {
		return &generate.Word{Form: "x"}, nil
	})
	h := New(lex, nil, testConfig(), nil).Handler()

	rec := do(t, h, http.MethodGet, "/api/templates", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/templates/1", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInternalErrorsHideDetails(t *testing.T) {
	lex := generate.LexiconFunc(func(context.Context, string, map[grammar.Category]string) (*generate.Word, error) {
		return nil, assert.AnError
	})
	h := New(lex, nil, testConfig(), zaptest.NewLogger(t).Sugar()).Handler()

	rec := do(t, h, http.MethodPost, "/api/generate", templateRequest{Template: "(noun)@{nom:masc:sg}"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to generate sentence", decode(t, rec)["error"])
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RequestsPerMinute = 1
	h := newTestServer(t, cfg).Handler()

	rec := do(t, h, http.MethodPost, "/api/parse", templateRequest{Template: "(noun)@{nom:masc:sg}"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/parse", templateRequest{Template: "(noun)@{nom:masc:sg}"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health is never limited")
}

func TestApplyConfigTogglesRateLimit(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()
	parse := func() int {
		return do(t, h, http.MethodPost, "/api/parse", templateRequest{Template: "(noun)@{nom:masc:sg}"}).Code
	}

	require.Equal(t, http.StatusOK, parse())
	require.Equal(t, http.StatusOK, parse())

	cfg := testConfig()
	cfg.Server.RequestsPerMinute = 1
	s.ApplyConfig(cfg)
	assert.Equal(t, http.StatusOK, parse())
	assert.Equal(t, http.StatusTooManyRequests, parse())

	s.ApplyConfig(testConfig())
	assert.Equal(t, http.StatusOK, parse())
	assert.Equal(t, http.StatusOK, parse())
}

func TestCORS(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/generate", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagation(t *testing.T) {
	h := newTestServer(t, testConfig()).Handler()
	id := "6f1c2a9e-3c57-4d0b-9a49-6c1d1f3f8e21"

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}

func TestApplyConfigSwapsGenerator(t *testing.T) {
	s := newTestServer(t, testConfig())
	before := s.Generator()

	cfg := testConfig()
	cfg.Generation.MaxAttempts = 3
	s.ApplyConfig(cfg)

	assert.NotSame(t, before, s.Generator())
	assert.Equal(t, 3, s.Generator().MaxAttempts())
}

func TestServeAndStop(t *testing.T) {
	s := newTestServer(t, testConfig())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, ServerStateRunning, s.getState())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, <-done)
	assert.Equal(t, ServerStateStopped, s.getState())
}
