package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmaniac/internal/classifier"
	"llmaniac/internal/clientcfg"
	"llmaniac/internal/domain"
	"llmaniac/internal/history"
	"llmaniac/internal/pushlog"
)

type stubResolver map[string]*domain.ClientConfig

func (r stubResolver) Resolve(containerID string) (*domain.ClientConfig, error) {
	if cfg, ok := r[containerID]; ok {
		return cfg, nil
	}
	return nil, clientcfg.ErrNotFound
}

type fakeLLM struct {
	resp    string
	err     error
	calls   int
	prompts []string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.resp, f.err
}

type fixture struct {
	server  *Server
	llm     *fakeLLM
	history *history.Memory
	pushes  *pushlog.Memory
}

func newFixture(configs stubResolver, health Health) *fixture {
	llm := &fakeLLM{resp: "None"}
	hist := history.NewMemory(0)
	pushes := pushlog.NewMemory(0)
	cls := classifier.New(llm, zerolog.Nop())
	server := NewServer(configs, hist, cls, pushes, health, "", zerolog.Nop())
	return &fixture{server: server, llm: llm, history: hist, pushes: pushes}
}

func acmeConfigs() stubResolver {
	return stubResolver{
		"acme": {Events: []domain.Event{
			{Name: "greet", Description: "user says hello", Examples: []string{"hi"}, Sender: domain.SenderHuman},
			{Name: "bot_greet", Description: "assistant greets", Sender: domain.SenderAI},
		}},
	}
}

func (f *fixture) post(t *testing.T, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestClassifyMatchedEvent(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})
	f.llm.resp = "greet"

	rec := f.post(t, "/classify", `{"text":"hello","sender":"human","containerId":"acme","sessionId":"s1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "greet", body["event"])
	assert.Nil(t, body["confidence"])
	assert.Equal(t, true, body["shouldPush"])
	assert.Equal(t, "human", body["sender"])
}

func TestClassifyUnrecognizedLabel(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})
	f.llm.resp = "unrelated_event"

	rec := f.post(t, "/classify", `{"text":"hello","sender":"human","containerId":"acme"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Nil(t, body["event"])
	assert.Equal(t, false, body["shouldPush"])
}

func TestClassifyValidation(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})

	for name, body := range map[string]string{
		"missing text":      `{"sender":"human","containerId":"acme"}`,
		"missing container": `{"text":"hi","sender":"human"}`,
		"bad sender":        `{"text":"hi","sender":"robot","containerId":"acme"}`,
		"not json":          `not json`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.post(t, "/classify", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Zero(t, f.llm.calls)
}

func TestClassifyUnknownContainer(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})

	rec := f.post(t, "/classify", `{"text":"hi","sender":"human","containerId":"nobody"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Contains(t, body["error"], "nobody")
	assert.Zero(t, f.llm.calls, "unknown containers must not reach the provider")
}

func TestClassifyOriginEnforcement(t *testing.T) {
	configs := acmeConfigs()
	configs["acme"].Settings.AllowedDomains = []string{"example.com"}
	f := newFixture(configs, Health{})
	f.llm.resp = "greet"

	body := `{"text":"hello","sender":"human","containerId":"acme"}`

	rec := f.post(t, "/classify", body, map[string]string{"Origin": "https://example.com"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.post(t, "/classify", body, map[string]string{"Origin": "https://evil.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A configured allow-list denies requests that carry no origin at all.
	rec = f.post(t, "/classify", body, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestClassifyUnrestrictedOrigin(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})
	f.llm.resp = "greet"

	rec := f.post(t, "/classify", `{"text":"hello","sender":"human","containerId":"acme"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.post(t, "/classify", `{"text":"hello","sender":"human","containerId":"acme"}`,
		map[string]string{"Origin": "https://anywhere.net"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClassifyUsesHistoryContext(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})
	f.llm.resp = "None"

	rec := f.post(t, "/classify", `{"text":"want a demo?","sender":"ai","containerId":"acme","sessionId":"s1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.post(t, "/classify", `{"text":"yes please","sender":"human","containerId":"acme","sessionId":"s1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.llm.prompts, 2)
	assert.NotContains(t, f.llm.prompts[0], "Previous message")
	assert.Contains(t, f.llm.prompts[1], "want a demo?")

	// The stored turn is now the latest one.
	turn, ok, err := f.history.Get(context.Background(), "acme:s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "yes please", turn.Text)
}

func TestClassifySessionsAreIsolated(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})

	rec := f.post(t, "/classify", `{"text":"first","sender":"human","containerId":"acme","sessionId":"s1"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.post(t, "/classify", `{"text":"second","sender":"human","containerId":"acme","sessionId":"s2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.llm.prompts, 2)
	assert.NotContains(t, f.llm.prompts[1], "first")
	assert.Equal(t, 2, f.history.Len())
}

func TestClassifyMalformedSessionFallsBack(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})

	rec := f.post(t, "/classify", `{"text":"hello","sender":"human","containerId":"acme","sessionId":"bad/../id"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok, err := f.history.Get(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, ok, "turn should land under the bare container key")
}

func TestClassifyProviderFailure(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})
	f.llm.err = errors.New("upstream down")

	rec := f.post(t, "/classify", `{"text":"hello","sender":"human","containerId":"acme","sessionId":"s1"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "error during classification process", body["error"])

	// The failed turn is not retained as context.
	_, ok, err := f.history.Get(context.Background(), "acme:s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPush(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})

	rec := f.post(t, "/push", `{"event":"greet","sender":"human","properties":{"page":"/pricing"}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "received", body["status"])
	eventData, ok := body["event_data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "greet", eventData["event"])

	entries := f.pushes.Recent(0)
	require.Len(t, entries, 1)
	assert.Equal(t, "greet", entries[0].Event)
	assert.Equal(t, domain.SenderHuman, entries[0].Sender)
	assert.False(t, entries[0].ReceivedAt.IsZero())
}

func TestPushValidation(t *testing.T) {
	f := newFixture(acmeConfigs(), Health{})

	rec := f.post(t, "/push", `{"sender":"human"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.post(t, "/push", `{"event":"greet","sender":"robot"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, f.pushes.Recent(0))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name        string
		health      Health
		llmStatus   string
		tracing     string
		wantProject bool
	}{
		{
			name:      "llm missing, tracing off",
			health:    Health{},
			llmStatus: "unavailable (api key missing)",
			tracing:   "disabled",
		},
		{
			name:        "fully configured",
			health:      Health{LLMConfigured: true, TracingEnabled: true, TracingKeySet: true, TracingProject: "prod"},
			llmStatus:   "available",
			tracing:     "enabled (api key found)",
			wantProject: true,
		},
		{
			name:        "tracing enabled without key",
			health:      Health{LLMConfigured: true, TracingEnabled: true, TracingProject: "prod"},
			llmStatus:   "available",
			tracing:     "enabled (api key missing)",
			wantProject: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(acmeConfigs(), tt.health)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			f.server.Handler().ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, "ok", body["status"])
			assert.Equal(t, tt.llmStatus, body["llm_status"])
			assert.Equal(t, tt.tracing, body["tracing_status"])
			if tt.wantProject {
				assert.Equal(t, "prod", body["tracing_project"])
			} else {
				assert.Nil(t, body["tracing_project"])
			}
		})
	}
}
