package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beego/beego/v2/server/web"
	"github.com/plotcraft/backend-go/internal/auth"
	"github.com/plotcraft/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssistant struct {
	calls int
}

func (f *fakeAssistant) Chat(_ context.Context, userID uint, message, novelID string) (string, error) {
	f.calls++
	return "reply to " + message, nil
}

func (f *fakeAssistant) GenerateSceneDraft(context.Context, uint, uint) (string, error) {
	f.calls++
	return "draft", nil
}

type staticTokens struct{}

func (staticTokens) ValidateToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: 1}, nil
}

func newHandlers(t *testing.T, deps Dependencies) *web.ControllerRegister {
	t.Helper()
	if deps.Tokens == nil {
		deps.Tokens = staticTokens{}
	}
	handlers := web.NewControllerRegister()
	require.NoError(t, Register(handlers, deps))
	return handlers
}

func do(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegister_RequiresDependencies(t *testing.T) {
	err := Register(web.NewControllerRegister(), Dependencies{})
	assert.Error(t, err)
}

func TestRegister_AuthGuardsAPI(t *testing.T) {
	assistant := &fakeAssistant{}
	h := newHandlers(t, Dependencies{Assistant: assistant})

	rec := do(h, http.MethodPost, "/api/chat/general", "", `{"message":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(h, http.MethodPost, "/api/chat/general", "bad", `{"message":"hi"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, assistant.calls)

	rec = do(h, http.MethodPost, "/api/chat/general", "good", `{"message":"hi"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "reply to hi")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = do(h, http.MethodPost, "/api/generate-scene/4", "good", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"draft"`)
}

func TestRegister_HealthIsPublic(t *testing.T) {
	h := newHandlers(t, Dependencies{Assistant: &fakeAssistant{}})

	rec := do(h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRegister_MetricsToggle(t *testing.T) {
	h := newHandlers(t, Dependencies{Assistant: &fakeAssistant{}})
	assert.NotEqual(t, http.StatusOK, do(h, http.MethodGet, "/metrics", "", "").Code)

	h = newHandlers(t, Dependencies{Assistant: &fakeAssistant{}, Metrics: true})
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/metrics", "", "").Code)
}

func TestRegister_RateLimitsGeneration(t *testing.T) {
	assistant := &fakeAssistant{}
	h := newHandlers(t, Dependencies{
		Assistant: assistant,
		Server:    config.ServerConfig{RateLimit: 1, RateBurst: 2},
	})

	for i := 0; i < 2; i++ {
		rec := do(h, http.MethodPost, "/api/chat/general", "good", `{"message":"hi"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(h, http.MethodPost, "/api/generate-scene/1", "good", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, assistant.calls)
}

func TestRegister_CORSPreflight(t *testing.T) {
	h := newHandlers(t, Dependencies{
		Assistant: &fakeAssistant{},
		Server:    config.ServerConfig{AllowedOrigins: []string{"https://plotcraft.app"}},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/general", nil)
	req.Header.Set("Origin", "https://plotcraft.app")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://plotcraft.app", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes(t *testing.T) {
	list := routes(Dependencies{Assistant: &fakeAssistant{}})
	patterns := make([]string, 0, len(list))
	for _, r := range list {
		patterns = append(patterns, r.Pattern)
	}
	assert.ElementsMatch(t, []string{"/health", "/api/chat/general", "/api/generate-scene/:scene_id"}, patterns)
}
