package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beego/beego/v2/server/web"
	beecontext "github.com/beego/beego/v2/server/web/context"
	"github.com/plotcraft/backend-go/app/middleware"
	apperrors "github.com/plotcraft/backend-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAssistant struct {
	mock.Mock
}

func (m *MockAssistant) Chat(ctx context.Context, userID uint, message, novelID string) (string, error) {
	args := m.Called(ctx, userID, message, novelID)
	return args.String(0), args.Error(1)
}

func (m *MockAssistant) GenerateSceneDraft(ctx context.Context, userID, sceneID uint) (string, error) {
	args := m.Called(ctx, userID, sceneID)
	return args.String(0), args.Error(1)
}

// fakeAuth marks every request as user 7.
func fakeAuth(ctx *beecontext.Context) {
	ctx.Input.SetData(middleware.UserIDKey, uint(7))
}

func newAssistantHandlers(t *testing.T, assistant Assistant, authenticated bool) *web.ControllerRegister {
	t.Helper()
	handlers := web.NewControllerRegister()
	if authenticated {
		require.NoError(t, handlers.InsertFilter("/api/*", web.BeforeRouter, fakeAuth))
	}
	ctrl := &AssistantController{Assistant: assistant}
	handlers.Add("/api/chat/general", ctrl, web.WithRouterMethods(ctrl, "post:Chat;*:MethodNotAllowed"))
	handlers.Add("/api/generate-scene/:scene_id", ctrl, web.WithRouterMethods(ctrl, "post:GenerateSceneDraft;*:MethodNotAllowed"))
	return handlers
}

func serve(handlers http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlers.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestChat_NovelIDForms(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		novelID string
	}{
		{"string", `{"message":"hi","novel_id":"12"}`, "12"},
		{"number", `{"message":"hi","novel_id":12}`, "12"},
		{"null", `{"message":"hi","novel_id":null}`, ""},
		{"absent", `{"message":"hi"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := new(MockAssistant)
			assistant.On("Chat", mock.Anything, uint(7), "hi", tt.novelID).Return("hello writer", nil)

			rec := serve(newAssistantHandlers(t, assistant, true), http.MethodPost, "/api/chat/general", tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "hello writer", decode(t, rec)["reply"])
			assistant.AssertExpectations(t)
		})
	}
}

func TestChat_PassesMessageVerbatim(t *testing.T) {
	assistant := new(MockAssistant)
	assistant.On("Chat", mock.Anything, uint(7), "  who is Aria?\n", "").Return("Aria is your lead.", nil)

	rec := serve(newAssistantHandlers(t, assistant, true), http.MethodPost, "/api/chat/general", `{"message":"  who is Aria?\n"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assistant.AssertExpectations(t)
}

func TestChat_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"message":`},
		{"missing message", `{"novel_id":"1"}`},
		{"blank message", `{"message":"   "}`},
		{"object novel id", `{"message":"hi","novel_id":{"id":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assistant := new(MockAssistant)
			rec := serve(newAssistantHandlers(t, assistant, true), http.MethodPost, "/api/chat/general", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["error"])
			assistant.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestChat_Unauthenticated(t *testing.T) {
	assistant := new(MockAssistant)
	rec := serve(newAssistantHandlers(t, assistant, false), http.MethodPost, "/api/chat/general", `{"message":"hi"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assistant.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestChat_WrongMethod(t *testing.T) {
	rec := serve(newAssistantHandlers(t, new(MockAssistant), true), http.MethodGet, "/api/chat/general", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGenerateSceneDraft(t *testing.T) {
	assistant := new(MockAssistant)
	assistant.On("GenerateSceneDraft", mock.Anything, uint(7), uint(5)).Return("The wind howled.", nil)

	rec := serve(newAssistantHandlers(t, assistant, true), http.MethodPost, "/api/generate-scene/5", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The wind howled.", decode(t, rec)["draft"])
	assistant.AssertExpectations(t)
}

func TestGenerateSceneDraft_NotFound(t *testing.T) {
	assistant := new(MockAssistant)
	assistant.On("GenerateSceneDraft", mock.Anything, uint(7), uint(99)).Return("", apperrors.NewNotFoundError("Scene"))

	rec := serve(newAssistantHandlers(t, assistant, true), http.MethodPost, "/api/generate-scene/99", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Scene not found", decode(t, rec)["error"])
}

func TestGenerateSceneDraft_InvalidID(t *testing.T) {
	assistant := new(MockAssistant)
	rec := serve(newAssistantHandlers(t, assistant, true), http.MethodPost, "/api/generate-scene/abc", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assistant.AssertNotCalled(t, "GenerateSceneDraft", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateSceneDraft_UnexpectedError(t *testing.T) {
	assistant := new(MockAssistant)
	assistant.On("GenerateSceneDraft", mock.Anything, uint(7), uint(3)).Return("", errors.New("boom"))

	rec := serve(newAssistantHandlers(t, assistant, true), http.MethodPost, "/api/generate-scene/3", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode(t, rec)["error"])
}

type stubReady bool

func (s stubReady) Ready() bool { return bool(s) }

func (s stubReady) Configured() bool { return bool(s) }

type stubPinger struct{ err error }

func (s stubPinger) HealthCheck(context.Context) error { return s.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name     string
		ctrl     *HealthController
		status   int
		expected string
	}{
		{"no database", &HealthController{Store: stubReady(true), Generator: stubReady(false)}, http.StatusOK, "ok"},
		{"database up", &HealthController{Database: stubPinger{}}, http.StatusOK, "ok"},
		{"database down", &HealthController{Database: stubPinger{err: errors.New("refused")}}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlers := web.NewControllerRegister()
			handlers.Add("/health", tt.ctrl, web.WithRouterMethods(tt.ctrl, "get:Health"))

			rec := serve(handlers, http.MethodGet, "/health", "")

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.expected, decode(t, rec)["status"])
		})
	}
}

func TestHealth_ReportsComponents(t *testing.T) {
	ctrl := &HealthController{Store: stubReady(true), Generator: stubReady(false)}
	handlers := web.NewControllerRegister()
	handlers.Add("/health", ctrl, web.WithRouterMethods(ctrl, "get:Health"))

	body := decode(t, serve(handlers, http.MethodGet, "/health", ""))
	assert.Equal(t, true, body["vector_store"])
	assert.Equal(t, false, body["generation_configured"])
	assert.NotContains(t, body, "database")
}

func TestMetrics(t *testing.T) {
	ctrl := &MetricsController{}
	handlers := web.NewControllerRegister()
	handlers.Add("/metrics", ctrl, web.WithRouterMethods(ctrl, "get:Metrics"))

	rec := serve(handlers, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
