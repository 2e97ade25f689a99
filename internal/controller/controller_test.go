package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/pkg/serverutils"
	"eq-coach-be/internal/service"
	"eq-coach-be/internal/testutil"
	"eq-coach-be/pkg/memory"
	"eq-coach-be/pkg/notify"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asUser(userId uuid.UUID) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		ctx.Locals("user_id", userId.String())
		return ctx.Next()
	}
}

func newApp(register func(r fiber.Router)) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	register(app.Group("/api"))
	return app
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded
}

type memoryFixture struct {
	db      *testutil.TestDB
	manager *memory.Manager
}

func newMemoryFixture(t *testing.T) *memoryFixture {
	db := testutil.NewTestDB(t)
	log := logger.NewNopLogger()
	backend := service.NewMemoryFunctionService(db.Factory, nil, log)
	return &memoryFixture{
		db:      db,
		manager: memory.NewManager(db.Factory, backend, notify.NewRecorder(), nil, log),
	}
}

func TestMemoryToggleStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		tier   string
		path   string
		status int
	}{
		{"free memory is forbidden", "free", "/api/memory/v1/settings/memory", http.StatusForbidden},
		{"basic memory is allowed", "basic", "/api/memory/v1/settings/memory", http.StatusOK},
		{"basic insights are forbidden", "basic", "/api/memory/v1/settings/smart-insights", http.StatusForbidden},
		{"premium insights are allowed", "premium", "/api/memory/v1/settings/smart-insights", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newMemoryFixture(t)
			userId := f.db.SeedProfile(t, tt.tier).Id
			app := newApp(NewMemoryController(f.manager, asUser(userId)).RegisterRoutes)

			status, body := do(t, app, http.MethodPut, tt.path, `{"enabled":true}`, nil)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status == http.StatusOK, body["success"])
		})
	}
}

func TestMemoryToggleRequiresEnabled(t *testing.T) {
	f := newMemoryFixture(t)
	userId := f.db.SeedProfile(t, "basic").Id
	app := newApp(NewMemoryController(f.manager, asUser(userId)).RegisterRoutes)

	status, body := do(t, app, http.MethodPut, "/api/memory/v1/settings/memory", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
}

func TestMemorySettingsUnknownProfile(t *testing.T) {
	f := newMemoryFixture(t)
	app := newApp(NewMemoryController(f.manager, asUser(uuid.New())).RegisterRoutes)

	status, _ := do(t, app, http.MethodGet, "/api/memory/v1/settings", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMemoryArchiveAndList(t *testing.T) {
	f := newMemoryFixture(t)
	userId := f.db.SeedProfile(t, "basic").Id
	app := newApp(NewMemoryController(f.manager, asUser(userId)).RegisterRoutes)

	memoryId := uuid.New()
	status, _ := do(t, app, http.MethodPost, "/api/memory/v1/archive",
		`{"memory_id":"`+memoryId.String()+`","content":"Prefers direct feedback"}`, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, app, http.MethodGet, "/api/memory/v1/archive", "", nil)
	require.Equal(t, http.StatusOK, status)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, memoryId.String(), entry["original_memory_id"])
	assert.Equal(t, "message", entry["memory_type"])

	status, _ = do(t, app, http.MethodPost, "/api/memory/v1/archive/"+uuid.NewString()+"/restore", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodDelete, "/api/memory/v1/archive/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

type limitedChatService struct {
	service.IChatService
}

func (limitedChatService) SendMessage(context.Context, uuid.UUID, *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	return nil, &dto.LimitExceededError{Limit: 20, Used: 20, Tier: "free", ResetAfter: time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)}
}

func TestSendMessageLimitIs429(t *testing.T) {
	app := newApp(NewChatController(limitedChatService{}, asUser(uuid.New())).RegisterRoutes)

	status, body := do(t, app, http.MethodPost, "/api/chat/v1/messages", `{"content":"hi"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "CHAT_LIMIT_REACHED", body["error_type"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(20), data["limit"])
	assert.Equal(t, true, data["show_modal_pricing"])
}

func TestSendMessageValidation(t *testing.T) {
	app := newApp(NewChatController(limitedChatService{}, asUser(uuid.New())).RegisterRoutes)

	status, _ := do(t, app, http.MethodPost, "/api/chat/v1/messages", `{"content":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

type blankChatService struct {
	service.IChatService
}

func (blankChatService) SendMessage(context.Context, uuid.UUID, *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	return nil, service.ErrEmptyMessage
}

func TestSendMessageBlankContentIs400(t *testing.T) {
	app := newApp(NewChatController(blankChatService{}, asUser(uuid.New())).RegisterRoutes)

	status, _ := do(t, app, http.MethodPost, "/api/chat/v1/messages", `{"content":"   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestFunctionsEndpoint(t *testing.T) {
	db := testutil.NewTestDB(t)
	log := logger.NewNopLogger()
	svc := service.NewMemoryFunctionService(db.Factory, nil, log)
	app := newApp(NewFunctionsController(svc, serverutils.NewApiKeyMiddleware("secret"), log).RegisterRoutes)
	auth := map[string]string{"Authorization": "Bearer secret"}
	userBody := `{"userId":"` + uuid.NewString() + `"}`

	status, body := do(t, app, http.MethodPost, "/api/functions/v1/memory-stats", userBody, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", body["error"])

	status, body = do(t, app, http.MethodPost, "/api/functions/v1/memory-stats", userBody, auth)
	require.Equal(t, http.StatusOK, status)
	stats := body["data"].(map[string]interface{})
	assert.Equal(t, float64(0), stats["total_memories"])

	status, _ = do(t, app, http.MethodPost, "/api/functions/v1/summarize", userBody, auth)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPost, "/api/functions/v1/restore-memory", userBody, auth)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/api/functions/v1/fetch-memories", `{}`, auth)
	assert.Equal(t, http.StatusBadRequest, status)
}
