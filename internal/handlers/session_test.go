package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwhitt/adventure-engine/internal/config"
	"github.com/cwhitt/adventure-engine/internal/services"
	"github.com/cwhitt/adventure-engine/internal/storage"
)

// sessionTestWorld is a small document with a portable lamp and a
// treasure so commands have something to act on.
const sessionTestWorld = `{
	"name": "Test Caves",
	"start_room": "entrance",
	"rooms": [
		{"id": "entrance", "name": "Cave Entrance", "description": "A narrow opening in the rock.", "exits": {"north": "gallery"}},
		{"id": "gallery", "name": "Gallery", "description": "A long gallery of dripping stone.", "exits": {"south": "entrance"}}
	],
	"objects": [
		{"id": "lamp", "name": "brass lamp", "description": "A battered brass lamp.", "location": "entrance", "visible": true,
		 "properties": {"portable": true, "lightable": true}}
	]
}`

func newSessionHandler(t *testing.T) (*SessionHandler, *storage.MockStorage) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))

	mock := storage.NewMockStorage()
	mock.AddWorld("caves.json", []byte(sessionTestWorld))

	cfg := &config.Config{
		Environment:           "test",
		TelemetryEnabled:      true,
		TelemetryCollectInput: true,
	}
	game, err := services.NewGameService(mock, cfg, logger)
	require.NoError(t, err)

	return NewSessionHandler(mock, game, logger), mock
}

func createSession(t *testing.T, handler *SessionHandler) SessionResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"world":"caves.json"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())

	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestSessionHandler_Create(t *testing.T) {
	handler, mock := newSessionHandler(t)

	resp := createSession(t, handler)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, "caves.json", resp.World)
	assert.Equal(t, "playing", resp.Status)
	// The opening look describes the starting room.
	assert.Contains(t, strings.Join(resp.Messages, "\n"), "Cave Entrance")

	saved, err := mock.LoadSession(context.Background(), resp.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.NotEmpty(t, saved.Snapshot)
}

func TestSessionHandler_CreateUnknownWorld(t *testing.T) {
	handler, _ := newSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{"world":"atlantis.json"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_CreateMissingWorld(t *testing.T) {
	// No world in the request and no configured default.
	handler, _ := newSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_CreateDefaultWorld(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	mock := storage.NewMockStorage()
	mock.AddWorld("caves.json", []byte(sessionTestWorld))

	cfg := &config.Config{
		Environment:      "test",
		WorldFile:        "caves.json",
		TelemetryEnabled: true,
	}
	game, err := services.NewGameService(mock, cfg, logger)
	require.NoError(t, err)
	handler := NewSessionHandler(mock, game, logger)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, "body: %s", rr.Body.String())
	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "caves.json", resp.World)
	assert.Equal(t, "entrance", resp.Player.Room)
}

func TestSessionHandler_Read(t *testing.T) {
	handler, _ := newSessionHandler(t)
	created := createSession(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+created.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp SessionResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, "caves.json", resp.World)
}

func TestSessionHandler_ReadNotFound(t *testing.T) {
	handler, _ := newSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_ReadBadID(t *testing.T) {
	handler, _ := newSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	handler, mock := newSessionHandler(t)
	created := createSession(t, handler)

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+created.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)

	saved, err := mock.LoadSession(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestSessionHandler_Command(t *testing.T) {
	handler, _ := newSessionHandler(t)
	created := createSession(t, handler)

	body := `{"input":"take lamp and north"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+created.ID.String()+"/command", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())
	var resp CommandResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	joined := strings.Join(resp.Messages, "\n")
	assert.Contains(t, joined, "You take the brass lamp.")
	assert.Contains(t, joined, "Gallery")
	assert.Equal(t, "playing", resp.Status)
	require.NotNil(t, resp.Report)
	assert.Equal(t, 2, resp.Report.TotalCommands)
	assert.True(t, resp.Report.OverallSuccess)
	require.NotNil(t, resp.Telemetry)
	assert.Greater(t, resp.Telemetry.TotalEvents, 0)
}

func TestSessionHandler_CommandPersistsState(t *testing.T) {
	handler, _ := newSessionHandler(t)
	created := createSession(t, handler)

	run := func(input string) CommandResponse {
		body, _ := json.Marshal(CommandRequest{Input: input})
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+created.ID.String()+"/command", strings.NewReader(string(body)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

		var resp CommandResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		return resp
	}

	run("take lamp")
	// The lamp must still be carried on the next request.
	resp := run("inventory")
	assert.Contains(t, strings.Join(resp.Messages, "\n"), "brass lamp")
}

func TestSessionHandler_CommandBestEffort(t *testing.T) {
	handler, _ := newSessionHandler(t)
	created := createSession(t, handler)

	body := `{"input":"take sword and take lamp","policy":"best-effort"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+created.ID.String()+"/command", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp CommandResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

	// The second command still runs after the first fails.
	assert.Contains(t, strings.Join(resp.Messages, "\n"), "You take the brass lamp.")
	require.NotNil(t, resp.Report)
	assert.Equal(t, 2, resp.Report.ExecutedCommands)
	assert.Equal(t, 1, resp.Report.FailedCommands)
}

func TestSessionHandler_CommandEmptyInput(t *testing.T) {
	handler, _ := newSessionHandler(t)
	created := createSession(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+created.ID.String()+"/command", strings.NewReader(`{"input":"  "}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionHandler_CommandSessionNotFound(t *testing.T) {
	handler, _ := newSessionHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+uuid.NewString()+"/command", strings.NewReader(`{"input":"look"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionHandler_MethodNotAllowed(t *testing.T) {
	handler, _ := newSessionHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/v1/sessions", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestWorldsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	mock := storage.NewMockStorage()
	mock.AddWorld("caves.json", []byte(sessionTestWorld))
	handler := NewWorldsHandler(mock, logger)

	req := httptest.NewRequest(http.MethodGet, "/v1/worlds", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp WorldsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp.Worlds, 1)

	req = httptest.NewRequest(http.MethodPost, "/v1/worlds", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
