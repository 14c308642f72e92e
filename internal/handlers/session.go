package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cwhitt/adventure-engine/internal/services"
	"github.com/cwhitt/adventure-engine/internal/storage"
	"github.com/cwhitt/adventure-engine/pkg/dispatcher"
	"github.com/cwhitt/adventure-engine/pkg/engine"
	"github.com/cwhitt/adventure-engine/pkg/telemetry"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateSessionRequest defines the request body for creating a session.
type CreateSessionRequest struct {
	World string `json:"world,omitempty"` // World filename; empty selects the configured default
}

// SessionResponse is the API shape of a session plus its current state.
type SessionResponse struct {
	ID        uuid.UUID   `json:"id"`
	World     string      `json:"world"`
	Status    string      `json:"status"`
	Player    PlayerState `json:"player"`
	Messages  []string    `json:"messages,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// PlayerState is the player-visible slice of the world state.
type PlayerState struct {
	Room      string   `json:"room"`
	Score     int      `json:"score"`
	Moves     int      `json:"moves"`
	Inventory []string `json:"inventory,omitempty"`
}

// CommandRequest defines the request body for executing a command line.
type CommandRequest struct {
	Input  string `json:"input"`            // Required: raw command line
	Policy string `json:"policy,omitempty"` // "fail-early" (default) or "best-effort"
}

// CommandResponse carries the outcome of one executed line.
type CommandResponse struct {
	Messages  []string           `json:"messages"`
	Status    string             `json:"status"`
	Player    PlayerState        `json:"player"`
	Report    *dispatcher.Report `json:"report,omitempty"`
	Telemetry *telemetry.Summary `json:"telemetry,omitempty"`
}

func playerState(e *engine.Engine) PlayerState {
	p := e.World().Player
	return PlayerState{
		Room:      p.Room,
		Score:     p.Score,
		Moves:     p.Moves,
		Inventory: append([]string(nil), p.Inventory...),
	}
}

type SessionHandler struct {
	storage storage.Storage
	game    *services.GameService
	logger  *slog.Logger
}

func NewSessionHandler(st storage.Storage, game *services.GameService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		storage: st,
		game:    game,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for session operations
// Routes:
// POST /v1/sessions                - Create new session
// GET /v1/sessions/{id}            - Read session by ID
// DELETE /v1/sessions/{id}         - Delete session by ID
// POST /v1/sessions/{id}/command   - Execute a command line
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	parts := []string{}
	if path != "" {
		parts = strings.Split(path, "/")
	}

	switch {
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.handleCreate(w, r)

	case len(parts) == 1:
		id, ok := h.parseID(w, parts[0])
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			h.methodNotAllowed(w, r)
		}

	case len(parts) == 2 && parts[1] == "command" && r.Method == http.MethodPost:
		id, ok := h.parseID(w, parts[0])
		if !ok {
			return
		}
		h.handleCommand(w, r, id)

	default:
		h.methodNotAllowed(w, r)
	}
}

func (h *SessionHandler) parseID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", raw, "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("Method not allowed for session endpoint", "method", r.Method, "path", r.URL.Path)
	h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func (h *SessionHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new session")

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.World == "" {
		req.World = h.game.DefaultWorld()
	}
	if req.World == "" {
		h.writeError(w, http.StatusBadRequest, "world field is required and no default world is configured")
		return
	}
	if !strings.HasSuffix(req.World, ".json") {
		req.World += ".json"
	}

	id := uuid.New()
	e, err := h.game.NewEngine(r.Context(), req.World, id.String())
	if err != nil {
		h.logger.Warn("Failed to build engine", "world", req.World, "error", err)
		h.writeError(w, http.StatusBadRequest, "Failed to load world: "+err.Error())
		return
	}

	// The opening look describes the starting room.
	report := e.ExecuteLine(r.Context(), "look", dispatcher.PolicyFailEarly)

	snap, err := json.Marshal(e.Snapshot())
	if err != nil {
		h.logger.Error("Failed to marshal snapshot", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	session := &storage.Session{
		ID:        id,
		WorldFile: req.World,
		CreatedAt: time.Now(),
		Snapshot:  snap,
	}
	if err := h.storage.SaveSession(r.Context(), id, session); err != nil {
		h.logger.Error("Failed to save new session", "error", err, "id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	h.logger.Debug("Session created successfully", "id", id.String(), "world", req.World)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(SessionResponse{
		ID:        id,
		World:     req.World,
		Status:    string(e.Status()),
		Player:    playerState(e),
		Messages:  collectMessages(report),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	session, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if session == nil {
		h.writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	e, err := h.game.RestoreEngine(r.Context(), session)
	if err != nil {
		h.logger.Error("Failed to restore session", "error", err, "id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to restore session")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(SessionResponse{
		ID:        session.ID,
		World:     session.WorldFile,
		Status:    string(e.Status()),
		Player:    playerState(e),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	h.logger.Debug("Session deleted successfully", "id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleCommand(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		h.writeError(w, http.StatusBadRequest, "input field is required")
		return
	}

	session, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}
	if session == nil {
		h.writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	e, err := h.game.RestoreEngine(r.Context(), session)
	if err != nil {
		h.logger.Error("Failed to restore session", "error", err, "id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to restore session")
		return
	}

	policy := dispatcher.PolicyFailEarly
	if req.Policy == string(dispatcher.PolicyBestEffort) {
		policy = dispatcher.PolicyBestEffort
	}

	report := e.ExecuteLine(r.Context(), req.Input, policy)
	messages := collectMessages(report)
	// Actors act once per submitted line, after the commands.
	messages = append(messages, e.Tick()...)

	snap, err := json.Marshal(e.Snapshot())
	if err != nil {
		h.logger.Error("Failed to marshal snapshot", "error", err, "id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	session.Snapshot = snap
	if err := h.storage.SaveSession(r.Context(), id, session); err != nil {
		h.logger.Error("Failed to save session", "error", err, "id", id.String())
		h.writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	summary := e.Recorder().Summarize()

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(CommandResponse{
		Messages:  messages,
		Status:    string(e.Status()),
		Player:    playerState(e),
		Report:    report,
		Telemetry: &summary,
	}); err != nil {
		h.logger.Error("Failed to encode command response", "error", err)
	}
}

func collectMessages(report *dispatcher.Report) []string {
	var out []string
	for _, res := range report.Results {
		out = append(out, res.Output.Messages...)
	}
	return out
}
