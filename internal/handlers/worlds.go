package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cwhitt/adventure-engine/internal/storage"
)

// WorldsHandler lists the world catalogues available for new sessions.
type WorldsHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewWorldsHandler(st storage.Storage, logger *slog.Logger) *WorldsHandler {
	return &WorldsHandler{storage: st, logger: logger}
}

// WorldsResponse maps world display names to filenames.
type WorldsResponse struct {
	Worlds map[string]string `json:"worlds"`
}

func (h *WorldsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed. Supported methods: GET"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	worlds, err := h.storage.ListWorlds(r.Context())
	if err != nil {
		h.logger.Error("Failed to list worlds", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Failed to list worlds"}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(WorldsResponse{Worlds: worlds}); err != nil {
		h.logger.Error("Failed to encode worlds response", "error", err)
	}
}
