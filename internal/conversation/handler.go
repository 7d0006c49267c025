package conversation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kwchan/clinic-booking-ai/pkg/logging"
)

// Handler exposes the booking conversation over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a conversation HTTP handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger.Component("http")}
}

type messageRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Start handles POST /conversations.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	reply, err := h.service.Start(r.Context())
	if err != nil {
		h.logger.Error("failed to start conversation", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to start conversation"})
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

// Message handles POST /conversations/{conversationID}/messages.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	reply, err := h.service.ProcessMessage(r.Context(), conversationID, req.Message)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "conversation not found"})
			return
		}
		h.logger.Error("failed to process message", "conversation_id", conversationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to process message"})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// GetSummary handles GET /conversations/{conversationID}/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	summary, err := h.service.Summary(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "conversation not found"})
			return
		}
		h.logger.Error("failed to load summary", "conversation_id", conversationID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load summary"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetExtractionStats handles GET /conversations/stats/extractions.
func (h *Handler) GetExtractionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ExtractionStats())
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
