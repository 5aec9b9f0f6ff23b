package learning

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the goal-learning surface on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/learn/goal/start", h.StartGoal).Methods("POST")
	r.HandleFunc("/learn/goal/{id}/submit", h.Submit).Methods("POST")
	r.HandleFunc("/learn/goal/{id}/progress", h.Progress).Methods("GET")
}

func (h *Handler) StartGoal(w http.ResponseWriter, r *http.Request) {
	var req models.StartGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Kind: models.KindBadRequest})
		return
	}

	resp, err := h.service.StartGoal(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req models.SubmitCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Kind: models.KindBadRequest})
		return
	}
	if req.Word == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "word is required", Kind: models.KindBadRequest})
		return
	}

	resp, err := h.service.Submit(r.Context(), sessionID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	progress, err := h.service.Progress(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

// writeError maps a service error to its wire shape. 5xx details are logged,
// not leaked.
func writeError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	status := models.HTTPStatus(kind)
	if status >= 500 {
		log.Printf("[learn] %v", err)
	}
	writeJSON(w, status, models.ErrorResponse{Error: models.MessageOf(err), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[learn] encode response: %v", err)
	}
}
