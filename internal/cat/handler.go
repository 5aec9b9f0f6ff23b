package cat

import (
	"encoding/json"
	"errors"
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

// RegisterRoutes mounts the test surface on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/test/start", h.StartTest).Methods("POST")
	r.HandleFunc("/test/{id}/respond", h.Respond).Methods("POST")
	r.HandleFunc("/test/{id}/progress", h.Progress).Methods("GET")
	r.HandleFunc("/test/{id}/results", h.Results).Methods("GET")
	r.HandleFunc("/user/{id}/history", h.History).Methods("GET")
}

func (h *Handler) StartTest(w http.ResponseWriter, r *http.Request) {
	var req models.StartTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Kind: models.KindBadRequest})
		return
	}

	if _, ok := models.GradeTheta[req.Grade]; !ok && req.Grade != "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid grade", Kind: models.KindBadRequest})
		return
	}
	if !models.ValidQuestionTypes[req.QuestionType] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid question_type", Kind: models.KindBadRequest})
		return
	}

	resp, err := h.service.StartTest(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req models.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Kind: models.KindBadRequest})
		return
	}
	if req.ItemID < 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "item_id is required", Kind: models.KindBadRequest})
		return
	}

	resp, err := h.service.Respond(r.Context(), sessionID, req)
	if err != nil {
		var dup *duplicateError
		if errors.As(err, &dup) {
			writeJSON(w, http.StatusConflict, struct {
				models.ErrorResponse
				Committed models.ResponseRecord `json:"committed"`
			}{
				ErrorResponse: models.ErrorResponse{Error: dup.err.Message, Kind: models.KindConflict},
				Committed:     dup.committed,
			})
			return
		}
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

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]
	report, err := h.service.Results(sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	history, err := h.service.History(userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// writeError maps a service error to its wire shape. 5xx details are logged,
// not leaked.
func writeError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	status := models.HTTPStatus(kind)
	if status >= 500 {
		log.Printf("[cat] %v", err)
	}
	writeJSON(w, status, models.ErrorResponse{Error: models.MessageOf(err), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[cat] encode response: %v", err)
	}
}
