package report

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// ResultSource resolves a terminal session's diagnostic report, whether
// the session is still registered or already archived.
type ResultSource interface {
	Results(sessionID string) (*models.Report, error)
}

type Handler struct {
	generator *Generator
	results   ResultSource
}

func NewHandler(generator *Generator, results ResultSource) *Handler {
	return &Handler{generator: generator, results: results}
}

// RegisterRoutes mounts the post-test learning surface on the router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/learn/{id}/plan", h.StudyPlan).Methods("GET")
	r.HandleFunc("/learn/{id}/matrix", h.KnowledgeMatrix).Methods("GET")
}

func (h *Handler) StudyPlan(w http.ResponseWriter, r *http.Request) {
	rep, err := h.results.Results(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if rep.InsufficientData {
		writeJSON(w, http.StatusConflict, models.ErrorResponse{
			Error: "not enough responses for a study plan", Kind: models.KindConflict,
		})
		return
	}
	writeJSON(w, http.StatusOK, h.generator.StudyPlan(rep))
}

func (h *Handler) KnowledgeMatrix(w http.ResponseWriter, r *http.Request) {
	rep, err := h.results.Results(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.generator.KnowledgeMatrix(rep))
}

func writeError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	status := models.HTTPStatus(kind)
	if status >= 500 {
		log.Printf("[report] %v", err)
	}
	writeJSON(w, status, models.ErrorResponse{Error: models.MessageOf(err), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[report] encode response: %v", err)
	}
}
