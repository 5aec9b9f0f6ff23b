package admin

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/cat"
	"github.com/smilepat/vocab-cat-engine/internal/learning"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// Config tunes the ops surface.
type Config struct {
	MaxExposureRate      float64
	CalibrationThreshold int
}

// Handler serves the JWT-gated ops endpoints: aggregate stats, exposure
// analysis, pool expansion advice, calibration, and session cleanup.
type Handler struct {
	bank  *bank.Bank
	cat   *cat.Service
	store *cat.Store
	learn *learning.Service
	cfg   Config
}

func NewHandler(b *bank.Bank, catSvc *cat.Service, store *cat.Store, learn *learning.Service, cfg Config) *Handler {
	if cfg.MaxExposureRate <= 0 {
		cfg.MaxExposureRate = cat.DefaultMaxExposureRate
	}
	if cfg.CalibrationThreshold <= 0 {
		cfg.CalibrationThreshold = bank.DefaultCalibrationThreshold
	}
	return &Handler{bank: b, cat: catSvc, store: store, learn: learn, cfg: cfg}
}

// RegisterRoutes mounts the ops surface. The caller wraps the subtree in
// the auth middleware.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/admin/stats", h.Stats).Methods("GET")
	r.HandleFunc("/admin/exposure", h.Exposure).Methods("GET")
	r.HandleFunc("/admin/exposure/expansion", h.Expansion).Methods("GET")
	r.HandleFunc("/admin/recalibrate", h.Recalibrate).Methods("POST")
	r.HandleFunc("/admin/cleanup", h.Cleanup).Methods("POST")
}

type statsResponse struct {
	BankItems              int  `json:"bank_items"`
	ActiveTestSessions     int  `json:"active_test_sessions"`
	ActiveLearningSessions int  `json:"active_learning_sessions"`
	SessionsStarted        int64 `json:"sessions_started"`
	ArchivedSessions       *int `json:"archived_sessions,omitempty"`
	PersistenceAvailable   bool `json:"persistence_available"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		BankItems:              h.bank.Count(),
		ActiveTestSessions:     h.cat.Manager().ActiveCount(),
		ActiveLearningSessions: h.learn.Registry().ActiveCount(),
		SessionsStarted:        h.cat.Exposure().SessionsStarted(),
		PersistenceAvailable:   h.store.Available(),
	}
	if h.store.Available() {
		if n, err := h.store.SessionCount(); err != nil {
			log.Printf("[admin] session count: %v", err)
		} else {
			resp.ArchivedSessions = &n
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type exposureResponse struct {
	cat.ExposureStats
	Gini  float64        `json:"gini"`
	Bands []BandExposure `json:"bands"`
}

func (h *Handler) Exposure(w http.ResponseWriter, r *http.Request) {
	items := h.bank.Items()
	ids := make([]int, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	exp := h.cat.Exposure()
	counts := exp.Counts()
	giniCounts := make([]int64, len(items))
	for i := range items {
		giniCounts[i] = counts[items[i].ID]
	}

	writeJSON(w, http.StatusOK, exposureResponse{
		ExposureStats: exp.Stats(ids, h.cfg.MaxExposureRate),
		Gini:          gini(giniCounts),
		Bands:         bandBreakdown(items, counts, exp.SessionsStarted(), h.cfg.MaxExposureRate),
	})
}

type expansionResponse struct {
	Targets []ExpansionTarget `json:"targets"`
}

func (h *Handler) Expansion(w http.ResponseWriter, r *http.Request) {
	items := h.bank.Items()
	exp := h.cat.Exposure()
	bands := bandBreakdown(items, exp.Counts(), exp.SessionsStarted(), h.cfg.MaxExposureRate)
	writeJSON(w, http.StatusOK, expansionResponse{Targets: expansionTargets(bands)})
}

// Recalibrate runs the guarded Bayesian parameter update over archived
// responses and publishes the accepted items atomically.
func (h *Handler) Recalibrate(w http.ResponseWriter, r *http.Request) {
	if !h.store.Available() {
		writeError(w, models.NewError(models.KindPersistenceUnavailable, "calibration needs archived responses"))
		return
	}

	observations, err := h.store.ResponseObservations()
	if err != nil {
		writeError(w, err)
		return
	}

	updated, summary := bank.Calibrate(h.bank.Items(), observations, h.cfg.CalibrationThreshold)
	if summary.ItemsUpdated > 0 {
		if err := h.bank.Publish(updated); err != nil {
			writeError(w, models.WrapError(models.KindInternal, "publish calibrated bank", err))
			return
		}
	}
	log.Printf("[admin] calibration: %d considered, %d updated, %d anomalies",
		summary.ItemsConsidered, summary.ItemsUpdated, summary.Anomalies)
	writeJSON(w, http.StatusOK, summary)
}

type cleanupResponse struct {
	TestSessionsEvicted     int `json:"test_sessions_evicted"`
	LearningSessionsEvicted int `json:"learning_sessions_evicted"`
}

// Cleanup evicts expired sessions immediately instead of waiting for the
// background sweeper, archiving whatever persistence accepts.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	expired := h.cat.Manager().SweepExpired()
	for _, s := range expired {
		h.cat.ArchiveExpired(s)
	}

	learnExpired := h.learn.Registry().SweepExpired()
	h.learn.ArchiveExpired(learnExpired)

	writeJSON(w, http.StatusOK, cleanupResponse{
		TestSessionsEvicted:     len(expired),
		LearningSessionsEvicted: len(learnExpired),
	})
}

func writeError(w http.ResponseWriter, err error) {
	kind := models.KindOf(err)
	status := models.HTTPStatus(kind)
	if status >= 500 {
		log.Printf("[admin] %v", err)
	}
	writeJSON(w, status, models.ErrorResponse{Error: models.MessageOf(err), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[admin] encode response: %v", err)
	}
}
