package admin

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/cat"
	"github.com/smilepat/vocab-cat-engine/internal/learning"
	"github.com/smilepat/vocab-cat-engine/internal/models"
)

func fixtureBank(t *testing.T, n int) *bank.Bank {
	t.Helper()
	bands := []string{"A1", "A2", "B1", "B2", "C1"}
	var records []bank.VocabRecord
	for i := 0; i < n; i++ {
		w := fmt.Sprintf("word%03d", i)
		records = append(records, bank.VocabRecord{
			Word:       w,
			MeaningKo:  fmt.Sprintf("뜻%03d", i),
			POS:        "noun",
			Topic:      fmt.Sprintf("topic%02d", i%10),
			CEFR:       bands[i%len(bands)],
			Curriculum: "중등",
			FreqRank:   i + 1,
			Synonyms:   []string{fmt.Sprintf("syn%03d", i)},
			Sentences:  []string{fmt.Sprintf("I noticed the %s yesterday.", w)},
		})
	}
	b, err := bank.New(bank.InitializeItems(records))
	if err != nil {
		t.Fatalf("bank.New: %v", err)
	}
	return b
}

type stubReporter struct{}

func (stubReporter) Diagnostic(s *cat.Session) *models.Report {
	return &models.Report{SessionID: s.ID}
}

func fixtureHandler(t *testing.T) (*Handler, *cat.Service) {
	t.Helper()
	b := fixtureBank(t, 150)
	renderer := bank.NewRenderer(b)
	exposure := cat.NewExposureController()
	selector := cat.NewSelector(b, renderer, exposure, cat.DefaultMaxExposureRate)
	manager := cat.NewManager(cat.DefaultSessionTTL)
	store := cat.NewStore(nil)
	catSvc := cat.NewService(b, renderer, selector, exposure, manager, store, stubReporter{})

	learnSvc := learning.NewService(b, renderer, learning.NewRegistry(learning.DefaultSessionTTL), learning.NewStore(nil))

	return NewHandler(b, catSvc, store, learnSvc, Config{}), catSvc
}

func fixtureRouter(t *testing.T) (*mux.Router, *cat.Service) {
	t.Helper()
	h, catSvc := fixtureHandler(t)
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r, catSvc
}

func get(t *testing.T, r *mux.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGini(t *testing.T) {
	tests := []struct {
		name   string
		counts []int64
		want   float64
	}{
		{"empty", nil, 0},
		{"all zero", []int64{0, 0, 0}, 0},
		{"perfectly even", []int64{5, 5, 5, 5}, 0},
		{"all on one", []int64{0, 0, 0, 12}, 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gini(tt.counts); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("gini = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGiniOrderIndependent(t *testing.T) {
	a := gini([]int64{1, 9, 3, 7})
	b := gini([]int64{9, 1, 7, 3})
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("gini depends on input order: %v vs %v", a, b)
	}
}

func TestBandBreakdown(t *testing.T) {
	b := fixtureBank(t, 10)
	items := b.Items()
	counts := map[int]int64{items[0].ID: 4, items[1].ID: 1}

	bands := bandBreakdown(items, counts, 10, 0.25)
	if len(bands) != len(models.CEFROrder) {
		t.Fatalf("got %d bands, want %d", len(bands), len(models.CEFROrder))
	}
	a1 := bands[0]
	if a1.Band != models.CEFRA1 {
		t.Fatalf("first band = %s, want A1", a1.Band)
	}
	// Item 0 at rate 0.4 exceeds the 0.25 cap.
	if a1.Overused != 1 {
		t.Fatalf("A1 overused = %d, want 1", a1.Overused)
	}
	if a1.Unused != a1.Items-1 {
		t.Fatalf("A1 unused = %d of %d", a1.Unused, a1.Items)
	}
}

func TestExpansionTargets(t *testing.T) {
	bands := []BandExposure{
		{Band: models.CEFRA1, Items: 10},
		{Band: models.CEFRA2, Items: 100, Overused: 3},
		{Band: models.CEFRB1, Items: 100},
	}
	targets := expansionTargets(bands)
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(targets))
	}
	if targets[0].Band != models.CEFRA1 || targets[0].RecommendedAdd != minBandPool-10 {
		t.Fatalf("thin pool target = %+v", targets[0])
	}
	if targets[1].Band != models.CEFRA2 || targets[1].RecommendedAdd != 6 {
		t.Fatalf("overuse target = %+v", targets[1])
	}
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := fixtureRouter(t)

	rr := get(t, r, http.MethodGet, "/admin/stats")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp statsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.BankItems != 150 {
		t.Fatalf("bank items = %d, want 150", resp.BankItems)
	}
	if resp.PersistenceAvailable {
		t.Fatalf("nil-db store reported available")
	}
	if resp.ArchivedSessions != nil {
		t.Fatalf("archived count present without persistence")
	}
}

func TestExposureEndpoint(t *testing.T) {
	r, catSvc := fixtureRouter(t)

	exp := catSvc.Exposure()
	exp.RecordSessionStart()
	exp.RecordSessionStart()
	exp.RecordAdministered(0)
	exp.RecordAdministered(0)
	exp.RecordAdministered(1)

	rr := get(t, r, http.MethodGet, "/admin/exposure")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp exposureResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SessionsStarted != 2 {
		t.Fatalf("sessions = %d, want 2", resp.SessionsStarted)
	}
	// Item 0 at rate 1.0 is over the cap; everything else is nearly unused.
	if len(resp.Overused) == 0 {
		t.Fatalf("no overused items reported")
	}
	if resp.Gini <= 0.9 {
		t.Fatalf("gini = %v, want near 1 with usage on two items", resp.Gini)
	}
	if len(resp.Bands) != len(models.CEFROrder) {
		t.Fatalf("got %d bands", len(resp.Bands))
	}
}

func TestExpansionEndpoint(t *testing.T) {
	r, catSvc := fixtureRouter(t)

	exp := catSvc.Exposure()
	exp.RecordSessionStart()
	exp.RecordAdministered(0)

	rr := get(t, r, http.MethodGet, "/admin/exposure/expansion")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp expansionResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Item 0 alone at rate 1.0 puts its band over the cap.
	if len(resp.Targets) == 0 {
		t.Fatalf("no expansion targets with an over-cap item")
	}
}

func TestRecalibrateNeedsPersistence(t *testing.T) {
	r, _ := fixtureRouter(t)

	rr := get(t, r, http.MethodPost, "/admin/recalibrate")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	var er models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&er); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if er.Kind != models.KindPersistenceUnavailable {
		t.Fatalf("kind = %s", er.Kind)
	}
}

func TestCleanupEndpoint(t *testing.T) {
	r, _ := fixtureRouter(t)

	rr := get(t, r, http.MethodPost, "/admin/cleanup")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	var resp cleanupResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TestSessionsEvicted != 0 || resp.LearningSessionsEvicted != 0 {
		t.Fatalf("evicted sessions on a fresh registry: %+v", resp)
	}
}
