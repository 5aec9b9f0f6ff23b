package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/smilepat/vocab-cat-engine/internal/admin"
	"github.com/smilepat/vocab-cat-engine/internal/auth"
	"github.com/smilepat/vocab-cat-engine/internal/bank"
	"github.com/smilepat/vocab-cat-engine/internal/cat"
	"github.com/smilepat/vocab-cat-engine/internal/database"
	"github.com/smilepat/vocab-cat-engine/internal/enrich"
	"github.com/smilepat/vocab-cat-engine/internal/learning"
	"github.com/smilepat/vocab-cat-engine/internal/metrics"
	"github.com/smilepat/vocab-cat-engine/internal/report"
)

func main() {
	vocabPath := getEnv("VOCAB_PATH", "data/vocabulary.csv")
	itemBank, err := bank.Load(vocabPath)
	if err != nil {
		log.Fatalf("[server] load item bank: %v", err)
	}

	// Persistence is optional: without DATABASE_URL or DB_HOST the engine
	// runs in-memory and archives nothing.
	var catStore *cat.Store
	var learnStore *learning.Store
	if os.Getenv("DATABASE_URL") != "" || os.Getenv("DB_HOST") != "" {
		db, err := database.Connect()
		if err != nil {
			log.Fatalf("[server] connect database: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			log.Fatalf("[server] migrate database: %v", err)
		}
		catStore = cat.NewStore(db)
		learnStore = learning.NewStore(db)
		log.Printf("[server] persistence enabled")
	} else {
		catStore = cat.NewStore(nil)
		learnStore = learning.NewStore(nil)
		log.Printf("[server] DATABASE_URL not set, running without persistence")
	}

	sessionTTL := getEnvDuration("SESSION_TTL", cat.DefaultSessionTTL)
	maxRate := getEnvFloat("MAX_EXPOSURE_RATE", cat.DefaultMaxExposureRate)
	calibThreshold := getEnvInt("CALIBRATION_THRESHOLD", bank.DefaultCalibrationThreshold)

	renderer := bank.NewRenderer(itemBank)
	exposure := cat.NewExposureController()
	selector := cat.NewSelector(itemBank, renderer, exposure, maxRate)
	manager := cat.NewManager(sessionTTL)
	reporter := report.NewGenerator(itemBank)
	catSvc := cat.NewService(itemBank, renderer, selector, exposure, manager, catStore, reporter)

	learnRegistry := learning.NewRegistry(sessionTTL)
	learnSvc := learning.NewService(itemBank, renderer, learnRegistry, learnStore)

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		enricher := enrich.NewService(key, getEnv("ENRICH_MODEL", enrich.DefaultModel))
		catSvc.SetEnricher(enricher)
		learnSvc.SetEnricher(enricher)
		log.Printf("[server] explanation enrichment enabled")
	}

	stop := make(chan struct{})
	defer close(stop)
	manager.StartSweeper(0, stop, catSvc.ArchiveExpired)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				learnSvc.ArchiveExpired(learnRegistry.SweepExpired())
			case <-stop:
				return
			}
		}
	}()

	m := metrics.New(metrics.Sources{
		ActiveTestSessions:     manager.ActiveCount,
		ActiveLearningSessions: learnRegistry.ActiveCount,
		SessionsStarted:        exposure.SessionsStarted,
		BankItems:              itemBank.Count,
	})

	authHandler := auth.NewHandler(auth.Config{
		Secret:       []byte(getEnv("JWT_SECRET", "dev-secret-change-me")),
		PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
	})
	adminHandler := admin.NewHandler(itemBank, catSvc, catStore, learnSvc, admin.Config{
		MaxExposureRate:      maxRate,
		CalibrationThreshold: calibThreshold,
	})

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	cat.NewHandler(catSvc).RegisterRoutes(api)
	report.NewHandler(reporter, catSvc).RegisterRoutes(api)
	learning.NewHandler(learnSvc).RegisterRoutes(api)
	api.HandleFunc("/admin/login", authHandler.Login).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(authHandler.Middleware)
	adminHandler.RegisterRoutes(protected)

	r.Handle("/metrics", m.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if itemBank.Count() == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"empty bank"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   splitOrigins(getEnv("CORS_ORIGINS", "*")),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	handler := c.Handler(m.Middleware(r))

	port := getEnv("PORT", "8080")
	log.Printf("[server] listening on :%s, bank has %d items", port, itemBank.Count())
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("[server] listen: %v", err)
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[server] invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("[server] invalid %s=%q, using %g", key, raw, fallback)
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("[server] invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return v
}
