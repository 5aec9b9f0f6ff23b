package auth

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

// TokenTTL bounds an admin token's lifetime.
const TokenTTL = 12 * time.Hour

type contextKey string

const roleKey contextKey = "role"

// Config carries the signing key and the bcrypt hash of the admin password.
// Both come from the environment; an empty hash disables the login entirely.
type Config struct {
	Secret       []byte
	PasswordHash string
}

type Handler struct {
	cfg Config
}

func NewHandler(cfg Config) *Handler {
	return &Handler{cfg: cfg}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login verifies the admin password and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.cfg.PasswordHash == "" {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "admin login disabled", Kind: models.KindUnauthorized})
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid request body", Kind: models.KindBadRequest})
		return
	}
	if req.Password == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "password is required", Kind: models.KindBadRequest})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "invalid password", Kind: models.KindUnauthorized})
		return
	}

	expires := time.Now().Add(TokenTTL)
	claims := jwt.MapClaims{
		"role": "admin",
		"exp":  expires.Unix(),
		"iat":  time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.cfg.Secret)
	if err != nil {
		log.Printf("[auth] sign token: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "failed to generate token", Kind: models.KindInternal})
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

// Middleware gates a subtree behind a valid admin bearer token.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if !strings.HasPrefix(raw, "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "missing bearer token", Kind: models.KindUnauthorized})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(raw, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return h.cfg.Secret, nil
		})
		if err != nil || !token.Valid {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "invalid or expired token", Kind: models.KindUnauthorized})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["role"] != "admin" {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "insufficient privileges", Kind: models.KindUnauthorized})
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey, "admin")))
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[auth] encode response: %v", err)
	}
}
