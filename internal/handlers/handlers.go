package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"go-digistore/internal/checkout"
	"go-digistore/internal/config"
	"go-digistore/internal/database"
	"go-digistore/internal/middleware"
	"go-digistore/internal/models"
	"go-digistore/internal/orders"
	"go-digistore/internal/payment"
	"go-digistore/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/unrolled/render"
	"golang.org/x/crypto/bcrypt"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	DB        *database.DB
	WSHub     *websocket.Hub
	Processor *payment.Processor
	Checkout  *checkout.Service
	Orders    *orders.Service
	Config    *config.Config

	validate *validator.Validate
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB, wsHub *websocket.Hub, processor *payment.Processor, co *checkout.Service, svc *orders.Service, cfg *config.Config) *Handler {
	return &Handler{
		DB:        db,
		WSHub:     wsHub,
		Processor: processor,
		Checkout:  co,
		Orders:    svc,
		Config:    cfg,
		validate:  validator.New(),
	}
}

var rnd = render.New(render.Options{})

// ============== Auth Handlers ==============

// Login handles admin authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.DB.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Printf("[AUTH] Failed to load user %q: %v", req.Username, err)
		}
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := h.DB.TouchLastLogin(r.Context(), user.ID); err != nil {
		log.Printf("[AUTH] Failed to update last login for %s: %v", user.Username, err)
	}

	token, err := generateJWT(user, h.Config.JWTSecret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user": map[string]string{
			"username": user.Username,
			"role":     user.Role,
		},
	})
}

// Health reports liveness and the number of live status subscribers
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "degraded", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"wsClients": h.WSHub.ClientCount(),
	})
}

// ============== Helper Functions ==============

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	if err := rnd.JSON(w, status, data); err != nil {
		log.Printf("[HTTP] Failed to write response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors to HTTP statuses
func respondServiceError(w http.ResponseWriter, err error) {
	var (
		verr *checkout.ValidationError
		cerr *payment.ConfigError
		perr *payment.ProviderError
	)
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, payment.ErrMethodRequired):
		respondError(w, http.StatusBadRequest, "Please choose a payment method")
	case errors.Is(err, payment.ErrConfigNotSet),
		errors.Is(err, checkout.ErrNoPaymentOption),
		errors.As(err, &cerr):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &perr):
		respondError(w, http.StatusBadGateway, perr.Error())
	case errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, "Not found")
	default:
		log.Printf("[HTTP] Unhandled error: %v", err)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// generateJWT issues a 24 hour admin token
func generateJWT(user *models.User, secret string) (string, error) {
	now := time.Now()
	claims := &middleware.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
