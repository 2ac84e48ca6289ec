package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-digistore/internal/database"
	"go-digistore/internal/middleware"
	"go-digistore/internal/models"
	"go-digistore/internal/payment/lifecycle"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// ============== Gateway Config Handlers ==============

// GetGatewayConfigs lists every gateway with secrets masked
func (h *Handler) GetGatewayConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.DB.ListGatewayConfigs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get gateway configs")
		return
	}

	masked := make([]models.GatewayConfig, 0, len(configs))
	for _, c := range configs {
		masked = append(masked, c.Masked())
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    masked,
	})
}

type gatewayConfigRequest struct {
	DisplayName string `json:"displayName" validate:"max=100"`
	APIKey      string `json:"apiKey" validate:"max=255"`
	SecretKey   string `json:"secretKey" validate:"max=255"`
	MerchantID  string `json:"merchantId" validate:"max=100"`
	Environment string `json:"environment" validate:"omitempty,oneof=sandbox production"`
}

// UpdateGatewayConfig saves credentials for one gateway.
// Blank or masked keys keep the stored value, since the admin UI only ever sees masked secrets.
func (h *Handler) UpdateGatewayConfig(w http.ResponseWriter, r *http.Request) {
	name := models.GatewayName(mux.Vars(r)["name"])
	if _, ok := h.Processor.Gateway(name); !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported gateway %q", name))
		return
	}

	var req gatewayConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	cfg, err := h.DB.GetGatewayConfig(r.Context(), name)
	switch {
	case errors.Is(err, database.ErrNotFound):
		cfg = &models.GatewayConfig{GatewayName: name}
	case err != nil:
		respondServiceError(w, err)
		return
	}

	if req.DisplayName != "" {
		cfg.DisplayName = req.DisplayName
	}
	if req.APIKey != "" && !models.IsMaskedSecret(req.APIKey) {
		cfg.APIKey = req.APIKey
	}
	if req.SecretKey != "" && !models.IsMaskedSecret(req.SecretKey) {
		cfg.SecretKey = req.SecretKey
	}
	if req.MerchantID != "" {
		cfg.MerchantID = req.MerchantID
	}
	if req.Environment != "" {
		cfg.Environment = models.Environment(req.Environment)
	}

	if err := h.DB.UpsertGatewayConfig(r.Context(), cfg); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to save gateway config")
		return
	}

	saved, err := h.DB.GetGatewayConfig(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	log.Printf("[ADMIN] %s updated %s gateway config (%s)", adminName(r), name, saved.Environment)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    saved.Masked(),
	})
}

// ActivateGateway makes one gateway the only active one
func (h *Handler) ActivateGateway(w http.ResponseWriter, r *http.Request) {
	name := models.GatewayName(mux.Vars(r)["name"])
	if err := h.DB.SetActiveGateway(r.Context(), name); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Gateway not configured")
			return
		}
		respondServiceError(w, err)
		return
	}

	log.Printf("[ADMIN] %s activated gateway %s", adminName(r), name)
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "active": name})
}

// GetAdminPaymentMode returns the stored global payment mode
func (h *Handler) GetAdminPaymentMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.DB.GetPaymentMode(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"mode": mode})
}

// SetPaymentMode switches the store between gateway and manual payments
func (h *Handler) SetPaymentMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode" validate:"required,oneof=gateway manual"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.DB.SetPaymentMode(r.Context(), models.PaymentMode(req.Mode)); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[ADMIN] %s switched payment mode to %s", adminName(r), req.Mode)
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "mode": req.Mode})
}

// ============== Manual Method Handlers ==============

// GetManualMethods lists every manual method, active or not
func (h *Handler) GetManualMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.DB.ListManualMethods(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get payment methods")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": methods})
}

// CreateManualMethod adds a bank or e-wallet account
func (h *Handler) CreateManualMethod(w http.ResponseWriter, r *http.Request) {
	var m models.ManualPaymentMethod
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(m); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if err := h.DB.CreateManualMethod(r.Context(), &m); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create payment method")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "data": m})
}

// UpdateManualMethod replaces a manual method
func (h *Handler) UpdateManualMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var m models.ManualPaymentMethod
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(m); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	m.ID = id

	if err := h.DB.UpdateManualMethod(r.Context(), &m); err != nil {
		respondServiceError(w, err)
		return
	}

	saved, err := h.DB.GetManualMethod(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": saved})
}

// DeleteManualMethod removes a manual method
func (h *Handler) DeleteManualMethod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.DB.DeleteManualMethod(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ============== Order Handlers ==============

// GetOrders lists orders, optionally filtered by payment status
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request) {
	status := models.PaymentStatus(strings.ToUpper(r.URL.Query().Get("status")))
	list, err := h.DB.ListOrders(r.Context(), status, queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to get orders")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": list})
}

// GetOrder returns one order with its gateway exchange log
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	order, err := h.DB.GetOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	events, err := h.DB.ListGatewayEvents(r.Context(), id)
	if err != nil {
		log.Printf("[ADMIN] Failed to load gateway events for %s: %v", id, err)
		events = []models.GatewayEvent{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"data":            order,
		"events":          events,
		"effectiveStatus": lifecycle.EffectiveStatus(order.PaymentStatus, order.PaymentDeadline, time.Now()),
	})
}

// ConfirmOrder marks a pending order as paid after the admin checked the transfer
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.settleOrder(w, r, models.StatusPaid)
}

// RejectOrder marks a pending order as failed
func (h *Handler) RejectOrder(w http.ResponseWriter, r *http.Request) {
	h.settleOrder(w, r, models.StatusFailed)
}

func (h *Handler) settleOrder(w http.ResponseWriter, r *http.Request, to models.PaymentStatus) {
	id := mux.Vars(r)["id"]
	moved, err := h.Orders.Transition(r.Context(), id, to, "admin:"+adminName(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if !moved {
		respondError(w, http.StatusConflict, "Order is not awaiting payment")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "orderId": id, "paymentStatus": to})
}

// ExpireOrders runs the expiry reconciliation immediately
func (h *Handler) ExpireOrders(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Orders.ExpireOverdue(r.Context(), time.Now())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "expired": ids})
}

// ============== Helpers ==============

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func adminName(r *http.Request) string {
	if claims := middleware.GetUserFromContext(r.Context()); claims != nil {
		return claims.Username
	}
	return "unknown"
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return "Invalid request: " + strings.Join(parts, ", ")
}
