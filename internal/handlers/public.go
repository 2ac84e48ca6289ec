package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go-digistore/internal/checkout"
	"go-digistore/internal/database"
	"go-digistore/internal/models"
	"go-digistore/internal/payment/lifecycle"
	"go-digistore/internal/websocket"
)

// ============== Storefront Handlers ==============

// CreateCheckout opens a payment for the posted cart
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	order, err := h.Checkout.Checkout(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"order":       order,
		"instruction": lifecycle.NewInstructionView(order),
	})
}

// GetPaymentInstruction returns the polling view of one order
func (h *Handler) GetPaymentInstruction(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "Missing orderId")
		return
	}

	order, err := h.DB.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, lifecycle.NewInstructionView(order))
}

// GetPaymentMode tells the storefront which checkout form to show
func (h *Handler) GetPaymentMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.Processor.GetPaymentMode(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"mode": mode})
}

// GetPaymentMethods lists the active manual transfer accounts
func (h *Handler) GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.DB.GetActiveManualMethods(r.Context())
	if err != nil {
		log.Printf("[PAYMENT] Failed to load manual payment methods: %v", err)
		methods = []models.ManualPaymentMethod{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    methods,
	})
}

// HandleWebSocket subscribes the caller to status changes of one order
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "Missing orderId")
		return
	}

	order, err := h.DB.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Order not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	status := lifecycle.EffectiveStatus(order.PaymentStatus, order.PaymentDeadline, time.Now())
	h.WSHub.Serve(w, r, order.ID, &websocket.StatusMessage{OrderID: order.ID, PaymentStatus: status})
}
