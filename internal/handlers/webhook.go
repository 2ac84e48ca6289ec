package handlers

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net/http"

	"go-digistore/internal/database"
	"go-digistore/internal/models"
	"go-digistore/internal/orders"
	"go-digistore/internal/payment"

	"github.com/gorilla/mux"
)

const maxWebhookBody = 1 << 20

// HandleGatewayWebhook processes a payment notification from a gateway.
// Replays are acknowledged with 200 so the gateway stops retrying.
func (h *Handler) HandleGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	name := models.GatewayName(mux.Vars(r)["gateway"])
	gateway, ok := h.Processor.Gateway(name)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown gateway")
		return
	}

	// Verify with the gateway's own credentials, whichever gateway is active now
	cfg, err := h.DB.GetGatewayConfig(r.Context(), name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"success": false, "message": "Gateway not configured"})
			return
		}
		respondServiceError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	event := &models.GatewayEvent{
		GatewayName: name,
		Kind:        models.EventCallback,
		Payload:     string(body),
	}

	data, err := gateway.HandleCallback(cfg, r)
	if err != nil {
		log.Printf("[WEBHOOK] %s callback rejected: %v", name, err)
		event.Error = err.Error()
		payment.Record(r.Context(), h.DB, event)

		status := http.StatusBadRequest
		if errors.Is(err, payment.ErrInvalidSignature) {
			status = http.StatusForbidden
		}
		respondJSON(w, status, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}

	event.OrderID = data.OrderID
	event.Status = data.RawStatus
	payment.Record(r.Context(), h.DB, event)

	applied, err := h.Orders.ApplyCallback(r.Context(), name, data)
	switch {
	case errors.Is(err, database.ErrNotFound):
		log.Printf("[WEBHOOK] %s callback for unknown order %s", name, data.OrderID)
		respondJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Order not found"})
		return
	case errors.Is(err, orders.ErrAmountMismatch):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
		return
	case err != nil:
		log.Printf("[WEBHOOK] Failed to apply %s callback for %s: %v", name, data.OrderID, err)
		respondJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "applied": applied})
}
