package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every storefront, webhook and admin route
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", h.Health).Methods("GET")
	router.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	// API routes
	api := router.PathPrefix("/api").Subrouter()

	// Admin Authentication
	api.HandleFunc("/auth/login", h.Login).Methods("POST")

	// Storefront
	api.HandleFunc("/checkout", h.CreateCheckout).Methods("POST")
	api.HandleFunc("/payment-instruction", h.GetPaymentInstruction).Methods("GET")
	api.HandleFunc("/payment-mode", h.GetPaymentMode).Methods("GET")
	api.HandleFunc("/payment-methods", h.GetPaymentMethods).Methods("GET")

	// Gateway webhooks (Public)
	api.HandleFunc("/webhook/{gateway}", h.HandleGatewayWebhook).Methods("POST")

	// ============== Admin API Routes ==============
	admin := api.PathPrefix("/admin").Subrouter()

	// Gateways
	admin.HandleFunc("/gateways", h.GetGatewayConfigs).Methods("GET")
	admin.HandleFunc("/gateways/{name}", h.UpdateGatewayConfig).Methods("PUT")
	admin.HandleFunc("/gateways/{name}/activate", h.ActivateGateway).Methods("POST")
	admin.HandleFunc("/payment-mode", h.GetAdminPaymentMode).Methods("GET")
	admin.HandleFunc("/payment-mode", h.SetPaymentMode).Methods("PUT")

	// Manual methods
	admin.HandleFunc("/manual-methods", h.GetManualMethods).Methods("GET")
	admin.HandleFunc("/manual-methods", h.CreateManualMethod).Methods("POST")
	admin.HandleFunc("/manual-methods/{id}", h.UpdateManualMethod).Methods("PUT")
	admin.HandleFunc("/manual-methods/{id}", h.DeleteManualMethod).Methods("DELETE")

	// Orders
	admin.HandleFunc("/orders", h.GetOrders).Methods("GET")
	admin.HandleFunc("/orders/expire", h.ExpireOrders).Methods("POST")
	admin.HandleFunc("/orders/{id}", h.GetOrder).Methods("GET")
	admin.HandleFunc("/orders/{id}/confirm", h.ConfirmOrder).Methods("POST")
	admin.HandleFunc("/orders/{id}/reject", h.RejectOrder).Methods("POST")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Not found")
	})

	return router
}
