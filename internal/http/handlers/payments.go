package handlers

import (
	"encoding/json"
	"io"
	"net/http"
)

// maxWebhookBody bounds webhook payloads; Stripe events fit comfortably.
const maxWebhookBody = 1 << 16

type checkoutRequest struct {
	PriceID string `json:"price_id"`
}

// CreateCheckoutSession opens a hosted payment page for a credit purchase.
func (a *App) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	subjectID := a.currentSubject(r)
	if subjectID == "" {
		a.error(w, http.StatusUnauthorized, "auth_invalid", "missing subject context")
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "invalid payload")
		return
	}
	url, err := a.Biller.CreateCheckoutSession(r.Context(), subjectID, req.PriceID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook consumes payment-processor deliveries. The raw body is required
// for signature verification, so this handler reads it before any decoding.
func (a *App) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_request", "unreadable payload")
		return
	}
	if err := a.Biller.HandleEvent(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"received": true})
}
