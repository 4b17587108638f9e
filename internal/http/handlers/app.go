package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"clipcast/internal/domain"
	"clipcast/internal/infra"
	"clipcast/internal/middleware"
	"clipcast/internal/service"
)

// Renderer is the job lifecycle surface the handlers drive.
type Renderer interface {
	Submit(ctx context.Context, ownerID, prompt string, params domain.RenderParams) (*service.SubmitResult, error)
	Poll(ctx context.Context, ownerID, jobID string) (*service.PollResult, error)
	List(ctx context.Context, ownerID string) ([]domain.Job, error)
}

// Biller is the payment surface the handlers drive.
type Biller interface {
	CreateCheckoutSession(ctx context.Context, subjectID, priceID string) (string, error)
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

// App bundles handler dependencies.
type App struct {
	Renderer Renderer
	Ledger   domain.Ledger
	Biller   Biller
	Logger   infra.Logger
}

// NewApp constructs the handler container.
func NewApp(renderer Renderer, ledger domain.Ledger, biller Biller, logger infra.Logger) *App {
	return &App{Renderer: renderer, Ledger: ledger, Biller: biller, Logger: logger}
}

func (a *App) currentSubject(r *http.Request) string {
	return middleware.SubjectFromContext(r.Context())
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}

// domainError maps the error taxonomy onto stable HTTP responses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAuthInvalid):
		a.error(w, http.StatusUnauthorized, "auth_invalid", "invalid credential")
	case errors.Is(err, domain.ErrInsufficientCredits):
		a.error(w, http.StatusPaymentRequired, "insufficient_credits", "not enough credits")
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		a.error(w, http.StatusBadGateway, "upstream_unavailable", "generation backend unavailable")
	case errors.Is(err, domain.ErrSignatureInvalid):
		a.error(w, http.StatusBadRequest, "signature_invalid", "webhook signature verification failed")
	default:
		a.Logger.Error().Err(err).Msg("unhandled request error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
