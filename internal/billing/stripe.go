package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"

	"clipcast/internal/domain"
	"clipcast/internal/infra"
)

// metadataSubjectKey is where the checkout session carries the purchasing
// subject so the completion webhook can find the account to credit.
const metadataSubjectKey = "uid"

// Options configures the Stripe-backed billing service.
type Options struct {
	SecretKey       string
	WebhookSecret   string
	SuccessURL      string
	CancelURL       string
	CreditsPerGrant int
	Logger          infra.Logger
}

// Service creates checkout sessions and settles completed-checkout webhook
// events into ledger credits. Crediting is idempotent on the processor's
// event id, so duplicate and out-of-order deliveries are safe.
type Service struct {
	webhookSecret   string
	successURL      string
	cancelURL       string
	creditsPerGrant int
	ledger          domain.Ledger
	logger          infra.Logger
}

// NewService validates the options and binds the ledger.
func NewService(opts Options, ledger domain.Ledger) (*Service, error) {
	if strings.TrimSpace(opts.SecretKey) == "" {
		return nil, errors.New("billing: stripe secret key is required")
	}
	if strings.TrimSpace(opts.WebhookSecret) == "" {
		return nil, errors.New("billing: stripe webhook secret is required")
	}
	if ledger == nil {
		return nil, errors.New("billing: ledger is required")
	}
	grant := opts.CreditsPerGrant
	if grant <= 0 {
		grant = 10
	}
	stripe.Key = opts.SecretKey
	return &Service{
		webhookSecret:   opts.WebhookSecret,
		successURL:      opts.SuccessURL,
		cancelURL:       opts.CancelURL,
		creditsPerGrant: grant,
		ledger:          ledger,
		logger:          opts.Logger,
	}, nil
}

// CreateCheckoutSession opens a single-item card checkout for priceID and
// returns the hosted payment page URL.
func (s *Service) CreateCheckoutSession(ctx context.Context, subjectID, priceID string) (string, error) {
	if strings.TrimSpace(priceID) == "" {
		return "", fmt.Errorf("%w: price id is required", domain.ErrInvalidRequest)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}
	params.Context = ctx
	params.AddMetadata(metadataSubjectKey, subjectID)

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", domain.ErrUpstreamUnavailable, err)
	}
	return sess.URL, nil
}

// HandleEvent verifies a webhook delivery and applies its credit grant. An
// unverifiable signature fails with ErrSignatureInvalid before any state
// change; event types other than checkout completion are acknowledged and
// ignored.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	if event.Type != "checkout.session.completed" {
		s.logger.Debug().Str("type", string(event.Type)).Msg("ignoring webhook event")
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("%w: decode checkout session: %v", domain.ErrInvalidRequest, err)
	}
	subjectID := sess.Metadata[metadataSubjectKey]
	if subjectID == "" {
		s.logger.Warn().Str("event_id", event.ID).Msg("completed checkout without subject metadata")
		return nil
	}

	grant := domain.PaymentEvent{
		EventID:        event.ID,
		SubjectID:      subjectID,
		CreditsGranted: s.creditsPerGrant,
	}
	if err := s.ledger.Credit(ctx, grant.SubjectID, grant.CreditsGranted, grant.EventID); err != nil {
		return fmt.Errorf("apply credit grant: %w", err)
	}
	s.logger.Info().
		Str("event_id", grant.EventID).
		Str("subject_id", grant.SubjectID).
		Int("credits", grant.CreditsGranted).
		Msg("credits granted")
	return nil
}
