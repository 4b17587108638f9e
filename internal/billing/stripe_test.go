package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	stripe "github.com/stripe/stripe-go/v79"

	"clipcast/internal/domain"
)

const testWebhookSecret = "whsec_test_secret"

type recordingLedger struct {
	credits map[string]int
	applied map[string]bool
	calls   int
}

func newRecordingLedger() *recordingLedger {
	return &recordingLedger{credits: map[string]int{}, applied: map[string]bool{}}
}

func (l *recordingLedger) Charge(ctx context.Context, subjectID string, amount int) error {
	return errors.New("not used")
}

func (l *recordingLedger) Credit(ctx context.Context, subjectID string, amount int, key string) error {
	l.calls++
	if l.applied[key] {
		return nil
	}
	l.applied[key] = true
	l.credits[subjectID] += amount
	return nil
}

func (l *recordingLedger) Balance(ctx context.Context, subjectID string) (int, error) {
	return l.credits[subjectID], nil
}

func newTestService(t *testing.T, ledger domain.Ledger) *Service {
	t.Helper()
	svc, err := NewService(Options{
		SecretKey:       "sk_test_key",
		WebhookSecret:   testWebhookSecret,
		SuccessURL:      "http://localhost:3000/?checkout=success",
		CancelURL:       "http://localhost:3000/?checkout=cancel",
		CreditsPerGrant: 10,
		Logger:          zerolog.Nop(),
	}, ledger)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func signPayload(secret string, payload []byte) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func completedCheckoutPayload(t *testing.T, eventID, subjectID string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          eventID,
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":       "cs_test_1",
				"object":   "checkout.session",
				"metadata": map[string]string{"uid": subjectID},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return payload
}

func TestHandleEventCreditsOncePerEventID(t *testing.T) {
	ledger := newRecordingLedger()
	svc := newTestService(t, ledger)

	payload := completedCheckoutPayload(t, "evt_1", "user-1")
	for i := 0; i < 3; i++ {
		if err := svc.HandleEvent(context.Background(), payload, signPayload(testWebhookSecret, payload)); err != nil {
			t.Fatalf("handle %d: %v", i, err)
		}
	}
	if ledger.credits["user-1"] != 10 {
		t.Fatalf("credits = %d, want 10 (single grant)", ledger.credits["user-1"])
	}

	second := completedCheckoutPayload(t, "evt_2", "user-1")
	if err := svc.HandleEvent(context.Background(), second, signPayload(testWebhookSecret, second)); err != nil {
		t.Fatalf("handle distinct event: %v", err)
	}
	if ledger.credits["user-1"] != 20 {
		t.Fatalf("credits = %d, want 20 after second event", ledger.credits["user-1"])
	}
}

func TestHandleEventRejectsBadSignature(t *testing.T) {
	ledger := newRecordingLedger()
	svc := newTestService(t, ledger)

	payload := completedCheckoutPayload(t, "evt_1", "user-1")
	err := svc.HandleEvent(context.Background(), payload, signPayload("whsec_wrong", payload))
	if !errors.Is(err, domain.ErrSignatureInvalid) {
		t.Fatalf("err = %v, want ErrSignatureInvalid", err)
	}
	if ledger.calls != 0 {
		t.Fatalf("ledger touched on invalid signature")
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	ledger := newRecordingLedger()
	svc := newTestService(t, ledger)

	payload, _ := json.Marshal(map[string]any{
		"id":          "evt_3",
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        "invoice.paid",
		"data":        map[string]any{"object": map[string]any{"object": "invoice"}},
	})
	if err := svc.HandleEvent(context.Background(), payload, signPayload(testWebhookSecret, payload)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if ledger.calls != 0 {
		t.Fatalf("ledger touched for ignored event type")
	}
}

func TestHandleEventMissingSubjectIsAcked(t *testing.T) {
	ledger := newRecordingLedger()
	svc := newTestService(t, ledger)

	payload, _ := json.Marshal(map[string]any{
		"id":          "evt_4",
		"object":      "event",
		"api_version": stripe.APIVersion,
		"type":        "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{"id": "cs_test_2", "object": "checkout.session"},
		},
	})
	if err := svc.HandleEvent(context.Background(), payload, signPayload(testWebhookSecret, payload)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if ledger.calls != 0 {
		t.Fatalf("credited without a subject")
	}
}

func TestCreateCheckoutSessionRequiresPriceID(t *testing.T) {
	svc := newTestService(t, newRecordingLedger())
	_, err := svc.CreateCheckoutSession(context.Background(), "user-1", "")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}
