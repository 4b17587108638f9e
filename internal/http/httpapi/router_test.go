package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clipcast/internal/domain"
	"clipcast/internal/http/handlers"
	"clipcast/internal/middleware"
	"clipcast/internal/service"
)

const testSecret = "router-test-secret"

type fakeRenderer struct {
	submitRes *service.SubmitResult
	submitErr error
	pollRes   *service.PollResult
	pollErr   error
	jobs      []domain.Job
}

func (f *fakeRenderer) Submit(ctx context.Context, ownerID, prompt string, params domain.RenderParams) (*service.SubmitResult, error) {
	return f.submitRes, f.submitErr
}

func (f *fakeRenderer) Poll(ctx context.Context, ownerID, jobID string) (*service.PollResult, error) {
	return f.pollRes, f.pollErr
}

func (f *fakeRenderer) List(ctx context.Context, ownerID string) ([]domain.Job, error) {
	return f.jobs, nil
}

type fakeLedger struct {
	balance int
}

func (f *fakeLedger) Charge(ctx context.Context, subjectID string, amount int) error { return nil }
func (f *fakeLedger) Credit(ctx context.Context, subjectID string, amount int, key string) error {
	return nil
}
func (f *fakeLedger) Balance(ctx context.Context, subjectID string) (int, error) {
	return f.balance, nil
}

type fakeBiller struct {
	url        string
	handleErr  error
	handled    int
	lastHeader string
}

func (f *fakeBiller) CreateCheckoutSession(ctx context.Context, subjectID, priceID string) (string, error) {
	return f.url, nil
}

func (f *fakeBiller) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	f.handled++
	f.lastHeader = sigHeader
	return f.handleErr
}

func newTestRouter(renderer *fakeRenderer, ledger *fakeLedger, biller *fakeBiller) http.Handler {
	app := handlers.NewApp(renderer, ledger, biller, zerolog.Nop())
	return NewRouter(app, Options{AuthSecret: testSecret, Logger: zerolog.Nop()})
}

func authedRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	token, err := middleware.SignToken(testSecret, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestAPIRejectsMissingCredential(t *testing.T) {
	router := newTestRouter(&fakeRenderer{}, &fakeLedger{}, &fakeBiller{})

	for _, path := range []string{"/api/me", "/api/generate", "/api/check", "/api/list", "/api/create-checkout-session"} {
		method := http.MethodPost
		if path == "/api/me" {
			method = http.MethodGet
		}
		req := httptest.NewRequest(method, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want 401", path, rec.Code)
		}
	}
}

func TestGenerateReturnsJobHandle(t *testing.T) {
	renderer := &fakeRenderer{submitRes: &service.SubmitResult{JobID: "job-1", OperationRef: "operations/op-1"}}
	router := newTestRouter(renderer, &fakeLedger{}, &fakeBiller{})

	req := authedRequest(t, http.MethodPost, "/api/generate", map[string]any{"prompt": "cat on a skateboard"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["job_id"] != "job-1" || body["operation_ref"] != "operations/op-1" {
		t.Fatalf("body = %v", body)
	}
}

func TestGenerateInsufficientCredits(t *testing.T) {
	renderer := &fakeRenderer{submitErr: domain.ErrInsufficientCredits}
	router := newTestRouter(renderer, &fakeLedger{}, &fakeBiller{})

	req := authedRequest(t, http.MethodPost, "/api/generate", map[string]any{"prompt": "x"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}
	body := decodeBody(t, rec)
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "insufficient_credits" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestCheckPendingAndDoneShapes(t *testing.T) {
	renderer := &fakeRenderer{pollRes: &service.PollResult{Done: false}}
	router := newTestRouter(renderer, &fakeLedger{}, &fakeBiller{})

	req := authedRequest(t, http.MethodPost, "/api/check", map[string]any{"job_id": "job-1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	body := decodeBody(t, rec)
	if body["done"] != false {
		t.Fatalf("pending body = %v", body)
	}
	if _, present := body["success"]; present {
		t.Fatalf("success leaked into pending response: %v", body)
	}

	renderer.pollRes = &service.PollResult{Done: true, Success: true, ArtifactRef: "https://signed.example.com/clip"}
	req = authedRequest(t, http.MethodPost, "/api/check", map[string]any{"job_id": "job-1"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	body = decodeBody(t, rec)
	if body["done"] != true || body["success"] != true || body["url"] != "https://signed.example.com/clip" {
		t.Fatalf("done body = %v", body)
	}
}

func TestCheckUnknownJobIsNotFound(t *testing.T) {
	renderer := &fakeRenderer{pollErr: domain.ErrNotFound}
	router := newTestRouter(renderer, &fakeLedger{}, &fakeBiller{})

	req := authedRequest(t, http.MethodPost, "/api/check", map[string]any{"job_id": "someone-elses"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListReturnsItems(t *testing.T) {
	now := time.Now().UTC()
	renderer := &fakeRenderer{jobs: []domain.Job{
		{ID: "job-2", Prompt: "b", Status: domain.JobStatusDone, ArtifactRef: "https://s/2", CreatedAt: now},
		{ID: "job-1", Prompt: "a", Status: domain.JobStatusPending, CreatedAt: now.Add(-time.Hour)},
	}}
	router := newTestRouter(renderer, &fakeLedger{}, &fakeBiller{})

	req := authedRequest(t, http.MethodPost, "/api/list", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	body := decodeBody(t, rec)
	items, _ := body["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("items = %v", body["items"])
	}
	first, _ := items[0].(map[string]any)
	if first["id"] != "job-2" || first["url"] != "https://s/2" {
		t.Fatalf("first item = %v", first)
	}
}

func TestMeReportsBalance(t *testing.T) {
	router := newTestRouter(&fakeRenderer{}, &fakeLedger{balance: 7}, &fakeBiller{})

	req := authedRequest(t, http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	body := decodeBody(t, rec)
	if body["subject_id"] != "user-1" || body["credits"] != float64(7) {
		t.Fatalf("body = %v", body)
	}
}

func TestCheckoutSessionReturnsRedirect(t *testing.T) {
	biller := &fakeBiller{url: "https://checkout.stripe.com/pay/cs_123"}
	router := newTestRouter(&fakeRenderer{}, &fakeLedger{}, biller)

	req := authedRequest(t, http.MethodPost, "/api/create-checkout-session", map[string]any{"price_id": "price_1"})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	body := decodeBody(t, rec)
	if body["url"] != biller.url {
		t.Fatalf("body = %v", body)
	}
}

func TestWebhookNeedsNoBearerToken(t *testing.T) {
	biller := &fakeBiller{}
	router := newTestRouter(&fakeRenderer{}, &fakeLedger{}, biller)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if biller.handled != 1 || biller.lastHeader != "t=1,v1=abc" {
		t.Fatalf("biller calls = %d, header = %q", biller.handled, biller.lastHeader)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	biller := &fakeBiller{handleErr: domain.ErrSignatureInvalid}
	router := newTestRouter(&fakeRenderer{}, &fakeLedger{}, biller)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&fakeRenderer{}, &fakeLedger{}, &fakeBiller{})
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
