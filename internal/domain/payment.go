package domain

// PaymentEvent is a completed purchase delivered by the payment processor.
// EventID doubles as the idempotency key: the same id must never grant
// credits twice no matter how often the processor redelivers it.
type PaymentEvent struct {
	EventID        string
	SubjectID      string
	CreditsGranted int
}
