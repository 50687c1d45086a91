package dto

import "time"

type CreateInvoiceCommand struct {
	UserID                   string
	RequestedFiatAmountMinor int64
}

type InvoiceResource struct {
	ID                      string    `json:"id"`
	UserID                  string    `json:"user_id"`
	ProcessorPaymentID      string    `json:"processor_payment_id"`
	ExpectedFiatAmountMinor int64     `json:"expected_fiat_amount_minor"`
	Status                  string    `json:"status"`
	PaymentTarget           string    `json:"payment_target"`
	CreatedAt               time.Time `json:"created_at"`
	ExpiresAt               time.Time `json:"expires_at"`
}

type CreateInvoiceOutput struct {
	Resource InvoiceResource
}

type ProcessorInvoice struct {
	ProcessorPaymentID string
	PaymentTarget      string
	ExpiresAt          time.Time
}

type CreateProcessorInvoiceInput struct {
	ReferenceID     string
	UserID          string
	FiatAmountMinor int64
}

type HandleProcessorWebhookCommand struct {
	Payload         []byte
	SignatureHeader string
	Now             time.Time
}

type HandleProcessorWebhookOutput struct {
	ProcessorPaymentID string `json:"processor_payment_id"`
	Status             string `json:"status"`
	Applied            bool   `json:"applied"`
	AlreadyTerminal    bool   `json:"already_terminal"`
	CreditedMinor      int64  `json:"credited_minor"`
}

type MarkPaidOutcome struct {
	Applied         bool
	AlreadyTerminal bool
	UserID          string
	CreditedMinor   int64
}

type MarkExpiredOutcome struct {
	Applied         bool
	AlreadyTerminal bool
}
