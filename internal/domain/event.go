package domain

import (
	"encoding/json"
	"time"
)

// EventType names a ledger notification.
type EventType string

const (
	EventPaymentProcessed EventType = "PaymentProcessed"
	EventRefundRequested  EventType = "RefundRequested"
	EventRefundIssued     EventType = "RefundIssued"
	EventRoleGranted      EventType = "RoleGranted"
	EventRoleRevoked      EventType = "RoleRevoked"
	EventPaused           EventType = "Paused"
	EventUnpaused         EventType = "Unpaused"
)

// Event is an entry in the append-only notification log. It is written in the
// same transaction as the mutation it describes.
type Event struct {
	Sequence    uint64          `json:"sequence"`
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	Key         string          `json:"key"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
}

// PaymentProcessed is emitted by a successful checkout.
type PaymentProcessed struct {
	PaymentID      PaymentID `json:"payment_id"`
	Consumer       Address   `json:"consumer"`
	Merchant       Address   `json:"merchant"`
	GrossAmount    uint64    `json:"gross_amount"`
	Fee            uint64    `json:"fee"`
	MerchantAmount uint64    `json:"merchant_amount"`
}

// RefundRequested is emitted when the consumer asks for a refund.
type RefundRequested struct {
	PaymentID PaymentID `json:"payment_id"`
	Consumer  Address   `json:"consumer"`
	Reason    string    `json:"reason"`
}

// RefundIssued is emitted when a merchant or admin executes a refund.
type RefundIssued struct {
	PaymentID PaymentID `json:"payment_id"`
	Initiator Address   `json:"initiator"`
	Consumer  Address   `json:"consumer"`
	Amount    uint64    `json:"amount"`
}

// RoleChanged is emitted for grants and revocations.
type RoleChanged struct {
	Role    string  `json:"role"`
	Account Address `json:"account"`
	Sender  Address `json:"sender"`
}

// PauseChanged is emitted when the pause switch flips.
type PauseChanged struct {
	Account Address `json:"account"`
}
