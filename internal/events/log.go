package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"paymenthub/internal/amount"
	"paymenthub/internal/domain"
)

// LogPublisher writes one structured log line per event.
type LogPublisher struct {
	logger   *zap.Logger
	decimals int32
}

// NewLogPublisher creates a log sink. decimals controls how amounts are rendered.
func NewLogPublisher(logger *zap.Logger, decimals int32) *LogPublisher {
	return &LogPublisher{logger: logger, decimals: decimals}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, events []*domain.Event) error {
	for _, e := range events {
		p.logger.Info(p.describe(e),
			zap.String("event", string(e.Type)),
			zap.String("key", e.Key),
			zap.Uint64("sequence", e.Sequence),
			zap.String("event_id", e.ID),
		)
	}
	return nil
}

// describe renders a short human message for the event.
func (p *LogPublisher) describe(e *domain.Event) string {
	switch e.Type {
	case domain.EventPaymentProcessed:
		var v domain.PaymentProcessed
		if json.Unmarshal(e.Payload, &v) == nil {
			return fmt.Sprintf("payment of %s from %s to %s processed, fee %s",
				amount.Format(v.GrossAmount, p.decimals), v.Consumer, v.Merchant, amount.Format(v.Fee, p.decimals))
		}
	case domain.EventRefundRequested:
		var v domain.RefundRequested
		if json.Unmarshal(e.Payload, &v) == nil {
			return fmt.Sprintf("refund requested by %s: %q", v.Consumer, v.Reason)
		}
	case domain.EventRefundIssued:
		var v domain.RefundIssued
		if json.Unmarshal(e.Payload, &v) == nil {
			return fmt.Sprintf("refund of %s issued by %s to %s",
				amount.Format(v.Amount, p.decimals), v.Initiator, v.Consumer)
		}
	case domain.EventRoleGranted, domain.EventRoleRevoked:
		var v domain.RoleChanged
		if json.Unmarshal(e.Payload, &v) == nil {
			verb := "granted to"
			if e.Type == domain.EventRoleRevoked {
				verb = "revoked from"
			}
			return fmt.Sprintf("%s role %s %s by %s", v.Role, verb, v.Account, v.Sender)
		}
	case domain.EventPaused, domain.EventUnpaused:
		var v domain.PauseChanged
		if json.Unmarshal(e.Payload, &v) == nil {
			return fmt.Sprintf("platform %s by %s", pauseVerb(e.Type), v.Account)
		}
	}
	return "ledger event"
}

func pauseVerb(t domain.EventType) string {
	if t == domain.EventPaused {
		return "paused"
	}
	return "unpaused"
}
