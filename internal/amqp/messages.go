package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAppliedType is the AMQP message type of payment events.
const PaymentAppliedType = "payment.applied"

// PaymentAppliedMessage is the wire form of core.PaymentEvent. Amounts are
// decimal strings, the month is "YYYY-MM".
type PaymentAppliedMessage struct {
	MessageID       string          `json:"messageId"`
	AccountID       int64           `json:"accountId"`
	AccountName     string          `json:"accountName"`
	Kind            string          `json:"kind"`
	Month           string          `json:"month,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Interest        decimal.Decimal `json:"interest"`
	Principal       decimal.Decimal `json:"principal"`
	PreviousBalance decimal.Decimal `json:"previousBalance"`
	NewBalance      decimal.Decimal `json:"newBalance"`
	AppliedAt       time.Time       `json:"appliedAt"`
}

// NewPaymentAppliedMessage wraps ev with a fresh message id.
func NewPaymentAppliedMessage(ev core.PaymentEvent) *PaymentAppliedMessage {
	return &PaymentAppliedMessage{
		MessageID:       uuid.NewString(),
		AccountID:       ev.AccountID,
		AccountName:     ev.AccountName,
		Kind:            string(ev.Kind),
		Month:           string(ev.Month),
		Amount:          ev.Amount,
		Interest:        ev.Interest,
		Principal:       ev.Principal,
		PreviousBalance: ev.PreviousBalance,
		NewBalance:      ev.NewBalance,
		AppliedAt:       ev.AppliedAt.UTC(),
	}
}

// Event converts the message back to the domain event.
func (m *PaymentAppliedMessage) Event() core.PaymentEvent {
	return core.PaymentEvent{
		AccountID:       m.AccountID,
		AccountName:     m.AccountName,
		Kind:            core.PaymentKind(m.Kind),
		Month:           core.MonthKey(m.Month),
		Amount:          m.Amount,
		Interest:        m.Interest,
		Principal:       m.Principal,
		PreviousBalance: m.PreviousBalance,
		NewBalance:      m.NewBalance,
		AppliedAt:       m.AppliedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *PaymentAppliedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentAppliedMessageFromJSON decodes and sanity-checks a message body.
func PaymentAppliedMessageFromJSON(data []byte) (*PaymentAppliedMessage, error) {
	var msg PaymentAppliedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.AccountID == 0 {
		return nil, &core.ValidationError{Field: "accountId", Message: "missing account id"}
	}
	switch core.PaymentKind(msg.Kind) {
	case core.PaymentScheduled, core.PaymentExtra:
	default:
		return nil, &core.ValidationError{Field: "kind", Message: "unknown payment kind " + msg.Kind}
	}
	return &msg, nil
}
