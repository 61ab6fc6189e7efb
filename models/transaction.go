package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrTransactionTerminal is returned when settling a transaction that is no
// longer pending
var ErrTransactionTerminal = errors.New("transaction already settled")

// TransactionKind represents what moved money
type TransactionKind string

const (
	TransactionKindStake       TransactionKind = "stake"
	TransactionKindPrize       TransactionKind = "prize"
	TransactionKindDeposit     TransactionKind = "deposit"
	TransactionKindWithdrawal  TransactionKind = "withdrawal"
	TransactionKindBonusCredit TransactionKind = "bonus_credit"
)

// TransactionStatus is the lifecycle state of a journal entry
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// IsTerminal reports whether the status can no longer change
func (s TransactionStatus) IsTerminal() bool {
	return s != TransactionStatusPending
}

// SettlementOutcome is the verdict delivered by a payment gateway
type SettlementOutcome string

const (
	SettlementApproved SettlementOutcome = "approved"
	SettlementRejected SettlementOutcome = "rejected"
)

// Valid reports whether the outcome is one the journal understands
func (o SettlementOutcome) Valid() bool {
	return o == SettlementApproved || o == SettlementRejected
}

// Payment methods recorded on journal entries
const (
	PaymentMethodPIX     = "pix"
	PaymentMethodBalance = "balance"
	PaymentMethodBonus   = "bonus"
	PaymentMethodFree    = "free_play"
)

// Transaction is an append-only journal entry. Only pending entries change,
// and only once.
type Transaction struct {
	ID            int64             `db:"id"`
	AccountID     int64             `db:"account_id"`
	Kind          TransactionKind   `db:"kind"`
	Amount        decimal.Decimal   `db:"amount"`
	Status        TransactionStatus `db:"status"`
	PaymentMethod string            `db:"payment_method"`
	ExternalRef   *string           `db:"external_ref"`
	Description   string            `db:"description"`
	Metadata      map[string]any    `db:"metadata"`
	CreatedAt     time.Time         `db:"created_at"`
	ProcessedAt   *time.Time        `db:"processed_at"`
}

// Settle moves a pending entry to completed or failed
func (t *Transaction) Settle(outcome SettlementOutcome, now time.Time) error {
	if t.Status.IsTerminal() {
		return ErrTransactionTerminal
	}
	switch outcome {
	case SettlementApproved:
		t.Status = TransactionStatusCompleted
	case SettlementRejected:
		t.Status = TransactionStatusFailed
	default:
		return errors.New("unknown settlement outcome")
	}
	processed := now
	t.ProcessedAt = &processed
	return nil
}

// TransactionFilter narrows a journal listing. Zero values mean no filter.
type TransactionFilter struct {
	Kind   TransactionKind
	Status TransactionStatus
	Limit  int
	Offset int
}

// DefaultTransactionLimit caps listings that do not set a limit
const DefaultTransactionLimit = 50
