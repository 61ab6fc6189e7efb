package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance is returned when a debit cannot be covered
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrNonPositiveAmount is returned when a ledger mutation is asked to move zero or less
var ErrNonPositiveAmount = errors.New("amount must be positive")

// PaymentSource selects which balances a debit may draw from
type PaymentSource int

const (
	// PaymentPrincipal draws from the principal balance only
	PaymentPrincipal PaymentSource = iota
	// PaymentBonusFirst drains the bonus balance before touching principal
	PaymentBonusFirst
	// PaymentFreePlay is funded by a bonus credit's free-game allotment and
	// never touches the wallet
	PaymentFreePlay
)

func (s PaymentSource) String() string {
	switch s {
	case PaymentPrincipal:
		return "principal"
	case PaymentBonusFirst:
		return "bonus_first"
	case PaymentFreePlay:
		return "free_play"
	default:
		return "unknown"
	}
}

// BalanceKind names one of the two spendable balances
type BalanceKind string

const (
	BalancePrincipal BalanceKind = "principal"
	BalanceBonus     BalanceKind = "bonus"
)

// DebitSplit records how a debit was covered
type DebitSplit struct {
	FromBonus     decimal.Decimal `json:"from_bonus"`
	FromPrincipal decimal.Decimal `json:"from_principal"`
}

// Total returns the full debited amount
func (d DebitSplit) Total() decimal.Decimal {
	return d.FromBonus.Add(d.FromPrincipal)
}

// Wallet is the account ledger. Balance is the withdrawable principal,
// BonusBalance holds promotional funds that can be staked but never withdrawn.
type Wallet struct {
	AccountID      int64           `db:"account_id"`
	Balance        decimal.Decimal `db:"balance"`
	BonusBalance   decimal.Decimal `db:"bonus_balance"`
	TotalDeposited decimal.Decimal `db:"total_deposited"`
	TotalWithdrawn decimal.Decimal `db:"total_withdrawn"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// NewWallet returns an empty wallet for an account
func NewWallet(accountID int64) *Wallet {
	return &Wallet{
		AccountID:      accountID,
		Balance:        decimal.Zero,
		BonusBalance:   decimal.Zero,
		TotalDeposited: decimal.Zero,
		TotalWithdrawn: decimal.Zero,
	}
}

// Spendable returns principal plus bonus
func (w *Wallet) Spendable() decimal.Decimal {
	return w.Balance.Add(w.BonusBalance)
}

// CanSpend reports whether principal plus bonus covers amount
func (w *Wallet) CanSpend(amount decimal.Decimal) bool {
	return w.Spendable().GreaterThanOrEqual(amount)
}

// CanWithdraw reports whether the principal balance alone covers amount
func (w *Wallet) CanWithdraw(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}

// Credit adds amount to the chosen balance
func (w *Wallet) Credit(amount decimal.Decimal, dest BalanceKind) error {
	amount = Money(amount)
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if dest == BalanceBonus {
		w.BonusBalance = w.BonusBalance.Add(amount)
	} else {
		w.Balance = w.Balance.Add(amount)
	}
	return nil
}

// Debit removes amount according to source. Either the whole amount is taken
// or the wallet is left untouched.
func (w *Wallet) Debit(amount decimal.Decimal, source PaymentSource) (DebitSplit, error) {
	amount = Money(amount)
	if !amount.IsPositive() {
		return DebitSplit{}, ErrNonPositiveAmount
	}

	split := DebitSplit{FromBonus: decimal.Zero, FromPrincipal: decimal.Zero}
	switch source {
	case PaymentBonusFirst:
		if !w.CanSpend(amount) {
			return DebitSplit{}, ErrInsufficientBalance
		}
		split.FromBonus = decimal.Min(w.BonusBalance, amount)
		split.FromPrincipal = amount.Sub(split.FromBonus)
	case PaymentPrincipal:
		if !w.CanWithdraw(amount) {
			return DebitSplit{}, ErrInsufficientBalance
		}
		split.FromPrincipal = amount
	default:
		return DebitSplit{}, errors.New("payment source does not debit the wallet")
	}

	w.BonusBalance = w.BonusBalance.Sub(split.FromBonus)
	w.Balance = w.Balance.Sub(split.FromPrincipal)
	return split, nil
}
