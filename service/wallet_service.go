package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scratcher/config"
	"scratcher/events"
	"scratcher/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// maxTransactionPage caps a single journal listing
const maxTransactionPage = 200

// maxPendingResubmit caps one startup resubmission sweep
const maxPendingResubmit = 500

// WalletLimits bounds deposits and withdrawals
type WalletLimits struct {
	MinDeposit           decimal.Decimal
	MaxDeposit           decimal.Decimal
	MinWithdrawal        decimal.Decimal
	MaxWithdrawal        decimal.Decimal
	DailyWithdrawalLimit decimal.Decimal
}

// LimitsFromConfig reads the wallet limits out of the application config
func LimitsFromConfig(cfg *config.Config) WalletLimits {
	return WalletLimits{
		MinDeposit:           cfg.MinDeposit,
		MaxDeposit:           cfg.MaxDeposit,
		MinWithdrawal:        cfg.MinWithdrawal,
		MaxWithdrawal:        cfg.MaxWithdrawal,
		DailyWithdrawalLimit: cfg.DailyWithdrawalLimit,
	}
}

type walletService struct {
	uowFactory  UnitOfWorkFactory
	gateway     SettlementGateway
	limits      WalletLimits
	ledger      *Ledger
	journal     *Journal
	progression *progressionTracker
	clock       Clock
}

// NewWalletService creates the wallet service. Deposits and withdrawals are
// journaled as pending and handed to gateway; ApplySettlement finishes them.
func NewWalletService(uowFactory UnitOfWorkFactory, gateway SettlementGateway, limits WalletLimits, rules config.Progression, clock Clock) WalletService {
	if clock == nil {
		clock = NewSystemClock()
	}
	ledger := NewLedger(clock)
	journal := NewJournal(clock)
	return &walletService{
		uowFactory:  uowFactory,
		gateway:     gateway,
		limits:      limits,
		ledger:      ledger,
		journal:     journal,
		progression: newProgressionTracker(rules, clock, ledger, journal),
		clock:       clock,
	}
}

func (s *walletService) GetBalance(ctx context.Context, accountID int64) (*models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}
	return wallet, nil
}

func (s *walletService) RequestDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, method string) (*models.Transaction, error) {
	amount = models.Money(amount)
	if amount.LessThan(s.limits.MinDeposit) || amount.GreaterThan(s.limits.MaxDeposit) {
		return nil, fmt.Errorf("%w: deposits must be between %s and %s", ErrInvalidAmount,
			s.limits.MinDeposit.StringFixed(models.MoneyPlaces), s.limits.MaxDeposit.StringFixed(models.MoneyPlaces))
	}
	if method == "" {
		method = models.PaymentMethodPIX
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.ledger.Lock(ctx, uow, accountID); err != nil {
		return nil, err
	}

	ref := uuid.NewString()
	entry := &models.Transaction{
		AccountID:     accountID,
		Kind:          models.TransactionKindDeposit,
		Amount:        amount,
		Status:        models.TransactionStatusPending,
		PaymentMethod: method,
		ExternalRef:   &ref,
		Description:   fmt.Sprintf("Deposit via %s", strings.ToUpper(method)),
		Metadata:      map[string]any{"method": method},
	}
	if err := recordBalanceChange(ctx, uow, s.journal, nil, entry); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.submit(ctx, entry, ""); err != nil {
		return entry, err
	}
	return entry, nil
}

func (s *walletService) RequestWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, pixKey string) (*models.Transaction, error) {
	amount = models.Money(amount)
	if amount.LessThan(s.limits.MinWithdrawal) || amount.GreaterThan(s.limits.MaxWithdrawal) {
		return nil, fmt.Errorf("%w: withdrawals must be between %s and %s", ErrInvalidAmount,
			s.limits.MinWithdrawal.StringFixed(models.MoneyPlaces), s.limits.MaxWithdrawal.StringFixed(models.MoneyPlaces))
	}
	pixKey = strings.TrimSpace(pixKey)
	if pixKey == "" {
		return nil, fmt.Errorf("pix key is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := s.ledger.Lock(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}
	if !s.ledger.CanWithdraw(wallet, amount) {
		return nil, fmt.Errorf("%w: withdrawable balance is %s", ErrInsufficientFunds, wallet.Balance.StringFixed(models.MoneyPlaces))
	}

	withdrawnToday, err := uow.TransactionRepository().SumWithdrawalsSince(ctx, accountID, UTCDay(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to total today's withdrawals: %w", err)
	}
	if withdrawnToday.Add(amount).GreaterThan(s.limits.DailyWithdrawalLimit) {
		remaining := decimal.Max(decimal.Zero, s.limits.DailyWithdrawalLimit.Sub(withdrawnToday))
		return nil, fmt.Errorf("%w: %s remaining today", ErrWithdrawalLimitExceeded, remaining.StringFixed(models.MoneyPlaces))
	}

	// Reserve the funds now so they cannot be staked while the payout is pending
	move, err := s.ledger.Debit(ctx, uow, accountID, amount, models.PaymentPrincipal)
	if err != nil {
		return nil, err
	}

	ref := uuid.NewString()
	entry := &models.Transaction{
		AccountID:     accountID,
		Kind:          models.TransactionKindWithdrawal,
		Amount:        amount,
		Status:        models.TransactionStatusPending,
		PaymentMethod: models.PaymentMethodPIX,
		ExternalRef:   &ref,
		Description:   "Withdrawal via PIX",
		Metadata:      map[string]any{"pix_key": pixKey},
	}
	if err := recordBalanceChange(ctx, uow, s.journal, move, entry); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if err := s.submit(ctx, entry, pixKey); err != nil {
		return entry, err
	}
	return entry, nil
}

// submit hands a committed pending entry to the gateway. If the gateway
// refuses it the entry is rejected right away so reserved funds come back.
func (s *walletService) submit(ctx context.Context, entry *models.Transaction, destination string) error {
	req := SettlementRequest{
		TransactionID: entry.ID,
		AccountID:     entry.AccountID,
		Kind:          entry.Kind,
		Amount:        entry.Amount,
		Method:        entry.PaymentMethod,
		ExternalRef:   *entry.ExternalRef,
		Destination:   destination,
	}
	submitErr := s.gateway.Submit(ctx, req)
	if submitErr == nil {
		return nil
	}

	log.WithFields(log.Fields{
		"transactionID": entry.ID,
		"kind":          entry.Kind,
		"error":         submitErr,
	}).Error("Settlement gateway refused request, rejecting transaction")

	rejected, err := s.ApplySettlement(context.WithoutCancel(ctx), SettlementCallback{
		TransactionID: entry.ID,
		Outcome:       models.SettlementRejected,
	})
	if err != nil {
		return fmt.Errorf("failed to submit %s: %v; failed to reject it: %w", entry.Kind, submitErr, err)
	}
	*entry = *rejected
	return fmt.Errorf("failed to submit %s: %w", entry.Kind, submitErr)
}

// ResubmitPending hands every pending deposit and withdrawal to the gateway
// again. It runs at startup so requests lost with a previous process still
// get a verdict; settlement is exactly-once, so a request that was already
// answered only produces a conflicting callback.
func (s *walletService) ResubmitPending(ctx context.Context) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	pending, err := uow.TransactionRepository().ListPending(ctx, maxPendingResubmit)
	uow.Rollback()
	if err != nil {
		return 0, fmt.Errorf("failed to list pending transactions: %w", err)
	}

	resubmitted := 0
	for _, entry := range pending {
		if entry.ExternalRef == nil {
			ref := uuid.NewString()
			entry.ExternalRef = &ref
		}
		destination := ""
		if entry.Kind == models.TransactionKindWithdrawal {
			destination, _ = entry.Metadata["pix_key"].(string)
		}
		if err := s.submit(ctx, entry, destination); err != nil {
			log.WithFields(log.Fields{
				"transactionID": entry.ID,
				"error":         err,
			}).Warn("Failed to resubmit pending transaction")
			continue
		}
		resubmitted++
	}

	if len(pending) > 0 {
		log.WithFields(log.Fields{
			"pending":     len(pending),
			"resubmitted": resubmitted,
		}).Info("Resubmitted pending transactions")
	}
	return resubmitted, nil
}

// ApplySettlement applies a gateway verdict exactly once. Redelivered
// callbacks return ErrSettlementConflict and change nothing.
func (s *walletService) ApplySettlement(ctx context.Context, callback SettlementCallback) (*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pending, err := uow.TransactionRepository().GetByID(ctx, callback.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if pending == nil {
		return nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, callback.TransactionID)
	}
	if pending.Kind != models.TransactionKindDeposit && pending.Kind != models.TransactionKindWithdrawal {
		return nil, fmt.Errorf("%w: %s entries are not settled externally", ErrSettlementConflict, pending.Kind)
	}

	// Wallet before transaction, the same lock order as every other operation
	if _, err := s.ledger.Lock(ctx, uow, pending.AccountID); err != nil {
		return nil, err
	}

	entry, err := s.journal.Settle(ctx, uow, callback.TransactionID, callback.Outcome)
	if err != nil {
		return nil, err
	}

	switch {
	case entry.Kind == models.TransactionKindDeposit && entry.Status == models.TransactionStatusCompleted:
		move, err := s.ledger.RecordDeposit(ctx, uow, entry.AccountID, entry.Amount)
		if err != nil {
			return nil, err
		}
		publishBalanceChange(uow, move, entry)
		if _, err := s.progression.issueReloadBonus(ctx, uow, entry.AccountID, entry.Amount); err != nil {
			return nil, err
		}
	case entry.Kind == models.TransactionKindWithdrawal && entry.Status == models.TransactionStatusCompleted:
		if _, err := s.ledger.RecordWithdrawal(ctx, uow, entry.AccountID, entry.Amount); err != nil {
			return nil, err
		}
	case entry.Kind == models.TransactionKindWithdrawal && entry.Status == models.TransactionStatusFailed:
		move, err := s.ledger.Credit(ctx, uow, entry.AccountID, entry.Amount, models.BalancePrincipal)
		if err != nil {
			return nil, err
		}
		publishBalanceChange(uow, move, entry)
	}

	uow.EventBus().Publish(events.SettlementAppliedEvent{
		AccountID:     entry.AccountID,
		TransactionID: entry.ID,
		Kind:          entry.Kind,
		Amount:        entry.Amount,
		Status:        entry.Status,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"transactionID": entry.ID,
		"accountID":     entry.AccountID,
		"kind":          entry.Kind,
		"status":        entry.Status,
		"amount":        entry.Amount.StringFixed(models.MoneyPlaces),
	}).Info("Settlement applied")

	return entry, nil
}

func (s *walletService) ListTransactions(ctx context.Context, accountID int64, filter models.TransactionFilter) ([]*models.Transaction, error) {
	if filter.Limit <= 0 {
		filter.Limit = models.DefaultTransactionLimit
	}
	if filter.Limit > maxTransactionPage {
		filter.Limit = maxTransactionPage
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	txs, err := uow.TransactionRepository().List(ctx, accountID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *walletService) GetTransaction(ctx context.Context, accountID, transactionID int64) (*models.Transaction, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	tx, err := uow.TransactionRepository().GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if tx == nil || tx.AccountID != accountID {
		return nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, transactionID)
	}
	return tx, nil
}

// IsSettlementConflict reports whether err is a redelivered or stale callback
func IsSettlementConflict(err error) bool {
	return errors.Is(err, ErrSettlementConflict)
}
