package service

import (
	"errors"
	"fmt"
)

// Domain errors returned by the boundary operations. Callers match them with
// errors.Is; every one of them leaves balances untouched.
var (
	ErrConfigNotFound          = errors.New("game config not found")
	ErrInsufficientFunds       = errors.New("insufficient funds")
	ErrNoFreePlayAvailable     = errors.New("no free play available")
	ErrBonusNotActive          = errors.New("bonus is not active")
	ErrBonusExpired            = errors.New("bonus has expired")
	ErrMissionNotCompleted     = errors.New("mission is not completed")
	ErrWithdrawalLimitExceeded = errors.New("daily withdrawal limit exceeded")
	ErrSettlementConflict      = errors.New("transaction already settled")
	ErrPlayFailed              = errors.New("play failed")
	ErrAccountNotFound         = errors.New("account not found")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrTransactionNotFound     = errors.New("transaction not found")
	ErrBonusNotFound           = errors.New("bonus not found")
	ErrMissionNotFound         = errors.New("mission not found")
	ErrNothingToClaim          = errors.New("nothing left to claim")
)

// PlayFailedError wraps a failure that happened after funds were checked. The
// whole play was rolled back.
type PlayFailedError struct {
	Cause error
}

func (e *PlayFailedError) Error() string {
	return fmt.Sprintf("play failed: %v", e.Cause)
}

func (e *PlayFailedError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrPlayFailed) match
func (e *PlayFailedError) Is(target error) bool {
	return target == ErrPlayFailed
}
