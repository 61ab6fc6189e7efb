package events

import (
	"scratcher/models"

	"github.com/shopspring/decimal"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeGamePlayed        EventType = "game_played"
	EventTypePrizeWon          EventType = "prize_won"
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeMissionCompleted  EventType = "mission_completed"
	EventTypeLoyaltyLevelUp    EventType = "loyalty_level_up"
	EventTypeBonusIssued       EventType = "bonus_issued"
	EventTypeSettlementApplied EventType = "settlement_applied"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// GamePlayedEvent is emitted once per committed play
type GamePlayedEvent struct {
	AccountID int64
	PlayID    int64
	ConfigID  int64
	Stake     decimal.Decimal
	Prize     decimal.Decimal
	FreePlay  bool
	Won       bool
}

func (e GamePlayedEvent) Type() EventType {
	return EventTypeGamePlayed
}

// PrizeWonEvent is emitted when a play pays out
type PrizeWonEvent struct {
	AccountID int64
	PlayID    int64
	ConfigID  int64
	Prize     decimal.Decimal
	Symbol    string
}

func (e PrizeWonEvent) Type() EventType {
	return EventTypePrizeWon
}

// BalanceChangeEvent represents a wallet mutation that was journaled
type BalanceChangeEvent struct {
	AccountID       int64
	TransactionID   int64
	Kind            models.TransactionKind
	Amount          decimal.Decimal
	OldBalance      decimal.Decimal
	NewBalance      decimal.Decimal
	OldBonusBalance decimal.Decimal
	NewBonusBalance decimal.Decimal
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// MissionCompletedEvent is emitted when progress first reaches a mission target
type MissionCompletedEvent struct {
	AccountID int64
	MissionID int64
	Template  string
}

func (e MissionCompletedEvent) Type() EventType {
	return EventTypeMissionCompleted
}

// LoyaltyLevelUpEvent is emitted for every loyalty threshold crossed
type LoyaltyLevelUpEvent struct {
	AccountID int64
	OldLevel  models.LoyaltyLevel
	NewLevel  models.LoyaltyLevel
	Points    int64
}

func (e LoyaltyLevelUpEvent) Type() EventType {
	return EventTypeLoyaltyLevelUp
}

// BonusIssuedEvent is emitted when a bonus credit is created
type BonusIssuedEvent struct {
	AccountID int64
	BonusID   int64
	BonusType models.BonusType
	Amount    decimal.Decimal
	FreeGames int
}

func (e BonusIssuedEvent) Type() EventType {
	return EventTypeBonusIssued
}

// SettlementAppliedEvent is emitted when a pending deposit or withdrawal settles
type SettlementAppliedEvent struct {
	AccountID     int64
	TransactionID int64
	Kind          models.TransactionKind
	Amount        decimal.Decimal
	Status        models.TransactionStatus
}

func (e SettlementAppliedEvent) Type() EventType {
	return EventTypeSettlementApplied
}
