package memory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"scratcher/models"
	"scratcher/service"

	"github.com/shopspring/decimal"
)

// errCheckViolation mirrors the table CHECK constraints of the SQL schema
var errCheckViolation = errors.New("check constraint violated")

type accountRepository struct {
	t     *tables
	undo  *undoLog
	clock service.Clock
}

func (r *accountRepository) GetByID(_ context.Context, id int64) (*models.Account, error) {
	a, ok := r.t.accounts[id]
	if !ok {
		return nil, nil
	}
	return cloneAccount(a), nil
}

func (r *accountRepository) Create(_ context.Context, id int64) (*models.Account, error) {
	if _, ok := r.t.accounts[id]; ok {
		return nil, nil
	}
	now := r.clock.Now()
	a := &models.Account{ID: id, LoyaltyLevel: models.LoyaltyBronze, CreatedAt: now, UpdatedAt: now}
	saveRow(r.undo, r.t.accounts, id, cloneAccount)
	r.t.accounts[id] = a
	return cloneAccount(a), nil
}

func (r *accountRepository) AddLoyaltyPoints(_ context.Context, id int64, points int64) (*models.Account, error) {
	a, ok := r.t.accounts[id]
	if !ok {
		return nil, nil
	}
	if a.LoyaltyPoints+points < 0 {
		return nil, fmt.Errorf("loyalty points of account %d: %w", id, errCheckViolation)
	}
	saveRow(r.undo, r.t.accounts, id, cloneAccount)
	a.LoyaltyPoints += points
	a.UpdatedAt = r.clock.Now()
	return cloneAccount(a), nil
}

func (r *accountRepository) UpdateLoyaltyLevel(_ context.Context, id int64, level models.LoyaltyLevel) error {
	a, ok := r.t.accounts[id]
	if !ok {
		return fmt.Errorf("account %d not found", id)
	}
	saveRow(r.undo, r.t.accounts, id, cloneAccount)
	a.LoyaltyLevel = level
	a.UpdatedAt = r.clock.Now()
	return nil
}

func (r *accountRepository) Count(_ context.Context) (int64, error) {
	return int64(len(r.t.accounts)), nil
}

type walletRepository struct {
	t     *tables
	undo  *undoLog
	clock service.Clock
}

func (r *walletRepository) Create(_ context.Context, accountID int64) (*models.Wallet, error) {
	if _, ok := r.t.accounts[accountID]; !ok {
		return nil, fmt.Errorf("failed to create wallet: account %d not found", accountID)
	}
	if _, ok := r.t.wallets[accountID]; ok {
		return nil, fmt.Errorf("failed to create wallet: account %d already has one", accountID)
	}
	w := models.NewWallet(accountID)
	w.CreatedAt = r.clock.Now()
	w.UpdatedAt = w.CreatedAt
	saveRow(r.undo, r.t.wallets, accountID, cloneWallet)
	r.t.wallets[accountID] = w
	return cloneWallet(w), nil
}

func (r *walletRepository) Get(_ context.Context, accountID int64) (*models.Wallet, error) {
	w, ok := r.t.wallets[accountID]
	if !ok {
		return nil, nil
	}
	return cloneWallet(w), nil
}

// GetForUpdate needs no row lock; the unit of work already holds the store
func (r *walletRepository) GetForUpdate(ctx context.Context, accountID int64) (*models.Wallet, error) {
	return r.Get(ctx, accountID)
}

func (r *walletRepository) Save(_ context.Context, wallet *models.Wallet) error {
	if _, ok := r.t.wallets[wallet.AccountID]; !ok {
		return fmt.Errorf("wallet for account %d not found", wallet.AccountID)
	}
	for _, v := range []decimal.Decimal{wallet.Balance, wallet.BonusBalance, wallet.TotalDeposited, wallet.TotalWithdrawn} {
		if v.IsNegative() {
			return fmt.Errorf("failed to save wallet for account %d: %w", wallet.AccountID, errCheckViolation)
		}
	}
	stored := cloneWallet(wallet)
	stored.Balance = models.Money(stored.Balance)
	stored.BonusBalance = models.Money(stored.BonusBalance)
	saveRow(r.undo, r.t.wallets, wallet.AccountID, cloneWallet)
	r.t.wallets[wallet.AccountID] = stored
	return nil
}

type transactionRepository struct {
	t     *tables
	undo  *undoLog
	clock service.Clock
}

func (r *transactionRepository) Create(_ context.Context, tx *models.Transaction) error {
	if tx.Amount.IsNegative() {
		return fmt.Errorf("failed to create %s transaction: %w", tx.Kind, errCheckViolation)
	}
	if tx.ExternalRef != nil {
		for _, existing := range r.t.transactions {
			if existing.ExternalRef != nil && *existing.ExternalRef == *tx.ExternalRef {
				return fmt.Errorf("failed to create %s transaction: duplicate external ref %s", tx.Kind, *tx.ExternalRef)
			}
		}
	}

	saveCounter(r.undo, &r.t.nextTransactionID)
	r.t.nextTransactionID++
	tx.ID = r.t.nextTransactionID
	tx.CreatedAt = r.clock.Now()
	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}
	saveRow(r.undo, r.t.transactions, tx.ID, cloneTransaction)
	r.t.transactions[tx.ID] = cloneTransaction(tx)
	return nil
}

func (r *transactionRepository) GetByID(_ context.Context, id int64) (*models.Transaction, error) {
	tx, ok := r.t.transactions[id]
	if !ok {
		return nil, nil
	}
	return cloneTransaction(tx), nil
}

func (r *transactionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *transactionRepository) MarkSettled(_ context.Context, id int64, status models.TransactionStatus, processedAt time.Time) (bool, error) {
	tx, ok := r.t.transactions[id]
	if !ok || tx.Status != models.TransactionStatusPending {
		return false, nil
	}
	saveRow(r.undo, r.t.transactions, id, cloneTransaction)
	tx.Status = status
	at := processedAt
	tx.ProcessedAt = &at
	return true, nil
}

func (r *transactionRepository) List(_ context.Context, accountID int64, filter models.TransactionFilter) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range r.t.transactions {
		if tx.AccountID != accountID {
			continue
		}
		if filter.Kind != "" && tx.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		out = append(out, cloneTransaction(tx))
	}

	slices.SortFunc(out, func(a, b *models.Transaction) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return page(out, filter.Offset, filter.Limit), nil
}

func (r *transactionRepository) SumWithdrawalsSince(_ context.Context, accountID int64, since time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range r.t.transactions {
		if tx.AccountID != accountID || tx.Kind != models.TransactionKindWithdrawal || tx.CreatedAt.Before(since) {
			continue
		}
		if tx.Status == models.TransactionStatusPending || tx.Status == models.TransactionStatusCompleted {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (r *transactionRepository) SumCompletedSince(_ context.Context, accountID int64, since time.Time) (map[models.TransactionKind]decimal.Decimal, error) {
	totals := make(map[models.TransactionKind]decimal.Decimal)
	for _, tx := range r.t.transactions {
		if tx.AccountID != accountID || tx.Status != models.TransactionStatusCompleted || tx.CreatedAt.Before(since) {
			continue
		}
		totals[tx.Kind] = totals[tx.Kind].Add(tx.Amount)
	}
	return totals, nil
}

func (r *transactionRepository) ListPending(_ context.Context, limit int) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range r.t.transactions {
		if tx.Status != models.TransactionStatusPending {
			continue
		}
		if tx.Kind == models.TransactionKindDeposit || tx.Kind == models.TransactionKindWithdrawal {
			out = append(out, cloneTransaction(tx))
		}
	}
	slices.SortFunc(out, func(a, b *models.Transaction) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return page(out, 0, limit), nil
}

type playRepository struct {
	t    *tables
	undo *undoLog
}

func (r *playRepository) Create(_ context.Context, play *models.Play) error {
	if _, ok := r.t.configs[play.ConfigID]; !ok {
		return fmt.Errorf("failed to create play: game config %d not found", play.ConfigID)
	}
	saveCounter(r.undo, &r.t.nextPlayID)
	r.t.nextPlayID++
	play.ID = r.t.nextPlayID
	saveRow(r.undo, r.t.plays, play.ID, clonePlay)
	r.t.plays[play.ID] = clonePlay(play)
	return nil
}

func (r *playRepository) ListByAccount(_ context.Context, accountID int64, limit int) ([]*models.Play, error) {
	var out []*models.Play
	for _, p := range r.t.plays {
		if p.AccountID == accountID {
			out = append(out, clonePlay(p))
		}
	}
	slices.SortFunc(out, func(a, b *models.Play) int {
		if c := b.PlayedAt.Compare(a.PlayedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return page(out, 0, limit), nil
}

func (r *playRepository) ListWinsSince(_ context.Context, since time.Time, limit int) ([]*models.WinnerEntry, error) {
	var wins []*models.Play
	for _, p := range r.t.plays {
		if p.Prize.IsPositive() && !p.PlayedAt.Before(since) {
			wins = append(wins, p)
		}
	}
	slices.SortFunc(wins, func(a, b *models.Play) int {
		if c := b.PlayedAt.Compare(a.PlayedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	wins = page(wins, 0, limit)
	out := make([]*models.WinnerEntry, 0, len(wins))
	for _, p := range wins {
		entry := &models.WinnerEntry{PlayID: p.ID, AccountID: p.AccountID, Prize: p.Prize, PlayedAt: p.PlayedAt}
		if cfg, ok := r.t.configs[p.ConfigID]; ok {
			entry.GameName = cfg.Name
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *playRepository) TotalsSince(_ context.Context, since time.Time) (*models.PlayTotals, error) {
	totals := &models.PlayTotals{}
	for _, p := range r.t.plays {
		if p.PlayedAt.Before(since) {
			continue
		}
		totals.Games++
		totals.Prizes = totals.Prizes.Add(p.Prize)
		if p.Prize.GreaterThan(totals.BiggestPrize) {
			totals.BiggestPrize = p.Prize
		}
	}
	return totals, nil
}

type bonusRepository struct {
	t     *tables
	undo  *undoLog
	clock service.Clock
}

func (r *bonusRepository) Create(_ context.Context, bonus *models.Bonus) (bool, error) {
	if bonus.Type.OncePerDay() {
		for _, existing := range r.t.bonuses {
			if existing.AccountID == bonus.AccountID && existing.Type == bonus.Type && existing.IssuedOn.Equal(bonus.IssuedOn) {
				return false, nil
			}
		}
	}
	if bonus.FreeGames < 0 || bonus.Amount.IsNegative() {
		return false, fmt.Errorf("failed to create %s bonus: %w", bonus.Type, errCheckViolation)
	}

	saveCounter(r.undo, &r.t.nextBonusID)
	r.t.nextBonusID++
	bonus.ID = r.t.nextBonusID
	bonus.CreatedAt = r.clock.Now()
	if bonus.Metadata == nil {
		bonus.Metadata = map[string]any{}
	}
	saveRow(r.undo, r.t.bonuses, bonus.ID, cloneBonus)
	r.t.bonuses[bonus.ID] = cloneBonus(bonus)
	return true, nil
}

func (r *bonusRepository) GetByIDForUpdate(_ context.Context, id int64) (*models.Bonus, error) {
	b, ok := r.t.bonuses[id]
	if !ok {
		return nil, nil
	}
	return cloneBonus(b), nil
}

func (r *bonusRepository) FindPlayableForUpdate(_ context.Context, accountID int64, now time.Time) (*models.Bonus, error) {
	var best *models.Bonus
	for _, b := range r.t.bonuses {
		if b.AccountID != accountID || !b.Playable(now) {
			continue
		}
		if best == nil || b.ExpiresAt.Before(best.ExpiresAt) || (b.ExpiresAt.Equal(best.ExpiresAt) && b.ID < best.ID) {
			best = b
		}
	}
	if best == nil {
		return nil, nil
	}
	return cloneBonus(best), nil
}

func (r *bonusRepository) ConsumeFreeGame(_ context.Context, id int64, now time.Time) (bool, error) {
	b, ok := r.t.bonuses[id]
	if !ok || !b.Playable(now) {
		return false, nil
	}
	saveRow(r.undo, r.t.bonuses, id, cloneBonus)
	b.FreeGames--
	if b.FreeGames == 0 {
		b.Status = models.BonusStatusClaimed
	}
	return true, nil
}

func (r *bonusRepository) Update(_ context.Context, bonus *models.Bonus) error {
	b, ok := r.t.bonuses[bonus.ID]
	if !ok {
		return fmt.Errorf("bonus %d not found", bonus.ID)
	}
	if bonus.ClaimedAmount.GreaterThan(b.Amount) || bonus.FreeGames < 0 {
		return fmt.Errorf("failed to update bonus %d: %w", bonus.ID, errCheckViolation)
	}
	saveRow(r.undo, r.t.bonuses, bonus.ID, cloneBonus)
	b.Status = bonus.Status
	b.ClaimedAmount = bonus.ClaimedAmount
	b.FreeGames = bonus.FreeGames
	if bonus.ClaimedAt != nil {
		at := *bonus.ClaimedAt
		b.ClaimedAt = &at
	} else {
		b.ClaimedAt = nil
	}
	return nil
}

func (r *bonusRepository) ExistsForDay(_ context.Context, accountID int64, bonusType models.BonusType, day time.Time) (bool, error) {
	for _, b := range r.t.bonuses {
		if b.AccountID == accountID && b.Type == bonusType && b.IssuedOn.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (r *bonusRepository) ListByAccount(_ context.Context, accountID int64, status *models.BonusStatus) ([]*models.Bonus, error) {
	var out []*models.Bonus
	for _, b := range r.t.bonuses {
		if b.AccountID != accountID || (status != nil && b.Status != *status) {
			continue
		}
		out = append(out, cloneBonus(b))
	}
	slices.SortFunc(out, func(a, b *models.Bonus) int { return cmp.Compare(b.ID, a.ID) })
	return out, nil
}

func (r *bonusRepository) ExpireBefore(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, b := range r.t.bonuses {
		if b.Status == models.BonusStatusActive && b.IsExpired(now) {
			saveRow(r.undo, r.t.bonuses, id, cloneBonus)
			b.Status = models.BonusStatusExpired
			n++
		}
	}
	return n, nil
}

type missionRepository struct {
	t    *tables
	undo *undoLog
}

func (r *missionRepository) Create(_ context.Context, mission *models.Mission) (bool, error) {
	for _, m := range r.t.missions {
		if m.AccountID == mission.AccountID && m.Template == mission.Template && m.IssuedOn.Equal(mission.IssuedOn) {
			return false, nil
		}
	}
	if mission.Target <= 0 {
		return false, fmt.Errorf("failed to create mission %s: %w", mission.Template, errCheckViolation)
	}
	saveCounter(r.undo, &r.t.nextMissionID)
	r.t.nextMissionID++
	mission.ID = r.t.nextMissionID
	saveRow(r.undo, r.t.missions, mission.ID, cloneMission)
	r.t.missions[mission.ID] = cloneMission(mission)
	return true, nil
}

func (r *missionRepository) GetByIDForUpdate(_ context.Context, id int64) (*models.Mission, error) {
	m, ok := r.t.missions[id]
	if !ok {
		return nil, nil
	}
	return cloneMission(m), nil
}

func (r *missionRepository) ListActiveByEventForUpdate(_ context.Context, accountID int64, kind models.MissionEventKind, now time.Time) ([]*models.Mission, error) {
	var out []*models.Mission
	for _, m := range r.t.missions {
		if m.AccountID == accountID && m.EventKind == kind && m.Status == models.MissionStatusActive && now.Before(m.ExpiresAt) {
			out = append(out, cloneMission(m))
		}
	}
	slices.SortFunc(out, func(a, b *models.Mission) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *missionRepository) Update(_ context.Context, mission *models.Mission) error {
	m, ok := r.t.missions[mission.ID]
	if !ok {
		return fmt.Errorf("mission %d not found", mission.ID)
	}
	if mission.Current < 0 || mission.Current > m.Target {
		return fmt.Errorf("failed to update mission %d: %w", mission.ID, errCheckViolation)
	}
	updated := cloneMission(m)
	updated.Current = mission.Current
	updated.Status = mission.Status
	updated.CompletedAt = nil
	if mission.CompletedAt != nil {
		at := *mission.CompletedAt
		updated.CompletedAt = &at
	}
	saveRow(r.undo, r.t.missions, mission.ID, cloneMission)
	r.t.missions[mission.ID] = updated
	return nil
}

func (r *missionRepository) ListByAccount(_ context.Context, accountID int64, since time.Time) ([]*models.Mission, error) {
	var out []*models.Mission
	for _, m := range r.t.missions {
		if m.AccountID == accountID && !m.IssuedOn.Before(since) {
			out = append(out, cloneMission(m))
		}
	}
	slices.SortFunc(out, func(a, b *models.Mission) int {
		if c := b.IssuedOn.Compare(a.IssuedOn); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

type gameConfigRepository struct {
	t     *tables
	undo  *undoLog
	clock service.Clock
}

func (r *gameConfigRepository) GetByID(_ context.Context, id int64) (*models.GameConfig, error) {
	cfg, ok := r.t.configs[id]
	if !ok {
		return nil, nil
	}
	return cloneGameConfig(cfg), nil
}

func (r *gameConfigRepository) ListActive(_ context.Context) ([]*models.GameConfig, error) {
	var out []*models.GameConfig
	for _, cfg := range r.t.configs {
		if cfg.Active {
			out = append(out, cloneGameConfig(cfg))
		}
	}
	slices.SortFunc(out, func(a, b *models.GameConfig) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *gameConfigRepository) Upsert(_ context.Context, cfg *models.GameConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("failed to upsert game config %d: %w", cfg.ID, err)
	}
	stored := cloneGameConfig(cfg)
	if existing, ok := r.t.configs[cfg.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = r.clock.Now()
	}
	cfg.CreatedAt = stored.CreatedAt
	saveRow(r.undo, r.t.configs, cfg.ID, cloneGameConfig)
	r.t.configs[cfg.ID] = stored
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
