package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"scratcher/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the operator-maintained description of the playable games, the
// odds curve and the progression rewards
type Catalog struct {
	Odds        []OddsBand  `yaml:"odds"`
	Tiers       []TierSpec  `yaml:"tiers"`
	Games       []GameSpec  `yaml:"games"`
	Progression Progression `yaml:"progression"`
}

type OddsBand struct {
	MinPrice    decimal.Decimal `yaml:"min_price"`
	Probability float64         `yaml:"probability"`
}

type TierSpec struct {
	Multiplier decimal.Decimal `yaml:"multiplier"`
	Max        bool            `yaml:"max"`
	Cumulative float64         `yaml:"cumulative"`
}

type GameSpec struct {
	ID             int64           `yaml:"id"`
	Name           string          `yaml:"name"`
	Theme          string          `yaml:"theme"`
	Description    string          `yaml:"description"`
	Price          decimal.Decimal `yaml:"price"`
	MaxPrize       decimal.Decimal `yaml:"max_prize"`
	Symbols        []string        `yaml:"symbols"`
	GridSize       int             `yaml:"grid_size"`
	WinProbability *float64        `yaml:"win_probability"`
	Tiers          []TierSpec      `yaml:"tiers"`
	Inactive       bool            `yaml:"inactive"`
}

// BonusGrant is a fixed bonus: free games and/or a monetary amount
type BonusGrant struct {
	FreeGames int             `yaml:"free_games"`
	Amount    decimal.Decimal `yaml:"amount"`
	ValidFor  time.Duration   `yaml:"valid_for"`
}

type ReloadTier struct {
	MinDeposit decimal.Decimal `yaml:"min_deposit"`
	Percent    decimal.Decimal `yaml:"percent"`
}

type ReloadRules struct {
	ValidFor time.Duration `yaml:"valid_for"`
	Tiers    []ReloadTier  `yaml:"tiers"`
}

// BonusFor returns the reload bonus for a deposit amount: the percentage of
// the highest tier the deposit reaches, or zero.
func (r ReloadRules) BonusFor(deposit decimal.Decimal) decimal.Decimal {
	percent := decimal.Zero
	best := decimal.NewFromInt(-1)
	for _, t := range r.Tiers {
		if deposit.GreaterThanOrEqual(t.MinDeposit) && t.MinDeposit.GreaterThan(best) {
			best = t.MinDeposit
			percent = t.Percent
		}
	}
	return models.Money(deposit.Mul(percent).Div(decimal.NewFromInt(100)))
}

type LevelSpec struct {
	Level     models.LoyaltyLevel `yaml:"level"`
	MinPoints int64               `yaml:"min_points"`
	FreeGames int                 `yaml:"free_games"`
	Amount    decimal.Decimal     `yaml:"amount"`
}

type LoyaltyRules struct {
	PointsPerUnit   int64         `yaml:"points_per_unit"`
	LevelUpValidFor time.Duration `yaml:"level_up_valid_for"`
	Levels          []LevelSpec   `yaml:"levels"`
}

// Ladder returns the level thresholds in ascending order
func (l LoyaltyRules) Ladder() models.LoyaltyLadder {
	ladder := make(models.LoyaltyLadder, 0, len(l.Levels))
	for _, lvl := range l.Levels {
		ladder = append(ladder, models.LoyaltyThreshold{Level: lvl.Level, MinPoints: lvl.MinPoints})
	}
	return ladder
}

// Reward returns the level-up bonus for reaching level
func (l LoyaltyRules) Reward(level models.LoyaltyLevel) (LevelSpec, bool) {
	for _, lvl := range l.Levels {
		if lvl.Level == level {
			return lvl, lvl.FreeGames > 0 || lvl.Amount.IsPositive()
		}
	}
	return LevelSpec{}, false
}

// PointsFor returns floor(stake * points_per_unit)
func (l LoyaltyRules) PointsFor(stake decimal.Decimal) int64 {
	return stake.Mul(decimal.NewFromInt(l.PointsPerUnit)).Floor().IntPart()
}

type MissionTemplate struct {
	Template    string                   `yaml:"template"`
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description"`
	Event       models.MissionEventKind  `yaml:"event"`
	Target      int                      `yaml:"target"`
	RewardType  models.MissionRewardType `yaml:"reward_type"`
	RewardValue decimal.Decimal          `yaml:"reward_value"`
}

type MissionRules struct {
	ValidFor       time.Duration     `yaml:"valid_for"`
	RewardValidFor time.Duration     `yaml:"reward_valid_for"`
	Templates      []MissionTemplate `yaml:"templates"`
}

type Progression struct {
	Welcome  BonusGrant   `yaml:"welcome"`
	Daily    BonusGrant   `yaml:"daily"`
	Reload   ReloadRules  `yaml:"reload"`
	Loyalty  LoyaltyRules `yaml:"loyalty"`
	Missions MissionRules `yaml:"missions"`
}

// LoadCatalog reads the catalog at path, or the built-in catalog when path is empty
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
		}
	}
	return ParseCatalog(data)
}

// DefaultCatalog returns the built-in catalog. It panics if the embedded file
// is broken.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// ParseCatalog decodes and validates a YAML catalog
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if _, err := c.GameConfigs(); err != nil {
		return nil, err
	}
	if len(c.Odds) == 0 {
		return nil, fmt.Errorf("catalog has no odds bands")
	}
	prev := int64(-1)
	for _, lvl := range c.Progression.Loyalty.Levels {
		if lvl.MinPoints <= prev {
			return nil, fmt.Errorf("loyalty level %s is not above the previous threshold", lvl.Level)
		}
		prev = lvl.MinPoints
	}
	for _, m := range c.Progression.Missions.Templates {
		if m.Target <= 0 {
			return nil, fmt.Errorf("mission %s needs a positive target", m.Template)
		}
	}
	return &c, nil
}

// OddsCurve converts the odds bands
func (c *Catalog) OddsCurve() models.OddsCurve {
	curve := make(models.OddsCurve, 0, len(c.Odds))
	for _, b := range c.Odds {
		curve = append(curve, models.PriceBand{MinPrice: b.MinPrice, Probability: b.Probability})
	}
	return curve
}

// GameConfigs converts and validates the game entries. Games without their
// own tiers use the catalog-wide tiers.
func (c *Catalog) GameConfigs() ([]*models.GameConfig, error) {
	seen := make(map[int64]bool, len(c.Games))
	configs := make([]*models.GameConfig, 0, len(c.Games))
	for _, g := range c.Games {
		if seen[g.ID] {
			return nil, fmt.Errorf("duplicate game id %d in catalog", g.ID)
		}
		seen[g.ID] = true

		tiers := g.Tiers
		if len(tiers) == 0 {
			tiers = c.Tiers
		}
		cfg := &models.GameConfig{
			ID:             g.ID,
			Name:           g.Name,
			Theme:          g.Theme,
			Description:    g.Description,
			Price:          models.Money(g.Price),
			MaxPrize:       models.Money(g.MaxPrize),
			Symbols:        g.Symbols,
			GridSize:       g.GridSize,
			WinProbability: g.WinProbability,
			Tiers:          convertTiers(tiers),
			Active:         !g.Inactive,
		}
		if cfg.GridSize == 0 {
			cfg.GridSize = models.DefaultGridSize
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func convertTiers(specs []TierSpec) []models.PrizeTier {
	if len(specs) == 0 {
		return nil
	}
	tiers := make([]models.PrizeTier, 0, len(specs))
	for _, s := range specs {
		tiers = append(tiers, models.PrizeTier{Multiplier: s.Multiplier, Max: s.Max, Cumulative: s.Cumulative})
	}
	return tiers
}
