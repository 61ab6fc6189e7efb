package cmd

import (
	"flag"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"scratcher/config"
	"scratcher/models"
	"scratcher/service"

	"github.com/shopspring/decimal"
)

// GameReport summarizes many generated cards of one game
type GameReport struct {
	Config      *models.GameConfig
	Trials      int
	Wins        int
	Expected    float64
	ChiSquared  float64
	Staked      decimal.Decimal
	Paid        decimal.Decimal
	PrizeCounts map[string]int // prize amount -> wins
}

// WinRate is the observed share of winning cards
func (r GameReport) WinRate() float64 {
	if r.Trials == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Trials)
}

// ReturnToPlayer is prizes paid over stakes taken
func (r GameReport) ReturnToPlayer() float64 {
	if r.Staked.IsZero() {
		return 0
	}
	return r.Paid.Div(r.Staked).InexactFloat64()
}

// AnalyzeGame generates trials cards of cfg and tallies the results
func AnalyzeGame(generator *service.OutcomeGenerator, cfg *models.GameConfig, trials int) GameReport {
	report := GameReport{
		Config:      cfg,
		Trials:      trials,
		Expected:    generator.WinProbability(cfg),
		Staked:      cfg.Price.Mul(decimal.NewFromInt(int64(trials))),
		Paid:        decimal.Zero,
		PrizeCounts: map[string]int{},
	}

	for range trials {
		outcome := generator.Generate(cfg)
		if !outcome.IsWinner {
			continue
		}
		report.Wins++
		report.Paid = report.Paid.Add(outcome.Prize)
		report.PrizeCounts[outcome.Prize.StringFixed(2)]++
	}

	// χ² of wins/losses against the configured probability
	p := report.Expected
	if p > 0 && p < 1 {
		expectedWins := float64(trials) * p
		expectedLosses := float64(trials) * (1 - p)
		report.ChiSquared = math.Pow(float64(report.Wins)-expectedWins, 2)/expectedWins +
			math.Pow(float64(trials-report.Wins)-expectedLosses, 2)/expectedLosses
	}
	return report
}

// WriteReport prints a report in the same layout for every game
func WriteReport(w io.Writer, r GameReport) {
	fmt.Fprintf(w, "\n=== #%d %s (price %s, max prize %s) ===\n",
		r.Config.ID, r.Config.Name, r.Config.Price.StringFixed(2), r.Config.MaxPrize.StringFixed(2))
	fmt.Fprintf(w, "  Trials:         %d\n", r.Trials)
	fmt.Fprintf(w, "  Expected wins:  %.2f%%\n", r.Expected*100)
	fmt.Fprintf(w, "  Actual wins:    %d (%.4f%%)\n", r.Wins, r.WinRate()*100)
	fmt.Fprintf(w, "  χ²:             %.2f (should be < 3.84 for 95%% confidence with 1 df)\n", r.ChiSquared)
	fmt.Fprintf(w, "  Staked:         %s\n", r.Staked.StringFixed(2))
	fmt.Fprintf(w, "  Paid:           %s\n", r.Paid.StringFixed(2))
	fmt.Fprintf(w, "  Return:         %.2f%%\n", r.ReturnToPlayer()*100)

	prizes := make([]string, 0, len(r.PrizeCounts))
	for prize := range r.PrizeCounts {
		prizes = append(prizes, prize)
	}
	slices.SortFunc(prizes, func(a, b string) int {
		return decimal.RequireFromString(a).Cmp(decimal.RequireFromString(b))
	})

	fmt.Fprintln(w, "  Prize distribution:")
	for _, prize := range prizes {
		count := r.PrizeCounts[prize]
		share := float64(count) / float64(max(r.Wins, 1))
		fmt.Fprintf(w, "    %10s: %7d (%5.2f%%) %s\n", prize, count, share*100, strings.Repeat("█", int(share*40)))
	}
}

// Simulate runs the odds analysis over every game in the catalog
func Simulate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(out)
	trials := fs.Int("trials", 100000, "cards to generate per game")
	seed := fs.Uint64("seed", 0, "random seed, 0 for a random one")
	catalogPath := fs.String("catalog", "", "catalog YAML, empty for the built-in one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *trials <= 0 {
		return fmt.Errorf("trials must be positive")
	}

	catalog, err := config.LoadCatalog(*catalogPath)
	if err != nil {
		return err
	}
	games, err := catalog.GameConfigs()
	if err != nil {
		return err
	}

	rng := service.NewRandomSource()
	if *seed != 0 {
		rng = service.NewSeededRandomSource(*seed)
	}
	generator := service.NewOutcomeGenerator(rng, catalog.OddsCurve())

	fmt.Fprintln(out, "=== Scratch Card Odds Analysis ===")
	for _, cfg := range games {
		if !cfg.Active {
			continue
		}
		WriteReport(out, AnalyzeGame(generator, cfg, *trials))
	}
	return nil
}
