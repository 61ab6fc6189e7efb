package infrastructure

import (
	"context"
	"strconv"

	"scratcher/events"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics exposes engine activity as Prometheus collectors fed from the event bus
type Metrics struct {
	Registry *prometheus.Registry

	playsTotal        *prometheus.CounterVec
	stakesTotal       prometheus.Counter
	prizesTotal       *prometheus.CounterVec
	balanceChanges    *prometheus.CounterVec
	settlementsTotal  *prometheus.CounterVec
	bonusesIssued     *prometheus.CounterVec
	missionsCompleted *prometheus.CounterVec
	loyaltyLevelUps   *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		playsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scratcher_plays_total",
				Help: "Committed plays by game config and result",
			},
			[]string{"config", "result", "free"},
		),
		stakesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scratcher_stakes_total",
				Help: "Sum of paid stakes",
			},
		),
		prizesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scratcher_prizes_total",
				Help: "Sum of prizes paid by winning symbol",
			},
			[]string{"symbol"},
		),
		balanceChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scratcher_balance_changes_total",
				Help: "Journaled wallet mutations by transaction kind",
			},
			[]string{"kind"},
		),
		settlementsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scratcher_settlements_total",
				Help: "Applied deposit and withdrawal settlements",
			},
			[]string{"kind", "status"},
		),
		bonusesIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scratcher_bonuses_issued_total",
				Help: "Bonuses issued by type",
			},
			[]string{"type"},
		),
		missionsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scratcher_missions_completed_total",
				Help: "Completed missions by template",
			},
			[]string{"template"},
		),
		loyaltyLevelUps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scratcher_loyalty_level_ups_total",
				Help: "Loyalty levels reached",
			},
			[]string{"level"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.playsTotal,
		m.stakesTotal,
		m.prizesTotal,
		m.balanceChanges,
		m.settlementsTotal,
		m.bonusesIssued,
		m.missionsCompleted,
		m.loyaltyLevelUps,
	)
	return m
}

// Subscribe wires the collectors to bus
func (m *Metrics) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(m.observe,
		events.EventTypeGamePlayed,
		events.EventTypePrizeWon,
		events.EventTypeBalanceChange,
		events.EventTypeSettlementApplied,
		events.EventTypeBonusIssued,
		events.EventTypeMissionCompleted,
		events.EventTypeLoyaltyLevelUp,
	)
}

func (m *Metrics) observe(_ context.Context, event events.Event) {
	switch e := event.(type) {
	case events.GamePlayedEvent:
		result := "loss"
		if e.Won {
			result = "win"
		}
		m.playsTotal.WithLabelValues(strconv.FormatInt(e.ConfigID, 10), result, boolLabel(e.FreePlay)).Inc()
		if !e.FreePlay {
			m.stakesTotal.Add(e.Stake.InexactFloat64())
		}
	case events.PrizeWonEvent:
		m.prizesTotal.WithLabelValues(e.Symbol).Add(e.Prize.InexactFloat64())
	case events.BalanceChangeEvent:
		m.balanceChanges.WithLabelValues(string(e.Kind)).Inc()
	case events.SettlementAppliedEvent:
		m.settlementsTotal.WithLabelValues(string(e.Kind), string(e.Status)).Inc()
	case events.BonusIssuedEvent:
		m.bonusesIssued.WithLabelValues(string(e.BonusType)).Inc()
	case events.MissionCompletedEvent:
		m.missionsCompleted.WithLabelValues(e.Template).Inc()
	case events.LoyaltyLevelUpEvent:
		m.loyaltyLevelUps.WithLabelValues(string(e.NewLevel)).Inc()
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
