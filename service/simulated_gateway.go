package service

import (
	"context"
	"time"

	"scratcher/models"

	log "github.com/sirupsen/logrus"
)

// SimulatedGateway stands in for a payment processor. Every request is
// answered after a fixed delay with the verdict of Decide, which approves
// everything when nil.
type SimulatedGateway struct {
	sink   SettlementSink
	delay  time.Duration
	clock  Clock
	Decide func(req SettlementRequest) models.SettlementOutcome
}

// NewSimulatedGateway creates a gateway that delivers verdicts to sink
func NewSimulatedGateway(sink SettlementSink, delay time.Duration, clock Clock) *SimulatedGateway {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &SimulatedGateway{sink: sink, delay: delay, clock: clock}
}

// Submit accepts the request and answers it in the background
func (g *SimulatedGateway) Submit(ctx context.Context, req SettlementRequest) error {
	outcome := models.SettlementApproved
	if g.Decide != nil {
		outcome = g.Decide(req)
	}

	go func() {
		ctx := context.WithoutCancel(ctx)
		if g.delay > 0 {
			<-g.clock.After(g.delay)
		}

		callback := SettlementCallback{TransactionID: req.TransactionID, Outcome: outcome}
		if err := g.sink.Deliver(ctx, callback); err != nil {
			log.WithFields(log.Fields{
				"transactionID": req.TransactionID,
				"error":         err,
			}).Error("Failed to deliver simulated settlement")
		}
	}()
	return nil
}
