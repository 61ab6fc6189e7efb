package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"scratcher/service"

	log "github.com/sirupsen/logrus"
)

// NATSGateway forwards settlement requests to the payment processor over NATS
type NATSGateway struct {
	publisher MessagePublisher
	subject   string
}

// NewNATSGateway creates a gateway publishing on subject.<kind>
func NewNATSGateway(publisher MessagePublisher, subject string) *NATSGateway {
	return &NATSGateway{publisher: publisher, subject: subject}
}

// Submit publishes req as JSON
func (g *NATSGateway) Submit(ctx context.Context, req service.SettlementRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode settlement request: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", g.subject, req.Kind)
	if err := g.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish settlement request %d: %w", req.TransactionID, err)
	}

	log.WithFields(log.Fields{
		"transactionID": req.TransactionID,
		"kind":          req.Kind,
		"subject":       subject,
	}).Info("Submitted settlement request")
	return nil
}

// errMalformedCallback marks callbacks that redelivery cannot fix
var errMalformedCallback = errors.New("malformed settlement callback")

// NATSSettlementListener feeds processor callbacks from NATS into a sink
type NATSSettlementListener struct {
	subscriber MessageSubscriber
	subject    string
	sink       service.SettlementSink
	ctx        context.Context
}

// NewNATSSettlementListener creates a listener for subject
func NewNATSSettlementListener(subscriber MessageSubscriber, subject string, sink service.SettlementSink) *NATSSettlementListener {
	return &NATSSettlementListener{subscriber: subscriber, subject: subject, sink: sink, ctx: context.Background()}
}

// Start subscribes. Callbacks are delivered with ctx.
func (l *NATSSettlementListener) Start(ctx context.Context) error {
	l.ctx = ctx
	return l.subscriber.Subscribe(l.subject, l.handle)
}

// handle decodes one callback. Malformed payloads are dropped, delivery
// failures are returned so the message is redelivered.
func (l *NATSSettlementListener) handle(data []byte) error {
	var cb service.SettlementCallback
	if err := json.Unmarshal(data, &cb); err != nil || cb.TransactionID <= 0 || !cb.Outcome.Valid() {
		log.WithFields(log.Fields{
			"subject": l.subject,
			"payload": string(data),
			"error":   err,
		}).Warn("Dropping " + errMalformedCallback.Error())
		return nil
	}

	if err := l.sink.Deliver(l.ctx, cb); err != nil {
		return fmt.Errorf("failed to deliver callback for transaction %d: %w", cb.TransactionID, err)
	}
	return nil
}
