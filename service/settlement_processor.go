package service

import (
	"context"
	"errors"
	"sync"

	"scratcher/models"

	log "github.com/sirupsen/logrus"
)

// ErrProcessorStopped is returned when delivering to a stopped processor
var ErrProcessorStopped = errors.New("settlement processor stopped")

// SettlementApplier applies one settlement callback
type SettlementApplier interface {
	ApplySettlement(ctx context.Context, callback SettlementCallback) (*models.Transaction, error)
}

// SettlementProcessor drains gateway callbacks on its own goroutine and
// applies them one at a time. Delivering the same callback more than once is
// safe: repeats are logged and dropped.
type SettlementProcessor struct {
	queue   chan SettlementCallback
	stopped chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewSettlementProcessor creates a processor with a queue of queueLen callbacks
func NewSettlementProcessor(queueLen int) *SettlementProcessor {
	if queueLen <= 0 {
		queueLen = 1
	}
	return &SettlementProcessor{
		queue:   make(chan SettlementCallback, queueLen),
		stopped: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Deliver enqueues a callback, blocking while the queue is full
func (p *SettlementProcessor) Deliver(ctx context.Context, callback SettlementCallback) error {
	select {
	case <-p.stopped:
		return ErrProcessorStopped
	default:
	}

	select {
	case p.queue <- callback:
		return nil
	case <-p.stopped:
		return ErrProcessorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs the processor until ctx is cancelled or Stop is called.
// Callbacks still queued at that point are applied before it returns.
func (p *SettlementProcessor) Start(ctx context.Context, applier SettlementApplier) {
	go func() {
		defer close(p.done)
		log.Info("Settlement processor started")

		for {
			select {
			case cb := <-p.queue:
				p.apply(ctx, applier, cb)
			case <-ctx.Done():
				p.Stop()
				p.drain(context.WithoutCancel(ctx), applier)
				return
			case <-p.stopped:
				p.drain(context.WithoutCancel(ctx), applier)
				return
			}
		}
	}()
}

// Stop stops accepting callbacks
func (p *SettlementProcessor) Stop() {
	p.once.Do(func() { close(p.stopped) })
}

// Wait blocks until the processing goroutine has exited
func (p *SettlementProcessor) Wait() {
	<-p.done
}

func (p *SettlementProcessor) drain(ctx context.Context, applier SettlementApplier) {
	for {
		select {
		case cb := <-p.queue:
			p.apply(ctx, applier, cb)
		default:
			log.Info("Settlement processor stopped")
			return
		}
	}
}

func (p *SettlementProcessor) apply(ctx context.Context, applier SettlementApplier, cb SettlementCallback) {
	fields := log.Fields{
		"transactionID": cb.TransactionID,
		"outcome":       cb.Outcome,
	}

	_, err := applier.ApplySettlement(ctx, cb)
	switch {
	case err == nil:
	case IsSettlementConflict(err):
		log.WithFields(fields).Info("Ignoring repeated settlement callback")
	case errors.Is(err, ErrTransactionNotFound):
		log.WithFields(fields).Warn("Settlement callback for unknown transaction")
	default:
		fields["error"] = err
		log.WithFields(fields).Error("Failed to apply settlement")
	}
}
