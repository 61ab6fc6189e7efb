package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"scratcher/models"
	"scratcher/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

type capturingSubscriber struct {
	subject string
	handler func([]byte) error
}

func (s *capturingSubscriber) Subscribe(subject string, handler func([]byte) error) error {
	s.subject = subject
	s.handler = handler
	return nil
}

type recordingSink struct {
	callbacks []service.SettlementCallback
	err       error
}

func (s *recordingSink) Deliver(_ context.Context, cb service.SettlementCallback) error {
	if s.err != nil {
		return s.err
	}
	s.callbacks = append(s.callbacks, cb)
	return nil
}

func TestNATSGateway_PublishesPerKindSubject(t *testing.T) {
	pub := &recordingPublisher{}
	gateway := NewNATSGateway(pub, "payments.requests")

	req := service.SettlementRequest{
		TransactionID: 42,
		AccountID:     7,
		Kind:          models.TransactionKindWithdrawal,
		Amount:        models.MustMoney("25.50"),
		Method:        models.PaymentMethodPIX,
		ExternalRef:   "wd-42",
		Destination:   "player@example.com",
	}
	require.NoError(t, gateway.Submit(context.Background(), req))

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "payments.requests.withdrawal", pub.subjects[0])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.EqualValues(t, 42, decoded["transaction_id"])
	assert.Equal(t, "25.5", decoded["amount"])
	assert.Equal(t, "player@example.com", decoded["destination"])
}

func TestNATSGateway_PublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("no responders")}
	gateway := NewNATSGateway(pub, "payments.requests")

	err := gateway.Submit(context.Background(), service.SettlementRequest{TransactionID: 1, Kind: models.TransactionKindDeposit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no responders")
}

func TestNATSSettlementListener_DeliversCallbacks(t *testing.T) {
	sub := &capturingSubscriber{}
	sink := &recordingSink{}
	listener := NewNATSSettlementListener(sub, "payments.callbacks", sink)

	require.NoError(t, listener.Start(context.Background()))
	assert.Equal(t, "payments.callbacks", sub.subject)

	require.NoError(t, sub.handler([]byte(`{"transaction_id":5,"outcome":"approved"}`)))
	require.Len(t, sink.callbacks, 1)
	assert.Equal(t, int64(5), sink.callbacks[0].TransactionID)
	assert.Equal(t, models.SettlementApproved, sink.callbacks[0].Outcome)
}

func TestNATSSettlementListener_DropsMalformed(t *testing.T) {
	sub := &capturingSubscriber{}
	sink := &recordingSink{}
	require.NoError(t, NewNATSSettlementListener(sub, "payments.callbacks", sink).Start(context.Background()))

	for _, payload := range []string{
		`not json`,
		`{"transaction_id":0,"outcome":"approved"}`,
		`{"transaction_id":3,"outcome":"maybe"}`,
	} {
		assert.NoError(t, sub.handler([]byte(payload)), payload)
	}
	assert.Empty(t, sink.callbacks)
}

func TestNATSSettlementListener_RedeliversOnSinkError(t *testing.T) {
	sub := &capturingSubscriber{}
	sink := &recordingSink{err: service.ErrProcessorStopped}
	require.NoError(t, NewNATSSettlementListener(sub, "payments.callbacks", sink).Start(context.Background()))

	err := sub.handler([]byte(`{"transaction_id":9,"outcome":"rejected"}`))
	assert.ErrorIs(t, err, service.ErrProcessorStopped)
}
