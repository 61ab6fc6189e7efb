package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"scratcher/models"

	"github.com/stretchr/testify/assert"
)

func balanceEvent(accountID int64, amount string) BalanceChangeEvent {
	return BalanceChangeEvent{
		AccountID:  accountID,
		Kind:       models.TransactionKindPrize,
		Amount:     models.MustMoney(amount),
		OldBalance: models.MustMoney("10.00"),
		NewBalance: models.MustMoney("10.00").Add(models.MustMoney(amount)),
	}
}

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		if e, ok := event.(BalanceChangeEvent); ok {
			eventReceived <- e
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := balanceEvent(123456, "25.00")
	transactionalBus.Publish(testEvent)
	assert.Equal(t, 1, transactionalBus.Pending())

	err := transactionalBus.Flush(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case received := <-eventReceived:
		assert.Equal(t, testEvent.AccountID, received.AccountID)
		assert.Equal(t, testEvent.Kind, received.Kind)
		assert.True(t, testEvent.Amount.Equal(received.Amount))
		assert.True(t, testEvent.NewBalance.Equal(received.NewBalance))
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan BalanceChangeEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		if e, ok := event.(BalanceChangeEvent); ok {
			eventsReceived <- e
		}
	})

	for i := int64(1); i <= 3; i++ {
		transactionalBus.Publish(balanceEvent(i, "1.00"))
	}
	assert.NoError(t, transactionalBus.Flush(context.Background()))
	wg.Wait()
	close(eventsReceived)

	accountIDs := make(map[int64]bool)
	for received := range eventsReceived {
		accountIDs[received.AccountID] = true
	}
	assert.Len(t, accountIDs, 3)
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)
	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(balanceEvent(123456, "5.00"))
	transactionalBus.Discard()
	assert.NoError(t, transactionalBus.Flush(context.Background()))

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFlushContextSurvivesCancellation(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	ctxErr := make(chan error, 1)
	mainBus.Subscribe(EventTypeGamePlayed, func(ctx context.Context, event Event) {
		ctxErr <- ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	transactionalBus.Publish(GamePlayedEvent{AccountID: 1, PlayID: 7})
	assert.NoError(t, transactionalBus.Flush(ctx))
	cancel()

	select {
	case err := <-ctxErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

func TestHandlerPanicDoesNotAffectOthers(t *testing.T) {
	mainBus := NewBus()

	delivered := make(chan struct{}, 1)
	mainBus.SubscribeAll(func(ctx context.Context, event Event) {
		panic("boom")
	}, EventTypePrizeWon)
	mainBus.Subscribe(EventTypePrizeWon, func(ctx context.Context, event Event) {
		delivered <- struct{}{}
	})

	mainBus.Emit(context.Background(), PrizeWonEvent{AccountID: 1, Prize: models.MustMoney("5.00")})

	select {
	case <-delivered:
	case <-time.After(2 * time.Second):
		t.Fatal("Second handler was not called")
	}
}
