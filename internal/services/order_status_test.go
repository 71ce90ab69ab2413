package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shophub/internal/domain"
	"shophub/internal/notify"
	"shophub/internal/services"
)

// chanDispatcher captures events for assertions; Fire runs dispatch in
// a goroutine so tests read from the channel with a timeout.
type chanDispatcher struct{ ch chan notify.Event }

func (d *chanDispatcher) Dispatch(_ context.Context, ev notify.Event) error {
	d.ch <- ev
	return nil
}

func (d *chanDispatcher) wait(t *testing.T) notify.Event {
	t.Helper()
	select {
	case ev := <-d.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event dispatched")
		return notify.Event{}
	}
}

func placeTestOrder(t *testing.T, cartSvc *services.CartService, orderSvc *services.OrderService, sid string) domain.Order {
	t.Helper()
	require.NoError(t, cartSvc.Add(sid, "p-lamp", "", 1, false))
	o, err := orderSvc.Place(sid, testAddr(), nil, "")
	require.NoError(t, err)
	return o
}

func TestTransitionGraph(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo, _ := newOrderSvc(db)
	disp := &chanDispatcher{ch: make(chan notify.Event, 8)}
	orderSvc.Notify = disp

	o := placeTestOrder(t, cartSvc, orderSvc, "fsm-session")
	disp.wait(t) // order-confirmed

	// pending -> delivered is not reachable directly
	_, err := orderSvc.Transition(o.ID, domain.OrderDelivered, nil, "")
	var bad *domain.InvalidTransitionError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, domain.OrderPending, bad.From)
	assert.Equal(t, domain.OrderDelivered, bad.To)

	// unknown status is rejected before touching the repo
	_, err = orderSvc.Transition(o.ID, domain.OrderStatus("teleported"), nil, "")
	require.ErrorAs(t, err, &bad)

	up, err := orderSvc.Transition(o.ID, domain.OrderProcessing, nil, "picking")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderProcessing, up.Status)

	up, err = orderSvc.Transition(o.ID, domain.OrderShipped, nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, up.ShippedAt, "shipped_at should be stamped")
	ev := disp.wait(t)
	assert.Equal(t, notify.OrderShipped, ev.Kind)
	assert.Equal(t, o.Number, ev.OrderNumber)

	up, err = orderSvc.Transition(o.ID, domain.OrderDelivered, nil, "")
	require.NoError(t, err)
	assert.NotEmpty(t, up.DeliveredAt)
	ev = disp.wait(t)
	assert.Equal(t, notify.OrderDelivered, ev.Kind)

	// delivered -> cancelled is forbidden; only refunded remains
	_, err = orderSvc.Transition(o.ID, domain.OrderCancelled, nil, "")
	require.ErrorAs(t, err, &bad)

	// refunding the order flips its payment status too
	up, err = orderSvc.Transition(o.ID, domain.OrderRefunded, nil, "chargeback")
	require.NoError(t, err)
	assert.Equal(t, domain.PayRefunded, up.PaymentStatus)

	// history grew one row per transition plus the creation row
	hist, err := orderRepo.History(o.ID)
	require.NoError(t, err)
	require.Len(t, hist, 5)
	assert.Equal(t, domain.OrderPending, hist[0].Status)
	assert.Equal(t, domain.OrderRefunded, hist[4].Status)
	assert.Equal(t, "picking", hist[1].Note)
}

func TestTransitionTerminalStates(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _, _ := newOrderSvc(db)

	o := placeTestOrder(t, cartSvc, orderSvc, "terminal-session")
	_, err := orderSvc.Transition(o.ID, domain.OrderCancelled, nil, "customer changed mind")
	require.NoError(t, err)

	for _, next := range []domain.OrderStatus{
		domain.OrderPending, domain.OrderProcessing, domain.OrderShipped,
		domain.OrderDelivered, domain.OrderRefunded,
	} {
		_, err := orderSvc.Transition(o.ID, next, nil, "")
		var bad *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &bad, "cancelled must be terminal, %s accepted", next)
	}
}

func TestBulkTransitionPartialFailure(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _, _ := newOrderSvc(db)

	a := placeTestOrder(t, cartSvc, orderSvc, "bulk-a")
	b := placeTestOrder(t, cartSvc, orderSvc, "bulk-b")

	// b is already cancelled, so only a can move to processing
	_, err := orderSvc.Transition(b.ID, domain.OrderCancelled, nil, "")
	require.NoError(t, err)

	results := orderSvc.BulkTransition([]string{a.ID, b.ID, "no-such-order"}, domain.OrderProcessing, nil, "batch")
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	var bad *domain.InvalidTransitionError
	assert.ErrorAs(t, results[1].Err, &bad)
	assert.ErrorIs(t, results[2].Err, domain.ErrOrderNotFound)

	got, _, err := orderSvc.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderProcessing, got.Status)
}
