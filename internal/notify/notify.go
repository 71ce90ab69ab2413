package notify

import (
	"context"

	"shophub/internal/domain"
	applog "shophub/internal/log"
)

type EventKind string

const (
	OrderConfirmed EventKind = "order-confirmed"
	OrderShipped   EventKind = "order-shipped"
	OrderDelivered EventKind = "order-delivered"
)

// Event carries everything a notifier needs without reaching back into
// the database.
type Event struct {
	Kind        EventKind          `json:"kind"`
	OrderID     string             `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Email       string             `json:"email,omitempty"`
	FullName    string             `json:"full_name,omitempty"`
	Total       float64            `json:"total"`
	Lines       []domain.OrderLine `json:"lines,omitempty"`
	Tracking    string             `json:"tracking,omitempty"`
	Carrier     string             `json:"carrier,omitempty"`
}

// Dispatcher is the fire-and-forget notification boundary. Callers
// invoke it after commit, in a goroutine, and never act on its error
// beyond logging.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event) error
}

// Fire runs a dispatch in the background and swallows the result.
// Delivery failure must never surface as an order failure.
func Fire(d Dispatcher, ev Event) {
	if d == nil {
		return
	}
	go func() {
		if err := d.Dispatch(context.Background(), ev); err != nil {
			applog.EventError("notify.dispatch.fail", err, map[string]any{
				"kind": string(ev.Kind), "order": ev.OrderNumber,
			})
		}
	}()
}

// LogDispatcher writes the event as an audit log line. The default when
// no mail or broker is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, ev Event) error {
	applog.Event("notify.dispatch", map[string]any{
		"kind": string(ev.Kind), "order": ev.OrderNumber, "email": ev.Email, "total": ev.Total,
	})
	return nil
}
