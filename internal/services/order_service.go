package services

import (
	"encoding/hex"
	"strings"

	"shophub/internal/domain"
	"shophub/internal/notify"
	"shophub/internal/repos"

	"github.com/google/uuid"
)

type OrderService struct {
	Carts  *repos.CartRepo
	Prods  *repos.ProductRepo
	Orders *repos.OrderRepo
	Notify notify.Dispatcher

	TaxRate     float64
	ShippingFee float64
	Prefix      string
}

func NewOrderService(carts *repos.CartRepo, prods *repos.ProductRepo, orders *repos.OrderRepo, dispatcher notify.Dispatcher) *OrderService {
	return &OrderService{
		Carts:       carts,
		Prods:       prods,
		Orders:      orders,
		Notify:      dispatcher,
		TaxRate:     0.10,
		ShippingFee: 5.00,
		Prefix:      "ORD-",
	}
}

// orderNumber builds the human-readable unique order number. Uniqueness
// is still enforced by the orders.order_number index, not assumed from
// randomness alone.
func (s *OrderService) orderNumber() string {
	u := uuid.New()
	return s.Prefix + strings.ToUpper(hex.EncodeToString(u[:])[:12])
}

// Place converts the session's cart into a durable order. The order
// row, line snapshots, stock decrements, history entry and cart clear
// commit as one transaction; any stock shortfall rolls everything back
// and the cart is left untouched. Notification dispatch happens after
// commit and can never fail the order.
func (s *OrderService) Place(sessionID string, addr domain.Address, user *domain.User, notes string) (domain.Order, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return domain.Order{}, err
	}

	joined, err := s.Carts.Joined(cartID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(joined) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	orderID := uuid.NewString()
	lines := make([]domain.OrderLine, 0, len(joined))
	subtotal := 0.0
	for _, jl := range joined {
		if !jl.ProductOK {
			return domain.Order{}, &domain.CartInconsistencyError{ProductID: jl.ProductID}
		}
		ln := domain.OrderLine{
			OrderID:     orderID,
			ProductID:   jl.ProductID,
			ProductName: jl.ProductName,
			ProductSKU:  jl.ProductSKU,
			Qty:         jl.Qty,
			UnitPrice:   jl.PriceAtAdd,
			LineTotal:   domain.Round2(jl.PriceAtAdd * float64(jl.Qty)),
		}
		// A variant row deleted since the add is dropped from the
		// snapshot, same as the cart view; only live variants get the
		// stock decrement.
		if jl.VariantID != "" && jl.VariantOK {
			ln.VariantID = jl.VariantID
			ln.VariantLabel = domain.Variant{Name: jl.VariantName, Value: jl.VariantValue}.Label()
		}
		lines = append(lines, ln)
		subtotal += ln.LineTotal
	}

	subtotal = domain.Round2(subtotal)
	tax := domain.Round2(subtotal * s.TaxRate)
	shipping := domain.Round2(s.ShippingFee)
	discount := 0.0

	o := domain.Order{
		ID:            orderID,
		Number:        s.orderNumber(),
		SessionID:     sessionID,
		Status:        domain.OrderPending,
		PaymentStatus: domain.PayPending,
		Subtotal:      subtotal,
		Tax:           tax,
		ShippingCost:  shipping,
		Discount:      discount,
		Total:         domain.Round2(subtotal + tax + shipping - discount),
		Address:       addr,
		CustomerNotes: notes,
	}
	if user != nil {
		o.UserID = user.ID
	}

	if err := s.Orders.Create(o, lines, cartID); err != nil {
		return domain.Order{}, err
	}

	ev := notify.Event{
		Kind:        notify.OrderConfirmed,
		OrderID:     o.ID,
		OrderNumber: o.Number,
		FullName:    addr.FullName,
		Total:       o.Total,
		Lines:       lines,
	}
	if user != nil {
		ev.Email = user.Email
	}
	notify.Fire(s.Notify, ev)

	return o, nil
}

// Transition advances the order status through the permitted graph,
// appending exactly one history row. Refunding flips payment_status in
// the same transaction. Shipped and delivered also emit a notification
// after the transition commits.
func (s *OrderService) Transition(orderID string, next domain.OrderStatus, actor *domain.User, note string) (domain.Order, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !next.Valid() || !o.Status.CanTransitionTo(next) {
		return domain.Order{}, &domain.InvalidTransitionError{From: o.Status, To: next}
	}

	actorID := ""
	if actor != nil {
		actorID = actor.ID
	}
	if err := s.Orders.Transition(orderID, next, actorID, note); err != nil {
		return domain.Order{}, err
	}

	updated, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	switch next {
	case domain.OrderShipped, domain.OrderDelivered:
		kind := notify.OrderShipped
		if next == domain.OrderDelivered {
			kind = notify.OrderDelivered
		}
		notify.Fire(s.Notify, notify.Event{
			Kind:        kind,
			OrderID:     updated.ID,
			OrderNumber: updated.Number,
			FullName:    updated.FullName,
			Total:       updated.Total,
			Tracking:    updated.TrackingNumber,
			Carrier:     updated.Carrier,
		})
	}

	return updated, nil
}

// BulkResult reports one order's outcome within a batch transition.
type BulkResult struct {
	OrderID string
	Err     error
}

// BulkTransition applies the same transition to each order
// independently; one failure never blocks the rest.
func (s *OrderService) BulkTransition(orderIDs []string, next domain.OrderStatus, actor *domain.User, note string) []BulkResult {
	out := make([]BulkResult, 0, len(orderIDs))
	for _, id := range orderIDs {
		_, err := s.Transition(id, next, actor, note)
		out = append(out, BulkResult{OrderID: id, Err: err})
	}
	return out
}

func (s *OrderService) Get(orderID string) (domain.Order, []domain.OrderLine, error) {
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	lines, err := s.Orders.Lines(orderID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	return o, lines, nil
}

func (s *OrderService) History(orderID string) ([]domain.StatusEntry, error) {
	return s.Orders.History(orderID)
}
