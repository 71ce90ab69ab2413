package domain

import "math"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// orderTransitions is the permitted status graph. Terminal states
// (delivered, cancelled, refunded) have no outgoing edges except the
// delivered -> refunded path for post-delivery refunds.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderShipped, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered, OrderCancelled},
	OrderDelivered:  {OrderRefunded},
	OrderCancelled:  {},
	OrderRefunded:   {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether the status graph permits moving to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

type OrderPaymentStatus string

const (
	PayPending   OrderPaymentStatus = "pending"
	PayCompleted OrderPaymentStatus = "completed"
	PayFailed    OrderPaymentStatus = "failed"
	PayRefunded  OrderPaymentStatus = "refunded"
)

// Address is the shipping address snapshot stored on an order.
type Address struct {
	FullName   string `db:"shipping_full_name"`
	Phone      string `db:"shipping_phone"`
	Line1      string `db:"shipping_line1"`
	Line2      string `db:"shipping_line2"`
	City       string `db:"shipping_city"`
	State      string `db:"shipping_state"`
	Country    string `db:"shipping_country"`
	PostalCode string `db:"shipping_postal_code"`
}

type Order struct {
	ID            string             `db:"id"`
	Number        string             `db:"order_number"`
	SessionID     string             `db:"session_id"`
	UserID        string             `db:"user_id"`
	Status        OrderStatus        `db:"status"`
	PaymentStatus OrderPaymentStatus `db:"payment_status"`

	Subtotal     float64 `db:"subtotal"`
	Tax          float64 `db:"tax"`
	ShippingCost float64 `db:"shipping_cost"`
	Discount     float64 `db:"discount"`
	Total        float64 `db:"total"`

	Address

	CustomerNotes  string `db:"customer_notes"`
	TrackingNumber string `db:"tracking_number"`
	Carrier        string `db:"carrier"`

	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
	PaidAt      string `db:"paid_at"`
	ShippedAt   string `db:"shipped_at"`
	DeliveredAt string `db:"delivered_at"`
}

// OrderLine snapshots one cart line at order time. Later product or
// variant mutations never change it.
type OrderLine struct {
	OrderID      string  `db:"order_id"`
	ProductID    string  `db:"product_id"`
	VariantID    string  `db:"variant_id"` // empty when the line has no variant
	ProductName  string  `db:"product_name"`
	ProductSKU   string  `db:"product_sku"`
	VariantLabel string  `db:"variant_label"`
	Qty          int     `db:"qty"`
	UnitPrice    float64 `db:"unit_price"`
	LineTotal    float64 `db:"line_total"`
}

// StatusEntry is one row of the append-only order status history.
type StatusEntry struct {
	ID        int64       `db:"id"`
	OrderID   string      `db:"order_id"`
	Status    OrderStatus `db:"status"`
	Note      string      `db:"note"`
	ActorID   string      `db:"actor_id"`
	CreatedAt string      `db:"created_at"`
}

// Round2 rounds a money amount to cents. All pricing math goes through
// this so that total == subtotal + tax + shipping - discount holds exactly.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
