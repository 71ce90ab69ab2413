package domain

type PaymentMethod string

const (
	MethodCreditCard     PaymentMethod = "credit_card"
	MethodDebitCard      PaymentMethod = "debit_card"
	MethodPayPal         PaymentMethod = "paypal"
	MethodStripe         PaymentMethod = "stripe"
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCreditCard, MethodDebitCard, MethodPayPal, MethodStripe, MethodCashOnDelivery:
		return true
	}
	return false
}

type PaymentState string

const (
	PaymentPending    PaymentState = "pending"
	PaymentProcessing PaymentState = "processing"
	PaymentCompleted  PaymentState = "completed"
	PaymentFailed     PaymentState = "failed"
	PaymentRefunded   PaymentState = "refunded"
	PaymentCancelled  PaymentState = "cancelled"
)

// Payment records one payment attempt against an order. Retries create
// new rows; the order's own payment_status is advanced separately.
type Payment struct {
	ID            string        `db:"id"`
	OrderID       string        `db:"order_id"`
	UserID        string        `db:"user_id"`
	Method        PaymentMethod `db:"method"`
	Status        PaymentState  `db:"status"`
	Amount        float64       `db:"amount"`
	Currency      string        `db:"currency"`
	TransactionID string        `db:"transaction_id"`
	GatewayRef    string        `db:"gateway_ref"`
	FailureReason string        `db:"failure_reason"`
	CreatedAt     string        `db:"created_at"`
	CompletedAt   string        `db:"completed_at"`
}

type RefundState string

const (
	RefundPending    RefundState = "pending"
	RefundProcessing RefundState = "processing"
	RefundCompleted  RefundState = "completed"
	RefundFailed     RefundState = "failed"
	RefundCancelled  RefundState = "cancelled"
)

type Refund struct {
	ID            string      `db:"id"`
	PaymentID     string      `db:"payment_id"`
	OrderID       string      `db:"order_id"`
	Amount        float64     `db:"amount"`
	Reason        string      `db:"reason"`
	Status        RefundState `db:"status"`
	TransactionID string      `db:"transaction_id"`
	ProcessedBy   string      `db:"processed_by"`
	CreatedAt     string      `db:"created_at"`
	ProcessedAt   string      `db:"processed_at"`
}
