package services

import (
	"errors"

	"shophub/internal/domain"
	"shophub/internal/repos"

	"github.com/google/uuid"
)

var ErrBadPaymentMethod = errors.New("unknown payment method")

type PaymentService struct {
	Payments *repos.PaymentRepo
	Orders   *repos.OrderRepo
}

func NewPaymentService(payments *repos.PaymentRepo, orders *repos.OrderRepo) *PaymentService {
	return &PaymentService{Payments: payments, Orders: orders}
}

// RecordPayment logs a payment attempt against an order. The order's
// own payment_status is untouched; MarkOrderPaid is the explicit link.
func (s *PaymentService) RecordPayment(orderID string, method domain.PaymentMethod, amount float64, gatewayRef string, user *domain.User) (domain.Payment, error) {
	if !method.Valid() {
		return domain.Payment{}, ErrBadPaymentMethod
	}
	o, err := s.Orders.Get(orderID)
	if err != nil {
		return domain.Payment{}, err
	}

	p := domain.Payment{
		ID:            uuid.NewString(),
		OrderID:       o.ID,
		Method:        method,
		Status:        domain.PaymentPending,
		Amount:        domain.Round2(amount),
		Currency:      "USD",
		TransactionID: "txn_" + uuid.NewString(),
		GatewayRef:    gatewayRef,
	}
	if user != nil {
		p.UserID = user.ID
	}
	if err := s.Payments.Insert(p); err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}

func (s *PaymentService) Get(paymentID string) (domain.Payment, error) {
	return s.Payments.Get(paymentID)
}

func (s *PaymentService) CompletePayment(paymentID string) (domain.Payment, error) {
	p, err := s.Payments.Get(paymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.Payments.SetStatus(p.ID, domain.PaymentCompleted, ""); err != nil {
		return domain.Payment{}, err
	}
	p.Status = domain.PaymentCompleted
	return p, nil
}

func (s *PaymentService) FailPayment(paymentID, reason string) (domain.Payment, error) {
	p, err := s.Payments.Get(paymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := s.Payments.SetStatus(p.ID, domain.PaymentFailed, reason); err != nil {
		return domain.Payment{}, err
	}
	p.Status = domain.PaymentFailed
	p.FailureReason = reason
	return p, nil
}

// MarkOrderPaid sets the order's payment status to completed and stamps
// paid_at. Idempotent: a second call changes nothing and is not an error.
func (s *PaymentService) MarkOrderPaid(orderID string) error {
	if _, err := s.Orders.Get(orderID); err != nil {
		return err
	}
	return s.Orders.MarkPaid(orderID)
}

// RecordRefund logs a refund against a payment. The refunded total
// across all live refunds may never exceed the payment amount.
func (s *PaymentService) RecordRefund(paymentID string, amount float64, reason string, actor *domain.User) (domain.Refund, error) {
	p, err := s.Payments.Get(paymentID)
	if err != nil {
		return domain.Refund{}, err
	}
	already, err := s.Payments.RefundedTotal(paymentID)
	if err != nil {
		return domain.Refund{}, err
	}
	amount = domain.Round2(amount)
	if amount <= 0 || domain.Round2(already+amount) > p.Amount {
		return domain.Refund{}, domain.ErrRefundExceedsPayment
	}

	rf := domain.Refund{
		ID:        uuid.NewString(),
		PaymentID: p.ID,
		OrderID:   p.OrderID,
		Amount:    amount,
		Reason:    reason,
		Status:    domain.RefundPending,
	}
	if actor != nil {
		rf.ProcessedBy = actor.ID
	}
	if err := s.Payments.InsertRefund(rf); err != nil {
		return domain.Refund{}, err
	}
	return rf, nil
}

func (s *PaymentService) ListByOrder(orderID string) ([]domain.Payment, error) {
	return s.Payments.ListByOrder(orderID)
}

func (s *PaymentService) ListRefunds(paymentID string) ([]domain.Refund, error) {
	return s.Payments.ListRefunds(paymentID)
}

func (s *PaymentService) ListLatest(limit int) ([]domain.Payment, error) {
	return s.Payments.ListLatest(limit)
}
