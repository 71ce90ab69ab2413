package repos

import (
	"database/sql"

	"shophub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type PaymentRepo struct{ db *sqlx.DB }

func NewPaymentRepo(db *sqlx.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentCols = `
  id, order_id, COALESCE(user_id,'') AS user_id, method, status, amount, currency,
  transaction_id, gateway_ref, failure_reason,
  created_at, COALESCE(completed_at,'') AS completed_at`

func (r *PaymentRepo) Insert(p domain.Payment) error {
	_, err := r.db.Exec(`
	  INSERT INTO payments(id, order_id, user_id, method, status, amount, currency,
	    transaction_id, gateway_ref, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, p.ID, p.OrderID, p.UserID, p.Method, p.Status, p.Amount, p.Currency,
		p.TransactionID, p.GatewayRef)
	return err
}

func (r *PaymentRepo) Get(id string) (domain.Payment, error) {
	var p domain.Payment
	err := r.db.Get(&p, `SELECT `+paymentCols+` FROM payments WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return p, domain.ErrPaymentNotFound
	}
	return p, err
}

func (r *PaymentRepo) ListByOrder(orderID string) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.db.Select(&out, `
	  SELECT `+paymentCols+` FROM payments
	  WHERE order_id = ?
	  ORDER BY datetime(created_at) DESC`, orderID)
	return out, err
}

func (r *PaymentRepo) ListLatest(limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Payment
	err := r.db.Select(&out, `
	  SELECT `+paymentCols+` FROM payments
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?`, limit)
	return out, err
}

func (r *PaymentRepo) SetStatus(id string, status domain.PaymentState, failureReason string) error {
	completed := ""
	if status == domain.PaymentCompleted {
		completed = now()
	}
	_, err := r.db.Exec(`
	  UPDATE payments SET status = ?, failure_reason = ?, completed_at = ?
	  WHERE id = ?`, status, failureReason, completed, id)
	return err
}

// RefundedTotal sums refunds already recorded against a payment,
// excluding failed and cancelled ones.
func (r *PaymentRepo) RefundedTotal(paymentID string) (float64, error) {
	var total float64
	err := r.db.Get(&total, `
	  SELECT COALESCE(SUM(amount),0) FROM refunds
	  WHERE payment_id = ? AND status NOT IN (?,?)
	`, paymentID, domain.RefundFailed, domain.RefundCancelled)
	return total, err
}

func (r *PaymentRepo) InsertRefund(rf domain.Refund) error {
	_, err := r.db.Exec(`
	  INSERT INTO refunds(id, payment_id, order_id, amount, reason, status,
	    transaction_id, processed_by, created_at)
	  VALUES (?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, rf.ID, rf.PaymentID, rf.OrderID, rf.Amount, rf.Reason, rf.Status,
		rf.TransactionID, rf.ProcessedBy)
	return err
}

func (r *PaymentRepo) ListRefunds(paymentID string) ([]domain.Refund, error) {
	var out []domain.Refund
	err := r.db.Select(&out, `
	  SELECT id, payment_id, order_id, amount, reason, status, transaction_id,
	         processed_by, created_at, COALESCE(processed_at,'') AS processed_at
	  FROM refunds
	  WHERE payment_id = ?
	  ORDER BY datetime(created_at) DESC`, paymentID)
	return out, err
}
