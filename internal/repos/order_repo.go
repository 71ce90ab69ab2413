package repos

import (
	"database/sql"
	"time"

	"shophub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `
  id, order_number, COALESCE(session_id,'') AS session_id, COALESCE(user_id,'') AS user_id,
  status, payment_status, subtotal, tax, shipping_cost, discount, total,
  shipping_full_name, shipping_phone, shipping_line1, shipping_line2,
  shipping_city, shipping_state, shipping_country, shipping_postal_code,
  customer_notes, tracking_number, carrier,
  created_at, COALESCE(updated_at,'') AS updated_at,
  COALESCE(paid_at,'') AS paid_at, COALESCE(shipped_at,'') AS shipped_at,
  COALESCE(delivered_at,'') AS delivered_at`

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// Create persists an order atomically: the order row, every line
// snapshot, the conditional stock decrements, the initial history entry
// and the cart clear are one transaction. A decrement that would take
// stock negative aborts the whole thing with InsufficientStockError,
// leaving the cart untouched.
func (r *OrderRepo) Create(o domain.Order, lines []domain.OrderLine, cartID string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
	  INSERT INTO orders(
	    id, order_number, session_id, user_id, status, payment_status,
	    subtotal, tax, shipping_cost, discount, total,
	    shipping_full_name, shipping_phone, shipping_line1, shipping_line2,
	    shipping_city, shipping_state, shipping_country, shipping_postal_code,
	    customer_notes, created_at)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, o.ID, o.Number, o.SessionID, o.UserID, o.Status, o.PaymentStatus,
		o.Subtotal, o.Tax, o.ShippingCost, o.Discount, o.Total,
		o.FullName, o.Phone, o.Line1, o.Line2,
		o.City, o.State, o.Country, o.PostalCode,
		o.CustomerNotes); err != nil {
		return err
	}

	for _, ln := range lines {
		if _, err := tx.Exec(`
		  INSERT INTO order_lines(order_id, product_id, variant_id, product_name,
		    product_sku, variant_label, qty, unit_price, line_total)
		  VALUES (?,?,?,?,?,?,?,?,?)
		`, ln.OrderID, ln.ProductID, ln.VariantID, ln.ProductName,
			ln.ProductSKU, ln.VariantLabel, ln.Qty, ln.UnitPrice, ln.LineTotal); err != nil {
			return err
		}

		// Conditional decrement: zero rows affected means the stock
		// check failed under whatever concurrency got here first.
		res, err := tx.Exec(`
		  UPDATE products
		  SET stock = stock - ?, sales_count = sales_count + ?, updated_at = CURRENT_TIMESTAMP
		  WHERE id = ? AND stock >= ?
		`, ln.Qty, ln.Qty, ln.ProductID, ln.Qty)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return &domain.InsufficientStockError{ProductID: ln.ProductID, Name: ln.ProductName, Want: ln.Qty}
		}

		if ln.VariantID != "" {
			res, err := tx.Exec(`
			  UPDATE product_variants SET stock = stock - ?
			  WHERE id = ? AND stock >= ?
			`, ln.Qty, ln.VariantID, ln.Qty)
			if err != nil {
				return err
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return &domain.InsufficientStockError{ProductID: ln.ProductID, Name: ln.ProductName + " (" + ln.VariantLabel + ")", Want: ln.Qty}
			}
		}
	}

	if _, err := tx.Exec(`
	  INSERT INTO order_status_history(order_id, status, note, actor_id)
	  VALUES (?,?,?,?)
	`, o.ID, domain.OrderPending, "Order created", o.UserID); err != nil {
		return err
	}

	if cartID != "" {
		if _, err := tx.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepo) Get(id string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return o, domain.ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepo) GetByNumber(number string) (domain.Order, error) {
	var o domain.Order
	err := r.db.Get(&o, `SELECT `+orderCols+` FROM orders WHERE order_number = ?`, number)
	if err == sql.ErrNoRows {
		return o, domain.ErrOrderNotFound
	}
	return o, err
}

func (r *OrderRepo) Lines(orderID string) ([]domain.OrderLine, error) {
	var out []domain.OrderLine
	err := r.db.Select(&out, `
	  SELECT order_id, product_id, variant_id, product_name, product_sku,
	         variant_label, qty, unit_price, line_total
	  FROM order_lines
	  WHERE order_id = ?
	  ORDER BY product_name`, orderID)
	return out, err
}

func (r *OrderRepo) History(orderID string) ([]domain.StatusEntry, error) {
	var out []domain.StatusEntry
	err := r.db.Select(&out, `
	  SELECT id, order_id, status, note, actor_id, created_at
	  FROM order_status_history
	  WHERE order_id = ?
	  ORDER BY id`, orderID)
	return out, err
}

func (r *OrderRepo) ListLatest(limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  ORDER BY datetime(created_at) DESC
	  LIMIT ?`, limit)
	return out, err
}

func (r *OrderRepo) ListByUser(userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  WHERE user_id = ?
	  ORDER BY datetime(created_at) DESC`, userID)
	return out, err
}

func (r *OrderRepo) ListBySession(sessionID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.db.Select(&out, `
	  SELECT `+orderCols+` FROM orders
	  WHERE session_id = ?
	  ORDER BY datetime(created_at) DESC`, sessionID)
	return out, err
}

// Transition updates the order status and appends the history row in
// one transaction. Shipped/delivered stamp their timestamps here.
func (r *OrderRepo) Transition(orderID string, status domain.OrderStatus, actorID, note string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	set := `status = ?, updated_at = CURRENT_TIMESTAMP`
	args := []any{status}
	switch status {
	case domain.OrderShipped:
		set += `, shipped_at = ?`
		args = append(args, now())
	case domain.OrderDelivered:
		set += `, delivered_at = ?`
		args = append(args, now())
	case domain.OrderRefunded:
		set += `, payment_status = ?`
		args = append(args, domain.PayRefunded)
	}
	args = append(args, orderID)

	res, err := tx.Exec(`UPDATE orders SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrOrderNotFound
	}

	if _, err := tx.Exec(`
	  INSERT INTO order_status_history(order_id, status, note, actor_id)
	  VALUES (?,?,?,?)`, orderID, status, note, actorID); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkPaid sets payment_status=completed and stamps paid_at once.
// Idempotent: a second call matches no row and changes nothing.
func (r *OrderRepo) MarkPaid(orderID string) error {
	_, err := r.db.Exec(`
	  UPDATE orders
	  SET payment_status = ?, paid_at = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND payment_status != ?
	`, domain.PayCompleted, now(), orderID, domain.PayCompleted)
	return err
}

func (r *OrderRepo) SetTracking(orderID, trackingNumber, carrier string) error {
	_, err := r.db.Exec(`
	  UPDATE orders SET tracking_number = ?, carrier = ?, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ?`, trackingNumber, carrier, orderID)
	return err
}

// HasDeliveredOrderWith reports whether the user has a delivered order
// containing the product. Backs the verified-purchase flag on reviews.
func (r *OrderRepo) HasDeliveredOrderWith(userID, productID string) (bool, error) {
	var n int
	err := r.db.Get(&n, `
	  SELECT COUNT(*)
	  FROM orders o
	  JOIN order_lines ol ON ol.order_id = o.id
	  WHERE o.user_id = ? AND ol.product_id = ? AND o.status = ?
	`, userID, productID, domain.OrderDelivered)
	return n > 0, err
}
