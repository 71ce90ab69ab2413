package repos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// CartLine is a raw cart row: quantity plus the unit price captured at
// add time. VariantID is empty for plain product lines.
type CartLine struct {
	ProductID  string  `db:"product_id"`
	VariantID  string  `db:"variant_id"`
	Qty        int     `db:"qty"`
	PriceAtAdd float64 `db:"price_at_add"`
}

func (r *CartRepo) EnsureCart(sessionID string) (string, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID); err == nil {
		return cartID, nil
	}
	_, err := r.db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// UpsertLine adds qty to an existing line or creates it with the
// captured price. With replace, the quantity is overwritten instead.
func (r *CartRepo) UpsertLine(cartID, productID, variantID string, qty int, price float64, replace bool) error {
	set := `qty = cart_items.qty + excluded.qty`
	if replace {
		set = `qty = excluded.qty`
	}
	_, err := r.db.Exec(`
		INSERT INTO cart_items(cart_id,product_id,variant_id,qty,price_at_add,created_at)
		VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id,product_id,variant_id) DO UPDATE
		SET `+set+`, updated_at = CURRENT_TIMESTAMP
	`, cartID, productID, variantID, qty, price)
	return err
}

func (r *CartRepo) SetQty(cartID, productID, variantID string, qty int) error {
	_, err := r.db.Exec(`
		UPDATE cart_items SET qty = ?, updated_at = CURRENT_TIMESTAMP
		WHERE cart_id = ? AND product_id = ? AND variant_id = ?
	`, qty, cartID, productID, variantID)
	return err
}

// RemoveLine deletes the line if present; no-op otherwise.
func (r *CartRepo) RemoveLine(cartID, productID, variantID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ? AND product_id = ? AND variant_id = ?`,
		cartID, productID, variantID)
	return err
}

func (r *CartRepo) Lines(cartID string) ([]CartLine, error) {
	var out []CartLine
	err := r.db.Select(&out, `
	  SELECT product_id, variant_id, qty, price_at_add
	  FROM cart_items
	  WHERE cart_id = ?
	  ORDER BY created_at`, cartID)
	return out, err
}

// JoinedLine is a cart line joined with live product/variant data.
// ProductOK is false when the product row no longer exists.
type JoinedLine struct {
	ProductID    string  `db:"product_id"`
	VariantID    string  `db:"variant_id"`
	Qty          int     `db:"qty"`
	PriceAtAdd   float64 `db:"price_at_add"`
	ProductOK    bool    `db:"product_ok"`
	ProductName  string  `db:"product_name"`
	ProductSKU   string  `db:"product_sku"`
	LivePrice    float64 `db:"live_price"`
	VariantOK    bool    `db:"variant_ok"`
	VariantName  string  `db:"variant_name"`
	VariantValue string  `db:"variant_value"`
	VariantAdj   float64 `db:"variant_adj"`
}

func (jl JoinedLine) Subtotal() float64 { return jl.PriceAtAdd * float64(jl.Qty) }

// Joined returns cart lines enriched with live catalog data. Lines whose
// product row is gone are reported with ProductOK=false (the service
// treats that as an inconsistency); a missing variant only clears the
// variant part of the line.
func (r *CartRepo) Joined(cartID string) ([]JoinedLine, error) {
	var out []JoinedLine
	err := r.db.Select(&out, `
	  SELECT ci.product_id, ci.variant_id, ci.qty, ci.price_at_add,
	         p.id IS NOT NULL                  AS product_ok,
	         COALESCE(p.name,'')               AS product_name,
	         COALESCE(p.sku,'')                AS product_sku,
	         COALESCE(p.price,0)               AS live_price,
	         v.id IS NOT NULL                  AS variant_ok,
	         COALESCE(v.name,'')               AS variant_name,
	         COALESCE(v.value,'')              AS variant_value,
	         COALESCE(v.price_adjustment,0)    AS variant_adj
	  FROM cart_items ci
	  LEFT JOIN products p ON p.id = ci.product_id
	  LEFT JOIN product_variants v ON v.id = ci.variant_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at`, cartID)
	return out, err
}

// Reprice re-captures live prices onto every line of the cart. The
// explicit counterpart to the price-lock-at-add-time default.
func (r *CartRepo) Reprice(cartID string) error {
	_, err := r.db.Exec(`
	  UPDATE cart_items
	  SET price_at_add = (
	        SELECT p.price + COALESCE(v.price_adjustment,0)
	        FROM products p
	        LEFT JOIN product_variants v ON v.id = cart_items.variant_id
	        WHERE p.id = cart_items.product_id
	      ),
	      updated_at = CURRENT_TIMESTAMP
	  WHERE cart_id = ?
	    AND EXISTS (SELECT 1 FROM products p WHERE p.id = cart_items.product_id)
	`, cartID)
	return err
}

func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

// MergeForLogin folds an anonymous session cart into the user's cart.
func (r *CartRepo) MergeForLogin(userID, sid string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var anonID, userCartID sql.NullString

	if err := tx.Get(&anonID, `SELECT id FROM carts WHERE session_id=?`, sid); err != nil && err != sql.ErrNoRows {
		return err
	}
	if err := tx.Get(&userCartID, `SELECT id FROM carts WHERE user_id=? ORDER BY updated_at DESC LIMIT 1`, userID); err != nil && err != sql.ErrNoRows {
		return err
	}

	if !anonID.Valid {
		_, _ = tx.Exec(`UPDATE sessions SET user_id=?, last_seen=CURRENT_TIMESTAMP WHERE id=?`, userID, sid)
		return tx.Commit()
	}

	// No user cart yet: convert the anon cart in place.
	if !userCartID.Valid || userCartID.String == anonID.String {
		if _, err := tx.Exec(`UPDATE carts SET user_id=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, userID, anonID.String); err != nil {
			return err
		}
		_, _ = tx.Exec(`UPDATE sessions SET user_id=?, last_seen=CURRENT_TIMESTAMP WHERE id=?`, userID, sid)
		return tx.Commit()
	}

	var lines []CartLine
	if err := tx.Select(&lines, `SELECT product_id, variant_id, qty, price_at_add FROM cart_items WHERE cart_id=?`, anonID.String); err != nil {
		return err
	}
	for _, it := range lines {
		_, err := tx.Exec(`
			INSERT INTO cart_items(cart_id, product_id, variant_id, qty, price_at_add, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
			ON CONFLICT(cart_id, product_id, variant_id) DO UPDATE SET
			  qty = qty + excluded.qty,
			  updated_at = CURRENT_TIMESTAMP
		`, userCartID.String, it.ProductID, it.VariantID, it.Qty, it.PriceAtAdd)
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`DELETE FROM carts WHERE id=?`, anonID.String); err != nil {
		return err
	}
	// Repoint the surviving cart at the session that just logged in so
	// session-keyed lookups see the merged items.
	if _, err := tx.Exec(`UPDATE carts SET session_id=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, sid, userCartID.String); err != nil {
		return err
	}
	_, _ = tx.Exec(`UPDATE sessions SET user_id=?, last_seen=CURRENT_TIMESTAMP WHERE id=?`, userID, sid)

	return tx.Commit()
}
