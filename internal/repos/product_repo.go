package repos

import (
	"shophub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, category_id, COALESCE(brand_id,'') AS brand_id, name, sku, description,
  price, compare_price, stock, low_stock_threshold, sales_count, views,
  featured, is_new, active, created_at, COALESCE(updated_at,'') AS updated_at`

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

func (r *ProductRepo) GetVariant(id string) (domain.Variant, error) {
	var v domain.Variant
	err := r.db.Get(&v, `
	  SELECT id, product_id, name, value, sku, price_adjustment, stock, active
	  FROM product_variants WHERE id = ?`, id)
	return v, err
}

func (r *ProductRepo) Variants(productID string) ([]domain.Variant, error) {
	var out []domain.Variant
	err := r.db.Select(&out, `
	  SELECT id, product_id, name, value, sku, price_adjustment, stock, active
	  FROM product_variants WHERE product_id = ? AND active = 1
	  ORDER BY name, value`, productID)
	return out, err
}

func (r *ProductRepo) ListByCategory(catID string, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE category_id = ? AND active = 1
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?`, catID, limit, offset)
	return out, err
}

func (r *ProductRepo) ListFeatured(limit int) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE featured = 1 AND active = 1
	  ORDER BY created_at DESC
	  LIMIT ?`, limit)
	return out, err
}

func (r *ProductRepo) Search(q, catID, brandID string, limit, offset int) ([]domain.Product, error) {
	where := `active = 1`
	args := []any{}
	if q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if catID != "" {
		where += ` AND category_id = ?`
		args = append(args, catID)
	}
	if brandID != "" {
		where += ` AND brand_id = ?`
		args = append(args, brandID)
	}

	query := `SELECT ` + productCols + ` FROM products WHERE ` + where + `
	  ORDER BY created_at DESC
	  LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var out []domain.Product
	err := r.db.Select(&out, query, args...)
	return out, err
}

// IncrementViews bumps the view counter; best-effort, callers ignore errors.
func (r *ProductRepo) IncrementViews(id string) error {
	_, err := r.db.Exec(`UPDATE products SET views = views + 1 WHERE id = ?`, id)
	return err
}

// SetStock is the admin stock override.
func (r *ProductRepo) SetStock(id string, qty int) error {
	_, err := r.db.Exec(`UPDATE products SET stock = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, qty, id)
	return err
}

// LowStock lists active products at or below their low-stock threshold.
func (r *ProductRepo) LowStock() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE active = 1 AND stock <= low_stock_threshold
	  ORDER BY stock ASC`)
	return out, err
}
