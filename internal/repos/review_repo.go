package repos

import (
	"shophub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type ReviewRepo struct{ db *sqlx.DB }

func NewReviewRepo(db *sqlx.DB) *ReviewRepo { return &ReviewRepo{db: db} }

func (r *ReviewRepo) Insert(rv domain.Review) error {
	_, err := r.db.Exec(`
	  INSERT INTO reviews(id, product_id, user_id, rating, title, comment,
	    verified, approved, created_at)
	  VALUES (?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
	`, rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Title, rv.Comment,
		rv.Verified, rv.Approved)
	return err
}

func (r *ReviewRepo) ListForProduct(productID string) ([]domain.Review, error) {
	var out []domain.Review
	err := r.db.Select(&out, `
	  SELECT id, product_id, user_id, rating, title, comment, verified, approved,
	         helpful_count, not_helpful_count, created_at
	  FROM reviews
	  WHERE product_id = ? AND approved = 1
	  ORDER BY datetime(created_at) DESC`, productID)
	return out, err
}

// AverageRating over approved reviews; 0 when there are none.
func (r *ReviewRepo) AverageRating(productID string) (float64, error) {
	var avg float64
	err := r.db.Get(&avg, `
	  SELECT COALESCE(ROUND(AVG(rating),1),0)
	  FROM reviews
	  WHERE product_id = ? AND approved = 1`, productID)
	return avg, err
}

// Vote records a helpful/not-helpful vote, one per user per review, and
// keeps the denormalized counters in step.
func (r *ReviewRepo) Vote(reviewID, userID string, helpful bool) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
	  INSERT INTO review_votes(review_id, user_id, is_helpful)
	  VALUES (?,?,?)
	  ON CONFLICT(review_id, user_id) DO NOTHING
	`, reviewID, userID, helpful)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// already voted
		return tx.Commit()
	}

	col := `not_helpful_count`
	if helpful {
		col = `helpful_count`
	}
	if _, err := tx.Exec(`UPDATE reviews SET `+col+` = `+col+` + 1 WHERE id = ?`, reviewID); err != nil {
		return err
	}
	return tx.Commit()
}
