package repos

import (
	"shophub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT id,email,name,password_hash,role FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) BindSession(sid, userID string) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

func (r *UserRepo) List() ([]domain.User, error) {
	var out []domain.User
	err := r.DB.Select(&out, `SELECT id,email,name,password_hash,role FROM users WHERE role != 'ADMIN' ORDER BY email`)
	return out, err
}

// DeleteUserCascade cancels the user's orders and removes their
// sessions, carts and wishlists. Order rows are retained for audit.
func (r *UserRepo) DeleteUserCascade(userID string) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var sessionIDs []string
	if err := tx.Select(&sessionIDs, `SELECT id FROM sessions WHERE user_id=?`, userID); err != nil {
		return err
	}

	var cancelled []string
	if err := tx.Select(&cancelled, `
	  SELECT id FROM orders WHERE user_id=? AND status NOT IN ('delivered','cancelled','refunded')`, userID); err != nil {
		return err
	}
	for _, oid := range cancelled {
		if _, err := tx.Exec(`UPDATE orders SET status='cancelled', updated_at=CURRENT_TIMESTAMP WHERE id=?`, oid); err != nil {
			return err
		}
		if _, err := tx.Exec(`
		  INSERT INTO order_status_history(order_id,status,note,actor_id)
		  VALUES(?,?,?,?)`, oid, domain.OrderCancelled, "Account deleted", userID); err != nil {
			return err
		}
	}

	if len(sessionIDs) > 0 {
		for _, stmt := range []string{
			`DELETE FROM carts WHERE id IN (?)`,
			`DELETE FROM wishlists WHERE id IN (?)`,
			`DELETE FROM sessions WHERE id IN (?)`,
		} {
			query, args, err := sqlx.In(stmt, sessionIDs)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(query, args...); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`DELETE FROM users WHERE id=?`, userID); err != nil {
		return err
	}

	return tx.Commit()
}
