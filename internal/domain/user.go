package domain

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

type Review struct {
	ID              string `db:"id"`
	ProductID       string `db:"product_id"`
	UserID          string `db:"user_id"`
	Rating          int    `db:"rating"`
	Title           string `db:"title"`
	Comment         string `db:"comment"`
	Verified        bool   `db:"verified"` // reviewer has a delivered order containing the product
	Approved        bool   `db:"approved"`
	HelpfulCount    int    `db:"helpful_count"`
	NotHelpfulCount int    `db:"not_helpful_count"`
	CreatedAt       string `db:"created_at"`
}
