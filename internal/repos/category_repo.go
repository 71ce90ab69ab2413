package repos

import (
	"shophub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `
	  SELECT id, name, description, active, created_at
	  FROM categories
	  WHERE active = 1
	  ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) Brands() ([]domain.Brand, error) {
	var out []domain.Brand
	err := r.db.Select(&out, `
	  SELECT id, name, website, active
	  FROM brands
	  WHERE active = 1
	  ORDER BY name`)
	return out, err
}
