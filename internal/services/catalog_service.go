package services

import (
	"database/sql"

	"shophub/internal/domain"
	"shophub/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ListCategories() ([]domain.Category, error) {
	return s.Cats.List()
}

func (s *CatalogService) ListBrands() ([]domain.Brand, error) {
	return s.Cats.Brands()
}

func (s *CatalogService) ListFeatured(limit int) ([]domain.Product, error) {
	return s.Prods.ListFeatured(limit)
}

func (s *CatalogService) ListProductsByCategory(catID string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize
	return s.Prods.ListByCategory(catID, pageSize, offset)
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return s.Prods.Get(id)
}

func (s *CatalogService) GetVariant(id string) (domain.Variant, error) {
	return s.Prods.GetVariant(id)
}

func (s *CatalogService) Variants(productID string) ([]domain.Variant, error) {
	return s.Prods.Variants(productID)
}

func (s *CatalogService) Search(q, category, brand string, page, pageSize int) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 12
	}
	offset := (page - 1) * pageSize
	return s.Prods.Search(q, category, brand, pageSize, offset)
}

// CheckAvailability maps stock vs the low-stock threshold to
// IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func (s *CatalogService) CheckAvailability(productID string) (domain.Availability, error) {
	p, err := s.Prods.Get(productID)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case p.Stock > p.LowStockThreshold:
		status = "IN_STOCK"
	case p.Stock > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: p.Stock}, nil
}
