package services

import (
	"database/sql"

	"shophub/internal/domain"
	"shophub/internal/repos"
)

type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

// Add puts qty units of (product, variant) into the cart, capturing the
// unit price at add time. With replace, the quantity is overwritten
// instead of incremented. Stock is deliberately not checked here; the
// order engine validates it at checkout.
func (s *CartService) Add(sessionID, productID, variantID string, qty int, replace bool) error {
	if qty < 1 {
		qty = 1
	}
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return err
	}
	price := p.Price
	if variantID != "" {
		v, err := s.Prods.GetVariant(variantID)
		if err != nil {
			return err
		}
		price += v.PriceAdjustment
	}
	return s.Carts.UpsertLine(cartID, productID, variantID, qty, domain.Round2(price), replace)
}

func (s *CartService) Remove(sessionID, productID, variantID string) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.RemoveLine(cartID, productID, variantID)
}

// SetQuantity overwrites a line's quantity; zero or less removes it.
func (s *CartService) SetQuantity(sessionID, productID, variantID string, qty int) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	if qty <= 0 {
		return s.Carts.RemoveLine(cartID, productID, variantID)
	}
	return s.Carts.SetQty(cartID, productID, variantID, qty)
}

func (s *CartService) Clear(sessionID string) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.Clear(cartID)
}

// LineCount is the sum of quantities across lines, not the line count.
func (s *CartService) LineCount(sessionID string) (int, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return 0, err
	}
	lines, err := s.Carts.Lines(cartID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ln := range lines {
		n += ln.Qty
	}
	return n, nil
}

func (s *CartService) Subtotal(sessionID string) (float64, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return 0, err
	}
	lines, err := s.Carts.Lines(cartID)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, ln := range lines {
		total += ln.PriceAtAdd * float64(ln.Qty)
	}
	return domain.Round2(total), nil
}

type CartItemView struct {
	ProductID    string
	VariantID    string
	Name         string
	SKU          string
	VariantLabel string
	Qty          int
	UnitPrice    float64
	Subtotal     float64
	LivePrice    float64
}

type CartView struct {
	Items     []CartItemView
	Subtotal  float64
	LineCount int
}

// View returns the cart joined with live catalog data. A line whose
// variant has vanished keeps its product part; a line whose product row
// is gone is an inconsistency and is surfaced, not dropped.
func (s *CartService) View(sessionID string) (CartView, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return CartView{}, err
	}
	joined, err := s.Carts.Joined(cartID)
	if err != nil {
		return CartView{}, err
	}

	cv := CartView{Items: make([]CartItemView, 0, len(joined))}
	for _, jl := range joined {
		if !jl.ProductOK {
			return CartView{}, &domain.CartInconsistencyError{ProductID: jl.ProductID}
		}
		it := CartItemView{
			ProductID: jl.ProductID,
			VariantID: jl.VariantID,
			Name:      jl.ProductName,
			SKU:       jl.ProductSKU,
			Qty:       jl.Qty,
			UnitPrice: jl.PriceAtAdd,
			Subtotal:  domain.Round2(jl.Subtotal()),
			LivePrice: domain.Round2(jl.LivePrice + jl.VariantAdj),
		}
		if jl.VariantID != "" && jl.VariantOK {
			it.VariantLabel = domain.Variant{Name: jl.VariantName, Value: jl.VariantValue}.Label()
		}
		cv.Items = append(cv.Items, it)
		cv.Subtotal += it.Subtotal
		cv.LineCount += it.Qty
	}
	cv.Subtotal = domain.Round2(cv.Subtotal)
	return cv, nil
}

// Reprice re-captures live catalog prices onto the cart. The explicit
// step that undoes price-lock-at-add-time.
func (s *CartService) Reprice(sessionID string) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.Reprice(cartID)
}

func (s *CartService) MergeForLogin(userID, sessionID string) error {
	err := s.Carts.MergeForLogin(userID, sessionID)
	if err == sql.ErrNoRows {
		return nil
	}
	return err
}
