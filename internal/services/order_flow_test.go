package services_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"shophub/internal/domain"
	"shophub/internal/repos"
	"shophub/internal/services"
)

// memdb opens a fresh in-memory database with the full schema and demo
// seed, pinned to a single connection so pragmas and the :memory: file
// stay stable, then adds two known products for checkout math.
func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = OFF`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO products(id,category_id,name,sku,price,stock,low_stock_threshold) VALUES
	  ('p-lamp','home-kitchen','Desk Lamp','SKU-LMP-001',50.00,10,3),
	  ('p-mug','home-kitchen','Coffee Mug','SKU-MUG-001',20.00,5,2)`); err != nil {
		t.Fatal(err)
	}
	return db
}

func newOrderSvc(db *sqlx.DB) (*services.CartService, *services.OrderService, *repos.OrderRepo, *repos.ProductRepo) {
	cartRepo := repos.NewCartRepo(db)
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, prodRepo, orderRepo, nil)
	return cartSvc, orderSvc, orderRepo, prodRepo
}

func testAddr() domain.Address {
	return domain.Address{
		FullName:   "Tester",
		Phone:      "555-0100",
		Line1:      "1 Main St",
		City:       "College Park",
		State:      "MD",
		Country:    "US",
		PostalCode: "20742",
	}
}

func TestOrderFlow_AddViewPlace(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo, prodRepo := newOrderSvc(db)

	sid := "test-session"
	if err := cartSvc.Add(sid, "p-lamp", "", 2, false); err != nil {
		t.Fatal(err)
	}
	if err := cartSvc.Add(sid, "p-mug", "", 1, false); err != nil {
		t.Fatal(err)
	}

	cv, err := cartSvc.View(sid)
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Items) != 2 || cv.Subtotal != 120.00 || cv.LineCount != 3 {
		t.Fatalf("bad cart view: %+v", cv)
	}

	o, err := orderSvc.Place(sid, testAddr(), nil, "leave at door")
	if err != nil {
		t.Fatal(err)
	}
	if o.ID == "" || o.Number == "" {
		t.Fatal("order id/number missing")
	}
	// subtotal 120, 10% tax 12, flat shipping 5
	if o.Subtotal != 120.00 || o.Tax != 12.00 || o.ShippingCost != 5.00 || o.Total != 137.00 {
		t.Fatalf("bad totals: %+v", o)
	}
	if o.Status != domain.OrderPending || o.PaymentStatus != domain.PayPending {
		t.Fatalf("new order should be pending/pending, got %s/%s", o.Status, o.PaymentStatus)
	}

	lines, err := orderRepo.Lines(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d", len(lines))
	}

	// stock decremented 10 -> 8, sales counted
	p, err := prodRepo.Get("p-lamp")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock != 8 || p.SalesCount != 2 {
		t.Fatalf("want stock=8 sales=2, got stock=%d sales=%d", p.Stock, p.SalesCount)
	}

	// cart emptied by the same transaction
	n, err := cartSvc.LineCount(sid)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("cart should be empty after checkout, got %d items", n)
	}

	// exactly one history row so far
	hist, err := orderRepo.History(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 1 || hist[0].Status != domain.OrderPending {
		t.Fatalf("bad history: %+v", hist)
	}
}

func TestPlaceEmptyCart(t *testing.T) {
	db := memdb(t)
	_, orderSvc, _, _ := newOrderSvc(db)

	_, err := orderSvc.Place("empty-session", testAddr(), nil, "")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("want ErrEmptyCart, got %v", err)
	}
}

func TestPlaceInsufficientStockRollsBack(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _, prodRepo := newOrderSvc(db)

	sid := "greedy-session"
	// p-mug has 5 in stock; ask for 6
	if err := cartSvc.Add(sid, "p-mug", "", 6, false); err != nil {
		t.Fatal(err)
	}

	_, err := orderSvc.Place(sid, testAddr(), nil, "")
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != "p-mug" || stockErr.Want != 6 {
		t.Fatalf("bad error detail: %+v", stockErr)
	}

	// nothing committed: stock unchanged, cart intact
	p, _ := prodRepo.Get("p-mug")
	if p.Stock != 5 {
		t.Fatalf("stock should be untouched, got %d", p.Stock)
	}
	n, _ := cartSvc.LineCount(sid)
	if n != 6 {
		t.Fatalf("cart should survive the failed checkout, got %d", n)
	}
	var orders int
	if err := db.Get(&orders, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatal(err)
	}
	if orders != 0 {
		t.Fatalf("no order row should exist, got %d", orders)
	}
}

func TestOrderSnapshotSurvivesCatalogChanges(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo, _ := newOrderSvc(db)

	sid := "snapshot-session"
	if err := cartSvc.Add(sid, "p-lamp", "", 1, false); err != nil {
		t.Fatal(err)
	}
	o, err := orderSvc.Place(sid, testAddr(), nil, "")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := db.Exec(`UPDATE products SET name='Renamed Lamp', price=999.99 WHERE id='p-lamp'`); err != nil {
		t.Fatal(err)
	}

	lines, err := orderRepo.Lines(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %d", len(lines))
	}
	if lines[0].ProductName != "Desk Lamp" || lines[0].UnitPrice != 50.00 {
		t.Fatalf("snapshot mutated: %+v", lines[0])
	}
}

func TestPlaceWithVariantAdjustment(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo, _ := newOrderSvc(db)

	sid := "variant-session"
	// seeded XL tee is 19.99 + 2.00 adjustment
	if err := cartSvc.Add(sid, "p-tshirt", "v-tshirt-xl", 1, false); err != nil {
		t.Fatal(err)
	}
	o, err := orderSvc.Place(sid, testAddr(), nil, "")
	if err != nil {
		t.Fatal(err)
	}

	lines, err := orderRepo.Lines(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if lines[0].UnitPrice != 21.99 {
		t.Fatalf("want unit price 21.99, got %v", lines[0].UnitPrice)
	}
	if lines[0].VariantLabel != "Size: XL" {
		t.Fatalf("bad variant label %q", lines[0].VariantLabel)
	}

	// variant stock decremented too (seeded at 20)
	var vstock int
	if err := db.Get(&vstock, `SELECT stock FROM product_variants WHERE id='v-tshirt-xl'`); err != nil {
		t.Fatal(err)
	}
	if vstock != 19 {
		t.Fatalf("want variant stock 19, got %d", vstock)
	}
}

func TestPlaceDropsVanishedVariant(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, orderRepo, prodRepo := newOrderSvc(db)

	sid := "gone-variant-session"
	if err := cartSvc.Add(sid, "p-tshirt", "v-tshirt-m", 1, false); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`DELETE FROM product_variants WHERE id='v-tshirt-m'`); err != nil {
		t.Fatal(err)
	}

	// the cart view drops the deleted variant row; checkout must agree
	if _, err := cartSvc.View(sid); err != nil {
		t.Fatal(err)
	}
	o, err := orderSvc.Place(sid, testAddr(), nil, "")
	if err != nil {
		t.Fatalf("checkout blocked by vanished variant: %v", err)
	}

	lines, err := orderRepo.Lines(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %d", len(lines))
	}
	if lines[0].VariantID != "" || lines[0].VariantLabel != "" {
		t.Fatalf("snapshot should not name the deleted variant: %+v", lines[0])
	}
	if lines[0].UnitPrice != 19.99 {
		t.Fatalf("want locked price 19.99, got %v", lines[0].UnitPrice)
	}

	// product stock still decremented normally
	p, err := prodRepo.Get("p-tshirt")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stock != 99 {
		t.Fatalf("want stock 99, got %d", p.Stock)
	}
}

func TestPlaceExhaustedStockSecondOrderFails(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _, prodRepo := newOrderSvc(db)

	if _, err := db.Exec(`UPDATE products SET stock=1 WHERE id='p-mug'`); err != nil {
		t.Fatal(err)
	}

	if err := cartSvc.Add("buyer-one", "p-mug", "", 1, false); err != nil {
		t.Fatal(err)
	}
	if _, err := orderSvc.Place("buyer-one", testAddr(), nil, ""); err != nil {
		t.Fatal(err)
	}
	p, _ := prodRepo.Get("p-mug")
	if p.Stock != 0 {
		t.Fatalf("want stock 0 after first order, got %d", p.Stock)
	}

	// the last unit is gone; a second buyer must be turned away
	if err := cartSvc.Add("buyer-two", "p-mug", "", 1, false); err != nil {
		t.Fatal(err)
	}
	_, err := orderSvc.Place("buyer-two", testAddr(), nil, "")
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("want InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != "p-mug" {
		t.Fatalf("bad error detail: %+v", stockErr)
	}

	p, _ = prodRepo.Get("p-mug")
	if p.Stock != 0 {
		t.Fatalf("stock must never go negative, got %d", p.Stock)
	}
	var orders int
	if err := db.Get(&orders, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatal(err)
	}
	if orders != 1 {
		t.Fatalf("want exactly one order, got %d", orders)
	}
}

func TestPlaceConcurrentBuyersNeverOversell(t *testing.T) {
	db := memdb(t)
	cartSvc, orderSvc, _, prodRepo := newOrderSvc(db)

	if _, err := db.Exec(`UPDATE products SET stock=1 WHERE id='p-mug'`); err != nil {
		t.Fatal(err)
	}
	for _, sid := range []string{"racer-a", "racer-b"} {
		if err := cartSvc.Add(sid, "p-mug", "", 1, false); err != nil {
			t.Fatal(err)
		}
	}

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, sid := range []string{"racer-a", "racer-b"} {
		wg.Add(1)
		go func(i int, sid string) {
			defer wg.Done()
			_, errs[i] = orderSvc.Place(sid, testAddr(), nil, "")
		}(i, sid)
	}
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		var stockErr *domain.InsufficientStockError
		switch {
		case err == nil:
			ok++
		case errors.As(err, &stockErr):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || short != 1 {
		t.Fatalf("want one winner and one rejection, got ok=%d short=%d", ok, short)
	}
	p, _ := prodRepo.Get("p-mug")
	if p.Stock != 0 {
		t.Fatalf("stock must never go negative, got %d", p.Stock)
	}
}
