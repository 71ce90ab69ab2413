package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"shophub/internal/config"
	"shophub/internal/http/handlers"
	"shophub/internal/repos"
	"shophub/internal/services"
)

// Minimal app covering the storefront flow
func newStoreApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", TaxRate: 0.10, ShippingFee: 5.00, OrderPrefix: "ORD-"}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Carts: repos.NewCartRepo(db)}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	app.Use(limiter.New(limiter.Config{Max: 100, Expiration: 0}))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})

	deps := handlers.NewDeps(db, cfg, authSvc, nil)
	app.Get("/search", deps.SearchHandler.Search)
	app.Get("/product/:id", deps.ProductHandler.Detail)
	api := app.Group("/api/v1")
	api.Get("/availability", deps.ProductHandler.Availability)
	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/order/:id", deps.OrderHandler.View)
	app.Get("/login", deps.AuthHandler.LoginForm)

	return app, db
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func postForm(app *fiber.App, path, body string, cookies ...*http.Cookie) (*http.Response, error) {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return app.Test(req)
}

func TestCheckoutOverHTTP(t *testing.T) {
	app, db := newStoreApp(t)

	loginResp, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := extractCookie(loginResp, "csrf_")
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}
	csrfCookie := &http.Cookie{Name: "csrf_", Value: csrfTok}

	respCart, err := postForm(app, "/cart", "csrf="+csrfTok+"&productId=p-headphones&qty=2", csrfCookie)
	if err != nil {
		t.Fatal(err)
	}
	if respCart.StatusCode != http.StatusFound {
		t.Fatalf("cart add expected redirect, got %d", respCart.StatusCode)
	}
	sid := extractCookie(respCart, "sid")
	if sid == "" {
		t.Fatal("sid not set after cart add")
	}
	sidCookie := &http.Cookie{Name: "sid", Value: sid}

	form := "csrf=" + csrfTok +
		"&full_name=Alice+Tester&phone=555-0100&address_line1=1+Main+St" +
		"&city=College+Park&state=MD&postal_code=20742&country=US"
	respOrder, err := postForm(app, "/orders", form, csrfCookie, sidCookie)
	if err != nil {
		t.Fatal(err)
	}
	if respOrder.StatusCode != http.StatusFound {
		t.Fatalf("place order expected redirect, got %d", respOrder.StatusCode)
	}
	loc := respOrder.Header.Get("Location")
	if !strings.HasPrefix(loc, "/order/") {
		t.Fatalf("unexpected redirect target %q", loc)
	}

	// order persisted with the 2x79.99 snapshot
	var total float64
	if err := db.Get(&total, `SELECT total FROM orders LIMIT 1`); err != nil {
		t.Fatal(err)
	}
	// 159.98 + 16.00 tax + 5.00 shipping
	if total != 180.98 {
		t.Fatalf("want total 180.98, got %v", total)
	}

	// owner can see the order page
	reqView := httptest.NewRequest("GET", loc, nil)
	reqView.AddCookie(sidCookie)
	respView, err := app.Test(reqView)
	if err != nil {
		t.Fatal(err)
	}
	if respView.StatusCode != http.StatusOK {
		t.Fatalf("owner view expected 200, got %d", respView.StatusCode)
	}

	// a stranger session gets a 404, not the order
	reqStranger := httptest.NewRequest("GET", loc, nil)
	reqStranger.AddCookie(&http.Cookie{Name: "sid", Value: "other-session"})
	respStranger, err := app.Test(reqStranger)
	if err != nil {
		t.Fatal(err)
	}
	if respStranger.StatusCode != http.StatusNotFound {
		t.Fatalf("stranger expected 404, got %d", respStranger.StatusCode)
	}
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	app, _ := newStoreApp(t)

	loginResp, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := extractCookie(loginResp, "csrf_")
	csrfCookie := &http.Cookie{Name: "csrf_", Value: csrfTok}

	form := "csrf=" + csrfTok +
		"&full_name=Nobody&phone=555-0100&address_line1=1+Main+St" +
		"&city=Nowhere&postal_code=00000"
	resp, err := postForm(app, "/orders", form, csrfCookie, &http.Cookie{Name: "sid", Value: "fresh-session"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty cart expected 400, got %d", resp.StatusCode)
	}
}

func TestAvailabilityProbe(t *testing.T) {
	app, _ := newStoreApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/availability?productId=p-headphones", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Status string `json:"status"`
		Qty    int    `json:"qty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "IN_STOCK" || out.Qty != 25 {
		t.Fatalf("bad availability %+v", out)
	}

	respMissing, err := app.Test(httptest.NewRequest("GET", "/api/v1/availability", nil))
	if err != nil {
		t.Fatal(err)
	}
	if respMissing.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing productId expected 400, got %d", respMissing.StatusCode)
	}

	respGone, err := app.Test(httptest.NewRequest("GET", "/api/v1/availability?productId=ghost", nil))
	if err != nil {
		t.Fatal(err)
	}
	var gone struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(respGone.Body).Decode(&gone); err != nil {
		t.Fatal(err)
	}
	if gone.Status != "OUT_OF_STOCK" {
		t.Fatalf("unknown product should read OUT_OF_STOCK, got %+v", gone)
	}
}

func TestSearchRejectsBadQuery(t *testing.T) {
	app, _ := newStoreApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/search?q=%3Cscript%3E", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad search expected 400, got %d", resp.StatusCode)
	}

	respOK, err := app.Test(httptest.NewRequest("GET", "/search?q=kettle", nil))
	if err != nil {
		t.Fatal(err)
	}
	if respOK.StatusCode != http.StatusOK {
		t.Fatalf("valid search expected 200, got %d", respOK.StatusCode)
	}
}
