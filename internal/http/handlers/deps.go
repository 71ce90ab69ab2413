package handlers

import (
	"shophub/internal/config"
	"shophub/internal/notify"
	"shophub/internal/repos"
	"shophub/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	SearchHandler   *SearchHandler
	CartHandler     *CartHandler
	OrderHandler    *OrderHandler
	PaymentHandler  *PaymentHandler
	ReviewHandler   *ReviewHandler
	WishlistHandler *WishlistHandler
	AuthHandler     *AuthHandler
	AdminHandler    *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, dispatcher notify.Dispatcher) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	payRepo := repos.NewPaymentRepo(db)
	reviewRepo := repos.NewReviewRepo(db)
	wishRepo := repos.NewWishlistRepo(db)
	userRepo := repos.NewUserRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	orderSvc := services.NewOrderService(cartRepo, prodRepo, orderRepo, dispatcher)
	orderSvc.TaxRate = cfg.TaxRate
	orderSvc.ShippingFee = cfg.ShippingFee
	orderSvc.Prefix = cfg.OrderPrefix
	paySvc := services.NewPaymentService(payRepo, orderRepo)
	reviewSvc := services.NewReviewService(reviewRepo, orderRepo, prodRepo)
	wishSvc := services.NewWishlistService(wishRepo)

	return &Deps{
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc, Reviews: reviewSvc},
		SearchHandler:   &SearchHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
		OrderHandler:    &OrderHandler{Cart: cartSvc, Order: orderSvc, Repo: orderRepo, Auth: auth},
		PaymentHandler:  &PaymentHandler{Payments: paySvc, Orders: orderRepo},
		ReviewHandler:   &ReviewHandler{Reviews: reviewSvc},
		WishlistHandler: &WishlistHandler{Wish: wishSvc},
		AuthHandler:     &AuthHandler{Auth: auth},
		AdminHandler:    &AdminHandler{OrderRepo: orderRepo, ProdRepo: prodRepo, Users: userRepo, Orders: orderSvc, Payments: paySvc},
	}
}
