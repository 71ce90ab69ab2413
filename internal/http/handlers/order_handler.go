package handlers

import (
	"errors"

	"shophub/internal/domain"
	applog "shophub/internal/log"
	"shophub/internal/repos"
	"shophub/internal/services"
	"shophub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Cart  *services.CartService
	Order *services.OrderService
	Repo  *repos.OrderRepo
	Auth  *services.AuthService
}

func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	cv, err := h.Cart.View(ensureSID(c))
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	if len(cv.Items) == 0 {
		return c.Redirect("/cart")
	}
	return render(c, "checkout", fiber.Map{"Cart": cv})
}

func (h *OrderHandler) Place(c *fiber.Ctx) error {
	sid := ensureSID(c)

	name, ok := validate.Name(c.FormValue("full_name"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "full_name"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid name")
	}
	phone, ok := validate.Phone(c.FormValue("phone"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "phone"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid phone")
	}
	postal, ok := validate.PostalCode(c.FormValue("postal_code"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "postal_code"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid postal code")
	}
	line1, ok := validate.Name(c.FormValue("address_line1"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "address_line1"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid address")
	}
	city, ok := validate.Name(c.FormValue("city"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "city"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid city")
	}

	addr := domain.Address{
		FullName:   name,
		Phone:      phone,
		Line1:      line1,
		Line2:      c.FormValue("address_line2"),
		City:       city,
		State:      c.FormValue("state"),
		Country:    c.FormValue("country"),
		PostalCode: postal,
	}

	var user *domain.User
	if h.Auth != nil {
		if u, err := h.Auth.CurrentUser(sid); err == nil {
			user = u
		}
	}

	o, err := h.Order.Place(sid, addr, user, c.FormValue("notes"))
	if err != nil {
		var stock *domain.InsufficientStockError
		switch {
		case errors.Is(err, domain.ErrEmptyCart):
			applog.Security(c, "order.place.fail", map[string]any{"sid": sid, "reason": "empty_cart"})
			return c.Status(fiber.StatusBadRequest).SendString("Your cart is empty.")
		case errors.As(err, &stock):
			applog.Security(c, "order.place.fail", map[string]any{"sid": sid, "product": stock.ProductID, "reason": "stock"})
			return c.Status(fiber.StatusConflict).SendString("Not enough stock for " + stock.Name + ". Please review quantities and try again.")
		default:
			applog.Error(c, "order.place.fail", err, map[string]any{"sid": sid})
			return c.Status(fiber.StatusBadRequest).SendString("Could not place order. Please review quantities and try again.")
		}
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id": o.ID, "order_number": o.Number, "total": o.Total,
	})

	return c.Redirect("/order/" + o.ID)
}

func (h *OrderHandler) View(c *fiber.Ctx) error {
	oid := c.Params("id")
	if oid == "" {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}

	o, lines, err := h.Order.Get(oid)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	history, _ := h.Order.History(oid)

	// Ownership check: session owner or the same user; admins allowed.
	sid := c.Cookies("sid")
	var uID, uRole string
	if h.Auth != nil && sid != "" {
		if u, err := h.Auth.CurrentUser(sid); err == nil && u != nil {
			uID = u.ID
			uRole = u.Role
		}
	}
	owner := (sid != "" && sid == o.SessionID) || (uID != "" && uID == o.UserID)
	if !owner && uRole != "ADMIN" {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": oid})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}

	return render(c, "order", fiber.Map{"Order": o, "Lines": lines, "History": history})
}

// History lists orders for the current logged-in user.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u, _ := c.Locals("user").(*domain.User)
	if u == nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Orders not available"})
	}
	orders, err := h.Repo.ListByUser(u.ID)
	if err != nil {
		applog.Error(c, "orders.history.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	// Fallback: show session orders placed before login
	if len(orders) == 0 {
		if sid := c.Cookies("sid"); sid != "" {
			if sessOrders, err := h.Repo.ListBySession(sid); err == nil && len(sessOrders) > 0 {
				orders = sessOrders
			}
		}
	}
	return render(c, "order_history", fiber.Map{"Orders": orders})
}
