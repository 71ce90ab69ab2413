package handlers

import (
	"strconv"
	"strings"

	"shophub/internal/domain"
	applog "shophub/internal/log"
	"shophub/internal/repos"
	"shophub/internal/services"
	"shophub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	OrderRepo *repos.OrderRepo
	ProdRepo  *repos.ProductRepo
	Users     *repos.UserRepo
	Orders    *services.OrderService
	Payments  *services.PaymentService
}

// GET /admin
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	low, _ := h.ProdRepo.LowStock()
	ords, _ := h.OrderRepo.ListLatest(10)
	pays, _ := h.Payments.ListLatest(10)
	return render(c, "admin_dashboard", fiber.Map{"LowStock": low, "Orders": ords, "Payments": pays})
}

// GET /admin/orders/find?number=ORD-...
func (h *AdminHandler) FindOrder(c *fiber.Ctx) error {
	number := strings.TrimSpace(c.Query("number"))
	if number == "" {
		return c.Redirect("/admin/orders")
	}
	o, err := h.OrderRepo.GetByNumber(number)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "No order with that number"})
	}
	return c.Redirect("/order/" + o.ID)
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.OrderRepo.ListLatest(100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{"Orders": ords})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := domain.OrderStatus(c.FormValue("status"))
	if id == "" || status == "" {
		return c.Status(400).SendString("missing id or status")
	}
	actor, _ := c.Locals("user").(*domain.User)
	if _, err := h.Orders.Transition(id, status, actor, c.FormValue("note")); err != nil {
		applog.Error(c, "admin.orders.update.fail", err, map[string]any{"order_id": id, "status": string(status)})
		return c.Status(400).SendString("could not update status")
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": string(status)})
	return c.Redirect("/admin/orders")
}

// POST /admin/orders/status runs a batch action over submitted ids. Each
// order is transitioned independently; failures are reported per order.
func (h *AdminHandler) BulkOrderStatus(c *fiber.Ctx) error {
	status := domain.OrderStatus(c.FormValue("status"))
	ids := strings.Split(c.FormValue("ids"), ",")
	clean := ids[:0]
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			clean = append(clean, id)
		}
	}
	if status == "" || len(clean) == 0 {
		return c.Status(400).SendString("missing ids or status")
	}

	actor, _ := c.Locals("user").(*domain.User)
	results := h.Orders.BulkTransition(clean, status, actor, "Batch update by admin")
	okCount := 0
	failed := map[string]string{}
	for _, r := range results {
		if r.Err == nil {
			okCount++
		} else {
			failed[r.OrderID] = r.Err.Error()
		}
	}
	applog.Audit(c, "admin.orders.bulk", map[string]any{
		"status": string(status), "ok": okCount, "failed": failed,
	})
	return render(c, "admin_bulk_result", fiber.Map{
		"Status": string(status), "OK": okCount, "Failed": failed,
	})
}

// POST /admin/orders/:id/tracking
func (h *AdminHandler) SetTracking(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(400).SendString("missing id")
	}
	if err := h.OrderRepo.SetTracking(id, c.FormValue("tracking_number"), c.FormValue("carrier")); err != nil {
		applog.Error(c, "admin.orders.tracking.fail", err, map[string]any{"order_id": id})
		return c.Status(400).SendString("could not save tracking")
	}
	applog.Audit(c, "admin.orders.tracking", map[string]any{"order_id": id})
	return c.Redirect("/admin/orders")
}

// GET /admin/stock
func (h *AdminHandler) Stock(c *fiber.Ctx) error {
	rows, err := h.ProdRepo.LowStock()
	if err != nil {
		applog.Error(c, "admin.stock.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load stock"})
	}
	return render(c, "admin_stock", fiber.Map{"Rows": rows})
}

// POST /admin/stock
func (h *AdminHandler) UpdateStock(c *fiber.Ctx) error {
	pid := c.FormValue("product_id")
	qty, err := strconv.Atoi(c.FormValue("qty"))
	if _, okID := validate.ID(pid); !okID || err != nil || qty < 0 {
		return c.Status(400).SendString("invalid input")
	}
	if err := h.ProdRepo.SetStock(pid, qty); err != nil {
		applog.Error(c, "admin.stock.save.fail", err, map[string]any{"product": pid, "qty": qty})
		return c.Status(400).SendString("could not save stock")
	}
	applog.Audit(c, "admin.stock.save", map[string]any{"product": pid, "qty": qty})
	return c.Redirect("/admin/stock")
}

// UsersPage lists users (excluding admins).
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	users, err := h.Users.List()
	if err != nil {
		applog.Error(c, "admin.users.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load users"})
	}
	return render(c, "admin_users", fiber.Map{"Users": users})
}

// DeleteUser removes a user, cancels their open orders and deletes
// their sessions/carts/wishlists. Order rows stay for audit.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(400).SendString("missing id")
	}
	u, err := h.Users.ByID(id)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "No such user"})
	}
	if u.Role == "ADMIN" {
		return c.Status(403).SendString("cannot delete an admin account")
	}
	if err := h.Users.DeleteUserCascade(id); err != nil {
		applog.Error(c, "admin.users.delete.fail", err, map[string]any{"user_id": id})
		return c.Status(400).SendString("could not delete user")
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id, "email": u.Email})
	return c.Redirect("/admin/users")
}
