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

type PaymentHandler struct {
	Payments *services.PaymentService
	Orders   *repos.OrderRepo
}

// PaymentRow pairs a payment with its refunds for the admin page.
type PaymentRow struct {
	domain.Payment
	Refunds []domain.Refund
}

// GET /admin/orders/:id/payments
func (h *PaymentHandler) ListForOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	o, err := h.Orders.Get(orderID)
	if err != nil {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	pays, err := h.Payments.ListByOrder(orderID)
	if err != nil {
		applog.Error(c, "payments.list.fail", err, map[string]any{"order_id": orderID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load payments"})
	}
	rows := make([]PaymentRow, 0, len(pays))
	for _, p := range pays {
		refunds, _ := h.Payments.ListRefunds(p.ID)
		rows = append(rows, PaymentRow{Payment: p, Refunds: refunds})
	}
	return render(c, "admin_payments", fiber.Map{"Order": o, "Payments": rows})
}

// POST /admin/orders/:id/payments
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	orderID := c.Params("id")
	amount, ok := validate.Amount(c.FormValue("amount"))
	if !ok {
		return c.Status(400).SendString("invalid amount")
	}
	method := domain.PaymentMethod(c.FormValue("method"))
	actor, _ := c.Locals("user").(*domain.User)
	p, err := h.Payments.RecordPayment(orderID, method, amount, c.FormValue("gateway_ref"), actor)
	if err != nil {
		if errors.Is(err, services.ErrBadPaymentMethod) {
			return c.Status(400).SendString("unknown payment method")
		}
		if errors.Is(err, domain.ErrOrderNotFound) {
			return c.Status(404).SendString("order not found")
		}
		applog.Error(c, "payments.record.fail", err, map[string]any{"order_id": orderID})
		return c.Status(400).SendString("could not record payment")
	}
	applog.Audit(c, "payments.record", map[string]any{"order_id": orderID, "payment_id": p.ID, "amount": amount})
	return c.Redirect("/admin/orders/" + orderID + "/payments")
}

// POST /admin/payments/:id/complete
func (h *PaymentHandler) Complete(c *fiber.Ctx) error {
	id := c.Params("id")
	p, err := h.Payments.CompletePayment(id)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return c.Status(404).SendString("payment not found")
		}
		applog.Error(c, "payments.complete.fail", err, map[string]any{"payment_id": id})
		return c.Status(400).SendString("could not complete payment")
	}
	applog.Audit(c, "payments.complete", map[string]any{"payment_id": id, "order_id": p.OrderID})
	return c.Redirect("/admin/orders/" + p.OrderID + "/payments")
}

// POST /admin/payments/:id/fail
func (h *PaymentHandler) Fail(c *fiber.Ctx) error {
	id := c.Params("id")
	p, err := h.Payments.FailPayment(id, c.FormValue("reason"))
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return c.Status(404).SendString("payment not found")
		}
		applog.Error(c, "payments.fail.fail", err, map[string]any{"payment_id": id})
		return c.Status(400).SendString("could not mark payment failed")
	}
	applog.Audit(c, "payments.fail", map[string]any{"payment_id": id, "order_id": p.OrderID})
	return c.Redirect("/admin/orders/" + p.OrderID + "/payments")
}

// POST /admin/orders/:id/paid marks the order paid once; replaying
// the request does not move paid_at.
func (h *PaymentHandler) MarkPaid(c *fiber.Ctx) error {
	orderID := c.Params("id")
	if err := h.Payments.MarkOrderPaid(orderID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return c.Status(404).SendString("order not found")
		}
		applog.Error(c, "payments.markpaid.fail", err, map[string]any{"order_id": orderID})
		return c.Status(400).SendString("could not mark order paid")
	}
	applog.Audit(c, "payments.markpaid", map[string]any{"order_id": orderID})
	return c.Redirect("/admin/orders/" + orderID + "/payments")
}

// POST /admin/payments/:id/refund
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	id := c.Params("id")
	amount, ok := validate.Amount(c.FormValue("amount"))
	if !ok {
		return c.Status(400).SendString("invalid amount")
	}
	actor, _ := c.Locals("user").(*domain.User)
	r, err := h.Payments.RecordRefund(id, amount, c.FormValue("reason"), actor)
	if err != nil {
		if errors.Is(err, domain.ErrRefundExceedsPayment) {
			return c.Status(400).SendString("refund exceeds remaining payment amount")
		}
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return c.Status(404).SendString("payment not found")
		}
		applog.Error(c, "payments.refund.fail", err, map[string]any{"payment_id": id})
		return c.Status(400).SendString("could not record refund")
	}
	applog.Audit(c, "payments.refund", map[string]any{"payment_id": id, "refund_id": r.ID, "amount": amount})
	p, perr := h.Payments.Get(id)
	if perr != nil {
		return c.Redirect("/admin/orders")
	}
	return c.Redirect("/admin/orders/" + p.OrderID + "/payments")
}
