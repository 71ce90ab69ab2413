package handlers

import (
	"errors"

	"shophub/internal/domain"
	applog "shophub/internal/log"
	"shophub/internal/services"
	"shophub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct {
	Cart *services.CartService
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	variantID := c.FormValue("variantId")
	if variantID != "" {
		if _, ok := validate.ID(variantID); !ok {
			return c.Status(400).SendString("invalid variantId")
		}
	}
	qty := validate.Qty(c.FormValue("qty"))
	replace := c.FormValue("replace") == "1"

	if err := h.Cart.Add(sid, productID, variantID, qty, replace); err != nil {
		applog.Error(c, "cart.add.fail", err, map[string]any{"product": productID})
		return c.Status(500).SendString("Could not add item")
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	variantID := c.FormValue("variantId")
	qty := 0
	if s := c.FormValue("qty"); s != "" {
		qty = validate.Qty(s)
	}
	// qty<=0 falls through to removal inside the service
	if c.FormValue("remove") == "1" {
		qty = 0
	}
	if err := h.Cart.SetQuantity(sid, productID, variantID, qty); err != nil {
		applog.Error(c, "cart.update.fail", err, map[string]any{"product": productID})
		return c.Status(500).SendString("Could not update cart")
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	productID, ok := validate.ID(c.FormValue("productId"))
	if !ok {
		return c.Status(400).SendString("missing productId")
	}
	if err := h.Cart.Remove(sid, productID, c.FormValue("variantId")); err != nil {
		applog.Error(c, "cart.remove.fail", err, map[string]any{"product": productID})
		return c.Status(500).SendString("Could not remove item")
	}
	return c.Redirect("/cart")
}

func (h *CartHandler) Reprice(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if err := h.Cart.Reprice(sid); err != nil {
		applog.Error(c, "cart.reprice.fail", err, nil)
		return c.Status(500).SendString("Could not update prices")
	}
	applog.Audit(c, "cart.reprice", nil)
	return c.Redirect("/cart")
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cv, err := h.Cart.View(sid)
	if err != nil {
		var inc *domain.CartInconsistencyError
		if errors.As(err, &inc) {
			applog.Error(c, "cart.inconsistent", err, map[string]any{"product": inc.ProductID})
			return c.Status(fiber.StatusConflict).Render("notfound", fiber.Map{
				"Message": "An item in your cart is no longer sold. Please remove it and try again.",
			})
		}
		return c.Status(500).SendString(err.Error())
	}
	return render(c, "cart", fiber.Map{"Cart": cv})
}
