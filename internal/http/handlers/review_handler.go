package handlers

import (
	"errors"
	"strconv"

	"shophub/internal/domain"
	applog "shophub/internal/log"
	"shophub/internal/services"
	"shophub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

// POST /product/:id/reviews
func (h *ReviewHandler) Add(c *fiber.Ctx) error {
	pid := c.Params("id")
	if _, ok := validate.ID(pid); !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Product not found"})
	}
	rating, ok := validate.Rating(c.FormValue("rating"))
	if !ok {
		return c.Status(400).SendString("rating must be between 1 and 5")
	}
	user, _ := c.Locals("user").(*domain.User)
	if user == nil {
		return c.Redirect("/login")
	}

	_, err := h.Reviews.Add(pid, user, rating, c.FormValue("title"), c.FormValue("comment"))
	if err != nil {
		if errors.Is(err, services.ErrBadRating) {
			return c.Status(400).SendString("rating must be between 1 and 5")
		}
		applog.Error(c, "reviews.add.fail", err, map[string]any{"product": pid})
		return c.Status(400).SendString("could not save review")
	}
	applog.Audit(c, "reviews.add", map[string]any{"product": pid, "rating": rating})
	return c.Redirect("/product/" + pid)
}

// POST /reviews/:id/vote
func (h *ReviewHandler) Vote(c *fiber.Ctx) error {
	rid := c.Params("id")
	if rid == "" {
		return c.Status(400).SendString("missing review id")
	}
	user, _ := c.Locals("user").(*domain.User)
	if user == nil {
		return c.Redirect("/login")
	}
	helpful, _ := strconv.ParseBool(c.FormValue("helpful"))
	if err := h.Reviews.Vote(rid, user.ID, helpful); err != nil {
		applog.Error(c, "reviews.vote.fail", err, map[string]any{"review": rid})
		return c.Status(400).SendString("could not record vote")
	}
	back := c.Get("Referer")
	if back == "" {
		back = "/"
	}
	return c.Redirect(back)
}
