package handlers

import (
	"strings"

	applog "shophub/internal/log"
	"shophub/internal/services"
	"shophub/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) Home(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories()
	if err != nil {
		return c.Status(500).SendString(err.Error())
	}
	brands, _ := h.Catalog.ListBrands()
	featured, _ := h.Catalog.ListFeatured(8)
	return render(c, "home", fiber.Map{"Categories": cats, "Brands": brands, "Featured": featured})
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	catID := c.Params("id")
	page := c.QueryInt("page", 1)
	products, err := h.Catalog.ListProductsByCategory(catID, page, 12)
	if err != nil {
		return c.Status(500).SendString(err.Error())
	}
	return render(c, "category", fiber.Map{"CategoryID": catID, "Products": products, "Page": page})
}

type ProductHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	p, err := h.Catalog.GetProduct(id)
	if err != nil || p.ID == "" || !p.Active {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This item is no longer available"})
	}
	_ = h.Catalog.Prods.IncrementViews(id)

	variants, _ := h.Catalog.Variants(id)
	reviews, avg, _ := h.Reviews.ListForProduct(id)
	avail, _ := h.Catalog.CheckAvailability(id)

	return render(c, "product", fiber.Map{
		"P": p, "Variants": variants,
		"Reviews": reviews, "AvgRating": avg,
		"Availability": avail,
	})
}

// Availability is the JSON stock probe used by product pages.
func (h *ProductHandler) Availability(c *fiber.Ctx) error {
	productID := strings.TrimSpace(c.Query("productId"))
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing productId"})
	}
	avail, err := h.Catalog.CheckAvailability(productID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(avail)
}

type SearchHandler struct {
	Catalog *services.CatalogService
}

func (h *SearchHandler) Search(c *fiber.Ctx) error {
	rawQ := c.Query("q")
	if strings.TrimSpace(rawQ) == "" {
		// Initial page load: show empty search without errors
		return render(c, "search", fiber.Map{"Q": "", "Products": []any{}, "Count": 0})
	}
	q, ok := validate.Q(rawQ)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "q", "value": rawQ})
		return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
			"Q": "", "Products": []any{}, "Count": 0, "Err": "Enter a valid keyword (letters/numbers only)",
		})
	}
	q = strings.ToLower(q)
	category := strings.TrimSpace(c.Query("category"))
	if category != "" {
		if _, ok := validate.ID(category); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "category"})
			return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
				"Q": q, "Products": []any{}, "Count": 0, "Err": "Invalid category",
			})
		}
	}
	brand := strings.TrimSpace(c.Query("brand"))
	if brand != "" {
		if _, ok := validate.ID(brand); !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "brand"})
			return c.Status(fiber.StatusBadRequest).Render("search", fiber.Map{
				"Q": q, "Products": []any{}, "Count": 0, "Err": "Invalid brand",
			})
		}
	}

	products, err := h.Catalog.Search(q, category, brand, 1, 20)
	if err != nil {
		applog.Error(c, "search.error", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load results. Please retry."})
	}

	return render(c, "search", fiber.Map{
		"Q": q, "CategoryID": category, "BrandID": brand,
		"Products": products, "Count": len(products),
	})
}
