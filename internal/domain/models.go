package domain

type Category struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Active      bool   `db:"active"`
	CreatedAt   string `db:"created_at"`
}

type Brand struct {
	ID      string `db:"id"`
	Name    string `db:"name"`
	Website string `db:"website"`
	Active  bool   `db:"active"`
}

type Product struct {
	ID                string  `db:"id"`
	CategoryID        string  `db:"category_id"`
	BrandID           string  `db:"brand_id"`
	Name              string  `db:"name"`
	SKU               string  `db:"sku"`
	Description       string  `db:"description"`
	Price             float64 `db:"price"`
	ComparePrice      float64 `db:"compare_price"` // original price for discount display; 0 = none
	Stock             int     `db:"stock"`
	LowStockThreshold int     `db:"low_stock_threshold"`
	SalesCount        int     `db:"sales_count"`
	Views             int     `db:"views"`
	Featured          bool    `db:"featured"`
	IsNew             bool    `db:"is_new"`
	Active            bool    `db:"active"`
	CreatedAt         string  `db:"created_at"`
	UpdatedAt         string  `db:"updated_at"`
}

func (p Product) InStock() bool  { return p.Stock > 0 }
func (p Product) LowStock() bool { return p.Stock <= p.LowStockThreshold }

// Variant is a purchasable configuration of a product (e.g. Size: Large)
// with its own SKU, stock and a price adjustment on top of the product price.
type Variant struct {
	ID              string  `db:"id"`
	ProductID       string  `db:"product_id"`
	Name            string  `db:"name"`
	Value           string  `db:"value"`
	SKU             string  `db:"sku"`
	PriceAdjustment float64 `db:"price_adjustment"`
	Stock           int     `db:"stock"`
	Active          bool    `db:"active"`
}

// Label renders the variant the way it is snapshotted onto order lines.
func (v Variant) Label() string {
	if v.Name == "" {
		return v.Value
	}
	return v.Name + ": " + v.Value
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}
