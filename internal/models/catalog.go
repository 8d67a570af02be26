package models

// Product is a managed catalog entity administered through the generic CRUD
// engine.
type Product struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	SKU         string `gorm:"uniqueIndex;not null" json:"sku"`
	Description string `json:"description"`
	PriceCents  int64  `gorm:"not null;default:0" json:"price_cents"`
	Quantity    int64  `gorm:"not null;default:0" json:"quantity"`
	CategoryID  *int64 `gorm:"index" json:"category_id,omitempty"`
	Audit
}

func (p *Product) GetID() int64 { return p.ID }

type Category struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	Audit
}

func (c *Category) GetID() int64 { return c.ID }
