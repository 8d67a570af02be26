// Package catalog wires the managed catalog entities into the generic CRUD
// engine: one mapper and engine configuration per entity kind.
package catalog

import (
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"admincore/internal/crud"
	"admincore/internal/models"
)

// ProductDTO is the transfer representation of a product. Server-assigned
// fields (id, audit stamps) are ignored on input.
type ProductDTO struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name" validate:"required"`
	SKU          string     `json:"sku" validate:"required"`
	Description  string     `json:"description"`
	PriceCents   int64      `json:"price_cents" validate:"gte=0"`
	Quantity     int64      `json:"quantity" validate:"gte=0"`
	CategoryID   *int64     `json:"category_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedByID  *int64     `json:"created_by_id,omitempty"`
	ModifiedAt   *time.Time `json:"modified_at,omitempty"`
	ModifiedByID *int64     `json:"modified_by_id,omitempty"`
}

type productMapper struct{}

func (productMapper) ToDTO(p *models.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		SKU:          p.SKU,
		Description:  p.Description,
		PriceCents:   p.PriceCents,
		Quantity:     p.Quantity,
		CategoryID:   p.CategoryID,
		CreatedAt:    p.CreatedAt,
		CreatedByID:  p.CreatedByID,
		ModifiedAt:   p.ModifiedAt,
		ModifiedByID: p.ModifiedByID,
	}
}

func (productMapper) NewEntity(d *ProductDTO) *models.Product {
	return &models.Product{
		Name:        d.Name,
		SKU:         d.SKU,
		Description: d.Description,
		PriceCents:  d.PriceCents,
		Quantity:    d.Quantity,
		CategoryID:  d.CategoryID,
	}
}

// ApplyUpdate overwrites the updatable fields only; id and creation stamps
// stay as stored.
func (productMapper) ApplyUpdate(p *models.Product, d *ProductDTO) {
	p.Name = d.Name
	p.SKU = d.SKU
	p.Description = d.Description
	p.PriceCents = d.PriceCents
	p.Quantity = d.Quantity
	p.CategoryID = d.CategoryID
}

func (productMapper) Columns() []string {
	return []string{"id", "name", "sku", "description", "price_cents", "quantity", "category_id", "created_at", "modified_at"}
}

func (productMapper) Record(d ProductDTO) []string {
	categoryID := ""
	if d.CategoryID != nil {
		categoryID = strconv.FormatInt(*d.CategoryID, 10)
	}
	modifiedAt := ""
	if d.ModifiedAt != nil {
		modifiedAt = d.ModifiedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(d.ID, 10),
		d.Name,
		d.SKU,
		d.Description,
		strconv.FormatInt(d.PriceCents, 10),
		strconv.FormatInt(d.Quantity, 10),
		categoryID,
		d.CreatedAt.UTC().Format(time.RFC3339),
		modifiedAt,
	}
}

// NewProductEngine configures the CRUD engine for products.
func NewProductEngine(db *gorm.DB, rec crud.ActionRecorder, lg *zap.SugaredLogger) (*crud.Engine[models.Product, ProductDTO], error) {
	return crud.NewEngine(crud.Config[models.Product, ProductDTO]{
		Kind:   "product",
		Store:  crud.NewGormStore[models.Product](db),
		Mapper: productMapper{},
		Sortable: map[string]string{
			"id":          "id",
			"name":        "name",
			"sku":         "sku",
			"price_cents": "price_cents",
			"quantity":    "quantity",
			"created_at":  "created_at",
		},
		Searchable: []string{"name", "sku", "description"},
		Filterable: map[string]string{"category_id": "category_id"},
		Recorder:   rec,
		Logger:     lg,
	})
}
