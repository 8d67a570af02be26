package catalog

import (
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"admincore/internal/crud"
	"admincore/internal/models"
)

type CategoryDTO struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name" validate:"required"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
	CreatedByID  *int64     `json:"created_by_id,omitempty"`
	ModifiedAt   *time.Time `json:"modified_at,omitempty"`
	ModifiedByID *int64     `json:"modified_by_id,omitempty"`
}

type categoryMapper struct{}

func (categoryMapper) ToDTO(c *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		CreatedAt:    c.CreatedAt,
		CreatedByID:  c.CreatedByID,
		ModifiedAt:   c.ModifiedAt,
		ModifiedByID: c.ModifiedByID,
	}
}

func (categoryMapper) NewEntity(d *CategoryDTO) *models.Category {
	return &models.Category{Name: d.Name, Description: d.Description}
}

func (categoryMapper) ApplyUpdate(c *models.Category, d *CategoryDTO) {
	c.Name = d.Name
	c.Description = d.Description
}

func (categoryMapper) Columns() []string {
	return []string{"id", "name", "description", "created_at", "modified_at"}
}

func (categoryMapper) Record(d CategoryDTO) []string {
	modifiedAt := ""
	if d.ModifiedAt != nil {
		modifiedAt = d.ModifiedAt.UTC().Format(time.RFC3339)
	}
	return []string{
		strconv.FormatInt(d.ID, 10),
		d.Name,
		d.Description,
		d.CreatedAt.UTC().Format(time.RFC3339),
		modifiedAt,
	}
}

// NewCategoryEngine configures the CRUD engine for categories.
func NewCategoryEngine(db *gorm.DB, rec crud.ActionRecorder, lg *zap.SugaredLogger) (*crud.Engine[models.Category, CategoryDTO], error) {
	return crud.NewEngine(crud.Config[models.Category, CategoryDTO]{
		Kind:   "category",
		Store:  crud.NewGormStore[models.Category](db),
		Mapper: categoryMapper{},
		Sortable: map[string]string{
			"id":         "id",
			"name":       "name",
			"created_at": "created_at",
		},
		Searchable: []string{"name", "description"},
		Recorder:   rec,
		Logger:     lg,
	})
}
