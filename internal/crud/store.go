package crud

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"admincore/internal/apperr"
)

// Query is the store-level shape of a paged or exported listing. Columns in
// here are database column names; translating request keys to columns is the
// engine's job.
type Query struct {
	// Offset/Limit bound the result window; Limit <= 0 disables the window
	// (exports stream every matching row).
	Offset int
	Limit  int

	SortColumn string
	SortDesc   bool

	SearchTerm    string
	SearchColumns []string

	// Filters are exact-match column constraints.
	Filters map[string]string
}

// Store is the narrow persistence contract the engine runs against.
type Store[E any] interface {
	List(ctx context.Context) ([]E, error)
	FindByID(ctx context.Context, id int64) (*E, error)
	FindPage(ctx context.Context, q Query) ([]E, int64, error)
	Create(ctx context.Context, e *E) error
	Save(ctx context.Context, e *E) error
	Delete(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// GormStore implements Store for any gorm model.
type GormStore[E any] struct {
	db *gorm.DB
}

func NewGormStore[E any](db *gorm.DB) *GormStore[E] {
	return &GormStore[E]{db: db}
}

func (s *GormStore[E]) List(ctx context.Context) ([]E, error) {
	var items []E
	if err := s.db.WithContext(ctx).Find(&items).Error; err != nil {
		return nil, apperr.Persistence("list", err)
	}
	return items, nil
}

func (s *GormStore[E]) FindByID(ctx context.Context, id int64) (*E, error) {
	var e E
	err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Persistence("find by id", err)
	}
	return &e, nil
}

func (s *GormStore[E]) FindPage(ctx context.Context, q Query) ([]E, int64, error) {
	var total int64
	if err := s.scope(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, apperr.Persistence("count page", err)
	}

	tx := s.scope(ctx, q)
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}
	if q.SortColumn != "" {
		tx = tx.Order(fmt.Sprintf("%s %s", q.SortColumn, dir))
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var items []E
	if err := tx.Find(&items).Error; err != nil {
		return nil, 0, apperr.Persistence("find page", err)
	}
	return items, total, nil
}

func (s *GormStore[E]) Create(ctx context.Context, e *E) error {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return apperr.Persistence("create", err)
	}
	return nil
}

func (s *GormStore[E]) Save(ctx context.Context, e *E) error {
	if err := s.db.WithContext(ctx).Save(e).Error; err != nil {
		return apperr.Persistence("save", err)
	}
	return nil
}

func (s *GormStore[E]) Delete(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Delete(new(E), "id = ?", id)
	if res.Error != nil {
		return false, apperr.Persistence("delete", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore[E]) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(new(E)).Count(&total).Error; err != nil {
		return 0, apperr.Persistence("count", err)
	}
	return total, nil
}

func (s *GormStore[E]) scope(ctx context.Context, q Query) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(new(E))
	for col, val := range q.Filters {
		tx = tx.Where(fmt.Sprintf("%s = ?", col), val)
	}
	if q.SearchTerm != "" && len(q.SearchColumns) > 0 {
		conds := make([]string, 0, len(q.SearchColumns))
		args := make([]interface{}, 0, len(q.SearchColumns))
		pattern := "%" + q.SearchTerm + "%"
		for _, col := range q.SearchColumns {
			conds = append(conds, fmt.Sprintf("%s ILIKE ?", col))
			args = append(args, pattern)
		}
		tx = tx.Where(strings.Join(conds, " OR "), args...)
	}
	return tx
}

var _ Store[struct{}] = (*GormStore[struct{}])(nil)
