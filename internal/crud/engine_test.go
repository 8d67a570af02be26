package crud_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"admincore/internal/apperr"
	"admincore/internal/auth"
	"admincore/internal/crud"
	"admincore/internal/models"
)

type widget struct {
	ID    int64
	Name  string
	SKU   string
	Price int64
	models.Audit
}

func (w *widget) GetID() int64 { return w.ID }

type widgetDTO struct {
	ID           int64
	Name         string
	SKU          string
	Price        int64
	CreatedAt    time.Time
	CreatedByID  *int64
	ModifiedAt   *time.Time
	ModifiedByID *int64
}

type widgetMapper struct{}

func (widgetMapper) ToDTO(w *widget) widgetDTO {
	return widgetDTO{
		ID: w.ID, Name: w.Name, SKU: w.SKU, Price: w.Price,
		CreatedAt: w.CreatedAt, CreatedByID: w.CreatedByID,
		ModifiedAt: w.ModifiedAt, ModifiedByID: w.ModifiedByID,
	}
}

func (widgetMapper) NewEntity(d *widgetDTO) *widget {
	return &widget{Name: d.Name, SKU: d.SKU, Price: d.Price}
}

func (widgetMapper) ApplyUpdate(w *widget, d *widgetDTO) {
	w.Name = d.Name
	w.SKU = d.SKU
	w.Price = d.Price
}

func (widgetMapper) Columns() []string { return []string{"id", "name", "sku", "price"} }

func (widgetMapper) Record(d widgetDTO) []string {
	return []string{strconv.FormatInt(d.ID, 10), d.Name, d.SKU, strconv.FormatInt(d.Price, 10)}
}

// memStore implements crud.Store with the same search/sort/window semantics
// the gorm store delegates to the database.
type memStore struct {
	mu   sync.Mutex
	seq  int64
	rows map[int64]widget
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[int64]widget)}
}

func (s *memStore) List(ctx context.Context) ([]widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]widget, 0, len(s.rows))
	for _, w := range s.rows {
		items = append(items, w)
	}
	return items, nil
}

func (s *memStore) FindByID(ctx context.Context, id int64) (*widget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &w, nil
}

func (s *memStore) matches(w widget, q crud.Query) bool {
	for col, val := range q.Filters {
		switch col {
		case "sku":
			if w.SKU != val {
				return false
			}
		default:
			return false
		}
	}
	if q.SearchTerm == "" || len(q.SearchColumns) == 0 {
		return true
	}
	term := strings.ToLower(q.SearchTerm)
	for _, col := range q.SearchColumns {
		var field string
		switch col {
		case "name":
			field = w.Name
		case "sku":
			field = w.SKU
		}
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (s *memStore) FindPage(ctx context.Context, q crud.Query) ([]widget, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []widget
	for _, w := range s.rows {
		if s.matches(w, q) {
			matched = append(matched, w)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch q.SortColumn {
		case "name":
			less = matched[i].Name < matched[j].Name
		case "price":
			less = matched[i].Price < matched[j].Price
		default:
			less = matched[i].ID < matched[j].ID
		}
		if q.SortDesc {
			return !less
		}
		return less
	})
	total := int64(len(matched))
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (s *memStore) Create(ctx context.Context, w *widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	w.ID = s.seq
	s.rows[w.ID] = *w
	return nil
}

func (s *memStore) Save(ctx context.Context, w *widget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[w.ID] = *w
	return nil
}

func (s *memStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return false, nil
	}
	delete(s.rows, id)
	return true, nil
}

func (s *memStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

func newWidgetEngine(t *testing.T) (*crud.Engine[widget, widgetDTO], *memStore) {
	t.Helper()
	store := newMemStore()
	eng, err := crud.NewEngine(crud.Config[widget, widgetDTO]{
		Kind:       "widget",
		Store:      store,
		Mapper:     widgetMapper{},
		Sortable:   map[string]string{"id": "id", "name": "name", "price": "price"},
		Searchable: []string{"name", "sku"},
		Filterable: map[string]string{"sku": "sku"},
	})
	require.NoError(t, err)
	return eng, store
}

func actorContext(userID int64) context.Context {
	return auth.WithClaims(context.Background(), auth.Claims{UserID: userID, Username: "tester"})
}

func TestCreateRoundTrip(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	ctx := actorContext(7)

	created, err := eng.Create(ctx, &widgetDTO{Name: "Anvil", SKU: "ANV-1", Price: 2500})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.NotNil(t, created.CreatedByID)
	require.Equal(t, int64(7), *created.CreatedByID)

	got, err := eng.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Anvil", got.Name)
	require.Equal(t, "ANV-1", got.SKU)
	require.Equal(t, int64(2500), got.Price)
	require.Equal(t, created.CreatedAt, got.CreatedAt)
}

func TestCreateWithoutPrincipalLeavesActorNil(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	created, err := eng.Create(context.Background(), &widgetDTO{Name: "Anvil", SKU: "ANV-1"})
	require.NoError(t, err)
	require.Nil(t, created.CreatedByID)
	require.False(t, created.CreatedAt.IsZero())
}

func TestUpdateStampsModifiedAndKeepsCreated(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	created, err := eng.Create(actorContext(1), &widgetDTO{Name: "Anvil", SKU: "ANV-1", Price: 100})
	require.NoError(t, err)

	updated, err := eng.Update(actorContext(2), created.ID, &widgetDTO{Name: "Anvil XL", SKU: "ANV-1", Price: 150})
	require.NoError(t, err)
	require.Equal(t, "Anvil XL", updated.Name)
	require.Equal(t, int64(150), updated.Price)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.Equal(t, int64(1), *updated.CreatedByID)
	require.NotNil(t, updated.ModifiedAt)
	require.Equal(t, int64(2), *updated.ModifiedByID)
	require.False(t, updated.ModifiedAt.Before(created.CreatedAt))
}

func TestUpdateMissingIsNotFoundWithoutSideEffects(t *testing.T) {
	eng, store := newWidgetEngine(t)
	_, err := eng.Create(actorContext(1), &widgetDTO{Name: "Anvil", SKU: "ANV-1"})
	require.NoError(t, err)
	before, err := store.Count(context.Background())
	require.NoError(t, err)

	_, err = eng.Update(actorContext(1), 999, &widgetDTO{Name: "Ghost"})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	after, err := store.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestDeleteReportsMissing(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	created, err := eng.Create(actorContext(1), &widgetDTO{Name: "Anvil", SKU: "ANV-1"})
	require.NoError(t, err)

	ok, err := eng.Delete(actorContext(1), created.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = eng.Delete(actorContext(1), created.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func seedWidgets(t *testing.T, eng *crud.Engine[widget, widgetDTO], n int) {
	t.Helper()
	ctx := actorContext(1)
	for i := 1; i <= n; i++ {
		_, err := eng.Create(ctx, &widgetDTO{
			Name:  fmt.Sprintf("Widget %02d", i),
			SKU:   fmt.Sprintf("W-%03d", i),
			Price: int64(i * 10),
		})
		require.NoError(t, err)
	}
}

func TestPaginationCoversAllItemsExactlyOnce(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	seedWidgets(t, eng, 25)
	ctx := context.Background()

	const pageSize = 10
	seen := make(map[int64]struct{})
	var pages int
	for page := 1; ; page++ {
		res, err := eng.GetPaged(ctx, crud.PageRequest{PageNumber: page, PageSize: pageSize, SortBy: "id"})
		require.NoError(t, err)
		require.Equal(t, int64(25), res.TotalCount)
		require.Equal(t, 3, res.TotalPages)
		require.Equal(t, page > 1, res.HasPrevious)
		for _, item := range res.Items {
			_, dup := seen[item.ID]
			require.False(t, dup, "item %d seen twice", item.ID)
			seen[item.ID] = struct{}{}
		}
		pages++
		if !res.HasNext {
			break
		}
	}
	require.Equal(t, 3, pages)

	all, err := eng.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(seen))
	for _, item := range all {
		require.Contains(t, seen, item.ID)
	}
}

func TestPaginationMatchesFilteredList(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	seedWidgets(t, eng, 12)
	ctx := context.Background()

	// "Widget 1" matches Widget 10..12.
	res, err := eng.GetPaged(ctx, crud.PageRequest{PageNumber: 1, PageSize: 50, SearchTerm: "Widget 1"})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.TotalCount)
	require.Equal(t, 1, res.TotalPages)
}

func TestUnknownSortKeyDegradesToIDAscending(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	seedWidgets(t, eng, 5)

	res, err := eng.GetPaged(context.Background(), crud.PageRequest{
		PageNumber: 1, PageSize: 10,
		SortBy: "no_such_field", SortDirection: "desc",
	})
	require.NoError(t, err)
	for i := 1; i < len(res.Items); i++ {
		require.Less(t, res.Items[i-1].ID, res.Items[i].ID)
	}
}

func TestSortDescending(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	seedWidgets(t, eng, 5)

	res, err := eng.GetPaged(context.Background(), crud.PageRequest{
		PageNumber: 1, PageSize: 10,
		SortBy: "price", SortDirection: "desc",
	})
	require.NoError(t, err)
	for i := 1; i < len(res.Items); i++ {
		require.GreaterOrEqual(t, res.Items[i-1].Price, res.Items[i].Price)
	}
}

func TestUnknownFilterKeysAreDropped(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	seedWidgets(t, eng, 5)

	res, err := eng.GetPaged(context.Background(), crud.PageRequest{
		PageNumber: 1, PageSize: 10,
		Filters: map[string]string{"sku": "W-003", "bogus": "x"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.TotalCount)
	require.Equal(t, "W-003", res.Items[0].SKU)
}

func TestExportCSV(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	seedWidgets(t, eng, 15)

	var buf bytes.Buffer
	err := eng.ExportCSV(context.Background(), &buf, crud.PageRequest{SortBy: "id"})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 16)
	require.Equal(t, []string{"id", "name", "sku", "price"}, rows[0])
	require.Equal(t, "Widget 01", rows[1][1])
}

func TestExportCSVAppliesSearch(t *testing.T) {
	eng, _ := newWidgetEngine(t)
	seedWidgets(t, eng, 12)

	var buf bytes.Buffer
	err := eng.ExportCSV(context.Background(), &buf, crud.PageRequest{SearchTerm: "W-00"})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	// header + W-001..W-009
	require.Len(t, rows, 10)
}
