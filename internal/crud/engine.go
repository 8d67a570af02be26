// Package crud implements the permission-gated generic CRUD engine: one
// typed engine per managed entity kind, configured with its store, mapper and
// sort/search tables.
package crud

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"admincore/internal/auth"
)

// AuditStamper is implemented by entities carrying creation/modification
// stamps (models.Audit).
type AuditStamper interface {
	StampCreated(actorID *int64, at time.Time)
	StampModified(actorID *int64, at time.Time)
}

// Identifiable exposes the server-assigned numeric identity.
type Identifiable interface {
	GetID() int64
}

// Mapper converts between an entity and its transfer object. ApplyUpdate
// merges only the fields the mapper declares updatable; identity and creation
// stamps are never overwritten.
type Mapper[E any, D any] interface {
	ToDTO(e *E) D
	NewEntity(dto *D) *E
	ApplyUpdate(e *E, dto *D)
	// Columns and Record define the CSV export shape.
	Columns() []string
	Record(d D) []string
}

// ActionRecorder appends entries to the audit log. Implementations must never
// fail the calling operation.
type ActionRecorder interface {
	Record(ctx context.Context, action, entityKind string, entityID *int64, metadata any)
}

// Config is the per-entity configuration table: no reflection, every sortable
// or searchable field is declared explicitly.
type Config[E any, D any] struct {
	// Kind names the entity in audit log entries, e.g. "product".
	Kind   string
	Store  Store[E]
	Mapper Mapper[E, D]
	// Sortable maps request sort keys to database columns. Unknown keys
	// degrade to id ascending rather than erroring.
	Sortable map[string]string
	// Searchable lists the columns matched against searchTerm.
	Searchable []string
	// Filterable maps request filter keys to columns; unknown keys are
	// dropped.
	Filterable map[string]string
	Recorder   ActionRecorder
	Logger     *zap.SugaredLogger
}

// Engine exposes uniform list/get/create/update/delete/paginate/export
// operations for one entity kind.
type Engine[E any, D any] struct {
	cfg Config[E, D]
	now func() time.Time
}

// NewEngine validates the configuration. The entity type must carry audit
// stamps and a numeric identity.
func NewEngine[E any, D any](cfg Config[E, D]) (*Engine[E, D], error) {
	if cfg.Store == nil || cfg.Mapper == nil {
		return nil, fmt.Errorf("crud: %s: store and mapper are required", cfg.Kind)
	}
	if _, ok := any(new(E)).(AuditStamper); !ok {
		return nil, fmt.Errorf("crud: %s: entity does not carry audit stamps", cfg.Kind)
	}
	if _, ok := any(new(E)).(Identifiable); !ok {
		return nil, fmt.Errorf("crud: %s: entity does not expose an id", cfg.Kind)
	}
	return &Engine[E, D]{cfg: cfg, now: time.Now}, nil
}

// Kind names the entity kind this engine manages.
func (g *Engine[E, D]) Kind() string { return g.cfg.Kind }

// List materializes every entity unsorted. Intended for small reference sets
// only; everything else goes through GetPaged.
func (g *Engine[E, D]) List(ctx context.Context) ([]D, error) {
	items, err := g.cfg.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	return g.toDTOs(items), nil
}

// GetPaged returns one page matching the request's search, filter and sort
// parameters.
func (g *Engine[E, D]) GetPaged(ctx context.Context, req PageRequest) (PageResult[D], error) {
	req = req.Normalize()
	q := g.query(req)
	q.Offset = (req.PageNumber - 1) * req.PageSize
	q.Limit = req.PageSize
	items, total, err := g.cfg.Store.FindPage(ctx, q)
	if err != nil {
		return PageResult[D]{}, err
	}
	return NewPageResult(g.toDTOs(items), total, req.PageNumber, req.PageSize), nil
}

// GetByID returns the transfer object for one entity or ErrNotFound.
func (g *Engine[E, D]) GetByID(ctx context.Context, id int64) (D, error) {
	var zero D
	e, err := g.cfg.Store.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	return g.cfg.Mapper.ToDTO(e), nil
}

// Create converts the dto to a new entity, stamps the creating actor, persists
// and reloads it so server-assigned fields are reflected in the result.
func (g *Engine[E, D]) Create(ctx context.Context, dto *D) (D, error) {
	var zero D
	e := g.cfg.Mapper.NewEntity(dto)
	any(e).(AuditStamper).StampCreated(auth.ActorID(ctx), g.now())
	if err := g.cfg.Store.Create(ctx, e); err != nil {
		return zero, err
	}
	id := any(e).(Identifiable).GetID()
	reloaded, err := g.cfg.Store.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	g.record(ctx, "create", id)
	return g.cfg.Mapper.ToDTO(reloaded), nil
}

// Update merges the dto's updatable fields into the stored entity. A missing
// id yields ErrNotFound with no persistence side effect; there is no upsert.
func (g *Engine[E, D]) Update(ctx context.Context, id int64, dto *D) (D, error) {
	var zero D
	e, err := g.cfg.Store.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	g.cfg.Mapper.ApplyUpdate(e, dto)
	any(e).(AuditStamper).StampModified(auth.ActorID(ctx), g.now())
	if err := g.cfg.Store.Save(ctx, e); err != nil {
		return zero, err
	}
	reloaded, err := g.cfg.Store.FindByID(ctx, id)
	if err != nil {
		return zero, err
	}
	g.record(ctx, "update", id)
	return g.cfg.Mapper.ToDTO(reloaded), nil
}

// Delete removes the entity. Hard delete; false when the id is unknown.
func (g *Engine[E, D]) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := g.cfg.Store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		g.record(ctx, "delete", id)
	}
	return ok, nil
}

// ExportCSV streams every row matching the request's search/sort policy (the
// same policy as GetPaged, without the page window) as a delimited table. The
// header row uses the mapper's column keys.
func (g *Engine[E, D]) ExportCSV(ctx context.Context, w io.Writer, req PageRequest) error {
	q := g.query(req)
	items, _, err := g.cfg.Store.FindPage(ctx, q)
	if err != nil {
		return err
	}
	cw := newCSVStreamer(w)
	if err := cw.writeRow(g.cfg.Mapper.Columns()); err != nil {
		return err
	}
	for i := range items {
		d := g.cfg.Mapper.ToDTO(&items[i])
		if err := cw.writeRow(g.cfg.Mapper.Record(d)); err != nil {
			return err
		}
	}
	return cw.Close()
}

// query translates request-level keys into store columns. Unknown sort keys
// deliberately degrade to identity order instead of failing the request.
func (g *Engine[E, D]) query(req PageRequest) Query {
	sortCol, ok := g.cfg.Sortable[req.SortBy]
	if !ok || sortCol == "" {
		if req.SortBy != "" && g.cfg.Logger != nil {
			g.cfg.Logger.Debugw("unknown sort key, using id", "kind", g.cfg.Kind, "sort_by", req.SortBy)
		}
		return Query{
			SortColumn:    "id",
			SearchTerm:    req.SearchTerm,
			SearchColumns: g.cfg.Searchable,
			Filters:       g.filters(req.Filters),
		}
	}
	return Query{
		SortColumn:    sortCol,
		SortDesc:      req.Descending(),
		SearchTerm:    req.SearchTerm,
		SearchColumns: g.cfg.Searchable,
		Filters:       g.filters(req.Filters),
	}
}

func (g *Engine[E, D]) filters(in map[string]string) map[string]string {
	if len(in) == 0 || len(g.cfg.Filterable) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, val := range in {
		if col, ok := g.cfg.Filterable[key]; ok {
			out[col] = val
		}
	}
	return out
}

func (g *Engine[E, D]) toDTOs(items []E) []D {
	dtos := make([]D, 0, len(items))
	for i := range items {
		dtos = append(dtos, g.cfg.Mapper.ToDTO(&items[i]))
	}
	return dtos
}

func (g *Engine[E, D]) record(ctx context.Context, action string, id int64) {
	if g.cfg.Recorder == nil {
		return
	}
	g.cfg.Recorder.Record(ctx, g.cfg.Kind+"."+action, g.cfg.Kind, &id, nil)
}
