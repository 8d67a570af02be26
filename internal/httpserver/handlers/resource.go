package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"admincore/internal/apperr"
	"admincore/internal/crud"
)

// reserved query keys for paged listings; anything else becomes a filter.
var reservedQueryKeys = map[string]struct{}{
	"pageNumber":    {},
	"pageSize":      {},
	"sortBy":        {},
	"sortDirection": {},
	"searchTerm":    {},
}

// Resource adapts one CRUD engine to HTTP. All entity kinds share these
// handlers; only the engine differs.
type Resource[E any, D any] struct {
	Engine   *crud.Engine[E, D]
	Validate *validator.Validate
	Logger   *zap.SugaredLogger
}

func parsePageRequest(r *http.Request) crud.PageRequest {
	q := r.URL.Query()
	req := crud.PageRequest{
		SortBy:        q.Get("sortBy"),
		SortDirection: q.Get("sortDirection"),
		SearchTerm:    q.Get("searchTerm"),
	}
	if n, err := strconv.Atoi(q.Get("pageNumber")); err == nil {
		req.PageNumber = n
	}
	if n, err := strconv.Atoi(q.Get("pageSize")); err == nil {
		req.PageSize = n
	}
	for key, vals := range q {
		if _, ok := reservedQueryKeys[key]; ok {
			continue
		}
		if len(vals) > 0 && vals[0] != "" {
			if req.Filters == nil {
				req.Filters = make(map[string]string)
			}
			req.Filters[key] = vals[0]
		}
	}
	return req
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.ErrNotFound
	}
	return id, nil
}

// ListPaged handles GET /<resource> with pagination/search/sort parameters.
func (res Resource[E, D]) ListPaged(w http.ResponseWriter, r *http.Request) {
	page, err := res.Engine.GetPaged(r.Context(), parsePageRequest(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ListAll handles GET /<resource>/all: full unsorted materialization for
// small reference sets.
func (res Resource[E, D]) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := res.Engine.List(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (res Resource[E, D]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	dto, err := res.Engine.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto)
}

func (res Resource[E, D]) Create(w http.ResponseWriter, r *http.Request) {
	var dto D
	if err := decodeJSON(r, &dto); err != nil {
		respondError(w, err)
		return
	}
	if err := res.Validate.Struct(&dto); err != nil {
		respondError(w, &apperr.ValidationError{Fields: validationFields(err)})
		return
	}
	created, err := res.Engine.Create(r.Context(), &dto)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (res Resource[E, D]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	var dto D
	if err := decodeJSON(r, &dto); err != nil {
		respondError(w, err)
		return
	}
	if err := res.Validate.Struct(&dto); err != nil {
		respondError(w, &apperr.ValidationError{Fields: validationFields(err)})
		return
	}
	updated, err := res.Engine.Update(r.Context(), id, &dto)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (res Resource[E, D]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		respondError(w, err)
		return
	}
	ok, err := res.Engine.Delete(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !ok {
		respondError(w, apperr.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /<resource>/export: CSV of every row matching the same
// search/sort policy as ListPaged.
func (res Resource[E, D]) Export(w http.ResponseWriter, r *http.Request) {
	req := parsePageRequest(r)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", res.Engine.Kind()))
	if err := res.Engine.ExportCSV(r.Context(), w, req); err != nil {
		if res.Logger != nil {
			res.Logger.Errorw("csv export failed", "kind", res.Engine.Kind(), "error", err)
		}
	}
}
