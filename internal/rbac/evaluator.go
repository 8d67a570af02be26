// Package rbac resolves role-based permission grants and gates requests on
// them.
package rbac

import (
	"context"

	"gorm.io/gorm"

	"admincore/internal/apperr"
)

// GrantSource yields the permission names currently granted to a user through
// its roles.
type GrantSource interface {
	PermissionsFor(ctx context.Context, userID int64) ([]string, error)
}

// GormGrantSource resolves grants with a single join across user_roles,
// role_permissions and permissions.
type GormGrantSource struct {
	db *gorm.DB
}

func NewGrantSource(db *gorm.DB) *GormGrantSource {
	return &GormGrantSource{db: db}
}

func (s *GormGrantSource) PermissionsFor(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Table("permissions").
		Distinct("permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID).
		Pluck("permissions.name", &names).Error
	if err != nil {
		return nil, apperr.Persistence("resolve permissions", err)
	}
	return names, nil
}

var _ GrantSource = (*GormGrantSource)(nil)

// Evaluator answers permission questions for a principal. Resolution is the
// union of grants across all of the user's roles, re-read on every call so
// role and grant changes take effect on the next request. There is no
// superuser bypass: an Admin role only implies what it has been granted.
type Evaluator struct {
	source GrantSource
}

func NewEvaluator(source GrantSource) *Evaluator {
	return &Evaluator{source: source}
}

// ResolvePermissions returns the deduplicated permission set for the user.
func (e *Evaluator) ResolvePermissions(ctx context.Context, userID int64) (map[string]struct{}, error) {
	names, err := e.source.PermissionsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set, nil
}

// Has reports whether the user holds the named permission.
func (e *Evaluator) Has(ctx context.Context, userID int64, name string) (bool, error) {
	set, err := e.ResolvePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	_, ok := set[name]
	return ok, nil
}

// HasAny reports whether the user holds at least one of the named permissions.
func (e *Evaluator) HasAny(ctx context.Context, userID int64, names ...string) (bool, error) {
	set, err := e.ResolvePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if _, ok := set[n]; ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAll reports whether the user holds every one of the named permissions.
func (e *Evaluator) HasAll(ctx context.Context, userID int64, names ...string) (bool, error) {
	set, err := e.ResolvePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if _, ok := set[n]; !ok {
			return false, nil
		}
	}
	return true, nil
}
