package rbac_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"admincore/internal/rbac"
)

// stubSource maps user ids straight to granted permission names.
type stubSource struct {
	grants map[int64][]string
	err    error
}

func (s *stubSource) PermissionsFor(ctx context.Context, userID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.grants[userID], nil
}

func TestResolvePermissionsDeduplicates(t *testing.T) {
	eval := rbac.NewEvaluator(&stubSource{grants: map[int64][]string{
		// Same grant via two roles.
		1: {"Products_Read", "Products_Read", "Products_Create"},
	}})
	set, err := eval.ResolvePermissions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.Contains(t, set, "Products_Read")
	require.Contains(t, set, "Products_Create")
}

func TestHasAnyIsOrHasAllIsAnd(t *testing.T) {
	eval := rbac.NewEvaluator(&stubSource{grants: map[int64][]string{
		1: {"Products_Create"},
	}})
	ctx := context.Background()

	ok, err := eval.HasAny(ctx, 1, "Products_Create", "Products_Update")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = eval.HasAll(ctx, 1, "Products_Create", "Products_Update")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = eval.HasAll(ctx, 1, "Products_Create")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasAllEqualsConjunctionOfHas(t *testing.T) {
	grants := map[int64][]string{
		1: {"Products_Read", "Products_Create", "Categories_Read"},
		2: {"Products_Read"},
	}
	eval := rbac.NewEvaluator(&stubSource{grants: grants})
	ctx := context.Background()
	perms := []string{"Products_Read", "Products_Create", "Users_Read"}

	for userID := int64(1); userID <= 2; userID++ {
		for _, set := range [][]string{perms[:1], perms[:2], perms} {
			all, err := eval.HasAll(ctx, userID, set...)
			require.NoError(t, err)
			any, err := eval.HasAny(ctx, userID, set...)
			require.NoError(t, err)

			expectedAll, expectedAny := true, false
			for _, p := range set {
				has, err := eval.Has(ctx, userID, p)
				require.NoError(t, err)
				expectedAll = expectedAll && has
				expectedAny = expectedAny || has
			}
			require.Equal(t, expectedAll, all)
			require.Equal(t, expectedAny, any)
		}
	}
}

func TestGrantsAreMonotonicInRoles(t *testing.T) {
	// Adding a role's grants can only add permissions, never remove.
	base := []string{"Products_Read"}
	extended := append([]string{"Categories_Read"}, base...)
	evalBase := rbac.NewEvaluator(&stubSource{grants: map[int64][]string{1: base}})
	evalExt := rbac.NewEvaluator(&stubSource{grants: map[int64][]string{1: extended}})
	ctx := context.Background()

	baseSet, err := evalBase.ResolvePermissions(ctx, 1)
	require.NoError(t, err)
	extSet, err := evalExt.ResolvePermissions(ctx, 1)
	require.NoError(t, err)
	for p := range baseSet {
		require.Contains(t, extSet, p)
	}
}

func TestNoImplicitSuperuser(t *testing.T) {
	// A user whose role happens to be named Admin gets nothing for free.
	eval := rbac.NewEvaluator(&stubSource{grants: map[int64][]string{1: nil}})
	ok, err := eval.Has(context.Background(), 1, "Products_Read")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEvaluatorPropagatesSourceErrors(t *testing.T) {
	boom := errors.New("db down")
	eval := rbac.NewEvaluator(&stubSource{err: boom})
	_, err := eval.Has(context.Background(), 1, "Products_Read")
	require.ErrorIs(t, err, boom)
}
