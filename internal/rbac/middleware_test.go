package rbac_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"admincore/internal/auth"
	"admincore/internal/rbac"
)

func gateFor(grants map[int64][]string) rbac.Gate {
	return rbac.Gate{Evaluator: rbac.NewEvaluator(&stubSource{grants: grants})}
}

func serveGuarded(t *testing.T, mw func(http.Handler) http.Handler, claims *auth.Claims) *httptest.ResponseRecorder {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if claims != nil {
		req = req.WithContext(auth.WithClaims(req.Context(), *claims))
	}
	res := httptest.NewRecorder()
	mw(next).ServeHTTP(res, req)
	return res
}

func TestGateRejectsUnauthenticated(t *testing.T) {
	gate := gateFor(map[int64][]string{})
	res := serveGuarded(t, gate.Require("Products_Read"), nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestGateAnyAllowsPartialHolder(t *testing.T) {
	// Products_Create alone satisfies any[Products_Create, Products_Update].
	gate := gateFor(map[int64][]string{7: {"Products_Create"}})
	claims := &auth.Claims{UserID: 7, Username: "creator"}
	res := serveGuarded(t, gate.Require("Products_Create", "Products_Update"), claims)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestGateAllRejectsPartialHolder(t *testing.T) {
	// The same user fails all[Products_Create, Products_Update].
	gate := gateFor(map[int64][]string{7: {"Products_Create"}})
	claims := &auth.Claims{UserID: 7, Username: "creator"}
	res := serveGuarded(t, gate.RequireAll("Products_Create", "Products_Update"), claims)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestGateAllAllowsFullHolder(t *testing.T) {
	gate := gateFor(map[int64][]string{7: {"Products_Create", "Products_Update"}})
	claims := &auth.Claims{UserID: 7}
	res := serveGuarded(t, gate.RequireAll("Products_Create", "Products_Update"), claims)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestGateForbidsMissingPermission(t *testing.T) {
	gate := gateFor(map[int64][]string{7: {"Categories_Read"}})
	claims := &auth.Claims{UserID: 7}
	res := serveGuarded(t, gate.Require("Products_Read"), claims)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestGateWithoutPermissionsPassesThrough(t *testing.T) {
	gate := gateFor(map[int64][]string{})
	res := serveGuarded(t, gate.Enforce(rbac.Guard{}), nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestGateMapsEvaluatorFailureToInternalError(t *testing.T) {
	gate := rbac.Gate{Evaluator: rbac.NewEvaluator(&stubSource{err: errors.New("db down")})}
	claims := &auth.Claims{UserID: 7}
	res := serveGuarded(t, gate.Require("Products_Read"), claims)
	require.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestGuardDefaultCombinatorIsOr(t *testing.T) {
	// Listing several permissions without RequireAll loosens, not tightens.
	gate := gateFor(map[int64][]string{7: {"Products_Update"}})
	claims := &auth.Claims{UserID: 7}
	res := serveGuarded(t, gate.Enforce(rbac.Guard{Permissions: []string{"Products_Create", "Products_Update"}}), claims)
	require.Equal(t, http.StatusOK, res.Code)
}
