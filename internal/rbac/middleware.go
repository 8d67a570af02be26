package rbac

import (
	"net/http"

	"go.uber.org/zap"

	"admincore/internal/auth"
)

// Guard declares the permissions an operation requires and how multiple
// entries combine.
type Guard struct {
	Permissions []string
	// RequireAll switches the combinator from OR to AND.
	RequireAll bool
}

// Gate evaluates guards against the request principal before a handler runs.
type Gate struct {
	Evaluator *Evaluator
	Logger    *zap.SugaredLogger
}

// Require allows the request when the principal holds ANY of the listed
// permissions. Note the OR default: listing several permissions loosens the
// guard rather than tightening it. Use RequireAll for AND semantics.
func (g Gate) Require(perms ...string) func(http.Handler) http.Handler {
	return g.Enforce(Guard{Permissions: perms})
}

// RequireAll allows the request only when the principal holds EVERY listed
// permission.
func (g Gate) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return g.Enforce(Guard{Permissions: perms, RequireAll: true})
}

// Enforce turns a guard into middleware. Evaluation short-circuits in order:
// no principal -> 401, evaluator failure -> 500, combinator unsatisfied -> 403.
func (g Gate) Enforce(guard Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(guard.Permissions) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			claims := auth.FromContext(r.Context())
			if !claims.Authenticated() {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			var (
				ok  bool
				err error
			)
			if guard.RequireAll {
				ok, err = g.Evaluator.HasAll(r.Context(), claims.UserID, guard.Permissions...)
			} else {
				ok, err = g.Evaluator.HasAny(r.Context(), claims.UserID, guard.Permissions...)
			}
			if err != nil {
				if g.Logger != nil {
					g.Logger.Errorw("permission check failed", "user_id", claims.UserID, "error", err)
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
