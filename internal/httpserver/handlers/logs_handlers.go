package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"admincore/internal/audit"
	"admincore/internal/auth"
	"admincore/internal/rbac"
)

const logsPageLimit = 200

// MyLogs lists the caller's own audit entries; ?all=1 lists everyone's,
// gated on the AuditLogs_Read permission.
func MyLogs(rec *audit.Recorder, eval *rbac.Evaluator, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.FromContext(r.Context())
		if r.URL.Query().Get("all") == "1" {
			ok, err := eval.Has(r.Context(), claims.UserID, rbac.PermAuditLogsRead)
			if err != nil {
				respondError(w, err)
				return
			}
			if !ok {
				respondJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
				return
			}
			logs, err := rec.ListAll(r.Context(), logsPageLimit)
			if err != nil {
				respondError(w, err)
				return
			}
			respondJSON(w, http.StatusOK, map[string]any{"items": logs})
			return
		}
		logs, err := rec.ListForActor(r.Context(), claims.UserID, logsPageLimit)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": logs})
	}
}
