package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"admincore/internal/apperr"
	"admincore/internal/rbac"
)

func ListRoles(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		roles, err := svc.ListRoles(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": roles})
	}
}

func CreateRole(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		role, err := svc.CreateRole(r.Context(), req.Name, req.Description)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, role)
	}
}

func UpdateRole(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			respondError(w, err)
			return
		}
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		role, err := svc.UpdateRole(r.Context(), id, req.Name, req.Description)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, role)
	}
}

func DeleteRole(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			respondError(w, err)
			return
		}
		ok, err := svc.DeleteRole(r.Context(), id)
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
}

func ListPermissions(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		perms, err := svc.ListPermissions(r.Context())
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": perms})
	}
}

func CreatePermission(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Resource string `json:"resource"`
			Action   string `json:"action"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		perm, err := svc.EnsurePermission(r.Context(), req.Resource, req.Action)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, perm)
	}
}

// SetRolePermissions replaces a role's grants with the posted set.
func SetRolePermissions(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			respondError(w, err)
			return
		}
		var req struct {
			PermissionIDs []int64 `json:"permission_ids"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if err := svc.SetRolePermissions(r.Context(), id, req.PermissionIDs); err != nil {
			respondError(w, err)
			return
		}
		role, err := svc.GetRole(r.Context(), id)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, role)
	}
}

func AssignUserRole(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := idParam(r)
		if err != nil {
			respondError(w, err)
			return
		}
		var req struct {
			RoleID int64 `json:"role_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if err := svc.AssignRole(r.Context(), userID, req.RoleID); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"assigned": true})
	}
}

func RemoveUserRole(svc *rbac.AdminService, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := idParam(r)
		if err != nil {
			respondError(w, err)
			return
		}
		roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
		if err != nil || roleID <= 0 {
			respondError(w, apperr.ErrNotFound)
			return
		}
		ok, err := svc.RemoveRole(r.Context(), userID, roleID)
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
}
