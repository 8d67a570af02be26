package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"admincore/internal/apperr"
	"admincore/internal/auth"
	"admincore/internal/models"
)

// User administration stays outside the generic engine: password hashing and
// role attachment do not fit the mapper contract.

func ListUsers(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var users []models.User
		if err := db.WithContext(r.Context()).Preload("Roles").Order("created_at desc").Find(&users).Error; err != nil {
			respondError(w, apperr.Persistence("list users", err))
			return
		}
		items := make([]userResp, 0, len(users))
		for i := range users {
			items = append(items, toUserResp(&users[i]))
		}
		respondJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func CreateUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email       string   `json:"email"`
			DisplayName string   `json:"display_name"`
			Password    string   `json:"password"`
			Roles       []string `json:"roles"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		req.Email = strings.TrimSpace(strings.ToLower(req.Email))
		if req.Email == "" || req.Password == "" {
			respondError(w, apperr.NewValidation("email", "email and password required"))
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, apperr.ErrInternal)
			return
		}
		u := models.User{Email: req.Email, DisplayName: strings.TrimSpace(req.DisplayName), PasswordHash: hash, IsActive: true}
		if len(req.Roles) > 0 {
			var roles []models.Role
			if err := db.WithContext(r.Context()).Where("name IN ?", req.Roles).Find(&roles).Error; err == nil {
				u.Roles = roles
			}
		}
		u.StampCreated(auth.ActorID(r.Context()), time.Now())
		if err := db.WithContext(r.Context()).Create(&u).Error; err != nil {
			respondError(w, apperr.Persistence("create user", err))
			return
		}
		respondJSON(w, http.StatusCreated, toUserResp(&u))
	}
}

func UpdateUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			respondError(w, err)
			return
		}
		var req struct {
			Email       *string  `json:"email"`
			DisplayName *string  `json:"display_name"`
			IsActive    *bool    `json:"is_active"`
			Password    *string  `json:"password"`
			Roles       []string `json:"roles"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		var u models.User
		if err := db.WithContext(r.Context()).Preload("Roles").First(&u, "id = ?", id).Error; err != nil {
			respondError(w, apperr.ErrNotFound)
			return
		}
		if req.Email != nil {
			u.Email = strings.TrimSpace(strings.ToLower(*req.Email))
		}
		if req.DisplayName != nil {
			u.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.IsActive != nil {
			u.IsActive = *req.IsActive
		}
		if req.Password != nil && *req.Password != "" {
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				respondError(w, apperr.ErrInternal)
				return
			}
			u.PasswordHash = hash
		}
		if req.Roles != nil {
			var roles []models.Role
			if err := db.WithContext(r.Context()).Where("name IN ?", req.Roles).Find(&roles).Error; err != nil {
				respondError(w, apperr.Persistence("find roles", err))
				return
			}
			if err := db.WithContext(r.Context()).Model(&u).Association("Roles").Replace(roles); err != nil {
				respondError(w, apperr.Persistence("replace roles", err))
				return
			}
		}
		u.StampModified(auth.ActorID(r.Context()), time.Now())
		if err := db.WithContext(r.Context()).Save(&u).Error; err != nil {
			respondError(w, apperr.Persistence("update user", err))
			return
		}
		respondJSON(w, http.StatusOK, toUserResp(&u))
	}
}

func DeleteUser(db *gorm.DB, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			respondError(w, err)
			return
		}
		res := db.WithContext(r.Context()).Delete(&models.User{}, "id = ?", id)
		if res.Error != nil {
			respondError(w, apperr.Persistence("delete user", res.Error))
			return
		}
		if res.RowsAffected == 0 {
			respondError(w, apperr.ErrNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
