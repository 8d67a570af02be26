package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"admincore/internal/apperr"
	"admincore/internal/auth"
	"admincore/internal/models"
)

type credentialsResp struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   userResp        `json:"user"`
}

type userResp struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	DisplayName string   `json:"display_name"`
	IsActive    bool     `json:"is_active"`
	Roles       []string `json:"roles"`
}

func toUserResp(u *models.User) userResp {
	roles := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Name)
	}
	return userResp{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		IsActive:    u.IsActive,
		Roles:       roles,
	}
}

func Register(svc *auth.Service, v *validator.Validate, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email       string `json:"email" validate:"required,email"`
			DisplayName string `json:"display_name"`
			Password    string `json:"password" validate:"required,min=8"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if err := v.Struct(req); err != nil {
			respondError(w, &apperr.ValidationError{Fields: validationFields(err)})
			return
		}
		pair, user, err := svc.Register(r.Context(), auth.RegisterInput{
			Email:       req.Email,
			DisplayName: req.DisplayName,
			Password:    req.Password,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, credentialsResp{Tokens: pair, User: toUserResp(user)})
	}
}

func Login(svc *auth.Service, v *validator.Validate, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email" validate:"required"`
			Password string `json:"password" validate:"required"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if err := v.Struct(req); err != nil {
			respondError(w, &apperr.ValidationError{Fields: validationFields(err)})
			return
		}
		pair, user, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, credentialsResp{Tokens: pair, User: toUserResp(user)})
	}
}

func Refresh(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if req.RefreshToken == "" {
			respondError(w, apperr.ErrAuthFailure)
			return
		}
		pair, err := svc.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"tokens": pair})
	}
}

// Logout revokes the presented refresh token. Idempotent: revoking an
// already-dead token still returns 200 with revoked=false.
func Logout(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		revoked, err := svc.Revoke(r.Context(), req.RefreshToken)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"revoked": revoked})
	}
}

func ForgotPassword(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if err := svc.SendResetLink(r.Context(), req.Email); err != nil {
			respondError(w, err)
			return
		}
		// Same response whether or not the account exists.
		respondJSON(w, http.StatusOK, map[string]any{"sent": true})
	}
}

func ResetPassword(svc *auth.Service, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, err)
			return
		}
		if err := svc.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"reset": true})
	}
}

// Me returns the authenticated principal with its freshly resolved roles.
func Me(repo auth.Repository, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.FromContext(r.Context())
		user, err := repo.FindUserByID(r.Context(), claims.UserID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, toUserResp(user))
	}
}
