package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"admincore/internal/audit"
	"admincore/internal/auth"
	"admincore/internal/catalog"
	"admincore/internal/crud"
	"admincore/internal/httpserver/handlers"
	"admincore/internal/models"
	"admincore/internal/rbac"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Logger     *zap.SugaredLogger
	DB         *gorm.DB
	Signer     *auth.Signer
	Auth       *auth.Service
	AuthRepo   auth.Repository
	Gate       rbac.Gate
	Evaluator  *rbac.Evaluator
	Admin      *rbac.AdminService
	Recorder   *audit.Recorder
	Products   *crud.Engine[models.Product, catalog.ProductDTO]
	Categories *crud.Engine[models.Category, catalog.CategoryDTO]
}

// NewRouter builds the full route tree. Every mutating route sits behind the
// authorization gate with its declared permissions.
func NewRouter(d Deps) http.Handler {
	v := validator.New()
	lg := d.Logger

	products := handlers.Resource[models.Product, catalog.ProductDTO]{Engine: d.Products, Validate: v, Logger: lg}
	categories := handlers.Resource[models.Category, catalog.CategoryDTO]{Engine: d.Categories, Validate: v, Logger: lg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Post("/v1/auth/register", handlers.Register(d.Auth, v, lg))
	r.Post("/v1/auth/login", handlers.Login(d.Auth, v, lg))
	r.Post("/v1/auth/refresh", handlers.Refresh(d.Auth, lg))
	r.Post("/v1/auth/password/forgot", handlers.ForgotPassword(d.Auth, lg))
	r.Post("/v1/auth/password/reset", handlers.ResetPassword(d.Auth, lg))

	r.Group(func(protected chi.Router) {
		protected.Use(auth.Middleware(d.Signer))
		protected.Get("/v1/me", handlers.Me(d.AuthRepo, lg))
		protected.Post("/v1/auth/logout", handlers.Logout(d.Auth, lg))
		protected.Get("/v1/logs", handlers.MyLogs(d.Recorder, d.Evaluator, lg))

		protected.Route("/v1/products", func(pr chi.Router) {
			pr.With(d.Gate.Require(rbac.PermProductsRead)).Get("/", products.ListPaged)
			pr.With(d.Gate.Require(rbac.PermProductsRead)).Get("/all", products.ListAll)
			pr.With(d.Gate.Require(rbac.PermProductsRead)).Get("/{id}", products.Get)
			pr.With(d.Gate.Require(rbac.PermProductsExport)).Get("/export", products.Export)
			pr.With(d.Gate.Require(rbac.PermProductsCreate)).Post("/", products.Create)
			pr.With(d.Gate.Require(rbac.PermProductsUpdate)).Patch("/{id}", products.Update)
			pr.With(d.Gate.Require(rbac.PermProductsDelete)).Delete("/{id}", products.Delete)
		})

		protected.Route("/v1/categories", func(cr chi.Router) {
			cr.With(d.Gate.Require(rbac.PermCategoriesRead)).Get("/", categories.ListPaged)
			cr.With(d.Gate.Require(rbac.PermCategoriesRead)).Get("/all", categories.ListAll)
			cr.With(d.Gate.Require(rbac.PermCategoriesRead)).Get("/{id}", categories.Get)
			cr.With(d.Gate.Require(rbac.PermCategoriesExport)).Get("/export", categories.Export)
			cr.With(d.Gate.Require(rbac.PermCategoriesCreate)).Post("/", categories.Create)
			cr.With(d.Gate.Require(rbac.PermCategoriesUpdate)).Patch("/{id}", categories.Update)
			cr.With(d.Gate.Require(rbac.PermCategoriesDelete)).Delete("/{id}", categories.Delete)
		})

		protected.Route("/v1/admin", func(ar chi.Router) {
			ar.With(d.Gate.Require(rbac.PermUsersRead)).Get("/users", handlers.ListUsers(d.DB, lg))
			ar.With(d.Gate.Require(rbac.PermUsersCreate)).Post("/users", handlers.CreateUser(d.DB, lg))
			ar.With(d.Gate.Require(rbac.PermUsersUpdate)).Patch("/users/{id}", handlers.UpdateUser(d.DB, lg))
			ar.With(d.Gate.Require(rbac.PermUsersDelete)).Delete("/users/{id}", handlers.DeleteUser(d.DB, lg))

			ar.With(d.Gate.Require(rbac.PermRolesRead)).Get("/roles", handlers.ListRoles(d.Admin, lg))
			ar.With(d.Gate.Require(rbac.PermRolesManage)).Post("/roles", handlers.CreateRole(d.Admin, lg))
			ar.With(d.Gate.Require(rbac.PermRolesManage)).Patch("/roles/{id}", handlers.UpdateRole(d.Admin, lg))
			ar.With(d.Gate.Require(rbac.PermRolesManage)).Delete("/roles/{id}", handlers.DeleteRole(d.Admin, lg))
			ar.With(d.Gate.Require(rbac.PermRolesManage)).Put("/roles/{id}/permissions", handlers.SetRolePermissions(d.Admin, lg))

			ar.With(d.Gate.Require(rbac.PermRolesRead)).Get("/permissions", handlers.ListPermissions(d.Admin, lg))
			ar.With(d.Gate.Require(rbac.PermRolesManage)).Post("/permissions", handlers.CreatePermission(d.Admin, lg))

			ar.With(d.Gate.Require(rbac.PermRolesManage)).Post("/users/{id}/roles", handlers.AssignUserRole(d.Admin, lg))
			ar.With(d.Gate.Require(rbac.PermRolesManage)).Delete("/users/{id}/roles/{roleID}", handlers.RemoveUserRole(d.Admin, lg))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}
