package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"admincore/internal/audit"
	"admincore/internal/auth"
	"admincore/internal/catalog"
	"admincore/internal/config"
	"admincore/internal/httpserver"
	"admincore/internal/logger"
	"admincore/internal/models"
	"admincore/internal/rbac"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.SetupJoinTable(&models.User{}, "Roles", &models.UserRole{}); err != nil {
		lg.Fatalw("join table user_roles", "error", err)
	}
	if err := db.SetupJoinTable(&models.Role{}, "Permissions", &models.RolePermission{}); err != nil {
		lg.Fatalw("join table role_permissions", "error", err)
	}
	if err := db.AutoMigrate(
		&models.Permission{}, &models.Role{}, &models.User{},
		&models.RefreshToken{}, &models.PasswordResetToken{},
		&models.AuditLog{}, &models.Category{}, &models.Product{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	ctx := context.Background()
	if err := rbac.Seed(ctx, db); err != nil {
		lg.Fatalw("rbac seed failed", "error", err)
	}
	seedDefaultAdmin(ctx, db, cfg, lg)

	signer := auth.NewSigner([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL)
	authRepo := auth.NewRepository(db)
	recorder := audit.NewRecorder(db, lg)
	authSvc := auth.NewService(authRepo, signer, logMailer{lg: lg}, lg, cfg.RefreshTTL, cfg.ResetTTL)
	evaluator := rbac.NewEvaluator(rbac.NewGrantSource(db))

	productEngine, err := catalog.NewProductEngine(db, recorder, lg)
	if err != nil {
		lg.Fatalw("product engine", "error", err)
	}
	categoryEngine, err := catalog.NewCategoryEngine(db, recorder, lg)
	if err != nil {
		lg.Fatalw("category engine", "error", err)
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Logger:     lg,
		DB:         db,
		Signer:     signer,
		Auth:       authSvc,
		AuthRepo:   authRepo,
		Gate:       rbac.Gate{Evaluator: evaluator, Logger: lg},
		Evaluator:  evaluator,
		Admin:      rbac.NewAdminService(db),
		Recorder:   recorder,
		Products:   productEngine,
		Categories: categoryEngine,
	})

	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		lg.Fatalw("server stopped", "error", err)
	}
}

// seedDefaultAdmin creates the bootstrap admin account once, with the Admin
// role attached. Skipped when SEED_ADMIN_PASSWORD is unset.
func seedDefaultAdmin(ctx context.Context, db *gorm.DB, cfg *config.Config, lg *zap.SugaredLogger) {
	if cfg.SeedAdminPassword == "" {
		return
	}
	email := strings.ToLower(cfg.SeedAdminEmail)
	var count int64
	db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count)
	if count > 0 {
		return
	}
	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		lg.Fatalw("hash admin password", "error", err)
	}
	u := models.User{Email: email, DisplayName: "Administrator", PasswordHash: hash, IsActive: true}
	u.StampCreated(nil, time.Now())
	if err := db.WithContext(ctx).Create(&u).Error; err != nil {
		lg.Fatalw("seed admin user", "error", err)
	}
	var adminRole models.Role
	if err := db.WithContext(ctx).First(&adminRole, "name = ?", "Admin").Error; err == nil {
		_ = db.WithContext(ctx).Model(&u).Association("Roles").Append(&adminRole)
	}
	lg.Infow("seeded default admin", "email", email)
}

// logMailer stands in for the outbound mail collaborator: it logs the reset
// link instead of sending it.
type logMailer struct {
	lg *zap.SugaredLogger
}

func (m logMailer) SendPasswordReset(ctx context.Context, email, token string) error {
	m.lg.Infow("password reset link issued", "email", email, "token", token)
	return nil
}
