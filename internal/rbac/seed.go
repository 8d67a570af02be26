package rbac

import (
	"context"
	"time"

	"gorm.io/gorm"

	"admincore/internal/models"
)

// Known permission names. Guards reference these; the seed makes sure they
// exist.
const (
	PermProductsRead     = "Products_Read"
	PermProductsCreate   = "Products_Create"
	PermProductsUpdate   = "Products_Update"
	PermProductsDelete   = "Products_Delete"
	PermProductsExport   = "Products_Export"
	PermCategoriesRead   = "Categories_Read"
	PermCategoriesCreate = "Categories_Create"
	PermCategoriesUpdate = "Categories_Update"
	PermCategoriesDelete = "Categories_Delete"
	PermCategoriesExport = "Categories_Export"
	PermUsersRead        = "Users_Read"
	PermUsersCreate      = "Users_Create"
	PermUsersUpdate      = "Users_Update"
	PermUsersDelete      = "Users_Delete"
	PermRolesRead        = "Roles_Read"
	PermRolesManage      = "Roles_Manage"
	PermAuditLogsRead    = "AuditLogs_Read"
)

func allPermissions() []string {
	return []string{
		PermProductsRead, PermProductsCreate, PermProductsUpdate, PermProductsDelete, PermProductsExport,
		PermCategoriesRead, PermCategoriesCreate, PermCategoriesUpdate, PermCategoriesDelete, PermCategoriesExport,
		PermUsersRead, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
		PermRolesRead, PermRolesManage,
		PermAuditLogsRead,
	}
}

// defaultGrants maps the seeded roles to their permission grants. Admin is
// granted everything explicitly: the evaluator has no role-name bypass.
func defaultGrants() map[string][]string {
	readOnly := []string{PermProductsRead, PermCategoriesRead}
	return map[string][]string{
		"Admin": allPermissions(),
		"Manager": {
			PermProductsRead, PermProductsCreate, PermProductsUpdate, PermProductsDelete, PermProductsExport,
			PermCategoriesRead, PermCategoriesCreate, PermCategoriesUpdate, PermCategoriesDelete, PermCategoriesExport,
		},
		"User":   readOnly,
		"Viewer": readOnly,
	}
}

// Seed creates the default roles, permissions and grants. Idempotent: it only
// inserts what is missing and never removes grants added since.
func Seed(ctx context.Context, db *gorm.DB) error {
	admin := NewAdminService(db)
	perms := make(map[string]int64, len(allPermissions()))
	for _, name := range allPermissions() {
		resource, action := splitPermission(name)
		p, err := admin.EnsurePermission(ctx, resource, action)
		if err != nil {
			return err
		}
		perms[p.Name] = p.ID
	}
	for roleName, grants := range defaultGrants() {
		role, err := ensureRole(ctx, db, roleName)
		if err != nil {
			return err
		}
		for _, permName := range grants {
			permID, ok := perms[permName]
			if !ok {
				continue
			}
			var count int64
			err := db.WithContext(ctx).Model(&models.RolePermission{}).
				Where("role_id = ? AND permission_id = ?", role.ID, permID).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			grant := models.RolePermission{RoleID: role.ID, PermissionID: permID}
			grant.StampCreated(nil, time.Now())
			if err := db.WithContext(ctx).Create(&grant).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func ensureRole(ctx context.Context, db *gorm.DB, name string) (*models.Role, error) {
	var role models.Role
	err := db.WithContext(ctx).Where(models.Role{Name: name}).
		Attrs(models.Role{Audit: models.Audit{CreatedAt: time.Now().UTC()}}).
		FirstOrCreate(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func splitPermission(name string) (resource, action string) {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '_' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
