package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"admincore/internal/apperr"
	"admincore/internal/auth"
	"admincore/internal/models"
)

// AdminService mutates roles, permissions and their assignments. These are
// the only paths through which the reference data changes.
type AdminService struct {
	db *gorm.DB
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db}
}

// ListRoles returns all roles with their permission grants.
func (s *AdminService) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("name").Find(&roles).Error; err != nil {
		return nil, apperr.Persistence("list roles", err)
	}
	return roles, nil
}

func (s *AdminService) GetRole(ctx context.Context, id int64) (*models.Role, error) {
	var role models.Role
	err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Persistence("get role", err)
	}
	return &role, nil
}

func (s *AdminService) CreateRole(ctx context.Context, name, description string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NewValidation("name", "required")
	}
	role := &models.Role{Name: name, Description: strings.TrimSpace(description)}
	role.StampCreated(auth.ActorID(ctx), time.Now())
	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, apperr.Persistence("create role", err)
	}
	return role, nil
}

func (s *AdminService) UpdateRole(ctx context.Context, id int64, name, description string) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.NewValidation("name", "required")
	}
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	role.Name = name
	role.Description = strings.TrimSpace(description)
	role.StampModified(auth.ActorID(ctx), time.Now())
	if err := s.db.WithContext(ctx).Save(role).Error; err != nil {
		return nil, apperr.Persistence("update role", err)
	}
	return role, nil
}

func (s *AdminService) DeleteRole(ctx context.Context, id int64) (bool, error) {
	res := s.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id)
	if res.Error != nil {
		return false, apperr.Persistence("delete role", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListPermissions returns all permissions ordered by name.
func (s *AdminService) ListPermissions(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	if err := s.db.WithContext(ctx).Order("name").Find(&perms).Error; err != nil {
		return nil, apperr.Persistence("list permissions", err)
	}
	return perms, nil
}

// EnsurePermission creates the {resource, action} permission if it does not
// exist yet and returns it either way. Names are globally unique.
func (s *AdminService) EnsurePermission(ctx context.Context, resource, action string) (*models.Permission, error) {
	resource = strings.TrimSpace(resource)
	action = strings.TrimSpace(action)
	if resource == "" || action == "" {
		return nil, apperr.NewValidation("name", "resource and action required")
	}
	name := fmt.Sprintf("%s_%s", resource, action)
	var perm models.Permission
	err := s.db.WithContext(ctx).First(&perm, "name = ?", name).Error
	if err == nil {
		return &perm, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Persistence("find permission", err)
	}
	perm = models.Permission{Name: name, Resource: resource, Action: action}
	perm.StampCreated(auth.ActorID(ctx), time.Now())
	if err := s.db.WithContext(ctx).Create(&perm).Error; err != nil {
		return nil, apperr.Persistence("create permission", err)
	}
	return &perm, nil
}

// SetRolePermissions replaces a role's grants with exactly the given set,
// attaching and detaching the difference.
func (s *AdminService) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if _, err := s.GetRole(ctx, roleID); err != nil {
		return err
	}
	var existing []models.RolePermission
	if err := s.db.WithContext(ctx).Where("role_id = ?", roleID).Find(&existing).Error; err != nil {
		return apperr.Persistence("list role permissions", err)
	}
	current := make(map[int64]struct{}, len(existing))
	for _, rp := range existing {
		current[rp.PermissionID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	actor := auth.ActorID(ctx)
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := current[id]; ok {
			continue
		}
		grant := models.RolePermission{RoleID: roleID, PermissionID: id}
		grant.StampCreated(actor, time.Now())
		if err := s.db.WithContext(ctx).Create(&grant).Error; err != nil {
			return apperr.Persistence("attach permission", err)
		}
	}
	for id := range current {
		if _, ok := keep[id]; ok {
			continue
		}
		err := s.db.WithContext(ctx).
			Where("role_id = ? AND permission_id = ?", roleID, id).
			Delete(&models.RolePermission{}).Error
		if err != nil {
			return apperr.Persistence("detach permission", err)
		}
	}
	return nil
}

// AssignRole grants a role to a user. Assigning an already-held role is a
// no-op.
func (s *AdminService) AssignRole(ctx context.Context, userID, roleID int64) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error
	if err != nil {
		return apperr.Persistence("check user role", err)
	}
	if count > 0 {
		return nil
	}
	ur := models.UserRole{UserID: userID, RoleID: roleID, AssignedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(&ur).Error; err != nil {
		return apperr.Persistence("assign role", err)
	}
	return nil
}

// RemoveRole revokes a role from a user; false when the user did not hold it.
func (s *AdminService) RemoveRole(ctx context.Context, userID, roleID int64) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRole{})
	if res.Error != nil {
		return false, apperr.Persistence("remove role", res.Error)
	}
	return res.RowsAffected > 0, nil
}
