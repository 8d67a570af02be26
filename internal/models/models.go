package models

import (
	"time"

	"gorm.io/gorm"
)

type Role struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string       `gorm:"uniqueIndex;not null" json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
	Audit
}

// Permission names follow the Resource_Action convention, e.g. Products_Create.
type Permission struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"uniqueIndex;not null" json:"name"`
	Resource string `gorm:"not null" json:"resource"`
	Action   string `gorm:"not null" json:"action"`
	Audit
}

// RolePermission is the role->permission grant. Declared explicitly (rather
// than letting gorm derive the join table) so the grant itself carries audit
// stamps.
type RolePermission struct {
	RoleID       int64 `gorm:"primaryKey" json:"role_id"`
	PermissionID int64 `gorm:"primaryKey" json:"permission_id"`
	Audit
}

type UserRole struct {
	UserID     int64     `gorm:"primaryKey" json:"user_id"`
	RoleID     int64     `gorm:"primaryKey" json:"role_id"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
}

func (ur *UserRole) BeforeCreate(tx *gorm.DB) error {
	if ur.AssignedAt.IsZero() {
		ur.AssignedAt = time.Now().UTC()
	}
	return nil
}

type User struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName  string `json:"display_name"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsActive     bool   `gorm:"not null;default:true" json:"is_active"`
	Roles        []Role `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Audit
}

// RefreshToken rows are append-only: rotation and logout flip Revoked, rows
// are never deleted.
type RefreshToken struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Token     string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	IssuedAt  time.Time `gorm:"not null" json:"issued_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Revoked   bool      `gorm:"not null;default:false" json:"revoked"`
}

// PasswordResetToken is single-use: ConsumedAt is set exactly once, after
// which the token never validates again.
type PasswordResetToken struct {
	Token      string     `gorm:"primaryKey;size:64" json:"-"`
	UserID     int64      `gorm:"index;not null" json:"user_id"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditLog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID    *int64    `gorm:"index" json:"actor_id,omitempty"`
	Action     string    `gorm:"not null" json:"action"`
	EntityKind string    `gorm:"index" json:"entity_kind,omitempty"`
	EntityID   *int64    `json:"entity_id,omitempty"`
	Metadata   JSONB     `gorm:"type:jsonb;default:'{}'::jsonb" json:"metadata"`
	CreatedAt  time.Time `json:"created_at"`
}
