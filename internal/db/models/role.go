package models

import "time"

// RoleID identifies one of the fixed application roles. The set is
// seeded at startup and the IDs are stable because the stage and close
// authorization maps key on them.
type RoleID uint

const (
	// RoleFiller raises permits and closes the issuer part.
	RoleFiller RoleID = 1
	// RoleUser acts as the receiver stage.
	RoleUser RoleID = 2
	// RoleAdmin acts as the reviewer stage.
	RoleAdmin RoleID = 3
	// RoleSuperadmin acts as the approver stage and can finalize closes.
	RoleSuperadmin RoleID = 4
	// RoleIsolation acts as the energy isolation stage.
	RoleIsolation RoleID = 5
)

// Valid reports whether the role is one of the seeded application roles.
func (r RoleID) Valid() bool {
	return r >= RoleFiller && r <= RoleIsolation
}

// Role represents a role in the role-based access control system.
// Roles gate which permit stage a user may write and which close slot
// they record.
type Role struct {
	// ID is the unique identifier for the role.
	ID RoleID `gorm:"primaryKey"`
	// Name is the unique name of the role (e.g., "admin", "filler").
	Name string `gorm:"unique;size:100;not null"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
// This overrides GORM's default pluralized table naming.
func (Role) TableName() string {
	return "roles"
}
