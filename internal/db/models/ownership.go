package models

import (
	"time"

	"gorm.io/gorm"
)

// Ownership links a permit to the user who raised it and mirrors the
// permit's lifecycle status for ownership queries.
type Ownership struct {
	ID       uint64 `gorm:"primaryKey"`
	PermitID uint64 `gorm:"index"`
	UserID   uint64 `gorm:"index"`

	// CurrentPermitStatus mirrors the permit lifecycle status so the
	// sweep and listing queries can filter without joining details.
	CurrentPermitStatus Status `gorm:"size:50"`

	// Status tracks the ownership record itself, not the permit.
	Status string `gorm:"size:50"`
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the database table name for permit ownerships.
func (Ownership) TableName() string { return "permit_ownerships" }
