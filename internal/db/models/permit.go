// Package models contains database model definitions.
package models

import "time"

// Status is the lifecycle status of a permit as tracked on its ownership row.
type Status string

const (
	// StatusActive is the initial status after issuance.
	StatusActive Status = "Active"
	// StatusApproved is set when the approver signs off on the permit.
	StatusApproved Status = "Approved"
	// StatusHold marks a permit suspended with a recorded reason.
	StatusHold Status = "Hold"
	// StatusRejected marks a permit rejected with a recorded reason.
	StatusRejected Status = "Rejected"
	// StatusCloserPending marks a close requested by a non-superadmin role.
	StatusCloserPending Status = "Closer Pending"
	// StatusClose marks a permit fully closed by the superadmin role.
	StatusClose Status = "Close"
	// StatusExpired marks a permit whose validity window elapsed.
	StatusExpired Status = "Expired"
)

// Closing reports whether the permit is in its close sequence.
func (s Status) Closing() bool {
	return s == StatusCloserPending || s == StatusClose
}

// Permit is the master record of one permit lifecycle instance. It never
// stores stage detail; the typed detail row keyed by PermitID does.
type Permit struct {
	ID           uint64       `gorm:"primaryKey"`
	PermitTypeID PermitTypeID `gorm:"not null;index"`

	// PermitNumber is the human readable identifier in the form
	// HTPL/<LOCATION>/<YYYY-YY>/<SEQ>. Downstream systems parse it, so
	// the format is a hard external contract. The unique index turns
	// the generator's scan-then-insert race into a retryable conflict.
	PermitNumber string `gorm:"uniqueIndex;size:100;not null"`

	CreatedBy uint64 `gorm:"not null"`

	// ReferencePermitID points at the permit this one was reopened from.
	ReferencePermitID *uint64 `gorm:"index"`
	IsReopened        bool

	// IsExpired flips false to true exactly once, by the expiry sweep.
	// Reopening creates a new permit instead of resetting it.
	IsExpired bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Permit model.
func (Permit) TableName() string {
	return "permits"
}
