package models

import "time"

// CloseRolePair records when a given role closed its part of a permit
// and who performed it.
type CloseRolePair struct {
	CloseTime *time.Time
	ClosedBy  *uint64
}

// Recorded reports whether the role has closed its part.
func (p CloseRolePair) Recorded() bool { return p.CloseTime != nil }

// CloseStatus holds the per-role close records of a permit. One row per
// permit, created on the first role close and updated by each later one.
type CloseStatus struct {
	ID       uint64 `gorm:"primaryKey"`
	PermitID uint64 `gorm:"uniqueIndex"`

	Issuer    CloseRolePair `gorm:"embedded;embeddedPrefix:issuer_"`
	Receiver  CloseRolePair `gorm:"embedded;embeddedPrefix:receiver_"`
	Reviewer  CloseRolePair `gorm:"embedded;embeddedPrefix:reviewer_"`
	Isolation CloseRolePair `gorm:"embedded;embeddedPrefix:isolation_"`
	Approver  CloseRolePair `gorm:"embedded;embeddedPrefix:approver_"`

	CreatedBy string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for permit close statuses.
func (CloseStatus) TableName() string { return "permit_close_statuses" }

// Pair returns the close record for the stage, or nil for an unknown
// stage.
func (c *CloseStatus) Pair(s Stage) *CloseRolePair {
	switch s {
	case StageIssuer:
		return &c.Issuer
	case StageReceiver:
		return &c.Receiver
	case StageReviewer:
		return &c.Reviewer
	case StageIsolation:
		return &c.Isolation
	case StageApprover:
		return &c.Approver
	default:
		return nil
	}
}
