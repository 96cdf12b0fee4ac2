package models

import "time"

// Stage is one of the five roles that act on a permit during approval.
// Stage names are part of the API response payload ("permitReachTo").
type Stage string

const (
	// StageIssuer fills and issues the permit.
	StageIssuer Stage = "issuer"
	// StageReceiver receives the permit at the work site.
	StageReceiver Stage = "receiver"
	// StageIsolation confirms energy isolation where required.
	StageIsolation Stage = "isolation"
	// StageReviewer reviews the permit conditions.
	StageReviewer Stage = "reviewer"
	// StageApprover gives the final approval.
	StageApprover Stage = "approver"
)

// stagePrefixes maps each stage to its embedded column prefix on the
// detail tables. The isolation stage keeps the historic "isolate" prefix.
var stagePrefixes = map[Stage]string{ //nolint:gochecknoglobals
	StageIssuer:    "issuer",
	StageReceiver:  "receiver",
	StageIsolation: "isolate",
	StageReviewer:  "reviewer",
	StageApprover:  "approver",
}

// Columns returns the detail table column names holding the stage's
// acted-at timestamp and acting user id.
func (s Stage) Columns() (dateTime, updatedBy string) {
	p := stagePrefixes[s]
	return p + "_date_time", p + "_updated_by"
}

// ApprovalStages lists the stages in normal approval flow order.
func ApprovalStages() []Stage {
	return []Stage{StageIssuer, StageReceiver, StageIsolation, StageReviewer, StageApprover}
}

// StageSlot records one stage's evidence on a permit detail row.
// Name and Designation are informational and fixed at issuance;
// UpdatedBy and DateTime are stamped when the role acts.
type StageSlot struct {
	Name        string `gorm:"size:100"`
	Designation string `gorm:"size:100"`

	// UpdatedBy is the acting user id, stored as text.
	UpdatedBy string `gorm:"size:100"`
	// DateTime is non-nil iff this stage has acted at least once.
	DateTime *time.Time
}

// Acted reports whether the stage has recorded an action.
func (s StageSlot) Acted() bool {
	return s.DateTime != nil
}
