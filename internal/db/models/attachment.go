package models

import (
	"time"

	"gorm.io/gorm"
)

// FileColumns is the shape shared by every permit attachment table.
type FileColumns struct {
	ID       uint64 `gorm:"primaryKey"`
	PermitID uint64 `gorm:"index"`

	FileName  string `gorm:"size:255"`
	FileSize  int64
	MediaType string `gorm:"size:100"`
	Content   []byte `gorm:"type:longblob"`

	UploadedBy string `gorm:"size:100"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// WorkingFile is an attachment supplied when the permit is raised.
type WorkingFile struct {
	FileColumns
}

// TableName specifies the database table name for permit working files.
func (WorkingFile) TableName() string { return "permit_files" }

// AdminDocument is an attachment supplied during review or approval.
type AdminDocument struct {
	FileColumns
}

// TableName specifies the database table name for admin documents.
func (AdminDocument) TableName() string { return "permit_admin_documents" }

// CloseDocument is an attachment supplied when a role closes the permit.
type CloseDocument struct {
	FileColumns
}

// TableName specifies the database table name for close documents.
func (CloseDocument) TableName() string { return "permit_close_documents" }
