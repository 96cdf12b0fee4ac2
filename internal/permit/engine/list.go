package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/permit/number"
)

const defaultPageSize = 20

// ListInput carries the list filters. A zero UserID means every user;
// an empty Location means every location.
type ListInput struct {
	UserID   uint64
	Location string
	Page     int
	PageSize int
}

// FileMeta describes an attachment without its content.
type FileMeta struct {
	ID        uint64    `json:"fileId"`
	FileName  string    `json:"fileName"`
	FileSize  int64     `json:"fileSize"`
	MediaType string    `json:"mediaType"`
	CreatedAt time.Time `json:"uploadDate"`
}

// PermitSummary is one row of a permit listing: the master record, its
// typed detail, live status, attachment metadata and the derived reach
// and reopen eligibility.
type PermitSummary struct {
	Permit models.Permit `json:"permit"`
	Detail models.Detail `json:"detail"`

	PermitType      string        `json:"permitType"`
	Status          models.Status `json:"status"`
	OwnershipStatus string        `json:"ownershipStatus"`

	Files []FileMeta   `json:"files"`
	Reach models.Stage `json:"permitReachTo"`

	CanReopen             bool   `json:"canReopen"`
	ReferencePermitNumber string `json:"referencePermitNumber,omitempty"`
}

// ListResult is one page of permits plus the unpaged total.
type ListResult struct {
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Permits  []PermitSummary `json:"permits"`
}

// List returns a page of permits, newest first, optionally filtered by
// the owning user and by location. The location filter matches either a
// detail row's work location or the location segment of the permit
// number.
func (e *Engine) List(ctx context.Context, in ListInput) (*ListResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	pageSize := in.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	query := e.db.WithContext(ctx).Model(&models.Permit{}).
		Joins("JOIN permit_ownerships ON permit_ownerships.permit_id = permits.id").
		Where("permit_ownerships.active = ?", true).
		Where("permit_ownerships.deleted_at IS NULL")

	if in.UserID != 0 {
		query = query.Where("permit_ownerships.user_id = ?", in.UserID)
	}
	if loc := in.Location; loc != "" {
		pattern := "%" + loc + "%"
		numberPattern := "%/" + number.Normalize(loc) + "/%"
		query = query.Where(locationCondition,
			pattern, pattern, pattern, pattern, numberPattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count permits: %w", err)
	}

	var permits []models.Permit
	err := query.
		Select("permits.*").
		Order("permits.created_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&permits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list permits: %w", err)
	}

	result := &ListResult{
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Permits:  make([]PermitSummary, 0, len(permits)),
	}

	for i := range permits {
		summary, err := e.summarize(ctx, &permits[i])
		if err != nil {
			return nil, err
		}
		result.Permits = append(result.Permits, *summary)
	}

	return result, nil
}

// locationCondition matches a permit whose detail row carries the
// location or whose number carries the normalized location segment.
const locationCondition = `(
EXISTS (SELECT 1 FROM height_work_permits h WHERE h.permit_id = permits.id AND h.work_location LIKE ?) OR
EXISTS (SELECT 1 FROM hot_work_permits hw WHERE hw.permit_id = permits.id AND hw.work_location LIKE ?) OR
EXISTS (SELECT 1 FROM electric_work_permits ew WHERE ew.permit_id = permits.id AND ew.work_location LIKE ?) OR
EXISTS (SELECT 1 FROM general_work_permits gw WHERE gw.permit_id = permits.id AND gw.work_location LIKE ?) OR
permits.permit_number LIKE ?)`

// summarize assembles one listing row for an already loaded permit.
func (e *Engine) summarize(ctx context.Context, permit *models.Permit) (*PermitSummary, error) {
	detail, err := e.loadDetail(ctx, permit)
	if err != nil {
		return nil, err
	}

	own, err := e.loadOwnership(ctx, permit.ID)
	if err != nil {
		return nil, err
	}

	reach, err := e.resolveReach(ctx, permit.ID, detail.Core(), own.CurrentPermitStatus)
	if err != nil {
		return nil, err
	}

	var files []FileMeta
	err = e.db.WithContext(ctx).Model(&models.WorkingFile{}).
		Select("id", "file_name", "file_size", "media_type", "created_at").
		Where("permit_id = ?", permit.ID).
		Order("created_at DESC").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list permit files: %w", err)
	}

	canReopen := false
	if e.expired(permit, detail.Core()) {
		reopened, err := e.hasReopenedChild(ctx, permit.ID)
		if err != nil {
			return nil, err
		}
		canReopen = !reopened
	}

	refNumber := ""
	if permit.ReferencePermitID != nil {
		var ref models.Permit
		err := e.db.WithContext(ctx).
			Select("permit_number").
			Where("id = ?", *permit.ReferencePermitID).
			First(&ref).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to resolve reference permit: %w", err)
		}
		refNumber = ref.PermitNumber
	}

	return &PermitSummary{
		Permit:                *permit,
		Detail:                detail,
		PermitType:            permit.PermitTypeID.String(),
		Status:                own.CurrentPermitStatus,
		OwnershipStatus:       own.Status,
		Files:                 files,
		Reach:                 reach,
		CanReopen:             canReopen,
		ReferencePermitNumber: refNumber,
	}, nil
}
