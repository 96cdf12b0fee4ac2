package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/notify"
	"github.com/hindterminals/workpermit/internal/permit/number"
)

// Reopen builds a brand new permit from an expired one. A source that
// has not expired, or that already has a reopened child, is rejected.
// The source permit is never mutated: the clone gets a fresh permit number reusing
// the source's location token under the current fiscal year, carries
// ReferencePermitID lineage, and copies every detail column verbatim
// except the validity window, the creator and the issuer stamp. Later
// stage slots keep their prior timestamps. Attachments are copied best
// effort after commit.
func (e *Engine) Reopen(ctx context.Context, sourceID, actorID uint64, newValidUpTo time.Time) (*IssueResult, error) {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !newValidUpTo.After(e.now()) {
		return nil, ErrValidityNotFuture
	}

	source, err := e.loadPermit(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	sourceDetail, err := e.loadDetail(ctx, source)
	if err != nil {
		return nil, err
	}

	if !e.expired(source, sourceDetail.Core()) {
		return nil, ErrSourceNotExpired
	}

	// At most one live reopening per source permit.
	reopened, err := e.hasReopenedChild(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if reopened {
		return nil, ErrDuplicateReopen
	}

	location := number.Location(source.PermitNumber)
	if location == "" {
		location = sourceDetail.Core().WorkLocation
	}
	if number.Normalize(location) == "" {
		return nil, ErrLocationRequired
	}

	now := e.now()
	actorText := strconv.FormatUint(actor.ID, 10)

	var permit models.Permit
	_, err = e.ids.Generate(ctx, location, func(candidate string) error {
		permit = models.Permit{
			PermitTypeID:      source.PermitTypeID,
			PermitNumber:      candidate,
			CreatedBy:         actor.ID,
			ReferencePermitID: &source.ID,
			IsReopened:        true,
		}

		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&permit).Error; err != nil {
				return err
			}

			if err := e.copyDetail(tx, sourceDetail, permit.ID, newValidUpTo, actorText, now); err != nil {
				return err
			}

			own := models.Ownership{
				PermitID:            permit.ID,
				UserID:              actor.ID,
				CurrentPermitStatus: models.StatusActive,
				Status:              "Pending",
				Active:              true,
			}
			if err := tx.Create(&own).Error; err != nil {
				return fmt.Errorf("failed to create permit ownership: %w", err)
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint64("source_permit_id", source.ID).
		Uint64("permit_id", permit.ID).
		Str("permit_number", permit.PermitNumber).
		Msg("permit reopened")

	e.copyAttachments(ctx, source.ID, permit.ID, actorText)
	e.notifyReopen(ctx, source, &permit, sourceDetail.Core(), newValidUpTo)

	return &IssueResult{PermitID: permit.ID, PermitNumber: permit.PermitNumber}, nil
}

// expired reports whether the permit is past its life: either the sweep
// flagged it, or its validity window has elapsed before the sweep
// caught it.
func (e *Engine) expired(permit *models.Permit, core *models.DetailCore) bool {
	if permit.IsExpired {
		return true
	}
	return core.PermitValidUpTo != nil && core.PermitValidUpTo.Before(e.now())
}

// hasReopenedChild reports whether a permit already carrying this one
// as its reference exists.
func (e *Engine) hasReopenedChild(ctx context.Context, permitID uint64) (bool, error) {
	var children int64
	err := e.db.WithContext(ctx).Model(&models.Permit{}).
		Where("reference_permit_id = ?", permitID).
		Count(&children).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for reopened children: %w", err)
	}
	return children > 0, nil
}

// copyDetail clones the source detail row for the new permit. A failed
// full copy falls back to inserting only the essential work metadata;
// only when that also fails does the reopen abort.
func (e *Engine) copyDetail(tx *gorm.DB, sourceDetail models.Detail, newPermitID uint64, validUpTo time.Time, actorText string, now time.Time) error {
	clone := cloneDetail(sourceDetail)
	core := clone.Core()
	core.PermitID = newPermitID
	core.PermitValidUpTo = &validUpTo
	core.CreatedBy = actorText
	core.Issuer.DateTime = &now
	core.Issuer.UpdatedBy = actorText
	core.CreatedAt = time.Time{}
	core.UpdatedAt = time.Time{}

	err := tx.Table(clone.TableName()).Create(clone).Error
	if err == nil {
		return nil
	}
	log.Error().Err(err).Uint64("permit_id", newPermitID).Msg("full detail copy failed, trying minimal copy")

	src := sourceDetail.Core()
	fallbackErr := tx.Table(clone.TableName()).Create(map[string]any{
		"permit_id":                newPermitID,
		"permit_date":              src.PermitDate,
		"nearest_fire_alarm_point": src.NearestFireAlarmPoint,
		"total_engaged_workers":    src.TotalEngagedWorkers,
		"work_location":            src.WorkLocation,
		"work_description":         src.WorkDescription,
		"permit_valid_up_to":       validUpTo,
		"organization":             src.Organization,
		"supervisor_name":          src.SupervisorName,
		"contact_number":           src.ContactNumber,
		"created_by":               actorText,
		"issuer_date_time":         now,
		"issuer_updated_by":        actorText,
	}).Error
	if fallbackErr != nil {
		return fmt.Errorf("failed to copy permit detail: %w", fallbackErr)
	}

	return nil
}

// cloneDetail returns a deep value copy of the typed detail row.
func cloneDetail(d models.Detail) models.Detail {
	switch v := d.(type) {
	case *models.HeightWorkDetail:
		c := *v
		return &c
	case *models.HotWorkDetail:
		c := *v
		return &c
	case *models.ElectricWorkDetail:
		c := *v
		return &c
	case *models.GeneralWorkDetail:
		c := *v
		return &c
	default:
		return nil
	}
}

// copyAttachments copies working files and admin documents from the
// source permit to the clone. Failures are logged and never undo the
// reopen.
func (e *Engine) copyAttachments(ctx context.Context, sourceID, newID uint64, actorText string) {
	var files []models.WorkingFile
	err := e.db.WithContext(ctx).Where("permit_id = ?", sourceID).Find(&files).Error
	if err != nil {
		log.Error().Err(err).Uint64("permit_id", sourceID).Msg("failed to read permit files for copy")
	}
	for i := range files {
		files[i].ID = 0
		files[i].PermitID = newID
		files[i].CreatedAt = time.Time{}
		files[i].UpdatedAt = time.Time{}
		if err := e.db.WithContext(ctx).Create(&files[i]).Error; err != nil {
			log.Error().Err(err).Uint64("permit_id", newID).Msg("failed to copy permit file")
		}
	}

	var docs []models.AdminDocument
	err = e.db.WithContext(ctx).Where("permit_id = ?", sourceID).Find(&docs).Error
	if err != nil {
		log.Error().Err(err).Uint64("permit_id", sourceID).Msg("failed to read admin documents for copy")
	}
	for i := range docs {
		docs[i].ID = 0
		docs[i].PermitID = newID
		docs[i].UploadedBy = actorText
		docs[i].CreatedAt = time.Time{}
		docs[i].UpdatedAt = time.Time{}
		if err := e.db.WithContext(ctx).Create(&docs[i]).Error; err != nil {
			log.Error().Err(err).Uint64("permit_id", newID).Msg("failed to copy admin document")
		}
	}
}

// notifyReopen tells the prior approver, if one resolves, that the
// permit came back to life.
func (e *Engine) notifyReopen(ctx context.Context, source, permit *models.Permit, core *models.DetailCore, validUpTo time.Time) {
	var recipients []string
	if core.Approver.UpdatedBy != "" {
		if email := e.dir.EmailFor(ctx, core.Approver.UpdatedBy); email != "" {
			recipients = []string{email}
		}
	}

	e.dispatch(ctx, notify.Message{
		To:      recipients,
		Subject: fmt.Sprintf("Work Permit Reopened - %s", permit.PermitNumber),
		HTML: notify.Body(
			"Work Permit Reopened Successfully",
			"An expired permit has been reopened with a new permit number and extended validity date:",
			notify.Field{Label: "Original Permit Number", Value: source.PermitNumber},
			notify.Field{Label: "New Permit Number", Value: permit.PermitNumber},
			notify.Field{Label: "Permit Type", Value: permit.PermitTypeID.String()},
			notify.Field{Label: "Location", Value: core.WorkLocation},
			notify.Field{Label: "Work Description", Value: core.WorkDescription},
			notify.Field{Label: "Valid Up To", Value: notify.Timestamp(validUpTo)},
		),
	})
}
