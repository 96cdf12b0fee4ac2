package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/notify"
	"github.com/hindterminals/workpermit/internal/permit/authorize"
	"github.com/hindterminals/workpermit/internal/permit/reach"
)

// stageColumns enumerates every stage evidence column so client
// supplied values for them can be stripped from update payloads.
func stageColumns() map[string]bool {
	cols := make(map[string]bool)
	for _, s := range models.ApprovalStages() {
		dateTime, updatedBy := s.Columns()
		cols[dateTime] = true
		cols[updatedBy] = true
		prefix := strings.TrimSuffix(dateTime, "_date_time")
		cols[prefix+"_name"] = true
		cols[prefix+"_designation"] = true
	}
	return cols
}

// UpdateStage applies a detail update on behalf of the acting user.
// General work metadata columns pass through as submitted; every stage
// evidence column in the payload is discarded and replaced by the
// server computed stamp for the actor's own stage, if their role holds
// one. Files submitted with the update are stored alongside.
func (e *Engine) UpdateStage(ctx context.Context, permitID, actorID uint64, fields map[string]any, files []models.WorkingFile) error {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return err
	}

	permit, err := e.loadPermit(ctx, permitID)
	if err != nil {
		return err
	}

	detail := permit.PermitTypeID.NewDetail()
	if detail == nil {
		return ErrInvalidPermitType
	}

	updates := make(map[string]any, len(fields)+2)
	reserved := stageColumns()
	for col, val := range fields {
		if reserved[col] {
			continue
		}
		updates[col] = val
	}
	for col, val := range authorize.Stamp(actor.RoleID, actor.ID, e.now()) {
		updates[col] = val
	}

	if len(updates) == 0 && len(files) == 0 {
		return nil
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			res := tx.Table(detail.TableName()).
				Where("permit_id = ?", permitID).
				Updates(updates)
			if res.Error != nil {
				return fmt.Errorf("failed to update permit detail: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrPermitNotFound
			}
		}

		uploadedBy := fmt.Sprintf("%d", actor.ID)
		for i := range files {
			files[i].ID = 0
			files[i].PermitID = permitID
			files[i].UploadedBy = uploadedBy
			if err := tx.Create(&files[i]).Error; err != nil {
				return fmt.Errorf("failed to store permit file: %w", err)
			}
		}

		return nil
	})
}

// Approve moves the permit to Approved and stamps the approver stage
// with the acting user. After commit a notification goes out to every
// resolved stakeholder address.
func (e *Engine) Approve(ctx context.Context, permitID, actorID uint64) error {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return err
	}

	permit, err := e.loadPermit(ctx, permitID)
	if err != nil {
		return err
	}

	detail := permit.PermitTypeID.NewDetail()
	if detail == nil {
		return ErrInvalidPermitType
	}

	now := e.now()
	dateTime, updatedBy := models.StageApprover.Columns()

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setStatus(tx, permitID, models.StatusApproved); err != nil {
			return err
		}

		err := tx.Table(detail.TableName()).
			Where("permit_id = ?", permitID).
			Updates(map[string]any{
				dateTime:  now,
				updatedBy: fmt.Sprintf("%d", actor.ID),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to stamp approver: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Uint64("permit_id", permitID).Uint64("actor", actor.ID).Msg("permit approved")

	fresh, err := e.loadDetail(ctx, permit)
	if err != nil {
		log.Error().Err(err).Uint64("permit_id", permitID).Msg("failed to reload detail for notification")
		return nil
	}
	core := fresh.Core()

	e.dispatch(ctx, notify.Message{
		To:      e.stakeholderEmails(ctx, core),
		Subject: fmt.Sprintf("Work Permit %s Has Been Approved", permit.PermitNumber),
		HTML: notify.Body(
			"Work Permit Approved",
			"The following work permit has been approved:",
			notify.Field{Label: "Permit Number", Value: permit.PermitNumber},
			notify.Field{Label: "Location", Value: core.WorkLocation},
			notify.Field{Label: "Work Description", Value: core.WorkDescription},
			notify.Field{Label: "Approved By", Value: actor.FullName()},
			notify.Field{Label: "Approval Date/Time", Value: notify.Timestamp(now)},
		),
	})

	return nil
}

// Hold suspends the permit with a reason and notifies every resolved
// stakeholder address.
func (e *Engine) Hold(ctx context.Context, permitID uint64, reason string) error {
	return e.recordReason(ctx, permitID, reason, models.StatusHold)
}

// Reject rejects the permit with a reason. The notification goes to the
// approver's resolved address, or the configured fallback list when no
// approver resolves.
func (e *Engine) Reject(ctx context.Context, permitID uint64, reason string) error {
	return e.recordReason(ctx, permitID, reason, models.StatusRejected)
}

// recordReason is the shared hold/reject path: write the reason on the
// detail row and flip the status, in one transaction.
func (e *Engine) recordReason(ctx context.Context, permitID uint64, reason string, status models.Status) error {
	if strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}

	permit, err := e.loadPermit(ctx, permitID)
	if err != nil {
		return err
	}

	detail := permit.PermitTypeID.NewDetail()
	if detail == nil {
		return ErrInvalidPermitType
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(detail.TableName()).
			Where("permit_id = ?", permitID).
			Update("reason", reason)
		if res.Error != nil {
			return fmt.Errorf("failed to record reason: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrPermitNotFound
		}

		return setStatus(tx, permitID, status)
	})
	if err != nil {
		return err
	}

	log.Info().
		Uint64("permit_id", permitID).
		Str("status", string(status)).
		Msg("permit reason recorded")

	fresh, err := e.loadDetail(ctx, permit)
	if err != nil {
		log.Error().Err(err).Uint64("permit_id", permitID).Msg("failed to reload detail for notification")
		return nil
	}
	core := fresh.Core()

	if status == models.StatusHold {
		e.dispatch(ctx, notify.Message{
			To:      e.stakeholderEmails(ctx, core),
			Subject: fmt.Sprintf("Work Permit %s Put On Hold", permit.PermitNumber),
			HTML: notify.Body(
				"Work Permit Put On Hold",
				"The following work permit has been put on hold:",
				notify.Field{Label: "Permit Number", Value: permit.PermitNumber},
				notify.Field{Label: "Location", Value: core.WorkLocation},
				notify.Field{Label: "Work Description", Value: core.WorkDescription},
				notify.Field{Label: "Reason for Hold", Value: reason},
			),
		})
		return nil
	}

	recipients := e.approverOrFallback(ctx, core)
	e.dispatch(ctx, notify.Message{
		To:      recipients,
		Subject: fmt.Sprintf("Work Permit Rejected - %s", permit.PermitNumber),
		HTML: notify.Body(
			"Work Permit Has Been Rejected",
			"The following work permit has been rejected:",
			notify.Field{Label: "Permit Number", Value: permit.PermitNumber},
			notify.Field{Label: "Permit Type", Value: permit.PermitTypeID.String()},
			notify.Field{Label: "Location", Value: core.WorkLocation},
			notify.Field{Label: "Work Description", Value: core.WorkDescription},
			notify.Field{Label: "Reason for Rejection", Value: reason},
		),
	})

	return nil
}

// approverOrFallback resolves the approver's address, falling back to
// the configured administrative list.
func (e *Engine) approverOrFallback(ctx context.Context, core *models.DetailCore) []string {
	if core.Approver.UpdatedBy != "" {
		if email := e.dir.EmailFor(ctx, core.Approver.UpdatedBy); email != "" {
			return []string{email}
		}
	}
	return e.fallback
}

// Reach reports the single stage the permit has progressed to.
func (e *Engine) Reach(ctx context.Context, permitID uint64) (models.Stage, error) {
	permit, err := e.loadPermit(ctx, permitID)
	if err != nil {
		return "", err
	}

	detail, err := e.loadDetail(ctx, permit)
	if err != nil {
		return "", err
	}

	own, err := e.loadOwnership(ctx, permitID)
	if err != nil {
		return "", err
	}

	return e.resolveReach(ctx, permitID, detail.Core(), own.CurrentPermitStatus)
}

// resolveReach computes the reach for already loaded permit data,
// fetching the close status row only when the close sequence needs it.
func (e *Engine) resolveReach(ctx context.Context, permitID uint64, core *models.DetailCore, status models.Status) (models.Stage, error) {
	var closeStatus *models.CloseStatus
	if status.Closing() {
		var cs models.CloseStatus
		err := e.db.WithContext(ctx).Where("permit_id = ?", permitID).First(&cs).Error
		switch {
		case err == nil:
			closeStatus = &cs
		case errors.Is(err, gorm.ErrRecordNotFound):
			// no role has closed yet
		default:
			return "", fmt.Errorf("failed to load close status: %w", err)
		}
	}

	return reach.Resolve(core, closeStatus, status), nil
}
