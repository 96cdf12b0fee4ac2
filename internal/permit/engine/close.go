package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/notify"
)

// closeStages maps each role to the close record slot it fills. Unlike
// the approval mapping this one includes the filler, who closes the
// issuer part.
var closeStages = map[models.RoleID]models.Stage{ //nolint:gochecknoglobals
	models.RoleFiller:     models.StageIssuer,
	models.RoleUser:       models.StageReceiver,
	models.RoleAdmin:      models.StageReviewer,
	models.RoleSuperadmin: models.StageApprover,
	models.RoleIsolation:  models.StageIsolation,
}

// closeForwarding picks which role is notified after a role closes its
// part: filler to user, user to admin, isolation to admin, admin to
// superadmin. The superadmin close notifies nobody by role.
var closeForwarding = map[models.RoleID]models.RoleID{ //nolint:gochecknoglobals
	models.RoleFiller:    models.RoleUser,
	models.RoleUser:      models.RoleAdmin,
	models.RoleIsolation: models.RoleAdmin,
	models.RoleAdmin:     models.RoleSuperadmin,
}

// Close records the acting user's part of the close sequence. A
// superadmin close finalizes the permit as Close; any other role moves
// it to Closer Pending. The actor's close slot is upserted on the close
// status row and any submitted close documents are stored, all in one
// transaction. Returns the resulting status.
func (e *Engine) Close(ctx context.Context, permitID, actorID uint64, docs []models.CloseDocument) (models.Status, error) {
	actor, err := e.resolveActor(ctx, actorID)
	if err != nil {
		return "", err
	}

	permit, err := e.loadPermit(ctx, permitID)
	if err != nil {
		return "", err
	}

	newStatus := models.StatusCloserPending
	if actor.RoleID == models.RoleSuperadmin {
		newStatus = models.StatusClose
	}

	now := e.now()
	actorText := strconv.FormatUint(actor.ID, 10)

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := setStatus(tx, permitID, newStatus); err != nil {
			return err
		}

		stage, ok := closeStages[actor.RoleID]
		if ok {
			if err := upsertCloseSlot(tx, permitID, stage, now, actor.ID, actorText); err != nil {
				return err
			}
		}

		for i := range docs {
			docs[i].ID = 0
			docs[i].PermitID = permitID
			docs[i].UploadedBy = actorText
			if err := tx.Create(&docs[i]).Error; err != nil {
				return fmt.Errorf("failed to store close document: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Uint64("permit_id", permitID).
		Uint64("actor", actor.ID).
		Str("status", string(newStatus)).
		Msg("permit close recorded")

	e.notifyClose(ctx, permit, actor, newStatus)

	return newStatus, nil
}

// upsertCloseSlot writes the stage's close time and actor on the
// permit's close status row, creating the row on first close. The close
// status column prefixes match the stage names directly.
func upsertCloseSlot(tx *gorm.DB, permitID uint64, stage models.Stage, now time.Time, actorID uint64, actorText string) error {
	var cs models.CloseStatus

	err := tx.Where("permit_id = ?", permitID).First(&cs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cs = models.CloseStatus{PermitID: permitID, CreatedBy: actorText}
		pair := cs.Pair(stage)
		pair.CloseTime = &now
		pair.ClosedBy = &actorID

		if err := tx.Create(&cs).Error; err != nil {
			return fmt.Errorf("failed to create close status: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load close status: %w", err)
	}

	err = tx.Model(&models.CloseStatus{}).
		Where("permit_id = ?", permitID).
		Updates(map[string]any{
			string(stage) + "_close_time": now,
			string(stage) + "_closed_by":  actorID,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update close status: %w", err)
	}

	return nil
}

// notifyClose resolves the forwarding recipients for the actor's role
// and sends the close notification, falling back to the configured
// administrative list when nobody resolves.
func (e *Engine) notifyClose(ctx context.Context, permit *models.Permit, actor *models.User, newStatus models.Status) {
	var recipients []string
	if target, ok := closeForwarding[actor.RoleID]; ok {
		emails, err := e.dir.EmailsByRole(ctx, target)
		if err != nil {
			log.Error().Err(err).Msg("failed to resolve close notification recipients")
		} else {
			recipients = emails
		}
	}
	if len(recipients) == 0 {
		recipients = e.fallback
	}

	verb := "Closer Pending"
	if newStatus == models.StatusClose {
		verb = "Closed"
	}

	var location, description string
	if detail, err := e.loadDetail(ctx, permit); err == nil {
		location = detail.Core().WorkLocation
		description = detail.Core().WorkDescription
	}

	e.dispatch(ctx, notify.Message{
		To:      recipients,
		Subject: fmt.Sprintf("Work Permit %s %s", permit.PermitNumber, verb),
		HTML: notify.Body(
			"Work Permit Status Updated",
			"The following work permit moved through its close sequence:",
			notify.Field{Label: "Permit Number", Value: permit.PermitNumber},
			notify.Field{Label: "Location", Value: location},
			notify.Field{Label: "Work Description", Value: description},
			notify.Field{Label: "Updated By", Value: actor.Email},
			notify.Field{Label: "New Status", Value: string(newStatus)},
		),
	})
}
