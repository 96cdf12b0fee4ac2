package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/permit/number"
)

// IssueInput carries everything needed to raise a new permit.
type IssueInput struct {
	Type    models.PermitTypeID
	ActorID uint64

	// Detail holds the work metadata, checklists and stage names as
	// submitted. The issuer stamp and bookkeeping fields are set by the
	// engine.
	Detail models.Detail

	// Files are working documents attached at issuance.
	Files []models.WorkingFile
}

// IssueResult reports the created permit.
type IssueResult struct {
	PermitID     uint64
	PermitNumber string
}

// Issue raises a new permit: it allocates a permit number for the work
// location and creates the master, detail and ownership rows in one
// transaction. The issuer stage is stamped with the acting user and the
// current time.
func (e *Engine) Issue(ctx context.Context, in IssueInput) (*IssueResult, error) {
	if !in.Type.Valid() || in.Detail == nil {
		return nil, ErrInvalidPermitType
	}

	actor, err := e.resolveActor(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}

	core := in.Detail.Core()
	if number.Normalize(core.WorkLocation) == "" {
		return nil, ErrLocationRequired
	}

	now := e.now()
	core.CreatedBy = strconv.FormatUint(actor.ID, 10)
	core.Issuer.UpdatedBy = core.CreatedBy
	core.Issuer.DateTime = &now
	if core.Issuer.Name == "" {
		core.Issuer.Name = actor.FullName()
	}
	if core.Issuer.Designation == "" {
		core.Issuer.Designation = actor.Designation
	}

	var permit models.Permit
	_, err = e.ids.Generate(ctx, core.WorkLocation, func(candidate string) error {
		permit = models.Permit{
			PermitTypeID: in.Type,
			PermitNumber: candidate,
			CreatedBy:    actor.ID,
		}

		return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&permit).Error; err != nil {
				return err
			}

			core.PermitID = permit.ID
			if err := tx.Table(in.Detail.TableName()).Create(in.Detail).Error; err != nil {
				return fmt.Errorf("failed to create permit detail: %w", err)
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

			for i := range in.Files {
				in.Files[i].ID = 0
				in.Files[i].PermitID = permit.ID
				in.Files[i].UploadedBy = core.CreatedBy
				if err := tx.Create(&in.Files[i]).Error; err != nil {
					return fmt.Errorf("failed to store permit file: %w", err)
				}
			}

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint64("permit_id", permit.ID).
		Str("permit_number", permit.PermitNumber).
		Uint64("actor", actor.ID).
		Msg("permit issued")

	return &IssueResult{PermitID: permit.ID, PermitNumber: permit.PermitNumber}, nil
}
