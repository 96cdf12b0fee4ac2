// Package engine drives the work permit lifecycle: issuance, stage
// updates, approval, hold, reject, close, expiry and reopen.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/identity"
	"github.com/hindterminals/workpermit/internal/notify"
	"github.com/hindterminals/workpermit/internal/permit/number"
)

// Options tune an Engine beyond its required collaborators.
type Options struct {
	// FallbackRecipients receive reject and close notifications when no
	// addressee resolves.
	FallbackRecipients []string

	// Now overrides the engine clock. Nil means time.Now.
	Now func() time.Time
}

// Engine applies permit lifecycle operations against the backing store.
// Every state transition runs as one transaction; notification dispatch
// happens after commit and never rolls a transition back.
type Engine struct {
	db       *gorm.DB
	ids      *number.Generator
	dir      *identity.Directory
	notifier notify.Dispatcher

	fallback []string
	now      func() time.Time
}

// New creates a permit lifecycle engine.
func New(db *gorm.DB, ids *number.Generator, dir *identity.Directory, notifier notify.Dispatcher, opts Options) *Engine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}

	return &Engine{
		db:       db,
		ids:      ids,
		dir:      dir,
		notifier: notifier,
		fallback: opts.FallbackRecipients,
		now:      now,
	}
}

// resolveActor maps a user id to an active account, translating a miss
// into the engine's authorization error.
func (e *Engine) resolveActor(ctx context.Context, actorID uint64) (*models.User, error) {
	user, err := e.dir.Resolve(ctx, actorID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, ErrActorUnknown
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// loadPermit fetches the master record.
func (e *Engine) loadPermit(ctx context.Context, permitID uint64) (*models.Permit, error) {
	var permit models.Permit

	err := e.db.WithContext(ctx).Where("id = ?", permitID).First(&permit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load permit: %w", err)
	}

	return &permit, nil
}

// loadDetail fetches the typed detail row for the permit.
func (e *Engine) loadDetail(ctx context.Context, permit *models.Permit) (models.Detail, error) {
	detail := permit.PermitTypeID.NewDetail()
	if detail == nil {
		return nil, ErrInvalidPermitType
	}

	err := e.db.WithContext(ctx).Table(detail.TableName()).
		Where("permit_id = ?", permit.ID).First(detail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load permit detail: %w", err)
	}

	return detail, nil
}

// loadOwnership fetches the active ownership row for the permit.
func (e *Engine) loadOwnership(ctx context.Context, permitID uint64) (*models.Ownership, error) {
	var own models.Ownership

	err := e.db.WithContext(ctx).
		Where("permit_id = ? AND active = ?", permitID, true).
		First(&own).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load permit ownership: %w", err)
	}

	return &own, nil
}

// setStatus updates the permit lifecycle status on the active ownership
// row inside tx.
func setStatus(tx *gorm.DB, permitID uint64, status models.Status) error {
	res := tx.Model(&models.Ownership{}).
		Where("permit_id = ? AND active = ?", permitID, true).
		Update("current_permit_status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update permit status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrPermitNotFound
	}

	return nil
}

// stakeholderEmails resolves the addresses of everyone who acted on the
// permit so far: issuer, receiver, reviewer and approver. Unresolvable
// actors are skipped.
func (e *Engine) stakeholderEmails(ctx context.Context, core *models.DetailCore) []string {
	candidates := []string{
		core.Receiver.UpdatedBy,
		core.Issuer.UpdatedBy,
		core.Reviewer.UpdatedBy,
		core.Approver.UpdatedBy,
	}

	var emails []string
	seen := make(map[string]bool)
	for _, id := range candidates {
		if id == "" {
			continue
		}
		email := e.dir.EmailFor(ctx, id)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}

	return emails
}

// dispatch sends a notification and logs a failure without surfacing it.
func (e *Engine) dispatch(ctx context.Context, msg notify.Message) {
	if len(msg.To) == 0 {
		log.Warn().Str("subject", msg.Subject).Msg("no notification recipients resolved")
		return
	}

	if err := e.notifier.Send(ctx, msg); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to send notification")
	}
}
