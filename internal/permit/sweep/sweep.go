// Package sweep expires permits whose validity window has elapsed.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
)

var expiredTotal = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "workpermit_expired_total",
	Help: "Number of permits flipped to Expired by the sweep.",
})

// Sweeper scans live permits past their validity end and flips them to
// Expired. Runs are idempotent: an already expired permit never matches
// the scan again, so overlapping or repeated runs are safe.
type Sweeper struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a sweeper. A nil now falls back to time.Now.
func New(db *gorm.DB, now func() time.Time) *Sweeper {
	if now == nil {
		now = time.Now
	}
	return &Sweeper{db: db, now: now}
}

// Run performs one sweep pass and returns how many permits were
// expired. One permit's failure is logged and does not stop the batch.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	ids, err := s.scan(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if err := s.expire(ctx, id); err != nil {
			log.Error().Err(err).Uint64("permit_id", id).Msg("failed to expire permit")
			continue
		}
		expired++
		expiredTotal.Inc()
	}

	if expired > 0 {
		log.Info().Int("count", expired).Msg("expiry sweep completed")
	}

	return expired, nil
}

// scan collects the ids of permits past validity across every detail
// table, deduplicated.
func (s *Sweeper) scan(ctx context.Context) ([]uint64, error) {
	now := s.now()

	seen := make(map[uint64]bool)
	var ids []uint64

	for _, t := range models.AllPermitTypes() {
		tbl := t.DetailTable()

		var batch []uint64
		err := s.db.WithContext(ctx).Table(tbl).
			Joins("JOIN permits ON permits.id = "+tbl+".permit_id").
			Joins("JOIN permit_ownerships ON permit_ownerships.permit_id = permits.id").
			Where("permit_ownerships.active = ?", true).
			Where("permit_ownerships.deleted_at IS NULL").
			Where("permits.is_expired = ?", false).
			Where("permit_ownerships.current_permit_status NOT IN ?",
				[]models.Status{models.StatusClose, models.StatusCloserPending}).
			Where(tbl+".permit_valid_up_to IS NOT NULL").
			Where(tbl+".permit_valid_up_to < ?", now).
			Pluck(tbl+".permit_id", &batch).Error
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s for expired permits: %w", tbl, err)
		}

		for _, id := range batch {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	return ids, nil
}

// expire flips one permit to Expired: the master record's is_expired
// flag and the ownership status change together or not at all.
func (s *Sweeper) expire(ctx context.Context, permitID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Permit{}).
			Where("id = ?", permitID).
			Update("is_expired", true).Error
		if err != nil {
			return fmt.Errorf("failed to mark permit expired: %w", err)
		}

		err = tx.Model(&models.Ownership{}).
			Where("permit_id = ? AND active = ?", permitID, true).
			Update("current_permit_status", models.StatusExpired).Error
		if err != nil {
			return fmt.Errorf("failed to update ownership status: %w", err)
		}

		return nil
	})
}
