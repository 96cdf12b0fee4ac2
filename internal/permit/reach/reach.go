// Package reach computes which stage a permit has progressed to.
package reach

import (
	"time"

	"github.com/hindterminals/workpermit/internal/db/models"
)

// closeOrder is the iteration order over close records. On equal
// timestamps the earlier stage wins.
var closeOrder = []models.Stage{ //nolint:gochecknoglobals
	models.StageIssuer,
	models.StageReceiver,
	models.StageReviewer,
	models.StageIsolation,
	models.StageApprover,
}

// Resolve returns the single stage the permit has reached.
//
// While the permit is in its close sequence the most recently recorded
// role close wins; a close status row with no recorded times resolves
// to the issuer. Outside the close sequence the stage with the latest
// acted-at timestamp wins. Rows carrying acting user ids but no
// timestamps fall back to a fixed priority, approver first.
//
// closeStatus may be nil when no role has started closing.
func Resolve(core *models.DetailCore, closeStatus *models.CloseStatus, status models.Status) models.Stage {
	if status.Closing() {
		if closeStatus == nil {
			return latestByUpdatedBy(core)
		}

		var last models.Stage
		var lastTime time.Time
		for _, s := range closeOrder {
			pair := closeStatus.Pair(s)
			if pair.CloseTime != nil && pair.CloseTime.After(lastTime) {
				lastTime = *pair.CloseTime
				last = s
			}
		}
		if last != "" {
			return last
		}
		return models.StageIssuer
	}

	var latest models.Stage
	var latestTime time.Time
	for _, s := range models.ApprovalStages() {
		slot := core.Slot(s)
		if slot.DateTime != nil && slot.DateTime.After(latestTime) {
			latestTime = *slot.DateTime
			latest = s
		}
	}
	if latest != "" {
		return latest
	}

	return latestByUpdatedBy(core)
}

// latestByUpdatedBy picks the furthest stage that recorded an acting
// user, approver first. A permit with no recorded actors is with the
// issuer.
func latestByUpdatedBy(core *models.DetailCore) models.Stage {
	switch {
	case core.Approver.UpdatedBy != "":
		return models.StageApprover
	case core.Reviewer.UpdatedBy != "":
		return models.StageReviewer
	case core.Receiver.UpdatedBy != "":
		return models.StageReceiver
	case core.EnergyIsolate.UpdatedBy != "":
		return models.StageIsolation
	default:
		return models.StageIssuer
	}
}
