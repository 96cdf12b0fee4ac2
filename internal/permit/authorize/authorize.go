// Package authorize decides which stage columns an acting role may
// write on a permit detail row.
package authorize

import (
	"strconv"
	"time"

	"github.com/hindterminals/workpermit/internal/db/models"
)

// roleStages maps application roles to the single stage they may
// stamp. Roles absent from the map stamp nothing.
var roleStages = map[models.RoleID]models.Stage{ //nolint:gochecknoglobals
	models.RoleUser:       models.StageReceiver,
	models.RoleAdmin:      models.StageReviewer,
	models.RoleSuperadmin: models.StageApprover,
	models.RoleIsolation:  models.StageIsolation,
}

// StageFor returns the stage the role acts as during approval. ok is
// false for roles that hold no stage.
func StageFor(role models.RoleID) (stage models.Stage, ok bool) {
	stage, ok = roleStages[role]
	return stage, ok
}

// Stamp returns the column assignments the role is allowed to make on
// a detail update: its own stage's acted-at time and acting user id,
// both server computed. Name and designation columns are fixed at
// issuance and never pass through here. Roles with no stage get an
// empty map.
func Stamp(role models.RoleID, actorID uint64, now time.Time) map[string]any {
	stage, ok := roleStages[role]
	if !ok {
		return map[string]any{}
	}

	dateTime, updatedBy := stage.Columns()
	return map[string]any{
		dateTime:  now,
		updatedBy: strconv.FormatUint(actorID, 10),
	}
}
