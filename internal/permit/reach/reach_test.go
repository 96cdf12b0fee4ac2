package reach

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hindterminals/workpermit/internal/db/models"
)

func ts(offsetMinutes int) *time.Time {
	t := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(offsetMinutes) * time.Minute)
	return &t
}

func TestResolveApprovalLatestTimestampWins(t *testing.T) {
	core := &models.DetailCore{}
	core.Issuer.DateTime = ts(0)
	core.Issuer.UpdatedBy = "1"
	core.Receiver.DateTime = ts(10)
	core.Receiver.UpdatedBy = "2"
	core.EnergyIsolate.DateTime = ts(30)
	core.EnergyIsolate.UpdatedBy = "5"
	core.Reviewer.DateTime = ts(20)
	core.Reviewer.UpdatedBy = "3"

	// Isolation acted last even though the reviewer's user id is also
	// recorded; the timestamp decides.
	got := Resolve(core, nil, models.StatusActive)
	assert.Equal(t, models.StageIsolation, got)
}

func TestResolveApprovalFallsBackToActorPriority(t *testing.T) {
	core := &models.DetailCore{}
	core.Receiver.UpdatedBy = "2"
	core.Reviewer.UpdatedBy = "3"

	got := Resolve(core, nil, models.StatusActive)
	assert.Equal(t, models.StageReviewer, got)
}

func TestResolveFreshPermitIsWithIssuer(t *testing.T) {
	got := Resolve(&models.DetailCore{}, nil, models.StatusActive)
	assert.Equal(t, models.StageIssuer, got)
}

func TestResolveClosingLatestCloseWins(t *testing.T) {
	core := &models.DetailCore{}
	core.Approver.UpdatedBy = "4"

	cs := &models.CloseStatus{}
	cs.Issuer.CloseTime = ts(0)
	cs.Receiver.CloseTime = ts(15)
	cs.Reviewer.CloseTime = ts(5)

	got := Resolve(core, cs, models.StatusCloserPending)
	assert.Equal(t, models.StageReceiver, got)
}

func TestResolveClosingNoCloseRecordedIsIssuer(t *testing.T) {
	core := &models.DetailCore{}
	core.Approver.UpdatedBy = "4"

	got := Resolve(core, &models.CloseStatus{}, models.StatusClose)
	assert.Equal(t, models.StageIssuer, got)
}

func TestResolveClosingMissingRowUsesActorPriority(t *testing.T) {
	core := &models.DetailCore{}
	core.Receiver.UpdatedBy = "2"
	core.EnergyIsolate.UpdatedBy = "5"

	got := Resolve(core, nil, models.StatusCloserPending)
	assert.Equal(t, models.StageReceiver, got)
}

func TestResolveClosingIgnoresApprovalTimestamps(t *testing.T) {
	// In the close sequence the approval timestamps are irrelevant;
	// only close records count.
	core := &models.DetailCore{}
	core.Approver.DateTime = ts(100)
	core.Approver.UpdatedBy = "4"

	cs := &models.CloseStatus{}
	cs.Issuer.CloseTime = ts(1)

	got := Resolve(core, cs, models.StatusCloserPending)
	assert.Equal(t, models.StageIssuer, got)
}
