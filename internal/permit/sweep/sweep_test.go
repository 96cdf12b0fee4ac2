package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/db/models"
)

var testNow = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Permit{},
		&models.HeightWorkDetail{},
		&models.HotWorkDetail{},
		&models.ElectricWorkDetail{},
		&models.GeneralWorkDetail{},
		&models.Ownership{},
	)
	require.NoError(t, err, "failed to migrate test database")

	return db
}

// seedPermit creates a permit with the given validity end and lifecycle
// status, returning its id.
func seedPermit(t *testing.T, db *gorm.DB, permitType models.PermitTypeID, number string, validUpTo time.Time, status models.Status) uint64 {
	t.Helper()

	permit := models.Permit{PermitTypeID: permitType, PermitNumber: number, CreatedBy: 1}
	require.NoError(t, db.Create(&permit).Error)

	detail := permitType.NewDetail()
	core := detail.Core()
	core.PermitID = permit.ID
	core.WorkLocation = "YARD4"
	core.PermitValidUpTo = &validUpTo
	require.NoError(t, db.Table(detail.TableName()).Create(detail).Error)

	require.NoError(t, db.Create(&models.Ownership{
		PermitID:            permit.ID,
		UserID:              1,
		CurrentPermitStatus: status,
		Status:              "Pending",
		Active:              true,
	}).Error)

	return permit.ID
}

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

func TestRunExpiresElapsedPermits(t *testing.T) {
	db := setupTestDB(t)

	expired := seedPermit(t, db, models.TypeHotWork, "HTPL/YARD4/2025-26/1", testNow.Add(-time.Hour), models.StatusActive)
	live := seedPermit(t, db, models.TypeHotWork, "HTPL/YARD4/2025-26/2", testNow.Add(time.Hour), models.StatusActive)

	count, err := New(db, fixedClock()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var permit models.Permit
	require.NoError(t, db.First(&permit, expired).Error)
	assert.True(t, permit.IsExpired)

	var own models.Ownership
	require.NoError(t, db.Where("permit_id = ?", expired).First(&own).Error)
	assert.Equal(t, models.StatusExpired, own.CurrentPermitStatus)

	permit = models.Permit{}
	require.NoError(t, db.First(&permit, live).Error)
	assert.False(t, permit.IsExpired)
}

func TestRunCoversAllDetailTables(t *testing.T) {
	db := setupTestDB(t)

	seedPermit(t, db, models.TypeHeightWork, "HTPL/YARD4/2025-26/1", testNow.Add(-time.Hour), models.StatusActive)
	seedPermit(t, db, models.TypeHotWork, "HTPL/YARD4/2025-26/2", testNow.Add(-time.Hour), models.StatusActive)
	seedPermit(t, db, models.TypeElectricWork, "HTPL/YARD4/2025-26/3", testNow.Add(-time.Hour), models.StatusApproved)
	seedPermit(t, db, models.TypeGeneralWork, "HTPL/YARD4/2025-26/4", testNow.Add(-time.Hour), models.StatusHold)

	count, err := New(db, fixedClock()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestRunSkipsClosingPermits(t *testing.T) {
	db := setupTestDB(t)

	closed := seedPermit(t, db, models.TypeGeneralWork, "HTPL/YARD4/2025-26/1", testNow.Add(-time.Hour), models.StatusClose)
	pending := seedPermit(t, db, models.TypeGeneralWork, "HTPL/YARD4/2025-26/2", testNow.Add(-time.Hour), models.StatusCloserPending)

	count, err := New(db, fixedClock()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	for _, id := range []uint64{closed, pending} {
		var permit models.Permit
		require.NoError(t, db.First(&permit, id).Error)
		assert.False(t, permit.IsExpired)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	db := setupTestDB(t)

	seedPermit(t, db, models.TypeHotWork, "HTPL/YARD4/2025-26/1", testNow.Add(-time.Hour), models.StatusActive)

	s := New(db, fixedClock())

	count, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count, "second run must be a no-op")
}

func TestRunSkipsMissingValidity(t *testing.T) {
	db := setupTestDB(t)

	permit := models.Permit{PermitTypeID: models.TypeHotWork, PermitNumber: "HTPL/YARD4/2025-26/1", CreatedBy: 1}
	require.NoError(t, db.Create(&permit).Error)

	detail := &models.HotWorkDetail{}
	detail.PermitID = permit.ID
	require.NoError(t, db.Create(detail).Error)

	require.NoError(t, db.Create(&models.Ownership{
		PermitID: permit.ID, UserID: 1, CurrentPermitStatus: models.StatusActive, Status: "Pending", Active: true,
	}).Error)

	count, err := New(db, fixedClock()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunSkipsSoftDeletedOwnership(t *testing.T) {
	db := setupTestDB(t)

	id := seedPermit(t, db, models.TypeHotWork, "HTPL/YARD4/2025-26/1", testNow.Add(-time.Hour), models.StatusActive)
	require.NoError(t, db.Where("permit_id = ?", id).Delete(&models.Ownership{}).Error)

	count, err := New(db, fixedClock()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
