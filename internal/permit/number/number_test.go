package number

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

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.Permit{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Yard 4", "YARD4"},
		{`"gate/2"`, "GATE2"},
		{`  rail \ siding  `, "RAILSIDING"},
		{"warehouse\t7\n", "WAREHOUSE7"},
		{"", ""},
		{`"'/\`, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestFiscalYear(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2025-04-01", "2025-26"},
		{"2025-12-31", "2025-26"},
		{"2026-01-15", "2025-26"},
		{"2026-03-31", "2025-26"},
		{"2026-04-01", "2026-27"},
		{"2099-05-01", "2099-00"},
	}

	for _, tt := range tests {
		d, err := time.Parse("2006-01-02", tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, FiscalYear(d), "FiscalYear(%s)", tt.date)
	}
}

func TestGenerateFirstNumber(t *testing.T) {
	db := setupTestDB(t)
	g := NewGenerator(db, fixedClock(time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)))

	got, err := g.Generate(context.Background(), "Yard 4", func(candidate string) error {
		return db.Create(&models.Permit{PermitTypeID: models.TypeHotWork, PermitNumber: candidate, CreatedBy: 1}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, "HTPL/YARD4/2025-26/1", got)
}

func TestGenerateIncrementsPastMax(t *testing.T) {
	db := setupTestDB(t)

	for _, n := range []string{
		"HTPL/YARD4/2025-26/1",
		"HTPL/YARD4/2025-26/7",
		"HTPL/YARD4/2025-26/3",
	} {
		require.NoError(t, db.Create(&models.Permit{PermitTypeID: models.TypeHotWork, PermitNumber: n, CreatedBy: 1}).Error)
	}

	g := NewGenerator(db, fixedClock(time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)))

	got, err := g.Generate(context.Background(), "yard 4", func(candidate string) error {
		return db.Create(&models.Permit{PermitTypeID: models.TypeHotWork, PermitNumber: candidate, CreatedBy: 1}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, "HTPL/YARD4/2025-26/8", got)
}

func TestGenerateSequenceRestartsPerPrefix(t *testing.T) {
	db := setupTestDB(t)

	// A different location and a prior fiscal year under the same
	// location both leave the current prefix untouched.
	for _, n := range []string{
		"HTPL/GATE2/2025-26/5",
		"HTPL/YARD4/2024-25/9",
	} {
		require.NoError(t, db.Create(&models.Permit{PermitTypeID: models.TypeGeneralWork, PermitNumber: n, CreatedBy: 1}).Error)
	}

	g := NewGenerator(db, fixedClock(time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)))

	got, err := g.Generate(context.Background(), "YARD4", func(candidate string) error {
		return db.Create(&models.Permit{PermitTypeID: models.TypeGeneralWork, PermitNumber: candidate, CreatedBy: 1}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, "HTPL/YARD4/2025-26/1", got)
}

func TestGenerateRetriesOnDuplicate(t *testing.T) {
	db := setupTestDB(t)
	g := NewGenerator(db, fixedClock(time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)))

	// First claim reports a conflict, as if a concurrent issuer won the
	// race; the generator must rescan and try the next sequence.
	attempts := 0
	got, err := g.Generate(context.Background(), "YARD4", func(candidate string) error {
		attempts++
		if attempts == 1 {
			require.NoError(t, db.Create(&models.Permit{PermitTypeID: models.TypeHotWork, PermitNumber: candidate, CreatedBy: 2}).Error)
			return gorm.ErrDuplicatedKey
		}
		return db.Create(&models.Permit{PermitTypeID: models.TypeHotWork, PermitNumber: candidate, CreatedBy: 1}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "HTPL/YARD4/2025-26/2", got)
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	db := setupTestDB(t)
	g := NewGenerator(db, fixedClock(time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)))

	attempts := 0
	_, err := g.Generate(context.Background(), "YARD4", func(string) error {
		attempts++
		return gorm.ErrDuplicatedKey
	})
	require.ErrorIs(t, err, ErrSequenceExhausted)
	assert.Equal(t, maxAttempts, attempts)
}

func TestGenerateSurfacesClaimError(t *testing.T) {
	db := setupTestDB(t)
	g := NewGenerator(db, fixedClock(time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)))

	boom := assert.AnError
	_, err := g.Generate(context.Background(), "YARD4", func(string) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestGenerateIgnoresMalformedSuffixes(t *testing.T) {
	db := setupTestDB(t)

	for _, n := range []string{
		"HTPL/YARD4/2025-26/2",
		"HTPL/YARD4/2025-26/abc",
		"HTPL/YARD4/2025-26/007",
	} {
		require.NoError(t, db.Create(&models.Permit{PermitTypeID: models.TypeHotWork, PermitNumber: n, CreatedBy: 1}).Error)
	}

	g := NewGenerator(db, fixedClock(time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)))

	got, err := g.Generate(context.Background(), "YARD4", func(candidate string) error {
		return db.Create(&models.Permit{PermitTypeID: models.TypeHotWork, PermitNumber: candidate, CreatedBy: 1}).Error
	})
	require.NoError(t, err)
	assert.Equal(t, "HTPL/YARD4/2025-26/8", got)
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "YARD4", Location("HTPL/YARD4/2025-26/12"))
	assert.Equal(t, "", Location("YARD4/2025-26/12"))
	assert.Equal(t, "", Location("not a permit number"))
}
