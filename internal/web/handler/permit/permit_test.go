package permit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/config"
	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/identity"
	"github.com/hindterminals/workpermit/internal/permit/engine"
	"github.com/hindterminals/workpermit/internal/permit/number"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Permit{},
		&models.HeightWorkDetail{},
		&models.HotWorkDetail{},
		&models.ElectricWorkDetail{},
		&models.GeneralWorkDetail{},
		&models.Ownership{},
		&models.CloseStatus{},
		&models.WorkingFile{},
		&models.AdminDocument{},
		&models.CloseDocument{},
	)
	require.NoError(t, err, "failed to migrate test database")

	issuer := models.User{
		Active:    true,
		Username:  "issuer",
		Email:     "issuer@example.com",
		FirstName: "Issuing",
		LastName:  "Officer",
		RoleID:    models.RoleFiller,
	}
	require.NoError(t, db.Create(&issuer).Error)

	return db
}

func newTestService(t *testing.T) (*fiber.App, *Service, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	app := fiber.New()

	eng := engine.New(db, number.NewGenerator(db, nil), identity.NewDirectory(db), nil, engine.Options{})

	var s Service
	s.Init(app, &config.Config{}, db, eng)

	return app, &s, db
}

func performJSON(t *testing.T, app *fiber.App, method, target string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err, "app.Test failed")

	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()

	return out
}

func issueBody(userID uint64) fiber.Map {
	detail, _ := json.Marshal(fiber.Map{
		"workLocation":    "Berth 2",
		"workDescription": "crane boom welding",
		"organization":    "Rigging Contractors",
	})

	return fiber.Map{
		"permitTypeId": uint(models.TypeHotWork),
		"userId":       userID,
		"detail":       json.RawMessage(detail),
	}
}

func TestIssueCreatesPermit(t *testing.T) {
	app, _, db := newTestService(t)

	resp := performJSON(t, app, http.MethodPost, Path, issueBody(1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	out := decodeJSON(t, resp)
	assert.Regexp(t, `^HTPL/BERTH2/\d{4}-\d{2}/1$`, out["permitNumber"])

	var permit models.Permit
	require.NoError(t, db.First(&permit).Error)
	assert.Equal(t, out["permitNumber"], permit.PermitNumber)
	assert.Equal(t, models.TypeHotWork, permit.PermitTypeID)
}

func TestIssueRejectsUnknownType(t *testing.T) {
	app, _, _ := newTestService(t)

	body := issueBody(1)
	body["permitTypeId"] = 9

	resp := performJSON(t, app, http.MethodPost, Path, body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIssueRejectsUnknownActor(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performJSON(t, app, http.MethodPost, Path, issueBody(999))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestGetReturnsPermitWithReach(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performJSON(t, app, http.MethodPost, Path, issueBody(1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = performJSON(t, app, http.MethodGet, Path+"/1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeJSON(t, resp)
	assert.Equal(t, string(models.StageIssuer), out["permitReachTo"])
	assert.NotNil(t, out["permit"])
	assert.NotNil(t, out["detail"])
}

func TestGetUnknownPermit(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performJSON(t, app, http.MethodGet, Path+"/42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetInvalidID(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performJSON(t, app, http.MethodGet, Path+"/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHoldRequiresReason(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performJSON(t, app, http.MethodPost, Path, issueBody(1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = performJSON(t, app, http.MethodPost, Path+"/1/hold", fiber.Map{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRejectRecordsReason(t *testing.T) {
	app, _, db := newTestService(t)

	resp := performJSON(t, app, http.MethodPost, Path, issueBody(1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = performJSON(t, app, http.MethodPost, Path+"/1/reject", fiber.Map{"reason": "no fire watch assigned"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var detail models.HotWorkDetail
	require.NoError(t, db.Table(detail.TableName()).Where("permit_id = ?", 1).First(&detail).Error)
	assert.Equal(t, "no fire watch assigned", detail.Reason)

	var ownership models.Ownership
	require.NoError(t, db.Where("permit_id = ?", 1).First(&ownership).Error)
	assert.Equal(t, models.StatusRejected, ownership.CurrentPermitStatus)
}

func TestReopenRejectsBadDate(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performJSON(t, app, http.MethodPost, Path+"/reopen", fiber.Map{
		"expiredPermitId": 1,
		"userId":          1,
		"permitValidUpTo": "tomorrow",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReopenUnknownPermit(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performJSON(t, app, http.MethodPost, Path+"/reopen", fiber.Map{
		"expiredPermitId": 7,
		"userId":          1,
		"permitValidUpTo": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTypesListsAllPermitTypes(t *testing.T) {
	app, _, _ := newTestService(t)

	resp := performJSON(t, app, http.MethodGet, "/api/permit-types", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	_ = resp.Body.Close()

	require.Len(t, out, 4)
	assert.Equal(t, "Height Work", out[0]["permitType"])
	assert.Equal(t, "General Work", out[3]["permitType"])
}

func TestListReturnsPermitsWithPagination(t *testing.T) {
	app, _, _ := newTestService(t)

	for i := 0; i < 3; i++ {
		resp := performJSON(t, app, http.MethodPost, Path, issueBody(1))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp := performJSON(t, app, http.MethodGet, Path+"?page=1&pageSize=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeJSON(t, resp)
	assert.EqualValues(t, 3, out["total"])
	assert.EqualValues(t, 2, out["pageSize"])

	permits, ok := out["permits"].([]any)
	require.True(t, ok)
	require.Len(t, permits, 2)

	row, ok := permits[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Active", row["status"])
	assert.Equal(t, string(models.StageIssuer), row["permitReachTo"])
	assert.Equal(t, "Hot Work", row["permitType"])
	assert.Equal(t, false, row["canReopen"])
	assert.NotNil(t, row["permit"])
	assert.NotNil(t, row["detail"])
}

func TestListFiltersByUserID(t *testing.T) {
	app, _, db := newTestService(t)

	other := models.User{
		Active:   true,
		Username: "receiver",
		Email:    "receiver@example.com",
		RoleID:   models.RoleUser,
	}
	require.NoError(t, db.Create(&other).Error)

	resp := performJSON(t, app, http.MethodPost, Path, issueBody(1))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = performJSON(t, app, http.MethodPost, Path, issueBody(other.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = performJSON(t, app, http.MethodGet, Path+fmt.Sprintf("?userId=%d", other.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decodeJSON(t, resp)
	assert.EqualValues(t, 1, out["total"])
}
