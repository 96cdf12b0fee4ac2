// Package permit provides the JSON API handlers for the permit
// lifecycle: issue, update, approve, hold, reject, close, reach and
// reopen.
package permit

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/hindterminals/workpermit/internal/config"
	"github.com/hindterminals/workpermit/internal/db/models"
	"github.com/hindterminals/workpermit/internal/permit/engine"
	"github.com/hindterminals/workpermit/internal/permit/number"
	"github.com/hindterminals/workpermit/internal/web/handler"
)

// Path is the base path for permit operations.
const Path = handler.RootPath + "permits"

// Service provides the permit lifecycle endpoints.
type Service struct {
	handler.Service
	cfg       *config.Config
	db        *gorm.DB
	engine    *engine.Engine
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, eng *engine.Engine) {
	if app == nil || cfg == nil || db == nil || eng == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg
	s.engine = eng
	s.validator = validator.New()

	app.Post(Path, s.Issue)
	app.Get(Path, s.List)
	app.Get(Path+"/:id", s.Get)
	app.Get(Path+"/:id/reach", s.Reach)
	app.Put(Path+"/:id/stage", s.UpdateStage)
	app.Post(Path+"/:id/approve", s.Approve)
	app.Post(Path+"/:id/hold", s.Hold)
	app.Post(Path+"/:id/reject", s.Reject)
	app.Post(Path+"/:id/close", s.Close)
	app.Post(Path+"/reopen", s.Reopen)
	app.Get(handler.RootPath+"permit-types", s.Types)
}

// Issue raises a new permit.
func (s *Service) Issue(c *fiber.Ctx) error {
	var in issueIn
	if ok, resp := s.parse(c, &in); !ok {
		return resp
	}

	permitType := models.PermitTypeID(in.PermitTypeID)
	detail := permitType.NewDetail()
	if detail == nil {
		return badRequest(c, "invalid permit type")
	}
	if err := json.Unmarshal(in.Detail, detail); err != nil {
		return badRequest(c, "invalid detail payload")
	}

	result, err := s.engine.Issue(c.Context(), engine.IssueInput{
		Type:    permitType,
		ActorID: in.UserID,
		Detail:  detail,
		Files:   workingFiles(in.Files),
	})
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"permitId":     result.PermitID,
		"permitNumber": result.PermitNumber,
	})
}

// List returns a page of permits, newest first. Optional query
// parameters: userId restricts to one owner, location matches the work
// location or the permit number segment, page and pageSize control
// pagination.
func (s *Service) List(c *fiber.Ctx) error {
	result, err := s.engine.List(c.Context(), engine.ListInput{
		UserID:   uint64(c.QueryInt("userId")),
		Location: c.Query("location"),
		Page:     c.QueryInt("page"),
		PageSize: c.QueryInt("pageSize"),
	})
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(result)
}

// Get returns the master record, its detail row and the computed reach.
func (s *Service) Get(c *fiber.Ctx) error {
	permitID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid permit id")
	}

	var permit models.Permit
	err = s.db.Where("id = ?", permitID).First(&permit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(c)
	}
	if err != nil {
		return s.fail(c, err)
	}

	detail := permit.PermitTypeID.NewDetail()
	err = s.db.Table(detail.TableName()).Where("permit_id = ?", permitID).First(detail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(c)
	}
	if err != nil {
		return s.fail(c, err)
	}

	reach, err := s.engine.Reach(c.Context(), permitID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"permit":        permit,
		"detail":        detail,
		"permitReachTo": reach,
	})
}

// Reach reports the stage the permit has progressed to.
func (s *Service) Reach(c *fiber.Ctx) error {
	permitID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid permit id")
	}

	reach, err := s.engine.Reach(c.Context(), permitID)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{"permitReachTo": reach})
}

// UpdateStage applies a role gated detail update.
func (s *Service) UpdateStage(c *fiber.Ctx) error {
	permitID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid permit id")
	}

	var in updateIn
	if ok, resp := s.parse(c, &in); !ok {
		return resp
	}

	err = s.engine.UpdateStage(c.Context(), permitID, in.UserID, in.Fields, workingFiles(in.Files))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "permit updated"})
}

// Approve moves the permit to Approved.
func (s *Service) Approve(c *fiber.Ctx) error {
	permitID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid permit id")
	}

	var in actorIn
	if ok, resp := s.parse(c, &in); !ok {
		return resp
	}

	if err := s.engine.Approve(c.Context(), permitID, in.UserID); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "permit approved"})
}

// Hold suspends the permit with a reason.
func (s *Service) Hold(c *fiber.Ctx) error {
	return s.reason(c, s.engine.Hold, "permit put on hold")
}

// Reject rejects the permit with a reason.
func (s *Service) Reject(c *fiber.Ctx) error {
	return s.reason(c, s.engine.Reject, "permit rejected")
}

func (s *Service) reason(c *fiber.Ctx, apply func(ctx context.Context, id uint64, reason string) error, msg string) error {
	permitID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid permit id")
	}

	var in reasonIn
	if ok, resp := s.parse(c, &in); !ok {
		return resp
	}

	if err := apply(c.Context(), permitID, in.Reason); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{"message": msg})
}

// Close records the actor's part of the close sequence.
func (s *Service) Close(c *fiber.Ctx) error {
	permitID, err := parseID(c)
	if err != nil {
		return badRequest(c, "invalid permit id")
	}

	var in actorIn
	if ok, resp := s.parse(c, &in); !ok {
		return resp
	}

	status, err := s.engine.Close(c.Context(), permitID, in.UserID, closeDocuments(in.Files))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "permit status updated to '" + string(status) + "'",
		"status":  status,
	})
}

// Reopen clones an expired permit into a new one.
func (s *Service) Reopen(c *fiber.Ctx) error {
	var in reopenIn
	if ok, resp := s.parse(c, &in); !ok {
		return resp
	}

	validUpTo, err := time.Parse(time.RFC3339, in.PermitValidUpTo)
	if err != nil {
		return badRequest(c, "invalid permitValidUpTo date format")
	}

	result, err := s.engine.Reopen(c.Context(), in.ExpiredPermitID, in.UserID, validUpTo)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":         "permit reopened successfully",
		"newPermitId":     result.PermitID,
		"newPermitNumber": result.PermitNumber,
	})
}

// Types lists the known permit types.
func (s *Service) Types(c *fiber.Ctx) error {
	types := make([]fiber.Map, 0, 4)
	for _, t := range models.AllPermitTypes() {
		types = append(types, fiber.Map{
			"permitTypeId": uint(t),
			"permitType":   t.String(),
		})
	}

	return c.JSON(types)
}

// parse decodes and validates a JSON request body. On failure the
// second return value carries the already written error response.
func (s *Service) parse(c *fiber.Ctx, in any) (bool, error) {
	if err := c.BodyParser(in); err != nil {
		return false, badRequest(c, "invalid request body")
	}
	if err := s.validator.Struct(in); err != nil {
		return false, badRequest(c, "missing or invalid fields: "+err.Error())
	}
	return true, nil
}

// fail maps engine errors to HTTP status codes.
func (s *Service) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, engine.ErrPermitNotFound):
		return notFound(c)
	case errors.Is(err, engine.ErrActorUnknown):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidPermitType),
		errors.Is(err, engine.ErrReasonRequired),
		errors.Is(err, engine.ErrLocationRequired),
		errors.Is(err, engine.ErrValidityNotFuture):
		return badRequest(c, err.Error())
	case errors.Is(err, engine.ErrDuplicateReopen),
		errors.Is(err, engine.ErrSourceNotExpired),
		errors.Is(err, number.ErrSequenceExhausted):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("permit request failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

func parseID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("id"), 10, 64)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "permit not found"})
}

func workingFiles(in []fileIn) []models.WorkingFile {
	files := make([]models.WorkingFile, 0, len(in))
	for _, f := range in {
		files = append(files, models.WorkingFile{})
		last := &files[len(files)-1]
		last.FileName = f.FileName
		last.MediaType = f.MediaType
		last.Content = f.Content
		last.FileSize = int64(len(f.Content))
	}
	return files
}

func closeDocuments(in []fileIn) []models.CloseDocument {
	docs := make([]models.CloseDocument, 0, len(in))
	for _, f := range in {
		docs = append(docs, models.CloseDocument{})
		last := &docs[len(docs)-1]
		last.FileName = f.FileName
		last.MediaType = f.MediaType
		last.Content = f.Content
		last.FileSize = int64(len(f.Content))
	}
	return docs
}
