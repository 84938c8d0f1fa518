package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
	"github.com/trezcool/ratiba/core/planner"
)

type plannerApi struct {
	svc      *planner.Service
	actSvc   *activity.Service
	validate *validator.Validate
}

func registerPlannerAPI(g *echo.Group, svc *planner.Service, actSvc *activity.Service, validate *validator.Validate) {
	api := plannerApi{
		svc:      svc,
		actSvc:   actSvc,
		validate: validate,
	}

	bg := g.Group("/blocks")
	bg.POST("", api.create)
	bg.GET("", api.query)
	bg.DELETE("", api.destroyMultiple)
	bg.GET("/day", api.day)
	bg.GET("/week", api.week)

	dg := bg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.POST("/move", api.move)
	dg.POST("/next-slot", api.moveToNextSlot)
	dg.POST("/snooze", api.snooze)
	dg.POST("/complete", api.complete)
	dg.POST("/skip", api.skip)

	g.GET("/slots", api.slots)
	g.GET("/conflicts", api.checkConflict)
	g.GET("/activities/:id/study-plan", api.studyPlan)

	g.GET("/preferences", api.retrievePreferences)
	g.PUT("/preferences", api.savePreferences)
}

// Handlers

func (api *plannerApi) create(ctx echo.Context) error {
	var data planner.NewBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBlock")
	}
	data.OwnerID = contextOwner(ctx)
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	blk, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, blk)
}

func (api *plannerApi) retrieve(ctx echo.Context) error {
	blk, err := api.svc.Get(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, blk)
}

func (api *plannerApi) update(ctx echo.Context) error {
	owner := contextOwner(ctx)

	var data planner.UpdateBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBlock")
	}

	orig, err := api.svc.Get(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	blk, err := api.svc.Update(ctx.Request().Context(), owner, orig.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, blk)
}

func (api *plannerApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting block")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), contextOwner(ctx), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting blocks")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) query(ctx echo.Context) error {
	var query BlockFilterRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to BlockFilterRequest")
	}
	filter, err := query.Filter(api.validate)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	blocks, err := api.svc.Filter(ctx.Request().Context(), contextOwner(ctx), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying blocks")
	}
	if blocks == nil {
		blocks = []planner.Block{}
	}
	return ctx.JSON(http.StatusOK, blocks)
}

func (api *plannerApi) day(ctx echo.Context) error {
	date, err := bindDate(ctx, "date")
	if err != nil {
		return err
	}
	blocks, err := api.svc.BlocksOn(ctx.Request().Context(), contextOwner(ctx), date)
	if err != nil {
		return errors.Wrap(err, "querying day blocks")
	}
	if blocks == nil {
		blocks = []planner.Block{}
	}
	return ctx.JSON(http.StatusOK, blocks)
}

func (api *plannerApi) week(ctx echo.Context) error {
	start, err := bindDate(ctx, "start")
	if err != nil {
		return err
	}
	blocks, err := api.svc.BlocksInWeek(ctx.Request().Context(), contextOwner(ctx), start)
	if err != nil {
		return errors.Wrap(err, "querying week blocks")
	}
	if blocks == nil {
		blocks = []planner.Block{}
	}
	return ctx.JSON(http.StatusOK, blocks)
}

func (api *plannerApi) move(ctx echo.Context) error {
	var data planner.MoveBlock
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveBlock")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	blk, err := api.svc.Move(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, blk)
}

func (api *plannerApi) moveToNextSlot(ctx echo.Context) error {
	blk, moved, err := api.svc.MoveToNextSlot(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !moved {
		return ctx.JSON(http.StatusOK, RescheduleResponse{Moved: false})
	}
	return ctx.JSON(http.StatusOK, RescheduleResponse{Moved: true, Block: &blk})
}

func (api *plannerApi) snooze(ctx echo.Context) error {
	owner := contextOwner(ctx)

	blk, err := api.svc.Get(ctx.Request().Context(), owner, ctx.Param("id"))
	if err != nil {
		return err
	}

	// the linked activity's due date bounds the snooze
	var due *time.Time
	if blk.ActivityID != "" {
		if info, err := api.actSvc.PlannedActivity(ctx.Request().Context(), owner, blk.ActivityID); err == nil {
			due = info.DueAt
		} else if errors.Cause(err) != activity.ErrNotFound {
			return errors.Wrap(err, "getting linked activity")
		}
	}

	blk, moved, err := api.svc.SmartSnooze(ctx.Request().Context(), owner, blk.ID, due)
	if err != nil {
		return err
	}
	if !moved {
		return ctx.JSON(http.StatusOK, RescheduleResponse{Moved: false})
	}
	return ctx.JSON(http.StatusOK, RescheduleResponse{Moved: true, Block: &blk})
}

func (api *plannerApi) complete(ctx echo.Context) error {
	blk, err := api.svc.MarkCompleted(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, blk)
}

func (api *plannerApi) skip(ctx echo.Context) error {
	blk, err := api.svc.MarkSkipped(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, blk)
}

func (api *plannerApi) slots(ctx echo.Context) error {
	var query SlotsRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to SlotsRequest")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}
	date, _ := planner.ParseDate(query.Date)

	slots, err := api.svc.AvailableSlots(ctx.Request().Context(), contextOwner(ctx), date, query.Duration)
	if err != nil {
		return errors.Wrap(err, "finding available slots")
	}
	if slots == nil {
		slots = []planner.Slot{}
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *plannerApi) checkConflict(ctx echo.Context) error {
	var query ConflictCheckRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to ConflictCheckRequest")
	}
	if err := query.Validate(api.validate); err != nil {
		return err
	}
	date, _ := planner.ParseDate(query.Date)

	info, err := api.svc.CheckConflict(ctx.Request().Context(), contextOwner(ctx), date, query.StartTime, query.EndTime, query.ExcludeID)
	if err != nil {
		return errors.Wrap(err, "checking conflicts")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *plannerApi) studyPlan(ctx echo.Context) error {
	plan, err := api.svc.SuggestStudyBlocks(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, plan)
}

func (api *plannerApi) retrievePreferences(ctx echo.Context) error {
	prefs, err := api.svc.GetPreferences(ctx.Request().Context(), contextOwner(ctx))
	if err != nil {
		return errors.Wrap(err, "getting preferences")
	}
	return ctx.JSON(http.StatusOK, prefs)
}

func (api *plannerApi) savePreferences(ctx echo.Context) error {
	var data planner.Preferences
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Preferences")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prefs, err := api.svc.SavePreferences(ctx.Request().Context(), contextOwner(ctx), data)
	if err != nil {
		return errors.Wrap(err, "saving preferences")
	}
	return ctx.JSON(http.StatusOK, prefs)
}

// Bindings

type (
	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	BlockFilterRequest struct {
		DateFrom   string `query:"date_from" validate:"omitempty,datestr"`
		DateTo     string `query:"date_to" validate:"omitempty,datestr"`
		ActivityID string `query:"activity_id"`
		Status     string `query:"status" validate:"omitempty,blockstatus"`
		Category   string `query:"category" validate:"omitempty,category"`
	}

	SlotsRequest struct {
		Date     string `query:"date" validate:"required,datestr"`
		Duration int    `query:"duration" validate:"required,min=1"`
	}

	ConflictCheckRequest struct {
		Date      string `query:"date" validate:"required,datestr"`
		StartTime string `query:"start" validate:"required,timestr"`
		EndTime   string `query:"end" validate:"required,timestr"`
		ExcludeID string `query:"exclude_id"`
	}

	RescheduleResponse struct {
		Moved bool           `json:"moved"`
		Block *planner.Block `json:"block,omitempty"`
	}
)

func (fr *BlockFilterRequest) Filter(validate *validator.Validate) (planner.QueryFilter, error) {
	fr.DateFrom = core.CleanString(fr.DateFrom)
	fr.DateTo = core.CleanString(fr.DateTo)
	fr.Status = core.CleanString(fr.Status, true /* lower */)
	fr.Category = core.CleanString(fr.Category, true /* lower */)
	if err := validate.Struct(fr); err != nil {
		return planner.QueryFilter{}, err
	}

	var filter planner.QueryFilter
	if fr.DateFrom != "" {
		filter.DateFrom, _ = planner.ParseDate(fr.DateFrom)
	}
	if fr.DateTo != "" {
		filter.DateTo, _ = planner.ParseDate(fr.DateTo)
	}
	filter.ActivityID = fr.ActivityID
	if fr.Status != "" {
		filter.Statuses = []planner.Status{planner.Status(fr.Status)}
	}
	if fr.Category != "" {
		filter.Categories = []planner.Category{planner.Category(fr.Category)}
	}
	return filter, nil
}

func (sr *SlotsRequest) Validate(validate *validator.Validate) error {
	sr.Date = core.CleanString(sr.Date)
	return validate.Struct(sr)
}

func (cr *ConflictCheckRequest) Validate(validate *validator.Validate) error {
	cr.Date = core.CleanString(cr.Date)
	cr.StartTime = core.CleanString(cr.StartTime)
	cr.EndTime = core.CleanString(cr.EndTime)
	return validate.Struct(cr)
}

func bindDate(ctx echo.Context, param string) (time.Time, error) {
	val := core.CleanString(ctx.QueryParam(param))
	date, err := planner.ParseDate(val)
	if err != nil {
		return time.Time{}, core.NewValidationError(nil, core.FieldError{Field: param, Error: "invalid date; expected YYYY-MM-DD"})
	}
	return date, nil
}
