package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/activity"
)

type activityApi struct {
	svc      *activity.Service
	validate *validator.Validate
}

func registerActivityAPI(g *echo.Group, svc *activity.Service, validate *validator.Validate) {
	api := activityApi{
		svc:      svc,
		validate: validate,
	}

	ag := g.Group("/activities")
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.DELETE("", api.destroyMultiple)

	dg := ag.Group("/:id")
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *activityApi) create(ctx echo.Context) error {
	var data activity.NewActivity
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewActivity")
	}
	data.OwnerID = contextOwner(ctx)
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	act, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating activity")
	}
	return ctx.JSON(http.StatusCreated, act)
}

func (api *activityApi) retrieve(ctx echo.Context) error {
	act, err := api.svc.Get(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, act)
}

func (api *activityApi) query(ctx echo.Context) error {
	var query ActivityFilterRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to ActivityFilterRequest")
	}
	filter, err := query.Filter()
	if err != nil {
		return err
	}

	acts, err := api.svc.Query(ctx.Request().Context(), contextOwner(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	if acts == nil {
		acts = []activity.Activity{}
	}
	return ctx.JSON(http.StatusOK, acts)
}

func (api *activityApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextOwner(ctx), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting activity")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *activityApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), contextOwner(ctx), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting activities")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Bindings

type ActivityFilterRequest struct {
	Type       string `query:"type"`
	EventsFrom string `query:"events_from"`
	EventsTo   string `query:"events_to"`
	DueFrom    string `query:"due_from"`
	DueTo      string `query:"due_to"`
}

func (fr *ActivityFilterRequest) Filter() (activity.QueryFilter, error) {
	var filter activity.QueryFilter
	if typ := core.CleanString(fr.Type, true /* lower */); typ != "" {
		filter.Types = []activity.Type{activity.Type(typ)}
	}

	for _, fld := range []struct {
		name string
		raw  string
		dst  *time.Time
	}{
		{"events_from", fr.EventsFrom, &filter.EventsFrom},
		{"events_to", fr.EventsTo, &filter.EventsTo},
		{"due_from", fr.DueFrom, &filter.DueFrom},
		{"due_to", fr.DueTo, &filter.DueTo},
	} {
		if raw := core.CleanString(fld.raw); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return activity.QueryFilter{}, core.NewValidationError(nil,
					core.FieldError{Field: fld.name, Error: "invalid timestamp; expected RFC3339"})
			}
			*fld.dst = t.UTC()
		}
	}
	return filter, nil
}
