package echoapi

import (
	"github.com/labstack/echo/v4"
)

// ownerHeader identifies the acting student. The gateway in front of the API
// authenticates the session and forwards the student ID here.
const ownerHeader = "X-User-ID"

const ownerContextKey = "owner"

func ownerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			owner := ctx.Request().Header.Get(ownerHeader)
			if owner == "" {
				return errOwnerRequired
			}
			ctx.Set(ownerContextKey, owner)
			return next(ctx)
		}
	}
}

func contextOwner(ctx echo.Context) string {
	owner, _ := ctx.Get(ownerContextKey).(string)
	return owner
}
