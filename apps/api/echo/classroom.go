package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core/classroom"
)

type classroomApi struct {
	svc *classroom.Service
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := classroomApi{svc: deps.ClassroomSvc}

	cg := g.Group("/classrooms", jwt)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
}

// Handlers

func (api *classroomApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	rooms, err := api.svc.Query(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if rooms == nil {
		rooms = []classroom.Classroom{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *classroomApi) retrieve(ctx echo.Context) error {
	room, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding classroom by ID")
	}
	return ctx.JSON(http.StatusOK, room)
}
