package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core/student"
)

var errStdNotFoundInCtx = errors.New("student object not found in echo.Context")

type studentApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := studentApi{
		svc:      deps.StudentSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/students", jwt)
	sg.POST("", api.register)
	sg.GET("", api.query)

	// detail endpoints
	dg := sg.Group("/:id", ctxStudentMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.PUT("/reassign", api.reassign, adminMiddleware())
	dg.DELETE("", api.deactivate, adminMiddleware())
}

// Handlers

// register creates a student; the classroom is derived from the age.
func (api *studentApi) register(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	std, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(std, api.validate); err != nil {
		return err
	}

	std, err := api.svc.Update(ctx.Request().Context(), std, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

// reassign sets (or clears, with an empty id) the forced classroom override.
func (api *studentApi) reassign(ctx echo.Context) error {
	std, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	var data student.Reassignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Reassignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.Reassign(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "reassigning student")
	}
	return ctx.JSON(http.StatusOK, std)
}

// deactivate flags a student inactive; score history is kept.
func (api *studentApi) deactivate(ctx echo.Context) error {
	std, ok := ctx.Get("object").(student.Student)
	if !ok {
		return errors.Wrap(errStdNotFoundInCtx, "retrieving object from context")
	}

	if _, err := api.svc.Deactivate(ctx.Request().Context(), std.ID); err != nil {
		return errors.Wrap(err, "deactivating student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func ctxStudentMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			std, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set("object", std)
			return next(ctx)
		}
	}
}
