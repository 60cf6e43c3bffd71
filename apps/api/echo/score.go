package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core/score"
)

type scoreApi struct {
	svc      *score.Service
	validate *validator.Validate
	nowFunc  func() time.Time
}

func registerScoreAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scoreApi{
		svc:      deps.ScoreSvc,
		validate: deps.Validate,
		nowFunc:  time.Now,
	}

	sg := g.Group("/scores", jwt)
	sg.PUT("/individual", api.upsertIndividual, teacherMiddleware())
	sg.PUT("/group", api.upsertGroup, judgeMiddleware())
	sg.GET("/individual", api.queryIndividual)
	sg.GET("/group", api.queryGroup)
	sg.GET("/individual/evaluated", api.evaluated)

	rg := g.Group("/reports", jwt)
	rg.GET("/students", api.studentReport)
	rg.GET("/classrooms", api.classroomReport)
	rg.GET("/guests", api.guestReport)
}

// Handlers

// upsertIndividual records a daily student evaluation. Re-submitting the same
// (student, fecha) overwrites the previous row.
func (api *scoreApi) upsertIndividual(ctx echo.Context) error {
	var data score.NewIndividualScore
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewIndividualScore")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	s, err := api.svc.UpsertIndividual(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "upserting individual score")
	}
	return ctx.JSON(http.StatusOK, s)
}

// upsertGroup records a daily classroom evaluation.
func (api *scoreApi) upsertGroup(ctx echo.Context) error {
	var data score.NewGroupScore
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroupScore")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	s, err := api.svc.UpsertGroup(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "upserting group score")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *scoreApi) queryIndividual(ctx echo.Context) error {
	window := new(DateWindow)
	if err := window.Bind(ctx, api.nowFunc()); err != nil {
		return err
	}
	filter := score.QueryFilter{
		From:      window.From,
		To:        window.To,
		StudentID: ctx.QueryParam("student_id"),
	}

	scores, err := api.svc.QueryIndividual(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying individual scores")
	}
	if scores == nil {
		scores = []score.IndividualScore{}
	}
	return ctx.JSON(http.StatusOK, scores)
}

func (api *scoreApi) queryGroup(ctx echo.Context) error {
	window := new(DateWindow)
	if err := window.Bind(ctx, api.nowFunc()); err != nil {
		return err
	}
	filter := score.QueryFilter{
		From:        window.From,
		To:          window.To,
		ClassroomID: ctx.QueryParam("classroom_id"),
	}

	scores, err := api.svc.QueryGroup(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying group scores")
	}
	if scores == nil {
		scores = []score.GroupScore{}
	}
	return ctx.JSON(http.StatusOK, scores)
}

// evaluated lists the (student, fecha) pairs already scored on the given day,
// so a scoring UI can mark who is done.
func (api *scoreApi) evaluated(ctx echo.Context) error {
	date, err := bindFecha(ctx)
	if err != nil {
		return err
	}

	evals, err := api.svc.EvaluatedOn(ctx.Request().Context(), date)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	if evals == nil {
		evals = []score.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *scoreApi) studentReport(ctx echo.Context) error {
	window := new(DateWindow)
	if err := window.Bind(ctx, api.nowFunc()); err != nil {
		return err
	}

	report, err := api.svc.StudentRankings(ctx.Request().Context(), window.From, window.To)
	if err != nil {
		return errors.Wrap(err, "computing student rankings")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *scoreApi) classroomReport(ctx echo.Context) error {
	window := new(DateWindow)
	if err := window.Bind(ctx, api.nowFunc()); err != nil {
		return err
	}

	report, err := api.svc.ClassroomRankings(ctx.Request().Context(), window.From, window.To)
	if err != nil {
		return errors.Wrap(err, "computing classroom rankings")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *scoreApi) guestReport(ctx echo.Context) error {
	days, err := bindDays(ctx)
	if err != nil {
		return err
	}

	report, err := api.svc.GuestRankings(ctx.Request().Context(), days)
	if err != nil {
		return errors.Wrap(err, "computing guest rankings")
	}
	return ctx.JSON(http.StatusOK, report)
}
