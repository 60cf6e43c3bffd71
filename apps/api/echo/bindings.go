package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/score"
)

var (
	orderingParam = "ordering"
	fechaParam    = "fecha"
	fromParam     = "from"
	toParam       = "to"
	daysParam     = "days"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

func parseDateParam(value, param string) (time.Time, error) {
	date, err := time.ParseInLocation(score.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, core.NewValidationError(errors.New("invalid date"),
			core.FieldError{Field: param, Error: "invalid date, expected " + score.DateLayout})
	}
	return date, nil
}

// bindFecha binds the required `fecha` query param.
func bindFecha(ctx echo.Context) (time.Time, error) {
	val := ctx.QueryParam(fechaParam)
	if val == "" {
		return time.Time{}, core.NewValidationError(errors.New("missing date"),
			core.FieldError{Field: fechaParam, Error: "this field is required"})
	}
	return parseDateParam(val, fechaParam)
}

// DateWindow binds the optional `from`/`to` query params; when absent, the
// current week (Monday through today) is used.
type DateWindow struct {
	From time.Time
	To   time.Time
}

func (w *DateWindow) Bind(ctx echo.Context, now time.Time) error {
	w.From, w.To = score.CurrentWeek(now)

	if val := ctx.QueryParam(fromParam); val != "" {
		date, err := parseDateParam(val, fromParam)
		if err != nil {
			return err
		}
		w.From = date
	}
	if val := ctx.QueryParam(toParam); val != "" {
		date, err := parseDateParam(val, toParam)
		if err != nil {
			return err
		}
		w.To = date
	}
	return nil
}

// bindDays binds the optional `days` query param; 0 means "use the default".
func bindDays(ctx echo.Context) (int, error) {
	val := ctx.QueryParam(daysParam)
	if val == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(val)
	if err != nil || days < 0 {
		return 0, core.NewValidationError(errors.New("invalid days"),
			core.FieldError{Field: daysParam, Error: "must be a positive number"})
	}
	return days, nil
}
