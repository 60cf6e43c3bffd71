package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func roleMiddleware(allowed func(Claims) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if allowed(claims) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// teacherMiddleware grants teachers (and admins); teachers score students.
func teacherMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(func(c Claims) bool { return c.IsTeacher || c.IsAdmin })
}

// judgeMiddleware grants judges (and admins); judges score classrooms.
func judgeMiddleware() echo.MiddlewareFunc {
	return roleMiddleware(func(c Claims) bool { return c.IsJudge || c.IsAdmin })
}
