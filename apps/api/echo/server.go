package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/classroom"
	"github.com/jvaldes/premios/core/score"
	"github.com/jvaldes/premios/core/student"
	"github.com/jvaldes/premios/core/user"
)

type (
	// ServerDeps carries everything the API server needs; built once in main.
	ServerDeps struct {
		Conf         *core.Config
		Logger       core.Logger
		UserSvc      *user.Service
		StudentSvc   *student.Service
		ClassroomSvc *classroom.Service
		ScoreSvc     *score.Service
		Validate     *validator.Validate
		Translator   ut.Translator

		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	initJWTConfig(deps.Conf)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps)
	registerStudentAPI(v1, jwt, s.deps)
	registerClassroomAPI(v1, jwt, s.deps)
	registerScoreAPI(v1, jwt, s.deps)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

// Errors surfaces fatal server errors to main.
func (s *Server) Errors() <-chan error { return s.errors }

// ShutdownSignal surfaces OS signals (and internal shutdown requests) to main.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() { s.shutdown <- syscall.SIGTERM }

func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

// ServeHTTP lets httptest drive the Server directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.app.ServeHTTP(w, r) }

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Premios API!")
}
