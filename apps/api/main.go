package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/jvaldes/premios/apps/api/echo"
	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/classroom"
	"github.com/jvaldes/premios/core/score"
	"github.com/jvaldes/premios/core/student"
	"github.com/jvaldes/premios/core/user"
	appfs "github.com/jvaldes/premios/fs"
	emailsvc "github.com/jvaldes/premios/services/email"
	logsvc "github.com/jvaldes/premios/services/logger"
	"github.com/jvaldes/premios/storage/database"
	sqlxrepos "github.com/jvaldes/premios/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	sqlxDB := sqlx.NewDb(db, conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(sqlxDB), mailSvc, conf)
	roomSvc := classroom.NewService(sqlxrepos.NewClassroomRepository(sqlxDB))
	stdSvc := student.NewService(sqlxrepos.NewStudentRepository(sqlxDB), roomSvc)
	scoreSvc := score.NewService(sqlxrepos.NewScoreRepository(sqlxDB), stdSvc, roomSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, logger)

	// =========================================================================
	// Watch Score Changes
	//
	// Rankings are cached; any write to a score table (from this process or
	// another) flushes them so the next report is fresh.

	listener, err := database.NewChangeListener(conf, dbLogger,
		database.ChannelIndividualScores, database.ChannelGroupScores)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up change listener: %v", err), err)
	}
	defer func() { _ = listener.Close() }()

	go func() {
		for table := range listener.Notifications() {
			dbLogger.Debug(fmt.Sprintf("change on %s: flushing report cache", table))
			scoreSvc.FlushReports()
		}
	}()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugAddress(), http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			StudentSvc:   stdSvc,
			ClassroomSvc: roomSvc,
			ScoreSvc:     scoreSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
