package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/jvaldes/premios/core"
	"github.com/jvaldes/premios/core/classroom"
	"github.com/jvaldes/premios/core/user"
	appfs "github.com/jvaldes/premios/fs"
	emailsvc "github.com/jvaldes/premios/services/email"
	"github.com/jvaldes/premios/storage/database"
	sqlxrepos "github.com/jvaldes/premios/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())
	sqlxDB := sqlx.NewDb(db, conf.Database.Engine)

	goose.SetBaseFS(appfs.FS)

	// start CLI
	cli := commandLine{
		db:      db,
		usrSvc:  user.NewService(sqlxrepos.NewUserRepository(sqlxDB), emailsvc.NewConsoleService(conf), conf),
		roomSvc: classroom.NewService(sqlxrepos.NewClassroomRepository(sqlxDB)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
