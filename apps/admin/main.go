package main

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/event"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	emailsvc "github.com/trezcool/igreja/services/email"
	logsvc "github.com/trezcool/igreja/services/logger"
	"github.com/trezcool/igreja/storage/database"
	"github.com/trezcool/igreja/storage/database/seed"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		log.Fatalf("building logger: %v", err)
	}
	zl = zl.Named("admin")
	defer func() { _ = zl.Sync() }()
	logger := logsvc.NewRollbarLogger(zl, conf)

	// set up DB
	errAndDie(zl, database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(zl, err)
	defer func() { _ = db.Close() }()

	// services
	userRepo := sqlxrepos.NewUserRepository()
	audit := user.NewAccessLogger(db, userRepo, logger)
	defer audit.Wait()
	churchSvc := church.NewService(db, sqlxrepos.NewChurchRepository(), audit)
	userSvc := user.NewService(conf, db, userRepo, churchSvc, emailsvc.NewConsoleService(conf, logger), logger, audit)

	// start CLI
	cli := commandLine{
		db:       db,
		churches: churchSvc,
		users:    userSvc,
		seeder: seed.Seeder{
			Churches:   churchSvc,
			Users:      userSvc,
			People:     person.NewService(db, sqlxrepos.NewPersonRepository(), churchSvc, audit),
			Ministries: ministry.NewService(db, sqlxrepos.NewMinistryRepository(), audit),
			Events:     event.NewService(db, sqlxrepos.NewEventRepository(), audit),
		},
		out: os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
			zl.Debug("command failed", zap.Error(err))
		}
		audit.Wait()
		os.Exit(1)
	}
}

func errAndDie(zl *zap.Logger, err error) {
	if err != nil {
		zl.Fatal("admin setup failed", zap.Error(err))
	}
}
