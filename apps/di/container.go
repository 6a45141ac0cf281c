// Package di wires the application's dependencies with a dig container shared by the api and the worker.
package di

import (
	"context"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"
	"go.uber.org/zap"

	echoapi "github.com/trezcool/igreja/apps/api/echo"
	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/agenda"
	"github.com/trezcool/igreja/core/board"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/counseling"
	"github.com/trezcool/igreja/core/discipleship"
	"github.com/trezcool/igreja/core/event"
	"github.com/trezcool/igreja/core/finance"
	"github.com/trezcool/igreja/core/gallery"
	"github.com/trezcool/igreja/core/goal"
	"github.com/trezcool/igreja/core/messaging"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/notification"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/report"
	"github.com/trezcool/igreja/core/schedule"
	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/core/visitor"
	emailsvc "github.com/trezcool/igreja/services/email"
	logsvc "github.com/trezcool/igreja/services/logger"
	msgsvc "github.com/trezcool/igreja/services/messaging"
	"github.com/trezcool/igreja/services/metrics"
	"github.com/trezcool/igreja/storage/cache"
	"github.com/trezcool/igreja/storage/database"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
)

// DBLoggerParam carries the logger dedicated to database setup.
type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DepsParam collects the services exposed by the API.
type DepsParam struct {
	dig.In

	Churches      *church.Service
	Users         *user.Service
	AccessLog     *user.AccessLogger
	People        *person.Service
	Visitors      *visitor.Service
	Ministries    *ministry.Service
	Events        *event.Service
	Finance       *finance.Service
	Counseling    *counseling.Service
	Messaging     *messaging.Service
	Schedules     *schedule.Service
	Discipleship  *discipleship.Service
	Agenda        *agenda.Service
	Board         *board.Service
	Goals         *goal.Service
	Notifications *notification.Service
	Gallery       *gallery.Service
	Reports       *report.Service
}

func newLogger(conf *core.Config) (core.Logger, *zap.Logger, error) {
	zl, err := logsvc.NewZapLogger(conf)
	if err != nil {
		return nil, nil, errors.Wrap(err, "building zap logger")
	}
	return logsvc.NewRollbarLogger(zl.Named("app"), conf), zl, nil
}

func newDBLogger(conf *core.Config, zl *zap.Logger) core.Logger {
	return logsvc.NewRollbarLogger(zl.Named("db"), conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, nil, err
	}
	if err = database.Migrate(context.Background(), db); err != nil {
		loggerParam.Logger.Error("applying migrations", err)
		_ = db.Close()
		return nil, nil, err
	}
	return db, db, nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func newCipher(conf *core.Config) *core.Cipher {
	return core.NewCipher(conf.EncryptionKey)
}

func newActionLogger(l *user.AccessLogger) core.ActionLogger {
	return l
}

func newChurchesParam(svc *church.Service) user.Churches {
	return svc
}

func newLimitsParam(svc *church.Service) person.Limits {
	return svc
}

func newDeps(p DepsParam) echoapi.Deps {
	return echoapi.Deps{
		Churches:      p.Churches,
		Users:         p.Users,
		AccessLog:     p.AccessLog,
		People:        p.People,
		Visitors:      p.Visitors,
		Ministries:    p.Ministries,
		Events:        p.Events,
		Finance:       p.Finance,
		Counseling:    p.Counseling,
		Messaging:     p.Messaging,
		Schedules:     p.Schedules,
		Discipleship:  p.Discipleship,
		Agenda:        p.Agenda,
		Board:         p.Board,
		Goals:         p.Goals,
		Notifications: p.Notifications,
		Gallery:       p.Gallery,
		Reports:       p.Reports,
	}
}

// New returns a new dependency injection dig.Container.
// Constructors run lazily, so the worker only builds what its jobs need.
func New() *dig.Container {
	c := dig.New()

	// ambient
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newEmailService))
	must(c.Provide(cache.New))
	must(c.Provide(newRegistry))
	must(c.Provide(metrics.New))
	must(c.Provide(newCipher))
	must(c.Provide(msgsvc.NewSenders))

	// repositories
	must(c.Provide(sqlxrepos.NewChurchRepository))
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewPersonRepository))
	must(c.Provide(sqlxrepos.NewVisitorRepository))
	must(c.Provide(sqlxrepos.NewMinistryRepository))
	must(c.Provide(sqlxrepos.NewEventRepository))
	must(c.Provide(sqlxrepos.NewFinanceRepository))
	must(c.Provide(sqlxrepos.NewCounselingRepository))
	must(c.Provide(sqlxrepos.NewMessagingRepository))
	must(c.Provide(sqlxrepos.NewScheduleRepository))
	must(c.Provide(sqlxrepos.NewDiscipleshipRepository))
	must(c.Provide(sqlxrepos.NewAgendaRepository))
	must(c.Provide(sqlxrepos.NewBoardRepository))
	must(c.Provide(sqlxrepos.NewGoalRepository))
	must(c.Provide(sqlxrepos.NewNotificationRepository))
	must(c.Provide(sqlxrepos.NewGalleryRepository))
	must(c.Provide(sqlxrepos.NewReportRepository))

	// services
	must(c.Provide(user.NewAccessLogger))
	must(c.Provide(newActionLogger))
	must(c.Provide(church.NewService))
	must(c.Provide(newChurchesParam))
	must(c.Provide(newLimitsParam))
	must(c.Provide(user.NewService))
	must(c.Provide(person.NewService))
	must(c.Provide(visitor.NewService))
	must(c.Provide(ministry.NewService))
	must(c.Provide(event.NewService))
	must(c.Provide(finance.NewService))
	must(c.Provide(counseling.NewService))
	must(c.Provide(messaging.NewService))
	must(c.Provide(schedule.NewService))
	must(c.Provide(discipleship.NewService))
	must(c.Provide(agenda.NewService))
	must(c.Provide(board.NewService))
	must(c.Provide(goal.NewService))
	must(c.Provide(notification.NewService))
	must(c.Provide(gallery.NewService))
	must(c.Provide(report.NewService))

	// api
	must(c.Provide(echoapi.NewAuth))
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
