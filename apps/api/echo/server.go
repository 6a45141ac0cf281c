package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
	"github.com/trezcool/igreja/services/metrics"
)

// Deps holds the services exposed by the API.
type Deps struct {
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

type Server struct {
	conf     *core.Config
	logger   core.Logger
	auth     *Auth
	metrics  *metrics.Metrics
	deps     Deps
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(conf *core.Config, logger core.Logger, auth *Auth, m *metrics.Metrics, deps Deps) *Server {
	s := &Server{
		conf:     conf,
		logger:   logger,
		auth:     auth,
		metrics:  m,
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metricsMiddleware(s.metrics))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.signalShutdown)
	s.app.Debug = s.conf.Debug

	s.app.GET("/", s.home)
	s.app.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	v1 := s.app.Group("/v1")
	jwt := s.auth.Middleware()
	limiter := NewRateLimiter(s.conf.Server.LoginRatePerMinute, s.metrics)

	registerAuthAPI(v1, jwt, limiter.Middleware(), s.auth, s.metrics, s.deps)
	registerUserAPI(v1, jwt, s.deps)
	registerPersonAPI(v1, jwt, s.deps)
	registerVisitorAPI(v1, jwt, s.deps)
	registerMinistryAPI(v1, jwt, s.deps)
	registerScheduleAPI(v1, jwt, s.deps)
	registerEventAPI(v1, jwt, s.deps)
	registerAgendaAPI(v1, jwt, s.deps)
	registerGalleryAPI(v1, jwt, s.deps)
	registerMessagingAPI(v1, jwt, s.metrics, s.deps)
	registerBoardAPI(v1, jwt, s.deps)
	registerFinanceAPI(v1, jwt, s.deps)
	registerCounselingAPI(v1, jwt, s.deps)
	registerDiscipleshipAPI(v1, jwt, s.deps)
	registerGoalAPI(v1, jwt, s.deps)
	registerReportAPI(v1, jwt, s.deps)
	registerNotificationAPI(v1, jwt, s.deps)
}

// Start listens on the configured address. Errors other than a normal shutdown are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal is notified on SIGINT, SIGTERM, and on shutdown errors raised by handlers.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Bem-vindo à API "+s.conf.AppName+"!")
}
