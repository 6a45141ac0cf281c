package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/trezcool/igreja/apps/di"
	"github.com/trezcool/igreja/core"
)

type startParams struct {
	dig.In

	Conf   *core.Config
	Logger core.Logger
	Zap    *zap.Logger
	DB     *sqlx.DB
	Jobs   *jobs
}

func main() {
	c := di.New()
	if err := c.Provide(newJobs); err != nil {
		log.Fatalf("providing jobs: %v", err)
	}
	if err := c.Invoke(start); err != nil {
		log.Fatalf("starting worker: %v", err)
	}
}

func start(p startParams) error {
	logger := p.Logger
	logger.Info(fmt.Sprintf("Worker initializing : version %q", p.Conf.Build))
	core.ParseEmailTemplates(p.Conf, logger)

	defer func() { _ = p.Zap.Sync() }()
	defer func() { _ = p.DB.Close() }()
	defer logger.Info("Worker stopped")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newScheduler(ctx, p.Jobs, p.Zap)
	if err != nil {
		return err
	}
	c.Start()
	logger.Info("Worker started")

	<-ctx.Done()
	logger.Info("Worker shutting down")
	<-c.Stop().Done() // waits for running jobs
	return nil
}

// newScheduler returns a cron scheduler running the jobs in UTC, one run at a time per job.
func newScheduler(ctx context.Context, j *jobs, zl *zap.Logger) (*cron.Cron, error) {
	cl := cronLogger{zl.Named("cron").Sugar()}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if err := j.register(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
