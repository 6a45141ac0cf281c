package user

import (
	"context"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

const accessLogTimeout = 5 * time.Second

// AccessLogger writes access log rows in the background.
// Failures are reported to the application logger and never reach the caller.
type AccessLogger struct {
	db     core.DB
	repo   Repository
	logger core.Logger
	wg     sync.WaitGroup
}

var _ core.ActionLogger = (*AccessLogger)(nil)

func NewAccessLogger(db core.DB, repo Repository, logger core.Logger) *AccessLogger {
	return &AccessLogger{db: db, repo: repo, logger: logger}
}

func (al *AccessLogger) LogAction(ctx context.Context, actor core.Actor, action, details string) {
	entry := AccessLog{
		ChurchID:  actor.ChurchID,
		UserID:    null.NewString(actor.UserID, actor.UserID != ""),
		Action:    action,
		Details:   details,
		IP:        actor.IP,
		CreatedAt: core.NowFunc(),
	}

	al.wg.Add(1)
	go func() {
		defer al.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), accessLogTimeout)
		defer cancel()

		if err := al.repo.CreateAccessLog(ctx, al.db, entry); err != nil {
			al.logger.Warn("writing access log", err, map[string]interface{}{"action": action, "user": actor.UserID})
		}
	}()
}

// Wait blocks until every pending write is done.
func (al *AccessLogger) Wait() {
	al.wg.Wait()
}

// Query returns the caller's church access log, newest first.
func (al *AccessLogger) Query(ctx context.Context, actor core.Actor, filter AccessLogFilter) ([]AccessLog, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	filter.Action = core.CleanString(filter.Action)
	return al.repo.QueryAccessLogs(ctx, al.db, actor.ChurchID, filter)
}
