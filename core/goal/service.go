package goal

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
)

const dueSoonDays = 30

var (
	ErrNotFound      = core.NewNotFoundError("goal")
	ErrOwnerNotFound = core.NewNotFoundError("owner")
)

type (
	Repository interface {
		UserExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)

		// QueryGoals lists goals ordered by end date.
		QueryGoals(ctx context.Context, db core.DBExecutor, churchID string, filter Filter) ([]GoalListItem, error)
		GetGoal(ctx context.Context, db core.DBExecutor, churchID, id string) (GoalListItem, error)
		CreateGoal(ctx context.Context, db core.DBExecutor, g Goal) (Goal, error)
		UpdateGoal(ctx context.Context, db core.DBExecutor, g Goal) (Goal, error)
		DeleteGoal(ctx context.Context, db core.DBExecutor, churchID, id string) error

		// ExpireGoals marks the goals still in progress after their end date as missed.
		ExpireGoals(ctx context.Context, db core.DBExecutor, churchID string, today time.Time) (int, error)

		QueryUpdates(ctx context.Context, db core.DBExecutor, goalID string) ([]UpdateListItem, error)
		CreateUpdate(ctx context.Context, db core.DBExecutor, u Update) (Update, error)
	}

	Service struct {
		db    core.DB
		repo  Repository
		audit core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, audit: audit}
}

func withProgress(items []GoalListItem) []GoalListItem {
	for i := range items {
		items[i].Progress = items[i].Goal.Progress()
	}
	return items
}

func (svc *Service) Query(ctx context.Context, actor core.Actor, filter Filter) ([]GoalListItem, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	goals, err := svc.repo.QueryGoals(ctx, svc.db, actor.ChurchID, filter)
	if err != nil {
		return nil, err
	}
	return withProgress(goals), nil
}

func (svc *Service) Get(ctx context.Context, actor core.Actor, id string) (GoalListItem, error) {
	g, err := svc.repo.GetGoal(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return GoalListItem{}, err
	}
	g.Progress = g.Goal.Progress()
	return g, nil
}

func (svc *Service) checkOwner(ctx context.Context, actor core.Actor, in GoalInput) error {
	if in.OwnerID == "" {
		return nil
	}
	ok, err := svc.repo.UserExists(ctx, svc.db, actor.ChurchID, in.OwnerID)
	if err != nil {
		return errors.Wrap(err, "checking owner")
	}
	if !ok {
		return core.NewValidationError(ErrOwnerNotFound, core.FieldError{Field: "owner_id", Error: "responsável não encontrado"})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, actor core.Actor, in GoalInput) (Goal, error) {
	if err := in.Validate(); err != nil {
		return Goal{}, err
	}
	if err := svc.checkOwner(ctx, actor, in); err != nil {
		return Goal{}, err
	}

	now := core.NowFunc()
	g := Goal{ChurchID: actor.ChurchID, CurrentValue: in.CurrentValue, CreatedAt: now, UpdatedAt: now}
	in.apply(&g)
	if g.Status == StatusInProgress && g.CurrentValue >= g.TargetValue {
		g.Status = StatusReached
	}

	g, err := svc.repo.CreateGoal(ctx, svc.db, g)
	if err != nil {
		return Goal{}, err
	}
	svc.audit.LogAction(ctx, actor, "meta.criar", "Meta criada: "+g.Title)
	return g, nil
}

// Update edits a goal. The current value only changes through UpdateProgress.
func (svc *Service) Update(ctx context.Context, actor core.Actor, id string, in GoalInput) (Goal, error) {
	if err := in.Validate(); err != nil {
		return Goal{}, err
	}
	item, err := svc.repo.GetGoal(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Goal{}, err
	}
	if err = svc.checkOwner(ctx, actor, in); err != nil {
		return Goal{}, err
	}
	g := item.Goal
	in.apply(&g)
	g.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateGoal(ctx, svc.db, g)
}

func (svc *Service) Delete(ctx context.Context, actor core.Actor, id string) error {
	g, err := svc.repo.GetGoal(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteGoal(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	svc.audit.LogAction(ctx, actor, "meta.excluir", "Meta excluída: "+g.Title)
	return nil
}

// UpdateProgress sets the current value of a goal and records it in its history.
// A goal in progress is reached once its current value hits the target.
func (svc *Service) UpdateProgress(ctx context.Context, actor core.Actor, id string, in ProgressInput) (Goal, error) {
	if err := in.Validate(); err != nil {
		return Goal{}, err
	}

	var g Goal
	err := core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		item, err := svc.repo.GetGoal(ctx, tx, actor.ChurchID, id)
		if err != nil {
			return err
		}
		g = item.Goal
		now := core.NowFunc()

		_, err = svc.repo.CreateUpdate(ctx, tx, Update{
			GoalID:        g.ID,
			PreviousValue: g.CurrentValue,
			NewValue:      in.Value,
			Note:          in.Note,
			UserID:        core.NullString(actor.UserID),
			CreatedAt:     now,
		})
		if err != nil {
			return err
		}

		g.CurrentValue = in.Value
		g.UpdatedAt = now
		if g.Status == StatusInProgress && g.CurrentValue >= g.TargetValue {
			g.Status = StatusReached
		}
		g, err = svc.repo.UpdateGoal(ctx, tx, g)
		return err
	})
	if err != nil {
		return Goal{}, err
	}
	svc.audit.LogAction(ctx, actor, "meta.atualizar", fmt.Sprintf("Meta %s: %g", g.Title, g.CurrentValue))
	return g, nil
}

func (svc *Service) History(ctx context.Context, actor core.Actor, id string) ([]UpdateListItem, error) {
	if _, err := svc.repo.GetGoal(ctx, svc.db, actor.ChurchID, id); err != nil {
		return nil, err
	}
	return svc.repo.QueryUpdates(ctx, svc.db, id)
}

// Stats counts goals per status. DueSoon and AverageProgress only consider goals in progress.
func (svc *Service) Stats(ctx context.Context, actor core.Actor) (Stats, error) {
	goals, err := svc.repo.QueryGoals(ctx, svc.db, actor.ChurchID, Filter{})
	if err != nil {
		return Stats{}, err
	}

	today := core.Today(core.NowFunc())
	limit := today.AddDate(0, 0, dueSoonDays)
	var (
		stats    Stats
		progress float64
	)
	for _, g := range goals {
		stats.Total++
		switch g.Status {
		case StatusReached:
			stats.Reached++
		case StatusMissed:
			stats.Missed++
		case StatusInProgress:
			stats.InProgress++
			progress += g.Goal.Progress()
			if !g.EndDate.Before(today) && !g.EndDate.After(limit) {
				stats.DueSoon++
			}
		}
	}
	if stats.InProgress > 0 {
		stats.AverageProgress = progress / float64(stats.InProgress)
	}
	return stats, nil
}

// ExpireOverdue marks the church's goals still in progress after their end date as missed.
func (svc *Service) ExpireOverdue(ctx context.Context, churchID string) (int, error) {
	return svc.repo.ExpireGoals(ctx, svc.db, churchID, core.Today(core.NowFunc()))
}
