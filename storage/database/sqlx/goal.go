package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/goal"
)

const goalListQuery = `SELECT g.id, g.church_id, g.title, g.description, g.category, g.metric_type, g.target_value,
		g.current_value, g.start_date, g.end_date, g.status, g.owner_id, g.created_at, g.updated_at,
		u.name AS owner_name
	FROM goals g LEFT JOIN users u ON u.id = g.owner_id
	WHERE g.church_id = ?`

type goalRepository struct{}

var _ goal.Repository = (*goalRepository)(nil)

func NewGoalRepository() goal.Repository {
	return &goalRepository{}
}

func (repo *goalRepository) UserExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error) {
	n, err := count(ctx, db, "SELECT COUNT(*) FROM users WHERE church_id = ? AND id = ? AND is_active = TRUE", churchID, id)
	return n > 0, err
}

func (repo *goalRepository) QueryGoals(ctx context.Context, db core.DBExecutor, churchID string, filter goal.Filter) ([]goal.GoalListItem, error) {
	query := goalListQuery
	args := []interface{}{churchID}
	if filter.Status != "" {
		query += " AND g.status = ?"
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += " AND g.category = ?"
		args = append(args, filter.Category)
	}
	query += " ORDER BY g.end_date, g.title"

	goals := make([]goal.GoalListItem, 0)
	if err := selectAll(ctx, db, &goals, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying goals")
	}
	return goals, nil
}

func (repo *goalRepository) GetGoal(ctx context.Context, db core.DBExecutor, churchID, id string) (goal.GoalListItem, error) {
	var g goal.GoalListItem
	if err := get(ctx, db, &g, goal.ErrNotFound, goalListQuery+" AND g.id = ?", churchID, id); err != nil {
		return goal.GoalListItem{}, err
	}
	return g, nil
}

func (repo *goalRepository) CreateGoal(ctx context.Context, db core.DBExecutor, g goal.Goal) (goal.Goal, error) {
	g.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO goals
		(id, church_id, title, description, category, metric_type, target_value, current_value, start_date, end_date,
			status, owner_id, created_at, updated_at)
		VALUES (:id, :church_id, :title, :description, :category, :metric_type, :target_value, :current_value,
			:start_date, :end_date, :status, :owner_id, :created_at, :updated_at)`, g)
	if err != nil {
		return goal.Goal{}, errors.Wrap(err, "inserting goal")
	}
	return g, nil
}

func (repo *goalRepository) UpdateGoal(ctx context.Context, db core.DBExecutor, g goal.Goal) (goal.Goal, error) {
	_, err := namedExec(ctx, db, `UPDATE goals SET
		title = :title, description = :description, category = :category, metric_type = :metric_type,
		target_value = :target_value, current_value = :current_value, start_date = :start_date, end_date = :end_date,
		status = :status, owner_id = :owner_id, updated_at = :updated_at
		WHERE id = :id AND church_id = :church_id`, g)
	if err != nil {
		return goal.Goal{}, errors.Wrap(err, "updating goal")
	}
	return g, nil
}

func (repo *goalRepository) DeleteGoal(ctx context.Context, db core.DBExecutor, churchID, id string) error {
	if _, err := exec(ctx, db, "DELETE FROM goal_updates WHERE goal_id = ?", id); err != nil {
		return errors.Wrap(err, "deleting goal history")
	}
	return execOne(ctx, db, goal.ErrNotFound, "DELETE FROM goals WHERE church_id = ? AND id = ?", churchID, id)
}

func (repo *goalRepository) ExpireGoals(ctx context.Context, db core.DBExecutor, churchID string, today time.Time) (int, error) {
	res, err := exec(ctx, db, "UPDATE goals SET status = ?, updated_at = ? WHERE church_id = ? AND status = ? AND end_date < ?",
		goal.StatusMissed, core.NowFunc(), churchID, goal.StatusInProgress, today)
	if err != nil {
		return 0, errors.Wrap(err, "expiring goals")
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (repo *goalRepository) QueryUpdates(ctx context.Context, db core.DBExecutor, goalID string) ([]goal.UpdateListItem, error) {
	updates := make([]goal.UpdateListItem, 0)
	err := selectAll(ctx, db, &updates, `SELECT gu.id, gu.goal_id, gu.previous_value, gu.new_value, gu.note, gu.user_id,
			gu.created_at, u.name AS user_name
		FROM goal_updates gu LEFT JOIN users u ON u.id = gu.user_id
		WHERE gu.goal_id = ? ORDER BY gu.created_at DESC`, goalID)
	if err != nil {
		return nil, errors.Wrap(err, "querying goal history")
	}
	return updates, nil
}

func (repo *goalRepository) CreateUpdate(ctx context.Context, db core.DBExecutor, u goal.Update) (goal.Update, error) {
	u.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO goal_updates (id, goal_id, previous_value, new_value, note, user_id, created_at)
		VALUES (:id, :goal_id, :previous_value, :new_value, :note, :user_id, :created_at)`, u)
	if err != nil {
		return goal.Update{}, errors.Wrap(err, "inserting goal update")
	}
	return u, nil
}
