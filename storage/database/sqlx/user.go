package sqlxrepos

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/user"
)

const userColumns = "id, church_id, person_id, name, email, profile, is_active, password_hash, last_access, created_at, updated_at"

var userOrderings = map[string]string{
	"name":        "name",
	"email":       "email",
	"profile":     "profile",
	"last_access": "last_access",
	"created_at":  "created_at",
}

type userRepository struct{}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository() user.Repository {
	return &userRepository{}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, db core.DBExecutor, email string, excludedIDs ...string) error {
	q := "SELECT COUNT(*) FROM users WHERE email = ?"
	args := []interface{}{email}
	if len(excludedIDs) > 0 {
		q += " AND id NOT IN (?" + strings.Repeat(", ?", len(excludedIDs)-1) + ")"
		for _, id := range excludedIDs {
			args = append(args, id)
		}
	}
	n, err := count(ctx, db, q, args...)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, db core.DBExecutor, usr user.User) (user.User, error) {
	usr.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO users (`+userColumns+`) VALUES (:id, :church_id, :person_id, :name, :email,
		:profile, :is_active, :password_hash, :last_access, :created_at, :updated_at)`, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, db core.DBExecutor, id string) (user.User, error) {
	var usr user.User
	err := get(ctx, db, &usr, user.ErrNotFound, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return usr, err
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, db core.DBExecutor, email string) (user.User, error) {
	var usr user.User
	err := get(ctx, db, &usr, user.ErrNotFound, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return usr, err
}

func (repo *userRepository) QueryUsers(
	ctx context.Context,
	db core.DBExecutor,
	churchID string,
	filter user.QueryFilter,
	orderings []core.DBOrdering,
) ([]user.User, error) {
	q := "SELECT " + userColumns + " FROM users WHERE church_id = ?"
	args := []interface{}{churchID}
	if filter.Search != "" {
		q += " AND (LOWER(name) LIKE ? OR LOWER(email) LIKE ?)"
		pattern := likePattern(filter.Search)
		args = append(args, pattern, pattern)
	}
	if filter.Profile != "" {
		q += " AND profile = ?"
		args = append(args, filter.Profile)
	}
	if filter.IsActive != nil {
		q += " AND is_active = ?"
		args = append(args, *filter.IsActive)
	}
	q += core.OrderBy(orderings, userOrderings, "name ASC")

	users := make([]user.User, 0)
	err := selectAll(ctx, db, &users, q, args...)
	return users, errors.Wrap(err, "querying users")
}

func (repo *userRepository) QueryUsersByProfile(ctx context.Context, db core.DBExecutor, churchID string, profiles ...string) ([]user.User, error) {
	users := make([]user.User, 0)
	if len(profiles) == 0 {
		return users, nil
	}
	err := selectIn(ctx, db, &users, "SELECT "+userColumns+` FROM users
		WHERE church_id = ? AND is_active = TRUE AND profile IN (?) ORDER BY name`, churchID, profiles)
	return users, errors.Wrap(err, "querying users by profile")
}

func (repo *userRepository) UpdateUser(ctx context.Context, db core.DBExecutor, usr user.User) (user.User, error) {
	_, err := namedExec(ctx, db, `UPDATE users SET person_id = :person_id, name = :name, email = :email, profile = :profile,
		is_active = :is_active, password_hash = :password_hash, updated_at = :updated_at WHERE id = :id`, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return usr, nil
}

func (repo *userRepository) SetLastAccess(ctx context.Context, db core.DBExecutor, id string) error {
	return execOne(ctx, db, user.ErrNotFound, "UPDATE users SET last_access = ? WHERE id = ?", core.NowFunc(), id)
}

func (repo *userRepository) CreateAccessLog(ctx context.Context, db core.DBExecutor, log user.AccessLog) error {
	log.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO access_logs (id, church_id, user_id, action, details, ip, created_at)
		VALUES (:id, :church_id, :user_id, :action, :details, :ip, :created_at)`, log)
	return errors.Wrap(err, "inserting access log")
}

func (repo *userRepository) QueryAccessLogs(ctx context.Context, db core.DBExecutor, churchID string, filter user.AccessLogFilter) ([]user.AccessLog, error) {
	q := `SELECT l.id, l.church_id, l.user_id, u.name AS user_name, l.action, l.details, l.ip, l.created_at
		FROM access_logs l LEFT JOIN users u ON u.id = l.user_id
		WHERE l.church_id = ?`
	args := []interface{}{churchID}
	if filter.Action != "" {
		q += " AND l.action = ?"
		args = append(args, filter.Action)
	}
	if filter.UserID != "" {
		q += " AND l.user_id = ?"
		args = append(args, filter.UserID)
	}
	if !filter.From.IsZero() {
		q += " AND l.created_at >= ?"
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q += " AND l.created_at <= ?"
		args = append(args, filter.To.UTC())
	}
	q += " ORDER BY l.created_at DESC LIMIT ?"
	args = append(args, filter.Limit)

	logs := make([]user.AccessLog, 0)
	err := selectAll(ctx, db, &logs, q, args...)
	return logs, errors.Wrap(err, "querying access logs")
}
