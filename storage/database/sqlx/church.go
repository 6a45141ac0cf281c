package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
)

const churchColumns = "id, name, cnpj, email, phone, address, city, state, plan, is_active, created_at"

type churchRepository struct{}

var _ church.Repository = (*churchRepository)(nil)

func NewChurchRepository() church.Repository {
	return &churchRepository{}
}

func (repo *churchRepository) CreateChurch(ctx context.Context, db core.DBExecutor, ch church.Church) (church.Church, error) {
	ch.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO churches (`+churchColumns+`)
		VALUES (:id, :name, :cnpj, :email, :phone, :address, :city, :state, :plan, :is_active, :created_at)`, ch)
	if err != nil {
		return church.Church{}, errors.Wrap(err, "inserting church")
	}
	return ch, nil
}

func (repo *churchRepository) GetChurchByID(ctx context.Context, db core.DBExecutor, id string) (church.Church, error) {
	var ch church.Church
	err := get(ctx, db, &ch, church.ErrNotFound, "SELECT "+churchColumns+" FROM churches WHERE id = ?", id)
	return ch, err
}

func (repo *churchRepository) GetChurchByName(ctx context.Context, db core.DBExecutor, name string) (church.Church, error) {
	var ch church.Church
	err := get(ctx, db, &ch, church.ErrNotFound, "SELECT "+churchColumns+" FROM churches WHERE LOWER(name) = LOWER(?)", name)
	return ch, err
}

func (repo *churchRepository) QueryActiveChurches(ctx context.Context, db core.DBExecutor) ([]church.Church, error) {
	chs := make([]church.Church, 0)
	err := selectAll(ctx, db, &chs, "SELECT "+churchColumns+" FROM churches WHERE is_active = TRUE ORDER BY name")
	return chs, errors.Wrap(err, "querying churches")
}

func (repo *churchRepository) UpdateChurch(ctx context.Context, db core.DBExecutor, ch church.Church) (church.Church, error) {
	_, err := namedExec(ctx, db, `UPDATE churches SET name = :name, cnpj = :cnpj, email = :email, phone = :phone,
		address = :address, city = :city, state = :state, plan = :plan, is_active = :is_active WHERE id = :id`, ch)
	if err != nil {
		return church.Church{}, errors.Wrap(err, "updating church")
	}
	return ch, nil
}

func (repo *churchRepository) CountActivePeople(ctx context.Context, db core.DBExecutor, churchID string) (int, error) {
	return count(ctx, db, "SELECT COUNT(*) FROM people WHERE church_id = ? AND is_active = TRUE", churchID)
}

func (repo *churchRepository) CountActiveUsers(ctx context.Context, db core.DBExecutor, churchID string) (int, error) {
	return count(ctx, db, "SELECT COUNT(*) FROM users WHERE church_id = ? AND is_active = TRUE", churchID)
}
