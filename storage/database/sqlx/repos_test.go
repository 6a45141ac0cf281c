package sqlxrepos

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core/agenda"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/person"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = mockDB.Close()
	})
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func TestChurchRepository_errors(t *testing.T) {
	ctx := context.Background()
	repo := NewChurchRepository()
	errBoom := errors.New("connection reset")

	t.Run("no rows is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM churches WHERE id").WithArgs("c1").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetChurchByID(ctx, db, "c1")
		assert.Equal(t, church.ErrNotFound, err)
	})

	t.Run("query error passes through", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("FROM churches WHERE id").WithArgs("c1").WillReturnError(errBoom)

		_, err := repo.GetChurchByID(ctx, db, "c1")
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("insert error is wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO churches").WillReturnError(errBoom)

		_, err := repo.CreateChurch(ctx, db, church.Church{Name: "Igreja Central"})
		assert.ErrorIs(t, err, errBoom)
		assert.EqualError(t, err, "inserting church: connection reset")
	})

	t.Run("count error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT COUNT").WithArgs("c1").WillReturnError(errBoom)

		_, err := repo.CountActiveUsers(ctx, db, "c1")
		assert.ErrorIs(t, err, errBoom)
	})
}

func TestChurchRepository_GetChurchByID(t *testing.T) {
	db, mock := newMockDB(t)
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "cnpj", "email", "phone", "address", "city", "state", "plan", "is_active", "created_at"}).
		AddRow("c1", "Igreja Central", "", "contato@igreja.com", "", "", "Recife", "PE", church.PlanPro, true, created)
	mock.ExpectQuery("FROM churches WHERE id").WithArgs("c1").WillReturnRows(rows)

	got, err := NewChurchRepository().GetChurchByID(context.Background(), db, "c1")
	require.NoError(t, err)
	want := church.Church{
		ID:        "c1",
		Name:      "Igreja Central",
		Email:     "contato@igreja.com",
		City:      "Recife",
		State:     "PE",
		Plan:      church.PlanPro,
		IsActive:  true,
		CreatedAt: created,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetChurchByID() mismatch (-want +got):\n%s", diff)
	}
}

func Test_execOne(t *testing.T) {
	ctx := context.Background()
	repo := NewAgendaRepository()

	t.Run("no row affected", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE reminders SET sent").WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkReminderSent(ctx, db, "r1")
		assert.Equal(t, agenda.ErrNotFound, err)
	})

	t.Run("rows affected error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE reminders SET sent").WithArgs("r1").
			WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not support RowsAffected")))

		err := repo.MarkReminderSent(ctx, db, "r1")
		assert.EqualError(t, err, "driver does not support RowsAffected")
	})

	t.Run("updated", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE reminders SET sent").WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkReminderSent(ctx, db, "r1"))
	})
}

func TestPersonRepository_datesComeBackInUTC(t *testing.T) {
	db, mock := newMockDB(t)
	recife := time.FixedZone("BRT", -3*60*60)
	birth := time.Date(1990, 5, 20, 21, 0, 0, 0, recife)
	created := time.Date(2024, 6, 1, 9, 30, 0, 0, recife)
	rows := sqlmock.NewRows([]string{"id", "church_id", "name", "status", "birth_date", "membership_date", "is_active", "created_at", "updated_at"}).
		AddRow("p1", "c1", "Ana", person.StatusMember, birth, nil, true, created, created)
	mock.ExpectQuery("FROM people WHERE church_id").WithArgs("c1", "p1").WillReturnRows(rows)

	got, err := NewPersonRepository().GetPerson(context.Background(), db, "c1", "p1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 21, 0, 0, 0, 0, time.UTC), got.BirthDate.Time)
	assert.False(t, got.MembershipDate.Valid)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC), got.CreatedAt)
	assert.Equal(t, time.UTC, got.UpdatedAt.Location())
}

func Test_toUTC(t *testing.T) {
	zone := time.FixedZone("", 2*60*60)
	items := []person.ListItem{
		{Person: person.Person{CreatedAt: time.Date(2024, 1, 1, 2, 0, 0, 0, zone)}},
		{Person: person.Person{BirthDate: null.TimeFrom(time.Date(2000, 1, 1, 2, 0, 0, 0, zone))}},
	}
	toUTC(&items)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), items[0].CreatedAt)
	assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), items[1].BirthDate.Time)
	assert.True(t, items[1].BirthDate.Valid)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, zone)
	toUTC(&at)
	assert.Equal(t, time.UTC, at.Location())
}
