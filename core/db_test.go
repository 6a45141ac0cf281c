package core

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTx(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		fn      func(tx DBExecutor) error
		wantErr string
	}{
		{
			name: "commit",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM reminders").WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			fn: func(tx DBExecutor) error {
				_, err := tx.ExecContext(ctx, "DELETE FROM reminders")
				return err
			},
		},
		{
			name: "rollback",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectRollback()
			},
			fn:      func(tx DBExecutor) error { return errBoom },
			wantErr: "boom",
		},
		{
			name:    "begin fails",
			expect:  func(mock sqlmock.Sqlmock) { mock.ExpectBegin().WillReturnError(errBoom) },
			fn:      func(tx DBExecutor) error { return nil },
			wantErr: "beginning transaction: boom",
		},
		{
			name: "commit fails",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectCommit().WillReturnError(errBoom)
			},
			fn:      func(tx DBExecutor) error { return nil },
			wantErr: "committing transaction: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()
			tt.expect(mock)

			err = InTx(ctx, sqlx.NewDb(mockDB, "sqlmock"), tt.fn)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderBy(t *testing.T) {
	allowed := map[string]string{"name": "p.name", "created_at": "p.created_at"}

	assert.Equal(t, " ORDER BY p.name ASC, p.created_at DESC",
		OrderBy([]DBOrdering{{Field: "name", Ascending: true}, {Field: "password"}, {Field: "created_at"}}, allowed, "p.name"))
	assert.Equal(t, " ORDER BY p.name", OrderBy(nil, allowed, "p.name"))
}
