// Package sqlxrepos implements the core repositories on top of sqlx.
// Queries are written with "?" placeholders and rebound for the driver in use.
package sqlxrepos

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

var newID = uuid.NewString // mockable

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// get runs a single-row query, translating sql.ErrNoRows into notFound.
func get(ctx context.Context, db core.DBExecutor, dest interface{}, notFound error, query string, args ...interface{}) error {
	err := db.GetContext(ctx, dest, db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if err == nil {
		toUTC(dest)
	}
	return err
}

func selectAll(ctx context.Context, db core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	if err := db.SelectContext(ctx, dest, db.Rebind(query), args...); err != nil {
		return err
	}
	toUTC(dest)
	return nil
}

// selectIn expands slice arguments (IN clauses) before running the query.
func selectIn(ctx context.Context, db core.DBExecutor, dest interface{}, query string, args ...interface{}) error {
	q, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	if err = db.SelectContext(ctx, dest, db.Rebind(q), inArgs...); err != nil {
		return err
	}
	toUTC(dest)
	return nil
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	nullTimeType = reflect.TypeOf(null.Time{})
)

// toUTC moves every time.Time and null.Time reachable from dest (a pointer to
// a struct, a slice of structs or a time) into UTC. Drivers hand times back in
// the connection's zone.
func toUTC(dest interface{}) {
	utcValue(reflect.ValueOf(dest))
}

func utcValue(v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			utcValue(v.Elem())
		}
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			utcValue(v.Index(i))
		}
	case reflect.Struct:
		if !v.CanSet() {
			return
		}
		switch v.Type() {
		case timeType:
			v.Set(reflect.ValueOf(v.Interface().(time.Time).UTC()))
		case nullTimeType:
			nt := v.Interface().(null.Time)
			if nt.Valid {
				nt.Time = nt.Time.UTC()
				v.Set(reflect.ValueOf(nt))
			}
		default:
			for i := 0; i < v.NumField(); i++ {
				if v.Type().Field(i).IsExported() {
					utcValue(v.Field(i))
				}
			}
		}
	}
}

func exec(ctx context.Context, db core.DBExecutor, query string, args ...interface{}) (sql.Result, error) {
	return db.ExecContext(ctx, db.Rebind(query), args...)
}

func namedExec(ctx context.Context, db core.DBExecutor, query string, arg interface{}) (sql.Result, error) {
	return sqlx.NamedExecContext(ctx, db, query, arg)
}

// execOne runs a statement that must affect exactly one row.
func execOne(ctx context.Context, db core.DBExecutor, notFound error, query string, args ...interface{}) error {
	res, err := exec(ctx, db, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func count(ctx context.Context, db core.DBExecutor, query string, args ...interface{}) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, db.Rebind(query), args...)
	return n, err
}

// likePattern wraps a search term for a case-insensitive LIKE on a LOWER()ed column.
func likePattern(search string) string {
	return "%" + core.CleanString(search, true /* lower */) + "%"
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// flexTime scans timestamps out of aggregate expressions (MAX, MIN, subqueries),
// which SQLite returns as text because they carry no declared column type.
type flexTime struct {
	null.Time
}

func (ft *flexTime) Scan(value interface{}) error {
	ft.Valid = false
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		ft.Time = null.TimeFrom(v.UTC())
		return nil
	case []byte:
		return ft.parse(string(v))
	case string:
		return ft.parse(v)
	}
	return errors.Errorf("cannot scan %T into a time", value)
}

func (ft *flexTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ft.Time = null.TimeFrom(t.UTC())
			return nil
		}
	}
	return errors.Errorf("cannot parse %q as a time", s)
}
