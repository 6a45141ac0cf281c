// Package testutil holds helpers shared by the test suites: a migrated in-memory database and record factories.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	"github.com/trezcool/igreja/storage/database"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
)

// OpenDB returns a migrated in-memory database, closed when the test ends.
func OpenDB(t testing.TB) *sqlx.DB {
	t.Helper()
	conf := core.NewTestConfig()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	return db
}

// FreezeTime makes core.NowFunc return now until the test ends.
func FreezeTime(t testing.TB, now time.Time) {
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now.UTC() }
	t.Cleanup(func() { core.NowFunc = orig })
}

// Actor returns the identity of usr, as the API would build it.
func Actor(usr user.User) core.Actor {
	return usr.Actor()
}

// NopActionLogger discards access log entries.
type NopActionLogger struct{}

func (NopActionLogger) LogAction(context.Context, core.Actor, string, string) {}

func CreateChurch(t testing.TB, db core.DBExecutor, name, plan string) church.Church {
	t.Helper()
	ch, err := sqlxrepos.NewChurchRepository().CreateChurch(context.Background(), db, church.Church{
		Name:      name,
		Plan:      plan,
		IsActive:  true,
		CreatedAt: core.NowFunc(),
	})
	if err != nil {
		t.Fatalf("CreateChurch() failed: %v", err)
	}
	return ch
}

func CreateUser(t testing.TB, db core.DBExecutor, churchID, name, email, pwd, profile string, isActive bool) user.User {
	t.Helper()
	now := core.NowFunc()
	usr := user.User{
		ChurchID:  churchID,
		Name:      name,
		Email:     email,
		Profile:   profile,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := sqlxrepos.NewUserRepository().CreateUser(context.Background(), db, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// PersonOption customizes a person before CreatePerson inserts it.
type PersonOption func(p *person.Person)

func WithEmail(email string) PersonOption {
	return func(p *person.Person) { p.Email = email }
}

func WithMobile(mobile string) PersonOption {
	return func(p *person.Person) { p.Mobile = mobile }
}

func WithBirthDate(d time.Time) PersonOption {
	return func(p *person.Person) { p.BirthDate = null.TimeFrom(d) }
}

func WithMembershipDate(d time.Time) PersonOption {
	return func(p *person.Person) { p.MembershipDate = null.TimeFrom(d) }
}

func WithCreatedAt(d time.Time) PersonOption {
	return func(p *person.Person) { p.CreatedAt = d; p.UpdatedAt = d }
}

func CreatePerson(t testing.TB, db core.DBExecutor, churchID, name, status string, opts ...PersonOption) person.Person {
	t.Helper()
	now := core.NowFunc()
	p := person.Person{
		ChurchID:  churchID,
		Name:      name,
		Status:    status,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(&p)
	}
	p, err := sqlxrepos.NewPersonRepository().CreatePerson(context.Background(), db, p)
	if err != nil {
		t.Fatalf("CreatePerson() failed: %v", err)
	}
	return p
}
