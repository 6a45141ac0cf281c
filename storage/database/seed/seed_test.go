package seed_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/event"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/person"
	"github.com/trezcool/igreja/core/user"
	emailsvc "github.com/trezcool/igreja/services/email"
	logsvc "github.com/trezcool/igreja/services/logger"
	"github.com/trezcool/igreja/storage/database/seed"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

func newSeeder(t *testing.T) (seed.Seeder, *user.Service) {
	t.Helper()
	conf := core.NewTestConfig()
	logger := logsvc.NewNopLogger()
	db := testutil.OpenDB(t)

	audit := testutil.NopActionLogger{}
	churchSvc := church.NewService(db, sqlxrepos.NewChurchRepository(), audit)
	userSvc := user.NewService(conf, db, sqlxrepos.NewUserRepository(), churchSvc, emailsvc.NewServiceMock(conf, logger), logger, audit)
	return seed.Seeder{
		Churches:   churchSvc,
		Users:      userSvc,
		People:     person.NewService(db, sqlxrepos.NewPersonRepository(), churchSvc, audit),
		Ministries: ministry.NewService(db, sqlxrepos.NewMinistryRepository(), audit),
		Events:     event.NewService(db, sqlxrepos.NewEventRepository(), audit),
	}, userSvc
}

func TestSeeder_Run(t *testing.T) {
	seeder, users := newSeeder(t)
	ctx := context.Background()

	data, err := seed.Demo()
	require.NoError(t, err)

	res, err := seeder.Run(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, "Igreja Exemplo", res.Church.Name)
	assert.Equal(t, church.PlanPro, res.Church.Plan)
	assert.Equal(t, len(data.Users), res.Users)
	assert.Equal(t, len(data.People), res.People)
	assert.Equal(t, len(data.Ministries), res.Ministries)
	assert.Equal(t, len(data.Cells), res.Cells)
	assert.Equal(t, len(data.Events), res.Events)

	t.Run("users can log in", func(t *testing.T) {
		usr, err := users.Login(ctx, "admin@igrejaexemplo.com.br", "Igreja#Adm24", user.LoginMeta{IP: "127.0.0.1"})
		require.NoError(t, err)
		assert.Equal(t, user.ProfileAdmin, usr.Profile)
		assert.Equal(t, res.Church.ID, usr.ChurchID)
	})

	t.Run("already seeded", func(t *testing.T) {
		_, err := seeder.Run(ctx, data)
		assert.ErrorIs(t, err, seed.ErrAlreadySeeded)
	})
}

func TestLoad(t *testing.T) {
	t.Run("unknown field", func(t *testing.T) {
		_, err := seed.Load(strings.NewReader("church:\n  name: X\n  pastor: Y\n"))
		assert.Error(t, err)
	})

	t.Run("unknown person reference", func(t *testing.T) {
		data, err := seed.Load(strings.NewReader(`
church:
  name: Igreja Nova
users: []
cells:
  - name: Célula Centro
    leader: Ninguém
`))
		require.NoError(t, err)
		seeder, _ := newSeeder(t)
		_, err = seeder.Run(context.Background(), data)
		assert.ErrorIs(t, err, seed.ErrUnknownRef)
	})
}
