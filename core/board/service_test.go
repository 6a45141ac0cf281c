package board_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/board"
	"github.com/trezcool/igreja/core/church"
	"github.com/trezcool/igreja/core/ministry"
	"github.com/trezcool/igreja/core/user"
	sqlxrepos "github.com/trezcool/igreja/storage/database/sqlx"
	testutil "github.com/trezcool/igreja/tests"
)

type fixture struct {
	svc      *board.Service
	pastor   core.Actor
	leader   core.Actor
	member   core.Actor
	ministry ministry.Ministry
	cell     ministry.Cell
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.FreezeTime(t, time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	ch := testutil.CreateChurch(t, db, "Igreja Central", church.PlanPro)
	pastor := testutil.CreateUser(t, db, ch.ID, "Pr. Marcos", "pastor@igreja.com", "Adm1n!pass", user.ProfilePastor, true)
	leader := testutil.CreateUser(t, db, ch.ID, "Lia Lider", "lider@igreja.com", "Adm1n!pass", user.ProfileLeader, true)
	member := testutil.CreateUser(t, db, ch.ID, "Rui Secretaria", "rui@igreja.com", "Adm1n!pass", user.ProfileSecretary, true)

	repo := sqlxrepos.NewMinistryRepository()
	m, err := repo.CreateMinistry(ctx, db, ministry.Ministry{
		ChurchID:  ch.ID,
		Name:      "Louvor",
		Color:     "#9b59b6",
		IsActive:  true,
		CreatedAt: core.NowFunc(),
	})
	require.NoError(t, err)
	c, err := repo.CreateCell(ctx, db, ministry.Cell{
		ChurchID:  ch.ID,
		Name:      "Célula Centro",
		Weekday:   "quarta",
		IsActive:  true,
		CreatedAt: core.NowFunc(),
	})
	require.NoError(t, err)

	return fixture{
		svc:      board.NewService(db, sqlxrepos.NewBoardRepository(), testutil.NopActionLogger{}),
		pastor:   pastor.Actor(),
		leader:   leader.Actor(),
		member:   member.Actor(),
		ministry: m,
		cell:     c,
	}
}

func (f fixture) post(t *testing.T, actor core.Actor, in board.PostInput) board.Post {
	t.Helper()
	p, err := f.svc.Create(context.Background(), actor, in)
	require.NoError(t, err)
	return p
}

func postTitles(posts []board.PostListItem) []string {
	res := make([]string, 0, len(posts))
	for _, p := range posts {
		res = append(res, p.Title)
	}
	return res
}

func TestService_Posts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name  string
			in    board.PostInput
			field string
		}{
			{"no title", board.PostInput{Content: "x"}, "title"},
			{"bad type", board.PostInput{Title: "x", Content: "x", Type: "fofoca"}, "type"},
			{"ministry audience without ministry", board.PostInput{Title: "x", Content: "x", Audience: board.AudienceMinistry}, "ministry_id"},
			{"cell audience without cell", board.PostInput{Title: "x", Content: "x", Audience: board.AudienceCell}, "cell_id"},
			{"unknown ministry", board.PostInput{Title: "x", Content: "x", Audience: board.AudienceMinistry, MinistryID: "nope"}, "ministry_id"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.svc.Create(ctx, f.pastor, tt.in)
				require.Error(t, err)
				if vErr, ok := err.(*core.ValidationError); ok {
					require.NotEmpty(t, vErr.Fields)
					assert.Equal(t, tt.field, vErr.Fields[0].Field)
				}
			})
		}
	})

	notice := f.post(t, f.pastor, board.PostInput{Title: "Culto de domingo", Content: "Às 19h"})
	assert.Equal(t, board.TypeNotice, notice.Type)
	assert.Equal(t, board.AudienceAll, notice.Audience)
	assert.True(t, notice.AllowComments)

	testutil.FreezeTime(t, core.NowFunc().Add(time.Hour))
	pinned := f.post(t, f.pastor, board.PostInput{Title: "Campanha", Content: "Doe", Pinned: true, Type: board.TypeAnnouncement})
	testutil.FreezeTime(t, core.NowFunc().Add(time.Hour))
	ensaio := f.post(t, f.leader, board.PostInput{
		Title:      "Ensaio",
		Content:    "Sábado",
		Audience:   board.AudienceMinistry,
		MinistryID: f.ministry.ID,
	})
	assert.Equal(t, f.ministry.ID, ensaio.MinistryID.String)
	f.post(t, f.pastor, board.PostInput{
		Title:     "Expirado",
		Content:   "x",
		ExpiresAt: null.TimeFrom(core.NowFunc().Add(-time.Minute)),
	})

	t.Run("query", func(t *testing.T) {
		posts, err := f.svc.Query(ctx, f.member, board.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Campanha", "Ensaio", "Culto de domingo"}, postTitles(posts))
		assert.Equal(t, "Louvor", posts[1].MinistryName.String)
		assert.Equal(t, "Lia Lider", posts[1].AuthorName.String)

		posts, err = f.svc.Query(ctx, f.member, board.Filter{Audience: board.AudienceMinistry})
		require.NoError(t, err)
		assert.Equal(t, []string{"Ensaio"}, postTitles(posts))

		posts, err = f.svc.Query(ctx, f.member, board.Filter{Audience: board.AudienceAll, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"Campanha"}, postTitles(posts))

		_, err = f.svc.Query(ctx, f.member, board.Filter{Type: "fofoca"})
		assert.Error(t, err)
	})

	t.Run("likes", func(t *testing.T) {
		liked, err := f.svc.ToggleLike(ctx, f.member, pinned.ID)
		require.NoError(t, err)
		assert.True(t, liked)
		_, err = f.svc.ToggleLike(ctx, f.leader, pinned.ID)
		require.NoError(t, err)

		p, err := f.svc.Get(ctx, f.member, pinned.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Likes)
		assert.True(t, p.Liked)

		liked, err = f.svc.ToggleLike(ctx, f.member, pinned.ID)
		require.NoError(t, err)
		assert.False(t, liked)

		p, err = f.svc.Get(ctx, f.member, pinned.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Likes)
		assert.False(t, p.Liked)

		_, err = f.svc.ToggleLike(ctx, f.member, "nope")
		assert.ErrorIs(t, err, board.ErrNotFound)
	})

	t.Run("comments", func(t *testing.T) {
		_, err := f.svc.Comment(ctx, f.member, notice.ID, board.NewComment{Content: "  Amém!  "})
		require.NoError(t, err)
		testutil.FreezeTime(t, core.NowFunc().Add(time.Minute))
		_, err = f.svc.Comment(ctx, f.leader, notice.ID, board.NewComment{Content: "Estaremos lá"})
		require.NoError(t, err)
		_, err = f.svc.Comment(ctx, f.leader, notice.ID, board.NewComment{Content: " "})
		assert.Error(t, err)

		comments, err := f.svc.Comments(ctx, f.pastor, notice.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "Amém!", comments[0].Content)
		assert.Equal(t, "Rui Secretaria", comments[0].AuthorName.String)

		p, err := f.svc.Get(ctx, f.pastor, notice.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, p.Comments)

		closed := false
		locked := f.post(t, f.pastor, board.PostInput{Title: "Devocional", Content: "x", AllowComments: &closed})
		_, err = f.svc.Comment(ctx, f.member, locked.ID, board.NewComment{Content: "oi"})
		assert.ErrorIs(t, err, board.ErrCommentsDisabled)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Delete(ctx, f.member, ensaio.ID), core.ErrForbidden)
		require.NoError(t, f.svc.Delete(ctx, f.leader, ensaio.ID))
		// pastors may delete anyone's posts, likes and comments go along
		require.NoError(t, f.svc.Delete(ctx, f.pastor, notice.ID))

		_, err := f.svc.Get(ctx, f.pastor, notice.ID)
		assert.ErrorIs(t, err, board.ErrNotFound)
		assert.ErrorIs(t, f.svc.Delete(ctx, f.pastor, notice.ID), board.ErrNotFound)
	})
}

func TestService_PrayerWall(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreatePrayer(ctx, f.member, board.NewPrayerRequest{Request: ""})
	assert.Error(t, err)

	open, err := f.svc.CreatePrayer(ctx, f.member, board.NewPrayerRequest{Request: "Pela saúde da minha mãe"})
	require.NoError(t, err)
	testutil.FreezeTime(t, core.NowFunc().Add(time.Hour))
	anon, err := f.svc.CreatePrayer(ctx, f.leader, board.NewPrayerRequest{Request: "Emprego", IsAnonymous: true})
	require.NoError(t, err)

	prayers, err := f.svc.Prayers(ctx, f.pastor, false)
	require.NoError(t, err)
	require.Len(t, prayers, 2)
	assert.Equal(t, anon.ID, prayers[0].ID)
	assert.False(t, prayers[0].AuthorName.Valid)
	assert.False(t, prayers[0].AuthorID.Valid)
	assert.Equal(t, "Rui Secretaria", prayers[1].AuthorName.String)

	n, err := f.svc.Pray(ctx, f.pastor, open.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = f.svc.Pray(ctx, f.leader, open.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = f.svc.Pray(ctx, f.leader, "nope")
	assert.ErrorIs(t, err, board.ErrPrayerNotFound)

	answered, err := f.svc.MarkAnswered(ctx, f.member, open.ID, "  Mãe recuperada!  ")
	require.NoError(t, err)
	assert.True(t, answered.Answered)
	assert.Equal(t, "Mãe recuperada!", answered.Testimony)
	assert.Equal(t, core.NowFunc(), answered.AnsweredAt.Time)

	prayers, err = f.svc.Prayers(ctx, f.pastor, false)
	require.NoError(t, err)
	require.Len(t, prayers, 1)
	assert.Equal(t, anon.ID, prayers[0].ID)

	prayers, err = f.svc.Prayers(ctx, f.pastor, true)
	require.NoError(t, err)
	require.Len(t, prayers, 1)
	assert.Equal(t, 2, prayers[0].PrayingCount)
}
