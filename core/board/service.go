package board

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/user"
)

var (
	ErrNotFound         = core.NewNotFoundError("post")
	ErrPrayerNotFound   = core.NewNotFoundError("prayer request")
	ErrMinistryNotFound = core.NewNotFoundError("ministry")
	ErrCellNotFound     = core.NewNotFoundError("cell")
	ErrCommentsDisabled = errors.New("comments are disabled on this post")
)

type (
	Repository interface {
		MinistryExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)
		CellExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)

		// QueryPosts lists the unexpired posts, pinned first, then newest. Liked reports whether userID liked each one.
		QueryPosts(ctx context.Context, db core.DBExecutor, churchID, userID string, filter Filter, now time.Time) ([]PostListItem, error)
		GetPost(ctx context.Context, db core.DBExecutor, churchID, userID, id string) (PostListItem, error)
		CreatePost(ctx context.Context, db core.DBExecutor, p Post) (Post, error)
		// DeletePost also deletes the likes and comments of the post.
		DeletePost(ctx context.Context, db core.DBExecutor, churchID, id string) error

		// ToggleLike likes or unlikes a post and returns the new state.
		ToggleLike(ctx context.Context, db core.DBExecutor, postID, userID string, at time.Time) (bool, error)
		QueryComments(ctx context.Context, db core.DBExecutor, postID string) ([]CommentListItem, error)
		CreateComment(ctx context.Context, db core.DBExecutor, c Comment) (Comment, error)

		QueryPrayers(ctx context.Context, db core.DBExecutor, churchID string, answered bool) ([]PrayerListItem, error)
		GetPrayer(ctx context.Context, db core.DBExecutor, churchID, id string) (PrayerRequest, error)
		CreatePrayer(ctx context.Context, db core.DBExecutor, p PrayerRequest) (PrayerRequest, error)
		IncrementPraying(ctx context.Context, db core.DBExecutor, churchID, id string) error
		UpdatePrayer(ctx context.Context, db core.DBExecutor, p PrayerRequest) (PrayerRequest, error)
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

// Posts

func (svc *Service) Query(ctx context.Context, actor core.Actor, filter Filter) ([]PostListItem, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return svc.repo.QueryPosts(ctx, svc.db, actor.ChurchID, actor.UserID, filter, core.NowFunc())
}

func (svc *Service) Get(ctx context.Context, actor core.Actor, id string) (PostListItem, error) {
	return svc.repo.GetPost(ctx, svc.db, actor.ChurchID, actor.UserID, id)
}

func (svc *Service) checkAudience(ctx context.Context, actor core.Actor, in PostInput) error {
	switch in.Audience {
	case AudienceMinistry:
		ok, err := svc.repo.MinistryExists(ctx, svc.db, actor.ChurchID, in.MinistryID)
		if err != nil {
			return errors.Wrap(err, "checking ministry")
		}
		if !ok {
			return core.NewValidationError(ErrMinistryNotFound, core.FieldError{Field: "ministry_id", Error: "ministério não encontrado"})
		}
	case AudienceCell:
		ok, err := svc.repo.CellExists(ctx, svc.db, actor.ChurchID, in.CellID)
		if err != nil {
			return errors.Wrap(err, "checking cell")
		}
		if !ok {
			return core.NewValidationError(ErrCellNotFound, core.FieldError{Field: "cell_id", Error: "célula não encontrada"})
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, actor core.Actor, in PostInput) (Post, error) {
	if err := in.Validate(); err != nil {
		return Post{}, err
	}
	if err := svc.checkAudience(ctx, actor, in); err != nil {
		return Post{}, err
	}

	p := Post{
		ChurchID:      actor.ChurchID,
		AuthorID:      core.NullString(actor.UserID),
		Title:         in.Title,
		Content:       in.Content,
		Type:          in.Type,
		Audience:      in.Audience,
		Pinned:        in.Pinned,
		AllowComments: in.AllowComments == nil || *in.AllowComments,
		ExpiresAt:     in.ExpiresAt,
		CreatedAt:     core.NowFunc(),
	}
	switch in.Audience {
	case AudienceMinistry:
		p.MinistryID = null.StringFrom(in.MinistryID)
	case AudienceCell:
		p.CellID = null.StringFrom(in.CellID)
	}

	p, err := svc.repo.CreatePost(ctx, svc.db, p)
	if err != nil {
		return Post{}, err
	}
	svc.audit.LogAction(ctx, actor, "mural.publicar", "Publicação criada: "+p.Title)
	return p, nil
}

// Delete deletes a post with its likes and comments. Only its author, an admin or a pastor may delete it.
func (svc *Service) Delete(ctx context.Context, actor core.Actor, id string) error {
	p, err := svc.repo.GetPost(ctx, svc.db, actor.ChurchID, actor.UserID, id)
	if err != nil {
		return err
	}
	if p.AuthorID.String != actor.UserID && actor.Profile != user.ProfileAdmin && actor.Profile != user.ProfilePastor {
		return core.ErrForbidden
	}
	err = core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		return svc.repo.DeletePost(ctx, tx, actor.ChurchID, id)
	})
	if err != nil {
		return err
	}
	svc.audit.LogAction(ctx, actor, "mural.excluir", "Publicação excluída: "+p.Title)
	return nil
}

// ToggleLike likes the post, or unlikes it if the caller already liked it. It returns the new state.
func (svc *Service) ToggleLike(ctx context.Context, actor core.Actor, id string) (bool, error) {
	if _, err := svc.repo.GetPost(ctx, svc.db, actor.ChurchID, actor.UserID, id); err != nil {
		return false, err
	}
	return svc.repo.ToggleLike(ctx, svc.db, id, actor.UserID, core.NowFunc())
}

func (svc *Service) Comments(ctx context.Context, actor core.Actor, id string) ([]CommentListItem, error) {
	if _, err := svc.repo.GetPost(ctx, svc.db, actor.ChurchID, actor.UserID, id); err != nil {
		return nil, err
	}
	return svc.repo.QueryComments(ctx, svc.db, id)
}

func (svc *Service) Comment(ctx context.Context, actor core.Actor, id string, nc NewComment) (Comment, error) {
	if err := nc.Validate(); err != nil {
		return Comment{}, err
	}
	p, err := svc.repo.GetPost(ctx, svc.db, actor.ChurchID, actor.UserID, id)
	if err != nil {
		return Comment{}, err
	}
	if !p.AllowComments {
		return Comment{}, core.NewValidationError(ErrCommentsDisabled, core.FieldError{Field: "content", Error: "comentários desativados"})
	}
	return svc.repo.CreateComment(ctx, svc.db, Comment{
		PostID:    id,
		AuthorID:  core.NullString(actor.UserID),
		Content:   nc.Content,
		CreatedAt: core.NowFunc(),
	})
}

// Prayer wall

// Prayers lists the open requests, or the answered ones.
func (svc *Service) Prayers(ctx context.Context, actor core.Actor, answered bool) ([]PrayerListItem, error) {
	prayers, err := svc.repo.QueryPrayers(ctx, svc.db, actor.ChurchID, answered)
	if err != nil {
		return nil, err
	}
	for i := range prayers {
		if prayers[i].IsAnonymous {
			prayers[i].AuthorID = null.String{}
			prayers[i].AuthorName = null.String{}
		}
	}
	return prayers, nil
}

func (svc *Service) CreatePrayer(ctx context.Context, actor core.Actor, np NewPrayerRequest) (PrayerRequest, error) {
	if err := np.Validate(); err != nil {
		return PrayerRequest{}, err
	}
	return svc.repo.CreatePrayer(ctx, svc.db, PrayerRequest{
		ChurchID:    actor.ChurchID,
		AuthorID:    core.NullString(actor.UserID),
		Request:     np.Request,
		IsAnonymous: np.IsAnonymous,
		CreatedAt:   core.NowFunc(),
	})
}

// Pray adds one to the "praying" counter and returns the new count.
func (svc *Service) Pray(ctx context.Context, actor core.Actor, id string) (int, error) {
	if err := svc.repo.IncrementPraying(ctx, svc.db, actor.ChurchID, id); err != nil {
		return 0, err
	}
	p, err := svc.repo.GetPrayer(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return 0, err
	}
	return p.PrayingCount, nil
}

func (svc *Service) MarkAnswered(ctx context.Context, actor core.Actor, id, testimony string) (PrayerRequest, error) {
	p, err := svc.repo.GetPrayer(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return PrayerRequest{}, err
	}
	p.Answered = true
	p.Testimony = core.CleanString(testimony)
	p.AnsweredAt = null.TimeFrom(core.NowFunc())
	return svc.repo.UpdatePrayer(ctx, svc.db, p)
}
