package counseling

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/user"
)

var (
	ErrNotFound       = core.NewNotFoundError("counseling session")
	ErrPersonNotFound = core.NewNotFoundError("person")
)

type (
	Repository interface {
		PersonExists(ctx context.Context, db core.DBExecutor, churchID, personID string) (bool, error)
		QuerySessions(ctx context.Context, db core.DBExecutor, churchID string, filter Filter) ([]SessionInfo, error)
		GetSession(ctx context.Context, db core.DBExecutor, churchID, id string) (Session, SessionInfo, error)
		CreateSession(ctx context.Context, db core.DBExecutor, s Session) (Session, error)
		UpdateSession(ctx context.Context, db core.DBExecutor, s Session) (Session, error)
		QueryCounselors(ctx context.Context, db core.DBExecutor, churchID string) ([]Counselor, error)
	}

	Service struct {
		db     core.DB
		repo   Repository
		cipher *core.Cipher
		audit  core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, cipher *core.Cipher, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, cipher: cipher, audit: audit}
}

// restricted reports whether the actor may only see the sessions they lead as counselor.
func restricted(actor core.Actor) bool {
	return actor.Profile == user.ProfileLeader
}

// Query lists session metadata, newest first. Leaders only see their own sessions.
func (svc *Service) Query(ctx context.Context, actor core.Actor, filter Filter) ([]SessionInfo, error) {
	if restricted(actor) {
		if actor.PersonID == "" {
			return []SessionInfo{}, nil
		}
		filter.CounselorID = actor.PersonID
	}
	return svc.repo.QuerySessions(ctx, svc.db, actor.ChurchID, filter)
}

// get loads a session the actor may access; others' sessions are reported as not found to leaders.
func (svc *Service) get(ctx context.Context, actor core.Actor, id string) (Session, SessionInfo, error) {
	s, info, err := svc.repo.GetSession(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Session{}, SessionInfo{}, err
	}
	if restricted(actor) && s.CounselorID != actor.PersonID {
		return Session{}, SessionInfo{}, ErrNotFound
	}
	return s, info, nil
}

// Details decrypts a session and records the access.
func (svc *Service) Details(ctx context.Context, actor core.Actor, id string) (SessionDetails, error) {
	s, info, err := svc.get(ctx, actor, id)
	if err != nil {
		return SessionDetails{}, err
	}
	svc.audit.LogAction(ctx, actor, "aconselhamento.visualizar", fmt.Sprintf("Acesso ao aconselhamento %s", id))
	return SessionDetails{
		SessionInfo: info,
		Summary:     svc.cipher.Decrypt(s.Summary),
		Notes:       svc.cipher.Decrypt(s.Notes),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}, nil
}

func (svc *Service) checkPeople(ctx context.Context, actor core.Actor, in SessionInput) error {
	for _, fld := range []struct{ name, id string }{{"person_id", in.PersonID}, {"counselor_id", in.CounselorID}} {
		ok, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, fld.id)
		if err != nil {
			return errors.Wrap(err, "checking person")
		}
		if !ok {
			return core.NewValidationError(ErrPersonNotFound, core.FieldError{Field: fld.name, Error: "pessoa não encontrada"})
		}
	}
	return nil
}

// apply copies the input into s, encrypting its contents.
func (svc *Service) apply(in SessionInput, s *Session) error {
	summary, err := svc.cipher.Encrypt(in.Summary)
	if err != nil {
		return errors.Wrap(err, "encrypting summary")
	}
	notes, err := svc.cipher.Encrypt(in.Notes)
	if err != nil {
		return errors.Wrap(err, "encrypting notes")
	}
	s.PersonID = in.PersonID
	s.CounselorID = in.CounselorID
	s.SessionDate = core.ParseDateOrZero(in.Date).Time
	s.Type = in.Type
	s.Summary = summary
	s.Notes = notes
	s.Status = in.Status
	s.FollowUpDate = core.ParseDateOrZero(in.FollowUpDate)
	return nil
}

func (svc *Service) Create(ctx context.Context, actor core.Actor, in SessionInput) (Session, error) {
	if err := in.Validate(); err != nil {
		return Session{}, err
	}
	if err := svc.checkPeople(ctx, actor, in); err != nil {
		return Session{}, err
	}

	now := core.NowFunc()
	s := Session{ChurchID: actor.ChurchID, CreatedAt: now, UpdatedAt: now}
	if err := svc.apply(in, &s); err != nil {
		return Session{}, err
	}
	s, err := svc.repo.CreateSession(ctx, svc.db, s)
	if err != nil {
		return Session{}, err
	}
	svc.audit.LogAction(ctx, actor, "aconselhamento.criar", fmt.Sprintf("Aconselhamento %s criado para pessoa %s", s.ID, s.PersonID))
	return s, nil
}

func (svc *Service) Update(ctx context.Context, actor core.Actor, id string, in SessionInput) (Session, error) {
	if err := in.Validate(); err != nil {
		return Session{}, err
	}
	s, _, err := svc.get(ctx, actor, id)
	if err != nil {
		return Session{}, err
	}
	if err = svc.checkPeople(ctx, actor, in); err != nil {
		return Session{}, err
	}
	if err = svc.apply(in, &s); err != nil {
		return Session{}, err
	}
	s.UpdatedAt = core.NowFunc()
	if s, err = svc.repo.UpdateSession(ctx, svc.db, s); err != nil {
		return Session{}, err
	}
	svc.audit.LogAction(ctx, actor, "aconselhamento.atualizar", fmt.Sprintf("Aconselhamento %s atualizado", id))
	return s, nil
}

// Counselors lists the people who may counsel: leaders, members and people linked to ADMIN, PASTOR or LIDER users.
func (svc *Service) Counselors(ctx context.Context, actor core.Actor) ([]Counselor, error) {
	return svc.repo.QueryCounselors(ctx, svc.db, actor.ChurchID)
}
