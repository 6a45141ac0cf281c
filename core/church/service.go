package church

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
)

var ErrNotFound = core.NewNotFoundError("church")

type (
	Repository interface {
		CreateChurch(ctx context.Context, db core.DBExecutor, ch Church) (Church, error)
		GetChurchByID(ctx context.Context, db core.DBExecutor, id string) (Church, error)
		GetChurchByName(ctx context.Context, db core.DBExecutor, name string) (Church, error)
		QueryActiveChurches(ctx context.Context, db core.DBExecutor) ([]Church, error)
		UpdateChurch(ctx context.Context, db core.DBExecutor, ch Church) (Church, error)
		CountActivePeople(ctx context.Context, db core.DBExecutor, churchID string) (int, error)
		CountActiveUsers(ctx context.Context, db core.DBExecutor, churchID string) (int, error)
	}

	Service struct {
		db     core.DB
		repo   Repository
		logger core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, logger core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, logger: logger}
}

func (svc *Service) Create(ctx context.Context, nc NewChurch) (Church, error) {
	if err := nc.Validate(); err != nil {
		return Church{}, err
	}
	return svc.repo.CreateChurch(ctx, svc.db, Church{
		Name:      nc.Name,
		CNPJ:      nc.CNPJ,
		Email:     nc.Email,
		Phone:     nc.Phone,
		Address:   nc.Address,
		City:      nc.City,
		State:     nc.State,
		Plan:      nc.Plan,
		IsActive:  true,
		CreatedAt: core.NowFunc(),
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Church, error) {
	return svc.repo.GetChurchByID(ctx, svc.db, id)
}

func (svc *Service) GetByName(ctx context.Context, name string) (Church, error) {
	return svc.repo.GetChurchByName(ctx, svc.db, core.CleanString(name))
}

// QueryActive returns every active church, used by the background jobs.
func (svc *Service) QueryActive(ctx context.Context) ([]Church, error) {
	return svc.repo.QueryActiveChurches(ctx, svc.db)
}

// Get returns the caller's church.
func (svc *Service) Get(ctx context.Context, actor core.Actor) (Church, error) {
	return svc.repo.GetChurchByID(ctx, svc.db, actor.ChurchID)
}

func (svc *Service) Update(ctx context.Context, actor core.Actor, uc UpdateChurch) (Church, error) {
	if err := uc.Validate(); err != nil {
		return Church{}, err
	}
	ch, err := svc.repo.GetChurchByID(ctx, svc.db, actor.ChurchID)
	if err != nil {
		return Church{}, err
	}
	ch.Name = uc.Name
	ch.CNPJ = uc.CNPJ
	ch.Email = uc.Email
	ch.Phone = uc.Phone
	ch.Address = uc.Address
	ch.City = uc.City
	ch.State = uc.State

	ch, err = svc.repo.UpdateChurch(ctx, svc.db, ch)
	if err != nil {
		return Church{}, err
	}
	svc.logger.LogAction(ctx, actor, "igreja.atualizar", ch.Name)
	return ch, nil
}

// CheckMemberLimit fails with a validation error when the church's plan cannot take one more person.
func (svc *Service) CheckMemberLimit(ctx context.Context, churchID string) error {
	ch, err := svc.repo.GetChurchByID(ctx, svc.db, churchID)
	if err != nil {
		return err
	}
	count, err := svc.repo.CountActivePeople(ctx, svc.db, churchID)
	if err != nil {
		return errors.Wrap(err, "counting people")
	}
	plan := ch.GetPlan()
	if !allows(plan.MaxMembers, count) {
		msg := fmt.Sprintf("limite de %d pessoas do plano %s atingido", plan.MaxMembers, plan.Name)
		return core.NewValidationError(nil, core.FieldError{Field: "plan", Error: msg})
	}
	return nil
}

// CheckUserLimit fails with a validation error when the church's plan cannot take one more user.
func (svc *Service) CheckUserLimit(ctx context.Context, churchID string) error {
	ch, err := svc.repo.GetChurchByID(ctx, svc.db, churchID)
	if err != nil {
		return err
	}
	count, err := svc.repo.CountActiveUsers(ctx, svc.db, churchID)
	if err != nil {
		return errors.Wrap(err, "counting users")
	}
	plan := ch.GetPlan()
	if !allows(plan.MaxUsers, count) {
		msg := fmt.Sprintf("limite de %d usuários do plano %s atingido", plan.MaxUsers, plan.Name)
		return core.NewValidationError(nil, core.FieldError{Field: "plan", Error: msg})
	}
	return nil
}
