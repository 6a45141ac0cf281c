package ministry

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/user"
)

var (
	ErrNotFound        = core.NewNotFoundError("ministry")
	ErrCellNotFound    = core.NewNotFoundError("cell")
	ErrNetworkNotFound = core.NewNotFoundError("network")
	ErrMemberNotFound  = core.NewNotFoundError("member")
	ErrPersonNotFound  = core.NewNotFoundError("person")
)

const (
	DefaultMeetingHistory = 12
	attendanceWindowDays  = 30
)

type (
	Repository interface {
		PeopleExist(ctx context.Context, db core.DBExecutor, churchID string, ids ...string) (bool, error)

		QueryMinistries(ctx context.Context, db core.DBExecutor, churchID string) ([]MinistryListItem, error)
		GetMinistry(ctx context.Context, db core.DBExecutor, churchID, id string) (MinistryListItem, error)
		CreateMinistry(ctx context.Context, db core.DBExecutor, m Ministry) (Ministry, error)
		UpdateMinistry(ctx context.Context, db core.DBExecutor, m Ministry) (Ministry, error)
		QueryMinistryMembers(ctx context.Context, db core.DBExecutor, ministryID string) ([]Member, error)
		UpsertMinistryMember(ctx context.Context, db core.DBExecutor, ministryID, personID, role string, joinedAt time.Time) error
		DeactivateMinistryMember(ctx context.Context, db core.DBExecutor, ministryID, personID string, leftAt time.Time) error

		QueryCells(ctx context.Context, db core.DBExecutor, churchID string, attendanceSince time.Time) ([]CellListItem, error)
		GetCell(ctx context.Context, db core.DBExecutor, churchID, id string, attendanceSince time.Time) (CellListItem, error)
		CreateCell(ctx context.Context, db core.DBExecutor, c Cell) (Cell, error)
		UpdateCell(ctx context.Context, db core.DBExecutor, c Cell) (Cell, error)
		QueryCellMembers(ctx context.Context, db core.DBExecutor, cellID string) ([]Member, error)
		UpsertCellMember(ctx context.Context, db core.DBExecutor, cellID, personID, role string, joinedAt time.Time) error
		DeactivateCellMember(ctx context.Context, db core.DBExecutor, cellID, personID string, leftAt time.Time) error
		CreateMeeting(ctx context.Context, db core.DBExecutor, m Meeting, presentIDs []string) (Meeting, error)
		QueryMeetings(ctx context.Context, db core.DBExecutor, cellID string, limit int) ([]Meeting, error)

		QueryNetworks(ctx context.Context, db core.DBExecutor, churchID string) ([]NetworkListItem, error)
		GetNetwork(ctx context.Context, db core.DBExecutor, churchID, id string) (Network, error)
		CreateNetwork(ctx context.Context, db core.DBExecutor, n Network) (Network, error)
		UpdateNetwork(ctx context.Context, db core.DBExecutor, n Network) (Network, error)
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

// checkPeople makes sure every non-empty id is an active person of the church.
func (svc *Service) checkPeople(ctx context.Context, actor core.Actor, field string, ids ...string) error {
	nonEmpty := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			nonEmpty = append(nonEmpty, id)
		}
	}
	if len(nonEmpty) == 0 {
		return nil
	}
	ok, err := svc.repo.PeopleExist(ctx, svc.db, actor.ChurchID, nonEmpty...)
	if err != nil {
		return errors.Wrap(err, "checking people")
	}
	if !ok {
		return core.NewValidationError(ErrPersonNotFound, core.FieldError{Field: field, Error: "pessoa não encontrada"})
	}
	return nil
}

// Ministries

func (svc *Service) QueryMinistries(ctx context.Context, actor core.Actor) ([]MinistryListItem, error) {
	return svc.repo.QueryMinistries(ctx, svc.db, actor.ChurchID)
}

func (svc *Service) GetMinistry(ctx context.Context, actor core.Actor, id string) (MinistryListItem, error) {
	return svc.repo.GetMinistry(ctx, svc.db, actor.ChurchID, id)
}

func (svc *Service) CreateMinistry(ctx context.Context, actor core.Actor, in MinistryInput) (Ministry, error) {
	if err := in.Validate(); err != nil {
		return Ministry{}, err
	}
	if err := svc.checkPeople(ctx, actor, "leader_id", in.LeaderID, in.ViceLeaderID); err != nil {
		return Ministry{}, err
	}
	m := Ministry{ChurchID: actor.ChurchID, IsActive: true, CreatedAt: core.NowFunc()}
	in.apply(&m)
	m, err := svc.repo.CreateMinistry(ctx, svc.db, m)
	if err != nil {
		return Ministry{}, err
	}
	svc.audit.LogAction(ctx, actor, "ministerio.criar", m.Name)
	return m, nil
}

func (svc *Service) UpdateMinistry(ctx context.Context, actor core.Actor, id string, in MinistryInput) (Ministry, error) {
	if err := in.Validate(); err != nil {
		return Ministry{}, err
	}
	item, err := svc.repo.GetMinistry(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Ministry{}, err
	}
	if err = svc.checkPeople(ctx, actor, "leader_id", in.LeaderID, in.ViceLeaderID); err != nil {
		return Ministry{}, err
	}
	m := item.Ministry
	in.apply(&m)
	if m, err = svc.repo.UpdateMinistry(ctx, svc.db, m); err != nil {
		return Ministry{}, err
	}
	svc.audit.LogAction(ctx, actor, "ministerio.atualizar", m.Name)
	return m, nil
}

// DeleteMinistry deactivates a ministry; memberships are kept for history.
func (svc *Service) DeleteMinistry(ctx context.Context, actor core.Actor, id string) error {
	item, err := svc.repo.GetMinistry(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return err
	}
	m := item.Ministry
	m.IsActive = false
	if _, err = svc.repo.UpdateMinistry(ctx, svc.db, m); err != nil {
		return err
	}
	svc.audit.LogAction(ctx, actor, "ministerio.excluir", m.Name)
	return nil
}

func (svc *Service) MinistryMembers(ctx context.Context, actor core.Actor, id string) ([]Member, error) {
	if _, err := svc.repo.GetMinistry(ctx, svc.db, actor.ChurchID, id); err != nil {
		return nil, err
	}
	return svc.repo.QueryMinistryMembers(ctx, svc.db, id)
}

// AddMinistryMember adds a person to a ministry, or reactivates them with the new role.
func (svc *Service) AddMinistryMember(ctx context.Context, actor core.Actor, id string, nm NewMember) error {
	if err := nm.Validate(); err != nil {
		return err
	}
	if _, err := svc.repo.GetMinistry(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	if err := svc.checkPeople(ctx, actor, "person_id", nm.PersonID); err != nil {
		return err
	}
	return svc.repo.UpsertMinistryMember(ctx, svc.db, id, nm.PersonID, nm.Role, core.NowFunc())
}

func (svc *Service) RemoveMinistryMember(ctx context.Context, actor core.Actor, id, personID string) error {
	if _, err := svc.repo.GetMinistry(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	return svc.repo.DeactivateMinistryMember(ctx, svc.db, id, personID, core.NowFunc())
}

// Cells

func (svc *Service) attendanceSince() time.Time {
	return core.Today(core.NowFunc()).AddDate(0, 0, -attendanceWindowDays)
}

func (svc *Service) QueryCells(ctx context.Context, actor core.Actor) ([]CellListItem, error) {
	return svc.repo.QueryCells(ctx, svc.db, actor.ChurchID, svc.attendanceSince())
}

func (svc *Service) GetCell(ctx context.Context, actor core.Actor, id string) (CellListItem, error) {
	return svc.repo.GetCell(ctx, svc.db, actor.ChurchID, id, svc.attendanceSince())
}

// editableCell loads a cell the actor may change: leaders can only change the cells they lead.
func (svc *Service) editableCell(ctx context.Context, actor core.Actor, id string) (Cell, error) {
	item, err := svc.GetCell(ctx, actor, id)
	if err != nil {
		return Cell{}, err
	}
	if actor.Profile == user.ProfileLeader && !item.LedBy(actor.PersonID) {
		return Cell{}, core.ErrForbidden
	}
	return item.Cell, nil
}

func (svc *Service) checkNetwork(ctx context.Context, actor core.Actor, networkID string) error {
	if networkID == "" {
		return nil
	}
	if _, err := svc.repo.GetNetwork(ctx, svc.db, actor.ChurchID, networkID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "network_id", Error: "rede não encontrada"})
		}
		return err
	}
	return nil
}

func (svc *Service) CreateCell(ctx context.Context, actor core.Actor, in CellInput) (Cell, error) {
	if err := in.Validate(); err != nil {
		return Cell{}, err
	}
	if err := svc.checkPeople(ctx, actor, "leader_id", in.LeaderID, in.CoLeaderID, in.HostID); err != nil {
		return Cell{}, err
	}
	if err := svc.checkNetwork(ctx, actor, in.NetworkID); err != nil {
		return Cell{}, err
	}
	c := Cell{ChurchID: actor.ChurchID, IsActive: true, CreatedAt: core.NowFunc()}
	in.apply(&c)
	c, err := svc.repo.CreateCell(ctx, svc.db, c)
	if err != nil {
		return Cell{}, err
	}
	svc.audit.LogAction(ctx, actor, "celula.criar", c.Name)
	return c, nil
}

func (svc *Service) UpdateCell(ctx context.Context, actor core.Actor, id string, in CellInput) (Cell, error) {
	if err := in.Validate(); err != nil {
		return Cell{}, err
	}
	c, err := svc.editableCell(ctx, actor, id)
	if err != nil {
		return Cell{}, err
	}
	if err = svc.checkPeople(ctx, actor, "leader_id", in.LeaderID, in.CoLeaderID, in.HostID); err != nil {
		return Cell{}, err
	}
	if err = svc.checkNetwork(ctx, actor, in.NetworkID); err != nil {
		return Cell{}, err
	}
	in.apply(&c)
	if c, err = svc.repo.UpdateCell(ctx, svc.db, c); err != nil {
		return Cell{}, err
	}
	svc.audit.LogAction(ctx, actor, "celula.atualizar", c.Name)
	return c, nil
}

func (svc *Service) DeleteCell(ctx context.Context, actor core.Actor, id string) error {
	c, err := svc.editableCell(ctx, actor, id)
	if err != nil {
		return err
	}
	c.IsActive = false
	if _, err = svc.repo.UpdateCell(ctx, svc.db, c); err != nil {
		return err
	}
	svc.audit.LogAction(ctx, actor, "celula.excluir", c.Name)
	return nil
}

func (svc *Service) CellMembers(ctx context.Context, actor core.Actor, id string) ([]Member, error) {
	if _, err := svc.GetCell(ctx, actor, id); err != nil {
		return nil, err
	}
	return svc.repo.QueryCellMembers(ctx, svc.db, id)
}

func (svc *Service) AddCellMember(ctx context.Context, actor core.Actor, id string, nm NewMember) error {
	if err := nm.Validate(); err != nil {
		return err
	}
	if _, err := svc.editableCell(ctx, actor, id); err != nil {
		return err
	}
	if err := svc.checkPeople(ctx, actor, "person_id", nm.PersonID); err != nil {
		return err
	}
	return svc.repo.UpsertCellMember(ctx, svc.db, id, nm.PersonID, nm.Role, core.NowFunc())
}

func (svc *Service) RemoveCellMember(ctx context.Context, actor core.Actor, id, personID string) error {
	if _, err := svc.editableCell(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeactivateCellMember(ctx, svc.db, id, personID, core.NowFunc())
}

// RegisterMeeting records a cell meeting with one attendance row per present person.
func (svc *Service) RegisterMeeting(ctx context.Context, actor core.Actor, id string, nm NewMeeting) (Meeting, error) {
	if err := nm.Validate(); err != nil {
		return Meeting{}, err
	}
	if _, err := svc.editableCell(ctx, actor, id); err != nil {
		return Meeting{}, err
	}
	present := nm.presentIDs()
	if err := svc.checkPeople(ctx, actor, "present_ids", present...); err != nil {
		return Meeting{}, err
	}

	m := Meeting{
		CellID:        id,
		MeetingDate:   core.ParseDateOrZero(nm.Date).Time,
		Theme:         nm.Theme,
		PresentCount:  len(present),
		VisitorsCount: nm.VisitorsCount,
		Offering:      nm.Offering,
		Notes:         nm.Notes,
		CreatedAt:     core.NowFunc(),
	}
	err := core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		m, err = svc.repo.CreateMeeting(ctx, tx, m, present)
		return err
	})
	if err != nil {
		return Meeting{}, errors.Wrap(err, "registering meeting")
	}
	svc.audit.LogAction(ctx, actor, "celula.reuniao", fmt.Sprintf("reunião da célula %s registrada", id))
	return m, nil
}

// MeetingHistory returns the latest meetings of a cell, newest first.
func (svc *Service) MeetingHistory(ctx context.Context, actor core.Actor, id string, limit int) ([]Meeting, error) {
	if _, err := svc.GetCell(ctx, actor, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMeetingHistory
	}
	return svc.repo.QueryMeetings(ctx, svc.db, id, limit)
}

// Networks

func (svc *Service) QueryNetworks(ctx context.Context, actor core.Actor) ([]NetworkListItem, error) {
	return svc.repo.QueryNetworks(ctx, svc.db, actor.ChurchID)
}

func (svc *Service) CreateNetwork(ctx context.Context, actor core.Actor, in NetworkInput) (Network, error) {
	if err := in.Validate(); err != nil {
		return Network{}, err
	}
	if err := svc.checkPeople(ctx, actor, "supervisor_id", in.SupervisorID); err != nil {
		return Network{}, err
	}
	return svc.repo.CreateNetwork(ctx, svc.db, Network{
		ChurchID:     actor.ChurchID,
		Name:         in.Name,
		SupervisorID: core.NullString(in.SupervisorID),
		Color:        in.Color,
		IsActive:     true,
	})
}

func (svc *Service) UpdateNetwork(ctx context.Context, actor core.Actor, id string, in NetworkInput) (Network, error) {
	if err := in.Validate(); err != nil {
		return Network{}, err
	}
	n, err := svc.repo.GetNetwork(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Network{}, err
	}
	if err = svc.checkPeople(ctx, actor, "supervisor_id", in.SupervisorID); err != nil {
		return Network{}, err
	}
	n.Name = in.Name
	n.SupervisorID = core.NullString(in.SupervisorID)
	n.Color = in.Color
	return svc.repo.UpdateNetwork(ctx, svc.db, n)
}
