package schedule

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

var (
	ErrNotFound         = core.NewNotFoundError("roster")
	ErrItemNotFound     = core.NewNotFoundError("roster item")
	ErrSwapNotFound     = core.NewNotFoundError("swap request")
	ErrMinistryNotFound = core.NewNotFoundError("ministry")
	ErrPersonNotFound   = core.NewNotFoundError("person")
	ErrNoMembers        = errors.New("ministry has no members")
	ErrSwapResolved     = errors.New("swap request already resolved")
	ErrSwapPending      = errors.New("item already has a pending swap request")
)

// Shuffle randomizes the member pool of generated rosters.
var Shuffle = rand.Shuffle // mockable

type (
	Repository interface {
		MinistryExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)
		PersonExists(ctx context.Context, db core.DBExecutor, churchID, id string) (bool, error)
		QueryMinistryMembers(ctx context.Context, db core.DBExecutor, ministryID string) ([]Member, error)

		QueryRosters(ctx context.Context, db core.DBExecutor, churchID, ministryID string) ([]RosterListItem, error)
		GetRoster(ctx context.Context, db core.DBExecutor, churchID, id string) (RosterListItem, error)
		CreateRoster(ctx context.Context, db core.DBExecutor, r Roster) (Roster, error)
		UpdateRoster(ctx context.Context, db core.DBExecutor, r Roster) (Roster, error)
		DeleteRoster(ctx context.Context, db core.DBExecutor, churchID, id string) error

		QueryItems(ctx context.Context, db core.DBExecutor, rosterID string) ([]ItemListItem, error)
		QueryPersonItems(ctx context.Context, db core.DBExecutor, churchID, personID string, from time.Time) ([]MyItem, error)
		GetItem(ctx context.Context, db core.DBExecutor, churchID, id string) (Item, error)
		CreateItem(ctx context.Context, db core.DBExecutor, item Item) (Item, error)
		UpdateItem(ctx context.Context, db core.DBExecutor, item Item) (Item, error)
		DeleteItem(ctx context.Context, db core.DBExecutor, id string) error

		HasPendingSwap(ctx context.Context, db core.DBExecutor, itemID string) (bool, error)
		QueryPendingSwaps(ctx context.Context, db core.DBExecutor, churchID string) ([]SwapListItem, error)
		GetSwap(ctx context.Context, db core.DBExecutor, churchID, id string) (Swap, error)
		CreateSwap(ctx context.Context, db core.DBExecutor, s Swap) (Swap, error)
		UpdateSwap(ctx context.Context, db core.DBExecutor, s Swap) (Swap, error)
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

func (svc *Service) checkPerson(ctx context.Context, actor core.Actor, field, id string) error {
	ok, err := svc.repo.PersonExists(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return errors.Wrap(err, "checking person")
	}
	if !ok {
		return core.NewValidationError(ErrPersonNotFound, core.FieldError{Field: field, Error: "pessoa não encontrada"})
	}
	return nil
}

func (svc *Service) QueryRosters(ctx context.Context, actor core.Actor, ministryID string) ([]RosterListItem, error) {
	return svc.repo.QueryRosters(ctx, svc.db, actor.ChurchID, core.CleanString(ministryID))
}

func (svc *Service) GetRoster(ctx context.Context, actor core.Actor, id string) (RosterListItem, error) {
	return svc.repo.GetRoster(ctx, svc.db, actor.ChurchID, id)
}

func (svc *Service) checkMinistry(ctx context.Context, actor core.Actor, id string) error {
	ok, err := svc.repo.MinistryExists(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return errors.Wrap(err, "checking ministry")
	}
	if !ok {
		return core.NewValidationError(ErrMinistryNotFound, core.FieldError{Field: "ministry_id", Error: "ministério não encontrado"})
	}
	return nil
}

func (svc *Service) CreateRoster(ctx context.Context, actor core.Actor, in RosterInput) (Roster, error) {
	if err := in.Validate(); err != nil {
		return Roster{}, err
	}
	if err := svc.checkMinistry(ctx, actor, in.MinistryID); err != nil {
		return Roster{}, err
	}
	r := Roster{ChurchID: actor.ChurchID, CreatedAt: core.NowFunc()}
	in.apply(&r)
	r, err := svc.repo.CreateRoster(ctx, svc.db, r)
	if err != nil {
		return Roster{}, err
	}
	svc.audit.LogAction(ctx, actor, "escala.criar", "Escala criada: "+r.Name)
	return r, nil
}

func (svc *Service) UpdateRoster(ctx context.Context, actor core.Actor, id string, in RosterInput) (Roster, error) {
	if err := in.Validate(); err != nil {
		return Roster{}, err
	}
	item, err := svc.repo.GetRoster(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Roster{}, err
	}
	if err = svc.checkMinistry(ctx, actor, in.MinistryID); err != nil {
		return Roster{}, err
	}
	r := item.Roster
	in.apply(&r)
	return svc.repo.UpdateRoster(ctx, svc.db, r)
}

// DeleteRoster deletes a roster with its items and their swap requests.
func (svc *Service) DeleteRoster(ctx context.Context, actor core.Actor, id string) error {
	r, err := svc.repo.GetRoster(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return err
	}
	if err = svc.repo.DeleteRoster(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	svc.audit.LogAction(ctx, actor, "escala.excluir", r.Name)
	return nil
}

// Items lists a roster's items by date, each with a WhatsApp reminder link when the person has a mobile.
func (svc *Service) Items(ctx context.Context, actor core.Actor, rosterID string) ([]ItemListItem, error) {
	r, err := svc.repo.GetRoster(ctx, svc.db, actor.ChurchID, rosterID)
	if err != nil {
		return nil, err
	}
	items, err := svc.repo.QueryItems(ctx, svc.db, rosterID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Mobile != "" {
			msg := ReminderMessage(items[i].PersonName, r.MinistryName, items[i].ServeDate)
			items[i].ReminderLink = core.WhatsAppLink(items[i].Mobile, msg)
		}
	}
	return items, nil
}

func (svc *Service) AddItem(ctx context.Context, actor core.Actor, rosterID string, in ItemInput) (Item, error) {
	if err := in.Validate(); err != nil {
		return Item{}, err
	}
	if _, err := svc.repo.GetRoster(ctx, svc.db, actor.ChurchID, rosterID); err != nil {
		return Item{}, err
	}
	if err := svc.checkPerson(ctx, actor, "person_id", in.PersonID); err != nil {
		return Item{}, err
	}
	return svc.repo.CreateItem(ctx, svc.db, Item{
		RosterID:  rosterID,
		PersonID:  in.PersonID,
		ServeDate: core.ParseDateOrZero(in.ServeDate).Time,
		Role:      in.Role,
		ServeTime: in.ServeTime,
		Notes:     in.Notes,
	})
}

func (svc *Service) RemoveItem(ctx context.Context, actor core.Actor, itemID string) error {
	if _, err := svc.repo.GetItem(ctx, svc.db, actor.ChurchID, itemID); err != nil {
		return err
	}
	return svc.repo.DeleteItem(ctx, svc.db, itemID)
}

// Confirm sets or clears the confirmation of an item. The confirmation time is only kept while confirmed.
func (svc *Service) Confirm(ctx context.Context, actor core.Actor, itemID string, confirmed bool) (Item, error) {
	item, err := svc.repo.GetItem(ctx, svc.db, actor.ChurchID, itemID)
	if err != nil {
		return Item{}, err
	}
	item.Confirmed = confirmed
	item.ConfirmedAt = null.Time{}
	if confirmed {
		item.ConfirmedAt = null.TimeFrom(core.NowFunc())
	}
	return svc.repo.UpdateItem(ctx, svc.db, item)
}

// MySchedule lists the caller's items from today on. Users not linked to a person have none.
func (svc *Service) MySchedule(ctx context.Context, actor core.Actor) ([]MyItem, error) {
	if actor.PersonID == "" {
		return []MyItem{}, nil
	}
	return svc.repo.QueryPersonItems(ctx, svc.db, actor.ChurchID, actor.PersonID, core.Today(core.NowFunc()))
}

// Generate fills every date × role slot with the ministry's members, in random order.
// The pool is reshuffled whenever every member has been used.
func (svc *Service) Generate(ctx context.Context, actor core.Actor, rosterID string, in GenerateInput) ([]Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := svc.repo.GetRoster(ctx, svc.db, actor.ChurchID, rosterID)
	if err != nil {
		return nil, err
	}
	members, err := svc.repo.QueryMinistryMembers(ctx, svc.db, r.MinistryID)
	if err != nil {
		return nil, errors.Wrap(err, "querying ministry members")
	}
	if len(members) == 0 {
		return nil, core.NewValidationError(ErrNoMembers, core.FieldError{Field: "ministry_id", Error: "o ministério não tem membros"})
	}

	var pool []Member
	reshuffle := func() {
		pool = append(pool[:0], members...)
		Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	}
	reshuffle()

	items := make([]Item, 0, len(in.Dates)*len(in.Roles))
	err = core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		idx := 0
		for _, d := range in.Dates {
			for _, role := range in.Roles {
				if idx >= len(pool) {
					reshuffle()
					idx = 0
				}
				item, err := svc.repo.CreateItem(ctx, tx, Item{
					RosterID:  rosterID,
					PersonID:  pool[idx].ID,
					ServeDate: core.ParseDateOrZero(d).Time,
					Role:      role,
				})
				if err != nil {
					return err
				}
				items = append(items, item)
				idx++
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "generating roster")
	}
	svc.audit.LogAction(ctx, actor, "escala.gerar", fmt.Sprintf("Escala %s gerada: %d itens", r.Name, len(items)))
	return items, nil
}

// RequestSwap opens a swap request on behalf of the item's person.
func (svc *Service) RequestSwap(ctx context.Context, actor core.Actor, itemID, reason string) (Swap, error) {
	item, err := svc.repo.GetItem(ctx, svc.db, actor.ChurchID, itemID)
	if err != nil {
		return Swap{}, err
	}
	pending, err := svc.repo.HasPendingSwap(ctx, svc.db, itemID)
	if err != nil {
		return Swap{}, errors.Wrap(err, "checking pending swaps")
	}
	if pending {
		return Swap{}, core.NewValidationError(ErrSwapPending, core.FieldError{Field: "item_id", Error: "já existe uma troca pendente"})
	}
	return svc.repo.CreateSwap(ctx, svc.db, Swap{
		ItemID:      itemID,
		RequesterID: item.PersonID,
		Reason:      core.CleanString(reason),
		Status:      SwapPending,
		CreatedAt:   core.NowFunc(),
	})
}

func (svc *Service) PendingSwaps(ctx context.Context, actor core.Actor) ([]SwapListItem, error) {
	return svc.repo.QueryPendingSwaps(ctx, svc.db, actor.ChurchID)
}

// AcceptSwap sets the substitute of a pending request and reassigns the item to them, unconfirmed.
func (svc *Service) AcceptSwap(ctx context.Context, actor core.Actor, swapID, substituteID string) (Swap, error) {
	substituteID = core.CleanString(substituteID)
	s, err := svc.repo.GetSwap(ctx, svc.db, actor.ChurchID, swapID)
	if err != nil {
		return Swap{}, err
	}
	if s.Status != SwapPending {
		return Swap{}, core.NewValidationError(ErrSwapResolved, core.FieldError{Field: "status", Error: "troca já resolvida"})
	}
	if err = svc.checkPerson(ctx, actor, "substitute_id", substituteID); err != nil {
		return Swap{}, err
	}

	err = core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		s.SubstituteID = null.StringFrom(substituteID)
		s.Status = SwapAccepted
		s.ResolvedAt = null.TimeFrom(core.NowFunc())
		if _, err := svc.repo.UpdateSwap(ctx, tx, s); err != nil {
			return err
		}
		item, err := svc.repo.GetItem(ctx, tx, actor.ChurchID, s.ItemID)
		if err != nil {
			return err
		}
		item.PersonID = substituteID
		item.Confirmed = false
		item.ConfirmedAt = null.Time{}
		_, err = svc.repo.UpdateItem(ctx, tx, item)
		return err
	})
	if err != nil {
		return Swap{}, err
	}
	svc.audit.LogAction(ctx, actor, "escala.troca", fmt.Sprintf("Troca %s aceita", s.ID))
	return s, nil
}
