package person

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/user"
)

var (
	ErrNotFound       = core.NewNotFoundError("person")
	ErrFamilyNotFound = core.NewNotFoundError("family")
	ErrTagNotFound    = core.NewNotFoundError("tag")
	ErrDuplicate      = errors.New("já existe uma pessoa cadastrada com este nome, email ou celular")
	ErrTagExists      = errors.New("já existe uma tag com este nome")
)

const historyAttendanceLimit = 50

type (
	Repository interface {
		CreatePerson(ctx context.Context, db core.DBExecutor, p Person) (Person, error)
		GetPerson(ctx context.Context, db core.DBExecutor, churchID, id string) (Person, error)
		QueryPeople(ctx context.Context, db core.DBExecutor, churchID string, filter QueryFilter) ([]ListItem, error)
		// FindDuplicate returns an active person with the same trimmed case-insensitive name,
		// or the same email, or the same mobile. Empty email and mobile are ignored.
		FindDuplicate(ctx context.Context, db core.DBExecutor, churchID, name, email, mobile, excludeID string) (Person, error)
		UpdatePerson(ctx context.Context, db core.DBExecutor, p Person) (Person, error)
		SetPersonActive(ctx context.Context, db core.DBExecutor, churchID, id string, active bool) error

		QueryPersonTags(ctx context.Context, db core.DBExecutor, churchID string, personIDs ...string) ([]PersonTag, error)
		SetPersonTags(ctx context.Context, db core.DBExecutor, churchID, personID string, tagIDs []string) error
		QueryTags(ctx context.Context, db core.DBExecutor, churchID string) ([]Tag, error)
		CreateTag(ctx context.Context, db core.DBExecutor, tag Tag) (Tag, error)

		QueryFamilies(ctx context.Context, db core.DBExecutor, churchID string) ([]Family, error)
		GetFamily(ctx context.Context, db core.DBExecutor, churchID, id string) (Family, error)
		CreateFamily(ctx context.Context, db core.DBExecutor, f Family) (Family, error)

		QueryAttendance(ctx context.Context, db core.DBExecutor, personID string, limit int) ([]AttendanceRecord, error)
		QueryMinistryMemberships(ctx context.Context, db core.DBExecutor, personID string) ([]Membership, error)
		QueryCellMemberships(ctx context.Context, db core.DBExecutor, personID string) ([]Membership, error)
		QueryFollowUps(ctx context.Context, db core.DBExecutor, personID string) ([]FollowUpRecord, error)
		QueryCounseling(ctx context.Context, db core.DBExecutor, personID string) ([]CounselingRecord, error)
		QueryDonations(ctx context.Context, db core.DBExecutor, personID string) ([]DonationRecord, error)

		QueryConsents(ctx context.Context, db core.DBExecutor, personID string) ([]Consent, error)
		CreateConsent(ctx context.Context, db core.DBExecutor, c Consent) (Consent, error)
		Anonymize(ctx context.Context, db core.DBExecutor, churchID, id string) error
	}

	// Limits checks the church plan limits.
	Limits interface {
		CheckMemberLimit(ctx context.Context, churchID string) error
	}

	Service struct {
		db     core.DB
		repo   Repository
		limits Limits
		audit  core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, limits Limits, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, limits: limits, audit: audit}
}

func (svc *Service) Query(ctx context.Context, actor core.Actor, filter QueryFilter) ([]ListItem, error) {
	filter.Clean()
	people, err := svc.repo.QueryPeople(ctx, svc.db, actor.ChurchID, filter)
	if err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return people, nil
	}

	ids := make([]string, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}
	tags, err := svc.repo.QueryPersonTags(ctx, svc.db, actor.ChurchID, ids...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying person tags")
	}
	byPerson := make(map[string][]string, len(people))
	for _, t := range tags {
		byPerson[t.PersonID] = append(byPerson[t.PersonID], t.Name)
	}
	for i := range people {
		people[i].Tags = byPerson[people[i].ID]
		if people[i].Tags == nil {
			people[i].Tags = []string{}
		}
	}
	return people, nil
}

func (svc *Service) Get(ctx context.Context, actor core.Actor, id string) (Person, error) {
	return svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id)
}

// CheckDuplicate reports whether another active person already uses the name, email or mobile.
func (svc *Service) CheckDuplicate(ctx context.Context, actor core.Actor, name, email, mobile, excludeID string) (bool, error) {
	_, err := svc.repo.FindDuplicate(
		ctx, svc.db, actor.ChurchID,
		core.CleanString(name), core.CleanString(email, true /* lower */), core.CleanString(mobile), excludeID,
	)
	if err != nil {
		if core.IsNotFound(err) {
			return false, nil
		}
		return false, pkgerrors.Wrap(err, "checking duplicates")
	}
	return true, nil
}

func (svc *Service) checkDuplicate(ctx context.Context, actor core.Actor, in Input, excludeID string) error {
	dup, err := svc.CheckDuplicate(ctx, actor, in.Name, in.Email, in.Mobile, excludeID)
	if err != nil {
		return err
	}
	if dup {
		return core.NewValidationError(ErrDuplicate, core.FieldError{Field: "name", Error: ErrDuplicate.Error()})
	}
	return nil
}

func (svc *Service) checkFamily(ctx context.Context, actor core.Actor, familyID string) error {
	if familyID == "" {
		return nil
	}
	if _, err := svc.repo.GetFamily(ctx, svc.db, actor.ChurchID, familyID); err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "family_id", Error: "família não encontrada"})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, actor core.Actor, in Input) (Person, error) {
	if err := in.Validate(); err != nil {
		return Person{}, err
	}
	if err := svc.checkDuplicate(ctx, actor, in, ""); err != nil {
		return Person{}, err
	}
	if err := svc.checkFamily(ctx, actor, in.FamilyID); err != nil {
		return Person{}, err
	}
	if err := svc.limits.CheckMemberLimit(ctx, actor.ChurchID); err != nil {
		return Person{}, err
	}

	now := core.NowFunc()
	p := Person{ChurchID: actor.ChurchID, IsActive: true, CreatedAt: now, UpdatedAt: now}
	in.apply(&p)
	stampStatusDates(&p, now)

	err := core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if p, err = svc.repo.CreatePerson(ctx, tx, p); err != nil {
			return err
		}
		if in.TagIDs != nil {
			return svc.repo.SetPersonTags(ctx, tx, actor.ChurchID, p.ID, in.TagIDs)
		}
		return nil
	})
	if err != nil {
		return Person{}, pkgerrors.Wrap(err, "creating person")
	}
	svc.audit.LogAction(ctx, actor, "pessoa.criar", p.Name)
	return p, nil
}

func (svc *Service) Update(ctx context.Context, actor core.Actor, id string, in Input) (Person, error) {
	p, err := svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Person{}, err
	}
	if err = in.Validate(); err != nil {
		return Person{}, err
	}
	if err = svc.checkDuplicate(ctx, actor, in, id); err != nil {
		return Person{}, err
	}
	if err = svc.checkFamily(ctx, actor, in.FamilyID); err != nil {
		return Person{}, err
	}

	now := core.NowFunc()
	in.apply(&p)
	stampStatusDates(&p, now)
	p.UpdatedAt = now

	err = core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		if p, err = svc.repo.UpdatePerson(ctx, tx, p); err != nil {
			return err
		}
		if in.TagIDs != nil {
			return svc.repo.SetPersonTags(ctx, tx, actor.ChurchID, p.ID, in.TagIDs)
		}
		return nil
	})
	if err != nil {
		return Person{}, pkgerrors.Wrap(err, "updating person")
	}
	svc.audit.LogAction(ctx, actor, "pessoa.atualizar", p.Name)
	return p, nil
}

// Delete soft deletes a person: the row stays, flagged inactive, and leaves every active listing.
func (svc *Service) Delete(ctx context.Context, actor core.Actor, id string) error {
	p, err := svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return err
	}
	if err = svc.repo.SetPersonActive(ctx, svc.db, actor.ChurchID, id, false); err != nil {
		return pkgerrors.Wrap(err, "deactivating person")
	}
	svc.audit.LogAction(ctx, actor, "pessoa.excluir", p.Name)
	return nil
}

// UpdateStatus moves a person to another funnel stage.
func (svc *Service) UpdateStatus(ctx context.Context, actor core.Actor, id, status string) (Person, error) {
	status = core.CleanString(status)
	if !IsValidStatus(status) {
		return Person{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: "status inválido"})
	}
	p, err := svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Person{}, err
	}
	now := core.NowFunc()
	p.Status = status
	stampStatusDates(&p, now)
	p.UpdatedAt = now

	if p, err = svc.repo.UpdatePerson(ctx, svc.db, p); err != nil {
		return Person{}, pkgerrors.Wrap(err, "updating status")
	}
	svc.audit.LogAction(ctx, actor, "pessoa.status", p.Name+": "+status)
	return p, nil
}

// stampStatusDates fills the conversion and membership dates the first time the matching status is reached.
func stampStatusDates(p *Person, now time.Time) {
	switch p.Status {
	case StatusNewConvert:
		if !p.ConversionDate.Valid {
			p.ConversionDate = null.TimeFrom(core.Today(now))
		}
	case StatusMember:
		if !p.MembershipDate.Valid {
			p.MembershipDate = null.TimeFrom(core.Today(now))
		}
	}
}

func (svc *Service) QueryTags(ctx context.Context, actor core.Actor) ([]Tag, error) {
	return svc.repo.QueryTags(ctx, svc.db, actor.ChurchID)
}

func (svc *Service) CreateTag(ctx context.Context, actor core.Actor, nt NewTag) (Tag, error) {
	if err := nt.Validate(); err != nil {
		return Tag{}, err
	}
	tag, err := svc.repo.CreateTag(ctx, svc.db, Tag{ChurchID: actor.ChurchID, Name: nt.Name, Color: nt.Color})
	if errors.Is(err, ErrTagExists) {
		return Tag{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
	}
	return tag, err
}

// SetTags replaces a person's tags.
func (svc *Service) SetTags(ctx context.Context, actor core.Actor, id string, tagIDs []string) error {
	if _, err := svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	return core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		return svc.repo.SetPersonTags(ctx, tx, actor.ChurchID, id, tagIDs)
	})
}

func (svc *Service) QueryFamilies(ctx context.Context, actor core.Actor) ([]Family, error) {
	return svc.repo.QueryFamilies(ctx, svc.db, actor.ChurchID)
}

func (svc *Service) CreateFamily(ctx context.Context, actor core.Actor, nf NewFamily) (Family, error) {
	if err := nf.Validate(); err != nil {
		return Family{}, err
	}
	return svc.repo.CreateFamily(ctx, svc.db, Family{ChurchID: actor.ChurchID, Name: nf.Name, CreatedAt: core.NowFunc()})
}

// History gathers a person's participation. Counseling metadata is only included for callers allowed to see it.
func (svc *Service) History(ctx context.Context, actor core.Actor, id string) (History, error) {
	if _, err := svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id); err != nil {
		return History{}, err
	}
	return svc.history(ctx, actor, id)
}

func (svc *Service) history(ctx context.Context, actor core.Actor, id string) (History, error) {
	var (
		h   History
		err error
	)
	if h.Attendance, err = svc.repo.QueryAttendance(ctx, svc.db, id, historyAttendanceLimit); err != nil {
		return History{}, pkgerrors.Wrap(err, "querying attendance")
	}
	if h.Ministries, err = svc.repo.QueryMinistryMemberships(ctx, svc.db, id); err != nil {
		return History{}, pkgerrors.Wrap(err, "querying ministries")
	}
	if h.Cells, err = svc.repo.QueryCellMemberships(ctx, svc.db, id); err != nil {
		return History{}, pkgerrors.Wrap(err, "querying cells")
	}
	if h.FollowUps, err = svc.repo.QueryFollowUps(ctx, svc.db, id); err != nil {
		return History{}, pkgerrors.Wrap(err, "querying follow-ups")
	}
	if user.HasPermission(actor.Profile, "aconselhamento.ver") {
		if h.Counseling, err = svc.repo.QueryCounseling(ctx, svc.db, id); err != nil {
			return History{}, pkgerrors.Wrap(err, "querying counseling")
		}
	}
	return h, nil
}

// ExportData returns everything held about a person (LGPD data portability).
func (svc *Service) ExportData(ctx context.Context, actor core.Actor, id string) (Export, error) {
	p, err := svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Export{}, err
	}
	exp := Export{Person: p, Generated: core.NowFunc()}
	if exp.History, err = svc.history(ctx, actor, id); err != nil {
		return Export{}, err
	}
	if exp.Donations, err = svc.repo.QueryDonations(ctx, svc.db, id); err != nil {
		return Export{}, pkgerrors.Wrap(err, "querying donations")
	}
	if exp.Consents, err = svc.repo.QueryConsents(ctx, svc.db, id); err != nil {
		return Export{}, pkgerrors.Wrap(err, "querying consents")
	}
	svc.audit.LogAction(ctx, actor, "lgpd.exportar", p.Name)
	return exp, nil
}

// Anonymize blanks a person's personal data, deactivates them and detaches their donations.
func (svc *Service) Anonymize(ctx context.Context, actor core.Actor, id string) error {
	if _, err := svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id); err != nil {
		return err
	}
	err := core.InTx(ctx, svc.db, func(tx core.DBExecutor) error {
		return svc.repo.Anonymize(ctx, tx, actor.ChurchID, id)
	})
	if err != nil {
		return pkgerrors.Wrap(err, "anonymizing person")
	}
	svc.audit.LogAction(ctx, actor, "lgpd.anonimizar", id)
	return nil
}

func (svc *Service) RecordConsent(ctx context.Context, actor core.Actor, id string, nc NewConsent) (Consent, error) {
	if err := nc.Validate(); err != nil {
		return Consent{}, err
	}
	if _, err := svc.repo.GetPerson(ctx, svc.db, actor.ChurchID, id); err != nil {
		return Consent{}, err
	}
	return svc.repo.CreateConsent(ctx, svc.db, Consent{
		ChurchID:    actor.ChurchID,
		PersonID:    id,
		ConsentType: strings.ToLower(nc.ConsentType),
		Granted:     nc.Granted,
		IP:          actor.IP,
		CreatedAt:   core.NowFunc(),
	})
}
