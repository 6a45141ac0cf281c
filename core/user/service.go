package user

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/mssola/useragent"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/church"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user")
	ErrEmailExists        = errors.New("já existe um usuário com este email")
	ErrInvalidCredentials = errors.New("email ou senha inválidos")
	ErrAccountDeactivated = errors.New("conta desativada")
	ErrChurchDeactivated  = errors.New("igreja desativada")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, db core.DBExecutor, email string, excludedIDs ...string) error
		CreateUser(ctx context.Context, db core.DBExecutor, usr User) (User, error)
		GetUserByID(ctx context.Context, db core.DBExecutor, id string) (User, error)
		GetUserByEmail(ctx context.Context, db core.DBExecutor, email string) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, db core.DBExecutor, churchID string, filter QueryFilter, orderings []core.DBOrdering) ([]User, error)
		QueryUsersByProfile(ctx context.Context, db core.DBExecutor, churchID string, profiles ...string) ([]User, error)
		UpdateUser(ctx context.Context, db core.DBExecutor, usr User) (User, error)
		SetLastAccess(ctx context.Context, db core.DBExecutor, id string) error

		CreateAccessLog(ctx context.Context, db core.DBExecutor, log AccessLog) error
		QueryAccessLogs(ctx context.Context, db core.DBExecutor, churchID string, filter AccessLogFilter) ([]AccessLog, error)
	}

	// Churches is the subset of the church service users depend on.
	Churches interface {
		GetByID(ctx context.Context, id string) (church.Church, error)
		CheckUserLimit(ctx context.Context, churchID string) error
	}

	Service struct {
		conf     *core.Config
		db       core.DB
		repo     Repository
		churches Churches
		mailSvc  core.EmailService
		logger   core.Logger
		audit    core.ActionLogger
	}
)

func NewService(
	conf *core.Config,
	db core.DB,
	repo Repository,
	churches Churches,
	mailSvc core.EmailService,
	logger core.Logger,
	audit core.ActionLogger,
) *Service {
	return &Service{
		conf:     conf,
		db:       db,
		repo:     repo,
		churches: churches,
		mailSvc:  mailSvc,
		logger:   logger,
		audit:    audit,
	}
}

func (svc *Service) checkUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, svc.db, email, excludedIDs...); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Login authenticates a user by email and password.
// The user and their church must both be active.
func (svc *Service) Login(ctx context.Context, email, pwd string, meta LoginMeta) (User, error) {
	usr, err := svc.repo.GetUserByEmail(ctx, svc.db, core.CleanString(email, true /* lower */))
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}
	ch, err := svc.churches.GetByID(ctx, usr.ChurchID)
	if err != nil {
		return User{}, errors.Wrap(err, "finding user church")
	}
	if !ch.IsActive {
		return User{}, ErrChurchDeactivated
	}

	if err = svc.repo.SetLastAccess(ctx, svc.db, usr.ID); err != nil {
		svc.logger.Warn("setting last access", err, map[string]interface{}{"user": usr.ID})
	} else {
		usr.LastAccess = null.TimeFrom(core.NowFunc())
	}

	actor := usr.Actor()
	actor.IP = meta.IP
	svc.audit.LogAction(ctx, actor, "login", describeUserAgent(meta.UserAgent))
	return usr, nil
}

func (svc *Service) Logout(ctx context.Context, actor core.Actor) {
	svc.audit.LogAction(ctx, actor, "logout", "")
}

// describeUserAgent summarizes a User-Agent header as "Browser version / OS".
func describeUserAgent(header string) string {
	if header == "" {
		return ""
	}
	ua := useragent.New(header)
	name, version := ua.Browser()
	desc := fmt.Sprintf("%s %s / %s", name, version, ua.OS())
	if ua.Mobile() {
		desc += " (mobile)"
	}
	return desc
}

func (svc *Service) Create(ctx context.Context, actor core.Actor, nu NewUser) (User, error) {
	if err := nu.Validate(); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Email); err != nil {
		return User{}, err
	}
	if err := svc.churches.CheckUserLimit(ctx, actor.ChurchID); err != nil {
		return User{}, err
	}

	now := core.NowFunc()
	usr := User{
		ChurchID:  actor.ChurchID,
		Name:      nu.Name,
		Email:     nu.Email,
		Profile:   nu.Profile,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nu.PersonID != "" {
		usr.PersonID = null.StringFrom(nu.PersonID)
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, svc.db, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	svc.audit.LogAction(ctx, actor, "usuario.criar", usr.Email)
	return usr, nil
}

// GetByID finds a user in any church. Use Get for caller-scoped lookups.
func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, svc.db, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, svc.db, core.CleanString(email, true /* lower */))
}

// Get finds a user of the caller's church.
func (svc *Service) Get(ctx context.Context, actor core.Actor, id string) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, svc.db, id)
	if err != nil {
		return User{}, err
	}
	if usr.ChurchID != actor.ChurchID {
		return User{}, ErrNotFound
	}
	return usr, nil
}

func (svc *Service) Query(ctx context.Context, actor core.Actor, filter QueryFilter, orderings []core.DBOrdering) ([]User, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, svc.db, actor.ChurchID, filter, orderings)
}

// QueryByProfile returns the active users of a church holding one of the given profiles.
func (svc *Service) QueryByProfile(ctx context.Context, churchID string, profiles ...string) ([]User, error) {
	return svc.repo.QueryUsersByProfile(ctx, svc.db, churchID, profiles...)
}

func (svc *Service) Update(ctx context.Context, actor core.Actor, id string, uu UpdateUser) (User, error) {
	usr, err := svc.Get(ctx, actor, id)
	if err != nil {
		return User{}, err
	}
	if err = uu.Validate(usr); err != nil {
		return User{}, err
	}
	if err = svc.checkUniqueness(ctx, uu.Email, usr.ID); err != nil {
		return User{}, err
	}
	if uu.IsActive != nil && *uu.IsActive && !usr.IsActive {
		if err = svc.churches.CheckUserLimit(ctx, actor.ChurchID); err != nil {
			return User{}, err
		}
	}

	usr.Name = uu.Name
	usr.Email = uu.Email
	usr.Profile = uu.Profile
	if uu.PersonID != nil {
		usr.PersonID = null.NewString(*uu.PersonID, *uu.PersonID != "")
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	if uu.Password != "" {
		if err = usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.UpdatedAt = core.NowFunc()

	usr, err = svc.repo.UpdateUser(ctx, svc.db, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "updating user")
	}
	svc.audit.LogAction(ctx, actor, "usuario.atualizar", usr.Email)
	return usr, nil
}

// Delete deactivates a user. Users are never removed since logs and records keep referencing them.
func (svc *Service) Delete(ctx context.Context, actor core.Actor, id string) error {
	if id == actor.UserID {
		return core.ErrForbidden
	}
	usr, err := svc.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	usr.IsActive = false
	usr.UpdatedAt = core.NowFunc()
	if _, err = svc.repo.UpdateUser(ctx, svc.db, usr); err != nil {
		return errors.Wrap(err, "deactivating user")
	}
	svc.audit.LogAction(ctx, actor, "usuario.excluir", usr.Email)
	return nil
}

// ChangePassword sets a new password, bypassing the reset token flow. Used by the admin CLI.
func (svc *Service) ChangePassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	rp := ResetUserPassword{Token: "-", UID: "-", Password: pwd, PasswordConfirm: pwd}
	if err = rp.Validate(); err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.NowFunc()
	_, err = svc.repo.UpdateUser(ctx, svc.db, usr)
	return errors.Wrap(err, "updating password")
}

func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Redefinição de senha",
		TemplateName: "password_reset",
		TemplateData: map[string]string{
			"Name":  core.FirstName(usr.Name),
			"UID":   EncodeUID(usr),
			"Token": makeToken(usr, svc.conf.SecretKey),
		},
	})
}

func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	if err := rp.Validate(); err != nil {
		return err
	}
	invalid := core.NewValidationError(nil, core.FieldError{Field: "token", Error: "link inválido ou expirado"})

	id, err := decodeUID(rp.UID)
	if err != nil {
		return invalid
	}
	usr, err := svc.repo.GetUserByID(ctx, svc.db, id)
	if err != nil {
		if core.IsNotFound(err) {
			return invalid
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = verifyToken(usr, rp.Token, svc.conf.SecretKey, svc.conf.PasswordResetTimeoutDelta); err != nil {
		return invalid
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = core.NowFunc()
	if _, err = svc.repo.UpdateUser(ctx, svc.db, usr); err != nil {
		return errors.Wrap(err, "updating password")
	}
	svc.audit.LogAction(ctx, usr.Actor(), "senha.redefinir", "")
	return nil
}
