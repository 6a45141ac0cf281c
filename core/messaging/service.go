package messaging

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/igreja/core"
)

var (
	ErrNotFound         = core.NewNotFoundError("campaign")
	ErrTemplateNotFound = core.NewNotFoundError("message template")
	ErrPersonNotFound   = core.NewNotFoundError("person")
	ErrAlreadySent      = errors.New("campaign already sent")
	ErrNoAddress        = errors.New("recipient has no address on this channel")
	ErrNoSender         = errors.New("no sender for this channel")
)

type (
	// Sender delivers a rendered message through one channel.
	Sender interface {
		Send(ctx context.Context, msg Message) error
	}

	Repository interface {
		QueryTemplates(ctx context.Context, db core.DBExecutor, churchID string) ([]Template, error)
		GetTemplate(ctx context.Context, db core.DBExecutor, churchID, id string) (Template, error)
		CreateTemplate(ctx context.Context, db core.DBExecutor, t Template) (Template, error)
		UpdateTemplate(ctx context.Context, db core.DBExecutor, t Template) (Template, error)

		QueryCampaigns(ctx context.Context, db core.DBExecutor, churchID string) ([]CampaignListItem, error)
		GetCampaign(ctx context.Context, db core.DBExecutor, churchID, id string) (Campaign, error)
		CreateCampaign(ctx context.Context, db core.DBExecutor, c Campaign) (Campaign, error)
		UpdateCampaign(ctx context.Context, db core.DBExecutor, c Campaign) (Campaign, error)

		// QueryRecipients resolves a segment. Birthdays are not filtered: every person with a birth date is returned.
		QueryRecipients(ctx context.Context, db core.DBExecutor, churchID, segment string) ([]Recipient, error)
		GetRecipient(ctx context.Context, db core.DBExecutor, churchID, personID string) (Recipient, error)
		CreateSentMessage(ctx context.Context, db core.DBExecutor, m SentMessage) (SentMessage, error)
		QuerySentMessages(ctx context.Context, db core.DBExecutor, churchID, campaignID string) ([]SentMessage, error)
	}

	Service struct {
		db      core.DB
		repo    Repository
		senders map[string]Sender
		logger  core.Logger
		audit   core.ActionLogger
	}
)

func NewService(db core.DB, repo Repository, senders map[string]Sender, logger core.Logger, audit core.ActionLogger) *Service {
	return &Service{db: db, repo: repo, senders: senders, logger: logger, audit: audit}
}

// Templates

func (svc *Service) QueryTemplates(ctx context.Context, actor core.Actor) ([]Template, error) {
	return svc.repo.QueryTemplates(ctx, svc.db, actor.ChurchID)
}

func (svc *Service) GetTemplate(ctx context.Context, actor core.Actor, id string) (Template, error) {
	return svc.repo.GetTemplate(ctx, svc.db, actor.ChurchID, id)
}

func (svc *Service) CreateTemplate(ctx context.Context, actor core.Actor, in TemplateInput) (Template, error) {
	if err := in.Validate(); err != nil {
		return Template{}, err
	}
	t := Template{ChurchID: actor.ChurchID, IsActive: true, CreatedAt: core.NowFunc()}
	in.apply(&t)
	return svc.repo.CreateTemplate(ctx, svc.db, t)
}

func (svc *Service) UpdateTemplate(ctx context.Context, actor core.Actor, id string, in TemplateInput) (Template, error) {
	if err := in.Validate(); err != nil {
		return Template{}, err
	}
	t, err := svc.repo.GetTemplate(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Template{}, err
	}
	in.apply(&t)
	return svc.repo.UpdateTemplate(ctx, svc.db, t)
}

func (svc *Service) DeleteTemplate(ctx context.Context, actor core.Actor, id string) error {
	t, err := svc.repo.GetTemplate(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return err
	}
	t.IsActive = false
	_, err = svc.repo.UpdateTemplate(ctx, svc.db, t)
	return err
}

// Campaigns

func (svc *Service) QueryCampaigns(ctx context.Context, actor core.Actor) ([]CampaignListItem, error) {
	return svc.repo.QueryCampaigns(ctx, svc.db, actor.ChurchID)
}

// templateContent returns the subject and content of a template, unless they are given.
func (svc *Service) templateContent(ctx context.Context, actor core.Actor, templateID, subject, content string) (string, string, error) {
	if templateID != "" {
		t, err := svc.repo.GetTemplate(ctx, svc.db, actor.ChurchID, templateID)
		if err != nil {
			if core.IsNotFound(err) {
				return "", "", core.NewValidationError(err, core.FieldError{Field: "template_id", Error: "modelo não encontrado"})
			}
			return "", "", err
		}
		if subject == "" {
			subject = t.Subject
		}
		if content == "" {
			content = t.Content
		}
	}
	if content == "" {
		return "", "", core.NewValidationError(nil, core.FieldError{Field: "content", Error: "este campo é obrigatório"})
	}
	return subject, content, nil
}

// CreateCampaign saves a draft campaign.
func (svc *Service) CreateCampaign(ctx context.Context, actor core.Actor, in CampaignInput) (Campaign, error) {
	if err := in.Validate(); err != nil {
		return Campaign{}, err
	}
	subject, content, err := svc.templateContent(ctx, actor, in.TemplateID, in.Subject, in.Content)
	if err != nil {
		return Campaign{}, err
	}

	c, err := svc.repo.CreateCampaign(ctx, svc.db, Campaign{
		ChurchID:   actor.ChurchID,
		Name:       in.Name,
		TemplateID: core.NullString(in.TemplateID),
		Segment:    in.Segment,
		Channel:    in.Channel,
		Subject:    subject,
		Content:    content,
		Status:     CampaignDraft,
		CreatedBy:  core.NullString(actor.UserID),
		CreatedAt:  core.NowFunc(),
	})
	if err != nil {
		return Campaign{}, err
	}
	svc.audit.LogAction(ctx, actor, "campanha.criar", "Campanha criada: "+c.Name)
	return c, nil
}

// Recipients resolves a campaign segment to the people it targets.
func (svc *Service) Recipients(ctx context.Context, actor core.Actor, segment string) ([]Recipient, error) {
	recipients, err := svc.repo.QueryRecipients(ctx, svc.db, actor.ChurchID, segment)
	if err != nil {
		return nil, errors.Wrap(err, "querying recipients")
	}
	if segment != SegmentBirthdays {
		return recipients, nil
	}

	_, month, day := core.NowFunc().Date()
	birthdays := make([]Recipient, 0)
	for _, r := range recipients {
		if _, m, d := r.BirthDate.Time.Date(); r.BirthDate.Valid && m == month && d == day {
			birthdays = append(birthdays, r)
		}
	}
	return birthdays, nil
}

// deliver sends one message and records it. It reports whether the message went out.
func (svc *Service) deliver(ctx context.Context, churchID string, campaignID null.String, r Recipient, channel, subject, content string) bool {
	msg := Message{
		Channel: channel,
		Name:    r.Name,
		To:      r.Address(channel),
		Subject: Render(subject, r),
		Content: Render(content, r),
	}

	status := SentOK
	sender, ok := svc.senders[channel]
	if !ok {
		svc.logger.Error("sending message", ErrNoSender, map[string]interface{}{"channel": channel})
		status = SentFailed
	} else if err := sender.Send(ctx, msg); err != nil {
		svc.logger.Warn("sending message", err, map[string]interface{}{"channel": channel, "person": r.ID})
		status = SentFailed
	}

	_, err := svc.repo.CreateSentMessage(ctx, svc.db, SentMessage{
		ChurchID:   churchID,
		CampaignID: campaignID,
		PersonID:   null.StringFrom(r.ID),
		Channel:    channel,
		Recipient:  msg.To,
		Content:    msg.Content,
		Status:     status,
		SentAt:     core.NowFunc(),
	})
	if err != nil {
		svc.logger.Warn("recording sent message", err, map[string]interface{}{"person": r.ID})
	}
	return status == SentOK
}

// SendCampaign delivers a draft campaign to every recipient of its segment that has an address on its channel.
func (svc *Service) SendCampaign(ctx context.Context, actor core.Actor, id string) (Campaign, error) {
	c, err := svc.repo.GetCampaign(ctx, svc.db, actor.ChurchID, id)
	if err != nil {
		return Campaign{}, err
	}
	if c.Status == CampaignSent {
		return Campaign{}, core.NewValidationError(ErrAlreadySent, core.FieldError{Field: "status", Error: "campanha já enviada"})
	}

	recipients, err := svc.Recipients(ctx, actor, c.Segment)
	if err != nil {
		return Campaign{}, err
	}
	sent := 0
	for _, r := range recipients {
		if r.Address(c.Channel) == "" {
			continue
		}
		if svc.deliver(ctx, actor.ChurchID, null.StringFrom(c.ID), r, c.Channel, c.Subject, c.Content) {
			sent++
		}
	}

	c.Status = CampaignSent
	c.TotalSent = sent
	c.SentAt = null.TimeFrom(core.NowFunc())
	if c, err = svc.repo.UpdateCampaign(ctx, svc.db, c); err != nil {
		return Campaign{}, err
	}
	svc.audit.LogAction(ctx, actor, "campanha.enviar", fmt.Sprintf("Campanha %s enviada: %d mensagens", c.Name, sent))
	return c, nil
}

func (svc *Service) CampaignMessages(ctx context.Context, actor core.Actor, id string) ([]SentMessage, error) {
	if _, err := svc.repo.GetCampaign(ctx, svc.db, actor.ChurchID, id); err != nil {
		return nil, err
	}
	return svc.repo.QuerySentMessages(ctx, svc.db, actor.ChurchID, id)
}

// Send delivers a single message to one person.
func (svc *Service) Send(ctx context.Context, actor core.Actor, dm DirectMessage) error {
	if err := dm.Validate(); err != nil {
		return err
	}
	r, err := svc.repo.GetRecipient(ctx, svc.db, actor.ChurchID, dm.PersonID)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(err, core.FieldError{Field: "person_id", Error: "pessoa não encontrada"})
		}
		return err
	}
	if r.Address(dm.Channel) == "" {
		return core.NewValidationError(ErrNoAddress, core.FieldError{
			Field: "person_id",
			Error: fmt.Sprintf("a pessoa não tem %s cadastrado", dm.Channel),
		})
	}
	subject, content, err := svc.templateContent(ctx, actor, dm.TemplateID, dm.Subject, dm.Content)
	if err != nil {
		return err
	}
	if subject == "" {
		subject = "Mensagem"
	}

	if !svc.deliver(ctx, actor.ChurchID, null.String{}, r, dm.Channel, subject, content) {
		return errors.Errorf("sending %s message failed", dm.Channel)
	}
	svc.audit.LogAction(ctx, actor, "mensagem.enviar", fmt.Sprintf("Mensagem %s enviada para %s", dm.Channel, r.Name))
	return nil
}
