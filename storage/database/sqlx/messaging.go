package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/messaging"
	"github.com/trezcool/igreja/core/person"
)

const (
	templateColumns  = "id, church_id, name, category, subject, content, channel, is_active, created_at"
	campaignColumns  = "c.id, c.church_id, c.name, c.template_id, c.segment, c.channel, c.subject, c.content, c.status, c.total_sent, c.sent_at, c.created_by, c.created_at"
	recipientColumns = "p.id, p.name, p.mobile, p.email, p.birth_date"
)

type messagingRepository struct{}

var _ messaging.Repository = (*messagingRepository)(nil)

func NewMessagingRepository() messaging.Repository {
	return &messagingRepository{}
}

func (repo *messagingRepository) QueryTemplates(ctx context.Context, db core.DBExecutor, churchID string) ([]messaging.Template, error) {
	templates := make([]messaging.Template, 0)
	err := selectAll(ctx, db, &templates, `SELECT `+templateColumns+` FROM message_templates
		WHERE church_id = ? AND is_active = TRUE
		ORDER BY category, name`, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying message templates")
	}
	return templates, nil
}

func (repo *messagingRepository) GetTemplate(ctx context.Context, db core.DBExecutor, churchID, id string) (messaging.Template, error) {
	var t messaging.Template
	err := get(ctx, db, &t, messaging.ErrTemplateNotFound, `SELECT `+templateColumns+` FROM message_templates
		WHERE church_id = ? AND id = ? AND is_active = TRUE`, churchID, id)
	if err != nil {
		return messaging.Template{}, err
	}
	return t, nil
}

func (repo *messagingRepository) CreateTemplate(ctx context.Context, db core.DBExecutor, t messaging.Template) (messaging.Template, error) {
	t.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO message_templates (`+templateColumns+`)
		VALUES (:id, :church_id, :name, :category, :subject, :content, :channel, :is_active, :created_at)`, t)
	if err != nil {
		return messaging.Template{}, errors.Wrap(err, "inserting message template")
	}
	return t, nil
}

func (repo *messagingRepository) UpdateTemplate(ctx context.Context, db core.DBExecutor, t messaging.Template) (messaging.Template, error) {
	_, err := namedExec(ctx, db, `UPDATE message_templates SET
		name = :name, category = :category, subject = :subject, content = :content, channel = :channel, is_active = :is_active
		WHERE id = :id AND church_id = :church_id`, t)
	if err != nil {
		return messaging.Template{}, errors.Wrap(err, "updating message template")
	}
	return t, nil
}

func (repo *messagingRepository) QueryCampaigns(ctx context.Context, db core.DBExecutor, churchID string) ([]messaging.CampaignListItem, error) {
	campaigns := make([]messaging.CampaignListItem, 0)
	err := selectAll(ctx, db, &campaigns, `SELECT `+campaignColumns+`, t.name AS template_name
		FROM campaigns c LEFT JOIN message_templates t ON t.id = c.template_id
		WHERE c.church_id = ?
		ORDER BY c.created_at DESC`, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying campaigns")
	}
	return campaigns, nil
}

func (repo *messagingRepository) GetCampaign(ctx context.Context, db core.DBExecutor, churchID, id string) (messaging.Campaign, error) {
	var c messaging.Campaign
	err := get(ctx, db, &c, messaging.ErrNotFound, `SELECT `+campaignColumns+` FROM campaigns c
		WHERE c.church_id = ? AND c.id = ?`, churchID, id)
	if err != nil {
		return messaging.Campaign{}, err
	}
	return c, nil
}

func (repo *messagingRepository) CreateCampaign(ctx context.Context, db core.DBExecutor, c messaging.Campaign) (messaging.Campaign, error) {
	c.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO campaigns
		(id, church_id, name, template_id, segment, channel, subject, content, status, total_sent, sent_at, created_by, created_at)
		VALUES (:id, :church_id, :name, :template_id, :segment, :channel, :subject, :content, :status, :total_sent, :sent_at,
			:created_by, :created_at)`, c)
	if err != nil {
		return messaging.Campaign{}, errors.Wrap(err, "inserting campaign")
	}
	return c, nil
}

func (repo *messagingRepository) UpdateCampaign(ctx context.Context, db core.DBExecutor, c messaging.Campaign) (messaging.Campaign, error) {
	_, err := namedExec(ctx, db, `UPDATE campaigns SET
		name = :name, segment = :segment, channel = :channel, subject = :subject, content = :content, status = :status,
		total_sent = :total_sent, sent_at = :sent_at
		WHERE id = :id AND church_id = :church_id`, c)
	if err != nil {
		return messaging.Campaign{}, errors.Wrap(err, "updating campaign")
	}
	return c, nil
}

func (repo *messagingRepository) QueryRecipients(
	ctx context.Context,
	db core.DBExecutor,
	churchID, segment string,
) ([]messaging.Recipient, error) {
	query := `SELECT ` + recipientColumns + ` FROM people p WHERE p.church_id = ? AND p.is_active = TRUE`
	args := []interface{}{churchID}

	switch segment {
	case messaging.SegmentAll:
	case messaging.SegmentVisitors:
		query += " AND p.status = ?"
		args = append(args, person.StatusVisitor)
	case messaging.SegmentMembers:
		query += " AND p.status = ?"
		args = append(args, person.StatusMember)
	case messaging.SegmentLeaders:
		query += ` AND (EXISTS (SELECT 1 FROM ministries m WHERE m.leader_id = p.id AND m.is_active = TRUE)
			OR EXISTS (SELECT 1 FROM cells c WHERE c.leader_id = p.id AND c.is_active = TRUE))`
	case messaging.SegmentBirthdays:
		query += " AND p.birth_date IS NOT NULL"
	default:
		query += ` AND EXISTS (SELECT 1 FROM person_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.person_id = p.id AND t.name = ?)`
		args = append(args, segment)
	}

	recipients := make([]messaging.Recipient, 0)
	if err := selectAll(ctx, db, &recipients, query+" ORDER BY p.name", args...); err != nil {
		return nil, err
	}
	return recipients, nil
}

func (repo *messagingRepository) GetRecipient(ctx context.Context, db core.DBExecutor, churchID, personID string) (messaging.Recipient, error) {
	var r messaging.Recipient
	err := get(ctx, db, &r, messaging.ErrPersonNotFound, `SELECT `+recipientColumns+` FROM people p
		WHERE p.church_id = ? AND p.id = ? AND p.is_active = TRUE`, churchID, personID)
	if err != nil {
		return messaging.Recipient{}, err
	}
	return r, nil
}

func (repo *messagingRepository) CreateSentMessage(ctx context.Context, db core.DBExecutor, m messaging.SentMessage) (messaging.SentMessage, error) {
	m.ID = newID()
	_, err := namedExec(ctx, db, `INSERT INTO sent_messages
		(id, church_id, campaign_id, person_id, channel, recipient, content, status, sent_at)
		VALUES (:id, :church_id, :campaign_id, :person_id, :channel, :recipient, :content, :status, :sent_at)`, m)
	if err != nil {
		return messaging.SentMessage{}, errors.Wrap(err, "inserting sent message")
	}
	return m, nil
}

func (repo *messagingRepository) QuerySentMessages(
	ctx context.Context,
	db core.DBExecutor,
	churchID, campaignID string,
) ([]messaging.SentMessage, error) {
	messages := make([]messaging.SentMessage, 0)
	err := selectAll(ctx, db, &messages, `SELECT id, church_id, campaign_id, person_id, channel, recipient, content, status, sent_at
		FROM sent_messages WHERE church_id = ? AND campaign_id = ?
		ORDER BY sent_at, recipient`, churchID, campaignID)
	if err != nil {
		return nil, errors.Wrap(err, "querying sent messages")
	}
	return messages, nil
}
