package msgsvc

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/messaging"
)

// WhatsAppSender logs a wa.me link for each message. There is no WhatsApp Business integration.
type WhatsAppSender struct {
	logger core.Logger
}

var _ messaging.Sender = (*WhatsAppSender)(nil)

func NewWhatsAppSender(logger core.Logger) *WhatsAppSender {
	return &WhatsAppSender{logger: logger}
}

func (s *WhatsAppSender) Send(_ context.Context, msg messaging.Message) error {
	if msg.To == "" {
		return messaging.ErrNoAddress
	}
	s.logger.Info("whatsapp message", map[string]interface{}{
		"to":   msg.To,
		"link": core.WhatsAppLink(msg.To, msg.Content),
	})
	return nil
}

// EmailSender hands messages to the email service, which delivers them asynchronously.
type EmailSender struct {
	email core.EmailService
}

var _ messaging.Sender = (*EmailSender)(nil)

func NewEmailSender(email core.EmailService) *EmailSender {
	return &EmailSender{email: email}
}

func (s *EmailSender) Send(_ context.Context, msg messaging.Message) error {
	if msg.To == "" {
		return messaging.ErrNoAddress
	}
	addr, err := mail.ParseAddress(msg.To)
	if err != nil {
		return errors.Wrapf(err, "parsing address %q", msg.To)
	}
	addr.Name = msg.Name
	s.email.SendMessages(&core.EmailMessage{
		To:      []mail.Address{*addr},
		Subject: msg.Subject,
		BodyStr: msg.Content,
	})
	return nil
}

// NewSenders returns the sender of every channel.
func NewSenders(email core.EmailService, logger core.Logger) map[string]messaging.Sender {
	return map[string]messaging.Sender{
		messaging.ChannelWhatsApp: NewWhatsAppSender(logger),
		messaging.ChannelEmail:    NewEmailSender(email),
	}
}
