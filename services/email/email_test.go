package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/igreja/core"
	logsvc "github.com/trezcool/igreja/services/logger"
)

func TestServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewNopLogger()
	core.ParseEmailTemplates(conf, logger)
	svc := NewServiceMock(conf, logger)

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Ana", Address: "ana@test.com"}},
			Subject:      "Redefinição de senha",
			TemplateName: "password_reset",
			TemplateData: map[string]string{"Name": "Ana", "UID": "dWlk", "Token": "tok-en"},
		},
		&core.EmailMessage{
			To:      []mail.Address{{Address: "joao@test.com"}},
			Subject: "Aviso",
			BodyStr: "Culto às 19h",
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "uid=dWlk&token=tok-en")
	assert.Contains(t, sent[0].HTMLContent, "Ana")
	assert.Equal(t, "Culto às 19h", sent[1].TextContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, logsvc.NewNopLogger()).(*sendgridService)

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Ana", Address: "ana@test.com"}},
		Bcc:         []mail.Address{{Address: "audit@test.com"}},
		Subject:     "Olá",
		TextContent: "texto",
	})

	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Igreja] Olá", m.Personalizations[0].Subject)
	assert.Equal(t, "ana@test.com", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "audit@test.com", m.Personalizations[0].BCC[0].Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}

func TestNewService(t *testing.T) {
	conf := core.NewTestConfig()
	logger := logsvc.NewNopLogger()

	_, ok := NewService(conf, logger).(*consoleService)
	assert.True(t, ok)

	conf.SendgridApiKey = "key"
	_, ok = NewService(conf, logger).(*sendgridService)
	assert.True(t, ok)
}
