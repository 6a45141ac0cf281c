package msgsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/igreja/core"
	"github.com/trezcool/igreja/core/messaging"
	emailsvc "github.com/trezcool/igreja/services/email"
	logsvc "github.com/trezcool/igreja/services/logger"
)

func TestWhatsAppSender_Send(t *testing.T) {
	obs, logs := observer.New(zapcore.InfoLevel)
	s := NewWhatsAppSender(logsvc.NewRollbarLogger(zap.New(obs), core.NewTestConfig()))
	ctx := context.Background()

	err := s.Send(ctx, messaging.Message{Channel: messaging.ChannelWhatsApp, To: "(11) 98888-7777", Content: "Olá Ana"})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "whatsapp message", entries[0].Message)
	assert.Equal(t, "https://wa.me/5511988887777?text=Ol%C3%A1%20Ana", entries[0].ContextMap()["link"])

	assert.ErrorIs(t, s.Send(ctx, messaging.Message{Content: "x"}), messaging.ErrNoAddress)
}

func TestEmailSender_Send(t *testing.T) {
	conf := core.NewTestConfig()
	mock := emailsvc.NewServiceMock(conf, logsvc.NewNopLogger())
	s := NewEmailSender(mock)
	ctx := context.Background()

	err := s.Send(ctx, messaging.Message{
		Channel: messaging.ChannelEmail,
		Name:    "Ana Souza",
		To:      "ana@test.com",
		Subject: "Culto",
		Content: "Domingo às 19h",
	})
	require.NoError(t, err)

	sent := mock.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Ana Souza", sent[0].To[0].Name)
	assert.Equal(t, "ana@test.com", sent[0].To[0].Address)
	assert.Equal(t, "Domingo às 19h", sent[0].TextContent)

	assert.Error(t, s.Send(ctx, messaging.Message{To: "not an address", Content: "x"}))
	assert.ErrorIs(t, s.Send(ctx, messaging.Message{Content: "x"}), messaging.ErrNoAddress)
	assert.Len(t, mock.SentMessages(), 1)
}

func TestNewSenders(t *testing.T) {
	senders := NewSenders(emailsvc.NewServiceMock(core.NewTestConfig(), logsvc.NewNopLogger()), logsvc.NewNopLogger())
	assert.IsType(t, &WhatsAppSender{}, senders[messaging.ChannelWhatsApp])
	assert.IsType(t, &EmailSender{}, senders[messaging.ChannelEmail])
}
