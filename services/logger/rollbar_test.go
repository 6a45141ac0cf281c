package logsvc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/trezcool/igreja/core"
)

func TestRollbarLogger(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	l := NewNopLogger()
	l.zl = zap.New(obs)

	l.Warn("writing access log", errors.New("db down"), map[string]interface{}{"action": "login"})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "writing access log", entries[0].Message)
		assert.Equal(t, "db down", ctx["error"])
		assert.Equal(t, "login", ctx["action"])
	}
}

func TestRollbarLogger_actor(t *testing.T) {
	obs, logs := observer.New(zap.DebugLevel)
	l := NewNopLogger()
	l.zl = zap.New(obs)

	l.Error("boom", core.Actor{UserID: "u1", ChurchID: "c1"})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "u1", ctx["user"])
		assert.Equal(t, "c1", ctx["church"])
	}
}
