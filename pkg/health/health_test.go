package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-character-chat/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckerHealthy(t *testing.T) {
	checker := NewChecker(logger.Discard(), time.Second)
	checker.RegisterCredentialCheck("llm", func() bool { return false })
	checker.RegisterPingCheck("audio_storage", true, func(context.Context) error { return nil })

	checker.RunChecks(context.Background())

	status := checker.GetStatus()
	require.Contains(t, status, "llm")
	assert.Equal(t, StatusDegraded, status["llm"].Status)
	assert.Equal(t, StatusUp, status["audio_storage"].Status)
	assert.Equal(t, StatusUp, status["self"].Status)
	assert.True(t, checker.IsSystemHealthy())
}

func TestCheckerCriticalDown(t *testing.T) {
	checker := NewChecker(logger.Discard(), time.Second)
	checker.RegisterPingCheck("audio_storage", true, func(context.Context) error { return errors.New("read-only file system") })
	checker.RegisterPingCheck("redis", false, func(context.Context) error { return errors.New("dial tcp: refused") })

	checker.RunChecks(context.Background())

	status := checker.GetStatus()
	assert.Equal(t, StatusDown, status["audio_storage"].Status)
	assert.Equal(t, "read-only file system", status["audio_storage"].Error)
	assert.Equal(t, StatusDegraded, status["redis"].Status)
	assert.False(t, checker.IsSystemHealthy())
}

func TestCheckerAppliesTimeout(t *testing.T) {
	checker := NewChecker(logger.Discard(), 20*time.Millisecond)
	checker.RegisterPingCheck("redis", false, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	checker.RunChecks(context.Background())

	assert.Equal(t, StatusDegraded, checker.GetStatus()["redis"].Status)
}
