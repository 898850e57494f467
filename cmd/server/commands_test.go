package main

import (
	"testing"

	viewService "anoa.com/pencraft/internal/modules/view/service"
	"anoa.com/pencraft/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("REDIS_URL", "")
	t.Setenv("EVENT_BROKER", "none")
	t.Setenv("LOG_LEVEL", "error")
}

func TestRunJob_ViewSyncNeedsRedis(t *testing.T) {
	memoryEnv(t)

	rootCmd.SetArgs([]string{"run-job", viewService.SyncJobName})
	err := rootCmd.Execute()

	require.ErrorIs(t, err, scheduler.ErrJobNotFound)
	assert.Contains(t, err.Error(), "available: none")
}

func TestRunJob_RequiresName(t *testing.T) {
	memoryEnv(t)

	rootCmd.SetArgs([]string{"run-job"})
	assert.Error(t, rootCmd.Execute())
}
