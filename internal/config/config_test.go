package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "crm-store", cfg.Database.ApplicationName)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "/graphql", cfg.Server.GraphQLPath)
	assert.Equal(t, "http://localhost:8000/graphql", cfg.API.URL)
	assert.Equal(t, 3, cfg.API.Retries)
	assert.Equal(t, "/tmp/crm_heartbeat_log.txt", cfg.Jobs.HeartbeatLog)
	assert.Equal(t, 168*time.Hour, cfg.Jobs.ReminderWindow)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "7")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CRM_API_URL", "http://crm.internal/graphql")
	t.Setenv("JOBS_REPORT_SCHEDULE", "@daily")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 7, cfg.Database.MaxOpenConns)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://crm.internal/graphql", cfg.API.URL)
	assert.Equal(t, "@daily", cfg.Jobs.ReportSchedule)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
