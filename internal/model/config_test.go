package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 3000, cfg.Notify.AlertTTLMS)
	assert.Equal(t, 48, cfg.Notify.DeadlineWindowHours)
	assert.Equal(t, 24, cfg.Notify.UrgentWindowHours)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
store:
  driver: sqlite
  dsn: ":memory:"
  indexes:
    - collection: notifications
      field: recipientId
      order_by: timestamp
sync:
  poll_interval_ms: 250
identity:
  admin_emails:
    - Boss@Example.com
notify:
  alert_ttl_ms: 1500
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Store.DSN)
	require.Len(t, cfg.Store.Indexes, 1)
	assert.Equal(t, "timestamp", cfg.Store.Indexes[0].OrderBy)
	assert.Equal(t, 250, cfg.Sync.PollIntervalMS)
	assert.Equal(t, 10000, cfg.Sync.WriteTimeoutMS)
	assert.Equal(t, []string{"Boss@Example.com"}, cfg.Identity.AdminEmails)
	assert.Equal(t, int64(1500), cfg.Notify.AlertTTL().Milliseconds())
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: oracle\n"), 0o600))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "unsupported store driver")
}
