package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg := GetConfig()
	assert.Equal(t, "pageflow", cfg.AppName)
	assert.Equal(t, "5055", cfg.AppPort)
	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, "DELETE_ALL_DATA", cfg.PurgeToken)
	assert.Equal(t, 10*time.Second, cfg.PersistInterval())
	assert.Equal(t, MinFlowLinks, cfg.GetFlowMaxLinks())
	assert.Equal(t, 5, cfg.FlowDefaultDepth)
	assert.Equal(t, 50, cfg.VisitorsDefaultLimit)
	assert.Equal(t, filepath.Join("storage", "pageflow-development.db"), cfg.GetDatabasePath())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestGetConfigFromEnvironment(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	t.Setenv("PAGEFLOW_ENV", Test)
	t.Setenv("PAGEFLOW_APP_PORT", "8080")
	t.Setenv("PAGEFLOW_STORAGE_PATH", "/var/lib/pageflow")
	t.Setenv("PAGEFLOW_PURGE_TOKEN", "wipe-it")
	t.Setenv("PAGEFLOW_FLOW_MAX_LINKS", "90")
	t.Setenv("PAGEFLOW_PERSIST_INTERVAL_SECONDS", "3")
	t.Setenv("PAGEFLOW_TIMEZONE", "Europe/Madrid")

	cfg := GetConfig()
	assert.True(t, cfg.IsTest())
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "wipe-it", cfg.PurgeToken)
	assert.Equal(t, 90, cfg.GetFlowMaxLinks())
	assert.Equal(t, 3*time.Second, cfg.PersistInterval())
	assert.Equal(t, "/var/lib/pageflow/pageflow-test.db", cfg.GetDatabasePath())
	assert.Equal(t, 1, cfg.GetMaxOpenConns())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", loc.String())
}

func TestGetFlowMaxLinksClamps(t *testing.T) {
	tests := []struct {
		configured int
		want       int
	}{
		{0, MinFlowLinks},
		{50, MinFlowLinks},
		{80, 80},
		{95, 95},
		{100, 100},
		{500, MaxFlowLinks},
	}
	for _, tt := range tests {
		c := &Config{FlowMaxLinks: tt.configured}
		assert.Equal(t, tt.want, c.GetFlowMaxLinks(), "configured %d", tt.configured)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Environment: Production, PurgeToken: "x", PersistIntervalSeconds: 10, Timezone: "UTC"}
	}
	require.NoError(t, valid().validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown environment", func(c *Config) { c.Environment = "staging" }},
		{"empty purge token", func(c *Config) { c.PurgeToken = "" }},
		{"zero persist interval", func(c *Config) { c.PersistIntervalSeconds = 0 }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.validate())
		})
	}
}

func TestGetMaxOpenConns(t *testing.T) {
	assert.Equal(t, 4, (&Config{Environment: Production}).GetMaxOpenConns())
	assert.Equal(t, 1, (&Config{Environment: Test}).GetMaxOpenConns())
	assert.Equal(t, 7, (&Config{Environment: Test, DatabaseMaxOpenConns: 7}).GetMaxOpenConns())
}
