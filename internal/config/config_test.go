package conf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg, first, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.True(t, first)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Contains(t, cfg.Integrations, "importer")

	cfg.Delimiter = ","
	require.NoError(t, Save(path, cfg))

	again, first, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.False(t, first)
	assert.Equal(t, ",", again.Delimiter)

	var imp ImporterDefaults
	require.NoError(t, again.UnmarshalIntegration("importer", &imp))
	assert.Equal(t, 10, imp.PollSec)
	assert.Error(t, again.UnmarshalIntegration("missing", &imp))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CATALOG_DB_DRIVER", DriverSQLiteNoCgo)
	t.Setenv("CATALOG_DELIMITER", "\t")
	t.Setenv("CATALOG_LOG_LEVEL", "")

	cfg := Default()
	cfg.LogLevel = "warn"
	require.NoError(t, cfg.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, DriverSQLiteNoCgo, cfg.Database.Driver)
	assert.Equal(t, "\t", cfg.Delimiter)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestResolvePaths(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	cfg := Default()
	cfg.ResolvePaths(dataDir)

	assert.Equal(t, filepath.Join(dataDir, "storage"), cfg.StorageDir)
	assert.Equal(t, filepath.Join(dataDir, "storage", "catalog", "backups"), cfg.BackupDir)
	assert.Equal(t, filepath.Join(dataDir, "catalog.db"), cfg.Database.DSN)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name: "collects every problem",
			mutate: func(c *Config) {
				c.Database.Driver = "oracle"
				c.Delimiter = ";;"
				c.LogLevel = "loud"
				c.Categories = []CategoryRule{{Keyword: "", Category: "Фильтры"}}
			},
			wantErr: []string{"database.driver", "delimiter", "log_level", "categories[0]"},
		},
		{
			name:    "postgres needs dsn",
			mutate:  func(c *Config) { c.Database.Driver = DriverPostgres },
			wantErr: []string{"database.dsn"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, w := range tt.wantErr {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}
