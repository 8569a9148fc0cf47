package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	conf "github.com/bartek5186/autoparts-catalog/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFirstRun(t *testing.T) {
	t.Setenv("CATALOG_DB_DRIVER", conf.DriverSQLiteNoCgo)
	dir := t.TempDir()

	a, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.True(t, a.FirstRun)
	assert.FileExists(t, filepath.Join(dir, "config.json"))
	assert.FileExists(t, filepath.Join(dir, "app.log"))
	assert.Equal(t, filepath.Join(dir, "catalog.db"), a.Cfg.Database.DSN)
	assert.Equal(t, filepath.Join(dir, "storage", "catalog", "backups"), a.Cfg.BackupDir)

	deps := a.Deps()
	assert.Equal(t, dir, deps.DataDir)
	assert.NotNil(t, deps.DB)
	assert.NotNil(t, deps.Catalog)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}

func TestOpenRejectsBadConfig(t *testing.T) {
	t.Setenv("CATALOG_DB_DRIVER", "oracle")
	_, err := Open(Options{DataDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestReloadConfig(t *testing.T) {
	t.Setenv("CATALOG_DB_DRIVER", conf.DriverSQLiteNoCgo)
	dir := t.TempDir()
	a, err := Open(Options{DataDir: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	a.Cfg.SyncIntervalSeconds = 42
	require.NoError(t, conf.Save(a.ConfigPath, a.Cfg))

	cfg, err := a.ReloadConfig()
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.SyncIntervalSeconds)
	assert.Same(t, cfg, a.Cfg)
}

func TestClassifierFromConfig(t *testing.T) {
	cfg := conf.Default()
	cfg.DefaultCategory = "Прочее"
	cfg.Categories = []conf.CategoryRule{{Keyword: "щетка", Category: "Стеклоочистители"}}

	c := classifierFor(cfg)
	assert.Equal(t, "Стеклоочистители", c.Classify("Щетка стеклоочистителя 600мм"))
	assert.Equal(t, "Прочее", c.Classify("Фильтр масляный"))

	def := classifierFor(conf.Default())
	assert.Equal(t, catalog.FallbackCategory, def.Fallback())
}

func TestDefaultDataDir(t *testing.T) {
	base, err := os.UserConfigDir()
	if err != nil {
		t.Skip("brak katalogu konfiguracyjnego użytkownika")
	}
	d, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, Name), d)
}
