package db

import (
	"fmt"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	cgosqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Handle struct {
	DB     *gorm.DB
	Driver string
	Path   string // DSN albo ścieżka pliku sqlite
}

// OpenAt otwiera domyślną bazę sqlite w katalogu danych.
func OpenAt(dir string) (*Handle, error) {
	return Open("sqlite", filepath.Join(dir, "catalog.db"))
}

func Open(driver, dsn string) (*Handle, error) {
	dial, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(dial, &gorm.Config{
		// błędy wierszy logujemy sami, gorm ma milczeć
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" || driver == "sqlite-nocgo" {
		// jeden writer naraz, reszta czeka zamiast SQLITE_BUSY
		_ = gdb.Exec("PRAGMA busy_timeout = 5000").Error
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	return &Handle{DB: gdb, Driver: driver, Path: dsn}, nil
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return cgosqlite.Open(dsn), nil
	case "sqlite-nocgo":
		return sqlite.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("nieznany sterownik bazy %q", driver)
	}
}

func (h *Handle) Close() error {
	sqlDB, err := h.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
