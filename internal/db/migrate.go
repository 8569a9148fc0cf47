package db

import (
	"fmt"
)

// Migrate tworzy/aktualizuje schemat bazy.
func (h *Handle) Migrate() error {
	gdb := h.DB

	if err := gdb.AutoMigrate(
		&CarBrand{},
		&CarModel{},
		&SparePart{},
		&CompatibilityLink{},
		&LinkIssue{},
		&ImportFile{},
		&KV{},
	); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}

	// klucz upsertu zgłoszeń: jedno zgłoszenie na (część, powód, wpis)
	if !gdb.Migrator().HasIndex(&LinkIssue{}, "uniq_issue_key") {
		if err := gdb.Exec(`
			CREATE UNIQUE INDEX uniq_issue_key
			ON link_issues(part_number, reason, reference);
		`).Error; err != nil {
			return fmt.Errorf("create index uniq_issue_key: %w", err)
		}
	}

	return nil
}
