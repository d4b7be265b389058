package repo

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "app.db")
	if _, err := OpenSQLite(path); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestOpenSQLite_And_AutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, table := range []string{"users", "operations", "transactions"} {
		if !db.Migrator().HasTable(table) {
			t.Fatalf("table %q missing after migration", table)
		}
	}
}
