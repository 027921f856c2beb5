package database

import (
	"path/filepath"
	"testing"

	"github.com/rosehollow/cookbook/backend/internal/admin"
)

func TestOpenSQLiteMigratesSessionSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	db, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite returned error: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if !db.Migrator().HasTable(&admin.SessionMarker{}) {
		t.Error("session marker table missing after migration")
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("", nil); err == nil {
		t.Fatal("OpenSQLite succeeded without a path")
	}
}
