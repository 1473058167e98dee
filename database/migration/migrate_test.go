package migration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/golang-migrate/migrate/v4"

	"github.com/kbukum/voxrelay/database"
)

var testMigrations = fstest.MapFS{
	"sql/0001_notes.up.sql":   {Data: []byte("CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT);")},
	"sql/0001_notes.down.sql": {Data: []byte("DROP TABLE notes;")},
	"sql/0002_tags.up.sql":    {Data: []byte("ALTER TABLE notes ADD COLUMN tag TEXT;")},
	"sql/0002_tags.down.sql":  {Data: []byte("ALTER TABLE notes DROP COLUMN tag;")},
}

func TestUpDown(t *testing.T) {
	db, err := database.Open(context.Background(), database.Config{Enabled: true, DSN: filepath.Join(t.TempDir(), "m.db")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, _, err := Version(db, testMigrations, "sql"); !errors.Is(err, migrate.ErrNilVersion) {
		t.Fatalf("version before up: %v", err)
	}
	if err := Up(db, testMigrations, "sql"); err != nil {
		t.Fatalf("Up: %v", err)
	}
	if err := Up(db, testMigrations, "sql"); err != nil {
		t.Fatalf("second Up should be a no-op: %v", err)
	}
	v, dirty, err := Version(db, testMigrations, "sql")
	if err != nil || v != 2 || dirty {
		t.Fatalf("version = %d dirty=%v err=%v", v, dirty, err)
	}
	if err := db.WithContext(context.Background()).Exec("INSERT INTO notes (body, tag) VALUES ('x', 'y')").Error; err != nil {
		t.Fatalf("insert after migrate: %v", err)
	}

	if err := Down(db, testMigrations, "sql"); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if err := db.WithContext(context.Background()).Exec("SELECT 1 FROM notes").Error; err == nil {
		t.Error("notes table should be gone after Down")
	}
}
