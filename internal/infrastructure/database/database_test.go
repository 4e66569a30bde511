package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/todos/internal/infrastructure/config"
)

func openMemory(t *testing.T) *DB {
	t.Helper()

	db, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUpIsRepeatable(t *testing.T) {
	db := openMemory(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first MigrateUp() error = %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second MigrateUp() error = %v", err)
	}

	var tables int
	err := db.DB.Get(&tables, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('todos', 'lists')")
	if err != nil {
		t.Fatal(err)
	}
	if tables != 2 {
		t.Errorf("found %d schema tables, want 2", tables)
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	db := openMemory(t)
	if _, err := db.DB.Exec("CREATE TABLE kv (k TEXT PRIMARY KEY)"); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := db.WithTransaction(context.Background(), func(tx *sqlx.Tx) error {
		if _, err := tx.Exec("INSERT INTO kv (k) VALUES ('a')"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTransaction() error = %v, want %v", err, boom)
	}

	var n int
	if err := db.DB.Get(&n, "SELECT COUNT(*) FROM kv"); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("rolled back insert is visible: %d rows", n)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestHealthAndConnectionInfo(t *testing.T) {
	db := openMemory(t)
	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if info := db.GetConnectionInfo(); info["driver"] != DriverSQLite {
		t.Errorf("driver = %v", info["driver"])
	}
}
