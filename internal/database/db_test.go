package database

import (
	"strings"
	"testing"
)

func TestDSN(t *testing.T) {
	dsn := DSN("app", "s3cret", "db.local", "3307", "reservations")
	if !strings.HasPrefix(dsn, "app:s3cret@tcp(db.local:3307)/reservations?") {
		t.Errorf("DSN() = %q", dsn)
	}
	for _, want := range []string{"parseTime=true", "clientFoundRows=true", "charset=utf8mb4"} {
		if !strings.Contains(dsn, want) {
			t.Errorf("DSN() = %q, missing %s", dsn, want)
		}
	}
}

func TestStatements(t *testing.T) {
	stmts := Statements()
	if len(stmts) != 3 {
		t.Fatalf("len(Statements()) = %d, want 3", len(stmts))
	}
	for i, table := range []string{"rooms", "customers", "reservations"} {
		if !strings.HasPrefix(stmts[i], "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("statement %d = %.40q..., want table %s", i, stmts[i], table)
		}
	}
	if !strings.Contains(stmts[2], "UNIQUE KEY uq_reservations_code (code)") {
		t.Error("reservations table lacks the unique code index")
	}
}
