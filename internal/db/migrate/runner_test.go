package migrate

import (
	"strings"
	"testing"
)

func TestRun_EmptyDSN(t *testing.T) {
	err := Run("", "up")
	if err == nil {
		t.Fatal("Run with empty DSN should return error")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error message = %q, should mention DATABASE_URL", err.Error())
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	testCases := []struct {
		name      string
		direction string
	}{
		{"empty", ""},
		{"invalid", "invalid"},
		{"upcase", "UP"},
		{"mixed", "Up"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Run("postgres://localhost/test", tc.direction)
			if err == nil {
				t.Errorf("Run with direction %q should return error", tc.direction)
			}
			if !strings.Contains(err.Error(), "direction") {
				t.Errorf("error message = %q, should mention direction", err.Error())
			}
		})
	}
}

func TestRun_InvalidDSN(t *testing.T) {
	testCases := []struct {
		name string
		dsn  string
	}{
		{"invalid format", "invalid-dsn"},
		{"missing driver", "://localhost/test"},
		{"malformed", "postgres://"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Run(tc.dsn, "up"); err == nil {
				t.Errorf("Run with invalid DSN %q should return error", tc.dsn)
			}
		})
	}
}
