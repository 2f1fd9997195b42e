package config

import (
	"strings"
	"testing"
	"time"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreDriver != StoreDriverMongo {
		t.Errorf("expected store driver %q, got %q", StoreDriverMongo, cfg.StoreDriver)
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected UTC location, got %v", cfg.Location)
	}
	if cfg.UpcomingDefaultDays != DefaultUpcomingDays {
		t.Errorf("expected %d upcoming days, got %d", DefaultUpcomingDays, cfg.UpcomingDefaultDays)
	}
	if cfg.EventsEnabled {
		t.Error("expected events to be disabled by default")
	}
}

func TestParse_FromEnvironment(t *testing.T) {
	t.Setenv(EnvStoreDriver, "MEMORY")
	t.Setenv(EnvOrgTimezone, "Asia/Jerusalem")
	t.Setenv(EnvTransactionTimeout, "3s")
	t.Setenv(EnvUpcomingDefaultDays, "14")
	t.Setenv(EnvEventsEnabled, "true")
	t.Setenv(EnvLogFormat, "text")

	cfg, err := Parse("test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.StoreDriver != StoreDriverMemory {
		t.Errorf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if cfg.Location == nil || cfg.Location.String() != "Asia/Jerusalem" {
		t.Errorf("unexpected location %v", cfg.Location)
	}
	if cfg.TransactionTimeout != 3*time.Second {
		t.Errorf("expected 3s transaction timeout, got %s", cfg.TransactionTimeout)
	}
	if cfg.UpcomingDefaultDays != 14 {
		t.Errorf("expected 14 upcoming days, got %d", cfg.UpcomingDefaultDays)
	}
	if !cfg.EventsEnabled {
		t.Error("expected events to be enabled")
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Setenv(EnvPort, "99999")
	t.Setenv(EnvOrgTimezone, "Mars/Olympus")
	t.Setenv(EnvStoreDriver, "sqlite")

	_, err := Parse("test")
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{"1. Port", "OrgTimezone", "StoreDriver"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in error message:\n%s", want, msg)
		}
	}
}

func TestValidate_MongoURIOnlyCheckedForMongoDriver(t *testing.T) {
	t.Setenv(EnvMongoURI, "http://not-mongo")

	t.Setenv(EnvStoreDriver, StoreDriverMemory)
	if _, err := Parse("test"); err != nil {
		t.Errorf("memory driver should ignore mongo settings: %v", err)
	}

	t.Setenv(EnvStoreDriver, StoreDriverMongo)
	if _, err := Parse("test"); err == nil {
		t.Error("mongo driver should reject a non-mongo URI")
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/?replicaSet=rs0")
	if got != "mongodb://***:***@db:27017/?replicaSet=rs0" {
		t.Errorf("unexpected redaction %q", got)
	}
}

func TestNormalizePaginationLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: 0, want: DefaultPageSize},
		{in: -5, want: DefaultPageSize},
		{in: 25, want: 25},
		{in: 5000, want: DefaultPaginationLimit},
	}
	for _, tt := range tests {
		if got := NormalizePaginationLimit(tt.in); got != tt.want {
			t.Errorf("NormalizePaginationLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if NormalizeOffset(-3) != 0 {
		t.Error("negative offsets should clamp to zero")
	}
}
