package infra

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/clipcast")
	t.Setenv("AUTH_SECRET", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.VeoModel != "models/veo-3.1" {
		t.Fatalf("veo model = %q", cfg.VeoModel)
	}
	if cfg.StorageBackend != "filesystem" {
		t.Fatalf("storage backend = %q", cfg.StorageBackend)
	}
	if cfg.CreditsPerGrant != 10 {
		t.Fatalf("credits per grant = %d, want 10", cfg.CreditsPerGrant)
	}
	if cfg.SignedURLExpiry != 30*24*time.Hour {
		t.Fatalf("signed url expiry = %v", cfg.SignedURLExpiry)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Fatalf("read timeout = %v", cfg.HTTPReadTimeout)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUTH_SECRET", "secret")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing DATABASE_URL")
	}
}

func TestLoadConfigRequiresAuthSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/clipcast")
	t.Setenv("AUTH_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing AUTH_SECRET")
	}
}

func TestLoadConfigRequiresBucketForGCS(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_BACKEND", "gcs")
	t.Setenv("GCS_BUCKET_NAME", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for missing GCS_BUCKET_NAME")
	}

	t.Setenv("GCS_BUCKET_NAME", "clipcast-assets")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.GCSBucket != "clipcast-assets" {
		t.Fatalf("bucket = %q", cfg.GCSBucket)
	}
}

func TestLoadConfigIgnoresMalformedInts(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_READ_TIMEOUT_SECONDS", "not-a-number")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPReadTimeout != 15*time.Second {
		t.Fatalf("read timeout = %v, want default", cfg.HTTPReadTimeout)
	}
}
