package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PORT", "")
	t.Setenv("FEED_CACHE_TTL_SECONDS", "")
	t.Setenv("DATABASE_URL", "")

	cfg := Load()

	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.StoreDriver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.StoreDriver)
	}
	if cfg.FeedCacheTTL != 5*time.Second {
		t.Fatalf("expected 5s feed cache ttl, got %s", cfg.FeedCacheTTL)
	}
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Fatalf("expected fallback port 8080, got %d", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "dev_with_default_secret",
			cfg:  Config{Env: "dev", StoreDriver: DriverMemory, JWTSecret: defaultJWTSecret},
		},
		{
			name:    "prod_with_default_secret",
			cfg:     Config{Env: "prod", StoreDriver: DriverPostgres, JWTSecret: defaultJWTSecret},
			wantErr: true,
		},
		{
			name: "prod_with_long_secret",
			cfg:  Config{Env: "prod", StoreDriver: DriverMongo, JWTSecret: "0123456789abcdef0123456789abcdef"},
		},
		{
			name:    "unknown_driver",
			cfg:     Config{Env: "dev", StoreDriver: "cassandra", JWTSecret: "x"},
			wantErr: true,
		},
		{
			name:    "empty_secret",
			cfg:     Config{Env: "dev", StoreDriver: DriverMemory},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}
