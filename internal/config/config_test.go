package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

// isolate points SECRETS_FILE at a missing file so a developer's .env does
// not leak into the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("SECRETS_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("OPENWEATHER_API_KEY", "")
	t.Setenv("OPENWEATHER_API_KEY_FILE", "")
	t.Setenv("QUICK_LOCATIONS", "")
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("OPENWEATHER_API_KEY", "abc123")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.WeatherAPI.APIKey != "abc123" {
		t.Errorf("api key = %q", cfg.WeatherAPI.APIKey)
	}
	if cfg.Cache.Duration != 30*time.Minute {
		t.Errorf("cache ttl = %v, want 30m", cfg.Cache.Duration)
	}
	if cfg.Display.DefaultUnit != models.Celsius {
		t.Errorf("default unit = %s", cfg.Display.DefaultUnit)
	}
	if cfg.Map.Zoom != 2 || cfg.Map.CenterLat != 20 {
		t.Errorf("map = %+v", cfg.Map)
	}
	if len(cfg.Locations) != len(DefaultLocations) {
		t.Errorf("got %d quick locations", len(cfg.Locations))
	}
}

func TestLoadConfigRequiresAPIKey(t *testing.T) {
	isolate(t)
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestLoadConfigFromSecretsFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "secrets.env")
	if err := os.WriteFile(path, []byte("OPENWEATHER_API_KEY=from-file\nDEFAULT_UNITS=imperial\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SECRETS_FILE", path)
	// godotenv never overrides variables that are already set, so unset them.
	os.Unsetenv("OPENWEATHER_API_KEY")
	t.Cleanup(func() { os.Unsetenv("DEFAULT_UNITS") })

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.WeatherAPI.APIKey != "from-file" {
		t.Errorf("api key = %q", cfg.WeatherAPI.APIKey)
	}
	if cfg.Display.DefaultUnit != models.Fahrenheit {
		t.Errorf("default unit = %s", cfg.Display.DefaultUnit)
	}
}

func TestLoadConfigAPIKeyFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte("  secret-key\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENWEATHER_API_KEY_FILE", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.WeatherAPI.APIKey != "secret-key" {
		t.Errorf("api key = %q", cfg.WeatherAPI.APIKey)
	}
}

func TestLoadConfigRejectsBadBackend(t *testing.T) {
	isolate(t)
	t.Setenv("OPENWEATHER_API_KEY", "k")
	t.Setenv("CACHE_BACKEND", "memcached")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for unknown cache backend")
	}
}

func TestParseLocations(t *testing.T) {
	locs, err := ParseLocations("Oslo:59.91:10.75; Lima:-12.04:-77.03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 2 || locs[1].Name != "Lima" || locs[1].Lon != -77.03 {
		t.Errorf("got %+v", locs)
	}

	for _, bad := range []string{"Oslo", "Oslo:95:10", "Oslo:59:abc", " ; "} {
		if _, err := ParseLocations(bad); err == nil {
			t.Errorf("ParseLocations(%q) should fail", bad)
		}
	}
}
