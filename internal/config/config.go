package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	WeatherAPI struct {
		APIKey         string
		BaseURL        string
		GeoURL         string
		RequestTimeout time.Duration
	}

	Display struct {
		DefaultUnit models.Unit
	}

	Cache struct {
		Backend         string
		Duration        time.Duration
		MaxSize         int
		CleanupSchedule string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Map struct {
		CenterLat float64
		CenterLon float64
		Zoom      int
	}

	Locations []models.Place
}

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// DefaultLocations backs the quick-select list when QUICK_LOCATIONS is unset.
var DefaultLocations = []models.Place{
	{Name: "Hyderabad", Lat: 17.0725, Lon: 78.5777},
	{Name: "Buffalo", Lat: 42.8867, Lon: -78.8784},
	{Name: "Niagara Falls", Lat: 43.0844, Lon: -79.0615},
	{Name: "New York", Lat: 40.7128, Lon: -74.0060},
	{Name: "London", Lat: 51.5074, Lon: -0.1278},
	{Name: "Tokyo", Lat: 35.6762, Lon: 139.6503},
	{Name: "Paris", Lat: 48.8566, Lon: 2.3522},
	{Name: "Sydney", Lat: -33.8688, Lon: 151.2093},
}

func LoadConfig() (*Config, error) {
	// Load secrets file if exists
	secretsFile := getEnv("SECRETS_FILE", ".env")
	if err := godotenv.Load(secretsFile); err != nil {
		zap.L().Info("No secrets file found, using environment variables",
			zap.String("file", secretsFile))
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("READ_TIMEOUT", "10s"), 10*time.Second)
	cfg.Server.WriteTimeout = parseDuration(getEnv("WRITE_TIMEOUT", "30s"), 30*time.Second)
	cfg.Server.LogLevel = getEnv("LOG_LEVEL", "info")

	// Weather API configuration
	apiKey, err := loadAPIKey()
	if err != nil {
		return nil, err
	}
	cfg.WeatherAPI.APIKey = apiKey
	cfg.WeatherAPI.BaseURL = getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	cfg.WeatherAPI.GeoURL = getEnv("OPENWEATHER_GEO_URL", "https://api.openweathermap.org/geo/1.0")
	cfg.WeatherAPI.RequestTimeout = parseDuration(getEnv("REQUEST_TIMEOUT", "10s"), 10*time.Second)

	// Display configuration
	switch unit := strings.ToLower(getEnv("DEFAULT_UNITS", "celsius")); unit {
	case "celsius", "c", "metric":
		cfg.Display.DefaultUnit = models.Celsius
	case "fahrenheit", "f", "imperial":
		cfg.Display.DefaultUnit = models.Fahrenheit
	default:
		return nil, fmt.Errorf("invalid DEFAULT_UNITS %q", unit)
	}

	// Cache configuration
	cfg.Cache.Backend = strings.ToLower(getEnv("CACHE_BACKEND", CacheMemory))
	switch cfg.Cache.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		return nil, fmt.Errorf("invalid CACHE_BACKEND %q", cfg.Cache.Backend)
	}
	cfg.Cache.Duration = parseDuration(getEnv("CACHE_TTL", "30m"), 30*time.Minute)
	cfg.Cache.MaxSize = parseInt(getEnv("MAX_CACHE_SIZE", "1000"), 1000)
	cfg.Cache.CleanupSchedule = getEnv("CACHE_CLEANUP_SCHEDULE", "@every 1m")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"), 3)
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"), 30*time.Second)

	// Map configuration
	cfg.Map.CenterLat = parseFloat(getEnv("MAP_CENTER_LAT", "20"), 20)
	cfg.Map.CenterLon = parseFloat(getEnv("MAP_CENTER_LON", "0"), 0)
	cfg.Map.Zoom = parseInt(getEnv("MAP_ZOOM", "2"), 2)

	cfg.Locations = DefaultLocations
	if raw := os.Getenv("QUICK_LOCATIONS"); raw != "" {
		locs, err := ParseLocations(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid QUICK_LOCATIONS: %w", err)
		}
		cfg.Locations = locs
	}

	return cfg, nil
}

// loadAPIKey reads OPENWEATHER_API_KEY, falling back to the file named by
// OPENWEATHER_API_KEY_FILE.
func loadAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv("OPENWEATHER_API_KEY")); key != "" {
		return key, nil
	}
	if path := os.Getenv("OPENWEATHER_API_KEY_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading OPENWEATHER_API_KEY_FILE: %w", err)
		}
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("please set the OPENWEATHER_API_KEY environment variable")
}

// ParseLocations parses "Name:lat:lon;Name:lat:lon".
func ParseLocations(raw string) ([]models.Place, error) {
	var places []models.Place
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("location %q: expected Name:lat:lon", item)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("location %q: invalid latitude", item)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("location %q: invalid longitude", item)
		}
		places = append(places, models.Place{Name: strings.TrimSpace(parts[0]), Lat: lat, Lon: lon})
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("no locations")
	}
	return places, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return duration
}

func parseInt(value string, fallback int) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return intValue
}

func parseFloat(value string, fallback float64) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return fallback
	}
	return floatValue
}
