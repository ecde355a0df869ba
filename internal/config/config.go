// Package config loads the application configuration from the environment.
//
// WHY A CONFIG STRUCT?
// Reading os.Getenv scattered across the codebase makes components depend on
// ambient process state, which is impossible to test without mutating the
// environment. Instead, we read the environment exactly once at startup into
// an explicit Config value, and every component receives the fields it needs
// through its constructor. Component behaviour becomes a pure function of
// its inputs plus this struct.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every runtime option the server recognises.
type Config struct {
	Port   int    // HTTP listen port (PORT, default 8080)
	DBPath string // SQLite database file (DB_PATH, default data/quickcal.db)

	// Google OAuth client configuration. All three must be set for the
	// authentication endpoints to work; if any is missing the auth routes
	// respond with a configuration error rather than crashing the process.
	GoogleClientID     string // GOOGLE_CLIENT_ID
	GoogleClientSecret string // GOOGLE_CLIENT_SECRET
	GoogleRedirectURL  string // GOOGLE_REDIRECT_URL (the /oauth2callback URL)

	// JWTSecret signs the short-lived bearer tokens this backend issues.
	// Must be at least 16 characters; generate with `openssl rand -hex 32`.
	JWTSecret string // JWT_SECRET

	// FrontendURL is where the callback and logout handlers redirect the
	// browser. When empty, the callback renders the token as HTML instead
	// (the extension popup flow, where the user pastes the token manually).
	FrontendURL string // FRONTEND_URL

	// AllowedOrigins is the CORS allowlist for the frontend / extension.
	// Comma-separated. Empty means same-origin only.
	AllowedOrigins []string // ALLOWED_ORIGINS

	// OCR settings. Extraction is off by default: when disabled, uploaded
	// images are simply ignored and the manual form fields are used.
	OCREnabled   bool   // OCR_ENABLED ("true"/"1" to enable)
	TesseractCmd string // TESSERACT_CMD (default "tesseract")

	// EventTimeZone is the fixed IANA time zone attached to created events.
	EventTimeZone string // EVENT_TIME_ZONE (default "UTC")
}

// Load reads the environment (and an optional .env file) into a Config.
//
// A missing .env file is not an error — in production configuration comes
// from real environment variables; .env is a development convenience.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:               8080,
		DBPath:             "data/quickcal.db",
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		FrontendURL:        os.Getenv("FRONTEND_URL"),
		TesseractCmd:       "tesseract",
		EventTimeZone:      "UTC",
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if v := os.Getenv("OCR_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid OCR_ENABLED %q: %w", v, err)
		}
		cfg.OCREnabled = enabled
	}

	if v := os.Getenv("TESSERACT_CMD"); v != "" {
		cfg.TesseractCmd = v
	}

	if v := os.Getenv("EVENT_TIME_ZONE"); v != "" {
		cfg.EventTimeZone = v
	}

	return cfg, nil
}

// GoogleConfigured reports whether all three OAuth client settings are
// present. The auth endpoints check this and fail with a configuration
// error instead of redirecting to a half-built consent URL.
func (c Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}
