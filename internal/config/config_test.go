package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	// Clear anything the developer's shell might have set
	for _, key := range []string{
		"PORT", "DB_PATH", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
		"GOOGLE_REDIRECT_URL", "JWT_SECRET", "FRONTEND_URL",
		"ALLOWED_ORIGINS", "OCR_ENABLED", "TESSERACT_CMD", "EVENT_TIME_ZONE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "data/quickcal.db" {
		t.Errorf("DBPath = %q, want data/quickcal.db", cfg.DBPath)
	}
	if cfg.OCREnabled {
		t.Error("OCREnabled should default to false")
	}
	if cfg.TesseractCmd != "tesseract" {
		t.Errorf("TesseractCmd = %q, want tesseract", cfg.TesseractCmd)
	}
	if cfg.EventTimeZone != "UTC" {
		t.Errorf("EventTimeZone = %q, want UTC", cfg.EventTimeZone)
	}
	if cfg.GoogleConfigured() {
		t.Error("GoogleConfigured() should be false with no client settings")
	}
}

func TestLoad_ParsesEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csecret")
	t.Setenv("GOOGLE_REDIRECT_URL", "https://api.example.com/oauth2callback")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, chrome-extension://abc123")
	t.Setenv("OCR_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if !cfg.GoogleConfigured() {
		t.Error("GoogleConfigured() should be true")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "chrome-extension://abc123" {
		t.Errorf("AllowedOrigins = %v, want two trimmed origins", cfg.AllowedOrigins)
	}
	if !cfg.OCREnabled {
		t.Error("OCREnabled should be true")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("Load() should fail on invalid PORT")
	}

	t.Setenv("PORT", "8080")
	t.Setenv("OCR_ENABLED", "maybe")
	if _, err := Load(); err == nil {
		t.Error("Load() should fail on invalid OCR_ENABLED")
	}
}
