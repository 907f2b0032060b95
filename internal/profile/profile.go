// Package profile holds the process-wide configuration for calscribe,
// loaded from environment variables and CLI flags.
package profile

import (
	"os"
	"time"
)

// Profile is the runtime configuration for a calscribe invocation.
type Profile struct {
	// Timezone is the IANA zone all pipeline stages resolve times in.
	Timezone string
	// DBPath is the path to the SQLite store.
	DBPath string

	// CalBridgeBase is the base URL of the calendar backend HTTP API.
	CalBridgeBase string
	// CalBridgeTimeout bounds every calendar backend HTTP call.
	CalBridgeTimeout time.Duration

	// OllamaBase is the base URL of the LLM backend.
	OllamaBase string
	// OllamaModel is the model name passed to the LLM backend.
	OllamaModel string
	// OllamaAPIKey is sent as a bearer token if the LLM backend requires one.
	OllamaAPIKey string
	// LLMTimeout bounds every SE/AR/TD/LD LLM call.
	LLMTimeout time.Duration

	// HolidayCalendarTitle names the calendar excluded from busy-time
	// computation (spec.md §9: configurable, defaults to "Holidays").
	HolidayCalendarTitle string

	// WorkStartHour and WorkEndHour bound the scheduler's daily work window.
	WorkStartHour int
	WorkEndHour   int
}

// Default returns the baseline configuration before env/flag overrides.
func Default() *Profile {
	return &Profile{
		Timezone:             "America/New_York",
		DBPath:               "calscribe.db",
		CalBridgeBase:        "http://127.0.0.1:8765",
		CalBridgeTimeout:     10 * time.Second,
		OllamaBase:           "http://127.0.0.1:11434",
		OllamaModel:          "llama3.1",
		LLMTimeout:           60 * time.Second,
		HolidayCalendarTitle: "Holidays",
		WorkStartHour:        6,
		WorkEndHour:          23,
	}
}

// FromEnv overlays environment variables onto the profile. Unset variables
// leave the existing value (caller should start from Default()).
func (p *Profile) FromEnv() {
	p.Timezone = getEnvOrDefault("TIMEZONE", p.Timezone)
	p.CalBridgeBase = getEnvOrDefault("CALBRIDGE_BASE", p.CalBridgeBase)
	p.OllamaBase = getEnvOrDefault("OLLAMA_BASE", p.OllamaBase)
	p.OllamaModel = getEnvOrDefault("OLLAMA_MODEL", p.OllamaModel)
	p.OllamaAPIKey = getEnvOrDefault("OLLAMA_API_KEY", p.OllamaAPIKey)
	p.HolidayCalendarTitle = getEnvOrDefault("HOLIDAY_CALENDAR", p.HolidayCalendarTitle)
	p.DBPath = getEnvOrDefault("CALSCRIBE_DB_PATH", p.DBPath)
}

// getEnvOrDefault returns the environment variable value or the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
