package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	p := Default()
	require.Equal(t, "America/New_York", p.Timezone)
	require.Equal(t, 6, p.WorkStartHour)
	require.Equal(t, 23, p.WorkEndHour)
	require.Equal(t, "Holidays", p.HolidayCalendarTitle)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TIMEZONE", "Europe/Paris")
	t.Setenv("CALBRIDGE_BASE", "http://localhost:9000")
	t.Setenv("OLLAMA_MODEL", "mistral")

	p := Default()
	p.FromEnv()

	require.Equal(t, "Europe/Paris", p.Timezone)
	require.Equal(t, "http://localhost:9000", p.CalBridgeBase)
	require.Equal(t, "mistral", p.OllamaModel)
}

func TestFromEnvLeavesDefaultsWhenUnset(t *testing.T) {
	p := Default()
	p.FromEnv()
	require.Equal(t, "llama3.1", p.OllamaModel)
}
