package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsCarryReportBranding(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "Gimnasio Loris Malaguzzi", cfg.Reports.InstitutionName)
	assert.Equal(t, "Morning", cfg.Reports.DefaultShift)
	assert.Equal(t, "Primary", cfg.Reports.DefaultLevel)
	assert.Equal(t, "Academic Report", cfg.Reports.SheetName)
	assert.Equal(t, 10*time.Minute, cfg.Distribution.CacheTTL)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("REPORTS_DEFAULT_SHIFT", "Afternoon")
	t.Setenv("DISTRIBUTION_CACHE_TTL", "90s")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, "Afternoon", cfg.Reports.DefaultShift)
	assert.Equal(t, 90*time.Second, cfg.Distribution.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 2*time.Hour, parseDuration("2h", time.Minute))
}
