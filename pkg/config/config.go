package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env             string
	Port            int
	APIPrefix       string
	ShutdownTimeout time.Duration

	Database     DatabaseConfig
	Redis        RedisConfig
	CORS         CORSConfig
	Log          LogConfig
	Metrics      MetricsConfig
	Reports      ReportsConfig
	Distribution DistributionConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
}

// ReportsConfig holds the institutional branding printed on every report
// plus the labels used when the roster does not provide shift or level.
type ReportsConfig struct {
	InstitutionName string
	SystemTitle     string
	ReportTitle     string
	DocumentCode    string
	DocumentVersion string
	UpdatedOn       string
	Heading         string
	DefaultShift    string
	DefaultLevel    string
	BrandingFile    string
	SheetName       string
	CompressPDF     bool
}

// DistributionConfig governs caching of grade distribution lookups.
type DistributionConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 15*time.Second)

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	cfg.Reports = ReportsConfig{
		InstitutionName: v.GetString("REPORTS_INSTITUTION_NAME"),
		SystemTitle:     v.GetString("REPORTS_SYSTEM_TITLE"),
		ReportTitle:     v.GetString("REPORTS_REPORT_TITLE"),
		DocumentCode:    v.GetString("REPORTS_DOCUMENT_CODE"),
		DocumentVersion: v.GetString("REPORTS_DOCUMENT_VERSION"),
		UpdatedOn:       v.GetString("REPORTS_UPDATED_ON"),
		Heading:         v.GetString("REPORTS_HEADING"),
		DefaultShift:    v.GetString("REPORTS_DEFAULT_SHIFT"),
		DefaultLevel:    v.GetString("REPORTS_DEFAULT_LEVEL"),
		BrandingFile:    v.GetString("REPORTS_BRANDING_FILE"),
		SheetName:       v.GetString("REPORTS_SHEET_NAME"),
		CompressPDF:     v.GetBool("REPORTS_PDF_COMPRESS"),
	}

	cfg.Distribution = DistributionConfig{
		CacheEnabled: v.GetBool("ENABLE_DISTRIBUTION_CACHE"),
		CacheTTL:     parseDuration(v.GetString("DISTRIBUTION_CACHE_TTL"), 10*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("REPORTS_INSTITUTION_NAME", "Gimnasio Loris Malaguzzi")
	v.SetDefault("REPORTS_SYSTEM_TITLE", "SISTEMA DE GESTION DE CALIDAD")
	v.SetDefault("REPORTS_REPORT_TITLE", "INFORME ACADÉMICO")
	v.SetDefault("REPORTS_DOCUMENT_CODE", "GEC11-P02-F03")
	v.SetDefault("REPORTS_DOCUMENT_VERSION", "3.0")
	v.SetDefault("REPORTS_UPDATED_ON", "marzo 30 de 2021")
	v.SetDefault("REPORTS_HEADING", "INFORME VALORATIVO DEL RENDIMIENTO ACADÉMICO")
	v.SetDefault("REPORTS_DEFAULT_SHIFT", "Morning")
	v.SetDefault("REPORTS_DEFAULT_LEVEL", "Primary")
	v.SetDefault("REPORTS_BRANDING_FILE", "")
	v.SetDefault("REPORTS_SHEET_NAME", "Academic Report")
	v.SetDefault("REPORTS_PDF_COMPRESS", true)

	v.SetDefault("ENABLE_DISTRIBUTION_CACHE", false)
	v.SetDefault("DISTRIBUTION_CACHE_TTL", "10m")
}

// viper reports a missing explicit config file as a path error rather than
// ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
