// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// StoreConfig selects the persistence implementation.
type StoreConfig interface {
	DatabaseConfig
	GetStoreDriver() string
	GetDefaultTenantID() uuid.UUID
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides HTTP server settings.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetWebhookRateLimit() float64
	GetWebhookRateBurst() int
}

// WhatsAppConfig provides WhatsApp Cloud API settings (chat channel A).
type WhatsAppConfig interface {
	GetWhatsAppVerifyToken() string
	GetWhatsAppAccessToken() string
	GetWhatsAppPhoneNumberID() string
	GetWhatsAppAppSecret() string
	GetWhatsAppAPIBaseURL() string
	GetSendTimeout() time.Duration
}

// SMSConfig provides Twilio settings (chat channel B).
type SMSConfig interface {
	GetTwilioAccountSID() string
	GetTwilioAuthToken() string
	GetTwilioFromNumber() string
	GetTwilioAPIBaseURL() string
	GetTwilioWebhookURL() string
	GetSendTimeout() time.Duration
}

// OracleConfig provides classification model settings.
type OracleConfig interface {
	GetOracleAPIKey() string
	GetOracleBaseURL() string
	GetOracleModel() string
	GetOracleTimeout() time.Duration
	GetOracleTemperature() float64
}

// AgentConfig provides the persona and conversation settings of the agent.
type AgentConfig interface {
	GetAgentProfile() AgentProfile
	GetHistoryWindow() int
}

// DedupConfig provides inbound dedup cache settings.
type DedupConfig interface {
	GetDedupBackend() string
	GetDedupMaxEntries() int
	GetDedupRetention() time.Duration
	GetRedisURL() string
}

// SchedulerConfig provides Redis/asynq settings for follow-up delivery.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AuditConfig provides CSV audit log settings.
type AuditConfig interface {
	GetAuditLogDir() string
	GetAuditArchiveInterval() time.Duration
	GetMinioBucketAudit() string
}

// MinIOConfig provides object storage settings.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}

// EmailConfig provides SMTP settings for staff notifications.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// EscalationConfig provides the human handoff destination.
type EscalationConfig interface {
	GetEscalationAddress() string
	GetAgentEmail() string
}

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL     string
	StoreDriver     string
	DefaultTenantID uuid.UUID

	JWTAccessSecret string

	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool
	WebhookRateLimit float64
	WebhookRateBurst int

	WhatsAppVerifyToken   string
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppAppSecret     string
	WhatsAppAPIBaseURL    string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioAPIBaseURL string
	TwilioWebhookURL string

	SendTimeout time.Duration

	OracleAPIKey      string
	OracleBaseURL     string
	OracleModel       string
	OracleTimeout     time.Duration
	OracleTemperature float64

	AgentProfile  AgentProfile
	HistoryWindow int

	DedupBackend    string
	DedupMaxEntries int
	DedupRetention  time.Duration

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	AuditLogDir          string
	AuditArchiveInterval time.Duration
	MinioBucketAudit     string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string

	EscalationAddress string
	AgentEmail        string
}

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
	StoreDriverNone     = "none"
)

// Dedup backends.
const (
	DedupBackendMemory = "memory"
	DedupBackendRedis  = "redis"
)

// Database
func (c *Config) GetDatabaseURL() string        { return c.DatabaseURL }
func (c *Config) GetStoreDriver() string        { return c.StoreDriver }
func (c *Config) GetDefaultTenantID() uuid.UUID { return c.DefaultTenantID }

// JWT
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTP
func (c *Config) GetHTTPAddr() string          { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool        { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string     { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool      { return c.CORSAllowCreds }
func (c *Config) GetWebhookRateLimit() float64 { return c.WebhookRateLimit }
func (c *Config) GetWebhookRateBurst() int     { return c.WebhookRateBurst }

// WhatsApp
func (c *Config) GetWhatsAppVerifyToken() string   { return c.WhatsAppVerifyToken }
func (c *Config) GetWhatsAppAccessToken() string   { return c.WhatsAppAccessToken }
func (c *Config) GetWhatsAppPhoneNumberID() string { return c.WhatsAppPhoneNumberID }
func (c *Config) GetWhatsAppAppSecret() string     { return c.WhatsAppAppSecret }
func (c *Config) GetWhatsAppAPIBaseURL() string    { return c.WhatsAppAPIBaseURL }

// SMS
func (c *Config) GetTwilioAccountSID() string { return c.TwilioAccountSID }
func (c *Config) GetTwilioAuthToken() string  { return c.TwilioAuthToken }
func (c *Config) GetTwilioFromNumber() string { return c.TwilioFromNumber }
func (c *Config) GetTwilioAPIBaseURL() string { return c.TwilioAPIBaseURL }
func (c *Config) GetTwilioWebhookURL() string { return c.TwilioWebhookURL }

func (c *Config) GetSendTimeout() time.Duration { return c.SendTimeout }

// Oracle
func (c *Config) GetOracleAPIKey() string          { return c.OracleAPIKey }
func (c *Config) GetOracleBaseURL() string         { return c.OracleBaseURL }
func (c *Config) GetOracleModel() string           { return c.OracleModel }
func (c *Config) GetOracleTimeout() time.Duration  { return c.OracleTimeout }
func (c *Config) GetOracleTemperature() float64    { return c.OracleTemperature }
func (c *Config) GetAgentProfile() AgentProfile    { return c.AgentProfile }
func (c *Config) GetHistoryWindow() int            { return c.HistoryWindow }
func (c *Config) GetDedupBackend() string          { return c.DedupBackend }
func (c *Config) GetDedupMaxEntries() int          { return c.DedupMaxEntries }
func (c *Config) GetDedupRetention() time.Duration { return c.DedupRetention }

// Scheduler
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Audit
func (c *Config) GetAuditLogDir() string                  { return c.AuditLogDir }
func (c *Config) GetAuditArchiveInterval() time.Duration { return c.AuditArchiveInterval }
func (c *Config) GetMinioBucketAudit() string             { return c.MinioBucketAudit }

// MinIO
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) IsMinIOEnabled() bool      { return c.MinIOEndpoint != "" }

// Email
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// Escalation
func (c *Config) GetEscalationAddress() string { return c.EscalationAddress }
func (c *Config) GetAgentEmail() string        { return c.AgentEmail }

// Load reads configuration from the environment (and an optional .env file).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	databaseURL := getEnv("DATABASE_URL", "")
	storeDriver := strings.ToLower(getEnv("STORE_DRIVER", ""))
	if storeDriver == "" {
		storeDriver = StoreDriverNone
		if databaseURL != "" {
			storeDriver = StoreDriverPostgres
		}
	}

	smtpHost := getEnv("SMTP_HOST", "")

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           databaseURL,
		StoreDriver:           storeDriver,
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		WebhookRateLimit:      mustFloat(getEnv("WEBHOOK_RATE_LIMIT", "20")),
		WebhookRateBurst:      mustInt(getEnv("WEBHOOK_RATE_BURST", "40")),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v20.0"),
		TwilioAccountSID:      getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:       getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber:      getEnv("TWILIO_PHONE_NUMBER", ""),
		TwilioAPIBaseURL:      getEnv("TWILIO_API_BASE_URL", "https://api.twilio.com/2010-04-01"),
		TwilioWebhookURL:      getEnv("TWILIO_WEBHOOK_URL", ""),
		SendTimeout:           mustDuration(getEnv("SEND_TIMEOUT", "10s")),
		OracleAPIKey:          getEnv("ORACLE_API_KEY", getEnv("OPENAI_API_KEY", "")),
		OracleBaseURL:         getEnv("ORACLE_BASE_URL", "https://api.openai.com/v1"),
		OracleModel:           getEnv("ORACLE_MODEL", "gpt-4o-mini"),
		OracleTimeout:         mustDuration(getEnv("ORACLE_TIMEOUT", "10s")),
		OracleTemperature:     mustFloat(getEnv("ORACLE_TEMPERATURE", "0.3")),
		HistoryWindow:         mustInt(getEnv("HISTORY_WINDOW", "20")),
		DedupBackend:          strings.ToLower(getEnv("DEDUP_BACKEND", DedupBackendMemory)),
		DedupMaxEntries:       mustInt(getEnv("DEDUP_MAX_ENTRIES", "10000")),
		DedupRetention:        mustDuration(getEnv("DEDUP_RETENTION", "1h")),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE_NAME", "default"),
		AsynqConcurrency:      mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		AuditLogDir:           getEnv("AUDIT_LOG_DIR", "logs"),
		AuditArchiveInterval:  mustDuration(getEnv("AUDIT_ARCHIVE_INTERVAL", "1h")),
		MinioBucketAudit:      getEnv("MINIO_BUCKET_AUDIT", "audit-logs"),
		MinIOEndpoint:         getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:        getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:        getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:           strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		EmailEnabled:          smtpHost != "",
		SMTPHost:              smtpHost,
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Lead Assistant"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", ""),
		EscalationAddress:     getEnv("ESCALATION_ADDRESS", ""),
		AgentEmail:            getEnv("AGENT_EMAIL", ""),
	}

	tenantRaw := getEnv("DEFAULT_TENANT_ID", "")
	if tenantRaw != "" {
		tenantID, err := uuid.Parse(tenantRaw)
		if err != nil {
			return nil, fmt.Errorf("DEFAULT_TENANT_ID must be a UUID: %w", err)
		}
		cfg.DefaultTenantID = tenantID
	}

	profile, err := LoadAgentProfile(getEnv("AGENT_PROFILE_FILE", ""))
	if err != nil {
		return nil, err
	}
	cfg.AgentProfile = profile

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case StoreDriverMemory, StoreDriverNone:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.DedupBackend == DedupBackendRedis && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when DEDUP_BACKEND is redis")
	}
	if cfg.DedupMaxEntries <= 0 || cfg.DedupRetention <= 0 {
		return nil, fmt.Errorf("DEDUP_MAX_ENTRIES and DEDUP_RETENTION must be positive")
	}
	if cfg.HistoryWindow <= 0 {
		return nil, fmt.Errorf("HISTORY_WINDOW must be positive")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
