// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// MinSessionKeyLength is enforced outside dev.
const MinSessionKeyLength = 32

// appConfigKeys defines the configuration keys for SYNAPSE.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: SYNAPSE_MONGO_URI, SYNAPSE_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "http_addr", Default: ":8080", Desc: "HTTP listen address"},
	{Name: "log_level", Default: "info", Desc: "Log level: debug, info, warn or error"},

	// Storage
	{Name: "store_backend", Default: BackendMongo, Desc: "Store backend: 'mongo' or 'memory'"},
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "synapse", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Sessions and tokens
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "synapse-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime"},
	{Name: "jwt_secret", Default: "", Desc: "Bearer token signing secret (blank disables POST /auth/token)"},
	{Name: "jwt_ttl", Default: "24h", Desc: "Bearer token lifetime"},
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL for invite links and OAuth callbacks"},
	{Name: "cors_origins", Default: "http://localhost:3000", Desc: "Comma-separated allowed CORS origins"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Audit
	{Name: "audit_log", Default: auditlog.ModeLog, Desc: "Refused group and invite operations: 'log' or 'off'"},

	// Mail
	{Name: "mail_provider", Default: MailLog, Desc: "Mail provider: 'smtp', 'resend' or 'log'"},
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port (STARTTLS is required unless mail_smtp_ssl is set or the port is 465)"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_smtp_ssl", Default: false, Desc: "Use implicit TLS instead of STARTTLS"},
	{Name: "mail_from", Default: "noreply@synapse.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "SYNAPSE", Desc: "From display name"},
	{Name: "resend_api_key", Default: "", Desc: "Resend API key"},
	{Name: "resend_base_url", Default: "https://api.resend.com", Desc: "Resend API base URL"},

	// Completion
	{Name: "completion_base_url", Default: "https://api.openai.com/v1", Desc: "OpenAI-compatible API base URL"},
	{Name: "completion_api_key", Default: "", Desc: "Completion API key"},
	{Name: "completion_model", Default: "gpt-4o-mini", Desc: "Completion model"},
	{Name: "completion_max_tokens", Default: 4096, Desc: "Max tokens per reply"},
	{Name: "completion_temperature", Default: "0.7", Desc: "Sampling temperature"},
	{Name: "completion_referer", Default: "", Desc: "HTTP-Referer sent to OpenRouter"},
	{Name: "completion_title", Default: "SYNAPSE AI", Desc: "X-Title sent to OpenRouter"},
	{Name: "completion_tools", Default: true, Desc: "Offer web_search and show_stock_chart tools"},

	// Image generation
	{Name: "image_base_url", Default: "https://api.openai.com/v1", Desc: "Image generation API base URL"},
	{Name: "image_api_key", Default: "", Desc: "Image generation API key (blank disables images)"},
	{Name: "image_model", Default: "dall-e-3", Desc: "Image generation model"},

	// Web search
	{Name: "searchapi_base_url", Default: "https://www.searchapi.io/api/v1", Desc: "SearchAPI.io base URL"},
	{Name: "searchapi_key", Default: "", Desc: "SearchAPI.io key"},

	// Limits and timeouts
	{Name: "chat_rate_limit", Default: 20, Desc: "Chat sends allowed per user per window"},
	{Name: "chat_rate_window", Default: "1m", Desc: "Chat rate limit window"},
	{Name: "contact_rate_limit", Default: 5, Desc: "Contact submissions allowed per IP per window"},
	{Name: "contact_rate_window", Default: "10m", Desc: "Contact rate limit window"},
	{Name: "invite_default_days", Default: 7, Desc: "Default invite lifetime in days"},
	{Name: "upstream_timeout", Default: "60s", Desc: "Timeout for completion, image and search calls"},
	{Name: "state_cleanup_every", Default: "5m", Desc: "How often expired OAuth states are removed"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SYNAPSE_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SYNAPSE", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	temp, err := strconv.ParseFloat(strings.TrimSpace(appValues.String("completion_temperature")), 64)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("completion_temperature: %w", err)
	}

	appCfg := AppConfig{
		HTTPAddr: appValues.String("http_addr"),
		LogLevel: appValues.String("log_level"),

		StoreBackend:     strings.ToLower(strings.TrimSpace(appValues.String("store_backend"))),
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),
		JWTSecret:     appValues.String("jwt_secret"),
		JWTTTL:        appValues.Duration("jwt_ttl", 24*time.Hour),
		BaseURL:       appValues.String("base_url"),
		CORSOrigins:   splitList(appValues.String("cors_origins")),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		AuditLogMode: strings.ToLower(strings.TrimSpace(appValues.String("audit_log"))),

		MailProvider:  strings.ToLower(strings.TrimSpace(appValues.String("mail_provider"))),
		MailSMTPHost:  appValues.String("mail_smtp_host"),
		MailSMTPPort:  appValues.Int("mail_smtp_port"),
		MailSMTPUser:  appValues.String("mail_smtp_user"),
		MailSMTPPass:  appValues.String("mail_smtp_pass"),
		MailSMTPSSL:   appValues.Bool("mail_smtp_ssl"),
		MailFrom:      appValues.String("mail_from"),
		MailFromName:  appValues.String("mail_from_name"),
		ResendAPIKey:  appValues.String("resend_api_key"),
		ResendBaseURL: appValues.String("resend_base_url"),

		CompletionBaseURL:     appValues.String("completion_base_url"),
		CompletionAPIKey:      appValues.String("completion_api_key"),
		CompletionModel:       appValues.String("completion_model"),
		CompletionMaxTokens:   appValues.Int("completion_max_tokens"),
		CompletionTemperature: temp,
		CompletionReferer:     appValues.String("completion_referer"),
		CompletionTitle:       appValues.String("completion_title"),
		CompletionTools:       appValues.Bool("completion_tools"),

		ImageBaseURL: appValues.String("image_base_url"),
		ImageAPIKey:  appValues.String("image_api_key"),
		ImageModel:   appValues.String("image_model"),

		SearchAPIBaseURL: appValues.String("searchapi_base_url"),
		SearchAPIKey:     appValues.String("searchapi_key"),

		ChatRateLimit:     appValues.Int("chat_rate_limit"),
		ChatRateWindow:    appValues.Duration("chat_rate_window", time.Minute),
		ContactRateLimit:  appValues.Int("contact_rate_limit"),
		ContactRateWindow: appValues.Duration("contact_rate_window", 10*time.Minute),
		InviteDefaultDays: appValues.Int("invite_default_days"),
		UpstreamTimeout:   appValues.Duration("upstream_timeout", 60*time.Second),
		StateCleanupEvery: appValues.Duration("state_cleanup_every", 5*time.Minute),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI format is checked before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.StoreBackend {
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if strings.TrimSpace(appCfg.MongoDatabase) == "" {
			return fmt.Errorf("mongo_database is required")
		}
	case BackendMemory:
		logger.Warn("using the in-memory store; data is lost on restart")
	default:
		return fmt.Errorf("store_backend must be %q or %q, got %q", BackendMongo, BackendMemory, appCfg.StoreBackend)
	}

	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if len(appCfg.SessionKey) < MinSessionKeyLength && !isDev(coreCfg) {
		return fmt.Errorf("session_key must be at least %d characters outside dev", MinSessionKeyLength)
	}

	switch appCfg.MailProvider {
	case MailLog:
	case MailSMTP:
		if appCfg.MailSMTPHost == "" || appCfg.MailSMTPPort <= 0 {
			return fmt.Errorf("mail_provider smtp requires mail_smtp_host and mail_smtp_port")
		}
	case MailResend:
		if appCfg.ResendAPIKey == "" {
			return fmt.Errorf("mail_provider resend requires resend_api_key")
		}
	default:
		return fmt.Errorf("mail_provider must be smtp, resend or log, got %q", appCfg.MailProvider)
	}
	if appCfg.MailProvider != MailLog && appCfg.MailFrom == "" {
		return fmt.Errorf("mail_from is required when mail is delivered")
	}

	switch appCfg.AuditLogMode {
	case "", auditlog.ModeLog, auditlog.ModeOff:
	default:
		return fmt.Errorf("audit_log must be %q or %q, got %q", auditlog.ModeLog, auditlog.ModeOff, appCfg.AuditLogMode)
	}

	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}
	if appCfg.ChatRateLimit < 0 || appCfg.ContactRateLimit < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	return nil
}

func isDev(coreCfg *config.CoreConfig) bool {
	return coreCfg == nil || coreCfg.Env == "dev"
}
