// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Store backends.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Mail providers.
const (
	MailSMTP   = "smtp"
	MailResend = "resend"
	MailLog    = "log"
)

// AppConfig holds service-specific configuration.
//
// These values come from environment variables (SYNAPSE_*), configuration
// files, or command-line flags (loaded in LoadConfig). Framework-level
// settings such as the environment name live in WAFFLE's CoreConfig.
type AppConfig struct {
	HTTPAddr string // listen address, e.g. ":8080"
	LogLevel string // debug | info | warn | error

	// Storage. "memory" keeps everything in process and is meant for local
	// development and tests.
	StoreBackend     string
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Sessions and tokens
	SessionKey    string        // secret for signing session cookies (must be strong in production)
	SessionName   string        // cookie name
	SessionDomain string        // cookie domain (blank means current host)
	SessionMaxAge time.Duration // cookie lifetime
	JWTSecret     string        // blank disables bearer tokens
	JWTTTL        time.Duration
	BaseURL       string   // public origin used in invite links and OAuth redirects
	CORSOrigins   []string // allowed browser origins for the API

	// Google sign-in (blank disables it)
	GoogleClientID     string
	GoogleClientSecret string

	// Audit logging of refused operations ("log" or "off")
	AuditLogMode string

	// Mail
	MailProvider  string
	MailSMTPHost  string
	MailSMTPPort  int
	MailSMTPUser  string
	MailSMTPPass  string
	MailSMTPSSL   bool
	MailFrom      string
	MailFromName  string
	ResendAPIKey  string
	ResendBaseURL string

	// Completion provider (OpenAI-compatible)
	CompletionBaseURL     string
	CompletionAPIKey      string // blank leaves the assistant unconfigured
	CompletionModel       string
	CompletionMaxTokens   int
	CompletionTemperature float64
	CompletionReferer     string
	CompletionTitle       string
	CompletionTools       bool

	// Image generation (blank key disables it)
	ImageBaseURL string
	ImageAPIKey  string
	ImageModel   string

	// Web search (blank key answers "not configured")
	SearchAPIBaseURL string
	SearchAPIKey     string

	// Limits and timeouts
	ChatRateLimit     int
	ChatRateWindow    time.Duration
	ContactRateLimit  int
	ContactRateWindow time.Duration
	InviteDefaultDays int
	UpstreamTimeout   time.Duration
	StateCleanupEvery time.Duration
}
