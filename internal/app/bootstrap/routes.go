// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	authgooglefeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/authgoogle"
	chatsfeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/chats"
	contactfeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/contact"
	groupsfeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/groups"
	healthfeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/health"
	loginfeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/login"
	logoutfeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/logout"
	notificationsfeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/notifications"
	usersfeature "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/features/users"
	chatsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/chats"
	groupsvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/groups"
	invitesvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/invites"
	notifysvc "github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/services/notifications"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auditlog"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/auth"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/completion"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/logging"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/mailer"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/metrics"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/ratelimit"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/websearch"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

const siteName = "SYNAPSE"

// BuildHandler constructs the root HTTP handler (router).
//
// It runs after configuration, DB connections, schema setup, and Startup
// have completed. The returned cleanup stops the background workers and
// limiters started here and must be called once the server has stopped.
//
// Every API lives under /api except authentication (/auth), the health probe
// (/health) and Prometheus metrics (/metrics).
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, func(), error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg != nil && coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, nil, err
	}

	b := newBackend(deps)

	// Reload the user on each request so renamed or removed profiles take
	// effect immediately.
	sessionMgr.WithFetcher(b.Fetcher)
	if appCfg.JWTSecret != "" {
		sessionMgr.WithTokens(appCfg.JWTSecret, appCfg.JWTTTL)
	}

	// Services
	mail := newMailer(appCfg, logger)
	notify := notifysvc.New(b.Notifications, b.Users, logger)
	audit := auditlog.New(logger, auditlog.Config{Mode: appCfg.AuditLogMode})
	groups := groupsvc.New(b.Groups, b.Chats, logger).WithAuditLog(audit)
	invites := invitesvc.New(b.Groups, b.Users, notify, mail, invitesvc.Config{
		BaseURL:     appCfg.BaseURL,
		SiteName:    siteName,
		DefaultDays: appCfg.InviteDefaultDays,
	}, logger).WithAuditLog(audit)
	chats := chatsvc.New(b.Chats, b.Groups, logger).WithAuditLog(audit)

	// Limiters and workers
	chatLimiter := newLimiter(appCfg.ChatRateLimit, appCfg.ChatRateWindow)
	contactLimiter := newLimiter(appCfg.ContactRateLimit, appCfg.ContactRateWindow)
	loginLimiter := ratelimit.NewLoginLimiter()
	stateCleanup := workers.NewStateCleanup(b.States, logger, appCfg.StateCleanupEvery)
	stateCleanup.Start()

	cleanup := func() {
		stateCleanup.Stop()
		loginLimiter.Stop()
		for _, l := range []*ratelimit.Limiter{chatLimiter, contactLimiter} {
			if l != nil {
				l.Stop()
			}
		}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{notificationsfeature.UnreadHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health and metrics (unauthenticated)
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// Authentication: credentials, Google OAuth and logout share /auth.
	authRouter := loginfeature.Routes(loginfeature.NewHandler(sessionMgr, b.Users, loginLimiter, logger), sessionMgr)
	if appCfg.GoogleClientID != "" {
		googleHandler := authgooglefeature.NewHandler(sessionMgr, b.States, b.Users,
			appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
		authRouter.Mount("/google", authgooglefeature.Routes(googleHandler))
	} else {
		logger.Info("Google sign-in disabled (google_client_id not set)")
	}
	authRouter.Mount("/logout", logoutfeature.Routes(logoutfeature.NewHandler(sessionMgr, logger)))
	r.Mount("/auth", authRouter)

	// API
	groupsHandler := groupsfeature.NewHandler(groups, invites, logger)
	chatsHandler := chatsfeature.NewHandler(chats, completionConfig(appCfg, logger), chatLimiter, logger)

	r.Route("/api", func(api chi.Router) {
		api.Mount("/groups", groupsfeature.Routes(groupsHandler, sessionMgr))
		api.Mount("/invites", groupsfeature.InviteRoutes(groupsHandler, sessionMgr))
		api.Mount("/chat", chatsfeature.Routes(chatsHandler, sessionMgr))
		api.Mount("/chats", chatsfeature.ListRoutes(chatsHandler, sessionMgr))
		api.Mount("/notifications", notificationsfeature.Routes(notificationsfeature.NewHandler(notify, logger), sessionMgr))
		api.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(b.Users, logger), sessionMgr))
		api.Mount("/contact", contactfeature.Routes(contactfeature.NewHandler(b.Contacts, logger), contactLimiter))
	})

	logger.Info("routes mounted",
		zap.String("store", appCfg.StoreBackend),
		zap.Bool("google", appCfg.GoogleClientID != ""),
		zap.Bool("tokens", sessionMgr.TokensEnabled()),
		zap.String("mail", appCfg.MailProvider))

	return r, cleanup, nil
}

// newLimiter returns nil, meaning unlimited, when limit is zero.
func newLimiter(limit int, window time.Duration) *ratelimit.Limiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return ratelimit.New(limit, window)
}

// newMailer picks the delivery backend. Anything other than smtp or resend
// logs messages instead of sending them.
func newMailer(appCfg AppConfig, logger *zap.Logger) *mailer.Mailer {
	var sender mailer.Sender
	switch appCfg.MailProvider {
	case MailSMTP:
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:    appCfg.MailSMTPHost,
			Port:    appCfg.MailSMTPPort,
			User:    appCfg.MailSMTPUser,
			Pass:    appCfg.MailSMTPPass,
			UseSSL:  appCfg.MailSMTPSSL,
			Timeout: timeouts.Medium(),
		})
	case MailResend:
		sender = mailer.NewResendSender(appCfg.ResendBaseURL, appCfg.ResendAPIKey)
	default:
		sender = mailer.NewLogSender(logger)
	}
	return mailer.New(sender, appCfg.MailFrom, appCfg.MailFromName, logger)
}

// completionConfig builds the provider set a chat send runs against. A blank
// key leaves that piece unset so the chat service reports it unconfigured.
func completionConfig(appCfg AppConfig, logger *zap.Logger) completion.Config {
	cfg := completion.Config{
		Model:       appCfg.CompletionModel,
		MaxTokens:   appCfg.CompletionMaxTokens,
		Temperature: appCfg.CompletionTemperature,
		EnableTools: appCfg.CompletionTools,
	}
	if appCfg.CompletionAPIKey != "" {
		cfg.Provider = completion.NewClient(completion.ClientConfig{
			BaseURL: appCfg.CompletionBaseURL,
			APIKey:  appCfg.CompletionAPIKey,
			Referer: appCfg.CompletionReferer,
			Title:   appCfg.CompletionTitle,
			Timeout: timeouts.Upstream(),
		})
	} else {
		logger.Warn("completion_api_key not set; chat replies are disabled")
	}
	if appCfg.ImageAPIKey != "" {
		cfg.Images = completion.NewClient(completion.ClientConfig{
			BaseURL: appCfg.ImageBaseURL,
			APIKey:  appCfg.ImageAPIKey,
			Timeout: timeouts.Upstream(),
		}).WithImageModel(appCfg.ImageModel)
	}
	if appCfg.SearchAPIKey != "" {
		cfg.Search = websearch.New(appCfg.SearchAPIBaseURL, appCfg.SearchAPIKey, timeouts.Upstream())
	}
	return cfg
}
