package http

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/trade-journal-api/internal/application/auth"
	"github.com/trade-journal-api/internal/application/notification"
	"github.com/trade-journal-api/internal/application/otp"
	"github.com/trade-journal-api/internal/config"
	"github.com/trade-journal-api/internal/transport/http/handler"
	appmiddleware "github.com/trade-journal-api/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		// Browsers refuse credentials with a wildcard origin.
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
		MaxAge:           300,
	}))

	limit := func(next http.Handler) http.Handler { return next }
	if deps.Limiter != nil {
		limit = deps.Limiter.Limit
	}

	engineOpts := []otp.Option{otp.WithTTL(cfg.OTPTTL)}
	if deps.Clock != nil {
		engineOpts = append(engineOpts, otp.WithClock(deps.Clock))
	}
	engine := otp.NewEngine(deps.OTPRepo, deps.UserRepo, engineOpts...)

	notifier := notification.NewService(deps.Mailer, deps.SMSSender, cfg.OTPTTL)

	authSvc := auth.NewService(auth.ServiceDeps{
		UserRepo:     deps.UserRepo,
		OTPEngine:    engine,
		Notifier:     notifier,
		JWTProvider:  deps.JWTProvider,
		DemoFallback: cfg.OTPDemoFallback,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, handler.CookieOptions{
		MaxAge: deps.JWTProvider.Expiry(),
		Secure: cfg.IsProduction(),
	})

	r.Get("/health-check/{action}", healthH.Ping)

	r.Route("/auth", func(r chi.Router) {
		r.With(limit).Post("/login", authH.Login)
		r.With(limit).Post("/resend-otp", authH.ResendOTP)
		r.With(limit).Post("/verify-otp", authH.VerifyOTP)
		r.Post("/logout", authH.Logout)

		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Session(deps.JWTProvider))
			r.Get("/me", authH.Me)
		})
	})

	return r
}
