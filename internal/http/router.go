package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/contacthub/internal/auth"
	"github.com/geocoder89/contacthub/internal/avatar"
	"github.com/geocoder89/contacthub/internal/config"
	"github.com/geocoder89/contacthub/internal/http/handlers"
	"github.com/geocoder89/contacthub/internal/http/middlewares"
	"github.com/geocoder89/contacthub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserStore is whichever backend got wired: file by default, postgres when
// configured.
type UserStore interface {
	handlers.UserReader
	handlers.UserWriter
}

type Deps struct {
	Users    UserStore
	Contacts handlers.ContactsStore
	Avatars  avatar.Store
	Queue    handlers.WelcomeEnqueuer // nil when redis is not configured
	Prom     *observability.Prom      // nil in tests
	Ready    func() error             // nil means always ready
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(10 << 20)) // avatars ride in this body too
	r.Use(otelgin.Middleware("contacthub"))

	if deps.Prom != nil {
		r.Use(deps.Prom.HTTPMetrics())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health
	h := handlers.NewHealthHandler(deps.Ready)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())
	authn := middlewares.NewAuthMiddleware(jwtManager)

	var recordEnqueue func(string)
	if deps.Prom != nil {
		recordEnqueue = func(jobType string) {
			deps.Prom.JobsEnqueued.WithLabelValues(jobType).Inc()
		}
	}

	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Users, jwtManager, deps.Avatars, deps.Queue, log, recordEnqueue)
	contactsHandler := handlers.NewContactsHandler(deps.Contacts, log)

	// credential endpoints are rate limited by client IP
	credLimiter := middlewares.NewRateLimiter(10, time.Minute)

	users := r.Group("/users")
	{
		users.POST("/register", credLimiter.Middleware(), usersHandler.Register)
		users.POST("/login", credLimiter.Middleware(), usersHandler.Login)
		users.GET("/current", authn.RequireAuth(), usersHandler.Current)
		users.POST("/logout", authn.RequireAuth(), usersHandler.Logout)
		users.PATCH("/avatars", authn.RequireAuth(), usersHandler.UpdateAvatar)
	}

	r.GET("/contacts", contactsHandler.List)
	r.GET("/contacts/:id", contactsHandler.GetByID)
	r.POST("/contacts", contactsHandler.Add)
	r.PUT("/contacts/:id", contactsHandler.Update)
	r.DELETE("/contacts/:id", contactsHandler.Delete)

	// disk-backed avatars are served straight from the upload dir
	if cfg.AvatarBucket == "" {
		r.Static("/avatars", cfg.AvatarDir)
	}

	return r
}
