package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/paylink/internal"
	"github.com/frahmantamala/paylink/internal/auth"
	"github.com/frahmantamala/paylink/internal/moderation"
	"github.com/frahmantamala/paylink/internal/payment"
	"github.com/frahmantamala/paylink/internal/paymentlink"
	"github.com/frahmantamala/paylink/internal/transport/middleware"
	"github.com/frahmantamala/paylink/internal/transport/openapi"
	"github.com/frahmantamala/paylink/internal/transport/swagger"
	"github.com/frahmantamala/paylink/internal/user"
)

// Routes holds everything the router mounts. Nil handlers leave their routes unregistered.
type Routes struct {
	Health         *HealthHandler
	Sessions       auth.SessionResolver
	Guard          *auth.Guard
	Auth           *auth.Handler
	User           *user.Handler
	Links          *paymentlink.Handler
	Payments       *payment.Handler
	Moderation     *moderation.Handler
	OpenAPI        *openapi.Document
	AssetsDir      string
	AllowedOrigins []string
	Logger         *slog.Logger
}

func RegisterAllRoutes(router chi.Router, rt Routes) {
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.RecoveryMiddleware(rt.Logger))
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.CORS(rt.AllowedOrigins))
	if rt.Sessions != nil {
		router.Use(auth.SessionMiddleware(rt.Sessions))
		router.Use(middleware.SessionFields)
	}

	if rt.OpenAPI != nil {
		router.Get(swagger.SpecPath, rt.OpenAPI.ServeYAML)
		router.Get("/openapi.json", rt.OpenAPI.ServeJSON)
		router.Handle("/swagger/*", swagger.Handler())
	}

	if rt.AssetsDir != "" {
		router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(rt.AssetsDir))))
	}

	router.Route("/api/v1", func(r chi.Router) {
		if rt.Health != nil {
			r.Get("/ping", rt.Health.Ping)
			r.Get("/health", rt.Health.Health)
		}

		if rt.Auth != nil {
			r.Route("/auth", func(ar chi.Router) {
				ar.Post("/register", rt.Auth.Register)
				ar.Post("/login", rt.Auth.Login)
				ar.Post("/refresh", rt.Auth.RefreshToken)
				ar.Post("/logout", rt.Auth.Logout)
			})
		}

		// buyer surface, no session required
		r.Route("/pay/{slug}", func(pr chi.Router) {
			if rt.Links != nil {
				pr.Get("/", rt.Links.GetPublicLink)
			}
			if rt.Payments != nil {
				pr.Post("/payments", rt.Payments.SubmitPayment)
			}
		})

		if rt.Guard == nil {
			return
		}

		r.Group(func(ur chi.Router) {
			ur.Use(rt.Guard.RequireRole(internal.RoleUser))
			if rt.User != nil {
				ur.Get("/users/me", rt.User.GetCurrentUser)
			}
			if rt.Links != nil {
				ur.Post("/links/quote", rt.Links.Quote)
				ur.Post("/links", rt.Links.CreateLink)
				ur.Get("/links", rt.Links.ListLinks)
				ur.Delete("/links/{id}", rt.Links.DeleteLink)
			}
		})

		r.Group(func(admin chi.Router) {
			admin.Use(rt.Guard.RequireRole(internal.RoleAdmin))
			if rt.Moderation != nil {
				admin.Get("/links/{id}/payments", rt.Moderation.ListLinkPayments)
				admin.Get("/payments", rt.Moderation.ListPayments)
				admin.Patch("/payments/{id}/status", rt.Moderation.SetStatus)
				admin.Delete("/payments/{id}", rt.Moderation.DeletePayment)
			}
		})
	})
}
