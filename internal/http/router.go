package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/spendflow/spendflow/internal/http/analytics"
	"github.com/spendflow/spendflow/internal/http/approval"
	"github.com/spendflow/spendflow/internal/http/auth"
	"github.com/spendflow/spendflow/internal/http/authn"
	"github.com/spendflow/spendflow/internal/http/country"
	"github.com/spendflow/spendflow/internal/http/expense"
	"github.com/spendflow/spendflow/internal/http/rule"
	"github.com/spendflow/spendflow/internal/http/user"
	userDomain "github.com/spendflow/spendflow/internal/user"
)

func New(
	authMW *authn.Middleware,
	corsOrigin string,
	authV1 *auth.Handler,
	usersV1 *user.Handler,
	expensesV1 *expense.Handler,
	approvalsV1 *approval.Handler,
	rulesV1 *rule.Handler,
	analyticsV1 *analytics.Handler,
	countriesV1 *country.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			authV1.Routes(r)

			r.Group(func(r chi.Router) {
				r.Use(authMW.Authenticate)
				authV1.MeRoutes(r)
			})
		})

		r.Route("/countries", countriesV1.Routes)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Authenticate)

			r.Route("/users", usersV1.Routes)
			r.Route("/expenses", expensesV1.Routes)
			r.Route("/analytics", analyticsV1.Routes)

			r.Route("/approvals", func(r chi.Router) {
				r.Use(authn.RequireRole(userDomain.RoleAdmin, userDomain.RoleManager))
				approvalsV1.Routes(r)
			})

			r.Route("/rules", func(r chi.Router) {
				r.Use(authn.RequireRole(userDomain.RoleAdmin))
				rulesV1.Routes(r)
			})
		})
	})

	return router
}
