package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/spendflow/spendflow/internal/analytics"
	"github.com/spendflow/spendflow/internal/auth"
	"github.com/spendflow/spendflow/internal/company"
	"github.com/spendflow/spendflow/internal/config"
	"github.com/spendflow/spendflow/internal/country"
	"github.com/spendflow/spendflow/internal/database"
	"github.com/spendflow/spendflow/internal/expense"
	spendflowHttp "github.com/spendflow/spendflow/internal/http"
	analyticsHandler "github.com/spendflow/spendflow/internal/http/analytics"
	approvalHandler "github.com/spendflow/spendflow/internal/http/approval"
	authHandler "github.com/spendflow/spendflow/internal/http/auth"
	"github.com/spendflow/spendflow/internal/http/authn"
	countryHandler "github.com/spendflow/spendflow/internal/http/country"
	expenseHandler "github.com/spendflow/spendflow/internal/http/expense"
	ruleHandler "github.com/spendflow/spendflow/internal/http/rule"
	userHandler "github.com/spendflow/spendflow/internal/http/user"
	"github.com/spendflow/spendflow/internal/rule"
	"github.com/spendflow/spendflow/internal/seed"
	"github.com/spendflow/spendflow/internal/store/memory"
	"github.com/spendflow/spendflow/internal/store/postgres"
	"github.com/spendflow/spendflow/internal/user"
	"github.com/spendflow/spendflow/internal/workflow"
)

// stores is the set of repository implementations a backing store provides.
type stores struct {
	companies company.Repository
	users     user.Repository
	expenses  expense.Repository
	approvals expense.ApprovalRepository
	rules     rule.Repository
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, cleanup, err := openStores(cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var (
		companyService  = company.NewService(st.companies)
		userService     = user.NewService(st.users)
		ruleService     = rule.NewService(st.rules, st.users)
		workflowService = workflow.NewService(st.expenses, st.approvals, st.users, st.rules)
		expenseService  = expense.NewService(st.expenses, workflowService)
		analyticsSvc    = analytics.NewService(st.expenses)
		countryService  = country.NewService()
		tokenManager    = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		authService     = auth.NewService(userService, companyService, tokenManager)
	)

	if cfg.Store.SeedDemo {
		seeder := seed.New(authService, userService, ruleService, expenseService)
		if err := seeder.Run(context.Background()); err != nil {
			slog.Error("failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	var (
		authMW     = authn.NewMiddleware(tokenManager, userService)
		authH      = authHandler.NewHandler(authService)
		userH      = userHandler.NewHandler(userService)
		expenseH   = expenseHandler.NewHandler(expenseService)
		approvalH  = approvalHandler.NewHandler(workflowService)
		ruleH      = ruleHandler.NewHandler(ruleService, workflowService)
		analyticsH = analyticsHandler.NewHandler(analyticsSvc)
		countryH   = countryHandler.NewHandler(countryService)
	)

	router := spendflowHttp.New(authMW, cfg.CORS.Origin, authH, userH, expenseH, approvalH, ruleH, analyticsH, countryH)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "addr", server.Addr, "store", cfg.Store.Driver)

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func openStores(cfg *config.Config) (stores, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := database.New(cfg.ConnectionString())
		if err != nil {
			return stores{}, nil, err
		}

		st := postgres.New(db)

		return stores{
			companies: st,
			users:     st,
			expenses:  st,
			approvals: st,
			rules:     st,
		}, func() { db.Close() }, nil
	default:
		st := memory.New()

		return stores{
			companies: st,
			users:     st,
			expenses:  st,
			approvals: st,
			rules:     st,
		}, func() {}, nil
	}
}
