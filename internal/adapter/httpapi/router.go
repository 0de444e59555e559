package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/usecase/account"
	"github.com/moneta-app/moneta-backend/internal/usecase/performance"
	"github.com/moneta-app/moneta-backend/internal/usecase/snapshot"
	"github.com/moneta-app/moneta-backend/internal/usecase/timeline"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	AccountRepo domain.AccountRepository
	Accounts    *account.Service
	Timeline    *timeline.Service
	Performance *performance.Calculator
	Maintainer  *snapshot.Maintainer
	Store       Pinger
	Logger      *zap.Logger
	AuthToken   string
	Now         func() time.Time
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	r := gin.New()
	r.Use(gin.Recovery())

	health := &HealthHandler{Store: deps.Store}
	health.Register(r)

	api := r.Group("/api/v1")
	api.Use(BearerAuth(deps.AuthToken))

	accounts := &AccountHandler{
		Accounts:    deps.Accounts,
		AccountRepo: deps.AccountRepo,
		Performance: deps.Performance,
		Logger:      deps.Logger,
		Now:         deps.Now,
	}
	accounts.Register(api)

	portfolio := &PortfolioHandler{
		AccountRepo: deps.AccountRepo,
		Timeline:    deps.Timeline,
		Performance: deps.Performance,
		Maintainer:  deps.Maintainer,
		Logger:      deps.Logger,
	}
	portfolio.Register(api)

	return r
}
