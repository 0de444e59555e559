package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/usecase/performance"
	"github.com/moneta-app/moneta-backend/internal/usecase/snapshot"
	"github.com/moneta-app/moneta-backend/internal/usecase/timeline"
	"github.com/moneta-app/moneta-backend/internal/usecase/validation"
)

type PortfolioHandler struct {
	AccountRepo domain.AccountRepository
	Timeline    *timeline.Service
	Performance *performance.Calculator
	Maintainer  *snapshot.Maintainer
	Logger      *zap.Logger
}

func (h *PortfolioHandler) Register(r gin.IRouter) {
	r.GET("/portfolio/chart", h.chart)
	r.GET("/portfolio/performance", h.portfolioPerformance)
	r.POST("/maintenance/snapshots", h.ensureCoverage)
}

type chartPointDTO struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

func (h *PortfolioHandler) activeAccountIDs(c *gin.Context) ([]uuid.UUID, bool) {
	accounts, err := h.AccountRepo.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	ids := make([]uuid.UUID, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}
	return ids, true
}

func (h *PortfolioHandler) chart(c *gin.Context) {
	ids, ok := h.activeAccountIDs(c)
	if !ok {
		return
	}

	points, err := h.Timeline.BuildPortfolio(c.Request.Context(), ids)
	if err != nil {
		h.Logger.Warn("portfolio chart failed", zap.Error(err))
		respondError(c, err)
		return
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			Error(c, http.StatusUnprocessableEntity, "invalid from: expected RFC3339")
			return
		}
		points = timeline.FilterFrom(points, from)
	}
	if c.Query("period") == "sinceLastUpdate" {
		points = timeline.SinceLastUpdate(points)
	}

	dtos := make([]chartPointDTO, 0, len(points))
	for _, p := range points {
		dtos = append(dtos, chartPointDTO{Date: p.Date, Value: validation.SafeFloat64(p.Value)})
	}
	Ok(c, dtos)
}

func (h *PortfolioHandler) portfolioPerformance(c *gin.Context) {
	period, err := performance.ParsePeriod(c.Query("period"))
	if err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	ids, ok := h.activeAccountIDs(c)
	if !ok {
		return
	}

	result, err := h.Performance.PortfolioPerformance(c.Request.Context(), ids, period)
	if err != nil {
		h.Logger.Warn("portfolio performance failed", zap.Error(err))
		respondError(c, err)
		return
	}
	Ok(c, toPerformanceDTO(result))
}

func (h *PortfolioHandler) ensureCoverage(c *gin.Context) {
	if err := h.Maintainer.EnsureCoverage(c.Request.Context()); err != nil {
		h.Logger.Error("snapshot coverage run failed", zap.Error(err))
		respondError(c, err)
		return
	}
	Ok(c, nil)
}
