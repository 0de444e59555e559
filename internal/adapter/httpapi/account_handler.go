package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moneta-app/moneta-backend/internal/domain"
	"github.com/moneta-app/moneta-backend/internal/usecase/account"
	"github.com/moneta-app/moneta-backend/internal/usecase/performance"
	"github.com/moneta-app/moneta-backend/internal/usecase/validation"
)

type AccountHandler struct {
	Accounts    *account.Service
	AccountRepo domain.AccountRepository
	Performance *performance.Calculator
	Logger      *zap.Logger
	Now         func() time.Time
}

func (h *AccountHandler) Register(r gin.IRouter) {
	r.POST("/accounts", h.createAccount)
	r.GET("/accounts", h.listAccounts)
	r.DELETE("/accounts/:id", h.deleteAccount)
	r.POST("/accounts/:id/close", h.closeAccount)
	r.POST("/accounts/:id/reopen", h.reopenAccount)
	r.POST("/accounts/:id/updates", h.recordUpdate)
	r.DELETE("/updates/:id", h.deleteUpdate)
	r.GET("/accounts/:id/performance", h.accountPerformance)
}

type accountDTO struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	IsActive  bool       `json:"isActive"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

func toAccountDTO(a *domain.Account) accountDTO {
	return accountDTO{
		ID:        a.ID,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
		IsActive:  a.IsActive,
		ClosedAt:  a.ClosedAt,
	}
}

type updateDTO struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"accountId"`
	Value     float64   `json:"value"`
	Date      time.Time `json:"date"`
}

type performanceDTO struct {
	Percentage  float64 `json:"percentage"`
	Absolute    float64 `json:"absolute"`
	IsPositive  bool    `json:"isPositive"`
	HasData     bool    `json:"hasData"`
	PeriodLabel string  `json:"periodLabel"`
}

func toPerformanceDTO(r performance.Result) performanceDTO {
	return performanceDTO{
		Percentage:  r.Percentage,
		Absolute:    validation.SafeFloat64(r.Absolute),
		IsPositive:  r.IsPositive,
		HasData:     r.HasData,
		PeriodLabel: r.PeriodLabel,
	}
}

// idParam parses the :id path segment, writing a 422 on failure.
func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Error(c, http.StatusUnprocessableEntity, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// atOrNow parses an optional RFC3339 timestamp, defaulting to now.
func (h *AccountHandler) atOrNow(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		return h.Now(), true
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		Error(c, http.StatusUnprocessableEntity, "invalid date: expected RFC3339")
		return time.Time{}, false
	}
	return at, true
}

type createAccountRequest struct {
	Name         string `json:"name"`
	InitialValue string `json:"initialValue"`
	Date         string `json:"date"`
}

func (h *AccountHandler) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	at, ok := h.atOrNow(c, req.Date)
	if !ok {
		return
	}

	acc, err := h.Accounts.CreateAccount(c.Request.Context(), req.Name, req.InitialValue, at)
	if err != nil {
		h.Logger.Warn("create account failed", zap.Error(err))
		respondError(c, err)
		return
	}
	Ok(c, toAccountDTO(acc))
}

func (h *AccountHandler) listAccounts(c *gin.Context) {
	accounts, err := h.AccountRepo.List(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	dtos := make([]accountDTO, 0, len(accounts))
	for _, a := range accounts {
		dtos = append(dtos, toAccountDTO(a))
	}
	Ok(c, dtos)
}

func (h *AccountHandler) deleteAccount(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Accounts.DeleteAccount(c.Request.Context(), id); err != nil {
		h.Logger.Warn("delete account failed", zap.String("account_id", id.String()), zap.Error(err))
		respondError(c, err)
		return
	}
	Ok(c, nil)
}

func (h *AccountHandler) closeAccount(c *gin.Context) {
	h.toggleAccount(c, h.Accounts.CloseAccount)
}

func (h *AccountHandler) reopenAccount(c *gin.Context) {
	h.toggleAccount(c, h.Accounts.ReopenAccount)
}

func (h *AccountHandler) toggleAccount(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, at time.Time) error) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id, h.Now()); err != nil {
		respondError(c, err)
		return
	}
	Ok(c, nil)
}

type recordUpdateRequest struct {
	Value string `json:"value"`
	Date  string `json:"date"`
}

func (h *AccountHandler) recordUpdate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req recordUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	at, ok := h.atOrNow(c, req.Date)
	if !ok {
		return
	}

	update, err := h.Accounts.RecordUpdate(c.Request.Context(), id, req.Value, at)
	if err != nil {
		h.Logger.Warn("record update failed", zap.String("account_id", id.String()), zap.Error(err))
		respondError(c, err)
		return
	}
	Ok(c, updateDTO{
		ID:        update.ID,
		AccountID: update.AccountID,
		Value:     validation.SafeFloat64(update.Value),
		Date:      update.Date,
	})
}

func (h *AccountHandler) deleteUpdate(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Accounts.DeleteUpdate(c.Request.Context(), id); err != nil {
		h.Logger.Warn("delete update failed", zap.String("update_id", id.String()), zap.Error(err))
		respondError(c, err)
		return
	}
	Ok(c, nil)
}

func (h *AccountHandler) accountPerformance(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	period, err := performance.ParsePeriod(c.Query("period"))
	if err != nil {
		Error(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if _, err := h.AccountRepo.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.Performance.AccountPerformance(c.Request.Context(), id, period)
	if err != nil {
		respondError(c, err)
		return
	}
	Ok(c, toPerformanceDTO(result))
}
