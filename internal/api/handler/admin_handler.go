package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/lookupbot/credit-engine/internal/core/domain"
	"github.com/lookupbot/credit-engine/internal/core/ports"
)

// AdminHandler exposes the privileged ledger mutations over HTTP. Routes are
// RBAC-gated to the admin role; actions performed here run as the configured
// admin caller id.
type AdminHandler struct {
	admin       ports.AdminService
	adminUserID int64
}

func NewAdminHandler(admin ports.AdminService, adminUserID int64) *AdminHandler {
	return &AdminHandler{admin: admin, adminUserID: adminUserID}
}

type creditChangeRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type blockRequest struct {
	UserID int64  `json:"user_id" validate:"required,gt=0"`
	Reason string `json:"reason" validate:"required"`
}

type promoteRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	DisplayName string `json:"display_name" validate:"required"`
}

// GrantCredits handles POST /v1/admin/credits/grant.
//
// @Summary      Grant credits to an account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      creditChangeRequest  true  "Target and amount"
// @Success      200   {object}  ports.BalanceChange
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/admin/credits/grant [post]
func (h *AdminHandler) GrantCredits(c echo.Context) error {
	var req creditChangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	change, err := h.admin.GrantCredits(c.Request().Context(), h.adminUserID, req.UserID, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, change)
}

// RevokeCredits handles POST /v1/admin/credits/revoke.
//
// @Summary      Revoke credits from an account (balance may go negative)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      creditChangeRequest  true  "Target and amount"
// @Success      200   {object}  ports.BalanceChange
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/admin/credits/revoke [post]
func (h *AdminHandler) RevokeCredits(c echo.Context) error {
	var req creditChangeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	change, err := h.admin.RevokeCredits(c.Request().Context(), h.adminUserID, req.UserID, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, change)
}

// Block handles POST /v1/admin/blocks.
//
// @Summary      Block an account
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      blockRequest  true  "Target and reason"
// @Success      204   "blocked"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/admin/blocks [post]
func (h *AdminHandler) Block(c echo.Context) error {
	var req blockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.admin.Block(c.Request().Context(), h.adminUserID, req.UserID, req.Reason); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Unblock handles DELETE /v1/admin/blocks/:id.
//
// @Summary      Unblock an account
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Target user id"
// @Success      204  "unblocked"
// @Failure      409  {object}  map[string]string
// @Router       /v1/admin/blocks/{id} [delete]
func (h *AdminHandler) Unblock(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	if err := h.admin.Unblock(c.Request().Context(), h.adminUserID, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// PromoteSpecial handles POST /v1/admin/special.
//
// @Summary      Promote an account to special (unlimited) status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      promoteRequest  true  "Target and display name"
// @Success      204   "promoted"
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /v1/admin/special [post]
func (h *AdminHandler) PromoteSpecial(c echo.Context) error {
	var req promoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.admin.PromoteSpecial(c.Request().Context(), h.adminUserID, req.UserID, req.DisplayName); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DemoteSpecial handles DELETE /v1/admin/special/:id.
//
// @Summary      Demote a special account back to normal
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Target user id"
// @Success      204  "demoted"
// @Failure      409  {object}  map[string]string
// @Router       /v1/admin/special/{id} [delete]
func (h *AdminHandler) DemoteSpecial(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	if err := h.admin.DemoteSpecial(c.Request().Context(), h.adminUserID, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAccounts handles GET /v1/admin/accounts.
//
// @Summary      List all ledger accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Account
// @Router       /v1/admin/accounts [get]
func (h *AdminHandler) ListAccounts(c echo.Context) error {
	accounts, err := h.admin.ListAccounts(c.Request().Context(), h.adminUserID)
	if err != nil {
		return err
	}
	if accounts == nil {
		accounts = []*domain.Account{}
	}
	return c.JSON(http.StatusOK, accounts)
}

// GetHistory handles GET /v1/admin/accounts/:id/history.
//
// @Summary      Get an account's query history
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id     path   int  true   "Target user id"
// @Param        limit  query  int  false  "Maximum entries to return"
// @Success      200  {array}  domain.HistoryRecord
// @Router       /v1/admin/accounts/{id}/history [get]
func (h *AdminHandler) GetHistory(c echo.Context) error {
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	var limit int64
	if raw := c.QueryParam("limit"); raw != "" {
		limit, _ = strconv.ParseInt(raw, 10, 64)
	}

	recs, err := h.admin.GetHistory(c.Request().Context(), h.adminUserID, userID, limit)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []*domain.HistoryRecord{}
	}
	return c.JSON(http.StatusOK, recs)
}
