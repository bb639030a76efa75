package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lookupbot/credit-engine/internal/core/ports"
)

// AccountHandler exposes read-side account operations to operators.
type AccountHandler struct {
	charges ports.ChargeService
}

func NewAccountHandler(charges ports.ChargeService) *AccountHandler {
	return &AccountHandler{charges: charges}
}

type balanceResponse struct {
	UserID    int64 `json:"user_id"`
	Credits   int64 `json:"credits"`
	IsBlocked bool  `json:"is_blocked"`
}

// GetBalance handles GET /v1/accounts/:id/balance.
//
// @Summary      Get an account's credit balance
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Caller user id"
// @Success      200  {object}  balanceResponse
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /v1/accounts/{id}/balance [get]
func (h *AccountHandler) GetBalance(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	credits, err := h.charges.GetBalance(ctx, userID)
	if err != nil {
		return err
	}
	blocked, err := h.charges.IsBlocked(ctx, userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, balanceResponse{
		UserID:    userID,
		Credits:   credits,
		IsBlocked: blocked,
	})
}

// ClaimDaily handles POST /v1/accounts/:id/claim-daily.
//
// @Summary      Claim the daily free-credit grant
// @Tags         accounts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Caller user id"
// @Success      200  {object}  ports.ClaimResult
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /v1/accounts/{id}/claim-daily [post]
func (h *AccountHandler) ClaimDaily(c echo.Context) error {
	if _, err := ctxRole(c); err != nil {
		return err
	}
	userID, err := pathUserID(c)
	if err != nil {
		return err
	}

	res, err := h.charges.ClaimDailyGrant(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
