package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"goflare.io/redemption/errs"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
	"goflare.io/redemption/redemption"
	"goflare.io/redemption/reward"
)

type RewardHandler interface {
	CreateReward(c echo.Context) error
	GetReward(c echo.Context) error
	UpdateReward(c echo.Context) error
	DeleteReward(c echo.Context) error
	DeactivateReward(c echo.Context) error
	ListRewards(c echo.Context) error
	RedeemReward(c echo.Context) error
}

type rewardHandler struct {
	rewards     reward.Service
	redemptions redemption.Service
}

func NewRewardHandler(rewards reward.Service, redemptions redemption.Service) RewardHandler {
	return &rewardHandler{rewards: rewards, redemptions: redemptions}
}

// CreateReward handles POST /rewards
func (h *rewardHandler) CreateReward(c echo.Context) error {
	var rw models.Reward
	if err := c.Bind(&rw); err != nil {
		return bindError(c)
	}

	if err := h.rewards.Create(c.Request().Context(), &rw); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, rw)
}

// GetReward handles GET /rewards/:id
func (h *rewardHandler) GetReward(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	view, err := h.rewards.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, view)
}

// UpdateReward handles PUT /rewards/:id
func (h *rewardHandler) UpdateReward(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var partial models.PartialReward
	if err = c.Bind(&partial); err != nil {
		return bindError(c)
	}
	partial.ID = id

	if err = h.rewards.Update(c.Request().Context(), &partial); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

// DeleteReward handles DELETE /rewards/:id. Refused with 409 while
// redemptions still reference the reward.
func (h *rewardHandler) DeleteReward(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err = h.rewards.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

// DeactivateReward handles POST /rewards/:id/deactivate
func (h *rewardHandler) DeactivateReward(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err = h.rewards.Deactivate(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

// ListRewards handles GET /rewards
func (h *rewardHandler) ListRewards(c echo.Context) error {
	filter := reward.ListFilter{
		Search:   c.QueryParam("search"),
		Category: c.QueryParam("category"),
	}
	var statusFilter string
	if err := echo.QueryParamsBinder(c).
		Uint64("limit", &filter.Limit).
		Uint64("offset", &filter.Offset).
		String("status", &statusFilter).
		BindError(); err != nil {
		return bindError(c)
	}

	views, err := h.rewards.List(c.Request().Context(), filter, enum.DerivedStatus(statusFilter))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, views)
}

// RedeemReward handles POST /rewards/:id/redeem: points out, code in, one
// transaction.
func (h *rewardHandler) RedeemReward(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		MemberID uint64 `json:"member_id"`
	}
	if err = c.Bind(&req); err != nil {
		return bindError(c)
	}
	if req.MemberID == 0 {
		return respondError(c, errs.NewValidationError("member_id", "required"))
	}

	r, err := h.redemptions.Redeem(c.Request().Context(), req.MemberID, id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, r)
}
