package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"goflare.io/redemption/errs"
	"goflare.io/redemption/models/enum"
	"goflare.io/redemption/redemption"
)

type RedemptionHandler interface {
	GetRedemption(c echo.Context) error
	ListRedemptions(c echo.Context) error
	VerifyCode(c echo.Context) error
	MarkUsed(c echo.Context) error
	RefundRedemption(c echo.Context) error
	CancelRedemption(c echo.Context) error
}

type redemptionHandler struct {
	service redemption.Service
}

func NewRedemptionHandler(service redemption.Service) RedemptionHandler {
	return &redemptionHandler{service: service}
}

// GetRedemption handles GET /redemptions/:id
func (h *redemptionHandler) GetRedemption(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	r, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, r)
}

// ListRedemptions handles GET /redemptions
func (h *redemptionHandler) ListRedemptions(c echo.Context) error {
	var filter redemption.ListFilter
	var statusFilter string
	if err := echo.QueryParamsBinder(c).
		Uint64("member_id", &filter.MemberID).
		Uint64("reward_id", &filter.RewardID).
		String("status", &statusFilter).
		Uint64("limit", &filter.Limit).
		Uint64("offset", &filter.Offset).
		BindError(); err != nil {
		return bindError(c)
	}
	filter.Status = enum.RedemptionStatus(statusFilter)

	redemptions, err := h.service.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, redemptions)
}

// VerifyCode handles POST /rewards/verify-code. A blocked code still returns
// the record so the point of sale can explain why it is unusable.
func (h *redemptionHandler) VerifyCode(c echo.Context) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&req); err != nil {
		return bindError(c)
	}
	if req.Code == "" {
		return respondError(c, errs.NewValidationError("code", "required"))
	}

	r, err := h.service.VerifyCode(c.Request().Context(), req.Code)
	if err != nil {
		if r == nil {
			return respondError(c, err)
		}
		var violation *errs.ConstraintViolation
		if errors.As(err, &violation) {
			return c.JSON(http.StatusUnprocessableEntity, Response{
				Message: violation.Error(),
				Data: map[string]any{
					"reason":     string(violation.Reason),
					"redemption": r,
				},
			})
		}
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, r)
}

// MarkUsed handles PUT /redemptions/:id/mark-used. Safe to replay.
func (h *redemptionHandler) MarkUsed(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	r, err := h.service.MarkUsed(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, r)
}

// RefundRedemption handles POST /redemptions/:id/refund
func (h *redemptionHandler) RefundRedemption(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err = c.Bind(&req); err != nil {
		return bindError(c)
	}

	r, err := h.service.Refund(c.Request().Context(), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, r)
}

// CancelRedemption handles POST /redemptions/:id/cancel
func (h *redemptionHandler) CancelRedemption(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err = c.Bind(&req); err != nil {
		return bindError(c)
	}

	r, err := h.service.Cancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, r)
}
