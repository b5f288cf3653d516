package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"goflare.io/redemption/discountcode"
	"goflare.io/redemption/models"
	"goflare.io/redemption/models/enum"
)

type DiscountCodeHandler interface {
	CreateDiscountCode(c echo.Context) error
	GetDiscountCode(c echo.Context) error
	GetDiscountCodeByCode(c echo.Context) error
	UpdateDiscountCode(c echo.Context) error
	DeactivateDiscountCode(c echo.Context) error
	ListDiscountCodes(c echo.Context) error
	PreviewDiscountCode(c echo.Context) error
	RedeemDiscountCode(c echo.Context) error
	ReverseUsage(c echo.Context) error
	ListUsages(c echo.Context) error
}

type discountCodeHandler struct {
	service discountcode.Service
}

func NewDiscountCodeHandler(service discountcode.Service) DiscountCodeHandler {
	return &discountCodeHandler{service: service}
}

// CreateDiscountCode handles POST /discount-codes. A blank code is
// auto-generated server side.
func (h *discountCodeHandler) CreateDiscountCode(c echo.Context) error {
	var dc models.DiscountCode
	if err := c.Bind(&dc); err != nil {
		return bindError(c)
	}

	if err := h.service.Create(c.Request().Context(), &dc); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, dc)
}

// GetDiscountCode handles GET /discount-codes/:id
func (h *discountCodeHandler) GetDiscountCode(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	view, err := h.service.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, view)
}

// GetDiscountCodeByCode handles GET /discount-codes/code/:code
func (h *discountCodeHandler) GetDiscountCodeByCode(c echo.Context) error {
	view, err := h.service.GetByCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, view)
}

// UpdateDiscountCode handles PUT /discount-codes/:id
func (h *discountCodeHandler) UpdateDiscountCode(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var partial models.PartialDiscountCode
	if err = c.Bind(&partial); err != nil {
		return bindError(c)
	}
	partial.ID = id

	if err = h.service.Update(c.Request().Context(), &partial); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

// DeactivateDiscountCode handles POST /discount-codes/:id/deactivate
func (h *discountCodeHandler) DeactivateDiscountCode(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	if err = h.service.Deactivate(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

// ListDiscountCodes handles GET /discount-codes
func (h *discountCodeHandler) ListDiscountCodes(c echo.Context) error {
	filter := discountcode.ListFilter{Search: c.QueryParam("search")}
	var (
		statusFilter string
		from, to     time.Time
	)
	if err := echo.QueryParamsBinder(c).
		Time("created_from", &from, time.RFC3339).
		Time("created_to", &to, time.RFC3339).
		Uint64("limit", &filter.Limit).
		Uint64("offset", &filter.Offset).
		String("status", &statusFilter).
		BindError(); err != nil {
		return bindError(c)
	}
	if !from.IsZero() {
		filter.CreatedFrom = &from
	}
	if !to.IsZero() {
		filter.CreatedTo = &to
	}

	views, err := h.service.List(c.Request().Context(), filter, enum.DerivedStatus(statusFilter))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, views)
}

// PreviewDiscountCode handles POST /discount-codes/preview: same decision as
// redeem, zero side effects.
func (h *discountCodeHandler) PreviewDiscountCode(c echo.Context) error {
	var req discountcode.RedeemRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c)
	}

	eff, err := h.service.Preview(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, eff)
}

// RedeemDiscountCode handles POST /discount-codes/redeem
func (h *discountCodeHandler) RedeemDiscountCode(c echo.Context) error {
	var req discountcode.RedeemRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c)
	}

	usage, eff, err := h.service.Redeem(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusCreated, map[string]any{
		"usage":  usage,
		"effect": eff,
	})
}

// ReverseUsage handles POST /discount-codes/usages/:id/reverse
func (h *discountCodeHandler) ReverseUsage(c echo.Context) error {
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

	if err = h.service.ReverseUsage(c.Request().Context(), id, req.Reason); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, nil)
}

// ListUsages handles GET /discount-codes/:id/usages
func (h *discountCodeHandler) ListUsages(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var limit, offset uint64
	if err = echo.QueryParamsBinder(c).
		Uint64("limit", &limit).
		Uint64("offset", &offset).
		BindError(); err != nil {
		return bindError(c)
	}

	usages, err := h.service.ListUsages(c.Request().Context(), id, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, usages)
}
