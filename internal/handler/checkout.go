package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"eshop-backend/internal/dto"
	"eshop-backend/internal/middleware"
	"eshop-backend/internal/repository"
	"eshop-backend/internal/service"
)

// SignatureHeader carries the gateway's HMAC over the raw delivery body.
const SignatureHeader = "Stripe-Signature"

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	userID, _ := c.Get(middleware.ContextUserID).(string)
	email, _ := c.Get(middleware.ContextEmail).(string)

	resp, err := h.checkoutService.CreateSession(ctx, &service.CreateSessionCommand{
		UserID:   userID,
		Email:    email,
		Shipping: req.ShippingInfo,
		Items:    req.OrderItems,
	})
	if err != nil {
		// Anything past validation is the gateway failing on us.
		switch {
		case errors.Is(err, service.ErrEmptyCart),
			errors.Is(err, service.ErrInvalidQuantity):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrProductNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
	}

	return c.JSON(http.StatusOK, resp)
}

// Webhook receives gateway deliveries. The body must be read raw: signature
// verification runs over the exact bytes on the wire, not a re-encoding.
func (h *CheckoutHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	result, err := h.checkoutService.HandleWebhook(ctx, c.Request().Header.Get(SignatureHeader), body)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) || errors.Is(err, service.ErrInvalidPayload) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		// 5xx tells the gateway to redeliver; the processed-event log keeps
		// the retry idempotent once a delivery has committed.
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"details": result.Details})
}
