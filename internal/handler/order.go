package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"eshop-backend/internal/dto"
	"eshop-backend/internal/middleware"
	"eshop-backend/internal/model"
	"eshop-backend/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	userID, _ := c.Get(middleware.ContextUserID).(string)

	order, err := h.orderService.PlaceOrder(ctx, &service.PlaceOrderCommand{
		UserID:   userID,
		Shipping: req.ShippingInfo,
		Items:    req.OrderItems,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()

	userID, _ := c.Get(middleware.ContextUserID).(string)

	orders, err := h.orderService.ListOrders(ctx, userID)
	if err != nil {
		return httpError(err)
	}

	resp := make([]*dto.OrderResponse, len(orders))
	for i, order := range orders {
		resp[i] = toOrderResponse(order)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":  len(resp),
		"orders": resp,
	})
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.GetOrder(ctx, c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"order": toOrderResponse(order)})
}

func (h *OrderHandler) ProcessOrder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProcessOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.orderService.ProcessOrder(ctx, c.Param("id"), model.OrderStatus(req.Status))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"order": toOrderResponse(order)})
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.orderService.DeleteOrder(ctx, c.Param("id")); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "order deleted"})
}

func toOrderResponse(order *model.Order) *dto.OrderResponse {
	items := make([]*dto.OrderItemResponse, len(order.Items))
	for i, item := range order.Items {
		items[i] = &dto.OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Quantity:  item.Quantity,
		}
	}

	return &dto.OrderResponse{
		ID:     order.ID,
		UserID: order.UserID,
		ShippingInfo: dto.ShippingInfo{
			Street:  order.Street,
			City:    order.City,
			State:   order.State,
			ZipCode: order.ZipCode,
			PhoneNo: order.PhoneNo,
			Country: order.Country,
		},
		TotalAmount:   order.TotalAmount,
		Status:        string(order.Status),
		PaymentMode:   string(order.PaymentMode),
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt,
		Items:         items,
	}
}
