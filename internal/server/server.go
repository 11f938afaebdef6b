package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"eshop-backend/internal/handler"
	"eshop-backend/internal/middleware"
	"eshop-backend/internal/repository"
	"eshop-backend/internal/service"
)

type Server struct {
	echo            *echo.Echo
	orderHandler    *handler.OrderHandler
	checkoutHandler *handler.CheckoutHandler
	productHandler  *handler.ProductHandler
	jwtSecret       string
}

func NewServer(
	orderService service.OrderService,
	checkoutService service.CheckoutService,
	productRepo repository.ProductRepository,
	jwtSecret string,
) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	s := &Server{
		echo:            e,
		orderHandler:    handler.NewOrderHandler(orderService),
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		productHandler:  handler.NewProductHandler(productRepo),
		jwtSecret:       jwtSecret,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	auth := middleware.Auth(s.jwtSecret)
	admin := middleware.RequireAdmin()

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	api.GET("/products", s.productHandler.ListProducts)

	// -------- orders --------
	orders := api.Group("/orders", auth)
	orders.POST("", s.orderHandler.CreateOrder)
	orders.GET("", s.orderHandler.GetOrders)
	orders.GET("/:id", s.orderHandler.GetOrder)
	orders.PUT("/:id/process", s.orderHandler.ProcessOrder, admin)
	orders.DELETE("/:id", s.orderHandler.DeleteOrder, admin)

	// -------- checkout / gateway callbacks --------
	checkout := api.Group("/checkout")
	checkout.POST("/session", s.checkoutHandler.CreateSession, auth)
	checkout.POST("/webhook", s.checkoutHandler.Webhook)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}
