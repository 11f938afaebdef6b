package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"eshop-backend/internal/dto"
	"eshop-backend/internal/metrics"
	"eshop-backend/internal/model"
	"eshop-backend/internal/repository"
)

type PlaceOrderCommand struct {
	UserID   string
	Shipping dto.ShippingInfo
	Items    []*dto.OrderItemRequest
}

// AssembledLine is a fully priced cart line, ready for reservation. The
// direct path prices lines from the catalog; the webhook path prices them
// from the gateway's recorded amounts. Neither trusts the client.
type AssembledLine struct {
	ProductID string
	Name      string
	Price     float64
	Image     string
	Quantity  int
}

type AssembleParams struct {
	UserID        string
	Shipping      dto.ShippingInfo
	PaymentMode   model.PaymentMode
	PaymentStatus model.PaymentStatus
	SessionID     *string
	Lines         []*AssembledLine
}

type OrderService interface {
	PlaceOrder(ctx context.Context, cmd *PlaceOrderCommand) (*model.Order, error)
	// AssembleTx reserves stock and creates the order plus its items inside
	// the caller's transaction. All-or-nothing: any failure rolls back every
	// reservation made within the call.
	AssembleTx(ctx context.Context, tx *gorm.DB, params *AssembleParams) (*model.Order, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*model.Order, error)
	ProcessOrder(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
	DeleteOrder(ctx context.Context, orderID string) error
}

type orderServiceImpl struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
}

func NewOrderService(
	db *gorm.DB,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

func (s *orderServiceImpl) PlaceOrder(ctx context.Context, cmd *PlaceOrderCommand) (*model.Order, error) {
	lines, err := s.priceFromCatalog(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = s.AssembleTx(ctx, tx, &AssembleParams{
			UserID:        cmd.UserID,
			Shipping:      cmd.Shipping,
			PaymentMode:   model.PaymentModeCOD,
			PaymentStatus: model.PaymentNotPaid,
			Lines:         lines,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCreated.WithLabelValues(string(model.PaymentModeCOD)).Inc()
	log.Info().
		Str("order_id", order.ID).
		Str("user_id", cmd.UserID).
		Float64("total_amount", order.TotalAmount).
		Msg("order placed")

	return order, nil
}

// priceFromCatalog resolves cart lines against the catalog, taking price,
// name and image from the product record. Client-supplied prices are never
// used.
func (s *orderServiceImpl) priceFromCatalog(ctx context.Context, items []*dto.OrderItemRequest) ([]*AssembledLine, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	productIDs := make([]string, len(items))
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}

	byID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]*AssembledLine, len(items))
	for i, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, repository.ErrProductNotFound
		}
		lines[i] = &AssembledLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  item.Quantity,
		}
	}

	return lines, nil
}

func (s *orderServiceImpl) AssembleTx(ctx context.Context, tx *gorm.DB, params *AssembleParams) (*model.Order, error) {
	if len(params.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	for _, line := range params.Lines {
		if err := s.productRepo.Reserve(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return nil, fmt.Errorf("reserve %s: %w", line.ProductID, err)
		}
		total = total.Add(decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		UserID:        params.UserID,
		Street:        params.Shipping.Street,
		City:          params.Shipping.City,
		State:         params.Shipping.State,
		ZipCode:       params.Shipping.ZipCode,
		PhoneNo:       params.Shipping.PhoneNo,
		Country:       params.Shipping.Country,
		TotalAmount:   total.InexactFloat64(),
		Status:        model.OrderPending,
		PaymentMode:   params.PaymentMode,
		PaymentStatus: params.PaymentStatus,
		SessionID:     params.SessionID,
	}

	if err := s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	items := make([]*model.OrderItem, len(params.Lines))
	for i, line := range params.Lines {
		items[i] = &model.OrderItem{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Image:     line.Image,
			Quantity:  line.Quantity,
		}
	}
	if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return nil, fmt.Errorf("store order items: %w", err)
	}
	order.Items = items

	return order, nil
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

func (s *orderServiceImpl) ProcessOrder(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}

	log.Info().Str("order_id", orderID).Str("status", string(status)).Msg("order status updated")

	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *orderServiceImpl) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orderRepo.Delete(ctx, orderID); err != nil {
		return err
	}

	log.Info().Str("order_id", orderID).Msg("order deleted")
	return nil
}
