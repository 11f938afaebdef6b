package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"eshop-backend/internal/client"
	"eshop-backend/internal/dto"
	"eshop-backend/internal/metrics"
	"eshop-backend/internal/model"
	"eshop-backend/internal/repository"
)

// eventCheckoutCompleted is the only actionable gateway event; everything
// else is acknowledged without side effects so the gateway stops retrying.
const eventCheckoutCompleted = "checkout.session.completed"

const metadataUserID = "user_id"

type CreateSessionCommand struct {
	UserID   string
	Email    string
	Shipping dto.ShippingInfo
	Items    []*dto.OrderItemRequest
}

type WebhookResult struct {
	Outcome string
	Details string
	Order   *model.Order
}

type CheckoutService interface {
	CreateSession(ctx context.Context, cmd *CreateSessionCommand) (*dto.CheckoutSessionResponse, error)
	HandleWebhook(ctx context.Context, sigHeader string, body []byte) (*WebhookResult, error)
}

type checkoutServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	serviceBaseUrl   string
	productRepo      repository.ProductRepository
	orderService     OrderService
	webhookEventRepo repository.WebhookEventRepository
}

func NewCheckoutService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	serviceBaseUrl string,
	productRepo repository.ProductRepository,
	orderService OrderService,
	webhookEventRepo repository.WebhookEventRepository,
) CheckoutService {
	return &checkoutServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		serviceBaseUrl:   serviceBaseUrl,
		productRepo:      productRepo,
		orderService:     orderService,
		webhookEventRepo: webhookEventRepo,
	}
}

// CreateSession builds a hosted-checkout session from catalog prices. No
// order exists yet: the shipping fields and user id ride along as session
// metadata and come back with the webhook.
func (s *checkoutServiceImpl) CreateSession(ctx context.Context, cmd *CreateSessionCommand) (*dto.CheckoutSessionResponse, error) {
	if len(cmd.Items) == 0 {
		return nil, ErrEmptyCart
	}

	productIDs := make([]string, len(cmd.Items))
	quantityBySku := make(map[string]int, len(cmd.Items))
	for i, item := range cmd.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		productIDs[i] = item.ProductID
		quantityBySku[item.ProductID] = item.Quantity
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	if len(products) != len(cmd.Items) {
		return nil, repository.ErrProductNotFound
	}

	lineItems := make([]*client.CheckoutLineItem, len(products))
	for i, product := range products {
		lineItems[i] = &client.CheckoutLineItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Image:      product.Image,
			UnitAmount: decimal.NewFromFloat(product.Price).Mul(decimal.NewFromInt(100)).Round(0).IntPart(),
			Quantity:   quantityBySku[product.ID],
		}
	}

	session, err := s.stripeClient.CreateCheckoutSession(ctx, &client.CheckoutSessionParams{
		CustomerEmail: cmd.Email,
		SuccessURL:    s.serviceBaseUrl + "/payment/success",
		CancelURL:     s.serviceBaseUrl + "/payment/cancel",
		Metadata: map[string]string{
			metadataUserID: cmd.UserID,
			"street":       cmd.Shipping.Street,
			"city":         cmd.Shipping.City,
			"state":        cmd.Shipping.State,
			"zip_code":     cmd.Shipping.ZipCode,
			"phone_no":     cmd.Shipping.PhoneNo,
			"country":      cmd.Shipping.Country,
		},
		LineItems: lineItems,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway create session: %w", err)
	}

	log.Info().Str("session_id", session.ID).Str("user_id", cmd.UserID).Msg("checkout session created")

	return &dto.CheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// HandleWebhook runs the reconciliation state machine: verify, filter,
// dedup, re-fetch, assemble, record. The processed-event row is written in
// the same transaction as the order, so a delivery either settles completely
// or leaves no trace for the gateway's retry to trip over.
func (s *checkoutServiceImpl) HandleWebhook(ctx context.Context, sigHeader string, body []byte) (*WebhookResult, error) {
	if err := s.stripeClient.VerifyWebhookSignature(sigHeader, body); err != nil {
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeRejected).Inc()
		log.Warn().Err(err).Msg("webhook signature rejected")
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var event model.StripeEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if event.ID == "" || event.Type == "" {
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: missing event id or type", ErrInvalidPayload)
	}

	if event.Type != eventCheckoutCompleted {
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeIgnored).Inc()
		return &WebhookResult{Outcome: metrics.WebhookOutcomeIgnored, Details: "event type ignored"}, nil
	}

	session := event.Data.Object
	if session.ID == "" {
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidPayload)
	}

	processed, err := s.webhookEventRepo.Exists(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("check processed events: %w", err)
	}
	if processed {
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeDuplicate).Inc()
		log.Info().Str("session_id", session.ID).Str("event_id", event.ID).Msg("duplicate webhook delivery ignored")
		return &WebhookResult{Outcome: metrics.WebhookOutcomeDuplicate, Details: "event already processed"}, nil
	}

	userID := session.Metadata[metadataUserID]
	if userID == "" {
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeRejected).Inc()
		return nil, fmt.Errorf("%w: missing user metadata", ErrInvalidPayload)
	}

	// Quantities and amounts embedded in the event are not trusted; the line
	// items are re-fetched from the gateway and re-priced from its records.
	lines, err := s.resolveLineItems(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve session line items: %w", err)
	}

	sessionID := session.ID
	var order *model.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err = s.orderService.AssembleTx(ctx, tx, &AssembleParams{
			UserID:        userID,
			Shipping:      shippingFromMetadata(session.Metadata),
			PaymentMode:   model.PaymentModeCard,
			PaymentStatus: model.PaymentPaid,
			SessionID:     &sessionID,
			Lines:         lines,
		})
		if err != nil {
			return err
		}
		return s.webhookEventRepo.MarkProcessed(ctx, tx, session.ID, event.ID, event.Type)
	})
	if errors.Is(err, repository.ErrDuplicateEvent) || errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost a race against a concurrent delivery of the same session.
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeDuplicate).Inc()
		return &WebhookResult{Outcome: metrics.WebhookOutcomeDuplicate, Details: "event already processed"}, nil
	}
	if err != nil {
		// Not marked processed: the gateway will retry. A stock shortage here
		// means payment succeeded for goods we no longer hold; ops follows up
		// on this log line.
		metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeFailed).Inc()
		log.Error().Err(err).Str("session_id", session.ID).Str("event_id", event.ID).Msg("webhook reconciliation failed")
		return nil, fmt.Errorf("reconcile session %s: %w", session.ID, err)
	}

	metrics.WebhookDeliveries.WithLabelValues(metrics.WebhookOutcomeProcessed).Inc()
	metrics.OrdersCreated.WithLabelValues(string(model.PaymentModeCard)).Inc()
	log.Info().
		Str("session_id", session.ID).
		Str("order_id", order.ID).
		Float64("total_amount", order.TotalAmount).
		Msg("gateway payment reconciled")

	return &WebhookResult{Outcome: metrics.WebhookOutcomeProcessed, Details: "payment processed", Order: order}, nil
}

// resolveLineItems re-fetches the session's line items from the gateway and
// maps each back to a local product via the gateway product's metadata,
// pricing the line from the gateway's recorded unit amount.
func (s *checkoutServiceImpl) resolveLineItems(ctx context.Context, sessionID string) ([]*AssembledLine, error) {
	items, err := s.stripeClient.ListLineItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: session has no line items", ErrInvalidPayload)
	}

	lines := make([]*AssembledLine, len(items))
	for i, item := range items {
		gatewayProduct, err := s.stripeClient.GetProduct(ctx, item.Price.Product)
		if err != nil {
			return nil, err
		}

		sku := gatewayProduct.Metadata["product_id"]
		if sku == "" {
			return nil, fmt.Errorf("%w: gateway product %s has no product_id metadata", ErrInvalidPayload, gatewayProduct.ID)
		}

		var image string
		if len(gatewayProduct.Images) > 0 {
			image = gatewayProduct.Images[0]
		}

		lines[i] = &AssembledLine{
			ProductID: sku,
			Name:      gatewayProduct.Name,
			Price:     decimal.NewFromInt(item.Price.UnitAmount).Div(decimal.NewFromInt(100)).InexactFloat64(),
			Image:     image,
			Quantity:  item.Quantity,
		}
	}

	return lines, nil
}

func shippingFromMetadata(metadata map[string]string) dto.ShippingInfo {
	return dto.ShippingInfo{
		Street:  metadata["street"],
		City:    metadata["city"],
		State:   metadata["state"],
		ZipCode: metadata["zip_code"],
		PhoneNo: metadata["phone_no"],
		Country: metadata["country"],
	}
}
