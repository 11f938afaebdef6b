package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eshop-backend/internal/dto"
	"eshop-backend/internal/handler"
	"eshop-backend/internal/metrics"
	"eshop-backend/internal/service"
)

type stubCheckoutService struct {
	createSessionFunc func(ctx context.Context, cmd *service.CreateSessionCommand) (*dto.CheckoutSessionResponse, error)
	handleWebhookFunc func(ctx context.Context, sigHeader string, body []byte) (*service.WebhookResult, error)
}

func (s *stubCheckoutService) CreateSession(ctx context.Context, cmd *service.CreateSessionCommand) (*dto.CheckoutSessionResponse, error) {
	return s.createSessionFunc(ctx, cmd)
}

func (s *stubCheckoutService) HandleWebhook(ctx context.Context, sigHeader string, body []byte) (*service.WebhookResult, error) {
	return s.handleWebhookFunc(ctx, sigHeader, body)
}

func postWebhook(t *testing.T, svc service.CheckoutService, sig, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.POST("/api/checkout/webhook", handler.NewCheckoutHandler(svc).Webhook)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/webhook", strings.NewReader(body))
	if sig != "" {
		req.Header.Set(handler.SignatureHeader, sig)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestCheckoutHandler_Webhook(t *testing.T) {
	t.Run("passes_raw_body_and_signature", func(t *testing.T) {
		var gotSig string
		var gotBody []byte
		svc := &stubCheckoutService{
			handleWebhookFunc: func(ctx context.Context, sigHeader string, body []byte) (*service.WebhookResult, error) {
				gotSig = sigHeader
				gotBody = body
				return &service.WebhookResult{Outcome: metrics.WebhookOutcomeProcessed, Details: "payment processed"}, nil
			},
		}

		body := `{"id":"evt_1","type":"checkout.session.completed"}`
		rec := postWebhook(t, svc, "t=1,v1=abc", body)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"details":"payment processed"}`, rec.Body.String())
		assert.Equal(t, "t=1,v1=abc", gotSig)
		assert.Equal(t, body, string(gotBody))
	})

	t.Run("invalid_signature_is_400", func(t *testing.T) {
		svc := &stubCheckoutService{
			handleWebhookFunc: func(ctx context.Context, sigHeader string, body []byte) (*service.WebhookResult, error) {
				return nil, service.ErrInvalidSignature
			},
		}

		rec := postWebhook(t, svc, "t=1,v1=bogus", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid_payload_is_400", func(t *testing.T) {
		svc := &stubCheckoutService{
			handleWebhookFunc: func(ctx context.Context, sigHeader string, body []byte) (*service.WebhookResult, error) {
				return nil, service.ErrInvalidPayload
			},
		}

		rec := postWebhook(t, svc, "t=1,v1=abc", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reconciliation_failure_is_500_for_gateway_retry", func(t *testing.T) {
		svc := &stubCheckoutService{
			handleWebhookFunc: func(ctx context.Context, sigHeader string, body []byte) (*service.WebhookResult, error) {
				return nil, context.DeadlineExceeded
			},
		}

		rec := postWebhook(t, svc, "t=1,v1=abc", `{}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
