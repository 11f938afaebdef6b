package client

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eshop-backend/internal/config"
	"eshop-backend/internal/model"
)

// signatureTolerance bounds how stale a webhook timestamp may be before the
// delivery is rejected as a possible replay.
const signatureTolerance = 5 * time.Minute

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*model.StripeCheckoutSession, error)
	ListLineItems(ctx context.Context, sessionID string) ([]*model.StripeLineItem, error)
	GetProduct(ctx context.Context, gatewayProductID string) (*model.StripeProduct, error)
	VerifyWebhookSignature(sigHeader string, body []byte) error
}

type CheckoutLineItem struct {
	ProductID  string // local sku, round-trips via product metadata
	Name       string
	Image      string
	UnitAmount int64 // minor currency units
	Quantity   int
}

type CheckoutSessionParams struct {
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
	LineItems     []*CheckoutLineItem
}

type stripeClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	secretKey     string
	webhookSecret string
	now           func() time.Time
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	return &stripeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:    stripeCfg.BaseApiURL,
		secretKey:     stripeCfg.SecretKey,
		webhookSecret: stripeCfg.WebhookSecret,
		now:           time.Now,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, params *CheckoutSessionParams) (*model.StripeCheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("customer_email", params.CustomerEmail)
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)

	for k, v := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", k), v)
	}

	for i, item := range params.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][product_data][metadata][product_id]", item.ProductID)
		if item.Image != "" {
			form.Set(prefix+"[price_data][product_data][images][0]", item.Image)
		}
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
	}

	var session model.StripeCheckoutSession
	if err := c.doForm(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &session, nil
}

func (c *stripeClientImpl) ListLineItems(ctx context.Context, sessionID string) ([]*model.StripeLineItem, error) {
	var list model.StripeLineItemList
	path := fmt.Sprintf("/v1/checkout/sessions/%s/line_items", url.PathEscape(sessionID))
	if err := c.doForm(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, fmt.Errorf("list session line items: %w", err)
	}

	return list.Data, nil
}

func (c *stripeClientImpl) GetProduct(ctx context.Context, gatewayProductID string) (*model.StripeProduct, error) {
	var product model.StripeProduct
	path := "/v1/products/" + url.PathEscape(gatewayProductID)
	if err := c.doForm(ctx, http.MethodGet, path, nil, &product); err != nil {
		return nil, fmt.Errorf("retrieve gateway product: %w", err)
	}

	return &product, nil
}

func (c *stripeClientImpl) doForm(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stripe error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}

	return nil
}

// VerifyWebhookSignature recomputes the HMAC-SHA256 of "<t>.<body>" with the
// shared webhook secret and compares it against every v1 candidate in the
// signature header. The exact raw bytes of the delivery must be passed in.
func (c *stripeClientImpl) VerifyWebhookSignature(sigHeader string, body []byte) error {
	var ts string
	var candidates []string
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if ts == "" || len(candidates) == 0 {
		return fmt.Errorf("malformed signature header")
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed signature timestamp")
	}
	if d := c.now().Sub(time.Unix(unix, 0)); d > signatureTolerance || d < -signatureTolerance {
		return fmt.Errorf("signature timestamp outside tolerance")
	}

	expected := ComputeSignature(c.webhookSecret, time.Unix(unix, 0), body)
	for _, candidate := range candidates {
		if hmac.Equal([]byte(candidate), []byte(expected)) {
			return nil
		}
	}

	return fmt.Errorf("signature mismatch")
}

// ComputeSignature is the signing half of the webhook scheme, exported for
// tests that stand in for the gateway.
func ComputeSignature(secret string, t time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", t.Unix())
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
