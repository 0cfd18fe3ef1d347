package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/befree-edtech/befree-backend/internal/pkg/env"
)

const (
	defaultNGeniusIdentityURL = "https://identity-uat.ngenius-payments.com/auth/realms/ni/protocol/openid-connect/token"
	defaultNGeniusGatewayURL  = "https://api-gateway.sandbox.ngenius-payments.com"
	defaultNGeniusCurrency    = "AED"

	identityMediaType = "application/vnd.ni-identity.v1+json"
	paymentMediaType  = "application/vnd.ni-payment.v2+json"

	// Tokens are typically valid for 5 minutes; refresh 30 seconds early so a
	// request in flight never races expiry.
	tokenRefreshMargin = 30 * time.Second
)

// NGeniusClient talks to the N-Genius payment gateway. It owns the only
// process-wide mutable state of the checkout package: a cached bearer token.
type NGeniusClient struct {
	APIKey    string
	OutletRef string
	Currency  string

	IdentityURL string
	GatewayURL  string

	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// GatewayOrderRequest is the normalized input for creating a hosted payment
// order. Amount is in major currency units.
type GatewayOrderRequest struct {
	Amount                 float64
	Currency               string
	MerchantOrderReference string
	Email                  string
	FirstName              string
	LastName               string
	Phone                  string
	Country                string
	Address1               string
	Address2               string
	City                   string
	State                  string
	PostalCode             string
	RedirectURL            string
	CancelURL              string
}

// GatewayOrder is the gateway's view of a freshly created order.
type GatewayOrder struct {
	OrderRef   string
	PaymentURL string
}

// GatewayPayment is the normalized payment sub-object of an order status.
type GatewayPayment struct {
	PaymentRef   string
	State        string
	AuthCode     string
	CardBrand    string
	CardLastFour string
}

// GatewayOrderStatus is the normalized result of a status query. Amount is
// converted back to major units; RawResponse keeps the untouched gateway body
// for the audit ledger.
type GatewayOrderStatus struct {
	OrderRef    string
	State       string
	Amount      float64
	Currency    string
	Payment     *GatewayPayment
	RawResponse string
}

// GatewayRefund is the gateway's view of a processed refund.
type GatewayRefund struct {
	RefundRef   string
	State       string
	RawResponse string
}

func NewNGeniusClientFromEnv() *NGeniusClient {
	gatewayURL := strings.TrimSpace(env.GetEnv("NGENIUS_GATEWAY_URL", ""))
	if gatewayURL == "" {
		if env.GetEnv("NGENIUS_ENV", "sandbox") == "production" {
			gatewayURL = "https://api-gateway.ngenius-payments.com"
		} else {
			gatewayURL = defaultNGeniusGatewayURL
		}
	}
	identityURL := strings.TrimSpace(env.GetEnv("NGENIUS_IDENTITY_URL", ""))
	if identityURL == "" {
		if env.GetEnv("NGENIUS_ENV", "sandbox") == "production" {
			identityURL = "https://api-gateway.ngenius-payments.com/identity/auth/access-token"
		} else {
			identityURL = defaultNGeniusIdentityURL
		}
	}

	return &NGeniusClient{
		APIKey:      strings.TrimSpace(env.GetEnv("NGENIUS_API_KEY", "")),
		OutletRef:   strings.TrimSpace(env.GetEnv("NGENIUS_OUTLET_REF", "")),
		Currency:    strings.TrimSpace(env.GetEnv("NGENIUS_CURRENCY", defaultNGeniusCurrency)),
		IdentityURL: identityURL,
		GatewayURL:  strings.TrimRight(gatewayURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// MinorUnits converts a major-unit amount to the gateway's minor-unit wire
// representation (1 AED = 100 fils), rounded to the nearest integer.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// MajorUnits converts a gateway minor-unit value back to major units.
func MajorUnits(value int64) float64 {
	return float64(value) / 100
}

// getValidToken returns a cached access token, re-authenticating when the
// cached one is absent or about to expire. Concurrent callers may trigger a
// duplicate auth call; the auth endpoint is idempotent per key and the last
// writer's token is retained.
func (c *NGeniusClient) getValidToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	if strings.TrimSpace(c.APIKey) == "" {
		return "", &GatewayError{Message: "NGENIUS_API_KEY is not configured"}
	}

	body, err := json.Marshal(map[string]string{"grant_type": "client_credentials"})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.IdentityURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", identityMediaType)
	req.Header.Set("Authorization", "Basic "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &GatewayError{Message: fmt.Sprintf("authentication request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &GatewayError{StatusCode: resp.StatusCode, Message: "failed to authenticate with payment gateway"}
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", &GatewayError{Message: "invalid authentication response"}
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return "", &GatewayError{Message: "authentication returned empty access token"}
	}

	c.accessToken = out.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second).Add(-tokenRefreshMargin)
	return c.accessToken, nil
}

// CreateOrder creates a hosted payment order and returns the gateway order
// reference plus the URL the payer is redirected to.
func (c *NGeniusClient) CreateOrder(ctx context.Context, in GatewayOrderRequest) (*GatewayOrder, error) {
	token, err := c.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = c.Currency
	}

	billingAddress := map[string]interface{}{
		"firstName":     in.FirstName,
		"lastName":      in.LastName,
		"address1":      in.Address1,
		"address2":      in.Address2,
		"city":          in.City,
		"stateProvince": in.State,
		"postalCode":    in.PostalCode,
		"countryCode":   CountryCode(in.Country),
	}
	if in.Phone != "" {
		billingAddress["phoneNumber"] = in.Phone
	}

	payload := map[string]interface{}{
		"action": "PURCHASE",
		"amount": map[string]interface{}{
			"currencyCode": currency,
			"value":        MinorUnits(in.Amount),
		},
		"merchantOrderReference": in.MerchantOrderReference,
		"emailAddress":           in.Email,
		"billingAddress":         billingAddress,
		"merchantAttributes": map[string]interface{}{
			"redirectUrl":          in.RedirectURL,
			"cancelUrl":            in.CancelURL,
			"skipConfirmationPage": true,
		},
	}

	var raw struct {
		Reference string `json:"reference"`
		Links     struct {
			Payment struct {
				Href string `json:"href"`
			} `json:"payment"`
		} `json:"_links"`
	}
	if _, err := c.doPaymentCall(ctx, http.MethodPost, c.ordersURL(), token, payload, &raw); err != nil {
		return nil, err
	}
	if raw.Reference == "" || raw.Links.Payment.Href == "" {
		return nil, &GatewayError{Message: "create order response missing reference or payment link"}
	}

	return &GatewayOrder{
		OrderRef:   raw.Reference,
		PaymentURL: raw.Links.Payment.Href,
	}, nil
}

// GetOrderStatus fetches the current order and payment state from the
// gateway, normalizing the nested payment sub-object when present.
func (c *NGeniusClient) GetOrderStatus(ctx context.Context, orderRef string) (*GatewayOrderStatus, error) {
	token, err := c.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Reference string `json:"reference"`
		State     string `json:"state"`
		Amount    struct {
			CurrencyCode string `json:"currencyCode"`
			Value        int64  `json:"value"`
		} `json:"amount"`
		Embedded struct {
			Payment []struct {
				Reference         string `json:"reference"`
				State             string `json:"state"`
				AuthorizationCode string `json:"authorizationCode"`
				Embedded          struct {
					CnpResponse struct {
						Scheme string `json:"scheme"`
						Pan    string `json:"pan"`
					} `json:"cnpResponse"`
				} `json:"_embedded"`
			} `json:"payment"`
		} `json:"_embedded"`
	}
	body, err := c.doPaymentCall(ctx, http.MethodGet, c.ordersURL()+"/"+orderRef, token, nil, &raw)
	if err != nil {
		return nil, err
	}

	status := &GatewayOrderStatus{
		OrderRef:    raw.Reference,
		State:       raw.State,
		Amount:      MajorUnits(raw.Amount.Value),
		Currency:    raw.Amount.CurrencyCode,
		RawResponse: string(body),
	}
	if len(raw.Embedded.Payment) > 0 {
		p := raw.Embedded.Payment[0]
		pan := p.Embedded.CnpResponse.Pan
		lastFour := ""
		if len(pan) >= 4 {
			lastFour = pan[len(pan)-4:]
		}
		status.Payment = &GatewayPayment{
			PaymentRef:   p.Reference,
			State:        p.State,
			AuthCode:     p.AuthorizationCode,
			CardBrand:    p.Embedded.CnpResponse.Scheme,
			CardLastFour: lastFour,
		}
	}
	return status, nil
}

// RefundPayment issues a refund against a captured payment. A nil amount
// requests a full refund.
func (c *NGeniusClient) RefundPayment(ctx context.Context, orderRef, paymentRef string, amount *float64) (*GatewayRefund, error) {
	token, err := c.getValidToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{}
	if amount != nil {
		payload["amount"] = map[string]interface{}{
			"currencyCode": c.Currency,
			"value":        MinorUnits(*amount),
		}
	}

	var raw struct {
		Reference string `json:"reference"`
		State     string `json:"state"`
	}
	url := fmt.Sprintf("%s/%s/payments/%s/refund", c.ordersURL(), orderRef, paymentRef)
	body, err := c.doPaymentCall(ctx, http.MethodPost, url, token, payload, &raw)
	if err != nil {
		return nil, err
	}

	return &GatewayRefund{
		RefundRef:   raw.Reference,
		State:       raw.State,
		RawResponse: string(body),
	}, nil
}

func (c *NGeniusClient) ordersURL() string {
	return fmt.Sprintf("%s/transactions/outlets/%s/orders", c.GatewayURL, c.OutletRef)
}

// doPaymentCall issues an authenticated payment-API request and decodes the
// response into out, returning the raw body for audit logging.
func (c *NGeniusClient) doPaymentCall(ctx context.Context, method, url, token string, payload, out interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", paymentMediaType)
	if payload != nil {
		req.Header.Set("Content-Type", paymentMediaType)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Message: fmt.Sprintf("gateway request failed: %v", err)}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: gatewayMessage(body)}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, &GatewayError{Message: "invalid gateway response"}
		}
	}
	return body, nil
}

// gatewayMessage extracts a human-readable message from an error body.
func gatewayMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
			return parsed.Errors[0].Message
		}
	}
	return "payment gateway rejected the request"
}
