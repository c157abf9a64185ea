package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"checkout-service/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	PayPalSandboxURL = "https://api-m.sandbox.paypal.com"
	PayPalLiveURL    = "https://api-m.paypal.com"
)

// PayPalProvider implements PaymentProcessor against the PayPal Orders v2 API.
type PayPalProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewPayPalProvider builds a client whose transport fetches and caches an
// OAuth2 client-credentials token. The token cache is shared by all
// in-flight requests.
func NewPayPalProvider(baseURL, clientID, clientSecret string, timeout time.Duration) *PayPalProvider {
	baseURL = strings.TrimSuffix(baseURL, "/")
	tokenClient := &http.Client{Timeout: timeout}

	creds := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, tokenClient)
	client := creds.Client(ctx)
	client.Timeout = timeout

	return &PayPalProvider{baseURL: baseURL, httpClient: client}
}

// CreateOrder posts to /v2/checkout/orders.
func (p *PayPalProvider) CreateOrder(ctx context.Context, req *models.OrderRequest, opts RequestOptions) (*Response, error) {
	resp, err := p.doRequest(ctx, http.MethodPost, "/v2/checkout/orders", req, opts)
	if err != nil {
		return nil, fmt.Errorf("paypal CreateOrder: %w", err)
	}
	return resp, nil
}

// CaptureOrder posts to /v2/checkout/orders/{id}/capture.
func (p *PayPalProvider) CaptureOrder(ctx context.Context, orderID string, opts RequestOptions) (*Response, error) {
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", url.PathEscape(orderID))
	resp, err := p.doRequest(ctx, http.MethodPost, path, nil, opts)
	if err != nil {
		return nil, fmt.Errorf("paypal CaptureOrder: %w", err)
	}
	return resp, nil
}

// ---- HTTP helper ----

func (p *PayPalProvider) doRequest(ctx context.Context, method, path string, body interface{}, opts RequestOptions) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.Prefer != "" {
		req.Header.Set("Prefer", opts.Prefer)
	}
	if opts.RequestID != "" {
		req.Header.Set("PayPal-Request-Id", opts.RequestID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, respBytes)
	}

	respBytes = bytes.TrimSpace(respBytes)
	if len(respBytes) == 0 {
		return &Response{StatusCode: resp.StatusCode}, nil
	}
	if !json.Valid(respBytes) {
		return nil, fmt.Errorf("decode response: body is not valid JSON")
	}
	return &Response{StatusCode: resp.StatusCode, Body: json.RawMessage(respBytes)}, nil
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	apiErr.StatusCode = status
	return apiErr
}
