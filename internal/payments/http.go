package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const maxResponseBytes = 1 << 20

// HTTPGateway posts payments to a remote backend at {baseURL}/payments/{endpoint}
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway that authenticates with a static bearer token
func NewHTTPGateway(ctx context.Context, baseURL, token string) *HTTPGateway {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = 30 * time.Second

	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (g *HTTPGateway) Name() string { return "http" }

type backendError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Detail  string `json:"detail"`
	Errors  []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Process submits one payment. Declines come back as *DeclinedError,
// everything else that is not a 2xx as *TransportError.
func (g *HTTPGateway) Process(ctx context.Context, endpoint Endpoint, req *Request) (*Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment request: %w", err)
	}

	url := fmt.Sprintf("%s/payments/%s", g.baseURL, endpoint)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var out Response
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, &TransportError{Status: resp.StatusCode, Message: "invalid response body", Err: err}
		}
		return &out, nil
	}

	var be backendError
	_ = json.Unmarshal(raw, &be)
	code, detail := be.Code, be.Detail
	if len(be.Errors) > 0 {
		if code == "" {
			code = be.Errors[0].Code
		}
		if detail == "" {
			detail = be.Errors[0].Detail
		}
	}
	message := firstNonEmpty(detail, be.Message, be.Error)

	log.Warn().
		Str("endpoint", string(endpoint)).
		Int("status", resp.StatusCode).
		Str("code", code).
		Msg("Payment backend rejected request")

	if resp.StatusCode == http.StatusPaymentRequired || (resp.StatusCode == http.StatusBadRequest && code != "") {
		return nil, &DeclinedError{Code: code, Detail: message}
	}
	return nil, &TransportError{Status: resp.StatusCode, Message: message}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
