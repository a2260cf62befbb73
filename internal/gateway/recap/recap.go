package recap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shiptrack-service/internal/domain"
)

// Summary is a generated natural-language recap of a set of shipments.
type Summary struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Request carries the shipments to summarize.
type Request struct {
	SenderID  string            `json:"senderId"`
	Shipments []domain.Shipment `json:"shipments"`
}

// ErrDisabled is returned when no recap service is configured.
var ErrDisabled = errors.New("recap gateway disabled")

// Disabled is the gateway used when RECAP_BASE_URL is unset.
type Disabled struct{}

func (Disabled) Generate(context.Context, Request) (*Summary, error) {
	return nil, ErrDisabled
}

// HTTPGateway calls the external recap-generation service over HTTP.
type HTTPGateway struct {
	client  *http.Client
	baseURL string
}

// NewHTTPGateway creates a recap gateway. A nil client gets a default
// with a bounded timeout.
func NewHTTPGateway(client *http.Client, baseURL string) *HTTPGateway {
	if baseURL == "" {
		return nil
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{client: client, baseURL: baseURL}
}

// statusError carries a non-2xx response code for retry classification.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("recap service returned %d", e.code)
}

// Generate requests a recap for the given shipments.
func (g *HTTPGateway) Generate(ctx context.Context, req Request) (*Summary, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("recap gateway: encode: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/recap", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("recap gateway: request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("recap gateway: do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode}
	}

	var sum Summary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		return nil, fmt.Errorf("recap gateway: decode: %w", err)
	}
	return &sum, nil
}
