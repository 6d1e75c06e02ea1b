package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/collab-o-meter/internal/errors"
	"github.com/ZanzyTHEbar/collab-o-meter/internal/types"
)

// trustResponse is the wire shape of GET /trust
type trustResponse struct {
	DirectTrust   *float64 `json:"direct_trust"`
	IndirectTrust float64  `json:"indirect_trust"`
}

// TrustClient reads trust assessments from a remote trust service
type TrustClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewTrustClient creates a client for the trust service at baseURL
func NewTrustClient(baseURL, token string) *TrustClient {
	return &TrustClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Assess fetches the assessment of the ordered pair (a, b). Values outside
// [0,1] are rejected rather than clipped.
func (c *TrustClient) Assess(ctx context.Context, a, b types.EntityID) (types.TrustAssessment, error) {
	q := url.Values{}
	q.Set("from", string(a))
	q.Set("to", string(b))

	resp, err := c.makeRequest(ctx, http.MethodGet, c.baseURL+"/trust?"+q.Encode())
	if err != nil {
		return types.TrustAssessment{}, fmt.Errorf("failed to fetch trust: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return types.TrustAssessment{}, errors.NewNotFoundError("entity", string(a)+"|"+string(b))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.TrustAssessment{}, errors.NewUpstreamError(ServiceTrust,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var tr trustResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return types.TrustAssessment{}, errors.NewUpstreamError(ServiceTrust, fmt.Errorf("failed to decode trust: %w", err))
	}
	if !unit(tr.IndirectTrust) || (tr.DirectTrust != nil && !unit(*tr.DirectTrust)) {
		return types.TrustAssessment{}, errors.NewUpstreamError(ServiceTrust, fmt.Errorf("trust out of range for %s|%s", a, b))
	}

	return types.TrustAssessment{DirectTrust: tr.DirectTrust, IndirectTrust: tr.IndirectTrust}, nil
}

func (c *TrustClient) makeRequest(ctx context.Context, method, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Collab-o-Meter/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.client.Do(req)
}

// Close releases idle connections
func (c *TrustClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
