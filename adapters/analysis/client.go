// Package analysis talks to the remote contiguity, unassigned-units and
// bounding box services.
package analysis

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

	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/unassigned"
	"github.com/gomotopia/districtr/internal"
	"github.com/gomotopia/districtr/internal/errors"
	"github.com/gomotopia/districtr/ports"
)

// maxResponseSize bounds how much of a response body is read
const maxResponseSize = 32 << 20

// Endpoints are the three remote service URLs
type Endpoints struct {
	Contiguity string
	Unassigned string
	BBox       string
}

// Client implements the analysis ports over HTTP
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
	logger     *internal.Logger
}

var (
	_ ports.ContiguityAnalyzer = (*Client)(nil)
	_ ports.UnassignedAnalyzer = (*Client)(nil)
	_ ports.BBoxLookup         = (*Client)(nil)
)

// NewClient creates a client. A zero timeout leaves requests unbounded.
func NewClient(endpoints Endpoints, timeout time.Duration, logger *internal.Logger) *Client {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Client{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("AnalysisClient"),
	}
}

// WithHTTPClient swaps the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// RequestContiguity posts the serialized plan and decodes the island report
func (c *Client) RequestContiguity(ctx context.Context, plan ports.Plan) (contiguity.Report, error) {
	body, err := c.postPlan(ctx, "contiguity", c.endpoints.Contiguity, plan)
	if err != nil {
		return nil, err
	}
	report, err := contiguity.DecodeReport(body)
	if err != nil {
		c.logger.Warn("Undecodable contiguity response (%d bytes): %v", len(body), err)
		return nil, errors.DecodeError("contiguity", err)
	}
	c.logger.Debug("Contiguity report with %d districts", len(report))
	return report, nil
}

// RequestUnassigned posts the serialized plan and decodes the unassigned islands
func (c *Client) RequestUnassigned(ctx context.Context, plan ports.Plan) (unassigned.Report, error) {
	body, err := c.postPlan(ctx, "unassigned", c.endpoints.Unassigned, plan)
	if err != nil {
		return nil, err
	}
	report, err := unassigned.DecodeReport(body)
	if err != nil {
		c.logger.Warn("Undecodable unassigned response (%d bytes): %v", len(body), err)
		return nil, errors.DecodeError("unassigned", err)
	}
	return report, nil
}

// RequestBBox looks up the bounding box of the given unit IDs
func (c *Client) RequestBBox(ctx context.Context, placeID string, ids []string, sep string) ([4]float64, bool, error) {
	var box [4]float64

	u, err := url.Parse(c.endpoints.BBox)
	if err != nil {
		return box, false, errors.NetworkError("bbox", err)
	}
	query := u.Query()
	query.Set("place", placeID)
	query.Set("ids", strings.Join(ids, sep))
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return box, false, errors.NetworkError("bbox", err)
	}

	body, err := c.do(req, "bbox")
	if err != nil {
		return box, false, err
	}

	box, ok := unassigned.NormalizeBBox(body)
	if !ok {
		c.logger.Debug("Empty or unrecognized bounding box for place=%s ids=%d", placeID, len(ids))
	}
	return box, ok, nil
}

func (c *Client) postPlan(ctx context.Context, service, endpoint string, plan ports.Plan) ([]byte, error) {
	payload, err := json.Marshal(plan.Serialize())
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to serialize plan")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NetworkError(service, err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("POST %s (%d bytes)", endpoint, len(payload))
	return c.do(req, service)
}

func (c *Client) do(req *http.Request, service string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("%s request failed after %v: %v", service, time.Since(start), err)
		return nil, errors.NetworkError(service, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		c.logger.Error("%s response read failed: %v", service, err)
		return nil, errors.NetworkError(service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("%s service returned status %d", service, resp.StatusCode)
		return nil, errors.NetworkError(service, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)))
	}

	c.logger.Trace("%s responded in %v (%d bytes)", service, time.Since(start), len(body))
	return body, nil
}

func truncate(body []byte, n int) string {
	if len(body) > n {
		return string(body[:n]) + "..."
	}
	return string(body)
}
