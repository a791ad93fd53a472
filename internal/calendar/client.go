// Package calendar implements the calendar client capability: submitting
// a digest for aggregation and fetching a previously-submitted
// commitment's completed proof.
package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opentimestamps/opentimestamps-client/internal/ots"
)

// ErrPending is returned by GetTimestamp when the calendar has seen the
// digest but has not yet produced a block-header attestation for it.
var ErrPending = errors.New("calendar: pending confirmation")

// ErrNotFound is returned when the calendar has never seen the digest.
var ErrNotFound = errors.New("calendar: commitment not found")

// maxResponseSize bounds a calendar response body.
const maxResponseSize = 1024 * 1024

// Client is the calendar capability interface. It does not mandate a
// transport, but the HTTPS binding below matches the wire contract used
// by interoperable OpenTimestamps calendars.
type Client interface {
	// Submit posts a 32-byte digest and returns a Timestamp fragment
	// rooted at it, terminating in a Pending leaf naming this calendar.
	Submit(ctx context.Context, digest [32]byte) (*ots.Timestamp, error)

	// GetTimestamp fetches the (possibly still-pending) proof for a
	// previously submitted commitment.
	GetTimestamp(ctx context.Context, commitment [32]byte) (*ots.Timestamp, error)

	// URL returns the calendar's base URL, used as the Pending
	// attestation's identifying URI.
	URL() string
}

// HTTPClient implements Client over the documented HTTPS transport:
// request bodies are raw digest bytes, response bodies are raw Timestamp
// bytes, Content-Type application/vnd.opentimestamps.v1.
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewHTTPClient constructs a calendar client against baseURL, with the
// given per-call timeout.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// URL implements Client.
func (c *HTTPClient) URL() string { return c.BaseURL }

// Submit implements Client.
func (c *HTTPClient) Submit(ctx context.Context, digest [32]byte) (*ots.Timestamp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/digest", bytes.NewReader(digest[:]))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/vnd.opentimestamps.v1")
	req.Header.Set("User-Agent", "ots-client/1.0")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return ots.DecodeTimestamp(digest[:], body)
}

// GetTimestamp implements Client.
func (c *HTTPClient) GetTimestamp(ctx context.Context, commitment [32]byte) (*ots.Timestamp, error) {
	url := fmt.Sprintf("%s/timestamp/%x", c.BaseURL, commitment)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.opentimestamps.v1")
	req.Header.Set("User-Agent", "ots-client/1.0")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return ots.DecodeTimestamp(commitment[:], body)
}

func (c *HTTPClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		switch string(body) {
		case "Pending confirmation in Bitcoin blockchain":
			return nil, ErrPending
		default:
			return nil, ErrNotFound
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
}
