package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/config"
	"github.com/syazwansaidan93/netstat-openwrt-client-wifi-wan/internal/model"
)

const maxBodySize = 1 << 20 // 1 MB; CGI stat pages are a few KB at most

// Client fetches counter batches from a router's CGI endpoints.
type Client struct {
	http *http.Client
}

// NewClient creates a client whose requests time out after the given duration.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{Timeout: timeout},
	}
}

// FetchResult is one router's batch plus non-fatal section failures
// (an unreachable wifi or dhcp endpoint just leaves that section empty).
type FetchResult struct {
	Batch    model.Batch
	Warnings []error
}

// FetchBatch polls all configured endpoints of one router and assembles a
// batch stamped with a single observation time. A configured WAN endpoint
// that cannot be fetched or parsed is fatal: the WAN total is a singleton
// and a cycle must not run without it.
func (c *Client) FetchBatch(ctx context.Context, rc config.RouterConfig) (FetchResult, error) {
	result := FetchResult{
		Batch: model.Batch{ObservedAt: time.Now()},
	}

	if rc.WANURL != "" {
		body, err := c.get(ctx, rc.WANURL)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrWANUnavailable, err)
		}
		wan, err := ParseWAN(string(body))
		if err != nil {
			return result, err
		}
		result.Batch.WAN = &wan
	}

	if rc.WifiURL != "" {
		body, err := c.get(ctx, rc.WifiURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("wifi stats: %w", err))
		} else {
			clients, skipped := ParseWifiClients(string(body))
			result.Batch.Clients = clients
			result.Batch.ClientParseErrors = skipped
		}
	}

	if rc.DHCPURL != "" {
		body, err := c.get(ctx, rc.DHCPURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Errorf("dhcp leases: %w", err))
		} else {
			leases, skipped := ParseLeases(string(body))
			result.Batch.Leases = leases
			result.Batch.HasLeaseSnapshot = true
			result.Batch.ClientParseErrors += skipped
		}
	}

	return result, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("GET %s: reading body: %w", url, err)
	}
	return body, nil
}
