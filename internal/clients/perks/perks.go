// Package perks asks the platform status service whether a player's special
// device perk is active. Kits flagged RequiresPerk consult it on the can-use
// path.
package perks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/bastionmc/kitsync/internal/logger"
)

// ErrRequestTimeout marks a status check that exceeded its round-trip bound.
// Kept distinct from transport failure so operators can tell a slow perk
// service from an unreachable one.
var ErrRequestTimeout = errors.New("perk status check timed out")

type Client interface {
	HasPerk(ctx context.Context, playerID uint64) (bool, error)
}

type httpClient struct {
	log  *logger.Logger
	base string
	hc   *http.Client
}

func NewHTTPClient(log *logger.Logger, baseURL string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &httpClient{
		log:  log.With("client", "PerkClient"),
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) HasPerk(ctx context.Context, playerID uint64) (bool, error) {
	url := fmt.Sprintf("%s/v1/players/%d/perk", c.base, playerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return false, fmt.Errorf("%w: %v", ErrRequestTimeout, err)
		}
		return false, fmt.Errorf("perk status check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("perk status check: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("perk status check: decode: %w", err)
	}
	return body.Active, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
