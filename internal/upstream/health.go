package upstream

import (
	"context"
	"net/http"

	"github.com/printproxy/console/internal/core/domain"
)

// HealthPath is probed by Ping.
const HealthPath = "/health"

// Ping reports whether the backend is reachable. Any answer below 500 counts,
// including 401 and 404: the probe is about the network path and the process,
// not about this endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, Request{
		Method:    http.MethodGet,
		Path:      HealthPath,
		SkipAuth:  true,
		SkipDedup: true,
		SkipHooks: true,
	})
	if err == nil {
		return nil
	}
	switch domain.KindOf(err) {
	case domain.KindNetwork, domain.KindTimeout, domain.KindServer, domain.KindCancelled:
		return err
	}
	return nil
}
