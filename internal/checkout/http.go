package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
	"github.com/prbretas/JEWELRY/pkg/httpclient"
)

const serviceName = "checkout"

// poster is the part of *httpclient.CircuitBreakerClient the gateway needs.
type poster interface {
	Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)
}

// HTTPGateway posts orders as JSON to an order endpoint.
type HTTPGateway struct {
	client   poster
	endpoint string
	logger   *slog.Logger
}

// NewHTTPGateway creates a gateway posting to endpoint through a retrying,
// circuit-breaking client.
func NewHTTPGateway(client *httpclient.CircuitBreakerClient, endpoint string, logger *slog.Logger) *HTTPGateway {
	return &HTTPGateway{client: client, endpoint: endpoint, logger: logger}
}

// Submit posts the order. 2xx accepts it; a structured error response keeps
// its code; anything else is reported as the gateway being unavailable.
func (g *HTTPGateway) Submit(ctx context.Context, order Order) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	resp, err := g.client.Post(ctx, g.endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		g.logger.WarnContext(ctx, "checkout gateway request failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		return apperrors.ServiceUnavailable("checkout gateway unavailable", fmt.Errorf("submit order %s: %w", order.ID, err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return nil
	}

	err = httpclient.ParseResponseError(resp, serviceName)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.ServiceUnavailable("checkout gateway unavailable", err)
}
