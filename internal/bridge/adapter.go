// Package bridge provides protocol-specific adapters that quote cross-chain transfers.
package bridge

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
)

var (
	// ErrNoRoute means the protocol does not serve the requested chain pair or amount
	ErrNoRoute = errors.New("bridge: route not supported")

	// ErrUpstreamFailure means the protocol's backing API returned an error
	ErrUpstreamFailure = errors.New("bridge: upstream failure")

	// ErrUpstreamTimeout means the protocol's backing API did not answer in time
	ErrUpstreamTimeout = errors.New("bridge: upstream timeout")
)

// Adapter defines the contract every bridge protocol integration implements
type Adapter interface {
	// Name returns the stable identifier used for logging, metrics and scoring
	Name() string

	// GetQuote prices a single source to destination transfer
	GetQuote(ctx context.Context, params model.RouteParams) (model.BridgeQuote, error)

	// SupportsRoute is a fast capability check that performs no I/O
	SupportsRoute(sourceChain, destChain string) bool

	// CheckAvailability checks the protocol under its own short timeout
	CheckAvailability(ctx context.Context) model.BridgeHealth
}

// newRetryClient creates a new HTTP client with retry capabilities
func newRetryClient(retryMax int) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = retryMax
	c.RetryWaitMin = 200 * time.Millisecond
	c.RetryWaitMax = 1 * time.Second
	c.Logger = nil
	// hand the last response back so callers can report its status
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c
}

// StandardClient converts a retryablehttp.Client to a standard http.Client
func StandardClient(retryClient *retryablehttp.Client) *http.Client {
	return retryClient.StandardClient()
}

// classify maps a transport error onto the adapter error taxonomy
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	// a cancelled request is the caller's doing, not the bridge's
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return ErrUpstreamTimeout
	}
	return ErrUpstreamFailure
}
