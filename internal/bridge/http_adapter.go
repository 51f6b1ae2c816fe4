package bridge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/JustRahman/cross-chain-bridghe/internal/model"
	"github.com/JustRahman/cross-chain-bridghe/internal/security"
	"github.com/JustRahman/cross-chain-bridghe/internal/types"
)

const maxResponseBytes = 1 << 20

var hundred = decimal.NewFromInt(100)

// Options tunes the behaviour shared by all HTTP-backed adapters
type Options struct {
	// HealthTimeout bounds CheckAvailability
	HealthTimeout time.Duration

	// EstimateOnUpstreamFailure makes GetQuote fall back to the fee model
	// instead of failing when the bridge API errors
	EstimateOnUpstreamFailure bool

	// Outbound token bucket per adapter; zero disables limiting
	RateLimit rate.Limit
	RateBurst int

	RetryMax int

	// HTTPClient overrides the retrying client, mainly for tests
	HTTPClient *http.Client
}

// DefaultOptions returns the settings used when nothing is configured
func DefaultOptions() Options {
	return Options{
		HealthTimeout:             3 * time.Second,
		EstimateOnUpstreamFailure: true,
		RateLimit:                 rate.Limit(5),
		RateBurst:                 10,
		RetryMax:                  2,
	}
}

// HTTPAdapter quotes a bridge from its Profile, optionally refining the fee
// percentage from the protocol's public API.
type HTTPAdapter struct {
	profile      Profile
	chains       map[types.SupportedChain]struct{}
	httpClient   *http.Client
	healthClient *http.Client
	limiter      *rate.Limiter
	opts         Options
}

// NewHTTPAdapter creates an adapter for the given protocol profile
func NewHTTPAdapter(p Profile, opts Options) *HTTPAdapter {
	if p.TokenDecimals == 0 {
		p.TokenDecimals = 6
	}
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = 3 * time.Second
	}

	set := make(map[types.SupportedChain]struct{}, len(p.Chains))
	for _, c := range p.Chains {
		set[c] = struct{}{}
	}

	a := &HTTPAdapter{
		profile:      p,
		chains:       set,
		httpClient:   opts.HTTPClient,
		healthClient: opts.HTTPClient,
		opts:         opts,
	}
	if a.httpClient == nil {
		a.httpClient = StandardClient(newRetryClient(opts.RetryMax))
		a.healthClient = StandardClient(newRetryClient(0))
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		a.limiter = rate.NewLimiter(opts.RateLimit, burst)
	}
	return a
}

// Name returns the protocol identifier
func (a *HTTPAdapter) Name() string {
	return a.profile.Protocol
}

// Profile returns the adapter's protocol profile
func (a *HTTPAdapter) Profile() Profile {
	return a.profile
}

// SupportsRoute reports whether both chains are served and distinct
func (a *HTTPAdapter) SupportsRoute(sourceChain, destChain string) bool {
	src, ok := types.ParseChain(sourceChain)
	if !ok {
		return false
	}
	dst, ok := types.ParseChain(destChain)
	if !ok || src == dst {
		return false
	}
	_, srcOK := a.chains[src]
	_, dstOK := a.chains[dst]
	return srcOK && dstOK
}

// GetQuote prices the transfer described by params
func (a *HTTPAdapter) GetQuote(ctx context.Context, params model.RouteParams) (model.BridgeQuote, error) {
	p := params.Normalized()
	if !a.SupportsRoute(p.SourceChain, p.DestinationChain) {
		return model.BridgeQuote{}, fmt.Errorf("%s: %s -> %s: %w", a.Name(), p.SourceChain, p.DestinationChain, ErrNoRoute)
	}

	amount, err := model.ParseAmount(p.Amount)
	if err != nil {
		return model.BridgeQuote{}, fmt.Errorf("%s: %v: %w", a.Name(), err, ErrNoRoute)
	}
	if err := a.checkBounds(amount); err != nil {
		return model.BridgeQuote{}, err
	}

	feePct := a.profile.FeePct
	feeSource := "estimate"
	if a.profile.QuotePath != "" && a.profile.FeePctPath != "" {
		live, err := a.fetchFeePct(ctx, p)
		switch {
		case err == nil:
			feePct = live
			feeSource = "api"
		case ctx.Err() != nil || !a.opts.EstimateOnUpstreamFailure:
			return model.BridgeQuote{}, err
		default:
			logrus.WithFields(logrus.Fields{
				"bridge": a.Name(),
				"error":  err,
			}).Warn("Bridge API unavailable, using fee estimate")
		}
	}

	return a.buildQuote(p, amount, feePct, feeSource), nil
}

func (a *HTTPAdapter) checkBounds(amount decimal.Decimal) error {
	if a.profile.MinimumAmount != "" {
		if lo, err := decimal.NewFromString(a.profile.MinimumAmount); err == nil && amount.LessThan(lo) {
			return fmt.Errorf("%s: amount %s below minimum %s: %w", a.Name(), amount, lo, ErrNoRoute)
		}
	}
	if a.profile.MaximumAmount != "" {
		if hi, err := decimal.NewFromString(a.profile.MaximumAmount); err == nil && amount.GreaterThan(hi) {
			return fmt.Errorf("%s: amount %s above maximum %s: %w", a.Name(), amount, hi, ErrNoRoute)
		}
	}
	return nil
}

// fetchFeePct reads the relay fee fraction from the bridge API
func (a *HTTPAdapter) fetchFeePct(ctx context.Context, p model.RouteParams) (decimal.Decimal, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return decimal.Zero, fmt.Errorf("%s rate limit: %w", a.Name(), classify(ctx, err))
		}
	}

	src, _ := types.ParseChain(p.SourceChain)
	dst, _ := types.ParseChain(p.DestinationChain)
	q := url.Values{}
	q.Set("token", p.SourceToken)
	q.Set("originChainId", strconv.FormatInt(src.ChainID(), 10))
	q.Set("destinationChainId", strconv.FormatInt(dst.ChainID(), 10))
	q.Set("amount", p.Amount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.profile.APIURL+a.profile.QuotePath+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: error creating request: %v: %w", a.Name(), err, ErrUpstreamFailure)
	}
	req.Header.Set("Accept", "application/json")

	logrus.Debugf("Requesting fee quote from %s", a.Name())
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %v: %w", a.Name(), err, classify(ctx, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: reading response: %v: %w", a.Name(), err, classify(ctx, err))
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%s API error: status %d: %w", a.Name(), resp.StatusCode, ErrUpstreamFailure)
	}

	field := gjson.GetBytes(body, a.profile.FeePctPath)
	if !field.Exists() {
		return decimal.Zero, fmt.Errorf("%s: response has no %q: %w", a.Name(), a.profile.FeePctPath, ErrUpstreamFailure)
	}
	pct, err := decimal.NewFromString(field.String())
	if err != nil || pct.IsNegative() || pct.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%s: unusable fee %q: %w", a.Name(), field.String(), ErrUpstreamFailure)
	}
	return pct, nil
}

func (a *HTTPAdapter) buildQuote(p model.RouteParams, amount, feePct decimal.Decimal, feeSource string) model.BridgeQuote {
	src, _ := types.ParseChain(p.SourceChain)
	dst, _ := types.ParseChain(p.DestinationChain)

	amountUSD := amount.Shift(-a.profile.TokenDecimals)
	bridgeFee := amountUSD.Mul(feePct).Round(2).Add(a.profile.FixedFeeUSD)
	fees := model.NewFeeBreakdown(bridgeFee, a.sourceGas(src), a.destinationGas(dst)).
		WithSlippage(a.profile.SlippagePct)

	retained := decimal.NewFromInt(1).Sub(feePct).Sub(a.profile.SlippagePct.Div(hundred))
	out := amount.Mul(retained).Truncate(0)
	if out.IsNegative() {
		out = decimal.Zero
	}

	var steps []model.Step
	if a.profile.RequiresApproval {
		steps = append(steps, model.Step{Action: "approve", Description: "Approve token spending"})
	}
	steps = append(steps, model.Step{
		Action:      "bridge",
		Description: fmt.Sprintf("Bridge to %s via %s", dst, a.profile.Name),
	})

	return model.BridgeQuote{
		QuoteID:              security.NewQuoteID(a.Name()),
		BridgeName:           a.profile.Name,
		Protocol:             a.profile.Protocol,
		RouteType:            model.RouteDirect,
		EstimatedTimeSeconds: a.profile.EstimatedTimeSeconds,
		FeeBreakdown:         fees,
		SuccessRate:          a.profile.SuccessRate,
		Steps:                steps,
		RequiresApproval:     a.profile.RequiresApproval,
		MinimumAmount:        a.profile.MinimumAmount,
		MaximumAmount:        a.profile.MaximumAmount,
		AmountOut:            out.String(),
		Metadata: map[string]string{
			"fee_pct":    feePct.String(),
			"fee_source": feeSource,
		},
	}
}

func (a *HTTPAdapter) sourceGas(c types.SupportedChain) decimal.Decimal {
	if v, ok := a.profile.SourceGasUSD[c]; ok {
		return v
	}
	base, ok := sharedSourceGasUSD[c]
	if !ok {
		base = defaultSourceGasUSD
	}
	if a.profile.GasMultiplier.IsPositive() {
		base = base.Mul(a.profile.GasMultiplier).Round(2)
	}
	return base
}

func (a *HTTPAdapter) destinationGas(c types.SupportedChain) decimal.Decimal {
	if v, ok := a.profile.DestinationGasUSD[c]; ok {
		return v
	}
	return a.profile.DefaultDestinationGas
}

// CheckAvailability queries the protocol's health endpoint
func (a *HTTPAdapter) CheckAvailability(ctx context.Context) model.BridgeHealth {
	health := model.BridgeHealth{BridgeName: a.Name(), IsActive: true}

	ctx, cancel := context.WithTimeout(ctx, a.opts.HealthTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.profile.APIURL+a.profile.HealthPath, nil)
	if err != nil {
		health.ErrorMessage = err.Error()
		health.CheckedAt = time.Now().UTC()
		return health
	}

	resp, err := a.healthClient.Do(req)
	elapsed := time.Since(start).Milliseconds()
	health.ResponseTimeMs = &elapsed
	health.CheckedAt = time.Now().UTC()
	if err != nil {
		health.ErrorMessage = classify(ctx, err).Error()
		return health
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	health.IsHealthy = resp.StatusCode == http.StatusOK
	if !health.IsHealthy {
		health.ErrorMessage = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return health
}
