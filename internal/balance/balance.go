// Package balance resolves the token balance that gates palette tiers.
package balance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"solana-avatar-lab/internal/observability"
	"solana-avatar-lab/internal/solana"
)

// Provider returns the balance of an address.
type Provider interface {
	Name() string
	Balance(ctx context.Context, address string) (float64, error)
}

// Static returns the same balance for every address. The zero value
// reports 0, which unlocks tier 1 only.
type Static struct {
	Value float64
}

// Name implements Provider.
func (Static) Name() string { return "static" }

// Balance implements Provider.
func (s Static) Balance(context.Context, string) (float64, error) {
	return s.Value, nil
}

// Stable reports whether p returns the same balance for an address on every
// call, so outputs derived from it never go stale.
func Stable(p Provider) bool {
	switch p.(type) {
	case Static, *Static:
		return true
	}
	return false
}

// Default settings for RPCProvider.
const (
	DefaultCacheSize     = 10_000
	DefaultCacheTTL      = 5 * time.Minute
	DefaultLookupTimeout = 10 * time.Second
)

// RPCProvider sums the SPL token holdings of one mint via getTokenAccountsByOwner.
// With an empty mint it reports the native SOL balance instead.
// Results are cached per address for a short TTL.
type RPCProvider struct {
	client solana.RPCClient
	mint   string
	logger *slog.Logger
	cache   *expirable.LRU[string, float64]
	group   singleflight.Group
	timeout time.Duration
}

// RPCOption configures RPCProvider.
type RPCOption func(*rpcOptions)

type rpcOptions struct {
	size    int
	ttl     time.Duration
	timeout time.Duration
}

// WithCache sets the balance cache size and TTL.
func WithCache(size int, ttl time.Duration) RPCOption {
	return func(o *rpcOptions) {
		o.size = size
		o.ttl = ttl
	}
}

// WithLookupTimeout bounds one shared lookup. The lookup is detached from the
// caller that started it, so this is its only deadline.
func WithLookupTimeout(d time.Duration) RPCOption {
	return func(o *rpcOptions) {
		o.timeout = d
	}
}

// NewRPCProvider creates an RPCProvider.
func NewRPCProvider(client solana.RPCClient, mint string, logger *slog.Logger, opts ...RPCOption) *RPCProvider {
	o := rpcOptions{size: DefaultCacheSize, ttl: DefaultCacheTTL, timeout: DefaultLookupTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &RPCProvider{
		client: client,
		mint:   mint,
		logger: logger,
		cache:   expirable.NewLRU[string, float64](o.size, nil, o.ttl),
		timeout: o.timeout,
	}
}

// Name implements Provider.
func (p *RPCProvider) Name() string { return "rpc" }

// Balance implements Provider. Concurrent callers for one address share a
// single lookup; each caller stops waiting when its own ctx is done.
func (p *RPCProvider) Balance(ctx context.Context, address string) (float64, error) {
	if v, ok := p.cache.Get(address); ok {
		return v, nil
	}

	ch := p.group.DoChan(address, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		total, err := p.fetch(fetchCtx, address)
		observability.RecordBalanceLookup(p.Name(), err)
		if err != nil {
			return 0.0, err
		}
		p.cache.Add(address, total)
		return total, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return 0, fmt.Errorf("balance of %s: %w", address, res.Err)
		}
		return res.Val.(float64), nil
	case <-ctx.Done():
		return 0, fmt.Errorf("balance of %s: %w", address, ctx.Err())
	}
}

func (p *RPCProvider) fetch(ctx context.Context, address string) (float64, error) {
	if p.mint == "" {
		lamports, err := p.client.GetBalance(ctx, address)
		if err != nil {
			return 0, err
		}
		return float64(lamports) / solana.LamportsPerSOL, nil
	}

	accounts, err := p.client.GetTokenAccountsByOwner(ctx, address, p.mint)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, a := range accounts {
		total += a.UIAmount
	}
	p.logger.Debug("balance resolved", "address", address, "accounts", len(accounts), "balance", total)
	return total, nil
}

// Resolve returns the provider's balance, degrading to 0 when the lookup
// fails. Rendering never fails because of a balance lookup; ok is false when
// the value is the substitute rather than a looked-up balance.
func Resolve(ctx context.Context, p Provider, address string, logger *slog.Logger) (value float64, ok bool) {
	v, err := p.Balance(ctx, address)
	if err != nil {
		logger.Warn("balance lookup failed, using 0", "provider", p.Name(), "address", address, "error", err)
		return 0, false
	}
	if v < 0 {
		return 0, true
	}
	return v, true
}
