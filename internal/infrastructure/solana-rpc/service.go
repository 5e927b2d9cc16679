package solanarpc

import (
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
)

var (
	// ErrMissingRPCURL ...
	ErrMissingRPCURL = errors.New("missing rpc url")
	// ErrInvalidRequestsPerSecond ...
	ErrInvalidRequestsPerSecond = errors.New("requests per second must not be negative")
	// ErrEmptyResult ...
	ErrEmptyResult = errors.New("rpc returned an empty result")
)

type ServiceOpts struct {
	RPCURL string
	// RequestsPerSecond caps the rate of outgoing requests, zero means no
	// limit.
	RequestsPerSecond int
	// Registerer, if defined, is where request metrics are registered.
	Registerer prometheus.Registerer
}

func (o ServiceOpts) validate() error {
	if len(o.RPCURL) <= 0 {
		return ErrMissingRPCURL
	}
	if o.RequestsPerSecond < 0 {
		return ErrInvalidRequestsPerSecond
	}
	return nil
}

type service struct {
	client  *rpc.Client
	cb      *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
	metrics *metrics
}

// NewService returns a Solana JSON-RPC client as a ports.RPCClient
// interface. Requests are rate limited and guarded by a circuit breaker.
func NewService(opts ServiceOpts) (ports.RPCClient, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	limiter := ratelimit.NewUnlimited()
	if opts.RequestsPerSecond > 0 {
		limiter = ratelimit.New(opts.RequestsPerSecond)
	}

	m := newMetrics()
	if opts.Registerer != nil {
		if err := m.register(opts.Registerer); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	return &service{
		client:  rpc.New(opts.RPCURL),
		cb:      circuitbreaker.NewCircuitBreaker("solana-rpc"),
		limiter: limiter,
		metrics: m,
	}, nil
}

// call runs the given request once the rate limiter allows it. Not-found
// results must be returned as nil values by fn, not as errors, so that they
// don't count as failures for the circuit breaker.
func (s *service) call(
	method string, fn func() (interface{}, error),
) (interface{}, error) {
	s.limiter.Take()

	start := time.Now()
	res, err := s.cb.Execute(fn)
	s.metrics.observe(method, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return res, nil
}

func commitment(c ports.Commitment) rpc.CommitmentType {
	if len(c) <= 0 {
		return rpc.CommitmentConfirmed
	}
	return rpc.CommitmentType(c)
}
