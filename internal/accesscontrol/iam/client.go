package iam

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
	"github.com/tenantgate/tenantgate/pkg/config"
	"github.com/tenantgate/tenantgate/pkg/errors"
	"github.com/tenantgate/tenantgate/pkg/logger"
)

var registerCodecOnce sync.Once

// GRPCVerifier is C1's remote collaborator: it dials the identity service
// once at construction and issues one unary VerifyAccessToken call per
// cache miss, through the TTL cache and circuit breaker below.
type GRPCVerifier struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	cache   *TokenCache
	breaker *CircuitBreaker
	logger  *logger.Logger
}

// NewGRPCVerifier dials cfg.GRPCEndpoint with insecure transport credentials
// (the identity service sits on a private network segment in every example
// topology this is grounded on) and wires the token cache and breaker from
// the remaining IAM settings.
func NewGRPCVerifier(cfg *config.IAMConfig, log *logger.Logger) (*GRPCVerifier, error) {
	registerCodecOnce.Do(func() {
		encoding.RegisterCodec(jsonCodec{})
	})

	conn, err := grpc.NewClient(cfg.GRPCEndpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	return &GRPCVerifier{
		conn:    conn,
		timeout: cfg.GRPCTimeout,
		cache:   NewTokenCache(cfg.TokenCacheTTL),
		breaker: NewCircuitBreaker(cfg.CircuitBreakerFailureThresh, cfg.CircuitBreakerOpenDuration),
		logger:  log.WithComponent("iam.verifier"),
	}, nil
}

// Close releases the underlying gRPC connection.
func (v *GRPCVerifier) Close() error {
	return v.conn.Close()
}

// Verify implements C1's contract: verify(token) -> (subjectId, expiresAt)
// | InvalidToken | Unavailable (spec.md §4.1).
func (v *GRPCVerifier) Verify(ctx context.Context, token string) (*domain.TokenVerification, error) {
	token = trimToken(token)
	if token == "" {
		return nil, errors.InvalidToken("empty token")
	}

	key := cacheKey(token)
	if cached, ok := v.cache.Get(key); ok {
		return cached, nil
	}

	if v.breaker.Open() {
		return nil, errors.Unavailable("circuit open")
	}

	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	resp, err := v.call(callCtx, token)
	if err != nil {
		v.breaker.RecordFailure()
		return nil, errors.Unavailable(err.Error())
	}

	if !resp.IsValid {
		// Protocol-level rejection: leaves breaker state untouched, neither
		// a failure nor a success (spec.md §7: "Circuit-breaker openings
		// are counted only on transport/timeout errors, not on
		// protocol-level 'invalid token' responses.").
		return nil, errors.InvalidToken(resp.ErrorMessage)
	}

	if _, err := uuidParse(resp.SubjectID); err != nil {
		return nil, errors.InvalidToken("subject is not a valid UUID")
	}

	v.breaker.RecordSuccess()

	verification := &domain.TokenVerification{
		SubjectID: resp.SubjectID,
		JTI:       resp.JTI,
		ExpiresAt: time.Unix(int64(resp.ExpEpochSeconds), 0),
	}
	v.cache.Set(key, verification)
	return verification, nil
}

func (v *GRPCVerifier) call(ctx context.Context, token string) (*verifyAccessTokenResponse, error) {
	req := &verifyAccessTokenRequest{AccessToken: token}
	resp := &verifyAccessTokenResponse{}

	err := v.conn.Invoke(ctx, verifyAccessTokenMethod, req, resp, grpc.CallContentSubtype(jsonCodec{}.Name()))
	if err != nil {
		return nil, err
	}
	return resp, nil
}
