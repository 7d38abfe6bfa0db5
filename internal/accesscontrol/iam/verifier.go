package iam

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
)

// Verifier is C1's substitutable contract, per spec.md §9's "component
// boundaries must remain substitutable so tests can inject fakes".
type Verifier interface {
	Verify(ctx context.Context, token string) (*domain.TokenVerification, error)
}

func trimToken(token string) string {
	return strings.TrimSpace(token)
}

// cacheKey computes the SHA-256 hex digest of the raw token. The raw token
// is never stored (spec.md §4.1).
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func uuidParse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
