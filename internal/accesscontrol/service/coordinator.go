// Package service wires C1-C8 into the Authorization Coordinator (C9) and
// exposes it through the access_control facade.
package service

import (
	"sort"
	"strings"
	"time"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/decision"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/facade"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/iam"
	"github.com/tenantgate/tenantgate/internal/accesscontrol/repository"
	"github.com/tenantgate/tenantgate/pkg/errors"
	"github.com/tenantgate/tenantgate/pkg/logger"

	"context"
)

// Coordinator is C9, the only implementation of facade.Facade. It composes
// the token verifier (C1), the ownership store (C2), the policy store
// (C6), the decision engine (C7), the decision cache (C8), and the
// decision audit sink.
type Coordinator struct {
	verifier  iam.Verifier
	ownership repository.TenantOwnershipStore
	policies  repository.PolicyStore
	cache     *decision.Cache
	audit     repository.AuditSink
	logger    *logger.Logger
}

// NewCoordinator wires the Authorization Coordinator from its dependencies.
func NewCoordinator(
	verifier iam.Verifier,
	ownership repository.TenantOwnershipStore,
	policies repository.PolicyStore,
	cache *decision.Cache,
	audit repository.AuditSink,
	log *logger.Logger,
) *Coordinator {
	return &Coordinator{
		verifier:  verifier,
		ownership: ownership,
		policies:  policies,
		cache:     cache,
		audit:     audit,
		logger:    log.WithComponent("accesscontrol.coordinator"),
	}
}

// Authenticate implements spec.md §4.8 steps 1-3: extract and verify the
// bearer token, then confirm the caller owns the tenant.
func (c *Coordinator) Authenticate(ctx context.Context, tenantID, bearerHeader string) (facade.Authentication, error) {
	if strings.TrimSpace(bearerHeader) == "" {
		return facade.Authentication{}, errors.MissingAuthentication()
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(bearerHeader, prefix) || strings.TrimSpace(bearerHeader[len(prefix):]) == "" {
		return facade.Authentication{}, errors.InvalidAuthentication("malformed authorization header")
	}
	token := strings.TrimSpace(bearerHeader[len(prefix):])

	verification, err := c.verifier.Verify(ctx, token)
	if err != nil {
		return facade.Authentication{}, err
	}

	owns, err := c.ownership.Exists(ctx, tenantID, verification.SubjectID)
	if err != nil {
		return facade.Authentication{}, errors.Wrap(err, "INTERNAL_ERROR", "failed to check tenant ownership", 500)
	}
	if !owns {
		return facade.Authentication{}, errors.TenantNotOwned()
	}

	return facade.Authentication{PrincipalID: verification.SubjectID}, nil
}

// CheckPermission implements spec.md §4.8 steps 9-10 and §4.7's cache:
// resolve roles, consult the decision cache, fall back to the pure engine,
// and audit the outcome regardless of cache hit or miss.
func (c *Coordinator) CheckPermission(ctx context.Context, req facade.PermissionRequest) (facade.PermissionDecision, error) {
	roles, err := c.policies.FindRolesByPrincipal(ctx, req.TenantID, req.PrincipalID)
	if err != nil {
		return facade.PermissionDecision{}, errors.Wrap(err, "INTERNAL_ERROR", "failed to load role assignments", 500)
	}

	if len(roles) == 0 {
		result := domain.AuthorizationDecision{Allowed: false, Reason: "no roles assigned"}
		c.auditDecision(ctx, req, result, result.Reason)
		return facade.PermissionDecision{Allowed: result.Allowed, Reason: result.Reason}, nil
	}

	engineReq := toEngineRequest(req)

	if cached, ok := c.cache.Get(engineReq); ok {
		c.auditDecision(ctx, req, cached, "cached: "+cached.Reason)
		return facade.PermissionDecision{Allowed: cached.Allowed, Reason: cached.Reason}, nil
	}

	rules, err := c.policies.FindRulesForRoles(ctx, req.TenantID, req.ResourceName, req.ActionName, roles)
	if err != nil {
		return facade.PermissionDecision{}, errors.Wrap(err, "INTERNAL_ERROR", "failed to load policy rules", 500)
	}

	result := decision.Evaluate(engineReq, rules)
	c.cache.Set(engineReq, result)
	c.auditDecision(ctx, req, result, result.Reason)

	return facade.PermissionDecision{Allowed: result.Allowed, Reason: result.Reason}, nil
}

// BootstrapDataApiAccess implements spec.md §4.8 step 9's bootstrap and §9's
// "bootstrap" glossary entry: grant the implicit role, then upsert the four
// default CRUD rules scoped to the table's current column exposure.
// Upserts are idempotent, so concurrent first-requests for the same
// principal are safe without a distributed lock (spec.md §9).
func (c *Coordinator) BootstrapDataApiAccess(ctx context.Context, req facade.BootstrapRequest) error {
	if err := c.policies.AssignRole(ctx, req.TenantID, req.PrincipalID, domain.ImplicitRole); err != nil {
		return errors.Wrap(err, "INTERNAL_ERROR", "failed to assign implicit role", 500)
	}

	readable := append([]string(nil), req.ReadableColumns...)
	writable := append([]string(nil), req.WritableColumns...)

	rules := []domain.PolicyRule{
		{TenantID: req.TenantID, RoleName: domain.ImplicitRole, ResourceName: req.ResourceName, ActionName: "read", Effect: domain.EffectAllow, AllowedColumns: &readable},
		{TenantID: req.TenantID, RoleName: domain.ImplicitRole, ResourceName: req.ResourceName, ActionName: "create", Effect: domain.EffectAllow, AllowedColumns: &writable},
		{TenantID: req.TenantID, RoleName: domain.ImplicitRole, ResourceName: req.ResourceName, ActionName: "update", Effect: domain.EffectAllow, AllowedColumns: &writable},
		{TenantID: req.TenantID, RoleName: domain.ImplicitRole, ResourceName: req.ResourceName, ActionName: "delete", Effect: domain.EffectAllow},
	}

	for _, rule := range rules {
		if err := c.policies.UpsertRule(ctx, rule); err != nil {
			return errors.Wrap(err, "INTERNAL_ERROR", "failed to upsert default policy rule", 500)
		}
	}
	return nil
}

func toEngineRequest(req facade.PermissionRequest) domain.PermissionRequest {
	cols := append([]string(nil), req.RequestedColumns...)
	sort.Strings(cols)
	return domain.PermissionRequest{
		TenantID:         req.TenantID,
		PrincipalID:      req.PrincipalID,
		ResourceName:     req.ResourceName,
		ActionName:       req.ActionName,
		RequestedColumns: cols,
		SubjectOwnerID:   req.SubjectOwnerID,
		RowOwnerID:       req.RowOwnerID,
	}
}

// auditDecision writes the decision audit row. Fire-and-forget: failures
// are logged, never surfaced to the caller (spec.md §4.10, §9).
func (c *Coordinator) auditDecision(ctx context.Context, req facade.PermissionRequest, result domain.AuthorizationDecision, auditedReason string) {
	requestID := ""
	if req.RequestID != nil {
		requestID = *req.RequestID
	}

	record := domain.DecisionAuditRecord{
		TenantID:    req.TenantID,
		PrincipalID: req.PrincipalID,
		RequestID:   requestID,
		Resource:    req.ResourceName,
		Action:      req.ActionName,
		Allowed:     result.Allowed,
		Reason:      auditedReason,
		OccurredAt:  time.Now(),
	}
	if err := c.audit.RecordDecision(ctx, record); err != nil {
		c.logger.Error().Err(err).Msg("failed to audit authorization decision")
	}
}
