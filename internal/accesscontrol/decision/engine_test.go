package decision

import (
	"math/rand"
	"testing"

	"github.com/tenantgate/tenantgate/internal/accesscontrol/domain"
)

func strs(values ...string) *[]string {
	cols := append([]string(nil), values...)
	return &cols
}

func ptr(s string) *string {
	return &s
}

// TestEvaluate_SeedScenarios mirrors spec.md §8's literal seed scenarios.
func TestEvaluate_SeedScenarios(t *testing.T) {
	t.Run("default deny with no roles", func(t *testing.T) {
		req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read"}
		got := Evaluate(req, nil)
		if got.Allowed {
			t.Fatalf("expected deny, got allow")
		}
		if got.Reason != "no matching policy rule" {
			t.Errorf("reason = %q, want %q", got.Reason, "no matching policy rule")
		}
	})

	t.Run("matching allow", func(t *testing.T) {
		req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read"}
		rules := []domain.PolicyRule{
			{RoleName: "admin", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow},
		}
		got := Evaluate(req, rules)
		if !got.Allowed || got.Reason != "allow rule matched" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("specific allow beats wildcard deny", func(t *testing.T) {
		req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read"}
		rules := []domain.PolicyRule{
			{RoleName: "admin", ResourceName: "*", ActionName: "*", Effect: domain.EffectDeny},
			{RoleName: "admin", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow},
		}
		got := Evaluate(req, rules)
		if !got.Allowed || got.Reason != "allow rule won by specificity" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("same specificity deny wins", func(t *testing.T) {
		req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read"}
		rules := []domain.PolicyRule{
			{RoleName: "admin", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow},
			{RoleName: "admin", ResourceName: "productos", ActionName: "read", Effect: domain.EffectDeny},
		}
		got := Evaluate(req, rules)
		if got.Allowed || got.Reason != "deny rule won by precedence" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("denied column rejects request", func(t *testing.T) {
		req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read", RequestedColumns: []string{"precio"}}
		rules := []domain.PolicyRule{
			{RoleName: "editor", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow, DeniedColumns: strs("precio")},
		}
		got := Evaluate(req, rules)
		if got.Allowed || got.Reason != "no rule matched context/columns" {
			t.Errorf("got %+v", got)
		}
	})
}

func TestEvaluate_NoneAllowSomeDeny(t *testing.T) {
	req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read"}
	rules := []domain.PolicyRule{
		{RoleName: "viewer", ResourceName: "productos", ActionName: "read", Effect: domain.EffectDeny},
	}
	got := Evaluate(req, rules)
	if got.Allowed || got.Reason != "explicit deny rule" {
		t.Errorf("got %+v", got)
	}
}

func TestEvaluate_ColumnMatch(t *testing.T) {
	t.Run("allowed columns restrict scope", func(t *testing.T) {
		req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read", RequestedColumns: []string{"nombre", "precio"}}
		rules := []domain.PolicyRule{
			{RoleName: "viewer", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow, AllowedColumns: strs("nombre")},
		}
		got := Evaluate(req, rules)
		if got.Allowed {
			t.Fatalf("expected deny: precio not in allowed_columns")
		}
	})

	t.Run("empty requested columns trivially satisfy both lists", func(t *testing.T) {
		req := domain.PermissionRequest{ResourceName: "productos", ActionName: "delete"}
		rules := []domain.PolicyRule{
			{RoleName: "admin", ResourceName: "productos", ActionName: "delete", Effect: domain.EffectAllow, AllowedColumns: strs("nombre"), DeniedColumns: strs("precio")},
		}
		got := Evaluate(req, rules)
		if !got.Allowed {
			t.Fatalf("expected allow: no requested columns to check against lists")
		}
	})
}

func TestEvaluate_OwnerScope(t *testing.T) {
	t.Run("owner scope requires both ids present and equal", func(t *testing.T) {
		req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read"}
		rules := []domain.PolicyRule{
			{RoleName: "owner", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow, OwnerScope: true},
		}
		got := Evaluate(req, rules)
		if got.Allowed {
			t.Fatalf("expected deny: missing owner ids")
		}
	})

	t.Run("owner scope satisfied when ids match", func(t *testing.T) {
		req := domain.PermissionRequest{
			ResourceName: "productos", ActionName: "read",
			SubjectOwnerID: ptr("u1"), RowOwnerID: ptr("u1"),
		}
		rules := []domain.PolicyRule{
			{RoleName: "owner", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow, OwnerScope: true},
		}
		got := Evaluate(req, rules)
		if !got.Allowed {
			t.Fatalf("expected allow: owner ids match")
		}
	})

	t.Run("owner scope fails when ids differ", func(t *testing.T) {
		req := domain.PermissionRequest{
			ResourceName: "productos", ActionName: "read",
			SubjectOwnerID: ptr("u1"), RowOwnerID: ptr("u2"),
		}
		rules := []domain.PolicyRule{
			{RoleName: "owner", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow, OwnerScope: true},
		}
		got := Evaluate(req, rules)
		if got.Allowed {
			t.Fatalf("expected deny: owner ids differ")
		}
	})
}

// TestEvaluate_OrderIndependence asserts spec.md §8's
// "evaluate(Q, R) = evaluate(Q, shuffle(R))" property across many
// shuffles of a representative rule set.
func TestEvaluate_OrderIndependence(t *testing.T) {
	req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read"}
	base := []domain.PolicyRule{
		{RoleName: "admin", ResourceName: "*", ActionName: "*", Effect: domain.EffectDeny},
		{RoleName: "admin", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow},
		{RoleName: "viewer", ResourceName: "productos", ActionName: "*", Effect: domain.EffectDeny},
		{RoleName: "viewer", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow, OwnerScope: true},
	}

	want := Evaluate(req, base)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		shuffled := append([]domain.PolicyRule(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Evaluate(req, shuffled)
		if got != want {
			t.Fatalf("shuffle %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestEvaluate_WildcardSpecificityTiebreak(t *testing.T) {
	req := domain.PermissionRequest{ResourceName: "productos", ActionName: "read"}

	t.Run("specific action beats wildcard action at same resource", func(t *testing.T) {
		rules := []domain.PolicyRule{
			{RoleName: "r", ResourceName: "productos", ActionName: "*", Effect: domain.EffectDeny},
			{RoleName: "r", ResourceName: "productos", ActionName: "read", Effect: domain.EffectAllow},
		}
		got := Evaluate(req, rules)
		if !got.Allowed {
			t.Errorf("expected the literally-matching action to win: got %+v", got)
		}
	})

	t.Run("two fully wildcard rules of opposing effect still resolve via deny precedence", func(t *testing.T) {
		rules := []domain.PolicyRule{
			{RoleName: "r", ResourceName: "*", ActionName: "*", Effect: domain.EffectAllow},
			{RoleName: "r", ResourceName: "*", ActionName: "*", Effect: domain.EffectDeny},
		}
		got := Evaluate(req, rules)
		if got.Allowed {
			t.Errorf("expected deny to win ties: got %+v", got)
		}
	})
}
