package http

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the full data-API surface (spec.md §6) onto r. Every
// operation, including metadata administration, runs through the same
// authenticate-then-authorize pipeline inside the service layer — there is
// no separate auth middleware here, since C1/C2 need the path's table name
// to evaluate ACL rules and can't run generically in front of the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/_metadata", h.ListCatalog)
	r.Get("/_metadata/policy-templates", h.ListPolicyTemplates)
	r.Put("/_metadata/{table}", h.UpsertTableAccess)
	r.Post("/_metadata/{table}/policy-templates", h.ApplyPolicyTemplate)
	r.Put("/_metadata/{table}/columns/{column}", h.UpsertColumnAccess)

	r.Get("/{table}/_schema", h.GetSchema)
	r.Get("/{table}", h.ListRows)
	r.Get("/{table}/{rowId}", h.GetRow)
	r.Post("/{table}", h.CreateRow)
	r.Patch("/{table}/{rowId}", h.PatchRow)
	r.Delete("/{table}/{rowId}", h.DeleteRow)
}
