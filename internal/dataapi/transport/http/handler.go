package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/internal/dataapi/service"
	"github.com/tenantgate/tenantgate/pkg/errors"
	"github.com/tenantgate/tenantgate/pkg/httputil"
	"github.com/tenantgate/tenantgate/pkg/logger"
)

// Handler wires the data_api service into chi routes.
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new data-API handler.
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: svc, logger: log.WithComponent("dataapi.handler")}
}

// ListRows handles `GET /api/v1/{table}`.
func (h *Handler) ListRows(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	criteria, err := listCriteria(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.service.ListRows(r.Context(), requestContext(r), table, criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetRow handles `GET /api/v1/{table}/{rowId}`.
func (h *Handler) GetRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	rowID := chi.URLParam(r, "rowId")

	row, err := h.service.GetRow(r.Context(), requestContext(r), table, rowID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// GetSchema handles `GET /api/v1/{table}/_schema`.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	schema, err := h.service.GetSchema(r.Context(), requestContext(r), table)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

// CreateRow handles `POST /api/v1/{table}`.
func (h *Handler) CreateRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	row, err := h.service.CreateRow(r.Context(), requestContext(r), table, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

// PatchRow handles `PATCH /api/v1/{table}/{rowId}`.
func (h *Handler) PatchRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	rowID := chi.URLParam(r, "rowId")

	body, err := readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	row, err := h.service.PatchRow(r.Context(), requestContext(r), table, rowID, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// DeleteRow handles `DELETE /api/v1/{table}/{rowId}`.
func (h *Handler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	rowID := chi.URLParam(r, "rowId")

	if err := h.service.DeleteRow(r.Context(), requestContext(r), table, rowID); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

// ListCatalog handles `GET /api/v1/_metadata`.
func (h *Handler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.ListCatalog(r.Context(), requestContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// ListPolicyTemplates handles `GET /api/v1/_metadata/policy-templates`.
func (h *Handler) ListPolicyTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.ListPolicyTemplates(r.Context(), requestContext(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// UpsertTableAccess handles `PUT /api/v1/_metadata/{table}`.
func (h *Handler) UpsertTableAccess(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var flags domain.TableAccessMetadata
	if err := decodeJSON(r, &flags); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.service.UpsertTableAccess(r.Context(), requestContext(r), table, flags)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UpsertColumnAccess handles `PUT /api/v1/_metadata/{table}/columns/{column}`.
func (h *Handler) UpsertColumnAccess(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	column := chi.URLParam(r, "column")

	var req struct {
		Readable bool `json:"readable"`
		Writable bool `json:"writable"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.UpsertColumnAccess(r.Context(), requestContext(r), table, column, req.Readable, req.Writable); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

// ApplyPolicyTemplate handles `POST /api/v1/_metadata/{table}/policy-templates`.
func (h *Handler) ApplyPolicyTemplate(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")

	var req struct {
		Template string `json:"template" validate:"required,oneof=acl_crud acl_read_only authenticated_crud"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.ApplyPolicyTemplate(r.Context(), requestContext(r), table, domain.PolicyTemplateName(req.Template)); err != nil {
		writeError(w, err)
		return
	}
	writeNoContent(w)
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, service.MaxPayloadBytes+1))
	if err != nil {
		return nil, errors.InvalidPayload("failed to read request body")
	}
	return body, nil
}

func decodeJSON(r *http.Request, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	return decodeJSONBody(body, v)
}
