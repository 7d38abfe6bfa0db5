package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/internal/dataapi/service"
	"github.com/tenantgate/tenantgate/pkg/errors"
)

const defaultLimit = 50
const maxLimit = 500

func nonEmptyHeaderPtr(r *http.Request, name string) *string {
	v := r.Header.Get(name)
	if v == "" {
		return nil
	}
	return &v
}

// requestContext extracts the headers every data-API operation needs
// (spec.md §6 "Optional headers").
func requestContext(r *http.Request) service.RequestContext {
	return service.RequestContext{
		TenantID:       r.Header.Get("x-tenant-id"),
		BearerHeader:   r.Header.Get("Authorization"),
		SchemaName:     r.Header.Get("x-tenant-schema"),
		RequestID:      r.Header.Get("x-request-id"),
		SubjectOwnerID: nonEmptyHeaderPtr(r, "x-subject-owner-id"),
		RowOwnerID:     nonEmptyHeaderPtr(r, "x-row-owner-id"),
	}
}

// listCriteria parses the list query parameters (spec.md §6 "GET
// /api/v1/{table}").
func listCriteria(r *http.Request) (domain.ListCriteria, error) {
	q := r.URL.Query()

	criteria := domain.ListCriteria{
		Limit:     defaultLimit,
		Offset:    0,
		OrderBy:   q.Get("order_by"),
		OrderDesc: strings.EqualFold(q.Get("order_dir"), "desc"),
	}

	if raw := q.Get("fields"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			f = strings.TrimSpace(f)
			if f != "" {
				criteria.Fields = append(criteria.Fields, f)
			}
		}
	}

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLimit {
			return domain.ListCriteria{}, errors.InvalidQueryParameters("limit must be between 1 and 500")
		}
		criteria.Limit = n
	}

	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.ListCriteria{}, errors.InvalidQueryParameters("offset must be >= 0")
		}
		criteria.Offset = n
	}

	if raw := q.Get("order_dir"); raw != "" && !strings.EqualFold(raw, "asc") && !strings.EqualFold(raw, "desc") {
		return domain.ListCriteria{}, errors.InvalidQueryParameters("order_dir must be asc or desc")
	}

	filters := make(map[string]string)
	for key, values := range q {
		if strings.HasPrefix(key, "filter_") && len(values) > 0 {
			filters[strings.TrimPrefix(key, "filter_")] = values[0]
		}
	}
	if len(filters) > 0 {
		criteria.Filters = filters
	}

	return criteria, nil
}
