package httputil_test

import (
	"testing"

	"github.com/tenantgate/tenantgate/pkg/httputil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type templateRequest struct {
	Template string `validate:"required,oneof=acl_crud acl_read_only authenticated_crud"`
}

func TestValidate_Success(t *testing.T) {
	err := httputil.Validate(&templateRequest{Template: "acl_crud"})
	require.NoError(t, err)
}

func TestValidate_RejectsUnknownEnumValue(t *testing.T) {
	err := httputil.Validate(&templateRequest{Template: "not_a_template"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_RejectsMissingRequiredField(t *testing.T) {
	err := httputil.Validate(&templateRequest{})
	require.Error(t, err)
}
