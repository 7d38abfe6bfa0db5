package postgres_test

import (
	"context"
	"testing"

	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/internal/dataapi/repository/postgres"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/logger"
	"github.com/tenantgate/tenantgate/pkg/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestAuditSink_RecordRequest_WritesRow(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	defer mockDB.Close()

	mockDB.Mock.ExpectExec("INSERT INTO data_api_audit_logs").WillReturnResult(sqlmock.NewResult(1, 1))

	sink := postgres.NewAuditSink(&database.DB{DB: mockDB.DB}, nil, logger.New("test", "test"))
	err := sink.RecordRequest(context.Background(), domain.RequestAuditRecord{
		TenantID: "t1", TableName: "productos", ActionName: "read", PrincipalID: "p1", Success: true, StatusCode: 200,
	})
	require.NoError(t, err)
}
