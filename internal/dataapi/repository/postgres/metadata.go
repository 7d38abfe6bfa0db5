package postgres

import (
	"context"
	"database/sql"

	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/pkg/database"
)

// MetadataStore is C5. Every method takes the tenant's own pooled
// connection (resolved upstream through C3/C4); schema metadata never
// crosses tenant boundaries because it lives in the tenant's own database.
type MetadataStore struct{}

// NewMetadataStore creates a new table/column access metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{}
}

const createMetadataTablesSQL = `
	CREATE TABLE IF NOT EXISTS data_api_table_metadata (
		schema_name VARCHAR(100) NOT NULL,
		table_name VARCHAR(100) NOT NULL,
		exposed BOOLEAN NOT NULL DEFAULT TRUE,
		read_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		create_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		update_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		delete_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		introspect_enabled BOOLEAN NOT NULL DEFAULT TRUE,
		authorization_mode VARCHAR(20) NOT NULL DEFAULT 'authenticated',
		PRIMARY KEY (schema_name, table_name)
	);
	CREATE TABLE IF NOT EXISTS data_api_column_metadata (
		schema_name VARCHAR(100) NOT NULL,
		table_name VARCHAR(100) NOT NULL,
		column_name VARCHAR(100) NOT NULL,
		readable BOOLEAN NOT NULL DEFAULT TRUE,
		writable BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (schema_name, table_name, column_name)
	);
`

// Synchronize creates the metadata tables if absent, then records a
// default row for every base table (and its columns) in schema not
// already tracked. Safe to call concurrently: duplicate inserts are
// suppressed by primary key (spec.md §4.4).
func (s *MetadataStore) Synchronize(ctx context.Context, tenantDB *database.DB, schema string) error {
	if _, err := tenantDB.ExecContext(ctx, createMetadataTablesSQL); err != nil {
		return err
	}

	var tables []string
	err := tenantDB.SelectContext(ctx, &tables, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		  AND table_name NOT IN ('data_api_table_metadata', 'data_api_column_metadata')
	`, schema)
	if err != nil {
		return err
	}

	for _, table := range tables {
		var exists bool
		if err := tenantDB.GetContext(ctx, &exists, `
			SELECT EXISTS(SELECT 1 FROM data_api_table_metadata WHERE schema_name = $1 AND table_name = $2)
		`, schema, table); err != nil {
			return err
		}
		if exists {
			continue
		}

		if _, err := tenantDB.ExecContext(ctx, `
			INSERT INTO data_api_table_metadata
				(schema_name, table_name, exposed, read_enabled, create_enabled, update_enabled, delete_enabled, introspect_enabled, authorization_mode)
			VALUES ($1, $2, TRUE, TRUE, TRUE, TRUE, TRUE, TRUE, 'authenticated')
			ON CONFLICT (schema_name, table_name) DO NOTHING
		`, schema, table); err != nil {
			return err
		}

		type columnRow struct {
			Name       string `db:"column_name"`
			PrimaryKey bool   `db:"primary_key"`
		}
		var columns []columnRow
		err := tenantDB.SelectContext(ctx, &columns, `
			SELECT c.column_name AS column_name,
			       (kcu.column_name IS NOT NULL) AS primary_key
			FROM information_schema.columns c
			LEFT JOIN information_schema.table_constraints tc
			       ON tc.table_schema = c.table_schema AND tc.table_name = c.table_name AND tc.constraint_type = 'PRIMARY KEY'
			LEFT JOIN information_schema.key_column_usage kcu
			       ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = c.table_schema
			      AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name
			WHERE c.table_schema = $1 AND c.table_name = $2
		`, schema, table)
		if err != nil {
			return err
		}

		for _, col := range columns {
			if _, err := tenantDB.ExecContext(ctx, `
				INSERT INTO data_api_column_metadata (schema_name, table_name, column_name, readable, writable)
				VALUES ($1, $2, $3, TRUE, $4)
				ON CONFLICT (schema_name, table_name, column_name) DO NOTHING
			`, schema, table, col.Name, !col.PrimaryKey); err != nil {
				return err
			}
		}
	}

	return nil
}

// GetTableAccess returns the table's access metadata row, or nil if the
// table isn't tracked (the coordinator maps this to TableNotAllowed).
func (s *MetadataStore) GetTableAccess(ctx context.Context, tenantDB *database.DB, schema, table string) (*domain.TableAccessMetadata, error) {
	var row domain.TableAccessMetadata
	err := tenantDB.GetContext(ctx, &row, `
		SELECT schema_name, table_name, exposed, read_enabled, create_enabled, update_enabled, delete_enabled, introspect_enabled, authorization_mode
		FROM data_api_table_metadata WHERE schema_name = $1 AND table_name = $2
	`, schema, table)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListWritableColumns returns the columns of (schema, table) marked
// writable.
func (s *MetadataStore) ListWritableColumns(ctx context.Context, tenantDB *database.DB, schema, table string) ([]string, error) {
	return s.listColumns(ctx, tenantDB, schema, table, "writable")
}

// ListReadableColumns returns the columns of (schema, table) marked
// readable.
func (s *MetadataStore) ListReadableColumns(ctx context.Context, tenantDB *database.DB, schema, table string) ([]string, error) {
	return s.listColumns(ctx, tenantDB, schema, table, "readable")
}

func (s *MetadataStore) listColumns(ctx context.Context, tenantDB *database.DB, schema, table, flag string) ([]string, error) {
	var cols []string
	query := `SELECT column_name FROM data_api_column_metadata WHERE schema_name = $1 AND table_name = $2 AND ` + flag
	err := tenantDB.SelectContext(ctx, &cols, query, schema, table)
	if err == sql.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return cols, nil
}

// ListCatalog returns every tracked table's access metadata for schema.
func (s *MetadataStore) ListCatalog(ctx context.Context, tenantDB *database.DB, schema string) ([]domain.TableAccessMetadata, error) {
	var rows []domain.TableAccessMetadata
	err := tenantDB.SelectContext(ctx, &rows, `
		SELECT schema_name, table_name, exposed, read_enabled, create_enabled, update_enabled, delete_enabled, introspect_enabled, authorization_mode
		FROM data_api_table_metadata WHERE schema_name = $1 ORDER BY table_name
	`, schema)
	if err == sql.ErrNoRows {
		return []domain.TableAccessMetadata{}, nil
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpsertTableAccess replaces a table's access flags.
func (s *MetadataStore) UpsertTableAccess(ctx context.Context, tenantDB *database.DB, metadata domain.TableAccessMetadata) error {
	_, err := tenantDB.ExecContext(ctx, `
		INSERT INTO data_api_table_metadata
			(schema_name, table_name, exposed, read_enabled, create_enabled, update_enabled, delete_enabled, introspect_enabled, authorization_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (schema_name, table_name) DO UPDATE SET
			exposed = EXCLUDED.exposed,
			read_enabled = EXCLUDED.read_enabled,
			create_enabled = EXCLUDED.create_enabled,
			update_enabled = EXCLUDED.update_enabled,
			delete_enabled = EXCLUDED.delete_enabled,
			introspect_enabled = EXCLUDED.introspect_enabled,
			authorization_mode = EXCLUDED.authorization_mode
	`, metadata.SchemaName, metadata.TableName, metadata.Exposed, metadata.ReadEnabled, metadata.CreateEnabled,
		metadata.UpdateEnabled, metadata.DeleteEnabled, metadata.IntrospectEnabled, string(metadata.AuthorizationMode))
	return err
}

// UpsertColumnAccess replaces a column's readable/writable flags.
func (s *MetadataStore) UpsertColumnAccess(ctx context.Context, tenantDB *database.DB, metadata domain.ColumnAccessMetadata) error {
	_, err := tenantDB.ExecContext(ctx, `
		INSERT INTO data_api_column_metadata (schema_name, table_name, column_name, readable, writable)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (schema_name, table_name, column_name) DO UPDATE SET
			readable = EXCLUDED.readable,
			writable = EXCLUDED.writable
	`, metadata.SchemaName, metadata.TableName, metadata.ColumnName, metadata.Readable, metadata.Writable)
	return err
}
