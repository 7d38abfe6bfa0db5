package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tenantgate/tenantgate/internal/dataapi/domain"
	"github.com/tenantgate/tenantgate/pkg/database"
	"github.com/tenantgate/tenantgate/pkg/errors"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// validIdentifier enforces spec.md §4.9's identifier-safety invariant:
// every schema/table/column value reaching SQL must match this shape
// before being quoted and interpolated as an identifier.
func validIdentifier(value string) bool {
	return identifierPattern.MatchString(value)
}

func quoteIdent(value string) (string, error) {
	if !validIdentifier(value) {
		return "", errors.InvalidIdentifier("sql", value)
	}
	return `"` + value + `"`, nil
}

// Executor is C10: translates authorized requests into parameterized SQL
// against a tenant's own database.
type Executor struct{}

// NewExecutor creates a new data executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// IntrospectTable reads information_schema to describe a table's columns,
// marking primary-key membership (spec.md §4.9).
func (e *Executor) IntrospectTable(ctx context.Context, tenantDB *database.DB, schema, table string) (*domain.TableSchema, error) {
	rows, err := tenantDB.QueryxContext(ctx, `
		SELECT c.column_name, c.data_type, (c.is_nullable = 'YES') AS nullable,
		       (kcu.column_name IS NOT NULL) AS primary_key
		FROM information_schema.columns c
		LEFT JOIN information_schema.table_constraints tc
		       ON tc.table_schema = c.table_schema AND tc.table_name = c.table_name AND tc.constraint_type = 'PRIMARY KEY'
		LEFT JOIN information_schema.key_column_usage kcu
		       ON kcu.constraint_name = tc.constraint_name AND kcu.table_schema = c.table_schema
		      AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`, schema, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []domain.ColumnInfo
	for rows.Next() {
		var col domain.ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.PrimaryKey); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, domain.ErrTableNotFound
	}

	return &domain.TableSchema{Schema: schema, Table: table, Columns: columns}, nil
}

// ListRows builds and runs a dynamic SELECT ... jsonb_agg(...) statement
// (spec.md §4.9 "List"). An empty result set returns an empty slice, not
// an error.
func (e *Executor) ListRows(ctx context.Context, tenantDB *database.DB, schema, table string, criteria domain.ListCriteria) ([]map[string]any, error) {
	qSchema, err := quoteIdent(schema)
	if err != nil {
		return nil, err
	}
	qTable, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}

	fields := "to_jsonb(t)"
	if len(criteria.Fields) > 0 {
		parts := make([]string, 0, len(criteria.Fields))
		for _, f := range criteria.Fields {
			qf, err := quoteIdent(f)
			if err != nil {
				return nil, err
			}
			parts = append(parts, fmt.Sprintf("'%s', t.%s", f, qf))
		}
		fields = "jsonb_build_object(" + strings.Join(parts, ", ") + ")"
	}

	query := fmt.Sprintf(`SELECT jsonb_agg(%s) FROM %s.%s AS t`, fields, qSchema, qTable)

	var args []any
	var whereClauses []string
	n := 1

	filterCols := make([]string, 0, len(criteria.Filters))
	for col := range criteria.Filters {
		filterCols = append(filterCols, col)
	}
	for _, col := range filterCols {
		qcol, err := quoteIdent(col)
		if err != nil {
			return nil, err
		}
		whereClauses = append(whereClauses, fmt.Sprintf(`t.%s::text = $%d`, qcol, n))
		args = append(args, criteria.Filters[col])
		n++
	}
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	if criteria.OrderBy != "" {
		qOrder, err := quoteIdent(criteria.OrderBy)
		if err != nil {
			return nil, err
		}
		direction := "ASC"
		if criteria.OrderDesc {
			direction = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY t.%s %s", qOrder, direction)
	}

	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", n, n+1)
	args = append(args, criteria.Limit, criteria.Offset)

	var raw []byte
	if err := tenantDB.QueryRowxContext(ctx, query, args...).Scan(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return []map[string]any{}, nil
	}

	var result []map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetRowByPrimaryKey runs `SELECT to_jsonb(t) FROM "s"."t" WHERE "pk"::text = $1`.
func (e *Executor) GetRowByPrimaryKey(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string) (map[string]any, error) {
	qSchema, err := quoteIdent(schema)
	if err != nil {
		return nil, err
	}
	qTable, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	qPK, err := quoteIdent(pkColumn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT to_jsonb(t) FROM %s.%s AS t WHERE t.%s::text = $1`, qSchema, qTable, qPK)

	var raw []byte
	err = tenantDB.QueryRowxContext(ctx, query, pkValue).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateRow issues `INSERT ... SELECT r.<col>... FROM
// jsonb_populate_record(NULL::"s"."t", $1::jsonb) RETURNING to_jsonb(t)`
// (spec.md §4.9 "Create").
func (e *Executor) CreateRow(ctx context.Context, tenantDB *database.DB, schema, table string, payload map[string]any) (map[string]any, error) {
	if len(payload) == 0 {
		return nil, errors.InvalidPayload("create payload must not be empty")
	}

	qSchema, err := quoteIdent(schema)
	if err != nil {
		return nil, err
	}
	qTable, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(payload))
	for col := range payload {
		cols = append(cols, col)
	}

	insertCols := make([]string, 0, len(cols))
	selectCols := make([]string, 0, len(cols))
	for _, col := range cols {
		qcol, err := quoteIdent(col)
		if err != nil {
			return nil, err
		}
		insertCols = append(insertCols, qcol)
		selectCols = append(selectCols, "r."+qcol)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s.%s (%s)
		SELECT %s FROM jsonb_populate_record(NULL::%s.%s, $1::jsonb) AS r
		RETURNING to_jsonb(%s.*)
	`, qSchema, qTable, strings.Join(insertCols, ", "), strings.Join(selectCols, ", "), qSchema, qTable, qTable)

	var raw []byte
	if err := tenantDB.QueryRowxContext(ctx, query, string(body)).Scan(&raw); err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// PatchRow issues an UPDATE ... SET ... WHERE "pk"::text = $1 RETURNING
// to_jsonb(t). A missing row returns (nil, nil); the coordinator maps that
// to RecordNotFound (spec.md §4.9 "Patch").
func (e *Executor) PatchRow(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string, payload map[string]any) (map[string]any, error) {
	if len(payload) == 0 {
		return nil, errors.InvalidPayload("patch payload must not be empty")
	}

	qSchema, err := quoteIdent(schema)
	if err != nil {
		return nil, err
	}
	qTable, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	qPK, err := quoteIdent(pkColumn)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(payload))
	for col := range payload {
		cols = append(cols, col)
	}

	setClauses := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	n := 1
	for _, col := range cols {
		qcol, err := quoteIdent(col)
		if err != nil {
			return nil, err
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", qcol, n))
		args = append(args, payload[col])
		n++
	}
	args = append(args, pkValue)

	query := fmt.Sprintf(`
		UPDATE %s.%s AS t SET %s WHERE t.%s::text = $%d RETURNING to_jsonb(t)
	`, qSchema, qTable, strings.Join(setClauses, ", "), qPK, n)

	var raw []byte
	err = tenantDB.QueryRowxContext(ctx, query, args...).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteRow issues `DELETE FROM "s"."t" WHERE "pk"::text = $1` and reports
// whether any row was affected.
func (e *Executor) DeleteRow(ctx context.Context, tenantDB *database.DB, schema, table, pkColumn, pkValue string) (bool, error) {
	qSchema, err := quoteIdent(schema)
	if err != nil {
		return false, err
	}
	qTable, err := quoteIdent(table)
	if err != nil {
		return false, err
	}
	qPK, err := quoteIdent(pkColumn)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`DELETE FROM %s.%s WHERE %s::text = $1`, qSchema, qTable, qPK)

	result, err := tenantDB.ExecContext(ctx, query, pkValue)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
