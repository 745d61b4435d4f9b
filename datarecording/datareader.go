package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"
)

// Query selects rows of one table. Columns are checked against the struct
// the table is mapped to, and values are always bound as arguments.
type Query struct {
	table      string
	conditions []condition
	orderBy    string
	descending bool
	limit      int
	offset     int
}

type condition struct {
	column string
	op     string
	values []any
}

// From starts a query on a table.
func From(tableName string) Query {
	return Query{table: tableName}
}

// Equal keeps the rows whose column equals the value.
func (q Query) Equal(column string, value any) Query {
	q.conditions = append(append([]condition(nil), q.conditions...),
		condition{column: column, op: "= ?", values: []any{value}})
	return q
}

// Between keeps the rows whose column is within [low, high].
func (q Query) Between(column string, low, high any) Query {
	q.conditions = append(append([]condition(nil), q.conditions...),
		condition{column: column, op: "BETWEEN ? AND ?", values: []any{low, high}})
	return q
}

// OrderBy sorts the rows by a column, ascending unless descending is set.
func (q Query) OrderBy(column string, descending bool) Query {
	q.orderBy = column
	q.descending = descending

	return q
}

// Page returns at most limit rows after skipping offset rows. A limit of 0
// returns all rows.
func (q Query) Page(limit, offset int) Query {
	q.limit = limit
	q.offset = offset

	return q
}

// DataReader reads back the tables written by a DataRecorder.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table are read
	// into. A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any) error

	// ListTables returns the tables stored in the recording.
	ListTables(ctx context.Context) ([]string, error)

	// Query returns the selected rows, as pointers to the mapped struct,
	// and the number of rows that match before paging.
	Query(ctx context.Context, q Query) (rows []any, total int, err error)

	// Close closes the recording.
	Close() error
}

type mappedTable struct {
	structType reflect.Type
	columns    map[string]bool
}

type sqliteReader struct {
	db     *sql.DB
	tables map[string]mappedTable
}

// NewReader opens a recording written by the SQLite recorder.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return nil, err
	}

	return NewReaderWithDB(db), nil
}

// NewReaderWithDB creates a DataReader on an open database.
func NewReaderWithDB(db *sql.DB) DataReader {
	return &sqliteReader{
		db:     db,
		tables: make(map[string]mappedTable),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) error {
	names, err := fieldNames(sampleEntry)
	if err != nil {
		return err
	}

	columns := make(map[string]bool, len(names))
	for _, n := range names {
		columns[n] = true
	}

	r.tables[tableName] = mappedTable{
		structType: reflect.TypeOf(sampleEntry),
		columns:    columns,
	}

	return nil
}

func (r *sqliteReader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}

		tables = append(tables, name)
	}

	return tables, rows.Err()
}

func (r *sqliteReader) Query(ctx context.Context, q Query) ([]any, int, error) {
	t, ok := r.tables[q.table]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", q.table)
	}

	where, args, err := t.whereClause(q)
	if err != nil {
		return nil, 0, err
	}

	var total int

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+q.table+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	tail, err := t.orderAndPage(q)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT * FROM "+q.table+where+tail, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results, err := t.scan(rows)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

func (t mappedTable) checkColumn(column string) error {
	if !t.columns[column] {
		return fmt.Errorf("unknown column %q", column)
	}

	return nil
}

func (t mappedTable) whereClause(q Query) (string, []any, error) {
	if len(q.conditions) == 0 {
		return "", nil, nil
	}

	parts := make([]string, 0, len(q.conditions))

	var args []any

	for _, c := range q.conditions {
		if err := t.checkColumn(c.column); err != nil {
			return "", nil, err
		}

		parts = append(parts, c.column+" "+c.op)
		args = append(args, c.values...)
	}

	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func (t mappedTable) orderAndPage(q Query) (string, error) {
	var sb strings.Builder

	if q.orderBy != "" {
		if err := t.checkColumn(q.orderBy); err != nil {
			return "", err
		}

		sb.WriteString(" ORDER BY " + q.orderBy)

		if q.descending {
			sb.WriteString(" DESC")
		}
	}

	if q.limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", q.limit, q.offset)
	}

	return sb.String(), nil
}

// scan reads each row into a new struct. Columns without a matching field
// are skipped.
func (t mappedTable) scan(rows *sql.Rows) ([]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []any

	for rows.Next() {
		entry := reflect.New(t.structType)
		targets := make([]any, len(columns))

		for i, col := range columns {
			if t.columns[col] {
				targets[i] = entry.Elem().FieldByName(col).Addr().Interface()
				continue
			}

			var skipped any
			targets[i] = &skipped
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		results = append(results, entry.Interface())
	}

	return results, rows.Err()
}
