package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions tells where a ClickHouseRecorder connects.
type ClickHouseOptions struct {
	Addr      string
	Database  string
	Username  string
	Password  string
	BatchSize int
}

// ClickHouseRecorder records tables into a ClickHouse server through the
// native protocol. Entries are sent in batches, one batch per table.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	mu        sync.Mutex
	batchSize int

	tables     map[string]*table
	tableNames []string
	entryCount int
	exec       *execRecorder
}

// NewClickHouseRecorder connects to a ClickHouse server and records the
// execution information of the process in the exec_info table.
func NewClickHouseRecorder(opts ClickHouseOptions) (*ClickHouseRecorder, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = defaultBatchSize
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	r := &ClickHouseRecorder{
		conn:      conn,
		batchSize: opts.BatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { r.Flush() })

	r.exec = newExecRecorder(r)
	r.exec.Start()

	return r, nil
}

// CreateTable creates a MergeTree table whose columns follow the fields of
// the sample entry.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	createSQL, err := clickHouseCreateTableSQL(tableName, sampleEntry)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.conn.Exec(context.Background(), createSQL)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	r.tableNames = append(r.tableNames, tableName)
}

// InsertData buffers an entry. A full batch is sent right away.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()

	t, exists := r.tables[tableName]
	if !exists {
		r.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	t.entries = append(t.entries, entry)
	r.entryCount++
	full := r.entryCount >= r.batchSize

	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

// ListTables returns the names of the tables created so far.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.tableNames...)
}

// Flush sends all the buffered entries.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for _, tableName := range r.tableNames {
		t := r.tables[tableName]
		if len(t.entries) == 0 {
			continue
		}

		r.flushTable(ctx, tableName, t)
	}

	r.entryCount = 0
}

func (r *ClickHouseRecorder) flushTable(
	ctx context.Context,
	tableName string,
	t *table,
) {
	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch: %w", err))
	}

	for _, entry := range t.entries {
		err = batch.Append(clickHouseValues(entry)...)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	err = batch.Send()
	if err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}

	t.entries = nil
}

// Close flushes remaining data and closes the connection
func (r *ClickHouseRecorder) Close() error {
	if r.exec != nil {
		r.exec.End()
		r.exec = nil
	}

	r.Flush()

	err := r.conn.Close()
	if err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}

var clickHouseTypes = map[reflect.Kind]string{
	reflect.Bool:    "Bool",
	reflect.Int:     "Int64",
	reflect.Int8:    "Int8",
	reflect.Int16:   "Int16",
	reflect.Int32:   "Int32",
	reflect.Int64:   "Int64",
	reflect.Uint:    "UInt64",
	reflect.Uint8:   "UInt8",
	reflect.Uint16:  "UInt16",
	reflect.Uint32:  "UInt32",
	reflect.Uint64:  "UInt64",
	reflect.Float32: "Float32",
	reflect.Float64: "Float64",
	reflect.String:  "String",
}

func clickHouseCreateTableSQL(tableName string, sampleEntry any) (string, error) {
	names, err := fieldNames(sampleEntry)
	if err != nil {
		return "", err
	}

	st := reflect.TypeOf(sampleEntry)
	columns := make([]string, len(names))

	for i, name := range names {
		columns[i] = name + " " + clickHouseTypes[st.Field(i).Type.Kind()]
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\nORDER BY tuple()",
		tableName, strings.Join(columns, ",\n\t")), nil
}

// clickHouseValues widens int and uint, which have no fixed-width column
// type, to their 64-bit forms.
func clickHouseValues(entry any) []any {
	values := fieldValues(entry)

	for i, v := range values {
		switch x := v.(type) {
		case int:
			values[i] = int64(x)
		case uint:
			values[i] = uint64(x)
		}
	}

	return values
}
