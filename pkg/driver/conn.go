package driver

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"

	"github.com/forceql/forceql/pkg/adapters/salesforce"
	"github.com/forceql/forceql/pkg/core"
)

// ErrTransactionsUnsupported is returned from Begin: the remote API commits
// every call on its own.
var ErrTransactionsUnsupported = errors.New("transactions are not supported by the remote API")

// conn is one pooled connection. The underlying adapter caches its session
// token, so connections are cheap after the first login.
type conn struct {
	adapter *salesforce.Adapter
}

var (
	_ driver.QueryerContext    = (*conn)(nil)
	_ driver.ExecerContext     = (*conn)(nil)
	_ driver.NamedValueChecker = (*conn)(nil)
)

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{conn: c, query: query}, nil
}

func (c *conn) Close() error {
	return c.adapter.Close()
}

func (c *conn) Begin() (driver.Tx, error) {
	return nil, ErrTransactionsUnsupported
}

// CheckNamedValue accepts every argument type: slices pass through so IN (?)
// can expand them, and the soql binder reports unsupported types itself.
func (c *conn) CheckNamedValue(nv *driver.NamedValue) error {
	if nv.Name != "" {
		return fmt.Errorf("named parameters are not supported")
	}
	return nil
}

func (c *conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	res, err := c.adapter.Query(ctx, query, namedToArgs(args)...)
	if err != nil {
		return nil, err
	}
	return &rows{result: res}, nil
}

func (c *conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	res, err := c.adapter.Exec(ctx, query, namedToArgs(args)...)
	if err != nil {
		return nil, err
	}
	return &result{exec: res}, nil
}

func namedToArgs(named []driver.NamedValue) []any {
	args := make([]any, len(named))
	for i, nv := range named {
		args[i] = nv.Value
	}
	return args
}

// stmt defers to the connection; the remote API has no prepared statements.
type stmt struct {
	conn  *conn
	query string
}

func (s *stmt) Close() error { return nil }

// NumInput returns -1: placeholder counting happens at parse time.
func (s *stmt) NumInput() int { return -1 }

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	return s.conn.ExecContext(context.Background(), s.query, valuesToNamed(args))
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	return s.conn.QueryContext(context.Background(), s.query, valuesToNamed(args))
}

func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.conn.ExecContext(ctx, s.query, args)
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.conn.QueryContext(ctx, s.query, args)
}

func valuesToNamed(vals []driver.Value) []driver.NamedValue {
	named := make([]driver.NamedValue, len(vals))
	for i, v := range vals {
		named[i] = driver.NamedValue{Ordinal: i + 1, Value: v}
	}
	return named
}

// rows adapts a materialized result to the driver iterator.
type rows struct {
	result *core.QueryResult
	next   int
}

func (r *rows) Columns() []string {
	return r.result.Columns
}

func (r *rows) Close() error { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.next >= len(r.result.Rows) {
		return io.EOF
	}
	row := r.result.Rows[r.next]
	r.next++
	for i := range dest {
		dest[i] = normalizeValue(row[i])
	}
	return nil
}

// normalizeValue maps decoded JSON values onto driver.Value types.
func normalizeValue(v any) driver.Value {
	switch val := v.(type) {
	case nil, bool, float64, int64, string, []byte:
		return val
	default:
		// Subquery payloads and other structured values surface as
		// their string rendering.
		return fmt.Sprintf("%v", val)
	}
}

// result reports DML outcomes. LastInsertId is unsupported: the remote API
// returns string ids, which callers read from InsertedIDs via the adapter.
type result struct {
	exec *core.ExecResult
}

func (r *result) LastInsertId() (int64, error) {
	return 0, errors.New("LastInsertId is not supported; remote ids are strings")
}

func (r *result) RowsAffected() (int64, error) {
	return r.exec.RowsAffected, nil
}
