// Package adapter defines the backend contract for remote data sources.
//
// Concrete implementations live in pkg/adapters/ subdirectories and register
// themselves by name in their init() functions. Callers obtain an adapter
// through New and drive it with SQL; the adapter translates and executes
// against the remote API.
package adapter

import (
	"context"

	"github.com/forceql/forceql/pkg/core"
)

// Adapter is the interface every backend implements.
type Adapter interface {
	// Connect validates the configuration and, unless lazy connect is
	// set, authenticates against the remote service.
	Connect(ctx context.Context, cfg core.ConnectionConfig) error

	// Close releases the session and any cached credentials.
	Close() error

	// Query executes a SELECT, binding ? placeholders from args.
	Query(ctx context.Context, sql string, args ...any) (*core.QueryResult, error)

	// Exec executes an INSERT, UPDATE or DELETE.
	Exec(ctx context.Context, sql string, args ...any) (*core.ExecResult, error)

	// ListObjects returns the queryable objects of the connected org.
	ListObjects(ctx context.Context) ([]core.ObjectSummary, error)

	// DescribeObject returns full field metadata for one object.
	DescribeObject(ctx context.Context, name string) (*core.ObjectMetadata, error)
}
