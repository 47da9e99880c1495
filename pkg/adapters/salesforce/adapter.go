// Package salesforce implements the adapter contract against the Salesforce
// REST API: the username-password OAuth flow, SQL-to-SOQL translation, DML
// through the sobject and composite collections endpoints, and describe-based
// introspection.
package salesforce

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/forceql/forceql/pkg/core"
	"github.com/forceql/forceql/pkg/parser"
	"github.com/forceql/forceql/pkg/quirks"
	"github.com/forceql/forceql/pkg/soql"
)

// options are the adapter-specific settings carried in
// ConnectionConfig.Options.
type options struct {
	// queryAll includes soft-deleted rows in every SELECT.
	queryAll bool

	// allOrNone makes multi-row DML transactional: one rejected row
	// rolls back the whole chunk.
	allOrNone bool

	// minimalAliases strips the root-object prefix from all field paths.
	minimalAliases bool

	// edgeUpdates routes calls through edge servers via Sforce-Call-Options.
	edgeUpdates bool
}

func parseOptions(m map[string]string) options {
	return options{
		queryAll:       truthy(m["query_all"]),
		allOrNone:      truthy(m["all_or_none"]),
		minimalAliases: truthy(m["minimal_aliases"]),
		edgeUpdates:    truthy(m["edge_updates"]),
	}
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Adapter implements the backend contract for Salesforce orgs.
type Adapter struct {
	logger *slog.Logger
	cfg    core.ConnectionConfig
	opts   options
	client *client
}

// New creates a Salesforce adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{logger: logger}
}

// Connect validates the configuration and logs in, unless lazy connect is
// set, in which case the login happens on the first API call.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnectionConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		return fmt.Errorf("username and password are required")
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return fmt.Errorf("consumer key and secret are required")
	}

	a.cfg = cfg
	a.opts = parseOptions(cfg.Options)

	httpClient := &http.Client{Timeout: 2 * time.Minute}
	sess := newSession(cfg, httpClient, a.logger)

	callOptions := "client=forceql"
	if a.opts.edgeUpdates {
		callOptions += "; edge=true"
	}

	a.client = &client{
		session:     sess,
		http:        httpClient,
		logger:      a.logger,
		version:     cfg.EffectiveAPIVersion(),
		quirks:      quirks.NewRegistry(a.logger, cfg.QuietKnownBugs || quirks.QuietFromEnv()),
		callOptions: callOptions,
	}

	if cfg.LazyConnect {
		a.logger.Debug("lazy connect enabled, deferring login")
		return nil
	}
	if _, _, err := sess.token(ctx); err != nil {
		return err
	}
	return nil
}

// Close drops the cached session token.
func (a *Adapter) Close() error {
	if a.client != nil {
		a.client.session.close()
	}
	return nil
}

func (a *Adapter) ensureConnected() error {
	if a.client == nil {
		return fmt.Errorf("adapter not connected; call Connect first")
	}
	return nil
}

func (a *Adapter) translateOptions() soql.Options {
	return soql.Options{
		PKField:        a.cfg.EffectivePKField(),
		QueryAll:       a.opts.queryAll,
		MinimalAliases: a.opts.minimalAliases,
	}
}

// Query executes a SELECT statement against the org.
func (a *Adapter) Query(ctx context.Context, sql string, args ...any) (*core.QueryResult, error) {
	if err := a.ensureConnected(); err != nil {
		return nil, err
	}

	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*parser.SelectStmt)
	if !ok {
		return nil, fmt.Errorf("Query requires a SELECT statement; use Exec for DML")
	}

	q, err := soql.TranslateSelect(sel, args, a.translateOptions())
	if err != nil {
		return nil, err
	}
	for _, w := range q.Warnings {
		a.logger.Warn("translation note", slog.String("detail", w))
	}
	a.logger.Debug("executing query", slog.String("soql", q.SOQL))

	res, err := a.client.runQuery(ctx, q)
	if err != nil {
		return nil, a.client.noteQuirk(err, rootObject(sel))
	}
	return res, nil
}

// RawQuery executes a SOQL string directly, bypassing translation. Columns
// are derived from the response.
func (a *Adapter) RawQuery(ctx context.Context, soqlText string) (*core.QueryResult, error) {
	if err := a.ensureConnected(); err != nil {
		return nil, err
	}
	a.logger.Debug("executing raw query", slog.String("soql", soqlText))
	res, err := a.client.runRawQuery(ctx, soqlText, a.opts.queryAll)
	if err != nil {
		return nil, a.client.noteQuirk(err, "")
	}
	return res, nil
}

// Exec executes an INSERT, UPDATE or DELETE statement.
func (a *Adapter) Exec(ctx context.Context, sql string, args ...any) (*core.ExecResult, error) {
	if err := a.ensureConnected(); err != nil {
		return nil, err
	}

	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, err
	}

	opts := a.translateOptions()
	pk := a.cfg.EffectivePKField()

	switch s := stmt.(type) {
	case *parser.InsertStmt:
		plan, err := soql.TranslateInsert(s, args, opts)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("inserting rows", slog.String("object", plan.Object), slog.Int("rows", len(plan.Rows)))
		return a.client.executeInsert(ctx, plan, a.opts.allOrNone)

	case *parser.UpdateStmt:
		plan, err := soql.TranslateUpdate(s, args, opts)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("updating rows", slog.String("object", plan.Object), slog.Int("ids", len(plan.IDs)))
		return a.client.executeUpdate(ctx, plan, a.opts.allOrNone, pk)

	case *parser.DeleteStmt:
		plan, err := soql.TranslateDelete(s, args, opts)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("deleting rows", slog.String("object", plan.Object), slog.Int("ids", len(plan.IDs)))
		return a.client.executeDelete(ctx, plan, a.opts.allOrNone, pk)

	default:
		return nil, fmt.Errorf("Exec requires an INSERT, UPDATE or DELETE statement")
	}
}

// ListObjects returns the global describe, sorted by object name.
func (a *Adapter) ListObjects(ctx context.Context) ([]core.ObjectSummary, error) {
	if err := a.ensureConnected(); err != nil {
		return nil, err
	}
	return a.client.listObjects(ctx)
}

// DescribeObject returns full field metadata for one object.
func (a *Adapter) DescribeObject(ctx context.Context, name string) (*core.ObjectMetadata, error) {
	if err := a.ensureConnected(); err != nil {
		return nil, err
	}
	return a.client.describeObject(ctx, name)
}

// DescribeObjects returns metadata for several objects, fetched concurrently.
func (a *Adapter) DescribeObjects(ctx context.Context, names []string) ([]*core.ObjectMetadata, error) {
	if err := a.ensureConnected(); err != nil {
		return nil, err
	}
	return a.client.describeObjects(ctx, names)
}

// rootObject extracts the FROM object name for quirk matching.
func rootObject(sel *parser.SelectStmt) string {
	if sel.From != nil && sel.From.Source != nil {
		return sel.From.Source.Name
	}
	return ""
}
