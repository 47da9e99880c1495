// Package quirks tracks known platform bugs and org-dependent failures that
// the adapter tolerates. A matched failure is reported once at WARN level so
// interactive use stays informative, or at DEBUG when quiet mode is on
// (QUIET_KNOWN_BUGS=on in CI).
package quirks

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Bug describes one known, tolerated failure mode.
type Bug struct {
	// ID is a stable short name, e.g. "fields-all-offset".
	ID string

	// ErrorCode is the remote error code the bug manifests as.
	ErrorCode string

	// Objects restricts the bug to specific objects; empty matches any.
	Objects []string

	// Summary explains what fails and why it is tolerated.
	Summary string
}

func (b Bug) appliesTo(object string) bool {
	if len(b.Objects) == 0 {
		return true
	}
	for _, o := range b.Objects {
		if strings.EqualFold(o, object) {
			return true
		}
	}
	return false
}

// builtins are failure modes observed across orgs and API versions.
var builtins = []Bug{
	{
		ID:        "fields-all-limit",
		ErrorCode: "MALFORMED_QUERY",
		Summary:   "FIELDS(ALL) queries require a LIMIT of at most 200; larger wildcard scans are rejected by the API",
	},
	{
		ID:        "query-timeout",
		ErrorCode: "QUERY_TIMEOUT",
		Summary:   "unselective filters on large objects time out server-side; narrow the WHERE clause or add an indexed field",
	},
	{
		ID:        "operation-too-large",
		ErrorCode: "OPERATION_TOO_LARGE",
		Summary:   "queryAll over large recycle bins can exceed the scan budget on some orgs",
	},
	{
		ID:        "content-document-link-filter",
		ErrorCode: "MALFORMED_QUERY",
		Objects:   []string{"ContentDocumentLink"},
		Summary:   "ContentDocumentLink can only be filtered by ContentDocumentId or LinkedEntityId",
	},
	{
		ID:        "entity-not-queryable",
		ErrorCode: "INVALID_TYPE",
		Summary:   "objects hidden by profile or licensing describe fine but reject queries on some orgs",
	},
}

// Registry matches remote failures against known bugs and reports them.
type Registry struct {
	mu       sync.Mutex
	bugs     []Bug
	reported map[string]bool
	quiet    bool
	logger   *slog.Logger
}

// NewRegistry builds a registry preloaded with the builtin bugs.
func NewRegistry(logger *slog.Logger, quiet bool) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		bugs:     append([]Bug(nil), builtins...),
		reported: make(map[string]bool),
		quiet:    quiet,
		logger:   logger,
	}
}

// Add registers an additional bug, e.g. an org-specific one from config.
func (r *Registry) Add(b Bug) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bugs = append(r.bugs, b)
}

// Match finds the known bug for a remote error code and object, if any.
// Object-scoped bugs take precedence over unscoped ones.
func (r *Registry) Match(errorCode, object string) (Bug, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var unscoped *Bug
	for i, b := range r.bugs {
		if b.ErrorCode != errorCode || !b.appliesTo(object) {
			continue
		}
		if len(b.Objects) > 0 {
			return b, true
		}
		if unscoped == nil {
			unscoped = &r.bugs[i]
		}
	}
	if unscoped != nil {
		return *unscoped, true
	}
	return Bug{}, false
}

// Report logs a matched bug. Each bug is reported once per registry; quiet
// mode drops the level to DEBUG.
func (r *Registry) Report(b Bug, err error) {
	r.mu.Lock()
	seen := r.reported[b.ID]
	r.reported[b.ID] = true
	r.mu.Unlock()
	if seen {
		return
	}

	log := r.logger.Warn
	if r.quiet {
		log = r.logger.Debug
	}
	log("known platform bug",
		"bug", b.ID,
		"summary", b.Summary,
		"error", err)
}

// QuietFromEnv reports whether QUIET_KNOWN_BUGS asks for quiet reporting.
func QuietFromEnv() bool {
	switch strings.ToLower(os.Getenv("QUIET_KNOWN_BUGS")) {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}
