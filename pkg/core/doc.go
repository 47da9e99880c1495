// Package core defines the shared types used across forceql: connection
// configuration, remote object metadata, and materialized query results.
//
// It has no dependency on the wire client or the SQL frontend, so the parser,
// the translator, and the adapters can all build on it without cycles.
package core
