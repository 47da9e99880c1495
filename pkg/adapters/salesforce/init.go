// This file registers the Salesforce adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/forceql/forceql/pkg/adapters/salesforce"
package salesforce

import (
	"log/slog"

	"github.com/forceql/forceql/pkg/adapter"
)

func init() {
	adapter.Register("salesforce", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
