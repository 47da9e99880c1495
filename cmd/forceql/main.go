// Command forceql is the SQL gateway CLI for Salesforce orgs.
package main

import (
	"os"

	"github.com/forceql/forceql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
