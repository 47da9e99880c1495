package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forceql/forceql/internal/cli/config"
	"github.com/forceql/forceql/pkg/adapter"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and org connectivity",
		Long: `Verify that forceql can reach the configured org.

The doctor command checks configuration completeness, performs a login,
and fetches the global describe, reporting each step with a hint when
it fails.`,
		Example: `  # Run the health check
  forceql doctor

  # Output as JSON
  forceql doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorCheck represents a single health check result.
type DoctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok" or "fail"
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Host       string        `json:"host"`
	Username   string        `json:"username"`
	APIVersion string        `json:"api_version"`
	PKField    string        `json:"pk_field"`
	Checks     []DoctorCheck `json:"checks"`
	Healthy    bool          `json:"healthy"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	conn := cfg.ConnectionConfig()

	out := DoctorOutput{
		Host:       cfg.Host,
		Username:   cfg.Username,
		APIVersion: conn.EffectiveAPIVersion(),
		PKField:    conn.EffectivePKField(),
		Healthy:    true,
	}

	fail := func(name string, err error, hint string) {
		out.Checks = append(out.Checks, DoctorCheck{Name: name, Status: "fail", Detail: err.Error(), Hint: hint})
		out.Healthy = false
	}
	ok := func(name, detail string) {
		out.Checks = append(out.Checks, DoctorCheck{Name: name, Status: "ok", Detail: detail})
	}

	// Credentials present
	if err := cfg.ValidateCredentials(); err != nil {
		fail("credentials", err, "Set SF_USER, SF_PASSWORD, SF_CONSUMER_KEY and SF_CONSUMER_SECRET")
	} else {
		ok("credentials", "username and connected app credentials configured")
	}

	// Login and describe, only when credentials pass
	if out.Healthy {
		ad, err := adapter.New(conn, logger)
		if err == nil {
			// Force an eager login regardless of lazy_connect
			eager := conn
			eager.LazyConnect = false
			err = ad.Connect(cmd.Context(), eager)
		}
		if err != nil {
			fail("login", err, "Check credentials and the login host; sandboxes use https://test.salesforce.com")
		} else {
			ok("login", "authenticated against "+cfg.Host)

			objects, err := ad.ListObjects(cmd.Context())
			if err != nil {
				fail("describe", err, "The user may lack API access; check profile permissions")
			} else {
				ok("describe", fmt.Sprintf("%d objects visible", len(objects)))
			}
			_ = ad.Close()
		}
	}

	// Schema cache
	if _, err := os.Stat(cfg.CachePath); err == nil {
		ok("schema cache", cfg.CachePath)
	} else {
		out.Checks = append(out.Checks, DoctorCheck{
			Name:   "schema cache",
			Status: "ok",
			Detail: "not yet created",
			Hint:   "Run 'forceql inspect' to build the local schema cache",
		})
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return renderDoctorText(cmd, out)
}

func renderDoctorText(cmd *cobra.Command, out DoctorOutput) error {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Host:        %s\n", out.Host)
	_, _ = fmt.Fprintf(w, "Username:    %s\n", out.Username)
	_, _ = fmt.Fprintf(w, "API version: %s\n", out.APIVersion)
	_, _ = fmt.Fprintf(w, "PK field:    %s\n", out.PKField)
	_, _ = fmt.Fprintln(w)

	for _, check := range out.Checks {
		mark := "ok"
		if check.Status != "ok" {
			mark = "FAIL"
		}
		_, _ = fmt.Fprintf(w, "[%s] %s", mark, check.Name)
		if check.Detail != "" {
			_, _ = fmt.Fprintf(w, ": %s", check.Detail)
		}
		_, _ = fmt.Fprintln(w)
		if check.Hint != "" && check.Status != "ok" {
			_, _ = fmt.Fprintf(w, "       Hint: %s\n", check.Hint)
		}
	}

	if !out.Healthy {
		return fmt.Errorf("health check failed")
	}
	_, _ = fmt.Fprintln(w, "\nAll checks passed")
	return nil
}
