// Package cli implements consolectl, the operator command line for the
// fulfillment console.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Options are the global flags shared by every command
type Options struct {
	Server   string
	Operator string
	Timeout  time.Duration
	JSON     bool
	NoColor  bool
}

func (o *Options) client() *Client {
	return NewClient(o.Server, o.Operator, o.Timeout)
}

// NewRootCmd builds the consolectl command tree
func NewRootCmd(version string) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:     "consolectl",
		Short:   "Operate outbound and inbound fulfillment through the console API",
		Version: version,
		Long: `consolectl talks to a running fulfillment-console service.
It lists orders, waves and inbound orders with the same flags the console
UI shows, and triggers the gated actions (release, allocate, receive, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.NoColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.Server, "server", envOr("CONSOLE_URL", "http://localhost:8080"), "Console base URL")
	flags.StringVar(&opts.Operator, "operator", envOr("CONSOLE_OPERATOR", os.Getenv("USER")), "Operator recorded in the action log")
	flags.DurationVar(&opts.Timeout, "timeout", 60*time.Second, "Request timeout")
	flags.BoolVar(&opts.JSON, "json", false, "Print raw JSON responses")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(OrdersCmd(opts))
	rootCmd.AddCommand(WavesCmd(opts))
	rootCmd.AddCommand(TasksCmd(opts))
	rootCmd.AddCommand(StrategiesCmd(opts))
	rootCmd.AddCommand(InboundCmd(opts))
	rootCmd.AddCommand(ActionsCmd(opts))

	return rootCmd
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseID reads a positive integer argument
func parseID(name, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, arg)
	}
	return id, nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// render prints v as JSON when --json is set, otherwise through human
func render(cmd *cobra.Command, opts *Options, v interface{}, human func(w io.Writer)) error {
	if opts.JSON {
		return printJSON(cmd.OutOrStdout(), v)
	}
	human(cmd.OutOrStdout())
	return nil
}

// statusColor highlights terminal and attention states
func statusColor(status string) string {
	switch status {
	case "SHIPPED", "COMPLETED", "RECEIVED", "CLOSED", "succeeded":
		return color.New(color.FgGreen).Sprint(status)
	case "CANCELLED", "SHORT", "rejected", "failed":
		return color.New(color.FgRed).Sprint(status)
	case "PARTIAL", "PARTIALLY_RECEIVED", "invalid", "not_permitted", "suppressed":
		return color.New(color.FgYellow).Sprint(status)
	case "RELEASED", "IN_PROGRESS", "PICKING", "RECEIVING":
		return color.New(color.FgCyan).Sprint(status)
	default:
		return status
	}
}

func marker(on bool, label string) string {
	if !on {
		return ""
	}
	return label
}

func joinMarkers(markers ...string) string {
	var set []string
	for _, m := range markers {
		if m != "" {
			set = append(set, m)
		}
	}
	return strings.Join(set, " ")
}

func yesNo(on bool) string {
	if on {
		return color.New(color.FgGreen).Sprint("yes")
	}
	return "no"
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}
