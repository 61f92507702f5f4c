package cli

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/wms-platform/fulfillment-console/internal/domain"
)

// ActionsCmd returns the action log command
func ActionsCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "actions",
		Short: "Inspect the console action log",
	}

	var (
		action       string
		resourceType string
		resourceID   int64
		outcome      string
		limit        int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent actions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if action != "" {
				query.Set("action", action)
			}
			if resourceType != "" {
				query.Set("resourceType", resourceType)
			}
			if resourceID > 0 {
				query.Set("resourceId", strconv.FormatInt(resourceID, 10))
			}
			if outcome != "" {
				query.Set("outcome", outcome)
			}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}

			var records []domain.ActionRecord
			if err := opts.client().get(cmd.Context(), "/actions", query, &records); err != nil {
				return err
			}
			return render(cmd, opts, records, func(w io.Writer) {
				if len(records) == 0 {
					fmt.Fprintln(w, "No actions recorded.")
					return
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "STARTED\tACTION\tRESOURCE\tOUTCOME\tOPERATOR\tMS\tMESSAGE")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%s\t%s/%d\t%s\t%s\t%d\t%s\n",
						r.StartedAt.Local().Format(time.DateTime), r.Action, r.ResourceType, r.ResourceID,
						statusColor(string(r.Outcome)), r.Operator, r.DurationMs, r.Message)
				}
				tw.Flush()
			})
		},
	}
	listCmd.Flags().StringVar(&action, "action", "", "Filter by action (e.g. release-order)")
	listCmd.Flags().StringVar(&resourceType, "resource-type", "", "Filter by resource type (e.g. outbound-wave)")
	listCmd.Flags().Int64Var(&resourceID, "resource-id", 0, "Filter by resource id")
	listCmd.Flags().StringVar(&outcome, "outcome", "", "Filter by outcome (e.g. rejected)")
	listCmd.Flags().IntVar(&limit, "limit", 0, "Maximum entries (server default 100)")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "in-flight",
		Short: "List actions currently awaiting the WMS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var body struct {
				InFlight []string `json:"in_flight"`
			}
			if err := opts.client().get(cmd.Context(), "/actions/in-flight", nil, &body); err != nil {
				return err
			}
			return render(cmd, opts, body, func(w io.Writer) {
				if len(body.InFlight) == 0 {
					fmt.Fprintln(w, "Nothing in flight.")
					return
				}
				for _, key := range body.InFlight {
					fmt.Fprintln(w, key)
				}
			})
		},
	})

	return cmd
}
