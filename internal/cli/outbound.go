package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wms-platform/fulfillment-console/internal/application"
	"github.com/wms-platform/fulfillment-console/internal/domain"
)

// OrdersCmd returns the orders command
func OrdersCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List, inspect and act on outbound orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List outbound orders with their action flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var orders []application.OrderSummaryDTO
			if err := opts.client().get(cmd.Context(), "/orders", nil, &orders); err != nil {
				return err
			}
			return render(cmd, opts, orders, func(w io.Writer) {
				if len(orders) == 0 {
					fmt.Fprintln(w, "No outbound orders.")
					return
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNUMBER\tSTATUS\tWAVE\tPROGRESS\tFLAGS")
				for _, o := range orders {
					flags := joinMarkers(
						marker(o.HasShortages, "shortages"),
						marker(o.CanRelease, "releasable"),
						marker(o.CanAcceptShortages, "accept-shortages"),
					)
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.0f%%\t%s\n",
						o.ID, o.OrderNumber, statusColor(string(o.Status)), optionalID(o.WaveID), o.ProgressPercent, flags)
				}
				tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show ORDER_ID",
		Short: "Show an outbound order with its lines and projection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ORDER_ID", args[0])
			if err != nil {
				return err
			}
			var detail application.OrderDetailDTO
			if err := opts.client().get(cmd.Context(), fmt.Sprintf("/orders/%d", id), nil, &detail); err != nil {
				return err
			}
			return render(cmd, opts, detail, func(w io.Writer) { printOrderDetail(w, &detail) })
		},
	})

	cmd.AddCommand(orderActionCmd(opts, "release", "Release an order to picking"))
	cmd.AddCommand(orderActionCmd(opts, "accept-shortages", "Accept an order's shortages"))
	cmd.AddCommand(orderActionCmd(opts, "allocate", "Allocate stock to an order"))

	return cmd
}

func orderActionCmd(opts *Options, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " ORDER_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ORDER_ID", args[0])
			if err != nil {
				return err
			}
			return runAction(cmd, opts, fmt.Sprintf("/orders/%d/%s", id, verb), nil)
		},
	}
}

func printOrderDetail(w io.Writer, d *application.OrderDetailDTO) {
	p := d.Projection
	fmt.Fprintf(w, "Order %s (#%d) [%s]\n", d.Order.OrderNumber, d.Order.ID, statusColor(string(d.Order.Status)))
	fmt.Fprintf(w, "  Wave:      %s\n", optionalID(d.Order.WaveID))
	fmt.Fprintf(w, "  Progress:  %.0f%%\n", p.ProgressPercent)
	fmt.Fprintf(w, "  Ordered:   %s  Allocated: %s  Picked: %s\n", p.TotalOrdered, p.TotalAllocated, p.TotalPicked)
	fmt.Fprintf(w, "  Can release: %s  Can accept shortages: %s  Can allocate: %s\n",
		yesNo(p.CanRelease), yesNo(p.CanAcceptShortages), yesNo(p.CanAllocate))
	if p.HasShortages {
		fmt.Fprintf(w, "  %s on lines %v\n", color.New(color.FgRed).Sprint("Shortages"), p.ShortLineIDs)
	}
	fmt.Fprintln(w)

	tw := newTable(w)
	fmt.Fprintln(tw, "LINE\tPRODUCT\tORDERED\tALLOCATED\tPICKED\tSTATUS")
	for _, l := range d.Order.Lines {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			l.ID, l.ProductID, l.QtyOrdered, l.QtyAllocated, l.QtyPicked, statusColor(string(l.LineStatus)))
	}
	tw.Flush()
}

// WavesCmd returns the waves command
func WavesCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waves",
		Short: "List, inspect and act on outbound waves",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List outbound waves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var waves []application.WaveSummaryDTO
			if err := opts.client().get(cmd.Context(), "/waves", nil, &waves); err != nil {
				return err
			}
			return render(cmd, opts, waves, func(w io.Writer) {
				if len(waves) == 0 {
					fmt.Fprintln(w, "No outbound waves.")
					return
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNUMBER\tSTATUS\tORDERS\tREAD-ONLY")
				for _, wave := range waves {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n",
						wave.ID, wave.WaveNumber, statusColor(string(wave.Status)), wave.OrderCount, yesNo(wave.ReadOnly))
				}
				tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show WAVE_ID",
		Short: "Show a wave with its orders, controls and shortage banner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("WAVE_ID", args[0])
			if err != nil {
				return err
			}
			var view domain.WaveView
			if err := opts.client().get(cmd.Context(), fmt.Sprintf("/waves/%d", id), nil, &view); err != nil {
				return err
			}
			return render(cmd, opts, view, func(w io.Writer) { printWaveView(w, &view) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "tasks WAVE_ID",
		Short: "List a wave's pick tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("WAVE_ID", args[0])
			if err != nil {
				return err
			}
			var tasks []domain.PickTask
			if err := opts.client().get(cmd.Context(), fmt.Sprintf("/waves/%d/tasks", id), nil, &tasks); err != nil {
				return err
			}
			return render(cmd, opts, tasks, func(w io.Writer) { printTasks(w, tasks) })
		},
	})

	var strategyID int64
	allocateCmd := &cobra.Command{
		Use:   "allocate WAVE_ID",
		Short: "Allocate a planning wave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("WAVE_ID", args[0])
			if err != nil {
				return err
			}
			var body interface{}
			if cmd.Flags().Changed("strategy") {
				body = map[string]int64{"strategy_id": strategyID}
			}
			return runAction(cmd, opts, fmt.Sprintf("/waves/%d/allocate", id), body)
		},
	}
	allocateCmd.Flags().Int64Var(&strategyID, "strategy", 0, "Allocation strategy id (server default when omitted)")
	cmd.AddCommand(allocateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "release WAVE_ID",
		Short: "Release an allocated wave",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("WAVE_ID", args[0])
			if err != nil {
				return err
			}
			return runAction(cmd, opts, fmt.Sprintf("/waves/%d/release", id), nil)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-orders WAVE_ID ORDER_ID...",
		Short: "Add orders to a planning wave",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("WAVE_ID", args[0])
			if err != nil {
				return err
			}
			orderIDs := make([]int64, 0, len(args)-1)
			for _, arg := range args[1:] {
				orderID, err := parseID("ORDER_ID", arg)
				if err != nil {
					return err
				}
				orderIDs = append(orderIDs, orderID)
			}
			body := map[string][]int64{"order_ids": orderIDs}
			return runAction(cmd, opts, fmt.Sprintf("/waves/%d/orders", id), body)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove-order WAVE_ID ORDER_ID",
		Short: "Remove an order from a planning wave",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("WAVE_ID", args[0])
			if err != nil {
				return err
			}
			orderID, err := parseID("ORDER_ID", args[1])
			if err != nil {
				return err
			}
			var result application.ActionResultDTO
			if err := opts.client().delete(cmd.Context(), fmt.Sprintf("/waves/%d/orders/%d", id, orderID), &result); err != nil {
				return err
			}
			return render(cmd, opts, result, func(w io.Writer) { printResult(w, &result) })
		},
	})

	return cmd
}

func printWaveView(w io.Writer, v *domain.WaveView) {
	fmt.Fprintf(w, "Wave %s (#%d) [%s]\n", v.Wave.WaveNumber, v.Wave.ID, statusColor(string(v.Wave.Status)))
	if v.ReadOnly {
		fmt.Fprintln(w, "  Read-only")
	}

	var controls []string
	for _, c := range []struct {
		name    string
		control domain.Control
	}{
		{"add-orders", v.Controls.AddOrders},
		{"remove-order", v.Controls.RemoveOrder},
		{"allocate", v.Controls.Allocate},
		{"release", v.Controls.Release},
		{"tasks", v.Controls.TasksTab},
	} {
		switch {
		case c.control.Enabled:
			controls = append(controls, c.name)
		case c.control.Visible:
			controls = append(controls, c.name+" (disabled)")
		}
	}
	fmt.Fprintf(w, "  Controls: %s\n", strings.Join(controls, ", "))

	if len(v.ShortageBanner) > 0 {
		fmt.Fprintf(w, "  %s %d task(s) short\n", color.New(color.FgRed).Sprint("Shortage:"), len(v.ShortageBanner))
	}
	fmt.Fprintln(w)

	tw := newTable(w)
	fmt.Fprintln(tw, "ORDER\tNUMBER\tSTATUS\tPROGRESS\tSHORTAGES")
	for _, o := range v.Orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.0f%%\t%s\n",
			o.Order.ID, o.Order.OrderNumber, statusColor(string(o.Order.Status)), o.Projection.ProgressPercent, yesNo(o.Projection.HasShortages))
	}
	tw.Flush()

	if len(v.Tasks) > 0 {
		fmt.Fprintln(w)
		printTasks(w, v.Tasks)
	}
}

func printTasks(w io.Writer, tasks []domain.PickTask) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No pick tasks.")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "TASK\tORDER\tFROM\tTO PICK\tPICKED\tSTATUS")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n",
			t.ID, t.OrderID, optionalID(t.FromLocationID), t.QtyToPick, t.QtyPicked, statusColor(string(t.Status)))
	}
	tw.Flush()
}

// TasksCmd returns the tasks command
func TasksCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Act on pick tasks",
	}

	var (
		waveID int64
		qty    string
	)
	completeCmd := &cobra.Command{
		Use:   "complete TASK_ID",
		Short: "Confirm a pick task with the quantity picked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("TASK_ID", args[0])
			if err != nil {
				return err
			}
			picked, err := decimal.NewFromString(qty)
			if err != nil {
				return fmt.Errorf("--qty must be a number, got %q", qty)
			}
			body := map[string]interface{}{
				"wave_id":    waveID,
				"qty_picked": json.Number(picked.String()),
			}
			return runAction(cmd, opts, fmt.Sprintf("/tasks/%d/complete", id), body)
		},
	}
	completeCmd.Flags().Int64Var(&waveID, "wave", 0, "Wave the task belongs to")
	completeCmd.Flags().StringVar(&qty, "qty", "", "Quantity picked")
	_ = completeCmd.MarkFlagRequired("wave")
	_ = completeCmd.MarkFlagRequired("qty")
	cmd.AddCommand(completeCmd)

	return cmd
}

// StrategiesCmd returns the allocation strategies command
func StrategiesCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List allocation strategies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var strategies []domain.AllocationStrategy
			if err := opts.client().get(cmd.Context(), "/allocation-strategies", nil, &strategies); err != nil {
				return err
			}
			return render(cmd, opts, strategies, func(w io.Writer) {
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNAME\tDEFAULT")
				for _, s := range strategies {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.Name, marker(s.IsDefault, "*"))
				}
				tw.Flush()
			})
		},
	}
}

// runAction posts an action and prints its result
func runAction(cmd *cobra.Command, opts *Options, path string, body interface{}) error {
	var result application.ActionResultDTO
	if err := opts.client().post(cmd.Context(), path, body, &result); err != nil {
		return err
	}
	return render(cmd, opts, result, func(w io.Writer) { printResult(w, &result) })
}

func printResult(w io.Writer, r *application.ActionResultDTO) {
	fmt.Fprintf(w, "%s %s %s %d\n", color.New(color.FgGreen).Sprint("OK"), r.Action, r.ResourceType, r.ResourceID)
}
