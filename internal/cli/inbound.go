package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/wms-platform/fulfillment-console/internal/application"
	"github.com/wms-platform/fulfillment-console/internal/domain"
)

// receiveItemBody mirrors the console's receive-item request
type receiveItemBody struct {
	InboundOrderID int64       `json:"inbound_order_id"`
	InboundLineID  int64       `json:"inbound_line_id"`
	LocationID     *int64      `json:"location_id,omitempty"`
	Quantity       json.Number `json:"quantity,omitempty"`
	LPN            string      `json:"lpn,omitempty"`
	BatchNumber    string      `json:"batch_number,omitempty"`
	ExpiryDate     string      `json:"expiry_date,omitempty"`
}

// InboundCmd returns the inbound command
func InboundCmd(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbound",
		Short: "Inspect inbound orders, receive items and close orders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List inbound orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var orders []domain.InboundOrder
			if err := opts.client().get(cmd.Context(), "/inbound/orders", nil, &orders); err != nil {
				return err
			}
			return render(cmd, opts, orders, func(w io.Writer) {
				if len(orders) == 0 {
					fmt.Fprintln(w, "No inbound orders.")
					return
				}
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNUMBER\tSTATUS\tLINES\tSHIPMENTS")
				for _, o := range orders {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n",
						o.ID, o.OrderNumber, statusColor(string(o.Status)), len(o.Lines), len(o.Shipments))
				}
				tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show ORDER_ID",
		Short: "Show an inbound order with remaining quantities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ORDER_ID", args[0])
			if err != nil {
				return err
			}
			var detail application.InboundDetailDTO
			if err := opts.client().get(cmd.Context(), fmt.Sprintf("/inbound/orders/%d", id), nil, &detail); err != nil {
				return err
			}
			return render(cmd, opts, detail, func(w io.Writer) { printInboundDetail(w, &detail) })
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "close ORDER_ID",
		Short: "Close a fully received inbound order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("ORDER_ID", args[0])
			if err != nil {
				return err
			}
			return runAction(cmd, opts, fmt.Sprintf("/inbound/orders/%d/close", id), nil)
		},
	})

	cmd.AddCommand(receiveCmd(opts))

	return cmd
}

func receiveCmd(opts *Options) *cobra.Command {
	var (
		orderID    int64
		lineID     int64
		locationID int64
		qty        string
		body       receiveItemBody
	)

	cmd := &cobra.Command{
		Use:   "receive SHIPMENT_ID",
		Short: "Receive a quantity of one line against a shipment",
		Long: `Receive a quantity of one inbound line into a location.
The console rejects the submission before calling the WMS when the location is
missing, the quantity is not positive or exceeds the line's remaining quantity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shipmentID, err := parseID("SHIPMENT_ID", args[0])
			if err != nil {
				return err
			}

			body.InboundOrderID = orderID
			body.InboundLineID = lineID
			if cmd.Flags().Changed("location") {
				body.LocationID = &locationID
			}
			if qty != "" {
				d, err := decimal.NewFromString(qty)
				if err != nil {
					return fmt.Errorf("--qty must be a number, got %q", qty)
				}
				body.Quantity = json.Number(d.String())
			}

			return runAction(cmd, opts, fmt.Sprintf("/inbound/shipments/%d/receive-item", shipmentID), body)
		},
	}

	cmd.Flags().Int64Var(&orderID, "order", 0, "Inbound order id")
	cmd.Flags().Int64Var(&lineID, "line", 0, "Inbound line id")
	cmd.Flags().Int64Var(&locationID, "location", 0, "Destination location id")
	cmd.Flags().StringVar(&qty, "qty", "", "Quantity received")
	cmd.Flags().StringVar(&body.LPN, "lpn", "", "License plate number")
	cmd.Flags().StringVar(&body.BatchNumber, "batch", "", "Batch number")
	cmd.Flags().StringVar(&body.ExpiryDate, "expiry", "", "Expiry date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("line")

	return cmd
}

func printInboundDetail(w io.Writer, d *application.InboundDetailDTO) {
	p := d.Projection
	fmt.Fprintf(w, "Inbound order %s (#%d) [%s]\n", d.Order.OrderNumber, d.Order.ID, statusColor(string(d.Order.Status)))
	if p.IsFullyReceived {
		fmt.Fprintf(w, "  %s\n", color.New(color.FgGreen).Sprint("Fully received"))
	}
	fmt.Fprintf(w, "  Can close: %s\n", yesNo(p.CanClose))
	fmt.Fprintln(w)

	tw := newTable(w)
	fmt.Fprintln(tw, "LINE\tEXPECTED\tRECEIVED\tREMAINING\tDONE")
	for _, l := range p.Lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.LineID, l.Expected, l.Received, l.Remaining, yesNo(l.FullyReceived))
	}
	tw.Flush()

	if len(d.Order.Shipments) > 0 {
		fmt.Fprintln(w)
		tw = newTable(w)
		fmt.Fprintln(tw, "SHIPMENT\tNUMBER\tSTATUS")
		for _, s := range d.Order.Shipments {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.ID, s.ShipmentNumber, s.Status)
		}
		tw.Flush()
	}
}
