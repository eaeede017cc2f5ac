package main

import (
	"fmt"
	"text/tabwriter"

	"road-risk-api/risk"

	"github.com/spf13/cobra"
)

func newWindowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "windows",
		Short: "List the time windows, or the window an hour falls in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("hour") {
				hour, _ := cmd.Flags().GetInt("hour")
				w, ok := risk.WindowForHour(hour)
				if !ok {
					return fmt.Errorf("hour %d outside 0-23", hour)
				}
				fmt.Fprintf(out, "%s\t%s\n", w, w.Label())
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WINDOW\tLABEL")
			for _, w := range risk.TimeWindows {
				fmt.Fprintf(tw, "%s\t%s\n", w, w.Label())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Int("hour", 0, "hour of day (0-23)")
	return cmd
}
