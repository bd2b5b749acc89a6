package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/brogergvhs/mangadex-dl/internal/config"

	"github.com/spf13/cobra"
)

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.ListConfigs()
		if err != nil {
			return fmt.Errorf("cannot read configs directory: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 4, ' ', 0)
		_, _ = fmt.Fprintln(w, "LABEL\tPATH\tACTIVE\tSTATUS")

		for _, c := range list {
			activeMark := ""
			if c.Active {
				activeMark = "yes"
			}
			status := "ok"
			if c.Err != nil {
				status = "invalid"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Label, c.Path, activeMark, status)
		}

		if err := w.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to flush table output: %v\n", err)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
}
