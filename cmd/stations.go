package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescuegrid/firedispatch/app"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "Station related commands",
}

var stationsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stations with their latest readiness",
	RunE:  runStationsLs,
}

func init() {
	stationsCmd.AddCommand(stationsLsCmd)
	rootCmd.AddCommand(stationsCmd)
}

func runStationsLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	rows, err := svc.Registry.Overview(context.Background())
	if err != nil {
		return fmt.Errorf("station overview: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tREADY\tSTATUS\tPERCENT\tLAST UPDATE")
	for _, row := range rows {
		lastUpdate := "-"
		if !row.LastUpdate.IsZero() {
			lastUpdate = row.LastUpdate.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%d\t%s\n",
			row.StationID, row.Name, row.IsReady, row.LatestStatus, row.LatestPercentage, lastUpdate)
	}
	return w.Flush()
}
