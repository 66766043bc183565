package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rescuegrid/firedispatch/app"
	"github.com/rescuegrid/firedispatch/core/incident"
	"github.com/rescuegrid/firedispatch/core/model"
)

var (
	reportLat     float64
	reportLon     float64
	reportLevel   string
	reportDetails string
	reportForced  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "File a test incident and print the dispatch decision",
	RunE:  reportIncident,
}

func init() {
	reportCmd.Flags().Float64Var(&reportLat, "lat", 0, "caller latitude")
	reportCmd.Flags().Float64Var(&reportLon, "lon", 0, "caller longitude")
	reportCmd.Flags().StringVar(&reportLevel, "level", string(model.Alarm1), "alarm level")
	reportCmd.Flags().StringVar(&reportDetails, "details", "", "incident details")
	reportCmd.Flags().StringVar(&reportForced, "station", "", "force dispatch to this station id")
	_ = reportCmd.MarkFlagRequired("lat")
	_ = reportCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(reportCmd)
}

func reportIncident(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Incidents.Create(context.Background(), incident.CreateRequest{
		ReporterID:      "cli",
		Latitude:        reportLat,
		Longitude:       reportLon,
		AlarmLevel:      model.AlarmLevel(reportLevel),
		Details:         reportDetails,
		ForcedStationID: reportForced,
	})
	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
