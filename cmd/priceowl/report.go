package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/priceowl/priceowl/internal/cli"
	"github.com/priceowl/priceowl/internal/config"
	"github.com/priceowl/priceowl/internal/model"
	"github.com/priceowl/priceowl/internal/report"
	"github.com/priceowl/priceowl/internal/storage"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and inspect price reports",
	}

	cmd.AddCommand(reportComparisonCmd())
	cmd.AddCommand(reportMarketCmd())
	cmd.AddCommand(reportMonitorCmd())
	cmd.AddCommand(reportShowCmd())
	cmd.AddCommand(reportListCmd())

	return cmd
}

// initReportEngine wires a report engine over storage and the LLM provider.
func initReportEngine(store *storage.SQLiteStorage) (*report.Engine, error) {
	settings := config.Load()
	provider, err := initProvider(settings)
	if err != nil {
		return nil, err
	}
	return report.NewEngine(store, provider, slog.Default()), nil
}

func reportComparisonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comparison <product>",
		Short: "Compare latest prices for a product across stores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, err := initReportEngine(store)
			if err != nil {
				return err
			}

			generated, err := engine.Comparison(ctx, optionalString(user), args[0])
			if err != nil {
				return err
			}
			return printReport(generated)
		},
	}

	cmd.Flags().String("user", "", "user ID to record the report under")
	return cmd
}

func reportMarketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "market <product>",
		Short: "Summarize a product's full price history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, err := initReportEngine(store)
			if err != nil {
				return err
			}

			generated, err := engine.Market(ctx, optionalString(user), args[0])
			if err != nil {
				return err
			}
			return printReport(generated)
		},
	}

	cmd.Flags().String("user", "", "user ID to record the report under")
	return cmd
}

func reportMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor <my-store>",
		Short: "Compare your store's prices against competitors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			competitors, _ := cmd.Flags().GetStringSlice("competitors")

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			engine, err := initReportEngine(store)
			if err != nil {
				return err
			}

			generated, err := engine.Monitor(ctx, optionalString(user), args[0], competitors)
			if err != nil {
				return err
			}
			return printMonitorReport(generated)
		},
	}

	cmd.Flags().String("user", "", "user ID to record the report under")
	cmd.Flags().StringSlice("competitors", nil, "restrict the comparison to these stores")
	return cmd
}

func reportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <report-id>",
		Short: "Show a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stored, err := store.GetReport(ctx, args[0])
			if err != nil {
				return err
			}

			if strings.HasPrefix(stored.Query, "monitor: ") {
				return printMonitorReport(stored)
			}
			return printReport(stored)
		},
	}
}

func reportListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, _ := cmd.Flags().GetString("user")
			limit, _ := cmd.Flags().GetInt("limit")
			if user == "" {
				return fmt.Errorf("--user is required")
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reports, err := store.ListUserReports(ctx, user, limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No reports yet."))
				return nil
			}

			for _, r := range reports {
				status := string(r.Status)
				switch r.Status {
				case model.ReportReady:
					status = cli.SuccessStyle.Render(status)
				case model.ReportFailed:
					status = cli.ErrorStyle.Render(status)
				case model.ReportPending:
					status = cli.WarningStyle.Render(status)
				}
				fmt.Printf("%s  %s  %-8s %s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04"), status, r.Query)
			}
			return nil
		},
	}

	cmd.Flags().String("user", "", "user ID")
	cmd.Flags().Int("limit", 20, "maximum number of reports to show")
	return cmd
}

// printReport renders a comparison or market report payload.
func printReport(r *model.Report) error {
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Report %s (%s)", r.ID, r.Status)))
	if len(r.Payload) == 0 {
		fmt.Println(cli.SubtleStyle.Render("(no payload)"))
		return nil
	}

	var payload struct {
		Product  string              `json:"product"`
		Records  []model.PriceRecord `json:"records"`
		Analysis string              `json:"analysis"`
	}
	if err := json.Unmarshal(r.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode report payload: %w", err)
	}

	if len(payload.Records) > 0 {
		fmt.Println(cli.RenderRecordsTable(payload.Records))
	}
	if payload.Analysis != "" {
		fmt.Println(cli.RenderBox("Analysis", payload.Analysis))
	}
	return nil
}

// printMonitorReport renders a monitor report payload.
func printMonitorReport(r *model.Report) error {
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Report %s (%s)", r.ID, r.Status)))
	if len(r.Payload) == 0 {
		fmt.Println(cli.SubtleStyle.Render("(no payload)"))
		return nil
	}

	var payload struct {
		MyStore  string                `json:"myStore"`
		Rows     []model.ComparisonRow `json:"rows"`
		Analysis string                `json:"analysis"`
	}
	if err := json.Unmarshal(r.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode report payload: %w", err)
	}

	settings := config.Load()
	fmt.Println(cli.RenderComparisonRows(payload.Rows, settings.Currency))
	if payload.Analysis != "" {
		fmt.Println(cli.SubtleStyle.Render(payload.Analysis))
	}
	return nil
}
