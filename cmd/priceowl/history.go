package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/priceowl/priceowl/internal/cli"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage your search history",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyClearCmd())
	cmd.AddCommand(historyUsageCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent searches with their results",
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

			searches, err := store.UserSearchHistory(ctx, user, limit)
			if err != nil {
				return err
			}
			if len(searches) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No searches recorded."))
				return nil
			}

			for _, s := range searches {
				header := fmt.Sprintf("%s  %s (%s)", s.Timestamp.Format("2006-01-02 15:04"), s.Product, s.City)
				fmt.Println(cli.FormatTitle(header))
				fmt.Println(cli.RenderRecordsTable(s.Results))
			}
			return nil
		},
	}

	cmd.Flags().String("user", "", "user ID")
	cmd.Flags().Int("limit", 20, "maximum number of searches to show")
	return cmd
}

func historyClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete your search history",
		Long: `Delete your recorded searches. Observed prices stay in the shared
market data and remain available to reports.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, _ := cmd.Flags().GetString("user")
			if user == "" {
				return fmt.Errorf("--user is required")
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			deleted, err := store.ClearUserHistory(ctx, user)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %d searches.", deleted)))
			return nil
		},
	}

	cmd.Flags().String("user", "", "user ID")
	return cmd
}

func historyUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show how many searches you have run this month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, _ := cmd.Flags().GetString("user")
			if user == "" {
				return fmt.Errorf("--user is required")
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := store.CountSearchesThisMonth(ctx, user)
			if err != nil {
				return err
			}

			fmt.Printf("Searches this month: %d\n", count)
			return nil
		},
	}

	cmd.Flags().String("user", "", "user ID")
	return cmd
}
