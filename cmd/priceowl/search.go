package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/priceowl/priceowl/internal/cli"
	"github.com/priceowl/priceowl/internal/config"
	"github.com/priceowl/priceowl/internal/model"
	"github.com/priceowl/priceowl/internal/search"
)

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [product]",
		Short: "Search the web for prices of a product",
		Long: `Run a price search through the configured LLM provider.

Extracted prices are validated, stored, and shown as a table. Use --batch
to search a list of products from a file, one per line.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSearch,
	}

	cmd.Flags().Float64("quantity", 1, "product quantity (e.g. 500 for 500g)")
	cmd.Flags().String("unit", "", "quantity unit (g, kg, ml, l, un)")
	cmd.Flags().String("city", "", "city to validate prices against")
	cmd.Flags().String("user", "", "user ID to record the search under")
	cmd.Flags().StringSlice("stores", nil, "restrict the search to these stores")
	cmd.Flags().String("batch", "", "file with one product per line")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	batchFile, _ := cmd.Flags().GetString("batch")
	if batchFile == "" && len(args) == 0 {
		return fmt.Errorf("a product argument or --batch file is required")
	}

	ctx := cmd.Context()
	settings := config.Load()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc, client, err := initSearchService(store, settings)
	if err != nil {
		return err
	}
	defer client.Close()

	quantity, _ := cmd.Flags().GetFloat64("quantity")
	unit, _ := cmd.Flags().GetString("unit")
	city, _ := cmd.Flags().GetString("city")
	user, _ := cmd.Flags().GetString("user")
	stores, _ := cmd.Flags().GetStringSlice("stores")

	if city == "" {
		city = settings.City
	}
	userID := optionalString(user)

	intent := model.SearchIntent{
		Quantity:       quantity,
		Unit:           optionalString(unit),
		City:           city,
		StoreAllowlist: stores,
	}

	if batchFile != "" {
		return runBatchSearch(cmd, batchFile, intent, userID, svc)
	}

	intent.Product = args[0]
	result, err := svc.Run(ctx, intent, userID)
	if err != nil {
		return err
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Prices for %q in %s", intent.Product, city)))
	fmt.Println(cli.RenderRecordsTable(result.Results))
	return nil
}

func runBatchSearch(cmd *cobra.Command, path string, base model.SearchIntent, userID *string, svc *search.Service) error {
	products, err := readProductList(path)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return fmt.Errorf("no products found in %s", path)
	}

	bar := progressbar.NewOptions(len(products),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Searching prices...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(os.Stderr)
		}),
	)

	var failures int
	for _, product := range products {
		intent := base
		intent.Product = product

		result, runErr := svc.Run(cmd.Context(), intent, userID)
		if runErr != nil {
			failures++
			fmt.Println(cli.FormatWarning(fmt.Sprintf("%s: %v", product, runErr)))
		} else {
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s: %d prices found", product, len(result.Results))))
		}
		_ = bar.Add(1)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d searches failed", failures, len(products))
	}
	return nil
}

func readProductList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var products []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		products = append(products, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return products, nil
}
