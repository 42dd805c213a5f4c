package cli

import (
	"fmt"
	"strings"

	"github.com/priceowl/priceowl/internal/model"
)

// RenderRecordsTable renders search results as an aligned table of
// store, price, date, and offer status.
func RenderRecordsTable(records []model.PriceRecord) string {
	if len(records) == 0 {
		return SubtleStyle.Render("(no results)")
	}

	var sb strings.Builder
	header := fmt.Sprintf("%-30s %-20s %12s  %-10s %s", "Product", "Store", "Price", "Date", "Offer")
	sb.WriteString(TableHeaderStyle.Render(header))
	sb.WriteString("\n")

	for _, r := range records {
		offer := ""
		if r.IsOffer {
			offer = WarningStyle.Render("yes")
		}
		line := fmt.Sprintf("%-30s %-20s %12s  %-10s %s",
			truncate(r.Product, 30),
			truncate(r.Store, 20),
			FormatPrice(r.Price, r.Currency),
			r.Date.String(),
			offer)
		sb.WriteString(TableCellStyle.Render(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderComparisonRows renders monitor report rows with the own-store price
// against each competitor.
func RenderComparisonRows(rows []model.ComparisonRow, currency string) string {
	if len(rows) == 0 {
		return SubtleStyle.Render("(no comparable products)")
	}

	var sb strings.Builder
	for _, row := range rows {
		name := row.DisplayProduct
		if name == "" {
			name = row.ProductName
		}
		sb.WriteString(TitleStyle.UnsetMargins().Render(name))
		sb.WriteString("\n")

		if row.MyPrice != nil {
			sb.WriteString(fmt.Sprintf("  %s: %s",
				row.MyStore, FormatPrice(*row.MyPrice, currency)))
			if row.MyDate != nil {
				sb.WriteString(SubtleStyle.Render(" (" + row.MyDate.String() + ")"))
			}
			sb.WriteString("\n")
		} else {
			sb.WriteString(SubtleStyle.Render("  " + row.MyStore + ": no price on record\n"))
		}

		for _, c := range row.Competitors {
			marker := ""
			if row.MyPrice != nil && c.Price < *row.MyPrice {
				marker = " " + ErrorStyle.Render("(cheaper)")
			}
			sb.WriteString(fmt.Sprintf("  %s: %s%s\n",
				c.Store, FormatPrice(c.Price, currency), marker))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatPrice renders an integer price with thousands separators and the
// currency code.
func FormatPrice(price int64, currency string) string {
	s := fmt.Sprintf("%d", price)
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ".")
	if currency != "" {
		out += " " + currency
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
