package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	apiclient "github.com/mclarke/listing-gateway/internal/api/client"
	domain "github.com/mclarke/listing-gateway/pkg/types"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printListingsTable(listings []domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("MARKETPLACE\tID\tTITLE\tPRICE\tCONDITION\tAVAILABLE\n")
	for i := range listings {
		l := &listings[i]
		tw.writef("%s\t%s\t%s\t%s\t%s\t%v\n",
			l.Marketplace,
			l.MarketplaceID,
			truncate(l.Title, 50),
			formatPrice(l),
			l.Condition,
			l.Available,
		)
	}
	return tw.finish()
}

func printListingDetail(l *domain.Listing) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("Marketplace:\t%s\n", l.Marketplace)
	tw.writef("ID:\t%s\n", l.MarketplaceID)
	tw.writef("Title:\t%s\n", l.Title)
	tw.writef("Price:\t%s\n", formatPrice(l))
	tw.writef("Condition:\t%s\n", l.Condition)
	tw.writef("Available:\t%v\n", l.Available)
	if l.Category != "" {
		tw.writef("Category:\t%s\n", l.Category)
	}
	if l.SellerName != "" {
		tw.writef("Seller:\t%s\n", l.SellerName)
	}
	if l.SellerRating != nil {
		tw.writef("Seller Rating:\t%.1f/5\n", *l.SellerRating)
	}
	tw.writef("URL:\t%s\n", l.ListingURL)
	return tw.finish()
}

func printQuotaTable(quotas []apiclient.ProviderQuota) error {
	tw := newTabWriter(os.Stdout)
	tw.writef("PROVIDER\tTOKENS\tCAPACITY\tREFILL/S\tWAIT\n")
	for _, q := range quotas {
		wait := "-"
		if q.WaitMillis > 0 {
			wait = fmt.Sprintf("%dms", q.WaitMillis)
		}
		tw.writef("%s\t%.1f\t%.0f\t%.3f\t%s\n",
			q.Provider, q.Tokens, q.Capacity, q.RefillPerSecond, wait)
	}
	return tw.finish()
}

func formatPrice(l *domain.Listing) string {
	if l.Price == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f %s", l.Price, l.Currency)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
