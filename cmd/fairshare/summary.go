package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mmynk/fairshare/internal/calculator"
	"github.com/mmynk/fairshare/internal/config"
	"github.com/mmynk/fairshare/internal/persist"
	"github.com/mmynk/fairshare/internal/service"
	"github.com/mmynk/fairshare/internal/storage"
	"github.com/mmynk/fairshare/internal/storage/memory"
)

var (
	summaryBy    string
	summaryValue bool
)

var errNoPersistence = errors.New("persistence driver is none; there is no snapshot to summarize")

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print ownership from the last saved snapshot",
	Long: `Loads the last snapshot from the configured backend and prints the
grant aggregation for the chosen mode plus the market capitalization.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryBy, "by", string(calculator.ModeGroup), "Aggregation mode: group, investor or sharetype")
	summaryCmd.Flags().BoolVar(&summaryValue, "value", false, "Weight share counts by value per share")
}

func runSummary(cmd *cobra.Command, args []string) error {
	mode := calculator.Mode(summaryBy)
	switch mode {
	case calculator.ModeGroup, calculator.ModeInvestor, calculator.ModeShareType:
	default:
		return fmt.Errorf("unknown mode %q (want group, investor or sharetype)", summaryBy)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sink, err := openSink(ctx, cfg.Persistence)
	if err != nil {
		return err
	}
	if sink == nil {
		return errNoPersistence
	}
	defer sink.Close()

	store := memory.New()
	restored, err := persist.Restore(ctx, sink, store)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if restored {
		if err := printSavedAt(ctx, out, sink); err != nil {
			return err
		}
	}
	return printSummary(ctx, out, service.NewCapTableService(store), mode, summaryValue)
}

// printSavedAt reports the snapshot time for sinks that record one.
func printSavedAt(ctx context.Context, out io.Writer, sink storage.Sink) error {
	ts, ok := sink.(storage.Timestamped)
	if !ok {
		return nil
	}
	savedAt, err := ts.SavedAt(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Snapshot saved at %s\n\n", savedAt.UTC().Format(time.RFC3339))
	return err
}

func printSummary(ctx context.Context, out io.Writer, svc *service.CapTableService, mode calculator.Mode, byValue bool) error {
	buckets, err := svc.GrantStats(ctx, mode, byValue)
	if err != nil {
		return err
	}
	marketCap, err := svc.MarketCap(ctx)
	if err != nil {
		return err
	}

	// Without a company there are no prices, so GrantStats counts shares.
	weighted := byValue
	if _, err := svc.GetCompany(ctx); err != nil {
		if connect.CodeOf(err) != connect.CodeNotFound {
			return err
		}
		weighted = false
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "SHARES"
	if weighted {
		header = "VALUE"
	}
	fmt.Fprintf(tw, "%s\t%s\n", mode, header)
	for _, b := range buckets {
		y := decimal.NewFromFloat(b.Y)
		if weighted {
			fmt.Fprintf(tw, "%s\t%s\n", b.X, calculator.FormatUSD(y))
		} else {
			fmt.Fprintf(tw, "%s\t%s\n", b.X, y.String())
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "\nMarket cap: %s\n", marketCap.Formatted)
	return err
}
