package main

import (
	"context"
	"fmt"

	"github.com/findata/findwh/internal/iodb"
	"github.com/findata/findwh/internal/ioingest"
	"github.com/findata/findwh/pkg/db"
	"github.com/spf13/cobra"
)

// coreViews are the materialized views of the core layer. The new-high
// view is a plain view on top of them and needs no refresh.
var coreViews = []string{
	ioingest.CoreSchema + ".ohlc_daily",
}

func getRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the core layer's materialized views",
		Long: `Refresh the materialized views of the core layer so they reflect
the current contents of the raw layer.

Examples:
  findwh refresh`,
		RunE: runRefresh,
	}
}

func runRefresh(cmd *cobra.Command, args []string) error {
	return refreshCoreViews(context.Background())
}

func refreshCoreViews(ctx context.Context) error {
	sess, err := iodb.NewSession(getStore(), dwhName)
	if err != nil {
		return err
	}
	if err := sess.Open(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sess.Close()

	for _, view := range coreViews {
		_, err := sess.Call(ctx, db.OpRefreshMatView, db.CallArgs{ViewName: view})
		if err != nil {
			return fmt.Errorf("failed to refresh %s: %w", view, err)
		}
		fmt.Printf("Refreshed %s\n", view)
	}
	return nil
}
