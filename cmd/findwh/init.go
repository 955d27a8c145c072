package main

import (
	"context"
	"fmt"

	"github.com/findata/findwh/internal/iodb"
	"github.com/findata/findwh/internal/ioingest"
	"github.com/findata/findwh/pkg/db"
	"github.com/spf13/cobra"
)

var forceInit bool

// ddlFiles are executed in order, relative to the SQL directory. The
// core views depend on the raw table, so raw comes first. The comment
// ends up on the created object.
var ddlFiles = []struct {
	file    string
	comment string
}{
	{"raw/ddl/ohlc_daily.sql", "Daily OHLC data"},
	{"core/ddl/ohlc_daily.sql", "Daily OHLC Data (View)"},
	{"core/ddl/ohlc_daily_new_high.sql",
		"Only OHLC data of days, where a new high is hit (View)"},
}

func getInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create warehouse schemas, tables and views",
		Long: `Create the warehouse structure from scratch.

This command:
  1. Connects to PostgreSQL using the dwh_finance configuration
  2. Creates the raw and core schemas with descriptive comments
  3. Executes the DDL templates from the SQL directory

The DDL templates are idempotent, so init is safe to rerun. Use --force
to drop the warehouse objects first and rebuild them from nothing.

Examples:
  findwh init
  findwh init --force
  findwh init --config config/base.yaml --config config/prod/dwh.yaml`,
		RunE: runInit,
	}

	cmd.Flags().BoolVar(&forceInit, "force", false,
		"drop existing warehouse objects before creating them (destructive)")

	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sess, err := iodb.NewSession(getStore(), dwhName)
	if err != nil {
		return err
	}
	if err := sess.Open(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sess.Close()

	if forceInit {
		if err := dropWarehouseObjects(ctx, sess); err != nil {
			return err
		}
	}

	schemas := []struct {
		name    string
		comment string
	}{
		{ioingest.RawSchema, "Raw financial data as delivered by providers"},
		{ioingest.CoreSchema, "Cleaned and derived financial data"},
	}
	for _, s := range schemas {
		if _, err := sess.CreateSchema(ctx, s.name, s.comment); err != nil {
			return fmt.Errorf("failed to create schema %s: %w", s.name, err)
		}
	}

	for _, ddl := range ddlFiles {
		_, err := sess.Call(ctx, db.OpExecuteStatementFromFile, db.CallArgs{
			Filename: ddl.file,
			Parameters: map[string]string{
				"RAW_SCHEMA":  ioingest.RawSchema,
				"CORE_SCHEMA": ioingest.CoreSchema,
				"COMMENT":     ddl.comment,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to execute %s: %w", ddl.file, err)
		}
	}

	fmt.Println("Warehouse structure is ready.")
	fmt.Println("\nNext steps:")
	fmt.Println("  - Run 'findwh ingest' to load daily quotes")
	fmt.Println("  - Run 'findwh refresh' to refresh the core views")

	return nil
}

// dropWarehouseObjects removes the objects the DDL templates create,
// dependents first.
func dropWarehouseObjects(ctx context.Context, sess *iodb.Session) error {
	views := []struct {
		name         string
		materialized bool
	}{
		{ioingest.CoreSchema + ".ohlc_daily_new_high", false},
		{ioingest.CoreSchema + ".ohlc_daily", true},
	}
	for _, view := range views {
		if _, err := sess.DropView(ctx, view.name, view.materialized); err != nil {
			return fmt.Errorf("failed to drop view %s: %w", view.name, err)
		}
	}

	table := ioingest.RawSchema + "." + ioingest.OHLCTable
	if _, err := sess.DropTable(ctx, table); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	return nil
}
