package main

import (
	"encoding/json"
	"fmt"

	"agent-platform/internal/catalog"
	"agent-platform/internal/workflow"

	"github.com/spf13/cobra"
)

var lookupJSON bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the SalesItem class and load the seed items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := catalogSvc()
		if err != nil {
			return err
		}
		n, err := svc.Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		cmd.Printf("Seeded %d items into %s\n", n, catalog.ClassName)
		return nil
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [query]",
	Short: "Look up discounted items",
	Long: `Lists discounted items, or ranks them by semantic similarity to the
query. At most 10 items are returned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := catalogSvc()
		if err != nil {
			return err
		}
		items, err := svc.Lookup(cmd.Context(), queryArg(args))
		if err != nil {
			return err
		}
		return printItems(cmd, items)
	},
}

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Run catalog steps as timed workflows",
}

var workflowSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run SeedWorkflow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := catalogSvc()
		if err != nil {
			return err
		}
		n, err := workflow.SeedWorkflow(svc, cfg.Catalog.StepTimeout).Run(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("SeedWorkflow loaded %d items\n", n)
		return nil
	},
}

var workflowSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run SearchWorkflow",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := catalogSvc()
		if err != nil {
			return err
		}
		items, err := workflow.SearchWorkflow[[]catalog.SalesItem](svc, queryArg(args), cfg.Catalog.StepTimeout).Run(cmd.Context())
		if err != nil {
			return err
		}
		return printItems(cmd, items)
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupJSON, "json", false, "output results as JSON")
	workflowSearchCmd.Flags().BoolVar(&lookupJSON, "json", false, "output results as JSON")

	workflowCmd.AddCommand(workflowSeedCmd, workflowSearchCmd)
	rootCmd.AddCommand(seedCmd, lookupCmd, workflowCmd)
}

func queryArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func printItems(cmd *cobra.Command, items []catalog.SalesItem) error {
	if lookupJSON {
		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	if len(items) == 0 {
		cmd.Println("No items found.")
		return nil
	}
	for _, it := range items {
		cmd.Printf("  [%d] %s (%s) $%.2f -> $%.2f, %d%% off", it.ItemID, it.Name, it.Type, it.RetailPriceUSD, it.SalePriceUSD, it.SaleDiscountPct)
		if it.Certainty != nil {
			cmd.Printf("  certainty %.3f", *it.Certainty)
		}
		cmd.Println()
	}
	return nil
}
