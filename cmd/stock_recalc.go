package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"remanerp/config"
	"remanerp/core/alerts"
	partRepo "remanerp/model/repository/part"
	stockService "remanerp/service/stock"
)

var (
	recalcOrg  uint
	recalcPart uint
)

var stockRecalcCmd = &cobra.Command{
	Use:   "stock:recalc",
	Short: "Compare on-hand quantities against the movement ledger and report drift",
	Run: func(cmd *cobra.Command, args []string) {
		db, err := config.NewDB()
		if err != nil {
			fmt.Printf("Database connection failed: %v\n", err)
			os.Exit(1)
		}
		svc, err := stockService.NewService(db, alerts.New())
		if err != nil {
			fmt.Printf("Service setup failed: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		partIDs := []uint{recalcPart}
		if recalcPart == 0 {
			parts, err := partRepo.NewPartRepository(db)
			if err != nil {
				fmt.Printf("Repository setup failed: %v\n", err)
				os.Exit(1)
			}
			active, err := parts.ListActive(recalcOrg, "")
			if err != nil {
				fmt.Printf("Listing parts failed: %v\n", err)
				os.Exit(1)
			}
			partIDs = partIDs[:0]
			for _, p := range active {
				partIDs = append(partIDs, p.PartID)
			}
		}

		drifted := 0
		for _, id := range partIDs {
			book, ledger, err := svc.RecalcPart(ctx, recalcOrg, id)
			if err != nil {
				fmt.Printf("  part %d: %v\n", id, err)
				continue
			}
			if book != ledger {
				drifted++
				fmt.Printf("  [drift] part %d: book=%d ledger=%d (off by %d)\n", id, book, ledger, book-ledger)
			}
		}
		fmt.Printf("Checked %d parts, %d drifted.\n", len(partIDs), drifted)
	},
}

func init() {
	stockRecalcCmd.Flags().UintVar(&recalcOrg, "org", 0, "Organization ID (required)")
	stockRecalcCmd.MarkFlagRequired("org")
	stockRecalcCmd.Flags().UintVar(&recalcPart, "part", 0, "Part ID (default: every active part in the org)")
	rootCmd.AddCommand(stockRecalcCmd)
}
