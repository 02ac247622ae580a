package cmd

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "remanerp",
	Short: "Inventory reservation and stock accounting toolkit",
}

// Execute applies registered commands and runs the CLI.
func Execute() {
	Apply()

	// ASCII banner when invoked bare (random font each run)
	if len(os.Args) == 1 {
		fonts := []string{"standard", "slant", "small", "shadow", "speed", "doom", "larry3d", "rectangles"}
		fig := figure.NewFigure("RemanERP", fonts[rand.Intn(len(fonts))], true)
		fig.Print()
		fmt.Println()
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
