package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/farelog/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Fare table:      %s\n", cfg.General.FaresFile)
	fmt.Printf("    History file:    %s\n", cfg.General.HistoryFile)
	fmt.Println()

	fmt.Println("  [Storage]")
	fmt.Printf("    Backend:         %s\n", cfg.Storage.Backend)
	fmt.Printf("    Writes to:       %s\n", config.StoragePath(cfg))
	fmt.Println()

	fmt.Println("  [Report]")
	fmt.Printf("    Currency symbol: %s\n", cfg.Report.CurrencySymbol)
	fmt.Printf("    File name:       %s\n", cfg.Report.FileName)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:         %s\n", cfg.Server.Addr)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:           %s\n", cfg.Log.Level)
	fmt.Printf("    Format:          %s\n", cfg.Log.Format)
	fmt.Printf("    Output:          %s\n", cfg.Log.Output)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme:           %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `farelog setup` to reconfigure.")
	return nil
}
