// Package cmd implements the farelog CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/farelog/internal/cli"
	"github.com/theirongolddev/farelog/internal/config"
	"github.com/theirongolddev/farelog/internal/expense"
	"github.com/theirongolddev/farelog/internal/fare"
	"github.com/theirongolddev/farelog/internal/logger"
	"github.com/theirongolddev/farelog/internal/store"
)

var (
	flagFares   string
	flagHistory string
	flagBackend string
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:               "farelog",
	Short:             "Travel expense tracker",
	Long:              "Record employee trips against a fixed fare table, review the history and export it as a spreadsheet.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadEnv,
	RunE:              runView,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if msg, ok := expense.UserMessage(err); ok {
			fmt.Println(cli.RenderError(msg))
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFares, "fares", "", "Fare table (.xlsx or .csv)")
	rootCmd.PersistentFlags().StringVar(&flagHistory, "history", "", "Expense history CSV")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "Storage backend (csv or sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress informational output")
}

// loadEnv reads a .env file from the working directory when present.
func loadEnv(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load()
	return nil
}

// loadConfig returns the configuration with env and flag overrides applied,
// flags taking precedence.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	cfg = config.Resolve(cfg)

	if flagFares != "" {
		cfg.General.FaresFile = flagFares
	}
	if flagHistory != "" {
		cfg.General.HistoryFile = flagHistory
	}
	if flagBackend != "" {
		cfg.Storage.Backend = flagBackend
	}
	return cfg, nil
}

// session bundles what every data command needs.
type session struct {
	cfg   config.Config
	log   *zap.Logger
	fares *fare.Table
	store store.Store
	svc   *expense.Service
}

// openSession loads the fare table and the expense history. A fare table
// that cannot be loaded is fatal.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	fares, err := fare.Load(cfg.General.FaresFile)
	if err != nil {
		return nil, err
	}
	log.Debug("fare table loaded",
		zap.String("path", cfg.General.FaresFile),
		zap.Int("routes", fares.Len()))

	path := config.StoragePath(cfg)
	st, err := store.Open(cfg.Storage.Backend, path)
	if err != nil {
		return nil, err
	}

	svc, err := expense.NewService(fares, st, log.Named("expense"))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &session{cfg: cfg, log: log, fares: fares, store: st, svc: svc}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn("closing store", zap.Error(err))
	}
	_ = s.log.Sync()
}

// info prints an informational line unless --quiet is set.
func info(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Printf(format, args...)
}
