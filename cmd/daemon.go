package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/farelog/internal/cli"
	"github.com/theirongolddev/farelog/internal/daemon"
)

var (
	flagDaemonAddr         string
	flagDaemonEventsBuffer int
)

var daemonCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"daemon"},
	Short:   "Serve the expense history over a local HTTP API",
	RunE:    runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show API status of a running server",
	RunE:  runDaemonStatus,
}

func init() {
	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default server.addr)")
	daemonCmd.Flags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	daemonCmd.AddCommand(daemonStatusCmd)
	rootCmd.AddCommand(daemonCmd)
}

func daemonAddr() (string, error) {
	if flagDaemonAddr != "" {
		return flagDaemonAddr, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.Server.Addr, nil
}

func runDaemon(_ *cobra.Command, _ []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	addr := flagDaemonAddr
	if addr == "" {
		addr = s.cfg.Server.Addr
	}

	gin.SetMode(gin.ReleaseMode)
	svc := daemon.New(daemon.Config{
		Addr:           addr,
		Backend:        s.cfg.Storage.Backend,
		CurrencySymbol: s.cfg.Report.CurrencySymbol,
		ReportName:     s.cfg.Report.FileName,
		EventsBuffer:   flagDaemonEventsBuffer,
	}, s.fares, s.svc, s.log.Named("daemon"))

	info("  farelog listening on http://%s\n", addr)
	info("  %d routes loaded, %d expenses on record\n", s.fares.Len(), s.svc.Len())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	addr, err := daemonAddr()
	if err != nil {
		return err
	}
	fmt.Printf("  Address: http://%s\n", addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  Started: %s\n", st.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Backend: %s\n", st.Backend)
	fmt.Printf("  Routes: %d\n", st.FareRoutes)
	fmt.Printf("  Expenses: %d (%d employees)\n", st.Expenses, st.Employees)
	fmt.Printf("  Total: %s\n", cli.FormatFare(st.Total, ""))
	fmt.Printf("  Added since start: %d\n", st.AddedCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}
