package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	chs "github.com/leixiaohui-1974/CHS-sub001"
	_ "github.com/leixiaohui-1974/CHS-sub001/agents"
	"github.com/leixiaohui-1974/CHS-sub001/envelope"
	"github.com/leixiaohui-1974/CHS-sub001/kernel"
	"github.com/leixiaohui-1974/CHS-sub001/pkg/observability"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	configFile string
	httpPort   int
	logLevel   string
	exportData bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chs",
		Short: "Deterministic multi-agent water-system simulation kernel",
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chs %s\n", Version)
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation from a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", getEnv("CONFIG_FILE", "config/agents.yaml"), "Simulation configuration file")
	cmd.Flags().IntVar(&httpPort, "http-port", getEnvInt("PORT", 8080), "Observability server port, 0 to disable")
	cmd.Flags().StringVar(&logLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&exportData, "export-data", false, "Mirror published messages to stdout as data_exchange envelopes")
	return cmd
}

func runSimulation(ctx context.Context) error {
	initLogging(logLevel)

	observability.InitMetrics()
	if err := observability.InitTracingFromEnv(); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.ShutdownTracing(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown", "error", err)
		}
	}()

	config, err := chs.NewConfigLoader(chs.OSFileReader{}).LoadConfig(configFile)
	if err != nil {
		return err
	}

	opts := []kernel.Option{
		kernel.WithEnvelopeSink(stdoutSink()),
	}
	if exportData {
		opts = append(opts, kernel.WithMessageExport())
	}

	k, err := chs.NewKernel(config, opts...)
	if err != nil {
		return err
	}
	slog.Info("starting simulation",
		"version", Version,
		"config", configFile,
		"run_id", k.RunID(),
		"agents", len(config.Agents))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	var server *observability.Server
	if httpPort > 0 {
		server = observability.NewServer(httpPort, k)
		g.Go(func() error {
			slog.Info("observability server listening", "port", httpPort)
			return server.Start()
		})
	}

	var report *kernel.Report
	g.Go(func() error {
		defer func() {
			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Warn("observability server shutdown", "error", err)
				}
			}
		}()
		var err error
		report, err = k.Run(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("simulation finished",
		"run_id", report.RunID,
		"steps", report.Steps,
		"final_time", report.FinalTime,
		"cancelled", report.Cancelled,
		"faults", len(report.Faults))
	for _, f := range report.Faults {
		slog.Warn("agent fault", "fault", f.String())
	}
	return nil
}

// stdoutSink writes run envelopes as JSON lines for downstream consumers.
func stdoutSink() kernel.EnvelopeSink {
	enc := json.NewEncoder(os.Stdout)
	return func(env envelope.Envelope) {
		if err := enc.Encode(env); err != nil {
			slog.Error("encode envelope", "error", err)
		}
	}
}

func initLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return def
}
