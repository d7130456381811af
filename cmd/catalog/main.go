package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/stockmesh/stockmesh/internal/catalog"
	"github.com/stockmesh/stockmesh/pkg/log"
	"github.com/stockmesh/stockmesh/pkg/opsserver"
	"github.com/stockmesh/stockmesh/pkg/rpc/catalogpb"
	"github.com/stockmesh/stockmesh/pkg/rpc/jsoncodec"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "catalog",
	Short:   "Catalog service: the source of truth for stock prices and available quantities",
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("catalog version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.Flags().String("listen", "0.0.0.0:9001", "gRPC listen address")
	rootCmd.Flags().String("ops-listen", "0.0.0.0:9101", "Operations HTTP listen address (/health, /ready, /metrics)")
	rootCmd.Flags().String("data-dir", "./data/catalog", "Directory for catalog_database.csv")
	rootCmd.Flags().Duration("flush-interval", 5*time.Second, "Periodic background flush interval")
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

func run(cmd *cobra.Command, _ []string) error {
	listen, _ := cmd.Flags().GetString("listen")
	opsListen, _ := cmd.Flags().GetString("ops-listen")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	flushInterval, _ := cmd.Flags().GetDuration("flush-interval")

	logger := log.WithComponent("catalog")

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	store, err := catalog.NewStore(dataDir + "/catalog_database.csv")
	if err != nil {
		return fmt.Errorf("open catalog store: %w", err)
	}
	store.StartPeriodicFlush(flushInterval)
	defer store.Stop()

	lis, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listen, err)
	}

	grpcServer := grpc.NewServer(grpc.ForceServerCodec(jsoncodec.Codec{}))
	catalogpb.RegisterCatalogServer(grpcServer, catalog.NewServer(store))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", listen).Msg("catalog gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	ops := opsserver.New(Version, func() (bool, map[string]string) {
		return true, map[string]string{"store": "ready"}
	})
	go func() {
		logger.Info().Str("addr", opsListen).Msg("catalog ops server listening")
		if err := ops.Start(opsListen); err != nil {
			errCh <- fmt.Errorf("ops server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("fatal error")
		return err
	}

	grpcServer.GracefulStop()
	return nil
}
