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
	"google.golang.org/grpc/credentials/insecure"

	"github.com/stockmesh/stockmesh/internal/orderreplica"
	"github.com/stockmesh/stockmesh/pkg/log"
	"github.com/stockmesh/stockmesh/pkg/opsserver"
	"github.com/stockmesh/stockmesh/pkg/rpc/catalogpb"
	"github.com/stockmesh/stockmesh/pkg/rpc/jsoncodec"
	"github.com/stockmesh/stockmesh/pkg/rpc/orderpb"
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
	Use:     "orderreplica",
	Short:   "Order replica service: places orders against Catalog and keeps one replica of the order log",
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("orderreplica version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.Flags().Int("replica-id", 0, "This replica's id, used for election and log file naming (required)")
	rootCmd.Flags().String("listen", "0.0.0.0:9011", "gRPC listen address")
	rootCmd.Flags().String("ops-listen", "0.0.0.0:9111", "Operations HTTP listen address (/health, /ready, /metrics)")
	rootCmd.Flags().String("data-dir", "./data/order", "Directory for order_log_<replica-id>.csv")
	rootCmd.Flags().String("catalog-addr", "127.0.0.1:9001", "Catalog service gRPC address")
	rootCmd.Flags().Duration("flush-interval", 5*time.Second, "Periodic background flush interval")
	_ = rootCmd.MarkFlagRequired("replica-id")
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

func run(cmd *cobra.Command, _ []string) error {
	replicaID, _ := cmd.Flags().GetInt("replica-id")
	listen, _ := cmd.Flags().GetString("listen")
	opsListen, _ := cmd.Flags().GetString("ops-listen")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	catalogAddr, _ := cmd.Flags().GetString("catalog-addr")
	flushInterval, _ := cmd.Flags().GetDuration("flush-interval")

	logger := log.WithReplicaID(replicaID)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	store, err := orderreplica.NewStore(replicaID, fmt.Sprintf("%s/order_log_%d.csv", dataDir, replicaID))
	if err != nil {
		return fmt.Errorf("open order store: %w", err)
	}
	store.StartPeriodicFlush(flushInterval)
	defer store.Stop()

	catalogConn, err := grpc.NewClient(catalogAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsoncodec.Codec{})),
	)
	if err != nil {
		return fmt.Errorf("dial catalog at %s: %w", catalogAddr, err)
	}
	defer catalogConn.Close()
	catalogClient := catalogpb.NewCatalogClient(catalogConn)

	lis, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listen, err)
	}

	grpcServer := grpc.NewServer(grpc.ForceServerCodec(jsoncodec.Codec{}))
	orderpb.RegisterOrderServer(grpcServer, orderreplica.NewServer(store, catalogClient))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", listen).Msg("order replica gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	ops := opsserver.New(Version, func() (bool, map[string]string) {
		return true, map[string]string{"store": "ready", "catalog": catalogAddr}
	})
	go func() {
		logger.Info().Str("addr", opsListen).Msg("order replica ops server listening")
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
