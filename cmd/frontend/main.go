package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/stockmesh/stockmesh/internal/frontend"
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
	Use:     "frontend",
	Short:   "Frontend service: the HTTP gateway clients call to browse stocks and place orders",
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("frontend version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.Flags().String("listen", "0.0.0.0:8081", "HTTP listen address")
	rootCmd.Flags().String("ops-listen", "0.0.0.0:8180", "Operations HTTP listen address (/health, /ready, /metrics)")
	rootCmd.Flags().String("catalog-addr", "127.0.0.1:9001", "Catalog service gRPC address")
	rootCmd.Flags().StringSlice("replica", nil, "Order replica as id=address, repeatable (e.g. --replica 1=127.0.0.1:9011 --replica 2=127.0.0.1:9012)")
	rootCmd.Flags().Int("cache-size", 10, "Maximum number of stocks held in the lookup cache")
	_ = rootCmd.MarkFlagRequired("replica")
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

func parseReplicas(specs []string) ([]frontend.ReplicaConfig, error) {
	configs := make([]frontend.ReplicaConfig, 0, len(specs))
	for _, spec := range specs {
		idStr, addr, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --replica %q, want id=address", spec)
		}
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid replica id in %q: %w", spec, err)
		}
		configs = append(configs, frontend.ReplicaConfig{ID: id, Address: addr})
	}
	return configs, nil
}

func run(cmd *cobra.Command, _ []string) error {
	listen, _ := cmd.Flags().GetString("listen")
	opsListen, _ := cmd.Flags().GetString("ops-listen")
	catalogAddr, _ := cmd.Flags().GetString("catalog-addr")
	replicaSpecs, _ := cmd.Flags().GetStringSlice("replica")
	cacheSize, _ := cmd.Flags().GetInt("cache-size")

	logger := log.WithComponent("frontend")

	replicas, err := parseReplicas(replicaSpecs)
	if err != nil {
		return err
	}

	catalogConn, err := grpc.NewClient(catalogAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(jsoncodec.Codec{})),
	)
	if err != nil {
		return fmt.Errorf("dial catalog at %s: %w", catalogAddr, err)
	}
	defer catalogConn.Close()
	catalogClient := catalogpb.NewCatalogClient(catalogConn)

	dial := func(address string) (grpc.ClientConnInterface, error) {
		return grpc.NewClient(address,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(grpc.ForceCodec(jsoncodec.Codec{})),
		)
	}

	coord, err := frontend.NewCoordinator(replicas, dial)
	if err != nil {
		return fmt.Errorf("create coordinator: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coord.Start(ctx)
	defer coord.Stop()

	cache, err := frontend.NewCache(cacheSize)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}

	httpServer := &http.Server{
		Addr:         listen,
		Handler:      frontend.NewServer(cache, catalogClient, coord).Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", listen).Msg("frontend HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	ops := opsserver.New(Version, func() (bool, map[string]string) {
		leaderID := coord.LeaderID()
		ready := leaderID != -1
		return ready, map[string]string{"leader_id": strconv.Itoa(leaderID)}
	})
	go func() {
		logger.Info().Str("addr", opsListen).Msg("frontend ops server listening")
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return httpServer.Shutdown(shutdownCtx)
}
